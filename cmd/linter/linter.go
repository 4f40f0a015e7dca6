package main

import (
	"go/ast"
	"go/types"

	"golang.org/x/tools/go/analysis"
	"golang.org/x/tools/go/analysis/passes/inspect"
	"golang.org/x/tools/go/ast/inspector"
)

// Analyzer запрещает panic везде, а завершение процесса (log.Fatal*, os.Exit, zap Fatal*)
// разрешает только в функции main пакета main.
var Analyzer = &analysis.Analyzer{
	Name:     "exitcheck",
	Doc:      "проверяет использование panic, os.Exit, log.Fatal и zap Fatal вне main пакета main",
	Requires: []*analysis.Analyzer{inspect.Analyzer},
	Run:      run,
}

var exitFuncs = map[string]map[string]bool{
	"log":             {"Fatal": true, "Fatalf": true, "Fatalln": true},
	"os":              {"Exit": true},
	"go.uber.org/zap": {"Fatal": true, "Fatalf": true, "Fatalw": true, "Fatalln": true},
}

func run(pass *analysis.Pass) (interface{}, error) {
	insp := pass.ResultOf[inspect.Analyzer].(*inspector.Inspector)

	filter := []ast.Node{(*ast.CallExpr)(nil)}
	insp.WithStack(filter, func(n ast.Node, push bool, stack []ast.Node) bool {
		if !push {
			return true
		}
		call := n.(*ast.CallExpr)

		if isBuiltinPanic(pass, call) {
			pass.Reportf(call.Pos(), "использование встроенной функции panic")
			return true
		}

		pkg, name, ok := exitCall(pass, call)
		if !ok || isInMainFunc(pass, stack) {
			return true
		}
		pass.Reportf(call.Pos(), "вызов %s.%s вне функции main пакета main", pkg, name)
		return true
	})

	return nil, nil
}

func isBuiltinPanic(pass *analysis.Pass, call *ast.CallExpr) bool {
	ident, ok := ast.Unparen(call.Fun).(*ast.Ident)
	if !ok || ident.Name != "panic" {
		return false
	}
	_, builtin := pass.TypesInfo.Uses[ident].(*types.Builtin)
	return builtin
}

// exitCall определяет функцию или метод, завершающий процесс, по информации о типах,
// поэтому алиасы импортов не влияют на результат.
func exitCall(pass *analysis.Pass, call *ast.CallExpr) (pkg, name string, ok bool) {
	sel, isSel := ast.Unparen(call.Fun).(*ast.SelectorExpr)
	if !isSel {
		return "", "", false
	}
	fn, isFunc := pass.TypesInfo.Uses[sel.Sel].(*types.Func)
	if !isFunc || fn.Pkg() == nil {
		return "", "", false
	}
	names, known := exitFuncs[fn.Pkg().Path()]
	if !known || !names[fn.Name()] {
		return "", "", false
	}
	return fn.Pkg().Name(), fn.Name(), true
}

// isInMainFunc проверяет, что ближайшая объемлющая функция является main пакета main.
func isInMainFunc(pass *analysis.Pass, stack []ast.Node) bool {
	if pass.Pkg.Name() != "main" {
		return false
	}
	for i := len(stack) - 1; i >= 0; i-- {
		if decl, ok := stack[i].(*ast.FuncDecl); ok {
			return decl.Recv == nil && decl.Name.Name == "main"
		}
	}
	return false
}
