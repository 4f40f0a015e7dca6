// Линтер проекта: exitcheck вместе со стандартными анализаторами go vet.
package main

import (
	"golang.org/x/tools/go/analysis/multichecker"
	"golang.org/x/tools/go/analysis/passes/printf"
	"golang.org/x/tools/go/analysis/passes/structtag"
	"golang.org/x/tools/go/analysis/passes/unusedresult"
)

func main() {
	multichecker.Main(
		Analyzer,
		printf.Analyzer,
		structtag.Analyzer,
		unusedresult.Analyzer,
	)
}
