// Package service собирает компоненты сервера телеметрии и управляет их жизненным циклом:
// ядро, каналы алертов, журнал в PostgreSQL, проверка внешних API и HTTP-сервер.
// Завершение работы выполняется корректно по SIGINT/SIGTERM.
package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os/signal"
	"syscall"
	"time"

	"github.com/levinOo/go-telemetry-project/internal/apimonitor"
	"github.com/levinOo/go-telemetry-project/internal/config"
	"github.com/levinOo/go-telemetry-project/internal/config/db"
	"github.com/levinOo/go-telemetry-project/internal/exporter"
	"github.com/levinOo/go-telemetry-project/internal/handler"
	"github.com/levinOo/go-telemetry-project/internal/logger"
	"github.com/levinOo/go-telemetry-project/internal/notify"
	"github.com/levinOo/go-telemetry-project/internal/storage"
	"github.com/levinOo/go-telemetry-project/internal/task"
	"github.com/levinOo/go-telemetry-project/internal/telemetry"
	"github.com/levinOo/go-telemetry-project/migrations"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ShutdownTimeout ограничивает корректное завершение HTTP-сервера.
const ShutdownTimeout = 30 * time.Second

// webhookTimeout ограничивает отправку одного алерта на webhook.
const webhookTimeout = 5 * time.Second

// App содержит собранные компоненты сервера.
type App struct {
	cfg    config.Config
	logger *zap.SugaredLogger

	core      *telemetry.Core
	checker   *apimonitor.Checker
	checkTask *task.Periodic
	journal   *storage.AlertJournal
	dbConn    *sql.DB

	server      *http.Server
	pprofServer *http.Server
}

// Serve загружает логгер, собирает приложение и работает до сигнала завершения.
func Serve(cfg config.Config) error {
	sugar, err := logger.NewLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer sugar.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := Build(ctx, cfg, sugar, nil)
	if err != nil {
		return err
	}
	return app.Run(ctx)
}

// Build создаёт компоненты по конфигурации. opts передаются ядру телеметрии.
// Если задан DSN, выполняется подключение к базе и миграции журнала алертов.
func Build(ctx context.Context, cfg config.Config, sugar *zap.SugaredLogger, opts []telemetry.Option) (*App, error) {
	if sugar == nil {
		sugar = logger.NewNop()
	}
	sugar.Infow("Starting server with config",
		"address", cfg.Addr,
		"sampleInterval", cfg.SampleInterval,
		"retentionDays", cfg.RetentionDays,
		"alertFile", cfg.AlertFile,
		"alertURL", cfg.AlertURL,
		"database", cfg.AddrDB != "",
		"externalAPIs", len(cfg.ExternalAPIs),
	)

	app := &App{
		cfg:    cfg,
		logger: sugar,
		core:   telemetry.New(cfg.ToTelemetry(), sugar, opts...),
	}

	dispatcher := notify.NewDispatcher()
	if cfg.AlertFile != "" {
		dispatcher.Register(notify.NewFileNotifier(cfg.AlertFile, sugar))
	}
	if cfg.AlertURL != "" {
		dispatcher.Register(notify.NewURLNotifier(cfg.AlertURL, cfg.Key, webhookTimeout, sugar))
	}

	if cfg.AddrDB != "" {
		conn, err := db.ConnectDB(ctx, cfg.AddrDB, sugar)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to DB: %w", err)
		}
		if err := migrations.RunMigrations(cfg.AddrDB); err != nil {
			conn.Close()
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
		app.dbConn = conn
		app.journal = storage.NewAlertJournal(conn, sugar)
		dispatcher.Register(app.journal)
	}

	if dispatcher.Len() > 0 {
		app.core.Subscribe(dispatcher)
	}

	handlerOpts := []handler.Option{}
	if app.journal != nil {
		handlerOpts = append(handlerOpts, handler.WithJournal(app.journal))
	}

	if len(cfg.ExternalAPIs) > 0 {
		app.checker = apimonitor.NewChecker(cfg.ExternalAPIs, app.core, apimonitor.DefaultTimeout, sugar)
		app.checkTask = app.checker.Periodic(time.Duration(cfg.ExternalCheckInterval) * time.Second)
		handlerOpts = append(handlerOpts, handler.WithChecker(app.checker))
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		exporter.NewCollector(app.core),
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	handlerOpts = append(handlerOpts, handler.WithGatherer(registry))

	app.server = &http.Server{
		Addr:    cfg.Addr,
		Handler: handler.New(app.core, sugar, handlerOpts...).Router(),
	}
	if cfg.PprofAddr != "" {
		app.pprofServer = &http.Server{Addr: cfg.PprofAddr, Handler: http.DefaultServeMux}
	}

	return app, nil
}

// Core возвращает ядро телеметрии приложения.
func (a *App) Core() *telemetry.Core {
	return a.core
}

// Handler возвращает корневой HTTP-обработчик.
func (a *App) Handler() http.Handler {
	return a.server.Handler
}

// Run запускает фоновые задачи и HTTP-сервер и блокируется до отмены ctx или ошибки сервера.
func (a *App) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	a.core.Start(gctx)
	if a.checkTask != nil {
		a.checkTask.Start(gctx)
		g.Go(func() error {
			a.checker.CheckAll(gctx)
			return nil
		})
	}

	g.Go(func() error {
		a.logger.Infow("HTTP server started", "address", a.cfg.Addr)
		return listen(a.server)
	})
	if a.pprofServer != nil {
		g.Go(func() error {
			a.logger.Infow("pprof server started", "address", a.cfg.PprofAddr)
			return listen(a.pprofServer)
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		a.logger.Infow("Shutting down server...")
		return a.shutdown()
	})

	return g.Wait()
}

func listen(srv *http.Server) error {
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

func (a *App) shutdown() error {
	if a.checkTask != nil {
		a.checkTask.Stop()
	}
	a.core.Close()

	ctx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()

	var errs []error
	if err := a.server.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("server shutdown: %w", err))
	}
	if a.pprofServer != nil {
		if err := a.pprofServer.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("pprof shutdown: %w", err))
		}
	}

	if a.dbConn != nil {
		a.logger.Infow("Closing database connection")
		if err := a.dbConn.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close database: %w", err))
		}
	}

	if err := errors.Join(errs...); err != nil {
		a.logger.Errorw("Server shutdown error", "error", err)
		return err
	}
	a.logger.Infow("Server stopped gracefully")
	return nil
}
