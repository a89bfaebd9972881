package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/sg-pedidos/pedidos/internal/app"
	"github.com/sg-pedidos/pedidos/internal/observability"
	"github.com/sg-pedidos/pedidos/internal/platform/cache"
	"github.com/sg-pedidos/pedidos/internal/platform/db"
	"github.com/sg-pedidos/pedidos/internal/workspace"
	"github.com/sg-pedidos/pedidos/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	dbpool, err := db.New(ctx, cfg.PGDSN, db.Options{MaxConns: cfg.PGMaxConns})
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	backends := app.Backends{Pool: dbpool, Logger: logger}

	redisClient, err := cache.New(ctx, cfg.Redis())
	if err != nil {
		logger.Warn("redis unavailable, report cache disabled", slog.Any("error", err))
	} else {
		backends.Redis = redisClient
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Warn("redis close", slog.Any("error", err))
			}
		}()
	}

	redisOpts := cfg.Redis().Asynq()
	var queueInspector jobs.QueueInspector
	if cfg.ExpenseOutbox == app.OutboxQueue {
		jobClient := jobs.NewClient(redisOpts)
		defer func() {
			if err := jobClient.Close(); err != nil {
				logger.Warn("job client close", slog.Any("error", err))
			}
		}()
		backends.Enqueuer = jobClient

		inspector := asynq.NewInspector(redisOpts)
		queueInspector = inspector
		defer func() {
			if err := inspector.Close(); err != nil {
				logger.Warn("inspector close", slog.Any("error", err))
			}
		}()
	}

	metrics := observability.NewMetrics()
	backends.Registerer = metrics.Registerer()
	components := app.NewComponents(cfg, backends)

	registry := workspace.NewRegistry(components.Workspace(), cfg.WorkspaceIdleTTL, logger)
	go registry.Run(ctx, 0)
	metrics.ObserveSessions(registry.Len)

	router := app.NewRouter(app.RouterParams{
		Logger:           logger,
		Config:           cfg,
		WorkspaceHandler: workspace.NewHandler(registry, logger),
		JobHandler:       jobs.NewHandler(queueInspector, logger),
		Metrics:          metrics,
		Database:         dbpool,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr), slog.String("expense_outbox", cfg.ExpenseOutbox))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
