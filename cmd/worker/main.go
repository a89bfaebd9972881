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
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sg-pedidos/pedidos/internal/app"
	"github.com/sg-pedidos/pedidos/internal/expenses"
	jobmetrics "github.com/sg-pedidos/pedidos/internal/jobs"
	"github.com/sg-pedidos/pedidos/internal/platform/cache"
	"github.com/sg-pedidos/pedidos/internal/platform/db"
	"github.com/sg-pedidos/pedidos/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
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

	pool, err := db.New(ctx, cfg.PGDSN, db.Options{MaxConns: cfg.PGMaxConns})
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.Redis())
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	registerer := prometheus.DefaultRegisterer
	components := app.NewComponents(cfg, app.Backends{
		Pool:       pool,
		Redis:      redisClient,
		Registerer: registerer,
		Logger:     logger,
	})

	recordJob := expenses.NewRecordJob(components.ExpenseWriter, logger, components.OutboxMetrics)
	warmupJob := jobs.NewReportsWarmupJob(components.Reports, logger)

	var cron []jobs.CronRegistration
	if cfg.ReportsWarmupCron != "" {
		warmupTask, err := jobs.NewReportsWarmupTask(jobs.ReportsWarmupPayload{})
		if err != nil {
			logger.Error("build warmup task", slog.Any("error", err))
			os.Exit(1)
		}
		cron = append(cron, jobs.CronRegistration{
			Spec:    cfg.ReportsWarmupCron,
			Task:    warmupTask,
			Options: []asynq.Option{asynq.MaxRetry(1)},
		})
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts:   cfg.Redis().Asynq(),
		Logger:      logger,
		Concurrency: cfg.WorkerConcurrency,
		Metrics:     jobmetrics.NewMetrics(registerer),
		Handlers: []jobs.TaskHandler{
			{Type: expenses.TaskRecord, Handler: recordJob.Handle},
			{Type: jobs.TaskReportsWarmup, Handler: warmupJob.Handle},
		},
		Cron: cron,
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	if cfg.WorkerMetricsAddr != "" {
		srv := &http.Server{Addr: cfg.WorkerMetricsAddr, Handler: promhttp.Handler(), ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Warn("worker metrics server", slog.Any("error", err))
			}
		}()
		defer func() { _ = srv.Close() }()
	}

	logger.Info("starting worker", slog.Int("concurrency", cfg.WorkerConcurrency))
	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
