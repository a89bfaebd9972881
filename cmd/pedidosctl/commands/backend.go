package commands

import (
	"context"
	"errors"
	"log/slog"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/sg-pedidos/pedidos/internal/app"
	"github.com/sg-pedidos/pedidos/internal/platform/cache"
	"github.com/sg-pedidos/pedidos/internal/platform/db"
	"github.com/sg-pedidos/pedidos/internal/workspace"
	"github.com/sg-pedidos/pedidos/jobs"
	"github.com/sg-pedidos/pedidos/migrations"
)

// Backend is what the commands need from the outside world.
type Backend interface {
	Migrate(ctx context.Context) ([]string, error)
	Reports(ctx context.Context) (workspace.ReportService, error)
	Expenses(ctx context.Context) (workspace.ExpenseService, error)
	Queues() (jobs.QueueInspector, error)
	EnqueueWarmup(ctx context.Context, payload jobs.ReportsWarmupPayload) (string, error)
	Close() error
}

// liveBackend connects to Postgres, Redis and asynq on first use.
type liveBackend struct {
	cfg    *app.Config
	logger *slog.Logger

	pool       *pgxpool.Pool
	redis      *redis.Client
	components *app.Components
	inspector  *asynq.Inspector
	client     *jobs.Client
}

func newLiveBackend(cfg *app.Config, logger *slog.Logger) Backend {
	return &liveBackend{cfg: cfg, logger: logger}
}

func (b *liveBackend) connect(ctx context.Context) (*pgxpool.Pool, error) {
	if b.pool != nil {
		return b.pool, nil
	}
	pool, err := db.New(ctx, b.cfg.PGDSN, db.Options{MaxConns: 2})
	if err != nil {
		return nil, err
	}
	b.pool = pool
	return pool, nil
}

func (b *liveBackend) wire(ctx context.Context) (*app.Components, error) {
	if b.components != nil {
		return b.components, nil
	}
	pool, err := b.connect(ctx)
	if err != nil {
		return nil, err
	}
	backends := app.Backends{Pool: pool, Logger: b.logger, Registerer: prometheus.NewRegistry()}
	if client, err := cache.New(ctx, b.cfg.Redis()); err == nil {
		b.redis = client
		backends.Redis = client
	} else {
		b.logger.Debug("redis unavailable, reports uncached", slog.Any("error", err))
	}
	b.components = app.NewComponents(b.cfg, backends)
	return b.components, nil
}

func (b *liveBackend) Migrate(ctx context.Context) ([]string, error) {
	pool, err := b.connect(ctx)
	if err != nil {
		return nil, err
	}
	return migrations.Apply(ctx, pool)
}

func (b *liveBackend) Reports(ctx context.Context) (workspace.ReportService, error) {
	c, err := b.wire(ctx)
	if err != nil {
		return nil, err
	}
	return c.Reports, nil
}

func (b *liveBackend) Expenses(ctx context.Context) (workspace.ExpenseService, error) {
	c, err := b.wire(ctx)
	if err != nil {
		return nil, err
	}
	return c.Expenses, nil
}

func (b *liveBackend) Queues() (jobs.QueueInspector, error) {
	if b.inspector == nil {
		b.inspector = asynq.NewInspector(b.cfg.Redis().Asynq())
	}
	return b.inspector, nil
}

func (b *liveBackend) EnqueueWarmup(ctx context.Context, payload jobs.ReportsWarmupPayload) (string, error) {
	if b.client == nil {
		b.client = jobs.NewClient(b.cfg.Redis().Asynq())
	}
	info, err := b.client.EnqueueReportsWarmup(ctx, payload)
	if err != nil {
		return "", err
	}
	return info.ID, nil
}

func (b *liveBackend) Close() error {
	var errs []error
	if b.client != nil {
		errs = append(errs, b.client.Close())
	}
	if b.inspector != nil {
		errs = append(errs, b.inspector.Close())
	}
	if b.redis != nil {
		errs = append(errs, b.redis.Close())
	}
	if b.pool != nil {
		b.pool.Close()
	}
	return errors.Join(errs...)
}
