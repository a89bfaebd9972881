package app

import (
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/sg-pedidos/pedidos/internal/clients"
	"github.com/sg-pedidos/pedidos/internal/expenses"
	"github.com/sg-pedidos/pedidos/internal/orders"
	"github.com/sg-pedidos/pedidos/internal/products"
	"github.com/sg-pedidos/pedidos/internal/reports"
	"github.com/sg-pedidos/pedidos/internal/workspace"
)

// Backends are the connections shared by every component.
type Backends struct {
	Pool       *pgxpool.Pool
	Redis      *redis.Client
	Enqueuer   expenses.Enqueuer
	Registerer prometheus.Registerer
	Logger     *slog.Logger
}

// Components holds the wired domain services.
type Components struct {
	Clients       *clients.Service
	Products      *products.Service
	Orders        *orders.Service
	Reports       *reports.Service
	Expenses      *expenses.Service
	ExpenseWriter *expenses.Repository
	OutboxMetrics *expenses.OutboxMetrics
}

// NewComponents wires repositories, the expense outbox and the report cache.
// The queue outbox is used only when configured and an enqueuer is present.
func NewComponents(cfg *Config, b Backends) *Components {
	logger := b.Logger
	if logger == nil {
		logger = slog.Default()
	}
	expenseRepo := expenses.NewRepository(b.Pool)
	outboxMetrics := expenses.NewOutboxMetrics(b.Registerer)

	var ledger expenses.Recorder = expenses.NewDirectOutbox(expenseRepo, logger, outboxMetrics)
	if cfg.ExpenseOutbox == OutboxQueue && b.Enqueuer != nil {
		ledger = expenses.NewQueueOutbox(b.Enqueuer, logger, outboxMetrics)
	}

	var reportCache *reports.Cache
	if b.Redis != nil {
		reportCache = reports.NewCache(b.Redis, cfg.ReportCacheTTL)
	}
	reportSvc := reports.NewService(reports.NewRepository(b.Pool), reportCache, logger)

	return &Components{
		Clients:       clients.NewService(clients.NewRepository(b.Pool)),
		Products:      products.NewService(products.NewRepository(b.Pool), ledger),
		Orders:        orders.NewService(orders.NewRepository(b.Pool), ledger, reportCache, logger),
		Reports:       reportSvc,
		Expenses:      expenses.NewService(expenseRepo),
		ExpenseWriter: expenseRepo,
		OutboxMetrics: outboxMetrics,
	}
}

// Workspace returns the service bundle served to sessions.
func (c *Components) Workspace() workspace.Services {
	return workspace.Services{
		Clients:  c.Clients,
		Products: c.Products,
		Orders:   c.Orders,
		Reports:  c.Reports,
		Expenses: c.Expenses,
	}
}
