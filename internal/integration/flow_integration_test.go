//go:build integration

package integration

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/sg-pedidos/pedidos/internal/app"
	"github.com/sg-pedidos/pedidos/internal/clients"
	"github.com/sg-pedidos/pedidos/internal/expenses"
	"github.com/sg-pedidos/pedidos/internal/orders"
	"github.com/sg-pedidos/pedidos/internal/platform/db"
	"github.com/sg-pedidos/pedidos/internal/products"
	"github.com/sg-pedidos/pedidos/internal/shared"
	"github.com/sg-pedidos/pedidos/migrations"
)

func setupDB(t *testing.T) *pgxpool.Pool {
	t.Helper()
	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("pedidos"),
		postgres.WithUsername("pedidos"),
		postgres.WithPassword("pedidos"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("terminate container: %v", err)
		}
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := db.New(ctx, dsn, db.Options{MaxConns: 4})
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	applied, err := migrations.Apply(ctx, pool)
	require.NoError(t, err)
	require.NotEmpty(t, applied)
	// A second run must be a no-op.
	_, err = migrations.Apply(ctx, pool)
	require.NoError(t, err)
	return pool
}

func setupComponents(t *testing.T) (*app.Components, *pgxpool.Pool) {
	t.Helper()
	pool := setupDB(t)
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	cfg := &app.Config{ExpenseOutbox: app.OutboxDirect, ReportCacheTTL: time.Minute}
	c := app.NewComponents(cfg, app.Backends{
		Pool:       pool,
		Redis:      rdb,
		Registerer: prometheus.NewRegistry(),
		Logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	return c, pool
}

func intPtr(v int) *int { return &v }

func decPtr(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func TestOrderLifecycle(t *testing.T) {
	ctx := context.Background()
	c, _ := setupComponents(t)

	ana, err := c.Clients.Create(ctx, clients.Input{Name: "  Ana  "})
	require.NoError(t, err)
	assert.Equal(t, "Ana", ana.Name)

	tabloide, err := c.Products.Create(ctx, products.Input{
		Name:         "Tabloide",
		BasePrice:    decimal.NewFromInt(50),
		MaterialCost: decPtr("2"),
		Stock:        intPtr(3),
	})
	require.NoError(t, err)

	stockAdds, err := c.Expenses.List(ctx, expenses.ListFilter{ProductID: &tabloide.ID, Reference: expenses.ReferenceStockAddition})
	require.NoError(t, err)
	require.Len(t, stockAdds, 1)
	assert.True(t, stockAdds[0].Amount.Equal(decimal.NewFromInt(6)))

	before, err := c.Reports.SalesByWeek(ctx, 1)
	require.NoError(t, err)
	require.Len(t, before, 1)
	assert.True(t, before[0].Total.IsZero())

	order, err := c.Orders.Create(ctx, orders.CreateInput{
		ClientID: &ana.ID,
		Items: []orders.ItemInput{{
			ProductID: &tabloide.ID,
			Quantity:  3,
			UnitPrice: decimal.NewFromInt(50),
		}},
		Advance: decPtr("30"),
	})
	require.NoError(t, err)
	assert.Equal(t, orders.StatusPending, order.Status)
	assert.True(t, order.Total.Equal(decimal.NewFromInt(150)), order.Total.String())
	assert.NotEmpty(t, order.Folio)
	require.NotNil(t, order.ClientName)
	assert.Equal(t, "Ana", *order.ClientName)
	require.Len(t, order.Items, 1)
	require.NotNil(t, order.Items[0].ProductName)
	assert.Equal(t, "Tabloide", *order.Items[0].ProductName)
	require.Len(t, order.Payments, 1)
	assert.True(t, order.Payments[0].IsAdvance)
	assert.True(t, order.Balance().Equal(decimal.NewFromInt(120)))

	consumed, err := c.Expenses.List(ctx, expenses.ListFilter{OrderID: &order.ID})
	require.NoError(t, err)
	require.Len(t, consumed, 1)
	assert.Equal(t, expenses.ReferenceOrderConsumption, consumed[0].Reference)
	assert.True(t, consumed[0].Amount.Equal(decimal.NewFromInt(6)))
	assert.Equal(t, 3, consumed[0].Meta.Qty)

	stocked, err := c.Products.Get(ctx, tabloide.ID)
	require.NoError(t, err)
	require.NotNil(t, stocked.Stock)
	assert.Equal(t, 0, *stocked.Stock)

	// Order creation bumps the report cache.
	after, err := c.Reports.SalesByWeek(ctx, 1)
	require.NoError(t, err)
	require.Len(t, after, 1)
	assert.True(t, after[0].Total.Equal(decimal.NewFromInt(150)), after[0].Total.String())

	require.NoError(t, c.Orders.UpdateStatus(ctx, order.ID, orders.StatusInProduction))
	got, err := c.Orders.Get(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, orders.StatusInProduction, got.Status)

	pay, err := c.Orders.RecordPayment(ctx, order.ID, orders.PaymentInput{Amount: decimal.NewFromInt(120)})
	require.NoError(t, err)
	assert.False(t, pay.IsAdvance)
	got, err = c.Orders.Get(ctx, order.ID)
	require.NoError(t, err)
	assert.True(t, got.Balance().IsZero())

	profit, err := c.Reports.ProfitAndExpenses(ctx, 1)
	require.NoError(t, err)
	require.Len(t, profit, 1)
	assert.True(t, profit[0].Revenue.Equal(decimal.NewFromInt(150)))
	assert.True(t, profit[0].Expenses.Equal(decimal.NewFromInt(12)))
	assert.True(t, profit[0].Profit.Equal(decimal.NewFromInt(138)))
}

func TestStockIsFlooredAndUntrackedStaysNull(t *testing.T) {
	ctx := context.Background()
	c, _ := setupComponents(t)

	tracked, err := c.Products.Create(ctx, products.Input{
		Name: "Lona", BasePrice: decimal.NewFromInt(10), MaterialCost: decPtr("1"), Stock: intPtr(2),
	})
	require.NoError(t, err)
	untracked, err := c.Products.Create(ctx, products.Input{
		Name: "Diseño", BasePrice: decimal.NewFromInt(100),
	})
	require.NoError(t, err)

	_, err = c.Orders.Create(ctx, orders.CreateInput{Items: []orders.ItemInput{
		{ProductID: &tracked.ID, Quantity: 5, UnitPrice: decimal.NewFromInt(10)},
		{ProductID: &untracked.ID, Quantity: 1, UnitPrice: decimal.NewFromInt(100)},
	}})
	require.NoError(t, err)

	p, err := c.Products.Get(ctx, tracked.ID)
	require.NoError(t, err)
	require.NotNil(t, p.Stock)
	assert.Equal(t, 0, *p.Stock)

	p, err = c.Products.Get(ctx, untracked.ID)
	require.NoError(t, err)
	assert.Nil(t, p.Stock)
}

func TestReplaceItemsAndCascadeDelete(t *testing.T) {
	ctx := context.Background()
	c, pool := setupComponents(t)

	ana, err := c.Clients.Create(ctx, clients.Input{Name: "Ana"})
	require.NoError(t, err)
	flyer, err := c.Products.Create(ctx, products.Input{
		Name: "Volante", BasePrice: decimal.NewFromInt(2), MaterialCost: decPtr("0.5"), Stock: intPtr(100),
	})
	require.NoError(t, err)

	desc := "Diseño libre"
	order, err := c.Orders.Create(ctx, orders.CreateInput{
		ClientID: &ana.ID,
		Items: []orders.ItemInput{
			{ProductID: &flyer.ID, Quantity: 10, UnitPrice: decimal.NewFromInt(2)},
			{Description: &desc, Quantity: 1, UnitPrice: decimal.NewFromInt(80)},
		},
		Advance: decPtr("50"),
	})
	require.NoError(t, err)
	assert.True(t, order.Total.Equal(decimal.NewFromInt(100)))

	notes := "urgente"
	replaced, err := c.Orders.ReplaceItems(ctx, order.ID, orders.ReplaceItemsInput{
		Notes: &notes,
		Items: []orders.ItemInput{{ProductID: &flyer.ID, Quantity: 20, UnitPrice: decimal.NewFromInt(2)}},
	})
	require.NoError(t, err)
	assert.True(t, replaced.Total.Equal(decimal.NewFromInt(40)))
	require.Len(t, replaced.Items, 1)
	require.NotNil(t, replaced.Notes)
	assert.Equal(t, "urgente", *replaced.Notes)

	// Replacing items does not touch stock.
	p, err := c.Products.Get(ctx, flyer.ID)
	require.NoError(t, err)
	assert.Equal(t, 90, *p.Stock)

	// Deleting the client keeps the order, detached.
	require.NoError(t, c.Clients.Delete(ctx, ana.ID))
	detached, err := c.Orders.Get(ctx, order.ID)
	require.NoError(t, err)
	assert.Nil(t, detached.ClientID)
	assert.Nil(t, detached.ClientName)

	require.NoError(t, c.Orders.Delete(ctx, order.ID))
	_, err = c.Orders.Get(ctx, order.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)

	var items, payments int
	require.NoError(t, pool.QueryRow(ctx, `SELECT count(*) FROM order_line_items WHERE order_id = $1`, order.ID).Scan(&items))
	require.NoError(t, pool.QueryRow(ctx, `SELECT count(*) FROM payments WHERE order_id = $1`, order.ID).Scan(&payments))
	assert.Zero(t, items)
	assert.Zero(t, payments)

	kept, err := c.Expenses.List(ctx, expenses.ListFilter{OrderID: &order.ID})
	require.NoError(t, err)
	assert.Len(t, kept, 1)

	_, err = c.Orders.RecordPayment(ctx, order.ID, orders.PaymentInput{Amount: decimal.NewFromInt(1)})
	assert.ErrorIs(t, err, shared.ErrNotFound)
	assert.ErrorIs(t, c.Orders.UpdateStatus(ctx, uuid.New(), orders.StatusDelivered), shared.ErrNotFound)
}

func TestStockIncreaseWithoutCostKeepsStoredCost(t *testing.T) {
	ctx := context.Background()
	c, _ := setupComponents(t)

	vinil, err := c.Products.Create(ctx, products.Input{
		Name: "Vinil", BasePrice: decimal.NewFromInt(20), MaterialCost: decPtr("3"), Stock: intPtr(10),
	})
	require.NoError(t, err)

	updated, err := c.Products.Update(ctx, vinil.ID, products.Input{Name: "Vinil", BasePrice: decimal.NewFromInt(20), Stock: intPtr(15)})
	require.NoError(t, err)
	assert.True(t, updated.MaterialCost.Equal(decimal.NewFromInt(3)), updated.MaterialCost.String())

	entries, err := c.Expenses.List(ctx, expenses.ListFilter{ProductID: &vinil.ID, Reference: expenses.ReferenceStockAddition})
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.True(t, entries[0].Amount.Equal(decimal.NewFromInt(15)), entries[0].Amount.String())
	assert.Equal(t, 5, entries[0].Meta.Qty)
}
