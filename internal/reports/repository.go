package reports

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/sg-pedidos/pedidos/internal/platform/db"
)

// Repository calls the reporting procedures.
type Repository struct {
	db db.DBTX
}

// NewRepository constructs a repository.
func NewRepository(conn db.DBTX) *Repository {
	return &Repository{db: conn}
}

// SalesByWeek calls report_sales_by_week.
func (r *Repository) SalesByWeek(ctx context.Context, weeks int) ([]SalesPoint, error) {
	return r.sales(ctx, "SELECT period, total FROM report_sales_by_week($1)", weeks)
}

// SalesByMonth calls report_sales_by_month.
func (r *Repository) SalesByMonth(ctx context.Context, months int) ([]SalesPoint, error) {
	return r.sales(ctx, "SELECT period, total FROM report_sales_by_month($1)", months)
}

func (r *Repository) sales(ctx context.Context, query string, n int) ([]SalesPoint, error) {
	rows, err := r.db.Query(ctx, query, n)
	if err != nil {
		return nil, db.Classify("report sales", err)
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (SalesPoint, error) {
		var p SalesPoint
		err := row.Scan(&p.Period, &p.Total)
		return p, err
	})
	if err != nil {
		return nil, db.Classify("scan report sales", err)
	}
	return out, nil
}

// ProfitAndExpenses calls report_profit_and_expenses.
func (r *Repository) ProfitAndExpenses(ctx context.Context, periods int) ([]ProfitPoint, error) {
	rows, err := r.db.Query(ctx, "SELECT period, revenue, expenses, profit FROM report_profit_and_expenses($1)", periods)
	if err != nil {
		return nil, db.Classify("report profit", err)
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (ProfitPoint, error) {
		var p ProfitPoint
		err := row.Scan(&p.Period, &p.Revenue, &p.Expenses, &p.Profit)
		return p, err
	})
	if err != nil {
		return nil, db.Classify("scan report profit", err)
	}
	return out, nil
}
