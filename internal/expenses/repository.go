package expenses

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/sg-pedidos/pedidos/internal/platform/db"
)

// Repository provides PostgreSQL backed persistence for the expense ledger.
type Repository struct {
	db db.DBTX
}

// NewRepository constructs a repository.
func NewRepository(conn db.DBTX) *Repository {
	return &Repository{db: conn}
}

// Insert appends one entry to the ledger.
func (r *Repository) Insert(ctx context.Context, entry Entry) (Expense, error) {
	meta, err := json.Marshal(entry.Meta)
	if err != nil {
		return Expense{}, fmt.Errorf("expenses: encode meta: %w", err)
	}
	const query = `INSERT INTO expenses (description, amount, product_id, reference, meta)
VALUES ($1, $2, $3, $4, $5)
RETURNING id, description, amount, product_id, reference, meta, created_at`
	row := r.db.QueryRow(ctx, query, entry.Description, entry.Amount, entry.ProductID, entry.Reference, meta)
	exp, err := scanExpense(row)
	if err != nil {
		return Expense{}, db.Classify("insert expense", err)
	}
	return exp, nil
}

// List returns expenses newest first.
func (r *Repository) List(ctx context.Context, filter ListFilter) ([]Expense, error) {
	var (
		conditions []string
		args       []any
	)
	if filter.Reference != "" {
		args = append(args, filter.Reference)
		conditions = append(conditions, fmt.Sprintf("reference = $%d", len(args)))
	}
	if filter.ProductID != nil {
		args = append(args, *filter.ProductID)
		conditions = append(conditions, fmt.Sprintf("product_id = $%d", len(args)))
	}
	if filter.OrderID != nil {
		args = append(args, filter.OrderID.String())
		conditions = append(conditions, fmt.Sprintf("meta->>'order_id' = $%d", len(args)))
	}
	query := "SELECT id, description, amount, product_id, reference, meta, created_at FROM expenses"
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY created_at DESC"
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, db.Classify("list expenses", err)
	}
	defer rows.Close()

	out := []Expense{}
	for rows.Next() {
		exp, err := scanExpense(rows)
		if err != nil {
			return nil, db.Classify("scan expense", err)
		}
		out = append(out, exp)
	}
	if err := rows.Err(); err != nil {
		return nil, db.Classify("list expenses", err)
	}
	return out, nil
}

func scanExpense(row pgx.Row) (Expense, error) {
	var (
		exp       Expense
		productID *uuid.UUID
		meta      []byte
	)
	if err := row.Scan(&exp.ID, &exp.Description, &exp.Amount, &productID, &exp.Reference, &meta, &exp.CreatedAt); err != nil {
		return Expense{}, err
	}
	exp.ProductID = productID
	if len(meta) > 0 {
		if err := json.Unmarshal(meta, &exp.Meta); err != nil {
			return Expense{}, fmt.Errorf("decode meta: %w", err)
		}
	}
	return exp, nil
}
