package orders

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/sg-pedidos/pedidos/internal/platform/db"
)

// CreateParams are the arguments of the create_order_with_stock procedure.
type CreateParams struct {
	ClientID     *uuid.UUID
	Notes        *string
	DeliveryDate *string
	Items        []ItemInput
	Advance      *decimal.Decimal
}

// TxRepository exposes transactional operations.
type TxRepository interface {
	UpdateNotesAndTotal(ctx context.Context, id uuid.UUID, notes *string, total decimal.Decimal) error
	DeleteItems(ctx context.Context, orderID uuid.UUID) error
	InsertItems(ctx context.Context, orderID uuid.UUID, items []ItemInput) error
	DeletePayments(ctx context.Context, orderID uuid.UUID) error
	DeleteOrder(ctx context.Context, id uuid.UUID) error
}

// Repository provides PostgreSQL backed persistence for orders.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

type txRepo struct {
	tx pgx.Tx
}

// WithTx wraps callback in repeatable-read transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepo{tx: tx})
	})
}

const orderSelect = `SELECT o.id, o.folio, o.status, o.notes, o.total, o.delivery_date, o.client_id, c.name,
       o.created_at, o.updated_at
  FROM orders o
  LEFT JOIN clients c ON c.id = o.client_id`

const itemSelect = `SELECT i.id, i.order_id, i.product_id, p.name, p.material_cost, i.description,
       i.quantity, i.unit_price, i.subtotal
  FROM order_line_items i
  LEFT JOIN products p ON p.id = i.product_id`

const paymentColumns = "id, order_id, amount, method, reference, is_advance, created_at"

// List returns every order with client name, items and payments, newest first.
func (r *Repository) List(ctx context.Context) ([]Order, error) {
	rows, err := r.pool.Query(ctx, orderSelect+" ORDER BY o.created_at DESC")
	if err != nil {
		return nil, db.Classify("list orders", err)
	}
	list, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Order, error) { return scanOrder(row) })
	if err != nil {
		return nil, db.Classify("scan orders", err)
	}
	if len(list) == 0 {
		return []Order{}, nil
	}
	ids := make([]uuid.UUID, len(list))
	for i, o := range list {
		ids[i] = o.ID
	}
	if err := r.attach(ctx, list, ids); err != nil {
		return nil, err
	}
	return list, nil
}

// Get loads one order with full relation expansion.
func (r *Repository) Get(ctx context.Context, id uuid.UUID) (Order, error) {
	o, err := scanOrder(r.pool.QueryRow(ctx, orderSelect+" WHERE o.id = $1", id))
	if err != nil {
		return Order{}, db.Classify("get order", err)
	}
	list := []Order{o}
	if err := r.attach(ctx, list, []uuid.UUID{id}); err != nil {
		return Order{}, err
	}
	return list[0], nil
}

func (r *Repository) attach(ctx context.Context, list []Order, ids []uuid.UUID) error {
	index := make(map[uuid.UUID]int, len(list))
	for i := range list {
		list[i].Items = []LineItem{}
		list[i].Payments = []Payment{}
		index[list[i].ID] = i
	}

	rows, err := r.pool.Query(ctx, itemSelect+" WHERE i.order_id = ANY($1) ORDER BY i.order_id, i.position", ids)
	if err != nil {
		return db.Classify("list order items", err)
	}
	items, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (LineItem, error) { return scanItem(row) })
	if err != nil {
		return db.Classify("scan order items", err)
	}
	for _, it := range items {
		if i, ok := index[it.OrderID]; ok {
			list[i].Items = append(list[i].Items, it)
		}
	}

	rows, err = r.pool.Query(ctx, "SELECT "+paymentColumns+" FROM payments WHERE order_id = ANY($1) ORDER BY created_at", ids)
	if err != nil {
		return db.Classify("list payments", err)
	}
	payments, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Payment, error) { return scanPayment(row) })
	if err != nil {
		return db.Classify("scan payments", err)
	}
	for _, p := range payments {
		if i, ok := index[p.OrderID]; ok {
			list[i].Payments = append(list[i].Payments, p)
		}
	}
	return nil
}

type procedureItem struct {
	ProductID   *uuid.UUID      `json:"product_id"`
	Description *string         `json:"description"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
}

// CreateWithStock calls create_order_with_stock and returns the new order id.
func (r *Repository) CreateWithStock(ctx context.Context, params CreateParams) (uuid.UUID, error) {
	items := make([]procedureItem, len(params.Items))
	for i, it := range params.Items {
		items[i] = procedureItem(it)
	}
	payload, err := json.Marshal(items)
	if err != nil {
		return uuid.Nil, fmt.Errorf("orders: encode items: %w", err)
	}
	var id uuid.UUID
	err = r.pool.QueryRow(ctx,
		"SELECT order_id FROM create_order_with_stock($1, $2, $3::date, $4::jsonb, $5)",
		params.ClientID, params.Notes, params.DeliveryDate, payload, params.Advance,
	).Scan(&id)
	if err != nil {
		return uuid.Nil, db.Classify("create_order_with_stock", err)
	}
	return id, nil
}

// UpdateStatus writes status unconditionally and refreshes updated_at.
func (r *Repository) UpdateStatus(ctx context.Context, id uuid.UUID, status Status) error {
	tag, err := r.pool.Exec(ctx, "UPDATE orders SET status = $2, updated_at = now() WHERE id = $1", id, string(status))
	if err != nil {
		return db.Classify("update order status", err)
	}
	return db.ExpectOne(tag)
}

// InsertPayment records a payment when the order exists.
func (r *Repository) InsertPayment(ctx context.Context, orderID uuid.UUID, in PaymentInput) (Payment, error) {
	const query = `INSERT INTO payments (order_id, amount, method, reference, is_advance)
SELECT id, $2, $3, $4, $5 FROM orders WHERE id = $1
RETURNING ` + paymentColumns
	p, err := scanPayment(r.pool.QueryRow(ctx, query, orderID, in.Amount, in.Method, in.Reference, in.IsAdvance))
	if err != nil {
		return Payment{}, db.Classify("insert payment", err)
	}
	return p, nil
}

func (t *txRepo) UpdateNotesAndTotal(ctx context.Context, id uuid.UUID, notes *string, total decimal.Decimal) error {
	tag, err := t.tx.Exec(ctx, "UPDATE orders SET notes = $2, total = $3, updated_at = now() WHERE id = $1", id, notes, total)
	if err != nil {
		return db.Classify("update order", err)
	}
	return db.ExpectOne(tag)
}

func (t *txRepo) DeleteItems(ctx context.Context, orderID uuid.UUID) error {
	if _, err := t.tx.Exec(ctx, "DELETE FROM order_line_items WHERE order_id = $1", orderID); err != nil {
		return db.Classify("delete order items", err)
	}
	return nil
}

func (t *txRepo) InsertItems(ctx context.Context, orderID uuid.UUID, items []ItemInput) error {
	if len(items) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for i, it := range items {
		batch.Queue(
			`INSERT INTO order_line_items (order_id, product_id, description, quantity, unit_price, position)
VALUES ($1, $2, $3, $4, $5, $6)`,
			orderID, it.ProductID, it.Description, it.Quantity, it.UnitPrice, i+1)
	}
	if err := t.tx.SendBatch(ctx, batch).Close(); err != nil {
		return db.Classify("insert order items", err)
	}
	return nil
}

func (t *txRepo) DeletePayments(ctx context.Context, orderID uuid.UUID) error {
	if _, err := t.tx.Exec(ctx, "DELETE FROM payments WHERE order_id = $1", orderID); err != nil {
		return db.Classify("delete payments", err)
	}
	return nil
}

func (t *txRepo) DeleteOrder(ctx context.Context, id uuid.UUID) error {
	tag, err := t.tx.Exec(ctx, "DELETE FROM orders WHERE id = $1", id)
	if err != nil {
		return db.Classify("delete order", err)
	}
	return db.ExpectOne(tag)
}

func scanOrder(row pgx.Row) (Order, error) {
	var (
		o      Order
		status string
	)
	err := row.Scan(&o.ID, &o.Folio, &status, &o.Notes, &o.Total, &o.DeliveryDate, &o.ClientID, &o.ClientName,
		&o.CreatedAt, &o.UpdatedAt)
	o.Status = Status(status)
	return o, err
}

func scanItem(row pgx.Row) (LineItem, error) {
	var it LineItem
	err := row.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.ProductName, &it.MaterialCost, &it.Description,
		&it.Quantity, &it.UnitPrice, &it.Subtotal)
	return it, err
}

func scanPayment(row pgx.Row) (Payment, error) {
	var p Payment
	err := row.Scan(&p.ID, &p.OrderID, &p.Amount, &p.Method, &p.Reference, &p.IsAdvance, &p.CreatedAt)
	return p, err
}
