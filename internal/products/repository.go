package products

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/sg-pedidos/pedidos/internal/platform/db"
)

const productColumns = "id, name, description, unit, base_price, material_cost, stock, active, created_at"

// Repository provides PostgreSQL backed persistence for the catalog.
type Repository struct {
	db db.DBTX
}

// NewRepository constructs a repository.
func NewRepository(conn db.DBTX) *Repository {
	return &Repository{db: conn}
}

// List returns all products ordered by name.
func (r *Repository) List(ctx context.Context) ([]Product, error) {
	rows, err := r.db.Query(ctx, "SELECT "+productColumns+" FROM products ORDER BY name ASC")
	if err != nil {
		return nil, db.Classify("list products", err)
	}
	defer rows.Close()

	out := []Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, db.Classify("scan product", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, db.Classify("list products", err)
	}
	return out, nil
}

// Get loads one product.
func (r *Repository) Get(ctx context.Context, id uuid.UUID) (Product, error) {
	p, err := scanProduct(r.db.QueryRow(ctx, "SELECT "+productColumns+" FROM products WHERE id = $1", id))
	if err != nil {
		return Product{}, db.Classify("get product", err)
	}
	return p, nil
}

// Create inserts a product.
func (r *Repository) Create(ctx context.Context, in Input) (Product, error) {
	active := true
	if in.Active != nil {
		active = *in.Active
	}
	stock := 0
	if in.Stock != nil {
		stock = *in.Stock
	}
	const query = `INSERT INTO products (name, description, unit, base_price, material_cost, stock, active)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING ` + productColumns
	p, err := scanProduct(r.db.QueryRow(ctx, query,
		in.Name, in.Description, in.Unit, in.BasePrice, in.materialCostOrZero(), stock, active))
	if err != nil {
		return Product{}, db.Classify("create product", err)
	}
	return p, nil
}

// Update replaces the mutable fields and reports the stock held before the
// write. Omitted stock, material cost and active flag keep their values. The prior row is locked so the delta matches what was overwritten.
func (r *Repository) Update(ctx context.Context, id uuid.UUID, in Input) (Product, int, error) {
	const query = `WITH prior AS (
	SELECT id, COALESCE(stock, 0) AS stock FROM products WHERE id = $1 FOR UPDATE
)
UPDATE products p
   SET name = $2,
       description = $3,
       unit = $4,
       base_price = $5,
       material_cost = COALESCE($6, p.material_cost),
       stock = COALESCE($7, p.stock),
       active = COALESCE($8, p.active)
  FROM prior
 WHERE p.id = prior.id
RETURNING p.id, p.name, p.description, p.unit, p.base_price, p.material_cost, p.stock, p.active, p.created_at, prior.stock`
	var (
		p     Product
		prior int
	)
	err := r.db.QueryRow(ctx, query, id, in.Name, in.Description, in.Unit, in.BasePrice, in.MaterialCost, in.Stock, in.Active).
		Scan(&p.ID, &p.Name, &p.Description, &p.Unit, &p.BasePrice, &p.MaterialCost, &p.Stock, &p.Active, &p.CreatedAt, &prior)
	if err != nil {
		return Product{}, 0, db.Classify("update product", err)
	}
	return p, prior, nil
}

// Delete removes a product unconditionally.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, "DELETE FROM products WHERE id = $1", id)
	if err != nil {
		return db.Classify("delete product", err)
	}
	return db.ExpectOne(tag)
}

func scanProduct(row pgx.Row) (Product, error) {
	var p Product
	err := row.Scan(&p.ID, &p.Name, &p.Description, &p.Unit, &p.BasePrice, &p.MaterialCost, &p.Stock, &p.Active, &p.CreatedAt)
	return p, err
}
