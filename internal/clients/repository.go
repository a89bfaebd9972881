package clients

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/sg-pedidos/pedidos/internal/platform/db"
)

const clientColumns = "id, name, phone, email, created_at"

// Repository provides PostgreSQL backed persistence for clients.
type Repository struct {
	db db.DBTX
}

// NewRepository constructs a repository.
func NewRepository(conn db.DBTX) *Repository {
	return &Repository{db: conn}
}

// List returns all clients, newest first.
func (r *Repository) List(ctx context.Context) ([]Client, error) {
	rows, err := r.db.Query(ctx, "SELECT "+clientColumns+" FROM clients ORDER BY created_at DESC")
	if err != nil {
		return nil, db.Classify("list clients", err)
	}
	defer rows.Close()

	out := []Client{}
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, db.Classify("scan client", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, db.Classify("list clients", err)
	}
	return out, nil
}

// Get loads a single client.
func (r *Repository) Get(ctx context.Context, id uuid.UUID) (Client, error) {
	row := r.db.QueryRow(ctx, "SELECT "+clientColumns+" FROM clients WHERE id = $1", id)
	c, err := scanClient(row)
	if err != nil {
		return Client{}, db.Classify("get client", err)
	}
	return c, nil
}

// Create inserts a client and returns the stored record.
func (r *Repository) Create(ctx context.Context, in Input) (Client, error) {
	row := r.db.QueryRow(ctx,
		"INSERT INTO clients (name, phone, email) VALUES ($1, $2, $3) RETURNING "+clientColumns,
		in.Name, in.Phone, in.Email)
	c, err := scanClient(row)
	if err != nil {
		return Client{}, db.Classify("create client", err)
	}
	return c, nil
}

// Update replaces the mutable fields of a client.
func (r *Repository) Update(ctx context.Context, id uuid.UUID, in Input) (Client, error) {
	row := r.db.QueryRow(ctx,
		"UPDATE clients SET name = $2, phone = $3, email = $4 WHERE id = $1 RETURNING "+clientColumns,
		id, in.Name, in.Phone, in.Email)
	c, err := scanClient(row)
	if err != nil {
		return Client{}, db.Classify("update client", err)
	}
	return c, nil
}

// Delete removes a client. Orders referencing it keep a NULL client.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, "DELETE FROM clients WHERE id = $1", id)
	if err != nil {
		return db.Classify("delete client", err)
	}
	return db.ExpectOne(tag)
}

func scanClient(row pgx.Row) (Client, error) {
	var c Client
	err := row.Scan(&c.ID, &c.Name, &c.Phone, &c.Email, &c.CreatedAt)
	return c, err
}
