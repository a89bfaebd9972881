package db

import (
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/sg-pedidos/pedidos/internal/shared"
)

const (
	pgNotNullViolation    = "23502"
	pgForeignKeyViolation = "23503"
	pgCheckViolation      = "23514"
)

// Classify maps driver errors onto the shared error taxonomy.
func Classify(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return shared.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		// Unknown client or product ids surface as foreign key violations.
		case pgNotNullViolation, pgForeignKeyViolation, pgCheckViolation:
			return shared.Validationf("%s: %s", op, pgErr.Message)
		}
	}
	return shared.Persistence(op, err)
}

// ExpectOne returns ErrNotFound when a write touched no rows.
func ExpectOne(tag pgconn.CommandTag) error {
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}
