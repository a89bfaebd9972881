package db

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"github.com/sg-pedidos/pedidos/internal/shared"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"no rows", fmt.Errorf("scan: %w", pgx.ErrNoRows), shared.ErrNotFound},
		{"check violation", &pgconn.PgError{Code: pgCheckViolation, Message: "order requires at least one item"}, shared.ErrValidation},
		{"not null", &pgconn.PgError{Code: pgNotNullViolation}, shared.ErrValidation},
		{"foreign key", &pgconn.PgError{Code: pgForeignKeyViolation, Message: `insert or update on table "orders" violates foreign key constraint "orders_client_id_fkey"`}, shared.ErrValidation},
		{"serialization", &pgconn.PgError{Code: "40001"}, shared.ErrPersistence},
		{"transport", errors.New("connection refused"), shared.ErrPersistence},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.ErrorIs(t, Classify("create order", tc.err), tc.want)
		})
	}
	assert.NoError(t, Classify("noop", nil))
}

func TestExpectOne(t *testing.T) {
	assert.ErrorIs(t, ExpectOne(pgconn.NewCommandTag("UPDATE 0")), shared.ErrNotFound)
	assert.NoError(t, ExpectOne(pgconn.NewCommandTag("DELETE 1")))
}
