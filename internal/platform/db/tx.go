package db

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/sg-pedidos/pedidos/internal/shared"
)

// TxBeginner is satisfied by *pgxpool.Pool and *pgx.Conn.
type TxBeginner interface {
	BeginTx(ctx context.Context, opts pgx.TxOptions) (pgx.Tx, error)
}

// WithTx runs fn inside a repeatable-read transaction. Any error from fn,
// or a panic, rolls the transaction back; otherwise it is committed. Begin
// and commit failures, serialization failures included, are ErrPersistence.
func WithTx(ctx context.Context, conn TxBeginner, fn func(pgx.Tx) error) error {
	tx, err := conn.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead})
	if err != nil {
		return shared.Persistence("platform/db: begin tx", err)
	}

	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback(ctx)
		}
	}()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return shared.Persistence("platform/db: commit tx", err)
	}
	committed = true
	return nil
}
