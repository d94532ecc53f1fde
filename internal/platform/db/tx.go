package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type txContextKey struct{}

// TxRunner runs fn inside a database transaction. The transaction is made
// available to repositories through the context (see TxFromContext);
// returning an error rolls everything back.
type TxRunner func(ctx context.Context, fn func(ctx context.Context) error) error

// NewTxRunner builds a TxRunner on top of the connection pool.
func NewTxRunner(pool *pgxpool.Pool) TxRunner {
	return func(ctx context.Context, fn func(ctx context.Context) error) error {
		tx, err := pool.Begin(ctx)
		if err != nil {
			return fmt.Errorf("begin transaction: %w", err)
		}

		if err := fn(context.WithValue(ctx, txContextKey{}, tx)); err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
				return fmt.Errorf("rollback transaction: %v (original error: %w)", rbErr, err)
			}
			return err
		}

		if err := tx.Commit(ctx); err != nil {
			return fmt.Errorf("commit transaction: %w", err)
		}
		return nil
	}
}

// TxFromContext returns the transaction placed in the context by a TxRunner,
// or nil when the caller is not inside one.
func TxFromContext(ctx context.Context) pgx.Tx {
	tx, _ := ctx.Value(txContextKey{}).(pgx.Tx)
	return tx
}
