package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// withTransaction runs fn inside a transaction on conn, committing on
// success and rolling back on any error.
func withTransaction(ctx context.Context, conn *sqlx.Conn, fn func(tx *sqlx.Tx) error) error {
	tx, err := conn.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
