package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"streamvault/metrics"
)

// Transaction runs fn inside a transaction. The transaction commits when fn
// returns nil and rolls back on any error or panic. Lock conflicts, whether
// raised by fn or by the commit, rerun fn from the start on a fresh
// transaction according to the store's retry policy; once the attempts are
// exhausted the returned error matches ErrContention.
func (s *Store) Transaction(ctx context.Context, fn func(tx *sql.Tx) error) error {
	err := s.policy.Run(ctx, func(ctx context.Context) error {
		return s.runTx(ctx, fn)
	})
	if err != nil {
		s.recordContention(err)
		return err
	}
	return nil
}

// InTx is Transaction for units of work that produce a value.
func InTx[T any](ctx context.Context, s *Store, fn func(tx *sql.Tx) (T, error)) (T, error) {
	var out T
	err := s.Transaction(ctx, func(tx *sql.Tx) error {
		v, err := fn(tx)
		if err != nil {
			return err
		}
		out = v
		return nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return out, nil
}

func (s *Store) runTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.beginTx(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			rollback(tx)
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		rollback(tx)
		slog.Debug("Transaction rolled back", "error", err)
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func rollback(tx *sql.Tx) {
	metrics.TxRollbacks.Inc()
	if err := tx.Rollback(); err != nil && err != sql.ErrTxDone {
		slog.Error("Failed to roll back transaction", "error", err)
	}
}
