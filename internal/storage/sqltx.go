package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	txcontext "altanbank/pkg/platform/tx"
)

// SQLTx runs each unit of work inside a serializable database transaction.
// Stores reached through the callback's context write through the same
// transaction; the emission day-row lock on top of serializable isolation
// linearizes concurrent mints against the daily cap.
//
// Serialization conflicts (SQLSTATE 40001) are retried on a fresh
// transaction, so callbacks must be safe to re-run from the top.
type SQLTx struct {
	db *sql.DB
}

const (
	maxTxAttempts  = 10
	retryBaseDelay = 10 * time.Millisecond
)

func NewSQLTx(db *sql.DB) *SQLTx {
	return &SQLTx{db: db}
}

func (t *SQLTx) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	var err error
	for attempt := 0; attempt < maxTxAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(retryBaseDelay << (attempt - 1)):
			}
		}
		if err = t.runOnce(ctx, fn); !IsSerializationFailure(err) {
			return err
		}
	}
	return fmt.Errorf("transaction retries exhausted: %w", err)
}

func (t *SQLTx) runOnce(ctx context.Context, fn func(ctx context.Context) error) error {
	tx, err := t.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(txcontext.WithTx(ctx, tx)); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && rbErr != sql.ErrTxDone {
			return fmt.Errorf("rollback after %w: %v", err, rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
