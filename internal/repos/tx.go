package repos

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/jmoiron/sqlx"

	applog "salesdesk/internal/log"
)

// WithTx runs fn inside a transaction. fn's error, or a panic, rolls back.
func WithTx(ctx context.Context, db *sqlx.DB, fn func(tx *sqlx.Tx) error) (err error) {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("%w (rollback: %v)", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// WithRetry re-runs a whole transaction when the backend reports a
// serialization failure, deadlock or busy database.
func WithRetry(ctx context.Context, db *sqlx.DB, maxAttempts int, fn func(tx *sqlx.Tx) error) error {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	var err error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err = WithTx(ctx, db, fn)
		if err == nil || !IsRetryable(err) {
			return err
		}
		if attempt == maxAttempts {
			break
		}
		backoff := time.Duration(attempt*attempt)*10*time.Millisecond +
			time.Duration(rand.Intn(10))*time.Millisecond
		applog.Security(nil, "db.tx.retry", map[string]any{"attempt": attempt, "backoff_ms": backoff.Milliseconds(), "err": err.Error()})
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
	}
	return fmt.Errorf("transaction failed after %d attempts: %w", maxAttempts, err)
}
