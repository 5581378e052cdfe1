package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	apperrors "github.com/edforge/lms-api/pkg/errors"
)

const (
	// DefaultMaxRetries bounds how many independent transactions one
	// ExecuteInTransaction call may open.
	DefaultMaxRetries = 3

	// DefaultBatchSize is the chunk size for BatchExecute.
	DefaultBatchSize = 10

	retryBaseDelay = 100 * time.Millisecond

	defaultSavepoint = "sp1"
)

// nonRetryablePatterns mark failures that no retry can fix. Matched
// case-insensitively against the error text for drivers that do not
// expose SQLSTATE codes.
var nonRetryablePatterns = []string{
	"unique constraint",
	"foreign key constraint",
	"check constraint",
	"not null constraint",
	"syntax error",
	"permission denied",
}

// isRetryable classifies a transaction failure. Integrity violations and
// syntax/permission errors abort immediately; everything else (deadlocks,
// serialization failures, dropped connections) is worth another attempt.
func isRetryable(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code.Class() {
		case "23", // integrity constraint violation
			"42": // syntax error or access rule violation
			return false
		}
	}

	msg := strings.ToLower(err.Error())
	for _, pattern := range nonRetryablePatterns {
		if strings.Contains(msg, pattern) {
			return false
		}
	}
	return true
}

func backoffDelay(attempt int) time.Duration {
	return retryBaseDelay << (attempt - 1)
}

// executeWithRetry is the retry loop shared by the transaction helpers.
// Attempts are strictly sequential; the delay after attempt n is
// 2^(n-1) * 100ms.
func executeWithRetry(ctx context.Context, maxRetries int, op func() error) error {
	if maxRetries <= 0 {
		maxRetries = DefaultMaxRetries
	}

	var lastErr error
	for attempt := 1; attempt <= maxRetries; attempt++ {
		err := op()
		if err == nil {
			return nil
		}
		lastErr = err

		if !isRetryable(err) {
			return apperrors.NewDatabase(attempt, err)
		}

		if attempt < maxRetries {
			delay := backoffDelay(attempt)
			log.Warn().
				Err(err).
				Int("attempt", attempt).
				Dur("backoff", delay).
				Msg("transaction attempt failed, retrying")

			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return apperrors.NewDatabase(attempt, ctx.Err())
			}
		}
	}

	return apperrors.NewDatabase(maxRetries, lastErr)
}

// runInTx opens one transaction, runs fn, and commits. Any failure path
// rolls back, so a retried attempt always starts from a clean slate.
func runInTx(ctx context.Context, db *sqlx.DB, fn func(*sqlx.Tx) error) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}

	return tx.Commit()
}

// ExecuteInTransaction runs fn inside its own transaction, retrying
// transient failures with exponential backoff up to maxRetries total
// attempts. Non-retryable failures and exhausted retries surface as a
// *errors.DatabaseError carrying the attempt count.
func ExecuteInTransaction(ctx context.Context, db *sqlx.DB, fn func(*sqlx.Tx) error, maxRetries int) error {
	return executeWithRetry(ctx, maxRetries, func() error {
		return runInTx(ctx, db, fn)
	})
}

// ExecuteWithSavepoint runs fn under a named savepoint inside an existing
// transaction. On failure it rolls back to the savepoint and re-raises
// the original error, leaving the outer transaction usable.
func ExecuteWithSavepoint(ctx context.Context, tx *sqlx.Tx, fn func(*sqlx.Tx) error, name string) error {
	if name == "" {
		name = defaultSavepoint
	}
	ident := pq.QuoteIdentifier(name)

	if _, err := tx.ExecContext(ctx, "SAVEPOINT "+ident); err != nil {
		return fmt.Errorf("failed to create savepoint %s: %w", name, err)
	}

	if err := fn(tx); err != nil {
		if _, rbErr := tx.ExecContext(ctx, "ROLLBACK TO SAVEPOINT "+ident); rbErr != nil {
			log.Error().Err(rbErr).Str("savepoint", name).Msg("savepoint rollback failed")
		}
		return err
	}

	if _, err := tx.ExecContext(ctx, "RELEASE SAVEPOINT "+ident); err != nil {
		return fmt.Errorf("failed to release savepoint %s: %w", name, err)
	}
	return nil
}

// Operation is one unit of work within a batched transaction. Its result
// lands in the output slice at the operation's original index.
type Operation func(tx *sqlx.Tx) (interface{}, error)

// BatchExecute partitions operations into chunks of batchSize and runs
// each chunk as one retried transaction. Operations within a chunk run
// concurrently; chunks themselves run sequentially. A failing operation
// fails its whole chunk under the usual retry rules. Results keep the
// original operation order.
func BatchExecute(ctx context.Context, db *sqlx.DB, ops []Operation, batchSize, maxRetries int) ([]interface{}, error) {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	results := make([]interface{}, len(ops))

	for start := 0; start < len(ops); start += batchSize {
		end := start + batchSize
		if end > len(ops) {
			end = len(ops)
		}
		chunk := ops[start:end]
		offset := start

		err := ExecuteInTransaction(ctx, db, func(tx *sqlx.Tx) error {
			g, _ := errgroup.WithContext(ctx)
			for i, op := range chunk {
				i, op := i, op
				g.Go(func() error {
					res, err := op(tx)
					if err != nil {
						return err
					}
					results[offset+i] = res
					return nil
				})
			}
			return g.Wait()
		}, maxRetries)
		if err != nil {
			return nil, err
		}
	}

	return results, nil
}
