package postgres

import (
	"context"

	"github.com/jmoiron/sqlx"
)

// BaseRepository provides common functionality for all repositories
type BaseRepository struct {
	db *sqlx.DB
}

// NewBaseRepository creates a new base repository
func NewBaseRepository(db *sqlx.DB) BaseRepository {
	return BaseRepository{db: db}
}

// GetDB returns the database instance
func (r *BaseRepository) GetDB() *sqlx.DB {
	return r.db
}

// WithTx executes a function within a single transaction, no retries.
// Multi-statement writes that may hit transient failures should go
// through WithRetry instead.
func (r *BaseRepository) WithTx(ctx context.Context, fn func(*sqlx.Tx) error) error {
	return runInTx(ctx, r.db, fn)
}

// WithRetry executes a function within a transaction via the retry
// engine, using the default attempt budget.
func (r *BaseRepository) WithRetry(ctx context.Context, fn func(*sqlx.Tx) error) error {
	return ExecuteInTransaction(ctx, r.db, fn, DefaultMaxRetries)
}
