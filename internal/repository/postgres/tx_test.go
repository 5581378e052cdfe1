package postgres

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/edforge/lms-api/pkg/errors"
)

func TestIsRetryable_Patterns(t *testing.T) {
	nonRetryable := []error{
		errors.New(`duplicate key value violates unique constraint "users_email_key"`),
		errors.New("insert or update violates FOREIGN KEY constraint"),
		errors.New("new row violates check constraint"),
		errors.New("null value violates not null constraint"),
		errors.New("syntax error at or near SELECT"),
		errors.New("permission denied for table users"),
	}
	for _, err := range nonRetryable {
		assert.False(t, isRetryable(err), "expected non-retryable: %v", err)
	}

	retryable := []error{
		errors.New("connection reset by peer"),
		errors.New("deadlock detected"),
		errors.New("could not serialize access due to concurrent update"),
	}
	for _, err := range retryable {
		assert.True(t, isRetryable(err), "expected retryable: %v", err)
	}
}

func TestIsRetryable_SQLState(t *testing.T) {
	// SQLSTATE classes decide even when the message carries none of the
	// known patterns.
	assert.False(t, isRetryable(&pq.Error{Code: "23505", Message: "duplicate key"}))
	assert.False(t, isRetryable(&pq.Error{Code: "42601", Message: "bad statement"}))
	assert.False(t, isRetryable(&pq.Error{Code: "42501", Message: "not allowed"}))
	assert.True(t, isRetryable(&pq.Error{Code: "40001", Message: "serialization failure"}))
	assert.True(t, isRetryable(&pq.Error{Code: "40P01", Message: "deadlock detected"}))
}

func TestBackoffDelay(t *testing.T) {
	assert.Equal(t, 100*time.Millisecond, backoffDelay(1))
	assert.Equal(t, 200*time.Millisecond, backoffDelay(2))
	assert.Equal(t, 400*time.Millisecond, backoffDelay(3))
}

func TestExecuteWithRetry_NonRetryableFailsImmediately(t *testing.T) {
	calls := 0
	start := time.Now()

	err := executeWithRetry(context.Background(), 3, func() error {
		calls++
		return errors.New(`duplicate key value violates unique constraint "grades_name_key"`)
	})

	require.Error(t, err)
	assert.Equal(t, 1, calls)
	assert.Less(t, time.Since(start), retryBaseDelay, "no backoff should be observed")

	var dbErr *apperrors.DatabaseError
	require.ErrorAs(t, err, &dbErr)
	assert.Equal(t, 1, dbErr.Attempts)
	assert.Contains(t, dbErr.Error(), "unique constraint")
}

func TestExecuteWithRetry_SucceedsAfterTransientFailures(t *testing.T) {
	calls := 0
	start := time.Now()

	err := executeWithRetry(context.Background(), 3, func() error {
		calls++
		if calls < 3 {
			return errors.New("connection reset by peer")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	// Two backoff sleeps: 100ms + 200ms.
	assert.GreaterOrEqual(t, time.Since(start), 300*time.Millisecond)
}

func TestExecuteWithRetry_ExhaustsRetries(t *testing.T) {
	calls := 0

	err := executeWithRetry(context.Background(), 3, func() error {
		calls++
		return errors.New("connection refused")
	})

	require.Error(t, err)
	assert.Equal(t, 3, calls)

	var dbErr *apperrors.DatabaseError
	require.ErrorAs(t, err, &dbErr)
	assert.Equal(t, 3, dbErr.Attempts)
	assert.Contains(t, dbErr.Error(), "connection refused")
}

func TestExecuteWithRetry_DefaultMaxRetries(t *testing.T) {
	calls := 0

	_ = executeWithRetry(context.Background(), 0, func() error {
		calls++
		return errors.New("i/o timeout")
	})

	assert.Equal(t, DefaultMaxRetries, calls)
}

func TestExecuteWithRetry_ContextCancelledDuringBackoff(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	calls := 0
	err := executeWithRetry(ctx, 3, func() error {
		calls++
		return errors.New("connection reset by peer")
	})

	require.Error(t, err)
	assert.Equal(t, 1, calls, "cancellation during backoff must not start another attempt")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

// recordingConn is a minimal database/sql driver connection that records
// every statement it sees, so transaction mechanics can be asserted
// without a running server.
type recordingConn struct {
	mu     sync.Mutex
	log    []string
	failOn string
}

func (c *recordingConn) record(s string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.log = append(c.log, s)
}

func (c *recordingConn) statements() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.log...)
}

func (c *recordingConn) Prepare(string) (driver.Stmt, error) {
	return nil, errors.New("prepare is not supported")
}

func (c *recordingConn) Close() error { return nil }

func (c *recordingConn) Begin() (driver.Tx, error) {
	c.record("BEGIN")
	return &recordingTx{conn: c}, nil
}

func (c *recordingConn) ExecContext(_ context.Context, query string, _ []driver.NamedValue) (driver.Result, error) {
	c.record(query)
	if c.failOn != "" && strings.Contains(query, c.failOn) {
		return nil, errors.New(`duplicate key value violates unique constraint "questions_pkey"`)
	}
	return driver.RowsAffected(1), nil
}

type recordingTx struct{ conn *recordingConn }

func (t *recordingTx) Commit() error   { t.conn.record("COMMIT"); return nil }
func (t *recordingTx) Rollback() error { t.conn.record("ROLLBACK"); return nil }

type recordingConnector struct{ conn *recordingConn }

func (c recordingConnector) Connect(context.Context) (driver.Conn, error) { return c.conn, nil }
func (c recordingConnector) Driver() driver.Driver                        { return recordingDriver{} }

type recordingDriver struct{}

func (recordingDriver) Open(string) (driver.Conn, error) {
	return nil, errors.New("open is not supported")
}

func newRecordingDB() (*sqlx.DB, *recordingConn) {
	conn := &recordingConn{}
	db := sqlx.NewDb(sql.OpenDB(recordingConnector{conn: conn}), "postgres")
	db.SetMaxOpenConns(1)
	return db, conn
}

func TestBatchExecute_ChunksSequentiallyAndKeepsOrder(t *testing.T) {
	db, conn := newRecordingDB()
	defer db.Close()

	ops := make([]Operation, 7)
	for i := range ops {
		i := i
		ops[i] = func(*sqlx.Tx) (interface{}, error) {
			return i, nil
		}
	}

	results, err := BatchExecute(context.Background(), db, ops, 3, DefaultMaxRetries)
	require.NoError(t, err)

	// Results stay in the original operation order even though a chunk
	// runs its operations concurrently.
	require.Len(t, results, 7)
	for i, res := range results {
		assert.Equal(t, i, res)
	}

	// Seven operations at batch size three mean three sequential
	// transactions: each commits before the next begins.
	assert.Equal(t, []string{
		"BEGIN", "COMMIT",
		"BEGIN", "COMMIT",
		"BEGIN", "COMMIT",
	}, conn.statements())
}

func TestBatchExecute_FailingChunkStopsLaterChunks(t *testing.T) {
	db, conn := newRecordingDB()
	defer db.Close()

	laterRan := false
	ops := []Operation{
		func(*sqlx.Tx) (interface{}, error) {
			return nil, errors.New(`duplicate key value violates unique constraint "questions_pkey"`)
		},
		func(*sqlx.Tx) (interface{}, error) {
			laterRan = true
			return nil, nil
		},
	}

	_, err := BatchExecute(context.Background(), db, ops, 1, DefaultMaxRetries)
	require.Error(t, err)

	var dbErr *apperrors.DatabaseError
	require.ErrorAs(t, err, &dbErr)
	assert.Equal(t, 1, dbErr.Attempts, "constraint violations must not be retried")

	assert.False(t, laterRan, "chunks after a failure must not run")
	assert.Equal(t, []string{"BEGIN", "ROLLBACK"}, conn.statements())
}

func TestBatchExecute_DefaultBatchSize(t *testing.T) {
	db, conn := newRecordingDB()
	defer db.Close()

	ops := make([]Operation, DefaultBatchSize+1)
	for i := range ops {
		ops[i] = func(*sqlx.Tx) (interface{}, error) { return nil, nil }
	}

	_, err := BatchExecute(context.Background(), db, ops, 0, DefaultMaxRetries)
	require.NoError(t, err)

	begins := 0
	for _, stmt := range conn.statements() {
		if stmt == "BEGIN" {
			begins++
		}
	}
	assert.Equal(t, 2, begins)
}

func TestExecuteWithSavepoint_ReleasesOnSuccess(t *testing.T) {
	db, conn := newRecordingDB()
	defer db.Close()

	tx, err := db.Beginx()
	require.NoError(t, err)
	defer tx.Rollback()

	err = ExecuteWithSavepoint(context.Background(), tx, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(context.Background(), "INSERT INTO questions VALUES (1)")
		return err
	}, "q1")
	require.NoError(t, err)

	stmts := conn.statements()
	assert.Contains(t, stmts, `SAVEPOINT "q1"`)
	assert.Contains(t, stmts, "INSERT INTO questions VALUES (1)")
	assert.Contains(t, stmts, `RELEASE SAVEPOINT "q1"`)
	assert.NotContains(t, stmts, `ROLLBACK TO SAVEPOINT "q1"`)
}

func TestExecuteWithSavepoint_RollsBackAndReRaises(t *testing.T) {
	db, conn := newRecordingDB()
	defer db.Close()

	tx, err := db.Beginx()
	require.NoError(t, err)
	defer tx.Rollback()

	boom := errors.New("question insert failed")
	err = ExecuteWithSavepoint(context.Background(), tx, func(*sqlx.Tx) error {
		return boom
	}, "q1")

	// The original error comes back; the outer transaction stays usable.
	assert.ErrorIs(t, err, boom)
	stmts := conn.statements()
	assert.Contains(t, stmts, `ROLLBACK TO SAVEPOINT "q1"`)
	assert.NotContains(t, stmts, `RELEASE SAVEPOINT "q1"`)
}

func TestExecuteWithSavepoint_DefaultName(t *testing.T) {
	db, conn := newRecordingDB()
	defer db.Close()

	tx, err := db.Beginx()
	require.NoError(t, err)
	defer tx.Rollback()

	err = ExecuteWithSavepoint(context.Background(), tx, func(*sqlx.Tx) error {
		return nil
	}, "")
	require.NoError(t, err)
	assert.Contains(t, conn.statements(), `SAVEPOINT "sp1"`)
}
