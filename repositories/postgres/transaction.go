package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/upb/storefront-api/repositories"
	"go.uber.org/zap"
)

type transactionContextKey struct{}

// TransactionManager opens PostgreSQL transactions for the user directory
type TransactionManager struct {
	db     *DB
	logger *zap.Logger
}

// NewTransactionManager creates a new transaction manager
func NewTransactionManager(db *DB, logger *zap.Logger) repositories.TransactionManager {
	return &TransactionManager{
		db:     db,
		logger: logger,
	}
}

// Begin starts a transaction. Its Context carries the transaction, so
// repositories called with that context run their statements inside it.
// Failures wrap repositories.ErrTxFailed.
func (tm *TransactionManager) Begin(ctx context.Context) (repositories.Transaction, error) {
	sqlTx, err := tm.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: begin: %w", repositories.ErrTxFailed, err)
	}

	tx := &Transaction{
		id:        uuid.NewString(),
		tx:        sqlTx,
		startedAt: time.Now(),
		logger:    tm.logger,
	}
	tx.ctx = context.WithValue(ctx, transactionContextKey{}, tx)

	tm.logger.Debug("transaction started", zap.String("tx_id", tx.id))
	return tx, nil
}

// Transaction is a single PostgreSQL transaction. Once committed or rolled
// back, a further Rollback is a no-op so callers can defer it unconditionally.
type Transaction struct {
	id        string
	tx        *sql.Tx
	ctx       context.Context
	startedAt time.Time
	done      bool
	logger    *zap.Logger
}

// Commit commits the transaction
func (t *Transaction) Commit() error {
	if t.done {
		return fmt.Errorf("%w: commit: %w", repositories.ErrTxFailed, sql.ErrTxDone)
	}
	t.done = true

	if err := t.tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit: %w", repositories.ErrTxFailed, err)
	}
	t.logger.Debug("transaction committed",
		zap.String("tx_id", t.id),
		zap.Duration("duration", time.Since(t.startedAt)))
	return nil
}

// Rollback aborts the transaction
func (t *Transaction) Rollback() error {
	if t.done {
		return nil
	}
	t.done = true

	if err := t.tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		return fmt.Errorf("%w: rollback: %w", repositories.ErrTxFailed, err)
	}
	t.logger.Debug("transaction rolled back",
		zap.String("tx_id", t.id),
		zap.Duration("duration", time.Since(t.startedAt)))
	return nil
}

// Context returns the context carrying this transaction
func (t *Transaction) Context() context.Context {
	return t.ctx
}

// GetTransactionFromContext returns the transaction carried by ctx, if any
func GetTransactionFromContext(ctx context.Context) (*Transaction, bool) {
	tx, ok := ctx.Value(transactionContextKey{}).(*Transaction)
	return tx, ok
}

// Executor runs statements on either the pool or a transaction
type Executor interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// GetExecutor returns the transaction carried by ctx, or the pool
func GetExecutor(ctx context.Context, db *DB) Executor {
	if tx, ok := GetTransactionFromContext(ctx); ok {
		return tx.tx
	}
	return db.DB
}
