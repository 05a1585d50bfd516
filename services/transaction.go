package services

import (
	"context"
	"fmt"

	"github.com/upb/storefront-api/repositories"
)

// WithTransactionResult runs fn inside a transaction and returns its result.
// The transaction is committed when fn succeeds and rolled back when it
// fails or panics.
func WithTransactionResult[T any](ctx context.Context, txMgr repositories.TransactionManager, fn func(ctx context.Context, tx repositories.Transaction) (T, error)) (T, error) {
	var result T

	tx, err := txMgr.Begin(ctx)
	if err != nil {
		return result, wrap(ErrTransactionFailed, fmt.Errorf("failed to begin transaction: %w", err))
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	result, err = fn(tx.Context(), tx)
	if err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return result, wrap(ErrTransactionFailed, fmt.Errorf("transaction error: %v, rollback error: %w", err, rbErr))
		}
		return result, err
	}

	if err := tx.Commit(); err != nil {
		return result, wrap(ErrTransactionFailed, fmt.Errorf("failed to commit transaction: %w", err))
	}

	return result, nil
}
