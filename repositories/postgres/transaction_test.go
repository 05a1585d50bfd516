package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/upb/storefront-api/repositories"
	"go.uber.org/zap"
)

func TestTransactionManager_Begin(t *testing.T) {
	t.Run("context routes repository calls through the transaction", func(t *testing.T) {
		db, mock := newMockDB(t)
		tm := NewTransactionManager(db, zap.NewNop())
		repo := NewUserRepository(db, zap.NewNop())

		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT COUNT\(\*\) FROM users`).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))
		mock.ExpectCommit()

		tx, err := tm.Begin(context.Background())
		require.NoError(t, err)

		carried, ok := GetTransactionFromContext(tx.Context())
		require.True(t, ok)
		assert.Same(t, tx, carried)
		assert.Equal(t, carried.tx, GetExecutor(tx.Context(), db))

		count, err := repo.Count(tx.Context())
		require.NoError(t, err)
		assert.Equal(t, int64(3), count)

		require.NoError(t, tx.Commit())
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("begin failure wraps ErrTxFailed", func(t *testing.T) {
		db, mock := newMockDB(t)
		tm := NewTransactionManager(db, zap.NewNop())
		refused := errors.New("no connections")

		mock.ExpectBegin().WillReturnError(refused)

		tx, err := tm.Begin(context.Background())
		assert.Nil(t, tx)
		assert.ErrorIs(t, err, repositories.ErrTxFailed)
		assert.ErrorIs(t, err, refused)
	})
}

func TestTransaction_CommitAndRollback(t *testing.T) {
	t.Run("rollback after commit is a no-op", func(t *testing.T) {
		db, mock := newMockDB(t)
		tm := NewTransactionManager(db, zap.NewNop())

		mock.ExpectBegin()
		mock.ExpectCommit()

		tx, err := tm.Begin(context.Background())
		require.NoError(t, err)
		require.NoError(t, tx.Commit())
		assert.NoError(t, tx.Rollback())
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("second commit fails", func(t *testing.T) {
		db, mock := newMockDB(t)
		tm := NewTransactionManager(db, zap.NewNop())

		mock.ExpectBegin()
		mock.ExpectRollback()

		tx, err := tm.Begin(context.Background())
		require.NoError(t, err)
		require.NoError(t, tx.Rollback())
		assert.ErrorIs(t, tx.Commit(), repositories.ErrTxFailed)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("commit failure wraps ErrTxFailed", func(t *testing.T) {
		db, mock := newMockDB(t)
		tm := NewTransactionManager(db, zap.NewNop())

		mock.ExpectBegin()
		mock.ExpectCommit().WillReturnError(errors.New("serialization failure"))

		tx, err := tm.Begin(context.Background())
		require.NoError(t, err)
		assert.ErrorIs(t, tx.Commit(), repositories.ErrTxFailed)
	})

	t.Run("rollback failure wraps ErrTxFailed", func(t *testing.T) {
		db, mock := newMockDB(t)
		tm := NewTransactionManager(db, zap.NewNop())

		mock.ExpectBegin()
		mock.ExpectRollback().WillReturnError(errors.New("connection reset"))

		tx, err := tm.Begin(context.Background())
		require.NoError(t, err)
		assert.ErrorIs(t, tx.Rollback(), repositories.ErrTxFailed)
	})
}

func TestGetExecutor_WithoutTransaction(t *testing.T) {
	db, _ := newMockDB(t)
	_, ok := GetTransactionFromContext(context.Background())
	assert.False(t, ok)
	assert.Equal(t, db.DB, GetExecutor(context.Background(), db))
}
