package repositories

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/upb/storefront-api/models"
)

var (
	// ErrNotFound is wrapped by repositories when a lookup matches no row
	ErrNotFound = errors.New("record not found")

	// ErrDuplicate is wrapped when a unique constraint rejects a write
	ErrDuplicate = errors.New("duplicate record")

	// ErrTxFailed is wrapped when a transaction cannot begin, commit or roll back
	ErrTxFailed = errors.New("transaction failed")
)

// TransactionManager opens database transactions
type TransactionManager interface {
	Begin(ctx context.Context) (Transaction, error)
}

// Transaction represents a database transaction
type Transaction interface {
	Commit() error
	Rollback() error
	Context() context.Context
}

// UserRepository is the user directory
type UserRepository interface {
	// Create inserts a new user; a taken email wraps ErrDuplicate
	Create(ctx context.Context, user *models.User) error

	// GetByID retrieves a user by ID
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)

	// GetByEmail retrieves a user by email (case-insensitive)
	GetByEmail(ctx context.Context, email string) (*models.User, error)

	// ExistsByEmail reports whether an account uses email
	ExistsByEmail(ctx context.Context, email string) (bool, error)

	// List returns users ordered by creation time, newest first
	List(ctx context.Context, limit, offset int) ([]*models.User, error)

	// Count returns the number of users
	Count(ctx context.Context) (int64, error)

	// Update persists profile fields and role
	Update(ctx context.Context, user *models.User) error

	// WithTx returns a new repository instance bound to the transaction
	WithTx(tx Transaction) UserRepository
}

// ProductRepository is the read-only product catalog
type ProductRepository interface {
	List(ctx context.Context, limit, offset int) ([]*models.Product, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

// Repositories aggregates all repository interfaces
type Repositories struct {
	Users    UserRepository
	Products ProductRepository
}
