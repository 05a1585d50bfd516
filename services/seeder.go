package services

import (
	"context"
	"errors"
	"time"

	"github.com/upb/storefront-api/identity"
	"github.com/upb/storefront-api/models"
	"github.com/upb/storefront-api/repositories"
	"go.uber.org/zap"
)

// SeedResult reports what EnsureAdmin did
type SeedResult string

const (
	SeedCreated   SeedResult = "created"
	SeedPromoted  SeedResult = "promoted"
	SeedUnchanged SeedResult = "unchanged"
)

// AdminAccount describes the account EnsureAdmin maintains
type AdminAccount struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
}

// PrincipalCache drops stale principals after a role change
type PrincipalCache interface {
	Forget(subject string)
}

// AdminSeeder makes sure a configured account exists with the ADMIN role
type AdminSeeder struct {
	txMgr  repositories.TransactionManager
	users  repositories.UserRepository
	hasher identity.Hasher
	cache  PrincipalCache
	logger *zap.Logger
}

// NewAdminSeeder creates a new admin seeder. cache may be nil.
func NewAdminSeeder(txMgr repositories.TransactionManager, users repositories.UserRepository, hasher identity.Hasher, cache PrincipalCache, logger *zap.Logger) *AdminSeeder {
	return &AdminSeeder{
		txMgr:  txMgr,
		users:  users,
		hasher: hasher,
		cache:  cache,
		logger: logger,
	}
}

// EnsureAdmin creates the account when missing and promotes it when it holds
// another role. An existing password is left untouched.
func (s *AdminSeeder) EnsureAdmin(ctx context.Context, account AdminAccount) (SeedResult, error) {
	email := normalizeEmail(account.Email)
	if email == "" || account.Password == "" {
		return "", ErrInvalidInput
	}

	result, err := WithTransactionResult(ctx, s.txMgr, func(ctx context.Context, tx repositories.Transaction) (SeedResult, error) {
		users := s.users.WithTx(tx)

		existing, err := users.GetByEmail(ctx, email)
		switch {
		case errors.Is(err, repositories.ErrNotFound):
			hash, err := s.hasher.Hash(account.Password)
			if err != nil {
				return "", WrapInternal("failed to hash admin password", err)
			}
			admin := models.NewUser(account.FirstName, account.LastName, email, hash)
			admin.Role = models.RoleAdmin
			if err := users.Create(ctx, admin); err != nil {
				return "", wrap(ErrDatabaseError, err)
			}
			return SeedCreated, nil
		case err != nil:
			return "", wrap(ErrDatabaseError, err)
		case existing.IsAdmin():
			return SeedUnchanged, nil
		}

		existing.Role = models.RoleAdmin
		existing.UpdatedAt = time.Now().UTC()
		if err := users.Update(ctx, existing); err != nil {
			return "", wrap(ErrDatabaseError, err)
		}
		return SeedPromoted, nil
	})
	if err != nil {
		return "", err
	}

	if result != SeedUnchanged && s.cache != nil {
		s.cache.Forget(email)
	}

	s.logger.Info("admin account ensured", zap.String("email", email), zap.String("result", string(result)))
	return result, nil
}
