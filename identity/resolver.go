// Package identity maps token subjects to principals held in the user directory.
package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/upb/storefront-api/models"
	"github.com/upb/storefront-api/repositories"
	"go.uber.org/zap"
)

// ErrPrincipalNotFound is returned when the directory has no account for a subject
var ErrPrincipalNotFound = errors.New("principal not found")

// Principal is the authenticated identity attached to a request
type Principal struct {
	Subject        string
	CredentialHash string
	Role           models.Role
}

// HasRole reports whether the principal holds role
func (p *Principal) HasRole(role models.Role) bool {
	return p != nil && p.Role == role
}

// Directory is the subset of the user store the resolver needs
type Directory interface {
	GetByEmail(ctx context.Context, email string) (*models.User, error)
}

// CacheConfig controls the principal cache. A zero TTL disables it.
type CacheConfig struct {
	TTL  time.Duration
	Size int
}

// Resolver resolves subjects to principals and checks credentials
type Resolver struct {
	directory Directory
	hasher    Hasher
	cache     *lru.LRU[string, *Principal]
	logger    *zap.Logger
}

// NewResolver creates a new Resolver
func NewResolver(directory Directory, hasher Hasher, cacheCfg CacheConfig, logger *zap.Logger) *Resolver {
	r := &Resolver{
		directory: directory,
		hasher:    hasher,
		logger:    logger,
	}
	if cacheCfg.TTL > 0 {
		size := cacheCfg.Size
		if size <= 0 {
			size = 1024
		}
		r.cache = lru.NewLRU[string, *Principal](size, nil, cacheCfg.TTL)
	}
	return r
}

// Resolve returns the principal for subject. It fails with ErrPrincipalNotFound
// when the account no longer exists.
func (r *Resolver) Resolve(ctx context.Context, subject string) (*Principal, error) {
	key := strings.ToLower(strings.TrimSpace(subject))
	if key == "" {
		return nil, ErrPrincipalNotFound
	}

	if r.cache != nil {
		if principal, ok := r.cache.Get(key); ok {
			return principal, nil
		}
	}

	user, err := r.directory.GetByEmail(ctx, key)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrPrincipalNotFound, key)
		}
		return nil, fmt.Errorf("failed to resolve principal: %w", err)
	}

	principal := &Principal{
		Subject:        user.Email,
		CredentialHash: user.PasswordHash,
		Role:           user.Role,
	}
	if r.cache != nil {
		r.cache.Add(key, principal)
	}
	return principal, nil
}

// VerifyCredentials reports whether password matches the stored hash for subject
func (r *Resolver) VerifyCredentials(ctx context.Context, subject, password string) bool {
	principal, err := r.Resolve(ctx, subject)
	if err != nil {
		if !errors.Is(err, ErrPrincipalNotFound) {
			r.logger.Warn("credential check failed", zap.String("subject", subject), zap.Error(err))
		}
		return false
	}

	if err := r.hasher.Compare(principal.CredentialHash, password); err != nil {
		r.logger.Debug("credential mismatch", zap.String("subject", subject))
		return false
	}
	return true
}

// Forget drops a cached principal so the next Resolve reads the directory
func (r *Resolver) Forget(subject string) {
	if r.cache != nil {
		r.cache.Remove(strings.ToLower(strings.TrimSpace(subject)))
	}
}
