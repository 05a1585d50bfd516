package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/upb/storefront-api/identity"
	"github.com/upb/storefront-api/internal/observability"
	"github.com/upb/storefront-api/models"
	"github.com/upb/storefront-api/repositories"
	"go.uber.org/zap"
)

// CredentialVerifier checks a password against the directory
type CredentialVerifier interface {
	VerifyCredentials(ctx context.Context, subject, password string) bool
}

// TokenIssuer signs identity tokens
type TokenIssuer interface {
	Issue(subject, role string, now time.Time) (string, error)
}

// LoginResult is returned by a successful login
type LoginResult struct {
	Token string      `json:"token"`
	Email string      `json:"email"`
	Role  models.Role `json:"role"`
}

// RegisterInput holds the identity attributes of a new account
type RegisterInput struct {
	FirstName     string
	LastName      string
	Email         string
	Password      string
	Phone         string
	StreetAddress string
	City          string
	State         string
	Zip           string
	Country       string
}

// AuthService implements login, registration and account lookups
type AuthService struct {
	users       repositories.UserRepository
	hasher      identity.Hasher
	credentials CredentialVerifier
	tokens      TokenIssuer
	metrics     *observability.Metrics
	logger      *zap.Logger
	now         func() time.Time
}

// NewAuthService creates a new auth service
func NewAuthService(
	users repositories.UserRepository,
	hasher identity.Hasher,
	credentials CredentialVerifier,
	tokens TokenIssuer,
	metrics *observability.Metrics,
	logger *zap.Logger,
) *AuthService {
	return &AuthService{
		users:       users,
		hasher:      hasher,
		credentials: credentials,
		tokens:      tokens,
		metrics:     metrics,
		logger:      logger,
		now:         time.Now,
	}
}

// Login verifies the credentials and issues a token carrying the stored role.
// Unknown accounts and wrong passwords both fail with ErrCredentialMismatch.
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = normalizeEmail(email)

	if !s.credentials.VerifyCredentials(ctx, email, password) {
		s.metrics.RecordLogin(false)
		s.logger.Info("login failed", zap.String("email", email))
		return nil, ErrCredentialMismatch
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		s.metrics.RecordLogin(false)
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrCredentialMismatch
		}
		return nil, wrap(ErrDatabaseError, err)
	}

	signed, err := s.tokens.Issue(user.Email, string(user.Role), s.now())
	if err != nil {
		s.metrics.RecordLogin(false)
		return nil, WrapInternal("failed to issue token", err)
	}

	s.metrics.RecordLogin(true)
	s.logger.Info("login succeeded", zap.String("email", user.Email), zap.String("role", string(user.Role)))

	return &LoginResult{
		Token: signed,
		Email: user.Email,
		Role:  user.Role,
	}, nil
}

// Register creates a USER account. A taken email fails with ErrDuplicateEmail.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*models.User, error) {
	email := normalizeEmail(input.Email)
	if email == "" || input.Password == "" {
		return nil, ErrInvalidInput
	}

	exists, err := s.users.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, wrap(ErrDatabaseError, err)
	}
	if exists {
		return nil, ErrDuplicateEmail
	}

	hash, err := s.hasher.Hash(input.Password)
	if err != nil {
		return nil, WrapInternal("failed to hash password", err)
	}

	user := models.NewUser(strings.TrimSpace(input.FirstName), strings.TrimSpace(input.LastName), email, hash)
	user.Phone = input.Phone
	user.StreetAddress = input.StreetAddress
	user.City = input.City
	user.State = input.State
	user.Zip = input.Zip
	user.Country = input.Country

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, wrap(ErrDuplicateEmail, err)
		}
		return nil, wrap(ErrDatabaseError, err)
	}

	s.logger.Info("user registered", zap.String("id", user.ID.String()), zap.String("email", user.Email))
	return user, nil
}

// CurrentUser returns the account behind an authenticated subject
func (s *AuthService) CurrentUser(ctx context.Context, subject string) (*models.User, error) {
	if strings.TrimSpace(subject) == "" {
		return nil, ErrUnauthenticated
	}

	user, err := s.users.GetByEmail(ctx, normalizeEmail(subject))
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, wrap(ErrDatabaseError, err)
	}
	return user, nil
}

// CountUsers returns the number of registered accounts
func (s *AuthService) CountUsers(ctx context.Context) (int64, error) {
	count, err := s.users.Count(ctx)
	if err != nil {
		return 0, wrap(ErrDatabaseError, err)
	}
	return count, nil
}

// ListUsers returns a page of accounts, newest first
func (s *AuthService) ListUsers(ctx context.Context, limit, offset int) ([]*models.User, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	users, err := s.users.List(ctx, limit, offset)
	if err != nil {
		return nil, wrap(ErrDatabaseError, err)
	}
	return users, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
