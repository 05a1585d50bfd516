package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/upb/storefront-api/identity"
	"github.com/upb/storefront-api/middleware"
	"github.com/upb/storefront-api/models"
	"github.com/upb/storefront-api/services"
	"github.com/upb/storefront-api/utils"
	"go.uber.org/zap"
)

// MockAuthService is a mock implementation of AuthService
type MockAuthService struct {
	mock.Mock
}

func (m *MockAuthService) Login(ctx context.Context, email, password string) (*services.LoginResult, error) {
	args := m.Called(ctx, email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.LoginResult), args.Error(1)
}

func (m *MockAuthService) Register(ctx context.Context, input services.RegisterInput) (*models.User, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockAuthService) CurrentUser(ctx context.Context, subject string) (*models.User, error) {
	args := m.Called(ctx, subject)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockAuthService) CountUsers(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) utils.ErrorResponse {
	t.Helper()
	var body utils.ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body
}

func withPrincipal(req *http.Request, principal *identity.Principal) *http.Request {
	sc := &middleware.SecurityContext{}
	sc.SetPrincipal(principal)
	return req.WithContext(middleware.WithSecurityContext(req.Context(), sc))
}

func TestHandleLogin(t *testing.T) {
	logger := zap.NewNop()

	t.Run("returns token email and role", func(t *testing.T) {
		svc := new(MockAuthService)
		svc.On("Login", mock.Anything, "user@example.com", "secret").
			Return(&services.LoginResult{Token: "signed.jwt.value", Email: "user@example.com", Role: models.RoleUser}, nil)

		req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"email":"user@example.com","password":"secret"}`))
		rec := httptest.NewRecorder()

		NewAuthHandler(svc, logger).HandleLogin(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		var body map[string]string
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
		assert.Equal(t, "signed.jwt.value", body["token"])
		assert.Equal(t, "user@example.com", body["email"])
		assert.Equal(t, "USER", body["role"])
		svc.AssertExpectations(t)
	})

	t.Run("bad credentials", func(t *testing.T) {
		svc := new(MockAuthService)
		svc.On("Login", mock.Anything, "user@example.com", "wrong").Return(nil, services.ErrCredentialMismatch)

		req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"email":"user@example.com","password":"wrong"}`))
		rec := httptest.NewRecorder()

		NewAuthHandler(svc, logger).HandleLogin(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		body := decodeError(t, rec)
		assert.Equal(t, "Unauthorized", body.Error)
		assert.Equal(t, "Invalid credentials", body.Message)
	})

	t.Run("malformed body", func(t *testing.T) {
		svc := new(MockAuthService)
		rec := httptest.NewRecorder()

		NewAuthHandler(svc, logger).HandleLogin(rec, httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"email":`)))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		svc.AssertNotCalled(t, "Login", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("missing password", func(t *testing.T) {
		svc := new(MockAuthService)
		rec := httptest.NewRecorder()

		NewAuthHandler(svc, logger).HandleLogin(rec, httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"email":"user@example.com"}`)))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		body := decodeError(t, rec)
		assert.Contains(t, body.Details, "password")
	})
}

func TestHandleRegister(t *testing.T) {
	logger := zap.NewNop()
	payload := `{"firstName":"Grace","lastName":"Hopper","email":"grace@example.com","password":"s3cret-pass","city":"Arlington"}`

	t.Run("created", func(t *testing.T) {
		svc := new(MockAuthService)
		svc.On("Register", mock.Anything, mock.MatchedBy(func(in services.RegisterInput) bool {
			return in.Email == "grace@example.com" && in.Password == "s3cret-pass" && in.City == "Arlington"
		})).Return(models.NewUser("Grace", "Hopper", "grace@example.com", "hash"), nil)

		rec := httptest.NewRecorder()
		NewAuthHandler(svc, logger).HandleRegister(rec, httptest.NewRequest(http.MethodPost, "/auth/register", strings.NewReader(payload)))

		assert.Equal(t, http.StatusCreated, rec.Code)
		var body utils.MessageResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
		assert.Equal(t, "User registered successfully", body.Message)
	})

	t.Run("email taken", func(t *testing.T) {
		svc := new(MockAuthService)
		svc.On("Register", mock.Anything, mock.Anything).Return(nil, services.ErrDuplicateEmail)

		rec := httptest.NewRecorder()
		NewAuthHandler(svc, logger).HandleRegister(rec, httptest.NewRequest(http.MethodPost, "/auth/register", strings.NewReader(payload)))

		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.Equal(t, "Email already in use", decodeError(t, rec).Message)
	})

	t.Run("short password", func(t *testing.T) {
		svc := new(MockAuthService)
		body := `{"firstName":"Grace","lastName":"Hopper","email":"grace@example.com","password":"abc"}`

		rec := httptest.NewRecorder()
		NewAuthHandler(svc, logger).HandleRegister(rec, httptest.NewRequest(http.MethodPost, "/auth/register", strings.NewReader(body)))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, decodeError(t, rec).Details, "password")
		svc.AssertNotCalled(t, "Register", mock.Anything, mock.Anything)
	})
}

func TestHandleMe(t *testing.T) {
	logger := zap.NewNop()
	principal := &identity.Principal{Subject: "ada@example.com", Role: models.RoleUser}

	t.Run("anonymous", func(t *testing.T) {
		svc := new(MockAuthService)
		rec := httptest.NewRecorder()

		NewAuthHandler(svc, logger).HandleMe(rec, httptest.NewRequest(http.MethodGet, "/auth/me", nil))

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		svc.AssertNotCalled(t, "CurrentUser", mock.Anything, mock.Anything)
	})

	t.Run("profile without password hash", func(t *testing.T) {
		user := models.NewUser("Ada", "Lovelace", "ada@example.com", "$2a$10$secret")
		user.Phone = "555-0100"
		svc := new(MockAuthService)
		svc.On("CurrentUser", mock.Anything, "ada@example.com").Return(user, nil)

		rec := httptest.NewRecorder()
		req := withPrincipal(httptest.NewRequest(http.MethodGet, "/auth/me", nil), principal)
		NewAuthHandler(svc, logger).HandleMe(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.NotContains(t, rec.Body.String(), "$2a$10$secret")

		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
		assert.Equal(t, "ada@example.com", body["email"])
		assert.Equal(t, "Ada", body["firstName"])
		assert.Equal(t, "555-0100", body["phone"])
		assert.Equal(t, "USER", body["role"])
	})

	t.Run("account gone", func(t *testing.T) {
		svc := new(MockAuthService)
		svc.On("CurrentUser", mock.Anything, "ada@example.com").Return(nil, services.ErrUserNotFound)

		rec := httptest.NewRecorder()
		req := withPrincipal(httptest.NewRequest(http.MethodGet, "/auth/me", nil), principal)
		NewAuthHandler(svc, logger).HandleMe(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "User not found", decodeError(t, rec).Message)
	})
}

func TestHandleCount(t *testing.T) {
	logger := zap.NewNop()

	t.Run("count", func(t *testing.T) {
		svc := new(MockAuthService)
		svc.On("CountUsers", mock.Anything).Return(int64(7), nil)

		rec := httptest.NewRecorder()
		NewAuthHandler(svc, logger).HandleCount(rec, httptest.NewRequest(http.MethodGet, "/auth/count", nil))

		require.Equal(t, http.StatusOK, rec.Code)
		var body CountResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
		assert.Equal(t, int64(7), body.Count)
	})

	t.Run("store failure", func(t *testing.T) {
		svc := new(MockAuthService)
		svc.On("CountUsers", mock.Anything).Return(int64(0), services.WrapInternal("count", errors.New("timeout")))

		rec := httptest.NewRecorder()
		NewAuthHandler(svc, logger).HandleCount(rec, httptest.NewRequest(http.MethodGet, "/auth/count", nil))

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}
