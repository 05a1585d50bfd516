package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/upb/storefront-api/models"
	"github.com/upb/storefront-api/services"
	"go.uber.org/zap"
)

// MockUserLister is a mock implementation of UserLister
type MockUserLister struct {
	mock.Mock
}

func (m *MockUserLister) ListUsers(ctx context.Context, limit, offset int) ([]*models.User, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.User), args.Error(1)
}

func TestAdminHandler_HandleListUsers(t *testing.T) {
	logger := zap.NewNop()

	t.Run("lists users without hashes", func(t *testing.T) {
		lister := new(MockUserLister)
		lister.On("ListUsers", mock.Anything, defaultPageSize, 0).Return([]*models.User{
			models.NewUser("Ada", "Lovelace", "ada@example.com", "$2a$10$hidden"),
		}, nil)

		rec := httptest.NewRecorder()
		NewAdminHandler(lister, logger).HandleListUsers(rec, httptest.NewRequest(http.MethodGet, "/admin/users", nil))

		require.Equal(t, http.StatusOK, rec.Code)
		assert.NotContains(t, rec.Body.String(), "$2a$10$hidden")

		var body UserListResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
		require.Len(t, body.Users, 1)
		assert.Equal(t, "ada@example.com", body.Users[0].Email)
		assert.Equal(t, defaultPageSize, body.Limit)
	})

	t.Run("empty page is an empty array", func(t *testing.T) {
		lister := new(MockUserLister)
		lister.On("ListUsers", mock.Anything, mock.Anything, mock.Anything).Return(nil, nil)

		rec := httptest.NewRecorder()
		NewAdminHandler(lister, logger).HandleListUsers(rec, httptest.NewRequest(http.MethodGet, "/admin/users", nil))

		assert.Contains(t, rec.Body.String(), `"users":[]`)
	})

	t.Run("store failure", func(t *testing.T) {
		lister := new(MockUserLister)
		lister.On("ListUsers", mock.Anything, mock.Anything, mock.Anything).Return(nil, services.ErrDatabaseError)

		rec := httptest.NewRecorder()
		NewAdminHandler(lister, logger).HandleListUsers(rec, httptest.NewRequest(http.MethodGet, "/admin/users", nil))

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}
