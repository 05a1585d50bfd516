package handlers

import (
	"context"
	"net/http"

	"github.com/upb/storefront-api/models"
	"github.com/upb/storefront-api/utils"
	"go.uber.org/zap"
)

// UserLister pages through accounts
type UserLister interface {
	ListUsers(ctx context.Context, limit, offset int) ([]*models.User, error)
}

// UserListResponse is the body of GET /admin/users
type UserListResponse struct {
	Users  []*models.User `json:"users"`
	Limit  int            `json:"limit"`
	Offset int            `json:"offset"`
}

// AdminHandler serves the ADMIN-only account endpoints
type AdminHandler struct {
	users  UserLister
	logger *zap.Logger
}

// NewAdminHandler creates a new AdminHandler
func NewAdminHandler(users UserLister, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{
		users:  users,
		logger: logger,
	}
}

// HandleListUsers handles GET /admin/users
func (h *AdminHandler) HandleListUsers(w http.ResponseWriter, r *http.Request) {
	limit, offset := pageParams(r)

	users, err := h.users.ListUsers(r.Context(), limit, offset)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	if users == nil {
		users = []*models.User{}
	}

	_ = utils.WriteOK(w, UserListResponse{Users: users, Limit: limit, Offset: offset})
}
