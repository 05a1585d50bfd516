package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/upb/storefront-api/middleware"
	"github.com/upb/storefront-api/models"
	"github.com/upb/storefront-api/services"
	"github.com/upb/storefront-api/utils"
	"go.uber.org/zap"
)

// maxBodyBytes bounds credential request bodies
const maxBodyBytes = 1 << 20

// AuthService is the account logic the auth endpoints call
type AuthService interface {
	Login(ctx context.Context, email, password string) (*services.LoginResult, error)
	Register(ctx context.Context, input services.RegisterInput) (*models.User, error)
	CurrentUser(ctx context.Context, subject string) (*models.User, error)
	CountUsers(ctx context.Context) (int64, error)
}

// LoginRequest is the body of POST /auth/login
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RegisterRequest is the body of POST /auth/register
type RegisterRequest struct {
	FirstName     string `json:"firstName" validate:"required,max=100"`
	LastName      string `json:"lastName" validate:"required,max=100"`
	Email         string `json:"email" validate:"required,email"`
	Password      string `json:"password" validate:"required,min=6,max=72"`
	Phone         string `json:"phone" validate:"max=32"`
	StreetAddress string `json:"streetAddress" validate:"max=255"`
	City          string `json:"city" validate:"max=100"`
	State         string `json:"state" validate:"max=100"`
	Zip           string `json:"zip" validate:"max=20"`
	Country       string `json:"country" validate:"max=100"`
}

// CountResponse is the body of GET /auth/count
type CountResponse struct {
	Count int64 `json:"count"`
}

// AuthHandler serves login, registration and the current account
type AuthHandler struct {
	service AuthService
	logger  *zap.Logger
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(service AuthService, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		service: service,
		logger:  logger,
	}
}

// HandleLogin handles POST /auth/login
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !h.decode(w, r, &req) {
		return
	}

	result, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, services.ErrCredentialMismatch) {
			_ = utils.WriteUnauthorized(w, "Invalid credentials")
			return
		}
		HandleServiceError(w, err, h.logger)
		return
	}

	_ = utils.WriteOK(w, result)
}

// HandleRegister handles POST /auth/register
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if !h.decode(w, r, &req) {
		return
	}

	_, err := h.service.Register(r.Context(), services.RegisterInput{
		FirstName:     req.FirstName,
		LastName:      req.LastName,
		Email:         req.Email,
		Password:      req.Password,
		Phone:         req.Phone,
		StreetAddress: req.StreetAddress,
		City:          req.City,
		State:         req.State,
		Zip:           req.Zip,
		Country:       req.Country,
	})
	if err != nil {
		if errors.Is(err, services.ErrDuplicateEmail) {
			_ = utils.WriteConflict(w, "Email already in use")
			return
		}
		HandleServiceError(w, err, h.logger)
		return
	}

	_ = utils.WriteCreated(w, "User registered successfully")
}

// HandleMe handles GET /auth/me. The route is public so the handler itself
// answers anonymous callers.
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	principal := middleware.GetPrincipalFromContext(r.Context())
	if principal == nil {
		_ = utils.WriteUnauthorized(w, "Unauthenticated")
		return
	}

	user, err := h.service.CurrentUser(r.Context(), principal.Subject)
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			_ = utils.WriteNotFound(w, "User not found")
			return
		}
		HandleServiceError(w, err, h.logger)
		return
	}

	_ = utils.WriteOK(w, user)
}

// HandleCount handles GET /auth/count
func (h *AuthHandler) HandleCount(w http.ResponseWriter, r *http.Request) {
	count, err := h.service.CountUsers(r.Context())
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	_ = utils.WriteOK(w, CountResponse{Count: count})
}

// decode reads and validates a JSON body, answering 400 on failure
func (h *AuthHandler) decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		_ = utils.WriteBadRequest(w, "Invalid request body", nil)
		return false
	}
	if err := utils.ValidateStruct(dst); err != nil {
		HandleValidationError(w, err, h.logger)
		return false
	}
	return true
}
