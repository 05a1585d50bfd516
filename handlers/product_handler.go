package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/upb/storefront-api/models"
	"github.com/upb/storefront-api/repositories"
	"github.com/upb/storefront-api/utils"
	"go.uber.org/zap"
)

// ProductCatalog is the read side of the product store
type ProductCatalog interface {
	List(ctx context.Context, limit, offset int) ([]*models.Product, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

// ProductHandler serves the public product listing
type ProductHandler struct {
	catalog ProductCatalog
	logger  *zap.Logger
}

// NewProductHandler creates a new ProductHandler
func NewProductHandler(catalog ProductCatalog, logger *zap.Logger) *ProductHandler {
	return &ProductHandler{
		catalog: catalog,
		logger:  logger,
	}
}

// HandleList handles GET /products and GET /products/json
func (h *ProductHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	limit, offset := pageParams(r)

	products, err := h.catalog.List(r.Context(), limit, offset)
	if err != nil {
		h.logger.Error("failed to list products", zap.Error(err))
		_ = utils.WriteInternalServerError(w, "")
		return
	}

	_ = utils.WriteOK(w, products)
}

// HandleGet handles GET /products/{id}
func (h *ProductHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		_ = utils.WriteBadRequest(w, "Invalid product id", nil)
		return
	}

	product, err := h.catalog.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			_ = utils.WriteNotFound(w, "Product not found")
			return
		}
		h.logger.Error("failed to get product", zap.String("id", id.String()), zap.Error(err))
		_ = utils.WriteInternalServerError(w, "")
		return
	}

	_ = utils.WriteOK(w, product)
}
