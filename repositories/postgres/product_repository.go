package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/upb/storefront-api/models"
	"github.com/upb/storefront-api/repositories"
	"go.uber.org/zap"
)

const productColumns = `id, name, category, description, final_price, stock_quantity, image_url, created_at`

// ProductRepository implements the repositories.ProductRepository interface
type ProductRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewProductRepository creates a new product repository
func NewProductRepository(db *DB, logger *zap.Logger) repositories.ProductRepository {
	return &ProductRepository{
		db:     db,
		logger: logger,
	}
}

// List retrieves products ordered by name
func (r *ProductRepository) List(ctx context.Context, limit, offset int) ([]*models.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products ORDER BY name LIMIT $1 OFFSET $2`

	rows, err := GetExecutor(ctx, r.db).QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	products := make([]*models.Product, 0)
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, product)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating product rows: %w", err)
	}

	return products, nil
}

// GetByID retrieves a product by ID
func (r *ProductRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`

	product, err := scanProduct(GetExecutor(ctx, r.db).QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("product %s: %w", id, repositories.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	return product, nil
}

func scanProduct(row rowScanner) (*models.Product, error) {
	product := &models.Product{}
	err := row.Scan(
		&product.ID,
		&product.Name,
		&product.Category,
		&product.Description,
		&product.FinalPrice,
		&product.StockQuantity,
		&product.ImageURL,
		&product.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return product, nil
}
