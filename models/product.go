package models

import (
	"time"

	"github.com/google/uuid"
)

// Product is a catalog entry exposed by the public listing
type Product struct {
	ID            uuid.UUID `json:"id" db:"id"`
	Name          string    `json:"name" db:"name"`
	Category      string    `json:"category" db:"category"`
	Description   string    `json:"description" db:"description"`
	FinalPrice    string    `json:"finalPrice" db:"final_price"`
	StockQuantity int       `json:"stockQuantity" db:"stock_quantity"`
	ImageURL      string    `json:"imageUrl,omitempty" db:"image_url"`
	CreatedAt     time.Time `json:"createdAt" db:"created_at"`
}
