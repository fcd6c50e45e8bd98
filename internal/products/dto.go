package products

import (
	"time"

	"github.com/google/uuid"
	"github.com/vendfleet/vendfleet-backend/pkg/db/models"
)

// CreateProductInput captures a new catalog entry.
type CreateProductInput struct {
	SKU         string  `json:"sku" validate:"required"`
	Name        string  `json:"name" validate:"required"`
	Description *string `json:"description"`
	ImageURL    *string `json:"imageUrl"`
}

// UpdateProductInput carries the mutable product fields. Nil fields are
// left untouched; SKU is immutable.
type UpdateProductInput struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	ImageURL    *string `json:"imageUrl"`
}

// ProductDTO is the API projection of a catalog entry.
type ProductDTO struct {
	ID          uuid.UUID `json:"id"`
	SKU         string    `json:"sku"`
	Name        string    `json:"name"`
	Description *string   `json:"description,omitempty"`
	ImageURL    *string   `json:"imageUrl,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func toDTO(product models.Product) ProductDTO {
	return ProductDTO{
		ID:          product.ID,
		SKU:         product.SKU,
		Name:        product.Name,
		Description: product.Description,
		ImageURL:    product.ImageURL,
		CreatedAt:   product.CreatedAt,
		UpdatedAt:   product.UpdatedAt,
	}
}
