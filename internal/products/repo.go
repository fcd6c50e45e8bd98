package products

import (
	"context"

	"gorm.io/gorm"

	"github.com/vendfleet/vendfleet-backend/internal/repo"
	"github.com/vendfleet/vendfleet-backend/pkg/db/models"
)

// Repository persists catalog entries.
type Repository struct {
	repo.Base
}

// NewRepository builds a product repository on the provided connection.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// Create inserts a new product row.
func (r *Repository) Create(ctx context.Context, product *models.Product) error {
	return r.DB(ctx).Create(product).Error
}

// FindBySKU fetches one product by its external identity.
func (r *Repository) FindBySKU(ctx context.Context, sku string) (*models.Product, error) {
	var product models.Product
	if err := r.DB(ctx).Where("sku = ?", sku).First(&product).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// List returns the catalog ordered by SKU.
func (r *Repository) List(ctx context.Context) ([]models.Product, error) {
	var products []models.Product
	if err := r.DB(ctx).Order("sku ASC").Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

// Update writes the provided column values onto the product keyed by SKU
// and reports how many rows matched.
func (r *Repository) Update(ctx context.Context, sku string, updates map[string]any) (int64, error) {
	result := r.DB(ctx).
		Model(&models.Product{}).
		Where("sku = ?", sku).
		Updates(updates)
	return result.RowsAffected, result.Error
}

// Delete removes the product keyed by SKU and reports how many rows matched.
func (r *Repository) Delete(ctx context.Context, sku string) (int64, error) {
	result := r.DB(ctx).Where("sku = ?", sku).Delete(&models.Product{})
	return result.RowsAffected, result.Error
}
