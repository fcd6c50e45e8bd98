package sales

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/vendfleet/vendfleet-backend/internal/repo"
	"github.com/vendfleet/vendfleet-backend/pkg/db/models"
	"github.com/vendfleet/vendfleet-backend/pkg/enums"
	"github.com/vendfleet/vendfleet-backend/pkg/pagination"
)

// Repository persists sales and their line-item snapshots.
type Repository struct {
	repo.Base
}

// NewRepository builds a sales repository on the provided connection.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// Create inserts the sale with its line items in one association write.
func (r *Repository) Create(ctx context.Context, sale *models.Sale) error {
	return r.DB(ctx).Create(sale).Error
}

// FindByVendingTransactionID loads one sale with its line items.
func (r *Repository) FindByVendingTransactionID(ctx context.Context, vendingTxnID string) (*models.Sale, error) {
	var sale models.Sale
	err := r.DB(ctx).
		Preload("LineItems", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Where("vending_transaction_id = ?", vendingTxnID).
		First(&sale).Error
	if err != nil {
		return nil, err
	}
	return &sale, nil
}

// ApplyPaymentSnapshot writes the gateway's latest view of a payment onto
// the sale keyed by external reference. The write is unconditional
// (last-write-wins); it returns the number of rows touched so callers can
// detect unknown references.
func (r *Repository) ApplyPaymentSnapshot(ctx context.Context, vendingTxnID string, status enums.SaleStatus, paymentID, statusDetail string) (int64, error) {
	updates := map[string]any{
		"status":                status,
		"payment_id":            paymentID,
		"payment_status_detail": statusDetail,
		"updated_at":            time.Now().UTC(),
	}
	result := r.DB(ctx).
		Model(&models.Sale{}).
		Where("vending_transaction_id = ?", vendingTxnID).
		Updates(updates)
	return result.RowsAffected, result.Error
}

// List returns sales newest first, optionally filtered by machine, using a
// (created_at, id) cursor.
func (r *Repository) List(ctx context.Context, machineID string, limit int, cursor *pagination.Cursor) ([]models.Sale, error) {
	query := r.DB(ctx).
		Preload("LineItems", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Order("created_at DESC, id DESC").
		Limit(limit)
	if machineID != "" {
		query = query.Where("machine_id = ?", machineID)
	}
	if cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", cursor.CreatedAt, cursor.ID)
	}

	var sales []models.Sale
	if err := query.Find(&sales).Error; err != nil {
		return nil, err
	}
	return sales, nil
}
