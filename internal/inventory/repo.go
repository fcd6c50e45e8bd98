package inventory

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/vendfleet/vendfleet-backend/internal/repo"
	"github.com/vendfleet/vendfleet-backend/pkg/db/models"
)

// Repository persists per-channel stock rows.
type Repository struct {
	repo.Base
}

// NewRepository builds an inventory repository on the provided connection.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// Upsert writes a channel's product, quantity, and price, creating the row
// on first stock. The (machine_id, channel_id) pair is the conflict key.
func (r *Repository) Upsert(ctx context.Context, item *models.InventoryItem) (*models.InventoryItem, error) {
	err := r.DB(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "machine_id"}, {Name: "channel_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"product_id", "quantity", "price", "updated_at"}),
	}).Create(item).Error
	if err != nil {
		return nil, err
	}
	return r.FindByMachineChannel(ctx, item.MachineID, item.ChannelID)
}

// FindByMachineChannel loads one channel row with its product.
func (r *Repository) FindByMachineChannel(ctx context.Context, machineID string, channelID int) (*models.InventoryItem, error) {
	var item models.InventoryItem
	err := r.DB(ctx).
		Preload("Product").
		Where("machine_id = ? AND channel_id = ?", machineID, channelID).
		First(&item).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// ListByMachine returns all stocked channels for one machine in channel order.
func (r *Repository) ListByMachine(ctx context.Context, machineID string) ([]models.InventoryItem, error) {
	var items []models.InventoryItem
	err := r.DB(ctx).
		Preload("Product").
		Where("machine_id = ?", machineID).
		Order("channel_id ASC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

// AdjustQuantity applies a signed delta to one channel's stock. The write is
// conditional on the result staying non-negative; zero rows means the row is
// missing or the delta would overdraw it.
func (r *Repository) AdjustQuantity(ctx context.Context, machineID string, channelID, delta int) (int64, error) {
	result := r.DB(ctx).
		Model(&models.InventoryItem{}).
		Where("machine_id = ? AND channel_id = ? AND quantity + ? >= 0", machineID, channelID, delta).
		Update("quantity", gorm.Expr("quantity + ?", delta))
	return result.RowsAffected, result.Error
}

// Delete removes one channel row and reports how many rows matched.
func (r *Repository) Delete(ctx context.Context, machineID string, channelID int) (int64, error) {
	result := r.DB(ctx).
		Where("machine_id = ? AND channel_id = ?", machineID, channelID).
		Delete(&models.InventoryItem{})
	return result.RowsAffected, result.Error
}
