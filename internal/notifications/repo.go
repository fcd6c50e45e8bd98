package notifications

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vendfleet/vendfleet-backend/internal/repo"
	"github.com/vendfleet/vendfleet-backend/pkg/db/models"
	"github.com/vendfleet/vendfleet-backend/pkg/pagination"
)

// Repository persists notification audit rows.
type Repository struct {
	repo.Base
}

// NewRepository builds a notification repository on the provided connection.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// Create appends one audit row.
func (r *Repository) Create(ctx context.Context, notification *models.Notification) error {
	return r.DB(ctx).Create(notification).Error
}

// List returns notifications newest first using a (created_at, id) cursor,
// optionally restricted to unread rows.
func (r *Repository) List(ctx context.Context, unreadOnly bool, limit int, cursor *pagination.Cursor) ([]models.Notification, error) {
	query := r.DB(ctx).
		Order("created_at DESC, id DESC").
		Limit(limit)
	if unreadOnly {
		query = query.Where("is_read = ?", false)
	}
	if cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", cursor.CreatedAt, cursor.ID)
	}

	var notifications []models.Notification
	if err := query.Find(&notifications).Error; err != nil {
		return nil, err
	}
	return notifications, nil
}

// MarkRead flags one notification as read and reports how many rows matched.
func (r *Repository) MarkRead(ctx context.Context, id uuid.UUID) (int64, error) {
	result := r.DB(ctx).
		Model(&models.Notification{}).
		Where("id = ?", id).
		Update("is_read", true)
	return result.RowsAffected, result.Error
}

// MarkAllRead flags every unread notification and returns the count.
func (r *Repository) MarkAllRead(ctx context.Context) (int64, error) {
	result := r.DB(ctx).
		Model(&models.Notification{}).
		Where("is_read = ?", false).
		Update("is_read", true)
	return result.RowsAffected, result.Error
}
