package notifications

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/vendfleet/vendfleet-backend/pkg/db/models"
	"github.com/vendfleet/vendfleet-backend/pkg/enums"
	pkgerrors "github.com/vendfleet/vendfleet-backend/pkg/errors"
	"github.com/vendfleet/vendfleet-backend/pkg/logger"
	"github.com/vendfleet/vendfleet-backend/pkg/pagination"
)

type notificationRepo interface {
	List(ctx context.Context, unreadOnly bool, limit int, cursor *pagination.Cursor) ([]models.Notification, error)
	MarkRead(ctx context.Context, id uuid.UUID) (int64, error)
	MarkAllRead(ctx context.Context) (int64, error)
}

// NotificationDTO is the API projection of one audit row.
type NotificationDTO struct {
	ID        uuid.UUID              `json:"id"`
	Type      enums.NotificationType `json:"type"`
	Message   string                 `json:"message"`
	IsRead    bool                   `json:"isRead"`
	MachineID *string                `json:"machineId,omitempty"`
	UserID    *uuid.UUID             `json:"userId,omitempty"`
	CreatedAt time.Time              `json:"createdAt"`
}

// ListResult is a cursor page of notifications.
type ListResult struct {
	Notifications []NotificationDTO `json:"notifications"`
	NextCursor    string            `json:"nextCursor,omitempty"`
}

// ServiceParams configure the notification service.
type ServiceParams struct {
	Logger *logger.Logger
	Repo   notificationRepo
}

// Service reads and acknowledges the notification audit trail.
type Service struct {
	logg *logger.Logger
	repo notificationRepo
}

// NewService builds the notification service.
func NewService(params ServiceParams) (*Service, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Repo == nil {
		return nil, fmt.Errorf("notification repository required")
	}
	return &Service{logg: params.Logger, repo: params.Repo}, nil
}

// List returns a cursor page of notifications, newest first.
func (s *Service) List(ctx context.Context, unreadOnly bool, params pagination.Params) (*ListResult, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}

	limit := pagination.NormalizeLimit(params.Limit)
	rows, err := s.repo.List(ctx, unreadOnly, pagination.LimitWithBuffer(params.Limit), cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "listing notifications")
	}

	result := &ListResult{Notifications: make([]NotificationDTO, 0, len(rows))}
	hasMore := len(rows) > limit
	if hasMore {
		rows = rows[:limit]
	}
	for _, row := range rows {
		result.Notifications = append(result.Notifications, toDTO(row))
	}
	if hasMore {
		last := rows[len(rows)-1]
		result.NextCursor = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	return result, nil
}

// MarkRead acknowledges one notification.
func (s *Service) MarkRead(ctx context.Context, id uuid.UUID) error {
	rows, err := s.repo.MarkRead(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "marking notification read")
	}
	if rows == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "notification not found")
	}
	return nil
}

// MarkAllRead acknowledges every unread notification and reports the count.
func (s *Service) MarkAllRead(ctx context.Context) (int64, error) {
	count, err := s.repo.MarkAllRead(ctx)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "marking notifications read")
	}
	return count, nil
}

func toDTO(notification models.Notification) NotificationDTO {
	return NotificationDTO{
		ID:        notification.ID,
		Type:      notification.Type,
		Message:   notification.Message,
		IsRead:    notification.IsRead,
		MachineID: notification.MachineID,
		UserID:    notification.UserID,
		CreatedAt: notification.CreatedAt,
	}
}
