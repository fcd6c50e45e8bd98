package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/vendfleet/vendfleet-backend/pkg/enums"
)

// Notification is an audit row for a dispatched or recorded event.
type Notification struct {
	ID        uuid.UUID              `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Type      enums.NotificationType `gorm:"column:type;type:notification_type;not null"`
	Message   string                 `gorm:"column:message;type:text;not null"`
	IsRead    bool                   `gorm:"column:is_read;not null;default:false"`
	MachineID *string                `gorm:"column:machine_id;type:text;index"`
	UserID    *uuid.UUID             `gorm:"column:user_id;type:uuid"`
	CreatedAt time.Time              `gorm:"column:created_at;autoCreateTime"`
}
