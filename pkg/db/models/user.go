package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/vendfleet/vendfleet-backend/pkg/enums"
)

// User is an operator account. Notification preference columns gate which
// alert fan-outs include the user.
type User struct {
	ID                   uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Email                string         `gorm:"column:email;type:text;not null;uniqueIndex"`
	Name                 string         `gorm:"column:name;type:text;not null"`
	Role                 enums.UserRole `gorm:"column:role;type:user_role;not null;default:'technician'"`
	PasswordHash         string         `gorm:"column:password_hash;type:text;not null"`
	NotifyMachineOffline bool           `gorm:"column:notify_machine_offline;not null;default:true"`
	NotifyLowStock       bool           `gorm:"column:notify_low_stock;not null;default:false"`
	CreatedAt            time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt            time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}
