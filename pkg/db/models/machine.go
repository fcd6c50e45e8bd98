package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/vendfleet/vendfleet-backend/pkg/enums"
)

// Machine is a deployed vending unit. MachineID is the operator-assigned
// identifier kiosks report with; ID is internal.
type Machine struct {
	ID            uuid.UUID           `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	MachineID     string              `gorm:"column:machine_id;type:text;not null;uniqueIndex"`
	Latitude      float64             `gorm:"column:latitude;not null;default:0"`
	Longitude     float64             `gorm:"column:longitude;not null;default:0"`
	Status        enums.MachineStatus `gorm:"column:status;type:machine_status;not null;default:'offline'"`
	LastHeartbeat *time.Time          `gorm:"column:last_heartbeat"`
	CreatedAt     time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
