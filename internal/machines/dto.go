package machines

import (
	"time"

	"github.com/vendfleet/vendfleet-backend/pkg/db/models"
	"github.com/vendfleet/vendfleet-backend/pkg/enums"
)

// RegisterMachineInput captures the payload for registering a vending unit.
type RegisterMachineInput struct {
	MachineID string  `json:"machineId" validate:"required"`
	Latitude  float64 `json:"latitude" validate:"gte=-90,lte=90"`
	Longitude float64 `json:"longitude" validate:"gte=-180,lte=180"`
}

// MachineDTO is the API projection of a machine row.
type MachineDTO struct {
	MachineID     string              `json:"machineId"`
	Latitude      float64             `json:"latitude"`
	Longitude     float64             `json:"longitude"`
	Status        enums.MachineStatus `json:"status"`
	LastHeartbeat *time.Time          `json:"lastHeartbeat,omitempty"`
	CreatedAt     time.Time           `json:"createdAt"`
	UpdatedAt     time.Time           `json:"updatedAt"`
}

func toDTO(m models.Machine) MachineDTO {
	return MachineDTO{
		MachineID:     m.MachineID,
		Latitude:      m.Latitude,
		Longitude:     m.Longitude,
		Status:        m.Status,
		LastHeartbeat: m.LastHeartbeat,
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}
}
