package users

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/vendfleet/vendfleet-backend/pkg/db/models"
	"github.com/vendfleet/vendfleet-backend/pkg/enums"
)

// CreateUserDTO captures the fields required to insert a user row.
type CreateUserDTO struct {
	Email                string
	Name                 string
	Role                 enums.UserRole
	PasswordHash         string
	NotifyMachineOffline bool
	NotifyLowStock       bool
}

// ToModel converts the DTO into a persistable user model. Emails are stored
// lowercased so the unique index also enforces case-insensitive uniqueness.
func (d CreateUserDTO) ToModel() *models.User {
	return &models.User{
		Email:                NormalizeEmail(d.Email),
		Name:                 strings.TrimSpace(d.Name),
		Role:                 d.Role,
		PasswordHash:         d.PasswordHash,
		NotifyMachineOffline: d.NotifyMachineOffline,
		NotifyLowStock:       d.NotifyLowStock,
	}
}

// NormalizeEmail trims and lowercases an address for storage and lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// UserDTO is the API projection of a user row.
type UserDTO struct {
	ID                   uuid.UUID      `json:"id"`
	Email                string         `json:"email"`
	Name                 string         `json:"name"`
	Role                 enums.UserRole `json:"role"`
	NotifyMachineOffline bool           `json:"notifyMachineOffline"`
	NotifyLowStock       bool           `json:"notifyLowStock"`
	CreatedAt            time.Time      `json:"createdAt"`
}

// ToDTO strips credentials from the model for API responses.
func ToDTO(user models.User) UserDTO {
	return UserDTO{
		ID:                   user.ID,
		Email:                user.Email,
		Name:                 user.Name,
		Role:                 user.Role,
		NotifyMachineOffline: user.NotifyMachineOffline,
		NotifyLowStock:       user.NotifyLowStock,
		CreatedAt:            user.CreatedAt,
	}
}
