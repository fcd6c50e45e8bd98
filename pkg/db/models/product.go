package models

import (
	"time"

	"github.com/google/uuid"
)

// Product is a catalog entry, identified externally by SKU.
type Product struct {
	ID          uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	SKU         string    `gorm:"column:sku;type:text;not null;uniqueIndex"`
	Name        string    `gorm:"column:name;type:text;not null"`
	Description *string   `gorm:"column:description;type:text"`
	ImageURL    *string   `gorm:"column:image_url;type:text"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
