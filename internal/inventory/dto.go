package inventory

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/vendfleet/vendfleet-backend/pkg/db/models"
)

// UpsertInput loads or reprices one product in one machine channel.
type UpsertInput struct {
	MachineID string          `json:"machineId" validate:"required"`
	ChannelID int             `json:"channelId" validate:"required,gt=0"`
	ProductID uuid.UUID       `json:"productId" validate:"required"`
	Quantity  int             `json:"quantity" validate:"gte=0"`
	Price     decimal.Decimal `json:"price"`
}

// AdjustInput changes the stock count of one channel by a signed delta.
type AdjustInput struct {
	MachineID string `json:"machineId" validate:"required"`
	ChannelID int    `json:"channelId" validate:"required,gt=0"`
	Delta     int    `json:"delta" validate:"required"`
}

// ItemDTO is the API projection of one stocked channel.
type ItemDTO struct {
	MachineID   string          `json:"machineId"`
	ChannelID   int             `json:"channelId"`
	ProductID   uuid.UUID       `json:"productId"`
	ProductSKU  string          `json:"productSku,omitempty"`
	ProductName string          `json:"productName,omitempty"`
	Quantity    int             `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

func toDTO(item models.InventoryItem) ItemDTO {
	dto := ItemDTO{
		MachineID: item.MachineID,
		ChannelID: item.ChannelID,
		ProductID: item.ProductID,
		Quantity:  item.Quantity,
		Price:     item.Price,
		UpdatedAt: item.UpdatedAt,
	}
	if item.Product != nil {
		dto.ProductSKU = item.Product.SKU
		dto.ProductName = item.Product.Name
	}
	return dto
}
