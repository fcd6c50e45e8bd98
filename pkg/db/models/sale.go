package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/vendfleet/vendfleet-backend/pkg/enums"
)

// Sale records one vending purchase attempt. VendingTransactionID is the
// kiosk-generated id used as the gateway external reference; PaymentID and
// PaymentStatusDetail arrive later via webhook reconciliation.
type Sale struct {
	ID                   uuid.UUID        `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	VendingTransactionID string           `gorm:"column:vending_transaction_id;type:text;not null;uniqueIndex"`
	MachineID            string           `gorm:"column:machine_id;type:text;not null;index"`
	Status               enums.SaleStatus `gorm:"column:status;type:sale_status;not null;default:'pending'"`
	PreferenceID         string           `gorm:"column:preference_id;type:text;not null"`
	PaymentID            *string          `gorm:"column:payment_id;type:text"`
	PaymentStatusDetail  *string          `gorm:"column:payment_status_detail;type:text"`
	CreatedAt            time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt            time.Time        `gorm:"column:updated_at;autoUpdateTime"`

	LineItems []SaleLineItem `gorm:"foreignKey:SaleID;constraint:OnDelete:CASCADE"`
}

// SaleLineItem is an immutable snapshot of one purchased item; price changes
// after the fact never rewrite past sales.
type SaleLineItem struct {
	ID         uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	SaleID     uuid.UUID       `gorm:"column:sale_id;type:uuid;not null;index"`
	Position   int             `gorm:"column:position;not null"`
	ProductRef string          `gorm:"column:product_ref;type:text"`
	Name       string          `gorm:"column:name;type:text;not null"`
	Quantity   int             `gorm:"column:quantity;not null"`
	UnitPrice  decimal.Decimal `gorm:"column:unit_price;type:numeric(10,2);not null"`
}
