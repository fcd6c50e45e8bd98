package sales

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/vendfleet/vendfleet-backend/pkg/db/models"
	"github.com/vendfleet/vendfleet-backend/pkg/enums"
)

// LineItemInput is one item the kiosk is selling in a transaction.
type LineItemInput struct {
	ProductRef  string          `json:"productRef"`
	Name        string          `json:"name" validate:"required"`
	Description string          `json:"description"`
	Quantity    int             `json:"quantity" validate:"required,gt=0"`
	Price       decimal.Decimal `json:"price"`
}

// InitiateInput captures a kiosk checkout request.
type InitiateInput struct {
	MachineID            string          `json:"machine_id" validate:"required"`
	VendingTransactionID string          `json:"vending_transaction_id" validate:"required"`
	Items                []LineItemInput `json:"items" validate:"required,min=1,dive"`
}

// InitiateResult is returned to the kiosk so it can render the checkout.
type InitiateResult struct {
	VendingTransactionID string `json:"vending_transaction_id"`
	PreferenceID         string `json:"mp_preference_id"`
	RedirectURL          string `json:"init_point"`
}

// WebhookEvent is the decoded inbound gateway notification. Only the event
// type and the payment id are trusted; everything else is refetched.
type WebhookEvent struct {
	Type      string
	PaymentID string
}

// ReconcileOutcome reports what a webhook delivery did.
type ReconcileOutcome string

const (
	// OutcomeApplied means the payment snapshot was written to a sale.
	OutcomeApplied ReconcileOutcome = "applied"
	// OutcomeIgnored means the event was acknowledged without a write.
	OutcomeIgnored ReconcileOutcome = "ignored"
)

// SaleDTO is the API projection of a sale with its line-item snapshots.
type SaleDTO struct {
	VendingTransactionID string           `json:"vendingTransactionId"`
	MachineID            string           `json:"machineId"`
	Status               enums.SaleStatus `json:"status"`
	PreferenceID         string           `json:"preferenceId"`
	PaymentID            *string          `json:"paymentId,omitempty"`
	PaymentStatusDetail  *string          `json:"paymentStatusDetail,omitempty"`
	Items                []SaleItemDTO    `json:"items"`
	CreatedAt            time.Time        `json:"createdAt"`
	UpdatedAt            time.Time        `json:"updatedAt"`
}

// SaleItemDTO is one line-item snapshot.
type SaleItemDTO struct {
	ProductRef string          `json:"productRef,omitempty"`
	Name       string          `json:"name"`
	Quantity   int             `json:"quantity"`
	UnitPrice  decimal.Decimal `json:"unitPrice"`
}

// ListResult is a cursor page of sales.
type ListResult struct {
	Sales      []SaleDTO `json:"sales"`
	NextCursor string    `json:"nextCursor,omitempty"`
}

func toDTO(sale models.Sale) SaleDTO {
	items := make([]SaleItemDTO, 0, len(sale.LineItems))
	for _, item := range sale.LineItems {
		items = append(items, SaleItemDTO{
			ProductRef: item.ProductRef,
			Name:       item.Name,
			Quantity:   item.Quantity,
			UnitPrice:  item.UnitPrice,
		})
	}
	return SaleDTO{
		VendingTransactionID: sale.VendingTransactionID,
		MachineID:            sale.MachineID,
		Status:               sale.Status,
		PreferenceID:         sale.PreferenceID,
		PaymentID:            sale.PaymentID,
		PaymentStatusDetail:  sale.PaymentStatusDetail,
		Items:                items,
		CreatedAt:            sale.CreatedAt,
		UpdatedAt:            sale.UpdatedAt,
	}
}
