package sales

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/vendfleet/vendfleet-backend/pkg/db"
	"github.com/vendfleet/vendfleet-backend/pkg/db/models"
	"github.com/vendfleet/vendfleet-backend/pkg/enums"
	pkgerrors "github.com/vendfleet/vendfleet-backend/pkg/errors"
	"github.com/vendfleet/vendfleet-backend/pkg/logger"
	"github.com/vendfleet/vendfleet-backend/pkg/mercadopago"
	"github.com/vendfleet/vendfleet-backend/pkg/pagination"
)

const webhookEventTypePayment = "payment"

// Gateway is the payment provider surface the engine depends on.
type Gateway interface {
	CreatePreference(ctx context.Context, externalReference string, items []mercadopago.Item) (*mercadopago.Preference, error)
	GetPayment(ctx context.Context, paymentID string) (*mercadopago.Payment, error)
}

type saleRepo interface {
	Create(ctx context.Context, sale *models.Sale) error
	FindByVendingTransactionID(ctx context.Context, vendingTxnID string) (*models.Sale, error)
	ApplyPaymentSnapshot(ctx context.Context, vendingTxnID string, status enums.SaleStatus, paymentID, statusDetail string) (int64, error)
	List(ctx context.Context, machineID string, limit int, cursor *pagination.Cursor) ([]models.Sale, error)
}

type auditWriter interface {
	Create(ctx context.Context, notification *models.Notification) error
}

// ServiceParams configure the sales service.
type ServiceParams struct {
	Logger  *logger.Logger
	Repo    saleRepo
	Gateway Gateway
	Audit   auditWriter
}

// Service owns payment initiation and webhook reconciliation. The gateway
// holds payment-status truth; local rows only mirror its latest snapshot.
type Service struct {
	logg    *logger.Logger
	repo    saleRepo
	gateway Gateway
	audit   auditWriter
}

// NewService builds the sales service. Audit may be nil.
func NewService(params ServiceParams) (*Service, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Repo == nil {
		return nil, fmt.Errorf("sale repository required")
	}
	if params.Gateway == nil {
		return nil, fmt.Errorf("payment gateway required")
	}
	return &Service{
		logg:    params.Logger,
		repo:    params.Repo,
		gateway: params.Gateway,
		audit:   params.Audit,
	}, nil
}

// InitiatePayment registers a checkout preference with the gateway and then
// persists a pending sale with line-item snapshots. Gateway failure leaves
// nothing behind; a duplicate transaction id is a conflict.
func (s *Service) InitiatePayment(ctx context.Context, input InitiateInput) (*InitiateResult, error) {
	if err := validateInitiateInput(input); err != nil {
		return nil, err
	}
	ctx = s.logg.WithTransactionID(ctx, input.VendingTransactionID)
	ctx = s.logg.WithMachineID(ctx, input.MachineID)

	items := make([]mercadopago.Item, 0, len(input.Items))
	lineItems := make([]models.SaleLineItem, 0, len(input.Items))
	for i, item := range input.Items {
		description := strings.TrimSpace(item.Description)
		if description == "" {
			description = fmt.Sprintf("Producto de %s", input.MachineID)
		}
		items = append(items, mercadopago.Item{
			Title:       item.Name,
			Description: description,
			Quantity:    item.Quantity,
			UnitPrice:   item.Price,
		})
		lineItems = append(lineItems, models.SaleLineItem{
			Position:   i,
			ProductRef: item.ProductRef,
			Name:       item.Name,
			Quantity:   item.Quantity,
			UnitPrice:  item.Price,
		})
	}

	preference, err := s.gateway.CreatePreference(ctx, input.VendingTransactionID, items)
	if err != nil {
		return nil, err
	}

	sale := models.Sale{
		VendingTransactionID: input.VendingTransactionID,
		MachineID:            input.MachineID,
		Status:               enums.SaleStatusPending,
		PreferenceID:         preference.ID,
		LineItems:            lineItems,
	}
	if err := s.repo.Create(ctx, &sale); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "vending transaction already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persisting sale")
	}

	s.logg.Info(ctx, "payment preference created")
	return &InitiateResult{
		VendingTransactionID: sale.VendingTransactionID,
		PreferenceID:         preference.ID,
		RedirectURL:          preference.InitPoint,
	}, nil
}

// Reconcile processes one gateway webhook delivery. The event payload is
// never trusted: the payment is refetched and its snapshot applied
// last-write-wins. Malformed or unmatchable events return OutcomeIgnored
// with a nil error so the controller acknowledges and the gateway stops
// retrying; only infrastructure failures return an error.
func (s *Service) Reconcile(ctx context.Context, event WebhookEvent) (ReconcileOutcome, error) {
	if !strings.EqualFold(event.Type, webhookEventTypePayment) || strings.TrimSpace(event.PaymentID) == "" {
		s.logg.Info(ctx, "ignoring non-payment webhook event")
		return OutcomeIgnored, nil
	}

	payment, err := s.gateway.GetPayment(ctx, event.PaymentID)
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil &&
			(typed.Code() == pkgerrors.CodeValidation || typed.Code() == pkgerrors.CodeNotFound) {
			// Unparseable or unknown payment id; retrying will never help.
			s.logg.Warn(ctx, "webhook payment cannot be resolved; acknowledged")
			return OutcomeIgnored, nil
		}
		return OutcomeIgnored, err
	}

	ctx = s.logg.WithTransactionID(ctx, payment.ExternalReference)
	if payment.ExternalReference == "" {
		s.logg.Warn(ctx, "payment carries no external reference; nothing to reconcile")
		return OutcomeIgnored, nil
	}

	status, ok := saleStatusFromGateway(payment.Status)
	if !ok {
		logCtx := s.logg.WithField(ctx, "gateway_status", payment.Status)
		s.logg.Warn(logCtx, "unmapped gateway payment status; acknowledged without write")
		return OutcomeIgnored, nil
	}

	// Redelivered approvals must not stack audit rows, so capture the
	// prior status before the snapshot lands.
	alreadyApproved := false
	if status == enums.SaleStatusApproved {
		if existing, findErr := s.repo.FindByVendingTransactionID(ctx, payment.ExternalReference); findErr == nil {
			alreadyApproved = existing.Status == enums.SaleStatusApproved
		}
	}

	rows, err := s.repo.ApplyPaymentSnapshot(ctx, payment.ExternalReference, status, payment.ID, payment.StatusDetail)
	if err != nil {
		return OutcomeIgnored, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "applying payment snapshot")
	}
	if rows == 0 {
		s.logg.Warn(ctx, "no sale matches the payment's external reference")
		return OutcomeIgnored, nil
	}

	logCtx := s.logg.WithField(ctx, "sale_status", status)
	s.logg.Info(logCtx, "payment reconciled")

	if status == enums.SaleStatusApproved && !alreadyApproved {
		s.recordApprovedAudit(ctx, payment.ExternalReference)
	}
	return OutcomeApplied, nil
}

// GetStatus returns the kiosk-visible state of one transaction.
func (s *Service) GetStatus(ctx context.Context, vendingTxnID string) (*SaleDTO, error) {
	sale, err := s.repo.FindByVendingTransactionID(ctx, vendingTxnID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "sale not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "fetching sale")
	}
	dto := toDTO(*sale)
	return &dto, nil
}

// List returns a cursor page of sales, newest first, optionally scoped to
// one machine.
func (s *Service) List(ctx context.Context, machineID string, params pagination.Params) (*ListResult, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}

	limit := pagination.NormalizeLimit(params.Limit)
	rows, err := s.repo.List(ctx, machineID, pagination.LimitWithBuffer(params.Limit), cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "listing sales")
	}

	result := &ListResult{Sales: make([]SaleDTO, 0, len(rows))}
	hasMore := len(rows) > limit
	if hasMore {
		rows = rows[:limit]
	}
	for _, row := range rows {
		result.Sales = append(result.Sales, toDTO(row))
	}
	if hasMore {
		last := rows[len(rows)-1]
		result.NextCursor = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	return result, nil
}

func (s *Service) recordApprovedAudit(ctx context.Context, vendingTxnID string) {
	if s.audit == nil {
		return
	}
	notification := models.Notification{
		Type:    enums.NotificationTypeSaleSuccess,
		Message: fmt.Sprintf("Payment approved for transaction %s", vendingTxnID),
	}
	if err := s.audit.Create(ctx, &notification); err != nil {
		s.logg.Error(ctx, "recording sale notification failed", err)
	}
}

func validateInitiateInput(input InitiateInput) error {
	if strings.TrimSpace(input.MachineID) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "machine id is required")
	}
	if strings.TrimSpace(input.VendingTransactionID) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "vending transaction id is required")
	}
	if len(input.Items) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "at least one item is required")
	}
	for i, item := range input.Items {
		if strings.TrimSpace(item.Name) == "" {
			return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("item %d: name is required", i))
		}
		if item.Quantity <= 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("item %d: quantity must be positive", i))
		}
		if item.Price.IsNegative() {
			return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("item %d: price cannot be negative", i))
		}
	}
	return nil
}
