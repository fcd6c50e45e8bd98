package mercadopago

import (
	"context"
	"errors"
	"strconv"
	"strings"

	mpconfig "github.com/mercadopago/sdk-go/pkg/config"
	"github.com/mercadopago/sdk-go/pkg/payment"
	"github.com/mercadopago/sdk-go/pkg/preference"
	"github.com/shopspring/decimal"

	"github.com/vendfleet/vendfleet-backend/pkg/config"
	pkgerrors "github.com/vendfleet/vendfleet-backend/pkg/errors"
	"github.com/vendfleet/vendfleet-backend/pkg/logger"
)

var (
	errAccessTokenRequired = errors.New("mercado pago access token is required")
	errLoggerRequired      = errors.New("mercado pago logger is required")
)

// Item is one purchasable line sent to the gateway when building a checkout
// preference.
type Item struct {
	Title       string
	Description string
	Quantity    int
	UnitPrice   decimal.Decimal
}

// Preference is the created checkout preference the kiosk redirects to.
type Preference struct {
	ID        string
	InitPoint string
}

// Payment is the authoritative payment snapshot fetched from the gateway.
type Payment struct {
	ID                string
	Status            string
	StatusDetail      string
	ExternalReference string
}

// Client wraps the Mercado Pago SDK with centralized auth, currency defaults,
// and error mapping.
type Client struct {
	preferences     preference.Client
	payments        payment.Client
	currency        string
	notificationURL string
	logger          *logger.Logger
}

// NewClient initializes the Mercado Pago wrapper and validates the credentials.
func NewClient(cfg config.MercadoPagoConfig, logg *logger.Logger) (*Client, error) {
	if logg == nil {
		return nil, errLoggerRequired
	}

	accessToken := strings.TrimSpace(cfg.AccessToken)
	if accessToken == "" {
		return nil, errAccessTokenRequired
	}

	sdkCfg, err := mpconfig.New(accessToken)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "initializing mercado pago sdk")
	}

	currency := strings.TrimSpace(cfg.Currency)
	if currency == "" {
		currency = "MXN"
	}

	return &Client{
		preferences:     preference.NewClient(sdkCfg),
		payments:        payment.NewClient(sdkCfg),
		currency:        currency,
		notificationURL: strings.TrimSpace(cfg.NotificationURL),
		logger:          logg,
	}, nil
}

// CreatePreference registers a checkout preference carrying the vending
// transaction id as the external reference.
func (c *Client) CreatePreference(ctx context.Context, externalReference string, items []Item) (*Preference, error) {
	if externalReference == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "external reference is required")
	}
	if len(items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one item is required")
	}

	req := preference.Request{
		ExternalReference: externalReference,
		NotificationURL:   c.notificationURL,
		Items:             make([]preference.ItemRequest, 0, len(items)),
	}
	for _, item := range items {
		req.Items = append(req.Items, preference.ItemRequest{
			Title:       item.Title,
			Description: item.Description,
			Quantity:    item.Quantity,
			CurrencyID:  c.currency,
			UnitPrice:   item.UnitPrice.InexactFloat64(),
		})
	}

	resp, err := c.preferences.Create(ctx, req)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "creating payment preference")
	}

	return &Preference{ID: resp.ID, InitPoint: resp.InitPoint}, nil
}

// GetPayment fetches the authoritative payment record by gateway id.
func (c *Client) GetPayment(ctx context.Context, paymentID string) (*Payment, error) {
	id, err := strconv.Atoi(strings.TrimSpace(paymentID))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment id")
	}

	resp, err := c.payments.Get(ctx, id)
	if err != nil {
		if isPaymentNotFound(err) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "payment not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "fetching payment")
	}

	return &Payment{
		ID:                strconv.Itoa(resp.ID),
		Status:            resp.Status,
		StatusDetail:      resp.StatusDetail,
		ExternalReference: resp.ExternalReference,
	}, nil
}

// The SDK keeps its response error type internal, so a missing payment
// (the 404 Mercado Pago returns for test notifications) is only
// recognizable from the response text.
func isPaymentNotFound(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "not_found") ||
		strings.Contains(msg, "not found") ||
		strings.Contains(msg, "404")
}
