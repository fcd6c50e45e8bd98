package webhooks

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/vendfleet/vendfleet-backend/api/responses"
	salesvc "github.com/vendfleet/vendfleet-backend/internal/sales"
	pkgerrors "github.com/vendfleet/vendfleet-backend/pkg/errors"
	"github.com/vendfleet/vendfleet-backend/pkg/logger"
)

// Reconciler consumes one decoded gateway notification.
type Reconciler interface {
	Reconcile(ctx context.Context, event salesvc.WebhookEvent) (salesvc.ReconcileOutcome, error)
}

type mercadoPagoNotification struct {
	Type string `json:"type"`
	Data struct {
		ID string `json:"id"`
	} `json:"data"`
}

// MercadoPagoWebhook ingests payment notifications. The gateway redelivers
// on any non-2xx, so everything short of an infrastructure failure is
// acknowledged with 200, including payloads we cannot use.
func MercadoPagoWebhook(svc Reconciler, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "webhook service unavailable"))
			return
		}

		var payload mercadoPagoNotification
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			if logg != nil {
				logCtx := logg.WithField(ctx, "decode_error", err.Error())
				logg.Warn(logCtx, "unreadable webhook payload acknowledged")
			}
			responses.WriteSuccess(w, map[string]string{"outcome": string(salesvc.OutcomeIgnored)})
			return
		}

		event := salesvc.WebhookEvent{
			Type:      strings.TrimSpace(payload.Type),
			PaymentID: strings.TrimSpace(payload.Data.ID),
		}

		outcome, err := svc.Reconcile(ctx, event)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"outcome": string(outcome)})
	}
}
