package webhooks

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	salesvc "github.com/vendfleet/vendfleet-backend/internal/sales"
	pkgerrors "github.com/vendfleet/vendfleet-backend/pkg/errors"
	"github.com/vendfleet/vendfleet-backend/pkg/logger"
	"github.com/vendfleet/vendfleet-backend/pkg/types"
)

type testReconciler struct {
	reconcileFn func(ctx context.Context, event salesvc.WebhookEvent) (salesvc.ReconcileOutcome, error)
}

func (s *testReconciler) Reconcile(ctx context.Context, event salesvc.WebhookEvent) (salesvc.ReconcileOutcome, error) {
	if s.reconcileFn != nil {
		return s.reconcileFn(ctx, event)
	}
	return salesvc.OutcomeIgnored, nil
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}

func TestMercadoPagoWebhookAppliesPaymentEvent(t *testing.T) {
	var got salesvc.WebhookEvent
	svc := &testReconciler{
		reconcileFn: func(_ context.Context, event salesvc.WebhookEvent) (salesvc.ReconcileOutcome, error) {
			got = event
			return salesvc.OutcomeApplied, nil
		},
	}

	body := `{"type":"payment","data":{"id":"987654"}}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/mercadopago", strings.NewReader(body))
	resp := httptest.NewRecorder()

	MercadoPagoWebhook(svc, testLogger())(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.Code)
	}
	if got.Type != "payment" || got.PaymentID != "987654" {
		t.Fatalf("decoded event = %+v", got)
	}

	var envelope types.SuccessEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.(map[string]any)["outcome"] != "applied" {
		t.Fatalf("unexpected payload %v", envelope.Data)
	}
}

func TestMercadoPagoWebhookAcknowledgesMalformedPayload(t *testing.T) {
	svc := &testReconciler{
		reconcileFn: func(_ context.Context, _ salesvc.WebhookEvent) (salesvc.ReconcileOutcome, error) {
			t.Fatal("reconcile must not run for unreadable payloads")
			return salesvc.OutcomeIgnored, nil
		},
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/mercadopago", strings.NewReader("{not json"))
	resp := httptest.NewRecorder()

	MercadoPagoWebhook(svc, testLogger())(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 so the gateway stops retrying", resp.Code)
	}
}

func TestMercadoPagoWebhookReturns503OnInfrastructureFailure(t *testing.T) {
	svc := &testReconciler{
		reconcileFn: func(_ context.Context, _ salesvc.WebhookEvent) (salesvc.ReconcileOutcome, error) {
			return salesvc.OutcomeIgnored, pkgerrors.New(pkgerrors.CodeDependency, "payment store unavailable")
		},
	}

	body := `{"type":"payment","data":{"id":"1"}}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/mercadopago", strings.NewReader(body))
	resp := httptest.NewRecorder()

	MercadoPagoWebhook(svc, testLogger())(resp, req)

	if resp.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503 so the gateway redelivers", resp.Code)
	}
}

func TestMercadoPagoWebhookIgnoresNonPaymentEvents(t *testing.T) {
	svc := &testReconciler{
		reconcileFn: func(_ context.Context, event salesvc.WebhookEvent) (salesvc.ReconcileOutcome, error) {
			if event.Type != "merchant_order" {
				t.Fatalf("event type = %q", event.Type)
			}
			return salesvc.OutcomeIgnored, nil
		},
	}

	body := `{"type":"merchant_order","data":{"id":"555"}}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/mercadopago", strings.NewReader(body))
	resp := httptest.NewRecorder()

	MercadoPagoWebhook(svc, testLogger())(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.Code)
	}

	var envelope types.SuccessEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.(map[string]any)["outcome"] != "ignored" {
		t.Fatalf("unexpected payload %v", envelope.Data)
	}
}
