package mercadopago

import (
	"errors"
	"testing"
)

func TestIsPaymentNotFound(t *testing.T) {
	notFound := []error{
		errors.New("Payment not found"),
		errors.New(`{"message":"Payment not found","error":"not_found","status":404}`),
		errors.New("status code 404"),
	}
	for _, err := range notFound {
		if !isPaymentNotFound(err) {
			t.Fatalf("expected %q to read as a missing payment", err)
		}
	}

	other := []error{
		errors.New("internal server error"),
		errors.New("context deadline exceeded"),
		errors.New("status code 503"),
	}
	for _, err := range other {
		if isPaymentNotFound(err) {
			t.Fatalf("%q must not be treated as a missing payment", err)
		}
	}
}
