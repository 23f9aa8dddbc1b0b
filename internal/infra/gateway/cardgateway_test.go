//go:build unit

package gateway_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"tutorbook/internal/infra/gateway"
	"tutorbook/internal/pkg/config"
	"tutorbook/internal/usecase/commands"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newGateway(t *testing.T, handler http.Handler) *gateway.CardGateway {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return gateway.NewCardGateway(config.GatewayConfig{
		BaseURL:       srv.URL,
		ProfileID:     "test-profile",
		ServerKey:     "test-key",
		SuccessPrefix: "G1",
		Timeout:       2 * time.Second,
		CallbackURL:   "http://localhost/api/payments/callback",
	})
}

func respond(w http.ResponseWriter, tranRef, code, redirect string) {
	body := map[string]any{
		"tran_ref":     tranRef,
		"redirect_url": redirect,
		"payment_result": map[string]string{
			"response_status": "A",
			"response_code":   code,
			"response_message": "test",
		},
	}
	_ = json.NewEncoder(w).Encode(body)
}

func TestChargeApproved(t *testing.T) {
	var gotAuth string
	g := newGateway(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")

		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "test-profile", req["profile_id"])
		assert.Equal(t, "12.50", req["cart_amount"])

		respond(w, "TST-001", "G104", "")
	}))

	outcome, err := g.Charge(context.Background(), commands.ChargePayload{
		BookingReference: "TB-20260114-ABC123",
		Amount:           "12.50",
		Currency:         "USD",
		CardToken:        "tok-1",
	})
	require.NoError(t, err)

	assert.Equal(t, "test-key", gotAuth)
	assert.True(t, outcome.Success)
	assert.False(t, outcome.RequiresRedirect)
	assert.Equal(t, "TST-001", outcome.Reference)
	assert.Equal(t, "G104", outcome.Code)
}

func TestChargeDeclinedIsNotAnError(t *testing.T) {
	g := newGateway(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		respond(w, "TST-002", "E205", "")
	}))

	outcome, err := g.Charge(context.Background(), commands.ChargePayload{
		BookingReference: "TB-20260114-ABC123",
		Amount:           "10.00",
		Currency:         "USD",
	})
	require.NoError(t, err)
	assert.False(t, outcome.Success)
	assert.Equal(t, "E205", outcome.Code)
}

func TestCheckout3DSReturnsRedirect(t *testing.T) {
	g := newGateway(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		respond(w, "TST-003", "", "https://secure.example/3ds/abc")
	}))

	outcome, err := g.Checkout3DS(context.Background(), commands.ChargePayload{
		BookingReference: "TB-20260114-ABC123",
		Amount:           "10.00",
		Currency:         "USD",
	})
	require.NoError(t, err)
	assert.True(t, outcome.RequiresRedirect)
	assert.Equal(t, "https://secure.example/3ds/abc", outcome.RedirectURL)
	assert.Equal(t, "TST-003", outcome.Reference)
}

func TestChargeServerErrorSurfacesAsError(t *testing.T) {
	g := newGateway(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))

	_, err := g.Charge(context.Background(), commands.ChargePayload{
		BookingReference: "TB-20260114-ABC123",
		Amount:           "10.00",
		Currency:         "USD",
	})
	assert.Error(t, err)
}

func TestPollStatusRetriesTransientFailures(t *testing.T) {
	var calls atomic.Int32
	g := newGateway(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		respond(w, "TST-004", "G100", "")
	}))

	outcome, err := g.PollStatus(context.Background(), "TST-004")
	require.NoError(t, err)
	assert.True(t, outcome.Success)
	assert.GreaterOrEqual(t, calls.Load(), int32(3))
}

func TestInterpret(t *testing.T) {
	g := gateway.NewCardGateway(config.GatewayConfig{SuccessPrefix: "G1"})

	ok := g.Interpret("TST-005", "G150", "approved", []byte(`{}`))
	assert.True(t, ok.Success)
	assert.Equal(t, "TST-005", ok.Reference)

	declined := g.Interpret("TST-006", "E999", "declined", nil)
	assert.False(t, declined.Success)
}
