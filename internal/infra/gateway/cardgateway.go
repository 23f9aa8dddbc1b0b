package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"tutorbook/internal/pkg/config"
	"tutorbook/internal/pkg/errs"
	"tutorbook/internal/usecase/commands"

	"github.com/cenkalti/backoff/v4"
)

// CardGateway talks to the external card-charge provider over HTTP. The
// provider returns a result code on every response; codes carrying the
// configured success prefix mean the operation was approved. Everything else
// is a decline, not an error.
type CardGateway struct {
	cfg    config.GatewayConfig
	client *http.Client
}

func NewCardGateway(cfg config.GatewayConfig) *CardGateway {
	return &CardGateway{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

type paymentRequest struct {
	ProfileID    string `json:"profile_id"`
	TranType     string `json:"tran_type"`
	TranClass    string `json:"tran_class"`
	CartID       string `json:"cart_id"`
	CartAmount   string `json:"cart_amount"`
	CartCurrency string `json:"cart_currency"`
	CardToken    string `json:"card_token,omitempty"`
	ReturnURL    string `json:"return,omitempty"`
	CallbackURL  string `json:"callback"`
}

type paymentResponse struct {
	TranRef     string `json:"tran_ref"`
	RedirectURL string `json:"redirect_url"`
	Result      struct {
		Status  string `json:"response_status"`
		Code    string `json:"response_code"`
		Message string `json:"response_message"`
	} `json:"payment_result"`
}

// Charge executes a direct token charge. The provider answers synchronously
// for direct charges, so the outcome is final unless RequiresRedirect is set.
func (g *CardGateway) Charge(ctx context.Context, payload commands.ChargePayload) (commands.GatewayOutcome, error) {
	return g.post(ctx, "/payment/request", paymentRequest{
		ProfileID:    g.cfg.ProfileID,
		TranType:     "sale",
		TranClass:    "ecom",
		CartID:       payload.BookingReference,
		CartAmount:   payload.Amount,
		CartCurrency: payload.Currency,
		CardToken:    payload.CardToken,
		CallbackURL:  g.cfg.CallbackURL,
	})
}

// Checkout3DS opens a hosted 3-D Secure page. The response carries a redirect
// URL for the client; the final outcome arrives later on the callback.
func (g *CardGateway) Checkout3DS(ctx context.Context, payload commands.ChargePayload) (commands.GatewayOutcome, error) {
	return g.post(ctx, "/payment/request", paymentRequest{
		ProfileID:    g.cfg.ProfileID,
		TranType:     "sale",
		TranClass:    "ecom",
		CartID:       payload.BookingReference,
		CartAmount:   payload.Amount,
		CartCurrency: payload.Currency,
		ReturnURL:    payload.ReturnURL,
		CallbackURL:  g.cfg.CallbackURL,
	})
}

// PollStatus queries the provider for the current state of a transaction.
// The query has no side effects on the provider side, so transient transport
// failures are retried with exponential backoff before giving up.
func (g *CardGateway) PollStatus(ctx context.Context, reference string) (commands.GatewayOutcome, error) {
	var outcome commands.GatewayOutcome

	operation := func() error {
		var err error
		outcome, err = g.post(ctx, "/payment/query", map[string]string{
			"profile_id": g.cfg.ProfileID,
			"tran_ref":   reference,
		})
		return err
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 4), ctx)
	if err := backoff.Retry(operation, policy); err != nil {
		return commands.GatewayOutcome{}, err
	}
	return outcome, nil
}

// Interpret maps a callback result code onto an outcome without a network
// round trip. Used when the provider pushes the result to us.
func (g *CardGateway) Interpret(reference, code, description string, raw []byte) commands.GatewayOutcome {
	return commands.GatewayOutcome{
		Success:     strings.HasPrefix(code, g.cfg.SuccessPrefix),
		Reference:   reference,
		Code:        code,
		Description: description,
		Raw:         raw,
	}
}

func (g *CardGateway) post(ctx context.Context, path string, body any) (commands.GatewayOutcome, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return commands.GatewayOutcome{}, errs.Wrap(err, "failed to encode gateway request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.cfg.BaseURL+path, bytes.NewReader(data))
	if err != nil {
		return commands.GatewayOutcome{}, errs.Wrap(err, "failed to build gateway request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", g.cfg.ServerKey)

	resp, err := g.client.Do(req)
	if err != nil {
		return commands.GatewayOutcome{}, errs.Wrap(err, "gateway request failed")
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return commands.GatewayOutcome{}, errs.Wrap(err, "failed to read gateway response")
	}
	if resp.StatusCode >= http.StatusInternalServerError {
		return commands.GatewayOutcome{}, errs.Newf("gateway returned status %d", resp.StatusCode)
	}

	var pr paymentResponse
	if err := json.Unmarshal(raw, &pr); err != nil {
		return commands.GatewayOutcome{}, errs.Wrap(err, "failed to decode gateway response")
	}

	return commands.GatewayOutcome{
		Success:          strings.HasPrefix(pr.Result.Code, g.cfg.SuccessPrefix),
		RequiresRedirect: pr.RedirectURL != "",
		RedirectURL:      pr.RedirectURL,
		Reference:        pr.TranRef,
		Code:             pr.Result.Code,
		Description:      pr.Result.Message,
		Raw:              raw,
	}, nil
}

var _ commands.PaymentGateway = (*CardGateway)(nil)
