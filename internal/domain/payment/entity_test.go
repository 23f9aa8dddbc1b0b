//go:build unit

package payment_test

import (
	"testing"

	"tutorbook/internal/domain/payment"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAttempt(t *testing.T) *payment.Payment {
	t.Helper()
	p, err := payment.NewPayment(uuid.New(), 1, decimal.NewFromInt(850), "USD", payment.MethodCard)
	require.NoError(t, err)
	return p
}

func TestNewPayment(t *testing.T) {
	p := newAttempt(t)
	assert.Equal(t, payment.StatusPending, p.Status())
	assert.Equal(t, 1, p.AttemptNo())

	_, err := payment.NewPayment(uuid.New(), 1, decimal.Zero, "USD", payment.MethodCard)
	assert.ErrorIs(t, err, payment.ErrInvalidAmount)
}

func TestMarkPaidAtMostOnce(t *testing.T) {
	p := newAttempt(t)

	require.NoError(t, p.MarkPaid())
	assert.True(t, p.IsPaid())

	assert.ErrorIs(t, p.MarkPaid(), payment.ErrAlreadyPaid)
	assert.ErrorIs(t, p.MarkFailed(), payment.ErrAlreadyPaid)
}

func TestMarkFailed(t *testing.T) {
	p := newAttempt(t)

	require.NoError(t, p.MarkFailed())
	assert.Equal(t, payment.StatusFailed, p.Status())

	assert.ErrorIs(t, p.MarkPaid(), payment.ErrAlreadySettled)
}

func TestAttachGatewayResult(t *testing.T) {
	p := newAttempt(t)

	require.NoError(t, p.AttachGatewayResult("txn_123", "G1-000", []byte(`{"code":"G1-000"}`)))
	require.NotNil(t, p.GatewayRef())
	assert.Equal(t, "txn_123", *p.GatewayRef())

	assert.ErrorIs(t, p.AttachGatewayResult("", "x", nil), payment.ErrMissingReference)
}
