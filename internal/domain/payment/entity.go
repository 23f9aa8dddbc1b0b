package payment

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrAlreadyPaid      = errors.New("payment is already paid")
	ErrAlreadySettled   = errors.New("payment is already settled")
	ErrInvalidAmount    = errors.New("payment amount must be positive")
	ErrMissingReference = errors.New("gateway reference is required")
)

type Status string

const (
	StatusPending Status = "pending"
	StatusPaid    Status = "paid"
	StatusFailed  Status = "failed"
)

func (s Status) IsValid() bool {
	return s == StatusPending || s == StatusPaid || s == StatusFailed
}

type Method string

const (
	MethodCard Method = "card"
	Method3DS  Method = "3ds"
)

// Payment is one charge attempt against a booking. A booking accumulates an
// ordered list of attempts across retries; attemptNo gives the "latest"
// pointer an unambiguous meaning.
type Payment struct {
	id              uuid.UUID
	bookingID       uuid.UUID
	attemptNo       int
	amount          decimal.Decimal
	currency        string
	method          Method
	status          Status
	gatewayRef      *string
	gatewayCode     *string
	gatewayResponse []byte // append-only audit blob, opaque to the domain
	createdAt       time.Time
	updatedAt       time.Time
}

func NewPayment(bookingID uuid.UUID, attemptNo int, amount decimal.Decimal, currency string, method Method) (*Payment, error) {
	if !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}
	return &Payment{
		id:        uuid.New(),
		bookingID: bookingID,
		attemptNo: attemptNo,
		amount:    amount,
		currency:  currency,
		method:    method,
		status:    StatusPending,
	}, nil
}

func ReconstructPayment(
	id, bookingID uuid.UUID,
	attemptNo int,
	amount decimal.Decimal,
	currency string,
	method Method,
	status Status,
	gatewayRef, gatewayCode *string,
	gatewayResponse []byte,
	createdAt, updatedAt time.Time,
) *Payment {
	return &Payment{
		id:              id,
		bookingID:       bookingID,
		attemptNo:       attemptNo,
		amount:          amount,
		currency:        currency,
		method:          method,
		status:          status,
		gatewayRef:      gatewayRef,
		gatewayCode:     gatewayCode,
		gatewayResponse: gatewayResponse,
		createdAt:       createdAt,
		updatedAt:       updatedAt,
	}
}

// AttachGatewayResult records the charge reference and raw response returned
// by the gateway for this attempt.
func (p *Payment) AttachGatewayResult(ref, code string, rawResponse []byte) error {
	if ref == "" {
		return ErrMissingReference
	}
	p.gatewayRef = &ref
	p.gatewayCode = &code
	p.gatewayResponse = rawResponse
	return nil
}

// MarkPaid settles the attempt. A payment transitions to paid at most once;
// callers treat ErrAlreadyPaid as idempotent success.
func (p *Payment) MarkPaid() error {
	switch p.status {
	case StatusPaid:
		return ErrAlreadyPaid
	case StatusFailed:
		return ErrAlreadySettled
	}
	p.status = StatusPaid
	return nil
}

// MarkFailed records a business decline. The booking stays retryable with a
// fresh attempt.
func (p *Payment) MarkFailed() error {
	switch p.status {
	case StatusPaid:
		return ErrAlreadyPaid
	case StatusFailed:
		return ErrAlreadySettled
	}
	p.status = StatusFailed
	return nil
}

func (p *Payment) IsPaid() bool { return p.status == StatusPaid }

func (p *Payment) ID() uuid.UUID           { return p.id }
func (p *Payment) BookingID() uuid.UUID    { return p.bookingID }
func (p *Payment) AttemptNo() int          { return p.attemptNo }
func (p *Payment) Amount() decimal.Decimal { return p.amount }
func (p *Payment) Currency() string        { return p.currency }
func (p *Payment) Method() Method          { return p.method }
func (p *Payment) Status() Status          { return p.status }
func (p *Payment) GatewayRef() *string     { return p.gatewayRef }
func (p *Payment) GatewayCode() *string    { return p.gatewayCode }
func (p *Payment) GatewayResponse() []byte { return p.gatewayResponse }
func (p *Payment) CreatedAt() time.Time    { return p.createdAt }
func (p *Payment) UpdatedAt() time.Time    { return p.updatedAt }
