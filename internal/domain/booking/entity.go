package booking

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrInvalidContext       = errors.New("booking context must reference a course or a service")
	ErrNegativePrice        = errors.New("price cannot be negative")
	ErrInvalidQuoteInput    = errors.New("duration and session count must be positive")
	ErrInvalidTransition    = errors.New("invalid booking status transition")
	ErrCancelWindowClosed   = errors.New("cancellation window has closed")
	ErrAlreadyCompleted     = errors.New("all sessions already completed")
	ErrNotConfirmed         = errors.New("booking is not confirmed")
	ErrFirstSessionInPast   = errors.New("first session must be in the future")
	ErrInvalidSessionsCount = errors.New("sessions count must be positive")
)

// Booking is the aggregate root of a slot reservation. It is created in
// pending_payment once its slot is claimed and is never physically deleted;
// cancellation is a terminal status transition.
type Booking struct {
	id                uuid.UUID
	reference         string
	studentID         uuid.UUID
	teacherID         uuid.UUID
	context           Context
	slotID            uuid.UUID
	sessionsCount     int
	sessionsCompleted int
	price             PriceBreakdown
	currency          string
	firstSessionAt    time.Time
	durationMin       int
	status            Status
	cancelledAt       *time.Time
	refundPct         *int64
	refundAmount      *decimal.Decimal
	createdAt         time.Time
	updatedAt         time.Time
}

func NewBooking(
	reference string,
	studentID, teacherID uuid.UUID,
	bctx Context,
	slotID uuid.UUID,
	price PriceBreakdown,
	currency string,
	firstSessionAt time.Time,
	durationMin int,
	now time.Time,
) (*Booking, error) {
	if price.SessionsCount <= 0 {
		return nil, ErrInvalidSessionsCount
	}
	if !firstSessionAt.After(now) {
		return nil, ErrFirstSessionInPast
	}

	return &Booking{
		id:             uuid.New(),
		reference:      reference,
		studentID:      studentID,
		teacherID:      teacherID,
		context:        bctx,
		slotID:         slotID,
		sessionsCount:  price.SessionsCount,
		price:          price,
		currency:       currency,
		firstSessionAt: firstSessionAt,
		durationMin:    durationMin,
		status:         StatusPendingPayment,
	}, nil
}

func ReconstructBooking(
	id uuid.UUID,
	reference string,
	studentID, teacherID uuid.UUID,
	bctx Context,
	slotID uuid.UUID,
	sessionsCompleted int,
	price PriceBreakdown,
	currency string,
	firstSessionAt time.Time,
	durationMin int,
	status Status,
	cancelledAt *time.Time,
	refundPct *int64,
	refundAmount *decimal.Decimal,
	createdAt, updatedAt time.Time,
) *Booking {
	return &Booking{
		id:                id,
		reference:         reference,
		studentID:         studentID,
		teacherID:         teacherID,
		context:           bctx,
		slotID:            slotID,
		sessionsCount:     price.SessionsCount,
		sessionsCompleted: sessionsCompleted,
		price:             price,
		currency:          currency,
		firstSessionAt:    firstSessionAt,
		durationMin:       durationMin,
		status:            status,
		cancelledAt:       cancelledAt,
		refundPct:         refundPct,
		refundAmount:      refundAmount,
		createdAt:         createdAt,
		updatedAt:         updatedAt,
	}
}

// Confirm moves the booking out of pending_payment after a successful charge.
func (b *Booking) Confirm() error {
	if !b.status.CanTransitionTo(StatusConfirmed) {
		return ErrInvalidTransition
	}
	b.status = StatusConfirmed
	return nil
}

// Cancel transitions to the terminal cancelled state and records the refund.
// It is rejected when the status does not permit it or when less than
// CancelLeadTime remains before the first session.
func (b *Booking) Cancel(now time.Time) error {
	if !b.status.CanTransitionTo(StatusCancelled) {
		return ErrInvalidTransition
	}

	until := b.firstSessionAt.Sub(now)
	if until < CancelLeadTime {
		return ErrCancelWindowClosed
	}

	pct := RefundPercentage(until)
	amount := RefundAmount(b.price.Total, pct)

	b.status = StatusCancelled
	b.cancelledAt = &now
	b.refundPct = &pct
	b.refundAmount = &amount
	return nil
}

// CompleteSession records one delivered session. The first completion moves a
// confirmed booking into in_progress; completing the last one finishes it.
func (b *Booking) CompleteSession() error {
	switch b.status {
	case StatusConfirmed:
		b.status = StatusInProgress
	case StatusInProgress:
	default:
		return ErrNotConfirmed
	}

	if b.sessionsCompleted >= b.sessionsCount {
		return ErrAlreadyCompleted
	}
	b.sessionsCompleted++

	if b.sessionsCompleted == b.sessionsCount {
		b.status = StatusCompleted
	}
	return nil
}

// IsPackage reports whether this booking covers more than one session.
func (b *Booking) IsPackage() bool {
	return b.sessionsCount > 1
}

func (b *Booking) ID() uuid.UUID                  { return b.id }
func (b *Booking) Reference() string              { return b.reference }
func (b *Booking) StudentID() uuid.UUID           { return b.studentID }
func (b *Booking) TeacherID() uuid.UUID           { return b.teacherID }
func (b *Booking) Context() Context               { return b.context }
func (b *Booking) SlotID() uuid.UUID              { return b.slotID }
func (b *Booking) SessionsCount() int             { return b.sessionsCount }
func (b *Booking) SessionsCompleted() int         { return b.sessionsCompleted }
func (b *Booking) Price() PriceBreakdown          { return b.price }
func (b *Booking) Currency() string               { return b.currency }
func (b *Booking) FirstSessionAt() time.Time      { return b.firstSessionAt }
func (b *Booking) DurationMin() int               { return b.durationMin }
func (b *Booking) Status() Status                 { return b.status }
func (b *Booking) CancelledAt() *time.Time        { return b.cancelledAt }
func (b *Booking) RefundPct() *int64              { return b.refundPct }
func (b *Booking) RefundAmount() *decimal.Decimal { return b.refundAmount }
func (b *Booking) CreatedAt() time.Time           { return b.createdAt }
func (b *Booking) UpdatedAt() time.Time           { return b.updatedAt }
