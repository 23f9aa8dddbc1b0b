package queries

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Read models for the booking surface. Monetary fields are fixed-point
// decimal strings; the read side never does arithmetic on them.

type BookingView struct {
	ID                uuid.UUID            `json:"id"`
	Reference         string               `json:"reference"`
	StudentID         uuid.UUID            `json:"student_id"`
	TeacherID         uuid.UUID            `json:"teacher_id"`
	ContextKind       string               `json:"context_kind"`
	ContextID         uuid.UUID            `json:"context_id"`
	SlotID            uuid.UUID            `json:"slot_id"`
	SessionsCount     int                  `json:"sessions_count"`
	SessionsCompleted int                  `json:"sessions_completed"`
	PricePerSession   string               `json:"price_per_session"`
	Subtotal          string               `json:"subtotal"`
	DiscountPct       string               `json:"discount_pct"`
	DiscountAmount    string               `json:"discount_amount"`
	Total             string               `json:"total"`
	Currency          string               `json:"currency"`
	FirstSessionAt    time.Time            `json:"first_session_at"`
	DurationMin       int                  `json:"duration_min"`
	Status            string               `json:"status"`
	CancelledAt       *time.Time           `json:"cancelled_at,omitempty"`
	RefundPct         *int64               `json:"refund_pct,omitempty"`
	RefundAmount      *string              `json:"refund_amount,omitempty"`
	Payments          []PaymentAttemptView `json:"payments,omitempty"`
	Sessions          []SessionView        `json:"sessions,omitempty"`
	CreatedAt         time.Time            `json:"created_at"`
	UpdatedAt         time.Time            `json:"updated_at"`
}

// LatestPayment returns the most recent attempt, or nil before any attempt.
func (v *BookingView) LatestPayment() *PaymentAttemptView {
	if len(v.Payments) == 0 {
		return nil
	}
	return &v.Payments[len(v.Payments)-1]
}

type PaymentAttemptView struct {
	ID         uuid.UUID `json:"id"`
	AttemptNo  int       `json:"attempt_no"`
	Amount     string    `json:"amount"`
	Currency   string    `json:"currency"`
	Method     string    `json:"method"`
	Status     string    `json:"status"`
	GatewayRef *string   `json:"gateway_ref,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

type SessionView struct {
	ID          uuid.UUID `json:"id"`
	Seq         int       `json:"seq"`
	ScheduledAt time.Time `json:"scheduled_at"`
	DurationMin int       `json:"duration_min"`
	Status      string    `json:"status"`
	JoinURL     *string   `json:"join_url,omitempty"`
}

type BookingListItem struct {
	ID             uuid.UUID `json:"id"`
	Reference      string    `json:"reference"`
	TeacherID      uuid.UUID `json:"teacher_id"`
	SessionsCount  int       `json:"sessions_count"`
	Total          string    `json:"total"`
	Currency       string    `json:"currency"`
	FirstSessionAt time.Time `json:"first_session_at"`
	Status         string    `json:"status"`
	CreatedAt      time.Time `json:"created_at"`
}

type BookingReadStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*BookingView, error)
	FindByStudent(ctx context.Context, studentID uuid.UUID, limit int) ([]*BookingListItem, error)
}

type BookingQueries interface {
	GetByID(ctx context.Context, id uuid.UUID) (*BookingView, error)
	ListByStudent(ctx context.Context, studentID uuid.UUID, limit int) ([]*BookingListItem, error)
}

type bookingQueriesImpl struct {
	store BookingReadStore
}

func NewBookingQueries(store BookingReadStore) BookingQueries {
	return &bookingQueriesImpl{store: store}
}

func (q *bookingQueriesImpl) GetByID(ctx context.Context, id uuid.UUID) (*BookingView, error) {
	return q.store.FindByID(ctx, id)
}

func (q *bookingQueriesImpl) ListByStudent(ctx context.Context, studentID uuid.UUID, limit int) ([]*BookingListItem, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return q.store.FindByStudent(ctx, studentID, limit)
}
