package commands

import (
	"context"
	"time"

	"tutorbook/internal/domain/booking"
	"tutorbook/internal/domain/payment"
	"tutorbook/internal/domain/session"
	"tutorbook/internal/domain/slot"
	"tutorbook/internal/infra/db"
	"tutorbook/internal/infra/repository"

	"github.com/google/uuid"
)

// Write-side ports. Implementations live in internal/infra; every method that
// mutates takes the caller's transaction so one lifecycle operation stays one
// atomic unit.

type SlotRepository interface {
	LockForReserve(ctx context.Context, tx db.DBTX, slotID, teacherID uuid.UUID) (*slot.Slot, error)
	Bind(ctx context.Context, tx db.DBTX, slotID, bookingID uuid.UUID) error
	Release(ctx context.Context, tx db.DBTX, slotID uuid.UUID) error
}

type BookingRepository interface {
	Create(ctx context.Context, tx db.DBTX, b *booking.Booking) error
	FindByIDForUpdate(ctx context.Context, tx db.DBTX, id uuid.UUID) (*booking.Booking, error)
	Save(ctx context.Context, tx db.DBTX, b *booking.Booking) error
}

type PaymentRepository interface {
	Create(ctx context.Context, tx db.DBTX, p *payment.Payment) error
	NextAttemptNo(ctx context.Context, tx db.DBTX, bookingID uuid.UUID) (int, error)
	FindByID(ctx context.Context, dbtx db.DBTX, id uuid.UUID) (*payment.Payment, error)
	FindByGatewayRefForUpdate(ctx context.Context, tx db.DBTX, gatewayRef string) (*payment.Payment, error)
	FindByBookingID(ctx context.Context, dbtx db.DBTX, bookingID uuid.UUID) ([]*payment.Payment, error)
	Save(ctx context.Context, tx db.DBTX, p *payment.Payment) error
}

type SessionRepository interface {
	CountByBooking(ctx context.Context, tx db.DBTX, bookingID uuid.UUID) (int, error)
	CreateBatch(ctx context.Context, tx db.DBTX, sessions []*session.Session) error
	FindOldestScheduledForUpdate(ctx context.Context, tx db.DBTX, bookingID uuid.UUID) (*session.Session, error)
	Save(ctx context.Context, tx db.DBTX, s *session.Session) error
	CancelScheduledByBooking(ctx context.Context, tx db.DBTX, bookingID uuid.UUID) error
}

type CatalogRepository interface {
	FindOffer(ctx context.Context, dbtx db.DBTX, kind booking.ContextKind, id uuid.UUID) (*repository.OfferSnapshot, error)
}

type IdempotencyRepository interface {
	TryInsert(ctx context.Context, dbtx db.DBTX, key, actorID uuid.UUID, endpoint, requestHash string, expiresAt time.Time) error
	Get(ctx context.Context, dbtx db.DBTX, key, actorID uuid.UUID) (*repository.IdempotencyRecord, error)
	MarkCompleted(ctx context.Context, tx db.DBTX, key, actorID, resultBookingID uuid.UUID) error
}

type NotificationOutbox interface {
	CreateJob(ctx context.Context, tx db.DBTX, topic string, payload []byte, runAt time.Time) error
}

// ChargePayload carries everything the gateway needs for one charge attempt.
type ChargePayload struct {
	BookingReference string
	Amount           string // fixed-point decimal, 2 fractional digits
	Currency         string
	CardToken        string
	ReturnURL        string
}

// GatewayOutcome is the adapter's interpretation of a gateway response.
// Transport failures never appear here; they surface as errors marked
// ErrGatewayUnreachable.
type GatewayOutcome struct {
	Success          bool
	RequiresRedirect bool
	RedirectURL      string
	Reference        string // gateway transaction reference
	Code             string
	Description      string
	Raw              []byte
}

type PaymentGateway interface {
	Charge(ctx context.Context, payload ChargePayload) (GatewayOutcome, error)
	Checkout3DS(ctx context.Context, payload ChargePayload) (GatewayOutcome, error)
	PollStatus(ctx context.Context, reference string) (GatewayOutcome, error)
	// Interpret maps a raw callback result code onto an outcome using the
	// provider's success-prefix rule.
	Interpret(reference, code, description string, raw []byte) GatewayOutcome
}
