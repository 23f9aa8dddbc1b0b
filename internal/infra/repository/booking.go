package repository

import (
	"context"
	"time"

	"tutorbook/internal/domain/booking"
	"tutorbook/internal/infra"
	"tutorbook/internal/infra/db"
	"tutorbook/internal/pkg/pgconv"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type BookingRepository struct{}

func NewBookingRepository() *BookingRepository {
	return &BookingRepository{}
}

const bookingColumns = `id, reference, student_id, teacher_id, context_kind, context_id, slot_id,
	sessions_count, sessions_completed,
	price_per_session::text, subtotal::text, discount_pct::text, discount_amount::text, total::text,
	currency, first_session_at, duration_min, status, cancelled_at, refund_pct, refund_amount::text,
	created_at, updated_at`

func scanBooking(row interface{ Scan(...any) error }) (*booking.Booking, error) {
	var (
		id, studentID, teacherID, contextID, slotID                    uuid.UUID
		ref, contextKind, currency, status                             string
		sessionsCount, sessionsCompleted, durationMin                  int
		pricePerSession, subtotal, discountPct, discountAmount, total  string
		firstSessionAt, createdAt, updatedAt                           time.Time
		cancelledAt                                                    *time.Time
		refundPct                                                      *int64
		refundAmountText                                               *string
	)
	err := row.Scan(
		&id, &ref, &studentID, &teacherID, &contextKind, &contextID, &slotID,
		&sessionsCount, &sessionsCompleted,
		&pricePerSession, &subtotal, &discountPct, &discountAmount, &total,
		&currency, &firstSessionAt, &durationMin, &status, &cancelledAt, &refundPct, &refundAmountText,
		&createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	price, err := scanPriceBreakdown(pricePerSession, subtotal, discountPct, discountAmount, total, sessionsCount)
	if err != nil {
		return nil, err
	}

	refundAmount, err := pgconv.DecimalPtrFromText(refundAmountText)
	if err != nil {
		return nil, err
	}

	return booking.ReconstructBooking(
		id, ref, studentID, teacherID,
		booking.ReconstructContext(booking.ContextKind(contextKind), contextID),
		slotID,
		sessionsCompleted,
		price,
		currency,
		firstSessionAt, durationMin,
		booking.Status(status),
		cancelledAt, refundPct, refundAmount,
		createdAt, updatedAt,
	), nil
}

func scanPriceBreakdown(pricePerSession, subtotal, discountPct, discountAmount, total string, sessionsCount int) (booking.PriceBreakdown, error) {
	fields := [5]decimal.Decimal{}
	for i, s := range [5]string{pricePerSession, subtotal, discountPct, discountAmount, total} {
		d, err := pgconv.DecimalFromText(s)
		if err != nil {
			return booking.PriceBreakdown{}, err
		}
		fields[i] = d
	}
	return booking.PriceBreakdown{
		PricePerSession: fields[0],
		SessionsCount:   sessionsCount,
		Subtotal:        fields[1],
		DiscountPct:     fields[2],
		DiscountAmount:  fields[3],
		Total:           fields[4],
	}, nil
}

func (r *BookingRepository) Create(ctx context.Context, tx db.DBTX, b *booking.Booking) error {
	price := b.Price()
	_, err := tx.Exec(ctx,
		`INSERT INTO bookings (
			id, reference, student_id, teacher_id, context_kind, context_id, slot_id,
			sessions_count, price_per_session, subtotal, discount_pct, discount_amount, total,
			currency, first_session_at, duration_min, status
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`,
		b.ID(), b.Reference(), b.StudentID(), b.TeacherID(), string(b.Context().Kind()), b.Context().ID(), b.SlotID(),
		b.SessionsCount(),
		pgconv.TextFromDecimal(price.PricePerSession),
		pgconv.TextFromDecimal(price.Subtotal),
		price.DiscountPct.String(),
		pgconv.TextFromDecimal(price.DiscountAmount),
		pgconv.TextFromDecimal(price.Total),
		b.Currency(), b.FirstSessionAt(), b.DurationMin(), string(b.Status()),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return infra.WrapRepoErr("booking reference already exists", err, infra.KindDuplicateKey)
		}
		return infra.WrapRepoErr("failed to create booking", err)
	}
	return nil
}

// FindByIDForUpdate locks the booking row for a status transition. Payment
// confirmation, cancellation and session completion all serialize on it.
func (r *BookingRepository) FindByIDForUpdate(ctx context.Context, tx db.DBTX, id uuid.UUID) (*booking.Booking, error) {
	row := tx.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = $1 FOR UPDATE`, id)
	b, err := scanBooking(row)
	if err != nil {
		if isNoRows(err) {
			return nil, infra.WrapRepoErr("booking not found", err, infra.KindNotFound)
		}
		return nil, infra.WrapRepoErr("failed to lock booking", err)
	}
	return b, nil
}

// Save persists the mutable part of the aggregate after a domain transition.
func (r *BookingRepository) Save(ctx context.Context, tx db.DBTX, b *booking.Booking) error {
	_, err := tx.Exec(ctx,
		`UPDATE bookings
		 SET status = $2, sessions_completed = $3, cancelled_at = $4, refund_pct = $5, refund_amount = $6,
		     updated_at = now()
		 WHERE id = $1`,
		b.ID(), string(b.Status()), b.SessionsCompleted(), b.CancelledAt(), b.RefundPct(),
		pgconv.TextPtrFromDecimal(b.RefundAmount()),
	)
	if err != nil {
		return infra.WrapRepoErr("failed to save booking", err)
	}
	return nil
}
