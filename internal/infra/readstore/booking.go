package readstore

import (
	"context"

	"tutorbook/internal/infra"
	"tutorbook/internal/infra/db"
	"tutorbook/internal/pkg/pgconv"
	"tutorbook/internal/usecase/queries"

	"github.com/google/uuid"
)

type BookingReadStore struct {
	db db.DBTX
}

func NewBookingReadStore(dbtx db.DBTX) *BookingReadStore {
	return &BookingReadStore{db: dbtx}
}

func (r *BookingReadStore) FindByID(ctx context.Context, id uuid.UUID) (*queries.BookingView, error) {
	var (
		v                queries.BookingView
		refundAmountText *string
	)
	err := r.db.QueryRow(ctx,
		`SELECT id, reference, student_id, teacher_id, context_kind, context_id, slot_id,
		        sessions_count, sessions_completed,
		        price_per_session::text, subtotal::text, discount_pct::text, discount_amount::text, total::text,
		        currency, first_session_at, duration_min, status, cancelled_at, refund_pct, refund_amount::text,
		        created_at, updated_at
		 FROM bookings WHERE id = $1`,
		id,
	).Scan(
		&v.ID, &v.Reference, &v.StudentID, &v.TeacherID, &v.ContextKind, &v.ContextID, &v.SlotID,
		&v.SessionsCount, &v.SessionsCompleted,
		&v.PricePerSession, &v.Subtotal, &v.DiscountPct, &v.DiscountAmount, &v.Total,
		&v.Currency, &v.FirstSessionAt, &v.DurationMin, &v.Status, &v.CancelledAt, &v.RefundPct, &refundAmountText,
		&v.CreatedAt, &v.UpdatedAt,
	)
	if err != nil {
		if pgconv.IsNoRows(err) {
			return nil, infra.WrapRepoErr("booking not found", err, infra.KindNotFound)
		}
		return nil, infra.WrapRepoErr("failed to find booking view", err)
	}
	v.RefundAmount = refundAmountText

	if v.Payments, err = r.paymentsFor(ctx, id); err != nil {
		return nil, err
	}
	if v.Sessions, err = r.sessionsFor(ctx, id); err != nil {
		return nil, err
	}
	return &v, nil
}

func (r *BookingReadStore) paymentsFor(ctx context.Context, bookingID uuid.UUID) ([]queries.PaymentAttemptView, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, attempt_no, amount::text, currency, method, status, gateway_ref, created_at
		 FROM payments WHERE booking_id = $1 ORDER BY attempt_no`,
		bookingID,
	)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to list payment views", err)
	}
	defer rows.Close()

	var out []queries.PaymentAttemptView
	for rows.Next() {
		var p queries.PaymentAttemptView
		if err := rows.Scan(&p.ID, &p.AttemptNo, &p.Amount, &p.Currency, &p.Method, &p.Status, &p.GatewayRef, &p.CreatedAt); err != nil {
			return nil, infra.WrapRepoErr("failed to scan payment view", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *BookingReadStore) sessionsFor(ctx context.Context, bookingID uuid.UUID) ([]queries.SessionView, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, seq, scheduled_at, duration_min, status, join_url
		 FROM sessions WHERE booking_id = $1 ORDER BY seq`,
		bookingID,
	)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to list session views", err)
	}
	defer rows.Close()

	var out []queries.SessionView
	for rows.Next() {
		var s queries.SessionView
		if err := rows.Scan(&s.ID, &s.Seq, &s.ScheduledAt, &s.DurationMin, &s.Status, &s.JoinURL); err != nil {
			return nil, infra.WrapRepoErr("failed to scan session view", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *BookingReadStore) FindByStudent(ctx context.Context, studentID uuid.UUID, limit int) ([]*queries.BookingListItem, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, reference, teacher_id, sessions_count, total::text, currency, first_session_at, status, created_at
		 FROM bookings
		 WHERE student_id = $1
		 ORDER BY created_at DESC
		 LIMIT $2`,
		studentID, limit,
	)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to list bookings", err)
	}
	defer rows.Close()

	var out []*queries.BookingListItem
	for rows.Next() {
		var item queries.BookingListItem
		if err := rows.Scan(&item.ID, &item.Reference, &item.TeacherID, &item.SessionsCount,
			&item.Total, &item.Currency, &item.FirstSessionAt, &item.Status, &item.CreatedAt); err != nil {
			return nil, infra.WrapRepoErr("failed to scan booking list item", err)
		}
		out = append(out, &item)
	}
	return out, rows.Err()
}

var _ queries.BookingReadStore = (*BookingReadStore)(nil)
