package commands

import (
	"context"

	"tutorbook/internal/domain/booking"
	"tutorbook/internal/domain/session"
	"tutorbook/internal/infra/db"
	"tutorbook/internal/pkg/errs"
)

// SessionMaterializer expands a confirmed booking into its concrete session
// rows. Materialization is idempotent: if any session already exists for the
// booking the whole call is a no-op, so a redelivered confirmation never
// duplicates rows.
type SessionMaterializer struct {
	sessionRepo SessionRepository
}

func NewSessionMaterializer(sessionRepo SessionRepository) *SessionMaterializer {
	return &SessionMaterializer{sessionRepo: sessionRepo}
}

// Materialize runs inside the caller's transaction so the status transition
// and the session rows commit or roll back together.
func (m *SessionMaterializer) Materialize(ctx context.Context, tx db.DBTX, b *booking.Booking) error {
	count, err := m.sessionRepo.CountByBooking(ctx, tx, b.ID())
	if err != nil {
		return errs.Wrap(err, "failed to count existing sessions")
	}
	if count > 0 {
		return nil
	}

	sessions := session.BuildSchedule(b.ID(), b.FirstSessionAt(), b.DurationMin(), b.SessionsCount())
	if err := m.sessionRepo.CreateBatch(ctx, tx, sessions); err != nil {
		return errs.Wrap(err, "failed to create session schedule")
	}
	return nil
}
