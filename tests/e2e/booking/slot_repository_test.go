//go:build e2e

package booking_test

import (
	"context"
	"testing"
	"time"

	"tutorbook/internal/domain/slot"
	"tutorbook/internal/infra"
	"tutorbook/internal/infra/db"
	"tutorbook/internal/infra/repository"
	"tutorbook/tests/e2e"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

// SlotRepositorySuite exercises the reservation invariants directly at the
// repository level, below the API surface.
type SlotRepositorySuite struct {
	e2e.SharedSuite
}

func TestSlotRepositorySuite(t *testing.T) {
	t.Parallel()
	suite.Run(t, new(SlotRepositorySuite))
}

func (s *SlotRepositorySuite) TestSlotLifecycle() {
	repo := repository.NewSlotRepository()
	ctx := context.Background()

	s.Run("Normal case: create then find round-trips the schedule", func() {
		t := s.T()
		teacherID := uuid.New()

		id, err := repo.Create(ctx, s.DB, teacherID, time.Wednesday, 600, 90)
		require.NoError(t, err)

		found, err := repo.FindByID(ctx, s.DB, id)
		require.NoError(t, err)
		require.Equal(t, teacherID, found.TeacherID())
		require.Equal(t, time.Wednesday, found.Day())
		require.Equal(t, 90, found.DurationMin())
		require.Equal(t, slot.StateFree, found.State())
	})

	s.Run("Error case: unknown slot is a NotFound kind", func() {
		t := s.T()

		_, err := repo.FindByID(ctx, s.DB, uuid.New())
		require.True(t, infra.IsKind(err, infra.KindNotFound))
	})

	s.Run("Error case: releasing a free slot is rejected", func() {
		t := s.T()
		id, err := repo.Create(ctx, s.DB, uuid.New(), time.Monday, 540, 60)
		require.NoError(t, err)

		err = repo.Release(ctx, s.DB, id)
		require.ErrorIs(t, err, slot.ErrNotReserved)
	})

	s.Run("Error case: a reserved slot cannot be deleted", func() {
		t := s.T()
		teacherID := uuid.New()
		id, err := repo.Create(ctx, s.DB, teacherID, time.Friday, 480, 60)
		require.NoError(t, err)

		tx, err := s.DB.Begin(ctx)
		require.NoError(t, err)
		defer tx.Rollback(ctx)

		locked, err := repo.LockForReserve(ctx, tx, id, teacherID)
		require.NoError(t, err)

		bookingID := insertMinimalBooking(t, tx, locked.ID(), teacherID)
		require.NoError(t, repo.Bind(ctx, tx, locked.ID(), bookingID))
		require.NoError(t, tx.Commit(ctx))

		err = repo.Delete(ctx, s.DB, id)
		require.ErrorIs(t, err, slot.ErrDeleteReserved)

		// After release and removal of the booking the slot is deletable.
		require.NoError(t, repo.Release(ctx, s.DB, id))
		_, err = s.DB.Exec(ctx, `DELETE FROM bookings WHERE id = $1`, bookingID)
		require.NoError(t, err)
		require.NoError(t, repo.Delete(ctx, s.DB, id))
	})
}

// insertMinimalBooking writes the smallest booking row the slot FK needs.
func insertMinimalBooking(t *testing.T, tx db.DBTX, slotID, teacherID uuid.UUID) uuid.UUID {
	t.Helper()
	id := uuid.New()
	_, err := tx.Exec(context.Background(),
		`INSERT INTO bookings (id, reference, student_id, teacher_id, context_kind, context_id, slot_id,
		   sessions_count, price_per_session, subtotal, total, currency, first_session_at, duration_min)
		 VALUES ($1, $2, $3, $4, 'course', $5, $6, 1, 50.00, 50.00, 50.00, 'USD', now() + interval '3 days', 60)`,
		id, "BK-"+id.String()[:8], uuid.New(), teacherID, uuid.New(), slotID)
	require.NoError(t, err)
	return id
}
