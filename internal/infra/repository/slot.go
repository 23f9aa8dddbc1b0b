package repository

import (
	"context"
	"time"

	"tutorbook/internal/domain/slot"
	"tutorbook/internal/infra"
	"tutorbook/internal/infra/db"

	"github.com/google/uuid"
)

// SlotRepository owns availability-slot rows. Reservation is a
// lock-check-bind sequence: LockForReserve takes the row lock and evaluates
// every precondition, Bind flips the state once the booking row exists (the
// bound_booking_id foreign key requires that ordering). All three run inside
// one caller-owned transaction.
type SlotRepository struct{}

func NewSlotRepository() *SlotRepository {
	return &SlotRepository{}
}

const slotColumns = `id, teacher_id, day_number, start_minute, duration_min, state, bound_booking_id, created_at, updated_at`

func scanSlot(row interface{ Scan(...any) error }) (*slot.Slot, error) {
	var (
		id, teacherID  uuid.UUID
		dayNumber      int
		startMinute    int
		durationMin    int
		state          string
		boundBookingID *uuid.UUID
		createdAt      time.Time
		updatedAt      time.Time
	)
	if err := row.Scan(&id, &teacherID, &dayNumber, &startMinute, &durationMin, &state, &boundBookingID, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	return slot.ReconstructSlot(
		id, teacherID,
		time.Weekday(dayNumber),
		startMinute, durationMin,
		slot.State(state),
		boundBookingID,
		createdAt, updatedAt,
	), nil
}

func (r *SlotRepository) Create(ctx context.Context, tx db.DBTX, teacherID uuid.UUID, day time.Weekday, startMinute, durationMin int) (uuid.UUID, error) {
	var id uuid.UUID
	err := tx.QueryRow(ctx,
		`INSERT INTO slots (teacher_id, day_number, start_minute, duration_min)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id`,
		teacherID, int(day), startMinute, durationMin,
	).Scan(&id)
	if err != nil {
		return uuid.Nil, infra.WrapRepoErr("failed to create slot", err)
	}
	return id, nil
}

func (r *SlotRepository) FindByID(ctx context.Context, dbtx db.DBTX, id uuid.UUID) (*slot.Slot, error) {
	row := dbtx.QueryRow(ctx, `SELECT `+slotColumns+` FROM slots WHERE id = $1`, id)
	s, err := scanSlot(row)
	if err != nil {
		if isNoRows(err) {
			return nil, infra.WrapRepoErr("slot not found", err, infra.KindNotFound)
		}
		return nil, infra.WrapRepoErr("failed to find slot", err)
	}
	return s, nil
}

// LockForReserve acquires the row-level exclusive lock and checks every
// reservation precondition while holding it. Under concurrent attempts on the
// same slot the second caller blocks on the lock and then deterministically
// observes ALREADY_RESERVED.
func (r *SlotRepository) LockForReserve(ctx context.Context, tx db.DBTX, slotID, teacherID uuid.UUID) (*slot.Slot, error) {
	row := tx.QueryRow(ctx, `SELECT `+slotColumns+` FROM slots WHERE id = $1 FOR UPDATE`, slotID)
	s, err := scanSlot(row)
	if err != nil {
		if isNoRows(err) {
			return nil, slot.NewReservationError(slot.ReasonNotFound)
		}
		return nil, infra.WrapRepoErr("failed to lock slot", err)
	}

	if reasons := s.CheckReserve(teacherID); len(reasons) > 0 {
		return nil, &slot.ReservationError{Reasons: reasons}
	}
	return s, nil
}

// Bind flips the locked slot to reserved and points it at the booking. The
// WHERE clause re-asserts the free state; zero rows affected means the caller
// skipped LockForReserve.
func (r *SlotRepository) Bind(ctx context.Context, tx db.DBTX, slotID, bookingID uuid.UUID) error {
	tag, err := tx.Exec(ctx,
		`UPDATE slots
		 SET state = 'reserved', bound_booking_id = $2, updated_at = now()
		 WHERE id = $1 AND state = 'free'`,
		slotID, bookingID,
	)
	if err != nil {
		return infra.WrapRepoErr("failed to bind slot", err)
	}
	if tag.RowsAffected() == 0 {
		return slot.NewReservationError(slot.ReasonAlreadyReserved)
	}
	return nil
}

// Release clears the reservation. Releasing an unreserved slot reports
// ErrNotReserved rather than silently succeeding.
func (r *SlotRepository) Release(ctx context.Context, tx db.DBTX, slotID uuid.UUID) error {
	tag, err := tx.Exec(ctx,
		`UPDATE slots
		 SET state = 'free', bound_booking_id = NULL, updated_at = now()
		 WHERE id = $1 AND state = 'reserved'`,
		slotID,
	)
	if err != nil {
		return infra.WrapRepoErr("failed to release slot", err)
	}
	if tag.RowsAffected() == 0 {
		return slot.ErrNotReserved
	}
	return nil
}

// Delete removes a free slot. Deleting a reserved slot is an invariant
// violation and is rejected, never auto-corrected.
func (r *SlotRepository) Delete(ctx context.Context, tx db.DBTX, slotID uuid.UUID) error {
	tag, err := tx.Exec(ctx, `DELETE FROM slots WHERE id = $1 AND state = 'free'`, slotID)
	if err != nil {
		return infra.WrapRepoErr("failed to delete slot", err)
	}
	if tag.RowsAffected() == 0 {
		var exists bool
		if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM slots WHERE id = $1)`, slotID).Scan(&exists); err != nil {
			return infra.WrapRepoErr("failed to check slot existence", err)
		}
		if exists {
			return slot.ErrDeleteReserved
		}
		return infra.WrapRepoErr("slot not found", nil, infra.KindNotFound)
	}
	return nil
}
