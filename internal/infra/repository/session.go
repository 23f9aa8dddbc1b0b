package repository

import (
	"context"
	"time"

	"tutorbook/internal/domain/session"
	"tutorbook/internal/infra"
	"tutorbook/internal/infra/db"

	"github.com/google/uuid"
)

type SessionRepository struct{}

func NewSessionRepository() *SessionRepository {
	return &SessionRepository{}
}

const sessionColumns = `id, booking_id, seq, scheduled_at, duration_min, status, join_url, host_url, created_at, updated_at`

func scanSession(row interface{ Scan(...any) error }) (*session.Session, error) {
	var (
		id, bookingID        uuid.UUID
		seq, durationMin     int
		scheduledAt          time.Time
		status               string
		joinURL, hostURL     *string
		createdAt, updatedAt time.Time
	)
	err := row.Scan(&id, &bookingID, &seq, &scheduledAt, &durationMin, &status, &joinURL, &hostURL, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	return session.ReconstructSession(
		id, bookingID, seq, scheduledAt, durationMin,
		session.Status(status), joinURL, hostURL,
		createdAt, updatedAt,
	), nil
}

// CountByBooking is the idempotence check for materialization: existing rows
// mean the booking was already expanded.
func (r *SessionRepository) CountByBooking(ctx context.Context, tx db.DBTX, bookingID uuid.UUID) (int, error) {
	var count int
	if err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM sessions WHERE booking_id = $1`, bookingID).Scan(&count); err != nil {
		return 0, infra.WrapRepoErr("failed to count sessions", err)
	}
	return count, nil
}

func (r *SessionRepository) CreateBatch(ctx context.Context, tx db.DBTX, sessions []*session.Session) error {
	for _, s := range sessions {
		_, err := tx.Exec(ctx,
			`INSERT INTO sessions (id, booking_id, seq, scheduled_at, duration_min, status)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			s.ID(), s.BookingID(), s.Seq(), s.ScheduledAt(), s.DurationMin(), string(s.Status()),
		)
		if err != nil {
			if isUniqueViolation(err) {
				// A concurrent materialization already created this seq.
				return infra.WrapRepoErr("session already materialized", err, infra.KindConflict)
			}
			return infra.WrapRepoErr("failed to create session", err)
		}
	}
	return nil
}

func (r *SessionRepository) FindByBooking(ctx context.Context, dbtx db.DBTX, bookingID uuid.UUID) ([]*session.Session, error) {
	rows, err := dbtx.Query(ctx, `SELECT `+sessionColumns+` FROM sessions WHERE booking_id = $1 ORDER BY seq`, bookingID)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to list sessions", err)
	}
	defer rows.Close()

	var sessions []*session.Session
	for rows.Next() {
		s, scanErr := scanSession(rows)
		if scanErr != nil {
			return nil, infra.WrapRepoErr("failed to scan session", scanErr)
		}
		sessions = append(sessions, s)
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapRepoErr("failed to iterate sessions", err)
	}
	return sessions, nil
}

// FindOldestScheduledForUpdate locks the next deliverable session of a
// booking.
func (r *SessionRepository) FindOldestScheduledForUpdate(ctx context.Context, tx db.DBTX, bookingID uuid.UUID) (*session.Session, error) {
	row := tx.QueryRow(ctx,
		`SELECT `+sessionColumns+` FROM sessions
		 WHERE booking_id = $1 AND status = 'scheduled'
		 ORDER BY seq
		 LIMIT 1
		 FOR UPDATE`,
		bookingID,
	)
	s, err := scanSession(row)
	if err != nil {
		if isNoRows(err) {
			return nil, infra.WrapRepoErr("no scheduled session remaining", err, infra.KindNotFound)
		}
		return nil, infra.WrapRepoErr("failed to lock session", err)
	}
	return s, nil
}

func (r *SessionRepository) Save(ctx context.Context, tx db.DBTX, s *session.Session) error {
	_, err := tx.Exec(ctx,
		`UPDATE sessions SET status = $2, join_url = $3, host_url = $4, updated_at = now() WHERE id = $1`,
		s.ID(), string(s.Status()), s.JoinURL(), s.HostURL(),
	)
	if err != nil {
		return infra.WrapRepoErr("failed to save session", err)
	}
	return nil
}

// CancelScheduledByBooking cancels every still-scheduled session of a booking;
// completed sessions are left untouched.
func (r *SessionRepository) CancelScheduledByBooking(ctx context.Context, tx db.DBTX, bookingID uuid.UUID) error {
	_, err := tx.Exec(ctx,
		`UPDATE sessions SET status = 'cancelled', updated_at = now()
		 WHERE booking_id = $1 AND status = 'scheduled'`,
		bookingID,
	)
	if err != nil {
		return infra.WrapRepoErr("failed to cancel sessions", err)
	}
	return nil
}

// FindScheduledWithoutLinks feeds the meeting-link worker.
func (r *SessionRepository) FindScheduledWithoutLinks(ctx context.Context, dbtx db.DBTX, limit int) ([]*session.Session, error) {
	rows, err := dbtx.Query(ctx,
		`SELECT `+sessionColumns+` FROM sessions
		 WHERE status = 'scheduled' AND join_url IS NULL
		 ORDER BY created_at
		 LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to list sessions without links", err)
	}
	defer rows.Close()

	var sessions []*session.Session
	for rows.Next() {
		s, scanErr := scanSession(rows)
		if scanErr != nil {
			return nil, infra.WrapRepoErr("failed to scan session", scanErr)
		}
		sessions = append(sessions, s)
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapRepoErr("failed to iterate sessions", err)
	}
	return sessions, nil
}
