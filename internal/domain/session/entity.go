package session

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotScheduled = errors.New("session is not in scheduled state")
)

type Status string

const (
	StatusScheduled Status = "scheduled"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// Session is one concrete occurrence derived from a confirmed booking.
type Session struct {
	id          uuid.UUID
	bookingID   uuid.UUID
	seq         int // 1-based position within the booking's package
	scheduledAt time.Time
	durationMin int
	status      Status
	joinURL     *string
	hostURL     *string
	createdAt   time.Time
	updatedAt   time.Time
}

func ReconstructSession(
	id, bookingID uuid.UUID,
	seq int,
	scheduledAt time.Time,
	durationMin int,
	status Status,
	joinURL, hostURL *string,
	createdAt, updatedAt time.Time,
) *Session {
	return &Session{
		id:          id,
		bookingID:   bookingID,
		seq:         seq,
		scheduledAt: scheduledAt,
		durationMin: durationMin,
		status:      status,
		joinURL:     joinURL,
		hostURL:     hostURL,
		createdAt:   createdAt,
		updatedAt:   updatedAt,
	}
}

// BuildSchedule expands a booking's first session date into the full package
// schedule: session k runs at firstSessionAt + (k-1) weeks, same time of day
// and duration. Pure; materialization idempotence is the store's concern.
func BuildSchedule(bookingID uuid.UUID, firstSessionAt time.Time, durationMin, sessionsCount int) []*Session {
	sessions := make([]*Session, sessionsCount)
	for k := range sessionsCount {
		sessions[k] = &Session{
			id:          uuid.New(),
			bookingID:   bookingID,
			seq:         k + 1,
			scheduledAt: firstSessionAt.AddDate(0, 0, 7*k),
			durationMin: durationMin,
			status:      StatusScheduled,
		}
	}
	return sessions
}

func (s *Session) Complete() error {
	if s.status != StatusScheduled {
		return ErrNotScheduled
	}
	s.status = StatusCompleted
	return nil
}

// Cancel marks a scheduled session cancelled. Completed sessions are left
// untouched by booking cancellation.
func (s *Session) Cancel() error {
	if s.status != StatusScheduled {
		return ErrNotScheduled
	}
	s.status = StatusCancelled
	return nil
}

func (s *Session) AttachMeetingLinks(joinURL, hostURL string) {
	s.joinURL = &joinURL
	s.hostURL = &hostURL
}

func (s *Session) HasMeetingLinks() bool {
	return s.joinURL != nil && s.hostURL != nil
}

func (s *Session) ID() uuid.UUID          { return s.id }
func (s *Session) BookingID() uuid.UUID   { return s.bookingID }
func (s *Session) Seq() int               { return s.seq }
func (s *Session) ScheduledAt() time.Time { return s.scheduledAt }
func (s *Session) DurationMin() int       { return s.durationMin }
func (s *Session) Status() Status         { return s.status }
func (s *Session) JoinURL() *string       { return s.joinURL }
func (s *Session) HostURL() *string       { return s.hostURL }
func (s *Session) CreatedAt() time.Time   { return s.createdAt }
func (s *Session) UpdatedAt() time.Time   { return s.updatedAt }
