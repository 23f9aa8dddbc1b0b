package slot

import (
	"time"

	"github.com/google/uuid"
)

// State collapses the legacy is_available/is_booked flag pair into a single
// enum so the two can never disagree.
type State string

const (
	StateFree     State = "free"
	StateReserved State = "reserved"
)

func (s State) IsValid() bool {
	return s == StateFree || s == StateReserved
}

// Reason identifies one violated reservation precondition. Reserve reports
// every violated condition at once, not just the first.
type Reason string

const (
	ReasonNotFound        Reason = "NOT_FOUND"
	ReasonAlreadyReserved Reason = "ALREADY_RESERVED"
	ReasonTeacherMismatch Reason = "TEACHER_MISMATCH"
)

type ReasonSet []Reason

func (rs ReasonSet) Contains(r Reason) bool {
	for _, v := range rs {
		if v == r {
			return true
		}
	}
	return false
}

func (rs ReasonSet) Strings() []string {
	out := make([]string, len(rs))
	for i, r := range rs {
		out[i] = string(r)
	}
	return out
}

// Slot is a teacher's recurring weekly availability window. A reserved slot is
// exclusively bound to exactly one booking until released.
type Slot struct {
	id             uuid.UUID
	teacherID      uuid.UUID
	day            time.Weekday
	startMinute    int // minutes from midnight, slot-local
	durationMin    int
	state          State
	boundBookingID *uuid.UUID
	createdAt      time.Time
	updatedAt      time.Time
}

func ReconstructSlot(
	id, teacherID uuid.UUID,
	day time.Weekday,
	startMinute, durationMin int,
	state State,
	boundBookingID *uuid.UUID,
	createdAt, updatedAt time.Time,
) *Slot {
	return &Slot{
		id:             id,
		teacherID:      teacherID,
		day:            day,
		startMinute:    startMinute,
		durationMin:    durationMin,
		state:          state,
		boundBookingID: boundBookingID,
		createdAt:      createdAt,
		updatedAt:      updatedAt,
	}
}

// CheckReserve evaluates every reservation precondition against the requested
// booking context. An empty set means the slot may be claimed.
func (s *Slot) CheckReserve(teacherID uuid.UUID) ReasonSet {
	var reasons ReasonSet
	if s.state == StateReserved {
		reasons = append(reasons, ReasonAlreadyReserved)
	}
	if s.teacherID != teacherID {
		reasons = append(reasons, ReasonTeacherMismatch)
	}
	return reasons
}

func (s *Slot) IsReserved() bool {
	return s.state == StateReserved
}

func (s *Slot) ID() uuid.UUID              { return s.id }
func (s *Slot) TeacherID() uuid.UUID       { return s.teacherID }
func (s *Slot) Day() time.Weekday          { return s.day }
func (s *Slot) StartMinute() int           { return s.startMinute }
func (s *Slot) DurationMin() int           { return s.durationMin }
func (s *Slot) State() State               { return s.state }
func (s *Slot) BoundBookingID() *uuid.UUID { return s.boundBookingID }
func (s *Slot) CreatedAt() time.Time       { return s.createdAt }
func (s *Slot) UpdatedAt() time.Time       { return s.updatedAt }
