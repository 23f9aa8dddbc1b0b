//go:build unit

package slot_test

import (
	"testing"
	"time"

	"tutorbook/internal/domain/slot"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func newSlot(day time.Weekday, startMinute, durationMin int) *slot.Slot {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	return slot.ReconstructSlot(
		uuid.New(), uuid.New(),
		day, startMinute, durationMin,
		slot.StateFree, nil,
		now, now,
	)
}

func TestNextOccurrence(t *testing.T) {
	// 2026-01-14 is a Wednesday
	wednesdayNoon := time.Date(2026, 1, 14, 12, 0, 0, 0, time.UTC)

	testCases := []struct {
		name     string
		day      time.Weekday
		start    int // minutes from midnight
		now      time.Time
		expected time.Time
	}{
		{
			name:     "later weekday resolves within the same week",
			day:      time.Friday,
			start:    9 * 60,
			now:      wednesdayNoon,
			expected: time.Date(2026, 1, 16, 9, 0, 0, 0, time.UTC),
		},
		{
			name:     "earlier weekday rolls into next week",
			day:      time.Monday,
			start:    9 * 60,
			now:      wednesdayNoon,
			expected: time.Date(2026, 1, 19, 9, 0, 0, 0, time.UTC),
		},
		{
			name:     "same weekday with start time still ahead stays today",
			day:      time.Wednesday,
			start:    15 * 60,
			now:      wednesdayNoon,
			expected: time.Date(2026, 1, 14, 15, 0, 0, 0, time.UTC),
		},
		{
			name:     "same weekday with start time already passed rolls a full week",
			day:      time.Wednesday,
			start:    9*60 + 30,
			now:      wednesdayNoon,
			expected: time.Date(2026, 1, 21, 9, 30, 0, 0, time.UTC),
		},
		{
			name:     "start exactly at now rolls a full week",
			day:      time.Wednesday,
			start:    12 * 60,
			now:      wednesdayNoon,
			expected: time.Date(2026, 1, 21, 12, 0, 0, 0, time.UTC),
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			s := newSlot(tc.day, tc.start, 60)
			got := s.NextOccurrence(tc.now)
			assert.Equal(t, tc.expected, got)
			assert.Equal(t, tc.expected.Add(time.Hour), s.OccurrenceEnd(got))
		})
	}
}

func TestCheckReserve(t *testing.T) {
	teacherID := uuid.New()
	otherTeacher := uuid.New()
	bookingID := uuid.New()
	now := time.Now()

	t.Run("free slot with matching teacher passes", func(t *testing.T) {
		s := slot.ReconstructSlot(uuid.New(), teacherID, time.Monday, 600, 60, slot.StateFree, nil, now, now)
		assert.Empty(t, s.CheckReserve(teacherID))
	})

	t.Run("reserved slot reports ALREADY_RESERVED", func(t *testing.T) {
		s := slot.ReconstructSlot(uuid.New(), teacherID, time.Monday, 600, 60, slot.StateReserved, &bookingID, now, now)
		reasons := s.CheckReserve(teacherID)
		assert.True(t, reasons.Contains(slot.ReasonAlreadyReserved))
		assert.False(t, reasons.Contains(slot.ReasonTeacherMismatch))
	})

	t.Run("all violated conditions are reported together", func(t *testing.T) {
		s := slot.ReconstructSlot(uuid.New(), teacherID, time.Monday, 600, 60, slot.StateReserved, &bookingID, now, now)
		reasons := s.CheckReserve(otherTeacher)
		assert.Len(t, reasons, 2)
		assert.True(t, reasons.Contains(slot.ReasonAlreadyReserved))
		assert.True(t, reasons.Contains(slot.ReasonTeacherMismatch))
	})
}
