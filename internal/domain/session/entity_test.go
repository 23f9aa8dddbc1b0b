//go:build unit

package session_test

import (
	"testing"
	"time"

	"tutorbook/internal/domain/session"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildSchedule(t *testing.T) {
	bookingID := uuid.New()
	first := time.Date(2026, 3, 6, 14, 30, 0, 0, time.UTC) // a Friday

	t.Run("single booking yields one session at the first date", func(t *testing.T) {
		sessions := session.BuildSchedule(bookingID, first, 60, 1)
		require.Len(t, sessions, 1)
		assert.Equal(t, first, sessions[0].ScheduledAt())
		assert.Equal(t, 1, sessions[0].Seq())
		assert.Equal(t, session.StatusScheduled, sessions[0].Status())
	})

	t.Run("package spaces sessions a week apart", func(t *testing.T) {
		sessions := session.BuildSchedule(bookingID, first, 45, 5)
		require.Len(t, sessions, 5)

		for k, s := range sessions {
			expected := first.AddDate(0, 0, 7*k)
			assert.Equal(t, expected, s.ScheduledAt(), "seq=%d", k+1)
			assert.Equal(t, k+1, s.Seq())
			assert.Equal(t, 45, s.DurationMin())
			assert.Equal(t, first.Weekday(), s.ScheduledAt().Weekday())
			assert.Equal(t, bookingID, s.BookingID())
		}
	})
}

func TestSessionTransitions(t *testing.T) {
	first := time.Now().Add(48 * time.Hour)

	t.Run("complete then cancel rejected", func(t *testing.T) {
		s := session.BuildSchedule(uuid.New(), first, 60, 1)[0]
		require.NoError(t, s.Complete())
		assert.ErrorIs(t, s.Cancel(), session.ErrNotScheduled)
		assert.Equal(t, session.StatusCompleted, s.Status())
	})

	t.Run("cancel then complete rejected", func(t *testing.T) {
		s := session.BuildSchedule(uuid.New(), first, 60, 1)[0]
		require.NoError(t, s.Cancel())
		assert.ErrorIs(t, s.Complete(), session.ErrNotScheduled)
	})
}

func TestAttachMeetingLinks(t *testing.T) {
	s := session.BuildSchedule(uuid.New(), time.Now(), 60, 1)[0]
	assert.False(t, s.HasMeetingLinks())

	s.AttachMeetingLinks("https://meet.example/join/x", "https://meet.example/host/x")
	assert.True(t, s.HasMeetingLinks())
	assert.Equal(t, "https://meet.example/join/x", *s.JoinURL())
}
