//go:build unit

package booking_test

import (
	"testing"
	"time"

	"tutorbook/internal/domain/booking"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var baseTime = time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC) // a Monday

func newTestBooking(t *testing.T, sessions int, firstSessionAt time.Time) *booking.Booking {
	t.Helper()

	bctx, err := booking.NewCourseContext(uuid.New())
	require.NoError(t, err)

	pb, err := booking.Quote(d("100"), 60, sessions)
	require.NoError(t, err)

	b, err := booking.NewBooking(
		"TB-20260302-ABC234",
		uuid.New(), uuid.New(),
		bctx,
		uuid.New(),
		pb,
		"USD",
		firstSessionAt,
		60,
		baseTime,
	)
	require.NoError(t, err)
	return b
}

func TestNewBooking(t *testing.T) {
	t.Run("starts in pending_payment", func(t *testing.T) {
		b := newTestBooking(t, 1, baseTime.Add(72*time.Hour))
		assert.Equal(t, booking.StatusPendingPayment, b.Status())
		assert.Equal(t, 0, b.SessionsCompleted())
		assert.False(t, b.IsPackage())
	})

	t.Run("first session in the past rejected", func(t *testing.T) {
		bctx, _ := booking.NewCourseContext(uuid.New())
		pb, _ := booking.Quote(d("100"), 60, 1)
		_, err := booking.NewBooking("TB-X", uuid.New(), uuid.New(), bctx, uuid.New(), pb, "USD", baseTime.Add(-time.Hour), 60, baseTime)
		assert.ErrorIs(t, err, booking.ErrFirstSessionInPast)
	})
}

func TestContext(t *testing.T) {
	t.Run("nil ids rejected", func(t *testing.T) {
		_, err := booking.NewCourseContext(uuid.Nil)
		assert.ErrorIs(t, err, booking.ErrInvalidContext)
		_, err = booking.NewServiceContext(uuid.Nil)
		assert.ErrorIs(t, err, booking.ErrInvalidContext)
	})

	t.Run("kinds are exclusive", func(t *testing.T) {
		c, err := booking.NewServiceContext(uuid.New())
		require.NoError(t, err)
		assert.True(t, c.IsService())
		assert.False(t, c.IsCourse())
	})
}

func TestStatusTransitions(t *testing.T) {
	testCases := []struct {
		from    booking.Status
		to      booking.Status
		allowed bool
	}{
		{booking.StatusPendingPayment, booking.StatusConfirmed, true},
		{booking.StatusPendingPayment, booking.StatusCancelled, true},
		{booking.StatusPendingPayment, booking.StatusInProgress, false},
		{booking.StatusConfirmed, booking.StatusInProgress, true},
		{booking.StatusConfirmed, booking.StatusCancelled, true},
		{booking.StatusConfirmed, booking.StatusCompleted, false},
		{booking.StatusInProgress, booking.StatusCompleted, true},
		{booking.StatusInProgress, booking.StatusCancelled, true},
		{booking.StatusCompleted, booking.StatusCancelled, false},
		{booking.StatusCancelled, booking.StatusConfirmed, false},
		{booking.StatusCancelled, booking.StatusCancelled, false},
	}

	for _, tc := range testCases {
		assert.Equal(t, tc.allowed, tc.from.CanTransitionTo(tc.to), "%s -> %s", tc.from, tc.to)
	}
}

func TestConfirm(t *testing.T) {
	b := newTestBooking(t, 1, baseTime.Add(72*time.Hour))

	require.NoError(t, b.Confirm())
	assert.Equal(t, booking.StatusConfirmed, b.Status())

	// second confirm is an invalid transition, idempotence lives in the usecase
	assert.ErrorIs(t, b.Confirm(), booking.ErrInvalidTransition)
}

func TestCancel(t *testing.T) {
	t.Run("50 hours ahead refunds 100 percent", func(t *testing.T) {
		b := newTestBooking(t, 1, baseTime.Add(50*time.Hour))
		require.NoError(t, b.Cancel(baseTime))

		assert.Equal(t, booking.StatusCancelled, b.Status())
		require.NotNil(t, b.RefundPct())
		assert.Equal(t, int64(100), *b.RefundPct())
		require.NotNil(t, b.RefundAmount())
		assert.True(t, b.RefundAmount().Equal(d("100")))
	})

	t.Run("30 hours ahead refunds 80 percent", func(t *testing.T) {
		b := newTestBooking(t, 10, baseTime.Add(30*time.Hour))
		require.NoError(t, b.Cancel(baseTime))
		assert.Equal(t, int64(80), *b.RefundPct())
		assert.True(t, b.RefundAmount().Equal(d("680")), "amount=%s", b.RefundAmount())
	})

	t.Run("inside 24 hour window rejected", func(t *testing.T) {
		b := newTestBooking(t, 1, baseTime.Add(2*time.Hour))
		err := b.Cancel(baseTime)
		assert.ErrorIs(t, err, booking.ErrCancelWindowClosed)
		assert.Equal(t, booking.StatusPendingPayment, b.Status())
	})

	t.Run("terminal states cannot cancel", func(t *testing.T) {
		b := newTestBooking(t, 1, baseTime.Add(72*time.Hour))
		require.NoError(t, b.Cancel(baseTime))
		assert.ErrorIs(t, b.Cancel(baseTime), booking.ErrInvalidTransition)
	})
}

func TestCompleteSession(t *testing.T) {
	t.Run("pending booking cannot complete sessions", func(t *testing.T) {
		b := newTestBooking(t, 1, baseTime.Add(72*time.Hour))
		assert.ErrorIs(t, b.CompleteSession(), booking.ErrNotConfirmed)
	})

	t.Run("single booking completes in one step", func(t *testing.T) {
		b := newTestBooking(t, 1, baseTime.Add(72*time.Hour))
		require.NoError(t, b.Confirm())

		require.NoError(t, b.CompleteSession())
		assert.Equal(t, booking.StatusCompleted, b.Status())
		assert.Equal(t, 1, b.SessionsCompleted())

		assert.ErrorIs(t, b.CompleteSession(), booking.ErrNotConfirmed)
	})

	t.Run("package walks through in_progress", func(t *testing.T) {
		b := newTestBooking(t, 5, baseTime.Add(72*time.Hour))
		require.NoError(t, b.Confirm())

		require.NoError(t, b.CompleteSession())
		assert.Equal(t, booking.StatusInProgress, b.Status())

		for range 3 {
			require.NoError(t, b.CompleteSession())
		}
		assert.Equal(t, booking.StatusInProgress, b.Status())
		assert.Equal(t, 4, b.SessionsCompleted())

		require.NoError(t, b.CompleteSession())
		assert.Equal(t, booking.StatusCompleted, b.Status())
		assert.Equal(t, b.SessionsCount(), b.SessionsCompleted())
	})
}
