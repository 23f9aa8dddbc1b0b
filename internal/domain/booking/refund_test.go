//go:build unit

package booking_test

import (
	"testing"
	"time"

	"tutorbook/internal/domain/booking"

	"github.com/stretchr/testify/assert"
)

func TestRefundPercentage(t *testing.T) {
	testCases := []struct {
		name     string
		until    time.Duration
		expected int64
	}{
		{"50 hours before", 50 * time.Hour, 100},
		{"exactly 48 hours", 48 * time.Hour, 100},
		{"30 hours before", 30 * time.Hour, 80},
		{"exactly 24 hours", 24 * time.Hour, 80},
		{"10 hours before", 10 * time.Hour, 50},
		{"exactly 4 hours", 4 * time.Hour, 50},
		{"2 hours before", 2 * time.Hour, 0},
		{"already started", -time.Hour, 0},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, booking.RefundPercentage(tc.until))
		})
	}
}

func TestRefundAmount(t *testing.T) {
	assert.True(t, booking.RefundAmount(d("850"), 80).Equal(d("680")))
	assert.True(t, booking.RefundAmount(d("99.99"), 50).Equal(d("50.00")))
	assert.True(t, booking.RefundAmount(d("123.45"), 0).IsZero())
}
