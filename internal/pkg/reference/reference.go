// Package reference generates human-readable booking references.
package reference

import (
	"crypto/rand"
	"fmt"
	"time"
)

const alphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789" // no 0/O/1/I

// NewBookingReference returns a reference like "TB-20260115-7KQ2M8".
// Uniqueness is ultimately enforced by the bookings.reference unique index;
// the random suffix only keeps collisions improbable.
func NewBookingReference(now time.Time) string {
	var buf [6]byte
	if _, err := rand.Read(buf[:]); err != nil {
		// crypto/rand failure is unrecoverable for reference generation
		panic(fmt.Sprintf("reference: rand.Read failed: %v", err))
	}
	for i := range buf {
		buf[i] = alphabet[int(buf[i])%len(alphabet)]
	}
	return fmt.Sprintf("TB-%s-%s", now.Format("20060102"), string(buf[:]))
}
