package slot

import (
	"errors"
	"strings"
)

var (
	// ErrNotReserved is returned when releasing a slot that is not reserved.
	ErrNotReserved = errors.New("slot is not reserved")
	// ErrDeleteReserved guards the invariant that a reserved slot cannot be
	// deleted; it is fatal to the operation, never auto-corrected.
	ErrDeleteReserved = errors.New("cannot delete a reserved slot")
)

// ReservationError carries every precondition a reserve attempt violated so
// callers can present them all at once.
type ReservationError struct {
	Reasons ReasonSet
}

func (e *ReservationError) Error() string {
	return "slot reservation rejected: " + strings.Join(e.Reasons.Strings(), ", ")
}

func NewReservationError(reasons ...Reason) *ReservationError {
	return &ReservationError{Reasons: reasons}
}

// AsReservationError unwraps err into a *ReservationError if one is present.
func AsReservationError(err error) (*ReservationError, bool) {
	var re *ReservationError
	if errors.As(err, &re) {
		return re, true
	}
	return nil, false
}
