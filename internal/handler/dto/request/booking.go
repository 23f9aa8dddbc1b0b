package request

import (
	"github.com/google/uuid"
)

// CreateBookingRequest carries the booking origin as a tagged union: exactly
// one of course_id or service_id must be set.
type CreateBookingRequest struct {
	SlotID        uuid.UUID  `json:"slot_id" binding:"required"`
	CourseID      *uuid.UUID `json:"course_id,omitempty"`
	ServiceID     *uuid.UUID `json:"service_id,omitempty"`
	SessionsCount int        `json:"sessions_count" binding:"required,min=1"`
}
