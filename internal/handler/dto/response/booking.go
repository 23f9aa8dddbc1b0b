package response

import (
	"tutorbook/internal/usecase/queries"

	"github.com/google/uuid"
)

// The read models in usecase/queries are already shaped for JSON; responses
// here only add the envelope fields the write operations produce.

type CreateBookingResponse struct {
	*queries.BookingView
	Replayed bool `json:"replayed"`
}

type InitiatePaymentResponse struct {
	PaymentID   uuid.UUID            `json:"payment_id"`
	Status      string               `json:"status"`
	RedirectURL string               `json:"redirect_url,omitempty"`
	Booking     *queries.BookingView `json:"booking"`
}
