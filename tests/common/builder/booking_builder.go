//go:build unit || e2e

package builder

import (
	"time"

	reqdto "tutorbook/internal/handler/dto/request"
	"tutorbook/internal/usecase/queries"

	"github.com/google/uuid"
)

type BookingBuilder struct {
	ID             uuid.UUID
	Reference      string
	StudentID      uuid.UUID
	TeacherID      uuid.UUID
	CourseID       uuid.UUID
	SlotID         uuid.UUID
	SessionsCount  int
	FirstSessionAt time.Time
	DurationMin    int
	Status         string
	CreatedAt      time.Time
}

func NewBookingBuilder() *BookingBuilder {
	now := time.Now().UTC().Truncate(time.Second)
	return &BookingBuilder{
		ID:             uuid.New(),
		Reference:      "TB-20260114-A2B3C4",
		StudentID:      uuid.New(),
		TeacherID:      uuid.New(),
		CourseID:       uuid.New(),
		SlotID:         uuid.New(),
		SessionsCount:  10,
		FirstSessionAt: now.AddDate(0, 0, 3),
		DurationMin:    60,
		Status:         "pending_payment",
		CreatedAt:      now,
	}
}

func (b *BookingBuilder) With(mutate func(*BookingBuilder)) *BookingBuilder {
	mutate(b)
	return b
}

func (b *BookingBuilder) BuildCreateRequestDTO() reqdto.CreateBookingRequest {
	courseID := b.CourseID
	return reqdto.CreateBookingRequest{
		SlotID:        b.SlotID,
		CourseID:      &courseID,
		SessionsCount: b.SessionsCount,
	}
}

// BuildView prices a 10-session package of 60-minute lessons at 100.00/h,
// which lands in the 15% discount tier.
func (b *BookingBuilder) BuildView() *queries.BookingView {
	return &queries.BookingView{
		ID:              b.ID,
		Reference:       b.Reference,
		StudentID:       b.StudentID,
		TeacherID:       b.TeacherID,
		ContextKind:     "course",
		ContextID:       b.CourseID,
		SlotID:          b.SlotID,
		SessionsCount:   b.SessionsCount,
		PricePerSession: "100.00",
		Subtotal:        "1000.00",
		DiscountPct:     "15.00",
		DiscountAmount:  "150.00",
		Total:           "850.00",
		Currency:        "USD",
		FirstSessionAt:  b.FirstSessionAt,
		DurationMin:     b.DurationMin,
		Status:          b.Status,
		CreatedAt:       b.CreatedAt,
		UpdatedAt:       b.CreatedAt,
	}
}

func (b *BookingBuilder) BuildListItem() *queries.BookingListItem {
	return &queries.BookingListItem{
		ID:             b.ID,
		Reference:      b.Reference,
		TeacherID:      b.TeacherID,
		SessionsCount:  b.SessionsCount,
		Total:          "850.00",
		Currency:       "USD",
		FirstSessionAt: b.FirstSessionAt,
		Status:         b.Status,
		CreatedAt:      b.CreatedAt,
	}
}
