//go:build e2e

package booking_test

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"testing"
	"time"

	"tutorbook/internal/handler/dto/request"
	"tutorbook/internal/handler/middleware"
	"tutorbook/internal/usecase/queries"
	"tutorbook/tests/common/authtest"
	"tutorbook/tests/common/dbtest"
	commonhttp "tutorbook/tests/common/httptest"
	"tutorbook/tests/e2e"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

const bookingsURL = "/api/bookings"

type BookingSuite struct {
	e2e.SharedSuite
}

func TestBookingSuite(t *testing.T) {
	t.Parallel()
	suite.Run(t, new(BookingSuite))
}

type fixture struct {
	teacherID uuid.UUID
	studentID uuid.UUID
	courseID  uuid.UUID
	slotID    uuid.UUID
	token     string
}

// seedOffer creates a teacher with one course and one weekly slot three days
// out, so the first session always clears the cancellation lead time.
func (s *BookingSuite) seedOffer(t *testing.T) fixture {
	t.Helper()

	f := fixture{
		teacherID: uuid.New(),
		studentID: uuid.New(),
	}
	f.courseID = dbtest.CreateTestCourse(t, s.DB, f.teacherID, "100.00", "USD")

	day := (int(time.Now().Weekday()) + 3) % 7
	f.slotID = dbtest.CreateTestSlot(t, s.DB, f.teacherID, day, 600, 60)

	f.token = authtest.TokenFor(t, s.Config.JWT, f.studentID, middleware.RoleStudent)
	return f
}

func (s *BookingSuite) createBooking(t *testing.T, f fixture, sessionsCount int, idemKey string) (queries.BookingView, int) {
	t.Helper()

	req := request.CreateBookingRequest{
		SlotID:        f.slotID,
		CourseID:      &f.courseID,
		SessionsCount: sessionsCount,
	}
	w := commonhttp.PerformRequestWithHeaders(t, s.Router, http.MethodPost, bookingsURL, req, f.token,
		map[string]string{"Idempotency-Key": idemKey})

	var view queries.BookingView
	if w.Code == http.StatusCreated || w.Code == http.StatusOK {
		require.NoError(t, commonhttp.DecodeResponseBody(t, w.Body, &view))
	}
	return view, w.Code
}

func (s *BookingSuite) slotState(t *testing.T, slotID uuid.UUID) string {
	t.Helper()
	var state string
	err := s.DB.QueryRow(context.Background(), "SELECT state FROM slots WHERE id = $1", slotID).Scan(&state)
	require.NoError(t, err)
	return state
}

func (s *BookingSuite) TestCreateBooking() {
	s.Run("Normal case: booking created with package discount", func() {
		t := s.T()
		f := s.seedOffer(t)

		view, code := s.createBooking(t, f, 10, uuid.NewString())
		require.Equal(t, http.StatusCreated, code)
		require.NotEmpty(t, view.Reference)
		require.Equal(t, "pending_payment", view.Status)

		type pricing struct {
			PricePerSession string
			Subtotal        string
			DiscountPct     string
			DiscountAmount  string
			Total           string
		}
		got := pricing{view.PricePerSession, view.Subtotal, view.DiscountPct, view.DiscountAmount, view.Total}
		want := pricing{"100.00", "1000.00", "15.00", "150.00", "850.00"}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("price breakdown mismatch (-want +got):\n%s", diff)
		}

		require.Equal(t, "reserved", s.slotState(t, f.slotID))
	})

	s.Run("Idempotency: same key and body replays the original booking", func() {
		t := s.T()
		f := s.seedOffer(t)
		key := uuid.NewString()

		first, code := s.createBooking(t, f, 5, key)
		require.Equal(t, http.StatusCreated, code)

		replay, code := s.createBooking(t, f, 5, key)
		require.Equal(t, http.StatusOK, code)
		require.Equal(t, first.ID, replay.ID)

		var count int
		err := s.DB.QueryRow(context.Background(), "SELECT count(*) FROM bookings").Scan(&count)
		require.NoError(t, err)
		require.Equal(t, 1, count, "replay must not create a second booking")
	})

	s.Run("Idempotency: same key with different body is rejected", func() {
		t := s.T()
		f := s.seedOffer(t)
		key := uuid.NewString()

		_, code := s.createBooking(t, f, 5, key)
		require.Equal(t, http.StatusCreated, code)

		_, code = s.createBooking(t, f, 6, key)
		require.Equal(t, http.StatusConflict, code)
	})

	s.Run("Error case: reserved slot cannot be booked again", func() {
		t := s.T()
		f := s.seedOffer(t)

		_, code := s.createBooking(t, f, 5, uuid.NewString())
		require.Equal(t, http.StatusCreated, code)

		other := f
		other.studentID = uuid.New()
		other.token = authtest.TokenFor(t, s.Config.JWT, other.studentID, middleware.RoleStudent)

		_, code = s.createBooking(t, other, 5, uuid.NewString())
		require.Equal(t, http.StatusConflict, code)
	})

	s.Run("Error case: unknown slot yields 404", func() {
		t := s.T()
		f := s.seedOffer(t)
		f.slotID = uuid.New()

		_, code := s.createBooking(t, f, 5, uuid.NewString())
		require.Equal(t, http.StatusNotFound, code)
	})

	s.Run("Error case: course and service together are ambiguous", func() {
		t := s.T()
		f := s.seedOffer(t)
		serviceID := dbtest.CreateTestService(t, s.DB, f.teacherID, "80.00", "USD")

		req := request.CreateBookingRequest{
			SlotID:        f.slotID,
			CourseID:      &f.courseID,
			ServiceID:     &serviceID,
			SessionsCount: 5,
		}
		w := commonhttp.PerformRequestWithHeaders(t, s.Router, http.MethodPost, bookingsURL, req, f.token,
			map[string]string{"Idempotency-Key": uuid.NewString()})
		require.Equal(t, http.StatusBadRequest, w.Code)
	})

	s.Run("Auth test: unauthorized without token", func() {
		t := s.T()
		f := s.seedOffer(t)

		req := request.CreateBookingRequest{SlotID: f.slotID, CourseID: &f.courseID, SessionsCount: 5}
		w := commonhttp.PerformRequestWithHeaders(t, s.Router, http.MethodPost, bookingsURL, req, "",
			map[string]string{"Idempotency-Key": uuid.NewString()})
		require.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

// Exactly one of N racing students may win a slot.
func (s *BookingSuite) TestConcurrentReservation() {
	s.Run("Concurrency: one winner per slot", func() {
		t := s.T()
		f := s.seedOffer(t)

		const racers = 8
		codes := make([]int, racers)
		var wg sync.WaitGroup
		for i := range racers {
			wg.Add(1)
			go func() {
				defer wg.Done()
				racer := f
				racer.studentID = uuid.New()
				racer.token = authtest.TokenFor(t, s.Config.JWT, racer.studentID, middleware.RoleStudent)
				_, codes[i] = s.createBooking(t, racer, 5, uuid.NewString())
			}()
		}
		wg.Wait()

		created := 0
		for _, code := range codes {
			switch code {
			case http.StatusCreated:
				created++
			case http.StatusConflict:
			default:
				t.Fatalf("unexpected status %d", code)
			}
		}
		require.Equal(t, 1, created, "exactly one reservation must win")

		var count int
		err := s.DB.QueryRow(context.Background(), "SELECT count(*) FROM bookings").Scan(&count)
		require.NoError(t, err)
		require.Equal(t, 1, count)
	})
}

func (s *BookingSuite) TestGetAndListBookings() {
	s.Run("Normal case: parties see the booking, others get 404", func() {
		t := s.T()
		f := s.seedOffer(t)

		view, code := s.createBooking(t, f, 5, uuid.NewString())
		require.Equal(t, http.StatusCreated, code)

		detailURL := fmt.Sprintf("%s/%s", bookingsURL, view.ID)

		w := commonhttp.PerformRequest(t, s.Router, http.MethodGet, detailURL, nil, f.token)
		require.Equal(t, http.StatusOK, w.Code)

		teacherToken := authtest.TokenFor(t, s.Config.JWT, f.teacherID, middleware.RoleTeacher)
		w = commonhttp.PerformRequest(t, s.Router, http.MethodGet, detailURL, nil, teacherToken)
		require.Equal(t, http.StatusOK, w.Code)

		strangerToken := authtest.TokenFor(t, s.Config.JWT, uuid.New(), middleware.RoleStudent)
		w = commonhttp.PerformRequest(t, s.Router, http.MethodGet, detailURL, nil, strangerToken)
		require.Equal(t, http.StatusNotFound, w.Code)
	})

	s.Run("Normal case: list returns only the student's bookings", func() {
		t := s.T()
		f := s.seedOffer(t)

		_, code := s.createBooking(t, f, 5, uuid.NewString())
		require.Equal(t, http.StatusCreated, code)

		w := commonhttp.PerformRequest(t, s.Router, http.MethodGet, bookingsURL, nil, f.token)
		require.Equal(t, http.StatusOK, w.Code)
		var items []queries.BookingListItem
		require.NoError(t, commonhttp.DecodeResponseBody(t, w.Body, &items))
		require.Len(t, items, 1)

		strangerToken := authtest.TokenFor(t, s.Config.JWT, uuid.New(), middleware.RoleStudent)
		w = commonhttp.PerformRequest(t, s.Router, http.MethodGet, bookingsURL, nil, strangerToken)
		require.Equal(t, http.StatusOK, w.Code)
		items = nil
		require.NoError(t, commonhttp.DecodeResponseBody(t, w.Body, &items))
		require.Empty(t, items)
	})
}

func (s *BookingSuite) TestCancelBooking() {
	s.Run("Normal case: cancelling releases the slot and records the refund", func() {
		t := s.T()
		f := s.seedOffer(t)

		view, code := s.createBooking(t, f, 5, uuid.NewString())
		require.Equal(t, http.StatusCreated, code)

		cancelURL := fmt.Sprintf("%s/%s/cancel", bookingsURL, view.ID)
		w := commonhttp.PerformRequest(t, s.Router, http.MethodPost, cancelURL, nil, f.token)
		require.Equal(t, http.StatusOK, w.Code)

		var cancelled queries.BookingView
		require.NoError(t, commonhttp.DecodeResponseBody(t, w.Body, &cancelled))
		require.Equal(t, "cancelled", cancelled.Status)
		require.NotNil(t, cancelled.RefundPct)
		require.EqualValues(t, 100, *cancelled.RefundPct)

		require.Equal(t, "free", s.slotState(t, f.slotID))
	})

	s.Run("Normal case: the slot can be booked again after cancellation", func() {
		t := s.T()
		f := s.seedOffer(t)

		view, code := s.createBooking(t, f, 5, uuid.NewString())
		require.Equal(t, http.StatusCreated, code)

		cancelURL := fmt.Sprintf("%s/%s/cancel", bookingsURL, view.ID)
		w := commonhttp.PerformRequest(t, s.Router, http.MethodPost, cancelURL, nil, f.token)
		require.Equal(t, http.StatusOK, w.Code)

		_, code = s.createBooking(t, f, 5, uuid.NewString())
		require.Equal(t, http.StatusCreated, code)
	})

	s.Run("Error case: double cancel is rejected", func() {
		t := s.T()
		f := s.seedOffer(t)

		view, code := s.createBooking(t, f, 5, uuid.NewString())
		require.Equal(t, http.StatusCreated, code)

		cancelURL := fmt.Sprintf("%s/%s/cancel", bookingsURL, view.ID)
		w := commonhttp.PerformRequest(t, s.Router, http.MethodPost, cancelURL, nil, f.token)
		require.Equal(t, http.StatusOK, w.Code)

		w = commonhttp.PerformRequest(t, s.Router, http.MethodPost, cancelURL, nil, f.token)
		require.Equal(t, http.StatusConflict, w.Code)
	})

	s.Run("Error case: a stranger cannot cancel", func() {
		t := s.T()
		f := s.seedOffer(t)

		view, code := s.createBooking(t, f, 5, uuid.NewString())
		require.Equal(t, http.StatusCreated, code)

		strangerToken := authtest.TokenFor(t, s.Config.JWT, uuid.New(), middleware.RoleStudent)
		cancelURL := fmt.Sprintf("%s/%s/cancel", bookingsURL, view.ID)
		w := commonhttp.PerformRequest(t, s.Router, http.MethodPost, cancelURL, nil, strangerToken)
		require.Equal(t, http.StatusForbidden, w.Code)
	})
}
