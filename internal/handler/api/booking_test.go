//go:build unit

package api_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"tutorbook/internal/domain/booking"
	"tutorbook/internal/domain/slot"
	"tutorbook/internal/handler/api"
	"tutorbook/internal/usecase/commands"
	"tutorbook/internal/usecase/queries"
	"tutorbook/tests/common/builder"
	commandsmock "tutorbook/tests/mock/commands"
	queriesmock "tutorbook/tests/mock/queries"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"
)

type BookingHandlerTestSuite struct {
	suite.Suite
	router       *gin.Engine
	mockCtrl     *gomock.Controller
	mockCommands *commandsmock.MockBookingCommands
	mockQueries  *queriesmock.MockBookingQueries
	handler      *api.BookingHandler
	actorID      uuid.UUID
}

func (s *BookingHandlerTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	s.router = gin.New()

	s.mockCtrl = gomock.NewController(s.T())
	s.mockCommands = commandsmock.NewMockBookingCommands(s.mockCtrl)
	s.mockQueries = queriesmock.NewMockBookingQueries(s.mockCtrl)
	s.handler = api.NewBookingHandler(s.mockCommands, s.mockQueries)
	s.actorID = uuid.New()

	// Stub authentication: tests exercise handler logic, not token parsing.
	authStub := func(c *gin.Context) {
		if c.GetHeader("Authorization") == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Access token required"})
			return
		}
		c.Set("user_id", s.actorID)
		c.Next()
	}

	s.router.POST("/bookings", authStub, s.handler.CreateBooking)
	s.router.GET("/bookings", authStub, s.handler.ListBookings)
	s.router.GET("/bookings/:id", authStub, s.handler.GetBooking)
	s.router.POST("/bookings/:id/cancel", authStub, s.handler.CancelBooking)
	s.router.POST("/bookings/:id/sessions/complete", authStub, s.handler.CompleteSession)
}

func (s *BookingHandlerTestSuite) TearDownTest() {
	s.mockCtrl.Finish()
}

func TestBookingHandlerSuite(t *testing.T) {
	suite.Run(t, new(BookingHandlerTestSuite))
}

func (s *BookingHandlerTestSuite) doJSON(method, url string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		s.Require().NoError(json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, url, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer test-token")
	req.Header.Set("Idempotency-Key", uuid.NewString())
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *BookingHandlerTestSuite) TestCreateBooking() {
	b := builder.NewBookingBuilder()
	req := b.BuildCreateRequestDTO()
	view := b.BuildView()

	s.Run("created", func() {
		s.mockCommands.EXPECT().
			CreateBooking(gomock.Any(), gomock.Any(), s.actorID, gomock.Any()).
			Return(&commands.CreateBookingResult{Booking: view, IsReplayed: false}, nil)

		w := s.doJSON(http.MethodPost, "/bookings", req)
		s.Equal(http.StatusCreated, w.Code)
		s.Contains(w.Body.String(), view.Reference)
		s.Contains(w.Body.String(), `"replayed":false`)
	})

	s.Run("replayed request returns 200", func() {
		s.mockCommands.EXPECT().
			CreateBooking(gomock.Any(), gomock.Any(), s.actorID, gomock.Any()).
			Return(&commands.CreateBookingResult{Booking: view, IsReplayed: true}, nil)

		w := s.doJSON(http.MethodPost, "/bookings", req)
		s.Equal(http.StatusOK, w.Code)
		s.Contains(w.Body.String(), `"replayed":true`)
	})

	s.Run("missing idempotency key", func() {
		var buf bytes.Buffer
		s.Require().NoError(json.NewEncoder(&buf).Encode(req))
		r := httptest.NewRequest(http.MethodPost, "/bookings", &buf)
		r.Header.Set("Content-Type", "application/json")
		r.Header.Set("Authorization", "Bearer test-token")
		w := httptest.NewRecorder()
		s.router.ServeHTTP(w, r)
		s.Equal(http.StatusBadRequest, w.Code)
	})

	s.Run("reserved slot maps to 409 with reasons", func() {
		s.mockCommands.EXPECT().
			CreateBooking(gomock.Any(), gomock.Any(), s.actorID, gomock.Any()).
			Return(nil, slot.NewReservationError(slot.ReasonAlreadyReserved, slot.ReasonTeacherMismatch))

		w := s.doJSON(http.MethodPost, "/bookings", req)
		s.Equal(http.StatusConflict, w.Code)
		s.Contains(w.Body.String(), "ALREADY_RESERVED")
		s.Contains(w.Body.String(), "TEACHER_MISMATCH")
	})

	s.Run("unknown slot maps to 404", func() {
		s.mockCommands.EXPECT().
			CreateBooking(gomock.Any(), gomock.Any(), s.actorID, gomock.Any()).
			Return(nil, slot.NewReservationError(slot.ReasonNotFound))

		w := s.doJSON(http.MethodPost, "/bookings", req)
		s.Equal(http.StatusNotFound, w.Code)
	})

	s.Run("offer not found", func() {
		s.mockCommands.EXPECT().
			CreateBooking(gomock.Any(), gomock.Any(), s.actorID, gomock.Any()).
			Return(nil, commands.ErrOfferNotFound)

		w := s.doJSON(http.MethodPost, "/bookings", req)
		s.Equal(http.StatusNotFound, w.Code)
	})

	s.Run("duplicate request with different payload", func() {
		s.mockCommands.EXPECT().
			CreateBooking(gomock.Any(), gomock.Any(), s.actorID, gomock.Any()).
			Return(nil, commands.ErrDuplicateRequest)

		w := s.doJSON(http.MethodPost, "/bookings", req)
		s.Equal(http.StatusConflict, w.Code)
	})

	s.Run("both course and service rejected", func() {
		s.mockCommands.EXPECT().
			CreateBooking(gomock.Any(), gomock.Any(), s.actorID, gomock.Any()).
			Return(nil, commands.ErrInvalidBookingContext)

		w := s.doJSON(http.MethodPost, "/bookings", req)
		s.Equal(http.StatusBadRequest, w.Code)
	})
}

func (s *BookingHandlerTestSuite) TestGetBooking() {
	b := builder.NewBookingBuilder()
	view := b.BuildView()
	view.StudentID = s.actorID

	s.Run("found", func() {
		s.mockQueries.EXPECT().GetByID(gomock.Any(), b.ID).Return(view, nil)

		w := s.doJSON(http.MethodGet, "/bookings/"+b.ID.String(), nil)
		s.Equal(http.StatusOK, w.Code)
		s.Contains(w.Body.String(), view.Reference)
	})

	s.Run("other party's booking hidden", func() {
		foreign := builder.NewBookingBuilder().BuildView()
		s.mockQueries.EXPECT().GetByID(gomock.Any(), gomock.Any()).Return(foreign, nil)

		w := s.doJSON(http.MethodGet, "/bookings/"+uuid.NewString(), nil)
		s.Equal(http.StatusNotFound, w.Code)
	})

	s.Run("invalid id", func() {
		w := s.doJSON(http.MethodGet, "/bookings/not-a-uuid", nil)
		s.Equal(http.StatusBadRequest, w.Code)
	})
}

func (s *BookingHandlerTestSuite) TestCancelBooking() {
	b := builder.NewBookingBuilder()
	cancelled := b.BuildView()
	cancelled.Status = "cancelled"

	s.Run("cancelled with refund", func() {
		s.mockCommands.EXPECT().
			CancelBooking(gomock.Any(), b.ID, s.actorID).
			Return(cancelled, nil)

		w := s.doJSON(http.MethodPost, "/bookings/"+b.ID.String()+"/cancel", nil)
		s.Equal(http.StatusOK, w.Code)
		s.Contains(w.Body.String(), `"status":"cancelled"`)
	})

	s.Run("window closed", func() {
		s.mockCommands.EXPECT().
			CancelBooking(gomock.Any(), b.ID, s.actorID).
			Return(nil, booking.ErrCancelWindowClosed)

		w := s.doJSON(http.MethodPost, "/bookings/"+b.ID.String()+"/cancel", nil)
		s.Equal(http.StatusUnprocessableEntity, w.Code)
	})

	s.Run("already cancelled", func() {
		s.mockCommands.EXPECT().
			CancelBooking(gomock.Any(), b.ID, s.actorID).
			Return(nil, booking.ErrInvalidTransition)

		w := s.doJSON(http.MethodPost, "/bookings/"+b.ID.String()+"/cancel", nil)
		s.Equal(http.StatusConflict, w.Code)
	})

	s.Run("not a party", func() {
		s.mockCommands.EXPECT().
			CancelBooking(gomock.Any(), b.ID, s.actorID).
			Return(nil, commands.ErrNotBookingParty)

		w := s.doJSON(http.MethodPost, "/bookings/"+b.ID.String()+"/cancel", nil)
		s.Equal(http.StatusForbidden, w.Code)
	})
}

func (s *BookingHandlerTestSuite) TestCompleteSession() {
	b := builder.NewBookingBuilder()
	inProgress := b.BuildView()
	inProgress.Status = "in_progress"
	inProgress.SessionsCompleted = 1

	s.Run("first completion moves to in_progress", func() {
		s.mockCommands.EXPECT().
			CompleteSession(gomock.Any(), b.ID, s.actorID).
			Return(inProgress, nil)

		w := s.doJSON(http.MethodPost, "/bookings/"+b.ID.String()+"/sessions/complete", nil)
		s.Equal(http.StatusOK, w.Code)
		s.Contains(w.Body.String(), `"status":"in_progress"`)
	})

	s.Run("all sessions done", func() {
		s.mockCommands.EXPECT().
			CompleteSession(gomock.Any(), b.ID, s.actorID).
			Return(nil, booking.ErrAlreadyCompleted)

		w := s.doJSON(http.MethodPost, "/bookings/"+b.ID.String()+"/sessions/complete", nil)
		s.Equal(http.StatusConflict, w.Code)
	})
}

func (s *BookingHandlerTestSuite) TestListBookings() {
	item := builder.NewBookingBuilder().BuildListItem()

	s.Run("returns own bookings", func() {
		s.mockQueries.EXPECT().
			ListByStudent(gomock.Any(), s.actorID, 0).
			Return([]*queries.BookingListItem{item}, nil)

		w := s.doJSON(http.MethodGet, "/bookings", nil)
		s.Equal(http.StatusOK, w.Code)
		s.Contains(w.Body.String(), item.Reference)
	})

	s.Run("limit forwarded", func() {
		s.mockQueries.EXPECT().
			ListByStudent(gomock.Any(), s.actorID, 5).
			Return([]*queries.BookingListItem{}, nil)

		w := s.doJSON(http.MethodGet, "/bookings?limit=5", nil)
		s.Equal(http.StatusOK, w.Code)
	})
}
