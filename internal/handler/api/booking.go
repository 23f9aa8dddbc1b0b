package api

import (
	"errors"
	"net/http"
	"strconv"

	"tutorbook/internal/domain/booking"
	"tutorbook/internal/domain/slot"
	reqdto "tutorbook/internal/handler/dto/request"
	resdto "tutorbook/internal/handler/dto/response"
	"tutorbook/internal/handler/httperr"
	"tutorbook/internal/handler/middleware"
	"tutorbook/internal/usecase/commands"
	"tutorbook/internal/usecase/queries"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type BookingHandler struct {
	bookingCommands commands.BookingCommands
	bookingQueries  queries.BookingQueries
}

func NewBookingHandler(bookingCommands commands.BookingCommands, bookingQueries queries.BookingQueries) *BookingHandler {
	return &BookingHandler{
		bookingCommands: bookingCommands,
		bookingQueries:  bookingQueries,
	}
}

// @Summary Create booking
// @Description Reserve a slot and open a booking awaiting payment
// @Tags bookings
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param Idempotency-Key header string true "Idempotency key for duplicate prevention"
// @Param request body reqdto.CreateBookingRequest true "Booking request"
// @Success 201 {object} resdto.CreateBookingResponse
// @Failure 400 {object} httperr.Response
// @Failure 404 {object} httperr.Response
// @Failure 409 {object} httperr.Response
// @Failure 422 {object} httperr.Response
// @Router /bookings [post]
func (h *BookingHandler) CreateBooking(c *gin.Context) {
	studentID, ok := middleware.GetUserID(c)
	if !ok {
		httperr.AbortWithError(c, http.StatusInternalServerError, errors.New("missing user context"), "Internal server error", nil)
		return
	}

	idempotencyKey, err := parseIdempotencyKey(c)
	if err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, err.Error(), nil)
		return
	}

	var req reqdto.CreateBookingRequest
	if bindErr := c.ShouldBindJSON(&req); bindErr != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, bindErr, "Invalid request format", nil)
		return
	}

	result, err := h.bookingCommands.CreateBooking(c.Request.Context(), commands.CreateBookingParams{
		SlotID:        req.SlotID,
		CourseID:      req.CourseID,
		ServiceID:     req.ServiceID,
		SessionsCount: req.SessionsCount,
	}, studentID, idempotencyKey)
	if err != nil {
		h.abortCreateError(c, err)
		return
	}

	status := http.StatusCreated
	if result.IsReplayed {
		status = http.StatusOK
	}
	c.JSON(status, resdto.CreateBookingResponse{
		BookingView: result.Booking,
		Replayed:    result.IsReplayed,
	})
}

func (h *BookingHandler) abortCreateError(c *gin.Context, err error) {
	if resErr, ok := slot.AsReservationError(err); ok {
		if len(resErr.Reasons) == 1 && resErr.Reasons.Contains(slot.ReasonNotFound) {
			httperr.AbortWithError(c, http.StatusNotFound, err, "Slot not found", nil)
			return
		}
		httperr.AbortWithError(c, http.StatusConflict, err, "Slot cannot be reserved",
			gin.H{"reasons": resErr.Reasons.Strings()})
		return
	}

	switch {
	case errors.Is(err, commands.ErrInvalidBookingContext):
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Exactly one of course_id or service_id is required", nil)
	case errors.Is(err, commands.ErrOfferNotFound):
		httperr.AbortWithError(c, http.StatusNotFound, err, "Course or service not found", nil)
	case errors.Is(err, commands.ErrDuplicateRequest):
		httperr.AbortWithError(c, http.StatusConflict, err, "Duplicate request with different parameters", nil)
	case errors.Is(err, commands.ErrIdempotencyInProgress):
		httperr.AbortWithError(c, http.StatusConflict, err, "Request is currently being processed", nil)
	case errors.Is(err, commands.ErrBookingConflict):
		httperr.AbortWithError(c, http.StatusConflict, err, "Booking conflict", nil)
	case errors.Is(err, commands.ErrDomainValidation):
		httperr.AbortWithError(c, http.StatusUnprocessableEntity, err, "Validation failed", nil)
	default:
		httperr.AbortWithError(c, http.StatusInternalServerError, err, "Internal server error", nil)
	}
}

// @Summary Get booking
// @Description Booking detail with payment attempts and sessions
// @Tags bookings
// @Produce json
// @Security BearerAuth
// @Param id path string true "Booking ID"
// @Success 200 {object} queries.BookingView
// @Failure 404 {object} httperr.Response
// @Router /bookings/{id} [get]
func (h *BookingHandler) GetBooking(c *gin.Context) {
	actorID, ok := middleware.GetUserID(c)
	if !ok {
		httperr.AbortWithError(c, http.StatusInternalServerError, errors.New("missing user context"), "Internal server error", nil)
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid booking ID format", nil)
		return
	}

	view, err := h.bookingQueries.GetByID(c.Request.Context(), id)
	if err != nil {
		httperr.AbortWithError(c, http.StatusNotFound, err, "Booking not found", nil)
		return
	}
	if view.StudentID != actorID && view.TeacherID != actorID {
		httperr.AbortWithError(c, http.StatusNotFound, commands.ErrNotBookingParty, "Booking not found", nil)
		return
	}

	c.JSON(http.StatusOK, view)
}

// @Summary List bookings
// @Description Bookings of the current student, newest first
// @Tags bookings
// @Produce json
// @Security BearerAuth
// @Param limit query int false "Page size"
// @Success 200 {array} queries.BookingListItem
// @Router /bookings [get]
func (h *BookingHandler) ListBookings(c *gin.Context) {
	studentID, ok := middleware.GetUserID(c)
	if !ok {
		httperr.AbortWithError(c, http.StatusInternalServerError, errors.New("missing user context"), "Internal server error", nil)
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))
	items, err := h.bookingQueries.ListByStudent(c.Request.Context(), studentID, limit)
	if err != nil {
		httperr.AbortWithError(c, http.StatusInternalServerError, err, "Internal server error", nil)
		return
	}
	c.JSON(http.StatusOK, items)
}

// @Summary Cancel booking
// @Description Cancel with tiered refund; rejected inside the 24h window
// @Tags bookings
// @Produce json
// @Security BearerAuth
// @Param id path string true "Booking ID"
// @Success 200 {object} queries.BookingView
// @Failure 403 {object} httperr.Response
// @Failure 404 {object} httperr.Response
// @Failure 409 {object} httperr.Response
// @Failure 422 {object} httperr.Response
// @Router /bookings/{id}/cancel [post]
func (h *BookingHandler) CancelBooking(c *gin.Context) {
	actorID, ok := middleware.GetUserID(c)
	if !ok {
		httperr.AbortWithError(c, http.StatusInternalServerError, errors.New("missing user context"), "Internal server error", nil)
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid booking ID format", nil)
		return
	}

	view, err := h.bookingCommands.CancelBooking(c.Request.Context(), id, actorID)
	if err != nil {
		switch {
		case errors.Is(err, commands.ErrBookingNotFound):
			httperr.AbortWithError(c, http.StatusNotFound, err, "Booking not found", nil)
		case errors.Is(err, commands.ErrNotBookingParty):
			httperr.AbortWithError(c, http.StatusForbidden, err, "Not a party to this booking", nil)
		case errors.Is(err, booking.ErrCancelWindowClosed):
			httperr.AbortWithError(c, http.StatusUnprocessableEntity, err, "Cancellation window has closed", nil)
		case errors.Is(err, booking.ErrInvalidTransition):
			httperr.AbortWithError(c, http.StatusConflict, err, "Booking cannot be cancelled in its current state", nil)
		default:
			httperr.AbortWithError(c, http.StatusInternalServerError, err, "Internal server error", nil)
		}
		return
	}

	c.JSON(http.StatusOK, view)
}

// @Summary Complete session
// @Description Mark the next scheduled session of a booking as held
// @Tags bookings
// @Produce json
// @Security BearerAuth
// @Param id path string true "Booking ID"
// @Success 200 {object} queries.BookingView
// @Failure 403 {object} httperr.Response
// @Failure 404 {object} httperr.Response
// @Failure 409 {object} httperr.Response
// @Router /bookings/{id}/sessions/complete [post]
func (h *BookingHandler) CompleteSession(c *gin.Context) {
	actorID, ok := middleware.GetUserID(c)
	if !ok {
		httperr.AbortWithError(c, http.StatusInternalServerError, errors.New("missing user context"), "Internal server error", nil)
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid booking ID format", nil)
		return
	}

	view, err := h.bookingCommands.CompleteSession(c.Request.Context(), id, actorID)
	if err != nil {
		switch {
		case errors.Is(err, commands.ErrBookingNotFound):
			httperr.AbortWithError(c, http.StatusNotFound, err, "Booking not found", nil)
		case errors.Is(err, commands.ErrNotBookingParty):
			httperr.AbortWithError(c, http.StatusForbidden, err, "Only the teacher can complete sessions", nil)
		case errors.Is(err, booking.ErrNotConfirmed), errors.Is(err, booking.ErrInvalidTransition):
			httperr.AbortWithError(c, http.StatusConflict, err, "Booking has no session to complete", nil)
		case errors.Is(err, booking.ErrAlreadyCompleted):
			httperr.AbortWithError(c, http.StatusConflict, err, "All sessions already completed", nil)
		default:
			httperr.AbortWithError(c, http.StatusInternalServerError, err, "Internal server error", nil)
		}
		return
	}

	c.JSON(http.StatusOK, view)
}

func parseIdempotencyKey(c *gin.Context) (uuid.UUID, error) {
	keyStr := c.GetHeader("Idempotency-Key")
	if keyStr == "" {
		return uuid.Nil, errors.New("Idempotency-Key header is required")
	}
	key, err := uuid.Parse(keyStr)
	if err != nil {
		return uuid.Nil, errors.New("invalid idempotency key format")
	}
	return key, nil
}
