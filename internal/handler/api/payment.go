package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"tutorbook/internal/domain/payment"
	reqdto "tutorbook/internal/handler/dto/request"
	resdto "tutorbook/internal/handler/dto/response"
	"tutorbook/internal/handler/httperr"
	"tutorbook/internal/handler/middleware"
	"tutorbook/internal/usecase/commands"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type PaymentHandler struct {
	paymentCommands commands.PaymentCommands
}

func NewPaymentHandler(paymentCommands commands.PaymentCommands) *PaymentHandler {
	return &PaymentHandler{paymentCommands: paymentCommands}
}

// @Summary Initiate payment
// @Description Open a charge attempt for a pending booking; direct charge or 3DS redirect
// @Tags payments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Booking ID"
// @Param request body reqdto.InitiatePaymentRequest true "Payment request"
// @Success 200 {object} resdto.InitiatePaymentResponse
// @Failure 400 {object} httperr.Response
// @Failure 403 {object} httperr.Response
// @Failure 404 {object} httperr.Response
// @Failure 409 {object} httperr.Response
// @Failure 502 {object} httperr.Response
// @Router /bookings/{id}/payments [post]
func (h *PaymentHandler) InitiatePayment(c *gin.Context) {
	studentID, ok := middleware.GetUserID(c)
	if !ok {
		httperr.AbortWithError(c, http.StatusInternalServerError, errors.New("missing user context"), "Internal server error", nil)
		return
	}

	bookingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid booking ID format", nil)
		return
	}

	var req reqdto.InitiatePaymentRequest
	if bindErr := c.ShouldBindJSON(&req); bindErr != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, bindErr, "Invalid request format", nil)
		return
	}

	result, err := h.paymentCommands.InitiatePayment(c.Request.Context(), commands.InitiatePaymentParams{
		BookingID: bookingID,
		Method:    payment.Method(req.Method),
		CardToken: req.CardToken,
		ReturnURL: req.ReturnURL,
	}, studentID)
	if err != nil {
		switch {
		case errors.Is(err, commands.ErrBookingNotFound):
			httperr.AbortWithError(c, http.StatusNotFound, err, "Booking not found", nil)
		case errors.Is(err, commands.ErrNotBookingParty):
			httperr.AbortWithError(c, http.StatusForbidden, err, "Only the booking's student can pay", nil)
		case errors.Is(err, commands.ErrBookingNotPayable):
			httperr.AbortWithError(c, http.StatusConflict, err, "Booking is not awaiting payment", nil)
		case errors.Is(err, commands.ErrUnsupportedMethod):
			httperr.AbortWithError(c, http.StatusBadRequest, err, "Unsupported payment method", nil)
		case errors.Is(err, commands.ErrGatewayUnreachable), errors.Is(err, commands.ErrMissingGatewayRef):
			httperr.AbortWithError(c, http.StatusBadGateway, err, "Payment pending verification", nil)
		default:
			httperr.AbortWithError(c, http.StatusInternalServerError, err, "Internal server error", nil)
		}
		return
	}

	c.JSON(http.StatusOK, resdto.InitiatePaymentResponse{
		PaymentID:   result.PaymentID,
		Status:      string(result.Status),
		RedirectURL: result.RedirectURL,
		Booking:     result.Booking,
	})
}

// @Summary Payment callback
// @Description Gateway webhook delivering the final result of a charge; idempotent
// @Tags payments
// @Accept json
// @Produce json
// @Param request body reqdto.PaymentCallbackRequest true "Gateway notification"
// @Success 200 {object} map[string]string
// @Failure 404 {object} httperr.Response
// @Router /payments/callback [post]
func (h *PaymentHandler) HandleCallback(c *gin.Context) {
	// The raw body is kept verbatim as the audit record on the attempt.
	raw, err := c.GetRawData()
	if err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid request body", nil)
		return
	}

	var req reqdto.PaymentCallbackRequest
	if bindErr := json.Unmarshal(raw, &req); bindErr != nil || req.TranRef == "" {
		httperr.AbortWithError(c, http.StatusBadRequest, errors.New("malformed callback"), "Invalid request format", nil)
		return
	}

	err = h.paymentCommands.HandleCallback(c.Request.Context(), commands.CallbackParams{
		GatewayRef:  req.TranRef,
		Code:        req.Result.ResponseCode,
		Description: req.Result.ResponseMessage,
		Raw:         raw,
	})
	if err != nil {
		if errors.Is(err, commands.ErrPaymentNotFound) {
			httperr.AbortWithError(c, http.StatusNotFound, err, "Unknown transaction reference", nil)
			return
		}
		httperr.AbortWithError(c, http.StatusInternalServerError, err, "Internal server error", nil)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// @Summary Verify payment
// @Description Poll the gateway for a pending attempt and settle it
// @Tags payments
// @Produce json
// @Security BearerAuth
// @Param ref path string true "Gateway transaction reference"
// @Success 200 {object} map[string]string
// @Failure 404 {object} httperr.Response
// @Failure 502 {object} httperr.Response
// @Router /payments/{ref}/verify [post]
func (h *PaymentHandler) VerifyPayment(c *gin.Context) {
	ref := c.Param("ref")
	if ref == "" {
		httperr.AbortWithError(c, http.StatusBadRequest, errors.New("missing reference"), "Transaction reference is required", nil)
		return
	}

	err := h.paymentCommands.VerifyPayment(c.Request.Context(), ref)
	if err != nil {
		switch {
		case errors.Is(err, commands.ErrPaymentNotFound):
			httperr.AbortWithError(c, http.StatusNotFound, err, "Unknown transaction reference", nil)
		case errors.Is(err, commands.ErrGatewayUnreachable):
			httperr.AbortWithError(c, http.StatusBadGateway, err, "Payment pending verification", nil)
		default:
			httperr.AbortWithError(c, http.StatusInternalServerError, err, "Internal server error", nil)
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
