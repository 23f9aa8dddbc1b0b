package commands

import (
	"context"
	"encoding/json"
	"log/slog"

	"tutorbook/internal/domain/booking"
	"tutorbook/internal/domain/payment"
	"tutorbook/internal/infra"
	"tutorbook/internal/infra/db"
	"tutorbook/internal/pkg/clock"
	"tutorbook/internal/pkg/errs"
	"tutorbook/internal/usecase/queries"
	"tutorbook/internal/usecase/shared"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrPaymentNotFound       = errs.New("payment not found")
	ErrBookingNotPayable     = errs.New("booking is not awaiting payment")
	ErrGatewayUnreachable    = errs.New("payment gateway unreachable")
	ErrUnsupportedMethod     = errs.New("unsupported payment method")
	ErrMissingGatewayRef     = errs.New("gateway response missing transaction reference")
	ErrPaymentNotConfirmable = errs.New("payment attempt cannot be settled")
)

type InitiatePaymentParams struct {
	BookingID uuid.UUID
	Method    payment.Method
	CardToken string
	ReturnURL string
}

type InitiatePaymentResult struct {
	PaymentID   uuid.UUID
	Status      payment.Status
	RedirectURL string
	Booking     *queries.BookingView
}

type CallbackParams struct {
	GatewayRef  string
	Code        string
	Description string
	Raw         []byte
}

type PaymentCommands interface {
	InitiatePayment(ctx context.Context, params InitiatePaymentParams, studentID uuid.UUID) (*InitiatePaymentResult, error)
	HandleCallback(ctx context.Context, params CallbackParams) error
	VerifyPayment(ctx context.Context, gatewayRef string) error
}

type paymentUseCaseImpl struct {
	bookingRepo    BookingRepository
	paymentRepo    PaymentRepository
	outbox         NotificationOutbox
	gateway        PaymentGateway
	materializer   *SessionMaterializer
	bookingQueries queries.BookingQueries
	db             *pgxpool.Pool
	clock          clock.Clock
}

func NewPaymentUseCase(
	bookingRepo BookingRepository,
	paymentRepo PaymentRepository,
	outbox NotificationOutbox,
	gateway PaymentGateway,
	materializer *SessionMaterializer,
	bookingQueries queries.BookingQueries,
	db *pgxpool.Pool,
	clock clock.Clock,
) PaymentCommands {
	return &paymentUseCaseImpl{
		bookingRepo:    bookingRepo,
		paymentRepo:    paymentRepo,
		outbox:         outbox,
		gateway:        gateway,
		materializer:   materializer,
		bookingQueries: bookingQueries,
		db:             db,
		clock:          clock,
	}
}

// InitiatePayment opens a new charge attempt and hands it to the gateway.
// The attempt row is committed before the gateway call so the external
// request never runs while a row lock is held; the outcome is written back
// in a second transaction, or left for the callback when the flow redirects.
func (u *paymentUseCaseImpl) InitiatePayment(
	ctx context.Context,
	params InitiatePaymentParams,
	studentID uuid.UUID,
) (*InitiatePaymentResult, error) {
	if params.Method != payment.MethodCard && params.Method != payment.Method3DS {
		return nil, ErrUnsupportedMethod
	}

	p, payload, err := u.openAttempt(ctx, params, studentID)
	if err != nil {
		return nil, err
	}

	outcome, err := u.executeCharge(ctx, params.Method, payload)
	if err != nil {
		// Transport failure after the attempt row committed. The attempt
		// stays pending and is surfaced as awaiting verification; a later
		// callback or poll settles it.
		slog.Warn("gateway unreachable, payment left pending",
			"payment_id", p.ID(), "booking_id", p.BookingID(), "error", err)
		return nil, errs.Mark(err, ErrGatewayUnreachable)
	}
	if outcome.Reference == "" {
		return nil, ErrMissingGatewayRef
	}

	if err := u.recordOutcome(ctx, p.ID(), outcome); err != nil {
		return nil, err
	}

	status := payment.StatusPending
	if !outcome.RequiresRedirect {
		// Synchronous charge result. Settlement goes through the same
		// idempotent path the webhook uses.
		if err := u.settle(ctx, outcome); err != nil {
			return nil, err
		}
		status = payment.StatusFailed
		if outcome.Success {
			status = payment.StatusPaid
		}
	}

	view, err := u.bookingQueries.GetByID(ctx, p.BookingID())
	if err != nil {
		return nil, errs.Mark(err, ErrDatabaseOperationFailed)
	}

	return &InitiatePaymentResult{
		PaymentID:   p.ID(),
		Status:      status,
		RedirectURL: outcome.RedirectURL,
		Booking:     view,
	}, nil
}

// HandleCallback settles a payment from an asynchronous gateway notification.
// Interpretation of the raw result code is delegated to the gateway adapter.
func (u *paymentUseCaseImpl) HandleCallback(ctx context.Context, params CallbackParams) error {
	if params.GatewayRef == "" {
		return ErrPaymentNotFound
	}
	outcome := u.gateway.Interpret(params.GatewayRef, params.Code, params.Description, params.Raw)
	return u.settle(ctx, outcome)
}

// VerifyPayment polls the gateway for the current state of a pending attempt
// and settles it. Polling is side-effect-free on the gateway side, so the
// adapter retries it with backoff before giving up.
func (u *paymentUseCaseImpl) VerifyPayment(ctx context.Context, gatewayRef string) error {
	outcome, err := u.gateway.PollStatus(ctx, gatewayRef)
	if err != nil {
		return errs.Mark(err, ErrGatewayUnreachable)
	}
	return u.settle(ctx, outcome)
}

func (u *paymentUseCaseImpl) openAttempt(
	ctx context.Context,
	params InitiatePaymentParams,
	studentID uuid.UUID,
) (*payment.Payment, ChargePayload, error) {
	var payload ChargePayload

	p, err := shared.RunInTx(ctx, u.db, func(tx db.DBTX) (*payment.Payment, error) {
		b, err := u.bookingRepo.FindByIDForUpdate(ctx, tx, params.BookingID)
		if err != nil {
			if infra.IsKind(err, infra.KindNotFound) {
				return nil, ErrBookingNotFound
			}
			return nil, errs.Mark(err, ErrDatabaseOperationFailed)
		}
		if b.StudentID() != studentID {
			return nil, ErrNotBookingParty
		}
		if b.Status() != booking.StatusPendingPayment {
			return nil, ErrBookingNotPayable
		}

		attemptNo, err := u.paymentRepo.NextAttemptNo(ctx, tx, b.ID())
		if err != nil {
			return nil, errs.Mark(err, ErrDatabaseOperationFailed)
		}

		p, err := payment.NewPayment(b.ID(), attemptNo, b.Price().Total, b.Currency(), params.Method)
		if err != nil {
			return nil, errs.Mark(err, ErrDomainValidation)
		}
		if err := u.paymentRepo.Create(ctx, tx, p); err != nil {
			return nil, errs.Mark(err, ErrDatabaseOperationFailed)
		}

		payload = ChargePayload{
			BookingReference: b.Reference(),
			Amount:           b.Price().Total.StringFixed(2),
			Currency:         b.Currency(),
			CardToken:        params.CardToken,
			ReturnURL:        params.ReturnURL,
		}
		return p, nil
	})
	if err != nil {
		return nil, ChargePayload{}, err
	}
	return p, payload, nil
}

func (u *paymentUseCaseImpl) executeCharge(ctx context.Context, method payment.Method, payload ChargePayload) (GatewayOutcome, error) {
	if method == payment.Method3DS {
		return u.gateway.Checkout3DS(ctx, payload)
	}
	return u.gateway.Charge(ctx, payload)
}

func (u *paymentUseCaseImpl) recordOutcome(ctx context.Context, paymentID uuid.UUID, outcome GatewayOutcome) error {
	_, err := shared.RunInTx(ctx, u.db, func(tx db.DBTX) (struct{}, error) {
		var zero struct{}

		existing, err := u.paymentRepo.FindByGatewayRefForUpdate(ctx, tx, outcome.Reference)
		switch {
		case err == nil:
			if existing.ID() != paymentID {
				// Reference already claimed by another attempt row.
				return zero, ErrPaymentNotConfirmable
			}
		case !infra.IsKind(err, infra.KindNotFound):
			return zero, errs.Mark(err, ErrDatabaseOperationFailed)
		}

		p, err := u.findAttempt(ctx, tx, paymentID)
		if err != nil {
			return zero, err
		}
		if err := p.AttachGatewayResult(outcome.Reference, outcome.Code, outcome.Raw); err != nil {
			return zero, errs.Mark(err, ErrDomainValidation)
		}
		if err := u.paymentRepo.Save(ctx, tx, p); err != nil {
			return zero, errs.Mark(err, ErrDatabaseOperationFailed)
		}
		return zero, nil
	})
	return err
}

// settle is the single idempotent confirmation path. Direct charges, webhook
// callbacks and status polls all converge here; an attempt that is already
// paid makes the whole call a no-op, so redelivered notifications are safe.
func (u *paymentUseCaseImpl) settle(ctx context.Context, outcome GatewayOutcome) error {
	_, err := shared.RunInTx(ctx, u.db, func(tx db.DBTX) (struct{}, error) {
		var zero struct{}

		p, err := u.paymentRepo.FindByGatewayRefForUpdate(ctx, tx, outcome.Reference)
		if err != nil {
			if infra.IsKind(err, infra.KindNotFound) {
				return zero, ErrPaymentNotFound
			}
			return zero, errs.Mark(err, ErrDatabaseOperationFailed)
		}
		if p.Status() != payment.StatusPending {
			// Already settled by an earlier delivery.
			return zero, nil
		}

		b, err := u.bookingRepo.FindByIDForUpdate(ctx, tx, p.BookingID())
		if err != nil {
			return zero, errs.Mark(err, ErrDatabaseOperationFailed)
		}

		if !outcome.Success {
			if err := p.MarkFailed(); err != nil {
				return zero, errs.Mark(err, ErrPaymentNotConfirmable)
			}
			if err := u.paymentRepo.Save(ctx, tx, p); err != nil {
				return zero, errs.Mark(err, ErrDatabaseOperationFailed)
			}
			// Booking stays pending_payment; the student may retry.
			return zero, u.enqueuePaymentEvent(ctx, tx, "payment.failed", p, outcome.Code)
		}

		if err := p.MarkPaid(); err != nil {
			return zero, errs.Mark(err, ErrPaymentNotConfirmable)
		}
		if err := u.paymentRepo.Save(ctx, tx, p); err != nil {
			return zero, errs.Mark(err, ErrDatabaseOperationFailed)
		}

		if b.Status() == booking.StatusPendingPayment {
			if err := b.Confirm(); err != nil {
				return zero, errs.Mark(err, ErrPaymentNotConfirmable)
			}
			if err := u.bookingRepo.Save(ctx, tx, b); err != nil {
				return zero, errs.Mark(err, ErrDatabaseOperationFailed)
			}
			if err := u.materializer.Materialize(ctx, tx, b); err != nil {
				return zero, errs.Mark(err, ErrDatabaseOperationFailed)
			}
			if err := u.enqueuePaymentEvent(ctx, tx, "booking.confirmed", p, outcome.Code); err != nil {
				return zero, errs.Mark(err, ErrDatabaseOperationFailed)
			}
		}

		return zero, nil
	})
	return err
}

func (u *paymentUseCaseImpl) findAttempt(ctx context.Context, tx db.DBTX, paymentID uuid.UUID) (*payment.Payment, error) {
	p, err := u.paymentRepo.FindByID(ctx, tx, paymentID)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return nil, ErrPaymentNotFound
		}
		return nil, errs.Mark(err, ErrDatabaseOperationFailed)
	}
	return p, nil
}

func (u *paymentUseCaseImpl) enqueuePaymentEvent(ctx context.Context, tx db.DBTX, topic string, p *payment.Payment, code string) error {
	payload, err := json.Marshal(map[string]any{
		"booking_id":   p.BookingID(),
		"payment_id":   p.ID(),
		"attempt_no":   p.AttemptNo(),
		"gateway_code": code,
	})
	if err != nil {
		return err
	}
	return u.outbox.CreateJob(ctx, tx, topic, payload, u.clock.Now())
}
