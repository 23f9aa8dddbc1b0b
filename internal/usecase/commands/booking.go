package commands

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"tutorbook/internal/domain/booking"
	"tutorbook/internal/infra"
	"tutorbook/internal/infra/db"
	"tutorbook/internal/pkg/clock"
	"tutorbook/internal/pkg/errs"
	"tutorbook/internal/pkg/reference"
	"tutorbook/internal/usecase/queries"
	"tutorbook/internal/usecase/shared"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrOfferNotFound           = errs.New("course or service not found")
	ErrBookingNotFound         = errs.New("booking not found")
	ErrNotBookingParty         = errs.New("actor is not a party to this booking")
	ErrInvalidBookingContext   = errs.New("exactly one of course_id or service_id is required")
	ErrBookingConflict         = errs.New("booking conflict")
	ErrDuplicateRequest        = errs.New("duplicate request with different payload")
	ErrIdempotencyInProgress   = errs.New("idempotency in progress")
	ErrIdempotencyCheckFailed  = errs.New("idempotency check failed")
	ErrDomainValidation        = errs.New("domain validation error")
	ErrDatabaseOperationFailed = errs.New("database operation failed")
)

const (
	idempotencyTTL = 24 * time.Hour

	// Reservation bursts on a hot slot can deadlock on the slot row; the
	// losing transactions are retried rather than surfaced to the client.
	maxTxRetries = 3
)

type CreateBookingParams struct {
	SlotID        uuid.UUID  `json:"slot_id"`
	CourseID      *uuid.UUID `json:"course_id,omitempty"`
	ServiceID     *uuid.UUID `json:"service_id,omitempty"`
	SessionsCount int        `json:"sessions_count"`
}

type CreateBookingResult struct {
	Booking    *queries.BookingView
	IsReplayed bool
}

type BookingCommands interface {
	CreateBooking(ctx context.Context, params CreateBookingParams, studentID, idempotencyKey uuid.UUID) (*CreateBookingResult, error)
	CancelBooking(ctx context.Context, bookingID, actorID uuid.UUID) (*queries.BookingView, error)
	CompleteSession(ctx context.Context, bookingID, actorID uuid.UUID) (*queries.BookingView, error)
}

type bookingUseCaseImpl struct {
	slotRepo        SlotRepository
	bookingRepo     BookingRepository
	sessionRepo     SessionRepository
	catalogRepo     CatalogRepository
	idempotencyRepo IdempotencyRepository
	outbox          NotificationOutbox
	bookingQueries  queries.BookingQueries
	db              *pgxpool.Pool
	clock           clock.Clock
}

func NewBookingUseCase(
	slotRepo SlotRepository,
	bookingRepo BookingRepository,
	sessionRepo SessionRepository,
	catalogRepo CatalogRepository,
	idempotencyRepo IdempotencyRepository,
	outbox NotificationOutbox,
	bookingQueries queries.BookingQueries,
	db *pgxpool.Pool,
	clock clock.Clock,
) BookingCommands {
	return &bookingUseCaseImpl{
		slotRepo:        slotRepo,
		bookingRepo:     bookingRepo,
		sessionRepo:     sessionRepo,
		catalogRepo:     catalogRepo,
		idempotencyRepo: idempotencyRepo,
		outbox:          outbox,
		bookingQueries:  bookingQueries,
		db:              db,
		clock:           clock,
	}
}

func (u *bookingUseCaseImpl) CreateBooking(
	ctx context.Context,
	params CreateBookingParams,
	studentID, idempotencyKey uuid.UUID,
) (*CreateBookingResult, error) {
	requestHash := calculateRequestHash(params)
	expiresAt := u.clock.Now().Add(idempotencyTTL)

	replayed, err := u.handleIdempotency(ctx, idempotencyKey, studentID, requestHash, expiresAt)
	if err != nil {
		return nil, err
	}
	if replayed != nil {
		return &CreateBookingResult{Booking: replayed, IsReplayed: true}, nil
	}

	view, err := u.createNewBooking(ctx, params, studentID, idempotencyKey)
	if err != nil {
		return nil, err
	}
	return &CreateBookingResult{Booking: view, IsReplayed: false}, nil
}

func (u *bookingUseCaseImpl) handleIdempotency(
	ctx context.Context,
	idempotencyKey, studentID uuid.UUID,
	requestHash string,
	expiresAt time.Time,
) (*queries.BookingView, error) {
	if err := u.idempotencyRepo.TryInsert(ctx, u.db, idempotencyKey, studentID, "POST /bookings", requestHash, expiresAt); err != nil {
		return nil, errs.Mark(err, ErrIdempotencyCheckFailed)
	}

	existing, err := u.idempotencyRepo.Get(ctx, u.db, idempotencyKey, studentID)
	if err != nil {
		return nil, errs.Mark(err, ErrIdempotencyCheckFailed)
	}

	switch existing.Status {
	case "completed":
		if existing.ResultBookingID == nil {
			return nil, errs.New("completed request missing result booking ID")
		}
		return u.bookingQueries.GetByID(ctx, *existing.ResultBookingID)

	case "processing":
		if existing.RequestHash != requestHash {
			return nil, ErrDuplicateRequest
		}
		return nil, ErrIdempotencyInProgress

	default:
		return nil, errs.New("invalid idempotency key status")
	}
}

func (u *bookingUseCaseImpl) createNewBooking(
	ctx context.Context,
	params CreateBookingParams,
	studentID, idempotencyKey uuid.UUID,
) (*queries.BookingView, error) {
	bctx, err := resolveContext(params)
	if err != nil {
		return nil, err
	}

	offer, err := u.catalogRepo.FindOffer(ctx, u.db, bctx.Kind(), bctx.ID())
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return nil, ErrOfferNotFound
		}
		return nil, errs.Mark(err, ErrDatabaseOperationFailed)
	}

	now := u.clock.Now()

	bookingID, err := shared.RunInTxWithRetry(ctx, u.db, maxTxRetries, func(tx db.DBTX) (uuid.UUID, error) {
		// Row lock held until commit. Everything between the lock and the
		// commit is pure computation plus local writes, never a network call.
		sl, err := u.slotRepo.LockForReserve(ctx, tx, params.SlotID, offer.TeacherID)
		if err != nil {
			return uuid.Nil, err
		}

		price, err := booking.Quote(offer.PricePerHour, sl.DurationMin(), params.SessionsCount)
		if err != nil {
			return uuid.Nil, errs.Mark(err, ErrDomainValidation)
		}

		b, err := booking.NewBooking(
			reference.NewBookingReference(now),
			studentID,
			offer.TeacherID,
			bctx,
			sl.ID(),
			price,
			offer.Currency,
			sl.NextOccurrence(now),
			sl.DurationMin(),
			now,
		)
		if err != nil {
			return uuid.Nil, errs.Mark(err, ErrDomainValidation)
		}

		if err := u.bookingRepo.Create(ctx, tx, b); err != nil {
			if infra.IsKind(err, infra.KindDuplicateKey) {
				return uuid.Nil, ErrBookingConflict
			}
			return uuid.Nil, errs.Mark(err, ErrDatabaseOperationFailed)
		}

		if err := u.slotRepo.Bind(ctx, tx, sl.ID(), b.ID()); err != nil {
			return uuid.Nil, err
		}

		if err := u.enqueueBookingEvent(ctx, tx, "booking.created", b.ID(), nil); err != nil {
			return uuid.Nil, errs.Mark(err, ErrDatabaseOperationFailed)
		}

		if err := u.idempotencyRepo.MarkCompleted(ctx, tx, idempotencyKey, studentID, b.ID()); err != nil {
			return uuid.Nil, errs.Mark(err, ErrDatabaseOperationFailed)
		}

		return b.ID(), nil
	})
	if err != nil {
		return nil, err
	}

	view, err := u.bookingQueries.GetByID(ctx, bookingID)
	if err != nil {
		return nil, errs.Mark(err, ErrDatabaseOperationFailed)
	}
	return view, nil
}

func (u *bookingUseCaseImpl) CancelBooking(ctx context.Context, bookingID, actorID uuid.UUID) (*queries.BookingView, error) {
	_, err := shared.RunInTx(ctx, u.db, func(tx db.DBTX) (struct{}, error) {
		var zero struct{}

		b, err := u.bookingRepo.FindByIDForUpdate(ctx, tx, bookingID)
		if err != nil {
			if infra.IsKind(err, infra.KindNotFound) {
				return zero, ErrBookingNotFound
			}
			return zero, errs.Mark(err, ErrDatabaseOperationFailed)
		}
		if b.StudentID() != actorID && b.TeacherID() != actorID {
			return zero, ErrNotBookingParty
		}

		if err := b.Cancel(u.clock.Now()); err != nil {
			return zero, err
		}

		if err := u.bookingRepo.Save(ctx, tx, b); err != nil {
			return zero, errs.Mark(err, ErrDatabaseOperationFailed)
		}
		if err := u.slotRepo.Release(ctx, tx, b.SlotID()); err != nil {
			return zero, errs.Mark(err, ErrDatabaseOperationFailed)
		}
		if err := u.sessionRepo.CancelScheduledByBooking(ctx, tx, b.ID()); err != nil {
			return zero, errs.Mark(err, ErrDatabaseOperationFailed)
		}

		payload := map[string]any{}
		if pct := b.RefundPct(); pct != nil {
			payload["refund_pct"] = *pct
		}
		if amount := b.RefundAmount(); amount != nil {
			payload["refund_amount"] = amount.StringFixed(2)
		}
		if err := u.enqueueBookingEvent(ctx, tx, "booking.cancelled", b.ID(), payload); err != nil {
			return zero, errs.Mark(err, ErrDatabaseOperationFailed)
		}

		return zero, nil
	})
	if err != nil {
		return nil, err
	}

	return u.bookingQueries.GetByID(ctx, bookingID)
}

func (u *bookingUseCaseImpl) CompleteSession(ctx context.Context, bookingID, actorID uuid.UUID) (*queries.BookingView, error) {
	_, err := shared.RunInTx(ctx, u.db, func(tx db.DBTX) (struct{}, error) {
		var zero struct{}

		b, err := u.bookingRepo.FindByIDForUpdate(ctx, tx, bookingID)
		if err != nil {
			if infra.IsKind(err, infra.KindNotFound) {
				return zero, ErrBookingNotFound
			}
			return zero, errs.Mark(err, ErrDatabaseOperationFailed)
		}
		if b.TeacherID() != actorID {
			return zero, ErrNotBookingParty
		}

		sess, err := u.sessionRepo.FindOldestScheduledForUpdate(ctx, tx, b.ID())
		if err != nil {
			if infra.IsKind(err, infra.KindNotFound) {
				return zero, booking.ErrAlreadyCompleted
			}
			return zero, errs.Mark(err, ErrDatabaseOperationFailed)
		}

		if err := b.CompleteSession(); err != nil {
			return zero, err
		}
		if err := sess.Complete(); err != nil {
			return zero, err
		}

		if err := u.sessionRepo.Save(ctx, tx, sess); err != nil {
			return zero, errs.Mark(err, ErrDatabaseOperationFailed)
		}
		if err := u.bookingRepo.Save(ctx, tx, b); err != nil {
			return zero, errs.Mark(err, ErrDatabaseOperationFailed)
		}

		if b.Status() == booking.StatusCompleted {
			if err := u.enqueueBookingEvent(ctx, tx, "booking.completed", b.ID(), nil); err != nil {
				return zero, errs.Mark(err, ErrDatabaseOperationFailed)
			}
		}

		return zero, nil
	})
	if err != nil {
		return nil, err
	}

	return u.bookingQueries.GetByID(ctx, bookingID)
}

func (u *bookingUseCaseImpl) enqueueBookingEvent(ctx context.Context, tx db.DBTX, topic string, bookingID uuid.UUID, extra map[string]any) error {
	body := map[string]any{"booking_id": bookingID}
	for k, v := range extra {
		body[k] = v
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	return u.outbox.CreateJob(ctx, tx, topic, payload, u.clock.Now())
}

func resolveContext(params CreateBookingParams) (booking.Context, error) {
	switch {
	case params.CourseID != nil && params.ServiceID == nil:
		bctx, err := booking.NewCourseContext(*params.CourseID)
		if err != nil {
			return booking.Context{}, ErrInvalidBookingContext
		}
		return bctx, nil
	case params.ServiceID != nil && params.CourseID == nil:
		bctx, err := booking.NewServiceContext(*params.ServiceID)
		if err != nil {
			return booking.Context{}, ErrInvalidBookingContext
		}
		return bctx, nil
	default:
		return booking.Context{}, ErrInvalidBookingContext
	}
}

func calculateRequestHash(params CreateBookingParams) string {
	data, _ := json.Marshal(params)
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}
