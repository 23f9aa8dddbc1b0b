package repository

import (
	"context"
	"time"

	"tutorbook/internal/domain/payment"
	"tutorbook/internal/infra"
	"tutorbook/internal/infra/db"
	"tutorbook/internal/pkg/pgconv"

	"github.com/google/uuid"
)

type PaymentRepository struct{}

func NewPaymentRepository() *PaymentRepository {
	return &PaymentRepository{}
}

const paymentColumns = `id, booking_id, attempt_no, amount::text, currency, method, status,
	gateway_ref, gateway_code, gateway_response, created_at, updated_at`

func scanPayment(row interface{ Scan(...any) error }) (*payment.Payment, error) {
	var (
		id, bookingID            uuid.UUID
		attemptNo                int
		amountText               string
		currency, method, status string
		gatewayRef, gatewayCode  *string
		gatewayResponse          []byte
		createdAt, updatedAt     time.Time
	)
	err := row.Scan(&id, &bookingID, &attemptNo, &amountText, &currency, &method, &status,
		&gatewayRef, &gatewayCode, &gatewayResponse, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	amount, err := pgconv.DecimalFromText(amountText)
	if err != nil {
		return nil, err
	}

	return payment.ReconstructPayment(
		id, bookingID, attemptNo, amount, currency,
		payment.Method(method), payment.Status(status),
		gatewayRef, gatewayCode, gatewayResponse,
		createdAt, updatedAt,
	), nil
}

func (r *PaymentRepository) Create(ctx context.Context, tx db.DBTX, p *payment.Payment) error {
	_, err := tx.Exec(ctx,
		`INSERT INTO payments (id, booking_id, attempt_no, amount, currency, method, status, gateway_ref, gateway_code, gateway_response)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		p.ID(), p.BookingID(), p.AttemptNo(), pgconv.TextFromDecimal(p.Amount()), p.Currency(),
		string(p.Method()), string(p.Status()), p.GatewayRef(), p.GatewayCode(), p.GatewayResponse(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return infra.WrapRepoErr("payment attempt already recorded", err, infra.KindDuplicateKey)
		}
		return infra.WrapRepoErr("failed to create payment", err)
	}
	return nil
}

// NextAttemptNo allocates the next attempt number for a booking. The caller
// must hold the booking row lock so two concurrent initiations cannot collide;
// the (booking_id, attempt_no) unique index backstops that assumption.
func (r *PaymentRepository) NextAttemptNo(ctx context.Context, tx db.DBTX, bookingID uuid.UUID) (int, error) {
	var next int
	err := tx.QueryRow(ctx,
		`SELECT COALESCE(MAX(attempt_no), 0) + 1 FROM payments WHERE booking_id = $1`,
		bookingID,
	).Scan(&next)
	if err != nil {
		return 0, infra.WrapRepoErr("failed to allocate attempt number", err)
	}
	return next, nil
}

func (r *PaymentRepository) FindByID(ctx context.Context, dbtx db.DBTX, id uuid.UUID) (*payment.Payment, error) {
	row := dbtx.QueryRow(ctx, `SELECT `+paymentColumns+` FROM payments WHERE id = $1`, id)
	p, err := scanPayment(row)
	if err != nil {
		if isNoRows(err) {
			return nil, infra.WrapRepoErr("payment not found", err, infra.KindNotFound)
		}
		return nil, infra.WrapRepoErr("failed to find payment", err)
	}
	return p, nil
}

// FindByGatewayRefForUpdate locks the payment row addressed by an external
// gateway reference. Duplicate webhook deliveries serialize here.
func (r *PaymentRepository) FindByGatewayRefForUpdate(ctx context.Context, tx db.DBTX, gatewayRef string) (*payment.Payment, error) {
	row := tx.QueryRow(ctx, `SELECT `+paymentColumns+` FROM payments WHERE gateway_ref = $1 FOR UPDATE`, gatewayRef)
	p, err := scanPayment(row)
	if err != nil {
		if isNoRows(err) {
			return nil, infra.WrapRepoErr("payment not found", err, infra.KindNotFound)
		}
		return nil, infra.WrapRepoErr("failed to lock payment", err)
	}
	return p, nil
}

func (r *PaymentRepository) FindByBookingID(ctx context.Context, dbtx db.DBTX, bookingID uuid.UUID) ([]*payment.Payment, error) {
	rows, err := dbtx.Query(ctx,
		`SELECT `+paymentColumns+` FROM payments WHERE booking_id = $1 ORDER BY attempt_no`,
		bookingID,
	)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to list payments", err)
	}
	defer rows.Close()

	var payments []*payment.Payment
	for rows.Next() {
		p, scanErr := scanPayment(rows)
		if scanErr != nil {
			return nil, infra.WrapRepoErr("failed to scan payment", scanErr)
		}
		payments = append(payments, p)
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapRepoErr("failed to iterate payments", err)
	}
	return payments, nil
}

func (r *PaymentRepository) Save(ctx context.Context, tx db.DBTX, p *payment.Payment) error {
	_, err := tx.Exec(ctx,
		`UPDATE payments
		 SET status = $2, gateway_ref = $3, gateway_code = $4, gateway_response = $5, updated_at = now()
		 WHERE id = $1`,
		p.ID(), string(p.Status()), p.GatewayRef(), p.GatewayCode(), p.GatewayResponse(),
	)
	if err != nil {
		return infra.WrapRepoErr("failed to save payment", err)
	}
	return nil
}
