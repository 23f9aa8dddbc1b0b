package repository

import (
	"context"
	"time"

	"tutorbook/internal/infra"
	"tutorbook/internal/infra/db"

	"github.com/google/uuid"
)

// IdempotencyRecord mirrors one row of idempotency_keys.
type IdempotencyRecord struct {
	Key             uuid.UUID
	ActorID         uuid.UUID
	Endpoint        string
	RequestHash     string
	Status          string
	ResultBookingID *uuid.UUID
	ExpiresAt       time.Time
}

const (
	IdempotencyProcessing = "processing"
	IdempotencyCompleted  = "completed"
)

type IdempotencyRepository struct{}

func NewIdempotencyRepository() *IdempotencyRepository {
	return &IdempotencyRepository{}
}

// TryInsert claims the key for this request. ON CONFLICT DO NOTHING makes the
// claim race-safe; the caller reads the row back to learn who won.
func (r *IdempotencyRepository) TryInsert(ctx context.Context, dbtx db.DBTX, key, actorID uuid.UUID, endpoint, requestHash string, expiresAt time.Time) error {
	_, err := dbtx.Exec(ctx,
		`INSERT INTO idempotency_keys (key, actor_id, endpoint, request_hash, status, expires_at)
		 VALUES ($1, $2, $3, $4, 'processing', $5)
		 ON CONFLICT (key, actor_id) DO NOTHING`,
		key, actorID, endpoint, requestHash, expiresAt,
	)
	if err != nil {
		return infra.WrapRepoErr("failed to insert idempotency key", err)
	}
	return nil
}

func (r *IdempotencyRepository) Get(ctx context.Context, dbtx db.DBTX, key, actorID uuid.UUID) (*IdempotencyRecord, error) {
	var rec IdempotencyRecord
	err := dbtx.QueryRow(ctx,
		`SELECT key, actor_id, endpoint, request_hash, status, result_booking_id, expires_at
		 FROM idempotency_keys
		 WHERE key = $1 AND actor_id = $2`,
		key, actorID,
	).Scan(&rec.Key, &rec.ActorID, &rec.Endpoint, &rec.RequestHash, &rec.Status, &rec.ResultBookingID, &rec.ExpiresAt)
	if err != nil {
		if isNoRows(err) {
			return nil, infra.WrapRepoErr("idempotency key not found", err, infra.KindNotFound)
		}
		return nil, infra.WrapRepoErr("failed to get idempotency key", err)
	}
	return &rec, nil
}

func (r *IdempotencyRepository) MarkCompleted(ctx context.Context, tx db.DBTX, key, actorID, resultBookingID uuid.UUID) error {
	_, err := tx.Exec(ctx,
		`UPDATE idempotency_keys
		 SET status = 'completed', result_booking_id = $3, updated_at = now()
		 WHERE key = $1 AND actor_id = $2`,
		key, actorID, resultBookingID,
	)
	if err != nil {
		return infra.WrapRepoErr("failed to complete idempotency key", err)
	}
	return nil
}
