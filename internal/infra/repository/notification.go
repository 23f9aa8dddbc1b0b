package repository

import (
	"context"
	"time"

	"tutorbook/internal/infra"
	"tutorbook/internal/infra/db"

	"github.com/google/uuid"
)

// NotificationJob is one outbox row awaiting publication. Jobs are written in
// the same transaction as the state change they announce, so a crash can delay
// a notification but never invent or lose one relative to booking state.
type NotificationJob struct {
	ID       uuid.UUID
	Topic    string
	Payload  []byte
	RunAt    time.Time
	Attempts int
}

type NotificationRepository struct{}

func NewNotificationRepository() *NotificationRepository {
	return &NotificationRepository{}
}

func (r *NotificationRepository) CreateJob(ctx context.Context, tx db.DBTX, topic string, payload []byte, runAt time.Time) error {
	_, err := tx.Exec(ctx,
		`INSERT INTO notification_jobs (topic, payload, run_at) VALUES ($1, $2, $3)`,
		topic, payload, runAt,
	)
	if err != nil {
		return infra.WrapRepoErr("failed to create notification job", err)
	}
	return nil
}

// ClaimPending picks due jobs and bumps their attempt counter in one
// statement. SKIP LOCKED lets multiple dispatcher instances share the queue.
func (r *NotificationRepository) ClaimPending(ctx context.Context, dbtx db.DBTX, now time.Time, limit int) ([]NotificationJob, error) {
	rows, err := dbtx.Query(ctx,
		`UPDATE notification_jobs
		 SET attempts = attempts + 1, updated_at = now()
		 WHERE id IN (
		     SELECT id FROM notification_jobs
		     WHERE status = 'pending' AND run_at <= $1
		     ORDER BY run_at
		     LIMIT $2
		     FOR UPDATE SKIP LOCKED
		 )
		 RETURNING id, topic, payload, run_at, attempts`,
		now, limit,
	)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to claim notification jobs", err)
	}
	defer rows.Close()

	var jobs []NotificationJob
	for rows.Next() {
		var job NotificationJob
		if scanErr := rows.Scan(&job.ID, &job.Topic, &job.Payload, &job.RunAt, &job.Attempts); scanErr != nil {
			return nil, infra.WrapRepoErr("failed to scan notification job", scanErr)
		}
		jobs = append(jobs, job)
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapRepoErr("failed to iterate notification jobs", err)
	}
	return jobs, nil
}

func (r *NotificationRepository) MarkSent(ctx context.Context, dbtx db.DBTX, id uuid.UUID) error {
	_, err := dbtx.Exec(ctx,
		`UPDATE notification_jobs SET status = 'sent', updated_at = now() WHERE id = $1`, id)
	if err != nil {
		return infra.WrapRepoErr("failed to mark notification sent", err)
	}
	return nil
}

// MarkFailed reschedules the job with a delay, or parks it as failed once the
// attempt budget is spent.
func (r *NotificationRepository) MarkFailed(ctx context.Context, dbtx db.DBTX, id uuid.UUID, lastError string, retryAt time.Time, maxAttempts int) error {
	_, err := dbtx.Exec(ctx,
		`UPDATE notification_jobs
		 SET status = CASE WHEN attempts >= $4 THEN 'failed' ELSE 'pending' END,
		     run_at = $3, last_error = $2, updated_at = now()
		 WHERE id = $1`,
		id, lastError, retryAt, maxAttempts,
	)
	if err != nil {
		return infra.WrapRepoErr("failed to mark notification failed", err)
	}
	return nil
}
