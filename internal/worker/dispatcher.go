package worker

import (
	"context"
	"log/slog"
	"time"

	"tutorbook/internal/infra/notify"
	"tutorbook/internal/infra/repository"
	"tutorbook/internal/pkg/clock"
	"tutorbook/internal/pkg/config"

	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	maxDeliveryAttempts = 5
	retryDelay          = 30 * time.Second
)

// Dispatcher drains the notification outbox onto the message broker. The
// outbox rows are written transactionally with booking state, so delivery is
// at-least-once; consumers must dedupe on booking_id plus topic.
type Dispatcher struct {
	db        *pgxpool.Pool
	repo      *repository.NotificationRepository
	publisher notify.EventPublisher
	clock     clock.Clock
	cfg       config.WorkerConfig
}

func NewDispatcher(
	db *pgxpool.Pool,
	repo *repository.NotificationRepository,
	publisher notify.EventPublisher,
	clock clock.Clock,
	cfg config.WorkerConfig,
) *Dispatcher {
	return &Dispatcher{db: db, repo: repo, publisher: publisher, clock: clock, cfg: cfg}
}

// Run polls until the context is cancelled.
func (d *Dispatcher) Run(ctx context.Context) {
	ticker := time.NewTicker(d.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := d.DispatchOnce(ctx); err != nil {
				slog.Error("notification dispatch cycle failed", "error", err)
			}
		}
	}
}

// DispatchOnce claims one batch of due jobs and publishes them. Exported so
// tests can drive the loop deterministically.
func (d *Dispatcher) DispatchOnce(ctx context.Context) error {
	jobs, err := d.repo.ClaimPending(ctx, d.db, d.clock.Now(), d.cfg.BatchSize)
	if err != nil {
		return err
	}

	for _, job := range jobs {
		if err := d.publisher.Publish(ctx, job.Topic, job.Payload); err != nil {
			slog.Warn("publish failed, rescheduling job",
				"job_id", job.ID, "topic", job.Topic, "attempts", job.Attempts, "error", err)
			retryAt := d.clock.Now().Add(retryDelay)
			if markErr := d.repo.MarkFailed(ctx, d.db, job.ID, err.Error(), retryAt, maxDeliveryAttempts); markErr != nil {
				slog.Error("failed to reschedule notification job", "job_id", job.ID, "error", markErr)
			}
			continue
		}
		if err := d.repo.MarkSent(ctx, d.db, job.ID); err != nil {
			// The message is already out; the row will be claimed and
			// published again, which at-least-once delivery permits.
			slog.Error("failed to mark notification sent", "job_id", job.ID, "error", err)
		}
	}
	return nil
}
