package worker

import (
	"context"
	"log/slog"
	"time"

	"tutorbook/internal/infra/meeting"
	"tutorbook/internal/infra/repository"
	"tutorbook/internal/pkg/config"

	"github.com/jackc/pgx/v5/pgxpool"
)

// MeetingLinkWorker provisions video rooms for sessions that were
// materialized without links. Provisioning happens outside the confirmation
// transaction so a slow provider never delays payment settlement.
type MeetingLinkWorker struct {
	db       *pgxpool.Pool
	sessions *repository.SessionRepository
	provider meeting.Provider
	cfg      config.WorkerConfig
}

func NewMeetingLinkWorker(
	db *pgxpool.Pool,
	sessions *repository.SessionRepository,
	provider meeting.Provider,
	cfg config.WorkerConfig,
) *MeetingLinkWorker {
	return &MeetingLinkWorker{db: db, sessions: sessions, provider: provider, cfg: cfg}
}

func (w *MeetingLinkWorker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := w.ProvisionOnce(ctx); err != nil {
				slog.Error("meeting link cycle failed", "error", err)
			}
		}
	}
}

// ProvisionOnce handles one batch. A session that fails to provision is left
// without links and picked up again on the next cycle.
func (w *MeetingLinkWorker) ProvisionOnce(ctx context.Context) error {
	sessions, err := w.sessions.FindScheduledWithoutLinks(ctx, w.db, w.cfg.BatchSize)
	if err != nil {
		return err
	}

	for _, s := range sessions {
		links, err := w.provider.CreateRoom(ctx, s.ID(), s.ScheduledAt(), s.DurationMin())
		if err != nil {
			slog.Warn("room provisioning failed", "session_id", s.ID(), "error", err)
			continue
		}
		s.AttachMeetingLinks(links.JoinURL, links.HostURL)
		if err := w.sessions.Save(ctx, w.db, s); err != nil {
			slog.Error("failed to save meeting links", "session_id", s.ID(), "error", err)
		}
	}
	return nil
}
