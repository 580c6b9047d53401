package worker

import (
	"context"
	"time"

	"github.com/jwalitptl/barber-api/internal/repository"
	"github.com/jwalitptl/barber-api/pkg/logger"
)

// OutboxCleanupWorker deletes published events older than the retention window.
type OutboxCleanupWorker struct {
	repo      repository.OutboxRepository
	retention time.Duration
	interval  time.Duration
	logger    *logger.Logger
}

func NewOutboxCleanupWorker(repo repository.OutboxRepository, retention, interval time.Duration, log *logger.Logger) *OutboxCleanupWorker {
	return &OutboxCleanupWorker{
		repo:      repo,
		retention: retention,
		interval:  interval,
		logger:    log.WithComponent("outbox_cleanup"),
	}
}

func (w *OutboxCleanupWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.Cleanup(ctx, time.Now())
		}
	}
}

func (w *OutboxCleanupWorker) Cleanup(ctx context.Context, now time.Time) int64 {
	cutoff := now.Add(-w.retention)
	rows, err := w.repo.DeleteProcessedBefore(ctx, cutoff)
	if err != nil {
		w.logger.Error(err, "Failed to clean up outbox events")
		return 0
	}
	if rows > 0 {
		w.logger.Info("Cleaned up outbox events", "rows", rows, "cutoff", cutoff)
	}
	return rows
}
