package worker

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/barber-api/pkg/clock"
	"github.com/jwalitptl/barber-api/pkg/logger"
	"github.com/jwalitptl/barber-api/pkg/metrics"
)

// Advancer is the status clock entry point the sweeper drives.
type Advancer interface {
	AdvanceStatuses(ctx context.Context, now time.Time) ([]uuid.UUID, error)
}

// StatusSweeper periodically moves confirmed and in-progress appointments along as time passes.
type StatusSweeper struct {
	clock    Advancer
	now      clock.Clock
	interval time.Duration
	logger   *logger.Logger
	metrics  *metrics.Metrics
}

func NewStatusSweeper(advancer Advancer, clk clock.Clock, interval time.Duration, log *logger.Logger, m *metrics.Metrics) *StatusSweeper {
	return &StatusSweeper{
		clock:    advancer,
		now:      clk,
		interval: interval,
		logger:   log.WithComponent("status_sweeper"),
		metrics:  m,
	}
}

func (w *StatusSweeper) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.logger.Info("Starting status sweeper", "interval", w.interval.String())
	w.Sweep(ctx)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("Shutting down status sweeper")
			return
		case <-ticker.C:
			w.Sweep(ctx)
		}
	}
}

// Sweep runs one pass. Errors are logged; the next tick retries from scratch.
func (w *StatusSweeper) Sweep(ctx context.Context) int {
	start := time.Now()
	changed, err := w.clock.AdvanceStatuses(ctx, w.now.Now())
	w.metrics.SweepDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		w.metrics.SweepRuns.WithLabelValues("error").Inc()
		w.logger.Error(err, "Status sweep failed", "changed", len(changed))
		return len(changed)
	}

	w.metrics.SweepRuns.WithLabelValues("success").Inc()
	w.metrics.LastSweepTimestamp.SetToCurrentTime()
	if len(changed) > 0 {
		w.logger.Info("Status sweep advanced appointments", "changed", len(changed))
	}
	return len(changed)
}
