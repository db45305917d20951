package worker

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/microlearning/site-api/internal/metrics"
	"github.com/microlearning/site-api/internal/service/resend"
)

// =============================================================================
// RESEND SWEEPER: periodic follow-up email sweep
// =============================================================================
// Runs resend.Service.RunSweep on a fixed interval. A tick is skipped when
// another process holds the sweep lock.

// DefaultSweepInterval is how often a sweep runs.
const DefaultSweepInterval = 1 * time.Hour

// Sweeper runs one sweep.
type Sweeper interface {
	RunSweep(ctx context.Context) (*resend.Result, error)
}

// ResendSweeper periodically runs the follow-up sweep.
type ResendSweeper struct {
	sweeper  Sweeper
	interval time.Duration
}

// NewResendSweeper creates a sweeper. A non-positive interval means
// DefaultSweepInterval.
func NewResendSweeper(sweeper Sweeper, interval time.Duration) *ResendSweeper {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	return &ResendSweeper{sweeper: sweeper, interval: interval}
}

// Start runs a sweep immediately and then on every tick. It blocks until
// ctx is cancelled.
func (rs *ResendSweeper) Start(ctx context.Context) {
	log.Printf("[ResendSweeper] Starting (interval=%s)", rs.interval)

	rs.RunOnce(ctx)

	ticker := time.NewTicker(rs.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("[ResendSweeper] Stopping")
			return
		case <-ticker.C:
			rs.RunOnce(ctx)
		}
	}
}

// RunOnce runs a single sweep and records its outcome. Errors are logged;
// the next tick tries again.
func (rs *ResendSweeper) RunOnce(ctx context.Context) *resend.Result {
	start := time.Now()
	res, err := rs.sweeper.RunSweep(ctx)
	switch {
	case errors.Is(err, resend.ErrSweepInProgress):
		metrics.RecordSweepNotRun(metrics.SweepLocked)
		log.Println("[ResendSweeper] Another sweep holds the lock, skipping this tick")
		return nil
	case err != nil:
		metrics.RecordSweepNotRun(metrics.SweepError)
		log.Printf("[ResendSweeper] Sweep failed: %v", err)
		return nil
	}

	elapsed := time.Since(start)
	metrics.RecordSweep(res.Sent, res.Failed, res.Skipped, elapsed)
	log.Printf("[ResendSweeper] Sweep %s done in %s: %d rows, %d eligible, %d sent, %d failed, %d skipped",
		res.RunID, elapsed.Round(time.Millisecond), res.TotalRows, res.Eligible, res.Sent, res.Failed, res.Skipped)
	return res
}
