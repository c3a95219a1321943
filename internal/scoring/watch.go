package scoring

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Run executes a cycle immediately and then every scoring interval until ctx
// is cancelled. Cycle errors are logged and do not stop the loop.
func (r *Runner) Run(ctx context.Context) {
	interval := time.Duration(r.cfg.IntervalSecs) * time.Second
	if interval <= 0 {
		interval = 5 * time.Minute
	}

	log := zap.L().With(zap.String("component", "scoring.watch"))
	log.Info("starting scoring loop",
		zap.Duration("interval", interval),
		zap.Int("history_window_hours", r.cfg.HistoryWindowHours),
	)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if _, err := r.RunCycle(ctx); err != nil && ctx.Err() == nil {
			log.Warn("scoring: cycle did not complete", zap.Error(err))
		}

		select {
		case <-ctx.Done():
			log.Info("scoring loop stopped")
			return
		case <-ticker.C:
		}
	}
}
