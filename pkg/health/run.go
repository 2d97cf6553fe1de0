package health

import (
	"context"
	"time"

	"github.com/cuemby/forge/pkg/forgetypes"
	"github.com/cuemby/forge/pkg/log"
)

// SnapshotFunc returns the current worker map to evaluate each cycle,
// satisfied by ledger.Ledger.Snapshot().Workers.
type SnapshotFunc func() map[forgetypes.WorkerID]*forgetypes.WorkerStatus

// ResultHandler receives the per-cycle output. Both the per-worker
// WorkerHealth updates and the raw HealthResult records are delivered so
// C4 (crash recovery) and C8 (fault tracking) can each react to what
// they need.
type ResultHandler func([]*forgetypes.WorkerHealth, []forgetypes.HealthResult)

// Run evaluates the monitor every interval against whatever snapshot
// returns, until ctx is cancelled.
func (m *Monitor) Run(ctx context.Context, interval time.Duration, snapshot SnapshotFunc, handle ResultHandler) {
	logger := log.WithComponent("health")
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			workers := snapshot()
			healths, results := m.Evaluate(ctx, workers)
			if handle != nil {
				handle(healths, results)
			}
			for _, wh := range healths {
				if wh.PrimaryFailure != nil {
					logger.Warn().
						Str("worker_id", string(wh.WorkerID)).
						Str("error_class", string(wh.PrimaryFailure.ErrorClass)).
						Float64("health_score", wh.HealthScore).
						Msg("worker health check failed")
				}
			}
		}
	}
}
