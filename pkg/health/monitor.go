package health

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/cuemby/forge/pkg/forgetypes"
)

// DefaultWarningThreshold is the consecutive-failure count degraded_since
// is set upon exceeding (so a threshold of 1 sets it on the 2nd failure).
const DefaultWarningThreshold = 1

// Monitor runs the enabled checks against every worker in a snapshot
// once per cycle and maintains each worker's WorkerHealth across cycles.
type Monitor struct {
	checks           []Checker
	warningThreshold int

	mu     sync.Mutex
	health map[forgetypes.WorkerID]*forgetypes.WorkerHealth
}

// NewMonitor builds a Monitor with the checks implied by cfg: pid_exists
// and activity_fresh and task_progress always run; memory and response
// run only when their config flag is enabled.
func NewMonitor(cfg Config) *Monitor {
	checks := []Checker{
		PIDChecker{},
		ActivityChecker{Threshold: cfg.StaleActivityThreshold},
		TaskProgressChecker{StuckThreshold: cfg.TaskStuckThreshold},
	}
	if cfg.EnableMemoryCheck {
		checks = append(checks, MemoryChecker{Limit: cfg.MaxMemoryBytes})
	}
	if cfg.EnableResponseCheck {
		checks = append(checks, ResponseChecker{Timeout: cfg.ResponseTimeout, Ping: cfg.Responder})
	}

	return &Monitor{
		checks:           checks,
		warningThreshold: DefaultWarningThreshold,
		health:           make(map[forgetypes.WorkerID]*forgetypes.WorkerHealth),
	}
}

// Evaluate runs every configured check against every worker in workers
// and returns the updated WorkerHealth plus the full set of HealthResult
// records produced this cycle, in check-priority order.
func (m *Monitor) Evaluate(ctx context.Context, workers map[forgetypes.WorkerID]*forgetypes.WorkerStatus) ([]*forgetypes.WorkerHealth, []forgetypes.HealthResult) {
	var updated []*forgetypes.WorkerHealth
	var allResults []forgetypes.HealthResult

	for id, ws := range workers {
		results := make([]forgetypes.HealthResult, 0, len(m.checks))
		for _, checker := range m.checks {
			results = append(results, checker.Check(ctx, ws))
		}
		allResults = append(allResults, results...)
		updated = append(updated, m.fold(id, results))
	}

	sort.Slice(allResults, func(i, j int) bool {
		return forgetypes.CheckPriority(allResults[i].CheckKind) < forgetypes.CheckPriority(allResults[j].CheckKind)
	})

	return updated, allResults
}

// fold combines this cycle's results for one worker into its running
// WorkerHealth: a weighted score renormalized over the checks that ran,
// the single highest-priority failure as PrimaryFailure, and the
// consecutive-failure/degraded_since bookkeeping.
func (m *Monitor) fold(id forgetypes.WorkerID, results []forgetypes.HealthResult) *forgetypes.WorkerHealth {
	m.mu.Lock()
	defer m.mu.Unlock()

	wh, ok := m.health[id]
	if !ok {
		wh = &forgetypes.WorkerHealth{WorkerID: id}
		m.health[id] = wh
	}

	var weightedPass, totalWeight float64
	var primary *forgetypes.HealthResult

	for i := range results {
		r := &results[i]
		w := forgetypes.CheckWeights[r.CheckKind]
		totalWeight += w
		if r.Outcome == forgetypes.OutcomePass {
			weightedPass += w
		} else if primary == nil || forgetypes.CheckPriority(r.CheckKind) < forgetypes.CheckPriority(primary.CheckKind) {
			primary = r
		}
	}

	score := 1.0
	if totalWeight > 0 {
		score = weightedPass / totalWeight
	}

	now := time.Now()
	wh.HealthScore = score
	wh.LastCheckAt = now
	wh.PrimaryFailure = primary

	if primary != nil {
		wh.ConsecutiveFailures++
		if wh.ConsecutiveFailures > m.warningThreshold && wh.DegradedSince == nil {
			wh.DegradedSince = &now
		}
	} else {
		wh.ConsecutiveFailures = 0
		wh.DegradedSince = nil
	}

	cp := *wh
	return &cp
}

// Get returns the last computed WorkerHealth for a worker, if any.
func (m *Monitor) Get(id forgetypes.WorkerID) (*forgetypes.WorkerHealth, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	wh, ok := m.health[id]
	if !ok {
		return nil, false
	}
	cp := *wh
	return &cp, true
}

// Forget drops health state for a worker that has left the ledger.
func (m *Monitor) Forget(id forgetypes.WorkerID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.health, id)
}
