package crash

import (
	"context"
	"sync"
	"time"

	"github.com/cuemby/forge/pkg/forgetypes"
	"github.com/cuemby/forge/pkg/log"
	"github.com/cuemby/forge/pkg/tasks"
)

// DedupeWindow is how soon after a recorded crash a second crash-class
// failure for the same worker is treated as the same incident.
const DedupeWindow = 5 * time.Second

// Config controls crash classification, assignee clearing, and the
// restart rate limit.
type Config struct {
	AutoRestartEnabled    bool
	MaxCrashesInWindow    int
	CrashWindow           time.Duration
	ClearAssigneesEnabled bool
}

// isCrashClass reports whether a health failure class counts as a crash.
// Every other class (stale_activity, stuck_task, high_memory, unknown) is
// left to the Health Monitor and Error Recovery Manager.
func isCrashClass(class forgetypes.ErrorClass) bool {
	return class == forgetypes.ErrorClassDeadProcess || class == forgetypes.ErrorClassUnresponsive
}

// Recoverer is the Crash Recovery collaborator (C4).
type Recoverer struct {
	cfg     Config
	binding tasks.Binding
	store   *recordStore

	mu       sync.Mutex
	state    map[forgetypes.WorkerID]forgetypes.WorkerRecoveryState
	degraded map[forgetypes.WorkerID]bool

	// OnError reports a non-fatal problem (e.g. failure to clear an
	// assignment) without aborting recovery.
	OnError func(forgetypes.ErrorRecord)
}

// NewRecoverer opens (or creates) the crash record store at dbPath.
// binding may be nil if task assignments should never be cleared.
func NewRecoverer(cfg Config, binding tasks.Binding, dbPath string) (*Recoverer, error) {
	store, err := openRecordStore(dbPath)
	if err != nil {
		return nil, err
	}
	return &Recoverer{
		cfg:      cfg,
		binding:  binding,
		store:    store,
		state:    make(map[forgetypes.WorkerID]forgetypes.WorkerRecoveryState),
		degraded: make(map[forgetypes.WorkerID]bool),
	}, nil
}

func (r *Recoverer) Close() error {
	return r.store.close()
}

// State returns the worker's current position in the recovery state
// machine, defaulting to healthy if never observed.
func (r *Recoverer) State(id forgetypes.WorkerID) forgetypes.WorkerRecoveryState {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.state[id]; ok {
		return s
	}
	return forgetypes.RecoveryHealthy
}

func (r *Recoverer) setState(id forgetypes.WorkerID, s forgetypes.WorkerRecoveryState) {
	r.mu.Lock()
	r.state[id] = s
	r.mu.Unlock()
}

// MarkDegraded records that a worker's health has gone below the warning
// threshold without yet crashing.
func (r *Recoverer) MarkDegraded(id forgetypes.WorkerID) {
	r.mu.Lock()
	if !r.degraded[id] {
		r.degraded[id] = true
		r.state[id] = forgetypes.RecoveryDegraded
	}
	r.mu.Unlock()
}

// MarkRecovered clears the degraded marker for id. CrashRecords are left
// in place; they keep counting against the rate-limit window until they
// age out on their own.
func (r *Recoverer) MarkRecovered(id forgetypes.WorkerID) {
	r.mu.Lock()
	delete(r.degraded, id)
	r.state[id] = forgetypes.RecoveryHealthy
	r.mu.Unlock()
}

// HandleFailure processes a single HealthResult. If result's class is not
// a crash class, it returns CrashActionIgnore without touching any state.
func (r *Recoverer) HandleFailure(ctx context.Context, ws *forgetypes.WorkerStatus, result forgetypes.HealthResult) (forgetypes.CrashAction, error) {
	logger := log.WithComponent("crash")

	if !isCrashClass(result.ErrorClass) {
		return forgetypes.CrashActionIgnore, nil
	}

	existing, err := r.store.forWorker(ws.WorkerID)
	if err != nil {
		return forgetypes.CrashActionIgnore, err
	}
	if len(existing) > 0 {
		last := existing[len(existing)-1]
		if result.ObservedAt.Sub(last.CrashedAt) <= DedupeWindow {
			return forgetypes.CrashActionIgnore, nil
		}
	}

	rec := &forgetypes.CrashRecord{
		WorkerID:     ws.WorkerID,
		CrashedAt:    result.ObservedAt,
		Reason:       result.ErrorClass,
		ErrorMessage: result.Message,
		Workspace:    ws.WorkspacePath,
	}
	if !ws.CurrentTask.IsZero() {
		rec.TaskID = ws.CurrentTask.TaskID
	}

	if r.cfg.ClearAssigneesEnabled && r.binding != nil && rec.TaskID != "" {
		if cerr := r.binding.Unassign(ctx, rec.TaskID); cerr != nil {
			logger.Warn().Err(cerr).Str("worker_id", string(ws.WorkerID)).Str("task_id", string(rec.TaskID)).
				Msg("failed to clear task assignment on crash")
			r.reportError(ws.WorkerID, cerr.Error())
		} else {
			if serr := r.binding.SetStatus(ctx, rec.TaskID, forgetypes.TaskOpen); serr != nil {
				logger.Warn().Err(serr).Str("worker_id", string(ws.WorkerID)).Str("task_id", string(rec.TaskID)).
					Msg("failed to reopen task after crash")
				r.reportError(ws.WorkerID, serr.Error())
			}
			rec.AssigneeCleared = true
		}
	}

	if err := r.store.append(rec); err != nil {
		return forgetypes.CrashActionIgnore, err
	}

	r.setState(ws.WorkerID, forgetypes.RecoveryCrashed)

	action, err := r.decide(ws.WorkerID, result.ObservedAt)
	if err != nil {
		return forgetypes.CrashActionIgnore, err
	}

	if action == forgetypes.CrashActionRestart {
		rec.AutoRestarted = true
		if err := r.store.append(rec); err != nil {
			logger.Warn().Err(err).Msg("failed to persist auto_restarted flag")
		}
		r.setState(ws.WorkerID, forgetypes.RecoveryRestarting)
	} else if action == forgetypes.CrashActionNotifyOnly {
		count, cerr := r.windowCount(ws.WorkerID, result.ObservedAt)
		if cerr == nil && count >= r.cfg.MaxCrashesInWindow {
			r.setState(ws.WorkerID, forgetypes.RecoveryRateLimited)
		}
	}

	logger.Info().Str("worker_id", string(ws.WorkerID)).Str("action", string(action)).
		Str("reason", string(result.ErrorClass)).Msg("crash recovery decision")

	return action, nil
}

// decide applies the rate-limit and auto-restart rules to the current
// crash window for a worker.
func (r *Recoverer) decide(id forgetypes.WorkerID, now time.Time) (forgetypes.CrashAction, error) {
	count, err := r.windowCount(id, now)
	if err != nil {
		return forgetypes.CrashActionIgnore, err
	}

	window := r.cfg.CrashWindow
	if window <= 0 {
		window = 600 * time.Second
	}
	maxCrashes := r.cfg.MaxCrashesInWindow
	if maxCrashes <= 0 {
		maxCrashes = 3
	}

	if count >= maxCrashes {
		return forgetypes.CrashActionNotifyOnly, nil
	}
	if r.cfg.AutoRestartEnabled {
		return forgetypes.CrashActionRestart, nil
	}
	return forgetypes.CrashActionNotifyOnly, nil
}

func (r *Recoverer) windowCount(id forgetypes.WorkerID, now time.Time) (int, error) {
	records, err := r.store.forWorker(id)
	if err != nil {
		return 0, err
	}
	window := r.cfg.CrashWindow
	if window <= 0 {
		window = 600 * time.Second
	}
	count := 0
	for _, rec := range records {
		if now.Sub(rec.CrashedAt) <= window {
			count++
		}
	}
	return count, nil
}

func (r *Recoverer) reportError(id forgetypes.WorkerID, detail string) {
	if r.OnError == nil {
		return
	}
	r.OnError(forgetypes.ErrorRecord{
		Category:  forgetypes.CategoryWorker,
		Severity:  forgetypes.SeverityWarning,
		Component: "crash",
		Message:   detail,
		At:        time.Now(),
	})
}

// CleanWindow drops crash records older than the configured window. It is
// meant to run on the same tick as the Health Monitor rather than on its
// own goroutine.
func (r *Recoverer) CleanWindow(now time.Time) error {
	window := r.cfg.CrashWindow
	if window <= 0 {
		window = 600 * time.Second
	}
	return r.store.prune(now, window)
}
