package forgetypes

import "time"

// CrashRecord is appended whenever Crash Recovery observes a crash-class
// health failure for a worker.
type CrashRecord struct {
	WorkerID         WorkerID   `json:"worker_id"`
	CrashedAt        time.Time  `json:"crashed_at"`
	Reason           ErrorClass `json:"reason"`
	ErrorMessage     string     `json:"error_message"`
	Workspace        string     `json:"workspace,omitempty"`
	TaskID           TaskID     `json:"task_id,omitempty"`
	AssigneeCleared  bool       `json:"assignee_cleared"`
	AutoRestarted    bool       `json:"auto_restarted"`
}

// CrashAction is the decision Crash Recovery returns after processing a
// crash.
type CrashAction string

const (
	CrashActionIgnore     CrashAction = "ignore"
	CrashActionNotifyOnly CrashAction = "notify_only"
	CrashActionRestart    CrashAction = "restart"
)

// WorkerRecoveryState is the per-worker crash/recovery state machine
// position: healthy -> degraded -> crashed -> (restarting -> healthy) |
// rate_limited.
type WorkerRecoveryState string

const (
	RecoveryHealthy    WorkerRecoveryState = "healthy"
	RecoveryDegraded   WorkerRecoveryState = "degraded"
	RecoveryCrashed    WorkerRecoveryState = "crashed"
	RecoveryRestarting WorkerRecoveryState = "restarting"
	RecoveryRateLimited WorkerRecoveryState = "rate_limited"
)
