package forgetypes

import "time"

// SpawnRequest describes a worker to launch. Model and Workspace are
// required; SessionName defaults to WorkerID when empty.
type SpawnRequest struct {
	WorkerID    WorkerID `json:"worker_id"`
	Model       string   `json:"model"`
	Workspace   string   `json:"workspace"`
	SessionName string   `json:"session_name,omitempty"`
	BeadRef     TaskID   `json:"bead_ref,omitempty"`
	ConfigPath  string   `json:"config,omitempty"`
}

// SpawnOutcome is the launcher's reported result, parsed from its stdout.
type SpawnOutcome struct {
	WorkerID  WorkerID  `json:"worker_id"`
	PID       int       `json:"pid"`
	Status    string    `json:"status"`
	Launcher  string    `json:"launcher,omitempty"`
	Timestamp time.Time `json:"timestamp,omitempty"`
	BeadRef   TaskID    `json:"bead_ref,omitempty"`
}
