package forgetypes

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// WorkerID is an opaque, stable identifier for a worker process.
type WorkerID string

// TaskID is an opaque identifier for an item in the external issue tracker.
type TaskID string

// WorkerState is the lifecycle state of a worker as reported in its status file.
type WorkerState string

const (
	WorkerStarting WorkerState = "starting"
	WorkerActive   WorkerState = "active"
	WorkerIdle     WorkerState = "idle"
	WorkerPaused   WorkerState = "paused"
	WorkerFailed   WorkerState = "failed"
	WorkerStopped  WorkerState = "stopped"
)

// CurrentTask normalizes the dual-shape current_task field: on the wire it
// is either a bare task id string or a structured object with optional
// title/priority. Both shapes decode to this type.
type CurrentTask struct {
	TaskID   TaskID `json:"task_id"`
	Title    string `json:"title,omitempty"`
	Priority int    `json:"priority,omitempty"`
}

// UnmarshalJSON accepts a bare string or a {task_id,...} object.
func (c *CurrentTask) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || string(trimmed) == "null" {
		*c = CurrentTask{}
		return nil
	}
	if trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return fmt.Errorf("current_task: %w", err)
		}
		*c = CurrentTask{TaskID: TaskID(s)}
		return nil
	}

	var obj struct {
		TaskID   *string `json:"task_id"`
		BeadID   *string `json:"bead_id"`
		Title    string  `json:"title"`
		BeadTi   string  `json:"bead_title"`
		Priority int     `json:"priority"`
	}
	if err := json.Unmarshal(trimmed, &obj); err != nil {
		return fmt.Errorf("current_task: %w", err)
	}

	id := ""
	switch {
	case obj.TaskID != nil:
		id = *obj.TaskID
	case obj.BeadID != nil:
		id = *obj.BeadID
	}
	title := obj.Title
	if title == "" {
		title = obj.BeadTi
	}
	*c = CurrentTask{TaskID: TaskID(id), Title: title, Priority: obj.Priority}
	return nil
}

// MarshalJSON always emits the structured shape; the ledger normalizes on
// write so round-tripping a file written by FORGE always yields the object
// form, while files written by other producers may still use the bare form.
func (c CurrentTask) MarshalJSON() ([]byte, error) {
	if c.TaskID == "" {
		return []byte("null"), nil
	}
	return json.Marshal(struct {
		TaskID   string `json:"task_id"`
		Title    string `json:"title,omitempty"`
		Priority int    `json:"priority,omitempty"`
	}{TaskID: string(c.TaskID), Title: c.Title, Priority: c.Priority})
}

// IsZero reports whether no task is bound.
func (c CurrentTask) IsZero() bool { return c.TaskID == "" }

// WorkerStatus is the canonical per-worker record, one per status file.
type WorkerStatus struct {
	WorkerID       WorkerID    `json:"worker_id"`
	Status         WorkerState `json:"status"`
	Model          string      `json:"model"`
	WorkspacePath  string      `json:"workspace"`
	PID            int         `json:"pid,omitempty"`
	StartedAt      time.Time   `json:"started_at"`
	LastActivity   time.Time   `json:"last_activity"`
	CurrentTask    CurrentTask `json:"current_task"`
	TasksCompleted int         `json:"tasks_completed"`
}

// Clone returns a deep-enough copy safe for handing to callers outside the
// ledger's lock.
func (w *WorkerStatus) Clone() *WorkerStatus {
	if w == nil {
		return nil
	}
	cp := *w
	return &cp
}
