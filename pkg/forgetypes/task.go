package forgetypes

import "time"

// TaskStatus is the lifecycle state of a tracked task, as reported by the
// external issue tracker (the `br` collaborator).
type TaskStatus string

const (
	TaskOpen       TaskStatus = "open"
	TaskInProgress TaskStatus = "in_progress"
	TaskDone       TaskStatus = "done"
	TaskBlocked    TaskStatus = "blocked"
)

// TaskRecord is FORGE's view of an item in the external tracker, opaque
// beyond the fields it actually consumes.
type TaskRecord struct {
	ID        TaskID     `json:"id"`
	Title     string     `json:"title"`
	Priority  int        `json:"priority"`
	Status    TaskStatus `json:"status"`
	Labels    []string   `json:"labels,omitempty"`
	Assignee  *WorkerID  `json:"assignee,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}
