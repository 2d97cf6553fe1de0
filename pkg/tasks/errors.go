package tasks

import "fmt"

// NotFoundError is returned when a task id has no record in the tracker.
type NotFoundError struct {
	TaskID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("task %s: not found", e.TaskID)
}
