package ledger

import "fmt"

// NotFoundError is returned by Update when the target worker has no
// known status entry.
type NotFoundError struct {
	WorkerID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("worker %s: not found", e.WorkerID)
}
