package tasks

import (
	"context"

	"github.com/cuemby/forge/pkg/forgetypes"
)

// Filter narrows a Filter() call. A nil or zero field means "any".
type Filter struct {
	Priority *int
	Status   *forgetypes.TaskStatus
	Labels   []string
}

// Binding is the Task Binding collaborator (C9): a thin abstraction over
// whatever external tracker holds task records.
type Binding interface {
	Get(ctx context.Context, id forgetypes.TaskID) (*forgetypes.TaskRecord, error)
	Assign(ctx context.Context, id forgetypes.TaskID, worker forgetypes.WorkerID) error
	Unassign(ctx context.Context, id forgetypes.TaskID) error
	SetStatus(ctx context.Context, id forgetypes.TaskID, status forgetypes.TaskStatus) error
	Ready(ctx context.Context) ([]*forgetypes.TaskRecord, error)
	Filter(ctx context.Context, f Filter) ([]*forgetypes.TaskRecord, error)
}
