package tasks

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuemby/forge/pkg/forgetypes"
)

func newTestBinding(t *testing.T) *FileBinding {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tasks.jsonl")
	fb, err := NewFileBinding(path)
	require.NoError(t, err)

	require.NoError(t, fb.Put(&forgetypes.TaskRecord{
		ID:        "task-1",
		Title:     "fix the thing",
		Priority:  1,
		Status:    forgetypes.TaskOpen,
		Labels:    []string{"bug", "urgent"},
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}))
	return fb
}

func TestFileBinding_GetRoundTrips(t *testing.T) {
	fb := newTestBinding(t)

	rec, err := fb.Get(context.Background(), "task-1")
	require.NoError(t, err)
	assert.Equal(t, "fix the thing", rec.Title)
}

func TestFileBinding_GetUnknownReturnsNotFound(t *testing.T) {
	fb := newTestBinding(t)

	_, err := fb.Get(context.Background(), "ghost")
	require.Error(t, err)
	var nf *NotFoundError
	assert.ErrorAs(t, err, &nf)
}

func TestFileBinding_AssignIsIdempotent(t *testing.T) {
	fb := newTestBinding(t)
	ctx := context.Background()

	require.NoError(t, fb.Assign(ctx, "task-1", "worker-a"))
	rec, _ := fb.Get(ctx, "task-1")
	require.NotNil(t, rec.Assignee)
	assert.Equal(t, forgetypes.WorkerID("worker-a"), *rec.Assignee)

	// assigning the same worker again is a no-op, not an error
	require.NoError(t, fb.Assign(ctx, "task-1", "worker-a"))
	rec, _ = fb.Get(ctx, "task-1")
	assert.Equal(t, forgetypes.WorkerID("worker-a"), *rec.Assignee)
}

func TestFileBinding_UnassignIsIdempotent(t *testing.T) {
	fb := newTestBinding(t)
	ctx := context.Background()

	require.NoError(t, fb.Unassign(ctx, "task-1"))
	rec, _ := fb.Get(ctx, "task-1")
	assert.Nil(t, rec.Assignee)

	// already unassigned: still a no-op
	require.NoError(t, fb.Unassign(ctx, "task-1"))
	rec, _ = fb.Get(ctx, "task-1")
	assert.Nil(t, rec.Assignee)
}

func TestFileBinding_SetStatusIsIdempotent(t *testing.T) {
	fb := newTestBinding(t)
	ctx := context.Background()

	require.NoError(t, fb.SetStatus(ctx, "task-1", forgetypes.TaskInProgress))
	require.NoError(t, fb.SetStatus(ctx, "task-1", forgetypes.TaskInProgress))

	rec, _ := fb.Get(ctx, "task-1")
	assert.Equal(t, forgetypes.TaskInProgress, rec.Status)
}

func TestFileBinding_ReadyExcludesAssigned(t *testing.T) {
	fb := newTestBinding(t)
	ctx := context.Background()

	ready, err := fb.Ready(ctx)
	require.NoError(t, err)
	assert.Len(t, ready, 1)

	require.NoError(t, fb.Assign(ctx, "task-1", "worker-a"))
	ready, err = fb.Ready(ctx)
	require.NoError(t, err)
	assert.Empty(t, ready)
}

func TestFileBinding_FilterByPriorityStatusLabels(t *testing.T) {
	fb := newTestBinding(t)
	ctx := context.Background()

	require.NoError(t, fb.Put(&forgetypes.TaskRecord{
		ID: "task-2", Priority: 2, Status: forgetypes.TaskOpen, Labels: []string{"feature"},
	}))

	priority := 1
	status := forgetypes.TaskOpen
	results, err := fb.Filter(ctx, Filter{Priority: &priority, Status: &status, Labels: []string{"urgent"}})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, forgetypes.TaskID("task-1"), results[0].ID)
}

func TestFileBinding_PersistsAcrossReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tasks.jsonl")
	fb, err := NewFileBinding(path)
	require.NoError(t, err)
	require.NoError(t, fb.Put(&forgetypes.TaskRecord{ID: "task-1", Status: forgetypes.TaskOpen}))

	reloaded, err := NewFileBinding(path)
	require.NoError(t, err)

	rec, err := reloaded.Get(context.Background(), "task-1")
	require.NoError(t, err)
	assert.Equal(t, forgetypes.TaskOpen, rec.Status)
}
