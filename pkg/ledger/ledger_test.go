package ledger

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuemby/forge/pkg/forgetypes"
)

func newTestLedger(t *testing.T) (*Ledger, string) {
	t.Helper()
	statusDir := t.TempDir()
	historyPath := filepath.Join(t.TempDir(), "ledger.db")

	l, err := NewLedger(statusDir, historyPath, time.Hour)
	require.NoError(t, err)
	t.Cleanup(func() { l.Close() })

	return l, statusDir
}

func writeStatusFile(t *testing.T, dir string, ws forgetypes.WorkerStatus) {
	t.Helper()
	data, err := json.Marshal(ws)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, string(ws.WorkerID)+".json"), data, 0o644))
}

func TestTick_IngestsNewStatusFiles(t *testing.T) {
	l, dir := newTestLedger(t)

	writeStatusFile(t, dir, forgetypes.WorkerStatus{
		WorkerID: "sonnet-alpha",
		Status:   forgetypes.WorkerActive,
		Model:    "sonnet",
	})

	require.NoError(t, l.Tick())

	snap := l.Snapshot()
	ws, ok := snap.Get("sonnet-alpha")
	require.True(t, ok)
	assert.Equal(t, forgetypes.WorkerActive, ws.Status)
}

func TestIngest_DualShapeCurrentTask(t *testing.T) {
	l, dir := newTestLedger(t)

	path := filepath.Join(dir, "w1.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"worker_id": "w1",
		"status": "active",
		"current_task": "task-123"
	}`), 0o644))
	l.Ingest(path)

	snap := l.Snapshot()
	ws, ok := snap.Get("w1")
	require.True(t, ok)
	assert.Equal(t, forgetypes.TaskID("task-123"), ws.CurrentTask.TaskID)

	path2 := filepath.Join(dir, "w2.json")
	require.NoError(t, os.WriteFile(path2, []byte(`{
		"worker_id": "w2",
		"status": "active",
		"current_task": {"bead_id": "task-456", "bead_title": "fix the thing", "priority": 2}
	}`), 0o644))
	l.Ingest(path2)

	snap2 := l.Snapshot()
	ws2, ok := snap2.Get("w2")
	require.True(t, ok)
	assert.Equal(t, forgetypes.TaskID("task-456"), ws2.CurrentTask.TaskID)
	assert.Equal(t, "fix the thing", ws2.CurrentTask.Title)
	assert.Equal(t, 2, ws2.CurrentTask.Priority)
}

func TestIngest_MalformedFileReportsErrorAndSkips(t *testing.T) {
	l, dir := newTestLedger(t)

	var reported []forgetypes.ErrorRecord
	l.OnError = func(rec forgetypes.ErrorRecord) { reported = append(reported, rec) }

	path := filepath.Join(dir, "broken.json")
	require.NoError(t, os.WriteFile(path, []byte("not json"), 0o644))
	l.Ingest(path)

	require.Len(t, reported, 1)
	assert.Equal(t, forgetypes.CategoryFilesystem, reported[0].Category)
	assert.Equal(t, forgetypes.SeverityWarning, reported[0].Severity)
	assert.Empty(t, l.Snapshot().Workers)
}

func TestTick_EvictsAfterConfirmedAbsence(t *testing.T) {
	l, dir := newTestLedger(t)

	path := filepath.Join(dir, "w1.json")
	writeStatusFile(t, dir, forgetypes.WorkerStatus{WorkerID: "w1", Status: forgetypes.WorkerActive})
	require.NoError(t, l.Tick())
	require.Len(t, l.Snapshot().Workers, 1)

	require.NoError(t, os.Remove(path))

	// First tick after deletion: still present (absence not yet confirmed).
	require.NoError(t, l.Tick())
	_, ok := l.Snapshot().Get("w1")
	assert.True(t, ok, "entry should survive the first missing tick")

	// Second consecutive missing tick confirms the eviction.
	require.NoError(t, l.Tick())
	_, ok = l.Snapshot().Get("w1")
	assert.False(t, ok, "entry should be evicted after confirmAfterTicks")

	histWS, ok := l.History("w1")
	require.True(t, ok)
	assert.Equal(t, forgetypes.WorkerID("w1"), histWS.WorkerID)
}

func TestUpdate_MergesPatchAndRewritesFile(t *testing.T) {
	l, dir := newTestLedger(t)

	writeStatusFile(t, dir, forgetypes.WorkerStatus{WorkerID: "w1", Status: forgetypes.WorkerActive, Model: "sonnet"})
	require.NoError(t, l.Tick())

	idle := forgetypes.WorkerIdle
	require.NoError(t, l.Update("w1", Patch{Status: &idle}))

	ws, ok := l.Snapshot().Get("w1")
	require.True(t, ok)
	assert.Equal(t, forgetypes.WorkerIdle, ws.Status)
	assert.Equal(t, "sonnet", ws.Model, "unset patch fields keep their previous value")

	data, err := os.ReadFile(filepath.Join(dir, "w1.json"))
	require.NoError(t, err)
	var onDisk forgetypes.WorkerStatus
	require.NoError(t, json.Unmarshal(data, &onDisk))
	assert.Equal(t, forgetypes.WorkerIdle, onDisk.Status)
}

func TestUpdate_UnknownWorkerReturnsNotFound(t *testing.T) {
	l, _ := newTestLedger(t)

	err := l.Update("ghost", Patch{})
	require.Error(t, err)

	var nf *NotFoundError
	require.ErrorAs(t, err, &nf)
}

func TestHistory_ExpiresAfterRetention(t *testing.T) {
	l, dir := newTestLedger(t)
	l.history.retention = time.Millisecond

	path := filepath.Join(dir, "w1.json")
	writeStatusFile(t, dir, forgetypes.WorkerStatus{WorkerID: "w1"})
	require.NoError(t, l.Tick())
	require.NoError(t, os.Remove(path))
	require.NoError(t, l.Tick())
	require.NoError(t, l.Tick())

	time.Sleep(5 * time.Millisecond)

	_, ok := l.History("w1")
	assert.False(t, ok)
}
