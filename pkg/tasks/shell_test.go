package tasks

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeBinary writes a shell script standing in for `br` whose body is
// the given shell code, and returns its path.
func fakeBinary(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake shell binary not supported on windows")
	}
	path := filepath.Join(t.TempDir(), "br")
	script := "#!/bin/sh\n" + body + "\n"
	require.NoError(t, os.WriteFile(path, []byte(script), 0o755))
	return path
}

func TestShellBinding_GetParsesJSON(t *testing.T) {
	bin := fakeBinary(t, `echo '{"id":"task-1","title":"fix it","status":"open"}'`)
	s := NewShellBinding(bin)

	rec, err := s.Get(context.Background(), "task-1")
	require.NoError(t, err)
	assert.Equal(t, "fix it", rec.Title)
}

func TestShellBinding_GetFailureReturnsNotFound(t *testing.T) {
	bin := fakeBinary(t, `exit 1`)
	s := NewShellBinding(bin)

	_, err := s.Get(context.Background(), "missing")
	require.Error(t, err)
	var nf *NotFoundError
	assert.ErrorAs(t, err, &nf)
}

func TestShellBinding_AssignIsIdempotentWhenAlreadyAssigned(t *testing.T) {
	// `show` reports the task as already assigned to worker-a; the
	// binding must not shell out to `assign` at all. If it did, this
	// script would fail the test by exiting nonzero on any args beyond
	// "show".
	bin := fakeBinary(t, `
case "$1" in
  show) echo '{"id":"task-1","status":"open","assignee":"worker-a"}' ;;
  *) echo "unexpected call: $@" >&2; exit 1 ;;
esac
`)
	s := NewShellBinding(bin)

	err := s.Assign(context.Background(), "task-1", "worker-a")
	assert.NoError(t, err)
}

func TestShellBinding_UnassignIsIdempotentWhenAlreadyUnassigned(t *testing.T) {
	bin := fakeBinary(t, `
case "$1" in
  show) echo '{"id":"task-1","status":"open"}' ;;
  *) echo "unexpected call: $@" >&2; exit 1 ;;
esac
`)
	s := NewShellBinding(bin)

	err := s.Unassign(context.Background(), "task-1")
	assert.NoError(t, err)
}

func TestShellBinding_SetStatusIsIdempotentWhenAlreadyInState(t *testing.T) {
	bin := fakeBinary(t, `
case "$1" in
  show) echo '{"id":"task-1","status":"in_progress"}' ;;
  *) echo "unexpected call: $@" >&2; exit 1 ;;
esac
`)
	s := NewShellBinding(bin)

	err := s.SetStatus(context.Background(), "task-1", "in_progress")
	assert.NoError(t, err)
}

func TestShellBinding_TimesOutOnSlowBinary(t *testing.T) {
	bin := fakeBinary(t, `sleep 5`)
	s := &ShellBinding{Binary: bin, Timeout: 50 * time.Millisecond}

	_, err := s.Get(context.Background(), "task-1")
	require.Error(t, err)
}
