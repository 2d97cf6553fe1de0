package launcher

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"syscall"
	"time"

	"github.com/cuemby/forge/pkg/faults"
	"github.com/cuemby/forge/pkg/forgetypes"
)

// DefaultSpawnTimeout bounds how long the launcher process is given to
// print its JSON summary and exit.
const DefaultSpawnTimeout = 10 * time.Second

// DefaultStatusWindow bounds the post-spawn wait for a status file to
// appear at the canonical path.
const DefaultStatusWindow = 5 * time.Second

// StatusAccessor answers whether a worker's status is currently known,
// without this package depending on the status ledger directly.
type StatusAccessor interface {
	Get(id forgetypes.WorkerID) (*forgetypes.WorkerStatus, bool)
}

// StatusAccessorFunc adapts a plain function to StatusAccessor.
type StatusAccessorFunc func(id forgetypes.WorkerID) (*forgetypes.WorkerStatus, bool)

func (f StatusAccessorFunc) Get(id forgetypes.WorkerID) (*forgetypes.WorkerStatus, bool) { return f(id) }

// Config configures a Launcher.
type Config struct {
	// BinaryPath is the launcher program to invoke.
	BinaryPath string
	// SpawnTimeout bounds the launcher process itself. Defaults to
	// DefaultSpawnTimeout.
	SpawnTimeout time.Duration
	// StatusWindow bounds the post-spawn wait for a status file.
	// Defaults to DefaultStatusWindow.
	StatusWindow time.Duration
	// StatusPollInterval controls how often the status window polls
	// Accessor. Defaults to 100ms.
	StatusPollInterval time.Duration
}

// Launcher invokes an external launcher program and validates its
// result.
type Launcher struct {
	cfg      Config
	accessor StatusAccessor

	// now is overridable in tests.
	now func() time.Time
}

// New builds a Launcher. accessor may be nil, in which case post-spawn
// validation is skipped (useful for launchers that are themselves
// synchronous and already known-live by the time Spawn returns).
func New(cfg Config, accessor StatusAccessor) *Launcher {
	if cfg.SpawnTimeout <= 0 {
		cfg.SpawnTimeout = DefaultSpawnTimeout
	}
	if cfg.StatusWindow <= 0 {
		cfg.StatusWindow = DefaultStatusWindow
	}
	if cfg.StatusPollInterval <= 0 {
		cfg.StatusPollInterval = 100 * time.Millisecond
	}
	return &Launcher{cfg: cfg, accessor: accessor, now: time.Now}
}

// args builds the launcher's fixed flag schema:
// --model=<m> --workspace=<p> --session-name=<id> [--bead-ref=<task_id>] [--config=<path>]
func args(req forgetypes.SpawnRequest) []string {
	sessionName := req.SessionName
	if sessionName == "" {
		sessionName = string(req.WorkerID)
	}
	out := []string{
		"--model=" + req.Model,
		"--workspace=" + req.Workspace,
		"--session-name=" + sessionName,
	}
	if req.BeadRef != "" {
		out = append(out, "--bead-ref="+string(req.BeadRef))
	}
	if req.ConfigPath != "" {
		out = append(out, "--config="+req.ConfigPath)
	}
	return out
}

// Spawn invokes the launcher binary for req and returns its parsed
// SpawnOutcome once the post-spawn status window (if an accessor was
// configured) confirms the worker is visible.
func (l *Launcher) Spawn(ctx context.Context, req forgetypes.SpawnRequest) (*forgetypes.SpawnOutcome, error) {
	execCtx, cancel := context.WithTimeout(ctx, l.cfg.SpawnTimeout)
	defer cancel()

	cmd := exec.CommandContext(execCtx, l.cfg.BinaryPath, args(req)...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()
	if runErr != nil {
		var exitErr *exec.ExitError
		exitCode := -1
		if errors.As(runErr, &exitErr) {
			exitCode = exitErr.ExitCode()
		}
		return nil, &faults.SpawnError{ExitCode: exitCode, Stderr: stderr.String()}
	}

	outcome, err := parseOutcome(stdout.Bytes())
	if err != nil {
		return nil, &faults.SpawnError{ExitCode: 0, Stderr: fmt.Sprintf("malformed launcher stdout: %v", err)}
	}

	if !l.isLive(outcome.PID) {
		return nil, &faults.SpawnError{ExitCode: 0, Stderr: fmt.Sprintf("reported pid %d is not a live process", outcome.PID)}
	}

	if l.accessor != nil {
		if err := l.awaitStatus(execCtx, outcome.WorkerID); err != nil {
			return nil, err
		}
	}

	return outcome, nil
}

// parseOutcome decodes exactly one JSON object from stdout and rejects
// anything else trailing it — the contract is a single object and
// nothing more.
func parseOutcome(stdout []byte) (*forgetypes.SpawnOutcome, error) {
	dec := json.NewDecoder(bytes.NewReader(stdout))

	var outcome forgetypes.SpawnOutcome
	if err := dec.Decode(&outcome); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	if outcome.WorkerID == "" {
		return nil, errors.New("missing worker_id")
	}
	if outcome.Status == "" {
		outcome.Status = "spawned"
	}

	var trailing json.RawMessage
	if err := dec.Decode(&trailing); !errors.Is(err, io.EOF) {
		return nil, errors.New("stdout contains more than one JSON value")
	}

	return &outcome, nil
}

// Kill signals a worker's process by pid: SIGTERM by default, or SIGKILL
// when force is set. A pid that no longer resolves to a live process is
// not an error — the worker is already gone, which is the caller's
// desired end state either way.
func (l *Launcher) Kill(pid int, force bool) error {
	if pid <= 0 {
		return fmt.Errorf("launcher: invalid pid %d", pid)
	}
	proc, err := os.FindProcess(pid)
	if err != nil {
		return nil
	}
	sig := syscall.SIGTERM
	if force {
		sig = syscall.SIGKILL
	}

	err = proc.Signal(sig)
	if err == nil || !l.isLive(pid) {
		return nil
	}
	return fmt.Errorf("launcher: kill pid %d: %w", pid, err)
}

// isLive reports whether pid references a process that can receive
// signals — the same liveness probe the health monitor's pid_exists
// check performs.
func (l *Launcher) isLive(pid int) bool {
	if pid <= 0 {
		return false
	}
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	return proc.Signal(syscall.Signal(0)) == nil
}

// awaitStatus polls the accessor until id appears or the status window
// elapses.
func (l *Launcher) awaitStatus(ctx context.Context, id forgetypes.WorkerID) error {
	deadline := l.now().Add(l.cfg.StatusWindow)
	ticker := time.NewTicker(l.cfg.StatusPollInterval)
	defer ticker.Stop()

	for {
		if _, ok := l.accessor.Get(id); ok {
			return nil
		}
		if !l.now().Before(deadline) {
			return &faults.SpawnTimeoutError{WorkerID: string(id)}
		}
		select {
		case <-ctx.Done():
			return &faults.SpawnTimeoutError{WorkerID: string(id)}
		case <-ticker.C:
		}
	}
}
