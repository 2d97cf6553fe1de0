package tasks

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
	"time"

	"github.com/cuemby/forge/pkg/forgetypes"
)

// DefaultTimeout bounds how long a single `br` invocation may run.
const DefaultTimeout = 10 * time.Second

// ShellBinding implements Binding by shelling out to an external tracker
// CLI (`br` by convention), mirroring the teacher's client package's
// shape of a thin wrapper translating domain calls into transport calls
// — here the transport is a subprocess instead of a gRPC channel.
type ShellBinding struct {
	Binary  string
	Timeout time.Duration
}

// NewShellBinding returns a ShellBinding invoking binary (or "br" if
// empty) with DefaultTimeout.
func NewShellBinding(binary string) *ShellBinding {
	if binary == "" {
		binary = "br"
	}
	return &ShellBinding{Binary: binary, Timeout: DefaultTimeout}
}

func (s *ShellBinding) run(ctx context.Context, args ...string) ([]byte, error) {
	timeout := s.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, s.Binary, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("%s %v: %w (%s)", s.Binary, args, err, stderr.String())
	}
	return stdout.Bytes(), nil
}

func (s *ShellBinding) Get(ctx context.Context, id forgetypes.TaskID) (*forgetypes.TaskRecord, error) {
	out, err := s.run(ctx, "show", string(id), "--json")
	if err != nil {
		return nil, &NotFoundError{TaskID: string(id)}
	}
	var rec forgetypes.TaskRecord
	if err := json.Unmarshal(out, &rec); err != nil {
		return nil, fmt.Errorf("tasks: parse %s output: %w", s.Binary, err)
	}
	return &rec, nil
}

func (s *ShellBinding) Assign(ctx context.Context, id forgetypes.TaskID, worker forgetypes.WorkerID) error {
	existing, err := s.Get(ctx, id)
	if err == nil && existing.Assignee != nil && *existing.Assignee == worker {
		return nil
	}
	_, err = s.run(ctx, "assign", string(id), "--worker", string(worker))
	return err
}

func (s *ShellBinding) Unassign(ctx context.Context, id forgetypes.TaskID) error {
	existing, err := s.Get(ctx, id)
	if err == nil && existing.Assignee == nil {
		return nil
	}
	_, err = s.run(ctx, "unassign", string(id))
	return err
}

func (s *ShellBinding) SetStatus(ctx context.Context, id forgetypes.TaskID, status forgetypes.TaskStatus) error {
	existing, err := s.Get(ctx, id)
	if err == nil && existing.Status == status {
		return nil
	}
	_, err = s.run(ctx, "status", string(id), string(status))
	return err
}

func (s *ShellBinding) Ready(ctx context.Context) ([]*forgetypes.TaskRecord, error) {
	out, err := s.run(ctx, "ready", "--json")
	if err != nil {
		return nil, err
	}
	var recs []*forgetypes.TaskRecord
	if err := json.Unmarshal(out, &recs); err != nil {
		return nil, fmt.Errorf("tasks: parse %s output: %w", s.Binary, err)
	}
	return recs, nil
}

func (s *ShellBinding) Filter(ctx context.Context, f Filter) ([]*forgetypes.TaskRecord, error) {
	args := []string{"list", "--json"}
	if f.Priority != nil {
		args = append(args, "--priority", strconv.Itoa(*f.Priority))
	}
	if f.Status != nil {
		args = append(args, "--status", string(*f.Status))
	}
	for _, label := range f.Labels {
		args = append(args, "--label", label)
	}

	out, err := s.run(ctx, args...)
	if err != nil {
		return nil, err
	}
	var recs []*forgetypes.TaskRecord
	if err := json.Unmarshal(out, &recs); err != nil {
		return nil, fmt.Errorf("tasks: parse %s output: %w", s.Binary, err)
	}
	return recs, nil
}
