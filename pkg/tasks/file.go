package tasks

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/cuemby/forge/pkg/forgetypes"
)

// FileBinding implements Binding against a local JSONL file: one
// TaskRecord per line. It exists for environments without `br`
// installed — tests, demos — and is loaded fully into memory, the same
// marshal-per-record convention the teacher's storage package uses for
// its bbolt buckets, applied to a flat file instead.
type FileBinding struct {
	path string

	mu      sync.Mutex
	records map[forgetypes.TaskID]*forgetypes.TaskRecord
}

// NewFileBinding loads path (if it exists) into memory.
func NewFileBinding(path string) (*FileBinding, error) {
	fb := &FileBinding{path: path, records: make(map[forgetypes.TaskID]*forgetypes.TaskRecord)}

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fb, nil
		}
		return nil, fmt.Errorf("tasks: open %s: %w", path, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var rec forgetypes.TaskRecord
		if err := json.Unmarshal(line, &rec); err != nil {
			return nil, fmt.Errorf("tasks: parse %s: %w", path, err)
		}
		cp := rec
		fb.records[rec.ID] = &cp
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("tasks: read %s: %w", path, err)
	}

	return fb, nil
}

func (fb *FileBinding) persist() error {
	f, err := os.Create(fb.path)
	if err != nil {
		return fmt.Errorf("tasks: write %s: %w", fb.path, err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	for _, rec := range fb.records {
		if err := enc.Encode(rec); err != nil {
			return fmt.Errorf("tasks: encode record: %w", err)
		}
	}
	return nil
}

func (fb *FileBinding) Get(_ context.Context, id forgetypes.TaskID) (*forgetypes.TaskRecord, error) {
	fb.mu.Lock()
	defer fb.mu.Unlock()

	rec, ok := fb.records[id]
	if !ok {
		return nil, &NotFoundError{TaskID: string(id)}
	}
	cp := *rec
	return &cp, nil
}

func (fb *FileBinding) Assign(_ context.Context, id forgetypes.TaskID, worker forgetypes.WorkerID) error {
	fb.mu.Lock()
	defer fb.mu.Unlock()

	rec, ok := fb.records[id]
	if !ok {
		return &NotFoundError{TaskID: string(id)}
	}
	if rec.Assignee != nil && *rec.Assignee == worker {
		return nil
	}
	w := worker
	rec.Assignee = &w
	return fb.persist()
}

func (fb *FileBinding) Unassign(_ context.Context, id forgetypes.TaskID) error {
	fb.mu.Lock()
	defer fb.mu.Unlock()

	rec, ok := fb.records[id]
	if !ok {
		return &NotFoundError{TaskID: string(id)}
	}
	if rec.Assignee == nil {
		return nil
	}
	rec.Assignee = nil
	return fb.persist()
}

func (fb *FileBinding) SetStatus(_ context.Context, id forgetypes.TaskID, status forgetypes.TaskStatus) error {
	fb.mu.Lock()
	defer fb.mu.Unlock()

	rec, ok := fb.records[id]
	if !ok {
		return &NotFoundError{TaskID: string(id)}
	}
	if rec.Status == status {
		return nil
	}
	rec.Status = status
	return fb.persist()
}

func (fb *FileBinding) Ready(_ context.Context) ([]*forgetypes.TaskRecord, error) {
	fb.mu.Lock()
	defer fb.mu.Unlock()

	var out []*forgetypes.TaskRecord
	for _, rec := range fb.records {
		if rec.Status == forgetypes.TaskOpen && rec.Assignee == nil {
			cp := *rec
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (fb *FileBinding) Filter(_ context.Context, f Filter) ([]*forgetypes.TaskRecord, error) {
	fb.mu.Lock()
	defer fb.mu.Unlock()

	var out []*forgetypes.TaskRecord
	for _, rec := range fb.records {
		if f.Priority != nil && rec.Priority != *f.Priority {
			continue
		}
		if f.Status != nil && rec.Status != *f.Status {
			continue
		}
		if len(f.Labels) > 0 && !hasAllLabels(rec.Labels, f.Labels) {
			continue
		}
		cp := *rec
		out = append(out, &cp)
	}
	return out, nil
}

func hasAllLabels(have, want []string) bool {
	set := make(map[string]bool, len(have))
	for _, l := range have {
		set[l] = true
	}
	for _, w := range want {
		if !set[w] {
			return false
		}
	}
	return true
}

// Put inserts or replaces a record directly; used by tests and by
// import tooling, not part of the Binding interface.
func (fb *FileBinding) Put(rec *forgetypes.TaskRecord) error {
	fb.mu.Lock()
	defer fb.mu.Unlock()

	cp := *rec
	fb.records[rec.ID] = &cp
	return fb.persist()
}
