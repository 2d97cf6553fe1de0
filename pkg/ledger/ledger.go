package ledger

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/cuemby/forge/pkg/forgetypes"
)

// confirmAfterTicks is how many consecutive ticks a worker's status file
// may be missing before its entry is evicted from the live map. One
// means "gone the moment it's missing"; two gives a single re-check
// before treating the absence as confirmed, per the ledger's eviction
// contract.
const confirmAfterTicks = 2

// DefaultPollInterval is the tick() fallback cadence used when the
// filesystem watcher is idle or unavailable.
const DefaultPollInterval = 2 * time.Second

// Patch is a partial update to a WorkerStatus. Nil fields are left
// unchanged.
type Patch struct {
	Status         *forgetypes.WorkerState
	CurrentTask    *forgetypes.CurrentTask
	LastActivity   *time.Time
	TasksCompleted *int
}

// Snapshot is an immutable, point-in-time view of the ledger suitable
// for concurrent readers.
type Snapshot struct {
	Workers map[forgetypes.WorkerID]*forgetypes.WorkerStatus
	At      time.Time
}

// Get returns the status for id, if present in the snapshot.
func (s Snapshot) Get(id forgetypes.WorkerID) (*forgetypes.WorkerStatus, bool) {
	ws, ok := s.Workers[id]
	return ws, ok
}

// Ledger is the Status Ledger (C1).
type Ledger struct {
	statusDir string

	mu           sync.RWMutex
	entries      map[forgetypes.WorkerID]*forgetypes.WorkerStatus
	missingTicks map[forgetypes.WorkerID]int

	history *historyStore

	// OnError is invoked for every malformed status file ingest
	// produces. It is never called concurrently with itself.
	OnError func(forgetypes.ErrorRecord)
}

// NewLedger opens (or creates) the history database at historyPath and
// returns a Ledger that watches statusDir. retention controls how long
// an evicted worker's last known status remains queryable.
func NewLedger(statusDir, historyPath string, retention time.Duration) (*Ledger, error) {
	hist, err := openHistoryStore(historyPath)
	if err != nil {
		return nil, fmt.Errorf("ledger: open history store: %w", err)
	}
	hist.retention = retention

	return &Ledger{
		statusDir:    statusDir,
		entries:      make(map[forgetypes.WorkerID]*forgetypes.WorkerStatus),
		missingTicks: make(map[forgetypes.WorkerID]int),
		history:      hist,
	}, nil
}

// Close releases the history store's underlying database handle.
func (l *Ledger) Close() error {
	return l.history.close()
}

// Snapshot returns a cheap, immutable view of the current status map.
// Callers must not mutate the returned entries.
func (l *Ledger) Snapshot() Snapshot {
	l.mu.RLock()
	defer l.mu.RUnlock()

	workers := make(map[forgetypes.WorkerID]*forgetypes.WorkerStatus, len(l.entries))
	for id, ws := range l.entries {
		workers[id] = ws.Clone()
	}
	return Snapshot{Workers: workers, At: time.Now()}
}

// History returns the last known status of a worker that has since been
// evicted, if it is still within the retention window.
func (l *Ledger) History(id forgetypes.WorkerID) (*forgetypes.WorkerStatus, bool) {
	return l.history.get(id)
}

// Ingest parses a single status file and merges it into the live map.
// A malformed file is reported through OnError and swallowed: it never
// fails the caller's tick.
func (l *Ledger) Ingest(path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		l.reportError(path, fmt.Sprintf("read: %s", err))
		return
	}

	var ws forgetypes.WorkerStatus
	if err := json.Unmarshal(data, &ws); err != nil {
		l.reportError(path, fmt.Sprintf("parse: %s", err))
		return
	}
	if ws.WorkerID == "" {
		l.reportError(path, "missing worker_id")
		return
	}

	l.mu.Lock()
	l.entries[ws.WorkerID] = &ws
	l.missingTicks[ws.WorkerID] = 0
	l.mu.Unlock()
}

func (l *Ledger) reportError(path, detail string) {
	if l.OnError == nil {
		return
	}
	l.OnError(forgetypes.ErrorRecord{
		ID:       uuid.NewString(),
		Category: forgetypes.CategoryFilesystem,
		Severity: forgetypes.SeverityWarning,
		Component: "ledger",
		Message:  fmt.Sprintf("%s: %s", path, detail),
		At:       time.Now(),
	})
}

// Tick enumerates the status directory, ingests every status file found,
// and evicts entries that have been absent for confirmAfterTicks
// consecutive ticks.
func (l *Ledger) Tick() error {
	entries, err := os.ReadDir(l.statusDir)
	if err != nil {
		return fmt.Errorf("ledger: read status dir: %w", err)
	}

	present := make(map[forgetypes.WorkerID]bool)
	for _, de := range entries {
		if de.IsDir() {
			continue
		}
		name := de.Name()
		if !strings.HasSuffix(name, ".json") || strings.HasSuffix(name, ".json.tmp") {
			continue
		}
		id := forgetypes.WorkerID(strings.TrimSuffix(name, ".json"))
		present[id] = true
		l.Ingest(filepath.Join(l.statusDir, name))
	}

	l.mu.Lock()
	var evicted []*forgetypes.WorkerStatus
	for id, ws := range l.entries {
		if present[id] {
			continue
		}
		l.missingTicks[id]++
		if l.missingTicks[id] >= confirmAfterTicks {
			evicted = append(evicted, ws)
			delete(l.entries, id)
			delete(l.missingTicks, id)
		}
	}
	l.mu.Unlock()

	for _, ws := range evicted {
		if err := l.history.put(ws); err != nil {
			l.reportError(string(ws.WorkerID), fmt.Sprintf("history put: %s", err))
		}
	}

	return l.history.prune(time.Now())
}

// Update merges patch into the worker's live entry and rewrites its
// status file atomically via temp-file-then-rename.
func (l *Ledger) Update(id forgetypes.WorkerID, patch Patch) error {
	l.mu.Lock()
	ws, ok := l.entries[id]
	if !ok {
		l.mu.Unlock()
		return &NotFoundError{WorkerID: string(id)}
	}
	updated := ws.Clone()
	if patch.Status != nil {
		updated.Status = *patch.Status
	}
	if patch.CurrentTask != nil {
		updated.CurrentTask = *patch.CurrentTask
	}
	if patch.LastActivity != nil {
		updated.LastActivity = *patch.LastActivity
	}
	if patch.TasksCompleted != nil {
		updated.TasksCompleted = *patch.TasksCompleted
	}
	l.entries[id] = updated
	l.mu.Unlock()

	return writeStatusAtomic(l.statusDir, updated)
}

func writeStatusAtomic(dir string, ws *forgetypes.WorkerStatus) error {
	data, err := json.Marshal(ws)
	if err != nil {
		return fmt.Errorf("ledger: marshal status: %w", err)
	}

	final := filepath.Join(dir, string(ws.WorkerID)+".json")
	tmp := final + ".tmp"

	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("ledger: write temp status file: %w", err)
	}
	if err := os.Rename(tmp, final); err != nil {
		return fmt.Errorf("ledger: rename status file: %w", err)
	}
	return nil
}
