package cost

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/mattn/go-sqlite3"

	"github.com/cuemby/forge/pkg/forgetypes"
	"github.com/cuemby/forge/pkg/log"
)

// BackoffLadder is the retry delay sequence applied to append on
// database_locked failures.
var BackoffLadder = []time.Duration{
	100 * time.Millisecond,
	200 * time.Millisecond,
	400 * time.Millisecond,
	800 * time.Millisecond,
	1600 * time.Millisecond,
}

// OverflowCapacity bounds the in-memory retry buffer append falls back
// to once BackoffLadder is exhausted.
const OverflowCapacity = 10000

// Ledger is the Cost Ledger collaborator (C5).
type Ledger struct {
	db *sql.DB

	mu       sync.Mutex
	overflow []forgetypes.CostEntry

	// OnError reports retry exhaustion and overflow drops without
	// failing the caller's append.
	OnError func(forgetypes.ErrorRecord)
}

// Open opens (creating if necessary) a sqlite-backed ledger at path.
func Open(path string) (*Ledger, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("cost: open %s: %w", path, err)
	}
	// sqlite allows only one writer at a time; serialize from this side
	// too so contention is observed as a clean retry loop rather than a
	// pile of concurrent os-thread-blocked writers.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("cost: apply schema: %w", err)
	}

	return &Ledger{db: db}, nil
}

func (l *Ledger) Close() error {
	return l.db.Close()
}

// Append persists entry synchronously, retrying on database_locked per
// BackoffLadder. If every attempt fails, entry is queued to the bounded
// overflow buffer instead of being lost, and is retried opportunistically
// by DrainOverflow.
func (l *Ledger) Append(entry forgetypes.CostEntry) error {
	attempts := 0
	var lastErr error

	for {
		attempts++
		err := l.insert(entry)
		if err == nil {
			if l.OverflowLen() > 0 {
				l.DrainOverflow()
			}
			return nil
		}
		lastErr = err

		if !isLocked(err) {
			return fmt.Errorf("cost: append: %w", err)
		}
		if attempts > len(BackoffLadder) {
			break
		}
		time.Sleep(BackoffLadder[attempts-1])
	}

	l.enqueueOverflow(entry)
	return fmt.Errorf("cost: append failed after %d attempts, queued to overflow: %w", attempts, lastErr)
}

func (l *Ledger) insert(entry forgetypes.CostEntry) error {
	_, err := l.db.Exec(
		`INSERT INTO cost_entries
		 (ts, provider, model, input_tokens, output_tokens, cache_read_tokens,
		  cache_create_tokens, cost_usd, request_ms, worker_id, task_id)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.Timestamp.UTC().Format(time.RFC3339Nano),
		entry.Provider, entry.Model,
		entry.InputTokens, entry.OutputTokens,
		entry.CacheReadTokens, entry.CacheCreateTokens,
		entry.CostUSD, entry.RequestMS,
		nullableString(string(entry.WorkerID)),
		nullableString(string(entry.TaskID)),
	)
	return err
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func isLocked(err error) bool {
	var sqliteErr sqlite3.Error
	if ok := asSqliteError(err, &sqliteErr); ok {
		return sqliteErr.Code == sqlite3.ErrBusy || sqliteErr.Code == sqlite3.ErrLocked
	}
	return false
}

// asSqliteError is a narrow errors.As wrapper kept as its own function
// so tests can stub classification without a real sqlite3.Error value.
func asSqliteError(err error, target *sqlite3.Error) bool {
	if se, ok := err.(sqlite3.Error); ok {
		*target = se
		return true
	}
	return false
}

func (l *Ledger) enqueueOverflow(entry forgetypes.CostEntry) {
	logger := log.WithComponent("cost")

	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.overflow) >= OverflowCapacity {
		dropped := l.overflow[0]
		l.overflow = l.overflow[1:]
		logger.Warn().Str("provider", dropped.Provider).Msg("cost overflow buffer full, dropping oldest entry")
		if l.OnError != nil {
			l.OnError(forgetypes.ErrorRecord{
				Category:  forgetypes.CategoryDatabase,
				Severity:  forgetypes.SeverityWarning,
				Component: "cost",
				Message:   "overflow buffer full, dropped oldest cost entry",
				At:        time.Now(),
			})
		}
	}
	l.overflow = append(l.overflow, entry)
}

// DrainOverflow retries every buffered entry once. Entries that still
// fail remain in the buffer for the next call.
func (l *Ledger) DrainOverflow() {
	l.mu.Lock()
	pending := l.overflow
	l.overflow = nil
	l.mu.Unlock()

	var remaining []forgetypes.CostEntry
	for _, entry := range pending {
		if err := l.insert(entry); err != nil {
			remaining = append(remaining, entry)
		}
	}

	if len(remaining) > 0 {
		l.mu.Lock()
		l.overflow = append(remaining, l.overflow...)
		l.mu.Unlock()
	}
}

// OverflowLen reports how many entries currently sit in the overflow
// buffer.
func (l *Ledger) OverflowLen() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.overflow)
}
