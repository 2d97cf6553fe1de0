package chat

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/cuemby/forge/pkg/forgetypes"
)

// AuditJournal is a crash-safe, append-only JSONL log of chat turns, one
// forgetypes.AuditEntry per line — the same newline-delimited shape the
// rest of FORGE uses for its log format.
type AuditJournal struct {
	mu    sync.Mutex
	file  *os.File
	level forgetypes.AuditLevel
}

// OpenAuditJournal opens (creating if necessary) the journal at path. If
// the file's last line is an incomplete write left over from a crash, it
// is discarded so the file always ends on a clean JSON record boundary.
func OpenAuditJournal(path string, level forgetypes.AuditLevel) (*AuditJournal, error) {
	if level == "" {
		level = forgetypes.AuditAll
	}

	if err := truncateTrailingPartialLine(path); err != nil {
		return nil, fmt.Errorf("audit journal: %w", err)
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("audit journal: open: %w", err)
	}
	return &AuditJournal{file: f, level: level}, nil
}

// truncateTrailingPartialLine drops a dangling, newline-less final line
// left by a process that crashed mid-write. Every complete record this
// package writes ends in '\n'; if the file doesn't, the bytes after the
// last newline are a partial write and are discarded.
func truncateTrailingPartialLine(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	if len(data) == 0 || data[len(data)-1] == '\n' {
		return nil
	}

	cut := bytes.LastIndexByte(data, '\n') + 1 // 0 if no newline found at all
	f, err := os.OpenFile(path, os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	return f.Truncate(int64(cut))
}

// Close closes the underlying file.
func (j *AuditJournal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.file.Close()
}

// shouldAudit reports whether turn passes this journal's level filter.
func (j *AuditJournal) shouldAudit(turn forgetypes.ChatTurn) bool {
	switch j.level {
	case forgetypes.AuditErrorsOnly:
		return !turn.Success
	case forgetypes.AuditCommandsOnly:
		return len(turn.ToolCalls) > 0
	default:
		return true
	}
}

// Append writes turn as one JSON line if it passes the level filter.
func (j *AuditJournal) Append(turn forgetypes.ChatTurn) error {
	if !j.shouldAudit(turn) {
		return nil
	}

	entry := forgetypes.AuditEntry{ChatTurn: turn, AuditLevel: j.level}
	line, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("audit journal: encode: %w", err)
	}
	line = append(line, '\n')

	j.mu.Lock()
	defer j.mu.Unlock()
	if _, err := j.file.Write(line); err != nil {
		return fmt.Errorf("audit journal: write: %w", err)
	}
	return j.file.Sync()
}
