package faults

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/cuemby/forge/pkg/events"
	"github.com/cuemby/forge/pkg/forgetypes"
)

// RingSize bounds how many ErrorRecords the Manager retains per
// component, mirroring the Crash Recovery ring shape.
const RingSize = 50

// Manager aggregates ErrorRecords across components and tracks which
// components are currently degraded.
type Manager struct {
	bus *events.Bus

	mu       sync.Mutex
	records  map[string][]forgetypes.ErrorRecord
	degraded map[string]*forgetypes.ErrorRecord
}

// NewManager builds a Manager. bus may be nil if no event should be
// published on record().
func NewManager(bus *events.Bus) *Manager {
	return &Manager{
		bus:      bus,
		records:  make(map[string][]forgetypes.ErrorRecord),
		degraded: make(map[string]*forgetypes.ErrorRecord),
	}
}

// Record appends an ErrorRecord for component, trims its ring to
// RingSize, and publishes an event on the bus if one is attached.
func (m *Manager) Record(component string, category forgetypes.ErrorCategory, severity forgetypes.Severity, message string) string {
	rec := forgetypes.ErrorRecord{
		ID:        uuid.NewString(),
		Category:  category,
		Severity:  severity,
		Component: component,
		Message:   message,
		At:        time.Now(),
	}

	m.mu.Lock()
	ring := append(m.records[component], rec)
	if len(ring) > RingSize {
		ring = ring[len(ring)-RingSize:]
	}
	m.records[component] = ring
	m.mu.Unlock()

	if m.bus != nil {
		m.bus.Publish(&events.Event{
			Type:    events.EventError,
			Message: message,
			Metadata: map[string]string{
				"component": component,
				"category":  string(category),
				"severity":  string(severity),
			},
			Payload: rec,
		})
	}

	return rec.ID
}

// MarkDegraded flags component as degraded, pointing at the ErrorRecord
// (by id) that caused it. Idempotent: calling it again for the same
// component overwrites the pointer but does not change degraded state.
func (m *Manager) MarkDegraded(component, errorID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.records[component] {
		if m.records[component][i].ID == errorID {
			rec := m.records[component][i]
			m.degraded[component] = &rec
			return
		}
	}
}

// MarkRecovered clears the degraded marker for component, if any.
func (m *Manager) MarkRecovered(component string) {
	m.mu.Lock()
	delete(m.degraded, component)
	m.mu.Unlock()
}

// IsDegraded reports whether component is currently flagged degraded.
func (m *Manager) IsDegraded(component string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.degraded[component]
	return ok
}

// Degraded returns a snapshot of every currently degraded component and
// the ErrorRecord that triggered it.
func (m *Manager) Degraded() map[string]forgetypes.ErrorRecord {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make(map[string]forgetypes.ErrorRecord, len(m.degraded))
	for component, rec := range m.degraded {
		out[component] = *rec
	}
	return out
}

// Unacknowledged returns every ErrorRecord across all components that
// has not yet been acknowledged, newest first.
func (m *Manager) Unacknowledged() []forgetypes.ErrorRecord {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []forgetypes.ErrorRecord
	for _, ring := range m.records {
		for _, rec := range ring {
			if !rec.Acknowledged {
				out = append(out, rec)
			}
		}
	}
	sortByAtDesc(out)
	return out
}

// Acknowledge marks the record with the given id as acknowledged across
// all components.
func (m *Manager) Acknowledge(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	for component, ring := range m.records {
		for i := range ring {
			if ring[i].ID == id {
				ring[i].Acknowledged = true
				m.records[component] = ring
				return true
			}
		}
	}
	return false
}

func sortByAtDesc(records []forgetypes.ErrorRecord) {
	for i := 1; i < len(records); i++ {
		for j := i; j > 0 && records[j].At.After(records[j-1].At); j-- {
			records[j], records[j-1] = records[j-1], records[j]
		}
	}
}
