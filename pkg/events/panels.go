package events

import "sync"

// Panel identifies one region of the terminal UI that can be marked
// dirty and redrawn independently.
type Panel string

const (
	PanelWorker   Panel = "worker"
	PanelTask     Panel = "task"
	PanelCost     Panel = "cost"
	PanelChat     Panel = "chat"
	PanelLog      Panel = "log"
	PanelOverview Panel = "overview"
	PanelMetrics  Panel = "metrics"
	PanelAlerts   Panel = "alerts"
)

// eventPanels maps each event type to the panels it dirties. An event
// type absent from this map dirties no panel (e.g. render.tick itself).
var eventPanels = map[EventType][]Panel{
	EventWorkerHealth: {PanelWorker, PanelOverview},
	EventWorkerCrash:  {PanelWorker, PanelOverview, PanelAlerts},
	EventChatTurn:     {PanelChat},
	EventCostEntry:    {PanelCost, PanelOverview},
	EventFSChanged:    {PanelLog},
	EventError:        {PanelAlerts},
}

// PanelSet tracks which panels are dirty and need a redraw.
type PanelSet struct {
	mu    sync.Mutex
	dirty map[Panel]bool
}

// NewPanelSet returns an empty tracker.
func NewPanelSet() *PanelSet {
	return &PanelSet{dirty: make(map[Panel]bool)}
}

// Mark flags a panel dirty directly.
func (p *PanelSet) Mark(panel Panel) {
	p.mu.Lock()
	p.dirty[panel] = true
	p.mu.Unlock()
}

// MarkForEvent flags whichever panels the given event type affects.
func (p *PanelSet) MarkForEvent(t EventType) {
	panels, ok := eventPanels[t]
	if !ok {
		return
	}
	p.mu.Lock()
	for _, panel := range panels {
		p.dirty[panel] = true
	}
	p.mu.Unlock()
}

// TakeDirty returns the currently dirty panels and clears the set.
func (p *PanelSet) TakeDirty() []Panel {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.dirty) == 0 {
		return nil
	}
	out := make([]Panel, 0, len(p.dirty))
	for panel := range p.dirty {
		out = append(out, panel)
	}
	p.dirty = make(map[Panel]bool)
	return out
}

// Any reports whether at least one panel is currently dirty.
func (p *PanelSet) Any() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.dirty) > 0
}
