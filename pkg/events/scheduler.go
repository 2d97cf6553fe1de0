package events

import (
	"context"
	"time"

	"github.com/cuemby/forge/pkg/log"
)

// Renderer is the out-of-scope TUI backend: given the set of panels that
// changed since the last frame, it draws them.
type Renderer interface {
	Render(dirty []Panel)
}

// DefaultMaxFPS bounds how often Scheduler calls Renderer.Render.
const DefaultMaxFPS = 60

// Scheduler subscribes to a Bus, tracks dirty panels, and calls a
// Renderer at most once per coalesced frame.
type Scheduler struct {
	bus      *Bus
	panels   *PanelSet
	renderer Renderer
	maxFPS   int
}

// NewScheduler builds a scheduler reading from bus and driving renderer.
// maxFPS <= 0 uses DefaultMaxFPS.
func NewScheduler(bus *Bus, renderer Renderer, maxFPS int) *Scheduler {
	if maxFPS <= 0 {
		maxFPS = DefaultMaxFPS
	}
	return &Scheduler{
		bus:      bus,
		panels:   NewPanelSet(),
		renderer: renderer,
		maxFPS:   maxFPS,
	}
}

// Run subscribes to the bus and drives coalesced redraws until ctx is
// cancelled. It is single-threaded cooperative: the render loop itself
// never blocks on provider IO or ledger writes, which report back onto
// the bus from their own goroutines instead.
func (s *Scheduler) Run(ctx context.Context) {
	logger := log.WithComponent("render")
	sub := s.bus.Subscribe()
	defer s.bus.Unsubscribe(sub)

	interval := time.Second / time.Duration(s.maxFPS)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	logger.Info().Int("max_fps", s.maxFPS).Msg("render scheduler started")

	for {
		select {
		case ev, ok := <-sub:
			if !ok {
				return
			}
			s.panels.MarkForEvent(ev.Type)
		case <-ticker.C:
			if dirty := s.panels.TakeDirty(); len(dirty) > 0 {
				s.renderer.Render(dirty)
			}
		case <-ctx.Done():
			logger.Info().Msg("render scheduler stopped")
			return
		}
	}
}
