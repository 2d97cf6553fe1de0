package chat

import (
	"sync"
	"time"

	"github.com/cuemby/forge/pkg/forgetypes"
)

// DefaultContextTTL bounds how long a gathered DashboardContext is
// reused before the next provider call triggers a fresh gather.
const DefaultContextTTL = 5 * time.Second

// ContextSource assembles a DashboardContext snapshot from the other
// components. The pipeline depends on this interface rather than on
// the ledger/cost/tasks packages directly, so its own tests can supply
// canned snapshots.
type ContextSource interface {
	Gather() forgetypes.DashboardContext
}

// ContextSourceFunc adapts a plain function to ContextSource.
type ContextSourceFunc func() forgetypes.DashboardContext

func (f ContextSourceFunc) Gather() forgetypes.DashboardContext { return f() }

// cachedContext wraps a ContextSource with a short TTL cache so a
// rapid sequence of tool calls within one turn doesn't re-gather on
// every provider round-trip.
type cachedContext struct {
	source ContextSource
	ttl    time.Duration

	mu       sync.Mutex
	cached   forgetypes.DashboardContext
	cachedAt time.Time
}

func newCachedContext(source ContextSource, ttl time.Duration) *cachedContext {
	if ttl <= 0 {
		ttl = DefaultContextTTL
	}
	return &cachedContext{source: source, ttl: ttl}
}

func (c *cachedContext) get(now time.Time) forgetypes.DashboardContext {
	c.mu.Lock()
	defer c.mu.Unlock()

	if now.Sub(c.cachedAt) <= c.ttl && !c.cachedAt.IsZero() {
		return c.cached
	}

	c.cached = c.source.Gather()
	if c.cached.GatheredAt.IsZero() {
		c.cached.GatheredAt = now
	}
	c.cachedAt = now
	return c.cached
}
