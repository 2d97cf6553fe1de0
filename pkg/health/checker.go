package health

import (
	"context"
	"time"

	"github.com/cuemby/forge/pkg/forgetypes"
)

// Checker evaluates one check kind against one worker's current status.
type Checker interface {
	Kind() forgetypes.CheckKind
	Check(ctx context.Context, ws *forgetypes.WorkerStatus) forgetypes.HealthResult
}

// Config holds the tunables that govern check behavior, sourced from the
// health.* section of FORGE's config surface.
type Config struct {
	StaleActivityThreshold time.Duration
	TaskStuckThreshold     time.Duration
	EnableMemoryCheck      bool
	MaxMemoryBytes         int64
	EnableResponseCheck    bool
	ResponseTimeout        time.Duration
	// Responder is the probe the response check runs; it is injected so
	// tests can fake it. When it is nil the response check passes without
	// probing, and cmd/forge does not set it.
	Responder func(ctx context.Context, pid int) error
}
