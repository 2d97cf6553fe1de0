package health

import (
	"context"
	"fmt"
	"time"

	"github.com/cuemby/forge/pkg/forgetypes"
)

// ActivityChecker fails a worker whose last_activity is older than the
// configured stale threshold.
type ActivityChecker struct {
	Threshold time.Duration
}

func (ActivityChecker) Kind() forgetypes.CheckKind { return forgetypes.CheckActivityFresh }

func (c ActivityChecker) Check(_ context.Context, ws *forgetypes.WorkerStatus) forgetypes.HealthResult {
	now := time.Now()
	age := now.Sub(ws.LastActivity)

	result := forgetypes.HealthResult{
		WorkerID:   ws.WorkerID,
		CheckKind:  forgetypes.CheckActivityFresh,
		ObservedAt: now,
	}

	if age > c.Threshold {
		result.Outcome = forgetypes.OutcomeFail
		result.ErrorClass = forgetypes.ErrorClassStaleActivity
		result.Message = fmt.Sprintf("last activity %s ago, threshold %s", age.Round(time.Second), c.Threshold)
		return result
	}

	result.Outcome = forgetypes.OutcomePass
	return result
}
