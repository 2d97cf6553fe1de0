package health

import (
	"context"
	"fmt"
	"time"

	"github.com/cuemby/forge/pkg/forgetypes"
)

// TaskProgressChecker fails a worker that claims to be actively working a
// task but whose activity has gone stale past the (looser) stuck
// threshold.
type TaskProgressChecker struct {
	StuckThreshold time.Duration
}

func (TaskProgressChecker) Kind() forgetypes.CheckKind { return forgetypes.CheckTaskProgress }

func (c TaskProgressChecker) Check(_ context.Context, ws *forgetypes.WorkerStatus) forgetypes.HealthResult {
	now := time.Now()
	result := forgetypes.HealthResult{
		WorkerID:   ws.WorkerID,
		CheckKind:  forgetypes.CheckTaskProgress,
		ObservedAt: now,
	}

	if ws.Status != forgetypes.WorkerActive || ws.CurrentTask.IsZero() {
		result.Outcome = forgetypes.OutcomePass
		return result
	}

	age := now.Sub(ws.LastActivity)
	if age > c.StuckThreshold {
		result.Outcome = forgetypes.OutcomeFail
		result.ErrorClass = forgetypes.ErrorClassStuckTask
		result.Message = fmt.Sprintf("task %s has seen no activity for %s, threshold %s",
			ws.CurrentTask.TaskID, age.Round(time.Second), c.StuckThreshold)
		return result
	}

	result.Outcome = forgetypes.OutcomePass
	return result
}
