package health

import (
	"context"
	"fmt"
	"time"

	"github.com/cuemby/forge/pkg/forgetypes"
)

// ResponseChecker pings a worker's process and fails if the round trip
// doesn't complete within Timeout. Disabled by default; only wired in
// when health.enable_response_check is set. Ping is the actual probe
// (injected; a nil Ping makes the check pass, tests use a fake), mirroring
// the teacher's ExecChecker shape of "run something with a timeout,
// classify by whether it completed".
type ResponseChecker struct {
	Timeout time.Duration
	Ping    func(ctx context.Context, pid int) error
}

func (ResponseChecker) Kind() forgetypes.CheckKind { return forgetypes.CheckResponse }

func (c ResponseChecker) Check(ctx context.Context, ws *forgetypes.WorkerStatus) forgetypes.HealthResult {
	now := time.Now()
	result := forgetypes.HealthResult{
		WorkerID:   ws.WorkerID,
		CheckKind:  forgetypes.CheckResponse,
		ObservedAt: now,
	}

	if c.Ping == nil {
		result.Outcome = forgetypes.OutcomePass
		result.Message = "no ping configured"
		return result
	}

	pingCtx, cancel := context.WithTimeout(ctx, c.Timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- c.Ping(pingCtx, ws.PID) }()

	select {
	case err := <-done:
		if err != nil {
			result.Outcome = forgetypes.OutcomeFail
			result.ErrorClass = forgetypes.ErrorClassUnresponsive
			result.Message = fmt.Sprintf("ping failed: %s", err)
			return result
		}
		result.Outcome = forgetypes.OutcomePass
		return result

	case <-pingCtx.Done():
		result.Outcome = forgetypes.OutcomeFail
		result.ErrorClass = forgetypes.ErrorClassUnresponsive
		result.Message = fmt.Sprintf("no response within %s", c.Timeout)
		return result
	}
}
