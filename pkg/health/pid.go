package health

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/cuemby/forge/pkg/forgetypes"
)

// PIDChecker verifies the PID recorded in a worker's status file
// references a live, non-zombie process.
type PIDChecker struct{}

func (PIDChecker) Kind() forgetypes.CheckKind { return forgetypes.CheckPIDExists }

func (PIDChecker) Check(_ context.Context, ws *forgetypes.WorkerStatus) forgetypes.HealthResult {
	now := time.Now()
	base := forgetypes.HealthResult{
		WorkerID:   ws.WorkerID,
		CheckKind:  forgetypes.CheckPIDExists,
		ObservedAt: now,
	}

	if ws.PID <= 0 {
		base.Outcome = forgetypes.OutcomeFail
		base.ErrorClass = forgetypes.ErrorClassDeadProcess
		base.Message = "no pid recorded"
		return base
	}

	alive, zombie, err := processState(ws.PID)
	if err != nil {
		base.Outcome = forgetypes.OutcomeFail
		base.ErrorClass = forgetypes.ErrorClassDeadProcess
		base.Message = fmt.Sprintf("pid %d: %s", ws.PID, err)
		return base
	}
	if !alive || zombie {
		base.Outcome = forgetypes.OutcomeFail
		base.ErrorClass = forgetypes.ErrorClassDeadProcess
		if zombie {
			base.Message = fmt.Sprintf("pid %d is a zombie", ws.PID)
		} else {
			base.Message = fmt.Sprintf("pid %d is not running", ws.PID)
		}
		return base
	}

	base.Outcome = forgetypes.OutcomePass
	return base
}

// processState reports whether pid exists and, on Linux, whether the
// kernel reports it as a zombie via /proc/<pid>/stat. On other
// platforms zombie detection is unavailable and only liveness is
// checked via signal 0.
func processState(pid int) (alive bool, zombie bool, err error) {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false, false, err
	}

	if sigErr := proc.Signal(syscall.Signal(0)); sigErr != nil {
		return false, false, nil
	}

	if runtime.GOOS != "linux" {
		return true, false, nil
	}

	data, err := os.ReadFile(fmt.Sprintf("/proc/%d/stat", pid))
	if err != nil {
		// The process vanished between the signal check and the /proc
		// read; treat it as not alive rather than erroring out.
		return false, false, nil
	}

	state, ok := statState(string(data))
	if !ok {
		return true, false, nil
	}
	return true, state == "Z", nil
}

// statState extracts the single-character state field from a
// /proc/<pid>/stat line. The command name is parenthesized and may
// itself contain spaces, so the state is found after the last ')'.
func statState(line string) (string, bool) {
	close := strings.LastIndex(line, ")")
	if close < 0 {
		return "", false
	}
	fields := strings.Fields(line[close+1:])
	if len(fields) == 0 {
		return "", false
	}
	return fields[0], true
}
