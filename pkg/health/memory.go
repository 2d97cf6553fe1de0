package health

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/cuemby/forge/pkg/forgetypes"
)

// MemoryChecker fails a worker whose resident-set size exceeds Limit.
// Disabled by default; only wired in when health.enable_memory_check is
// set.
type MemoryChecker struct {
	Limit int64
}

func (MemoryChecker) Kind() forgetypes.CheckKind { return forgetypes.CheckMemory }

func (c MemoryChecker) Check(_ context.Context, ws *forgetypes.WorkerStatus) forgetypes.HealthResult {
	now := time.Now()
	result := forgetypes.HealthResult{
		WorkerID:   ws.WorkerID,
		CheckKind:  forgetypes.CheckMemory,
		ObservedAt: now,
	}

	rss, err := residentSetSize(ws.PID)
	if err != nil {
		result.Outcome = forgetypes.OutcomePass
		result.Message = fmt.Sprintf("rss unavailable: %s", err)
		return result
	}

	if rss > c.Limit {
		result.Outcome = forgetypes.OutcomeFail
		result.ErrorClass = forgetypes.ErrorClassHighMemory
		result.Message = fmt.Sprintf("rss %d bytes exceeds limit %d bytes", rss, c.Limit)
		return result
	}

	result.Outcome = forgetypes.OutcomePass
	return result
}

func residentSetSize(pid int) (int64, error) {
	if runtime.GOOS != "linux" {
		return 0, fmt.Errorf("memory check unsupported on %s", runtime.GOOS)
	}

	f, err := os.Open(fmt.Sprintf("/proc/%d/status", pid))
	if err != nil {
		return 0, err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "VmRSS:") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			return 0, fmt.Errorf("malformed VmRSS line")
		}
		kb, err := strconv.ParseInt(fields[1], 10, 64)
		if err != nil {
			return 0, err
		}
		return kb * 1024, nil
	}
	return 0, fmt.Errorf("VmRSS not found")
}
