package health

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuemby/forge/pkg/forgetypes"
)

func testConfig() Config {
	return Config{
		StaleActivityThreshold: 15 * time.Minute,
		TaskStuckThreshold:     30 * time.Minute,
	}
}

func TestMonitor_AllChecksPass(t *testing.T) {
	m := NewMonitor(testConfig())
	ws := &forgetypes.WorkerStatus{
		WorkerID:     "w1",
		Status:       forgetypes.WorkerIdle,
		PID:          os.Getpid(),
		LastActivity: time.Now(),
	}

	healths, results := m.Evaluate(context.Background(), map[forgetypes.WorkerID]*forgetypes.WorkerStatus{"w1": ws})

	require.Len(t, healths, 1)
	assert.Equal(t, 1.0, healths[0].HealthScore)
	assert.Nil(t, healths[0].PrimaryFailure)
	assert.Equal(t, 0, healths[0].ConsecutiveFailures)
	for _, r := range results {
		assert.Equal(t, forgetypes.OutcomePass, r.Outcome)
	}
}

func TestMonitor_DeadPidIsPrimaryFailure(t *testing.T) {
	m := NewMonitor(testConfig())
	ws := &forgetypes.WorkerStatus{
		WorkerID:     "w1",
		PID:          999999999,
		LastActivity: time.Now(),
	}

	healths, _ := m.Evaluate(context.Background(), map[forgetypes.WorkerID]*forgetypes.WorkerStatus{"w1": ws})

	require.Len(t, healths, 1)
	require.NotNil(t, healths[0].PrimaryFailure)
	assert.Equal(t, forgetypes.CheckPIDExists, healths[0].PrimaryFailure.CheckKind)
	assert.Equal(t, forgetypes.ErrorClassDeadProcess, healths[0].PrimaryFailure.ErrorClass)
}

func TestMonitor_PrimaryFailureIsHighestPriority(t *testing.T) {
	m := NewMonitor(testConfig())
	// Dead pid (priority 0) and stale activity (priority 1) both fail;
	// pid_exists must win.
	ws := &forgetypes.WorkerStatus{
		WorkerID:     "w1",
		PID:          999999999,
		LastActivity: time.Now().Add(-time.Hour),
	}

	healths, _ := m.Evaluate(context.Background(), map[forgetypes.WorkerID]*forgetypes.WorkerStatus{"w1": ws})

	require.NotNil(t, healths[0].PrimaryFailure)
	assert.Equal(t, forgetypes.CheckPIDExists, healths[0].PrimaryFailure.CheckKind)
}

func TestMonitor_StaleActivityFailsWithLivePid(t *testing.T) {
	m := NewMonitor(testConfig())
	ws := &forgetypes.WorkerStatus{
		WorkerID:     "w1",
		PID:          os.Getpid(),
		LastActivity: time.Now().Add(-time.Hour),
	}

	healths, _ := m.Evaluate(context.Background(), map[forgetypes.WorkerID]*forgetypes.WorkerStatus{"w1": ws})

	require.NotNil(t, healths[0].PrimaryFailure)
	assert.Equal(t, forgetypes.CheckActivityFresh, healths[0].PrimaryFailure.CheckKind)
	assert.Less(t, healths[0].HealthScore, 1.0)
}

func TestMonitor_ActivityFreshOutranksTaskProgress(t *testing.T) {
	m := NewMonitor(testConfig())
	ws := &forgetypes.WorkerStatus{
		WorkerID:     "w1",
		Status:       forgetypes.WorkerActive,
		PID:          os.Getpid(),
		LastActivity: time.Now().Add(-45 * time.Minute),
		CurrentTask:  forgetypes.CurrentTask{TaskID: "task-1"},
	}

	healths, _ := m.Evaluate(context.Background(), map[forgetypes.WorkerID]*forgetypes.WorkerStatus{"w1": ws})

	require.NotNil(t, healths[0].PrimaryFailure)
	// activity_fresh (priority 1) outranks task_progress (priority 2);
	// both fail here since 45m exceeds both thresholds.
	assert.Equal(t, forgetypes.CheckActivityFresh, healths[0].PrimaryFailure.CheckKind)
}

func TestMonitor_TaskStuckFiresWhenActivityStillFresh(t *testing.T) {
	m := NewMonitor(Config{
		StaleActivityThreshold: time.Hour,
		TaskStuckThreshold:     10 * time.Minute,
	})
	ws := &forgetypes.WorkerStatus{
		WorkerID:     "w1",
		Status:       forgetypes.WorkerActive,
		PID:          os.Getpid(),
		LastActivity: time.Now().Add(-20 * time.Minute),
		CurrentTask:  forgetypes.CurrentTask{TaskID: "task-1"},
	}

	healths, _ := m.Evaluate(context.Background(), map[forgetypes.WorkerID]*forgetypes.WorkerStatus{"w1": ws})

	require.NotNil(t, healths[0].PrimaryFailure)
	assert.Equal(t, forgetypes.CheckTaskProgress, healths[0].PrimaryFailure.CheckKind)
}

func TestMonitor_DegradedSinceSetOnSecondConsecutiveFailureAndClearedOnRecovery(t *testing.T) {
	m := NewMonitor(testConfig())
	dead := &forgetypes.WorkerStatus{WorkerID: "w1", PID: 999999999, LastActivity: time.Now()}
	alive := &forgetypes.WorkerStatus{WorkerID: "w1", PID: os.Getpid(), LastActivity: time.Now()}

	healths, _ := m.Evaluate(context.Background(), map[forgetypes.WorkerID]*forgetypes.WorkerStatus{"w1": dead})
	assert.Nil(t, healths[0].DegradedSince)
	assert.Equal(t, 1, healths[0].ConsecutiveFailures)

	healths, _ = m.Evaluate(context.Background(), map[forgetypes.WorkerID]*forgetypes.WorkerStatus{"w1": dead})
	require.NotNil(t, healths[0].DegradedSince)
	assert.Equal(t, 2, healths[0].ConsecutiveFailures)

	healths, _ = m.Evaluate(context.Background(), map[forgetypes.WorkerID]*forgetypes.WorkerStatus{"w1": alive})
	assert.Nil(t, healths[0].DegradedSince)
	assert.Equal(t, 0, healths[0].ConsecutiveFailures)
}

func TestMonitor_HealthScoreBounds(t *testing.T) {
	m := NewMonitor(testConfig())
	cases := []*forgetypes.WorkerStatus{
		{WorkerID: "w1", PID: os.Getpid(), LastActivity: time.Now()},
		{WorkerID: "w2", PID: 999999999, LastActivity: time.Now().Add(-time.Hour)},
	}

	for _, ws := range cases {
		healths, _ := m.Evaluate(context.Background(), map[forgetypes.WorkerID]*forgetypes.WorkerStatus{ws.WorkerID: ws})
		assert.GreaterOrEqual(t, healths[0].HealthScore, 0.0)
		assert.LessOrEqual(t, healths[0].HealthScore, 1.0)
	}
}

func TestResponseChecker_TimesOut(t *testing.T) {
	checker := ResponseChecker{
		Timeout: 10 * time.Millisecond,
		Ping: func(ctx context.Context, pid int) error {
			<-ctx.Done()
			return ctx.Err()
		},
	}

	result := checker.Check(context.Background(), &forgetypes.WorkerStatus{WorkerID: "w1"})
	assert.Equal(t, forgetypes.OutcomeFail, result.Outcome)
	assert.Equal(t, forgetypes.ErrorClassUnresponsive, result.ErrorClass)
}

func TestResponseChecker_Succeeds(t *testing.T) {
	checker := ResponseChecker{
		Timeout: time.Second,
		Ping:    func(ctx context.Context, pid int) error { return nil },
	}

	result := checker.Check(context.Background(), &forgetypes.WorkerStatus{WorkerID: "w1"})
	assert.Equal(t, forgetypes.OutcomePass, result.Outcome)
}

func TestMonitor_ForgetRemovesState(t *testing.T) {
	m := NewMonitor(testConfig())
	ws := &forgetypes.WorkerStatus{WorkerID: "w1", PID: os.Getpid(), LastActivity: time.Now()}
	m.Evaluate(context.Background(), map[forgetypes.WorkerID]*forgetypes.WorkerStatus{"w1": ws})

	_, ok := m.Get("w1")
	require.True(t, ok)

	m.Forget("w1")
	_, ok = m.Get("w1")
	assert.False(t, ok)
}
