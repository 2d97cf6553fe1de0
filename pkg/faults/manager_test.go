package faults

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuemby/forge/pkg/events"
	"github.com/cuemby/forge/pkg/forgetypes"
)

func TestManager_RecordPublishesEvent(t *testing.T) {
	bus := events.NewBus()
	bus.Start()
	defer bus.Stop()

	sub := bus.Subscribe()
	defer bus.Unsubscribe(sub)

	m := NewManager(bus)
	id := m.Record("chat", forgetypes.CategoryChat, forgetypes.SeverityError, "provider unreachable")
	assert.NotEmpty(t, id)

	select {
	case ev := <-sub:
		assert.Equal(t, events.EventError, ev.Type)
		assert.Equal(t, "chat", ev.Metadata["component"])
	case <-time.After(time.Second):
		t.Fatal("no event published")
	}
}

func TestManager_DegradedLifecycle(t *testing.T) {
	m := NewManager(nil)
	assert.False(t, m.IsDegraded("ledger"))

	id := m.Record("ledger", forgetypes.CategoryFilesystem, forgetypes.SeverityWarning, "malformed status file")
	m.MarkDegraded("ledger", id)
	assert.True(t, m.IsDegraded("ledger"))

	degraded := m.Degraded()
	require.Contains(t, degraded, "ledger")
	assert.Equal(t, id, degraded["ledger"].ID)

	m.MarkRecovered("ledger")
	assert.False(t, m.IsDegraded("ledger"))
}

func TestManager_RingTrimsToSize(t *testing.T) {
	m := NewManager(nil)
	for i := 0; i < RingSize+10; i++ {
		m.Record("chat", forgetypes.CategoryChat, forgetypes.SeverityInfo, "noise")
	}
	assert.Len(t, m.records["chat"], RingSize)
}

func TestManager_UnacknowledgedAndAcknowledge(t *testing.T) {
	m := NewManager(nil)
	id := m.Record("cost", forgetypes.CategoryDatabase, forgetypes.SeverityWarning, "locked")

	unacked := m.Unacknowledged()
	require.Len(t, unacked, 1)
	assert.Equal(t, id, unacked[0].ID)

	assert.True(t, m.Acknowledge(id))
	assert.Empty(t, m.Unacknowledged())
}

func TestManager_AcknowledgeUnknownIDReturnsFalse(t *testing.T) {
	m := NewManager(nil)
	assert.False(t, m.Acknowledge("does-not-exist"))
}

func TestRemediation_KnownAndUnknownErrors(t *testing.T) {
	assert.NotEmpty(t, Remediation(&RateLimitExceededError{Limit: 10, WaitSecs: 30}))
	assert.NotEmpty(t, Remediation(&DatabaseLockedError{Retry: 1, Max: 5}))
	assert.Empty(t, Remediation(&ActionCancelledError{}))
}
