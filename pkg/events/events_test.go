package events

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBus_PublishDeliversToSubscribers(t *testing.T) {
	b := NewBus()
	b.Start()
	defer b.Stop()

	sub := b.Subscribe()
	defer b.Unsubscribe(sub)

	b.Publish(&Event{Type: EventWorkerHealth, Message: "ok"})

	select {
	case ev := <-sub:
		assert.Equal(t, EventWorkerHealth, ev.Type)
		assert.False(t, ev.Timestamp.IsZero())
	case <-time.After(time.Second):
		t.Fatal("event not delivered")
	}
}

func TestBus_UnsubscribeStopsDelivery(t *testing.T) {
	b := NewBus()
	b.Start()
	defer b.Stop()

	sub := b.Subscribe()
	b.Unsubscribe(sub)
	assert.Equal(t, 0, b.SubscriberCount())
}

func TestBus_NonCriticalEventDroppedWhenFull(t *testing.T) {
	b := &Bus{subscribers: make(map[Subscriber]bool), eventCh: make(chan *Event, 1), stopCh: make(chan struct{})}
	var dropped *Event
	b.OnDrop = func(e *Event) { dropped = e }

	b.Publish(&Event{Type: EventFSChanged})
	b.Publish(&Event{Type: EventFSChanged})

	require.NotNil(t, dropped)
	assert.Equal(t, EventFSChanged, dropped.Type)
}

func TestPanelSet_MarkForEventAndTakeDirty(t *testing.T) {
	p := NewPanelSet()
	assert.False(t, p.Any())

	p.MarkForEvent(EventWorkerCrash)
	assert.True(t, p.Any())

	dirty := p.TakeDirty()
	assert.ElementsMatch(t, []Panel{PanelWorker, PanelOverview, PanelAlerts}, dirty)
	assert.False(t, p.Any())
}

func TestPanelSet_UnknownEventTypeMarksNothing(t *testing.T) {
	p := NewPanelSet()
	p.MarkForEvent(EventRenderTick)
	assert.False(t, p.Any())
}

type recordingRenderer struct {
	calls [][]Panel
}

func (r *recordingRenderer) Render(dirty []Panel) {
	r.calls = append(r.calls, dirty)
}

func TestScheduler_CoalescesEventsIntoOneFrame(t *testing.T) {
	b := NewBus()
	b.Start()
	defer b.Stop()

	renderer := &recordingRenderer{}
	sched := NewScheduler(b, renderer, 200)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	done := make(chan struct{})
	go func() {
		sched.Run(ctx)
		close(done)
	}()

	b.Publish(&Event{Type: EventWorkerHealth})
	b.Publish(&Event{Type: EventCostEntry})

	<-done
	require.NotEmpty(t, renderer.calls)
}
