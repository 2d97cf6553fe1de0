package events

import (
	"sync"
	"time"
)

// EventType represents the kind of event flowing through the bus.
type EventType string

const (
	EventWorkerHealth EventType = "worker.health"
	EventWorkerCrash  EventType = "worker.crash"
	EventChatTurn     EventType = "chat.turn"
	EventCostEntry    EventType = "cost.entry"
	EventRenderTick   EventType = "render.tick"
	EventInputKey     EventType = "input.key"
	EventFSChanged    EventType = "fs.changed"
	EventError        EventType = "error.recorded"
)

// criticalEvents are never dropped from the bounded queue, even under
// backpressure; everything else (log ticks, render ticks) may be shed.
var criticalEvents = map[EventType]bool{
	EventInputKey:    true,
	EventWorkerCrash: true,
	EventChatTurn:    true,
}

// IsCritical reports whether an event type must never be dropped.
func IsCritical(t EventType) bool { return criticalEvents[t] }

// Event is one message carried on the bus.
type Event struct {
	ID        string
	Type      EventType
	Timestamp time.Time
	Message   string
	Metadata  map[string]string
	Payload   any
}

// Subscriber is a channel that receives events.
type Subscriber chan *Event

// QueueCapacity is the default bound on the broker's internal queue
// before non-critical events start getting dropped.
const QueueCapacity = 1024

// Bus manages event subscriptions and distribution, generalized from the
// teacher's cluster event broker: same subscribe/unsubscribe/publish
// shape, a bounded internal queue instead of an unbounded one, and a
// critical-events-never-dropped policy on overflow.
type Bus struct {
	subscribers map[Subscriber]bool
	mu          sync.RWMutex
	eventCh     chan *Event
	stopCh      chan struct{}

	// OnDrop, if set, is called when a non-critical event is shed because
	// the queue is full.
	OnDrop func(*Event)
}

// NewBus creates a new event bus with the default queue capacity.
func NewBus() *Bus {
	return &Bus{
		subscribers: make(map[Subscriber]bool),
		eventCh:     make(chan *Event, QueueCapacity),
		stopCh:      make(chan struct{}),
	}
}

// Start begins the bus's distribution loop.
func (b *Bus) Start() {
	go b.run()
}

// Stop stops the bus.
func (b *Bus) Stop() {
	close(b.stopCh)
}

// Subscribe creates a new subscription and returns its channel.
func (b *Bus) Subscribe() Subscriber {
	b.mu.Lock()
	defer b.mu.Unlock()

	sub := make(Subscriber, 64)
	b.subscribers[sub] = true
	return sub
}

// Unsubscribe removes a subscription.
func (b *Bus) Unsubscribe(sub Subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()

	delete(b.subscribers, sub)
	close(sub)
}

// Publish enqueues event for distribution. If the queue is full and the
// event is not critical, it is dropped and OnDrop is invoked. Critical
// events always block until room is available or the bus stops.
func (b *Bus) Publish(event *Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	if IsCritical(event.Type) {
		select {
		case b.eventCh <- event:
		case <-b.stopCh:
		}
		return
	}

	select {
	case b.eventCh <- event:
	case <-b.stopCh:
	default:
		if b.OnDrop != nil {
			b.OnDrop(event)
		}
	}
}

func (b *Bus) run() {
	for {
		select {
		case event := <-b.eventCh:
			b.broadcast(event)
		case <-b.stopCh:
			return
		}
	}
}

func (b *Bus) broadcast(event *Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for sub := range b.subscribers {
		select {
		case sub <- event:
		default:
			// Subscriber buffer full: skip rather than block the bus.
		}
	}
}

// SubscriberCount returns the number of active subscribers.
func (b *Bus) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}
