package events

import (
	"context"
	"sync"
	"time"
)

// Type enumerates schedule event categories.
type Type string

const (
	DeliveryScheduled  Type = "delivery.scheduled"
	ChargeStarted      Type = "charge.started"
	DayPlanInitialized Type = "dayplan.initialized"
	DayPlanReset       Type = "dayplan.reset"
)

// Event describes a state transition on a drone's day-plan.
type Event struct {
	Type       Type        `json:"type"`
	DroneID    string      `json:"drone_id"`
	DeliveryID string      `json:"delivery_id,omitempty"`
	Slots      []time.Time `json:"slots,omitempty"`
	At         time.Time   `json:"at"`
}

// Publisher delivers events to interested parties.
type Publisher interface {
	Publish(ctx context.Context, evt Event) error
}

// Nop drops every event.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }

// Multi fans an event out to several publishers and returns the first error.
type Multi []Publisher

func (m Multi) Publish(ctx context.Context, evt Event) error {
	var first error
	for _, p := range m {
		if err := p.Publish(ctx, evt); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Subscriber receives events.
type Subscriber chan Event

// Bus implements a simple in-process pubsub. Slow subscribers miss events.
type Bus struct {
	mu   sync.RWMutex
	subs map[Type][]Subscriber
}

// NewBus creates an event bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[Type][]Subscriber)}
}

// Subscribe registers a subscriber for an event type.
func (b *Bus) Subscribe(t Type) Subscriber {
	ch := make(Subscriber, 16)
	b.mu.Lock()
	b.subs[t] = append(b.subs[t], ch)
	b.mu.Unlock()
	return ch
}

// Publish sends the event to subscribers without blocking. The read lock is
// held across the sends so Unsubscribe cannot close a channel mid-send.
func (b *Bus) Publish(_ context.Context, evt Event) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, sub := range b.subs[evt.Type] {
		select {
		case sub <- evt:
		default:
		}
	}
	return nil
}

// Unsubscribe removes and closes the subscriber.
func (b *Bus) Unsubscribe(t Type, sub Subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()
	subs := b.subs[t]
	for i, candidate := range subs {
		if candidate == sub {
			subs = append(subs[:i], subs[i+1:]...)
			close(sub)
			break
		}
	}
	b.subs[t] = subs
}
