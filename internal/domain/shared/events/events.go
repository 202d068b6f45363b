package events

import (
	"slices"
	"time"
)

// DomainEvent is a fact an aggregate raised while changing state.
type DomainEvent interface {
	EventName() string
	AggregateID() string
	OccurredAt() time.Time
}

// EventRecorder holds the events an aggregate raised until the unit of work
// drains them into the outbox.
type EventRecorder struct {
	pending []DomainEvent
}

func (r *EventRecorder) Record(ev DomainEvent) {
	if ev != nil {
		r.pending = append(r.pending, ev)
	}
}

func (r *EventRecorder) Pending() []DomainEvent {
	return slices.Clone(r.pending)
}

// Drain hands over the pending events in the order they were raised.
func (r *EventRecorder) Drain() []DomainEvent {
	out := r.pending
	r.pending = nil
	return out
}

func Names(evs []DomainEvent) []string {
	names := make([]string, 0, len(evs))
	for _, ev := range evs {
		names = append(names, ev.EventName())
	}
	return names
}
