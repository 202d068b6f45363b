package outbox

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"stayhub/internal/domain/shared/events"
)

// Header names every relayed record carries.
const (
	HeaderEventName     = "event-name"
	HeaderAggregateType = "aggregate-type"
)

// EventRecord is a domain event encoded for the relay. Aggregate is the id
// of the aggregate that raised it and doubles as the partition key.
type EventRecord struct {
	ID         string
	Name       string
	Payload    []byte
	OccurredAt time.Time
	Aggregate  string
	Headers    map[string]string
}

// AggregateType is the part of Name before the first dot: "booking" for
// "booking.confirmed".
func (r EventRecord) AggregateType() string {
	kind, _, _ := strings.Cut(r.Name, ".")
	return kind
}

// Outbox collects records inside the current unit of work. Flush is called
// once the unit committed.
type Outbox interface {
	Add(ctx context.Context, record EventRecord) error
	Flush(ctx context.Context) error
}

type EventEncoder interface {
	Encode(ev events.DomainEvent) (EventRecord, error)
}

// JSONEventEncoder marshals the event itself as the payload.
type JSONEventEncoder struct {
	// NewID defaults to random UUIDs.
	NewID func() string
}

func (e JSONEventEncoder) Encode(ev events.DomainEvent) (EventRecord, error) {
	payload, err := json.Marshal(ev)
	if err != nil {
		return EventRecord{}, fmt.Errorf("encode %s: %w", ev.EventName(), err)
	}
	newID := e.NewID
	if newID == nil {
		newID = uuid.NewString
	}
	rec := EventRecord{
		ID:         newID(),
		Name:       ev.EventName(),
		Payload:    payload,
		OccurredAt: ev.OccurredAt().UTC(),
		Aggregate:  ev.AggregateID(),
	}
	rec.Headers = map[string]string{HeaderEventName: rec.Name, HeaderAggregateType: rec.AggregateType()}
	return rec, nil
}

// Drainer is an aggregate with events waiting to be recorded.
type Drainer interface {
	Drain() []events.DomainEvent
}

// RecordPending moves the aggregate's events into box in the order they were
// raised. A nil box drops them.
func RecordPending(ctx context.Context, box Outbox, encoder EventEncoder, aggregate Drainer) error {
	if box == nil || aggregate == nil {
		return nil
	}
	if encoder == nil {
		encoder = JSONEventEncoder{}
	}
	for _, ev := range aggregate.Drain() {
		rec, err := encoder.Encode(ev)
		if err != nil {
			return err
		}
		if err := box.Add(ctx, rec); err != nil {
			return err
		}
	}
	return nil
}
