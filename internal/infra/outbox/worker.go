package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"time"

	"github.com/google/uuid"

	appoutbox "stayhub/internal/app/outbox"
)

var ErrWorkerNotConfigured = errors.New("outbox: worker missing dependencies")

const (
	defaultInterval  = 500 * time.Millisecond
	defaultBatchSize = 100
	defaultRetry     = 5 * time.Second
	defaultSource    = "app://stayhub"

	contentTypeCloudEvents = "application/cloudevents+json"
	headerTraceParent      = "traceparent"
)

// Record is a stored outbox entry awaiting relay.
type Record struct {
	appoutbox.EventRecord
	Attempts int
}

// Store is the relay side of an outbox. A worker claims one record at a
// time and reports it sent, or failed with the time of the next attempt.
type Store interface {
	Claim(ctx context.Context, workerID string) (*Record, error)
	MarkSent(ctx context.Context, id string) error
	MarkFailed(ctx context.Context, id string, next time.Time, errMsg string) error
}

type Producer interface {
	Publish(ctx context.Context, topic string, key string, payload []byte, headers map[string]string) error
}

// Worker polls Store and publishes each record as a CloudEvent on
// <TopicPrefix><aggregate>.events.v1, keyed by aggregate id.
type Worker struct {
	Store       Store
	Producer    Producer
	Interval    time.Duration
	TopicPrefix string
	Source      string
	ID          string
	// Backoff[n] delays the retry after the (n+1)th failure; the last entry
	// repeats.
	Backoff []time.Duration
	// BatchSize caps records relayed per tick.
	BatchSize int
	Logger    *slog.Logger
	Now       func() time.Time
}

func (w *Worker) Run(ctx context.Context) error {
	if w.Store == nil || w.Producer == nil {
		return ErrWorkerNotConfigured
	}
	if w.ID == "" {
		w.ID = uuid.NewString()
	}
	interval := w.Interval
	if interval <= 0 {
		interval = defaultInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			w.drain(ctx)
		}
	}
}

// drain relays due records until the queue is empty, the batch is spent or
// the store fails.
func (w *Worker) drain(ctx context.Context) {
	for range orDefault(w.BatchSize, defaultBatchSize) {
		relayed, err := w.ProcessOnce(ctx)
		if err != nil {
			w.logger().Error("outbox relay failed", "worker", w.ID, "error", err)
			return
		}
		if !relayed {
			return
		}
	}
}

// ProcessOnce relays one due record and reports whether there was one. A
// failed publish reschedules the record and is not returned as an error.
func (w *Worker) ProcessOnce(ctx context.Context) (bool, error) {
	rec, err := w.Store.Claim(ctx, w.ID)
	if err != nil || rec == nil {
		return false, err
	}
	if err := w.publish(ctx, rec); err != nil {
		w.logger().Warn("outbox publish failed",
			"event_id", rec.ID, "event", rec.Name, "attempt", rec.Attempts+1, "error", err)
		return true, w.Store.MarkFailed(ctx, rec.ID, w.nextRetry(rec.Attempts), err.Error())
	}
	return true, w.Store.MarkSent(ctx, rec.ID)
}

func (w *Worker) publish(ctx context.Context, rec *Record) error {
	payload, headers, err := w.FormatPayload(rec)
	if err != nil {
		return err
	}
	return w.Producer.Publish(ctx, w.TopicFor(rec.EventRecord), rec.Aggregate, payload, headers)
}

// cloudEvent is the CloudEvents 1.0 structured JSON envelope.
type cloudEvent struct {
	SpecVersion     string          `json:"specversion"`
	ID              string          `json:"id"`
	Type            string          `json:"type"`
	Source          string          `json:"source"`
	Subject         string          `json:"subject,omitempty"`
	Time            time.Time       `json:"time"`
	DataContentType string          `json:"datacontenttype"`
	TraceParent     string          `json:"traceparent,omitempty"`
	Data            json.RawMessage `json:"data"`
}

// FormatPayload wraps rec in a CloudEvent whose id is the outbox record id,
// letting consumers drop redeliveries. The record headers are carried over.
func (w *Worker) FormatPayload(rec *Record) ([]byte, map[string]string, error) {
	if !json.Valid(rec.Payload) {
		return nil, nil, fmt.Errorf("outbox: record %s payload is not JSON", rec.ID)
	}
	payload, err := json.Marshal(cloudEvent{
		SpecVersion:     "1.0",
		ID:              rec.ID,
		Type:            rec.Name + ".v1",
		Source:          orDefault(w.Source, defaultSource),
		Subject:         rec.Aggregate,
		Time:            rec.OccurredAt.UTC(),
		DataContentType: "application/json",
		TraceParent:     rec.Headers[headerTraceParent],
		Data:            rec.Payload,
	})
	if err != nil {
		return nil, nil, err
	}
	headers := maps.Clone(rec.Headers)
	if headers == nil {
		headers = make(map[string]string, 1)
	}
	headers["content-type"] = contentTypeCloudEvents
	return payload, headers, nil
}

func (w *Worker) TopicFor(rec appoutbox.EventRecord) string {
	return w.TopicPrefix + rec.AggregateType() + ".events.v1"
}

func (w *Worker) nextRetry(attempts int) time.Time {
	now := time.Now()
	if w.Now != nil {
		now = w.Now()
	}
	delay := defaultRetry
	if n := len(w.Backoff); n > 0 {
		delay = w.Backoff[min(attempts, n-1)]
	}
	return now.Add(delay)
}

func (w *Worker) logger() *slog.Logger {
	if w.Logger != nil {
		return w.Logger
	}
	return slog.Default()
}

func orDefault[T comparable](v, def T) T {
	var zero T
	if v == zero {
		return def
	}
	return v
}
