package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainbooking "stayhub/internal/domain/booking"
	"stayhub/internal/domain/shared/events"
)

type sliceOutbox struct {
	records []EventRecord
	failOn  int
}

func (s *sliceOutbox) Add(_ context.Context, rec EventRecord) error {
	if s.failOn > 0 && len(s.records)+1 == s.failOn {
		return errors.New("outbox full")
	}
	s.records = append(s.records, rec)
	return nil
}

func (s *sliceOutbox) Flush(context.Context) error { return nil }

func TestJSONEventEncoder(t *testing.T) {
	at := time.Date(2030, 5, 2, 10, 0, 0, 0, time.FixedZone("COT", -5*3600))
	enc := JSONEventEncoder{NewID: func() string { return "evt-1" }}

	rec, err := enc.Encode(domainbooking.BookingConfirmed{BookingID: "b-1", PaymentRef: "pay-1", At: at})
	require.NoError(t, err)
	assert.Equal(t, "evt-1", rec.ID)
	assert.Equal(t, "booking.confirmed", rec.Name)
	assert.Equal(t, "b-1", rec.Aggregate)
	assert.Equal(t, time.UTC, rec.OccurredAt.Location())
	assert.Equal(t, map[string]string{HeaderEventName: "booking.confirmed", HeaderAggregateType: "booking"}, rec.Headers)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Payload, &body))
	assert.Equal(t, "pay-1", body["payment_ref"])
}

func TestAggregateType(t *testing.T) {
	assert.Equal(t, "booking", EventRecord{Name: "booking.payment_requested"}.AggregateType())
	assert.Equal(t, "heartbeat", EventRecord{Name: "heartbeat"}.AggregateType())
}

func TestRecordPendingKeepsOrderAndDrains(t *testing.T) {
	var agg events.EventRecorder
	agg.Record(domainbooking.BookingRequested{BookingID: "b-1"})
	agg.Record(domainbooking.BookingConfirmed{BookingID: "b-1"})
	box := &sliceOutbox{}

	require.NoError(t, RecordPending(context.Background(), box, nil, &agg))
	require.Len(t, box.records, 2)
	assert.Equal(t, "booking.requested", box.records[0].Name)
	assert.Equal(t, "booking.confirmed", box.records[1].Name)
	assert.Empty(t, agg.Pending())

	agg.Record(domainbooking.BookingRequested{BookingID: "b-2"})
	agg.Record(domainbooking.BookingConfirmed{BookingID: "b-2"})
	failing := &sliceOutbox{failOn: 2}
	assert.Error(t, RecordPending(context.Background(), failing, nil, &agg))
	assert.Len(t, failing.records, 1)

	assert.NoError(t, RecordPending(context.Background(), nil, nil, &agg))
}
