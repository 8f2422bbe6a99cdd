package events

import (
	"context"
	"errors"
	"sync"
	"testing"
)

type recordingSink struct {
	name string
	err  error
	mu   sync.Mutex
	got  []Event
}

func (s *recordingSink) Name() string { return s.name }

func (s *recordingSink) Deliver(_ context.Context, evt Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.got = append(s.got, evt)
	return s.err
}

type recordingQueue struct {
	enabled bool
	sinks   []string
	events  []Event
}

func (q *recordingQueue) Enabled() bool { return q.enabled }

func (q *recordingQueue) EnqueueEventRedelivery(sink string, evt Event) error {
	q.sinks = append(q.sinks, sink)
	q.events = append(q.events, evt)
	return nil
}

func TestBusPublishFansOutToSinks(t *testing.T) {
	bus := NewBus(WithSynchronousDispatch())
	first := &recordingSink{name: "first"}
	second := &recordingSink{name: "second"}
	bus.Subscribe(first)
	bus.Subscribe(second)

	evt := New("load_updated", "load", 1, "priced", nil, ShipperRecipient(3), AllAdmins, AllAdmins)
	bus.Publish(evt)

	if len(first.got) != 1 || len(second.got) != 1 {
		t.Fatalf("each sink want 1 event got %d/%d", len(first.got), len(second.got))
	}
	if len(first.got[0].Recipients) != 2 {
		t.Fatalf("recipients should be deduplicated, got %v", first.got[0].Recipients)
	}
}

func TestBusFailingSinkEnqueuesRedelivery(t *testing.T) {
	queue := &recordingQueue{enabled: true}
	bus := NewBus(WithSynchronousDispatch(), WithRedelivery(queue))
	bus.Subscribe(&recordingSink{name: "broken", err: errors.New("broker down")})

	bus.Publish(New("trip_completed", "shipment", 2, "in_transit", nil, CarrierRecipient(5)))

	if len(queue.sinks) != 1 || queue.sinks[0] != "broken" {
		t.Fatalf("redelivery want [broken] got %v", queue.sinks)
	}
}

func TestBusSensitiveEventNeverBroadcast(t *testing.T) {
	queue := &recordingQueue{enabled: true}
	bus := NewBus(WithSynchronousDispatch(), WithRedelivery(queue))
	sink := &recordingSink{name: "broken", err: errors.New("write failed")}
	bus.Subscribe(sink)

	leaked := NewSensitive("otp_approved", "otp_request", 1, "approved", map[string]interface{}{"code": "123456"}, 9)
	leaked.Recipients = append(leaked.Recipients, CarrierRecipient(4))
	bus.Publish(leaked)
	if len(sink.got) != 0 {
		t.Fatalf("sensitive event with carrier recipient must be dropped")
	}

	bus.Publish(NewSensitive("otp_approved", "otp_request", 1, "approved", map[string]interface{}{"code": "123456"}, 9))
	if len(sink.got) != 1 {
		t.Fatalf("sensitive event to single admin should be delivered, got %d", len(sink.got))
	}
	if len(queue.events) != 0 {
		t.Fatalf("sensitive event must not be persisted for redelivery")
	}
}

func TestBusRedeliverTargetsNamedSink(t *testing.T) {
	bus := NewBus(WithSynchronousDispatch())
	target := &recordingSink{name: "kafka"}
	other := &recordingSink{name: "websocket"}
	bus.Subscribe(target)
	bus.Subscribe(other)

	evt := New("document_uploaded", "document", 3, "", nil, AllAdmins)
	if err := bus.Redeliver(context.Background(), "kafka", evt); err != nil {
		t.Fatalf("redeliver failed: %v", err)
	}
	if len(target.got) != 1 || len(other.got) != 0 {
		t.Fatalf("redeliver should reach only kafka sink, got %d/%d", len(target.got), len(other.got))
	}
	if err := bus.Redeliver(context.Background(), "missing", evt); err != nil {
		t.Fatalf("redeliver to missing sink should be a no-op, got %v", err)
	}
}

func TestRecipientScopes(t *testing.T) {
	if !AdminRecipient(1).IsIndividualAdmin() {
		t.Fatalf("admin:1 should be individual admin")
	}
	if AllAdmins.IsIndividualAdmin() {
		t.Fatalf("admins channel is a broadcast scope")
	}
	if CarrierRecipient(2) != "carrier:2" {
		t.Fatalf("carrier recipient mismatch got %s", CarrierRecipient(2))
	}
}
