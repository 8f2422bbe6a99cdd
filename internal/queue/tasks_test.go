package queue

import (
	"testing"

	"github.com/freightlane/internal/constants"
	"github.com/freightlane/internal/events"
)

func TestEventRedeliverTaskRoundTrip(t *testing.T) {
	evt := events.New(constants.EventLoadUpdated, constants.EntityLoad, 11, constants.LoadStatusAwarded, nil, events.AllAdmins)
	task, err := NewEventRedeliverTask(EventRedeliverPayload{Sink: "kafka", Event: evt})
	if err != nil {
		t.Fatalf("new task failed: %v", err)
	}
	if task.Type() != TaskEventRedeliver {
		t.Fatalf("task type want %s got %s", TaskEventRedeliver, task.Type())
	}
	payload, err := ParseEventRedeliverPayload(task.Payload())
	if err != nil {
		t.Fatalf("parse payload failed: %v", err)
	}
	if payload.Sink != "kafka" || payload.Event.ID != evt.ID || payload.Event.EntityID != 11 {
		t.Fatalf("unexpected payload: %+v", payload)
	}
}

func TestEventRedeliverTaskRejectsSensitive(t *testing.T) {
	evt := events.NewSensitive(constants.EventOtpApproved, constants.EntityOtpRequest, 3, constants.OtpRequestStatusApproved, map[string]interface{}{"code": "123456"}, 1)
	if _, err := NewEventRedeliverTask(EventRedeliverPayload{Sink: "ws", Event: evt}); err == nil {
		t.Fatalf("expected sensitive event rejected")
	}
	if _, err := NewEventRedeliverTask(EventRedeliverPayload{Event: events.New(constants.EventBidUpdated, constants.EntityBid, 1, "pending", nil)}); err == nil {
		t.Fatalf("expected empty sink rejected")
	}
}

func TestDisabledClientIsNoop(t *testing.T) {
	client, err := NewClient(nil)
	if err != nil {
		t.Fatalf("new client failed: %v", err)
	}
	if client.Enabled() {
		t.Fatalf("expected disabled client")
	}
	if err := client.EnqueueEventRedelivery("kafka", events.New(constants.EventLoadUpdated, constants.EntityLoad, 1, "pending", nil)); err != nil {
		t.Fatalf("disabled enqueue want nil got %v", err)
	}
}

func TestQueueForRoutesTripEventsToCritical(t *testing.T) {
	cases := []struct {
		name string
		want string
	}{
		{name: constants.EventOtpRequested, want: CriticalQueue},
		{name: constants.EventTripCompleted, want: CriticalQueue},
		{name: constants.EventLoadUpdated, want: DefaultQueue},
		{name: constants.EventDocumentUploaded, want: DefaultQueue},
	}
	for _, tc := range cases {
		evt := events.New(tc.name, constants.EntityLoad, 1, "", nil)
		if got := queueFor(evt); got != tc.want {
			t.Fatalf("queue for %s want %s got %s", tc.name, tc.want, got)
		}
	}
}

func TestRetryDelayBacksOffWithCap(t *testing.T) {
	if got := retryDelay(0, nil, nil); got != firstRetryDelay {
		t.Fatalf("first delay want %s got %s", firstRetryDelay, got)
	}
	if got := retryDelay(2, nil, nil); got != 4*firstRetryDelay {
		t.Fatalf("third delay want %s got %s", 4*firstRetryDelay, got)
	}
	if got := retryDelay(30, nil, nil); got != maxRetryDelay {
		t.Fatalf("delay should cap at %s got %s", maxRetryDelay, got)
	}
}

func TestBuildServerConfigDefaults(t *testing.T) {
	opt, cfg := BuildServerConfig(nil)
	if opt.Addr != "127.0.0.1:6379" {
		t.Fatalf("addr want 127.0.0.1:6379 got %s", opt.Addr)
	}
	if cfg.Concurrency != 10 || cfg.Queues[CriticalQueue] <= cfg.Queues[DefaultQueue] {
		t.Fatalf("unexpected server config: %+v", cfg.Queues)
	}
}
