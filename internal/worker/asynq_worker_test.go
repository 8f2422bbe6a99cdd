package worker

import (
	"context"
	"errors"
	"testing"

	"github.com/freightlane/internal/constants"
	"github.com/freightlane/internal/events"
	"github.com/freightlane/internal/queue"

	"github.com/hibiken/asynq"
)

type recordingRedeliverer struct {
	sinks []string
	ids   []string
	err   error
}

func (r *recordingRedeliverer) Redeliver(_ context.Context, sinkName string, evt events.Event) error {
	r.sinks = append(r.sinks, sinkName)
	r.ids = append(r.ids, evt.ID)
	return r.err
}

func newRedeliverTask(t *testing.T, sink string) (*asynq.Task, events.Event) {
	t.Helper()
	evt := events.New(constants.EventBidUpdated, constants.EntityBid, 5, constants.BidStatusAccepted, nil, events.CarrierRecipient(9))
	task, err := queue.NewEventRedeliverTask(queue.EventRedeliverPayload{Sink: sink, Event: evt})
	if err != nil {
		t.Fatalf("new task failed: %v", err)
	}
	return task, evt
}

func TestHandleEventRedeliverTargetsSink(t *testing.T) {
	bus := &recordingRedeliverer{}
	consumer := NewConsumer(bus)
	task, evt := newRedeliverTask(t, "kafka")
	if err := consumer.handleEventRedeliver(context.Background(), task); err != nil {
		t.Fatalf("handle failed: %v", err)
	}
	if len(bus.sinks) != 1 || bus.sinks[0] != "kafka" || bus.ids[0] != evt.ID {
		t.Fatalf("unexpected redelivery: sinks=%v ids=%v", bus.sinks, bus.ids)
	}
}

func TestHandleEventRedeliverReturnsSinkError(t *testing.T) {
	bus := &recordingRedeliverer{err: errors.New("broker down")}
	consumer := NewConsumer(bus)
	task, _ := newRedeliverTask(t, "kafka")
	if err := consumer.handleEventRedeliver(context.Background(), task); err == nil {
		t.Fatalf("expected sink error so asynq retries")
	}
}

func TestHandleEventRedeliverBadPayloadSkipsRetry(t *testing.T) {
	consumer := NewConsumer(&recordingRedeliverer{})
	task := asynq.NewTask(queue.TaskEventRedeliver, []byte("{"))
	err := consumer.handleEventRedeliver(context.Background(), task)
	if !errors.Is(err, asynq.SkipRetry) {
		t.Fatalf("want SkipRetry got %v", err)
	}
}

func TestRegisterNilSafe(t *testing.T) {
	var consumer *Consumer
	consumer.Register(asynq.NewServeMux())
	NewConsumer(nil).Register(nil)
}
