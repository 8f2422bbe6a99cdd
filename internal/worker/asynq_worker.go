package worker

import (
	"context"
	"errors"

	"github.com/freightlane/internal/events"
	"github.com/freightlane/internal/logger"
	"github.com/freightlane/internal/queue"

	"github.com/hibiken/asynq"
)

// Redeliverer 按投递端名称重新投递事件
type Redeliverer interface {
	Redeliver(ctx context.Context, sinkName string, evt events.Event) error
}

// Consumer 异步任务消费者
type Consumer struct {
	bus Redeliverer
}

// NewConsumer 创建消费者
func NewConsumer(bus Redeliverer) *Consumer {
	return &Consumer{bus: bus}
}

// Register 注册消费者
func (c *Consumer) Register(mux *asynq.ServeMux) {
	if c == nil || mux == nil {
		logger.Debugw("worker_register_skip_nil", "consumer_nil", c == nil, "mux_nil", mux == nil)
		return
	}
	mux.HandleFunc(queue.TaskEventRedeliver, c.handleEventRedeliver)
}

func (c *Consumer) handleEventRedeliver(ctx context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_event_redeliver_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	payload, err := queue.ParseEventRedeliverPayload(task.Payload())
	if err != nil {
		logger.Warnw("worker_event_redeliver_unmarshal_failed", "error", err)
		return errors.Join(err, asynq.SkipRetry)
	}
	if payload.Event.Sensitive {
		logger.Warnw("worker_event_redeliver_skip_sensitive", "event_id", payload.Event.ID)
		return nil
	}
	if c.bus == nil {
		logger.Warnw("worker_event_redeliver_skip_bus_nil", "event_id", payload.Event.ID)
		return nil
	}
	if err := c.bus.Redeliver(ctx, payload.Sink, payload.Event); err != nil {
		logger.Warnw("worker_event_redeliver_failed",
			"sink", payload.Sink,
			"event_id", payload.Event.ID,
			"event", payload.Event.Name,
			"error", err,
		)
		return err
	}
	logger.Debugw("worker_event_redelivered", "sink", payload.Sink, "event_id", payload.Event.ID)
	return nil
}
