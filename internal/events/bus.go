package events

import (
	"context"
	"sync"
	"time"

	"github.com/freightlane/internal/logger"
	"github.com/freightlane/internal/metrics"
)

const defaultDeliverTimeout = 5 * time.Second

// Sink 事件投递端
type Sink interface {
	Name() string
	Deliver(ctx context.Context, evt Event) error
}

// RedeliveryQueue 投递失败后的补偿队列
type RedeliveryQueue interface {
	Enabled() bool
	EnqueueEventRedelivery(sink string, evt Event) error
}

// Bus 事件总线，发布即返回，投递失败只记录日志并进入补偿队列
type Bus struct {
	mu         sync.RWMutex
	sinks      []Sink
	redelivery RedeliveryQueue
	sync       bool
	timeout    time.Duration
}

// Option 总线选项
type Option func(*Bus)

// WithRedelivery 设置补偿队列
func WithRedelivery(queue RedeliveryQueue) Option {
	return func(b *Bus) {
		b.redelivery = queue
	}
}

// WithSynchronousDispatch 在调用方 goroutine 内完成投递
func WithSynchronousDispatch() Option {
	return func(b *Bus) {
		b.sync = true
	}
}

// NewBus 创建事件总线
func NewBus(opts ...Option) *Bus {
	b := &Bus{timeout: defaultDeliverTimeout}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Subscribe 注册投递端
func (b *Bus) Subscribe(sink Sink) {
	if b == nil || sink == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sinks = append(b.sinks, sink)
}

// Publish 发布事件
func (b *Bus) Publish(evt Event) {
	if b == nil {
		return
	}
	if err := evt.Validate(); err != nil {
		logger.Errorw("event_publish_rejected",
			"event", evt.Name,
			"event_id", evt.ID,
			"entity_type", evt.EntityType,
			"entity_id", evt.EntityID,
			"error", err,
		)
		return
	}
	metrics.EventsPublished.WithLabelValues(evt.Name).Inc()
	if b.sync {
		b.dispatch(evt)
		return
	}
	go b.dispatch(evt)
}

// Redeliver 向指定投递端重新投递事件
func (b *Bus) Redeliver(ctx context.Context, sinkName string, evt Event) error {
	sink := b.lookup(sinkName)
	if sink == nil {
		logger.Warnw("event_redeliver_sink_missing", "sink", sinkName, "event_id", evt.ID)
		return nil
	}
	if err := sink.Deliver(ctx, evt); err != nil {
		metrics.EventDeliveryFailures.WithLabelValues(sinkName).Inc()
		return err
	}
	return nil
}

func (b *Bus) lookup(name string) Sink {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, sink := range b.sinks {
		if sink.Name() == name {
			return sink
		}
	}
	return nil
}

func (b *Bus) snapshot() []Sink {
	b.mu.RLock()
	defer b.mu.RUnlock()
	sinks := make([]Sink, len(b.sinks))
	copy(sinks, b.sinks)
	return sinks
}

func (b *Bus) dispatch(evt Event) {
	for _, sink := range b.snapshot() {
		ctx, cancel := context.WithTimeout(context.Background(), b.timeout)
		err := sink.Deliver(ctx, evt)
		cancel()
		if err == nil {
			continue
		}
		metrics.EventDeliveryFailures.WithLabelValues(sink.Name()).Inc()
		logger.Warnw("event_deliver_failed",
			"sink", sink.Name(),
			"event", evt.Name,
			"event_id", evt.ID,
			"error", err,
		)
		b.enqueueRedelivery(sink.Name(), evt)
	}
}

func (b *Bus) enqueueRedelivery(sinkName string, evt Event) {
	if b.redelivery == nil || !b.redelivery.Enabled() {
		return
	}
	if evt.Sensitive {
		// 验证码不落入队列存储
		logger.Warnw("event_redelivery_skipped_sensitive", "sink", sinkName, "event_id", evt.ID)
		return
	}
	if err := b.redelivery.EnqueueEventRedelivery(sinkName, evt); err != nil {
		logger.Errorw("event_redelivery_enqueue_failed",
			"sink", sinkName,
			"event_id", evt.ID,
			"error", err,
		)
	}
}
