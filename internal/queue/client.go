package queue

import (
	"context"
	"errors"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/freightlane/internal/config"
	"github.com/freightlane/internal/constants"
	"github.com/freightlane/internal/events"
	"github.com/freightlane/internal/logger"

	"github.com/hibiken/asynq"
)

const (
	// DefaultQueue 普通事件补投队列
	DefaultQueue = constants.QueueDefault
	// CriticalQueue 行程授权相关事件补投队列
	CriticalQueue = constants.QueueCritical

	enqueueTimeout   = 3 * time.Second
	firstRetryDelay  = 5 * time.Second
	maxRetryDelay    = 10 * time.Minute
	taskRetention    = time.Hour
	shutdownDeadline = 8 * time.Second
)

// Client 事件补投任务生产者，未启用队列时所有操作为空操作
type Client struct {
	asynq *asynq.Client
}

// NewClient 创建任务生产者
func NewClient(cfg *config.QueueConfig) (*Client, error) {
	if cfg == nil || !cfg.Enabled {
		return &Client{}, nil
	}
	return &Client{asynq: asynq.NewClient(redisOpt(cfg))}, nil
}

// Enabled 队列是否启用
func (c *Client) Enabled() bool {
	return c != nil && c.asynq != nil
}

// Close 释放连接
func (c *Client) Close() error {
	if !c.Enabled() {
		return nil
	}
	return c.asynq.Close()
}

// EnqueueEventRedelivery 为失败的投递端登记补投任务
// 同一投递端同一事件只登记一次
func (c *Client) EnqueueEventRedelivery(sink string, evt events.Event) error {
	if !c.Enabled() {
		return nil
	}
	task, err := NewEventRedeliverTask(EventRedeliverPayload{Sink: sink, Event: evt})
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), enqueueTimeout)
	defer cancel()
	info, err := c.asynq.EnqueueContext(ctx, task,
		asynq.Queue(queueFor(evt)),
		asynq.MaxRetry(constants.EventRedeliverMaxRetry),
		asynq.TaskID(sink+":"+evt.ID),
		asynq.ProcessIn(firstRetryDelay),
		asynq.Retention(taskRetention),
	)
	if errors.Is(err, asynq.ErrTaskIDConflict) {
		return nil
	}
	if err != nil {
		return err
	}
	logger.Debugw("queue_redelivery_enqueued", "task_id", info.ID, "queue", info.Queue, "event", evt.Name)
	return nil
}

// queueFor 行程授权与完成事件走高优先级队列
func queueFor(evt events.Event) string {
	switch evt.Name {
	case constants.EventOtpRequested, constants.EventOtpApproved, constants.EventOtpRejected, constants.EventTripCompleted:
		return CriticalQueue
	default:
		return DefaultQueue
	}
}

// BuildServerConfig 生成消费端连接与调度配置
func BuildServerConfig(cfg *config.QueueConfig) (asynq.RedisClientOpt, asynq.Config) {
	serverCfg := asynq.Config{
		Concurrency:     10,
		Queues:          map[string]int{CriticalQueue: 6, DefaultQueue: 3},
		RetryDelayFunc:  retryDelay,
		ShutdownTimeout: shutdownDeadline,
		Logger:          logger.SW("component", "asynq"),
		ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
			retried, _ := asynq.GetRetryCount(ctx)
			logger.Warnw("queue_task_failed", "type", task.Type(), "retried", retried, "error", err)
		}),
	}
	if cfg != nil {
		if cfg.Concurrency > 0 {
			serverCfg.Concurrency = cfg.Concurrency
		}
		if len(cfg.Queues) > 0 {
			serverCfg.Queues = cfg.Queues
		}
	}
	return redisOpt(cfg), serverCfg
}

// retryDelay 以 firstRetryDelay 为基数指数退避，上限 maxRetryDelay
func retryDelay(n int, _ error, _ *asynq.Task) time.Duration {
	delay := firstRetryDelay
	for i := 0; i < n && delay < maxRetryDelay; i++ {
		delay *= 2
	}
	if delay > maxRetryDelay {
		return maxRetryDelay
	}
	return delay
}

func redisOpt(cfg *config.QueueConfig) asynq.RedisClientOpt {
	opt := asynq.RedisClientOpt{Addr: "127.0.0.1:6379"}
	if cfg == nil {
		return opt
	}
	host := strings.TrimSpace(cfg.Host)
	if host == "" {
		host = "127.0.0.1"
	}
	port := cfg.Port
	if port <= 0 {
		port = 6379
	}
	opt.Addr = net.JoinHostPort(host, strconv.Itoa(port))
	opt.Password = cfg.Password
	opt.DB = cfg.DB
	return opt
}
