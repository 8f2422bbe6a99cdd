package worker

import (
	"context"
	"errors"

	"github.com/freightlane/internal/config"
	"github.com/freightlane/internal/logger"
	"github.com/freightlane/internal/queue"

	"github.com/hibiken/asynq"
)

// Service 事件补投消费进程
type Service struct {
	server *asynq.Server
	mux    *asynq.ServeMux
}

// NewService 创建补投消费进程，队列未启用时返回错误
func NewService(cfg *config.QueueConfig, consumer *Consumer) (*Service, error) {
	switch {
	case cfg == nil || !cfg.Enabled:
		return nil, errors.New("worker: queue disabled")
	case consumer == nil:
		return nil, errors.New("worker: consumer is nil")
	}
	opt, serverCfg := queue.BuildServerConfig(cfg)
	mux := asynq.NewServeMux()
	consumer.Register(mux)
	return &Service{server: asynq.NewServer(opt, serverCfg), mux: mux}, nil
}

// Name 服务名称
func (s *Service) Name() string { return "worker" }

// Start 启动消费并阻塞到 ctx 结束，停机由 Stop 完成
func (s *Service) Start(ctx context.Context) error {
	if s == nil || s.server == nil {
		return errors.New("worker: not initialized")
	}
	if err := s.server.Start(s.mux); err != nil {
		return err
	}
	logger.Infow("worker_started")
	<-ctx.Done()
	return nil
}

// Stop 等待进行中的任务结束后停机
func (s *Service) Stop(context.Context) error {
	if s == nil || s.server == nil {
		return nil
	}
	s.server.Shutdown()
	logger.Infow("worker_stopped")
	return nil
}
