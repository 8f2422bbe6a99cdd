package app

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"time"

	"go.uber.org/zap"
)

// Service 由 Runner 托管的长驻进程
// Start 阻塞到 ctx 结束或出错，Stop 在 Start 返回后调用
type Service interface {
	Name() string
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

// Runner 同时托管多个服务，任一退出即整体停机
type Runner struct {
	services []Service
	closers  []func()
}

// NewRunner 创建运行器
func NewRunner(services ...Service) *Runner {
	return &Runner{services: services}
}

// OnShutdown 登记全部服务停止后的清理动作，逆序执行
func (r *Runner) OnShutdown(fn func()) {
	if r != nil && fn != nil {
		r.closers = append(r.closers, fn)
	}
}

// RunWithOptions 监听退出信号并运行
func RunWithOptions(runner *Runner, opts Options) error {
	if runner == nil {
		return errors.New("runner is nil")
	}
	opts = normalizeOptions(opts)
	ctx := context.Background()
	if len(opts.Signals) > 0 {
		var stop context.CancelFunc
		ctx, stop = signal.NotifyContext(ctx, opts.Signals...)
		defer stop()
	}
	return runner.Run(ctx, opts.ShutdownTimeout, opts.Logger)
}

type exit struct {
	service string
	err     error
}

// Run 启动全部服务，收到取消或首个服务退出后按启动顺序停机
// 由取消触发的停机返回 nil
func (r *Runner) Run(ctx context.Context, stopTimeout time.Duration, log *zap.SugaredLogger) error {
	if r == nil || len(r.services) == 0 {
		return errors.New("no services to run")
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	for i, svc := range r.services {
		if svc == nil {
			return fmt.Errorf("service #%d is nil", i)
		}
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	exits := make(chan exit, len(r.services))
	for _, svc := range r.services {
		go func(svc Service) {
			log.Infow("service_start", "service", svc.Name())
			exits <- exit{service: svc.Name(), err: svc.Start(runCtx)}
		}(svc)
	}

	var cause error
	select {
	case <-runCtx.Done():
		cause = runCtx.Err()
		log.Infow("runner_shutdown", "reason", "signal")
	case first := <-exits:
		cause = first.err
		log.Infow("runner_shutdown", "reason", "service_exit", "service", first.service, "error", first.err)
	}
	cancel()

	if stopTimeout <= 0 {
		stopTimeout = defaultShutdownTimeout
	}
	stopCtx, stopCancel := context.WithTimeout(context.Background(), stopTimeout)
	defer stopCancel()
	for _, svc := range r.services {
		if err := svc.Stop(stopCtx); err != nil {
			log.Errorw("service_stop_failed", "service", svc.Name(), "error", err)
		}
	}
	for i := len(r.closers) - 1; i >= 0; i-- {
		r.closers[i]()
	}

	if errors.Is(cause, context.Canceled) {
		return nil
	}
	return cause
}
