package app

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/freightlane/internal/logger"
)

const (
	httpReadHeaderTimeout = 10 * time.Second
	httpIdleTimeout       = 120 * time.Second
)

// APIService 对外 API 服务
// 写超时不设置，websocket 长连接由 Hub 自行维护心跳
type APIService struct {
	server *http.Server
}

// NewAPIService 创建 API 服务
func NewAPIService(addr string, handler http.Handler) *APIService {
	return &APIService{
		server: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: httpReadHeaderTimeout,
			IdleTimeout:       httpIdleTimeout,
			ErrorLog:          logger.StdLogger(),
		},
	}
}

// Name 服务名称
func (s *APIService) Name() string {
	return "api"
}

// OnShutdown 注册停机回调，用于关闭被劫持的长连接
func (s *APIService) OnShutdown(fn func()) {
	if s == nil || s.server == nil || fn == nil {
		return
	}
	s.server.RegisterOnShutdown(fn)
}

// Start 监听并阻塞直到停机
func (s *APIService) Start(ctx context.Context) error {
	if s == nil || s.server == nil {
		return errors.New("api server not initialized")
	}
	listener, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		return err
	}
	logger.Infow("api_listening", "addr", listener.Addr().String())
	if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop 优雅停机
func (s *APIService) Stop(ctx context.Context) error {
	if s == nil || s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}
