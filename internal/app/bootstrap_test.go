package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/freightlane/internal/config"
)

type stubService struct {
	name     string
	startErr error
	stopped  bool
}

func (s *stubService) Name() string { return s.name }

func (s *stubService) Start(ctx context.Context) error {
	if s.startErr != nil {
		return s.startErr
	}
	<-ctx.Done()
	return nil
}

func (s *stubService) Stop(context.Context) error {
	s.stopped = true
	return nil
}

func TestBuildRunnerRejectsInvalidMode(t *testing.T) {
	if _, err := BuildRunner(nil, ModeAll); err == nil {
		t.Fatalf("nil config should fail")
	}
	if _, err := BuildRunner(&config.Config{}, "cron"); err == nil {
		t.Fatalf("unknown mode should fail")
	}
	if _, err := BuildRunner(&config.Config{}, ModeWorker); err == nil {
		t.Fatalf("worker mode without queue should fail")
	}
}

func TestRunnerStopsServicesAndRunsClosers(t *testing.T) {
	failing := &stubService{name: "http", startErr: errors.New("bind failed")}
	idle := &stubService{name: "worker"}
	runner := NewRunner(failing, idle)

	var order []string
	runner.OnShutdown(func() { order = append(order, "first") })
	runner.OnShutdown(func() { order = append(order, "second") })

	err := runner.Run(context.Background(), time.Second, nil)
	if err == nil || err.Error() != "bind failed" {
		t.Fatalf("run error want bind failed got %v", err)
	}
	if !failing.stopped || !idle.stopped {
		t.Fatalf("all services should be stopped")
	}
	if len(order) != 2 || order[0] != "second" || order[1] != "first" {
		t.Fatalf("closers should run in reverse order, got %v", order)
	}
}

func TestRunnerCancelledContextReturnsNil(t *testing.T) {
	runner := NewRunner(&stubService{name: "worker"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := runner.Run(ctx, time.Second, nil); err != nil {
		t.Fatalf("cancelled run want nil got %v", err)
	}
}

func TestNormalizeOptionsUsesConfiguredShutdownTimeout(t *testing.T) {
	cfg := &config.Config{}
	cfg.Server.ShutdownTimeoutSeconds = 4
	opts := normalizeOptions(Options{Config: cfg})
	if opts.ShutdownTimeout != 4*time.Second {
		t.Fatalf("shutdown timeout want 4s got %s", opts.ShutdownTimeout)
	}
	if opts.Mode != ModeAll || len(opts.Signals) != 2 || opts.Logger == nil {
		t.Fatalf("defaults not applied: %+v", opts)
	}
	if got := normalizeOptions(Options{}).ShutdownTimeout; got != defaultShutdownTimeout {
		t.Fatalf("fallback timeout want %s got %s", defaultShutdownTimeout, got)
	}
}

func TestRunnerRejectsNilService(t *testing.T) {
	if err := NewRunner(nil).Run(context.Background(), time.Second, nil); err == nil {
		t.Fatalf("nil service should be rejected")
	}
}
