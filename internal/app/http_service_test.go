package app

import (
	"context"
	"net/http"
	"testing"
	"time"
)

func TestAPIServiceStopRunsShutdownHooks(t *testing.T) {
	svc := NewAPIService("127.0.0.1:0", http.NotFoundHandler())
	closed := make(chan struct{})
	svc.OnShutdown(func() { close(closed) })

	done := make(chan error, 1)
	go func() { done <- svc.Start(context.Background()) }()
	time.Sleep(50 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := svc.Stop(ctx); err != nil {
		t.Fatalf("stop failed: %v", err)
	}
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("start should return nil after shutdown, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("start did not return after stop")
	}
	select {
	case <-closed:
	case <-time.After(2 * time.Second):
		t.Fatalf("shutdown hook was not called")
	}
}

func TestAPIServiceName(t *testing.T) {
	if got := NewAPIService(":0", http.NotFoundHandler()).Name(); got != "api" {
		t.Fatalf("name want api got %s", got)
	}
}
