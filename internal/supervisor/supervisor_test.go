package supervisor

import (
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"testing"
	"time"
)

// fakeComponent implements both Component and HealthChecker; tests that
// don't care about health reporting simply leave healthy at its zero value.
type fakeComponent struct {
	name    string
	runErr  error
	blockCh chan struct{}
	healthy bool
}

func (f *fakeComponent) Name() string { return f.name }

func (f *fakeComponent) Run(ctx context.Context) error {
	if f.runErr != nil {
		return f.runErr
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-f.blockCh:
		return nil
	}
}

func (f *fakeComponent) Healthy() bool { return f.healthy }

func TestRunCancelsSiblingsWhenOneComponentFails(t *testing.T) {
	s := New("127.0.0.1:0")

	failing := &fakeComponent{name: "failing", runErr: errors.New("boom"), blockCh: make(chan struct{})}
	blocked := &fakeComponent{name: "blocked", blockCh: make(chan struct{})}
	s.Register(failing)
	s.Register(blocked)

	done := make(chan error, 1)
	go func() { done <- s.Run(context.Background()) }()

	select {
	case err := <-done:
		if err == nil {
			t.Fatal("expected Run to return the failing component's error")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after a component failed; siblings were not cancelled")
	}
}

func TestRunReturnsNilOnCleanCancellation(t *testing.T) {
	s := New("127.0.0.1:0")
	comp := &fakeComponent{name: "clean", blockCh: make(chan struct{})}
	s.Register(comp)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run() = %v, want nil on a clean shutdown", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after context cancellation")
	}
}

func TestHandleHealthzReportsUnhealthyComponent(t *testing.T) {
	s := New("127.0.0.1:0")
	comp := &fakeComponent{name: "stream", healthy: false}
	s.Register(comp)
	// Simulate the component already having transitioned to "running".
	s.components[0].status = "running"

	req := httptest.NewRequest("GET", "/healthz", nil)
	rec := httptest.NewRecorder()
	s.handleHealthz(rec, req)

	if rec.Code != 503 {
		t.Errorf("status code = %d, want 503", rec.Code)
	}
	var body healthReport
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if body.Status != "unhealthy" {
		t.Errorf("body.Status = %q, want unhealthy", body.Status)
	}
	if body.Components["stream"].Healthy {
		t.Error("expected the stream component to be reported unhealthy")
	}
}

func TestHandleHealthzReportsHealthyWhenAllComponentsOK(t *testing.T) {
	s := New("127.0.0.1:0")
	comp := &fakeComponent{name: "screener", healthy: true}
	s.Register(comp)
	s.components[0].status = "running"

	req := httptest.NewRequest("GET", "/healthz", nil)
	rec := httptest.NewRecorder()
	s.handleHealthz(rec, req)

	if rec.Code != 200 {
		t.Errorf("status code = %d, want 200", rec.Code)
	}
	var body healthReport
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if body.Status != "healthy" {
		t.Errorf("body.Status = %q, want healthy", body.Status)
	}
}
