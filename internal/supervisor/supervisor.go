// Package supervisor owns process lifecycle: starting every long-running
// component, aggregating their health, and driving a graceful shutdown when
// the process receives an interrupt or a component reports fatal. Grounded
// on the teacher's main.go boot sequence and health_check.go's
// SimpleHealthCheck, generalized from a single un-supervised goroutine fan-out
// into a managed component registry that starts every component concurrently
// and stops them together through one shared cancellation.
package supervisor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"
)

// Component is a long-running subsystem the Supervisor manages. Run must
// block until ctx is cancelled or the component fails, and must return
// promptly once ctx is done.
type Component interface {
	Name() string
	Run(ctx context.Context) error
}

// HealthChecker is implemented by components that can report a liveness
// signal beyond "still running" (e.g. gateway stream connectivity).
type HealthChecker interface {
	Healthy() bool
}

type componentState struct {
	component Component
	status    string // "starting", "running", "stopped", "failed"
	lastErr   error
	startedAt time.Time
}

// Supervisor starts components, serves /healthz, and coordinates graceful
// shutdown: once any component's Run returns (including on success), the
// parent context is cancelled so every other component drains together.
type Supervisor struct {
	mu         sync.Mutex
	components []*componentState
	server     *http.Server
}

func New(healthAddr string) *Supervisor {
	s := &Supervisor{}
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealthz)
	s.server = &http.Server{Addr: healthAddr, Handler: mux}
	return s
}

// Register adds a component to be started by Run. Must be called before Run.
func (s *Supervisor) Register(c Component) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.components = append(s.components, &componentState{component: c, status: "starting"})
}

// Run starts the health-check server and every registered component, and
// blocks until ctx is cancelled or any component exits, at which point it
// cancels the remaining components and waits for them to drain.
func (s *Supervisor) Run(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			fmt.Printf("supervisor: healthz server error: %v\n", err)
		}
	}()

	var wg sync.WaitGroup
	errCh := make(chan error, len(s.components))

	s.mu.Lock()
	states := append([]*componentState(nil), s.components...)
	s.mu.Unlock()

	for _, st := range states {
		wg.Add(1)
		go func(st *componentState) {
			defer wg.Done()
			s.setStatus(st, "running", nil)
			st.startedAt = time.Now()
			err := st.component.Run(runCtx)
			if err != nil && !errors.Is(err, context.Canceled) {
				s.setStatus(st, "failed", err)
				errCh <- fmt.Errorf("%s: %w", st.component.Name(), err)
				cancel()
				return
			}
			s.setStatus(st, "stopped", nil)
			cancel()
		}(st)
	}

	<-runCtx.Done()
	wg.Wait()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = s.server.Shutdown(shutdownCtx)

	close(errCh)
	var firstErr error
	for err := range errCh {
		if firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (s *Supervisor) setStatus(st *componentState, status string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st.status = status
	st.lastErr = err
}

type healthReport struct {
	Status     string                 `json:"status"`
	Components map[string]componentReport `json:"components"`
}

type componentReport struct {
	Status  string `json:"status"`
	Error   string `json:"error,omitempty"`
	Healthy bool   `json:"healthy"`
}

func (s *Supervisor) handleHealthz(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	overall := "healthy"
	report := healthReport{Components: make(map[string]componentReport, len(s.components))}
	for _, st := range s.components {
		cr := componentReport{Status: st.status, Healthy: st.status == "running" || st.status == "starting"}
		if hc, ok := st.component.(HealthChecker); ok {
			cr.Healthy = hc.Healthy()
		}
		if st.lastErr != nil {
			cr.Error = st.lastErr.Error()
		}
		if !cr.Healthy {
			overall = "unhealthy"
		}
		report.Components[st.component.Name()] = cr
	}
	report.Status = overall

	w.Header().Set("Content-Type", "application/json")
	if overall != "healthy" {
		w.WriteHeader(http.StatusServiceUnavailable)
	} else {
		w.WriteHeader(http.StatusOK)
	}
	json.NewEncoder(w).Encode(report)
}
