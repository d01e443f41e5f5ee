package api

import (
	"context"
	"net/http"
	"time"
)

const (
	healthTimeout = 2 * time.Second

	executorLocal = "local"
)

// HealthChecker reports whether backing storage is reachable.
// store.Store satisfies it.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

type healthResponse struct {
	Status string `json:"status"`
	// Executor is the execute URL tasks are posted to, or "local".
	Executor string `json:"executor"`
	Store    string `json:"store"`
}

// handleHealthz answers 200 when the store responds and 503 otherwise. The
// executor is not checked; dispatch falls back to the simulator when it is down.
func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{
		Status:   "ok",
		Executor: s.dispatcher.Remote(),
		Store:    "ok",
	}
	if resp.Executor == "" {
		resp.Executor = executorLocal
	}

	ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
	defer cancel()

	status := http.StatusOK
	if err := s.health.Ping(ctx); err != nil {
		s.logger.Warn("store health check failed", "error", err)
		resp.Status = "degraded"
		resp.Store = "unreachable"
		status = http.StatusServiceUnavailable
		storeUp.Set(0)
	} else {
		storeUp.Set(1)
	}

	s.writeJSON(w, status, resp)
}
