// Package executor serves the remote executor wire contract: POST /execute
// with {"task", "data"} answered by {"result"} or {"error"}. It lets one
// vaultchain process act as the executor for another.
package executor

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

const maxBodySize = 1 << 20 // 1 MB

// Runner executes a task in-process. *task.Registry satisfies it.
type Runner interface {
	Execute(ctx context.Context, name string, payload json.RawMessage) (json.RawMessage, error)
}

type executeRequest struct {
	Task string          `json:"task"`
	Data json.RawMessage `json:"data"`
}

type executeResponse struct {
	Result json.RawMessage `json:"result,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// Handler answers executor requests from a Runner.
type Handler struct {
	router *chi.Mux
	runner Runner
	logger *slog.Logger
	delay  time.Duration
}

// Option configures a Handler.
type Option func(*Handler)

// WithDelay holds every request for d before running it, or until the
// request is canceled. Used to exercise caller timeouts.
func WithDelay(d time.Duration) Option {
	return func(h *Handler) { h.delay = d }
}

// NewHandler creates an executor handler.
func NewHandler(runner Runner, logger *slog.Logger, opts ...Option) *Handler {
	h := &Handler{
		router: chi.NewRouter(),
		runner: runner,
		logger: logger,
	}
	for _, opt := range opts {
		opt(h)
	}

	h.router.Use(middleware.Recoverer)
	h.router.Post("/execute", h.handleExecute)
	return h
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.router.ServeHTTP(w, r)
}

func (h *Handler) handleExecute(w http.ResponseWriter, r *http.Request) {
	var req executeRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeJSON(w, http.StatusBadRequest, executeResponse{Error: "invalid JSON body"})
		return
	}

	if h.delay > 0 {
		select {
		case <-time.After(h.delay):
		case <-r.Context().Done():
			return
		}
	}

	result, err := h.runner.Execute(r.Context(), req.Task, req.Data)
	if err != nil {
		h.logger.Error("execute task", "task", req.Task, "error", err)
		h.writeJSON(w, http.StatusInternalServerError, executeResponse{Error: err.Error()})
		return
	}

	h.logger.Info("executed task", "task", req.Task)
	h.writeJSON(w, http.StatusOK, executeResponse{Result: result})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("encode response", "error", err)
	}
}
