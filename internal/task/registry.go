package task

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
)

// ErrUnknownTask is returned by Execute in strict mode for unregistered names.
var ErrUnknownTask = errors.New("unknown task")

// unknownTaskResult is the stub returned for unregistered names when the
// registry is not strict.
var unknownTaskResult = json.RawMessage(`{"ok":true}`)

// Handler runs one task against a JSON payload and returns a value to be
// marshaled as the task result.
type Handler func(ctx context.Context, payload json.RawMessage) (any, error)

// Info describes a registered task.
type Info struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type entry struct {
	description string
	handler     Handler
}

// Registry holds task handlers keyed by name.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]entry
	strict   bool
	logger   *slog.Logger
}

// Option configures a Registry.
type Option func(*Registry)

// WithStrict makes Execute fail with ErrUnknownTask for unregistered names
// instead of returning the {"ok":true} stub.
func WithStrict(strict bool) Option {
	return func(r *Registry) { r.strict = strict }
}

// NewRegistry creates an empty task registry.
func NewRegistry(logger *slog.Logger, opts ...Option) *Registry {
	r := &Registry{
		handlers: make(map[string]entry),
		logger:   logger,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register adds a handler under the given name, replacing any previous one.
func (r *Registry) Register(name, description string, h Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[name] = entry{description: description, handler: h}
}

// Resolve returns the handler registered for name.
func (r *Registry) Resolve(name string) (Handler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.handlers[name]
	if !ok {
		return nil, false
	}
	return e.handler, true
}

// Execute runs the named task and returns its JSON-encoded result. A null or
// empty payload is passed to handlers as an empty object.
func (r *Registry) Execute(ctx context.Context, name string, payload json.RawMessage) (json.RawMessage, error) {
	h, ok := r.Resolve(name)
	if !ok {
		unknownTasksTotal.Inc()
		if r.strict {
			return nil, fmt.Errorf("%w: %q", ErrUnknownTask, name)
		}
		r.logger.Warn("unknown task, using basic response", "task", name)
		return unknownTaskResult, nil
	}

	if len(payload) == 0 || string(payload) == "null" {
		payload = json.RawMessage(`{}`)
	}

	result, err := h(ctx, payload)
	if err != nil {
		return nil, err
	}

	out, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("encode %s result: %w", name, err)
	}
	return out, nil
}

// List returns information about all registered tasks, sorted by name
// for a stable API response.
func (r *Registry) List() []Info {
	r.mu.RLock()
	defer r.mu.RUnlock()

	infos := make([]Info, 0, len(r.handlers))
	for name, e := range r.handlers {
		infos = append(infos, Info{Name: name, Description: e.description})
	}
	sort.Slice(infos, func(i, j int) bool {
		return infos[i].Name < infos[j].Name
	})
	return infos
}
