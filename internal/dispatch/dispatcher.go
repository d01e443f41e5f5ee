package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

const (
	// DefaultTimeout bounds a remote call when no override is given.
	DefaultTimeout = 15 * time.Second
	// MinTimeout is the floor applied to every remote call timeout.
	MinTimeout = time.Second
)

// Dispatch paths, used in logs and metric labels.
const (
	pathLocal    = "local"
	pathRemote   = "remote"
	pathFallback = "fallback"
)

var emptyObject = json.RawMessage(`{}`)

// Local runs a task in-process and returns its JSON-encoded result.
// *task.Registry satisfies it.
type Local interface {
	Execute(ctx context.Context, name string, payload json.RawMessage) (json.RawMessage, error)
}

// Result is the outcome of a dispatch.
type Result struct {
	OK     bool            `json:"ok"`
	Result json.RawMessage `json:"result,omitempty"`
	Error  string          `json:"error,omitempty"`
	// UsedFallback is set when a failed remote call was replaced by a local run.
	UsedFallback bool `json:"usedFallback,omitempty"`
	// Raw is the diagnostic payload: the executor body (or its text when not
	// JSON), or the local result on the fallback path.
	Raw json.RawMessage `json:"raw,omitempty"`
}

// Dispatcher routes tasks to a remote executor when one is configured and
// to the local registry otherwise.
type Dispatcher struct {
	local   Local
	remote  *Remote
	timeout time.Duration
	logger  *slog.Logger
}

// Config configures a Dispatcher.
type Config struct {
	// ExecutorURL is the executor base URL; empty or "internal" disables
	// remote execution.
	ExecutorURL string
	// Timeout is the default remote call timeout. Zero means DefaultTimeout.
	Timeout time.Duration
	// Client is the HTTP client for remote calls. Nil means http.DefaultClient.
	Client HTTPDoer
}

// NewDispatcher creates a dispatcher. An executor URL that does not resolve
// leaves the dispatcher local-only.
func NewDispatcher(local Local, cfg Config, logger *slog.Logger) *Dispatcher {
	d := &Dispatcher{
		local:   local,
		timeout: cfg.Timeout,
		logger:  logger,
	}
	if d.timeout <= 0 {
		d.timeout = DefaultTimeout
	}

	if u := ExecuteURL(cfg.ExecutorURL); u != "" {
		d.remote = NewRemote(u, cfg.Client)
	} else if cfg.ExecutorURL != "" && cfg.ExecutorURL != "internal" {
		logger.Warn("executor URL is not absolute, running tasks locally", "executor_url", cfg.ExecutorURL)
	}
	return d
}

// Remote reports the execute URL in use, or "" when local-only.
func (d *Dispatcher) Remote() string {
	if d.remote == nil {
		return ""
	}
	return d.remote.URL()
}

// Option adjusts a single dispatch.
type Option func(*callOptions)

type callOptions struct {
	timeout time.Duration
}

// WithTimeout overrides the remote call timeout. Values below MinTimeout are
// raised to it.
func WithTimeout(d time.Duration) Option {
	return func(o *callOptions) { o.timeout = d }
}

// Dispatch runs the named task with payload. payload may be any value that
// marshals to JSON; a json.RawMessage is sent as-is.
func (d *Dispatcher) Dispatch(ctx context.Context, name string, payload any, opts ...Option) Result {
	o := callOptions{timeout: d.timeout}
	for _, opt := range opts {
		opt(&o)
	}

	data, err := encodePayload(payload)
	if err != nil {
		observeDispatch(name, pathLocal, false)
		return Result{OK: false, Error: err.Error()}
	}

	if d.remote == nil {
		return d.runLocal(ctx, name, data)
	}
	return d.runRemote(ctx, name, data, max(o.timeout, MinTimeout))
}

func (d *Dispatcher) runLocal(ctx context.Context, name string, data json.RawMessage) Result {
	result, err := d.local.Execute(ctx, name, data)
	if err != nil {
		observeDispatch(name, pathLocal, false)
		return Result{OK: false, Error: err.Error()}
	}
	observeDispatch(name, pathLocal, true)
	return Result{OK: true, Result: result, Raw: result}
}

func (d *Dispatcher) runRemote(ctx context.Context, name string, data json.RawMessage, timeout time.Duration) Result {
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	resp, err := d.remote.Execute(callCtx, name, data)
	remoteCallDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		if errors.Is(callCtx.Err(), context.DeadlineExceeded) {
			err = fmt.Errorf("executor timed out after %s: %w", timeout, err)
		}
		return d.fallback(ctx, name, data, err)
	}

	if !resp.ok() {
		observeDispatch(name, pathRemote, false)
		d.logger.Warn("executor returned error status", "task", name, "status", resp.StatusCode)
		return Result{
			OK:    false,
			Error: fmt.Sprintf("executor responded %d", resp.StatusCode),
			Raw:   rawDiagnostic(resp),
		}
	}

	result := emptyObject
	if resp.Body != nil {
		if unwrapped := unwrapResult(resp.Body); !isNull(unwrapped) {
			result = unwrapped
		}
	}

	observeDispatch(name, pathRemote, true)
	return Result{OK: true, Result: result, Raw: resp.Body}
}

// fallback runs the task locally after a failed remote exchange. If the
// local run also fails, the original network error is reported.
func (d *Dispatcher) fallback(ctx context.Context, name string, data json.RawMessage, netErr error) Result {
	d.logger.Warn("executor call failed, falling back to local simulator",
		"task", name,
		"executor", d.remote.URL(),
		"error", netErr,
	)

	// The caller's context may already be done if the remote call consumed
	// it; the local run gets its own so the fallback can still complete.
	result, err := d.local.Execute(context.WithoutCancel(ctx), name, data)
	if err != nil {
		observeDispatch(name, pathFallback, false)
		d.logger.Error("local fallback failed", "task", name, "error", err)
		return Result{OK: false, Error: netErr.Error()}
	}

	observeDispatch(name, pathFallback, true)
	return Result{OK: true, Result: result, Raw: result, UsedFallback: true}
}

// rawDiagnostic returns the parsed body, or the body text as a JSON string.
func rawDiagnostic(resp *remoteResponse) json.RawMessage {
	if resp.Body != nil {
		return resp.Body
	}
	text, err := json.Marshal(resp.Text)
	if err != nil {
		return nil
	}
	return text
}

func encodePayload(payload any) (json.RawMessage, error) {
	switch p := payload.(type) {
	case nil:
		return json.RawMessage("null"), nil
	case json.RawMessage:
		if len(p) == 0 {
			return json.RawMessage("null"), nil
		}
		if !json.Valid(p) {
			return nil, errors.New("encode payload: invalid JSON")
		}
		return p, nil
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode payload: %w", err)
	}
	return data, nil
}

func isNull(v json.RawMessage) bool {
	v = bytes.TrimSpace(v)
	return len(v) == 0 || string(v) == "null"
}
