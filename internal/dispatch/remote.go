package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
)

// InternalExecutor is the executor URL value that forces local simulation.
const InternalExecutor = "internal"

// ErrResponseTooLarge is returned when an executor response exceeds
// maxResponseSize.
var ErrResponseTooLarge = errors.New("executor response too large")

const (
	executePath = "/execute"

	// maxResponseSize caps how much of an executor response is read (16 MiB).
	maxResponseSize = 16 << 20
)

// executeRequest is the JSON body posted to the executor.
type executeRequest struct {
	Task string          `json:"task"`
	Data json.RawMessage `json:"data"`
}

// remoteResponse is a completed HTTP exchange with the executor.
type remoteResponse struct {
	StatusCode int
	// Body is the parsed JSON body, or nil when the body was empty or not JSON.
	Body json.RawMessage
	// Text is the raw body as received.
	Text string
}

func (r *remoteResponse) ok() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// HTTPDoer is the part of *http.Client the executor client needs.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Remote posts tasks to an executor's /execute endpoint.
type Remote struct {
	url    string
	client HTTPDoer
}

// ExecuteURL resolves the execute path against base. It returns "" when
// base is empty, InternalExecutor, or not an absolute URL.
func ExecuteURL(base string) string {
	if base == "" || base == InternalExecutor {
		return ""
	}
	u, err := url.Parse(base)
	if err != nil || !u.IsAbs() || u.Host == "" {
		return ""
	}
	return u.ResolveReference(&url.URL{Path: executePath}).String()
}

// NewRemote creates an executor client for the given execute URL. A nil
// client means http.DefaultClient.
func NewRemote(executeURL string, client HTTPDoer) *Remote {
	if client == nil {
		client = http.DefaultClient
	}
	return &Remote{url: executeURL, client: client}
}

// URL returns the execute URL this client posts to.
func (r *Remote) URL() string {
	return r.url
}

// Execute posts the task and reads the whole response. An error means the
// exchange itself failed; HTTP error statuses are returned as a response.
func (r *Remote) Execute(ctx context.Context, name string, payload json.RawMessage) (*remoteResponse, error) {
	body, err := json.Marshal(executeRequest{Task: name, Data: payload})
	if err != nil {
		return nil, fmt.Errorf("marshal execute request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build execute request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Cache-Control", "no-store")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize+1))
	if err != nil {
		return nil, fmt.Errorf("read execute response: %w", err)
	}
	if len(data) > maxResponseSize {
		return nil, fmt.Errorf("read execute response: %w", ErrResponseTooLarge)
	}

	out := &remoteResponse{StatusCode: resp.StatusCode, Text: string(data)}
	if len(data) > 0 && json.Valid(data) {
		out.Body = data
	}
	return out, nil
}

// unwrapResult picks the effective result out of an executor body: the
// value under "result", "data" or "output", in that order, when body is an
// object holding one of those keys, otherwise the body itself.
func unwrapResult(body json.RawMessage) json.RawMessage {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(body, &obj); err != nil || obj == nil {
		return body
	}
	for _, key := range []string{"result", "data", "output"} {
		if v, ok := obj[key]; ok {
			return v
		}
	}
	return body
}
