package executor_test

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seantiz/vaultchain/internal/executor"
	"github.com/seantiz/vaultchain/internal/simulator"
	"github.com/seantiz/vaultchain/internal/store"
	"github.com/seantiz/vaultchain/internal/task"
)

func newTestExecutor(t *testing.T, opts ...task.Option) *httptest.Server {
	t.Helper()
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	reg := task.NewRegistry(logger, opts...)
	simulator.New(store.NewMemoryStore(), logger).Register(reg)

	ts := httptest.NewServer(executor.NewHandler(reg, logger))
	t.Cleanup(ts.Close)
	return ts
}

func post(t *testing.T, url, body string) (int, map[string]json.RawMessage) {
	t.Helper()
	resp, err := http.Post(url+"/execute", "application/json", bytes.NewBufferString(body))
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]json.RawMessage
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp.StatusCode, out
}

func TestExecuteWrapsResult(t *testing.T) {
	ts := newTestExecutor(t)

	status, out := post(t, ts.URL, `{"task":"vaultchain_run_audit","data":{"vault_id":"v1"}}`)
	assert.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"ok":true,"findings":0}`, string(out["result"]))
}

func TestExecuteUnknownTask(t *testing.T) {
	ts := newTestExecutor(t)

	status, out := post(t, ts.URL, `{"task":"vaultchain_nope","data":{}}`)
	assert.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"ok":true}`, string(out["result"]))
}

func TestExecuteStrictUnknownTask(t *testing.T) {
	ts := newTestExecutor(t, task.WithStrict(true))

	status, out := post(t, ts.URL, `{"task":"vaultchain_nope","data":{}}`)
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Contains(t, string(out["error"]), "unknown task")
}

func TestExecuteInvalidJSON(t *testing.T) {
	ts := newTestExecutor(t)

	status, out := post(t, ts.URL, `not json`)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, string(out["error"]), "invalid JSON body")
}

func TestExecuteRejectsGet(t *testing.T) {
	ts := newTestExecutor(t)

	resp, err := http.Get(ts.URL + "/execute")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}
