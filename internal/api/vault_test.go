package api

import (
	"bufio"
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seantiz/vaultchain/internal/dispatch"
	"github.com/seantiz/vaultchain/internal/executor"
	"github.com/seantiz/vaultchain/internal/model"
	"github.com/seantiz/vaultchain/internal/simulator"
	"github.com/seantiz/vaultchain/internal/store"
	"github.com/seantiz/vaultchain/internal/task"
)

type dashboardBody struct {
	Vault    *model.Vault           `json:"vault"`
	Assets   []model.Asset          `json:"assets"`
	Logs     []model.LogEntry       `json:"logs"`
	Security []model.SecuritySample `json:"security"`
	Mock     bool                   `json:"mock"`
}

func postJSON(t *testing.T, url, body string) (*http.Response, []byte) {
	t.Helper()
	resp, err := http.Post(url, "application/json", bytes.NewBufferString(body))
	require.NoError(t, err)
	defer resp.Body.Close()

	var buf bytes.Buffer
	_, err = buf.ReadFrom(resp.Body)
	require.NoError(t, err)
	return resp, buf.Bytes()
}

func getDashboard(t *testing.T, base, id string) dashboardBody {
	t.Helper()
	resp, err := http.Get(base + "/dashboard-data/" + id)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body dashboardBody
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body
}

func TestVaultInitThenDashboard(t *testing.T) {
	ts := httptest.NewServer(newTestServer(t).Router())
	defer ts.Close()

	resp, raw := postJSON(t, ts.URL+"/vault-init", `{"vault_name":"Cold Store","network":"Polygon"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var init initResponse
	require.NoError(t, json.Unmarshal(raw, &init))
	require.NotEmpty(t, init.VaultID)
	assert.False(t, init.Mock)

	dash := getDashboard(t, ts.URL, init.VaultID)
	require.NotNil(t, dash.Vault)
	assert.Equal(t, "Cold Store", dash.Vault.Name)
	assert.Equal(t, model.NetworkPolygon, dash.Vault.Network)
	assert.Len(t, dash.Assets, simulator.SeedAssetCount)
	assert.Len(t, dash.Logs, 1)
	assert.Len(t, dash.Security, 14)
	assert.False(t, dash.Mock)
}

func TestDashboardUnknownVaultSeedsPrime(t *testing.T) {
	ts := httptest.NewServer(newTestServer(t).Router())
	defer ts.Close()

	dash := getDashboard(t, ts.URL, "fresh")
	require.NotNil(t, dash.Vault)
	assert.Equal(t, "fresh", dash.Vault.ID)
	assert.Equal(t, simulator.DefaultVaultName, dash.Vault.Name)
	assert.Len(t, dash.Assets, simulator.SeedAssetCount)
	assert.Len(t, dash.Logs, 1)
}

func TestAddAssetAppearsFirst(t *testing.T) {
	ts := httptest.NewServer(newTestServer(t).Router())
	defer ts.Close()

	resp, raw := postJSON(t, ts.URL+"/vault-add-asset", `{"vault_id":"v1","asset":{"name":"Key A","kind":"signing_key"}}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var res model.AddAssetResult
	require.NoError(t, json.Unmarshal(raw, &res))
	assert.True(t, res.OK)
	assert.NotEmpty(t, res.AssetID)

	dash := getDashboard(t, ts.URL, "v1")
	require.Len(t, dash.Assets, simulator.SeedAssetCount+1)
	assert.Equal(t, "Key A", dash.Assets[0].Name)
	assert.Equal(t, res.AssetID, dash.Assets[0].ID)
	assert.Equal(t, "Secured Key A with AES-GCM-256", dash.Logs[0].Detail)
}

func TestAuditAndExport(t *testing.T) {
	ts := httptest.NewServer(newTestServer(t).Router())
	defer ts.Close()

	resp, raw := postJSON(t, ts.URL+"/vault-audit", `{"vault_id":"v1"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"ok":true,"findings":0}`, string(raw))

	resp, raw = postJSON(t, ts.URL+"/vault-export", `{"vault_id":"v1"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var exp model.ExportResult
	require.NoError(t, json.Unmarshal(raw, &exp))
	assert.True(t, exp.OK)
	assert.NotEmpty(t, exp.ExportID)
	assert.Nil(t, exp.DownloadURL)
}

func TestInvalidBodies(t *testing.T) {
	ts := httptest.NewServer(newTestServer(t).Router())
	defer ts.Close()

	tests := []struct {
		name    string
		path    string
		body    string
		wantErr string
	}{
		{"malformed init", "/vault-init", `{"vault_name":`, "invalid JSON body"},
		{"empty audit", "/vault-audit", ``, "invalid JSON body"},
		{"wrong type init", "/vault-init", `{"vault_name":42}`, "invalid request body"},
		{"wrong asset shape", "/vault-add-asset", `{"vault_id":"v1","asset":"Key A"}`, "invalid request body"},
		{"array export", "/vault-export", `[]`, "invalid request body"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, raw := postJSON(t, ts.URL+tt.path, tt.body)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

			var body errorResponse
			require.NoError(t, json.Unmarshal(raw, &body))
			assert.Equal(t, tt.wantErr, body.Error)
			if tt.wantErr == "invalid request body" {
				assert.NotEmpty(t, body.Details)
			}
		})
	}
}

func TestRemoteExecutorNotMock(t *testing.T) {
	logger := discardLogger()
	reg := task.NewRegistry(logger)
	simulator.New(store.NewMemoryStore(), logger).Register(reg)
	remote := httptest.NewServer(executor.NewHandler(reg, logger))
	defer remote.Close()

	ts := httptest.NewServer(newTestServer(t, dispatch.Config{ExecutorURL: remote.URL}).Router())
	defer ts.Close()

	resp, raw := postJSON(t, ts.URL+"/vault-init", `{}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var init initResponse
	require.NoError(t, json.Unmarshal(raw, &init))
	assert.NotEmpty(t, init.VaultID)
	assert.False(t, init.Mock)
}

func TestUnreachableExecutorFallsBackAsMock(t *testing.T) {
	gone := httptest.NewServer(http.NotFoundHandler())
	url := gone.URL
	gone.Close()

	ts := httptest.NewServer(newTestServer(t, dispatch.Config{ExecutorURL: url}).Router())
	defer ts.Close()

	resp, raw := postJSON(t, ts.URL+"/vault-init", `{"vault_name":"Fallback"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var init initResponse
	require.NoError(t, json.Unmarshal(raw, &init))
	assert.NotEmpty(t, init.VaultID)
	assert.True(t, init.Mock)

	dash := getDashboard(t, ts.URL, init.VaultID)
	assert.True(t, dash.Mock)
	require.NotNil(t, dash.Vault)
	assert.Equal(t, "Fallback", dash.Vault.Name)
}

func TestExecutorErrorIsBadGateway(t *testing.T) {
	remote := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"boom"}`))
	}))
	defer remote.Close()

	ts := httptest.NewServer(newTestServer(t, dispatch.Config{ExecutorURL: remote.URL}).Router())
	defer ts.Close()

	for _, path := range []string{"/vault-init", "/vault-audit"} {
		resp, raw := postJSON(t, ts.URL+path, `{"vault_id":"v1"}`)
		assert.Equal(t, http.StatusBadGateway, resp.StatusCode, path)

		var body errorResponse
		require.NoError(t, json.Unmarshal(raw, &body))
		assert.Contains(t, body.Error, "500")
		assert.JSONEq(t, `{"error":"boom"}`, string(body.Raw))
	}

	resp, err := http.Get(ts.URL + "/dashboard-data/v1")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
}

func TestInitWithoutVaultIDIsBadGateway(t *testing.T) {
	remote := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"result":{"ok":true}}`))
	}))
	defer remote.Close()

	ts := httptest.NewServer(newTestServer(t, dispatch.Config{ExecutorURL: remote.URL}).Router())
	defer ts.Close()

	resp, raw := postJSON(t, ts.URL+"/vault-init", `{}`)
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)

	var body errorResponse
	require.NoError(t, json.Unmarshal(raw, &body))
	assert.Equal(t, "failed to initialize vault", body.Error)
}

func TestListTasks(t *testing.T) {
	ts := httptest.NewServer(newTestServer(t).Router())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/v1/tasks")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var infos []task.Info
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&infos))

	names := make([]string, len(infos))
	for i, info := range infos {
		names[i] = info.Name
	}
	assert.Equal(t, []string{
		task.AddAsset,
		task.ExportVault,
		task.FetchDashboard,
		task.InitVault,
		task.RunAudit,
	}, names)
}

// readLogEvent reads SSE data events until one carries the given action.
func readLogEvent(t *testing.T, reader *bufio.Reader, action string) model.LogEntry {
	t.Helper()
	for {
		line, err := reader.ReadString('\n')
		require.NoError(t, err)
		data, ok := strings.CutPrefix(strings.TrimSpace(line), "data: ")
		if !ok {
			continue
		}
		var entry model.LogEntry
		require.NoError(t, json.Unmarshal([]byte(data), &entry))
		if entry.Action == action {
			return entry
		}
	}
}

func openLogStream(t *testing.T, srv *Server, base, id string) *http.Response {
	t.Helper()
	resp, err := http.Get(base + "/vault-logs/" + id + "/stream")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	require.Eventually(t, func() bool {
		return srv.broker.Subscribers(id) == 1
	}, 2*time.Second, 10*time.Millisecond)
	return resp
}

func TestStreamLogs(t *testing.T) {
	srv := newTestServer(t)
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	resp := openLogStream(t, srv, ts.URL, "v1")
	defer resp.Body.Close()

	auditResp, _ := postJSON(t, ts.URL+"/vault-audit", `{"vault_id":"v1"}`)
	require.Equal(t, http.StatusOK, auditResp.StatusCode)

	// The seed entry comes first; readLogEvent skips it.
	reader := bufio.NewReader(resp.Body)
	entry := readLogEvent(t, reader, simulator.ActionAuditScan)
	assert.Equal(t, simulator.ActionAuditScan, entry.Action)

	srv.broker.Shutdown()

	var sawDone bool
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			break
		}
		if strings.TrimSpace(line) == "event: done" {
			sawDone = true
		}
	}
	assert.True(t, sawDone)
}

func TestStreamLogsIncludesFallbackRuns(t *testing.T) {
	gone := httptest.NewServer(http.NotFoundHandler())
	url := gone.URL
	gone.Close()

	srv := newTestServer(t, dispatch.Config{ExecutorURL: url})
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	resp := openLogStream(t, srv, ts.URL, "v1")
	defer resp.Body.Close()

	addResp, raw := postJSON(t, ts.URL+"/vault-add-asset", `{"vault_id":"v1","asset":{"name":"Key B"}}`)
	require.Equal(t, http.StatusOK, addResp.StatusCode, string(raw))

	entry := readLogEvent(t, bufio.NewReader(resp.Body), simulator.ActionAssetSeal)
	assert.Equal(t, "Secured Key B with AES-GCM-256", entry.Detail)
}
