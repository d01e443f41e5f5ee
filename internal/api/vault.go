package api

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/xeipuuv/gojsonschema"

	"github.com/seantiz/vaultchain/internal/dispatch"
	"github.com/seantiz/vaultchain/internal/model"
	"github.com/seantiz/vaultchain/internal/task"
)

const maxBodySize = 1 << 20 // 1 MB

// errorResponse is the JSON body of every non-2xx response.
type errorResponse struct {
	Error   string          `json:"error"`
	Raw     json.RawMessage `json:"raw,omitempty"`
	Details []string        `json:"details,omitempty"`
}

// initResponse is the JSON body returned by POST /vault-init.
type initResponse struct {
	VaultID string `json:"vault_id"`
	Mock    bool   `json:"mock"`
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "vault_id")

	res := s.dispatcher.Dispatch(r.Context(), task.FetchDashboard, model.VaultRef{VaultID: id})
	if !res.OK || len(res.Result) == 0 {
		s.writeDispatchError(w, res, "failed to fetch dashboard")
		return
	}

	var body map[string]json.RawMessage
	if err := json.Unmarshal(res.Result, &body); err != nil || body == nil {
		s.logger.Error("decode dashboard result", "vault_id", id, "error", err)
		s.writeJSON(w, http.StatusBadGateway, errorResponse{Error: "failed to fetch dashboard", Raw: res.Raw})
		return
	}

	mock, _ := json.Marshal(res.UsedFallback)
	body["mock"] = mock
	s.writeJSON(w, http.StatusOK, body)
}

func (s *Server) handleVaultInit(w http.ResponseWriter, r *http.Request) {
	payload, ok := s.readBody(w, r, vaultInitSchema)
	if !ok {
		return
	}

	res := s.dispatcher.Dispatch(r.Context(), task.InitVault, payload)

	var out model.InitResult
	if res.OK {
		// A result without a string vault_id is treated as a failed init.
		_ = json.Unmarshal(res.Result, &out)
	}
	if !res.OK || out.VaultID == "" {
		s.writeDispatchError(w, res, "failed to initialize vault")
		return
	}

	s.writeJSON(w, http.StatusOK, initResponse{VaultID: out.VaultID, Mock: res.UsedFallback})
}

func (s *Server) handleAddAsset(w http.ResponseWriter, r *http.Request) {
	s.dispatchBody(w, r, task.AddAsset, addAssetSchema, "failed to add asset")
}

func (s *Server) handleAudit(w http.ResponseWriter, r *http.Request) {
	s.dispatchBody(w, r, task.RunAudit, vaultRefSchema, "failed to run audit")
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	s.dispatchBody(w, r, task.ExportVault, vaultRefSchema, "failed to export vault")
}

// dispatchBody forwards a validated request body to the named task and
// writes the task result as-is.
func (s *Server) dispatchBody(w http.ResponseWriter, r *http.Request, name string, schema *gojsonschema.Schema, failure string) {
	payload, ok := s.readBody(w, r, schema)
	if !ok {
		return
	}

	res := s.dispatcher.Dispatch(r.Context(), name, payload)
	if !res.OK {
		s.writeDispatchError(w, res, failure)
		return
	}

	result := res.Result
	if len(result) == 0 {
		result = json.RawMessage(`{"ok":true}`)
	}
	s.writeJSON(w, http.StatusOK, result)
}

// readBody reads and validates a JSON request body. On failure it writes a
// 400 response and returns false.
func (s *Server) readBody(w http.ResponseWriter, r *http.Request, schema *gojsonschema.Schema) (json.RawMessage, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	body, err := io.ReadAll(r.Body)
	if err != nil || !json.Valid(body) {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return nil, false
	}

	details, err := validateBody(schema, body)
	if err != nil {
		s.logger.Error("validate request body", "error", err)
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return nil, false
	}
	if len(details) > 0 {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body", Details: details})
		return nil, false
	}

	return body, true
}

// writeDispatchError writes a 502 carrying the dispatcher error, or
// fallback when the dispatcher gave none, and its raw diagnostic.
func (s *Server) writeDispatchError(w http.ResponseWriter, res dispatch.Result, fallback string) {
	msg := res.Error
	if msg == "" {
		msg = fallback
	}
	s.logger.Warn("dispatch failed", "error", msg)
	s.writeJSON(w, http.StatusBadGateway, errorResponse{Error: msg, Raw: res.Raw})
}

// writeJSON writes a JSON response with the given status code.
func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("encode response", "error", err)
	}
}

// writeError writes a JSON error response.
func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, errorResponse{Error: message})
}
