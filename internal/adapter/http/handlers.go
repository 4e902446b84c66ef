package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/Victoria423/vscode-anycode/internal/adapter/localfs"
	"github.com/Victoria423/vscode-anycode/internal/adapter/ws"
	"github.com/Victoria423/vscode-anycode/internal/domain/language"
	"github.com/Victoria423/vscode-anycode/internal/service"
)

const maxBodyBytes = 4 << 20 // open documents arrive through this surface

// Registry is the slice of the language registry the HTTP surface needs.
type Registry interface {
	Enabled() []language.Resolved
	Invalidate()
}

// Handlers holds the dependencies of the HTTP surface.
type Handlers struct {
	registry   Registry
	supervisor *service.Supervisor
	hub        *ws.Hub
	docs       *localfs.Documents
}

// NewHandlers wires the handler set.
func NewHandlers(registry Registry, supervisor *service.Supervisor, hub *ws.Hub, docs *localfs.Documents) *Handlers {
	return &Handlers{
		registry:   registry,
		supervisor: supervisor,
		hub:        hub,
		docs:       docs,
	}
}

// Health reports liveness.
func (h *Handlers) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type statusResponse struct {
	State     string   `json:"state"`
	Languages []string `json:"languages"`
	PID       int      `json:"pid,omitempty"`
	Database  string   `json:"database,omitempty"`
	Editors   int      `json:"editors"`
}

// Status reports the analysis-server state and attached editor count.
func (h *Handlers) Status(w http.ResponseWriter, _ *http.Request) {
	state, languages, pid := h.supervisor.Status()
	writeJSON(w, http.StatusOK, statusResponse{
		State:     state,
		Languages: languages,
		PID:       pid,
		Database:  h.supervisor.Database(),
		Editors:   h.hub.ConnectionCount(),
	})
}

type languageResponse struct {
	ID       string         `json:"id"`
	Suffixes []string       `json:"suffixes"`
	Features language.Flags `json:"features"`
}

// Languages lists the enabled languages with their resolved feature flags.
func (h *Handlers) Languages(w http.ResponseWriter, _ *http.Request) {
	enabled := h.registry.Enabled()
	out := make([]languageResponse, 0, len(enabled))
	for _, l := range enabled {
		out = append(out, languageResponse{
			ID:       l.Info.ID,
			Suffixes: l.Info.Suffixes,
			Features: l.Flags,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

// Reindex forces a registry invalidation, which restarts the analysis
// server and re-runs bulk initialization.
func (h *Handlers) Reindex(w http.ResponseWriter, _ *http.Request) {
	h.registry.Invalidate()
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "restarting"})
}

type putDocumentRequest struct {
	URI     string `json:"uri"`
	Content string `json:"content"`
}

// PutDocument records an open document so cell and unsaved content can be
// served to the analysis server.
func (h *Handlers) PutDocument(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[putDocumentRequest](w, r)
	if !ok {
		return
	}
	if req.URI == "" {
		writeError(w, http.StatusBadRequest, "uri is required")
		return
	}
	h.docs.Put(req.URI, []byte(req.Content))
	w.WriteHeader(http.StatusNoContent)
}

// DeleteDocument removes an open document.
func (h *Handlers) DeleteDocument(w http.ResponseWriter, r *http.Request) {
	uri := r.URL.Query().Get("uri")
	if uri == "" {
		writeError(w, http.StatusBadRequest, "uri query parameter is required")
		return
	}
	h.docs.Remove(uri)
	w.WriteHeader(http.StatusNoContent)
}

// WS upgrades to the event stream attached editors subscribe to.
func (h *Handlers) WS(w http.ResponseWriter, r *http.Request) {
	h.hub.HandleWS(w, r)
}

// ---------------------------------------------------------------------------
// Response helpers
// ---------------------------------------------------------------------------

type errorResponse struct {
	Error string `json:"error"`
}

func readJSON[T any](w http.ResponseWriter, r *http.Request) (T, bool) {
	var v T
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(&v); err != nil {
		if err.Error() == "http: request body too large" {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
		} else {
			writeError(w, http.StatusBadRequest, "invalid request body")
		}
		return v, false
	}
	return v, true
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to write JSON response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}
