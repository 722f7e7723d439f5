package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/eugenenazirov/envcascade/internal/node"
	"github.com/eugenenazirov/envcascade/internal/storage"
)

type contextKey string

const requestIDContextKey contextKey = "requestID"

// Handler serves the resolved configuration snapshot.
type Handler struct {
	storage storage.Storage

	clock func() time.Time
}

// HandlerOption configures Handler behaviour.
type HandlerOption func(*Handler)

// WithClock overrides the time source, primarily for tests.
func WithClock(clock func() time.Time) HandlerOption {
	return func(h *Handler) {
		h.clock = clock
	}
}

// NewHandler constructs a Handler with the provided dependencies.
func NewHandler(store storage.Storage, opts ...HandlerOption) *Handler {
	h := &Handler{
		storage: store,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	_ = r
	resp := healthResponse{
		Status:    "ok",
		Timestamp: h.clock(),
	}
	if _, err := h.storage.GetSnapshot(); err != nil {
		resp.Status = "loading"
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	snapshot, ok := h.snapshot(w)
	if !ok {
		return
	}
	writeNode(w, r, snapshot.Config)
}

func (h *Handler) handleGetConfigPath(w http.ResponseWriter, r *http.Request) {
	snapshot, ok := h.snapshot(w)
	if !ok {
		return
	}

	path := r.PathValue("path")
	value, found := snapshot.Config.Lookup(node.SplitPath(path)...)
	if !found {
		writeError(w, http.StatusNotFound, "Not found", "no configuration value at "+path,
			"Use GET /api/config to inspect the available keys")
		return
	}
	writeNode(w, r, value)
}

func (h *Handler) handleGetSources(w http.ResponseWriter, r *http.Request) {
	_ = r
	snapshot, ok := h.snapshot(w)
	if !ok {
		return
	}

	resp := sourcesResponse{
		Environment: snapshot.Environment,
		Candidates:  nonNil(snapshot.Candidates),
		Files:       nonNil(snapshot.Files),
		Unresolved:  nonNil(snapshot.Unresolved),
		LoadedAt:    snapshot.LoadedAt,
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) snapshot(w http.ResponseWriter) (storage.Snapshot, bool) {
	snapshot, err := h.storage.GetSnapshot()
	if err != nil {
		if errors.Is(err, storage.ErrNotLoaded) {
			writeError(w, http.StatusServiceUnavailable, "Not ready", err.Error())
			return storage.Snapshot{}, false
		}
		writeInternalError(w, err)
		return storage.Snapshot{}, false
	}
	return snapshot, true
}

func requestIDFromContext(ctx context.Context) string {
	if v := ctx.Value(requestIDContextKey); v != nil {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}

type sourcesResponse struct {
	Environment string    `json:"environment"`
	Candidates  []string  `json:"candidates"`
	Files       []string  `json:"files"`
	Unresolved  []string  `json:"unresolved"`
	LoadedAt    time.Time `json:"loadedAt"`
}

type healthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

type errorResponse struct {
	Error      string `json:"error"`
	Details    string `json:"details,omitempty"`
	Suggestion string `json:"suggestion,omitempty"`
}

// writeNode renders n as JSON, or as YAML when ?format=yaml is requested.
func writeNode(w http.ResponseWriter, r *http.Request, n node.Node) {
	if strings.EqualFold(r.URL.Query().Get("format"), "yaml") {
		out, err := yaml.Marshal(node.ToYAML(n))
		if err != nil {
			writeInternalError(w, err)
			return
		}
		w.Header().Set("Content-Type", "application/yaml")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(out)
		return
	}

	out, err := json.Marshal(n)
	if err != nil {
		writeInternalError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(append(out, '\n'))
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	if status != 0 {
		w.WriteHeader(status)
	}
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message, details string, suggestion ...string) {
	resp := errorResponse{
		Error:   message,
		Details: details,
	}
	if len(suggestion) > 0 {
		resp.Suggestion = suggestion[0]
	}
	writeJSON(w, status, resp)
}

func writeInternalError(w http.ResponseWriter, err error) {
	writeError(w, http.StatusInternalServerError, "Internal error", err.Error())
}
