// Package httpserver exposes the read-only status surface for a running
// sync: liveness and run progress.
package httpserver

import (
	"net/http"

	json "github.com/goccy/go-json"

	"github.com/ratetap/ratetap/internal/engine"
)

const (
	healthPath = "/healthz"
	statusPath = "/status"
)

// ProgressSource yields a point-in-time snapshot of the current run.
type ProgressSource interface {
	Progress() engine.Progress
}

type httpServer struct {
	source ProgressSource
}

// NewHandler returns the status HTTP handler over the given progress source.
func NewHandler(source ProgressSource) http.Handler {
	server := &httpServer{source: source}
	mux := http.NewServeMux()
	mux.HandleFunc(healthPath, server.handleHealth)
	mux.HandleFunc(statusPath, server.handleStatus)
	return mux
}

func (s *httpServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *httpServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if s.source == nil {
		writeError(w, http.StatusServiceUnavailable, "no active run")
		return
	}
	writeJSON(w, http.StatusOK, s.source.Progress())
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
