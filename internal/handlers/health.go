package handlers

import (
	"net/http"
	"runtime"
	"time"

	"snapspot/internal/startup"
)

const (
	statusHealthy  = "healthy"
	statusStarting = "starting"
	statusDegraded = "degraded"
)

// HealthResponse contains the health check response
type HealthResponse struct {
	Status        string  `json:"status"`
	Ready         bool    `json:"ready"`
	Version       string  `json:"version"`
	Uptime        string  `json:"uptime"`
	Indexing      bool    `json:"indexing"`
	LastIndexed   string  `json:"lastIndexed,omitempty"`
	IndexError    string  `json:"indexError,omitempty"`
	IndexedFiles  int64   `json:"indexedFiles"`
	LocatedFiles  int64   `json:"locatedFiles"`
	ActiveSession *string `json:"activeSession"`

	GoVersion    string `json:"goVersion"`
	NumGoroutine int    `json:"numGoroutine"`
}

// HealthCheck returns the health status of the service. It reports 503 until
// the first index run has finished.
func (h *Handlers) HealthCheck(w http.ResponseWriter, _ *http.Request) {
	response := HealthResponse{
		Status:       statusHealthy,
		Ready:        true,
		Version:      startup.Version,
		Uptime:       time.Since(h.startedAt).Round(time.Second).String(),
		GoVersion:    runtime.Version(),
		NumGoroutine: runtime.NumGoroutine(),
	}

	if s, ok := h.pipeline.Current(); ok {
		response.ActiveSession = &s.ID
	}

	if h.indexer != nil {
		status := h.indexer.Status()
		response.Ready = status.Ready
		response.Indexing = status.Indexing
		response.IndexedFiles = status.LastRun.Files
		response.LocatedFiles = status.LastRun.Located
		if !status.LastRun.StartedAt.IsZero() {
			response.LastIndexed = status.LastRun.StartedAt.Format(time.RFC3339)
		}
		if !status.Ready {
			response.Status = statusStarting
		}
		if status.LastError != "" {
			response.IndexError = status.LastError
			response.Status = statusDegraded
		}
	}

	code := http.StatusOK
	if !response.Ready {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, response)
}

// LivenessCheck always returns 200 while the server is running
func (h *Handlers) LivenessCheck(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodHead {
		w.WriteHeader(http.StatusOK)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "alive"})
}

// ReadinessCheck returns 200 only when the catalog has been indexed once
func (h *Handlers) ReadinessCheck(w http.ResponseWriter, _ *http.Request) {
	if h.indexer != nil && !h.indexer.Status().Ready {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "not_ready"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
