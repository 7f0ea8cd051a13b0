package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"snapspot/internal/indexer"
	"snapspot/internal/logging"
)

// Sweep runs the temp file janitor immediately. An optional maxAge query
// parameter overrides the configured age.
func (h *Handlers) Sweep(w http.ResponseWriter, r *http.Request) {
	if h.sweeper == nil {
		writeJSONError(w, "temp file janitor not configured", http.StatusServiceUnavailable)
		return
	}

	maxAge := h.tempMaxAge
	if raw := r.URL.Query().Get("maxAge"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil || d <= 0 {
			writeJSONError(w, "invalid maxAge duration", http.StatusBadRequest)
			return
		}
		maxAge = d
	}

	removed, err := h.sweeper.Sweep(maxAge)
	if err != nil {
		// partial sweeps still report what was removed
		logging.Warn("Manual sweep: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]interface{}{
			"removed": removed,
			"error":   "some files could not be removed",
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"removed": removed})
}

// TriggerReindex starts a catalog index run in the background.
func (h *Handlers) TriggerReindex(w http.ResponseWriter, _ *http.Request) {
	if h.indexer == nil {
		writeJSONError(w, "indexer not configured", http.StatusServiceUnavailable)
		return
	}
	if h.indexer.Status().Indexing {
		writeJSON(w, http.StatusConflict, map[string]string{
			"status":  "already_running",
			"message": "Indexing is already in progress",
		})
		return
	}

	go func() {
		if _, err := h.indexer.Index(context.Background()); err != nil && !errors.Is(err, indexer.ErrIndexInProgress) {
			logging.Warn("Triggered re-index failed: %v", err)
		}
	}()

	writeJSON(w, http.StatusAccepted, map[string]string{
		"status":  "started",
		"message": "Re-indexing started",
	})
}
