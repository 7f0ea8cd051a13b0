package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"snapspot/internal/assets"
	"snapspot/internal/geo"
	"snapspot/internal/indexer"
	"snapspot/internal/logging"
)

// writeJSON encodes v as JSON with the given status code. Encoding errors are
// logged since the header is already sent.
func writeJSON(w http.ResponseWriter, statusCode int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Error("failed to encode JSON response: %v", err)
	}
}

// writeJSONError writes {"error": message} with the given status code.
func writeJSONError(w http.ResponseWriter, message string, statusCode int) {
	writeJSON(w, statusCode, map[string]string{"error": message})
}

// statusForError maps pipeline sentinels to HTTP status codes.
func statusForError(err error) int {
	switch {
	case errors.Is(err, assets.ErrInvalidRef):
		return http.StatusBadRequest
	case errors.Is(err, geo.ErrStaleResult):
		return http.StatusGone
	case errors.Is(err, geo.ErrNoLocation):
		return http.StatusUnprocessableEntity
	case errors.Is(err, geo.ErrServiceUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, geo.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, geo.ErrPermissionDenied):
		return http.StatusForbidden
	case errors.Is(err, geo.ErrTimedOut), errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, indexer.ErrIndexInProgress):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// writeError writes err with the mapped status. Unexpected errors are logged
// and their text withheld from the client.
func writeError(w http.ResponseWriter, err error) {
	status := statusForError(err)
	if status == http.StatusInternalServerError {
		logging.Error("request failed: %v", err)
		writeJSONError(w, "internal error", status)
		return
	}
	writeJSONError(w, err.Error(), status)
}
