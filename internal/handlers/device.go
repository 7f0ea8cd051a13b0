package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"snapspot/internal/device"
	"snapspot/internal/geo"
)

type fixRequest struct {
	Latitude  *float64   `json:"latitude"`
	Longitude *float64   `json:"longitude"`
	Altitude  *float64   `json:"altitude,omitempty"`
	Accuracy  *float64   `json:"accuracy,omitempty"`
	Timestamp *time.Time `json:"timestamp,omitempty"`
}

// PublishFix hands a position reported by the host to waiting device requests.
func (h *Handlers) PublishFix(w http.ResponseWriter, r *http.Request) {
	if h.fixes == nil {
		writeJSONError(w, "device position is fixed by configuration", http.StatusConflict)
		return
	}

	var req fixRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Latitude == nil || req.Longitude == nil {
		writeJSONError(w, "latitude and longitude are required", http.StatusBadRequest)
		return
	}

	loc := geo.Location{Latitude: *req.Latitude, Longitude: *req.Longitude}
	if err := loc.Validate(); err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	fix := device.Fix{
		Latitude:  *req.Latitude,
		Longitude: *req.Longitude,
		Altitude:  req.Altitude,
		Accuracy:  req.Accuracy,
		Timestamp: time.Now(),
	}
	if req.Timestamp != nil {
		fix.Timestamp = *req.Timestamp
	}

	delivered := h.fixes.Publish(fix)
	writeJSON(w, http.StatusAccepted, map[string]int{"delivered": delivered})
}
