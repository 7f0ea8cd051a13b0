package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"snapspot/internal/assets"
	"snapspot/internal/geo"
	"snapspot/internal/session"

	"github.com/gorilla/mux"
)

const maxWait = 30 * time.Second

// coordinates is the wire form of a user-picked override.
type coordinates struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	Altitude  *float64 `json:"altitude,omitempty"`
	Accuracy  *float64 `json:"accuracy,omitempty"`
}

type selectRequest struct {
	PhotoRef string       `json:"photoRef"`
	Override *coordinates `json:"override,omitempty"`
}

// SelectionResponse is returned by SelectPhoto.
type SelectionResponse struct {
	Session  session.PhotoSession `json:"session"`
	Location *geo.Location        `json:"location"`
	Preview  bool                 `json:"preview"`
}

// SuggestionsResponse is returned by GetSuggestions.
type SuggestionsResponse struct {
	SessionID string       `json:"sessionId"`
	Source    string       `json:"source"`
	Location  geo.Location `json:"location"`
	Places    []geo.Place  `json:"places"`
	FetchedAt time.Time    `json:"fetchedAt"`
}

// SelectPhoto starts a session for a photo and resolves its location.
func (h *Handlers) SelectPhoto(w http.ResponseWriter, r *http.Request) {
	var req selectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	req.PhotoRef = strings.TrimSpace(req.PhotoRef)
	if req.PhotoRef == "" {
		writeJSONError(w, "photoRef is required", http.StatusBadRequest)
		return
	}
	if err := assets.ValidateRef(req.PhotoRef); err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	var override *geo.Location
	if req.Override != nil {
		if req.Override.Latitude == nil || req.Override.Longitude == nil {
			writeJSONError(w, "override requires latitude and longitude", http.StatusBadRequest)
			return
		}
		override = &geo.Location{
			Latitude:  *req.Override.Latitude,
			Longitude: *req.Override.Longitude,
			Altitude:  req.Override.Altitude,
			Accuracy:  req.Override.Accuracy,
			Timestamp: time.Now(),
		}
	}

	sel, err := h.pipeline.SelectPhoto(r.Context(), req.PhotoRef, override)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, SelectionResponse{
		Session:  sel.Session,
		Location: sel.Location,
		Preview:  sel.Preview != "",
	})
}

// CurrentSession returns the Active session.
func (h *Handlers) CurrentSession(w http.ResponseWriter, _ *http.Request) {
	s, ok := h.pipeline.Current()
	if !ok {
		writeJSONError(w, "no active session", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

// GetLocation returns the committed location of a session.
func (h *Handlers) GetLocation(w http.ResponseWriter, r *http.Request) {
	loc, err := h.pipeline.Location(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, loc)
}

// GetSuggestions returns nearby places for a session. The optional wait
// query parameter bounds how long to wait for the prefetch.
func (h *Handlers) GetSuggestions(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var wait time.Duration
	if raw := r.URL.Query().Get("wait"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil || d < 0 {
			writeJSONError(w, "invalid wait duration", http.StatusBadRequest)
			return
		}
		wait = min(d, maxWait)
	}

	res, source, err := h.pipeline.Suggestions(r.Context(), id, wait)
	if err != nil {
		writeError(w, err)
		return
	}

	places := res.Places
	if places == nil {
		places = []geo.Place{}
	}
	writeJSON(w, http.StatusOK, SuggestionsResponse{
		SessionID: res.SessionID,
		Source:    string(source),
		Location:  res.Location,
		Places:    places,
		FetchedAt: res.FetchedAt,
	})
}

// GetPreview serves the rendered JPEG preview of a session's photo.
func (h *Handlers) GetPreview(w http.ResponseWriter, r *http.Request) {
	path, err := h.pipeline.PreviewPath(mux.Vars(r)["id"])
	if err != nil {
		if errors.Is(err, geo.ErrNotFound) {
			writeJSONError(w, "no preview for this session", http.StatusNotFound)
			return
		}
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Cache-Control", "private, max-age=300")
	http.ServeFile(w, r, path)
}
