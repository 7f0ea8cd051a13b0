package handlers

import (
	"net/http"

	"snapspot/internal/middleware"

	"github.com/gorilla/mux"
)

// NewRouter registers every route on a fresh router. Request metrics are
// recorded per route template.
func NewRouter(h *Handlers) *mux.Router {
	r := mux.NewRouter()
	r.Use(middleware.Metrics(middleware.DefaultMetricsConfig()))

	r.HandleFunc("/health", h.HealthCheck).Methods(http.MethodGet)
	r.HandleFunc("/healthz", h.HealthCheck).Methods(http.MethodGet)
	r.HandleFunc("/livez", h.LivenessCheck).Methods(http.MethodGet, http.MethodHead)
	r.HandleFunc("/readyz", h.ReadinessCheck).Methods(http.MethodGet)
	r.HandleFunc("/version", h.GetVersion).Methods(http.MethodGet)
	r.Handle("/metrics", h.MetricsHandler()).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/sessions", h.SelectPhoto).Methods(http.MethodPost).Name("selectPhoto")
	api.HandleFunc("/sessions/current", h.CurrentSession).Methods(http.MethodGet).Name("currentSession")
	api.HandleFunc("/sessions/{id}/location", h.GetLocation).Methods(http.MethodGet).Name("sessionLocation")
	api.HandleFunc("/sessions/{id}/suggestions", h.GetSuggestions).Methods(http.MethodGet).Name("sessionSuggestions")
	api.HandleFunc("/sessions/{id}/preview", h.GetPreview).Methods(http.MethodGet).Name("sessionPreview")
	api.HandleFunc("/device/fix", h.PublishFix).Methods(http.MethodPost).Name("deviceFix")
	api.HandleFunc("/maintenance/sweep", h.Sweep).Methods(http.MethodPost).Name("sweep")
	api.HandleFunc("/maintenance/reindex", h.TriggerReindex).Methods(http.MethodPost).Name("reindex")

	return r
}
