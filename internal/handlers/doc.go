// Package handlers provides the HTTP API for snapspot.
//
// It includes handlers for:
//   - Photo sessions: selecting a photo, its resolved location and preview
//   - Place suggestions for the current session
//   - Device position fixes pushed by the host
//   - Maintenance: temp file sweeps and catalog re-indexing
//   - Health, version and Prometheus metrics
//
// Errors are returned as {"error": "..."} with a status derived from the
// pipeline's sentinel errors: 410 for a superseded session, 422 when the
// session has no location, 503 when place search is unavailable.
package handlers
