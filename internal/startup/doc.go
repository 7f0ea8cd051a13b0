// Package startup handles configuration loading and startup/shutdown logging.
//
// # Configuration
//
// [LoadConfig] reads an optional .env file, then parses the environment into
// [Config] using the struct tag defaults. Durations use Go syntax ("1500ms").
//
//   - MEDIA_DIR, CACHE_DIR, DATABASE_DIR: storage roots
//   - PORT: HTTP server port (default: 8080)
//   - PLACES_*: nearby search endpoint, key, radius, keyword, result cap and rate limit
//   - DEVICE_TIMEOUT: sensor wait per request (default: 5s)
//   - DEVICE_LATITUDE, DEVICE_LONGITUDE: fixed position reported by the sensor
//   - ASSET_MAX_ATTEMPTS, ASSET_BACKOFF_STEP: catalog lookup retry policy
//   - PREFETCH_TIMEOUT, SUGGESTION_WAIT: suggestion prefetch and read budgets
//   - SWEEP_INTERVAL, TEMP_MAX_AGE: temp file janitor schedule
//   - INDEX_INTERVAL, INDEX_WORKERS: catalog indexer schedule and pool size
//   - PREVIEW_SIZE, VIPS_ENABLED: preview rendering
//   - LOG_LEVEL, LOG_FORMAT, LOG_HEALTH_CHECKS: logging
//   - MEMORY_LIMIT, MEMORY_RATIO: container memory limit and the heap share
//     used for GOMEMLIMIT
//
// The database directory must be writable. The preview directory under
// CACHE_DIR is optional; previews are disabled when it cannot be written.
//
// # Build Information
//
// Version, Commit and BuildTime are injected via ldflags and exposed via
// [GetBuildInfo].
package startup
