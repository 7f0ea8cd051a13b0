// Package metrics provides Prometheus instrumentation for the snapspot pipeline.
//
// All metrics are prefixed with "snapspot_" and registered on the default
// registry through promauto, so importing the package is enough to have them
// exported at /metrics.
//
// # Metric Categories
//
// ## HTTP Metrics
//   - HTTPRequestsTotal, HTTPRequestDuration, HTTPRequestsInFlight
//
// ## Session Metrics
//   - SessionsStarted, SessionsSuperseded
//
// ## Location Metrics
//   - LocationResolutions: outcome of each resolution pass by winning source
//   - LocationResolutionDuration
//   - AssetLookups: per-adapter outcome (catalog, exif)
//   - DeviceRequests: outcome of each device request (fix, timed_out, ...)
//   - RetryAttempts, RetrySuccess, RetryFailures, RetryDuration (per op)
//
// ## Suggestion Metrics
//   - PrefetchTotal: committed, stale, failed, empty
//   - PrefetchDuration, PrefetchInFlight
//   - SuggestionReads: how the consuming screen was served (cache, live, ...)
//   - PlaceSearchRequests, PlaceSearchDuration
//
// ## Temp Resource Metrics
//   - JanitorTrackedResources, JanitorRemovedTotal, JanitorSweepDuration,
//     JanitorSweepErrors
//
// ## Catalog Metrics
//   - DBQueryTotal, DBQueryDuration, CatalogAssets
//   - IndexerRunsTotal, IndexerFilesProcessed, IndexerErrors,
//     IndexerLastRunDuration, IndexerIsRunning
//   - PreviewRenders, PreviewsSkipped
//
// ## Memory Metrics
//   - MemoryUsageRatio, MemoryPaused, MemoryGCPauses
//
// InitializeMetrics pre-populates every expected label combination so that
// series exist from the first scrape.
package metrics
