package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "snapspot_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "snapspot_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "snapspot_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)
)

// Session metrics
var (
	SessionsStarted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "snapspot_sessions_started_total",
			Help: "Total number of photo sessions started",
		},
	)

	SessionsSuperseded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "snapspot_sessions_superseded_total",
			Help: "Total number of photo sessions superseded by a newer selection",
		},
	)
)

// Location metrics
var (
	LocationResolutions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "snapspot_location_resolutions_total",
			Help: "Total number of resolution passes by winning source",
		},
		[]string{"source"}, // user_selected, asset_metadata, device_sensor, none
	)

	LocationResolutionDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "snapspot_location_resolution_duration_seconds",
			Help:    "Duration of a full resolution pass in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 3, 5, 8},
		},
	)

	AssetLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "snapspot_asset_lookups_total",
			Help: "Asset location lookups by adapter and outcome",
		},
		[]string{"adapter", "outcome"}, // catalog|exif × found|not_found|permission_denied|error
	)

	DeviceRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "snapspot_device_requests_total",
			Help: "Device location requests by outcome",
		},
		[]string{"outcome"}, // fix, timed_out, permission_denied, superseded, error, cancelled
	)

	RetryAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "snapspot_retry_attempts_total",
			Help: "Total number of retry attempts by operation",
		},
		[]string{"operation"},
	)

	RetrySuccess = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "snapspot_retry_success_total",
			Help: "Operations that succeeded after at least one retry",
		},
		[]string{"operation"},
	)

	RetryFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "snapspot_retry_failures_total",
			Help: "Operations that exhausted their retry budget",
		},
		[]string{"operation"},
	)

	RetryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "snapspot_retry_duration_seconds",
			Help:    "Total time spent in a retried operation including backoff",
			Buckets: []float64{0.001, 0.01, 0.1, 0.25, 0.5, 1, 2, 4},
		},
		[]string{"operation"},
	)
)

// Suggestion metrics
var (
	PrefetchTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "snapspot_prefetch_total",
			Help: "Suggestion prefetches by outcome",
		},
		[]string{"outcome"}, // committed, stale, failed, empty
	)

	PrefetchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "snapspot_prefetch_duration_seconds",
			Help:    "Duration of suggestion prefetches in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	PrefetchInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "snapspot_prefetch_in_flight",
			Help: "Number of prefetches currently running",
		},
	)

	SuggestionReads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "snapspot_suggestion_reads_total",
			Help: "Suggestion reads by how they were served",
		},
		[]string{"source"}, // cache, live, stale, unavailable
	)

	PlaceSearchRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "snapspot_place_search_requests_total",
			Help: "Place search requests by status",
		},
		[]string{"status"}, // ok, zero_results, error, rate_limited
	)

	PlaceSearchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "snapspot_place_search_duration_seconds",
			Help:    "Place search request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)
)

// Temp resource metrics
var (
	JanitorTrackedResources = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "snapspot_janitor_tracked_resources",
			Help: "Number of temporary files currently tracked",
		},
	)

	JanitorRemovedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "snapspot_janitor_removed_total",
			Help: "Total number of temporary files removed by sweeps",
		},
	)

	JanitorSweepDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "snapspot_janitor_sweep_duration_seconds",
			Help:    "Duration of janitor sweeps in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		},
	)

	JanitorSweepErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "snapspot_janitor_sweep_errors_total",
			Help: "Total number of files a sweep failed to remove",
		},
	)
)

// Catalog metrics
var (
	DBQueryTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "snapspot_db_queries_total",
			Help: "Total number of database queries",
		},
		[]string{"operation", "status"},
	)

	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "snapspot_db_query_duration_seconds",
			Help:    "Database query duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		},
		[]string{"operation"},
	)

	CatalogAssets = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "snapspot_catalog_assets",
			Help: "Number of cataloged assets",
		},
		[]string{"located"}, // "true", "false"
	)

	IndexerRunsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "snapspot_indexer_runs_total",
			Help: "Total number of indexer runs",
		},
	)

	IndexerFilesProcessed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "snapspot_indexer_files_processed_total",
			Help: "Total number of files processed by the indexer",
		},
	)

	IndexerErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "snapspot_indexer_errors_total",
			Help: "Total number of indexer errors",
		},
	)

	IndexerLastRunDuration = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "snapspot_indexer_last_run_duration_seconds",
			Help: "Duration of the last indexer run in seconds",
		},
	)

	IndexerIsRunning = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "snapspot_indexer_running",
			Help: "Whether the indexer is currently running (1 = running, 0 = idle)",
		},
	)

	PreviewRenders = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "snapspot_preview_renders_total",
			Help: "Preview renders by renderer and status",
		},
		[]string{"renderer", "status"}, // vips|imaging × success|error
	)
)

// Memory metrics
var (
	MemoryUsageRatio = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "snapspot_memory_usage_ratio",
			Help: "Heap allocation as a fraction of the memory limit",
		},
	)

	MemoryPaused = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "snapspot_memory_paused",
			Help: "Whether preview rendering is paused for memory pressure (1 = paused)",
		},
	)

	MemoryGCPauses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "snapspot_memory_gc_pauses_total",
			Help: "Times preview rendering was paused for memory pressure",
		},
	)

	PreviewsSkipped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "snapspot_previews_skipped_total",
			Help: "Preview renders skipped because of memory pressure",
		},
	)
)
