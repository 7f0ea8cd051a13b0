package metrics

// InitializeMetrics pre-populates all expected label combinations so that
// every metric is exported from the first Prometheus scrape.
// Call this once at startup after metric registration.
func InitializeMetrics() {
	for _, source := range []string{"user_selected", "asset_metadata", "device_sensor", "none"} {
		LocationResolutions.WithLabelValues(source)
	}

	for _, adapter := range []string{"catalog", "exif"} {
		for _, outcome := range []string{"found", "not_found", "permission_denied", "error"} {
			AssetLookups.WithLabelValues(adapter, outcome)
		}
	}

	for _, outcome := range []string{"fix", "timed_out", "permission_denied", "superseded", "error", "cancelled"} {
		DeviceRequests.WithLabelValues(outcome)
	}

	for _, op := range []string{"asset_lookup"} {
		RetryAttempts.WithLabelValues(op)
		RetrySuccess.WithLabelValues(op)
		RetryFailures.WithLabelValues(op)
		RetryDuration.WithLabelValues(op)
	}

	for _, outcome := range []string{"committed", "stale", "failed", "empty"} {
		PrefetchTotal.WithLabelValues(outcome)
	}

	for _, source := range []string{"cache", "live", "stale", "unavailable"} {
		SuggestionReads.WithLabelValues(source)
	}

	for _, status := range []string{"ok", "zero_results", "error", "rate_limited"} {
		PlaceSearchRequests.WithLabelValues(status)
	}

	for _, op := range []string{"initialize_schema", "upsert_asset", "lookup_asset", "delete_asset", "count_assets"} {
		DBQueryTotal.WithLabelValues(op, "success")
		DBQueryTotal.WithLabelValues(op, "error")
		DBQueryDuration.WithLabelValues(op)
	}

	CatalogAssets.WithLabelValues("true")
	CatalogAssets.WithLabelValues("false")

	for _, renderer := range []string{"vips", "imaging"} {
		PreviewRenders.WithLabelValues(renderer, "success")
		PreviewRenders.WithLabelValues(renderer, "error")
	}
}
