// Package indexer keeps the asset catalog in step with the media directory.
//
// Each run walks MEDIA_DIR in parallel, classifies every file by extension,
// reads EXIF GPS tags and capture time where the format carries them, and
// upserts one catalog row per media file. Rows the run did not see are
// removed afterwards.
//
// The indexer runs once at startup and then every index interval. Until a
// photo's first run completes, catalog lookups for it miss; the location
// extractor retries for exactly that window.
//
// Hidden files and directories (prefixed with '.') are skipped.
package indexer
