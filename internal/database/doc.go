/*
Package database provides the SQLite asset catalog the location pipeline
queries for embedded photo metadata.

# Overview

The catalog stores one row per photo asset, keyed by its path relative to
the media directory. The indexer fills it in the background, which means a
photo that was just captured or synced may be missing for a short while;
callers treat ErrAssetNotFound as "not indexed yet" and retry.

# Schema

	assets(
	    id          TEXT PRIMARY KEY,   -- media-relative path
	    path        TEXT NOT NULL,      -- absolute path
	    media_type  TEXT NOT NULL,      -- image, video, other
	    latitude    REAL,               -- NULL when the photo has no GPS tags
	    longitude   REAL,
	    altitude    REAL,
	    captured_at INTEGER,            -- unix seconds, 0 when unknown
	    mod_time    INTEGER NOT NULL,
	    indexed_at  INTEGER NOT NULL
	)

# Connection Settings

The database is opened in WAL mode with a busy timeout so the indexer can
write while lookups read:

	_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000

# Metrics

Every query records snapspot_db_queries_total and
snapspot_db_query_duration_seconds by operation.
*/
package database
