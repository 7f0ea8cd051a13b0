package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"snapspot/internal/geo"
)

// ErrAssetNotFound means the asset has not been cataloged (yet).
var ErrAssetNotFound = fmt.Errorf("asset not in catalog: %w", geo.ErrNotFound)

// Media types stored in the catalog.
const (
	MediaTypeImage = "image"
	MediaTypeVideo = "video"
	MediaTypeOther = "other"
)

// Asset is one cataloged photo or video.
type Asset struct {
	ID         string
	Path       string
	MediaType  string
	Latitude   *float64
	Longitude  *float64
	Altitude   *float64
	CapturedAt time.Time
	ModTime    time.Time
	IndexedAt  time.Time
}

// HasLocation reports whether the asset carries GPS coordinates.
func (a Asset) HasLocation() bool {
	return a.Latitude != nil && a.Longitude != nil
}

// CatalogStats summarizes the catalog contents.
type CatalogStats struct {
	TotalAssets   int
	LocatedAssets int
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func floatPtr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

func unixOrZero(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.Unix()
}

// UpsertAsset inserts or replaces the catalog row for asset.ID.
func (d *Database) UpsertAsset(ctx context.Context, asset Asset) error {
	start := time.Now()
	var err error
	defer func() { recordQuery("upsert_asset", start, err) }()

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	indexedAt := asset.IndexedAt
	if indexedAt.IsZero() {
		indexedAt = time.Now()
	}

	_, err = d.db.ExecContext(ctx, `
	INSERT INTO assets (id, path, media_type, latitude, longitude, altitude, captured_at, mod_time, indexed_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		path = excluded.path,
		media_type = excluded.media_type,
		latitude = excluded.latitude,
		longitude = excluded.longitude,
		altitude = excluded.altitude,
		captured_at = excluded.captured_at,
		mod_time = excluded.mod_time,
		indexed_at = excluded.indexed_at
	`,
		asset.ID,
		asset.Path,
		asset.MediaType,
		nullFloat(asset.Latitude),
		nullFloat(asset.Longitude),
		nullFloat(asset.Altitude),
		unixOrZero(asset.CapturedAt),
		asset.ModTime.Unix(),
		indexedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert asset %s: %w", asset.ID, err)
	}
	return nil
}

// LookupAsset returns the catalog row for id, or ErrAssetNotFound.
func (d *Database) LookupAsset(ctx context.Context, id string) (*Asset, error) {
	start := time.Now()
	var err error
	defer func() {
		// A miss is an expected outcome, not a query failure
		if errors.Is(err, ErrAssetNotFound) {
			recordQuery("lookup_asset", start, nil)
			return
		}
		recordQuery("lookup_asset", start, err)
	}()

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var (
		asset                          Asset
		lat, lon, alt                  sql.NullFloat64
		capturedAt, modTime, indexedAt int64
	)

	err = d.db.QueryRowContext(ctx, `
	SELECT id, path, media_type, latitude, longitude, altitude, captured_at, mod_time, indexed_at
	FROM assets WHERE id = ?
	`, id).Scan(
		&asset.ID, &asset.Path, &asset.MediaType,
		&lat, &lon, &alt,
		&capturedAt, &modTime, &indexedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		err = ErrAssetNotFound
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up asset %s: %w", id, err)
	}

	asset.Latitude = floatPtr(lat)
	asset.Longitude = floatPtr(lon)
	asset.Altitude = floatPtr(alt)
	if capturedAt > 0 {
		asset.CapturedAt = time.Unix(capturedAt, 0)
	}
	asset.ModTime = time.Unix(modTime, 0)
	asset.IndexedAt = time.Unix(indexedAt, 0)

	return &asset, nil
}

// DeleteAsset removes one asset. Deleting a missing asset is not an error.
func (d *Database) DeleteAsset(ctx context.Context, id string) error {
	start := time.Now()
	var err error
	defer func() { recordQuery("delete_asset", start, err) }()

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err = d.db.ExecContext(ctx, "DELETE FROM assets WHERE id = ?", id)
	return err
}

// DeleteAssetsIndexedBefore removes assets the indexer did not see since cutoff.
func (d *Database) DeleteAssetsIndexedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("delete_asset", start, err) }()

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	result, err := d.db.ExecContext(ctx, "DELETE FROM assets WHERE indexed_at < ?", cutoff.Unix())
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// Stats counts cataloged and located assets.
func (d *Database) Stats(ctx context.Context) (CatalogStats, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("count_assets", start, err) }()

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var stats CatalogStats
	err = d.db.QueryRowContext(ctx, `
	SELECT COUNT(*), COUNT(latitude)
	FROM assets
	`).Scan(&stats.TotalAssets, &stats.LocatedAssets)
	return stats, err
}
