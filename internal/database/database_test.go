package database

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"snapspot/internal/geo"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) *Database {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := New(context.Background(), dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestNewCreatesDatabaseFile(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "catalog.db")
	db, err := New(context.Background(), dbPath)
	require.NoError(t, err)
	defer db.Close()

	_, err = os.Stat(dbPath)
	assert.NoError(t, err)
}

func TestNewFailsForMissingDirectory(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "missing", "catalog.db")
	_, err := New(context.Background(), dbPath)
	assert.Error(t, err)
}

func TestUpsertAndLookupAsset(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	captured := time.Date(2025, 6, 1, 19, 30, 0, 0, time.UTC)
	asset := Asset{
		ID:         "dinner/ramen.jpg",
		Path:       "/media/dinner/ramen.jpg",
		MediaType:  MediaTypeImage,
		Latitude:   geo.Float(35.6595),
		Longitude:  geo.Float(139.7005),
		Altitude:   geo.Float(40),
		CapturedAt: captured,
		ModTime:    captured.Add(time.Minute),
	}
	require.NoError(t, db.UpsertAsset(ctx, asset))

	got, err := db.LookupAsset(ctx, "dinner/ramen.jpg")
	require.NoError(t, err)
	assert.True(t, got.HasLocation())
	assert.InDelta(t, 35.6595, *got.Latitude, 1e-9)
	assert.InDelta(t, 139.7005, *got.Longitude, 1e-9)
	assert.InDelta(t, 40, *got.Altitude, 1e-9)
	assert.True(t, captured.Equal(got.CapturedAt))
	assert.Equal(t, MediaTypeImage, got.MediaType)
	assert.False(t, got.IndexedAt.IsZero())
}

func TestUpsertAssetWithoutLocation(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.UpsertAsset(ctx, Asset{
		ID:        "plain.png",
		Path:      "/media/plain.png",
		MediaType: MediaTypeImage,
		ModTime:   time.Now(),
	}))

	got, err := db.LookupAsset(ctx, "plain.png")
	require.NoError(t, err)
	assert.False(t, got.HasLocation())
	assert.Nil(t, got.Altitude)
	assert.True(t, got.CapturedAt.IsZero())
}

func TestUpsertAssetReplaces(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	asset := Asset{ID: "a.jpg", Path: "/media/a.jpg", MediaType: MediaTypeImage, ModTime: time.Now()}
	require.NoError(t, db.UpsertAsset(ctx, asset))

	asset.Latitude = geo.Float(1.5)
	asset.Longitude = geo.Float(2.5)
	require.NoError(t, db.UpsertAsset(ctx, asset))

	got, err := db.LookupAsset(ctx, "a.jpg")
	require.NoError(t, err)
	assert.True(t, got.HasLocation())

	stats, err := db.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, CatalogStats{TotalAssets: 1, LocatedAssets: 1}, stats)
}

func TestLookupAssetNotFound(t *testing.T) {
	db := setupTestDB(t)

	_, err := db.LookupAsset(context.Background(), "missing.jpg")
	assert.ErrorIs(t, err, ErrAssetNotFound)
	assert.ErrorIs(t, err, geo.ErrNotFound)
}

func TestDeleteAssets(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	old := time.Now().Add(-2 * time.Hour)
	require.NoError(t, db.UpsertAsset(ctx, Asset{ID: "old.jpg", Path: "/m/old.jpg", MediaType: MediaTypeImage, ModTime: old, IndexedAt: old}))
	require.NoError(t, db.UpsertAsset(ctx, Asset{ID: "new.jpg", Path: "/m/new.jpg", MediaType: MediaTypeImage, ModTime: time.Now()}))
	require.NoError(t, db.UpsertAsset(ctx, Asset{ID: "gone.jpg", Path: "/m/gone.jpg", MediaType: MediaTypeImage, ModTime: time.Now()}))

	removed, err := db.DeleteAssetsIndexedBefore(ctx, time.Now().Add(-time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	require.NoError(t, db.DeleteAsset(ctx, "gone.jpg"))
	require.NoError(t, db.DeleteAsset(ctx, "gone.jpg"))

	stats, err := db.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.TotalAssets)
	assert.Equal(t, 0, stats.LocatedAssets)
}
