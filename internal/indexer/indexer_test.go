package indexer

import (
	"bytes"
	"context"
	"encoding/binary"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"snapspot/internal/database"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// gpsJPEG returns a minimal JPEG whose APP1 segment carries GPS tags for
// lat/lon (north/east only).
func gpsJPEG(lat, lon float64) []byte {
	le := binary.LittleEndian
	var tiff bytes.Buffer
	put16 := func(v uint16) { _ = binary.Write(&tiff, le, v) }
	put32 := func(v uint32) { _ = binary.Write(&tiff, le, v) }
	entry := func(tag, typ uint16, count, value uint32) {
		put16(tag)
		put16(typ)
		put32(count)
		put32(value)
	}

	tiff.WriteString("II")
	put16(42)
	put32(8)

	// IFD0: pointer to the GPS IFD at 26
	put16(1)
	entry(0x8825, 4, 1, 26)
	put32(0)

	// GPS IFD: 4 entries, rationals start at 80
	put16(4)
	entry(0x0001, 2, 2, uint32('N'))
	entry(0x0002, 5, 3, 80)
	entry(0x0003, 2, 2, uint32('E'))
	entry(0x0004, 5, 3, 104)
	put32(0)

	dms := func(v float64) {
		deg := math.Floor(v)
		minutes := math.Floor((v - deg) * 60)
		sec := ((v-deg)*60 - minutes) * 60
		put32(uint32(deg))
		put32(1)
		put32(uint32(minutes))
		put32(1)
		put32(uint32(math.Round(sec * 1000)))
		put32(1000)
	}
	dms(lat)
	dms(lon)

	var out bytes.Buffer
	out.Write([]byte{0xFF, 0xD8, 0xFF, 0xE1})
	_ = binary.Write(&out, binary.BigEndian, uint16(2+6+tiff.Len()))
	out.WriteString("Exif\x00\x00")
	out.Write(tiff.Bytes())
	out.Write([]byte{0xFF, 0xD9})
	return out.Bytes()
}

func writePNG(t *testing.T, path string) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	img.Set(0, 0, color.White)
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
}

func setupMediaDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	require.NoError(t, os.MkdirAll(filepath.Join(dir, "trip", "day1"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, ".hidden"), 0o755))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "trip", "day1", "eiffel.jpg"), gpsJPEG(48.8582, 2.2945), 0o644))
	writePNG(t, filepath.Join(dir, "trip", "screenshot.png"))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "clip.mp4"), []byte("not really a video"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".hidden", "secret.jpg"), gpsJPEG(1, 1), 0o644))
	return dir
}

func openCatalog(t *testing.T) *database.Database {
	t.Helper()
	db, err := database.New(context.Background(), filepath.Join(t.TempDir(), "catalog.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestIndexCatalogsMediaFiles(t *testing.T) {
	dir := setupMediaDir(t)
	db := openCatalog(t)
	idx := New(db, dir, 0, 2)

	result, err := idx.Index(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), result.Files)
	assert.Equal(t, int64(1), result.Located)

	photo, err := db.LookupAsset(context.Background(), "trip/day1/eiffel.jpg")
	require.NoError(t, err)
	require.True(t, photo.HasLocation())
	assert.InDelta(t, 48.8582, *photo.Latitude, 1e-4)
	assert.InDelta(t, 2.2945, *photo.Longitude, 1e-4)
	assert.Equal(t, database.MediaTypeImage, photo.MediaType)

	shot, err := db.LookupAsset(context.Background(), "trip/screenshot.png")
	require.NoError(t, err)
	assert.False(t, shot.HasLocation())

	clip, err := db.LookupAsset(context.Background(), "clip.mp4")
	require.NoError(t, err)
	assert.Equal(t, database.MediaTypeVideo, clip.MediaType)

	_, err = db.LookupAsset(context.Background(), "notes.txt")
	assert.ErrorIs(t, err, database.ErrAssetNotFound)
	_, err = db.LookupAsset(context.Background(), ".hidden/secret.jpg")
	assert.ErrorIs(t, err, database.ErrAssetNotFound)

	status := idx.Status()
	assert.True(t, status.Ready)
	assert.False(t, status.Indexing)
	assert.Equal(t, int64(3), status.LastRun.Files)
}

func TestIndexRemovesVanishedFiles(t *testing.T) {
	dir := setupMediaDir(t)
	db := openCatalog(t)
	idx := New(db, dir, 0, 1)

	_, err := idx.Index(context.Background())
	require.NoError(t, err)

	require.NoError(t, os.Remove(filepath.Join(dir, "clip.mp4")))
	// indexed_at has second resolution
	time.Sleep(1100 * time.Millisecond)

	result, err := idx.Index(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), result.Removed)

	_, err = db.LookupAsset(context.Background(), "clip.mp4")
	assert.ErrorIs(t, err, database.ErrAssetNotFound)
}

func TestIndexMissingMediaDir(t *testing.T) {
	db := openCatalog(t)
	idx := New(db, filepath.Join(t.TempDir(), "nope"), 0, 1)

	_, err := idx.Index(context.Background())
	require.Error(t, err)
	assert.NotEmpty(t, idx.Status().LastError)
	assert.False(t, idx.Status().Ready)
}

// blockingCatalog holds the first upsert until released.
type blockingCatalog struct {
	once    sync.Once
	entered chan struct{}
	release chan struct{}
}

func (b *blockingCatalog) UpsertAsset(_ context.Context, _ database.Asset) error {
	b.once.Do(func() {
		close(b.entered)
		<-b.release
	})
	return nil
}

func (b *blockingCatalog) DeleteAssetsIndexedBefore(_ context.Context, _ time.Time) (int64, error) {
	return 0, nil
}

func TestIndexRejectsConcurrentRun(t *testing.T) {
	dir := setupMediaDir(t)
	cat := &blockingCatalog{entered: make(chan struct{}), release: make(chan struct{})}
	idx := New(cat, dir, 0, 1)

	done := make(chan error, 1)
	go func() {
		_, err := idx.Index(context.Background())
		done <- err
	}()
	<-cat.entered

	assert.True(t, idx.Status().Indexing)
	_, err := idx.Index(context.Background())
	assert.ErrorIs(t, err, ErrIndexInProgress)

	close(cat.release)
	require.NoError(t, <-done)
}

func TestStartStop(t *testing.T) {
	dir := setupMediaDir(t)
	db := openCatalog(t)
	idx := New(db, dir, time.Hour, 2)

	idx.Start()
	require.Eventually(t, func() bool { return idx.Status().Ready }, 5*time.Second, 10*time.Millisecond)
	idx.Stop()
	idx.Stop()

	stats, err := db.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, stats.TotalAssets)
	assert.Equal(t, 1, stats.LocatedAssets)
}
