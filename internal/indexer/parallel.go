package indexer

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"snapspot/internal/assets"
	"snapspot/internal/database"
	"snapspot/internal/geo"
	"snapspot/internal/logging"
	"snapspot/internal/media"
	"snapspot/internal/workers"
)

// ParallelWalkerConfig configures the parallel directory walker.
type ParallelWalkerConfig struct {
	// NumWorkers is the number of file readers (0 = workers.ForIO default)
	NumWorkers    int
	ChannelBuffer int
	SkipHidden    bool
}

// DefaultParallelWalkerConfig sizes the pool for I/O-bound EXIF reads.
func DefaultParallelWalkerConfig() ParallelWalkerConfig {
	return ParallelWalkerConfig{
		NumWorkers:    workers.ForIO(8),
		ChannelBuffer: 256,
		SkipHidden:    true,
	}
}

type fileJob struct {
	path    string
	relPath string
	modTime time.Time
}

// ParallelWalker walks the media tree and reads asset metadata concurrently.
type ParallelWalker struct {
	config   ParallelWalkerConfig
	mediaDir string

	jobs chan fileJob
	wg   sync.WaitGroup

	filesProcessed atomic.Int64
	located        atomic.Int64
	errorsCount    atomic.Int64
}

// NewParallelWalker creates a walker over mediaDir.
func NewParallelWalker(mediaDir string, config ParallelWalkerConfig) *ParallelWalker {
	if config.NumWorkers <= 0 {
		config.NumWorkers = workers.ForIO(8)
	}
	if config.ChannelBuffer <= 0 {
		config.ChannelBuffer = 256
	}
	return &ParallelWalker{
		config:   config,
		mediaDir: mediaDir,
		jobs:     make(chan fileJob, config.ChannelBuffer),
	}
}

// Walk reads every media file under the root and hands the resulting asset
// to emit. emit is called from worker goroutines and must be safe for
// concurrent use.
func (pw *ParallelWalker) Walk(ctx context.Context, emit func(database.Asset)) error {
	logging.Debug("Starting parallel walk of %s with %d workers", pw.mediaDir, pw.config.NumWorkers)

	for i := 0; i < pw.config.NumWorkers; i++ {
		pw.wg.Add(1)
		go pw.worker(ctx, emit)
	}

	err := pw.walkAndEnqueue(ctx)
	close(pw.jobs)
	pw.wg.Wait()

	if err != nil && !errors.Is(err, fs.SkipAll) {
		return err
	}
	return ctx.Err()
}

// Stats returns files processed, files with a location and read errors.
func (pw *ParallelWalker) Stats() (files, located, errs int64) {
	return pw.filesProcessed.Load(), pw.located.Load(), pw.errorsCount.Load()
}

func (pw *ParallelWalker) walkAndEnqueue(ctx context.Context) error {
	return filepath.WalkDir(pw.mediaDir, func(path string, d fs.DirEntry, err error) error {
		if ctx.Err() != nil {
			return fs.SkipAll
		}
		if err != nil {
			logging.Warn("Error accessing path %s: %v", path, err)
			return nil
		}

		if pw.config.SkipHidden && strings.HasPrefix(d.Name(), ".") && path != pw.mediaDir {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || media.GetFileType(path) == media.FileTypeOther {
			return nil
		}

		relPath, err := filepath.Rel(pw.mediaDir, path)
		if err != nil {
			//nolint:nilerr // skip this file, keep walking
			return nil
		}

		info, err := d.Info()
		if err != nil {
			pw.errorsCount.Add(1)
			//nolint:nilerr // file vanished between readdir and stat
			return nil
		}

		select {
		case pw.jobs <- fileJob{path: path, relPath: filepath.ToSlash(relPath), modTime: info.ModTime()}:
		case <-ctx.Done():
			return fs.SkipAll
		}
		return nil
	})
}

func (pw *ParallelWalker) worker(ctx context.Context, emit func(database.Asset)) {
	defer pw.wg.Done()

	for job := range pw.jobs {
		if ctx.Err() != nil {
			continue
		}
		asset := pw.readAsset(job)
		pw.filesProcessed.Add(1)
		if asset.HasLocation() {
			pw.located.Add(1)
		}
		emit(asset)
	}
}

// readAsset builds the catalog row for one file. Missing or unreadable EXIF
// leaves the location empty; it is not an error.
func (pw *ParallelWalker) readAsset(job fileJob) database.Asset {
	asset := database.Asset{
		ID:        job.relPath,
		Path:      job.path,
		MediaType: string(media.GetFileType(job.path)),
		ModTime:   job.modTime,
	}

	if !media.HasExif(job.path) {
		return asset
	}

	f, err := os.Open(job.path)
	if err != nil {
		pw.errorsCount.Add(1)
		logging.Debug("Cannot open %s: %v", job.relPath, err)
		return asset
	}
	defer f.Close()

	gps, err := assets.ReadExifLocation(f)
	if err != nil {
		if !errors.Is(err, geo.ErrNotFound) {
			pw.errorsCount.Add(1)
		}
		return asset
	}

	asset.Latitude = geo.Float(gps.Latitude)
	asset.Longitude = geo.Float(gps.Longitude)
	asset.Altitude = gps.Altitude
	asset.CapturedAt = gps.CapturedAt
	return asset
}
