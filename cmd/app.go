package cmd

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"snapspot/internal/assets"
	"snapspot/internal/database"
	"snapspot/internal/device"
	"snapspot/internal/indexer"
	"snapspot/internal/janitor"
	"snapspot/internal/logging"
	"snapspot/internal/media"
	"snapspot/internal/memory"
	"snapspot/internal/metrics"
	"snapspot/internal/pipeline"
	"snapspot/internal/places"
	"snapspot/internal/resolver"
	"snapspot/internal/retry"
	"snapspot/internal/session"
	"snapspot/internal/startup"
	"snapspot/internal/suggestions"
)

// app holds every wired component. Commands build one with newApp and
// release it with close.
type app struct {
	cfg *startup.Config

	db        *database.Database
	indexer   *indexer.Indexer
	janitor   *janitor.Janitor
	feed      *device.FeedSensor // nil when the position is fixed by config
	previews  *media.Previewer   // nil when previews are disabled
	memory    *memory.Monitor
	pipeline  *pipeline.Context
	collector *metrics.Collector
}

// rootedPreviewer renders previews for photo references relative to the
// media directory.
type rootedPreviewer struct {
	root string
	p    *media.Previewer
}

func (r rootedPreviewer) Render(ctx context.Context, photoRef string) (string, error) {
	path, err := assets.ResolvePath(r.root, photoRef)
	if err != nil {
		return "", err
	}
	return r.p.Render(ctx, path)
}

func newApp(ctx context.Context, cfg *startup.Config) (*app, error) {
	metrics.InitializeMetrics()
	memory.Configure(cfg.MemoryLimit, cfg.MemoryRatio)

	dbStart := time.Now()
	db, err := database.New(ctx, cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("initialize database: %w", err)
	}
	startup.LogDatabaseInit(time.Since(dbStart))

	a := &app{
		cfg:     cfg,
		db:      db,
		janitor: janitor.New(janitor.WithMaxAge(cfg.TempMaxAge)),
		indexer: indexer.New(db, cfg.MediaDir, cfg.IndexInterval, cfg.IndexWorkers),
		memory:  memory.NewMonitor(memory.DefaultConfig()),
	}

	extractor := assets.NewExtractor(
		assets.NewCatalogSource(db),
		assets.NewExifReader(cfg.MediaDir),
		retry.Policy{
			MaxAttempts: cfg.AssetMaxAttempts,
			Backoff:     retry.Linear(cfg.AssetBackoffStep, 0),
			Observer:    metrics.NewRetryObserver(),
		},
	)

	var sensor device.Sensor
	deviceMode := "host feed (POST /api/device/fix)"
	if cfg.HasDeviceFix() {
		sensor = device.StaticSensor{Fix: device.Fix{
			Latitude:  *cfg.DeviceLatitude,
			Longitude: *cfg.DeviceLongitude,
		}}
		deviceMode = fmt.Sprintf("fixed at %.5f,%.5f", *cfg.DeviceLatitude, *cfg.DeviceLongitude)
	} else {
		a.feed = device.NewFeedSensor()
		sensor = a.feed
	}

	res := resolver.New(extractor, device.NewProvider(sensor), cfg.DeviceTimeout)

	var search suggestions.Searcher
	if cfg.PlacesAPIKey != "" {
		search = places.NewClient(places.Config{
			BaseURL:      cfg.PlacesBaseURL,
			APIKey:       cfg.PlacesAPIKey,
			RadiusMeters: cfg.PlacesRadiusMeters,
			Keyword:      cfg.PlacesKeyword,
			MaxResults:   cfg.PlacesMaxResults,
			RateLimit:    cfg.PlacesRateLimit,
		})
	}

	tracker := session.NewTracker()
	cache := suggestions.NewCache(tracker)

	pcfg := pipeline.Config{
		Tracker:        tracker,
		Cache:          cache,
		Resolver:       res,
		Prefetcher:     suggestions.NewPrefetcher(search, cache, cfg.PrefetchTimeout),
		Janitor:        a.janitor,
		SuggestionWait: cfg.SuggestionWait,
	}

	useVips := false
	if cfg.PreviewsEnabled {
		if cfg.VipsEnabled {
			if err := media.InitVips(); err != nil {
				logging.Warn("libvips unavailable, using pure Go decoder: %v", err)
			} else {
				useVips = true
			}
		}
		a.previews, err = media.NewPreviewer(cfg.PreviewDir, cfg.PreviewSize, useVips, a.janitor)
		if err != nil {
			_ = db.Close()
			return nil, err
		}
		a.previews.SetGate(a.memory)
		pcfg.Previewer = rootedPreviewer{root: cfg.MediaDir, p: a.previews}
		adoptTempFiles(cfg.PreviewDir, a.janitor)
	}
	startup.LogPreviewInit(cfg.PreviewsEnabled, useVips)

	a.pipeline, err = pipeline.New(pcfg)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	startup.LogPipelineInit(startup.PipelineInfo{
		DeviceMode:      deviceMode,
		PlaceSearch:     search != nil,
		DeviceTimeout:   cfg.DeviceTimeout,
		PrefetchTimeout: cfg.PrefetchTimeout,
		SweepInterval:   cfg.SweepInterval,
		TempMaxAge:      cfg.TempMaxAge,
	})

	a.collector = metrics.NewCollector(metrics.StatsProviderFunc(a.stats), time.Minute)
	return a, nil
}

// stats feeds the metrics collector.
func (a *app) stats() metrics.Stats {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	s := metrics.Stats{TrackedResources: len(a.janitor.Tracked())}
	cs, err := a.db.Stats(ctx)
	if err != nil {
		logging.Debug("Catalog stats unavailable: %v", err)
		return s
	}
	s.TotalAssets = cs.TotalAssets
	s.LocatedAssets = cs.LocatedAssets
	return s
}

// adoptTempFiles registers files left in dir by a previous run so the
// janitor ages them out. Partial writes are removed outright.
func adoptTempFiles(dir string, j *janitor.Janitor) int {
	adopted := 0
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if strings.HasSuffix(path, ".part") {
			_ = os.Remove(path)
			return nil
		}
		j.Track(path)
		adopted++
		return nil
	})
	if err != nil && !os.IsNotExist(err) {
		logging.Warn("Scanning temp dir %s: %v", dir, err)
	}
	if adopted > 0 {
		logging.Info("  Adopted %d temp files from a previous run", adopted)
	}
	return adopted
}

// close tears the pipeline down (final janitor sweep included) and closes
// the database. It is safe to call once per app.
func (a *app) close() {
	startup.LogShutdownStep("Draining suggestion prefetches")
	if err := a.pipeline.Close(); err != nil {
		logging.Warn("Pipeline shutdown: %v", err)
	}
	startup.LogShutdownStepComplete("Pipeline closed")

	if a.previews != nil && media.IsVipsAvailable() {
		media.ShutdownVips()
	}

	startup.LogShutdownStep("Closing database")
	if err := a.db.Close(); err != nil {
		logging.Warn("Database close: %v", err)
	}
	startup.LogShutdownStepComplete("Database closed")
}
