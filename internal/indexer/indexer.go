package indexer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"snapspot/internal/database"
	"snapspot/internal/logging"
	"snapspot/internal/metrics"
	"snapspot/internal/workers"
)

// maxWorkers caps the EXIF reader pool, including an operator override.
const maxWorkers = 32

// ErrIndexInProgress is returned by Index when a run is already active.
var ErrIndexInProgress = errors.New("index already in progress")

// Catalog is the storage the indexer writes to.
type Catalog interface {
	UpsertAsset(ctx context.Context, asset database.Asset) error
	DeleteAssetsIndexedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// Indexer manages indexing of the media directory into the catalog.
type Indexer struct {
	catalog       Catalog
	mediaDir      string
	indexInterval time.Duration
	config        ParallelWalkerConfig

	stopOnce sync.Once
	stopChan chan struct{}
	wg       sync.WaitGroup

	mu         sync.Mutex
	isIndexing bool
	lastRun    RunResult
	lastErr    error
	ready      bool
}

// RunResult summarizes one indexing run.
type RunResult struct {
	StartedAt time.Time     `json:"startedAt"`
	Duration  time.Duration `json:"duration"`
	Files     int64         `json:"files"`
	Located   int64         `json:"located"`
	Errors    int64         `json:"errors"`
	Removed   int64         `json:"removed"`
}

// Status is reported by the health endpoint.
type Status struct {
	Ready      bool      `json:"ready"`
	Indexing   bool      `json:"indexing"`
	LastRun    RunResult `json:"lastRun"`
	LastError  string    `json:"lastError,omitempty"`
	MediaDir   string    `json:"mediaDir"`
	IntervalMS int64     `json:"intervalMs"`
}

// New creates an indexer. A non-positive numWorkers uses the default pool
// size; a non-positive interval disables periodic runs.
func New(catalog Catalog, mediaDir string, indexInterval time.Duration, numWorkers int) *Indexer {
	config := DefaultParallelWalkerConfig()
	config.NumWorkers = workers.Count(numWorkers, 2.0, maxWorkers)
	return &Indexer{
		catalog:       catalog,
		mediaDir:      mediaDir,
		indexInterval: indexInterval,
		config:        config,
		stopChan:      make(chan struct{}),
	}
}

// Start runs an initial index in the background and schedules periodic runs.
func (idx *Indexer) Start() {
	idx.wg.Add(1)
	go func() {
		defer idx.wg.Done()

		logging.Info("Starting initial index in background...")
		idx.runLogged()

		if idx.indexInterval <= 0 {
			return
		}

		ticker := time.NewTicker(idx.indexInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				idx.runLogged()
			case <-idx.stopChan:
				logging.Info("Periodic indexing stopped")
				return
			}
		}
	}()
}

// Stop cancels a running index and waits for the background loop to exit.
func (idx *Indexer) Stop() {
	idx.stopOnce.Do(func() { close(idx.stopChan) })
	idx.wg.Wait()
}

func (idx *Indexer) runLogged() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		select {
		case <-idx.stopChan:
			cancel()
		case <-ctx.Done():
		}
	}()

	if _, err := idx.Index(ctx); err != nil && !errors.Is(err, ErrIndexInProgress) && !errors.Is(err, context.Canceled) {
		logging.Error("Index error: %v", err)
	}
}

// Index performs one full run and returns its summary.
func (idx *Indexer) Index(ctx context.Context) (RunResult, error) {
	if !idx.tryStartIndexing() {
		logging.Info("Index already in progress, skipping...")
		return RunResult{}, ErrIndexInProgress
	}

	metrics.IndexerIsRunning.Set(1)
	defer metrics.IndexerIsRunning.Set(0)
	metrics.IndexerRunsTotal.Inc()

	start := time.Now()
	result := RunResult{StartedAt: start}
	logging.Info("Starting file indexing of %s...", idx.mediaDir)

	err := idx.run(ctx, start, &result)
	result.Duration = time.Since(start)
	idx.finishIndexing(result, err)

	if err != nil {
		metrics.IndexerErrors.Inc()
		return result, err
	}

	metrics.IndexerLastRunDuration.Set(result.Duration.Seconds())
	metrics.IndexerFilesProcessed.Add(float64(result.Files))
	logging.Info("Indexing complete: %d files (%d located, %d errors, %d removed) in %v",
		result.Files, result.Located, result.Errors, result.Removed, result.Duration.Round(time.Millisecond))
	return result, nil
}

func (idx *Indexer) run(ctx context.Context, start time.Time, result *RunResult) error {
	if _, err := os.Stat(idx.mediaDir); err != nil {
		return fmt.Errorf("media directory: %w", err)
	}

	var (
		upsertMu  sync.Mutex
		upsertErr error
	)
	walker := NewParallelWalker(idx.mediaDir, idx.config)
	walkErr := walker.Walk(ctx, func(asset database.Asset) {
		asset.IndexedAt = start
		if err := idx.catalog.UpsertAsset(ctx, asset); err != nil {
			upsertMu.Lock()
			if upsertErr == nil {
				upsertErr = err
			}
			upsertMu.Unlock()
		}
	})

	result.Files, result.Located, result.Errors = walker.Stats()

	if walkErr != nil {
		return fmt.Errorf("walk: %w", walkErr)
	}
	if upsertErr != nil {
		// leave stale rows in place rather than deleting what failed to refresh
		return upsertErr
	}

	removed, err := idx.catalog.DeleteAssetsIndexedBefore(ctx, start)
	if err != nil {
		return fmt.Errorf("remove missing assets: %w", err)
	}
	result.Removed = removed
	return nil
}

func (idx *Indexer) tryStartIndexing() bool {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if idx.isIndexing {
		return false
	}
	idx.isIndexing = true
	return true
}

func (idx *Indexer) finishIndexing(result RunResult, err error) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	idx.isIndexing = false
	idx.lastRun = result
	idx.lastErr = err
	if err == nil {
		idx.ready = true
	}
}

// Status returns a snapshot for health reporting.
func (idx *Indexer) Status() Status {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	s := Status{
		Ready:      idx.ready,
		Indexing:   idx.isIndexing,
		LastRun:    idx.lastRun,
		MediaDir:   idx.mediaDir,
		IntervalMS: idx.indexInterval.Milliseconds(),
	}
	if idx.lastErr != nil {
		s.LastError = idx.lastErr.Error()
	}
	return s
}
