// Package janitor removes temporary files the pipeline writes once they have
// gone unused for longer than a configured age.
package janitor

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	"snapspot/internal/logging"
	"snapspot/internal/metrics"

	"github.com/robfig/cron/v3"
)

const (
	// DefaultInterval is the sweep schedule when none is configured.
	DefaultInterval = 60 * time.Second
	// DefaultMaxAge is how long an untouched file survives by default.
	DefaultMaxAge = 5 * time.Minute
)

// Resource is a tracked temporary file.
type Resource struct {
	Path          string    `json:"path"`
	CreatedAt     time.Time `json:"createdAt"`
	LastTouchedAt time.Time `json:"lastTouchedAt"`
}

// Janitor keeps the registry of temporary files and sweeps it.
type Janitor struct {
	mu        sync.Mutex
	resources map[string]*Resource
	now       func() time.Time

	schedMu sync.Mutex
	sched   *cron.Cron
	maxAge  time.Duration
}

// Option customizes a Janitor.
type Option func(*Janitor)

// WithClock overrides the time source used for touches and age checks.
func WithClock(now func() time.Time) Option {
	return func(j *Janitor) { j.now = now }
}

// WithMaxAge sets the age used by scheduled sweeps and the final sweep in
// Stop. Non-positive values keep DefaultMaxAge.
func WithMaxAge(maxAge time.Duration) Option {
	return func(j *Janitor) {
		if maxAge > 0 {
			j.maxAge = maxAge
		}
	}
}

// New creates a janitor with an empty registry.
func New(opts ...Option) *Janitor {
	j := &Janitor{
		resources: make(map[string]*Resource),
		now:       time.Now,
		maxAge:    DefaultMaxAge,
	}
	for _, opt := range opts {
		opt(j)
	}
	return j
}

// Track registers path. Tracking a path that is already registered touches
// it, which resets both its LastTouchedAt and the file's modification time.
func (j *Janitor) Track(path string) Resource {
	now := j.now()

	j.mu.Lock()
	defer j.mu.Unlock()

	if r, ok := j.resources[path]; ok {
		r.LastTouchedAt = now
		if err := os.Chtimes(path, now, now); err != nil && !os.IsNotExist(err) {
			logging.Debug("Touching %s: %v", path, err)
		}
		return *r
	}

	r := &Resource{Path: path, CreatedAt: now, LastTouchedAt: now}
	j.resources[path] = r
	metrics.JanitorTrackedResources.Set(float64(len(j.resources)))
	return *r
}

// Untrack forgets path without touching the file.
func (j *Janitor) Untrack(path string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	delete(j.resources, path)
	metrics.JanitorTrackedResources.Set(float64(len(j.resources)))
}

// Tracked returns the registered resources sorted by path.
func (j *Janitor) Tracked() []Resource {
	j.mu.Lock()
	out := make([]Resource, 0, len(j.resources))
	for _, r := range j.resources {
		out = append(out, *r)
	}
	j.mu.Unlock()

	sort.Slice(out, func(a, b int) bool { return out[a].Path < out[b].Path })
	return out
}

// Sweep deletes tracked files whose modification time is older than maxAge
// and that were not touched while the sweep ran. Files that are already
// gone are untracked silently and not counted. It returns the number of
// files removed; per-file failures are joined into the error and the sweep
// carries on.
func (j *Janitor) Sweep(maxAge time.Duration) (int, error) {
	start := time.Now()
	defer func() {
		metrics.JanitorSweepDuration.Observe(time.Since(start).Seconds())
	}()

	snapshot := j.Tracked()
	now := j.now()

	removed := 0
	var errs []error
	for _, snap := range snapshot {
		info, err := os.Stat(snap.Path)
		if err != nil {
			if os.IsNotExist(err) {
				j.untrackIfUntouched(snap)
				continue
			}
			errs = append(errs, fmt.Errorf("stat %s: %w", snap.Path, err))
			continue
		}

		if now.Sub(info.ModTime()) <= maxAge {
			continue
		}

		ok, err := j.removeIfUntouched(snap)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if ok {
			removed++
		}
	}

	if removed > 0 {
		metrics.JanitorRemovedTotal.Add(float64(removed))
		logging.Debug("Janitor removed %d temporary files", removed)
	}
	if len(errs) > 0 {
		metrics.JanitorSweepErrors.Add(float64(len(errs)))
		return removed, errors.Join(errs...)
	}
	return removed, nil
}

// removeIfUntouched deletes snap's file unless the entry changed since the
// snapshot. The registry lock is held across the delete so a concurrent
// Track cannot slip in between the check and the removal.
func (j *Janitor) removeIfUntouched(snap Resource) (bool, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	cur, ok := j.resources[snap.Path]
	if !ok || !cur.LastTouchedAt.Equal(snap.LastTouchedAt) {
		return false, nil
	}

	if err := os.Remove(snap.Path); err != nil {
		if os.IsNotExist(err) {
			delete(j.resources, snap.Path)
			metrics.JanitorTrackedResources.Set(float64(len(j.resources)))
			return false, nil
		}
		return false, fmt.Errorf("remove %s: %w", snap.Path, err)
	}

	delete(j.resources, snap.Path)
	metrics.JanitorTrackedResources.Set(float64(len(j.resources)))
	return true, nil
}

func (j *Janitor) untrackIfUntouched(snap Resource) {
	j.mu.Lock()
	defer j.mu.Unlock()

	if cur, ok := j.resources[snap.Path]; ok && cur.LastTouchedAt.Equal(snap.LastTouchedAt) {
		delete(j.resources, snap.Path)
		metrics.JanitorTrackedResources.Set(float64(len(j.resources)))
	}
}

// Start schedules a sweep every interval using the configured max age.
// Calling Start twice is an error.
func (j *Janitor) Start(interval time.Duration) error {
	if interval <= 0 {
		interval = DefaultInterval
	}

	j.schedMu.Lock()
	defer j.schedMu.Unlock()

	if j.sched != nil {
		return errors.New("janitor already started")
	}

	maxAge := j.maxAge
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	if _, err := c.AddFunc("@every "+interval.String(), func() {
		if _, err := j.Sweep(maxAge); err != nil {
			logging.Warn("Janitor sweep: %v", err)
		}
	}); err != nil {
		return fmt.Errorf("schedule janitor sweep: %w", err)
	}

	j.sched = c
	c.Start()
	logging.Info("Janitor started (interval: %v, max age: %v)", interval, maxAge)
	return nil
}

// Stop cancels the schedule if one is running, waits for an in-progress
// sweep and sweeps once more. The final sweep runs even when Start was never
// called. It returns the number of files the final sweep removed.
func (j *Janitor) Stop() (int, error) {
	j.schedMu.Lock()
	c := j.sched
	maxAge := j.maxAge
	j.sched = nil
	j.schedMu.Unlock()

	if c != nil {
		<-c.Stop().Done()
	}
	removed, err := j.Sweep(maxAge)
	logging.Info("Janitor stopped, final sweep removed %d files", removed)
	return removed, err
}
