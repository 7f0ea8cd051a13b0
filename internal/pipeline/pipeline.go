package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"snapspot/internal/assets"
	"snapspot/internal/geo"
	"snapspot/internal/logging"
	"snapspot/internal/metrics"
	"snapspot/internal/session"
	"snapspot/internal/suggestions"
)

// DefaultSuggestionWait bounds how long Suggestions waits on the prefetch.
const DefaultSuggestionWait = 1500 * time.Millisecond

// Source tells a consumer how suggestions were obtained.
type Source string

const (
	SourceCache Source = "cache"
	SourceLive  Source = "live"
)

// Resolver finds a location for a photo.
type Resolver interface {
	Resolve(ctx context.Context, photoRef string, override *geo.Location) (geo.Location, error)
}

// Previewer renders a preview file for a photo.
type Previewer interface {
	Render(ctx context.Context, photoRef string) (string, error)
}

// Janitor is the teardown hook for temporary files.
type Janitor interface {
	Stop() (int, error)
}

// Config wires a Context. Tracker, Cache, Resolver and Prefetcher are
// required; Previewer and Janitor are optional.
type Config struct {
	Tracker        *session.Tracker
	Cache          *suggestions.Cache
	Resolver       Resolver
	Prefetcher     *suggestions.Prefetcher
	Previewer      Previewer
	Janitor        Janitor
	SuggestionWait time.Duration
}

// Selection is what SelectPhoto reports back to the caller.
type Selection struct {
	Session  session.PhotoSession `json:"session"`
	Location *geo.Location        `json:"location"`
	Preview  string               `json:"-"`
}

// committed is the location slot of the Active session.
type committed struct {
	sessionID string
	photoRef  string
	location  *geo.Location
	preview   string
}

// Context owns the pipeline's shared state.
type Context struct {
	tracker    *session.Tracker
	cache      *suggestions.Cache
	resolver   Resolver
	prefetcher *suggestions.Prefetcher
	previewer  Previewer
	janitor    Janitor
	wait       time.Duration

	mu   sync.Mutex
	slot committed

	closeOnce sync.Once
}

// New validates cfg and builds a Context.
func New(cfg Config) (*Context, error) {
	switch {
	case cfg.Tracker == nil:
		return nil, errors.New("pipeline: tracker is required")
	case cfg.Cache == nil:
		return nil, errors.New("pipeline: cache is required")
	case cfg.Resolver == nil:
		return nil, errors.New("pipeline: resolver is required")
	case cfg.Prefetcher == nil:
		return nil, errors.New("pipeline: prefetcher is required")
	}
	if cfg.SuggestionWait <= 0 {
		cfg.SuggestionWait = DefaultSuggestionWait
	}
	return &Context{
		tracker:    cfg.Tracker,
		cache:      cfg.Cache,
		resolver:   cfg.Resolver,
		prefetcher: cfg.Prefetcher,
		previewer:  cfg.Previewer,
		janitor:    cfg.Janitor,
		wait:       cfg.SuggestionWait,
	}, nil
}

// BeginSession supersedes the Active session and evicts its cache entry.
func (c *Context) BeginSession(photoRef string) session.Token {
	token := c.tracker.Begin(photoRef)
	c.cache.EvictExcept(token.ID())

	c.mu.Lock()
	c.slot = committed{sessionID: token.ID(), photoRef: photoRef}
	c.mu.Unlock()

	return token
}

// SelectPhoto runs the whole pipeline for a newly selected photo. A photo
// without any location is not an error; the selection just carries a nil
// Location and no prefetch is started. If another selection supersedes
// this one mid-way, geo.ErrStaleResult is returned and nothing is committed.
// A reference outside the media root fails with assets.ErrInvalidRef before
// any session starts.
func (c *Context) SelectPhoto(ctx context.Context, photoRef string, override *geo.Location) (Selection, error) {
	if err := assets.ValidateRef(photoRef); err != nil {
		return Selection{}, err
	}
	token := c.BeginSession(photoRef)

	sel := Selection{}
	if s, ok := c.tracker.Session(token.ID()); ok {
		sel.Session = s
	}

	loc, err := c.resolver.Resolve(ctx, photoRef, override)
	switch {
	case err == nil:
	case errors.Is(err, geo.ErrNoLocation):
		logging.Info("No location for %s, suggestions will need manual entry", photoRef)
	default:
		return sel, fmt.Errorf("resolve %s: %w", photoRef, err)
	}

	if err == nil {
		if !c.commitLocation(token, loc) {
			logging.Debug("Dropping location for superseded session %s", token.ID())
			return sel, geo.ErrStaleResult
		}
		sel.Location = &loc
		c.prefetcher.Prefetch(token, loc)
	}

	if c.previewer != nil {
		if path, perr := c.previewer.Render(ctx, photoRef); perr != nil {
			logging.Warn("Preview for %s failed: %v", photoRef, perr)
		} else if c.commitPreview(token, path) {
			sel.Preview = path
		}
	}

	if !token.Valid() {
		return sel, geo.ErrStaleResult
	}
	if s, ok := c.tracker.Session(token.ID()); ok {
		sel.Session = s
	}
	return sel, nil
}

func (c *Context) commitLocation(token session.Token, loc geo.Location) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !token.Valid() || c.slot.sessionID != token.ID() {
		return false
	}
	c.slot.location = &loc
	return true
}

func (c *Context) commitPreview(token session.Token, path string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !token.Valid() || c.slot.sessionID != token.ID() {
		return false
	}
	c.slot.preview = path
	return true
}

// Current returns the Active session.
func (c *Context) Current() (session.PhotoSession, bool) {
	return c.tracker.Current()
}

// Session returns the Active session or the one it replaced.
func (c *Context) Session(id string) (session.PhotoSession, bool) {
	return c.tracker.Session(id)
}

// Location returns the committed location of sessionID. It fails with
// geo.ErrStaleResult for a superseded session and geo.ErrNoLocation when
// resolution found nothing.
func (c *Context) Location(sessionID string) (geo.Location, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.tracker.IsCurrent(sessionID) || c.slot.sessionID != sessionID {
		return geo.Location{}, geo.ErrStaleResult
	}
	if c.slot.location == nil {
		return geo.Location{}, geo.ErrNoLocation
	}
	return *c.slot.location, nil
}

// PreviewPath returns the preview written for sessionID.
func (c *Context) PreviewPath(sessionID string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.tracker.IsCurrent(sessionID) || c.slot.sessionID != sessionID {
		return "", geo.ErrStaleResult
	}
	if c.slot.preview == "" {
		return "", geo.ErrNotFound
	}
	return c.slot.preview, nil
}

// Suggestions returns the places for sessionID, consuming the prefetched
// result if it arrives within wait (zero uses the configured default) and
// searching synchronously otherwise. A result whose session was superseded
// in the meantime is never returned.
func (c *Context) Suggestions(ctx context.Context, sessionID string, wait time.Duration) (suggestions.Result, Source, error) {
	loc, err := c.Location(sessionID)
	if err != nil {
		if errors.Is(err, geo.ErrStaleResult) {
			metrics.SuggestionReads.WithLabelValues("stale").Inc()
		}
		return suggestions.Result{}, "", err
	}

	if wait <= 0 {
		wait = c.wait
	}
	waitCtx, cancel := context.WithTimeout(ctx, wait)
	_, werr := c.cache.Wait(waitCtx, sessionID)
	cancel()

	switch {
	case werr == nil:
		if r, ok := c.cache.Take(sessionID); ok {
			metrics.SuggestionReads.WithLabelValues("cache").Inc()
			return r, SourceCache, nil
		}
		// consumed by a concurrent reader or superseded; fall through to live
	case errors.Is(werr, geo.ErrStaleResult):
		metrics.SuggestionReads.WithLabelValues("stale").Inc()
		return suggestions.Result{}, "", geo.ErrStaleResult
	case ctx.Err() != nil:
		return suggestions.Result{}, "", ctx.Err()
	default:
		logging.Debug("Prefetch for session %s not ready after %v, searching live", sessionID, wait)
	}

	r, err := c.prefetcher.Fetch(ctx, sessionID, loc)
	if err != nil {
		metrics.SuggestionReads.WithLabelValues("unavailable").Inc()
		return suggestions.Result{}, "", err
	}
	if !c.tracker.IsCurrent(sessionID) {
		metrics.SuggestionReads.WithLabelValues("stale").Inc()
		logging.Debug("Discarding live suggestions for superseded session %s", sessionID)
		return suggestions.Result{}, "", geo.ErrStaleResult
	}
	metrics.SuggestionReads.WithLabelValues("live").Inc()
	return r, SourceLive, nil
}

// Close drains background prefetches, runs the janitor's final sweep and
// clears the cache. It is safe to call more than once.
func (c *Context) Close() error {
	var err error
	c.closeOnce.Do(func() {
		logging.Info("Waiting for suggestion prefetches to finish...")
		c.prefetcher.Wait()

		if c.janitor != nil {
			removed, jerr := c.janitor.Stop()
			if jerr != nil {
				err = fmt.Errorf("final sweep: %w", jerr)
			}
			logging.Info("Removed %d temporary files at shutdown", removed)
		}

		c.cache.Clear()
	})
	return err
}
