package suggestions

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"snapspot/internal/geo"
	"snapspot/internal/logging"
	"snapspot/internal/metrics"
	"snapspot/internal/places"
	"snapspot/internal/session"
)

// DefaultTimeout bounds one background prefetch.
const DefaultTimeout = 10 * time.Second

// Searcher finds places near a point.
type Searcher interface {
	Search(ctx context.Context, q places.Query) ([]geo.Place, error)
}

// Prefetcher runs place searches ahead of the consumer.
type Prefetcher struct {
	search  Searcher
	cache   *Cache
	timeout time.Duration
	now     func() time.Time

	wg sync.WaitGroup
}

// NewPrefetcher creates a prefetcher writing into cache. A non-positive
// timeout uses DefaultTimeout.
func NewPrefetcher(search Searcher, cache *Cache, timeout time.Duration) *Prefetcher {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Prefetcher{
		search:  search,
		cache:   cache,
		timeout: timeout,
		now:     time.Now,
	}
}

// Prefetch searches around loc in the background and commits the result
// for token's session if it is still Active when the search returns.
func (p *Prefetcher) Prefetch(token session.Token, loc geo.Location) {
	p.wg.Add(1)
	metrics.PrefetchInFlight.Inc()

	go func() {
		defer p.wg.Done()
		defer metrics.PrefetchInFlight.Dec()

		start := time.Now()
		ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
		defer cancel()

		r, err := p.Fetch(ctx, token.ID(), loc)
		metrics.PrefetchDuration.Observe(time.Since(start).Seconds())

		switch {
		case err != nil:
			metrics.PrefetchTotal.WithLabelValues("failed").Inc()
			logging.Warn("Suggestion prefetch for session %s failed: %v", token.ID(), err)
		case len(r.Places) == 0:
			metrics.PrefetchTotal.WithLabelValues("empty").Inc()
			logging.Debug("Suggestion prefetch for session %s found nothing", token.ID())
		case p.cache.Put(token, r):
			metrics.PrefetchTotal.WithLabelValues("committed").Inc()
			logging.Debug("Committed %d suggestions for session %s", len(r.Places), token.ID())
		default:
			metrics.PrefetchTotal.WithLabelValues("stale").Inc()
		}
	}()
}

// Fetch searches around loc synchronously. Nothing is cached.
func (p *Prefetcher) Fetch(ctx context.Context, sessionID string, loc geo.Location) (Result, error) {
	if p.search == nil {
		return Result{}, fmt.Errorf("no place search configured: %w", geo.ErrServiceUnavailable)
	}

	found, err := p.search.Search(ctx, places.Query{Latitude: loc.Latitude, Longitude: loc.Longitude})
	if err != nil {
		if errors.Is(err, geo.ErrServiceUnavailable) {
			return Result{}, err
		}
		return Result{}, fmt.Errorf("place search: %w", err)
	}

	return Result{
		SessionID: sessionID,
		Location:  loc,
		Places:    found,
		FetchedAt: p.now(),
	}, nil
}

// Wait blocks until all background prefetches have finished.
func (p *Prefetcher) Wait() {
	p.wg.Wait()
}
