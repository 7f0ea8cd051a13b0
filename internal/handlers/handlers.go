package handlers

import (
	"context"
	"time"

	"snapspot/internal/device"
	"snapspot/internal/geo"
	"snapspot/internal/indexer"
	"snapspot/internal/pipeline"
	"snapspot/internal/session"
	"snapspot/internal/suggestions"
)

// Pipeline is the session-scoped location pipeline.
type Pipeline interface {
	SelectPhoto(ctx context.Context, photoRef string, override *geo.Location) (pipeline.Selection, error)
	Current() (session.PhotoSession, bool)
	Location(sessionID string) (geo.Location, error)
	PreviewPath(sessionID string) (string, error)
	Suggestions(ctx context.Context, sessionID string, wait time.Duration) (suggestions.Result, pipeline.Source, error)
}

// Indexer keeps the asset catalog current.
type Indexer interface {
	Status() indexer.Status
	Index(ctx context.Context) (indexer.RunResult, error)
}

// Sweeper removes stale temporary files.
type Sweeper interface {
	Sweep(maxAge time.Duration) (int, error)
}

// FixPublisher accepts device fixes from the host.
type FixPublisher interface {
	Publish(fix device.Fix) int
}

// Options wires Handlers. Indexer, Sweeper and Fixes may be nil; the
// matching endpoints then report the feature as unavailable.
type Options struct {
	Pipeline   Pipeline
	Indexer    Indexer
	Sweeper    Sweeper
	Fixes      FixPublisher
	TempMaxAge time.Duration
	StartedAt  time.Time
}

// Handlers serves the HTTP API.
type Handlers struct {
	pipeline   Pipeline
	indexer    Indexer
	sweeper    Sweeper
	fixes      FixPublisher
	tempMaxAge time.Duration
	startedAt  time.Time
}

// New creates Handlers from opts.
func New(opts Options) *Handlers {
	if opts.StartedAt.IsZero() {
		opts.StartedAt = time.Now()
	}
	return &Handlers{
		pipeline:   opts.Pipeline,
		indexer:    opts.Indexer,
		sweeper:    opts.Sweeper,
		fixes:      opts.Fixes,
		tempMaxAge: opts.TempMaxAge,
		startedAt:  opts.StartedAt,
	}
}
