package pipeline

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"snapspot/internal/assets"
	"snapspot/internal/geo"
	"snapspot/internal/places"
	"snapspot/internal/session"
	"snapspot/internal/suggestions"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mapResolver answers from a photoRef → location table. A photo listed in
// block waits for its channel before answering.
type mapResolver struct {
	locs  map[string]geo.Location
	block map[string]chan struct{}
}

func (r *mapResolver) Resolve(ctx context.Context, photoRef string, override *geo.Location) (geo.Location, error) {
	if override != nil {
		return override.WithSource(geo.SourceUserSelected), nil
	}
	if ch, ok := r.block[photoRef]; ok {
		select {
		case <-ch:
		case <-ctx.Done():
			return geo.Location{}, ctx.Err()
		}
	}
	loc, ok := r.locs[photoRef]
	if !ok {
		return geo.Location{}, geo.ErrNoLocation
	}
	return loc.WithSource(geo.SourceAssetMetadata), nil
}

// gatedSearch blocks searches at a latitude until its gate is opened.
type gatedSearch struct {
	mu      sync.Mutex
	gates   map[float64]chan struct{}
	calls   atomic.Int32
	started chan float64
	err     error
}

func newGatedSearch() *gatedSearch {
	return &gatedSearch{gates: make(map[float64]chan struct{}), started: make(chan float64, 16)}
}

func (g *gatedSearch) gate(lat float64) chan struct{} {
	g.mu.Lock()
	defer g.mu.Unlock()
	ch, ok := g.gates[lat]
	if !ok {
		ch = make(chan struct{})
		g.gates[lat] = ch
	}
	return ch
}

func (g *gatedSearch) open(lat float64) {
	close(g.gate(lat))
}

func (g *gatedSearch) Search(ctx context.Context, q places.Query) ([]geo.Place, error) {
	g.calls.Add(1)
	g.started <- q.Latitude
	select {
	case <-g.gate(q.Latitude):
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	if g.err != nil {
		return nil, g.err
	}
	return []geo.Place{{Name: fmt.Sprintf("place@%v", q.Latitude)}}, nil
}

type countingPreviewer struct{ calls atomic.Int32 }

func (p *countingPreviewer) Render(_ context.Context, photoRef string) (string, error) {
	p.calls.Add(1)
	return "/tmp/" + photoRef, nil
}

type fakeJanitor struct{ stops atomic.Int32 }

func (j *fakeJanitor) Stop() (int, error) {
	j.stops.Add(1)
	return 2, nil
}

type fixture struct {
	ctx     *Context
	tracker *session.Tracker
	cache   *suggestions.Cache
	search  *gatedSearch
	res     *mapResolver
	janitor *fakeJanitor
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	n := 0
	tracker := session.NewTracker(session.WithIDGenerator(func() string {
		n++
		return fmt.Sprintf("s%d", n)
	}))
	cache := suggestions.NewCache(tracker)
	search := newGatedSearch()
	res := &mapResolver{
		locs: map[string]geo.Location{
			"one.jpg": {Latitude: 1, Longitude: 1},
			"two.jpg": {Latitude: 2, Longitude: 2},
		},
		block: map[string]chan struct{}{},
	}
	j := &fakeJanitor{}

	pc, err := New(Config{
		Tracker:        tracker,
		Cache:          cache,
		Resolver:       res,
		Prefetcher:     suggestions.NewPrefetcher(search, cache, time.Second),
		Janitor:        j,
		SuggestionWait: 50 * time.Millisecond,
	})
	require.NoError(t, err)
	return &fixture{ctx: pc, tracker: tracker, cache: cache, search: search, res: res, janitor: j}
}

func TestSupersededPrefetchNeverReachesCache(t *testing.T) {
	f := newFixture(t)

	s1, err := f.ctx.SelectPhoto(context.Background(), "one.jpg", nil)
	require.NoError(t, err)
	<-f.search.started

	s2, err := f.ctx.SelectPhoto(context.Background(), "two.jpg", nil)
	require.NoError(t, err)
	<-f.search.started

	f.search.open(1)
	f.search.open(2)
	f.ctx.prefetcher.Wait()

	_, ok := f.cache.Get(s1.Session.ID)
	assert.False(t, ok)

	r, ok := f.cache.Get(s2.Session.ID)
	require.True(t, ok)
	assert.Equal(t, "place@2", r.Places[0].Name)

	_, err = f.ctx.Location(s1.Session.ID)
	assert.ErrorIs(t, err, geo.ErrStaleResult)
}

func TestBeginSessionTwice(t *testing.T) {
	f := newFixture(t)

	first := f.ctx.BeginSession("a.jpg")
	second := f.ctx.BeginSession("a.jpg")

	assert.False(t, first.Valid())
	assert.True(t, second.Valid())

	cur, ok := f.ctx.Current()
	require.True(t, ok)
	assert.Equal(t, second.ID(), cur.ID)

	prev, ok := f.ctx.Session(first.ID())
	require.True(t, ok)
	assert.Equal(t, session.StateSuperseded, prev.State)
}

func TestSuggestionsFromCacheThenLive(t *testing.T) {
	f := newFixture(t)

	sel, err := f.ctx.SelectPhoto(context.Background(), "one.jpg", nil)
	require.NoError(t, err)
	require.NotNil(t, sel.Location)
	assert.Equal(t, geo.SourceAssetMetadata, sel.Location.Source)
	<-f.search.started
	f.search.open(1)

	r, src, err := f.ctx.Suggestions(context.Background(), sel.Session.ID, time.Second)
	require.NoError(t, err)
	assert.Equal(t, SourceCache, src)
	assert.Equal(t, sel.Session.ID, r.SessionID)

	// the cached entry is consumed once; the next read searches live
	r, src, err = f.ctx.Suggestions(context.Background(), sel.Session.ID, 10*time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, SourceLive, src)
	assert.Equal(t, "place@1", r.Places[0].Name)
	assert.Equal(t, int32(2), f.search.calls.Load())
}

func TestSuggestionsFallsBackToLiveWhenPrefetchSlow(t *testing.T) {
	f := newFixture(t)

	sel, err := f.ctx.SelectPhoto(context.Background(), "two.jpg", nil)
	require.NoError(t, err)
	<-f.search.started

	done := make(chan struct{})
	var src Source
	go func() {
		defer close(done)
		_, src, err = f.ctx.Suggestions(context.Background(), sel.Session.ID, 20*time.Millisecond)
	}()

	// the live search starts after the wait expires; open the shared gate then
	<-f.search.started
	f.search.open(2)
	<-done

	require.NoError(t, err)
	assert.Equal(t, SourceLive, src)
	f.ctx.prefetcher.Wait()
}

func TestSuggestionsForSupersededSession(t *testing.T) {
	f := newFixture(t)

	old := f.ctx.BeginSession("one.jpg")
	f.ctx.BeginSession("two.jpg")

	_, _, err := f.ctx.Suggestions(context.Background(), old.ID(), time.Second)
	assert.ErrorIs(t, err, geo.ErrStaleResult)
}

func TestSuggestionsWithoutLocation(t *testing.T) {
	f := newFixture(t)

	sel, err := f.ctx.SelectPhoto(context.Background(), "unknown.jpg", nil)
	require.NoError(t, err)
	assert.Nil(t, sel.Location)
	assert.Equal(t, int32(0), f.search.calls.Load(), "no prefetch without a location")

	_, _, err = f.ctx.Suggestions(context.Background(), sel.Session.ID, time.Second)
	assert.ErrorIs(t, err, geo.ErrNoLocation)
}

func TestSelectPhotoSupersededDuringResolve(t *testing.T) {
	f := newFixture(t)
	gate := make(chan struct{})
	f.res.block["one.jpg"] = gate

	done := make(chan error, 1)
	go func() {
		_, err := f.ctx.SelectPhoto(context.Background(), "one.jpg", nil)
		done <- err
	}()

	require.Eventually(t, func() bool {
		_, ok := f.ctx.Current()
		return ok
	}, time.Second, time.Millisecond)
	newer := f.ctx.BeginSession("two.jpg")
	close(gate)

	assert.ErrorIs(t, <-done, geo.ErrStaleResult)
	assert.Equal(t, int32(0), f.search.calls.Load(), "stale session must not prefetch")

	_, err := f.ctx.Location(newer.ID())
	assert.ErrorIs(t, err, geo.ErrNoLocation, "newer session slot untouched")
}

func TestLiveSuggestionsSupersededMidFlight(t *testing.T) {
	f := newFixture(t)

	sel, err := f.ctx.SelectPhoto(context.Background(), "one.jpg", nil)
	require.NoError(t, err)
	<-f.search.started // prefetch, held at the gate

	done := make(chan error, 1)
	go func() {
		_, _, err := f.ctx.Suggestions(context.Background(), sel.Session.ID, 5*time.Millisecond)
		done <- err
	}()
	<-f.search.started // live search, held at the same gate

	f.ctx.BeginSession("two.jpg")
	f.search.open(1)

	assert.ErrorIs(t, <-done, geo.ErrStaleResult)
	f.ctx.prefetcher.Wait()
	assert.Equal(t, 0, f.cache.Len())
}

func TestOverrideWins(t *testing.T) {
	f := newFixture(t)
	override := geo.Location{Latitude: 45, Longitude: 7}

	sel, err := f.ctx.SelectPhoto(context.Background(), "one.jpg", &override)
	require.NoError(t, err)
	require.NotNil(t, sel.Location)
	assert.Equal(t, 1, sel.Location.Priority)

	<-f.search.started
	f.search.open(45)
	f.ctx.prefetcher.Wait()
}

func TestClose(t *testing.T) {
	f := newFixture(t)
	_, err := f.ctx.SelectPhoto(context.Background(), "one.jpg", nil)
	require.NoError(t, err)
	<-f.search.started

	closed := make(chan error, 1)
	go func() { closed <- f.ctx.Close() }()

	select {
	case <-closed:
		t.Fatal("Close returned before the prefetch drained")
	case <-time.After(20 * time.Millisecond):
	}
	f.search.open(1)
	require.NoError(t, <-closed)

	assert.Equal(t, int32(1), f.janitor.stops.Load())
	assert.Equal(t, 0, f.cache.Len())
	require.NoError(t, f.ctx.Close())
	assert.Equal(t, int32(1), f.janitor.stops.Load())
}

func TestSelectPhotoRejectsRefsOutsideMediaRoot(t *testing.T) {
	f := newFixture(t)
	previews := &countingPreviewer{}
	f.ctx.previewer = previews

	for _, ref := range []string{"/etc/passwd", "../secret.jpg", "a/../../b.jpg"} {
		_, err := f.ctx.SelectPhoto(context.Background(), ref, nil)
		assert.ErrorIs(t, err, assets.ErrInvalidRef, ref)
	}

	_, ok := f.ctx.Current()
	assert.False(t, ok, "no session is started for a rejected ref")
	assert.Equal(t, int32(0), previews.calls.Load())
	assert.Equal(t, int32(0), f.search.calls.Load())
}

func TestNewRequiresCollaborators(t *testing.T) {
	_, err := New(Config{})
	assert.Error(t, err)
}
