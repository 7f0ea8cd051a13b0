// Package session tracks the Active photo session and hands out the tokens
// that background work checks before committing side effects.
package session

import (
	"sync"
	"time"

	"snapspot/internal/logging"
	"snapspot/internal/metrics"

	"github.com/google/uuid"
)

// State is the lifecycle state of a PhotoSession.
type State int

const (
	// StateActive marks the single current session.
	StateActive State = iota
	// StateSuperseded marks a session replaced by a newer selection.
	StateSuperseded
)

func (s State) String() string {
	if s == StateActive {
		return "active"
	}
	return "superseded"
}

// MarshalText encodes the state by name.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// PhotoSession spans one photo selection through its resolved location and
// prefetched suggestions.
type PhotoSession struct {
	ID        string    `json:"sessionId"`
	PhotoRef  string    `json:"photoRef"`
	CreatedAt time.Time `json:"createdAt"`
	State     State     `json:"state"`
}

// Token is a cooperative cancellation token bound to one session. Work is
// never aborted; it checks Valid at its commit point instead.
type Token struct {
	id      string
	tracker *Tracker
}

// ID returns the session identifier.
func (t Token) ID() string {
	return t.id
}

// Valid reports whether the session is still the Active one.
func (t Token) Valid() bool {
	return t.tracker != nil && t.tracker.IsCurrent(t.id)
}

// Tracker owns the single Active session.
type Tracker struct {
	mu      sync.RWMutex
	current *PhotoSession
	last    *PhotoSession // most recently superseded, kept for diagnostics

	now   func() time.Time
	newID func() string
}

// Option customizes a Tracker.
type Option func(*Tracker)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) { t.now = now }
}

// WithIDGenerator overrides the session id generator.
func WithIDGenerator(gen func() string) Option {
	return func(t *Tracker) { t.newID = gen }
}

// NewTracker creates a tracker with no Active session.
func NewTracker(opts ...Option) *Tracker {
	t := &Tracker{
		now:   time.Now,
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Begin starts a new Active session for photoRef, superseding whatever was
// Active before, even if its background work is still outstanding.
func (t *Tracker) Begin(photoRef string) Token {
	next := &PhotoSession{
		ID:        t.newID(),
		PhotoRef:  photoRef,
		CreatedAt: t.now(),
		State:     StateActive,
	}

	t.mu.Lock()
	prev := t.current
	if prev != nil {
		prev.State = StateSuperseded
		t.last = prev
	}
	t.current = next
	t.mu.Unlock()

	metrics.SessionsStarted.Inc()
	if prev != nil {
		metrics.SessionsSuperseded.Inc()
		logging.Debug("Session %s superseded by %s", prev.ID, next.ID)
	}
	logging.Debug("Session %s started for %s", next.ID, photoRef)

	return Token{id: next.ID, tracker: t}
}

// IsCurrent reports whether id is the Active session.
func (t *Tracker) IsCurrent(id string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.current != nil && t.current.ID == id
}

// Token returns a token for id. The token is invalid unless id is current.
func (t *Tracker) Token(id string) Token {
	return Token{id: id, tracker: t}
}

// Current returns a copy of the Active session.
func (t *Tracker) Current() (PhotoSession, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.current == nil {
		return PhotoSession{}, false
	}
	return *t.current, true
}

// Session returns a copy of the session with the given id if it is the
// Active one or the one it most recently replaced.
func (t *Tracker) Session(id string) (PhotoSession, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for _, s := range []*PhotoSession{t.current, t.last} {
		if s != nil && s.ID == id {
			return *s, true
		}
	}
	return PhotoSession{}, false
}
