package suggestions

import (
	"context"
	"sync"
	"time"

	"snapspot/internal/geo"
	"snapspot/internal/logging"
	"snapspot/internal/session"
)

// Result is the outcome of one place search for one session.
type Result struct {
	SessionID string       `json:"sessionId"`
	Location  geo.Location `json:"location"`
	Places    []geo.Place  `json:"places"`
	FetchedAt time.Time    `json:"fetchedAt"`
}

// Sessions reports which session is Active.
type Sessions interface {
	IsCurrent(id string) bool
}

// Cache is the single-slot store for the Active session's Result.
type Cache struct {
	sessions Sessions

	mu     sync.Mutex
	entry  *Result
	notify chan struct{}
}

// NewCache creates an empty cache validated against sessions.
func NewCache(sessions Sessions) *Cache {
	return &Cache{
		sessions: sessions,
		notify:   make(chan struct{}),
	}
}

// broadcast wakes every Wait. Caller holds c.mu.
func (c *Cache) broadcast() {
	close(c.notify)
	c.notify = make(chan struct{})
}

// Put stores r for token's session if that session is still Active. The
// validity check and the write happen under the same lock. It reports
// whether r was stored.
func (c *Cache) Put(token session.Token, r Result) bool {
	r.SessionID = token.ID()

	c.mu.Lock()
	defer c.mu.Unlock()

	if !token.Valid() {
		logging.Debug("Discarding suggestions for superseded session %s", r.SessionID)
		return false
	}
	c.entry = &r
	c.broadcast()
	return true
}

// Get returns the entry for sessionID without consuming it.
func (c *Cache) Get(sessionID string) (Result, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lookup(sessionID)
}

// Take returns and removes the entry for sessionID.
func (c *Cache) Take(sessionID string) (Result, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	r, ok := c.lookup(sessionID)
	if ok {
		c.entry = nil
	}
	return r, ok
}

// lookup returns the entry if it belongs to sessionID and that session is
// still Active. A stale entry is dropped. Caller holds c.mu.
func (c *Cache) lookup(sessionID string) (Result, bool) {
	if c.entry == nil || c.entry.SessionID != sessionID {
		return Result{}, false
	}
	if !c.sessions.IsCurrent(sessionID) {
		logging.Debug("Dropping cached suggestions for superseded session %s", sessionID)
		c.entry = nil
		return Result{}, false
	}
	return *c.entry, true
}

// Wait blocks until an entry for sessionID is available, sessionID stops
// being Active (geo.ErrStaleResult) or ctx ends. The entry is not consumed.
func (c *Cache) Wait(ctx context.Context, sessionID string) (Result, error) {
	for {
		c.mu.Lock()
		if r, ok := c.lookup(sessionID); ok {
			c.mu.Unlock()
			return r, nil
		}
		if !c.sessions.IsCurrent(sessionID) {
			c.mu.Unlock()
			return Result{}, geo.ErrStaleResult
		}
		ch := c.notify
		c.mu.Unlock()

		select {
		case <-ch:
		case <-ctx.Done():
			return Result{}, ctx.Err()
		}
	}
}

// EvictExcept removes the entry unless it belongs to sessionID and wakes
// waiters so they can observe a supersession.
func (c *Cache) EvictExcept(sessionID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.entry != nil && c.entry.SessionID != sessionID {
		logging.Debug("Evicting suggestions for session %s", c.entry.SessionID)
		c.entry = nil
	}
	c.broadcast()
}

// Clear empties the cache.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entry = nil
	c.broadcast()
}

// Len returns 0 or 1.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.entry == nil {
		return 0
	}
	return 1
}
