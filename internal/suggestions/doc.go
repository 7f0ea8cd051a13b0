// Package suggestions prefetches nearby places for the Active photo session
// and holds the result until the session's consumer asks for it.
//
// # Cache
//
// Cache is a single slot. It holds at most one Result, and only for the
// session that is Active at the moment of the write: Put re-checks the
// session token while holding the cache lock, so a prefetch that finishes
// after its session was superseded is dropped instead of stored. Readers
// re-check too, so an entry left behind by a session that was superseded
// between write and read is never surfaced.
//
// # Prefetcher
//
// Prefetch starts a search in its own goroutine and returns immediately.
// The goroutine is detached from any request context and bounded by the
// prefetch timeout. Failures and empty searches are logged and counted but
// never cached, so a consumer that finds nothing falls back to a live
// search of its own.
package suggestions
