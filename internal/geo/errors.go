package geo

import "errors"

var (
	// ErrNotFound reports expected absence of data from a source. It
	// triggers fallback and is never surfaced to users.
	ErrNotFound = errors.New("location not found")

	// ErrTimedOut reports a source that did not answer in time.
	ErrTimedOut = errors.New("location request timed out")

	// ErrPermissionDenied is terminal for the source that returned it.
	ErrPermissionDenied = errors.New("location permission denied")

	// ErrServiceUnavailable is returned by place search only.
	ErrServiceUnavailable = errors.New("place search unavailable")

	// ErrStaleResult marks work whose session was superseded before commit.
	ErrStaleResult = errors.New("stale result")

	// ErrNoLocation is the single outcome of an exhausted fallback chain.
	ErrNoLocation = errors.New("no location available")
)
