// Package memory configures the Go heap limit for containers and watches
// heap usage so image decoding can back off under pressure.
//
// [Configure] sets GOMEMLIMIT from a container limit (MEMORY_LIMIT, usually
// injected from the Kubernetes Downward API) and a ratio (MEMORY_RATIO,
// default 0.85). An explicit GOMEMLIMIT always wins.
//
// [Monitor] samples heap allocation against that limit. Above the critical
// mark it reports paused until usage falls below the high mark again; the
// preview renderer skips work while paused.
package memory
