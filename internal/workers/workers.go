package workers

import "runtime"

// Count returns a worker pool size. A positive override (usually from
// configuration) wins; otherwise the size is GOMAXPROCS scaled by
// multiplier. The result is at least 1 and, when limit > 0, at most limit.
//
// GOMAXPROCS follows the container CPU quota, unlike runtime.NumCPU.
func Count(override int, multiplier float64, limit int) int {
	n := override
	if n <= 0 {
		n = int(float64(runtime.GOMAXPROCS(0)) * multiplier)
	}
	if n < 1 {
		n = 1
	}
	if limit > 0 && n > limit {
		n = limit
	}
	return n
}

// ForCPU sizes a pool for CPU-bound work such as preview encoding.
func ForCPU(limit int) int {
	return Count(0, 1.0, limit)
}

// ForIO sizes a pool for I/O-bound work such as reading EXIF headers.
func ForIO(limit int) int {
	return Count(0, 2.0, limit)
}

// ForMixed sizes a pool for work that both reads files and decodes them.
func ForMixed(limit int) int {
	return Count(0, 1.5, limit)
}
