package memory

import (
	"runtime/debug"
	"testing"

	"github.com/stretchr/testify/assert"
)

func newTestMonitor(limit int64, heap *uint64) *Monitor {
	cfg := DefaultConfig()
	cfg.LimitBytes = limit
	m := NewMonitor(cfg)
	m.readHeap = func() uint64 { return *heap }
	return m
}

func TestMonitorHysteresis(t *testing.T) {
	heap := uint64(50)
	m := newTestMonitor(100, &heap)

	m.check()
	assert.False(t, m.IsPaused())
	assert.InDelta(t, 0.5, m.Usage(), 1e-9)

	heap = 90
	m.check()
	assert.True(t, m.IsPaused())

	// between the marks the pause holds
	heap = 80
	m.check()
	assert.True(t, m.IsPaused())

	heap = 60
	m.check()
	assert.False(t, m.IsPaused())
}

func TestMonitorWithoutLimit(t *testing.T) {
	heap := uint64(1 << 40)
	m := newTestMonitor(-1, &heap)

	m.check()
	assert.False(t, m.IsPaused())
	assert.Zero(t, m.Usage())

	m.Start()
	m.Stop()
	m.Stop()
}

func TestConfigure(t *testing.T) {
	t.Setenv("GOMEMLIMIT", "")
	original := debug.SetMemoryLimit(-1)
	t.Cleanup(func() { debug.SetMemoryLimit(original) })

	result := Configure(0, 0)
	assert.False(t, result.Configured)
	assert.Equal(t, "none", result.Source)

	result = Configure(1000, 0.5)
	assert.True(t, result.Configured)
	assert.Equal(t, "MEMORY_LIMIT", result.Source)
	assert.Equal(t, int64(500), result.GoMemLimit)
	assert.Equal(t, int64(500), debug.SetMemoryLimit(-1))

	result = Configure(1000, 1.5)
	assert.InDelta(t, DefaultMemoryRatio, result.Ratio, 1e-9)
	assert.Equal(t, int64(850), result.GoMemLimit)
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{512, "512 B"},
		{1024, "1.0 KiB"},
		{1536, "1.5 KiB"},
		{1024 * 1024, "1.0 MiB"},
		{3 * 1024 * 1024 * 1024, "3.0 GiB"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, formatBytes(tt.in))
	}
}
