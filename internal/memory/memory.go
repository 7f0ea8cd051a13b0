package memory

import (
	"runtime"
	"runtime/debug"
	"sync"
	"time"

	"snapspot/internal/logging"
	"snapspot/internal/metrics"
)

// Config holds the monitor thresholds.
type Config struct {
	// LimitBytes overrides the limit read from GOMEMLIMIT; zero reads it.
	LimitBytes int64
	// HighWaterMark is the usage below which a pause is lifted (0.0-1.0).
	HighWaterMark float64
	// CriticalWaterMark is the usage at which rendering pauses (0.0-1.0).
	CriticalWaterMark float64
	CheckInterval     time.Duration
}

// DefaultConfig returns the monitor defaults.
func DefaultConfig() Config {
	return Config{
		HighWaterMark:     0.7,
		CriticalWaterMark: 0.85,
		CheckInterval:     5 * time.Second,
	}
}

// Monitor samples heap usage and raises a pause flag under pressure.
type Monitor struct {
	config   Config
	limit    int64
	readHeap func() uint64

	stopOnce sync.Once
	stopChan chan struct{}

	mu      sync.RWMutex
	current uint64
	paused  bool
}

// NewMonitor creates a monitor. Without a limit it never pauses.
func NewMonitor(config Config) *Monitor {
	limit := config.LimitBytes
	if limit == 0 {
		if l := debug.SetMemoryLimit(-1); l > 0 && l < 1<<62 {
			limit = l
		}
	}
	return &Monitor{
		config:   config,
		limit:    limit,
		readHeap: heapAlloc,
		stopChan: make(chan struct{}),
	}
}

func heapAlloc() uint64 {
	var stats runtime.MemStats
	runtime.ReadMemStats(&stats)
	return stats.Alloc
}

// Start begins sampling. It is a no-op without a limit.
func (m *Monitor) Start() {
	if m.limit <= 0 {
		logging.Debug("Memory monitor: no limit configured, backpressure disabled")
		return
	}
	go m.loop()
}

// Stop ends sampling. It is safe to call more than once.
func (m *Monitor) Stop() {
	m.stopOnce.Do(func() { close(m.stopChan) })
}

func (m *Monitor) loop() {
	ticker := time.NewTicker(m.config.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.check()
		case <-m.stopChan:
			return
		}
	}
}

func (m *Monitor) check() {
	alloc := m.readHeap()

	m.mu.Lock()
	defer m.mu.Unlock()

	m.current = alloc
	if m.limit <= 0 {
		return
	}

	usage := float64(alloc) / float64(m.limit)
	metrics.MemoryUsageRatio.Set(usage)

	switch {
	case usage >= m.config.CriticalWaterMark && !m.paused:
		logging.Warn("Memory critical (%.1f%% of limit), pausing preview rendering", usage*100)
		m.paused = true
		metrics.MemoryPaused.Set(1)
		metrics.MemoryGCPauses.Inc()
		go runtime.GC()
	case usage < m.config.HighWaterMark && m.paused:
		logging.Info("Memory recovered (%.1f%% of limit), resuming preview rendering", usage*100)
		m.paused = false
		metrics.MemoryPaused.Set(0)
	}
}

// IsPaused reports whether heavy work should be skipped.
func (m *Monitor) IsPaused() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.paused
}

// Usage returns the last sampled usage as a fraction of the limit, or 0
// without a limit.
func (m *Monitor) Usage() float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.limit <= 0 {
		return 0
	}
	return float64(m.current) / float64(m.limit)
}
