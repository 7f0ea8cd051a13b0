package metrics

import (
	"time"

	"snapspot/internal/logging"
)

// StatsProvider interface for collecting stats
type StatsProvider interface {
	GetStats() Stats
}

// StatsProviderFunc adapts a function to StatsProvider.
type StatsProviderFunc func() Stats

// GetStats calls f.
func (f StatsProviderFunc) GetStats() Stats {
	return f()
}

// Stats holds the current statistics
type Stats struct {
	TotalAssets      int
	LocatedAssets    int
	TrackedResources int
}

// Collector periodically collects and updates metrics
type Collector struct {
	statsProvider StatsProvider
	interval      time.Duration
	stopChan      chan struct{}
}

// NewCollector creates a new metrics collector
func NewCollector(provider StatsProvider, interval time.Duration) *Collector {
	return &Collector{
		statsProvider: provider,
		interval:      interval,
		stopChan:      make(chan struct{}),
	}
}

// Start begins the metrics collection loop
func (c *Collector) Start() {
	go c.collectLoop()
}

// Stop stops the metrics collection
func (c *Collector) Stop() {
	close(c.stopChan)
}

func (c *Collector) collectLoop() {
	// Collect immediately on start
	c.collect()

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.collect()
		case <-c.stopChan:
			return
		}
	}
}

func (c *Collector) collect() {
	if c.statsProvider == nil {
		return
	}

	stats := c.statsProvider.GetStats()

	CatalogAssets.WithLabelValues("true").Set(float64(stats.LocatedAssets))
	CatalogAssets.WithLabelValues("false").Set(float64(stats.TotalAssets - stats.LocatedAssets))
	JanitorTrackedResources.Set(float64(stats.TrackedResources))

	logging.Debug("Metrics collected: assets=%d, located=%d, tracked=%d",
		stats.TotalAssets, stats.LocatedAssets, stats.TrackedResources)
}
