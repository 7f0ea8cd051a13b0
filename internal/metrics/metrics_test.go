package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestInitializeMetricsPopulatesLabels(t *testing.T) {
	InitializeMetrics()

	assert.Equal(t, 4, testutil.CollectAndCount(LocationResolutions))
	assert.Equal(t, 8, testutil.CollectAndCount(AssetLookups))
	assert.Equal(t, 6, testutil.CollectAndCount(DeviceRequests))
	assert.Equal(t, 4, testutil.CollectAndCount(PrefetchTotal))
	assert.Equal(t, 4, testutil.CollectAndCount(SuggestionReads))
}

func TestRetryObserver(t *testing.T) {
	o := NewRetryObserver()
	before := testutil.ToFloat64(RetryAttempts.WithLabelValues("observer_test"))

	o.ObserveRetryAttempt("observer_test")
	o.ObserveRetryAttempt("observer_test")
	o.ObserveRetrySuccess("observer_test")
	o.ObserveRetryFailure("observer_test")
	o.ObserveRetryDuration("observer_test", 0.5)

	assert.Equal(t, before+2, testutil.ToFloat64(RetryAttempts.WithLabelValues("observer_test")))
	assert.Equal(t, 1.0, testutil.ToFloat64(RetrySuccess.WithLabelValues("observer_test")))
	assert.Equal(t, 1.0, testutil.ToFloat64(RetryFailures.WithLabelValues("observer_test")))
}

func TestCollector(t *testing.T) {
	provider := StatsProviderFunc(func() Stats {
		return Stats{TotalAssets: 10, LocatedAssets: 7, TrackedResources: 3}
	})

	c := NewCollector(provider, time.Hour)
	c.collect()

	assert.Equal(t, 7.0, testutil.ToFloat64(CatalogAssets.WithLabelValues("true")))
	assert.Equal(t, 3.0, testutil.ToFloat64(CatalogAssets.WithLabelValues("false")))
	assert.Equal(t, 3.0, testutil.ToFloat64(JanitorTrackedResources))
}

func TestCollectorNilProvider(t *testing.T) {
	c := NewCollector(nil, time.Hour)
	c.collect()
	c.Start()
	c.Stop()
}
