package metrics

import "snapspot/internal/retry"

// retryObserver implements retry.Observer using the Prometheus
// metrics declared in this package.
type retryObserver struct{}

// NewRetryObserver creates an observer that records retry metrics
// into the Prometheus counters and histograms declared in metrics.go.
func NewRetryObserver() retry.Observer {
	return &retryObserver{}
}

func (o *retryObserver) ObserveRetryAttempt(op string) {
	RetryAttempts.WithLabelValues(op).Inc()
}

func (o *retryObserver) ObserveRetrySuccess(op string) {
	RetrySuccess.WithLabelValues(op).Inc()
}

func (o *retryObserver) ObserveRetryFailure(op string) {
	RetryFailures.WithLabelValues(op).Inc()
}

func (o *retryObserver) ObserveRetryDuration(op string, durationSeconds float64) {
	RetryDuration.WithLabelValues(op).Observe(durationSeconds)
}
