package device

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"snapspot/internal/geo"
	"snapspot/internal/logging"
	"snapspot/internal/metrics"
)

// DefaultTimeout bounds a device request when the caller passes zero.
const DefaultTimeout = 5 * time.Second

// ErrSuperseded is returned to a caller whose request was replaced by a
// newer one before it resolved.
var ErrSuperseded = errors.New("device request superseded")

type outcome struct {
	fix Fix
	err error
}

// request is one subscription. It resolves once and stops its sensor
// subscription exactly once.
type request struct {
	once   sync.Once
	result chan outcome

	mu      sync.Mutex
	cancel  func()
	stopped bool
}

func newRequest() *request {
	return &request{result: make(chan outcome, 1)}
}

// resolve records o if nothing was recorded yet and reports whether it won.
func (r *request) resolve(o outcome) bool {
	won := false
	r.once.Do(func() {
		r.result <- o
		won = true
	})
	if won {
		r.stop()
	}
	return won
}

// setCancel attaches the sensor's cancel function. If the request already
// resolved while Subscribe was running, the subscription is stopped now.
func (r *request) setCancel(cancel func()) {
	if cancel == nil {
		return
	}
	r.mu.Lock()
	if r.stopped {
		r.mu.Unlock()
		cancel()
		return
	}
	r.cancel = cancel
	r.mu.Unlock()
}

func (r *request) stop() {
	r.mu.Lock()
	r.stopped = true
	cancel := r.cancel
	r.cancel = nil
	r.mu.Unlock()

	if cancel != nil {
		cancel()
	}
}

// Provider turns sensor subscriptions into one-shot location requests.
type Provider struct {
	sensor Sensor

	mu       sync.Mutex
	inflight *request
}

// NewProvider creates a provider over sensor.
func NewProvider(sensor Sensor) *Provider {
	return &Provider{sensor: sensor}
}

// CurrentLocation waits for the next fix, up to timeout. It returns
// geo.ErrTimedOut, geo.ErrPermissionDenied, ErrSuperseded, a context error,
// or another sensor error wrapped.
func (p *Provider) CurrentLocation(ctx context.Context, timeout time.Duration) (geo.Location, error) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	req := newRequest()

	p.mu.Lock()
	prev := p.inflight
	p.inflight = req
	p.mu.Unlock()

	if prev != nil && prev.resolve(outcome{err: ErrSuperseded}) {
		logging.Debug("Device request replaced by a newer one")
	}

	cancel := p.sensor.Subscribe(
		func(fix Fix) {
			if !req.resolve(outcome{fix: fix}) {
				logging.Debug("Ignoring late device fix")
			}
		},
		func(err error) {
			req.resolve(outcome{err: err})
		},
	)
	req.setCancel(cancel)

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	var o outcome
	select {
	case o = <-req.result:
	case <-timer.C:
		req.resolve(outcome{err: geo.ErrTimedOut})
		o = <-req.result
	case <-ctx.Done():
		req.resolve(outcome{err: ctx.Err()})
		o = <-req.result
	}

	p.mu.Lock()
	if p.inflight == req {
		p.inflight = nil
	}
	p.mu.Unlock()

	recordRequest(o.err)
	if o.err != nil {
		if errors.Is(o.err, geo.ErrTimedOut) || errors.Is(o.err, geo.ErrPermissionDenied) ||
			errors.Is(o.err, ErrSuperseded) || errors.Is(o.err, context.Canceled) ||
			errors.Is(o.err, context.DeadlineExceeded) {
			return geo.Location{}, o.err
		}
		return geo.Location{}, fmt.Errorf("device sensor: %w", o.err)
	}

	loc := geo.Location{
		Latitude:  o.fix.Latitude,
		Longitude: o.fix.Longitude,
		Altitude:  o.fix.Altitude,
		Accuracy:  o.fix.Accuracy,
		Timestamp: o.fix.Timestamp,
	}
	if loc.Timestamp.IsZero() {
		loc.Timestamp = time.Now()
	}
	return loc.WithSource(geo.SourceDeviceSensor), nil
}

func recordRequest(err error) {
	outcome := "fix"
	switch {
	case err == nil:
	case errors.Is(err, geo.ErrTimedOut):
		outcome = "timed_out"
	case errors.Is(err, geo.ErrPermissionDenied):
		outcome = "permission_denied"
	case errors.Is(err, ErrSuperseded):
		outcome = "superseded"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		outcome = "cancelled"
	default:
		outcome = "error"
	}
	metrics.DeviceRequests.WithLabelValues(outcome).Inc()
}
