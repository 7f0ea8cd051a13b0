// Package resolver picks the best available location for a photo by walking
// the sources in priority order: an explicit user override, the asset's own
// metadata, then a live device fix.
package resolver

import (
	"context"
	"errors"
	"time"

	"snapspot/internal/device"
	"snapspot/internal/geo"
	"snapspot/internal/logging"
	"snapspot/internal/metrics"
)

// DefaultDeviceTimeout bounds the device fallback.
const DefaultDeviceTimeout = 5 * time.Second

// AssetSource yields a location read from the photo itself.
type AssetSource interface {
	Extract(ctx context.Context, assetRef string) (geo.Location, error)
}

// DeviceSource yields a live position fix.
type DeviceSource interface {
	CurrentLocation(ctx context.Context, timeout time.Duration) (geo.Location, error)
}

// Resolver runs one resolution pass per call. Either source may be nil.
type Resolver struct {
	assets        AssetSource
	device        DeviceSource
	deviceTimeout time.Duration
}

// New creates a resolver. A non-positive deviceTimeout uses DefaultDeviceTimeout.
func New(assets AssetSource, dev DeviceSource, deviceTimeout time.Duration) *Resolver {
	if deviceTimeout <= 0 {
		deviceTimeout = DefaultDeviceTimeout
	}
	return &Resolver{
		assets:        assets,
		device:        dev,
		deviceTimeout: deviceTimeout,
	}
}

// pass holds the best location accepted so far in one resolution.
type pass struct {
	best *geo.Location
}

// offer accepts loc unless a better-ranked location was already taken.
func (p *pass) offer(loc geo.Location) bool {
	if p.best != nil && !loc.Outranks(*p.best) {
		return false
	}
	p.best = &loc
	return true
}

// Resolve returns the highest-priority location available for photoRef.
// A valid override wins immediately. When every source comes up empty it
// returns geo.ErrNoLocation; callers are expected to carry on without one.
func (r *Resolver) Resolve(ctx context.Context, photoRef string, override *geo.Location) (loc geo.Location, err error) {
	start := time.Now()
	defer func() {
		metrics.LocationResolutionDuration.Observe(time.Since(start).Seconds())
		source := "none"
		if err == nil {
			source = loc.Source.String()
		}
		metrics.LocationResolutions.WithLabelValues(source).Inc()
	}()

	var p pass

	if override != nil {
		if verr := override.Validate(); verr != nil {
			logging.Warn("Ignoring invalid location override for %s: %v", photoRef, verr)
		} else {
			p.offer(override.WithSource(geo.SourceUserSelected))
			return *p.best, nil
		}
	}

	if r.assets != nil && photoRef != "" {
		found, aerr := r.assets.Extract(ctx, photoRef)
		switch {
		case aerr == nil:
			if p.offer(found.WithSource(geo.SourceAssetMetadata)) {
				return *p.best, nil
			}
		case isContextErr(aerr):
			return geo.Location{}, aerr
		case errors.Is(aerr, geo.ErrNotFound):
			logging.Debug("No asset location for %s", photoRef)
		default:
			logging.Warn("Asset location lookup for %s failed: %v", photoRef, aerr)
		}
	}

	if r.device != nil {
		logging.Info("Falling back to device location for %s", photoRef)
		found, derr := r.device.CurrentLocation(ctx, r.deviceTimeout)
		switch {
		case derr == nil:
			if p.offer(found.WithSource(geo.SourceDeviceSensor)) {
				return *p.best, nil
			}
		case isContextErr(derr):
			return geo.Location{}, derr
		case errors.Is(derr, geo.ErrTimedOut), errors.Is(derr, device.ErrSuperseded):
			logging.Debug("Device location for %s unavailable: %v", photoRef, derr)
		default:
			logging.Warn("Device location for %s failed: %v", photoRef, derr)
		}
	}

	if p.best != nil {
		return *p.best, nil
	}
	return geo.Location{}, geo.ErrNoLocation
}

func isContextErr(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
