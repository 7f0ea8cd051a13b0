package assets

import (
	"context"
	"errors"
	"fmt"

	"snapspot/internal/geo"
	"snapspot/internal/logging"
	"snapspot/internal/metrics"
	"snapspot/internal/retry"
)

// DefaultMaxAttempts is the catalog retry budget per extraction.
const DefaultMaxAttempts = 5

// LocationSource is the capability every extraction adapter provides.
type LocationSource interface {
	ExtractLocation(ctx context.Context, assetRef string) (geo.Location, error)
}

// LocationSourceFunc adapts a function to LocationSource.
type LocationSourceFunc func(ctx context.Context, assetRef string) (geo.Location, error)

// ExtractLocation calls f(ctx, assetRef).
func (f LocationSourceFunc) ExtractLocation(ctx context.Context, assetRef string) (geo.Location, error) {
	return f(ctx, assetRef)
}

// Extractor combines a retried primary source with a one-shot fallback.
type Extractor struct {
	primary  LocationSource
	fallback LocationSource
	policy   retry.Policy
}

// NewExtractor creates an extractor. fallback may be nil. A zero-valued
// policy MaxAttempts is replaced with DefaultMaxAttempts.
func NewExtractor(primary, fallback LocationSource, policy retry.Policy) *Extractor {
	if policy.MaxAttempts <= 0 {
		policy.MaxAttempts = DefaultMaxAttempts
	}
	if policy.Backoff == nil {
		policy.Backoff = retry.DefaultPolicy().Backoff
	}
	policy.Retryable = isAbsence
	return &Extractor{
		primary:  primary,
		fallback: fallback,
		policy:   policy,
	}
}

// isAbsence reports whether err means "no data yet" rather than a failure.
func isAbsence(err error) bool {
	return errors.Is(err, geo.ErrNotFound)
}

// Extract returns the asset's location stamped with the asset-metadata
// source, or geo.ErrNotFound when neither adapter knows it.
func (e *Extractor) Extract(ctx context.Context, assetRef string) (geo.Location, error) {
	var loc geo.Location

	err := retry.Do(ctx, "asset_lookup", e.policy, func(ctx context.Context, attempt int) error {
		found, err := e.primary.ExtractLocation(ctx, assetRef)
		if err != nil {
			return err
		}
		loc = found
		return nil
	})

	switch {
	case err == nil:
		return loc.WithSource(geo.SourceAssetMetadata), nil
	case errors.Is(err, geo.ErrPermissionDenied):
		logging.Info("Asset %s: metadata access denied", assetRef)
		return geo.Location{}, err
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return geo.Location{}, err
	case isAbsence(err):
		logging.Debug("Asset %s: no catalog location after %d attempts", assetRef, e.policy.MaxAttempts)
	default:
		logging.Warn("Asset %s: catalog lookup failed: %v", assetRef, err)
	}

	if e.fallback == nil {
		return geo.Location{}, geo.ErrNotFound
	}

	loc, err = e.fallback.ExtractLocation(ctx, assetRef)
	if err != nil {
		if errors.Is(err, geo.ErrPermissionDenied) {
			return geo.Location{}, err
		}
		if !isAbsence(err) {
			logging.Warn("Asset %s: embedded tag read failed: %v", assetRef, err)
		}
		return geo.Location{}, fmt.Errorf("asset %s: %w", assetRef, geo.ErrNotFound)
	}

	logging.Debug("Asset %s: location read from embedded tags", assetRef)
	return loc.WithSource(geo.SourceAssetMetadata), nil
}

func recordLookup(adapter string, err error) {
	outcome := "found"
	switch {
	case err == nil:
	case errors.Is(err, geo.ErrNotFound):
		outcome = "not_found"
	case errors.Is(err, geo.ErrPermissionDenied):
		outcome = "permission_denied"
	default:
		outcome = "error"
	}
	metrics.AssetLookups.WithLabelValues(adapter, outcome).Inc()
}
