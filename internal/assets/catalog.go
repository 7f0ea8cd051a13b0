package assets

import (
	"context"
	"fmt"

	"snapspot/internal/database"
	"snapspot/internal/geo"
)

// Catalog is the part of the asset database the extractor reads.
type Catalog interface {
	LookupAsset(ctx context.Context, id string) (*database.Asset, error)
}

// CatalogSource adapts the asset catalog to LocationSource.
type CatalogSource struct {
	catalog Catalog
}

// NewCatalogSource wraps a catalog.
func NewCatalogSource(catalog Catalog) *CatalogSource {
	return &CatalogSource{catalog: catalog}
}

// ExtractLocation returns the cataloged coordinates. An asset that is
// cataloged without GPS data is reported as geo.ErrNotFound as well, since
// the indexer may still be filling it in.
func (s *CatalogSource) ExtractLocation(ctx context.Context, assetRef string) (loc geo.Location, err error) {
	defer func() { recordLookup("catalog", err) }()

	asset, err := s.catalog.LookupAsset(ctx, assetRef)
	if err != nil {
		return geo.Location{}, err
	}
	if !asset.HasLocation() {
		return geo.Location{}, fmt.Errorf("asset %s has no coordinates: %w", assetRef, geo.ErrNotFound)
	}

	loc = geo.Location{
		Latitude:  *asset.Latitude,
		Longitude: *asset.Longitude,
		Altitude:  asset.Altitude,
		Timestamp: asset.CapturedAt,
	}
	if loc.Timestamp.IsZero() {
		loc.Timestamp = asset.ModTime
	}
	return loc, nil
}
