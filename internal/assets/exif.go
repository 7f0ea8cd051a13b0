package assets

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"snapspot/internal/geo"

	"github.com/rwcarlsen/goexif/exif"
)

// ExifLocation holds the GPS data embedded in an image.
type ExifLocation struct {
	Latitude   float64
	Longitude  float64
	Altitude   *float64
	CapturedAt time.Time // zero when the image has no DateTime tag
}

// ExifReader reads GPS tags straight from image files under a root directory.
type ExifReader struct {
	root string
}

// NewExifReader resolves asset references relative to root.
func NewExifReader(root string) *ExifReader {
	return &ExifReader{root: root}
}

func (r *ExifReader) resolve(assetRef string) (string, error) {
	return ResolvePath(r.root, assetRef)
}

// ErrInvalidRef is returned for asset references that are empty, absolute
// or climb out of the media root.
var ErrInvalidRef = errors.New("invalid asset reference")

// ValidateRef checks that assetRef names a file below the media root.
func ValidateRef(assetRef string) error {
	if assetRef == "" {
		return fmt.Errorf("%w: empty", ErrInvalidRef)
	}
	slashed := filepath.ToSlash(assetRef)
	if filepath.IsAbs(assetRef) || strings.HasPrefix(slashed, "/") {
		return fmt.Errorf("%w: %s is absolute", ErrInvalidRef, assetRef)
	}
	for _, part := range strings.Split(slashed, "/") {
		if part == ".." {
			return fmt.Errorf("%w: %s leaves the media root", ErrInvalidRef, assetRef)
		}
	}
	return nil
}

// ResolvePath maps a validated asset reference to a file inside root.
func ResolvePath(root, assetRef string) (string, error) {
	if err := ValidateRef(assetRef); err != nil {
		return "", err
	}
	clean := filepath.Clean(assetRef)
	if root == "" {
		return clean, nil
	}
	path := filepath.Join(root, clean)
	rel, err := filepath.Rel(filepath.Clean(root), path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s leaves the media root", ErrInvalidRef, assetRef)
	}
	return path, nil
}

// ExtractLocation implements LocationSource.
func (r *ExifReader) ExtractLocation(ctx context.Context, assetRef string) (loc geo.Location, err error) {
	defer func() { recordLookup("exif", err) }()

	if err := ctx.Err(); err != nil {
		return geo.Location{}, err
	}

	path, err := r.resolve(assetRef)
	if err != nil {
		return geo.Location{}, err
	}

	f, err := os.Open(path)
	if err != nil {
		switch {
		case errors.Is(err, os.ErrNotExist):
			return geo.Location{}, fmt.Errorf("asset file %s: %w", assetRef, geo.ErrNotFound)
		case errors.Is(err, os.ErrPermission):
			return geo.Location{}, fmt.Errorf("asset file %s: %w", assetRef, geo.ErrPermissionDenied)
		}
		return geo.Location{}, err
	}
	defer f.Close()

	x, err := exif.Decode(f)
	if err != nil {
		return geo.Location{}, fmt.Errorf("no exif in %s: %w", assetRef, geo.ErrNotFound)
	}

	gps, err := LocationFromExif(x)
	if err != nil {
		return geo.Location{}, fmt.Errorf("%s: %w", assetRef, err)
	}

	loc = geo.Location{
		Latitude:  gps.Latitude,
		Longitude: gps.Longitude,
		Altitude:  gps.Altitude,
	}
	if taken, err := x.DateTime(); err == nil {
		loc.Timestamp = taken
	} else if info, statErr := f.Stat(); statErr == nil {
		loc.Timestamp = info.ModTime()
	}
	return loc, nil
}

// ReadExifLocation decodes GPS tags from r. It returns geo.ErrNotFound when
// the stream has no EXIF block or no GPS coordinates.
func ReadExifLocation(r io.Reader) (ExifLocation, error) {
	x, err := exif.Decode(r)
	if err != nil {
		return ExifLocation{}, fmt.Errorf("no exif data: %w", geo.ErrNotFound)
	}
	loc, err := LocationFromExif(x)
	if err != nil {
		return ExifLocation{}, err
	}
	if taken, err := x.DateTime(); err == nil {
		loc.CapturedAt = taken
	}
	return loc, nil
}

// LocationFromExif extracts coordinates and altitude from decoded EXIF.
func LocationFromExif(x *exif.Exif) (ExifLocation, error) {
	lat, lon, err := x.LatLong()
	if err != nil || math.IsNaN(lat) || math.IsNaN(lon) {
		return ExifLocation{}, fmt.Errorf("no gps tags: %w", geo.ErrNotFound)
	}
	if lat == 0 && lon == 0 {
		// Cameras write zeros when they had no fix.
		return ExifLocation{}, fmt.Errorf("empty gps tags: %w", geo.ErrNotFound)
	}

	out := ExifLocation{Latitude: lat, Longitude: lon}
	if tag, err := x.Get(exif.GPSAltitude); err == nil {
		if num, den, err := tag.Rat2(0); err == nil && den != 0 {
			alt := float64(num) / float64(den)
			if ref, err := x.Get(exif.GPSAltitudeRef); err == nil {
				if v, err := ref.Int(0); err == nil && v == 1 {
					alt = -alt
				}
			}
			out.Altitude = &alt
		}
	}
	return out, nil
}
