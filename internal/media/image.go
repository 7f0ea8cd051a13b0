package media

import (
	"fmt"
	"image"
	"math"
	"os"

	"snapspot/internal/logging"

	// Image format decoders
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp" // WebP format support
)

const (
	// MaxImageDimension is the largest side we decode at full size.
	MaxImageDimension = 4096

	// MaxImagePixels caps the decoded pixel count (about 80MB as RGBA).
	MaxImagePixels = 20_000_000
)

// ImageDimensions holds image width and height.
type ImageDimensions struct {
	Width  int
	Height int
}

// GetImageDimensions reads the header only.
func GetImageDimensions(path string) (*ImageDimensions, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := file.Close(); err != nil {
			logging.Warn("failed to close image file %s: %v", path, err)
		}
	}()

	config, _, err := image.DecodeConfig(file)
	if err != nil {
		return nil, err
	}
	return &ImageDimensions{Width: config.Width, Height: config.Height}, nil
}

// constrainedSize scales w×h down to fit maxDimension and maxPixels,
// keeping the aspect ratio. ok is false when no scaling is needed.
func constrainedSize(w, h, maxDimension, maxPixels int) (int, int, bool) {
	if w <= maxDimension && h <= maxDimension && w*h <= maxPixels {
		return w, h, false
	}

	tw, th := w, h
	if w > maxDimension || h > maxDimension {
		if w > h {
			tw, th = maxDimension, h*maxDimension/w
		} else {
			tw, th = w*maxDimension/h, maxDimension
		}
	}
	if tw*th > maxPixels {
		scale := math.Sqrt(float64(maxPixels) / float64(tw*th))
		tw = int(float64(tw) * scale)
		th = int(float64(th) * scale)
	}
	return max(tw, 1), max(th, 1), true
}

// LoadImageConstrained opens an auto-oriented image, downscaling it when it
// exceeds the given limits.
func LoadImageConstrained(path string, maxDimension, maxPixels int) (image.Image, error) {
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}

	b := img.Bounds()
	tw, th, scaled := constrainedSize(b.Dx(), b.Dy(), maxDimension, maxPixels)
	if !scaled {
		return img, nil
	}

	logging.Info("Constraining large image %s from %dx%d to %dx%d", path, b.Dx(), b.Dy(), tw, th)
	return imaging.Resize(img, tw, th, imaging.Lanczos), nil
}
