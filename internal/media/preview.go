package media

import (
	"bytes"
	"context"
	"crypto/md5"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"os"
	"path/filepath"
	"sync"

	"snapspot/internal/geo"
	"snapspot/internal/janitor"
	"snapspot/internal/logging"
	"snapspot/internal/metrics"

	"github.com/disintegration/imaging"
)

// DefaultPreviewSize is the longest side of a rendered preview.
const DefaultPreviewSize = 1280

// Tracker registers written files for later cleanup.
type Tracker interface {
	Track(path string) janitor.Resource
}

// Gate reports memory pressure; renders are skipped while it is paused.
type Gate interface {
	IsPaused() bool
}

// Previewer renders JPEG previews into a temp directory.
type Previewer struct {
	dir     string
	size    int
	useVips bool
	tracker Tracker
	gate    Gate

	mu sync.Mutex
}

// NewPreviewer creates a previewer writing into dir. tracker may be nil.
func NewPreviewer(dir string, size int, useVips bool, tracker Tracker) (*Previewer, error) {
	if size <= 0 {
		size = DefaultPreviewSize
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create preview dir: %w", err)
	}
	return &Previewer{dir: dir, size: size, useVips: useVips, tracker: tracker}, nil
}

// SetGate installs a memory gate. Cached previews are still served while
// the gate is paused.
func (p *Previewer) SetGate(g Gate) {
	p.mu.Lock()
	p.gate = g
	p.mu.Unlock()
}

// PreviewPath returns where the preview for src is written.
func (p *Previewer) PreviewPath(src string) string {
	hash := md5.Sum([]byte(fmt.Sprintf("%s@%d", src, p.size)))
	return filepath.Join(p.dir, fmt.Sprintf("%x.jpg", hash))
}

// Render writes the preview of src if it is not already present and returns
// its path. An existing preview is touched so the janitor keeps it.
func (p *Previewer) Render(ctx context.Context, src string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	if _, err := os.Stat(src); err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("preview source %s: %w", src, geo.ErrNotFound)
		}
		if os.IsPermission(err) {
			return "", fmt.Errorf("preview source %s: %w", src, geo.ErrPermissionDenied)
		}
		return "", fmt.Errorf("preview source %s: %w", src, err)
	}
	if GetFileType(src) != FileTypeImage {
		return "", fmt.Errorf("preview source %s: unsupported media type", src)
	}

	dst := p.PreviewPath(src)

	p.mu.Lock()
	defer p.mu.Unlock()

	if _, err := os.Stat(dst); err == nil {
		logging.Debug("Preview cache hit: %s", src)
		p.track(dst)
		return dst, nil
	}

	if p.gate != nil && p.gate.IsPaused() {
		metrics.PreviewsSkipped.Inc()
		return "", fmt.Errorf("preview %s: memory pressure: %w", src, geo.ErrServiceUnavailable)
	}

	img, renderer, err := p.load(src)
	if err != nil {
		metrics.PreviewRenders.WithLabelValues(renderer, "error").Inc()
		return "", err
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, imaging.Fit(img, p.size, p.size, imaging.Lanczos), &jpeg.Options{Quality: 85}); err != nil {
		metrics.PreviewRenders.WithLabelValues(renderer, "error").Inc()
		return "", fmt.Errorf("encode preview: %w", err)
	}

	tmp := dst + ".part"
	if err := os.WriteFile(tmp, buf.Bytes(), 0o644); err != nil {
		metrics.PreviewRenders.WithLabelValues(renderer, "error").Inc()
		return "", fmt.Errorf("write preview: %w", err)
	}
	if err := os.Rename(tmp, dst); err != nil {
		_ = os.Remove(tmp)
		metrics.PreviewRenders.WithLabelValues(renderer, "error").Inc()
		return "", fmt.Errorf("write preview: %w", err)
	}

	metrics.PreviewRenders.WithLabelValues(renderer, "success").Inc()
	logging.Debug("Preview rendered with %s: %s -> %s", renderer, src, dst)
	p.track(dst)
	return dst, nil
}

func (p *Previewer) load(src string) (image.Image, string, error) {
	if p.useVips && IsVipsAvailable() {
		img, err := LoadImageWithVips(src, p.size)
		if err == nil {
			return img, "vips", nil
		}
		logging.Debug("Vips failed for %s, falling back to imaging: %v", src, err)
	}

	if dims, err := GetImageDimensions(src); err != nil {
		format, _ := DetectFormat(src)
		return nil, "imaging", fmt.Errorf("decode %s (format %s): %w", src, format, err)
	} else if dims.Width == 0 || dims.Height == 0 {
		return nil, "imaging", errors.New("image has no pixels")
	}

	img, err := LoadImageConstrained(src, MaxImageDimension, MaxImagePixels)
	if err != nil {
		return nil, "imaging", err
	}
	return img, "imaging", nil
}

func (p *Previewer) track(path string) {
	if p.tracker != nil {
		p.tracker.Track(path)
	}
}
