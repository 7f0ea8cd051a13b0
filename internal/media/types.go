package media

import (
	"os"
	"path/filepath"
	"strings"
)

// FileType is the coarse kind of a media file.
type FileType string

const (
	// FileTypeImage is a still image.
	FileTypeImage FileType = "image"
	// FileTypeVideo is a video clip.
	FileTypeVideo FileType = "video"
	// FileTypeOther is anything the pipeline does not handle.
	FileTypeOther FileType = "other"
)

// ImageExtensions lists the image extensions the indexer catalogs.
var ImageExtensions = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".gif": true,
	".bmp": true, ".webp": true, ".tiff": true, ".tif": true,
	".heic": true, ".heif": true, ".dng": true,
}

// VideoExtensions lists the video extensions the indexer catalogs.
var VideoExtensions = map[string]bool{
	".mp4": true, ".mov": true, ".m4v": true, ".3gp": true,
	".mkv": true, ".webm": true, ".avi": true,
}

// GetFileType classifies path by extension.
func GetFileType(path string) FileType {
	ext := strings.ToLower(filepath.Ext(path))
	switch {
	case ImageExtensions[ext]:
		return FileTypeImage
	case VideoExtensions[ext]:
		return FileTypeVideo
	default:
		return FileTypeOther
	}
}

// HasExif reports whether files of this extension can carry EXIF GPS tags
// the indexer knows how to read.
func HasExif(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg", ".tif", ".tiff", ".dng":
		return true
	}
	return false
}

// DetectFormat sniffs the container format from the file header. It returns
// "unknown" when no signature matches.
func DetectFormat(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	header := make([]byte, 12)
	n, err := f.Read(header)
	if err != nil {
		return "", err
	}
	return sniff(header[:n]), nil
}

func sniff(h []byte) string {
	has := func(off int, sig ...byte) bool {
		if len(h) < off+len(sig) {
			return false
		}
		for i, b := range sig {
			if h[off+i] != b {
				return false
			}
		}
		return true
	}

	switch {
	case has(0, 0xFF, 0xD8, 0xFF):
		return "jpeg"
	case has(0, 0x89, 'P', 'N', 'G'):
		return "png"
	case has(0, 'G', 'I', 'F', '8'):
		return "gif"
	case has(0, 'R', 'I', 'F', 'F') && has(8, 'W', 'E', 'B', 'P'):
		return "webp"
	case has(0, 'B', 'M'):
		return "bmp"
	case has(0, 'I', 'I', 0x2A, 0x00), has(0, 'M', 'M', 0x00, 0x2A):
		return "tiff"
	case has(4, 'f', 't', 'y', 'p'):
		switch string(h[8:12]) {
		case "heic", "heix", "hevc", "hevx", "mif1", "msf1":
			return "heif"
		case "avif", "avis":
			return "avif"
		}
		return "mp4-container"
	}
	return "unknown"
}
