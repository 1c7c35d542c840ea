// Package photo stores user profile photos under names derived from the
// user's display name.
package photo

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"io"
	"path"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/disintegration/imaging"
)

// URLPrefix is the path under which the API serves stored photos.
const URLPrefix = "/images/"

// ArchiveDir is the sub-directory (or key prefix) that receives photos of deleted users.
const ArchiveDir = "archive"

var (
	// ErrPhotoNotFound is returned when no photo is stored under a name.
	ErrPhotoNotFound = errors.New("photo not found")
	// ErrInvalidName is returned for names that are not a single path element.
	ErrInvalidName = errors.New("invalid photo name")
	// ErrInvalidImage is returned when the uploaded data is not a decodable image.
	ErrInvalidImage = errors.New("invalid image data")
)

// Info describes a stored photo.
type Info struct {
	Name        string
	Size        int64
	ModTime     time.Time
	ContentType string
}

// Store is the capability the user registry needs for profile photos.
type Store interface {
	// Save normalises data and stores it under name, replacing any existing
	// photo, and returns the photo's URL path.
	Save(ctx context.Context, name string, data []byte) (string, error)
	// Rename moves the photo stored under oldName to newName and returns the new URL path.
	// It returns ErrPhotoNotFound if nothing is stored under oldName.
	Rename(ctx context.Context, oldName, newName string) (string, error)
	// Archive moves the photo into the archive area and returns its archived name.
	// It returns ErrPhotoNotFound if nothing is stored under name.
	Archive(ctx context.Context, name string) (string, error)
	// Open returns the stored photo for serving.
	Open(ctx context.Context, name string) (io.ReadCloser, Info, error)
	// Exists reports whether a photo is stored under name.
	Exists(ctx context.Context, name string) (bool, error)
}

// Compactor is implemented by backends that can shrink oversized photos in place.
type Compactor interface {
	// Compact re-encodes every stored photo larger than maxBytes and returns
	// how many were rewritten.
	Compact(ctx context.Context, maxBytes int64) (int, error)
}

// Options control how uploads are normalised.
type Options struct {
	MaxWidth  int
	MaxHeight int
	Quality   int
}

// DefaultOptions returns the normalisation settings used when none are configured.
func DefaultOptions() Options {
	return Options{MaxWidth: 1024, MaxHeight: 1024, Quality: 85}
}

var whitespace = regexp.MustCompile(`\s+`)

// FileName derives the photo file name from a display name:
// lowercased, whitespace runs replaced by underscores, with a .jpg extension.
func FileName(displayName string) string {
	return whitespace.ReplaceAllString(strings.ToLower(displayName), "_") + ".jpg"
}

// URL returns the URL path under which the photo name is served.
func URL(name string) string {
	return URLPrefix + name
}

// NameFromURL returns the file name part of a photo URL path.
func NameFromURL(u string) string {
	if u == "" {
		return ""
	}
	return path.Base(u)
}

// ValidateName ensures name is a single, non-hidden path element.
func ValidateName(name string) error {
	if name == "" || name == "." || name == ".." ||
		strings.ContainsAny(name, `/\`) || strings.HasPrefix(name, ".") {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}

// ArchiveName returns the name used when an archived photo with the same name
// already exists: base-<unix millis>.ext.
func ArchiveName(name string, t time.Time) string {
	ext := filepath.Ext(name)
	base := strings.TrimSuffix(name, ext)
	return fmt.Sprintf("%s-%d%s", base, t.UnixMilli(), ext)
}

// ContentType returns the MIME type for a photo name based on its extension.
func ContentType(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	default:
		return "application/octet-stream"
	}
}

// IsImageName reports whether name carries an image extension the stores understand.
func IsImageName(name string) bool {
	return ContentType(name) != "application/octet-stream"
}

// DecodeDataURL decodes a base64 data URL such as "data:image/jpeg;base64,..."
// as produced by the capture UI. Bare base64 is accepted as well.
func DecodeDataURL(s string) ([]byte, error) {
	payload := strings.TrimSpace(s)
	if strings.HasPrefix(payload, "data:") {
		idx := strings.Index(payload, ",")
		if idx < 0 || !strings.HasSuffix(payload[:idx], ";base64") {
			return nil, fmt.Errorf("%w: unsupported data URL", ErrInvalidImage)
		}
		payload = payload[idx+1:]
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidImage, err)
	}
	return data, nil
}

// Normalize decodes data, fits it into the configured bounds and re-encodes it
// in the format implied by name (JPEG unless the name says otherwise).
func Normalize(data []byte, name string, opts Options) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidImage, err)
	}
	img = fit(img, opts)

	format, err := imaging.FormatFromFilename(name)
	if err != nil {
		format = imaging.JPEG
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, format, imaging.JPEGQuality(opts.Quality)); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}
	return buf.Bytes(), nil
}

func fit(img image.Image, opts Options) image.Image {
	if opts.MaxWidth <= 0 || opts.MaxHeight <= 0 {
		return img
	}
	b := img.Bounds()
	if b.Dx() <= opts.MaxWidth && b.Dy() <= opts.MaxHeight {
		return img
	}
	return imaging.Fit(img, opts.MaxWidth, opts.MaxHeight, imaging.Lanczos)
}
