// Package diskcache stores raw image bytes in a flat directory, one file per
// image URL, addressed by a filename derived from the URL itself.
package diskcache

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/hszk-dev/recipebox/internal/domain/model"
	"github.com/hszk-dev/recipebox/internal/domain/repository"
	"github.com/hszk-dev/recipebox/internal/infrastructure/imaging"
)

const (
	// photosMarker is the path segment preceding the image identifier.
	photosMarker = "photos"

	// fallbackName is used when no identifier or leaf can be derived.
	fallbackName = "image"

	filePerm = 0o644
	dirPerm  = 0o755

	tempSuffix = ".tmp"
)

// CacheFilename maps an image URL to its flat cache filename.
// For ".../photos/abc123/small.jpg" it returns "abc123_small.jpg".
// It is pure: the same input always yields the same name.
func CacheFilename(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fallbackFilename(rawURL)
	}

	segments := pathSegments(u.Path)

	identifier := fallbackName
	for i, s := range segments {
		if s == photosMarker {
			if i+1 < len(segments) {
				identifier = segments[i+1]
			}
			break
		}
	}

	leaf := fallbackName
	if len(segments) > 0 {
		leaf = segments[len(segments)-1]
	}

	return identifier + "_" + leaf
}

func pathSegments(p string) []string {
	parts := strings.Split(p, "/")
	segments := make([]string, 0, len(parts))
	for _, s := range parts {
		if s != "" {
			segments = append(segments, s)
		}
	}
	return segments
}

// fallbackFilename handles strings that do not parse as a URL.
func fallbackFilename(raw string) string {
	name := raw[strings.LastIndex(raw, "/")+1:]
	switch name {
	case "", ".", "..":
		return fallbackName
	}
	return name
}

// Store reads and writes cached image files under a single directory.
type Store struct {
	dir    string
	logger *slog.Logger
}

// NewStore creates a Store rooted at dir. Creating the directory is
// best-effort: a failure is logged and surfaces later as ErrDiskWrite or
// ErrDiskRead.
func NewStore(dir string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}

	if err := os.MkdirAll(dir, dirPerm); err != nil {
		logger.Warn("failed to create image cache directory",
			"dir", dir,
			"error", err,
		)
	}

	return &Store{
		dir:    dir,
		logger: logger,
	}
}

// Dir returns the cache directory.
func (s *Store) Dir() string {
	return s.dir
}

// Path returns the file path an image URL is cached under.
func (s *Store) Path(rawURL string) string {
	return filepath.Join(s.dir, CacheFilename(rawURL))
}

// Save writes data verbatim to the derived file, replacing any previous
// content. The file appears complete or not at all, so readers sharing the
// directory never see a partial write.
func (s *Store) Save(ctx context.Context, rawURL string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", repository.ErrDiskWrite, err)
	}

	path := s.Path(rawURL)
	if err := writeFileAtomic(path, data); err != nil {
		return fmt.Errorf("%w: %w", repository.ErrDiskWrite, err)
	}

	s.logger.Debug("image saved to disk",
		"url", rawURL,
		"filename", filepath.Base(path),
		"bytes", len(data),
	)
	return nil
}

// writeFileAtomic writes to a unique temp file in the same directory and
// renames it over path.
func writeFileAtomic(path string, data []byte) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*"+tempSuffix)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmp.Name())
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err = tmp.Chmod(filePerm); err != nil {
		_ = tmp.Close()
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// Load reads and decodes the derived file.
//
// Error kinds (match with errors.Is):
//   - repository.ErrDiskRead: the file is missing or unreadable (wraps the fs error)
//   - repository.ErrInvalidData: the file exists but is not a decodable image
func (s *Store) Load(ctx context.Context, rawURL string) (*model.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", repository.ErrDiskRead, err)
	}

	data, err := os.ReadFile(s.Path(rawURL))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", repository.ErrDiskRead, err)
	}

	img, err := imaging.Decode(data)
	if err != nil {
		return nil, err
	}

	return img, nil
}
