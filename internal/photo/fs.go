package photo

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/ccoveille/go-safecast"
	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"
)

var (
	_ Store     = (*FS)(nil)
	_ Compactor = (*FS)(nil)
)

// FS stores photos as files in a local directory. Archived photos live in
// the ArchiveDir sub-directory.
type FS struct {
	dir  string
	opts Options
	now  func() time.Time
}

// NewFS creates dir if needed and returns a filesystem photo store.
func NewFS(dir string, opts Options) (*FS, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create photo directory: %w", err)
	}
	return &FS{dir: dir, opts: opts, now: time.Now}, nil
}

// Dir returns the photo directory.
func (s *FS) Dir() string {
	return s.dir
}

func (s *FS) path(name string) (string, error) {
	if err := ValidateName(name); err != nil {
		return "", err
	}
	return filepath.Join(s.dir, name), nil
}

// Save implements Store.
func (s *FS) Save(_ context.Context, name string, data []byte) (string, error) {
	p, err := s.path(name)
	if err != nil {
		return "", err
	}
	normalized, err := Normalize(data, name, s.opts)
	if err != nil {
		return "", err
	}
	if err := writeAtomic(p, normalized); err != nil {
		return "", err
	}
	log.Debug("saved photo", "name", name, "size", humanize.Bytes(uint64(len(normalized))))
	return URL(name), nil
}

// Rename implements Store.
func (s *FS) Rename(_ context.Context, oldName, newName string) (string, error) {
	oldPath, err := s.path(oldName)
	if err != nil {
		return "", err
	}
	newPath, err := s.path(newName)
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(oldPath); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", ErrPhotoNotFound
		}
		return "", err
	}
	if err := os.Rename(oldPath, newPath); err != nil {
		return "", fmt.Errorf("failed to rename photo: %w", err)
	}
	return URL(newName), nil
}

// Archive implements Store.
func (s *FS) Archive(_ context.Context, name string) (string, error) {
	src, err := s.path(name)
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(src); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", ErrPhotoNotFound
		}
		return "", err
	}

	archiveDir := filepath.Join(s.dir, ArchiveDir)
	if err := os.MkdirAll(archiveDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create archive directory: %w", err)
	}

	archived := name
	if _, err := os.Stat(filepath.Join(archiveDir, archived)); err == nil {
		archived = ArchiveName(name, s.now())
	}
	if err := os.Rename(src, filepath.Join(archiveDir, archived)); err != nil {
		return "", fmt.Errorf("failed to archive photo: %w", err)
	}
	return archived, nil
}

// Open implements Store.
func (s *FS) Open(_ context.Context, name string) (io.ReadCloser, Info, error) {
	p, err := s.path(name)
	if err != nil {
		return nil, Info{}, err
	}
	f, err := os.Open(p) //nolint:gosec
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, Info{}, ErrPhotoNotFound
		}
		return nil, Info{}, err
	}
	fi, err := f.Stat()
	if err != nil {
		f.Close() //nolint:errcheck
		return nil, Info{}, err
	}
	if fi.IsDir() {
		f.Close() //nolint:errcheck
		return nil, Info{}, ErrPhotoNotFound
	}
	return f, Info{
		Name:        name,
		Size:        fi.Size(),
		ModTime:     fi.ModTime(),
		ContentType: ContentType(name),
	}, nil
}

// Exists implements Store.
func (s *FS) Exists(_ context.Context, name string) (bool, error) {
	p, err := s.path(name)
	if err != nil {
		return false, err
	}
	fi, err := os.Stat(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	return !fi.IsDir(), nil
}

// Compact implements Compactor. Archived photos are left alone.
func (s *FS) Compact(ctx context.Context, maxBytes int64) (int, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return 0, fmt.Errorf("failed to read photo directory: %w", err)
	}

	var compacted int
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return compacted, err
		}
		if entry.IsDir() || !IsImageName(entry.Name()) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			log.Warn("failed to stat photo", "name", entry.Name(), "error", err)
			continue
		}
		if info.Size() <= maxBytes {
			continue
		}

		p := filepath.Join(s.dir, entry.Name())
		data, err := os.ReadFile(p) //nolint:gosec
		if err != nil {
			log.Warn("failed to read photo", "name", entry.Name(), "error", err)
			continue
		}
		normalized, err := Normalize(data, entry.Name(), s.opts)
		if err != nil {
			log.Warn("failed to compact photo", "name", entry.Name(), "error", err)
			continue
		}
		if err := writeAtomic(p, normalized); err != nil {
			log.Warn("failed to write compacted photo", "name", entry.Name(), "error", err)
			continue
		}

		before, _ := safecast.ToUint64(info.Size())
		log.Info("compacted photo",
			"name", entry.Name(),
			"before", humanize.Bytes(before),
			"after", humanize.Bytes(uint64(len(normalized))),
		)
		compacted++
	}
	return compacted, nil
}

func writeAtomic(p string, data []byte) error {
	dir := filepath.Dir(p)
	tmp, err := os.CreateTemp(dir, ".tmp-"+filepath.Base(p)+"-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck

	if _, err := tmp.Write(data); err != nil {
		tmp.Close() //nolint:errcheck
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), p); err != nil {
		return fmt.Errorf("failed to move temp file: %w", err)
	}
	return nil
}
