// Package archive implements the destructive maintenance operations: user
// backups, user registry reinitialisation, checkout log rotation, default
// inventory creation and photo compaction.
package archive

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/rhymednick/inw-radio-log/internal/inventory"
	"github.com/rhymednick/inw-radio-log/internal/ledger"
	"github.com/rhymednick/inw-radio-log/internal/models"
	"github.com/rhymednick/inw-radio-log/internal/photo"
	"github.com/rhymednick/inw-radio-log/internal/store"
	"github.com/rhymednick/inw-radio-log/internal/users"
	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"
)

const (
	// BackupPrefix is the store prefix of user backups.
	BackupPrefix = "backups"

	importConcurrency = 4
)

// Options configure the maintenance operations.
type Options struct {
	// ImportDir is the directory of photos ReinitializeUsers reads by default.
	ImportDir string
	// DefaultRadioCount and DefaultRadioName describe the default inventory.
	DefaultRadioCount int
	DefaultRadioName  string
	// CompactThreshold is the photo size in bytes above which photos are re-encoded.
	CompactThreshold int64
}

// Snapshot describes a collection copy written by a maintenance operation.
type Snapshot struct {
	Name    string `json:"name"`
	Records int    `json:"records"`
}

// Maintainer runs maintenance operations against the registry, inventory and ledger.
type Maintainer struct {
	store     store.Store
	users     *users.Registry
	inventory *inventory.Inventory
	ledger    *ledger.Ledger
	photos    photo.Store
	opts      Options
	now       func() time.Time
}

// New creates a Maintainer.
func New(s store.Store, registry *users.Registry, inv *inventory.Inventory, l *ledger.Ledger, photos photo.Store, opts Options) *Maintainer {
	return &Maintainer{
		store:     s,
		users:     registry,
		inventory: inv,
		ledger:    l,
		photos:    photos,
		opts:      opts,
		now:       time.Now,
	}
}

// BackupUsers copies the user collection to a new timestamped snapshot.
func (m *Maintainer) BackupUsers(ctx context.Context) (Snapshot, error) {
	name, err := store.UniqueName(ctx, m.store, store.TimestampedName(BackupPrefix, "users-backup", m.now()))
	if err != nil {
		return Snapshot{}, fmt.Errorf("%w: failed to pick backup name: %w", models.ErrStorage, err)
	}
	n, err := m.users.Collection().CopyTo(ctx, name)
	if err != nil {
		return Snapshot{}, err
	}
	log.Info("backed up users", "backup", name, "users", n)
	return Snapshot{Name: name, Records: n}, nil
}

// Backups returns the names of all user backups, oldest first.
func (m *Maintainer) Backups(ctx context.Context) ([]string, error) {
	names, err := m.store.List(ctx, BackupPrefix+"/")
	if err != nil {
		return nil, fmt.Errorf("%w: failed to list backups: %w", models.ErrStorage, err)
	}
	return names, nil
}

// ReinitializeUsers backs up the registry and replaces it with one user per
// image in dir. The user name is derived from the file name, so
// "jane_doe.jpg" becomes "Jane Doe". An empty dir uses the configured import
// directory.
func (m *Maintainer) ReinitializeUsers(ctx context.Context, dir string) (Snapshot, int, error) {
	if dir == "" {
		dir = m.opts.ImportDir
	}
	if dir == "" {
		return Snapshot{}, 0, fmt.Errorf("%w: no import directory configured", models.ErrBadRequest)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return Snapshot{}, 0, fmt.Errorf("%w: failed to read import directory: %w", models.ErrBadRequest, err)
	}

	backup, err := m.BackupUsers(ctx)
	if err != nil {
		return Snapshot{}, 0, err
	}

	files := lo.Filter(entries, func(e os.DirEntry, _ int) bool {
		return !e.IsDir() && photo.IsImageName(e.Name()) && NameFromFile(e.Name()) != ""
	})
	// the first file wins when two files map to the same name
	files = lo.UniqBy(files, func(e os.DirEntry) string {
		return photo.FileName(NameFromFile(e.Name()))
	})

	now := m.now()
	imported := make([]models.User, len(files))
	var mu sync.Mutex
	var photoFailures int

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(importConcurrency)
	for i, entry := range files {
		g.Go(func() error {
			name := NameFromFile(entry.Name())
			user := models.User{
				ID:          uuid.NewString(),
				Name:        name,
				LastUpdated: now,
			}
			url, err := m.importPhoto(gctx, filepath.Join(dir, entry.Name()), name)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				log.Warn("failed to import photo", "file", entry.Name(), "error", err)
				mu.Lock()
				photoFailures++
				mu.Unlock()
			}
			user.ProfilePhoto = url
			imported[i] = user
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return backup, 0, err
	}

	if err := m.users.Replace(ctx, imported); err != nil {
		return backup, 0, err
	}
	log.Info("reinitialized users", "dir", dir, "users", len(imported), "photo_failures", photoFailures, "backup", backup.Name)
	return backup, len(imported), nil
}

func (m *Maintainer) importPhoto(ctx context.Context, path, name string) (string, error) {
	data, err := os.ReadFile(path) //nolint:gosec
	if err != nil {
		return "", err
	}
	return m.photos.Save(ctx, photo.FileName(name), data)
}

// ArchiveLog archives and clears the checkout log.
func (m *Maintainer) ArchiveLog(ctx context.Context) (ledger.Archive, error) {
	return m.ledger.ArchiveAndClear(ctx)
}

// InitializeInventory creates the configured default radios.
func (m *Maintainer) InitializeInventory(ctx context.Context) (int, error) {
	return m.inventory.InitializeDefault(ctx, m.opts.DefaultRadioCount, m.opts.DefaultRadioName)
}

// CompactPhotos re-encodes stored photos above the configured size threshold.
// Backends that cannot compact report zero photos.
func (m *Maintainer) CompactPhotos(ctx context.Context) (int, error) {
	compactor, ok := m.photos.(photo.Compactor)
	if !ok {
		log.Debug("photo store does not support compaction")
		return 0, nil
	}
	n, err := compactor.Compact(ctx, m.opts.CompactThreshold)
	if err != nil {
		return n, fmt.Errorf("%w: photo compaction failed: %w", models.ErrStorage, err)
	}
	log.Info("compacted photos", "count", n)
	return n, nil
}

// NameFromFile derives a display name from an image file name:
// "jane_doe.jpg" becomes "Jane Doe".
func NameFromFile(file string) string {
	base := strings.TrimSuffix(file, filepath.Ext(file))
	words := strings.Fields(strings.ReplaceAll(base, "_", " "))
	for i, w := range words {
		r, size := utf8.DecodeRuneInString(w)
		words[i] = string(unicode.ToUpper(r)) + w[size:]
	}
	return strings.Join(words, " ")
}
