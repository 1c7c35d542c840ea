// Package ledger implements the checkout log: an append-only audit trail of
// radio check-outs and check-ins.
package ledger

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rhymednick/inw-radio-log/internal/models"
	"github.com/rhymednick/inw-radio-log/internal/store"
	"github.com/samber/lo"
)

const (
	// CollectionName is the name of the live checkout log.
	CollectionName = "checkout-log"
	// ArchivePrefix is the store prefix of archived checkout logs.
	ArchivePrefix = "checkout-log-archives"
)

var (
	appendCounter = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "radiolog",
		Subsystem: "ledger",
		Name:      "entries_total",
		Help:      "The total number of checkout log entries appended",
	}, []string{"operation"})

	archiveCounter = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "radiolog",
		Subsystem: "ledger",
		Name:      "archives_total",
		Help:      "The total number of checkout log archives written",
	})
)

// Filter restricts a query. Empty fields match everything; set fields must all match.
type Filter struct {
	RadioID string
	UserID  string
}

func (f Filter) match(e models.LogEntry) bool {
	return (f.RadioID == "" || e.RadioID == f.RadioID) &&
		(f.UserID == "" || e.UserID == f.UserID)
}

// Archive describes a snapshot written by ArchiveAndClear.
type Archive struct {
	Name    string `json:"name"`
	Entries int    `json:"entries"`
}

// Ledger is the checkout log.
type Ledger struct {
	store   store.Store
	entries *store.Collection[models.LogEntry]
	now     func() time.Time
}

// New creates a Ledger stored in s.
func New(s store.Store) *Ledger {
	return &Ledger{
		store:   s,
		entries: store.NewCollection[models.LogEntry](s, CollectionName),
		now:     time.Now,
	}
}

// Append records a check-out or check-in dated now.
func (l *Ledger) Append(ctx context.Context, radioID, userID string, op models.Operation) (models.LogEntry, error) {
	switch {
	case radioID == "":
		return models.LogEntry{}, fmt.Errorf("%w: radioID is required", models.ErrBadRequest)
	case userID == "":
		return models.LogEntry{}, fmt.Errorf("%w: userID is required", models.ErrBadRequest)
	case op == "":
		return models.LogEntry{}, fmt.Errorf("%w: operation is required", models.ErrBadRequest)
	case !op.Valid():
		return models.LogEntry{}, fmt.Errorf("%w: unknown operation %q", models.ErrBadRequest, op)
	}

	entry := models.LogEntry{
		RadioID:   radioID,
		UserID:    userID,
		Operation: op,
		Date:      l.now(),
	}
	err := l.entries.Update(ctx, func(entries []models.LogEntry) ([]models.LogEntry, error) {
		return append(entries, entry), nil
	})
	if err != nil {
		return models.LogEntry{}, err
	}

	appendCounter.WithLabelValues(string(op)).Inc()
	log.Debug("appended checkout log entry", "radio", radioID, "user", userID, "operation", op)
	return entry, nil
}

// Query returns the entries matching f in arrival order.
func (l *Ledger) Query(ctx context.Context, f Filter) ([]models.LogEntry, error) {
	entries, err := l.entries.Load(ctx)
	if err != nil {
		return nil, err
	}
	return lo.Filter(entries, func(e models.LogEntry, _ int) bool {
		return f.match(e)
	}), nil
}

// ArchiveAndClear copies the live log to a new timestamped snapshot and
// empties it. Appends racing with the archive land either in the snapshot or
// in the emptied log, never in neither.
func (l *Ledger) ArchiveAndClear(ctx context.Context) (Archive, error) {
	name, err := store.UniqueName(ctx, l.store, store.TimestampedName(ArchivePrefix, CollectionName, l.now()))
	if err != nil {
		return Archive{}, fmt.Errorf("%w: failed to pick archive name: %w", models.ErrStorage, err)
	}
	n, err := l.entries.Rotate(ctx, name)
	if err != nil {
		return Archive{}, err
	}

	archiveCounter.Inc()
	log.Info("archived checkout log", "archive", name, "entries", n)
	return Archive{Name: name, Entries: n}, nil
}

// Archives returns the names of all archived logs, oldest first.
func (l *Ledger) Archives(ctx context.Context) ([]string, error) {
	names, err := l.store.List(ctx, ArchivePrefix+"/")
	if err != nil {
		return nil, fmt.Errorf("%w: failed to list archives: %w", models.ErrStorage, err)
	}
	return lo.Filter(names, func(name string, _ int) bool {
		return strings.HasPrefix(name, ArchivePrefix+"/"+CollectionName+"-")
	}), nil
}

// ReadArchive returns the entries of an archived log.
func (l *Ledger) ReadArchive(ctx context.Context, name string) ([]models.LogEntry, error) {
	if !strings.HasPrefix(name, ArchivePrefix+"/") {
		return nil, fmt.Errorf("%w: %q is not a checkout log archive", models.ErrBadRequest, name)
	}
	if err := store.ValidateName(name); err != nil {
		return nil, fmt.Errorf("%w: %w", models.ErrBadRequest, err)
	}
	snap, err := l.store.Read(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read %s: %w", models.ErrStorage, name, err)
	}
	if !snap.Exists {
		return nil, fmt.Errorf("%w: archive %s", models.ErrNotFound, name)
	}
	return store.NewCollection[models.LogEntry](l.store, name).Load(ctx)
}
