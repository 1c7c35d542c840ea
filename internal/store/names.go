package store

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"
)

var stampReplacer = strings.NewReplacer(":", "-", ".", "-")

// TimestampedName returns prefix/base-<UTC timestamp>, e.g.
// "backups/users-backup-2024-10-12T14-03-22-123Z".
func TimestampedName(prefix, base string, t time.Time) string {
	stamp := stampReplacer.Replace(t.UTC().Format("2006-01-02T15:04:05.000Z"))
	return path.Join(prefix, base+"-"+stamp)
}

// UniqueName returns name if nothing is stored under it yet, otherwise the
// first free name-1, name-2, ...
func UniqueName(ctx context.Context, s Store, name string) (string, error) {
	candidate := name
	for i := 1; ; i++ {
		snap, err := s.Read(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !snap.Exists {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", name, i)
	}
}
