package store

import (
	"context"
	"fmt"
)

// Copy writes every collection of src into dst, replacing what dst holds
// under the same names, and returns the number of collections copied.
func Copy(ctx context.Context, dst, src Store) (int, error) {
	names, err := src.List(ctx, "")
	if err != nil {
		return 0, fmt.Errorf("failed to list source collections: %w", err)
	}

	var copied int
	for _, name := range names {
		snap, err := src.Read(ctx, name)
		if err != nil {
			return copied, fmt.Errorf("failed to read %s: %w", name, err)
		}
		if !snap.Exists {
			continue
		}
		cur, err := dst.Read(ctx, name)
		if err != nil {
			return copied, fmt.Errorf("failed to read %s from destination: %w", name, err)
		}
		if _, err := dst.Write(ctx, name, snap.Data, cur.Version); err != nil {
			return copied, fmt.Errorf("failed to write %s: %w", name, err)
		}
		copied++
	}
	return copied, nil
}
