package ledger

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rhymednick/inw-radio-log/internal/models"
	"github.com/rhymednick/inw-radio-log/internal/store/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLedger(t *testing.T) (*Ledger, *memory.Store) {
	t.Helper()
	s := memory.New()
	l := New(s)
	clock := time.Date(2024, 10, 12, 14, 3, 22, 123_000_000, time.UTC)
	l.now = func() time.Time { return clock }
	return l, s
}

func TestAppend(t *testing.T) {
	ctx := context.Background()
	l, _ := newTestLedger(t)

	entry, err := l.Append(ctx, "R1", "U1", models.OperationCheckOut)
	require.NoError(t, err)
	assert.Equal(t, "R1", entry.RadioID)
	assert.Equal(t, "U1", entry.UserID)
	assert.Equal(t, models.OperationCheckOut, entry.Operation)
	assert.Equal(t, l.now(), entry.Date)

	entries, err := l.Query(ctx, Filter{})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.True(t, entry.Date.Equal(entries[0].Date))
}

func TestAppendValidation(t *testing.T) {
	tests := []struct {
		name    string
		radioID string
		userID  string
		op      models.Operation
	}{
		{"missing radio", "", "U1", models.OperationCheckOut},
		{"missing user", "R1", "", models.OperationCheckIn},
		{"missing operation", "R1", "U1", ""},
		{"unknown operation", "R1", "U1", "lend"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, _ := newTestLedger(t)
			_, err := l.Append(context.Background(), tt.radioID, tt.userID, tt.op)
			assert.ErrorIs(t, err, models.ErrBadRequest)

			entries, err := l.Query(context.Background(), Filter{})
			require.NoError(t, err)
			assert.Empty(t, entries)
		})
	}
}

func TestAppendAllowsDuplicates(t *testing.T) {
	ctx := context.Background()
	l, _ := newTestLedger(t)
	for range 2 {
		_, err := l.Append(ctx, "R1", "U1", models.OperationCheckOut)
		require.NoError(t, err)
	}
	entries, err := l.Query(ctx, Filter{})
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestQueryIsConjunctive(t *testing.T) {
	ctx := context.Background()
	l, _ := newTestLedger(t)
	seed := []struct{ radio, user string }{
		{"R1", "U1"}, {"R1", "U2"}, {"R2", "U2"}, {"R1", "U2"},
	}
	for _, s := range seed {
		_, err := l.Append(ctx, s.radio, s.user, models.OperationCheckOut)
		require.NoError(t, err)
	}

	tests := []struct {
		name   string
		filter Filter
		want   int
	}{
		{"no filter", Filter{}, 4},
		{"radio only", Filter{RadioID: "R1"}, 3},
		{"user only", Filter{UserID: "U2"}, 3},
		{"both", Filter{RadioID: "R1", UserID: "U2"}, 2},
		{"no match", Filter{RadioID: "R2", UserID: "U1"}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entries, err := l.Query(ctx, tt.filter)
			require.NoError(t, err)
			assert.Len(t, entries, tt.want)
			for _, e := range entries {
				assert.True(t, tt.filter.match(e))
			}
		})
	}
}

func TestArchiveAndClearTwice(t *testing.T) {
	ctx := context.Background()
	l, _ := newTestLedger(t)
	_, err := l.Append(ctx, "R1", "U1", models.OperationCheckOut)
	require.NoError(t, err)
	_, err = l.Append(ctx, "R1", "U1", models.OperationCheckIn)
	require.NoError(t, err)

	first, err := l.ArchiveAndClear(ctx)
	require.NoError(t, err)
	assert.Equal(t, "checkout-log-archives/checkout-log-2024-10-12T14-03-22-123Z", first.Name)
	assert.Equal(t, 2, first.Entries)

	second, err := l.ArchiveAndClear(ctx)
	require.NoError(t, err)
	assert.NotEqual(t, first.Name, second.Name)
	assert.Equal(t, 0, second.Entries)

	live, err := l.Query(ctx, Filter{})
	require.NoError(t, err)
	assert.Empty(t, live)

	archives, err := l.Archives(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{first.Name, second.Name}, archives)

	archived, err := l.ReadArchive(ctx, first.Name)
	require.NoError(t, err)
	assert.Len(t, archived, 2)

	archived, err = l.ReadArchive(ctx, second.Name)
	require.NoError(t, err)
	assert.Empty(t, archived)
}

func TestReadArchiveErrors(t *testing.T) {
	ctx := context.Background()
	l, _ := newTestLedger(t)

	_, err := l.ReadArchive(ctx, "users")
	assert.ErrorIs(t, err, models.ErrBadRequest)

	_, err = l.ReadArchive(ctx, ArchivePrefix+"/checkout-log-missing")
	assert.ErrorIs(t, err, models.ErrNotFound)

	for _, name := range []string{
		ArchivePrefix + "/../users",
		ArchivePrefix + "//checkout-log",
		ArchivePrefix + "/./checkout-log",
	} {
		_, err = l.ReadArchive(ctx, name)
		assert.ErrorIs(t, err, models.ErrBadRequest, name)
		assert.NotErrorIs(t, err, models.ErrStorage, name)
	}
}

func TestArchiveDoesNotLoseConcurrentAppends(t *testing.T) {
	ctx := context.Background()
	l, _ := newTestLedger(t)
	l.now = time.Now

	const appends = 40
	var wg sync.WaitGroup
	for range appends {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := l.Append(ctx, "R1", "U1", models.OperationCheckOut)
			assert.NoError(t, err)
		}()
	}

	var archived []Archive
	for range 3 {
		a, err := l.ArchiveAndClear(ctx)
		require.NoError(t, err)
		archived = append(archived, a)
	}
	wg.Wait()

	total := 0
	for _, a := range archived {
		total += a.Entries
	}
	live, err := l.Query(ctx, Filter{})
	require.NoError(t, err)
	assert.Equal(t, appends, total+len(live))
}

func TestStorageFailure(t *testing.T) {
	l, s := newTestLedger(t)
	s.ReadError = errors.New("io error")
	_, err := l.Query(context.Background(), Filter{})
	assert.ErrorIs(t, err, models.ErrStorage)
	_, err = l.Append(context.Background(), "R1", "U1", models.OperationCheckIn)
	assert.ErrorIs(t, err, models.ErrStorage)
}
