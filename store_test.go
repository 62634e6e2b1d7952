package multivec

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/multivec/blobstore"
	"github.com/hupe1980/multivec/resource"
)

func TestSaveToStore(t *testing.T) {
	ctx := context.Background()

	t.Run("roundtrip through memory store", func(t *testing.T) {
		store := blobstore.NewMemoryStore()
		mv := populated(t)

		name := SnapshotName(time.Now())
		require.NoError(t, mv.SaveToStore(ctx, store, name))

		// The pointer names the snapshot we just wrote.
		current, err := blobstore.ReadAll(ctx, store, CurrentPointer)
		require.NoError(t, err)
		assert.Equal(t, name, string(current))

		got, err := NewFromStore[string, string](ctx, store)
		require.NoError(t, err)
		verifyRestored(t, got)
	})

	t.Run("roundtrip through local store", func(t *testing.T) {
		store, err := blobstore.NewLocalStore(t.TempDir())
		require.NoError(t, err)
		require.NoError(t, store.Lock())
		defer store.Unlock()

		mv := populated(t)
		require.NoError(t, mv.SaveToStore(ctx, store, SnapshotName(time.Now())))

		got, err := NewFromStore[string, string](ctx, store)
		require.NoError(t, err)
		verifyRestored(t, got)
	})

	t.Run("load without committed snapshot", func(t *testing.T) {
		store := blobstore.NewMemoryStore()

		_, err := NewFromStore[string, string](ctx, store)
		require.ErrorIs(t, err, blobstore.ErrNotFound)
	})

	t.Run("load specific snapshot", func(t *testing.T) {
		store := blobstore.NewMemoryStore()
		mv := populated(t)

		old := SnapshotName(time.Now())
		require.NoError(t, mv.SaveToStore(ctx, store, old))

		_, err := mv.InsertEntry("a", "later", 60, 5)
		require.NoError(t, err)
		require.NoError(t, mv.SaveToStore(ctx, store, SnapshotName(time.Now().Add(time.Second))))

		got, err := LoadFromStore[string, string](ctx, store, old)
		require.NoError(t, err)
		assert.Equal(t, 3, got.Len())
	})

	t.Run("throttled by resource controller", func(t *testing.T) {
		store := blobstore.NewMemoryStore()
		rc := resource.NewController(resource.Config{
			MaxConcurrentTransfers: 2,
			IOLimitBytesPerSec:     1 << 20,
		})
		mv := populated(t)
		mv.resources = rc

		require.NoError(t, mv.SaveToStore(ctx, store, SnapshotName(time.Now())))

		got, err := NewFromStore[string, string](ctx, store, WithResourceController(rc))
		require.NoError(t, err)
		verifyRestored(t, got)
	})
}

func TestSnapshotName(t *testing.T) {
	t1 := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	t2 := t1.Add(time.Millisecond)

	n1, n2 := SnapshotName(t1), SnapshotName(t2)
	assert.Less(t, n1, n2, "names must sort chronologically")
	assert.Contains(t, n1, SnapshotPrefix)
}

func TestPruneSnapshots(t *testing.T) {
	ctx := context.Background()

	t.Run("keeps newest and current", func(t *testing.T) {
		store := blobstore.NewMemoryStore()
		mv := populated(t)

		base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
		var names []string
		for i := range 5 {
			name := SnapshotName(base.Add(time.Duration(i) * time.Minute))
			names = append(names, name)
			require.NoError(t, mv.SaveToStore(ctx, store, name))
		}

		// Point CURRENT at an old snapshot so pruning has to spare it.
		require.NoError(t, store.Put(ctx, CurrentPointer, []byte(names[0])))

		removed, err := PruneSnapshots(ctx, store, 2)
		require.NoError(t, err)
		assert.Equal(t, 2, removed) // names[1], names[2]

		left, err := store.List(ctx, SnapshotPrefix)
		require.NoError(t, err)
		assert.Equal(t, []string{names[0], names[3], names[4]}, left)
	})

	t.Run("keep zero", func(t *testing.T) {
		store := blobstore.NewMemoryStore()
		for i := range 3 {
			require.NoError(t, store.Put(ctx, fmt.Sprintf("%s%03d.mvsn", SnapshotPrefix, i), []byte("x")))
		}

		removed, err := PruneSnapshots(ctx, store, 0)
		require.NoError(t, err)
		assert.Equal(t, 3, removed)
	})

	t.Run("nothing to prune", func(t *testing.T) {
		store := blobstore.NewMemoryStore()

		removed, err := PruneSnapshots(ctx, store, 3)
		require.NoError(t, err)
		assert.Zero(t, removed)
	})
}
