package multivec

import (
	"bytes"
	"cmp"
	"context"
	"fmt"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/multivec/blobstore"
	"github.com/hupe1980/multivec/resource"
)

// CurrentPointer is the blob name holding the name of the latest snapshot.
const CurrentPointer = "CURRENT"

// SnapshotPrefix is the blob name prefix under which SaveToStore writes
// snapshots.
const SnapshotPrefix = "snapshots/"

// SnapshotName builds a store blob name from a timestamp. Names sort
// lexicographically in chronological order.
func SnapshotName(t time.Time) string {
	return fmt.Sprintf("%s%s.mvsn", SnapshotPrefix, t.UTC().Format("20060102T150405.000000000"))
}

// SaveToStore writes a snapshot blob under name and then points
// CurrentPointer at it. With a blobstore/s3.CommitStore the pointer update
// is a compare-and-swap, so concurrent savers cannot clobber each other.
//
// If a resource controller is configured, the upload takes a transfer slot
// and respects the IO rate limit.
func (mv *MultiVector[K, V]) SaveToStore(ctx context.Context, store blobstore.BlobStore, name string) error {
	start := time.Now()
	n, err := mv.saveToStore(ctx, store, name)
	mv.metrics.RecordSnapshot(n, time.Since(start), err)
	mv.logger.LogSnapshot(name, n, err)
	return err
}

func (mv *MultiVector[K, V]) saveToStore(ctx context.Context, store blobstore.BlobStore, name string) (int, error) {
	if err := mv.resources.AcquireTransfer(ctx); err != nil {
		return 0, err
	}
	defer mv.resources.ReleaseTransfer()

	w, err := store.Create(ctx, name)
	if err != nil {
		return 0, fmt.Errorf("create snapshot blob: %w", err)
	}

	n, err := mv.SaveToWriter(resource.LimitWriter(ctx, mv.resources, w))
	if err != nil {
		_ = w.Close()
		return n, err
	}
	if err := w.Sync(); err != nil {
		_ = w.Close()
		return n, err
	}
	if err := w.Close(); err != nil {
		return n, err
	}

	if err := store.Put(ctx, CurrentPointer, []byte(name)); err != nil {
		return n, fmt.Errorf("update %s: %w", CurrentPointer, err)
	}
	return n, nil
}

// NewFromStore loads the snapshot CurrentPointer names. It fails with
// blobstore.ErrNotFound when the store has no committed snapshot yet.
func NewFromStore[K cmp.Ordered, V any](ctx context.Context, store blobstore.BlobStore, optFns ...Option) (*MultiVector[K, V], error) {
	current, err := blobstore.ReadAll(ctx, store, CurrentPointer)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", CurrentPointer, err)
	}
	return LoadFromStore[K, V](ctx, store, string(bytes.TrimSpace(current)), optFns...)
}

// LoadFromStore loads a specific snapshot blob by name, bypassing the
// current pointer. Useful for inspecting older snapshots.
func LoadFromStore[K cmp.Ordered, V any](ctx context.Context, store blobstore.BlobStore, name string, optFns ...Option) (*MultiVector[K, V], error) {
	opts := applyOptions(optFns)

	if err := opts.resources.AcquireTransfer(ctx); err != nil {
		return nil, err
	}
	defer opts.resources.ReleaseTransfer()

	b, err := store.Open(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("open snapshot blob %s: %w", name, err)
	}
	defer b.Close()

	rc, err := b.ReadRange(ctx, 0, b.Size())
	if err != nil {
		return nil, fmt.Errorf("read snapshot blob %s: %w", name, err)
	}
	defer rc.Close()

	return NewFromReader[K, V](resource.LimitReader(ctx, opts.resources, rc), optFns...)
}

// PruneSnapshots deletes all but the newest keep snapshots under
// SnapshotPrefix. The snapshot the current pointer names is never deleted.
// Deletions run concurrently; the number of removed snapshots is returned.
func PruneSnapshots(ctx context.Context, store blobstore.BlobStore, keep int) (int, error) {
	if keep < 0 {
		keep = 0
	}

	names, err := store.List(ctx, SnapshotPrefix)
	if err != nil {
		return 0, err
	}
	sort.Strings(names)

	current := ""
	if data, err := blobstore.ReadAll(ctx, store, CurrentPointer); err == nil {
		current = string(bytes.TrimSpace(data))
	}

	var victims []string
	for _, name := range names[:max(0, len(names)-keep)] {
		if name != current {
			victims = append(victims, name)
		}
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for _, name := range victims {
		g.Go(func() error {
			return store.Delete(ctx, name)
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}
	return len(victims), nil
}
