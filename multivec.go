package multivec

import (
	"cmp"
	"fmt"
	"sync"
	"time"

	"github.com/hupe1980/multivec/codec"
	"github.com/hupe1980/multivec/group"
	"github.com/hupe1980/multivec/rangevec"
	"github.com/hupe1980/multivec/resource"
)

// BatchItem describes one entry of a batch insert: a value occupying
// [Start, Start+Size) in the named vector.
type BatchItem[K cmp.Ordered, V any] struct {
	Vector K
	Value  V
	Start  int
	Size   int
}

// Entry is an entry together with its owning vector and group.
// It is returned by lookups and removals.
type Entry[K cmp.Ordered, V any] struct {
	rangevec.Entry[V]

	// Vector is the name of the owning vector.
	Vector K

	// Group identifies the group the entry belonged to at lookup/removal
	// time.
	Group group.ID
}

// MultiVector coordinates named range containers and the groups that span
// them. The zero value is not usable; use New or NewFromReader.
//
// All operations are safe for concurrent use: a single exclusive lock
// serializes them. There is deliberately no finer-grained locking, because
// cross-vector groups make partial concurrency unsafe (an insert into vector
// A can race with a cascading removal touching A that was rooted in vector
// B).
type MultiVector[K cmp.Ordered, V any] struct {
	mu     sync.Mutex
	table  *vectorTable[K, V]
	groups *group.Registry[K]

	codec       codec.Codec
	compression Compression
	metrics     MetricsCollector
	logger      *Logger
	resources   *resource.Controller
}

// New creates a new, empty MultiVector.
func New[K cmp.Ordered, V any](optFns ...Option) *MultiVector[K, V] {
	opts := applyOptions(optFns)
	return &MultiVector[K, V]{
		table:       newVectorTable[K, V](),
		groups:      group.NewRegistry[K](),
		codec:       opts.codec,
		compression: opts.compression,
		metrics:     opts.metrics,
		logger:      opts.logger,
		resources:   opts.resources,
	}
}

// CreateVector creates a vector with the given name and capacity.
// It fails with ErrDuplicateVector if the name is taken and with
// rangevec.ErrInvalidCapacity if capacity is not positive.
func (mv *MultiVector[K, V]) CreateVector(name K, capacity int) error {
	mv.mu.Lock()
	defer mv.mu.Unlock()

	err := mv.table.create(name, capacity)
	mv.logger.LogCreateVector(name, capacity, err)
	if err != nil {
		return fmt.Errorf("%w: %v", err, name)
	}
	return nil
}

// DestroyVector removes the named vector and returns its capacity (for ease
// of re-creation in an undo path). It fails with ErrUnknownVector if absent
// and ErrVectorNotEmpty while any entry remains.
func (mv *MultiVector[K, V]) DestroyVector(name K) (int, error) {
	mv.mu.Lock()
	defer mv.mu.Unlock()

	capacity, err := mv.table.destroy(name)
	mv.logger.LogDestroyVector(name, capacity, err)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", err, name)
	}
	return capacity, nil
}

// InsertEntries inserts a grouped batch of entries, possibly spanning
// several vectors, and returns the ID of the newly formed group.
//
// The batch is atomic: validation runs in full before any mutation, so
// either every entry is inserted and registered under one group, or the
// call fails with the specific error (ErrUnknownVector, ErrRangeOutOfBounds,
// ErrRangeOverlap, ErrEmptyBatch) and all state is untouched. Items are
// also validated against earlier items of the same batch destined for the
// same vector.
func (mv *MultiVector[K, V]) InsertEntries(batch []BatchItem[K, V]) (group.ID, error) {
	start := time.Now()

	mv.mu.Lock()
	id, err := mv.insertEntriesLocked(batch)
	mv.mu.Unlock()

	mv.metrics.RecordBatchInsert(len(batch), time.Since(start), err)
	mv.logger.LogInsertBatch(len(batch), uint64(id), err)
	return id, err
}

// InsertEntry inserts a single entry forming its own group.
// It is a convenience wrapper around InsertEntries.
func (mv *MultiVector[K, V]) InsertEntry(name K, value V, start, size int) (group.ID, error) {
	return mv.InsertEntries([]BatchItem[K, V]{
		{Vector: name, Value: value, Start: start, Size: size},
	})
}

type span struct {
	start, end int
}

func (mv *MultiVector[K, V]) insertEntriesLocked(batch []BatchItem[K, V]) (group.ID, error) {
	if len(batch) == 0 {
		return 0, ErrEmptyBatch
	}

	// Phase 1: dry-run validation. Pure, side-effect free.
	pending := make(map[K][]span)
	for _, item := range batch {
		v, ok := mv.table.get(item.Vector)
		if !ok {
			return 0, fmt.Errorf("%w: %v", ErrUnknownVector, item.Vector)
		}
		if err := v.CheckRange(item.Start, item.Size); err != nil {
			return 0, translateError(err)
		}
		end := item.Start + item.Size
		for _, p := range pending[item.Vector] {
			if item.Start < p.end && p.start < end {
				return 0, translateError(&rangevec.OverlapError{Start: item.Start, Size: item.Size})
			}
		}
		pending[item.Vector] = append(pending[item.Vector], span{start: item.Start, end: end})
	}

	// Phase 2: commit. Validation passed, so no insert can fail; a failure
	// here is a bug and must not be papered over.
	members := make([]group.Member[K], len(batch))
	for i, item := range batch {
		v, _ := mv.table.get(item.Vector)
		if err := v.Insert(item.Start, item.Size, item.Value); err != nil {
			return 0, fmt.Errorf("%w: validated insert failed: %w", ErrInvariantViolation, err)
		}
		members[i] = group.Member[K]{Vector: item.Vector, Start: item.Start}
	}

	return mv.groups.NewGroup(members), nil
}

// RemoveEntries removes the whole group of the entry covering offset in the
// named vector and returns the removed entries in the insertion order of the
// original batch. Members may span multiple vectors.
func (mv *MultiVector[K, V]) RemoveEntries(name K, offset int) ([]Entry[K, V], error) {
	start := time.Now()

	mv.mu.Lock()
	removed, err := mv.removeEntriesLocked(name, offset)
	mv.mu.Unlock()

	mv.metrics.RecordRemove(len(removed), time.Since(start), err)
	mv.logger.LogRemoveGroup(name, offset, len(removed), err)
	return removed, err
}

func (mv *MultiVector[K, V]) removeEntriesLocked(name K, offset int) ([]Entry[K, V], error) {
	id, _, err := mv.resolveLocked(name, offset)
	if err != nil {
		return nil, err
	}

	members := mv.groups.MembersOf(id)
	removed := make([]Entry[K, V], 0, len(members))
	for _, m := range members {
		v, ok := mv.table.get(m.Vector)
		if !ok {
			return removed, fmt.Errorf("%w: group %d references missing vector %v", ErrInvariantViolation, id, m.Vector)
		}
		e, err := v.Remove(m.Start)
		if err != nil {
			return removed, fmt.Errorf("%w: group %d references missing entry %v@%d: %w", ErrInvariantViolation, id, m.Vector, m.Start, err)
		}
		removed = append(removed, Entry[K, V]{Entry: e, Vector: m.Vector, Group: id})
	}
	mv.groups.Remove(id)

	return removed, nil
}

// UnlinkEntry detaches the entry covering offset from its group into a new
// singleton group. The entry itself is untouched; this is purely grouping
// metadata. Afterwards, removing the entry removes only itself, and removing
// any remaining original group member no longer affects it.
func (mv *MultiVector[K, V]) UnlinkEntry(name K, offset int) error {
	start := time.Now()

	mv.mu.Lock()
	err := mv.unlinkEntryLocked(name, offset)
	mv.mu.Unlock()

	mv.metrics.RecordUnlink(time.Since(start), err)
	mv.logger.LogUnlink(name, offset, err)
	return err
}

func (mv *MultiVector[K, V]) unlinkEntryLocked(name K, offset int) error {
	_, entry, err := mv.resolveLocked(name, offset)
	if err != nil {
		return err
	}

	_, err = mv.groups.SplitOff(group.Member[K]{Vector: name, Start: entry.Start})
	return translateError(err)
}

// GetEntry returns the entry covering offset in the named vector without
// removing it.
func (mv *MultiVector[K, V]) GetEntry(name K, offset int) (Entry[K, V], bool) {
	mv.mu.Lock()
	defer mv.mu.Unlock()

	v, ok := mv.table.get(name)
	if !ok {
		var zero Entry[K, V]
		return zero, false
	}
	e, ok := v.EntryAt(offset)
	if !ok {
		var zero Entry[K, V]
		return zero, false
	}
	id, _ := mv.groups.GroupOf(group.Member[K]{Vector: name, Start: e.Start})
	return Entry[K, V]{Entry: e, Vector: name, Group: id}, true
}

// GetEntries returns the full group of the entry covering offset, in batch
// insertion order, without removing anything.
func (mv *MultiVector[K, V]) GetEntries(name K, offset int) ([]Entry[K, V], error) {
	mv.mu.Lock()
	defer mv.mu.Unlock()

	id, _, err := mv.resolveLocked(name, offset)
	if err != nil {
		return nil, err
	}

	members := mv.groups.MembersOf(id)
	out := make([]Entry[K, V], 0, len(members))
	for _, m := range members {
		v, ok := mv.table.get(m.Vector)
		if !ok {
			return nil, fmt.Errorf("%w: group %d references missing vector %v", ErrInvariantViolation, id, m.Vector)
		}
		e, ok := v.EntryAt(m.Start)
		if !ok {
			return nil, fmt.Errorf("%w: group %d references missing entry %v@%d", ErrInvariantViolation, id, m.Vector, m.Start)
		}
		out = append(out, Entry[K, V]{Entry: e, Vector: m.Vector, Group: id})
	}

	return out, nil
}

// GroupOf returns the group ID of the entry covering offset.
func (mv *MultiVector[K, V]) GroupOf(name K, offset int) (group.ID, error) {
	mv.mu.Lock()
	defer mv.mu.Unlock()

	id, _, err := mv.resolveLocked(name, offset)
	return id, err
}

// resolveLocked locates the entry covering offset and its group.
// Callers hold mv.mu.
func (mv *MultiVector[K, V]) resolveLocked(name K, offset int) (group.ID, rangevec.Entry[V], error) {
	var zero rangevec.Entry[V]

	v, ok := mv.table.get(name)
	if !ok {
		return 0, zero, fmt.Errorf("%w: %v", ErrUnknownVector, name)
	}
	e, ok := v.EntryAt(offset)
	if !ok {
		return 0, zero, fmt.Errorf("%w: no entry covers %v@%d", ErrEntryNotFound, name, offset)
	}
	id, ok := mv.groups.GroupOf(group.Member[K]{Vector: name, Start: e.Start})
	if !ok {
		return 0, zero, fmt.Errorf("%w: entry %v@%d exists but is untracked", ErrInvariantViolation, name, e.Start)
	}

	return id, e, nil
}

// Len returns the total number of entries across all vectors.
func (mv *MultiVector[K, V]) Len() int {
	mv.mu.Lock()
	defer mv.mu.Unlock()
	return mv.table.len()
}

// VectorCount returns the number of vectors.
func (mv *MultiVector[K, V]) VectorCount() int {
	mv.mu.Lock()
	defer mv.mu.Unlock()
	return mv.table.count()
}

// VectorExists reports whether a vector with the given name exists.
func (mv *MultiVector[K, V]) VectorExists(name K) bool {
	mv.mu.Lock()
	defer mv.mu.Unlock()
	_, ok := mv.table.get(name)
	return ok
}

// VectorLen returns the number of entries in the named vector.
func (mv *MultiVector[K, V]) VectorLen(name K) (int, error) {
	mv.mu.Lock()
	defer mv.mu.Unlock()

	v, ok := mv.table.get(name)
	if !ok {
		return 0, fmt.Errorf("%w: %v", ErrUnknownVector, name)
	}
	return v.Len(), nil
}

// VectorCapacity returns the capacity of the named vector.
func (mv *MultiVector[K, V]) VectorCapacity(name K) (int, error) {
	mv.mu.Lock()
	defer mv.mu.Unlock()

	v, ok := mv.table.get(name)
	if !ok {
		return 0, fmt.Errorf("%w: %v", ErrUnknownVector, name)
	}
	return v.Capacity(), nil
}

// GroupCount returns the number of live groups.
func (mv *MultiVector[K, V]) GroupCount() int {
	mv.mu.Lock()
	defer mv.mu.Unlock()
	return mv.groups.Count()
}
