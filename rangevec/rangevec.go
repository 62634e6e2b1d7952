// Package rangevec implements a fixed-capacity container whose entries
// occupy contiguous, non-overlapping offset ranges.
//
// A Vector stores values keyed by the half-open range [Start, Start+Size).
// Lookups resolve any offset inside a range to the entry covering it, which
// makes the container suitable for modeling annotated byte buffers where a
// single value spans several offsets.
//
// Occupancy is tracked with a Roaring Bitmap, so overlap checks and coverage
// lookups stay cheap even for sparse, fragmented layouts.
package rangevec

import (
	"errors"
	"fmt"
	"iter"
	"sort"

	"github.com/RoaringBitmap/roaring/v2"
)

var (
	// ErrNotFound is returned when no entry covers the requested offset.
	ErrNotFound = errors.New("no entry covers offset")

	// ErrZeroSize is returned when an entry with a non-positive size is inserted.
	ErrZeroSize = errors.New("entry size must be positive")

	// ErrInvalidCapacity is returned when a vector is created with a
	// non-positive capacity.
	ErrInvalidCapacity = errors.New("capacity must be positive")
)

// BoundsError indicates a range that does not fit in [0, capacity).
type BoundsError struct {
	Start    int
	Size     int
	Capacity int
}

func (e *BoundsError) Error() string {
	return fmt.Sprintf("range [%d, %d) out of bounds for capacity %d", e.Start, e.Start+e.Size, e.Capacity)
}

// OverlapError indicates a range that intersects an existing entry.
type OverlapError struct {
	Start int
	Size  int
}

func (e *OverlapError) Error() string {
	return fmt.Sprintf("range [%d, %d) overlaps an existing entry", e.Start, e.Start+e.Size)
}

// Entry is a value together with the range it occupies.
type Entry[V any] struct {
	Value V
	Start int
	Size  int
}

// End returns the exclusive end offset of the entry's range.
func (e Entry[V]) End() int { return e.Start + e.Size }

// Vector is a fixed-capacity, range-indexed container.
//
// Vector is not safe for concurrent use; callers coordinate access.
type Vector[V any] struct {
	capacity int
	entries  map[int]Entry[V] // keyed by Start
	starts   []int            // sorted Start offsets
	occupied *roaring.Bitmap  // every offset covered by some entry
}

// New creates an empty vector with the given capacity.
func New[V any](capacity int) (*Vector[V], error) {
	if capacity <= 0 {
		return nil, ErrInvalidCapacity
	}
	return &Vector[V]{
		capacity: capacity,
		entries:  make(map[int]Entry[V]),
		occupied: roaring.New(),
	}, nil
}

// Capacity returns the fixed capacity of the vector.
func (v *Vector[V]) Capacity() int { return v.capacity }

// Len returns the number of entries in the vector.
func (v *Vector[V]) Len() int { return len(v.entries) }

// CheckRange reports whether [start, start+size) could be inserted: it must
// have positive size, fit in [0, capacity) and not intersect any existing
// entry. It performs no mutation.
func (v *Vector[V]) CheckRange(start, size int) error {
	if size <= 0 {
		return ErrZeroSize
	}
	if start < 0 || start+size > v.capacity {
		return &BoundsError{Start: start, Size: size, Capacity: v.capacity}
	}
	if v.rangeOccupied(start, start+size) {
		return &OverlapError{Start: start, Size: size}
	}
	return nil
}

// Insert places value at [start, start+size). It fails with ErrZeroSize, a
// BoundsError or an OverlapError and leaves the vector unchanged on failure.
func (v *Vector[V]) Insert(start, size int, value V) error {
	if err := v.CheckRange(start, size); err != nil {
		return err
	}

	v.entries[start] = Entry[V]{Value: value, Start: start, Size: size}
	i := sort.SearchInts(v.starts, start)
	v.starts = append(v.starts, 0)
	copy(v.starts[i+1:], v.starts[i:])
	v.starts[i] = start
	v.occupied.AddRange(uint64(start), uint64(start+size))

	return nil
}

// EntryAt returns the entry covering offset, if any.
func (v *Vector[V]) EntryAt(offset int) (Entry[V], bool) {
	if offset < 0 || offset >= v.capacity || !v.occupied.Contains(uint32(offset)) {
		var zero Entry[V]
		return zero, false
	}

	// The covering entry has the greatest Start <= offset.
	i := sort.SearchInts(v.starts, offset+1) - 1
	if i < 0 {
		var zero Entry[V]
		return zero, false
	}
	e := v.entries[v.starts[i]]
	if offset >= e.End() {
		var zero Entry[V]
		return zero, false
	}
	return e, true
}

// Remove deletes and returns the entry covering offset.
func (v *Vector[V]) Remove(offset int) (Entry[V], error) {
	e, ok := v.EntryAt(offset)
	if !ok {
		var zero Entry[V]
		return zero, ErrNotFound
	}

	delete(v.entries, e.Start)
	i := sort.SearchInts(v.starts, e.Start)
	v.starts = append(v.starts[:i], v.starts[i+1:]...)
	v.occupied.RemoveRange(uint64(e.Start), uint64(e.End()))

	return e, nil
}

// Starts returns the start offsets of all entries in ascending order.
// The returned slice is a copy.
func (v *Vector[V]) Starts() []int {
	out := make([]int, len(v.starts))
	copy(out, v.starts)
	return out
}

// All iterates over the entries in ascending start order.
func (v *Vector[V]) All() iter.Seq[Entry[V]] {
	return func(yield func(Entry[V]) bool) {
		for _, start := range v.starts {
			if !yield(v.entries[start]) {
				return
			}
		}
	}
}

// rangeOccupied reports whether any offset in [start, end) is covered.
func (v *Vector[V]) rangeOccupied(start, end int) bool {
	// Rank(x) counts set bits <= x, so the covered count inside the range is
	// Rank(end-1) - Rank(start-1).
	hi := v.occupied.Rank(uint32(end - 1))
	var lo uint64
	if start > 0 {
		lo = v.occupied.Rank(uint32(start - 1))
	}
	return hi > lo
}
