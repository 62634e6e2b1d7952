package multivec

import (
	"cmp"
	"slices"

	"github.com/hupe1980/multivec/rangevec"
)

// vectorTable owns the named range containers. It knows nothing about
// groups; the coordinator composes it with the group registry.
type vectorTable[K cmp.Ordered, V any] struct {
	vectors map[K]*rangevec.Vector[V]
}

func newVectorTable[K cmp.Ordered, V any]() *vectorTable[K, V] {
	return &vectorTable[K, V]{
		vectors: make(map[K]*rangevec.Vector[V]),
	}
}

// create allocates a new empty container under name.
// No side effects on failure.
func (t *vectorTable[K, V]) create(name K, capacity int) error {
	if _, ok := t.vectors[name]; ok {
		return ErrDuplicateVector
	}
	v, err := rangevec.New[V](capacity)
	if err != nil {
		return err
	}
	t.vectors[name] = v
	return nil
}

// destroy removes the named container and returns its freed capacity.
// Containers holding entries cannot be destroyed; emptying first keeps the
// operation replayable for undo/redo-style callers.
func (t *vectorTable[K, V]) destroy(name K) (int, error) {
	v, ok := t.vectors[name]
	if !ok {
		return 0, ErrUnknownVector
	}
	if v.Len() != 0 {
		return 0, ErrVectorNotEmpty
	}
	delete(t.vectors, name)
	return v.Capacity(), nil
}

func (t *vectorTable[K, V]) get(name K) (*rangevec.Vector[V], bool) {
	v, ok := t.vectors[name]
	return v, ok
}

// len returns the total entry count summed across all containers.
func (t *vectorTable[K, V]) len() int {
	total := 0
	for _, v := range t.vectors {
		total += v.Len()
	}
	return total
}

// count returns the number of containers.
func (t *vectorTable[K, V]) count() int {
	return len(t.vectors)
}

// names returns all vector names in ascending order.
func (t *vectorTable[K, V]) names() []K {
	out := make([]K, 0, len(t.vectors))
	for name := range t.vectors {
		out = append(out, name)
	}
	slices.Sort(out)
	return out
}
