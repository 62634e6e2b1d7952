package rangevec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	t.Run("ValidCapacity", func(t *testing.T) {
		v, err := New[string](100)
		require.NoError(t, err)
		assert.Equal(t, 100, v.Capacity())
		assert.Equal(t, 0, v.Len())
	})

	t.Run("InvalidCapacity", func(t *testing.T) {
		_, err := New[string](0)
		require.ErrorIs(t, err, ErrInvalidCapacity)

		_, err = New[string](-5)
		require.ErrorIs(t, err, ErrInvalidCapacity)
	})
}

func TestInsert(t *testing.T) {
	t.Run("NonOverlapping", func(t *testing.T) {
		v, err := New[string](100)
		require.NoError(t, err)

		require.NoError(t, v.Insert(0, 10, "a"))
		require.NoError(t, v.Insert(10, 10, "b"))
		require.NoError(t, v.Insert(50, 25, "c"))
		assert.Equal(t, 3, v.Len())
	})

	t.Run("ZeroSize", func(t *testing.T) {
		v, err := New[string](100)
		require.NoError(t, err)

		require.ErrorIs(t, v.Insert(0, 0, "a"), ErrZeroSize)
		require.ErrorIs(t, v.Insert(0, -1, "a"), ErrZeroSize)
		assert.Equal(t, 0, v.Len())
	})

	t.Run("OutOfBounds", func(t *testing.T) {
		v, err := New[string](100)
		require.NoError(t, err)

		var be *BoundsError
		require.ErrorAs(t, v.Insert(95, 10, "a"), &be)
		assert.Equal(t, 95, be.Start)
		assert.Equal(t, 100, be.Capacity)

		require.ErrorAs(t, v.Insert(-1, 5, "a"), &be)
		require.ErrorAs(t, v.Insert(100, 1, "a"), &be)
		assert.Equal(t, 0, v.Len())
	})

	t.Run("Overlap", func(t *testing.T) {
		v, err := New[string](100)
		require.NoError(t, err)
		require.NoError(t, v.Insert(10, 10, "a"))

		var oe *OverlapError
		require.ErrorAs(t, v.Insert(10, 10, "b"), &oe) // exact
		require.ErrorAs(t, v.Insert(5, 6, "b"), &oe)   // head
		require.ErrorAs(t, v.Insert(19, 5, "b"), &oe)  // tail
		require.ErrorAs(t, v.Insert(0, 100, "b"), &oe) // envelope
		assert.Equal(t, 1, v.Len())

		// Touching ranges are fine.
		require.NoError(t, v.Insert(0, 10, "b"))
		require.NoError(t, v.Insert(20, 10, "c"))
	})
}

func TestEntryAt(t *testing.T) {
	v, err := New[int](200)
	require.NoError(t, err)
	require.NoError(t, v.Insert(0, 1, 111))
	require.NoError(t, v.Insert(5, 5, 222))
	require.NoError(t, v.Insert(100, 100, 333))

	t.Run("CoveringOffsets", func(t *testing.T) {
		e, ok := v.EntryAt(0)
		require.True(t, ok)
		assert.Equal(t, 111, e.Value)

		e, ok = v.EntryAt(7)
		require.True(t, ok)
		assert.Equal(t, 222, e.Value)
		assert.Equal(t, 5, e.Start)
		assert.Equal(t, 10, e.End())

		e, ok = v.EntryAt(199)
		require.True(t, ok)
		assert.Equal(t, 333, e.Value)
	})

	t.Run("Misses", func(t *testing.T) {
		_, ok := v.EntryAt(1) // gap after the 1-sized entry
		assert.False(t, ok)
		_, ok = v.EntryAt(50)
		assert.False(t, ok)
		_, ok = v.EntryAt(-1)
		assert.False(t, ok)
		_, ok = v.EntryAt(200)
		assert.False(t, ok)
	})
}

func TestRemove(t *testing.T) {
	t.Run("ByAnyCoveredOffset", func(t *testing.T) {
		v, err := New[string](100)
		require.NoError(t, err)
		require.NoError(t, v.Insert(10, 10, "a"))

		e, err := v.Remove(15)
		require.NoError(t, err)
		assert.Equal(t, "a", e.Value)
		assert.Equal(t, 10, e.Start)
		assert.Equal(t, 10, e.Size)
		assert.Equal(t, 0, v.Len())

		_, err = v.Remove(15)
		require.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("FreesRangeForReuse", func(t *testing.T) {
		v, err := New[string](100)
		require.NoError(t, err)
		require.NoError(t, v.Insert(10, 10, "a"))

		_, err = v.Remove(10)
		require.NoError(t, err)
		require.NoError(t, v.Insert(10, 10, "b"))

		e, ok := v.EntryAt(10)
		require.True(t, ok)
		assert.Equal(t, "b", e.Value)
	})
}

func TestIteration(t *testing.T) {
	v, err := New[string](100)
	require.NoError(t, err)
	require.NoError(t, v.Insert(50, 10, "c"))
	require.NoError(t, v.Insert(0, 10, "a"))
	require.NoError(t, v.Insert(20, 10, "b"))

	assert.Equal(t, []int{0, 20, 50}, v.Starts())

	var values []string
	for e := range v.All() {
		values = append(values, e.Value)
	}
	assert.Equal(t, []string{"a", "b", "c"}, values)
}
