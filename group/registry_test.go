package group

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewGroup(t *testing.T) {
	r := NewRegistry[string]()

	id1 := r.NewGroup([]Member[string]{{Vector: "a", Start: 0}, {Vector: "b", Start: 10}})
	id2 := r.NewGroup([]Member[string]{{Vector: "a", Start: 20}})

	assert.NotEqual(t, ID(0), id1)
	assert.NotEqual(t, id1, id2)
	assert.Equal(t, 2, r.Count())
	assert.Equal(t, 3, r.MemberCount())

	got, ok := r.GroupOf(Member[string]{Vector: "b", Start: 10})
	require.True(t, ok)
	assert.Equal(t, id1, got)

	_, ok = r.GroupOf(Member[string]{Vector: "b", Start: 11})
	assert.False(t, ok)
}

func TestMembersOfPreservesInsertionOrder(t *testing.T) {
	r := NewRegistry[string]()

	members := []Member[string]{
		{Vector: "v2", Start: 100},
		{Vector: "v1", Start: 0},
		{Vector: "v2", Start: 0},
	}
	id := r.NewGroup(members)

	got := r.MembersOf(id)
	assert.Equal(t, members, got)

	// The returned slice is a copy.
	got[0] = Member[string]{Vector: "mutated", Start: 1}
	assert.Equal(t, members, r.MembersOf(id))

	assert.Nil(t, r.MembersOf(ID(999)))
}

func TestRemove(t *testing.T) {
	r := NewRegistry[string]()

	id := r.NewGroup([]Member[string]{{Vector: "a", Start: 0}, {Vector: "a", Start: 10}})
	r.Remove(id)

	assert.Equal(t, 0, r.Count())
	assert.Equal(t, 0, r.MemberCount())
	_, ok := r.GroupOf(Member[string]{Vector: "a", Start: 0})
	assert.False(t, ok)

	// Retired IDs are not reused.
	next := r.NewGroup([]Member[string]{{Vector: "a", Start: 0}})
	assert.Greater(t, next, id)
}

func TestSplitOff(t *testing.T) {
	t.Run("DetachesIntoSingleton", func(t *testing.T) {
		r := NewRegistry[string]()
		m1 := Member[string]{Vector: "a", Start: 0}
		m2 := Member[string]{Vector: "a", Start: 10}
		m3 := Member[string]{Vector: "b", Start: 0}
		id := r.NewGroup([]Member[string]{m1, m2, m3})

		newID, err := r.SplitOff(m2)
		require.NoError(t, err)
		assert.NotEqual(t, id, newID)

		assert.Equal(t, []Member[string]{m2}, r.MembersOf(newID))
		assert.Equal(t, []Member[string]{m1, m3}, r.MembersOf(id))

		got, ok := r.GroupOf(m2)
		require.True(t, ok)
		assert.Equal(t, newID, got)
	})

	t.Run("DrainedGroupIsRetired", func(t *testing.T) {
		r := NewRegistry[string]()
		m := Member[string]{Vector: "a", Start: 0}
		id := r.NewGroup([]Member[string]{m})

		newID, err := r.SplitOff(m)
		require.NoError(t, err)

		assert.Nil(t, r.MembersOf(id))
		assert.Equal(t, 1, r.Count())
		assert.Equal(t, []Member[string]{m}, r.MembersOf(newID))
	})

	t.Run("UntrackedMember", func(t *testing.T) {
		r := NewRegistry[string]()
		_, err := r.SplitOff(Member[string]{Vector: "a", Start: 0})
		require.ErrorIs(t, err, ErrNotTracked)
	})
}

func TestSnapshotRestore(t *testing.T) {
	r := NewRegistry[string]()
	id1 := r.NewGroup([]Member[string]{{Vector: "a", Start: 0}, {Vector: "b", Start: 5}})
	id2 := r.NewGroup([]Member[string]{{Vector: "a", Start: 10}})
	r.Remove(id2)

	restored := NewRegistry[string]()
	restored.Restore(r.Snapshot())

	assert.Equal(t, r.Count(), restored.Count())
	assert.Equal(t, r.MemberCount(), restored.MemberCount())
	assert.Equal(t, r.MembersOf(id1), restored.MembersOf(id1))

	got, ok := restored.GroupOf(Member[string]{Vector: "b", Start: 5})
	require.True(t, ok)
	assert.Equal(t, id1, got)

	// The ID counter survives: no reuse of retired IDs after restore.
	next := restored.NewGroup([]Member[string]{{Vector: "c", Start: 0}})
	assert.Greater(t, next, id2)
}
