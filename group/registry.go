// Package group tracks which entries were inserted together.
//
// A group is the unit of cascading removal: the members of one batch insert
// form one group, and removing any member removes them all unless an entry is
// split off into its own singleton group first.
//
// The registry keeps two plain maps, a forward group -> members mapping and a
// reverse member -> group mapping, instead of embedding links in the entries
// themselves. Ownership of the relationship stays here, and the reverse map
// is always reconstructible from the forward one.
package group

import "errors"

// ErrNotTracked is returned when a member is not registered in any group.
var ErrNotTracked = errors.New("member not tracked by any group")

// ID identifies a group. IDs are allocated monotonically and never reused
// while any member of the group survives. The zero ID is invalid.
type ID uint64

// Member identifies one entry by its owning vector and start offset.
type Member[K comparable] struct {
	Vector K
	Start  int
}

// Registry maintains the group <-> member bidirectional mapping.
//
// Registry is not safe for concurrent use; the owning coordinator
// serializes access.
type Registry[K comparable] struct {
	next    ID
	forward map[ID][]Member[K] // members in batch insertion order
	reverse map[Member[K]]ID
}

// NewRegistry creates an empty registry.
func NewRegistry[K comparable]() *Registry[K] {
	return &Registry[K]{
		forward: make(map[ID][]Member[K]),
		reverse: make(map[Member[K]]ID),
	}
}

// NewGroup allocates a fresh ID and records the mapping both ways.
//
// The caller guarantees members is non-empty and pre-validated (no member
// may already be tracked). Member order is preserved; it defines the order
// of cascading removal results.
func (r *Registry[K]) NewGroup(members []Member[K]) ID {
	r.next++
	id := r.next

	owned := make([]Member[K], len(members))
	copy(owned, members)
	r.forward[id] = owned
	for _, m := range owned {
		r.reverse[m] = id
	}

	return id
}

// GroupOf returns the group the member belongs to.
func (r *Registry[K]) GroupOf(m Member[K]) (ID, bool) {
	id, ok := r.reverse[m]
	return id, ok
}

// MembersOf returns the member set of the group in insertion order.
// The returned slice is a copy.
func (r *Registry[K]) MembersOf(id ID) []Member[K] {
	members, ok := r.forward[id]
	if !ok {
		return nil
	}
	out := make([]Member[K], len(members))
	copy(out, members)
	return out
}

// Remove retires the group and deletes all its reverse-mapping entries.
func (r *Registry[K]) Remove(id ID) {
	for _, m := range r.forward[id] {
		delete(r.reverse, m)
	}
	delete(r.forward, id)
}

// SplitOff detaches exactly one member from its current group into a brand
// new singleton group and returns the new group's ID. If the original group
// is drained by the split it is retired.
func (r *Registry[K]) SplitOff(m Member[K]) (ID, error) {
	oldID, ok := r.reverse[m]
	if !ok {
		return 0, ErrNotTracked
	}

	members := r.forward[oldID]
	remaining := make([]Member[K], 0, len(members)-1)
	for _, other := range members {
		if other != m {
			remaining = append(remaining, other)
		}
	}
	if len(remaining) == 0 {
		delete(r.forward, oldID)
	} else {
		r.forward[oldID] = remaining
	}
	delete(r.reverse, m)

	return r.NewGroup([]Member[K]{m}), nil
}

// Count returns the number of live groups.
func (r *Registry[K]) Count() int { return len(r.forward) }

// MemberCount returns the total number of tracked members across all groups.
func (r *Registry[K]) MemberCount() int { return len(r.reverse) }

// GroupState is the persisted form of one group.
type GroupState[K comparable] struct {
	ID      ID          `json:"id"`
	Members []Member[K] `json:"members"`
}

// State is the persisted form of the registry. The reverse mapping is
// derived and therefore not part of the state.
type State[K comparable] struct {
	Next   ID              `json:"next"`
	Groups []GroupState[K] `json:"groups"`
}

// Snapshot captures the registry state for persistence.
// Group order in the snapshot is unspecified.
func (r *Registry[K]) Snapshot() State[K] {
	s := State[K]{Next: r.next, Groups: make([]GroupState[K], 0, len(r.forward))}
	for id, members := range r.forward {
		owned := make([]Member[K], len(members))
		copy(owned, members)
		s.Groups = append(s.Groups, GroupState[K]{ID: id, Members: owned})
	}
	return s
}

// Restore replaces the registry contents with the snapshot state,
// rebuilding the reverse mapping.
func (r *Registry[K]) Restore(s State[K]) {
	r.next = s.Next
	r.forward = make(map[ID][]Member[K], len(s.Groups))
	r.reverse = make(map[Member[K]]ID)
	for _, g := range s.Groups {
		owned := make([]Member[K], len(g.Members))
		copy(owned, g.Members)
		r.forward[g.ID] = owned
		for _, m := range owned {
			r.reverse[m] = g.ID
		}
	}
}
