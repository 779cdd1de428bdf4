// Package transform stores 2D transforms arranged in a parent/child
// hierarchy and propagates world matrices.
//
// The store is a component.Table with the local transform, intrusive tree
// links (parent, first child, next and previous sibling, all as slots) and
// a cached world matrix. Two invariants make world propagation a single
// ascending pass over the dirty and new partitions:
//
//   - a parent's slot is always lower than each of its children's slots;
//   - a dirty parent only has dirty or new children, and a new parent only
//     has new children.
//
// Because the dirty partition is a prefix of the table, the first
// invariant implies that every ancestor of a dirty row is dirty too.
// Marking a clean node dirty therefore moves the clean rows of its whole
// tree into the dirty partition, preserving their relative order.
package transform

import (
	"errors"
	"fmt"

	"github.com/gogpu/bowtie/component"
	"github.com/gogpu/bowtie/entity"
	"github.com/gogpu/bowtie/geom"
)

const none = component.NotAssigned

var (
	// ErrCycle is returned when a reparent would make an entity its own
	// ancestor.
	ErrCycle = errors.New("transform: parent is the entity or one of its descendants")

	// ErrNoTransform is returned for entities without a transform.
	ErrNoTransform = errors.New("transform: entity has no transform")

	// ErrHierarchy is wrapped by Check for broken links or ordering.
	ErrHierarchy = errors.New("transform: hierarchy invariant violated")
)

// Store holds the transforms of one world.
type Store struct {
	table *component.Table

	position *component.Column[geom.Vec2]
	rotation *component.Column[float64]
	pivot    *component.Column[geom.Vec2]

	parent     *component.Column[int]
	firstChild *component.Column[int]
	next       *component.Column[int]
	prev       *component.Column[int]

	world *component.Column[geom.Matrix]
}

// New returns an empty store with room for capacity transforms. A
// non-positive capacity means the full entity index space.
func New(capacity int) *Store {
	t := component.NewTable(capacity)
	return &Store{
		table:      t,
		position:   component.AddColumn[geom.Vec2](t),
		rotation:   component.AddColumn[float64](t),
		pivot:      component.AddColumn[geom.Vec2](t),
		parent:     component.AddColumn[int](t),
		firstChild: component.AddColumn[int](t),
		next:       component.AddColumn[int](t),
		prev:       component.AddColumn[int](t),
		world:      component.AddColumn[geom.Matrix](t),
	}
}

// Table exposes the underlying rows and partitions.
func (s *Store) Table() *component.Table { return s.table }

// Has reports whether e has a transform.
func (s *Store) Has(e entity.Entity) bool { return s.table.Has(e) }

// Len returns the number of transforms.
func (s *Store) Len() int { return s.table.Len() }

// Create adds a root transform for e at the origin.
func (s *Store) Create(e entity.Entity) {
	slot := s.table.Create(e)
	s.parent.Set(slot, none)
	s.firstChild.Set(slot, none)
	s.next.Set(slot, none)
	s.prev.Set(slot, none)
	s.world.Set(slot, geom.Identity())
}

// Destroy removes the transform of e. Its children become roots and are
// marked dirty, since their world matrices no longer include e.
func (s *Store) Destroy(e entity.Entity) {
	slot := s.table.MustSlot(e)
	s.unlink(slot)

	var orphans []entity.Entity
	for c := s.firstChild.Get(slot); c != none; {
		nx := s.next.Get(c)
		s.parent.Set(c, none)
		s.prev.Set(c, none)
		s.next.Set(c, none)
		orphans = append(orphans, s.table.Entity(c))
		c = nx
	}
	s.firstChild.Set(slot, none)

	for _, o := range orphans {
		s.markDirty(s.table.MustSlot(o))
	}

	slot = s.table.MustSlot(e)
	s.table.RemoveOrdered(slot)
	s.remapRemoved(slot)
}

// Position returns the local position of e.
func (s *Store) Position(e entity.Entity) geom.Vec2 { return s.position.Get(s.table.MustSlot(e)) }

// SetPosition sets the local position of e and marks it dirty.
func (s *Store) SetPosition(e entity.Entity, p geom.Vec2) {
	slot := s.table.MustSlot(e)
	s.position.Set(slot, p)
	s.markDirty(slot)
}

// Rotation returns the local rotation of e in radians.
func (s *Store) Rotation(e entity.Entity) float64 { return s.rotation.Get(s.table.MustSlot(e)) }

// SetRotation sets the local rotation of e and marks it dirty.
func (s *Store) SetRotation(e entity.Entity, radians float64) {
	slot := s.table.MustSlot(e)
	s.rotation.Set(slot, radians)
	s.markDirty(slot)
}

// Pivot returns the local rotation pivot of e.
func (s *Store) Pivot(e entity.Entity) geom.Vec2 { return s.pivot.Get(s.table.MustSlot(e)) }

// SetPivot sets the rotation pivot of e and marks it dirty.
func (s *Store) SetPivot(e entity.Entity, p geom.Vec2) {
	slot := s.table.MustSlot(e)
	s.pivot.Set(slot, p)
	s.markDirty(slot)
}

// World returns the world matrix of e as of the last UpdateWorld.
func (s *Store) World(e entity.Entity) geom.Matrix { return s.world.Get(s.table.MustSlot(e)) }

// Parent returns the parent of e, or entity.Zero for a root.
func (s *Store) Parent(e entity.Entity) entity.Entity {
	p := s.parent.Get(s.table.MustSlot(e))
	if p == none {
		return entity.Zero
	}
	return s.table.Entity(p)
}

// Children returns the children of e, most recently attached first.
func (s *Store) Children(e entity.Entity) []entity.Entity {
	var out []entity.Entity
	for c := s.firstChild.Get(s.table.MustSlot(e)); c != none; c = s.next.Get(c) {
		out = append(out, s.table.Entity(c))
	}
	return out
}

// MarkDirty schedules e, and every clean row in its tree, for world
// recomputation.
func (s *Store) MarkDirty(e entity.Entity) {
	s.markDirty(s.table.MustSlot(e))
}

// SetParent attaches e to parent, or detaches it when parent is
// entity.Zero. It fails with ErrCycle if parent is e or a descendant of e.
func (s *Store) SetParent(e, parent entity.Entity) error {
	slot, ok := s.table.Slot(e)
	if !ok {
		return fmt.Errorf("%w: %v", ErrNoTransform, e)
	}
	p := none
	if !parent.IsZero() {
		if p, ok = s.table.Slot(parent); !ok {
			return fmt.Errorf("%w: parent %v", ErrNoTransform, parent)
		}
		for a := p; a != none; a = s.parent.Get(a) {
			if a == slot {
				return fmt.Errorf("%w: %v under %v", ErrCycle, e, parent)
			}
		}
	}
	if s.parent.Get(slot) == p {
		return nil
	}

	s.unlink(slot)
	if p == none {
		s.markDirty(slot)
		return nil
	}
	s.link(slot, p)

	if s.table.IsNew(p) {
		// Everything under a new parent is new and must follow it.
		if sub := s.subtree(slot); !s.allNewAfter(sub, p) {
			s.remap(s.table.MoveToNew(sub))
		}
		return nil
	}

	// A clean parent pulls its whole tree, e included, into the dirty
	// partition. An already dirty parent leaves e to be moved on its own.
	s.markDirty(p)
	s.markDirty(s.table.MustSlot(e))
	slot = s.table.MustSlot(e)
	p = s.table.MustSlot(parent)
	if s.table.IsNew(slot) || slot > p {
		return nil
	}
	var dirty []int
	for _, m := range s.subtree(slot) {
		if s.table.IsDirty(m) {
			dirty = append(dirty, m)
		}
	}
	s.remap(s.table.MoveToDirty(dirty))
	return nil
}

// UpdateWorld recomputes the world matrix of every dirty and new row in
// ascending slot order and reports each one to fn, which may be nil.
func (s *Store) UpdateWorld(fn func(e entity.Entity, world geom.Matrix)) {
	update := func(start, end int) {
		for i := start; i < end; i++ {
			w := geom.Local(s.position.Get(i), s.rotation.Get(i), s.pivot.Get(i))
			if p := s.parent.Get(i); p != none {
				w = s.world.Get(p).Multiply(w)
			}
			s.world.Set(i, w)
			if fn != nil {
				fn(s.table.Entity(i), w)
			}
		}
	}
	update(s.table.DirtyRange())
	update(s.table.NewRange())
}

// Reset marks every row clean. Call it after the frame has been synced.
func (s *Store) Reset() { s.table.Reset() }

// markDirty implements MarkDirty on a slot.
func (s *Store) markDirty(slot int) {
	if !s.table.IsClean(slot) {
		return
	}
	root := slot
	for p := s.parent.Get(root); p != none; p = s.parent.Get(root) {
		root = p
	}
	var members []int
	for _, m := range s.subtree(root) {
		if s.table.IsClean(m) {
			members = append(members, m)
		}
	}
	if len(members) == 1 && s.trySwapToDirty(members[0]) {
		return
	}
	s.remap(s.table.MoveToDirty(members))
}

// trySwapToDirty moves the lone clean row of a tree into the dirty
// partition with a single swap when the displaced row stays ordered.
func (s *Store) trySwapToDirty(slot int) bool {
	target := s.table.LastDirty() + 1
	if slot == target {
		s.table.MarkDirty(slot)
		return true
	}
	// The row at target is clean and therefore a root; only its children
	// constrain where it can go.
	for c := s.firstChild.Get(target); c != none; c = s.next.Get(c) {
		if c <= slot {
			return false
		}
	}
	s.swapRows(slot, target)
	s.table.MarkDirty(target)
	return true
}

// swapRows exchanges two rows and repairs every link that referenced them.
func (s *Store) swapRows(a, b int) {
	affected := map[int]struct{}{a: {}, b: {}}
	for _, r := range [2]int{a, b} {
		for _, n := range [3]int{s.parent.Get(r), s.prev.Get(r), s.next.Get(r)} {
			if n != none {
				affected[n] = struct{}{}
			}
		}
		for c := s.firstChild.Get(r); c != none; c = s.next.Get(c) {
			affected[c] = struct{}{}
		}
	}
	swap := func(x int) int {
		switch x {
		case a:
			return b
		case b:
			return a
		}
		return x
	}
	s.table.Swap(a, b)
	for r := range affected {
		s.remapRow(swap(r), swap)
	}
}

// remap rewrites the links touched when the rows in [lo, lo+len(order))
// were reordered, where order[i] is the old slot of row lo+i. Only the
// window and the rows it links to outside of it are visited.
func (s *Store) remap(lo int, order []int) {
	if len(order) == 0 {
		return
	}
	hi := lo + len(order)
	inv := make([]int, len(order))
	for i, from := range order {
		inv[from-lo] = lo + i
	}
	f := func(x int) int {
		if x >= lo && x < hi {
			return inv[x-lo]
		}
		return x
	}

	// Links still hold old slots here, so f finds where a row went.
	var outside []int
	seen := make(map[int]struct{})
	note := func(x int) {
		if x == none || (x >= lo && x < hi) {
			return
		}
		if _, ok := seen[x]; !ok {
			seen[x] = struct{}{}
			outside = append(outside, x)
		}
	}
	for i := lo; i < hi; i++ {
		note(s.parent.Get(i))
		note(s.prev.Get(i))
		note(s.next.Get(i))
		for c := s.firstChild.Get(i); c != none; c = s.next.Get(f(c)) {
			note(c)
		}
	}

	for i := lo; i < hi; i++ {
		s.remapRow(i, f)
	}
	for _, r := range outside {
		s.remapRow(r, f)
	}
}

// remapRemoved rewrites links after the row at removed was deleted and
// later rows shifted down.
func (s *Store) remapRemoved(removed int) {
	f := func(x int) int {
		if x > removed {
			return x - 1
		}
		return x
	}
	for i := range s.table.Len() {
		s.remapRow(i, f)
	}
}

func (s *Store) remapRow(i int, f func(int) int) {
	for _, col := range [4]*component.Column[int]{s.parent, s.firstChild, s.next, s.prev} {
		if v := col.Get(i); v != none {
			col.Set(i, f(v))
		}
	}
}

func (s *Store) unlink(slot int) {
	p := s.parent.Get(slot)
	if p == none {
		return
	}
	pv, nx := s.prev.Get(slot), s.next.Get(slot)
	if pv != none {
		s.next.Set(pv, nx)
	} else {
		s.firstChild.Set(p, nx)
	}
	if nx != none {
		s.prev.Set(nx, pv)
	}
	s.parent.Set(slot, none)
	s.prev.Set(slot, none)
	s.next.Set(slot, none)
}

// link inserts slot at the head of p's child list.
func (s *Store) link(slot, p int) {
	head := s.firstChild.Get(p)
	if head != none {
		s.prev.Set(head, slot)
	}
	s.next.Set(slot, head)
	s.prev.Set(slot, none)
	s.firstChild.Set(p, slot)
	s.parent.Set(slot, p)
}

// subtree returns slot and all of its descendants.
func (s *Store) subtree(slot int) []int {
	out := []int{slot}
	for i := 0; i < len(out); i++ {
		for c := s.firstChild.Get(out[i]); c != none; c = s.next.Get(c) {
			out = append(out, c)
		}
	}
	return out
}

func (s *Store) allNewAfter(slots []int, p int) bool {
	for _, m := range slots {
		if !s.table.IsNew(m) || m < p {
			return false
		}
	}
	return true
}
