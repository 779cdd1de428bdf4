package component

import (
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/gogpu/bowtie/entity"
)

// NotAssigned marks an empty cursor or link.
const NotAssigned = -1

// Table errors. Capacity, duplicate and stale errors are raised as panics.
var (
	ErrCapacity    = errors.New("component: table capacity exhausted")
	ErrDuplicate   = errors.New("component: entity already has a row")
	ErrNoComponent = errors.New("component: entity has no row")
	ErrStale       = errors.New("component: index still held by a destroyed entity")
	ErrPartition   = errors.New("component: partition invariant violated")
)

// Table is the shared header of a component store: the entity column, the
// entity to slot map, and the dirty/new partition cursors.
type Table struct {
	entities  []entity.Entity
	slots     map[uint32]int
	capacity  int
	lastDirty int
	firstNew  int
	columns   []column
}

// NewTable returns an empty table holding at most capacity rows.
func NewTable(capacity int) *Table {
	if capacity <= 0 {
		capacity = entity.MaxEntities
	}
	return &Table{
		slots:     make(map[uint32]int),
		capacity:  capacity,
		lastDirty: NotAssigned,
		firstNew:  NotAssigned,
	}
}

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.entities) }

// Cap returns the maximum number of rows.
func (t *Table) Cap() int { return t.capacity }

// Create appends a row for e to the new partition and returns its slot. The
// row of an older generation of e's index must be destroyed first.
func (t *Table) Create(e entity.Entity) int {
	if slot, ok := t.slots[e.Index()]; ok {
		if t.entities[slot] == e {
			panic(fmt.Errorf("%w: %v", ErrDuplicate, e))
		}
		panic(fmt.Errorf("%w: %v holds the row wanted by %v", ErrStale, t.entities[slot], e))
	}
	if len(t.entities) >= t.capacity {
		panic(fmt.Errorf("%w: %d rows", ErrCapacity, t.capacity))
	}
	slot := len(t.entities)
	if t.firstNew == NotAssigned {
		t.firstNew = slot
	}
	t.entities = append(t.entities, e)
	for _, c := range t.columns {
		c.grow()
	}
	t.slots[e.Index()] = slot
	return slot
}

// Slot returns the row of e.
func (t *Table) Slot(e entity.Entity) (int, bool) {
	slot, ok := t.slots[e.Index()]
	if !ok || t.entities[slot] != e {
		return NotAssigned, false
	}
	return slot, true
}

// MustSlot returns the row of e and panics with ErrNoComponent if absent.
func (t *Table) MustSlot(e entity.Entity) int {
	slot, ok := t.Slot(e)
	if !ok {
		panic(fmt.Errorf("%w: %v", ErrNoComponent, e))
	}
	return slot
}

// Has reports whether e has a row.
func (t *Table) Has(e entity.Entity) bool {
	_, ok := t.Slot(e)
	return ok
}

// Entity returns the entity stored at slot.
func (t *Table) Entity(slot int) entity.Entity { return t.entities[slot] }

// Entities returns the entity column. Callers must not modify it.
func (t *Table) Entities() []entity.Entity { return t.entities }

// IsDirty reports whether slot lies in the dirty partition.
func (t *Table) IsDirty(slot int) bool { return slot <= t.lastDirty }

// IsNew reports whether slot lies in the new partition.
func (t *Table) IsNew(slot int) bool { return t.firstNew != NotAssigned && slot >= t.firstNew }

// IsClean reports whether slot is neither dirty nor new.
func (t *Table) IsClean(slot int) bool { return !t.IsDirty(slot) && !t.IsNew(slot) }

// LastDirty returns the last dirty slot, or NotAssigned.
func (t *Table) LastDirty() int { return t.lastDirty }

// FirstNew returns the first new slot, or NotAssigned.
func (t *Table) FirstNew() int { return t.firstNew }

// DirtyRange returns the dirty partition as [start, end).
func (t *Table) DirtyRange() (start, end int) { return 0, t.lastDirty + 1 }

// NewRange returns the new partition as [start, end).
func (t *Table) NewRange() (start, end int) {
	if t.firstNew == NotAssigned {
		return len(t.entities), len(t.entities)
	}
	return t.firstNew, len(t.entities)
}

// NumDirty returns the size of the dirty partition.
func (t *Table) NumDirty() int { return t.lastDirty + 1 }

// NumNew returns the size of the new partition.
func (t *Table) NumNew() int {
	start, end := t.NewRange()
	return end - start
}

// MarkDirty moves a clean row to the end of the dirty partition and
// returns its new slot. Dirty and new rows are left in place.
func (t *Table) MarkDirty(slot int) int {
	if !t.IsClean(slot) {
		return slot
	}
	target := t.lastDirty + 1
	if slot != target {
		t.Swap(slot, target)
	}
	t.lastDirty = target
	return target
}

// ResetDirty empties the dirty partition.
func (t *Table) ResetDirty() { t.lastDirty = NotAssigned }

// ResetNew empties the new partition.
func (t *Table) ResetNew() { t.firstNew = NotAssigned }

// Reset empties both partitions. Every row becomes clean.
func (t *Table) Reset() {
	t.ResetDirty()
	t.ResetNew()
}

// Swap exchanges two rows in every column. Partition cursors are
// unchanged, so callers are responsible for swapping within a partition
// or adjusting the cursors themselves.
func (t *Table) Swap(a, b int) {
	if a == b {
		return
	}
	ea, eb := t.entities[a], t.entities[b]
	t.entities[a], t.entities[b] = eb, ea
	t.slots[ea.Index()] = b
	t.slots[eb.Index()] = a
	for _, c := range t.columns {
		c.swap(a, b)
	}
}

// Destroy removes the row of e, keeping both partitions contiguous. The
// removed row is first carried to the edge of its partition, the partition
// shrinks, and the row is then swapped with the last slot and popped.
// Stores with links between rows use RemoveOrdered instead.
func (t *Table) Destroy(e entity.Entity) {
	slot := t.MustSlot(e)

	if t.IsDirty(slot) {
		t.Swap(slot, t.lastDirty)
		slot = t.lastDirty
		t.lastDirty--
	}
	if t.IsClean(slot) {
		end := len(t.entities) - 1
		if t.firstNew != NotAssigned {
			end = t.firstNew - 1
		}
		t.Swap(slot, end)
		slot = end
		if t.firstNew != NotAssigned {
			t.firstNew--
		}
	}
	t.Swap(slot, len(t.entities)-1)
	t.pop()
}

// RemoveOrdered removes slot and shifts every later row down by one,
// preserving relative order.
func (t *Table) RemoveOrdered(slot int) {
	e := t.entities[slot]
	delete(t.slots, e.Index())
	t.entities = slices.Delete(t.entities, slot, slot+1)
	for i := slot; i < len(t.entities); i++ {
		t.slots[t.entities[i].Index()] = i
	}
	for _, c := range t.columns {
		c.removeOrdered(slot)
	}
	if slot <= t.lastDirty {
		t.lastDirty--
	}
	if t.firstNew != NotAssigned && slot < t.firstNew {
		t.firstNew--
	}
	if t.firstNew == len(t.entities) {
		t.firstNew = NotAssigned
	}
}

func (t *Table) pop() {
	last := len(t.entities) - 1
	delete(t.slots, t.entities[last].Index())
	t.entities = t.entities[:last]
	for _, c := range t.columns {
		c.pop()
	}
	if t.firstNew == len(t.entities) {
		t.firstNew = NotAssigned
	}
}

// PermuteRange reorders the rows in [lo, lo+len(order)) so that the row
// previously at order[i] ends up at slot lo+i. Rows outside the window and
// the partition cursors are unchanged.
func (t *Table) PermuteRange(lo int, order []int) {
	if lo < 0 || lo+len(order) > len(t.entities) {
		panic(fmt.Sprintf("component: permutation of [%d, %d) over %d rows", lo, lo+len(order), len(t.entities)))
	}
	old := slices.Clone(t.entities[lo : lo+len(order)])
	for i, from := range order {
		e := old[from-lo]
		t.entities[lo+i] = e
		t.slots[e.Index()] = lo + i
	}
	for _, c := range t.columns {
		c.permute(lo, order)
	}
}

// MoveToDirty stably moves the given dirty or clean slots, in ascending
// order, to the end of the dirty partition. The relative order of all
// other rows is preserved. Only rows between the lowest moved slot and the
// new end of the dirty partition change place; MoveToDirty returns the
// start of that window and the permutation applied to it (see
// PermuteRange). Moving a new row panics.
func (t *Table) MoveToDirty(slots []int) (lo int, order []int) {
	moving := make(map[int]bool, len(slots))
	movedClean := 0
	lo, hi := t.lastDirty+1, t.lastDirty
	for _, s := range slots {
		if moving[s] {
			continue
		}
		if t.IsNew(s) {
			panic(fmt.Sprintf("component: MoveToDirty of new slot %d", s))
		}
		moving[s] = true
		if t.IsClean(s) {
			movedClean++
		}
		lo, hi = min(lo, s), max(hi, s)
	}
	if len(moving) == 0 {
		return lo, nil
	}
	order = make([]int, 0, hi-lo+1)
	for s := lo; s <= t.lastDirty; s++ {
		if !moving[s] {
			order = append(order, s)
		}
	}
	order = append(order, slices.Sorted(maps.Keys(moving))...)
	for s := t.lastDirty + 1; s <= hi; s++ {
		if !moving[s] {
			order = append(order, s)
		}
	}
	t.PermuteRange(lo, order)
	t.lastDirty += movedClean
	return lo, order
}

// MoveToNew stably moves the given slots, in ascending order, to the end of
// the table and makes them part of the new partition. The relative order
// of all other rows is preserved. It returns the start of the reordered
// window and its permutation, as MoveToDirty does.
func (t *Table) MoveToNew(slots []int) (lo int, order []int) {
	moving := make(map[int]bool, len(slots))
	movedDirty := 0
	lo = len(t.entities)
	for _, s := range slots {
		if moving[s] {
			continue
		}
		moving[s] = true
		if t.IsDirty(s) {
			movedDirty++
		}
		lo = min(lo, s)
	}
	if len(moving) == 0 {
		return lo, nil
	}
	order = make([]int, 0, len(t.entities)-lo)
	for s := lo; s < len(t.entities); s++ {
		if !moving[s] {
			order = append(order, s)
		}
	}
	newStart := lo + len(order)
	if t.firstNew != NotAssigned {
		stayingNew := 0
		for s := t.firstNew; s < len(t.entities); s++ {
			if !moving[s] {
				stayingNew++
			}
		}
		newStart -= stayingNew
	}
	order = append(order, slices.Sorted(maps.Keys(moving))...)
	t.PermuteRange(lo, order)
	t.lastDirty -= movedDirty
	t.firstNew = newStart
	return lo, order
}

// Check validates the partition cursors and the entity map. It returns an
// error wrapping ErrPartition describing the first violation found.
func (t *Table) Check() error {
	n := len(t.entities)
	if t.lastDirty < NotAssigned || t.lastDirty >= n {
		return fmt.Errorf("%w: lastDirty %d with %d rows", ErrPartition, t.lastDirty, n)
	}
	if t.firstNew != NotAssigned && (t.firstNew <= t.lastDirty || t.firstNew >= n) {
		return fmt.Errorf("%w: firstNew %d, lastDirty %d, %d rows", ErrPartition, t.firstNew, t.lastDirty, n)
	}
	if len(t.slots) != n {
		return fmt.Errorf("%w: %d map entries for %d rows", ErrPartition, len(t.slots), n)
	}
	for slot, e := range t.entities {
		if got, ok := t.slots[e.Index()]; !ok || got != slot {
			return fmt.Errorf("%w: %v maps to %d, stored at %d", ErrPartition, e, got, slot)
		}
	}
	return nil
}
