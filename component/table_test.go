package component

import (
	"errors"
	"math/rand/v2"
	"slices"
	"testing"

	"github.com/gogpu/bowtie/entity"
)

type rowState int

const (
	stateClean rowState = iota
	stateDirty
	stateNew
)

// fixture pairs a table with a reference model of each entity's partition.
type fixture struct {
	t      *testing.T
	table  *Table
	values *Column[entity.Entity]
	model  map[entity.Entity]rowState
	ents   *entity.Manager
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	table := NewTable(0)
	return &fixture{
		t:      t,
		table:  table,
		values: AddColumn[entity.Entity](table),
		model:  make(map[entity.Entity]rowState),
		ents:   entity.NewManager(),
	}
}

func (f *fixture) create() entity.Entity {
	e := f.ents.Create()
	slot := f.table.Create(e)
	f.values.Set(slot, e)
	f.model[e] = stateNew
	return e
}

func (f *fixture) markDirty(e entity.Entity) {
	f.table.MarkDirty(f.table.MustSlot(e))
	if f.model[e] == stateClean {
		f.model[e] = stateDirty
	}
}

func (f *fixture) destroy(e entity.Entity) {
	f.table.Destroy(e)
	delete(f.model, e)
	f.ents.Destroy(e)
}

func (f *fixture) reset() {
	f.table.Reset()
	for e := range f.model {
		f.model[e] = stateClean
	}
}

func (f *fixture) verify(step string) {
	f.t.Helper()
	if err := f.table.Check(); err != nil {
		f.t.Fatalf("%s: %v", step, err)
	}
	if f.table.Len() != len(f.model) {
		f.t.Fatalf("%s: Len() = %d, model has %d", step, f.table.Len(), len(f.model))
	}
	for e, want := range f.model {
		slot := f.table.MustSlot(e)
		if got := f.values.Get(slot); got != e {
			f.t.Fatalf("%s: column at slot %d holds %v, want %v", step, slot, got, e)
		}
		var got rowState
		switch {
		case f.table.IsDirty(slot):
			got = stateDirty
		case f.table.IsNew(slot):
			got = stateNew
		default:
			got = stateClean
		}
		if got != want {
			f.t.Fatalf("%s: %v at slot %d is in partition %d, want %d", step, e, slot, got, want)
		}
	}
}

func TestCreateTracksNewPartition(t *testing.T) {
	f := newFixture(t)
	for i := 0; i < 10; i++ {
		f.create()
	}
	f.verify("create")

	if got := f.table.NumNew(); got != 10 {
		t.Errorf("NumNew() = %d, want 10", got)
	}
	if start, end := f.table.NewRange(); start != 0 || end != 10 {
		t.Errorf("NewRange() = [%d, %d), want [0, 10)", start, end)
	}

	f.reset()
	f.create()
	if start, end := f.table.NewRange(); start != 10 || end != 11 {
		t.Errorf("NewRange() after reset = [%d, %d), want [10, 11)", start, end)
	}
	f.verify("create after reset")
}

func TestMarkDirtyIdempotent(t *testing.T) {
	f := newFixture(t)
	var es []entity.Entity
	for i := 0; i < 5; i++ {
		es = append(es, f.create())
	}
	f.reset()

	f.markDirty(es[3])
	once := f.table.NumDirty()
	slotOnce := f.table.MustSlot(es[3])

	f.markDirty(es[3])
	if got := f.table.NumDirty(); got != once {
		t.Errorf("NumDirty() after second MarkDirty = %d, want %d", got, once)
	}
	if got := f.table.MustSlot(es[3]); got != slotOnce {
		t.Errorf("slot moved from %d to %d on second MarkDirty", slotOnce, got)
	}
	if slotOnce != 0 {
		t.Errorf("first dirty row at slot %d, want 0", slotOnce)
	}
	f.verify("mark dirty")
}

func TestMarkDirtyIgnoresNewRows(t *testing.T) {
	f := newFixture(t)
	e := f.create()
	f.markDirty(e)
	if f.table.NumDirty() != 0 {
		t.Errorf("new row counted dirty: NumDirty() = %d", f.table.NumDirty())
	}
	f.verify("mark new dirty")
}

func TestDestroyKeepsPartitions(t *testing.T) {
	tests := []struct {
		name   string
		target int // index into the created entities
	}{
		{"dirty head", 0},
		{"dirty tail", 1},
		{"clean", 3},
		{"new", 6},
		{"last", 7},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			var es []entity.Entity
			for i := 0; i < 5; i++ {
				es = append(es, f.create())
			}
			f.reset()
			f.markDirty(es[0])
			f.markDirty(es[1])
			for i := 0; i < 3; i++ {
				es = append(es, f.create())
			}
			f.verify("setup")

			f.destroy(es[tt.target])
			f.verify("destroy")
		})
	}
}

func TestRemoveOrdered(t *testing.T) {
	f := newFixture(t)
	var es []entity.Entity
	for i := 0; i < 6; i++ {
		es = append(es, f.create())
	}
	f.reset()
	f.markDirty(es[0])
	f.create()

	f.table.RemoveOrdered(f.table.MustSlot(es[2]))
	delete(f.model, es[2])
	f.verify("remove ordered")

	// Clean rows keep their relative order.
	prev := -1
	for _, e := range es[3:] {
		slot := f.table.MustSlot(e)
		if slot <= prev {
			t.Fatalf("%v at slot %d, not after %d", e, slot, prev)
		}
		prev = slot
	}
}

func TestMoveToDirtyAndNew(t *testing.T) {
	f := newFixture(t)
	var es []entity.Entity
	for i := 0; i < 6; i++ {
		es = append(es, f.create())
	}
	f.reset()
	f.markDirty(es[5])

	slots := []int{f.table.MustSlot(es[2]), f.table.MustSlot(es[4])}
	f.table.MoveToDirty(slots)
	f.model[es[2]] = stateDirty
	f.model[es[4]] = stateDirty
	f.verify("move to dirty")
	if f.table.MustSlot(es[2]) > f.table.MustSlot(es[4]) {
		t.Error("MoveToDirty reversed the moved rows")
	}

	f.table.MoveToNew([]int{f.table.MustSlot(es[2]), f.table.MustSlot(es[1])})
	f.model[es[2]] = stateNew
	f.model[es[1]] = stateNew
	f.verify("move to new")
	// es[2] was ahead of es[1] after the first move and must stay ahead.
	if f.table.MustSlot(es[2]) > f.table.MustSlot(es[1]) {
		t.Error("MoveToNew reversed the moved rows")
	}
}

func TestMoveToDirtyReordersWindowOnly(t *testing.T) {
	f := newFixture(t)
	var es []entity.Entity
	for i := 0; i < 10; i++ {
		es = append(es, f.create())
	}
	f.reset()
	f.markDirty(es[0])

	lo, order := f.table.MoveToDirty([]int{f.table.MustSlot(es[3]), f.table.MustSlot(es[5])})
	f.model[es[3]] = stateDirty
	f.model[es[5]] = stateDirty
	f.verify("move to dirty")
	if lo != 1 || !slices.Equal(order, []int{3, 5, 1, 2, 4}) {
		t.Fatalf("MoveToDirty = %d, %v; want 1, [3 5 1 2 4]", lo, order)
	}
	for i := 6; i < len(es); i++ {
		if got := f.table.MustSlot(es[i]); got != i {
			t.Errorf("%v moved from slot %d to %d", es[i], i, got)
		}
	}

	lo, order = f.table.MoveToNew([]int{f.table.MustSlot(es[7])})
	f.model[es[7]] = stateNew
	f.verify("move to new")
	if lo != 7 || !slices.Equal(order, []int{8, 9, 7}) {
		t.Fatalf("MoveToNew = %d, %v; want 7, [8 9 7]", lo, order)
	}

	if lo, order := f.table.MoveToDirty(nil); order != nil || lo != f.table.LastDirty()+1 {
		t.Fatalf("MoveToDirty(nil) = %d, %v", lo, order)
	}
}

func TestRandomOperationsKeepInvariant(t *testing.T) {
	f := newFixture(t)
	rng := rand.New(rand.NewPCG(1, 2))
	var live []entity.Entity

	for step := 0; step < 2000; step++ {
		switch op := rng.IntN(10); {
		case op < 4 || len(live) == 0:
			live = append(live, f.create())
		case op < 7:
			f.markDirty(live[rng.IntN(len(live))])
		case op < 9:
			i := rng.IntN(len(live))
			f.destroy(live[i])
			live = append(live[:i], live[i+1:]...)
		default:
			f.reset()
		}
		f.verify("random step")
	}
}

func TestCapacityPanics(t *testing.T) {
	table := NewTable(1)
	ents := entity.NewManager()
	table.Create(ents.Create())

	defer func() {
		err, ok := recover().(error)
		if !ok || !errors.Is(err, ErrCapacity) {
			t.Fatalf("recover() = %v, want ErrCapacity", err)
		}
	}()
	table.Create(ents.Create())
}

func TestDuplicateAndStaleEntities(t *testing.T) {
	table := NewTable(0)
	ents := entity.NewManager()
	e := ents.Create()
	table.Create(e)

	ents.Destroy(e)
	stale := e
	fresh := ents.Create()
	if table.Has(fresh) {
		t.Error("recycled entity resolved to the stale row")
	}
	if !table.Has(stale) {
		t.Error("row for the original entity lost")
	}

	defer func() {
		err, ok := recover().(error)
		if !ok || !errors.Is(err, ErrDuplicate) {
			t.Fatalf("recover() = %v, want ErrDuplicate", err)
		}
	}()
	table.Create(stale)
}

func TestCreateOverStaleRow(t *testing.T) {
	table := NewTable(0)
	ents := entity.NewManager()
	stale := ents.Create()
	table.Create(stale)
	ents.Destroy(stale)
	fresh := ents.Create()
	if fresh.Index() != stale.Index() {
		t.Fatalf("index %d not recycled, got %d", stale.Index(), fresh.Index())
	}

	func() {
		defer func() {
			err, ok := recover().(error)
			if !ok || !errors.Is(err, ErrStale) {
				t.Fatalf("recover() = %v, want ErrStale", err)
			}
		}()
		table.Create(fresh)
	}()
	if table.Len() != 1 || !table.Has(stale) {
		t.Fatalf("Len() = %d Has(stale) = %v after rejected create", table.Len(), table.Has(stale))
	}
	if err := table.Check(); err != nil {
		t.Fatal(err)
	}

	table.Destroy(stale)
	table.Create(fresh)
	if !table.Has(fresh) {
		t.Error("fresh entity has no row after the stale row was destroyed")
	}
	if err := table.Check(); err != nil {
		t.Error(err)
	}
}
