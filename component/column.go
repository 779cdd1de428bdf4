package component

// column is the type-erased view a Table uses to keep every column in
// step with its row operations.
type column interface {
	grow()
	pop()
	swap(i, j int)
	permute(lo int, order []int)
	removeOrdered(slot int)
}

// Column is one field of a component, stored densely by slot.
type Column[T any] struct {
	data    []T
	scratch []T
}

// AddColumn registers a new column on t. Columns must be added before the
// first row is created.
func AddColumn[T any](t *Table) *Column[T] {
	if len(t.entities) != 0 {
		panic("component: AddColumn on a non-empty table")
	}
	c := &Column[T]{data: make([]T, 0, min(t.capacity, 64))}
	t.columns = append(t.columns, c)
	return c
}

// Get returns the value at slot.
func (c *Column[T]) Get(slot int) T { return c.data[slot] }

// Set stores v at slot.
func (c *Column[T]) Set(slot int, v T) { c.data[slot] = v }

// At returns a pointer to the value at slot. The pointer is invalidated by
// any row operation on the owning table.
func (c *Column[T]) At(slot int) *T { return &c.data[slot] }

// Slice returns the column's backing slice for all live rows.
func (c *Column[T]) Slice() []T { return c.data }

// CopyRange appends the values in [start, end) to dst and returns it.
func (c *Column[T]) CopyRange(dst []T, start, end int) []T {
	return append(dst, c.data[start:end]...)
}

func (c *Column[T]) grow() {
	var zero T
	c.data = append(c.data, zero)
}

func (c *Column[T]) pop() {
	var zero T
	c.data[len(c.data)-1] = zero
	c.data = c.data[:len(c.data)-1]
}

func (c *Column[T]) swap(i, j int) {
	c.data[i], c.data[j] = c.data[j], c.data[i]
}

func (c *Column[T]) permute(lo int, order []int) {
	c.scratch = append(c.scratch[:0], c.data[lo:lo+len(order)]...)
	for i, from := range order {
		c.data[lo+i] = c.scratch[from-lo]
	}
	clear(c.scratch)
}

func (c *Column[T]) removeOrdered(slot int) {
	copy(c.data[slot:], c.data[slot+1:])
	c.pop()
}
