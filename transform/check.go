package transform

import "fmt"

// Check validates the table partitions, the tree links, parent-before-child
// ordering and the dirty/new closure. It returns the first violation.
func (s *Store) Check() error {
	if err := s.table.Check(); err != nil {
		return err
	}
	n := s.table.Len()
	children := 0
	for i := range n {
		p := s.parent.Get(i)
		if p != none {
			if p >= i {
				return fmt.Errorf("%w: parent %d not before child %d", ErrHierarchy, p, i)
			}
			switch {
			case s.table.IsNew(p) && !s.table.IsNew(i):
				return fmt.Errorf("%w: new parent %d has non-new child %d", ErrHierarchy, p, i)
			case s.table.IsDirty(p) && s.table.IsClean(i):
				return fmt.Errorf("%w: dirty parent %d has clean child %d", ErrHierarchy, p, i)
			}
		}
		prev := none
		for c := s.firstChild.Get(i); c != none; c = s.next.Get(c) {
			if c < 0 || c >= n {
				return fmt.Errorf("%w: child link %d out of range", ErrHierarchy, c)
			}
			if s.parent.Get(c) != i {
				return fmt.Errorf("%w: child %d of %d has parent %d", ErrHierarchy, c, i, s.parent.Get(c))
			}
			if s.prev.Get(c) != prev {
				return fmt.Errorf("%w: child %d has prev %d, want %d", ErrHierarchy, c, s.prev.Get(c), prev)
			}
			prev = c
			children++
			if children > n {
				return fmt.Errorf("%w: sibling list of %d loops", ErrHierarchy, i)
			}
		}
	}
	roots := 0
	for i := range n {
		if s.parent.Get(i) == none {
			roots++
			if s.prev.Get(i) != none || s.next.Get(i) != none {
				return fmt.Errorf("%w: root %d has siblings", ErrHierarchy, i)
			}
		}
	}
	if roots+children != n {
		return fmt.Errorf("%w: %d roots and %d linked children for %d rows", ErrHierarchy, roots, children, n)
	}
	return nil
}
