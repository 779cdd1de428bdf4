package entity

import (
	"errors"
	"testing"
)

func TestCreateIsAlive(t *testing.T) {
	m := NewManager()
	a := m.Create()
	b := m.Create()

	if a == b {
		t.Fatalf("Create returned duplicate entity %v", a)
	}
	if a.IsZero() || b.IsZero() {
		t.Fatal("Create returned Zero")
	}
	if !m.IsAlive(a) || !m.IsAlive(b) {
		t.Error("fresh entities not alive")
	}
	if m.Len() != 2 {
		t.Errorf("Len() = %d, want 2", m.Len())
	}
	if m.IsAlive(Zero) {
		t.Error("Zero reported alive")
	}
}

func TestDestroyedNeverAliveAfterRecycle(t *testing.T) {
	m := NewManager()
	var destroyed []Entity

	for round := 0; round < 50; round++ {
		e := m.Create()
		if e.Index() != 0 {
			t.Fatalf("round %d: index %d, want recycled 0", round, e.Index())
		}
		for _, old := range destroyed {
			if m.IsAlive(old) {
				t.Fatalf("round %d: stale %v reported alive", round, old)
			}
		}
		m.Destroy(e)
		destroyed = append(destroyed, e)
	}
	if m.Len() != 0 {
		t.Errorf("Len() = %d, want 0", m.Len())
	}
}

func TestGenerationWrapSkipsZero(t *testing.T) {
	m := NewManager()
	seen := make(map[Entity]bool)
	for i := 0; i < 3*(1<<GenerationBits); i++ {
		e := m.Create()
		if e.IsZero() || e.Generation() == 0 {
			t.Fatalf("iteration %d: got %v with generation 0", i, e)
		}
		seen[e] = true
		m.Destroy(e)
	}
	// Index 0 with generations 1..4095 only.
	if len(seen) > generationMask {
		t.Errorf("saw %d distinct entities on one index, want <= %d", len(seen), generationMask)
	}
}

func TestGenerationWrapReissuesOldHandle(t *testing.T) {
	m := NewManager()
	first := m.Create()
	m.Destroy(first)
	for reuse := 1; reuse <= generationMask; reuse++ {
		e := m.Create()
		if e == first {
			if !m.IsAlive(first) {
				t.Fatal("reissued handle not alive")
			}
			return
		}
		if m.IsAlive(first) {
			t.Fatalf("reuse %d: %v alive while %v holds the index", reuse, first, e)
		}
		m.Destroy(e)
	}
	t.Fatalf("generation did not wrap within %d reuses", generationMask)
}

func TestDestroyDeadPanics(t *testing.T) {
	m := NewManager()
	e := m.Create()
	m.Destroy(e)

	defer func() {
		r := recover()
		err, ok := r.(error)
		if !ok || !errors.Is(err, ErrNotAlive) {
			t.Fatalf("recover() = %v, want ErrNotAlive", r)
		}
	}()
	m.Destroy(e)
}

func TestExhaustionPanics(t *testing.T) {
	m := newManager(4)
	for i := 0; i < 4; i++ {
		m.Create()
	}

	defer func() {
		r := recover()
		err, ok := r.(error)
		if !ok || !errors.Is(err, ErrExhausted) {
			t.Fatalf("recover() = %v, want ErrExhausted", r)
		}
	}()
	m.Create()
}

func TestEntityEncoding(t *testing.T) {
	e := makeEntity(12345, 77)
	if e.Index() != 12345 {
		t.Errorf("Index() = %d, want 12345", e.Index())
	}
	if e.Generation() != 77 {
		t.Errorf("Generation() = %d, want 77", e.Generation())
	}
	if got := e.String(); got != "entity(12345:77)" {
		t.Errorf("String() = %q", got)
	}
}
