package render

import (
	"errors"
	"testing"
	"time"
)

// expectPanic runs fn and checks that it panics with an error wrapping
// target.
func expectPanic(t *testing.T, target error, fn func()) {
	t.Helper()
	defer func() {
		t.Helper()
		v := recover()
		if v == nil {
			t.Fatalf("expected panic wrapping %v", target)
		}
		err, ok := v.(error)
		if !ok || !errors.Is(err, target) {
			t.Fatalf("panic = %v, want error wrapping %v", v, target)
		}
	}()
	fn()
}

func TestHandleAllocator(t *testing.T) {
	a := NewHandleAllocator(3)
	if got := a.Available(); got != 3 {
		t.Fatalf("Available() = %d, want 3", got)
	}
	h1, h2, h3 := a.Allocate(), a.Allocate(), a.Allocate()
	if h1 != 1 || h2 != 2 || h3 != 3 {
		t.Fatalf("handles = %d %d %d, want 1 2 3", h1, h2, h3)
	}
	expectPanic(t, ErrHandlesExhausted, func() { a.Allocate() })

	a.Free(h2)
	if a.IsLive(h2) {
		t.Errorf("IsLive(%d) after Free", h2)
	}
	if got := a.Allocate(); got != h2 {
		t.Errorf("reallocated %d, want %d", got, h2)
	}
	expectPanic(t, ErrInvalidHandle, func() { a.Free(NoHandle) })
	a.Free(h3)
	expectPanic(t, ErrInvalidHandle, func() { a.Free(h3) })
}

func TestResourceTable(t *testing.T) {
	tbl := NewResourceTable(4)
	if tbl.Initialized(1) {
		t.Fatal("fresh slot is initialized")
	}
	expectPanic(t, ErrInvalidHandle, func() { tbl.Get(1) })
	expectPanic(t, ErrInvalidHandle, func() { tbl.Set(5, HandleResource(KindTexture, 1)) })
	expectPanic(t, ErrInvalidHandle, func() { tbl.Set(NoHandle, HandleResource(KindTexture, 1)) })

	tbl.Set(2, HandleResource(KindTexture, 7))
	tbl.Set(4, ObjectResource(KindWorld, &World{}))
	if got := tbl.Get(2); got.Handle != 7 || got.Kind != KindTexture {
		t.Errorf("Get(2) = %+v", got)
	}

	var seen []Handle
	tbl.Each(func(h Handle, _ RenderResource) { seen = append(seen, h) })
	if len(seen) != 2 || seen[0] != 2 || seen[1] != 4 {
		t.Errorf("Each visited %v, want [2 4]", seen)
	}

	tbl.Clear(2)
	if _, ok := tbl.Lookup(2); ok {
		t.Error("Lookup(2) ok after Clear")
	}
}

func TestChannelBackpressure(t *testing.T) {
	ch := NewChannel(2)
	if !ch.TryPush(Command{Kind: CommandResize}) || !ch.TryPush(Command{Kind: CommandRenderWorld}) {
		t.Fatal("TryPush failed on an empty channel")
	}
	if ch.TryPush(Command{Kind: CommandFence}) {
		t.Fatal("TryPush succeeded on a full channel")
	}

	pushed := make(chan struct{})
	go func() {
		ch.Push(Command{Kind: CommandCombineRenderedWorlds})
		close(pushed)
	}()

	select {
	case <-pushed:
		t.Fatal("Push returned while the channel was full")
	case <-time.After(20 * time.Millisecond):
	}

	batch, open := ch.Wait(nil)
	if !open {
		t.Fatal("Wait reported closed")
	}
	if len(batch) != 2 || batch[0].Kind != CommandResize || batch[1].Kind != CommandRenderWorld {
		t.Fatalf("first batch = %v", kinds(batch))
	}

	select {
	case <-pushed:
	case <-time.After(5 * time.Second):
		t.Fatal("blocked Push never completed")
	}
	batch, _ = ch.Wait(batch[:0])
	if len(batch) != 1 || batch[0].Kind != CommandCombineRenderedWorlds {
		t.Fatalf("second batch = %v", kinds(batch))
	}
}

func TestChannelClose(t *testing.T) {
	ch := NewChannel(4)
	ch.Push(Command{Kind: CommandResize})
	ch.Close()

	batch, open := ch.Wait(nil)
	if open {
		t.Error("Wait reported open after Close")
	}
	if len(batch) != 1 {
		t.Errorf("final batch has %d commands, want 1", len(batch))
	}
	expectPanic(t, ErrClosed, func() { ch.Push(Command{Kind: CommandResize}) })
	expectPanic(t, ErrClosed, func() { ch.TryPush(Command{Kind: CommandResize}) })
}

func TestChannelWrapsAround(t *testing.T) {
	ch := NewChannel(3)
	var got []CommandKind
	for round := range 4 {
		for k := range 3 {
			ch.Push(Command{Kind: CommandKind((round + k) % int(commandKindCount))})
		}
		batch, _ := ch.Wait(nil)
		got = append(got, kinds(batch)...)
	}
	for i, k := range got {
		want := CommandKind((i/3 + i%3) % int(commandKindCount))
		if k != want {
			t.Fatalf("got[%d] = %v, want %v", i, k, want)
		}
	}
}

func TestArena(t *testing.T) {
	a := NewArena(8)
	b := a.Copy([]byte{1, 2, 3})
	if len(b) != 3 || b[2] != 3 {
		t.Fatalf("Copy = %v", b)
	}
	if a.Used() != 3 {
		t.Errorf("Used() = %d, want 3", a.Used())
	}
	if a.Alloc(0) != nil {
		t.Error("Alloc(0) returned memory")
	}
	expectPanic(t, ErrArenaOverflow, func() { a.Alloc(6) })

	a.Acquire()
	expectPanic(t, ErrLeak, a.Reset)
	a.Release()
	a.Reset()
	if a.Used() != 0 {
		t.Errorf("Used() after Reset = %d", a.Used())
	}
	if got := a.Alloc(8); len(got) != 8 || got[0] != 0 {
		t.Errorf("Alloc after Reset = %v, want zeroed 8 bytes", got)
	}
}

func TestFence(t *testing.T) {
	f := NewFence()
	if f.Signaled() {
		t.Fatal("new fence is signaled")
	}
	f.Signal()
	f.Signal()
	if !f.Signaled() {
		t.Fatal("fence not signaled")
	}
	f.Wait()
}

func TestCommandKindString(t *testing.T) {
	tests := []struct {
		kind CommandKind
		want string
	}{
		{CommandFence, "Fence"},
		{CommandSpriteStateReflection, "SpriteStateReflection"},
		{CommandKind(200), "Unknown"},
	}
	for _, tt := range tests {
		if got := tt.kind.String(); got != tt.want {
			t.Errorf("CommandKind(%d).String() = %q, want %q", tt.kind, got, tt.want)
		}
	}
}

func TestFloatCodec(t *testing.T) {
	in := []float32{1, -0.5, 3.25}
	buf := make([]byte, len(in)*4)
	encodeFloats(buf, in)
	out := DecodeFloats(buf)
	for i := range in {
		if out[i] != in[i] {
			t.Fatalf("DecodeFloats = %v, want %v", out, in)
		}
	}
}

func kinds(cmds []Command) []CommandKind {
	out := make([]CommandKind, len(cmds))
	for i, c := range cmds {
		out[i] = c.Kind
	}
	return out
}
