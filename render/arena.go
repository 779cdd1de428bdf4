// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"fmt"
	"sync/atomic"
)

// DefaultArenaSize is the transient arena size used when none is given.
const DefaultArenaSize = 16 << 20

// Arena is a bump allocator for variable-size command payloads. The
// producer allocates from it; the consumer only reads. It is recycled once
// per frame by Reset, after the consumer is idle.
type Arena struct {
	buf  []byte
	off  int
	live atomic.Int64
}

// NewArena returns an arena of size bytes. A non-positive size selects
// DefaultArenaSize.
func NewArena(size int) *Arena {
	if size <= 0 {
		size = DefaultArenaSize
	}
	return &Arena{buf: make([]byte, size)}
}

// Alloc returns n zeroed bytes. It panics with ErrArenaOverflow when the
// arena cannot hold them.
func (a *Arena) Alloc(n int) []byte {
	if n == 0 {
		return nil
	}
	if n < 0 || a.off+n > len(a.buf) {
		panic(fmt.Errorf("%w: need %d bytes, %d of %d used", ErrArenaOverflow, n, a.off, len(a.buf)))
	}
	b := a.buf[a.off : a.off+n : a.off+n]
	clear(b)
	a.off += n
	return b
}

// Copy copies b into the arena and returns the arena copy.
func (a *Arena) Copy(b []byte) []byte {
	dst := a.Alloc(len(b))
	copy(dst, b)
	return dst
}

// Acquire records one dispatched command holding arena memory.
func (a *Arena) Acquire() { a.live.Add(1) }

// Release records that the consumer finished with one command.
func (a *Arena) Release() { a.live.Add(-1) }

// Live returns the number of dispatched commands not yet released.
func (a *Arena) Live() int64 { return a.live.Load() }

// Used returns the number of allocated bytes.
func (a *Arena) Used() int { return a.off }

// Size returns the arena capacity in bytes.
func (a *Arena) Size() int { return len(a.buf) }

// Reset recycles all memory. It panics with ErrLeak if commands are still
// in flight.
func (a *Arena) Reset() {
	if n := a.live.Load(); n != 0 {
		panic(fmt.Errorf("%w: %d commands", ErrLeak, n))
	}
	a.off = 0
}
