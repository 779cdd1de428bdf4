// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"errors"
	"fmt"
)

// MaxHandles is the number of logical handles an Interface can have live
// at once, and the size of the ResourceTable.
const MaxHandles = 4000

// Sentinel errors raised (as panics) by the protocol.
var (
	ErrHandlesExhausted = errors.New("render: logical handles exhausted")
	ErrInvalidHandle    = errors.New("render: invalid handle")
	ErrUnknownCommand   = errors.New("render: unknown command")
	ErrArenaOverflow    = errors.New("render: transient arena overflow")
	ErrLeak             = errors.New("render: transient payloads still live")
	ErrResourceLeak     = errors.New("render: backend resources still live")
	ErrClosed           = errors.New("render: channel closed")
	ErrWrongKind        = errors.New("render: resource kind mismatch")
)

// Handle is a producer-side logical handle. It names a ResourceTable slot
// that the render goroutine fills in asynchronously.
type Handle uint32

// NoHandle is the zero Handle; it never names a resource.
const NoHandle Handle = 0

// IsValid reports whether h is not NoHandle.
func (h Handle) IsValid() bool { return h != NoHandle }

// HandleAllocator is a fixed-capacity free list of handles 1..capacity.
// It is owned by the simulation goroutine.
type HandleAllocator struct {
	free []Handle
	live []bool
}

// NewHandleAllocator returns an allocator for handles 1..capacity.
func NewHandleAllocator(capacity int) *HandleAllocator {
	a := &HandleAllocator{
		free: make([]Handle, 0, capacity),
		live: make([]bool, capacity+1),
	}
	// Pop from the back so the lowest handles come out first.
	for h := capacity; h >= 1; h-- {
		a.free = append(a.free, Handle(h))
	}
	return a
}

// Allocate returns an unused handle. It panics with ErrHandlesExhausted
// when none are left.
func (a *HandleAllocator) Allocate() Handle {
	n := len(a.free)
	if n == 0 {
		panic(fmt.Errorf("%w: %d in use", ErrHandlesExhausted, len(a.live)-1))
	}
	h := a.free[n-1]
	a.free = a.free[:n-1]
	a.live[h] = true
	return h
}

// Free returns h to the pool. Freeing a handle that is not live panics
// with ErrInvalidHandle.
func (a *HandleAllocator) Free(h Handle) {
	if !a.IsLive(h) {
		panic(fmt.Errorf("%w: free of %d", ErrInvalidHandle, h))
	}
	a.live[h] = false
	a.free = append(a.free, h)
}

// IsLive reports whether h is currently allocated.
func (a *HandleAllocator) IsLive(h Handle) bool {
	return h != NoHandle && int(h) < len(a.live) && a.live[h]
}

// Available returns the number of free handles.
func (a *HandleAllocator) Available() int { return len(a.free) }
