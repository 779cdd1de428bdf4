// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import "sync"

// Fence is a one-shot rendezvous. The renderer signals it when it reaches
// the fence command, which means every command enqueued before it has
// executed.
type Fence struct {
	once sync.Once
	done chan struct{}
}

// NewFence returns an unsignaled fence.
func NewFence() *Fence {
	return &Fence{done: make(chan struct{})}
}

// Signal marks the fence as passed. Extra calls are ignored.
func (f *Fence) Signal() {
	f.once.Do(func() { close(f.done) })
}

// Wait blocks until the fence is signaled.
func (f *Fence) Wait() { <-f.done }

// Done returns a channel closed on signal.
func (f *Fence) Done() <-chan struct{} { return f.done }

// Signaled reports whether Signal has been called.
func (f *Fence) Signaled() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}
