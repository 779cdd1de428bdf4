// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"fmt"
	"sync"
)

// DefaultChannelCapacity is the command capacity used when none is given.
const DefaultChannelCapacity = 1024

// Channel is a fixed-capacity FIFO of Commands shared by one producer and
// one consumer. The consumer drains in batches under the lock.
type Channel struct {
	mu       sync.Mutex
	notEmpty *sync.Cond
	notFull  *sync.Cond

	buf    []Command
	head   int
	count  int
	closed bool
}

// NewChannel returns a channel holding up to capacity commands.
// A non-positive capacity selects DefaultChannelCapacity.
func NewChannel(capacity int) *Channel {
	if capacity <= 0 {
		capacity = DefaultChannelCapacity
	}
	c := &Channel{buf: make([]Command, capacity)}
	c.notEmpty = sync.NewCond(&c.mu)
	c.notFull = sync.NewCond(&c.mu)
	return c
}

// TryPush appends cmd if there is room and reports whether it did.
func (c *Channel) TryPush(cmd Command) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.checkOpen(cmd)
	if c.count == len(c.buf) {
		return false
	}
	c.push(cmd)
	return true
}

// Push appends cmd, blocking while the channel is full.
func (c *Channel) Push(cmd Command) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.checkOpen(cmd)
	for c.count == len(c.buf) && !c.closed {
		c.notFull.Wait()
	}
	c.checkOpen(cmd)
	c.push(cmd)
}

func (c *Channel) push(cmd Command) {
	c.buf[(c.head+c.count)%len(c.buf)] = cmd
	c.count++
	c.notEmpty.Signal()
}

func (c *Channel) checkOpen(cmd Command) {
	if c.closed {
		panic(fmt.Errorf("%w: push of %v", ErrClosed, cmd.Kind))
	}
}

// Wait blocks until at least one command is queued or the channel is
// closed, then moves every queued command onto dst and returns it. open is
// false once the channel is closed and the returned batch is the last one.
func (c *Channel) Wait(dst []Command) (batch []Command, open bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for c.count == 0 && !c.closed {
		c.notEmpty.Wait()
	}
	for c.count > 0 {
		dst = append(dst, c.buf[c.head])
		c.buf[c.head] = Command{}
		c.head = (c.head + 1) % len(c.buf)
		c.count--
	}
	c.notFull.Broadcast()
	return dst, !c.closed
}

// Close stops the channel. Commands already queued are still delivered by
// Wait; later pushes panic with ErrClosed.
func (c *Channel) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	c.notEmpty.Broadcast()
	c.notFull.Broadcast()
}

// Len returns the number of queued commands.
func (c *Channel) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.count
}

// Cap returns the channel capacity.
func (c *Channel) Cap() int { return len(c.buf) }
