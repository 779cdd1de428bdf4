// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package render implements the command protocol between the simulation
// goroutine and a dedicated render goroutine.
//
// # Key Principle
//
// The simulation side never touches device objects. It allocates logical
// handles synchronously and describes work as Commands; the render side
// creates the real resources later, in enqueue order, and stores them in a
// ResourceTable at the slot named by the logical handle.
//
// # Core Types
//
//   - Interface: producer facade used by the simulation goroutine
//   - Renderer: consumer that drains the Channel and drives a Backend
//   - Channel: fixed-capacity FIFO ring buffer of Commands
//   - Arena: frame-scoped transient memory for variable-size payloads
//   - Fence: rendezvous raised once every earlier command has executed
//   - ResourceTable: render-side RenderResource storage by Handle
//   - Backend: pluggable device layer (see NullBackend, backend/software
//     and backend/wgpu)
//
// # Frame Protocol
//
// A frame on the simulation goroutine looks like:
//
//	iface.BeginFrame()             // wait for the previous frame, reset the arena
//	// ... mutate component stores ...
//	iface.ReflectSprites(world, created, changed)
//	iface.RenderWorld(world, view, now)
//	iface.CombineRenderedWorlds(render.NoHandle)
//
// BeginFrame bounds render lag to one frame of commands in flight and is
// the only point where transient memory is recycled.
//
// # Errors
//
// Capacity exhaustion, invalid handles, unknown commands, arena overflow
// and leaks at shutdown are programming errors. They panic with an error
// wrapping one of the package's sentinel values, so a recovered value can
// be inspected with errors.Is.
//
// # Thread Safety
//
// Interface and the stores feeding it belong to the simulation goroutine.
// Renderer state, the ResourceTable and every backend object belong to the
// render goroutine. Only Commands cross between them.
package render
