// Package bowtie is a small 2D sprite engine built around an asynchronous
// render protocol.
//
// # Overview
//
// A simulation goroutine owns entities and their components. Every frame it
// walks the components that changed and describes the changes as commands
// on a bounded channel. A dedicated render goroutine drains the channel and
// applies the commands to a backend. Fences let the simulation wait for the
// renderer, which bounds the lag between the two to one frame.
//
// # Quick Start
//
//	e := bowtie.New(backend.MustDefault(), game, bowtie.WithFPS(60))
//	if err := e.Start(); err != nil {
//		log.Fatal(err)
//	}
//	defer e.Stop()
//	err := e.Run(ctx, window)
//
// The Game creates worlds with Engine.CreateWorld, mutates their transform
// and sprite stores in Update and enqueues renders in Draw.
//
// # Architecture
//
// The module is organized into:
//   - entity, component: generation-checked ids and columnar stores with
//     dirty and new partitions
//   - transform, sprite, world: the component stores and their per-frame sync
//   - render: the command protocol, Interface (producer) and Renderer
//     (consumer)
//   - backend: the backend registry with software and wgpu implementations
//   - loader, config: asset and settings files
//   - platform: windows and input, with a terminal implementation
//
// # Coordinate System
//
// Uses standard 2D graphics coordinates:
//   - Origin (0,0) at top-left
//   - X increases right
//   - Y increases down
//   - Angles in radians
package bowtie

// Version is the current version of the module.
const Version = "0.1.0"
