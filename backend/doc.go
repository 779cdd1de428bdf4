// Package backend is the registry of render.Backend implementations.
//
// Backend packages register a factory from init(), so importing them for
// side effects makes them selectable by name:
//
//	import (
//		_ "github.com/gogpu/bowtie/backend/wgpu"
//		_ "github.com/gogpu/bowtie/backend/software"
//	)
//
// # Backend Selection
//
// Use Default() to get the best available backend, or Open() to request a
// specific backend by name:
//
//	b := backend.Default()
//
//	b, err := backend.Open("software")
//	if err != nil {
//		log.Fatal(err)
//	}
//
// A factory may return nil when its backend cannot run in the current
// environment; the GPU backend does so until a device provider is set.
//
// # Available Backends
//
//   - "wgpu": GPU rendering through gogpu/wgpu hal
//   - "software": CPU rendering into image.RGBA targets
//   - "null": records calls and draws nothing (always registered)
package backend
