// Package wgpu implements render.Backend on the gogpu/wgpu hardware
// abstraction layer.
//
// The backend renders sprites as textured triangles into RGBA8 render
// targets. Loaded shaders are compiled to SPIR-V with gogpu/naga. Without a
// combine shader, combining reads every world target back to the CPU,
// composites the images and hands the frame to a render.Presenter.
//
// # Shaders
//
// Every pipeline shares one bind group layout:
//
//	@group(0) @binding(0) var<uniform> ...        // uniforms
//	@group(0) @binding(1) var t: texture_2d<f32>  // sprite or world texture
//	@group(0) @binding(2) var s: sampler
//
// A material shader receives sprite vertices with position at location 0,
// premultiplied color at location 1 and uv at location 2. Its uniform
// struct members are filled from the material uniforms in declaration
// order, so the material must list every member. A combine shader
// receives the fullscreen quad (clip-space position at location 0, uv at
// location 1), is drawn once per world target and may only declare
// automatic uniforms such as resolution and time.
//
// # Device Sharing
//
// The backend does not open a device itself. Pass one to New, or obtain it
// from a gpucontext.DeviceProvider that also exposes its HAL objects:
//
//	b, err := wgpu.NewFromProvider(provider)
//
// The registry factory, selected with backend.Open("wgpu"), yields a
// backend only after SetProvider has been called:
//
//	wgpu.SetProvider(provider)
//	b := backend.Default() // wgpu when a provider is set
//
// # Threading
//
// Like every backend, Backend is driven from the render goroutine only.
// The device and queue must not be used concurrently by other code while
// the Renderer is running.
package wgpu
