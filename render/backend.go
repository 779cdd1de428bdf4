// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"image"

	"github.com/gogpu/bowtie/geom"
)

// Backend is the device layer driven by the Renderer. Every method is
// called on the render goroutine after InitializeThread.
//
// Create methods return a RenderResource owned by the backend; the
// Renderer stores it and passes it back to the matching Destroy method.
// Payload slices are only valid for the duration of the call.
type Backend interface {
	// Name returns the backend identifier used by the registry.
	Name() string

	// InitializeThread prepares the backend on the render goroutine.
	InitializeThread() error

	// Resize changes the output resolution.
	Resize(size geom.Size) error

	// Clear fills a render target with color.
	Clear(target RenderResource, color geom.Color) error

	// Draw renders the sprites of world, mapping view onto target.
	// Material and texture handles resolve through lut.
	Draw(target RenderResource, view geom.Rect, world *World, resolution geom.Size, lut *ResourceTable) error

	// CombineRenderedWorlds composites targets in order over the output
	// using quad and, if initialized, shader, then presents the frame.
	CombineRenderedWorlds(quad, shader RenderResource, targets []RenderResource) error

	CreateTexture(desc TextureDesc, pixels []byte) (RenderResource, error)
	UpdateTexture(tex RenderResource, desc TextureDesc, pixels []byte) (RenderResource, error)
	DestroyTexture(tex RenderResource)

	CreateShader(desc ShaderDesc, source []byte) (RenderResource, error)
	UpdateShader(shader RenderResource, desc ShaderDesc, source []byte) (RenderResource, error)
	DestroyShader(shader RenderResource)

	CreateGeometry(desc GeometryDesc, vertices []byte) (RenderResource, error)
	UpdateGeometry(geometry RenderResource, desc GeometryDesc, vertices []byte) (RenderResource, error)
	DestroyGeometry(geometry RenderResource)

	CreateRenderTarget(desc RenderTargetDesc) (RenderResource, error)
	DestroyRenderTarget(target RenderResource)

	// UniformLocation returns the location of name in shader, or -1.
	UniformLocation(shader RenderResource, name string) int

	// Shutdown releases device state. No other method is called after it.
	Shutdown()
}

// Presenter receives each combined frame.
type Presenter interface {
	Present(frame *image.RGBA) error
}

// PresenterFunc adapts a function to Presenter.
type PresenterFunc func(frame *image.RGBA) error

// Present calls f(frame).
func (f PresenterFunc) Present(frame *image.RGBA) error { return f(frame) }

// Presentable is implemented by backends that hand combined frames to a
// Presenter. SetPresenter is called before the Renderer starts.
type Presentable interface {
	SetPresenter(p Presenter)
}

// LiveCounter is implemented by backends that count the resources they
// have created and not destroyed. The Renderer checks the count after
// Shutdown.
type LiveCounter interface {
	Live() int
}
