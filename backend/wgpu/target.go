// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package wgpu

import (
	"fmt"
	"image"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/bowtie/geom"
)

// copyPitchAlignment is the row alignment required by texture-to-buffer
// copies.
const copyPitchAlignment = 256

// target is an offscreen color target that can be read back or sampled by
// a combine shader.
type target struct {
	tex  hal.Texture
	view hal.TextureView
	w, h uint32

	// pending is applied as the clear value of the next pass.
	pending *gputypes.Color
}

func newTarget(device hal.Device, size geom.Size, label string) (*target, error) {
	w, h := extent(size)
	tex, err := device.CreateTexture(&hal.TextureDescriptor{
		Label:         label,
		Size:          hal.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        targetFormat,
		Usage:         gputypes.TextureUsageRenderAttachment | gputypes.TextureUsageCopySrc | gputypes.TextureUsageTextureBinding,
	})
	if err != nil {
		return nil, fmt.Errorf("create %s texture: %w", label, err)
	}
	view, err := device.CreateTextureView(tex, &hal.TextureViewDescriptor{
		Label: label + "_view",
	})
	if err != nil {
		device.DestroyTexture(tex)
		return nil, fmt.Errorf("create %s view: %w", label, err)
	}
	return &target{tex: tex, view: view, w: w, h: h}, nil
}

func (t *target) destroy(device hal.Device) {
	if t.view != nil {
		device.DestroyTextureView(t.view)
		t.view = nil
	}
	if t.tex != nil {
		device.DestroyTexture(t.tex)
		t.tex = nil
	}
}

// colorAttachment returns the attachment for the next pass into t and
// consumes the pending clear.
func (t *target) colorAttachment() hal.RenderPassColorAttachment {
	att := hal.RenderPassColorAttachment{
		View:    t.view,
		LoadOp:  gputypes.LoadOpLoad,
		StoreOp: gputypes.StoreOpStore,
	}
	if t.pending != nil {
		att.LoadOp = gputypes.LoadOpClear
		att.ClearValue = *t.pending
		t.pending = nil
	}
	return att
}

// alignedRowBytes returns the padded row size of a readback of t.
func (t *target) alignedRowBytes() uint32 {
	return (t.w*4 + copyPitchAlignment - 1) &^ (copyPitchAlignment - 1)
}

// unpack strips the row padding of a readback into an image.
func (t *target) unpack(readback []byte) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, int(t.w), int(t.h)))
	tight := int(t.w) * 4
	aligned := int(t.alignedRowBytes())
	for row := 0; row < int(t.h); row++ {
		copy(img.Pix[row*img.Stride:row*img.Stride+tight], readback[row*aligned:row*aligned+tight])
	}
	return img
}

// texture is a sampled RGBA8 texture.
type texture struct {
	tex  hal.Texture
	view hal.TextureView
	w, h uint32
}

func newTexture(device hal.Device, queue hal.Queue, w, h uint32, pixels []byte) (*texture, error) {
	tex, err := device.CreateTexture(&hal.TextureDescriptor{
		Label:         "sprite_texture",
		Size:          hal.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        gputypes.TextureFormatRGBA8Unorm,
		Usage:         gputypes.TextureUsageTextureBinding | gputypes.TextureUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("create texture: %w", err)
	}
	view, err := device.CreateTextureView(tex, &hal.TextureViewDescriptor{
		Label:         "sprite_texture_view",
		Format:        gputypes.TextureFormatRGBA8Unorm,
		Dimension:     gputypes.TextureViewDimension2D,
		Aspect:        gputypes.TextureAspectAll,
		MipLevelCount: 1,
	})
	if err != nil {
		device.DestroyTexture(tex)
		return nil, fmt.Errorf("create texture view: %w", err)
	}
	t := &texture{tex: tex, view: view, w: w, h: h}
	t.write(queue, pixels)
	return t, nil
}

func (t *texture) write(queue hal.Queue, pixels []byte) {
	queue.WriteTexture(
		&hal.ImageCopyTexture{
			Texture:  t.tex,
			MipLevel: 0,
		},
		pixels,
		&hal.ImageDataLayout{
			Offset:       0,
			BytesPerRow:  t.w * 4,
			RowsPerImage: t.h,
		},
		&hal.Extent3D{Width: t.w, Height: t.h, DepthOrArrayLayers: 1},
	)
}

func (t *texture) destroy(device hal.Device) {
	if t.view != nil {
		device.DestroyTextureView(t.view)
		t.view = nil
	}
	if t.tex != nil {
		device.DestroyTexture(t.tex)
		t.tex = nil
	}
}

// extent clamps size to a valid texture extent.
func extent(size geom.Size) (uint32, uint32) {
	w, h := max(size.Width, 1), max(size.Height, 1)
	return uint32(w), uint32(h) //nolint:gosec // clamped positive
}
