// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package software

import (
	"image"
	"image/color"

	"github.com/gogpu/gputypes"
	"golang.org/x/image/draw"

	"github.com/gogpu/bowtie/geom"
)

// Target is a CPU-backed render target using *image.RGBA.
//
// World targets and the combined frame are Targets. Pixels are stored
// premultiplied, as image.RGBA requires.
type Target struct {
	img *image.RGBA
}

// NewTarget creates a new CPU-backed render target.
func NewTarget(size geom.Size) *Target {
	return &Target{img: image.NewRGBA(image.Rect(0, 0, max(size.Width, 0), max(size.Height, 0)))}
}

// Width returns the target width in pixels.
func (t *Target) Width() int {
	return t.img.Bounds().Dx()
}

// Height returns the target height in pixels.
func (t *Target) Height() int {
	return t.img.Bounds().Dy()
}

// Size returns the target dimensions.
func (t *Target) Size() geom.Size {
	return geom.Size{Width: t.Width(), Height: t.Height()}
}

// Format returns the pixel format (RGBA8).
func (t *Target) Format() gputypes.TextureFormat {
	return gputypes.TextureFormatRGBA8Unorm
}

// Image returns the underlying *image.RGBA.
// The returned image shares memory with the target.
func (t *Target) Image() *image.RGBA {
	return t.img
}

// Clear fills the entire target with the given color.
func (t *Target) Clear(c color.Color) {
	draw.Draw(t.img, t.img.Bounds(), image.NewUniform(c), image.Point{}, draw.Src)
}

// Resize creates a new image with the given dimensions.
// The contents are not preserved.
func (t *Target) Resize(size geom.Size) {
	if size == t.Size() {
		return
	}
	t.img = image.NewRGBA(image.Rect(0, 0, max(size.Width, 0), max(size.Height, 0)))
}
