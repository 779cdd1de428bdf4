// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package software implements render.Backend on the CPU.
//
// Render targets and textures are *image.RGBA. Sprites are rasterized as
// affine-transformed images with golang.org/x/image/draw, and the combined
// frame is handed to a render.Presenter. Shaders are accepted and their
// uniform names resolved, but their code is not executed.
//
// Importing the package registers it as "software":
//
//	import _ "github.com/gogpu/bowtie/backend/software"
package software

import (
	"fmt"
	"image"
	"image/color"
	"math"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/math/f64"

	"github.com/gogpu/bowtie/backend"
	"github.com/gogpu/bowtie/geom"
	"github.com/gogpu/bowtie/render"
)

func init() {
	backend.Register(backend.BackendSoftware, func() render.Backend {
		return New()
	})
}

// Option configures a Backend.
type Option func(*Backend)

// WithPresenter sets the presenter receiving combined frames.
func WithPresenter(p render.Presenter) Option {
	return func(b *Backend) {
		b.presenter = p
	}
}

// WithInterpolator sets the sampler used for textured sprites. The default
// is xdraw.ApproxBiLinear.
func WithInterpolator(i xdraw.Interpolator) Option {
	return func(b *Backend) {
		b.sampler = i
	}
}

type shader struct {
	desc render.ShaderDesc
}

type geometry struct {
	desc     render.GeometryDesc
	vertices []byte
}

// Backend is the CPU render.Backend. Like every backend it is used from
// the render goroutine only.
type Backend struct {
	presenter render.Presenter
	sampler   xdraw.Interpolator

	size  geom.Size
	frame *Target
	live  int
}

var (
	_ render.Backend     = (*Backend)(nil)
	_ render.Presentable = (*Backend)(nil)
	_ render.LiveCounter = (*Backend)(nil)
)

// New returns a software backend.
func New(opts ...Option) *Backend {
	b := &Backend{sampler: xdraw.ApproxBiLinear}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// SetPresenter sets the presenter receiving combined frames.
func (b *Backend) SetPresenter(p render.Presenter) { b.presenter = p }

// Live returns the number of resources created and not destroyed.
func (b *Backend) Live() int { return b.live }

// Name returns the backend identifier.
func (b *Backend) Name() string { return backend.BackendSoftware }

// InitializeThread allocates the output frame.
func (b *Backend) InitializeThread() error {
	b.frame = NewTarget(b.size)
	return nil
}

// Resize reallocates the output frame.
func (b *Backend) Resize(size geom.Size) error {
	if size.Width < 0 || size.Height < 0 {
		return fmt.Errorf("software: invalid size %dx%d", size.Width, size.Height)
	}
	b.size = size
	if b.frame != nil {
		b.frame.Resize(size)
	}
	return nil
}

// Clear fills target with c.
func (b *Backend) Clear(target render.RenderResource, c geom.Color) error {
	t, err := asTarget(target)
	if err != nil {
		return err
	}
	t.Clear(c.NRGBA())
	return nil
}

// Draw rasterizes the sprites of world in order, mapping view onto the
// target.
func (b *Backend) Draw(target render.RenderResource, view geom.Rect, world *render.World, _ geom.Size, lut *render.ResourceTable) error {
	t, err := asTarget(target)
	if err != nil {
		return err
	}
	toPixels := geom.RectToRect(view, geom.R(0, 0, float64(t.Width()), float64(t.Height())))
	for _, s := range world.Sprites {
		b.drawSprite(t.Image(), toPixels, &s.State, lut)
	}
	return nil
}

func (b *Backend) drawSprite(dst *image.RGBA, toPixels geom.Matrix, st *render.SpriteState, lut *render.ResourceTable) {
	var q geom.Quad
	for i, p := range st.Quad {
		q[i] = toPixels.Apply(p)
	}
	if tex := spriteTexture(st, lut); tex != nil {
		sr := tex.Bounds()
		opts := &xdraw.Options{}
		if st.Color.A < 1 {
			opts.SrcMask = image.NewUniform(color.Alpha{A: st.Color.NRGBA().A})
		}
		transform(b.sampler, dst, q, tex, sr, opts)
		return
	}
	src := image.NewUniform(st.Color.NRGBA())
	transform(xdraw.NearestNeighbor, dst, q, src, image.Rect(0, 0, 1, 1), nil)
}

// transform draws sr of src over dst so that its corners land on q.
func transform(interp xdraw.Interpolator, dst *image.RGBA, q geom.Quad, src image.Image, sr image.Rectangle, opts *xdraw.Options) {
	w, h := float64(sr.Dx()), float64(sr.Dy())
	if w == 0 || h == 0 {
		return
	}
	ux, uy := (q[1].X-q[0].X)/w, (q[1].Y-q[0].Y)/w
	vx, vy := (q[3].X-q[0].X)/h, (q[3].Y-q[0].Y)/h
	if math.Abs(ux*vy-vx*uy) < 1e-12 {
		return
	}
	s2d := f64.Aff3{
		ux, vx, q[0].X - ux*float64(sr.Min.X) - vx*float64(sr.Min.Y),
		uy, vy, q[0].Y - uy*float64(sr.Min.X) - vy*float64(sr.Min.Y),
	}
	interp.Transform(dst, s2d, src, sr, xdraw.Over, opts)
}

func spriteTexture(st *render.SpriteState, lut *render.ResourceTable) *image.RGBA {
	if lut == nil || !st.Material.IsValid() {
		return nil
	}
	res, ok := lut.Lookup(st.Material)
	if !ok {
		return nil
	}
	m, ok := res.Object.(*render.Material)
	if !ok || !m.Texture.IsValid() {
		return nil
	}
	res, ok = lut.Lookup(m.Texture)
	if !ok {
		return nil
	}
	tex, _ := res.Object.(*image.RGBA)
	return tex
}

// CombineRenderedWorlds draws targets over a transparent frame, scaling
// each to the output size, and presents the result. Shaders are not run on
// the CPU, so a combine shader is ignored.
func (b *Backend) CombineRenderedWorlds(_, shader render.RenderResource, targets []render.RenderResource) error {
	if b.frame == nil {
		return fmt.Errorf("software: combine before InitializeThread")
	}
	if shader.IsInitialized() {
		render.Logger().Debug("software: combine shader ignored")
	}
	frame := b.frame.Image()
	b.frame.Clear(color.Transparent)
	for _, r := range targets {
		t, err := asTarget(r)
		if err != nil {
			return err
		}
		src := t.Image()
		if src.Bounds() == frame.Bounds() {
			xdraw.Draw(frame, frame.Bounds(), src, image.Point{}, xdraw.Over)
			continue
		}
		xdraw.ApproxBiLinear.Scale(frame, frame.Bounds(), src, src.Bounds(), xdraw.Over, nil)
	}
	if b.presenter == nil {
		return nil
	}
	if err := b.presenter.Present(frame); err != nil {
		return fmt.Errorf("software: present: %w", err)
	}
	return nil
}

// CreateTexture copies pixels into a new RGBA image.
func (b *Backend) CreateTexture(desc render.TextureDesc, pixels []byte) (render.RenderResource, error) {
	img, err := newTexture(desc, pixels)
	if err != nil {
		return render.RenderResource{}, err
	}
	b.live++
	return render.ObjectResource(render.KindTexture, img), nil
}

// UpdateTexture replaces the texture contents, reallocating on a size
// change.
func (b *Backend) UpdateTexture(tex render.RenderResource, desc render.TextureDesc, pixels []byte) (render.RenderResource, error) {
	img, ok := tex.Object.(*image.RGBA)
	if !ok {
		return tex, fmt.Errorf("software: %w: texture is %T", render.ErrWrongKind, tex.Object)
	}
	if img.Bounds().Dx() != desc.Width || img.Bounds().Dy() != desc.Height {
		n, err := newTexture(desc, pixels)
		if err != nil {
			return tex, err
		}
		return render.ObjectResource(render.KindTexture, n), nil
	}
	if err := checkPixels(desc, pixels); err != nil {
		return tex, err
	}
	copy(img.Pix, pixels)
	return tex, nil
}

func newTexture(desc render.TextureDesc, pixels []byte) (*image.RGBA, error) {
	if err := checkPixels(desc, pixels); err != nil {
		return nil, err
	}
	img := image.NewRGBA(image.Rect(0, 0, desc.Width, desc.Height))
	copy(img.Pix, pixels)
	return img, nil
}

func checkPixels(desc render.TextureDesc, pixels []byte) error {
	if desc.Width <= 0 || desc.Height <= 0 {
		return fmt.Errorf("software: invalid texture size %dx%d", desc.Width, desc.Height)
	}
	if need := desc.RowBytes() * desc.Height; len(pixels) < need {
		return fmt.Errorf("software: texture needs %d bytes, got %d", need, len(pixels))
	}
	return nil
}

// DestroyTexture releases a texture.
func (b *Backend) DestroyTexture(render.RenderResource) { b.live-- }

// CreateShader records the shader descriptor. The source is not compiled.
func (b *Backend) CreateShader(desc render.ShaderDesc, _ []byte) (render.RenderResource, error) {
	b.live++
	return render.ObjectResource(render.KindShader, &shader{desc: desc}), nil
}

// UpdateShader replaces the recorded descriptor.
func (b *Backend) UpdateShader(s render.RenderResource, desc render.ShaderDesc, _ []byte) (render.RenderResource, error) {
	sh, ok := s.Object.(*shader)
	if !ok {
		return s, fmt.Errorf("software: %w: shader is %T", render.ErrWrongKind, s.Object)
	}
	sh.desc = desc
	return s, nil
}

// DestroyShader releases a shader.
func (b *Backend) DestroyShader(render.RenderResource) { b.live-- }

// CreateGeometry keeps a copy of the vertex data.
func (b *Backend) CreateGeometry(desc render.GeometryDesc, vertices []byte) (render.RenderResource, error) {
	b.live++
	g := &geometry{desc: desc, vertices: append([]byte(nil), vertices...)}
	return render.ObjectResource(render.KindGeometry, g), nil
}

// UpdateGeometry replaces the vertex data.
func (b *Backend) UpdateGeometry(g render.RenderResource, desc render.GeometryDesc, vertices []byte) (render.RenderResource, error) {
	geo, ok := g.Object.(*geometry)
	if !ok {
		return g, fmt.Errorf("software: %w: geometry is %T", render.ErrWrongKind, g.Object)
	}
	geo.desc = desc
	geo.vertices = append(geo.vertices[:0], vertices...)
	return g, nil
}

// DestroyGeometry releases a geometry.
func (b *Backend) DestroyGeometry(render.RenderResource) { b.live-- }

// CreateRenderTarget allocates an image of desc.Size.
func (b *Backend) CreateRenderTarget(desc render.RenderTargetDesc) (render.RenderResource, error) {
	b.live++
	return render.ObjectResource(render.KindRenderTarget, NewTarget(desc.Size)), nil
}

// DestroyRenderTarget releases a render target.
func (b *Backend) DestroyRenderTarget(render.RenderResource) { b.live-- }

// UniformLocation returns the index of name among the shader's declared
// uniforms, or -1.
func (b *Backend) UniformLocation(s render.RenderResource, name string) int {
	sh, ok := s.Object.(*shader)
	if !ok {
		return -1
	}
	for i, n := range sh.desc.UniformNames {
		if n == name {
			return i
		}
	}
	return -1
}

// Shutdown drops the output frame.
func (b *Backend) Shutdown() {
	b.frame = nil
}

func asTarget(r render.RenderResource) (*Target, error) {
	t, ok := r.Object.(*Target)
	if !ok {
		return nil, fmt.Errorf("software: %w: render target is %T", render.ErrWrongKind, r.Object)
	}
	return t, nil
}
