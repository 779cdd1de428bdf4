// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package wgpu

import (
	"errors"
	"fmt"
	"image"
	"sync"
	"time"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/naga"
	"github.com/gogpu/wgpu/hal"
	xdraw "golang.org/x/image/draw"

	"github.com/gogpu/bowtie/backend"
	"github.com/gogpu/bowtie/geom"
	"github.com/gogpu/bowtie/render"
)

// ErrNoHAL is returned when a device provider does not expose its HAL
// device and queue.
var ErrNoHAL = errors.New("wgpu: provider does not expose HAL types")

// fenceTimeout bounds every wait for submitted work.
const fenceTimeout = 5 * time.Second

var (
	providerMu sync.Mutex
	provider   gpucontext.DeviceProvider
)

func init() {
	backend.Register(backend.BackendWGPU, func() render.Backend {
		providerMu.Lock()
		p := provider
		providerMu.Unlock()
		if p == nil {
			return nil
		}
		b, err := NewFromProvider(p)
		if err != nil {
			render.Logger().Warn("wgpu: provider rejected", "err", err)
			return nil
		}
		return b
	})
}

// SetProvider sets the device provider used by the registry factory. A
// nil provider disables the factory again.
func SetProvider(p gpucontext.DeviceProvider) {
	providerMu.Lock()
	provider = p
	providerMu.Unlock()
}

type shader struct {
	module hal.ShaderModule
	desc   render.ShaderDesc
}

type geometry struct {
	buf  hal.Buffer
	desc render.GeometryDesc
}

// Backend is the GPU render.Backend.
type Backend struct {
	device hal.Device
	queue  hal.Queue

	pipeline  *spritePipeline
	presenter render.Presenter
	size      geom.Size
	live      int

	// Pipelines built from loaded shaders, per use.
	materialPipelines map[*shader]hal.RenderPipeline
	combinePipelines  map[*shader]hal.RenderPipeline

	// output receives shader-composed frames.
	output *target
	// time is the world time of the last Draw.
	time float64
}

var (
	_ render.Backend     = (*Backend)(nil)
	_ render.Presentable = (*Backend)(nil)
	_ render.LiveCounter = (*Backend)(nil)
)

// New returns a backend drawing with device and queue. The caller keeps
// ownership of both.
func New(device hal.Device, queue hal.Queue) *Backend {
	return &Backend{
		device:            device,
		queue:             queue,
		materialPipelines: make(map[*shader]hal.RenderPipeline),
		combinePipelines:  make(map[*shader]hal.RenderPipeline),
	}
}

// NewFromProvider returns a backend on the shared device of p. The
// provider must implement HalDevice() any and HalQueue() any returning
// hal.Device and hal.Queue.
func NewFromProvider(p gpucontext.DeviceProvider) (*Backend, error) {
	type halProvider interface {
		HalDevice() any
		HalQueue() any
	}
	hp, ok := p.(halProvider)
	if !ok {
		return nil, ErrNoHAL
	}
	device, ok := hp.HalDevice().(hal.Device)
	if !ok || device == nil {
		return nil, fmt.Errorf("%w: HalDevice is %T", ErrNoHAL, hp.HalDevice())
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok || queue == nil {
		return nil, fmt.Errorf("%w: HalQueue is %T", ErrNoHAL, hp.HalQueue())
	}
	return New(device, queue), nil
}

// SetPresenter sets the presenter receiving combined frames.
func (b *Backend) SetPresenter(p render.Presenter) { b.presenter = p }

// Live returns the number of resources created and not destroyed.
func (b *Backend) Live() int { return b.live }

// Name returns the backend identifier.
func (b *Backend) Name() string { return backend.BackendWGPU }

// InitializeThread creates the sprite pipeline.
func (b *Backend) InitializeThread() error {
	p, err := newSpritePipeline(b.device, b.queue)
	if err != nil {
		return fmt.Errorf("wgpu: %w", err)
	}
	b.pipeline = p
	render.Logger().Info("wgpu: backend initialized")
	return nil
}

// Resize records the output resolution. World targets are recreated by
// the Renderer.
func (b *Backend) Resize(size geom.Size) error {
	if size.Width < 0 || size.Height < 0 {
		return fmt.Errorf("wgpu: invalid size %dx%d", size.Width, size.Height)
	}
	b.size = size
	return nil
}

// Clear sets the clear color applied by the next pass into target.
func (b *Backend) Clear(tgt render.RenderResource, c geom.Color) error {
	t, err := asTarget(tgt)
	if err != nil {
		return err
	}
	p := c.Premultiplied()
	t.pending = &gputypes.Color{R: float64(p.R), G: float64(p.G), B: float64(p.B), A: float64(p.A)}
	return nil
}

// Draw renders the sprites of world into target in one pass and waits for
// the GPU. Consecutive sprites with the same material share a draw call.
func (b *Backend) Draw(tgt render.RenderResource, view geom.Rect, world *render.World, resolution geom.Size, lut *render.ResourceTable) error {
	t, err := asTarget(tgt)
	if err != nil {
		return err
	}
	b.time = world.Time
	res, err := b.buildSpriteResources(world, view, resolution, lut)
	if err != nil {
		return fmt.Errorf("wgpu: %w", err)
	}
	defer res.destroy(b.device)

	encoder, err := b.beginEncoding("world_encoder")
	if err != nil {
		return err
	}
	rp := encoder.BeginRenderPass(&hal.RenderPassDescriptor{
		Label:            "world_pass",
		ColorAttachments: []hal.RenderPassColorAttachment{t.colorAttachment()},
	})
	res.record(rp)
	rp.End()
	return b.submit(encoder)
}

// spriteBinding is what a sprite's material resolves to.
type spriteBinding struct {
	material *render.Material
	shader   *shader
	texture  *texture
}

// resolve looks up the material, shader and texture of st. Missing or
// unloaded resources fall back to the built-in pipeline and white texel.
func resolve(st *render.SpriteState, lut *render.ResourceTable) spriteBinding {
	var sb spriteBinding
	if lut == nil || !st.Material.IsValid() {
		return sb
	}
	res, ok := lut.Lookup(st.Material)
	if !ok {
		return sb
	}
	if sb.material, ok = res.Object.(*render.Material); !ok {
		return sb
	}
	if sb.material.Shader.IsValid() {
		if res, ok := lut.Lookup(sb.material.Shader); ok {
			sb.shader, _ = res.Object.(*shader)
		}
	}
	if sb.material.Texture.IsValid() {
		if res, ok := lut.Lookup(sb.material.Texture); ok {
			sb.texture, _ = res.Object.(*texture)
		}
	}
	return sb
}

// buildSpriteResources creates the vertex buffer and, per batch, the
// uniform buffer and bind group for one draw.
func (b *Backend) buildSpriteResources(world *render.World, view geom.Rect, resolution geom.Size, lut *render.ResourceTable) (*spriteFrameResources, error) {
	res := &spriteFrameResources{}
	sprites := world.Sprites
	if len(sprites) == 0 {
		return res, nil
	}
	verts := make([]byte, 0, len(sprites)*len(quadCorners)*spriteVertexStride)
	perSprite := uint32(len(quadCorners))
	for i := 0; i < len(sprites); {
		st := &sprites[i].State
		sb := resolve(st, lut)
		first := uint32(i) * perSprite //nolint:gosec // sprite count fits uint32
		j := i
		for ; j < len(sprites) && sprites[j].State.Material == st.Material; j++ {
			verts = appendSpriteVertices(verts, &sprites[j].State, sb.texture != nil)
		}
		batch, err := b.newBatch(sb, view, resolution, world.Time)
		if err != nil {
			res.destroy(b.device)
			return nil, err
		}
		batch.firstVertex = first
		batch.vertCount = uint32(j-i) * perSprite //nolint:gosec // sprite count fits uint32
		res.batches = append(res.batches, batch)
		i = j
	}

	vertBuf, err := b.createAndUploadBuffer("sprite_verts", verts,
		gputypes.BufferUsageVertex|gputypes.BufferUsageCopyDst)
	if err != nil {
		res.destroy(b.device)
		return nil, fmt.Errorf("create vertex buffer: %w", err)
	}
	res.vertBuf = vertBuf
	return res, nil
}

// newBatch creates the pipeline binding of one material.
func (b *Backend) newBatch(sb spriteBinding, view geom.Rect, resolution geom.Size, t float64) (spriteBatch, error) {
	batch := spriteBatch{pipeline: b.pipeline.pipeline}
	uniforms := makeSpriteUniform(view)
	if sb.shader != nil && sb.shader.module != nil {
		p, err := b.materialPipeline(sb.shader)
		if err != nil {
			return batch, err
		}
		batch.pipeline = p
		uniforms = packMaterialUniforms(sb.material, view, resolution, t)
	}
	texView := b.pipeline.white.view
	if sb.texture != nil {
		texView = sb.texture.view
	}

	uniformBuf, err := b.createAndUploadBuffer("sprite_uniform", uniforms,
		gputypes.BufferUsageUniform|gputypes.BufferUsageCopyDst)
	if err != nil {
		return batch, fmt.Errorf("create uniform buffer: %w", err)
	}
	batch.uniformBuf = uniformBuf

	bindGroup, err := b.pipeline.bindGroup("sprite_bind", uniformBuf, uint64(len(uniforms)), texView)
	if err != nil {
		b.device.DestroyBuffer(uniformBuf)
		return batch, fmt.Errorf("create bind group: %w", err)
	}
	batch.bindGroup = bindGroup
	return batch, nil
}

// materialPipeline returns the cached sprite pipeline of sh.
func (b *Backend) materialPipeline(sh *shader) (hal.RenderPipeline, error) {
	if p, ok := b.materialPipelines[sh]; ok {
		return p, nil
	}
	p, err := b.pipeline.newPipeline("material_pipeline_"+sh.desc.Name, sh.module, sh.desc, spriteVertexLayout())
	if err != nil {
		return nil, err
	}
	b.materialPipelines[sh] = p
	return p, nil
}

// combinePipeline returns the cached fullscreen pipeline of sh.
func (b *Backend) combinePipeline(sh *shader) (hal.RenderPipeline, error) {
	if p, ok := b.combinePipelines[sh]; ok {
		return p, nil
	}
	p, err := b.pipeline.newPipeline("combine_pipeline_"+sh.desc.Name, sh.module, sh.desc, quadVertexLayout())
	if err != nil {
		return nil, err
	}
	b.combinePipelines[sh] = p
	return p, nil
}

// dropPipelines destroys the pipelines built from sh.
func (b *Backend) dropPipelines(sh *shader) {
	for _, m := range []map[*shader]hal.RenderPipeline{b.materialPipelines, b.combinePipelines} {
		if p, ok := m[sh]; ok {
			b.device.DestroyRenderPipeline(p)
			delete(m, sh)
		}
	}
}

// CombineRenderedWorlds composites every target over a transparent frame
// at the output resolution and presents it. Without a shader the targets
// are read back and composited on the CPU. With one, each target is drawn
// through it onto the fullscreen quad geometry in a single GPU pass.
func (b *Backend) CombineRenderedWorlds(quad, shader render.RenderResource, targets []render.RenderResource) error {
	var (
		frame *image.RGBA
		err   error
	)
	if shader.IsInitialized() {
		frame, err = b.combineWithShader(quad, shader, targets)
	} else {
		frame, err = b.combineOnCPU(targets)
	}
	if err != nil {
		return err
	}
	if b.presenter == nil {
		return nil
	}
	if err := b.presenter.Present(frame); err != nil {
		return fmt.Errorf("wgpu: present: %w", err)
	}
	return nil
}

func (b *Backend) combineOnCPU(targets []render.RenderResource) (*image.RGBA, error) {
	w, h := extent(b.size)
	frame := image.NewRGBA(image.Rect(0, 0, int(w), int(h)))
	for _, r := range targets {
		t, err := asTarget(r)
		if err != nil {
			return nil, err
		}
		src, err := b.readback(t)
		if err != nil {
			return nil, err
		}
		if src.Bounds() == frame.Bounds() {
			xdraw.Draw(frame, frame.Bounds(), src, image.Point{}, xdraw.Over)
			continue
		}
		xdraw.ApproxBiLinear.Scale(frame, frame.Bounds(), src, src.Bounds(), xdraw.Over, nil)
	}
	return frame, nil
}

// combineWithShader draws every target through sh into the output target
// and reads it back. Every uniform of sh must be automatic.
func (b *Backend) combineWithShader(quad, shaderRes render.RenderResource, targets []render.RenderResource) (*image.RGBA, error) {
	sh, ok := shaderRes.Object.(*shader)
	if !ok {
		return nil, fmt.Errorf("wgpu: %w: combine shader is %T", render.ErrWrongKind, shaderRes.Object)
	}
	geo, ok := quad.Object.(*geometry)
	if !ok || geo.buf == nil {
		return nil, fmt.Errorf("wgpu: combine needs the fullscreen quad geometry, got %T", quad.Object)
	}
	pipeline, err := b.combinePipeline(sh)
	if err != nil {
		return nil, fmt.Errorf("wgpu: %w", err)
	}
	out, err := b.outputTarget()
	if err != nil {
		return nil, err
	}
	uniforms, err := packAutomaticUniforms(sh.desc, geom.R(0, 0, float64(b.size.Width), float64(b.size.Height)), b.size, b.time)
	if err != nil {
		return nil, fmt.Errorf("wgpu: %w", err)
	}
	uniformBuf, err := b.createAndUploadBuffer("combine_uniform", uniforms,
		gputypes.BufferUsageUniform|gputypes.BufferUsageCopyDst)
	if err != nil {
		return nil, fmt.Errorf("wgpu: %w", err)
	}
	defer b.device.DestroyBuffer(uniformBuf)

	groups := make([]hal.BindGroup, 0, len(targets))
	defer func() {
		for _, g := range groups {
			b.device.DestroyBindGroup(g)
		}
	}()
	for _, r := range targets {
		t, err := asTarget(r)
		if err != nil {
			return nil, err
		}
		g, err := b.pipeline.bindGroup("combine_bind", uniformBuf, uint64(len(uniforms)), t.view)
		if err != nil {
			return nil, fmt.Errorf("wgpu: create combine bind group: %w", err)
		}
		groups = append(groups, g)
	}

	encoder, err := b.beginEncoding("combine_encoder")
	if err != nil {
		return nil, err
	}
	out.pending = &gputypes.Color{}
	rp := encoder.BeginRenderPass(&hal.RenderPassDescriptor{
		Label:            "combine_pass",
		ColorAttachments: []hal.RenderPassColorAttachment{out.colorAttachment()},
	})
	rp.SetPipeline(pipeline)
	rp.SetVertexBuffer(0, geo.buf, 0)
	for _, g := range groups {
		rp.SetBindGroup(0, g, nil)
		rp.Draw(uint32(geo.desc.VertexCount), 1, 0, 0) //nolint:gosec // six vertices
	}
	rp.End()
	if err := b.submit(encoder); err != nil {
		return nil, err
	}
	return b.readback(out)
}

// outputTarget returns the composition target, reallocated when the
// output resolution changes.
func (b *Backend) outputTarget() (*target, error) {
	w, h := extent(b.size)
	if b.output != nil && b.output.w == w && b.output.h == h {
		return b.output, nil
	}
	if b.output != nil {
		b.output.destroy(b.device)
		b.output = nil
	}
	t, err := newTarget(b.device, b.size, "combine_target")
	if err != nil {
		return nil, fmt.Errorf("wgpu: %w", err)
	}
	b.output = t
	return t, nil
}

// readback copies t into a staging buffer and returns its pixels. A
// pending clear is flushed first.
func (b *Backend) readback(t *target) (*image.RGBA, error) {
	encoder, err := b.beginEncoding("readback_encoder")
	if err != nil {
		return nil, err
	}
	if t.pending != nil {
		rp := encoder.BeginRenderPass(&hal.RenderPassDescriptor{
			Label:            "clear_pass",
			ColorAttachments: []hal.RenderPassColorAttachment{t.colorAttachment()},
		})
		rp.End()
	}

	encoder.TransitionTextures([]hal.TextureBarrier{{
		Texture: t.tex,
		Usage: hal.TextureUsageTransition{
			OldUsage: gputypes.TextureUsageRenderAttachment,
			NewUsage: gputypes.TextureUsageCopySrc,
		},
	}})

	aligned := t.alignedRowBytes()
	stagingSize := uint64(aligned) * uint64(t.h)
	staging, err := b.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "readback_staging",
		Size:  stagingSize,
		Usage: gputypes.BufferUsageMapRead | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		encoder.DiscardEncoding()
		return nil, fmt.Errorf("wgpu: create staging buffer: %w", err)
	}
	defer b.device.DestroyBuffer(staging)

	encoder.CopyTextureToBuffer(t.tex, staging, []hal.BufferTextureCopy{{
		BufferLayout: hal.ImageDataLayout{Offset: 0, BytesPerRow: aligned, RowsPerImage: t.h},
		TextureBase:  hal.ImageCopyTexture{Texture: t.tex, MipLevel: 0},
		Size:         hal.Extent3D{Width: t.w, Height: t.h, DepthOrArrayLayers: 1},
	}})

	encoder.TransitionTextures([]hal.TextureBarrier{{
		Texture: t.tex,
		Usage: hal.TextureUsageTransition{
			OldUsage: gputypes.TextureUsageCopySrc,
			NewUsage: gputypes.TextureUsageRenderAttachment,
		},
	}})

	if err := b.submit(encoder); err != nil {
		return nil, err
	}
	data := make([]byte, stagingSize)
	if err := b.queue.ReadBuffer(staging, 0, data); err != nil {
		return nil, fmt.Errorf("wgpu: readback: %w", err)
	}
	return t.unpack(data), nil
}

func (b *Backend) beginEncoding(label string) (hal.CommandEncoder, error) {
	encoder, err := b.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: label})
	if err != nil {
		return nil, fmt.Errorf("wgpu: create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding(label); err != nil {
		return nil, fmt.Errorf("wgpu: begin encoding: %w", err)
	}
	return encoder, nil
}

// submit finishes encoder, submits it and waits for completion.
func (b *Backend) submit(encoder hal.CommandEncoder) error {
	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		return fmt.Errorf("wgpu: end encoding: %w", err)
	}
	defer b.device.FreeCommandBuffer(cmdBuf)

	fence, err := b.device.CreateFence()
	if err != nil {
		return fmt.Errorf("wgpu: create fence: %w", err)
	}
	defer b.device.DestroyFence(fence)

	if err := b.queue.Submit([]hal.CommandBuffer{cmdBuf}, fence, 1); err != nil {
		return fmt.Errorf("wgpu: submit: %w", err)
	}
	ok, err := b.device.Wait(fence, 1, fenceTimeout)
	if err != nil || !ok {
		return fmt.Errorf("wgpu: wait for GPU: ok=%v err=%w", ok, err)
	}
	return nil
}

// createAndUploadBuffer creates a GPU buffer and uploads data.
func (b *Backend) createAndUploadBuffer(label string, data []byte, usage gputypes.BufferUsage) (hal.Buffer, error) {
	buf, err := b.device.CreateBuffer(&hal.BufferDescriptor{
		Label: label,
		Size:  uint64(len(data)),
		Usage: usage,
	})
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", label, err)
	}
	b.queue.WriteBuffer(buf, 0, data)
	return buf, nil
}

// CreateTexture uploads pixels into a new sampled texture.
func (b *Backend) CreateTexture(desc render.TextureDesc, pixels []byte) (render.RenderResource, error) {
	if err := checkPixels(desc, pixels); err != nil {
		return render.RenderResource{}, err
	}
	w, h := extent(geom.Size{Width: desc.Width, Height: desc.Height})
	t, err := newTexture(b.device, b.queue, w, h, pixels)
	if err != nil {
		return render.RenderResource{}, fmt.Errorf("wgpu: %w", err)
	}
	b.live++
	return render.ObjectResource(render.KindTexture, t), nil
}

// UpdateTexture rewrites the texture, reallocating on a size change.
func (b *Backend) UpdateTexture(tex render.RenderResource, desc render.TextureDesc, pixels []byte) (render.RenderResource, error) {
	t, ok := tex.Object.(*texture)
	if !ok {
		return tex, fmt.Errorf("wgpu: %w: texture is %T", render.ErrWrongKind, tex.Object)
	}
	if err := checkPixels(desc, pixels); err != nil {
		return tex, err
	}
	w, h := extent(geom.Size{Width: desc.Width, Height: desc.Height})
	if w == t.w && h == t.h {
		t.write(b.queue, pixels)
		return tex, nil
	}
	n, err := newTexture(b.device, b.queue, w, h, pixels)
	if err != nil {
		return tex, fmt.Errorf("wgpu: %w", err)
	}
	t.destroy(b.device)
	return render.ObjectResource(render.KindTexture, n), nil
}

func checkPixels(desc render.TextureDesc, pixels []byte) error {
	if desc.Width <= 0 || desc.Height <= 0 {
		return fmt.Errorf("wgpu: invalid texture size %dx%d", desc.Width, desc.Height)
	}
	if need := desc.RowBytes() * desc.Height; len(pixels) < need {
		return fmt.Errorf("wgpu: texture needs %d bytes, got %d", need, len(pixels))
	}
	return nil
}

// DestroyTexture releases a texture.
func (b *Backend) DestroyTexture(tex render.RenderResource) {
	if t, ok := tex.Object.(*texture); ok {
		t.destroy(b.device)
	}
	b.live--
}

// CreateShader compiles WGSL source to SPIR-V and creates a shader module.
func (b *Backend) CreateShader(desc render.ShaderDesc, source []byte) (render.RenderResource, error) {
	module, err := b.compileShader(desc.Name, source)
	if err != nil {
		return render.RenderResource{}, err
	}
	b.live++
	return render.ObjectResource(render.KindShader, &shader{module: module, desc: desc}), nil
}

// UpdateShader recompiles the shader in place.
func (b *Backend) UpdateShader(s render.RenderResource, desc render.ShaderDesc, source []byte) (render.RenderResource, error) {
	sh, ok := s.Object.(*shader)
	if !ok {
		return s, fmt.Errorf("wgpu: %w: shader is %T", render.ErrWrongKind, s.Object)
	}
	module, err := b.compileShader(desc.Name, source)
	if err != nil {
		return s, err
	}
	b.dropPipelines(sh)
	b.device.DestroyShaderModule(sh.module)
	sh.module, sh.desc = module, desc
	return s, nil
}

func (b *Backend) compileShader(label string, source []byte) (hal.ShaderModule, error) {
	spirvBytes, err := naga.Compile(string(source))
	if err != nil {
		return nil, fmt.Errorf("wgpu: compile shader %q: %w", label, err)
	}

	// SPIR-V is little-endian 32-bit words.
	spirvCode := make([]uint32, len(spirvBytes)/4)
	for i := range spirvCode {
		spirvCode[i] = uint32(spirvBytes[i*4]) |
			uint32(spirvBytes[i*4+1])<<8 |
			uint32(spirvBytes[i*4+2])<<16 |
			uint32(spirvBytes[i*4+3])<<24
	}

	module, err := b.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  label,
		Source: hal.ShaderSource{SPIRV: spirvCode},
	})
	if err != nil {
		return nil, fmt.Errorf("wgpu: create shader module %q: %w", label, err)
	}
	return module, nil
}

// DestroyShader releases a shader.
func (b *Backend) DestroyShader(s render.RenderResource) {
	if sh, ok := s.Object.(*shader); ok {
		b.dropPipelines(sh)
		if sh.module != nil {
			b.device.DestroyShaderModule(sh.module)
		}
	}
	b.live--
}

// CreateGeometry uploads vertices into a vertex buffer.
func (b *Backend) CreateGeometry(desc render.GeometryDesc, vertices []byte) (render.RenderResource, error) {
	g := &geometry{desc: desc}
	if len(vertices) > 0 {
		buf, err := b.createAndUploadBuffer("geometry", vertices,
			gputypes.BufferUsageVertex|gputypes.BufferUsageCopyDst)
		if err != nil {
			return render.RenderResource{}, fmt.Errorf("wgpu: %w", err)
		}
		g.buf = buf
	}
	b.live++
	return render.ObjectResource(render.KindGeometry, g), nil
}

// UpdateGeometry replaces the vertex buffer.
func (b *Backend) UpdateGeometry(g render.RenderResource, desc render.GeometryDesc, vertices []byte) (render.RenderResource, error) {
	geo, ok := g.Object.(*geometry)
	if !ok {
		return g, fmt.Errorf("wgpu: %w: geometry is %T", render.ErrWrongKind, g.Object)
	}
	var buf hal.Buffer
	if len(vertices) > 0 {
		var err error
		buf, err = b.createAndUploadBuffer("geometry", vertices,
			gputypes.BufferUsageVertex|gputypes.BufferUsageCopyDst)
		if err != nil {
			return g, fmt.Errorf("wgpu: %w", err)
		}
	}
	if geo.buf != nil {
		b.device.DestroyBuffer(geo.buf)
	}
	geo.buf, geo.desc = buf, desc
	return g, nil
}

// DestroyGeometry releases a geometry.
func (b *Backend) DestroyGeometry(g render.RenderResource) {
	if geo, ok := g.Object.(*geometry); ok && geo.buf != nil {
		b.device.DestroyBuffer(geo.buf)
	}
	b.live--
}

// CreateRenderTarget allocates a color target of desc.Size.
func (b *Backend) CreateRenderTarget(desc render.RenderTargetDesc) (render.RenderResource, error) {
	t, err := newTarget(b.device, desc.Size, "world_target")
	if err != nil {
		return render.RenderResource{}, fmt.Errorf("wgpu: %w", err)
	}
	b.live++
	return render.ObjectResource(render.KindRenderTarget, t), nil
}

// DestroyRenderTarget releases a render target.
func (b *Backend) DestroyRenderTarget(r render.RenderResource) {
	if t, ok := r.Object.(*target); ok {
		t.destroy(b.device)
	}
	b.live--
}

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

// Shutdown destroys the pipelines and the composition target. The device
// stays open.
func (b *Backend) Shutdown() {
	for sh := range b.materialPipelines {
		b.dropPipelines(sh)
	}
	for sh := range b.combinePipelines {
		b.dropPipelines(sh)
	}
	if b.output != nil {
		b.output.destroy(b.device)
		b.output = nil
	}
	if b.pipeline != nil {
		b.pipeline.destroy()
		b.pipeline = nil
	}
}

func asTarget(r render.RenderResource) (*target, error) {
	t, ok := r.Object.(*target)
	if !ok {
		return nil, fmt.Errorf("wgpu: %w: render target is %T", render.ErrWrongKind, r.Object)
	}
	return t, nil
}
