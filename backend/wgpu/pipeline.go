// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package wgpu

import (
	_ "embed"
	"encoding/binary"
	"fmt"
	"math"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/bowtie/geom"
	"github.com/gogpu/bowtie/render"
)

//go:embed shaders/sprite.wgsl
var spriteShaderSource string

// spriteVertexStride is the byte stride per vertex in the sprite pipeline.
// Layout per vertex:
//
//	position (vec2<f32>) = 8 bytes  (location 0)
//	color    (vec4<f32>) = 16 bytes (location 1)
//	uv       (vec2<f32>) = 8 bytes  (location 2)
const spriteVertexStride = 32

// quadVertexStride matches the fullscreen quad geometry: position.xy and
// uv per vertex.
const quadVertexStride = 16

// spriteUniformSize is one column-major mat4x4<f32>.
const spriteUniformSize = 64

// targetFormat is the format of every render target.
const targetFormat = gputypes.TextureFormatRGBA8Unorm

const (
	defaultVertexEntry   = "vs_main"
	defaultFragmentEntry = "fs_main"
)

// spritePipeline owns the bind group layout shared by every sprite and
// combine pipeline, the sampler, a white texel for untextured sprites and
// the built-in sprite pipeline.
//
// Bind group layout:
//
//	Binding 0: uniform buffer (vertex+fragment)
//	Binding 1: texture_2d<f32> (fragment)
//	Binding 2: filtering sampler (fragment)
type spritePipeline struct {
	device hal.Device

	shader     hal.ShaderModule
	layout     hal.BindGroupLayout
	pipeLayout hal.PipelineLayout
	sampler    hal.Sampler
	white      *texture
	pipeline   hal.RenderPipeline
}

func newSpritePipeline(device hal.Device, queue hal.Queue) (*spritePipeline, error) {
	p := &spritePipeline{device: device}
	if err := p.create(queue); err != nil {
		p.destroy()
		return nil, err
	}
	return p, nil
}

func (p *spritePipeline) create(queue hal.Queue) error {
	shader, err := p.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  "sprite_shader",
		Source: hal.ShaderSource{WGSL: spriteShaderSource},
	})
	if err != nil {
		return fmt.Errorf("compile sprite shader: %w", err)
	}
	p.shader = shader

	layout, err := p.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: "sprite_layout",
		Entries: []gputypes.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: gputypes.ShaderStageVertex | gputypes.ShaderStageFragment,
				Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform},
			},
			{
				Binding:    1,
				Visibility: gputypes.ShaderStageFragment,
				Texture: &gputypes.TextureBindingLayout{
					SampleType:    gputypes.TextureSampleTypeFloat,
					ViewDimension: gputypes.TextureViewDimension2D,
				},
			},
			{
				Binding:    2,
				Visibility: gputypes.ShaderStageFragment,
				Sampler:    &gputypes.SamplerBindingLayout{Type: gputypes.SamplerBindingTypeFiltering},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("create sprite layout: %w", err)
	}
	p.layout = layout

	pipeLayout, err := p.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            "sprite_pipe_layout",
		BindGroupLayouts: []hal.BindGroupLayout{p.layout},
	})
	if err != nil {
		return fmt.Errorf("create sprite pipeline layout: %w", err)
	}
	p.pipeLayout = pipeLayout

	sampler, err := p.device.CreateSampler(&hal.SamplerDescriptor{
		Label:        "sprite_sampler",
		AddressModeU: gputypes.AddressModeClampToEdge,
		AddressModeV: gputypes.AddressModeClampToEdge,
		AddressModeW: gputypes.AddressModeClampToEdge,
		MagFilter:    gputypes.FilterModeLinear,
		MinFilter:    gputypes.FilterModeLinear,
		MipmapFilter: gputypes.FilterModeLinear,
	})
	if err != nil {
		return fmt.Errorf("create sprite sampler: %w", err)
	}
	p.sampler = sampler

	white, err := newTexture(p.device, queue, 1, 1, []byte{0xff, 0xff, 0xff, 0xff})
	if err != nil {
		return fmt.Errorf("create white texel: %w", err)
	}
	p.white = white

	pipeline, err := p.newPipeline("sprite_pipeline", p.shader, render.ShaderDesc{}, spriteVertexLayout())
	if err != nil {
		return err
	}
	p.pipeline = pipeline
	return nil
}

// newPipeline creates a premultiplied-alpha pipeline for module on the
// shared layout. Empty entry points in desc default to vs_main and
// fs_main.
func (p *spritePipeline) newPipeline(label string, module hal.ShaderModule, desc render.ShaderDesc, buffers []gputypes.VertexBufferLayout) (hal.RenderPipeline, error) {
	vs, fs := desc.VertexEntry, desc.FragmentEntry
	if vs == "" {
		vs = defaultVertexEntry
	}
	if fs == "" {
		fs = defaultFragmentEntry
	}
	premulBlend := gputypes.BlendStatePremultiplied()
	pipeline, err := p.device.CreateRenderPipeline(&hal.RenderPipelineDescriptor{
		Label:  label,
		Layout: p.pipeLayout,
		Vertex: hal.VertexState{
			Module:     module,
			EntryPoint: vs,
			Buffers:    buffers,
		},
		Fragment: &hal.FragmentState{
			Module:     module,
			EntryPoint: fs,
			Targets: []gputypes.ColorTargetState{
				{
					Format:    targetFormat,
					Blend:     &premulBlend,
					WriteMask: gputypes.ColorWriteMaskAll,
				},
			},
		},
		Primitive: gputypes.PrimitiveState{
			Topology: gputypes.PrimitiveTopologyTriangleList,
			CullMode: gputypes.CullModeNone,
		},
		Multisample: gputypes.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", label, err)
	}
	return pipeline, nil
}

// bindGroup binds uniforms, view and the shared sampler.
func (p *spritePipeline) bindGroup(label string, uniforms hal.Buffer, size uint64, view hal.TextureView) (hal.BindGroup, error) {
	return p.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:  label,
		Layout: p.layout,
		Entries: []gputypes.BindGroupEntry{
			{Binding: 0, Resource: gputypes.BufferBinding{
				Buffer: uniforms.NativeHandle(), Offset: 0, Size: size,
			}},
			{Binding: 1, Resource: gputypes.TextureViewBinding{TextureView: view.NativeHandle()}},
			{Binding: 2, Resource: gputypes.SamplerBinding{Sampler: p.sampler.NativeHandle()}},
		},
	})
}

// destroy releases the pipeline objects in reverse creation order.
func (p *spritePipeline) destroy() {
	if p.pipeline != nil {
		p.device.DestroyRenderPipeline(p.pipeline)
		p.pipeline = nil
	}
	if p.white != nil {
		p.white.destroy(p.device)
		p.white = nil
	}
	if p.sampler != nil {
		p.device.DestroySampler(p.sampler)
		p.sampler = nil
	}
	if p.pipeLayout != nil {
		p.device.DestroyPipelineLayout(p.pipeLayout)
		p.pipeLayout = nil
	}
	if p.layout != nil {
		p.device.DestroyBindGroupLayout(p.layout)
		p.layout = nil
	}
	if p.shader != nil {
		p.device.DestroyShaderModule(p.shader)
		p.shader = nil
	}
}

// spriteBatch is a run of consecutive sprites sharing a material.
type spriteBatch struct {
	pipeline    hal.RenderPipeline
	bindGroup   hal.BindGroup
	uniformBuf  hal.Buffer
	firstVertex uint32
	vertCount   uint32
}

// spriteFrameResources holds the per-draw buffers of one world.
type spriteFrameResources struct {
	vertBuf hal.Buffer
	batches []spriteBatch
}

func (r *spriteFrameResources) destroy(device hal.Device) {
	for _, b := range r.batches {
		if b.bindGroup != nil {
			device.DestroyBindGroup(b.bindGroup)
		}
		if b.uniformBuf != nil {
			device.DestroyBuffer(b.uniformBuf)
		}
	}
	r.batches = nil
	if r.vertBuf != nil {
		device.DestroyBuffer(r.vertBuf)
		r.vertBuf = nil
	}
}

// record draws every batch into an open render pass. No-op when there is
// nothing to draw.
func (r *spriteFrameResources) record(rp hal.RenderPassEncoder) {
	if r == nil || r.vertBuf == nil {
		return
	}
	rp.SetVertexBuffer(0, r.vertBuf, 0)
	for _, b := range r.batches {
		rp.SetPipeline(b.pipeline)
		rp.SetBindGroup(0, b.bindGroup, nil)
		rp.Draw(b.vertCount, 1, b.firstVertex, 0)
	}
}

// spriteVertexLayout returns the vertex buffer layout for sprite pipelines.
func spriteVertexLayout() []gputypes.VertexBufferLayout {
	return []gputypes.VertexBufferLayout{
		{
			ArrayStride: spriteVertexStride,
			StepMode:    gputypes.VertexStepModeVertex,
			Attributes: []gputypes.VertexAttribute{
				{Format: gputypes.VertexFormatFloat32x2, Offset: 0, ShaderLocation: 0},  // position
				{Format: gputypes.VertexFormatFloat32x4, Offset: 8, ShaderLocation: 1},  // color
				{Format: gputypes.VertexFormatFloat32x2, Offset: 24, ShaderLocation: 2}, // uv
			},
		},
	}
}

// quadVertexLayout returns the vertex buffer layout for combine pipelines.
func quadVertexLayout() []gputypes.VertexBufferLayout {
	return []gputypes.VertexBufferLayout{
		{
			ArrayStride: quadVertexStride,
			StepMode:    gputypes.VertexStepModeVertex,
			Attributes: []gputypes.VertexAttribute{
				{Format: gputypes.VertexFormatFloat32x2, Offset: 0, ShaderLocation: 0}, // position
				{Format: gputypes.VertexFormatFloat32x2, Offset: 8, ShaderLocation: 1}, // uv
			},
		},
	}
}

// quadCorners lists the corners of two triangles covering a quad.
var quadCorners = [6]int{0, 1, 2, 0, 2, 3}

// cornerUV maps quad corners to texture coordinates.
var cornerUV = [4][2]float32{{0, 0}, {1, 0}, {1, 1}, {0, 1}}

// appendSpriteVertices encodes the six vertices of st. A textured sprite
// only takes its alpha from the sprite color.
func appendSpriteVertices(buf []byte, st *render.SpriteState, textured bool) []byte {
	c := st.Color.Premultiplied()
	if textured {
		c = geom.Color{R: st.Color.A, G: st.Color.A, B: st.Color.A, A: st.Color.A}
	}
	for _, i := range quadCorners {
		p := st.Quad[i]
		buf = appendFloat32(buf, float32(p.X), float32(p.Y), c.R, c.G, c.B, c.A, cornerUV[i][0], cornerUV[i][1])
	}
	return buf
}

// makeSpriteUniform encodes the projection of view.
func makeSpriteUniform(view geom.Rect) []byte {
	m := geom.Ortho(view)
	return appendFloat32(make([]byte, 0, spriteUniformSize), m[:]...)
}

func appendFloat32(buf []byte, values ...float32) []byte {
	for _, v := range values {
		buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(v))
	}
	return buf
}
