// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"image"
	"slices"

	"github.com/gogpu/gputypes"
	xdraw "golang.org/x/image/draw"

	"github.com/gogpu/bowtie/geom"
)

// Interface is the producer facade used by the simulation goroutine. It
// allocates logical handles synchronously and turns every request into a
// Command on the channel. It is not safe for concurrent use.
type Interface struct {
	ch      *Channel
	arena   *Arena
	handles *HandleAllocator
}

// NewInterface returns an Interface producing into ch with transient
// payloads carved from arena.
func NewInterface(ch *Channel, arena *Arena) *Interface {
	return &Interface{
		ch:      ch,
		arena:   arena,
		handles: NewHandleAllocator(MaxHandles),
	}
}

// Arena returns the transient arena.
func (i *Interface) Arena() *Arena { return i.arena }

// CreateHandle allocates a logical handle.
func (i *Interface) CreateHandle() Handle { return i.handles.Allocate() }

// FreeHandle returns h to the pool.
func (i *Interface) FreeHandle(h Handle) { i.handles.Free(h) }

// AvailableHandles returns the number of unallocated handles.
func (i *Interface) AvailableHandles() int { return i.handles.Available() }

// Dispatch enqueues cmd. When the channel is full it waits for the render
// goroutine to go idle and then pushes, so commands are never dropped.
func (i *Interface) Dispatch(cmd Command) {
	if cmd.Kind != CommandFence {
		i.arena.Acquire()
	}
	if i.ch.TryPush(cmd) {
		return
	}
	if cmd.Kind != CommandFence {
		i.WaitUntilIdle()
	}
	i.ch.Push(cmd)
}

// DispatchData copies data into the arena, attaches it to cmd and
// dispatches it.
func (i *Interface) DispatchData(cmd Command, data []byte) {
	cmd.Data = i.arena.Copy(data)
	i.Dispatch(cmd)
}

// CreateResource allocates a handle and enqueues a LoadResource for it.
func (i *Interface) CreateResource(desc Descriptor, data []byte) Handle {
	h := i.CreateHandle()
	i.DispatchData(Command{
		Kind:    CommandLoadResource,
		Payload: ResourcePayload{Handle: h, Desc: cloneDesc(desc)},
	}, data)
	return h
}

// UpdateResource enqueues an UpdateResource for h.
func (i *Interface) UpdateResource(h Handle, desc Descriptor, data []byte) {
	i.DispatchData(Command{
		Kind:    CommandUpdateResource,
		Payload: ResourcePayload{Handle: h, Desc: cloneDesc(desc)},
	}, data)
}

// UnloadResource enqueues an UnloadResource for h and frees the handle.
// Commands execute in order, so h may be reused right away.
func (i *Interface) UnloadResource(h Handle) {
	i.Dispatch(Command{Kind: CommandUnloadResource, Payload: UnloadPayload{Handle: h}})
	i.FreeHandle(h)
}

// CreateTexture converts img to tightly packed RGBA8 and loads it.
func (i *Interface) CreateTexture(img image.Image) Handle {
	rgba := toRGBA(img)
	b := rgba.Bounds()
	desc := TextureDesc{Width: b.Dx(), Height: b.Dy(), Format: gputypes.TextureFormatRGBA8Unorm}
	return i.CreateResource(desc, rgba.Pix)
}

func toRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok && rgba.Rect.Min == (image.Point{}) && rgba.Stride == 4*rgba.Rect.Dx() {
		return rgba
	}
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	xdraw.Draw(dst, dst.Bounds(), img, b.Min, xdraw.Src)
	return dst
}

// CreateRenderWorld loads an empty world with its own render target.
func (i *Interface) CreateRenderWorld() Handle {
	return i.CreateResource(WorldDesc{}, nil)
}

// CreateMaterial loads a material.
func (i *Interface) CreateMaterial(desc MaterialDesc) Handle {
	return i.CreateResource(desc, nil)
}

// CreateFence enqueues a fence and returns it.
func (i *Interface) CreateFence() *Fence {
	f := NewFence()
	i.Dispatch(Command{Kind: CommandFence, Payload: f})
	return f
}

// WaitForFence blocks until the render goroutine has reached f.
func (i *Interface) WaitForFence(f *Fence) { f.Wait() }

// WaitUntilIdle blocks until every command enqueued so far has executed.
func (i *Interface) WaitUntilIdle() { i.WaitForFence(i.CreateFence()) }

// BeginFrame waits for the previous frame and recycles the arena.
func (i *Interface) BeginFrame() {
	i.WaitUntilIdle()
	i.arena.Reset()
}

// Resize enqueues a resolution change.
func (i *Interface) Resize(size geom.Size) {
	i.Dispatch(Command{Kind: CommandResize, Payload: ResizePayload{Resolution: size}})
}

// RenderWorld enqueues a draw of world with view mapped onto its target.
func (i *Interface) RenderWorld(world Handle, view geom.Rect, t float64) {
	i.Dispatch(Command{
		Kind:    CommandRenderWorld,
		Payload: RenderWorldPayload{World: world, View: view, Time: t},
	})
}

// CombineRenderedWorlds enqueues composition of the worlds rendered since
// the last combine. shader may be NoHandle.
func (i *Interface) CombineRenderedWorlds(shader Handle) {
	i.Dispatch(Command{Kind: CommandCombineRenderedWorlds, Payload: CombinePayload{Shader: shader}})
}

// SetUniformValue enqueues a uniform change on material.
func (i *Interface) SetUniformValue(material Handle, name string, typ UniformType, values ...float32) {
	data := i.arena.Alloc(len(values) * 4)
	encodeFloats(data, values)
	i.Dispatch(Command{
		Kind:    CommandSetUniformValue,
		Payload: UniformPayload{Material: material, Name: name, Type: typ},
		Data:    data,
	})
}

// ReflectSprites enqueues one SpriteStateReflection carrying the sprites
// created and changed in world.
func (i *Interface) ReflectSprites(world Handle, created, changed []SpriteState) {
	i.Dispatch(Command{
		Kind: CommandSpriteStateReflection,
		Payload: SpriteReflection{
			World: world,
			New:   slices.Clone(created),
			Dirty: slices.Clone(changed),
		},
	})
}

func cloneDesc(d Descriptor) Descriptor {
	switch v := d.(type) {
	case ShaderDesc:
		v.UniformNames = slices.Clone(v.UniformNames)
		return v
	case MaterialDesc:
		us := make([]Uniform, len(v.Uniforms))
		for k, u := range v.Uniforms {
			u.Value = slices.Clone(u.Value)
			us[k] = u
		}
		v.Uniforms = us
		return v
	}
	return d
}
