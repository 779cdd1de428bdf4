// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"fmt"
	"runtime"
	"sync/atomic"

	"github.com/gogpu/bowtie/geom"
)

// State is the lifecycle state of a Renderer.
type State int32

// Renderer states.
const (
	StateCreated State = iota
	StateRunning
	StateDraining
	StateStopped
)

var stateNames = [...]string{
	StateCreated:  "Created",
	StateRunning:  "Running",
	StateDraining: "Draining",
	StateStopped:  "Stopped",
}

// String returns the state name.
func (s State) String() string {
	if s >= 0 && int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("State(%d)", s)
}

// fullscreenQuad is two triangles covering clip space, as position.xy and
// uv per vertex.
var fullscreenQuad = []float32{
	-1, -1, 0, 1,
	1, -1, 1, 1,
	1, 1, 1, 0,
	-1, -1, 0, 1,
	1, 1, 1, 0,
	-1, 1, 0, 0,
}

// Renderer is the consumer side of the protocol. It owns a Backend, a
// ResourceTable and a goroutine that drains the Channel.
type Renderer struct {
	backend Backend
	ch      *Channel
	arena   *Arena
	table   *ResourceTable
	opts    rendererOptions

	state   atomic.Int32
	crashed atomic.Bool
	done    chan struct{}

	resolution geom.Size
	quad       RenderResource
	worlds     map[Handle]*World
	rendered   []RenderResource
	batch      []Command
}

// NewRenderer returns a Renderer in StateCreated that will drain ch and
// release arena accounting for every command it executes.
func NewRenderer(b Backend, ch *Channel, arena *Arena, opts ...Option) *Renderer {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &Renderer{
		backend:    b,
		ch:         ch,
		arena:      arena,
		table:      NewResourceTable(MaxHandles),
		opts:       o,
		done:       make(chan struct{}),
		resolution: o.resolution,
		worlds:     make(map[Handle]*World),
	}
}

// State returns the current lifecycle state.
func (r *Renderer) State() State { return State(r.state.Load()) }

// String implements fmt.Stringer.
func (r *Renderer) String() string {
	return fmt.Sprintf("Renderer(%s, %s)", r.backend.Name(), r.State())
}

// Backend returns the backend driven by r.
func (r *Renderer) Backend() Backend { return r.backend }

// Resource returns the table entry at h. It must only be called while the
// render goroutine is known to be idle, for example right after
// Interface.WaitUntilIdle.
func (r *Renderer) Resource(h Handle) (RenderResource, bool) {
	return r.table.Lookup(h)
}

// Start spawns the render goroutine, initializes the backend on it and
// returns once initialization has finished.
func (r *Renderer) Start() error {
	if !r.state.CompareAndSwap(int32(StateCreated), int32(StateRunning)) {
		return fmt.Errorf("render: start in state %s", r.State())
	}
	initErr := make(chan error, 1)
	go r.run(initErr)
	if err := <-initErr; err != nil {
		return err
	}
	Logger().Info("render: renderer started", "backend", r.backend.Name(), "resolution", r.resolution)
	return nil
}

func (r *Renderer) run(initErr chan<- error) {
	defer close(r.done)
	defer func() {
		if v := recover(); v != nil {
			r.crashed.Store(true)
			r.state.Store(int32(StateStopped))
			Logger().Error("render: renderer crashed", "panic", v)
			if r.opts.crash != nil {
				r.opts.crash(v)
			}
			panic(v)
		}
	}()

	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	if err := r.initialize(); err != nil {
		r.state.Store(int32(StateStopped))
		initErr <- err
		return
	}
	initErr <- nil

	r.loop()
	r.shutdown()
	r.state.Store(int32(StateStopped))
}

func (r *Renderer) initialize() error {
	if err := r.backend.InitializeThread(); err != nil {
		return fmt.Errorf("render: initialize %s: %w", r.backend.Name(), err)
	}
	if err := r.backend.Resize(r.resolution); err != nil {
		return fmt.Errorf("render: initial resize: %w", err)
	}
	data := make([]byte, len(fullscreenQuad)*4)
	encodeFloats(data, fullscreenQuad)
	quad, err := r.backend.CreateGeometry(GeometryDesc{VertexCount: 6, Stride: 16}, data)
	if err != nil {
		return fmt.Errorf("render: fullscreen quad: %w", err)
	}
	r.quad = quad
	return nil
}

func (r *Renderer) loop() {
	for {
		var open bool
		r.batch, open = r.ch.Wait(r.batch[:0])
		if !open {
			r.state.Store(int32(StateDraining))
		}
		Logger().Debug("render: batch", "commands", len(r.batch))
		for i := range r.batch {
			cmd := r.batch[i]
			r.batch[i] = Command{}
			r.execute(cmd)
			if cmd.Kind != CommandFence {
				r.arena.Release()
			}
		}
		if !open {
			return
		}
	}
}

// Stop closes the channel, waits for the render goroutine to execute
// everything queued and release its resources. It panics with ErrLeak if
// transient payloads are still accounted as live, and with ErrResourceLeak
// if a LiveCounter backend still holds resources after Shutdown.
func (r *Renderer) Stop() {
	switch r.State() {
	case StateCreated:
		r.state.Store(int32(StateStopped))
		return
	case StateStopped:
		if !r.crashed.Load() {
			<-r.done
			return
		}
	}
	r.ch.Close()
	<-r.done
	if r.crashed.Load() {
		return
	}
	if n := r.arena.Live(); n != 0 {
		panic(fmt.Errorf("%w: %d commands at shutdown", ErrLeak, n))
	}
	if c, ok := r.backend.(LiveCounter); ok {
		if n := c.Live(); n != 0 {
			panic(fmt.Errorf("%w: %d in %s at shutdown", ErrResourceLeak, n, r.backend.Name()))
		}
	}
	Logger().Info("render: renderer stopped", "backend", r.backend.Name())
}

// shutdown destroys every tracked resource and the backend.
func (r *Renderer) shutdown() {
	r.table.Each(func(h Handle, res RenderResource) {
		r.destroy(h, res)
		r.table.Clear(h)
	})
	if r.quad.IsInitialized() {
		r.backend.DestroyGeometry(r.quad)
		r.quad = RenderResource{}
	}
	r.backend.Shutdown()
}

func (r *Renderer) execute(cmd Command) {
	switch cmd.Kind {
	case CommandFence:
		payloadAs[*Fence](cmd).Signal()
	case CommandLoadResource:
		p := payloadAs[ResourcePayload](cmd)
		if res, ok := r.table.Lookup(p.Handle); ok {
			r.destroy(p.Handle, res)
		}
		r.table.Set(p.Handle, r.load(p.Handle, p.Desc, cmd.Data))
	case CommandUpdateResource:
		p := payloadAs[ResourcePayload](cmd)
		r.table.Set(p.Handle, r.update(p.Handle, p.Desc, cmd.Data))
	case CommandUnloadResource:
		p := payloadAs[UnloadPayload](cmd)
		if res, ok := r.table.Lookup(p.Handle); ok {
			r.destroy(p.Handle, res)
			r.table.Clear(p.Handle)
		}
	case CommandResize:
		r.resize(payloadAs[ResizePayload](cmd).Resolution)
	case CommandRenderWorld:
		r.renderWorld(payloadAs[RenderWorldPayload](cmd))
	case CommandCombineRenderedWorlds:
		r.combine(payloadAs[CombinePayload](cmd))
	case CommandSetUniformValue:
		p := payloadAs[UniformPayload](cmd)
		m := r.material(p.Material)
		if err := m.Set(p.Name, p.Type, DecodeFloats(cmd.Data)); err != nil {
			Logger().Warn("render: set uniform", "material", p.Material, "error", err)
		}
	case CommandSpriteStateReflection:
		r.reflect(payloadAs[SpriteReflection](cmd))
	default:
		panic(fmt.Errorf("%w: %d", ErrUnknownCommand, cmd.Kind))
	}
}

func payloadAs[T Payload](cmd Command) T {
	p, ok := cmd.Payload.(T)
	if !ok {
		panic(fmt.Errorf("%w: %v with payload %T", ErrUnknownCommand, cmd.Kind, cmd.Payload))
	}
	return p
}

func (r *Renderer) load(h Handle, desc Descriptor, data []byte) RenderResource {
	Logger().Debug("render: load", "handle", h, "kind", desc.Kind())
	var (
		res RenderResource
		err error
	)
	switch d := desc.(type) {
	case ShaderDesc:
		res, err = r.backend.CreateShader(d, data)
	case TextureDesc:
		res, err = r.backend.CreateTexture(d, data)
	case GeometryDesc:
		res, err = r.backend.CreateGeometry(d, data)
	case RenderTargetDesc:
		res, err = r.backend.CreateRenderTarget(d)
	case MaterialDesc:
		return ObjectResource(KindMaterial, r.newMaterial(d))
	case WorldDesc:
		w := &World{Target: r.newTarget(h)}
		r.worlds[h] = w
		return ObjectResource(KindWorld, w)
	default:
		panic(fmt.Errorf("%w: load of %T", ErrUnknownCommand, desc))
	}
	if err != nil {
		panic(fmt.Errorf("render: load %v %d: %w", desc.Kind(), h, err))
	}
	return res
}

func (r *Renderer) update(h Handle, desc Descriptor, data []byte) RenderResource {
	old := r.table.Get(h)
	if old.Kind != desc.Kind() {
		panic(fmt.Errorf("%w: update of %v at %d with %v", ErrWrongKind, old.Kind, h, desc.Kind()))
	}
	var (
		res RenderResource
		err error
	)
	switch d := desc.(type) {
	case ShaderDesc:
		res, err = r.backend.UpdateShader(old, d, data)
	case TextureDesc:
		res, err = r.backend.UpdateTexture(old, d, data)
	case GeometryDesc:
		res, err = r.backend.UpdateGeometry(old, d, data)
	case RenderTargetDesc:
		r.backend.DestroyRenderTarget(old)
		res, err = r.backend.CreateRenderTarget(d)
	case MaterialDesc:
		return ObjectResource(KindMaterial, r.newMaterial(d))
	case WorldDesc:
		return old
	default:
		panic(fmt.Errorf("%w: update of %T", ErrUnknownCommand, desc))
	}
	if err != nil {
		panic(fmt.Errorf("render: update %v %d: %w", desc.Kind(), h, err))
	}
	return res
}

func (r *Renderer) destroy(h Handle, res RenderResource) {
	switch res.Kind {
	case KindShader:
		r.backend.DestroyShader(res)
	case KindTexture:
		r.backend.DestroyTexture(res)
	case KindGeometry:
		r.backend.DestroyGeometry(res)
	case KindRenderTarget:
		r.backend.DestroyRenderTarget(res)
	case KindWorld:
		w := res.Object.(*World)
		for _, s := range w.Sprites {
			s.world = nil
		}
		w.Sprites = nil
		r.backend.DestroyRenderTarget(w.Target)
		delete(r.worlds, h)
	case KindSprite:
		s := res.Object.(*Sprite)
		if s.world != nil {
			s.world.remove(s)
		}
	}
}

func (r *Renderer) newTarget(h Handle) RenderResource {
	res, err := r.backend.CreateRenderTarget(RenderTargetDesc{Size: r.resolution})
	if err != nil {
		panic(fmt.Errorf("render: world %d target: %w", h, err))
	}
	return res
}

func (r *Renderer) newMaterial(d MaterialDesc) *Material {
	var shader RenderResource
	if d.Shader.IsValid() {
		shader = r.table.Get(d.Shader)
	}
	m := &Material{
		Shader:   d.Shader,
		Texture:  d.Texture,
		Uniforms: make([]MaterialUniform, len(d.Uniforms)),
	}
	for i, u := range d.Uniforms {
		u.Value = append([]float32(nil), u.Value...)
		loc := -1
		if shader.IsInitialized() {
			loc = r.backend.UniformLocation(shader, u.Name)
		}
		m.Uniforms[i] = MaterialUniform{Uniform: u, Location: loc}
	}
	return m
}

func (r *Renderer) resize(size geom.Size) {
	if size == r.resolution {
		return
	}
	r.resolution = size
	if err := r.backend.Resize(size); err != nil {
		panic(fmt.Errorf("render: resize: %w", err))
	}
	for h, w := range r.worlds {
		r.backend.DestroyRenderTarget(w.Target)
		w.Target = r.newTarget(h)
	}
	r.rendered = r.rendered[:0]
}

func (r *Renderer) world(h Handle) *World {
	res := r.table.Get(h)
	w, ok := res.Object.(*World)
	if !ok {
		panic(fmt.Errorf("%w: %d is %v, want World", ErrWrongKind, h, res.Kind))
	}
	return w
}

func (r *Renderer) material(h Handle) *Material {
	res := r.table.Get(h)
	m, ok := res.Object.(*Material)
	if !ok {
		panic(fmt.Errorf("%w: %d is %v, want Material", ErrWrongKind, h, res.Kind))
	}
	return m
}

func (r *Renderer) renderWorld(p RenderWorldPayload) {
	w := r.world(p.World)
	w.Time = p.Time
	if err := r.backend.Clear(w.Target, r.opts.clearColor); err != nil {
		panic(fmt.Errorf("render: clear world %d: %w", p.World, err))
	}
	if err := r.backend.Draw(w.Target, p.View, w, r.resolution, r.table); err != nil {
		panic(fmt.Errorf("render: draw world %d: %w", p.World, err))
	}
	r.rendered = append(r.rendered, w.Target)
}

func (r *Renderer) combine(p CombinePayload) {
	var shader RenderResource
	if p.Shader.IsValid() {
		shader = r.table.Get(p.Shader)
	}
	if err := r.backend.CombineRenderedWorlds(r.quad, shader, r.rendered); err != nil {
		panic(fmt.Errorf("render: combine %d worlds: %w", len(r.rendered), err))
	}
	r.rendered = r.rendered[:0]
}

func (r *Renderer) reflect(p SpriteReflection) {
	w := r.world(p.World)
	for _, st := range p.New {
		s := &Sprite{State: st}
		w.add(s)
		r.table.Set(st.Handle, ObjectResource(KindSprite, s))
	}
	for _, st := range p.Dirty {
		res := r.table.Get(st.Handle)
		s, ok := res.Object.(*Sprite)
		if !ok {
			panic(fmt.Errorf("%w: %d is %v, want Sprite", ErrWrongKind, st.Handle, res.Kind))
		}
		s.State = st
	}
	if len(p.New) > 0 || len(p.Dirty) > 0 {
		w.sort()
	}
}
