package wgpu

import (
	"encoding/binary"
	"errors"
	"image"
	"math"
	"testing"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/hal/noop"

	"github.com/gogpu/bowtie/backend"
	"github.com/gogpu/bowtie/geom"
	"github.com/gogpu/bowtie/render"
)

// createNoopDevice opens a noop device and queue for testing.
func createNoopDevice(t *testing.T) (hal.Device, hal.Queue) {
	t.Helper()
	api := noop.API{}
	instance, err := api.CreateInstance(nil)
	if err != nil {
		t.Fatalf("CreateInstance failed: %v", err)
	}
	adapters := instance.EnumerateAdapters(nil)
	openDev, err := adapters[0].Adapter.Open(0, gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() {
		openDev.Device.Destroy()
		instance.Destroy()
	})
	return openDev.Device, openDev.Queue
}

func newBackend(t *testing.T) *Backend {
	t.Helper()
	device, queue := createNoopDevice(t)
	b := New(device, queue)
	if err := b.InitializeThread(); err != nil {
		t.Fatalf("InitializeThread: %v", err)
	}
	t.Cleanup(b.Shutdown)
	return b
}

// mockProvider implements gpucontext.DeviceProvider with HAL accessors.
type mockProvider struct {
	device hal.Device
	queue  hal.Queue
}

func (m *mockProvider) Device() gpucontext.Device             { return nil }
func (m *mockProvider) Queue() gpucontext.Queue               { return nil }
func (m *mockProvider) Adapter() gpucontext.Adapter           { return nil }
func (m *mockProvider) SurfaceFormat() gputypes.TextureFormat { return targetFormat }
func (m *mockProvider) HalDevice() any                        { return m.device }
func (m *mockProvider) HalQueue() any                         { return m.queue }

// plainProvider has no HAL accessors.
type plainProvider struct{}

func (plainProvider) Device() gpucontext.Device             { return nil }
func (plainProvider) Queue() gpucontext.Queue               { return nil }
func (plainProvider) Adapter() gpucontext.Adapter           { return nil }
func (plainProvider) SurfaceFormat() gputypes.TextureFormat { return targetFormat }

func TestNewFromProvider(t *testing.T) {
	device, queue := createNoopDevice(t)
	b, err := NewFromProvider(&mockProvider{device: device, queue: queue})
	if err != nil {
		t.Fatalf("NewFromProvider: %v", err)
	}
	if b.device != device || b.queue != queue {
		t.Error("device or queue not taken from provider")
	}

	if _, err := NewFromProvider(plainProvider{}); !errors.Is(err, ErrNoHAL) {
		t.Errorf("NewFromProvider(plain) error = %v, want ErrNoHAL", err)
	}
	if _, err := NewFromProvider(&mockProvider{}); !errors.Is(err, ErrNoHAL) {
		t.Errorf("NewFromProvider(nil device) error = %v, want ErrNoHAL", err)
	}
}

func TestRegistryNeedsProvider(t *testing.T) {
	if !backend.IsRegistered(backend.BackendWGPU) {
		t.Fatal("wgpu backend not registered")
	}
	if b := backend.Get(backend.BackendWGPU); b != nil {
		t.Fatalf("factory without provider returned %T", b)
	}

	device, queue := createNoopDevice(t)
	SetProvider(&mockProvider{device: device, queue: queue})
	t.Cleanup(func() { SetProvider(nil) })

	b, err := backend.Open(backend.BackendWGPU)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if b.Name() != backend.BackendWGPU {
		t.Errorf("Name() = %q", b.Name())
	}
	if got := backend.Default().Name(); got != backend.BackendWGPU {
		t.Errorf("Default() = %q, want wgpu", got)
	}
}

func TestSpriteVertices(t *testing.T) {
	st := &render.SpriteState{
		Quad:  geom.QuadOf(geom.R(0, 0, 2, 1), geom.Identity()),
		Color: geom.RGBA(1, 0, 0, 0.5),
	}
	buf := appendSpriteVertices(nil, st, false)
	if len(buf) != 6*spriteVertexStride {
		t.Fatalf("len = %d, want %d", len(buf), 6*spriteVertexStride)
	}
	f := func(buf []byte, vertex, field int) float32 {
		off := vertex*spriteVertexStride + field*4
		return math.Float32frombits(binary.LittleEndian.Uint32(buf[off:]))
	}
	// Third vertex is the max corner with uv (1, 1).
	if f(buf, 2, 0) != 2 || f(buf, 2, 1) != 1 {
		t.Errorf("vertex 2 = (%v, %v), want (2, 1)", f(buf, 2, 0), f(buf, 2, 1))
	}
	if f(buf, 2, 6) != 1 || f(buf, 2, 7) != 1 {
		t.Errorf("vertex 2 uv = (%v, %v), want (1, 1)", f(buf, 2, 6), f(buf, 2, 7))
	}
	// Sixth vertex is the bottom-left corner.
	if f(buf, 5, 6) != 0 || f(buf, 5, 7) != 1 {
		t.Errorf("vertex 5 uv = (%v, %v), want (0, 1)", f(buf, 5, 6), f(buf, 5, 7))
	}
	// Colors are premultiplied.
	if f(buf, 0, 2) != 0.5 || f(buf, 0, 5) != 0.5 {
		t.Errorf("vertex color r=%v a=%v, want 0.5 0.5", f(buf, 0, 2), f(buf, 0, 5))
	}

	tex := appendSpriteVertices(nil, st, true)
	for field := 2; field < 6; field++ {
		if got := f(tex, 0, field); got != 0.5 {
			t.Errorf("textured color component %d = %v, want alpha 0.5", field-2, got)
		}
	}
	if got := len(makeSpriteUniform(geom.R(0, 0, 10, 10))); got != spriteUniformSize {
		t.Errorf("uniform size = %d, want %d", got, spriteUniformSize)
	}
}

func TestUnpackStripsPadding(t *testing.T) {
	tg := &target{w: 3, h: 2}
	aligned := int(tg.alignedRowBytes())
	if aligned != copyPitchAlignment {
		t.Fatalf("alignedRowBytes = %d, want %d", aligned, copyPitchAlignment)
	}
	data := make([]byte, aligned*2)
	data[aligned+8] = 0xAB // row 1, pixel 2, red
	img := tg.unpack(data)
	if img.Bounds() != image.Rect(0, 0, 3, 2) {
		t.Fatalf("bounds = %v", img.Bounds())
	}
	if got := img.RGBAAt(2, 1).R; got != 0xAB {
		t.Errorf("pixel (2,1).R = %#x, want 0xab", got)
	}
}

func TestTargetLifecycle(t *testing.T) {
	b := newBackend(t)
	if err := b.Resize(geom.Size{Width: 16, Height: 8}); err != nil {
		t.Fatal(err)
	}
	rt, err := b.CreateRenderTarget(render.RenderTargetDesc{Size: geom.Size{Width: 16, Height: 8}})
	if err != nil {
		t.Fatalf("CreateRenderTarget: %v", err)
	}
	if err := b.Clear(rt, geom.RGBA(1, 0, 0, 0.5)); err != nil {
		t.Fatal(err)
	}
	tg := rt.Object.(*target)
	if tg.pending == nil || tg.pending.R != 0.5 {
		t.Fatalf("pending clear = %v, want premultiplied red", tg.pending)
	}

	w := &render.World{}
	w.Sprites = []*render.Sprite{{State: render.SpriteState{
		Quad:  geom.QuadOf(geom.R(0, 0, 4, 4), geom.Identity()),
		Color: geom.White,
	}}}
	if err := b.Draw(rt, geom.R(0, 0, 16, 8), w, b.size, nil); err != nil {
		t.Fatalf("Draw: %v", err)
	}
	if tg.pending != nil {
		t.Error("Draw did not consume the pending clear")
	}
	if err := b.Draw(rt, geom.R(0, 0, 16, 8), &render.World{}, b.size, nil); err != nil {
		t.Fatalf("Draw of empty world: %v", err)
	}

	var frames []*image.RGBA
	b.SetPresenter(render.PresenterFunc(func(f *image.RGBA) error {
		frames = append(frames, f)
		return nil
	}))
	if err := b.CombineRenderedWorlds(render.RenderResource{}, render.RenderResource{}, []render.RenderResource{rt}); err != nil {
		t.Fatalf("CombineRenderedWorlds: %v", err)
	}
	if len(frames) != 1 || frames[0].Bounds() != image.Rect(0, 0, 16, 8) {
		t.Fatalf("presented %d frames, want one 16x8 frame", len(frames))
	}

	b.DestroyRenderTarget(rt)
	if b.Live() != 0 {
		t.Errorf("Live() = %d after destroy", b.Live())
	}
}

func TestWrongKind(t *testing.T) {
	b := newBackend(t)
	bad := render.ObjectResource(render.KindRenderTarget, "nope")
	if err := b.Clear(bad, geom.White); !errors.Is(err, render.ErrWrongKind) {
		t.Errorf("Clear error = %v, want ErrWrongKind", err)
	}
	if _, err := b.UpdateTexture(bad, render.TextureDesc{Width: 1, Height: 1}, make([]byte, 4)); !errors.Is(err, render.ErrWrongKind) {
		t.Errorf("UpdateTexture error = %v, want ErrWrongKind", err)
	}
}

func TestTextures(t *testing.T) {
	b := newBackend(t)
	desc := render.TextureDesc{Width: 2, Height: 2, Format: gputypes.TextureFormatRGBA8Unorm}
	if _, err := b.CreateTexture(desc, make([]byte, 8)); err == nil {
		t.Error("short pixel data accepted")
	}
	if _, err := b.CreateTexture(render.TextureDesc{}, nil); err == nil {
		t.Error("empty texture accepted")
	}

	tex, err := b.CreateTexture(desc, make([]byte, 16))
	if err != nil {
		t.Fatalf("CreateTexture: %v", err)
	}
	same, err := b.UpdateTexture(tex, desc, make([]byte, 16))
	if err != nil {
		t.Fatalf("UpdateTexture: %v", err)
	}
	if same.Object != tex.Object {
		t.Error("same-size update reallocated the texture")
	}
	bigger := render.TextureDesc{Width: 4, Height: 4}
	grown, err := b.UpdateTexture(tex, bigger, make([]byte, 64))
	if err != nil {
		t.Fatalf("UpdateTexture grow: %v", err)
	}
	if gt := grown.Object.(*texture); gt.w != 4 || gt.h != 4 {
		t.Errorf("grown texture = %dx%d, want 4x4", gt.w, gt.h)
	}
	b.DestroyTexture(grown)
	if b.Live() != 0 {
		t.Errorf("Live() = %d", b.Live())
	}
}

func TestShaderAndGeometry(t *testing.T) {
	b := newBackend(t)
	if _, err := b.CreateShader(render.ShaderDesc{Name: "broken"}, []byte("this is not wgsl")); err == nil {
		t.Error("invalid shader source accepted")
	}
	if got := b.UniformLocation(render.RenderResource{}, "tint"); got != -1 {
		t.Errorf("UniformLocation on empty resource = %d, want -1", got)
	}
	sh := render.ObjectResource(render.KindShader, &shader{desc: render.ShaderDesc{UniformNames: []string{"mvp", "tint"}}})
	if got := b.UniformLocation(sh, "tint"); got != 1 {
		t.Errorf("UniformLocation(tint) = %d, want 1", got)
	}

	g, err := b.CreateGeometry(render.GeometryDesc{VertexCount: 1, Stride: 8}, make([]byte, 8))
	if err != nil {
		t.Fatalf("CreateGeometry: %v", err)
	}
	if g.Object.(*geometry).buf == nil {
		t.Error("geometry has no buffer")
	}
	if _, err := b.UpdateGeometry(g, render.GeometryDesc{}, nil); err != nil {
		t.Fatalf("UpdateGeometry: %v", err)
	}
	if g.Object.(*geometry).buf != nil {
		t.Error("empty update kept the old buffer")
	}
	b.DestroyGeometry(g)
	if b.Live() != 0 {
		t.Errorf("Live() = %d", b.Live())
	}
}

func TestRendererOnNoopDevice(t *testing.T) {
	device, queue := createNoopDevice(t)
	b := New(device, queue)
	frames := make(chan image.Rectangle, 4)
	b.SetPresenter(render.PresenterFunc(func(f *image.RGBA) error {
		frames <- f.Bounds()
		return nil
	}))

	ch := render.NewChannel(16)
	arena := render.NewArena(1 << 14)
	r := render.NewRenderer(b, ch, arena, render.WithResolution(geom.Size{Width: 8, Height: 8}))
	if err := r.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	iface := render.NewInterface(ch, arena)
	w := iface.CreateRenderWorld()
	s := iface.CreateHandle()
	iface.ReflectSprites(w, []render.SpriteState{{
		Handle: s,
		Quad:   geom.QuadOf(geom.R(0, 0, 4, 8), geom.Identity()),
		Color:  geom.White,
	}}, nil)
	iface.RenderWorld(w, geom.R(0, 0, 8, 8), 0)
	iface.CombineRenderedWorlds(render.NoHandle)
	iface.BeginFrame()

	select {
	case got := <-frames:
		if got != image.Rect(0, 0, 8, 8) {
			t.Errorf("frame bounds = %v, want 8x8", got)
		}
	default:
		t.Fatal("no frame presented")
	}

	iface.UnloadResource(s)
	iface.UnloadResource(w)
	r.Stop()
	if b.Live() != 0 {
		t.Errorf("Live() = %d after Stop", b.Live())
	}
}

// recordingDevice records the bind groups and pipelines it creates.
type recordingDevice struct {
	hal.Device
	bindGroups []*hal.BindGroupDescriptor
	pipelines  []string
}

func (d *recordingDevice) CreateBindGroup(desc *hal.BindGroupDescriptor) (hal.BindGroup, error) {
	d.bindGroups = append(d.bindGroups, desc)
	return d.Device.CreateBindGroup(desc)
}

func (d *recordingDevice) CreateRenderPipeline(desc *hal.RenderPipelineDescriptor) (hal.RenderPipeline, error) {
	d.pipelines = append(d.pipelines, desc.Label)
	return d.Device.CreateRenderPipeline(desc)
}

func newRecordingBackend(t *testing.T) (*Backend, *recordingDevice) {
	t.Helper()
	device, queue := createNoopDevice(t)
	rec := &recordingDevice{Device: device}
	b := New(rec, queue)
	if err := b.InitializeThread(); err != nil {
		t.Fatalf("InitializeThread: %v", err)
	}
	t.Cleanup(b.Shutdown)
	return b, rec
}

func newShader(t *testing.T, b *Backend, desc render.ShaderDesc) *shader {
	t.Helper()
	module, err := b.device.CreateShaderModule(&hal.ShaderModuleDescriptor{Label: desc.Name})
	if err != nil {
		t.Fatal(err)
	}
	return &shader{module: module, desc: desc}
}

func spriteAt(x float64, material render.Handle) *render.Sprite {
	return &render.Sprite{State: render.SpriteState{
		Quad:     geom.QuadOf(geom.R(x, 0, x+2, 2), geom.Identity()),
		Color:    geom.White,
		Material: material,
	}}
}

func TestTexturedSpritesBindTheirTexture(t *testing.T) {
	b, rec := newRecordingBackend(t)
	rt, err := b.CreateRenderTarget(render.RenderTargetDesc{Size: geom.Size{Width: 8, Height: 8}})
	if err != nil {
		t.Fatal(err)
	}
	defer b.DestroyRenderTarget(rt)
	tex, err := b.CreateTexture(render.TextureDesc{Width: 2, Height: 2}, make([]byte, 16))
	if err != nil {
		t.Fatal(err)
	}
	defer b.DestroyTexture(tex)

	const matHandle, texHandle render.Handle = 1, 2
	lut := render.NewResourceTable(4)
	lut.Set(matHandle, render.ObjectResource(render.KindMaterial, &render.Material{Texture: texHandle}))
	lut.Set(texHandle, tex)

	world := &render.World{Sprites: []*render.Sprite{
		spriteAt(0, matHandle),
		spriteAt(2, matHandle),
		spriteAt(4, render.NoHandle),
	}}
	if sb := resolve(&world.Sprites[0].State, lut); sb.texture != tex.Object.(*texture) {
		t.Fatalf("resolved texture %p, want the material's", sb.texture)
	}
	if sb := resolve(&world.Sprites[2].State, lut); sb.texture != nil || sb.material != nil {
		t.Fatalf("untextured sprite resolved to %+v", sb)
	}

	before := len(rec.bindGroups)
	res, err := b.buildSpriteResources(world, geom.R(0, 0, 8, 8), geom.Size{Width: 8, Height: 8}, lut)
	if err != nil {
		t.Fatalf("buildSpriteResources: %v", err)
	}
	defer res.destroy(b.device)
	if len(res.batches) != 2 {
		t.Fatalf("%d batches, want textured and untextured", len(res.batches))
	}
	if res.batches[0].vertCount != 12 || res.batches[1].firstVertex != 12 {
		t.Errorf("batches = %+v", res.batches)
	}
	groups := rec.bindGroups[before:]
	if len(groups) != 2 {
		t.Fatalf("%d bind groups created, want 2", len(groups))
	}
	for i, g := range groups {
		if len(g.Entries) != 3 {
			t.Fatalf("bind group %d has %d entries, want 3", i, len(g.Entries))
		}
		if _, ok := g.Entries[1].Resource.(gputypes.TextureViewBinding); !ok {
			t.Errorf("bind group %d binding 1 is %T, want a texture view", i, g.Entries[1].Resource)
		}
		if _, ok := g.Entries[2].Resource.(gputypes.SamplerBinding); !ok {
			t.Errorf("bind group %d binding 2 is %T, want a sampler", i, g.Entries[2].Resource)
		}
	}

	if err := b.Draw(rt, geom.R(0, 0, 8, 8), world, geom.Size{Width: 8, Height: 8}, lut); err != nil {
		t.Fatalf("Draw: %v", err)
	}
}

func TestMaterialShaderPipeline(t *testing.T) {
	b, rec := newRecordingBackend(t)
	rt, err := b.CreateRenderTarget(render.RenderTargetDesc{Size: geom.Size{Width: 8, Height: 8}})
	if err != nil {
		t.Fatal(err)
	}
	defer b.DestroyRenderTarget(rt)

	sh := newShader(t, b, render.ShaderDesc{Name: "tint", UniformNames: []string{"tint", "time"}})
	defer b.device.DestroyShaderModule(sh.module)
	mat := &render.Material{Shader: 1, Uniforms: []render.MaterialUniform{
		{Uniform: render.Uniform{Name: "time", Type: render.UniformFloat, Automatic: render.AutomaticTime}, Location: 1},
		{Uniform: render.Uniform{Name: "tint", Type: render.UniformVec4, Value: []float32{1, 0, 0, 1}}, Location: 0},
	}}
	lut := render.NewResourceTable(4)
	lut.Set(1, render.ObjectResource(render.KindShader, sh))
	lut.Set(2, render.ObjectResource(render.KindMaterial, mat))

	world := &render.World{Time: 3, Sprites: []*render.Sprite{spriteAt(0, 2)}}
	for range 2 {
		if err := b.Draw(rt, geom.R(0, 0, 8, 8), world, geom.Size{Width: 8, Height: 8}, lut); err != nil {
			t.Fatalf("Draw: %v", err)
		}
	}
	n := 0
	for _, l := range rec.pipelines {
		if l == "material_pipeline_tint" {
			n++
		}
	}
	if n != 1 {
		t.Errorf("material pipeline created %d times, want 1 (pipelines %v)", n, rec.pipelines)
	}
	if _, ok := b.materialPipelines[sh]; !ok {
		t.Fatal("material pipeline not cached")
	}
	last := rec.bindGroups[len(rec.bindGroups)-1]
	if size := last.Entries[0].Resource.(gputypes.BufferBinding).Size; size != 32 {
		t.Errorf("uniform binding size = %d, want 32 for vec4 + float", size)
	}

	b.dropPipelines(sh)
	if len(b.materialPipelines) != 0 {
		t.Error("pipeline kept after its shader was dropped")
	}
}

func TestPackMaterialUniforms(t *testing.T) {
	mat := &render.Material{Uniforms: []render.MaterialUniform{
		{Uniform: render.Uniform{Name: "time", Type: render.UniformFloat, Automatic: render.AutomaticTime}, Location: 1},
		{Uniform: render.Uniform{Name: "unused", Type: render.UniformMat4}, Location: -1},
		{Uniform: render.Uniform{Name: "tint", Type: render.UniformVec4, Value: []float32{1, 2, 3, 4}}, Location: 0},
		{Uniform: render.Uniform{Name: "basis", Type: render.UniformMat3, Value: []float32{1, 2, 3, 4, 5, 6, 7, 8, 9}}, Location: 2},
	}}
	buf := packMaterialUniforms(mat, geom.R(0, 0, 1, 1), geom.Size{Width: 1, Height: 1}, 7)
	at := func(off int) float32 { return math.Float32frombits(binary.LittleEndian.Uint32(buf[off:])) }

	// tint 0..16, time 16..20, basis aligned to 32 with vec4 columns.
	if len(buf) != 80 {
		t.Fatalf("len = %d, want 80", len(buf))
	}
	if at(0) != 1 || at(12) != 4 {
		t.Errorf("tint = %v..%v, want 1..4", at(0), at(12))
	}
	if at(16) != 7 {
		t.Errorf("time = %v, want 7", at(16))
	}
	if at(32) != 1 || at(48) != 4 || at(64) != 7 || at(72) != 9 {
		t.Errorf("mat3 columns = %v %v %v %v", at(32), at(48), at(64), at(72))
	}
	if at(44) != 0 {
		t.Errorf("mat3 column padding = %v, want 0", at(44))
	}

	empty := packMaterialUniforms(&render.Material{}, geom.Rect{}, geom.Size{}, 0)
	if len(empty) != minUniformSize {
		t.Errorf("empty uniforms = %d bytes, want %d", len(empty), minUniformSize)
	}
}

func TestPackAutomaticUniforms(t *testing.T) {
	desc := render.ShaderDesc{Name: "combine", UniformNames: []string{"resolution", "time"}}
	buf, err := packAutomaticUniforms(desc, geom.R(0, 0, 4, 2), geom.Size{Width: 4, Height: 2}, 1.5)
	if err != nil {
		t.Fatal(err)
	}
	at := func(off int) float32 { return math.Float32frombits(binary.LittleEndian.Uint32(buf[off:])) }
	if len(buf) != 16 || at(0) != 4 || at(4) != 2 || at(8) != 1.5 {
		t.Errorf("packed %d bytes: %v %v %v", len(buf), at(0), at(4), at(8))
	}

	desc.UniformNames = []string{"tint"}
	if _, err := packAutomaticUniforms(desc, geom.Rect{}, geom.Size{}, 0); err == nil {
		t.Error("non-automatic combine uniform accepted")
	}
}

func TestCombineWithShader(t *testing.T) {
	b, rec := newRecordingBackend(t)
	size := geom.Size{Width: 8, Height: 4}
	if err := b.Resize(size); err != nil {
		t.Fatal(err)
	}
	quad, err := b.CreateGeometry(render.GeometryDesc{VertexCount: 6, Stride: quadVertexStride}, make([]byte, 6*quadVertexStride))
	if err != nil {
		t.Fatal(err)
	}
	defer b.DestroyGeometry(quad)
	rt, err := b.CreateRenderTarget(render.RenderTargetDesc{Size: size})
	if err != nil {
		t.Fatal(err)
	}
	defer b.DestroyRenderTarget(rt)

	sh := newShader(t, b, render.ShaderDesc{Name: "vignette", UniformNames: []string{"resolution"}})
	defer b.device.DestroyShaderModule(sh.module)
	shaderRes := render.ObjectResource(render.KindShader, sh)

	var frames []image.Rectangle
	b.SetPresenter(render.PresenterFunc(func(f *image.RGBA) error {
		frames = append(frames, f.Bounds())
		return nil
	}))
	before := len(rec.bindGroups)
	if err := b.CombineRenderedWorlds(quad, shaderRes, []render.RenderResource{rt, rt}); err != nil {
		t.Fatalf("CombineRenderedWorlds: %v", err)
	}
	if len(frames) != 1 || frames[0] != image.Rect(0, 0, 8, 4) {
		t.Fatalf("presented %v, want one 8x4 frame", frames)
	}
	if got := len(rec.bindGroups) - before; got != 2 {
		t.Errorf("%d combine bind groups, want one per target", got)
	}
	if _, ok := b.combinePipelines[sh]; !ok {
		t.Error("combine pipeline not cached")
	}
	if b.output == nil || b.output.w != 8 || b.output.h != 4 {
		t.Errorf("output target = %+v", b.output)
	}

	if err := b.CombineRenderedWorlds(render.RenderResource{}, shaderRes, []render.RenderResource{rt}); err == nil {
		t.Error("combine shader without the quad geometry succeeded")
	}
	bad := newShader(t, b, render.ShaderDesc{Name: "tinted", UniformNames: []string{"tint"}})
	defer b.device.DestroyShaderModule(bad.module)
	if err := b.CombineRenderedWorlds(quad, render.ObjectResource(render.KindShader, bad), []render.RenderResource{rt}); err == nil {
		t.Error("combine shader with a non-automatic uniform succeeded")
	}
}
