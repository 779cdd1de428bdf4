package render

import (
	"fmt"
	"sync"

	"github.com/gogpu/bowtie/geom"
)

// NullBackend is a Backend that creates no device objects. It hands out
// sequential ids and records every call, which makes it useful for tests
// and headless runs.
type NullBackend struct {
	mu     sync.Mutex
	calls  []string
	nextID uint64
	live   map[uint64]ResourceKind
	size   geom.Size
	shader map[uint64][]string
}

var (
	_ Backend     = (*NullBackend)(nil)
	_ LiveCounter = (*NullBackend)(nil)
)

// NewNullBackend returns an empty NullBackend.
func NewNullBackend() *NullBackend {
	return &NullBackend{
		live:   make(map[uint64]ResourceKind),
		shader: make(map[uint64][]string),
	}
}

func (b *NullBackend) record(format string, args ...any) {
	b.calls = append(b.calls, fmt.Sprintf(format, args...))
}

func (b *NullBackend) create(kind ResourceKind) RenderResource {
	b.nextID++
	b.live[b.nextID] = kind
	return HandleResource(kind, b.nextID)
}

func (b *NullBackend) destroy(r RenderResource) {
	delete(b.live, r.Handle)
	delete(b.shader, r.Handle)
}

// Calls returns a copy of the recorded call log.
func (b *NullBackend) Calls() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.calls...)
}

// Live returns the number of resources created and not destroyed.
func (b *NullBackend) Live() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.live)
}

// Size returns the last resolution passed to Resize.
func (b *NullBackend) Size() geom.Size {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.size
}

func (b *NullBackend) Name() string { return "null" }

func (b *NullBackend) InitializeThread() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.record("InitializeThread")
	return nil
}

func (b *NullBackend) Resize(size geom.Size) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.size = size
	b.record("Resize %dx%d", size.Width, size.Height)
	return nil
}

func (b *NullBackend) Clear(target RenderResource, _ geom.Color) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.record("Clear %d", target.Handle)
	return nil
}

func (b *NullBackend) Draw(target RenderResource, _ geom.Rect, world *World, _ geom.Size, _ *ResourceTable) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.record("Draw %d sprites=%d", target.Handle, len(world.Sprites))
	return nil
}

func (b *NullBackend) CombineRenderedWorlds(_, _ RenderResource, targets []RenderResource) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.record("Combine targets=%d", len(targets))
	return nil
}

func (b *NullBackend) CreateTexture(desc TextureDesc, _ []byte) (RenderResource, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.record("CreateTexture %dx%d", desc.Width, desc.Height)
	return b.create(KindTexture), nil
}

func (b *NullBackend) UpdateTexture(tex RenderResource, desc TextureDesc, _ []byte) (RenderResource, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.record("UpdateTexture %d %dx%d", tex.Handle, desc.Width, desc.Height)
	return tex, nil
}

func (b *NullBackend) DestroyTexture(tex RenderResource) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.record("DestroyTexture %d", tex.Handle)
	b.destroy(tex)
}

func (b *NullBackend) CreateShader(desc ShaderDesc, _ []byte) (RenderResource, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.record("CreateShader %s", desc.Name)
	r := b.create(KindShader)
	b.shader[r.Handle] = append([]string(nil), desc.UniformNames...)
	return r, nil
}

func (b *NullBackend) UpdateShader(shader RenderResource, desc ShaderDesc, _ []byte) (RenderResource, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.record("UpdateShader %d %s", shader.Handle, desc.Name)
	b.shader[shader.Handle] = append([]string(nil), desc.UniformNames...)
	return shader, nil
}

func (b *NullBackend) DestroyShader(shader RenderResource) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.record("DestroyShader %d", shader.Handle)
	b.destroy(shader)
}

func (b *NullBackend) CreateGeometry(desc GeometryDesc, _ []byte) (RenderResource, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.record("CreateGeometry %d", desc.VertexCount)
	return b.create(KindGeometry), nil
}

func (b *NullBackend) UpdateGeometry(geometry RenderResource, desc GeometryDesc, _ []byte) (RenderResource, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.record("UpdateGeometry %d %d", geometry.Handle, desc.VertexCount)
	return geometry, nil
}

func (b *NullBackend) DestroyGeometry(geometry RenderResource) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.record("DestroyGeometry %d", geometry.Handle)
	b.destroy(geometry)
}

func (b *NullBackend) CreateRenderTarget(desc RenderTargetDesc) (RenderResource, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.record("CreateRenderTarget %dx%d", desc.Size.Width, desc.Size.Height)
	return b.create(KindRenderTarget), nil
}

func (b *NullBackend) DestroyRenderTarget(target RenderResource) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.record("DestroyRenderTarget %d", target.Handle)
	b.destroy(target)
}

func (b *NullBackend) UniformLocation(shader RenderResource, name string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, n := range b.shader[shader.Handle] {
		if n == name {
			return i
		}
	}
	return -1
}

func (b *NullBackend) Shutdown() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.record("Shutdown")
}
