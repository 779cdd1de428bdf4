package render

import "fmt"

// ResourceKind identifies what a resource is.
type ResourceKind uint8

// Resource kinds.
const (
	KindUnknown ResourceKind = iota
	KindShader
	KindTexture
	KindGeometry
	KindRenderTarget
	KindMaterial
	KindWorld
	KindSprite
)

var kindNames = [...]string{
	KindUnknown:      "Unknown",
	KindShader:       "Shader",
	KindTexture:      "Texture",
	KindGeometry:     "Geometry",
	KindRenderTarget: "RenderTarget",
	KindMaterial:     "Material",
	KindWorld:        "World",
	KindSprite:       "Sprite",
}

// String returns the kind name.
func (k ResourceKind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("ResourceKind(%d)", k)
}

// ResourceType tags the variant held by a RenderResource.
type ResourceType uint8

// RenderResource variants.
const (
	// ResourceNotInitialized marks an empty table slot.
	ResourceNotInitialized ResourceType = iota
	// ResourceHandle carries an integer id owned by the backend.
	ResourceHandle
	// ResourceObject carries a Go value owned by the backend or renderer.
	ResourceObject
)

// RenderResource is the render-side resource stored in a ResourceTable.
type RenderResource struct {
	Type   ResourceType
	Kind   ResourceKind
	Handle uint64
	Object any
}

// HandleResource returns a RenderResource carrying a backend id.
func HandleResource(kind ResourceKind, id uint64) RenderResource {
	return RenderResource{Type: ResourceHandle, Kind: kind, Handle: id}
}

// ObjectResource returns a RenderResource carrying a Go value.
func ObjectResource(kind ResourceKind, obj any) RenderResource {
	return RenderResource{Type: ResourceObject, Kind: kind, Object: obj}
}

// IsInitialized reports whether r holds a resource.
func (r RenderResource) IsInitialized() bool { return r.Type != ResourceNotInitialized }

// ResourceTable maps logical handles to render resources. It is owned by
// the render goroutine.
type ResourceTable struct {
	entries []RenderResource
}

// NewResourceTable returns a table for handles 1..capacity.
func NewResourceTable(capacity int) *ResourceTable {
	return &ResourceTable{entries: make([]RenderResource, capacity+1)}
}

// Set stores r at h.
func (t *ResourceTable) Set(h Handle, r RenderResource) {
	t.check(h)
	t.entries[h] = r
}

// Get returns the resource at h. Looking up an uninitialized slot panics
// with ErrInvalidHandle.
func (t *ResourceTable) Get(h Handle) RenderResource {
	t.check(h)
	r := t.entries[h]
	if !r.IsInitialized() {
		panic(fmt.Errorf("%w: %d is not initialized", ErrInvalidHandle, h))
	}
	return r
}

// Lookup returns the resource at h and whether it is initialized. NoHandle
// reports false.
func (t *ResourceTable) Lookup(h Handle) (RenderResource, bool) {
	if h == NoHandle || int(h) >= len(t.entries) {
		return RenderResource{}, false
	}
	r := t.entries[h]
	return r, r.IsInitialized()
}

// Clear resets h to ResourceNotInitialized.
func (t *ResourceTable) Clear(h Handle) {
	t.check(h)
	t.entries[h] = RenderResource{}
}

// Initialized reports whether h holds a resource.
func (t *ResourceTable) Initialized(h Handle) bool {
	_, ok := t.Lookup(h)
	return ok
}

func (t *ResourceTable) check(h Handle) {
	if h == NoHandle || int(h) >= len(t.entries) {
		panic(fmt.Errorf("%w: %d out of range", ErrInvalidHandle, h))
	}
}

// Each calls fn for every initialized slot in ascending handle order.
func (t *ResourceTable) Each(fn func(Handle, RenderResource)) {
	for i := 1; i < len(t.entries); i++ {
		if t.entries[i].IsInitialized() {
			fn(Handle(i), t.entries[i])
		}
	}
}
