package render

import (
	"fmt"
	"slices"

	"github.com/gogpu/bowtie/geom"
)

// SpriteState is the render-side snapshot of one sprite.
type SpriteState struct {
	Handle   Handle
	Rect     geom.Rect
	Quad     geom.Quad
	Color    geom.Color
	Material Handle
	Depth    int32
}

// Sprite is a renderer-owned sprite living in a World.
type Sprite struct {
	State SpriteState
	world *World
}

// World is a renderer-owned collection of sprites drawn into its own
// render target.
type World struct {
	Target  RenderResource
	Sprites []*Sprite
	Time    float64
}

func (w *World) add(s *Sprite) {
	s.world = w
	w.Sprites = append(w.Sprites, s)
}

func (w *World) remove(s *Sprite) {
	if i := slices.Index(w.Sprites, s); i >= 0 {
		w.Sprites = slices.Delete(w.Sprites, i, i+1)
	}
	s.world = nil
}

// sort orders sprites by depth, keeping creation order among equals.
func (w *World) sort() {
	slices.SortStableFunc(w.Sprites, func(a, b *Sprite) int {
		switch {
		case a.State.Depth < b.State.Depth:
			return -1
		case a.State.Depth > b.State.Depth:
			return 1
		}
		return 0
	})
}

// MaterialUniform is a material uniform with its resolved shader location.
// Location is -1 when the shader does not declare the name.
type MaterialUniform struct {
	Uniform
	Location int
}

// Material is a renderer-owned shader binding.
type Material struct {
	Shader   Handle
	Texture  Handle
	Uniforms []MaterialUniform
}

// Uniform returns the uniform called name, or nil.
func (m *Material) Uniform(name string) *MaterialUniform {
	for i := range m.Uniforms {
		if m.Uniforms[i].Name == name {
			return &m.Uniforms[i]
		}
	}
	return nil
}

// Set stores values into the uniform called name. It returns an error if
// the material has no such uniform or the value count does not fit.
func (m *Material) Set(name string, typ UniformType, values []float32) error {
	u := m.Uniform(name)
	if u == nil {
		return fmt.Errorf("render: material has no uniform %q", name)
	}
	if u.Type != typ || len(values) != typ.Components() {
		return fmt.Errorf("render: uniform %q is %v, got %v with %d values", name, u.Type, typ, len(values))
	}
	u.Value = slices.Clone(values)
	return nil
}
