// Package sprite stores the sprite renderer component: a colored,
// optionally textured rectangle drawn with a material.
//
// Each frame the owning world recomputes the world-space quad of every new
// or dirty sprite, hands out render handles to new sprites and snapshots
// both partitions as render.SpriteState records.
package sprite

import (
	"github.com/gogpu/bowtie/component"
	"github.com/gogpu/bowtie/entity"
	"github.com/gogpu/bowtie/geom"
	"github.com/gogpu/bowtie/render"
)

// Sprite is the authored state of a sprite component.
type Sprite struct {
	// Rect is the sprite rectangle in local space.
	Rect     geom.Rect
	Color    geom.Color
	Material render.Handle
	// Depth orders sprites within a world; lower depths draw first.
	Depth int32
}

// Store holds the sprites of one world.
type Store struct {
	table *component.Table

	rect     *component.Column[geom.Rect]
	color    *component.Column[geom.Color]
	material *component.Column[render.Handle]
	handle   *component.Column[render.Handle]
	quad     *component.Column[geom.Quad]
	depth    *component.Column[int32]
}

// New returns an empty store with room for capacity sprites.
func New(capacity int) *Store {
	t := component.NewTable(capacity)
	return &Store{
		table:    t,
		rect:     component.AddColumn[geom.Rect](t),
		color:    component.AddColumn[geom.Color](t),
		material: component.AddColumn[render.Handle](t),
		handle:   component.AddColumn[render.Handle](t),
		quad:     component.AddColumn[geom.Quad](t),
		depth:    component.AddColumn[int32](t),
	}
}

// Table exposes the underlying rows and partitions.
func (s *Store) Table() *component.Table { return s.table }

// Has reports whether e has a sprite.
func (s *Store) Has(e entity.Entity) bool { return s.table.Has(e) }

// Len returns the number of sprites.
func (s *Store) Len() int { return s.table.Len() }

// Create adds a sprite for e. Until the next UpdateGeometry its quad is
// the untransformed rectangle.
func (s *Store) Create(e entity.Entity, sp Sprite) {
	slot := s.table.Create(e)
	s.rect.Set(slot, sp.Rect)
	s.color.Set(slot, sp.Color)
	s.material.Set(slot, sp.Material)
	s.depth.Set(slot, sp.Depth)
	s.quad.Set(slot, geom.QuadOf(sp.Rect, geom.Identity()))
}

// Get returns the authored state of e.
func (s *Store) Get(e entity.Entity) Sprite {
	slot := s.table.MustSlot(e)
	return Sprite{
		Rect:     s.rect.Get(slot),
		Color:    s.color.Get(slot),
		Material: s.material.Get(slot),
		Depth:    s.depth.Get(slot),
	}
}

// Quad returns the last computed world-space quad of e.
func (s *Store) Quad(e entity.Entity) geom.Quad { return s.quad.Get(s.table.MustSlot(e)) }

// Handle returns the render handle of e, or render.NoHandle before the
// first sync.
func (s *Store) Handle(e entity.Entity) render.Handle { return s.handle.Get(s.table.MustSlot(e)) }

// MarkDirty schedules e for the next sync and returns its slot.
func (s *Store) MarkDirty(e entity.Entity) int {
	return s.table.MarkDirty(s.table.MustSlot(e))
}

func (s *Store) SetRect(e entity.Entity, r geom.Rect)         { s.rect.Set(s.MarkDirty(e), r) }
func (s *Store) SetColor(e entity.Entity, c geom.Color)       { s.color.Set(s.MarkDirty(e), c) }
func (s *Store) SetMaterial(e entity.Entity, m render.Handle) { s.material.Set(s.MarkDirty(e), m) }
func (s *Store) SetDepth(e entity.Entity, d int32)            { s.depth.Set(s.MarkDirty(e), d) }

// SetGeometry replaces the world-space quad of e.
func (s *Store) SetGeometry(e entity.Entity, q geom.Quad) { s.quad.Set(s.MarkDirty(e), q) }

// UpdateGeometry recomputes the quad of every dirty and new sprite.
// transform reports the world matrix of an entity, or false when the
// entity has no transform and the rectangle is used as is.
func (s *Store) UpdateGeometry(transform func(entity.Entity) (geom.Matrix, bool)) {
	update := func(start, end int) {
		for slot := start; slot < end; slot++ {
			m, ok := transform(s.table.Entity(slot))
			if !ok {
				m = geom.Identity()
			}
			s.quad.Set(slot, geom.QuadOf(s.rect.Get(slot), m))
		}
	}
	update(s.table.DirtyRange())
	update(s.table.NewRange())
}

// Destroy removes the sprite of e and returns its render handle so the
// caller can unload it.
func (s *Store) Destroy(e entity.Entity) render.Handle {
	h := s.handle.Get(s.table.MustSlot(e))
	s.table.Destroy(e)
	return h
}

// AssignHandles gives every new sprite without a render handle one from
// alloc.
func (s *Store) AssignHandles(alloc func() render.Handle) {
	start, end := s.table.NewRange()
	for slot := start; slot < end; slot++ {
		if !s.handle.Get(slot).IsValid() {
			s.handle.Set(slot, alloc())
		}
	}
}

// CopyNew appends snapshots of the new partition to dst.
func (s *Store) CopyNew(dst []render.SpriteState) []render.SpriteState {
	start, end := s.table.NewRange()
	return s.copyRange(dst, start, end)
}

// CopyDirty appends snapshots of the dirty partition to dst.
func (s *Store) CopyDirty(dst []render.SpriteState) []render.SpriteState {
	start, end := s.table.DirtyRange()
	return s.copyRange(dst, start, end)
}

func (s *Store) copyRange(dst []render.SpriteState, start, end int) []render.SpriteState {
	for slot := start; slot < end; slot++ {
		dst = append(dst, render.SpriteState{
			Handle:   s.handle.Get(slot),
			Rect:     s.rect.Get(slot),
			Quad:     s.quad.Get(slot),
			Color:    s.color.Get(slot),
			Material: s.material.Get(slot),
			Depth:    s.depth.Get(slot),
		})
	}
	return dst
}

// Reset marks every sprite clean.
func (s *Store) Reset() { s.table.Reset() }
