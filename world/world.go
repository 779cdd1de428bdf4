// Package world ties the entity manager and the component stores of one
// simulation world to a render world.
//
// A frame is Update, which propagates transforms and recomputes sprite
// geometry, followed by Sync, which emits the sprite deltas as a single
// reflection command and clears the partitions, and Draw.
package world

import (
	"github.com/gogpu/bowtie/entity"
	"github.com/gogpu/bowtie/geom"
	"github.com/gogpu/bowtie/render"
	"github.com/gogpu/bowtie/sprite"
	"github.com/gogpu/bowtie/transform"
)

// World is a simulation world. It is owned by the simulation goroutine.
type World struct {
	iface    *render.Interface
	entities *entity.Manager

	transforms *transform.Store
	sprites    *sprite.Store

	handle  render.Handle
	created []render.SpriteState
	changed []render.SpriteState
}

// New returns a world creating entities from ents and loading a render
// world through iface. capacity bounds each store; non-positive means the
// full entity index space.
func New(iface *render.Interface, ents *entity.Manager, capacity int) *World {
	return &World{
		iface:      iface,
		entities:   ents,
		transforms: transform.New(capacity),
		sprites:    sprite.New(capacity),
		handle:     iface.CreateRenderWorld(),
	}
}

// Handle returns the render world handle.
func (w *World) Handle() render.Handle { return w.handle }

// Transforms returns the transform store.
func (w *World) Transforms() *transform.Store { return w.transforms }

// Sprites returns the sprite store.
func (w *World) Sprites() *sprite.Store { return w.sprites }

// CreateEntity returns a new entity with no components.
func (w *World) CreateEntity() entity.Entity { return w.entities.Create() }

// DestroyEntity removes every component of e, unloads its render sprite
// and destroys the entity.
func (w *World) DestroyEntity(e entity.Entity) {
	if w.transforms.Has(e) {
		w.transforms.Destroy(e)
	}
	if w.sprites.Has(e) {
		if h := w.sprites.Destroy(e); h.IsValid() {
			w.iface.UnloadResource(h)
		}
	}
	w.entities.Destroy(e)
}

// AddTransform gives e a root transform at the origin.
func (w *World) AddTransform(e entity.Entity) { w.transforms.Create(e) }

// AddSprite gives e a sprite.
func (w *World) AddSprite(e entity.Entity, sp sprite.Sprite) { w.sprites.Create(e, sp) }

// Update propagates world matrices and recomputes the quads of every
// sprite whose transform or own state changed.
func (w *World) Update() {
	w.transforms.UpdateWorld(func(e entity.Entity, _ geom.Matrix) {
		if w.sprites.Has(e) {
			w.sprites.MarkDirty(e)
		}
	})
	w.sprites.UpdateGeometry(func(e entity.Entity) (geom.Matrix, bool) {
		if !w.transforms.Has(e) {
			return geom.Matrix{}, false
		}
		return w.transforms.World(e), true
	})
}

// Sync hands out render handles to new sprites, sends the new and dirty
// sprite snapshots in one reflection command and marks everything clean.
func (w *World) Sync() {
	w.sprites.AssignHandles(w.iface.CreateHandle)
	w.created = w.sprites.CopyNew(w.created[:0])
	w.changed = w.sprites.CopyDirty(w.changed[:0])
	if len(w.created) > 0 || len(w.changed) > 0 {
		w.iface.ReflectSprites(w.handle, w.created, w.changed)
	}
	w.sprites.Reset()
	w.transforms.Reset()
}

// Draw enqueues a render of the world with view mapped onto its target.
func (w *World) Draw(view geom.Rect, t float64) {
	w.iface.RenderWorld(w.handle, view, t)
}

// Close unloads every render sprite and the render world. The stores are
// left untouched.
func (w *World) Close() {
	if !w.handle.IsValid() {
		return
	}
	for _, e := range w.sprites.Table().Entities() {
		if h := w.sprites.Handle(e); h.IsValid() {
			w.iface.UnloadResource(h)
		}
	}
	w.iface.UnloadResource(w.handle)
	w.handle = render.NoHandle
}
