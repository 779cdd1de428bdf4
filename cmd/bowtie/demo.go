package main

import (
	"math"

	"github.com/gogpu/bowtie"
	"github.com/gogpu/bowtie/entity"
	"github.com/gogpu/bowtie/geom"
	"github.com/gogpu/bowtie/platform"
	"github.com/gogpu/bowtie/render"
	"github.com/gogpu/bowtie/sprite"
	"github.com/gogpu/bowtie/world"
)

const (
	arms      = 6
	armRadius = 0.3  // of the shorter view side
	moonScale = 0.35 // of armRadius
	spinRate  = 0.8  // radians per second
	moveSpeed = 0.5  // view heights per second
)

// orbit is a sun with planets that each carry a moon. Rotating the sun
// turns the whole hierarchy.
type orbit struct {
	maxFrames int
	material  string

	world   *world.World
	sun     entity.Entity
	planets []entity.Entity
	moons   []entity.Entity
}

func (o *orbit) Start(e *bowtie.Engine) error {
	var mat render.Handle
	if store := e.Store(); store != nil && o.material != "" {
		h, err := store.Material(o.material)
		if err != nil {
			return err
		}
		mat = h
	}

	res := e.Resolution()
	unit := math.Min(float64(res.Width), float64(res.Height))
	r := armRadius * unit

	o.world = e.CreateWorld()
	tr := o.world.Transforms()

	o.sun = o.spawn(mat, r*0.5, geom.Hex("ffcc33"), 0)
	tr.SetPosition(o.sun, geom.V2(float64(res.Width)/2, float64(res.Height)/2))

	for i := range arms {
		angle := 2 * math.Pi * float64(i) / arms
		hue := geom.RGBA(0.3+0.7*float32(i)/arms, 0.4, 1-0.6*float32(i)/arms, 1)

		p := o.spawn(mat, r*0.25, hue, 1)
		tr.SetPosition(p, geom.V2(r*math.Cos(angle), r*math.Sin(angle)))
		if err := tr.SetParent(p, o.sun); err != nil {
			return err
		}

		m := o.spawn(mat, r*0.1, geom.White, 2)
		tr.SetPosition(m, geom.V2(r*moonScale, 0))
		if err := tr.SetParent(m, p); err != nil {
			return err
		}
		o.planets = append(o.planets, p)
		o.moons = append(o.moons, m)
	}
	bowtie.Logger().Info("demo: started", "entities", 1+2*arms, "resolution", res)
	return nil
}

func (o *orbit) spawn(mat render.Handle, size float64, c geom.Color, depth int32) entity.Entity {
	ent := o.world.CreateEntity()
	o.world.AddTransform(ent)
	o.world.AddSprite(ent, sprite.Sprite{
		Rect:     geom.R(-size/2, -size/2, size, size),
		Color:    c,
		Material: mat,
		Depth:    depth,
	})
	return ent
}

func (o *orbit) Update(e *bowtie.Engine, dt float64) {
	kb := e.Keyboard()
	if kb.Pressed(platform.KeyEscape) || kb.Pressed('q') {
		e.Quit()
	}
	if o.maxFrames > 0 && e.Frames()+1 >= uint64(o.maxFrames) {
		e.Quit()
	}

	tr := o.world.Transforms()
	tr.SetRotation(o.sun, tr.Rotation(o.sun)+spinRate*dt)
	for _, p := range o.planets {
		tr.SetRotation(p, tr.Rotation(p)-2*spinRate*dt)
	}

	step := moveSpeed * float64(e.Resolution().Height) * dt
	var d geom.Vec2
	if kb.Held(platform.KeyLeft) {
		d.X -= step
	}
	if kb.Held(platform.KeyRight) {
		d.X += step
	}
	if kb.Held(platform.KeyUp) {
		d.Y -= step
	}
	if kb.Held(platform.KeyDown) {
		d.Y += step
	}
	if d != (geom.Vec2{}) {
		tr.SetPosition(o.sun, tr.Position(o.sun).Add(d))
	}
}

func (o *orbit) Draw(e *bowtie.Engine) {
	res := e.Resolution()
	o.world.Draw(geom.R(0, 0, float64(res.Width), float64(res.Height)), e.Time())
}
