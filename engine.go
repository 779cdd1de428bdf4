package bowtie

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gogpu/bowtie/entity"
	"github.com/gogpu/bowtie/geom"
	"github.com/gogpu/bowtie/loader"
	"github.com/gogpu/bowtie/platform"
	"github.com/gogpu/bowtie/render"
	"github.com/gogpu/bowtie/world"
)

var (
	// ErrStarted is returned by operations that must precede Start.
	ErrStarted = errors.New("bowtie: engine already started")

	// ErrNotStarted is returned by Frame before Start.
	ErrNotStarted = errors.New("bowtie: engine not started")
)

// Game is the simulation an Engine drives. Its methods run on the
// simulation goroutine.
type Game interface {
	// Start is called before the first frame. A failed Start is retried on
	// the next frame.
	Start(e *Engine) error

	// Update advances the simulation by dt seconds.
	Update(e *Engine, dt float64)

	// Draw enqueues world renders, normally through world.Draw.
	Draw(e *Engine)
}

// Engine owns the render goroutine and the simulation state shared by the
// worlds it creates. Except for Callbacks, which forwards into the engine,
// it is used from a single goroutine.
type Engine struct {
	opts    engineOptions
	backend render.Backend
	game    Game

	ch       *render.Channel
	arena    *render.Arena
	iface    *render.Interface
	renderer *render.Renderer

	entities *entity.Manager
	store    *loader.Store
	worlds   []*world.World
	keyboard Keyboard

	running     bool
	gameStarted bool
	quit        bool
	elapsed     float64
	frames      uint64
}

// New creates an engine rendering through b. The render goroutine is not
// started until Start.
func New(b render.Backend, game Game, opts ...Option) *Engine {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	e := &Engine{
		opts:     o,
		backend:  b,
		game:     game,
		ch:       render.NewChannel(o.channelCapacity),
		arena:    render.NewArena(o.arenaSize),
		entities: entity.NewManager(),
		keyboard: newKeyboard(),
	}
	e.iface = render.NewInterface(e.ch, e.arena)
	if o.assets != nil {
		e.store = loader.NewStore(o.assets, e.iface)
	}
	return e
}

// Interface returns the producer side of the render protocol.
func (e *Engine) Interface() *render.Interface { return e.iface }

// Renderer returns the renderer, or nil before Start.
func (e *Engine) Renderer() *render.Renderer { return e.renderer }

// Entities returns the entity manager shared by all worlds.
func (e *Engine) Entities() *entity.Manager { return e.entities }

// Store returns the resource store, or nil without WithAssets.
func (e *Engine) Store() *loader.Store { return e.store }

// Keyboard returns the key state.
func (e *Engine) Keyboard() *Keyboard { return &e.keyboard }

// Time returns the simulated seconds since the first frame.
func (e *Engine) Time() float64 { return e.elapsed }

// Frames returns the number of completed frames.
func (e *Engine) Frames() uint64 { return e.frames }

// Resolution returns the output size the renderer was last given.
func (e *Engine) Resolution() geom.Size { return e.opts.resolution }

// SetPresenter routes combined frames to p. The backend must implement
// render.Presentable.
func (e *Engine) SetPresenter(p render.Presenter) error {
	if e.running {
		return ErrStarted
	}
	pr, ok := e.backend.(render.Presentable)
	if !ok {
		return fmt.Errorf("bowtie: backend %s does not present frames", e.backend.Name())
	}
	pr.SetPresenter(p)
	return nil
}

// Start starts the render goroutine.
func (e *Engine) Start() error {
	if e.running {
		return ErrStarted
	}
	r := render.NewRenderer(e.backend, e.ch, e.arena, e.opts.rendererOptions()...)
	if err := r.Start(); err != nil {
		return err
	}
	e.renderer = r
	e.running = true
	Logger().Info("bowtie: engine started", "backend", e.backend.Name(), "fps", e.opts.fps)
	return nil
}

// Stop unloads every world and stored resource, then stops the renderer.
func (e *Engine) Stop() {
	if !e.running {
		return
	}
	for _, w := range e.worlds {
		w.Close()
	}
	e.worlds = nil
	if e.store != nil {
		e.store.Unload()
	}
	e.renderer.Stop()
	e.running = false
	Logger().Info("bowtie: engine stopped", "frames", e.frames)
}

// CreateWorld creates a world whose transforms and sprites are synced every
// frame between Game.Update and Game.Draw.
func (e *Engine) CreateWorld() *world.World {
	w := world.New(e.iface, e.entities, e.opts.worldCapacity)
	e.worlds = append(e.worlds, w)
	return w
}

// DestroyWorld unloads w and stops syncing it.
func (e *Engine) DestroyWorld(w *world.World) {
	for i, x := range e.worlds {
		if x == w {
			e.worlds = append(e.worlds[:i], e.worlds[i+1:]...)
			break
		}
	}
	w.Close()
}

// Resize changes the output resolution.
func (e *Engine) Resize(size geom.Size) {
	if size.Empty() || size == e.opts.resolution {
		return
	}
	e.opts.resolution = size
	if e.running {
		e.iface.Resize(size)
	}
}

// KeyPressed records a key press.
func (e *Engine) KeyPressed(k platform.Key) { e.keyboard.press(k) }

// KeyReleased records a key release.
func (e *Engine) KeyReleased(k platform.Key) { e.keyboard.release(k) }

// Callbacks returns window callbacks feeding the engine. They must be
// invoked on the simulation goroutine.
func (e *Engine) Callbacks() platform.Callbacks {
	return platform.Callbacks{
		Resized: e.Resize,
		KeyDown: e.KeyPressed,
		KeyUp:   e.KeyReleased,
	}
}

// Quit makes Run return after the current frame.
func (e *Engine) Quit() { e.quit = true }

// Frame runs one frame: it waits until the renderer has finished the
// previous frame, updates the game, syncs every world, draws the game and
// combines the rendered worlds.
func (e *Engine) Frame(dt float64) error {
	if !e.running {
		return ErrNotStarted
	}
	e.iface.BeginFrame()
	if !e.gameStarted {
		if err := e.game.Start(e); err != nil {
			return fmt.Errorf("bowtie: start game: %w", err)
		}
		e.gameStarted = true
	}

	e.elapsed += dt
	e.game.Update(e, dt)
	for _, w := range e.worlds {
		w.Update()
		w.Sync()
	}
	e.game.Draw(e)
	e.iface.CombineRenderedWorlds(render.NoHandle)

	e.keyboard.endFrame()
	e.frames++
	return nil
}

// Run pumps win and runs frames until the window closes, Quit is called or
// ctx is done. win may be nil for headless runs.
func (e *Engine) Run(ctx context.Context, win platform.Window) error {
	var tick <-chan time.Time
	if e.opts.fps > 0 {
		t := time.NewTicker(time.Second / time.Duration(e.opts.fps))
		defer t.Stop()
		tick = t.C
	}

	last := time.Now()
	for !e.quit {
		if win != nil && !win.ProcessEvents() {
			return nil
		}
		now := time.Now()
		if err := e.Frame(now.Sub(last).Seconds()); err != nil {
			return err
		}
		last = now

		if tick == nil {
			if err := ctx.Err(); err != nil {
				return err
			}
			continue
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-tick:
		}
	}
	return nil
}
