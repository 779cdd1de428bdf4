package bowtie

import (
	"io/fs"

	"github.com/gogpu/bowtie/config"
	"github.com/gogpu/bowtie/geom"
	"github.com/gogpu/bowtie/render"
)

// Option configures an Engine during creation.
//
// Example:
//
//	e := bowtie.New(backend.MustDefault(), game,
//		bowtie.WithFPS(30),
//		bowtie.WithAssets(os.DirFS("assets")),
//	)
type Option func(*engineOptions)

type engineOptions struct {
	channelCapacity int
	arenaSize       int
	worldCapacity   int
	fps             int
	clearColor      geom.Color
	resolution      geom.Size
	crash           func(any)
	assets          fs.FS
}

func defaultOptions() engineOptions {
	return engineOptions{
		channelCapacity: 1024,
		arenaSize:       16 << 20,
		fps:             60,
		clearColor:      geom.Transparent,
		resolution:      render.DefaultResolution,
	}
}

func (o *engineOptions) rendererOptions() []render.Option {
	opts := []render.Option{
		render.WithClearColor(o.clearColor),
		render.WithResolution(o.resolution),
	}
	if o.crash != nil {
		opts = append(opts, render.WithCrashHandler(o.crash))
	}
	return opts
}

// WithChannelCapacity sets the number of commands the render channel
// holds before the simulation goroutine blocks.
func WithChannelCapacity(n int) Option {
	return func(o *engineOptions) {
		if n > 0 {
			o.channelCapacity = n
		}
	}
}

// WithArenaSize sets the size in bytes of the per-frame transient arena.
func WithArenaSize(n int) Option {
	return func(o *engineOptions) {
		if n > 0 {
			o.arenaSize = n
		}
	}
}

// WithWorldCapacity bounds the component stores of worlds created by the
// engine. Zero means the full entity index space.
func WithWorldCapacity(n int) Option {
	return func(o *engineOptions) {
		o.worldCapacity = n
	}
}

// WithFPS caps Run at fps frames per second. Zero runs unthrottled.
func WithFPS(fps int) Option {
	return func(o *engineOptions) {
		if fps >= 0 {
			o.fps = fps
		}
	}
}

// WithClearColor sets the color world targets are cleared to.
func WithClearColor(c geom.Color) Option {
	return func(o *engineOptions) {
		o.clearColor = c
	}
}

// WithResolution sets the initial output resolution.
func WithResolution(size geom.Size) Option {
	return func(o *engineOptions) {
		if !size.Empty() {
			o.resolution = size
		}
	}
}

// WithCrashHandler installs fn to observe a panic on the render goroutine.
func WithCrashHandler(fn func(any)) Option {
	return func(o *engineOptions) {
		o.crash = fn
	}
}

// WithAssets gives the engine a resource store reading from fsys.
func WithAssets(fsys fs.FS) Option {
	return func(o *engineOptions) {
		o.assets = fsys
	}
}

// WithConfig applies the window and renderer sections of cfg.
func WithConfig(cfg *config.Config) Option {
	return func(o *engineOptions) {
		WithChannelCapacity(cfg.Renderer.ChannelCapacity)(o)
		WithArenaSize(cfg.Renderer.ArenaSize)(o)
		WithFPS(cfg.Window.FPS)(o)
		WithResolution(cfg.Resolution())(o)
		o.clearColor = cfg.ClearColor()
	}
}
