package render

import "github.com/gogpu/bowtie/geom"

// DefaultResolution is the output size used until the first Resize.
var DefaultResolution = geom.Size{Width: 640, Height: 480}

// Option configures a Renderer during creation.
//
// Example:
//
//	r := render.NewRenderer(backend, ch, arena,
//		render.WithClearColor(geom.Hex("#202030")),
//		render.WithCrashHandler(func(v any) { log.Print(v) }),
//	)
type Option func(*rendererOptions)

type rendererOptions struct {
	crash      func(any)
	clearColor geom.Color
	resolution geom.Size
}

func defaultOptions() rendererOptions {
	return rendererOptions{
		clearColor: geom.Transparent,
		resolution: DefaultResolution,
	}
}

// WithCrashHandler installs fn to observe a panic on the render goroutine.
// The panic is re-raised after fn returns.
func WithCrashHandler(fn func(any)) Option {
	return func(o *rendererOptions) {
		o.crash = fn
	}
}

// WithClearColor sets the color world targets are cleared to before each
// RenderWorld.
func WithClearColor(c geom.Color) Option {
	return func(o *rendererOptions) {
		o.clearColor = c
	}
}

// WithResolution sets the initial output resolution.
func WithResolution(size geom.Size) Option {
	return func(o *rendererOptions) {
		if !size.Empty() {
			o.resolution = size
		}
	}
}
