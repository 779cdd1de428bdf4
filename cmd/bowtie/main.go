// Command bowtie runs a small sprite hierarchy demo in the terminal, or
// headless with the last frame written to a PNG file.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"image"
	"image/png"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/gogpu/bowtie"
	"github.com/gogpu/bowtie/backend"
	_ "github.com/gogpu/bowtie/backend/software"
	_ "github.com/gogpu/bowtie/backend/wgpu"
	"github.com/gogpu/bowtie/config"
	"github.com/gogpu/bowtie/platform/terminal"
	"github.com/gogpu/bowtie/render"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "bowtie:", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configPath = flag.String("config", "", "TOML config file")
		backendArg = flag.String("backend", "", "backend name, overrides the config")
		assets     = flag.String("assets", "", "asset directory")
		material   = flag.String("material", "", "material path inside -assets for every sprite")
		headless   = flag.Bool("headless", false, "render without a terminal")
		frames     = flag.Int("frames", 0, "stop after this many frames (0 = until quit)")
		output     = flag.String("output", "frame.png", "headless: file for the last frame")
		logPath    = flag.String("log", "", "log file (default stderr when headless, discarded otherwise)")
	)
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		var err error
		if cfg, err = config.Load(*configPath); err != nil {
			return err
		}
	}
	if err := config.ApplyEnv(cfg); err != nil {
		return err
	}
	if *backendArg != "" {
		cfg.Renderer.Backend = *backendArg
	}
	if *headless && *frames == 0 {
		*frames = 1
	}

	logOut := io.Writer(io.Discard)
	switch {
	case *logPath != "":
		f, err := os.Create(*logPath)
		if err != nil {
			return fmt.Errorf("open log: %w", err)
		}
		defer f.Close()
		logOut = f
	case *headless:
		logOut = os.Stderr
	}
	logger, err := newLogger(logOut, cfg.Log)
	if err != nil {
		return err
	}
	bowtie.SetLogger(logger)
	logger.Info("starting", "title", cfg.Window.Title, "backend", cfg.Renderer.Backend, "version", bowtie.Version)

	b, err := backend.Open(cfg.Renderer.Backend)
	if err != nil {
		return err
	}

	opts := []bowtie.Option{bowtie.WithConfig(cfg)}
	if *assets != "" {
		opts = append(opts, bowtie.WithAssets(os.DirFS(*assets)))
	}
	game := &orbit{maxFrames: *frames, material: *material}
	e := bowtie.New(b, game, opts...)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *headless {
		return runHeadless(ctx, e, *output)
	}
	return runTerminal(ctx, e, logger)
}

func newLogger(w io.Writer, cfg config.LogConfig) (*slog.Logger, error) {
	level, err := cfg.SlogLevel()
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: level}
	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	}
	return slog.New(slog.NewTextHandler(w, opts)), nil
}

func runTerminal(ctx context.Context, e *bowtie.Engine, logger *slog.Logger) error {
	win, err := terminal.New(e.Callbacks())
	if err != nil {
		return fmt.Errorf("open terminal: %w", err)
	}
	defer win.Close()

	if err := e.SetPresenter(win.Presenter()); err != nil {
		logger.Warn("frames will not be shown", "error", err)
	}
	if err := e.Start(); err != nil {
		return err
	}
	defer e.Stop()
	return ignoreCanceled(e.Run(ctx, win))
}

// lastFrame keeps a copy of the most recent presented frame.
type lastFrame struct {
	mu  sync.Mutex
	img *image.RGBA
}

func (l *lastFrame) Present(frame *image.RGBA) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.img == nil || l.img.Bounds() != frame.Bounds() {
		l.img = image.NewRGBA(frame.Bounds())
	}
	copy(l.img.Pix, frame.Pix)
	return nil
}

var _ render.Presenter = (*lastFrame)(nil)

func runHeadless(ctx context.Context, e *bowtie.Engine, output string) error {
	frame := &lastFrame{}
	if err := e.SetPresenter(frame); err != nil {
		return err
	}
	if err := e.Start(); err != nil {
		return err
	}
	runErr := ignoreCanceled(e.Run(ctx, nil))
	e.Stop()
	if runErr != nil {
		return runErr
	}

	if frame.img == nil {
		return errors.New("no frame was presented")
	}
	f, err := os.Create(output)
	if err != nil {
		return err
	}
	if err := png.Encode(f, frame.img); err != nil {
		f.Close()
		return fmt.Errorf("encode %s: %w", output, err)
	}
	if err := f.Close(); err != nil {
		return err
	}
	bowtie.Logger().Info("frame written", "path", output, "frames", e.Frames())
	return nil
}

func ignoreCanceled(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
