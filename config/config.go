// Package config holds the engine settings read from a TOML file and
// overridden by BOWTIE_* environment variables.
package config

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"

	"github.com/gogpu/bowtie/geom"
)

type Config struct {
	Window   WindowConfig   `toml:"window" envPrefix:"WINDOW_"`
	Renderer RendererConfig `toml:"renderer" envPrefix:"RENDERER_"`
	Log      LogConfig      `toml:"log" envPrefix:"LOG_"`
}

type WindowConfig struct {
	Width  int    `toml:"width" env:"WIDTH"`
	Height int    `toml:"height" env:"HEIGHT"`
	Title  string `toml:"title" env:"TITLE"`
	FPS    int    `toml:"fps" env:"FPS"` // frames per second, 0 = unthrottled
}

type RendererConfig struct {
	Backend         string `toml:"backend" env:"BACKEND"` // "auto", "wgpu", "software" or "null"
	ChannelCapacity int    `toml:"channel_capacity" env:"CHANNEL_CAPACITY"`
	ArenaSize       int    `toml:"arena_size" env:"ARENA_SIZE"`
	ClearColor      string `toml:"clear_color" env:"CLEAR_COLOR"` // hex RRGGBB or RRGGBBAA
}

type LogConfig struct {
	Level  string `toml:"level" env:"LEVEL"`   // debug, info, warn, error
	Format string `toml:"format" env:"FORMAT"` // "text" or "json"
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		Window: WindowConfig{
			Width:  640,
			Height: 480,
			Title:  "bowtie",
			FPS:    60,
		},
		Renderer: RendererConfig{
			Backend:         "auto",
			ChannelCapacity: 1024,
			ArenaSize:       16 << 20,
			ClearColor:      "000000ff",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads the file at path over the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg := Default()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// ApplyEnv overrides cfg with BOWTIE_* environment variables, for example
// BOWTIE_WINDOW_WIDTH or BOWTIE_RENDERER_BACKEND.
func ApplyEnv(cfg *Config) error {
	if err := env.ParseWithOptions(cfg, env.Options{Prefix: "BOWTIE_"}); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return cfg.Validate()
}

// Validate checks the settings for values the engine cannot start with.
func (c *Config) Validate() error {
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		return fmt.Errorf("window size %dx%d must be positive", c.Window.Width, c.Window.Height)
	}
	if c.Window.FPS < 0 {
		return fmt.Errorf("window fps %d is negative", c.Window.FPS)
	}
	if c.Renderer.ChannelCapacity <= 0 {
		return fmt.Errorf("renderer channel_capacity %d must be positive", c.Renderer.ChannelCapacity)
	}
	if c.Renderer.ArenaSize <= 0 {
		return fmt.Errorf("renderer arena_size %d must be positive", c.Renderer.ArenaSize)
	}
	if _, err := c.Log.SlogLevel(); err != nil {
		return err
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("log format %q is not text or json", c.Log.Format)
	}
	return nil
}

// Resolution returns the window size.
func (c *Config) Resolution() geom.Size {
	return geom.Size{Width: c.Window.Width, Height: c.Window.Height}
}

// ClearColor parses the renderer clear color.
func (c *Config) ClearColor() geom.Color {
	return geom.Hex(c.Renderer.ClearColor)
}

// SlogLevel parses Level.
func (c LogConfig) SlogLevel() (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.Level)); err != nil {
		return 0, fmt.Errorf("log level %q: %w", c.Level, err)
	}
	return l, nil
}
