package loader

import (
	"fmt"

	"github.com/BurntSushi/toml"

	"github.com/gogpu/bowtie/render"
)

// MaterialDef is a parsed material file. Paths are relative to the root
// of the store's file system.
type MaterialDef struct {
	Shader   string
	Texture  string
	Uniforms []render.Uniform
}

type materialFile struct {
	Shader   string        `toml:"shader"`
	Texture  string        `toml:"texture"`
	Uniforms []uniformFile `toml:"uniforms"`
}

type uniformFile struct {
	Name      string    `toml:"name"`
	Type      string    `toml:"type"`
	Automatic string    `toml:"automatic"`
	Value     []float32 `toml:"value"`
}

// ParseMaterial decodes a TOML material definition.
func ParseMaterial(data []byte) (MaterialDef, error) {
	var f materialFile
	md, err := toml.Decode(string(data), &f)
	if err != nil {
		return MaterialDef{}, fmt.Errorf("loader: parse material: %w", err)
	}
	if keys := md.Undecoded(); len(keys) > 0 {
		return MaterialDef{}, fmt.Errorf("loader: parse material: unknown key %q", keys[0].String())
	}
	if f.Shader == "" {
		return MaterialDef{}, fmt.Errorf("loader: parse material: no shader")
	}

	def := MaterialDef{Shader: f.Shader, Texture: f.Texture}
	seen := make(map[string]bool, len(f.Uniforms))
	for i, u := range f.Uniforms {
		if u.Name == "" {
			return MaterialDef{}, fmt.Errorf("loader: uniform %d has no name", i)
		}
		if seen[u.Name] {
			return MaterialDef{}, fmt.Errorf("loader: uniform %q declared twice", u.Name)
		}
		seen[u.Name] = true

		typ, err := render.ParseUniformType(u.Type)
		if err != nil {
			return MaterialDef{}, fmt.Errorf("loader: uniform %q: %w", u.Name, err)
		}
		auto, err := render.ParseAutomaticValue(u.Automatic)
		if err != nil {
			return MaterialDef{}, fmt.Errorf("loader: uniform %q: %w", u.Name, err)
		}
		if auto != render.AutomaticNone && len(u.Value) > 0 {
			return MaterialDef{}, fmt.Errorf("loader: uniform %q has both a value and automatic %q", u.Name, u.Automatic)
		}
		if len(u.Value) > 0 && len(u.Value) != typ.Components() {
			return MaterialDef{}, fmt.Errorf("loader: uniform %q: %s needs %d values, got %d",
				u.Name, typ, typ.Components(), len(u.Value))
		}
		def.Uniforms = append(def.Uniforms, render.Uniform{
			Name:      u.Name,
			Type:      typ,
			Automatic: auto,
			Value:     u.Value,
		})
	}
	return def, nil
}
