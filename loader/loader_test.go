package loader

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"slices"
	"strings"
	"testing"
	"testing/fstest"

	"golang.org/x/image/bmp"

	"github.com/gogpu/bowtie/render"
)

const spriteWGSL = `
struct Uniforms {
    view_projection: mat4x4<f32>,
    tint: vec4<f32>,
}

@group(0) @binding(0)
var<uniform> uniforms: Uniforms;

@group(0) @binding(1)
var<uniform> time: f32;

struct VertexOutput {
    @builtin(position) position: vec4<f32>,
    @location(0) color: vec4<f32>,
}

// @vertex fn commented_out() {}

@vertex
fn vs_sprite(@location(0) p: vec2<f32>) -> VertexOutput {
    var out: VertexOutput;
    out.position = uniforms.view_projection * vec4<f32>(p, 0.0, 1.0);
    out.color = uniforms.tint;
    return out;
}

@fragment
fn fs_sprite(in: VertexOutput) -> @location(0) vec4<f32> {
    return in.color;
}
`

const heroMaterial = `
shader = "shaders/sprite.wgsl"
texture = "images/hero.png"

[[uniforms]]
name = "view_projection"
type = "mat4"
automatic = "model_view_projection"

[[uniforms]]
name = "tint"
type = "vec4"
value = [1.0, 0.5, 0.5, 1.0]
`

func encodePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	img.Set(0, 0, color.NRGBA{R: 255, A: 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestDecodeImage(t *testing.T) {
	var bmpData bytes.Buffer
	if err := bmp.Encode(&bmpData, image.NewRGBA(image.Rect(0, 0, 3, 1))); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name   string
		data   []byte
		format string
		size   image.Point
	}{
		{"png", encodePNG(t, 4, 2), "png", image.Pt(4, 2)},
		{"bmp", bmpData.Bytes(), "bmp", image.Pt(3, 1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img, format, err := DecodeImage(bytes.NewReader(tt.data))
			if err != nil {
				t.Fatalf("DecodeImage: %v", err)
			}
			if format != tt.format {
				t.Errorf("format = %q, want %q", format, tt.format)
			}
			if got := img.Bounds().Size(); got != tt.size {
				t.Errorf("size = %v, want %v", got, tt.size)
			}
		})
	}

	if _, _, err := DecodeImage(strings.NewReader("not an image")); !errors.Is(err, ErrUnsupportedImage) {
		t.Errorf("garbage error = %v, want ErrUnsupportedImage", err)
	}
}

func TestParseShader(t *testing.T) {
	desc, err := ParseShader("sprite", []byte(spriteWGSL))
	if err != nil {
		t.Fatalf("ParseShader: %v", err)
	}
	if desc.Name != "sprite" || desc.VertexEntry != "vs_sprite" || desc.FragmentEntry != "fs_sprite" {
		t.Errorf("desc = %+v", desc)
	}
	want := []string{"view_projection", "tint", "time"}
	if !slices.Equal(desc.UniformNames, want) {
		t.Errorf("UniformNames = %v, want %v", desc.UniformNames, want)
	}

	tests := []struct {
		name string
		src  string
	}{
		{"no vertex", "@fragment fn fs() -> @location(0) vec4<f32> { return vec4<f32>(); }"},
		{"no fragment", "@vertex fn vs() -> @builtin(position) vec4<f32> { return vec4<f32>(); }"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseShader(tt.name, []byte(tt.src)); !errors.Is(err, ErrNoEntryPoint) {
				t.Errorf("error = %v, want ErrNoEntryPoint", err)
			}
		})
	}
}

func TestParseMaterial(t *testing.T) {
	def, err := ParseMaterial([]byte(heroMaterial))
	if err != nil {
		t.Fatalf("ParseMaterial: %v", err)
	}
	if def.Shader != "shaders/sprite.wgsl" || def.Texture != "images/hero.png" {
		t.Errorf("paths = %q, %q", def.Shader, def.Texture)
	}
	if len(def.Uniforms) != 2 {
		t.Fatalf("%d uniforms, want 2", len(def.Uniforms))
	}
	mvp, tint := def.Uniforms[0], def.Uniforms[1]
	if mvp.Type != render.UniformMat4 || mvp.Automatic != render.AutomaticModelViewProjection {
		t.Errorf("mvp = %+v", mvp)
	}
	if tint.Type != render.UniformVec4 || !slices.Equal(tint.Value, []float32{1, 0.5, 0.5, 1}) {
		t.Errorf("tint = %+v", tint)
	}
}

func TestParseMaterialErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"syntax", `shader = `},
		{"no shader", `texture = "a.png"`},
		{"unknown key", "shader = \"s.wgsl\"\ncolour = 1"},
		{"unnamed uniform", "shader = \"s.wgsl\"\n[[uniforms]]\ntype = \"float\""},
		{"duplicate", "shader = \"s.wgsl\"\n[[uniforms]]\nname = \"a\"\ntype = \"float\"\n[[uniforms]]\nname = \"a\"\ntype = \"float\""},
		{"bad type", "shader = \"s.wgsl\"\n[[uniforms]]\nname = \"a\"\ntype = \"vec5\""},
		{"bad automatic", "shader = \"s.wgsl\"\n[[uniforms]]\nname = \"a\"\ntype = \"float\"\nautomatic = \"sometimes\""},
		{"value count", "shader = \"s.wgsl\"\n[[uniforms]]\nname = \"a\"\ntype = \"vec2\"\nvalue = [1.0]"},
		{"value and automatic", "shader = \"s.wgsl\"\n[[uniforms]]\nname = \"t\"\ntype = \"float\"\nautomatic = \"time\"\nvalue = [1.0]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseMaterial([]byte(tt.src)); err == nil {
				t.Error("ParseMaterial succeeded, want error")
			}
		})
	}
}

func startRenderer(t *testing.T) (*render.Interface, *render.Renderer, *render.NullBackend) {
	t.Helper()
	b := render.NewNullBackend()
	ch := render.NewChannel(64)
	arena := render.NewArena(1 << 16)
	r := render.NewRenderer(b, ch, arena)
	if err := r.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(r.Stop)
	return render.NewInterface(ch, arena), r, b
}

func count(calls []string, prefix string) int {
	n := 0
	for _, c := range calls {
		if strings.HasPrefix(c, prefix) {
			n++
		}
	}
	return n
}

func TestStoreLoadsOnce(t *testing.T) {
	fsys := fstest.MapFS{
		"shaders/sprite.wgsl":  {Data: []byte(spriteWGSL)},
		"images/hero.png":      {Data: encodePNG(t, 4, 2)},
		"materials/hero.toml":  {Data: []byte(heroMaterial)},
		"materials/plain.toml": {Data: []byte(`shader = "shaders/sprite.wgsl"`)},
	}
	iface, r, b := startRenderer(t)
	s := NewStore(fsys, iface)

	hero, err := s.Material("materials/hero.toml")
	if err != nil {
		t.Fatalf("Material: %v", err)
	}
	again, err := s.Material("materials/hero.toml")
	if err != nil || again != hero {
		t.Fatalf("second load = %d, %v; want cached %d", again, err, hero)
	}
	if _, err := s.Material("materials/plain.toml"); err != nil {
		t.Fatalf("Material(plain): %v", err)
	}
	if s.Len() != 4 {
		t.Errorf("Len() = %d, want 4", s.Len())
	}
	iface.BeginFrame()

	calls := b.Calls()
	if n := count(calls, "CreateShader shaders/sprite.wgsl"); n != 1 {
		t.Errorf("shader created %d times, want 1", n)
	}
	if n := count(calls, "CreateTexture 4x2"); n != 1 {
		t.Errorf("texture created %d times, want 1", n)
	}
	res, ok := r.Resource(hero)
	if !ok {
		t.Fatal("material not loaded")
	}
	m := res.Object.(*render.Material)
	if !m.Shader.IsValid() || !m.Texture.IsValid() {
		t.Errorf("material shader %d texture %d", m.Shader, m.Texture)
	}
	if u := m.Uniform("tint"); u == nil || u.Location != 1 {
		t.Errorf("tint uniform = %+v, want location 1", u)
	}

	s.Unload()
	iface.BeginFrame()
	if s.Len() != 0 {
		t.Errorf("Len() after Unload = %d", s.Len())
	}
	if _, ok := r.Resource(hero); ok {
		t.Error("material still loaded after Unload")
	}
	if b.Live() != 1 { // fullscreen quad
		t.Errorf("backend holds %d resources, want only the quad", b.Live())
	}
}

func TestStoreErrors(t *testing.T) {
	fsys := fstest.MapFS{
		"bad.png":      {Data: []byte("nope")},
		"bad.wgsl":     {Data: []byte("fn main() {}")},
		"missing.toml": {Data: []byte(`shader = "gone.wgsl"`)},
		"badtex.toml":  {Data: []byte("shader = \"ok.wgsl\"\ntexture = \"bad.png\"")},
		"ok.wgsl":      {Data: []byte(spriteWGSL)},
		"invalid.toml": {Data: []byte("shader = ")},
	}
	iface, _, _ := startRenderer(t)
	s := NewStore(fsys, iface)

	if _, err := s.Texture("bad.png"); !errors.Is(err, ErrUnsupportedImage) {
		t.Errorf("Texture(bad.png) = %v, want ErrUnsupportedImage", err)
	}
	if _, err := s.Texture("none.png"); err == nil {
		t.Error("Texture of a missing file succeeded")
	}
	if _, err := s.Shader("bad.wgsl"); !errors.Is(err, ErrNoEntryPoint) {
		t.Errorf("Shader(bad.wgsl) = %v, want ErrNoEntryPoint", err)
	}
	for _, p := range []string{"missing.toml", "badtex.toml", "invalid.toml", "none.toml"} {
		if _, err := s.Material(p); err == nil {
			t.Errorf("Material(%s) succeeded", p)
		}
	}
	s.Unload()
	iface.BeginFrame()
}
