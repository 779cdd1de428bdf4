package render

import (
	"fmt"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/bowtie/geom"
)

// Descriptor describes a resource to load or update. The variable-size
// part (shader source, pixels, vertices) travels separately as the
// command's Data.
type Descriptor interface {
	Kind() ResourceKind
}

// ShaderDesc describes a WGSL shader module; Data holds the source.
type ShaderDesc struct {
	Name          string
	VertexEntry   string
	FragmentEntry string
	UniformNames  []string
}

// TextureDesc describes a 2D texture; Data holds tightly packed rows.
type TextureDesc struct {
	Width, Height int
	Format        gputypes.TextureFormat
}

// GeometryDesc describes a vertex buffer; Data holds the vertices.
type GeometryDesc struct {
	VertexCount int
	Stride      int
}

// RenderTargetDesc describes an offscreen color target.
type RenderTargetDesc struct {
	Size geom.Size
}

// MaterialDesc binds a shader, an optional texture and uniform values.
type MaterialDesc struct {
	Shader   Handle
	Texture  Handle
	Uniforms []Uniform
}

// WorldDesc describes a render world. The world owns a render target
// sized to the current resolution.
type WorldDesc struct{}

func (ShaderDesc) Kind() ResourceKind       { return KindShader }
func (TextureDesc) Kind() ResourceKind      { return KindTexture }
func (GeometryDesc) Kind() ResourceKind     { return KindGeometry }
func (RenderTargetDesc) Kind() ResourceKind { return KindRenderTarget }
func (MaterialDesc) Kind() ResourceKind     { return KindMaterial }
func (WorldDesc) Kind() ResourceKind        { return KindWorld }

// RowBytes returns the tightly packed row size of desc.
func (d TextureDesc) RowBytes() int { return d.Width * 4 }

// UniformType is the shape of a uniform value.
type UniformType uint8

// Uniform types.
const (
	UniformFloat UniformType = iota
	UniformVec2
	UniformVec3
	UniformVec4
	UniformMat3
	UniformMat4
)

var uniformComponents = [...]int{
	UniformFloat: 1,
	UniformVec2:  2,
	UniformVec3:  3,
	UniformVec4:  4,
	UniformMat3:  9,
	UniformMat4:  16,
}

var uniformNames = [...]string{
	UniformFloat: "float",
	UniformVec2:  "vec2",
	UniformVec3:  "vec3",
	UniformVec4:  "vec4",
	UniformMat3:  "mat3",
	UniformMat4:  "mat4",
}

// Components returns the number of float32 values in t.
func (t UniformType) Components() int {
	if int(t) < len(uniformComponents) {
		return uniformComponents[t]
	}
	return 0
}

// String returns the type name used in material files.
func (t UniformType) String() string {
	if int(t) < len(uniformNames) {
		return uniformNames[t]
	}
	return fmt.Sprintf("UniformType(%d)", t)
}

// ParseUniformType maps a material-file type name to a UniformType.
func ParseUniformType(s string) (UniformType, error) {
	for i, n := range uniformNames {
		if n == s {
			return UniformType(i), nil
		}
	}
	return 0, fmt.Errorf("render: unknown uniform type %q", s)
}

// AutomaticValue names a uniform whose value the backend fills in per
// draw.
type AutomaticValue uint8

// Automatic uniform sources.
const (
	AutomaticNone AutomaticValue = iota
	AutomaticModelViewProjection
	AutomaticTime
	AutomaticViewResolution
	AutomaticResolution
)

var automaticNames = [...]string{
	AutomaticNone:                "",
	AutomaticModelViewProjection: "model_view_projection",
	AutomaticTime:                "time",
	AutomaticViewResolution:      "view_resolution",
	AutomaticResolution:          "resolution",
}

// ParseAutomaticValue maps a material-file name to an AutomaticValue. The
// empty string is AutomaticNone.
func ParseAutomaticValue(s string) (AutomaticValue, error) {
	for i, n := range automaticNames {
		if n == s {
			return AutomaticValue(i), nil
		}
	}
	return 0, fmt.Errorf("render: unknown automatic uniform %q", s)
}

// Uniform is a named shader parameter.
type Uniform struct {
	Name      string
	Type      UniformType
	Automatic AutomaticValue
	Value     []float32
}

// AutomaticUniform computes the value of an automatic uniform for a draw
// of view at resolution and time t.
func AutomaticUniform(a AutomaticValue, view geom.Rect, resolution geom.Size, t float64) []float32 {
	switch a {
	case AutomaticModelViewProjection:
		m := geom.Ortho(view)
		return m[:]
	case AutomaticTime:
		return []float32{float32(t)}
	case AutomaticViewResolution:
		return []float32{float32(view.Width()), float32(view.Height())}
	case AutomaticResolution:
		return []float32{float32(resolution.Width), float32(resolution.Height)}
	}
	return nil
}
