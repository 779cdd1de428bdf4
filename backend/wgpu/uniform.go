package wgpu

import (
	"cmp"
	"encoding/binary"
	"fmt"
	"math"
	"slices"

	"github.com/gogpu/bowtie/geom"
	"github.com/gogpu/bowtie/render"
)

// minUniformSize is the smallest uniform buffer bound for a shader that
// declares no uniforms.
const minUniformSize = 16

// uniformLayout returns the alignment and size of t in the uniform
// address space. mat3 columns are padded to vec4.
func uniformLayout(t render.UniformType) (align, size int) {
	switch t {
	case render.UniformFloat:
		return 4, 4
	case render.UniformVec2:
		return 8, 8
	case render.UniformVec3:
		return 16, 12
	case render.UniformVec4:
		return 16, 16
	case render.UniformMat3:
		return 16, 48
	case render.UniformMat4:
		return 16, 64
	}
	return 4, 0
}

// automaticType is the shape of the value AutomaticUniform returns for a.
func automaticType(a render.AutomaticValue) render.UniformType {
	switch a {
	case render.AutomaticModelViewProjection:
		return render.UniformMat4
	case render.AutomaticTime:
		return render.UniformFloat
	}
	return render.UniformVec2
}

// uniformWriter lays out values in declaration order.
type uniformWriter struct {
	buf []byte
}

func (w *uniformWriter) write(t render.UniformType, values []float32) {
	align, size := uniformLayout(t)
	if size == 0 {
		return
	}
	for len(w.buf)%align != 0 {
		w.buf = append(w.buf, 0)
	}
	start := len(w.buf)
	w.buf = append(w.buf, make([]byte, size)...)
	n := t.Components()
	for i := 0; i < n && i < len(values); i++ {
		off := i * 4
		if t == render.UniformMat3 {
			off = (i/3)*16 + (i%3)*4
		}
		binary.LittleEndian.PutUint32(w.buf[start+off:], math.Float32bits(values[i]))
	}
}

// bytes returns the buffer padded to a multiple of 16.
func (w *uniformWriter) bytes() []byte {
	for len(w.buf) < minUniformSize || len(w.buf)%16 != 0 {
		w.buf = append(w.buf, 0)
	}
	return w.buf
}

// packMaterialUniforms lays out the uniforms of m that the shader
// declares, in the order the shader declares them. Automatic uniforms are
// evaluated for view, resolution and time t.
func packMaterialUniforms(m *render.Material, view geom.Rect, resolution geom.Size, t float64) []byte {
	bound := make([]render.MaterialUniform, 0, len(m.Uniforms))
	for _, u := range m.Uniforms {
		if u.Location >= 0 {
			bound = append(bound, u)
		}
	}
	slices.SortStableFunc(bound, func(a, b render.MaterialUniform) int {
		return cmp.Compare(a.Location, b.Location)
	})
	var w uniformWriter
	for _, u := range bound {
		values := u.Value
		if u.Automatic != render.AutomaticNone {
			values = render.AutomaticUniform(u.Automatic, view, resolution, t)
		}
		w.write(u.Type, values)
	}
	return w.bytes()
}

// packAutomaticUniforms lays out every uniform of desc as an automatic
// value. It fails on a name that is not an automatic uniform.
func packAutomaticUniforms(desc render.ShaderDesc, view geom.Rect, resolution geom.Size, t float64) ([]byte, error) {
	var w uniformWriter
	for _, name := range desc.UniformNames {
		a, err := render.ParseAutomaticValue(name)
		if err != nil || a == render.AutomaticNone {
			return nil, fmt.Errorf("shader %q: uniform %q is not automatic", desc.Name, name)
		}
		w.write(automaticType(a), render.AutomaticUniform(a, view, resolution, t))
	}
	return w.bytes(), nil
}
