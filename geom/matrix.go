package geom

import "math"

// Matrix is a 2D affine transform stored as the top two rows of a 3x3
// matrix in row-major order:
//
//	| a  b  c |
//	| d  e  f |
//
// Applying it to (x, y) yields:
//
//	x' = a*x + b*y + c
//	y' = d*x + e*y + f
type Matrix struct {
	A, B, C float64
	D, E, F float64
}

// Identity returns the identity transform.
func Identity() Matrix {
	return Matrix{
		A: 1, B: 0, C: 0,
		D: 0, E: 1, F: 0,
	}
}

// Translate returns a translation by (x, y).
func Translate(x, y float64) Matrix {
	return Matrix{
		A: 1, B: 0, C: x,
		D: 0, E: 1, F: y,
	}
}

// Scale returns a scaling transform.
func Scale(x, y float64) Matrix {
	return Matrix{
		A: x, B: 0, C: 0,
		D: 0, E: y, F: 0,
	}
}

// Rotate returns a rotation by angle radians.
func Rotate(angle float64) Matrix {
	cos := math.Cos(angle)
	sin := math.Sin(angle)
	return Matrix{
		A: cos, B: -sin, C: 0,
		D: sin, E: cos, F: 0,
	}
}

// Local builds the local transform of a node:
// T(position) * T(pivot) * R(rotation) * T(-pivot).
func Local(position Vec2, rotation float64, pivot Vec2) Matrix {
	return Translate(position.X+pivot.X, position.Y+pivot.Y).
		Multiply(Rotate(rotation)).
		Multiply(Translate(-pivot.X, -pivot.Y))
}

// Multiply returns m * other. The result applies other first.
func (m Matrix) Multiply(other Matrix) Matrix {
	return Matrix{
		A: m.A*other.A + m.B*other.D,
		B: m.A*other.B + m.B*other.E,
		C: m.A*other.C + m.B*other.F + m.C,
		D: m.D*other.A + m.E*other.D,
		E: m.D*other.B + m.E*other.E,
		F: m.D*other.C + m.E*other.F + m.F,
	}
}

// Apply transforms a point.
func (m Matrix) Apply(p Vec2) Vec2 {
	return Vec2{
		X: m.A*p.X + m.B*p.Y + m.C,
		Y: m.D*p.X + m.E*p.Y + m.F,
	}
}

// Invert returns the inverse transform, or the identity if m is singular.
func (m Matrix) Invert() Matrix {
	det := m.A*m.E - m.B*m.D
	if math.Abs(det) < 1e-10 {
		return Identity()
	}

	invDet := 1.0 / det
	return Matrix{
		A: m.E * invDet,
		B: -m.B * invDet,
		C: (m.B*m.F - m.C*m.E) * invDet,
		D: -m.D * invDet,
		E: m.A * invDet,
		F: (m.C*m.D - m.A*m.F) * invDet,
	}
}

// IsIdentity reports whether m is exactly the identity.
func (m Matrix) IsIdentity() bool {
	return m.A == 1 && m.B == 0 && m.C == 0 &&
		m.D == 0 && m.E == 1 && m.F == 0
}

// ApproxEqual reports whether every coefficient differs by at most eps.
func (m Matrix) ApproxEqual(o Matrix, eps float64) bool {
	return math.Abs(m.A-o.A) <= eps && math.Abs(m.B-o.B) <= eps && math.Abs(m.C-o.C) <= eps &&
		math.Abs(m.D-o.D) <= eps && math.Abs(m.E-o.E) <= eps && math.Abs(m.F-o.F) <= eps
}

// Ortho returns a column-major 4x4 projection that maps view onto clip
// space, with y pointing down.
func Ortho(view Rect) [16]float32 {
	w := view.Width()
	h := view.Height()
	if w == 0 || h == 0 {
		return [16]float32{1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1}
	}
	sx := 2 / w
	sy := -2 / h
	tx := -(2*view.Min.X + w) / w
	ty := (2*view.Min.Y + h) / h
	return [16]float32{
		float32(sx), 0, 0, 0,
		0, float32(sy), 0, 0,
		0, 0, 1, 0,
		float32(tx), float32(ty), 0, 1,
	}
}

// RectToRect returns the transform mapping src onto dst, or the identity
// when src is empty.
func RectToRect(src, dst Rect) Matrix {
	if src.Width() == 0 || src.Height() == 0 {
		return Identity()
	}
	sx := dst.Width() / src.Width()
	sy := dst.Height() / src.Height()
	return Translate(dst.Min.X, dst.Min.Y).
		Multiply(Scale(sx, sy)).
		Multiply(Translate(-src.Min.X, -src.Min.Y))
}
