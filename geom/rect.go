package geom

// Rect is an axis-aligned rectangle spanning [Min, Max).
type Rect struct {
	Min, Max Vec2
}

// R returns the rectangle at (x, y) with the given width and height.
func R(x, y, w, h float64) Rect {
	return Rect{Min: Vec2{X: x, Y: y}, Max: Vec2{X: x + w, Y: y + h}}
}

// Width returns Max.X - Min.X.
func (r Rect) Width() float64 { return r.Max.X - r.Min.X }

// Height returns Max.Y - Min.Y.
func (r Rect) Height() float64 { return r.Max.Y - r.Min.Y }

// Empty reports whether the rectangle has no area.
func (r Rect) Empty() bool {
	return r.Max.X <= r.Min.X || r.Max.Y <= r.Min.Y
}

// Quad is four corners in the order top-left, top-right, bottom-right,
// bottom-left.
type Quad [4]Vec2

// QuadOf transforms the corners of r by m.
func QuadOf(r Rect, m Matrix) Quad {
	return Quad{
		m.Apply(r.Min),
		m.Apply(Vec2{X: r.Max.X, Y: r.Min.Y}),
		m.Apply(r.Max),
		m.Apply(Vec2{X: r.Min.X, Y: r.Max.Y}),
	}
}

// Bounds returns the axis-aligned bounding rectangle of q.
func (q Quad) Bounds() Rect {
	b := Rect{Min: q[0], Max: q[0]}
	for _, p := range q[1:] {
		b.Min.X = min(b.Min.X, p.X)
		b.Min.Y = min(b.Min.Y, p.Y)
		b.Max.X = max(b.Max.X, p.X)
		b.Max.Y = max(b.Max.Y, p.Y)
	}
	return b
}
