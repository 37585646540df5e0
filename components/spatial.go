package components

import "math"

// Vec2 is a 2D world-space vector. Used by value everywhere.
type Vec2 struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// Add returns v + o.
func (v Vec2) Add(o Vec2) Vec2 { return Vec2{v.X + o.X, v.Y + o.Y} }

// Sub returns v - o.
func (v Vec2) Sub(o Vec2) Vec2 { return Vec2{v.X - o.X, v.Y - o.Y} }

// Scale returns v * s.
func (v Vec2) Scale(s float64) Vec2 { return Vec2{v.X * s, v.Y * s} }

// LenSq returns the squared length (avoid sqrt in hot path).
func (v Vec2) LenSq() float64 { return v.X*v.X + v.Y*v.Y }

// Len returns the Euclidean length.
func (v Vec2) Len() float64 { return math.Hypot(v.X, v.Y) }

// IsZero reports whether both components are exactly zero.
func (v Vec2) IsZero() bool { return v.X == 0 && v.Y == 0 }

// Rotate returns v rotated counter-clockwise by angle radians.
func (v Vec2) Rotate(angle float64) Vec2 {
	sin, cos := math.Sincos(angle)
	return Vec2{
		X: v.X*cos - v.Y*sin,
		Y: v.X*sin + v.Y*cos,
	}
}

// WithLength returns v rescaled to length l.
// A zero vector stays zero; callers must seed a heading first.
func (v Vec2) WithLength(l float64) Vec2 {
	n := v.Len()
	if n == 0 {
		return v
	}
	return v.Scale(l / n)
}

// Rect is an axis-aligned box. Pos is the lower-left corner, y grows upward.
type Rect struct {
	Pos  Vec2 `json:"pos" yaml:"pos"`
	Size Vec2 `json:"size" yaml:"size"`
}

// MaxX returns the right edge.
func (r Rect) MaxX() float64 { return r.Pos.X + r.Size.X }

// MaxY returns the top edge.
func (r Rect) MaxY() float64 { return r.Pos.Y + r.Size.Y }

// Center returns the midpoint of the box.
func (r Rect) Center() Vec2 {
	return Vec2{r.Pos.X + r.Size.X/2, r.Pos.Y + r.Size.Y/2}
}

// Contains reports whether p lies in the box, edges included.
func (r Rect) Contains(p Vec2) bool {
	return p.X >= r.Pos.X && p.X <= r.MaxX() && p.Y >= r.Pos.Y && p.Y <= r.MaxY()
}

// ContainsStrict reports whether p lies strictly inside the box.
func (r Rect) ContainsStrict(p Vec2) bool {
	return p.X > r.Pos.X && p.X < r.MaxX() && p.Y > r.Pos.Y && p.Y < r.MaxY()
}

// Overlaps reports whether the interiors of r and o intersect.
func (r Rect) Overlaps(o Rect) bool {
	return r.Pos.X < o.MaxX() && o.Pos.X < r.MaxX() &&
		r.Pos.Y < o.MaxY() && o.Pos.Y < r.MaxY()
}

// Expand grows the box by lo on the lower edges and hi on the upper edges.
func (r Rect) Expand(lo, hi float64) Rect {
	return Rect{
		Pos:  Vec2{r.Pos.X - lo, r.Pos.Y - lo},
		Size: Vec2{r.Size.X + lo + hi, r.Size.Y + lo + hi},
	}
}

// Bounds is the world-space extent of the simulation area.
type Bounds struct {
	MinX float64 `json:"min_x" yaml:"min_x"`
	MaxX float64 `json:"max_x" yaml:"max_x"`
	MinY float64 `json:"min_y" yaml:"min_y"`
	MaxY float64 `json:"max_y" yaml:"max_y"`
}

// Width returns MaxX - MinX.
func (b Bounds) Width() float64 { return b.MaxX - b.MinX }

// Height returns MaxY - MinY.
func (b Bounds) Height() float64 { return b.MaxY - b.MinY }

// Valid reports whether the bounds enclose a non-empty area.
func (b Bounds) Valid() bool {
	return b.MaxX > b.MinX && b.MaxY > b.MinY &&
		!math.IsInf(b.Width(), 0) && !math.IsInf(b.Height(), 0)
}

// Rect returns the bounds as a Rect.
func (b Bounds) Rect() Rect {
	return Rect{Pos: Vec2{b.MinX, b.MinY}, Size: Vec2{b.Width(), b.Height()}}
}

// ContainsRect reports whether r lies fully inside the bounds.
func (b Bounds) ContainsRect(r Rect) bool {
	return r.Pos.X >= b.MinX && r.MaxX() <= b.MaxX && r.Pos.Y >= b.MinY && r.MaxY() <= b.MaxY
}
