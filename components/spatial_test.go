package components

import (
	"math"
	"testing"
)

func TestVec2Rotate(t *testing.T) {
	tests := []struct {
		name  string
		v     Vec2
		angle float64
		want  Vec2
	}{
		{"quarter turn", Vec2{1, 0}, math.Pi / 2, Vec2{0, 1}},
		{"half turn", Vec2{2, 1}, math.Pi, Vec2{-2, -1}},
		{"clockwise", Vec2{0, 3}, -math.Pi / 2, Vec2{3, 0}},
		{"no turn", Vec2{4, -2}, 0, Vec2{4, -2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.v.Rotate(tt.angle)
			if got.Sub(tt.want).Len() > 1e-12 {
				t.Errorf("Rotate = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestVec2WithLength(t *testing.T) {
	got := Vec2{3, 4}.WithLength(10)
	if got != (Vec2{6, 8}) {
		t.Errorf("WithLength = %+v, want {6 8}", got)
	}
	if z := (Vec2{}).WithLength(5); !z.IsZero() {
		t.Errorf("zero vector became %+v", z)
	}
}

func TestRectGeometry(t *testing.T) {
	r := Rect{Pos: Vec2{0, 0}, Size: Vec2{10, 20}}

	if c := r.Center(); c != (Vec2{5, 10}) {
		t.Errorf("Center = %+v", c)
	}
	if !r.Contains(Vec2{10, 20}) || r.ContainsStrict(Vec2{10, 20}) {
		t.Error("edge point: Contains should be inclusive, ContainsStrict exclusive")
	}
	if !r.ContainsStrict(Vec2{5, 5}) {
		t.Error("interior point not strictly contained")
	}

	overlapTests := []struct {
		name string
		o    Rect
		want bool
	}{
		{"disjoint", Rect{Vec2{20, 0}, Vec2{5, 5}}, false},
		{"touching edge", Rect{Vec2{10, 0}, Vec2{5, 5}}, false},
		{"overlapping", Rect{Vec2{9, 19}, Vec2{5, 5}}, true},
		{"contained", Rect{Vec2{2, 2}, Vec2{1, 1}}, true},
	}
	for _, tt := range overlapTests {
		t.Run(tt.name, func(t *testing.T) {
			if got := r.Overlaps(tt.o); got != tt.want {
				t.Errorf("Overlaps = %v, want %v", got, tt.want)
			}
			if got := tt.o.Overlaps(r); got != tt.want {
				t.Errorf("Overlaps not symmetric")
			}
		})
	}

	e := r.Expand(5, 0)
	if e.Pos != (Vec2{-5, -5}) || e.MaxX() != 10 || e.MaxY() != 20 {
		t.Errorf("Expand(5, 0) = %+v", e)
	}
}

func TestBounds(t *testing.T) {
	b := Bounds{MinX: 0, MaxX: 720, MinY: -480, MaxY: 0}

	if !b.Valid() || b.Width() != 720 || b.Height() != 480 {
		t.Errorf("bounds %+v: valid %v width %v height %v", b, b.Valid(), b.Width(), b.Height())
	}
	if r := b.Rect(); r.Pos != (Vec2{0, -480}) || r.Size != (Vec2{720, 480}) {
		t.Errorf("Rect = %+v", r)
	}
	if !b.ContainsRect(Rect{Vec2{0, -100}, Vec2{720, 100}}) {
		t.Error("edge-aligned rect should be contained")
	}
	if b.ContainsRect(Rect{Vec2{650, -100}, Vec2{100, 50}}) {
		t.Error("rect past max x should not be contained")
	}

	invalid := []Bounds{
		{MinX: 0, MaxX: 0, MinY: -1, MaxY: 0},
		{MinX: 0, MaxX: 10, MinY: 5, MaxY: 5},
		{MinX: 10, MaxX: 0, MinY: 0, MaxY: 10},
		{MinX: math.Inf(-1), MaxX: 0, MinY: 0, MaxY: 10},
	}
	for _, ib := range invalid {
		if ib.Valid() {
			t.Errorf("%+v reported valid", ib)
		}
	}
}

func TestForageState(t *testing.T) {
	if SeekingFood.Sign() != -1 || ReturningToColony.Sign() != 1 {
		t.Error("unexpected state signs")
	}
	if SeekingFood.String() != "seeking" || ReturningToColony.String() != "returning" {
		t.Error("unexpected state names")
	}
}
