package systems

import (
	"math"

	"github.com/pthm-cable/antsim/components"
)

// Deflection configures how positions are pushed out of obstacles.
// Margin widens each obstacle's box on its lower edges; Gap is how far past
// the edge a pushed position lands. When Bounds is valid, pushes only land
// on edges that keep the result inside it; zero Bounds leaves them
// unconstrained.
type Deflection struct {
	Margin float64
	Gap    float64
	Bounds components.Bounds
}

// hitBox returns the obstacle box ants collide with.
func (d Deflection) hitBox(r components.Rect) components.Rect {
	return r.Expand(d.Margin, 0)
}

// pushCandidate is one way out of a hit box: the penetration depth and the
// offset that clears the edge.
type pushCandidate struct {
	depth float64
	shift components.Vec2
}

// exits lists the four ways out of box for a span [lo, hi] on each axis,
// in tie-break order: low y, high y, low x, high x.
func (d Deflection) exits(lo, hi components.Vec2, box components.Rect) [4]pushCandidate {
	return [4]pushCandidate{
		{math.Abs(hi.Y - box.Pos.Y), components.Vec2{Y: box.Pos.Y - d.Gap - hi.Y}},
		{math.Abs(box.MaxY() - lo.Y), components.Vec2{Y: box.MaxY() + d.Gap - lo.Y}},
		{math.Abs(hi.X - box.Pos.X), components.Vec2{X: box.Pos.X - d.Gap - hi.X}},
		{math.Abs(box.MaxX() - lo.X), components.Vec2{X: box.MaxX() + d.Gap - lo.X}},
	}
}

// pickExit returns the shallowest exit accepted by fits, earlier exits
// winning ties. When no exit fits, the shallowest overall is used.
func pickExit(exits [4]pushCandidate, fits func(components.Vec2) bool) components.Vec2 {
	best, fallback := -1, 0
	for i, c := range exits {
		if c.depth < exits[fallback].depth {
			fallback = i
		}
		if fits(c.shift) && (best < 0 || c.depth < exits[best].depth) {
			best = i
		}
	}
	if best < 0 {
		best = fallback
	}
	return exits[best].shift
}

// pushPoint moves p just outside box along the axis of minimum penetration.
// Ties go to the y axis, and on an axis to the lower edge. Exits that leave
// the bounds are skipped.
func (d Deflection) pushPoint(p components.Vec2, box components.Rect) components.Vec2 {
	shift := pickExit(d.exits(p, p, box), func(shift components.Vec2) bool {
		return d.pointFits(p.Add(shift))
	})
	return p.Add(shift)
}

// pointFits reports whether ClampToBounds leaves p where it is.
func (d Deflection) pointFits(p components.Vec2) bool {
	return !d.Bounds.Valid() || ClampToBounds(p, d.Bounds) == p
}

// ResolveObstacles pushes pos out of every obstacle hit box containing it.
// A push can land inside an obstacle checked earlier, so passes repeat until
// clean, bounded by the obstacle count.
func (d Deflection) ResolveObstacles(pos components.Vec2, obstacles []components.Rect) components.Vec2 {
	for pass := 0; pass <= len(obstacles); pass++ {
		moved := false
		for _, o := range obstacles {
			box := d.hitBox(o)
			if box.Contains(pos) {
				pos = d.pushPoint(pos, box)
				moved = true
			}
		}
		if !moved {
			break
		}
	}
	return pos
}

// Settle resolves obstacles, then clamps to the bounds. A clamp that lands
// back inside a hit box is resolved once more.
func (d Deflection) Settle(pos components.Vec2, obstacles []components.Rect) components.Vec2 {
	pos = d.ResolveObstacles(pos, obstacles)
	if !d.Bounds.Valid() {
		return pos
	}
	clamped := ClampToBounds(pos, d.Bounds)
	if clamped == pos {
		return pos
	}
	return ClampToBounds(d.ResolveObstacles(clamped, obstacles), d.Bounds)
}

// PushRectOut moves r out of every obstacle hit box it overlaps using the
// same minimum-penetration rule as ResolveObstacles. Exits that would take
// a rect lying inside the bounds out of them are skipped.
func (d Deflection) PushRectOut(r components.Rect, obstacles []components.Rect) components.Rect {
	keepInside := d.Bounds.Valid() && d.Bounds.ContainsRect(r)
	fits := func(shift components.Vec2) bool {
		return !keepInside || d.Bounds.ContainsRect(components.Rect{Pos: r.Pos.Add(shift), Size: r.Size})
	}

	for pass := 0; pass <= len(obstacles); pass++ {
		moved := false
		for _, o := range obstacles {
			box := d.hitBox(o)
			if !r.Overlaps(box) {
				continue
			}
			hi := components.Vec2{X: r.MaxX(), Y: r.MaxY()}
			r.Pos = r.Pos.Add(pickExit(d.exits(r.Pos, hi, box), fits))
			moved = true
		}
		if !moved {
			break
		}
	}
	return r
}

// Blocked reports whether r overlaps any obstacle hit box.
func (d Deflection) Blocked(r components.Rect, obstacles []components.Rect) bool {
	for _, o := range obstacles {
		if r.Overlaps(d.hitBox(o)) {
			return true
		}
	}
	return false
}

// ClampToBounds keeps pos inside the world with a one-unit inward bias:
// x<min→min, x>=max→max-1, y<=min→min+1, y>max→max.
func ClampToBounds(pos components.Vec2, b components.Bounds) components.Vec2 {
	if pos.X < b.MinX {
		pos.X = b.MinX
	} else if pos.X >= b.MaxX {
		pos.X = b.MaxX - 1
	}
	if pos.Y <= b.MinY {
		pos.Y = b.MinY + 1
	} else if pos.Y > b.MaxY {
		pos.Y = b.MaxY
	}
	return pos
}
