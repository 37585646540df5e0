package systems

import (
	"math"
	"math/rand"

	"github.com/pthm-cable/antsim/components"
)

// MaxTurn is the largest random heading change per move (radians).
const MaxTurn = math.Pi / 4

// Proximity describes a target-specific "near" test: the target point is
// the entity position shifted by (Offset, Offset), reached within Radius.
type Proximity struct {
	Offset float64
	Radius float64
}

// IsNear reports whether pos is within radius of target + (offset, offset).
func IsNear(pos, target components.Vec2, offset, radius float64) bool {
	d := pos.Sub(target.Add(components.Vec2{X: offset, Y: offset}))
	return d.LenSq() <= radius*radius
}

// Near applies the proximity test to pos and target.
func (p Proximity) Near(pos, target components.Vec2) bool {
	return IsNear(pos, target, p.Offset, p.Radius)
}

// MoveAnt advances the ant's heading and returns the proposed position.
// The ant's Position is not changed; the caller commits it after collision
// and bounds resolution.
//
// The heading turns by a uniform angle in [-MaxTurn, MaxTurn], is blended
// with bias*PheromoneInfluence when hasBias, and is rescaled to StepSize.
func MoveAnt(ant *components.Ant, bias components.Vec2, hasBias bool, rng *rand.Rand) components.Vec2 {
	// First move (or degenerate heading): seed a random direction
	if ant.Epochs == 0 || ant.Direction.IsZero() {
		angle := rng.Float64() * 2 * math.Pi
		ant.Direction = components.Vec2{X: math.Cos(angle), Y: math.Sin(angle)}.Scale(ant.StepSize)
	}

	turn := (rng.Float64()*2 - 1) * MaxTurn
	dir := ant.Direction.Rotate(turn)

	if hasBias {
		blended := dir.Add(bias.Scale(ant.PheromoneInfluence))
		// Bias exactly cancelling the heading keeps the rotated heading
		if !blended.IsZero() {
			dir = blended
		}
	}

	ant.Direction = dir.WithLength(ant.StepSize)
	ant.Epochs++

	return ant.Position.Add(ant.Direction)
}

// TryPickup loads food onto a seeking ant standing near the source.
// Returns the amount taken; zero means no transition happened.
func TryPickup(ant *components.Ant, food *components.Food, near Proximity) float64 {
	if ant.State != components.SeekingFood || food.Remaining <= 0 {
		return 0
	}
	if !near.Near(ant.Position, food.Rect.Pos) {
		return 0
	}

	taken := math.Min(food.Remaining, ant.Capacity)
	if taken <= 0 {
		// Zero-capacity ants can never pick up
		return 0
	}

	food.Remaining -= taken
	ant.Carried = taken
	ant.State = components.ReturningToColony
	return taken
}

// TryDrop unloads a returning ant standing near its colony.
// Returns the amount delivered and whether the transition happened.
func TryDrop(ant *components.Ant, colony *components.Colony, near Proximity) (float64, bool) {
	if ant.State != components.ReturningToColony {
		return 0, false
	}
	if !near.Near(ant.Position, colony.Rect.Pos) {
		return 0, false
	}

	delivered := ant.Carried
	colony.Delivered += delivered
	ant.Carried = 0
	ant.State = components.SeekingFood
	return delivered, true
}
