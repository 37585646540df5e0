package systems

import (
	"math"
	"math/rand"

	"github.com/pthm-cable/antsim/components"
)

// RandomPlacement draws up to attempts random positions for a box of the
// given size inside b, pushes each out of the obstacles, and returns the
// first that stays inside b without touching any obstacle.
// Returns false when every attempt fails; callers skip and retry later.
func (d Deflection) RandomPlacement(size components.Vec2, b components.Bounds, obstacles []components.Rect, attempts int, rng *rand.Rand) (components.Rect, bool) {
	spanX := math.Max(b.Width()-size.X, 0)
	spanY := math.Max(b.Height()-size.Y, 0)

	for i := 0; i < attempts; i++ {
		r := components.Rect{
			Pos:  components.Vec2{X: b.MinX + rng.Float64()*spanX, Y: b.MinY + rng.Float64()*spanY},
			Size: size,
		}
		r = d.PushRectOut(r, obstacles)
		if b.ContainsRect(r) && !d.Blocked(r, obstacles) {
			return r, true
		}
	}
	return components.Rect{}, false
}

// RelocateFood advances a food source's relocation counter and, once it
// reaches the threshold, moves the source to a free random spot and refills
// it. Returns true when the source moved. Sources without a policy are left
// untouched; a failed placement keeps the counter at the threshold so the
// move is retried next epoch.
func (d Deflection) RelocateFood(food *components.Food, b components.Bounds, obstacles []components.Rect, attempts int, rng *rand.Rand) bool {
	if food.RelocateAfter <= 0 {
		return false
	}
	if food.RelocationCounter < food.RelocateAfter {
		food.RelocationCounter++
	}
	if food.RelocationCounter < food.RelocateAfter {
		return false
	}

	r, ok := d.RandomPlacement(food.Rect.Size, b, obstacles, attempts, rng)
	if !ok {
		return false
	}

	food.Rect = r
	food.Injected += food.StartAmount - food.Remaining
	food.Remaining = food.StartAmount
	food.RelocationCounter = 0
	food.Relocations++
	return true
}
