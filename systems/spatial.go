// Package systems provides the per-epoch simulation systems: the pheromone
// field, ant movement and foraging, and collision resolution.
package systems

import (
	"math"

	"github.com/pthm-cable/antsim/components"
)

// Cell addresses one pheromone grid cell. Row grows downward (negated y),
// Col grows with x.
type Cell struct {
	Row, Col int
}

// cellExtent returns the world size of one cell.
func cellExtent(b components.Bounds, rows, cols int) (w, h float64) {
	return b.Width() / float64(cols), b.Height() / float64(rows)
}

// WorldToCell maps a world position to the grid cell containing it.
// Positions outside the bounds are clipped to the edge cells.
func WorldToCell(pos components.Vec2, b components.Bounds, rows, cols int) Cell {
	w, h := cellExtent(b, rows, cols)

	col := int(math.Floor((pos.X - b.MinX) / w))
	row := int(math.Floor((b.MaxY - pos.Y) / h))

	// Clamp to valid range
	return Cell{Row: clampInt(row, 0, rows-1), Col: clampInt(col, 0, cols-1)}
}

// CellCenter returns the world position of a cell's center.
// WorldToCell(CellCenter(c)) == c for every valid cell.
func CellCenter(c Cell, b components.Bounds, rows, cols int) components.Vec2 {
	w, h := cellExtent(b, rows, cols)
	return components.Vec2{
		X: b.MinX + (float64(c.Col)+0.5)*w,
		Y: b.MaxY - (float64(c.Row)+0.5)*h,
	}
}

// GridShapeFor derives a grid shape from a cell size, one cell minimum per axis.
func GridShapeFor(b components.Bounds, cellSize float64) (rows, cols int) {
	rows = int(b.Height() / cellSize)
	cols = int(b.Width() / cellSize)
	return max(rows, 1), max(cols, 1)
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
