package systems

import (
	"errors"
	"fmt"
	"math/rand"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/pthm-cable/antsim/components"
)

// ErrInvalidGrid is returned for non-positive grid shapes.
var ErrInvalidGrid = errors.New("invalid pheromone grid shape")

// PheromoneField is a colony's two-layer trail grid.
//
// The colony layer holds deposits from seeking ants and is always <= 0.
// The food layer holds deposits from returning ants and is always >= 0.
// Both decay multiplicatively once per epoch.
type PheromoneField struct {
	rows, cols int

	colony *mat.Dense
	food   *mat.Dense

	// Scratch buffer for tie-breaking in FindBestCell
	ties []Cell
}

// NewPheromoneField creates an empty field. Shape changes replace the field.
func NewPheromoneField(rows, cols int) (*PheromoneField, error) {
	if rows <= 0 || cols <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidGrid, rows, cols)
	}
	return &PheromoneField{
		rows:   rows,
		cols:   cols,
		colony: mat.NewDense(rows, cols, nil),
		food:   mat.NewDense(rows, cols, nil),
		ties:   make([]Cell, 0, 8),
	}, nil
}

// Shape returns the grid dimensions.
func (pf *PheromoneField) Shape() (rows, cols int) {
	return pf.rows, pf.cols
}

// InGrid reports whether c addresses a cell of this field.
func (pf *PheromoneField) InGrid(c Cell) bool {
	return c.Row >= 0 && c.Row < pf.rows && c.Col >= 0 && c.Col < pf.cols
}

// Deposit adds one unit of trail at cell for an ant in the given state.
// Returning ants mark the food layer (+1), seeking ants the colony layer (-1).
func (pf *PheromoneField) Deposit(c Cell, state components.ForageState) {
	if state == components.ReturningToColony {
		pf.food.Set(c.Row, c.Col, pf.food.At(c.Row, c.Col)+1)
		return
	}
	pf.colony.Set(c.Row, c.Col, pf.colony.At(c.Row, c.Col)-1)
}

// Level returns both layer values at a cell.
func (pf *PheromoneField) Level(c Cell) (colony, food float64) {
	return pf.colony.At(c.Row, c.Col), pf.food.At(c.Row, c.Col)
}

// Decay scales both layers by factor and snaps values within zeroThreshold
// of zero to exactly zero, so floating error never flips a cell's sign.
func (pf *PheromoneField) Decay(factor, zeroThreshold float64) {
	pf.colony.Scale(factor, pf.colony)
	pf.food.Scale(factor, pf.food)

	pf.colony.Apply(func(_, _ int, v float64) float64 {
		if v > -zeroThreshold {
			return 0
		}
		return v
	}, pf.colony)
	pf.food.Apply(func(_, _ int, v float64) float64 {
		if v < zeroThreshold {
			return 0
		}
		return v
	}, pf.food)
}

// attraction returns how strongly an ant in state is drawn to cell.
// Seeking ants follow the food layer, returning ants the colony layer
// (sign-normalized to positive).
func (pf *PheromoneField) attraction(c Cell, state components.ForageState) float64 {
	if state == components.SeekingFood {
		return pf.food.At(c.Row, c.Col)
	}
	return -pf.colony.At(c.Row, c.Col)
}

// FindBestCell searches the Chebyshev box of radius cells around center,
// excluding center itself, for the most attractive cell. Ties are broken
// uniformly at random with rng. Returns false when there is no signal.
func (pf *PheromoneField) FindBestCell(center Cell, state components.ForageState, radius int, rng *rand.Rand) (Cell, bool) {
	if radius <= 0 {
		return Cell{}, false
	}

	startRow := max(0, center.Row-radius)
	endRow := min(pf.rows-1, center.Row+radius)
	startCol := max(0, center.Col-radius)
	endCol := min(pf.cols-1, center.Col+radius)

	best := 0.0
	pf.ties = pf.ties[:0]

	for r := startRow; r <= endRow; r++ {
		for c := startCol; c <= endCol; c++ {
			if r == center.Row && c == center.Col {
				continue
			}
			v := pf.attraction(Cell{r, c}, state)
			switch {
			case v > best:
				best = v
				pf.ties = append(pf.ties[:0], Cell{r, c})
			case v == best && best > 0:
				pf.ties = append(pf.ties, Cell{r, c})
			}
		}
	}

	switch len(pf.ties) {
	case 0:
		return Cell{}, false
	case 1:
		return pf.ties[0], true
	default:
		return pf.ties[rng.Intn(len(pf.ties))], true
	}
}

// Totals returns the summed magnitude of each layer.
func (pf *PheromoneField) Totals() (colonyMass, foodMass float64) {
	return -floats.Sum(pf.colony.RawMatrix().Data), floats.Sum(pf.food.RawMatrix().Data)
}

// Coverage returns the number of cells holding any trail.
func (pf *PheromoneField) Coverage() int {
	colony := pf.colony.RawMatrix().Data
	food := pf.food.RawMatrix().Data
	n := 0
	for i := range colony {
		if colony[i] != 0 || food[i] != 0 {
			n++
		}
	}
	return n
}

// FieldSnapshot is a detached copy of both layers, row-major.
type FieldSnapshot struct {
	Rows, Cols int
	Colony     []float64
	Food       []float64
}

// At returns both layer values of the snapshot at (row, col).
func (fs FieldSnapshot) At(row, col int) (colony, food float64) {
	i := row*fs.Cols + col
	return fs.Colony[i], fs.Food[i]
}

// Snapshot copies the field for visualization or inspection.
func (pf *PheromoneField) Snapshot() FieldSnapshot {
	colony := mat.DenseCopyOf(pf.colony).RawMatrix().Data
	food := mat.DenseCopyOf(pf.food).RawMatrix().Data
	return FieldSnapshot{Rows: pf.rows, Cols: pf.cols, Colony: colony, Food: food}
}

// FieldFromSnapshot rebuilds a field from a snapshot. The layers must match
// the shape and hold correctly signed values.
func FieldFromSnapshot(fs FieldSnapshot) (*PheromoneField, error) {
	pf, err := NewPheromoneField(fs.Rows, fs.Cols)
	if err != nil {
		return nil, err
	}
	n := fs.Rows * fs.Cols
	if len(fs.Colony) != n || len(fs.Food) != n {
		return nil, fmt.Errorf("%w: %dx%d grid with %d/%d values", ErrInvalidGrid, fs.Rows, fs.Cols, len(fs.Colony), len(fs.Food))
	}
	for i := 0; i < n; i++ {
		if fs.Colony[i] > 0 || fs.Food[i] < 0 {
			return nil, fmt.Errorf("%w: sign violation at index %d", ErrInvalidGrid, i)
		}
	}
	copy(pf.colony.RawMatrix().Data, fs.Colony)
	copy(pf.food.RawMatrix().Data, fs.Food)
	return pf, nil
}
