package systems

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/pthm-cable/antsim/components"
)

func mustField(t *testing.T, rows, cols int) *PheromoneField {
	t.Helper()
	pf, err := NewPheromoneField(rows, cols)
	if err != nil {
		t.Fatal(err)
	}
	return pf
}

func TestNewPheromoneFieldRejectsBadShape(t *testing.T) {
	for _, shape := range [][2]int{{0, 5}, {5, 0}, {-1, 3}} {
		if _, err := NewPheromoneField(shape[0], shape[1]); !errors.Is(err, ErrInvalidGrid) {
			t.Errorf("NewPheromoneField(%d, %d) error = %v, want ErrInvalidGrid", shape[0], shape[1], err)
		}
	}
}

func TestDepositAndDecay(t *testing.T) {
	b := components.Bounds{MinX: 0, MaxX: 100, MinY: -100, MaxY: 0}
	pf := mustField(t, 10, 10)

	cell := WorldToCell(components.Vec2{X: 5, Y: -5}, b, 10, 10)
	if cell != (Cell{0, 0}) {
		t.Fatalf("WorldToCell = %+v, want {0 0}", cell)
	}

	pf.Deposit(cell, components.ReturningToColony)
	pf.Decay(0.5, 0.01)
	pf.Decay(0.5, 0.01)

	if _, food := pf.Level(cell); food != 0.25 {
		t.Fatalf("food level = %v, want 0.25", food)
	}

	// 0.25 * 0.5^5 = 0.0078 falls below the threshold
	pf.Decay(0.03125, 0.01)
	if _, food := pf.Level(cell); food != 0 {
		t.Errorf("food level = %v, want 0", food)
	}
}

func TestDepositSigns(t *testing.T) {
	pf := mustField(t, 4, 4)
	rng := rand.New(rand.NewSource(1))

	for i := 0; i < 500; i++ {
		c := Cell{rng.Intn(4), rng.Intn(4)}
		state := components.SeekingFood
		if rng.Intn(2) == 0 {
			state = components.ReturningToColony
		}
		pf.Deposit(c, state)
		if i%7 == 0 {
			pf.Decay(0.8, 0.05)
		}
	}

	fs := pf.Snapshot()
	for i := range fs.Colony {
		if fs.Colony[i] > 0 {
			t.Errorf("colony layer cell %d = %v, want <= 0", i, fs.Colony[i])
		}
		if fs.Food[i] < 0 {
			t.Errorf("food layer cell %d = %v, want >= 0", i, fs.Food[i])
		}
	}
}

func TestDecayReachesZero(t *testing.T) {
	pf := mustField(t, 1, 1)
	pf.Deposit(Cell{0, 0}, components.SeekingFood)

	// 0.9^43 > 0.01 > 0.9^44
	for i := 0; i < 43; i++ {
		pf.Decay(0.9, 0.01)
	}
	if colony, _ := pf.Level(Cell{0, 0}); colony == 0 {
		t.Fatal("colony trail vanished early")
	}
	pf.Decay(0.9, 0.01)
	if colony, _ := pf.Level(Cell{0, 0}); colony != 0 {
		t.Errorf("colony trail = %v, want exactly 0", colony)
	}
}

func TestFindBestCell(t *testing.T) {
	rng := rand.New(rand.NewSource(1))

	t.Run("no signal", func(t *testing.T) {
		pf := mustField(t, 5, 5)
		if _, ok := pf.FindBestCell(Cell{2, 2}, components.SeekingFood, 2, rng); ok {
			t.Error("found a cell in an empty field")
		}
	})

	t.Run("center excluded", func(t *testing.T) {
		pf := mustField(t, 5, 5)
		pf.Deposit(Cell{2, 2}, components.ReturningToColony)
		if _, ok := pf.FindBestCell(Cell{2, 2}, components.SeekingFood, 2, rng); ok {
			t.Error("center cell was selected")
		}
	})

	t.Run("zero radius", func(t *testing.T) {
		pf := mustField(t, 5, 5)
		pf.Deposit(Cell{2, 3}, components.ReturningToColony)
		if _, ok := pf.FindBestCell(Cell{2, 2}, components.SeekingFood, 0, rng); ok {
			t.Error("zero radius found a cell")
		}
	})

	t.Run("seeking follows food layer", func(t *testing.T) {
		pf := mustField(t, 5, 5)
		pf.Deposit(Cell{1, 1}, components.ReturningToColony)
		pf.Deposit(Cell{3, 3}, components.SeekingFood)
		pf.Deposit(Cell{3, 3}, components.SeekingFood)

		got, ok := pf.FindBestCell(Cell{2, 2}, components.SeekingFood, 1, rng)
		if !ok || got != (Cell{1, 1}) {
			t.Errorf("FindBestCell = %+v, %v; want {1 1}", got, ok)
		}
	})

	t.Run("returning follows colony layer", func(t *testing.T) {
		pf := mustField(t, 5, 5)
		pf.Deposit(Cell{1, 1}, components.ReturningToColony)
		pf.Deposit(Cell{3, 3}, components.SeekingFood)

		got, ok := pf.FindBestCell(Cell{2, 2}, components.ReturningToColony, 1, rng)
		if !ok || got != (Cell{3, 3}) {
			t.Errorf("FindBestCell = %+v, %v; want {3 3}", got, ok)
		}
	})

	t.Run("strongest wins", func(t *testing.T) {
		pf := mustField(t, 5, 5)
		pf.Deposit(Cell{0, 0}, components.ReturningToColony)
		pf.Deposit(Cell{4, 4}, components.ReturningToColony)
		pf.Deposit(Cell{4, 4}, components.ReturningToColony)

		got, ok := pf.FindBestCell(Cell{2, 2}, components.SeekingFood, 2, rng)
		if !ok || got != (Cell{4, 4}) {
			t.Errorf("FindBestCell = %+v, %v; want {4 4}", got, ok)
		}
	})

	t.Run("outside radius ignored", func(t *testing.T) {
		pf := mustField(t, 5, 5)
		pf.Deposit(Cell{4, 4}, components.ReturningToColony)
		if _, ok := pf.FindBestCell(Cell{0, 0}, components.SeekingFood, 2, rng); ok {
			t.Error("cell outside the search box was selected")
		}
	})

	t.Run("box clipped at corner", func(t *testing.T) {
		pf := mustField(t, 5, 5)
		pf.Deposit(Cell{1, 0}, components.ReturningToColony)
		got, ok := pf.FindBestCell(Cell{0, 0}, components.SeekingFood, 3, rng)
		if !ok || got != (Cell{1, 0}) {
			t.Errorf("FindBestCell = %+v, %v; want {1 0}", got, ok)
		}
	})

	t.Run("ties broken randomly", func(t *testing.T) {
		pf := mustField(t, 5, 5)
		pf.Deposit(Cell{1, 2}, components.ReturningToColony)
		pf.Deposit(Cell{3, 2}, components.ReturningToColony)

		seen := make(map[Cell]int)
		for i := 0; i < 200; i++ {
			got, ok := pf.FindBestCell(Cell{2, 2}, components.SeekingFood, 1, rng)
			if !ok {
				t.Fatal("no cell found")
			}
			seen[got]++
		}
		if len(seen) != 2 || seen[Cell{1, 2}] == 0 || seen[Cell{3, 2}] == 0 {
			t.Errorf("tie picks = %v, want both cells", seen)
		}
	})
}

func TestTotalsAndCoverage(t *testing.T) {
	pf := mustField(t, 3, 3)
	pf.Deposit(Cell{0, 0}, components.SeekingFood)
	pf.Deposit(Cell{0, 0}, components.SeekingFood)
	pf.Deposit(Cell{1, 1}, components.ReturningToColony)
	pf.Deposit(Cell{0, 0}, components.ReturningToColony)

	colonyMass, foodMass := pf.Totals()
	if colonyMass != 2 || foodMass != 2 {
		t.Errorf("Totals = %v, %v; want 2, 2", colonyMass, foodMass)
	}
	if got := pf.Coverage(); got != 2 {
		t.Errorf("Coverage = %d, want 2", got)
	}
}

func TestFieldFromSnapshot(t *testing.T) {
	pf := mustField(t, 2, 3)
	pf.Deposit(Cell{0, 1}, components.SeekingFood)
	pf.Deposit(Cell{1, 2}, components.ReturningToColony)
	pf.Decay(0.9, 0.001)

	fs := pf.Snapshot()
	restored, err := FieldFromSnapshot(fs)
	if err != nil {
		t.Fatal(err)
	}
	if rows, cols := restored.Shape(); rows != 2 || cols != 3 {
		t.Fatalf("shape = %dx%d, want 2x3", rows, cols)
	}
	for r := 0; r < 2; r++ {
		for c := 0; c < 3; c++ {
			wc, wf := fs.At(r, c)
			gc, gf := restored.Level(Cell{r, c})
			if wc != gc || wf != gf {
				t.Errorf("cell (%d,%d) = %v/%v, want %v/%v", r, c, gc, gf, wc, wf)
			}
		}
	}

	// The restored field does not alias the snapshot
	fs.Food[5] = 100
	if _, food := restored.Level(Cell{1, 2}); food == 100 {
		t.Error("restored field shares memory with the snapshot")
	}

	bad := []FieldSnapshot{
		{Rows: 0, Cols: 3},
		{Rows: 2, Cols: 3, Colony: make([]float64, 5), Food: make([]float64, 6)},
		{Rows: 1, Cols: 1, Colony: []float64{0.5}, Food: []float64{0}},
		{Rows: 1, Cols: 1, Colony: []float64{0}, Food: []float64{-0.5}},
	}
	for i, fs := range bad {
		if _, err := FieldFromSnapshot(fs); !errors.Is(err, ErrInvalidGrid) {
			t.Errorf("case %d: error = %v, want ErrInvalidGrid", i, err)
		}
	}
}
