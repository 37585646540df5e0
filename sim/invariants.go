package sim

import (
	"fmt"

	"github.com/pthm-cable/antsim/components"
)

// checkInvariants scans every entity and field for states no sequence of
// valid epochs can produce. A non-nil result is a bug in the simulation.
func (s *Simulation) checkInvariants() error {
	var err error

	ants := s.antFilter.Query()
	for ants.Next() {
		a := ants.Get()
		if err != nil {
			continue // drain the query
		}
		switch {
		case a.Carried < 0:
			err = fmt.Errorf("ant %v carries negative amount %v", ants.Entity(), a.Carried)
		case a.State == components.SeekingFood && a.Carried != 0:
			err = fmt.Errorf("seeking ant %v carries %v", ants.Entity(), a.Carried)
		case a.Carried > a.Capacity:
			err = fmt.Errorf("ant %v carries %v above capacity %v", ants.Entity(), a.Carried, a.Capacity)
		case !s.bounds.Rect().Contains(a.Position):
			err = fmt.Errorf("ant %v at %+v outside bounds", ants.Entity(), a.Position)
		default:
			for _, o := range s.obstacleRects {
				if o.ContainsStrict(a.Position) {
					err = fmt.Errorf("ant %v at %+v inside obstacle %+v", ants.Entity(), a.Position, o)
					break
				}
			}
		}
	}
	if err != nil {
		return err
	}

	foods := s.foodFilter.Query()
	for foods.Next() {
		f := foods.Get()
		if err != nil {
			continue
		}
		if f.Remaining < 0 || f.Remaining > f.StartAmount {
			err = fmt.Errorf("food %v remaining %v outside [0, %v]", foods.Entity(), f.Remaining, f.StartAmount)
		}
	}
	if err != nil {
		return err
	}

	for _, ce := range s.colonies {
		if d := s.colonyMap.Get(ce).Delivered; d < 0 {
			return fmt.Errorf("colony %v delivered negative amount %v", ce, d)
		}
		fs := s.fields[ce].Snapshot()
		for i := range fs.Colony {
			if fs.Colony[i] > 0 || fs.Food[i] < 0 {
				return fmt.Errorf("colony %v pheromone sign violation at cell %d", ce, i)
			}
		}
	}

	return nil
}
