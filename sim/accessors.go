package sim

import (
	"math"
	"slices"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/antsim/components"
	"github.com/pthm-cable/antsim/systems"
)

// AntView is a read-only copy of one ant's visible state.
type AntView struct {
	Position  components.Vec2
	Direction components.Vec2
	State     components.ForageState
	Carried   float64
}

// Colonies returns the colony entities in insertion order.
func (s *Simulation) Colonies() []ecs.Entity {
	return slices.Clone(s.colonies)
}

// Foods returns the food entities in insertion order.
func (s *Simulation) Foods() []ecs.Entity {
	return slices.Clone(s.foods)
}

// Obstacles returns the obstacle entities in insertion order.
func (s *Simulation) Obstacles() []ecs.Entity {
	return slices.Clone(s.obstacles)
}

// Colony returns a copy of a colony.
func (s *Simulation) Colony(id ecs.Entity) (components.Colony, error) {
	if _, err := s.indexOf(s.colonies, id, "colony"); err != nil {
		return components.Colony{}, err
	}
	return *s.colonyMap.Get(id), nil
}

// Food returns a copy of a food source.
func (s *Simulation) Food(id ecs.Entity) (components.Food, error) {
	if _, err := s.indexOf(s.foods, id, "food"); err != nil {
		return components.Food{}, err
	}
	return *s.foodMap.Get(id), nil
}

// Obstacle returns a copy of an obstacle.
func (s *Simulation) Obstacle(id ecs.Entity) (components.Obstacle, error) {
	if _, err := s.indexOf(s.obstacles, id, "obstacle"); err != nil {
		return components.Obstacle{}, err
	}
	return *s.obstacleMap.Get(id), nil
}

// Ants returns the state of a colony's ants in insertion order.
func (s *Simulation) Ants(colony ecs.Entity) ([]AntView, error) {
	if _, err := s.indexOf(s.colonies, colony, "colony"); err != nil {
		return nil, err
	}
	views := make([]AntView, 0, len(s.ants[colony]))
	for _, ae := range s.ants[colony] {
		a := s.antMap.Get(ae)
		views = append(views, AntView{
			Position:  a.Position,
			Direction: a.Direction,
			State:     a.State,
			Carried:   a.Carried,
		})
	}
	return views, nil
}

// Field returns a copy of a colony's pheromone grid.
func (s *Simulation) Field(colony ecs.Entity) (systems.FieldSnapshot, error) {
	if _, err := s.indexOf(s.colonies, colony, "colony"); err != nil {
		return systems.FieldSnapshot{}, err
	}
	return s.fields[colony].Snapshot(), nil
}

// Ledger accounts for every unit of food that entered the world.
//
// Supplied counts initial amounts plus relocation refills. Withdrawn counts
// food that left with removed entities. Nothing is created or destroyed:
// Supplied == Remaining + Delivered + Carried + Withdrawn.
type Ledger struct {
	Supplied  float64
	Remaining float64
	Delivered float64
	Carried   float64
	Withdrawn float64
}

// Imbalance returns Supplied minus everything accounted for.
func (l Ledger) Imbalance() float64 {
	return l.Supplied - (l.Remaining + l.Delivered + l.Carried + l.Withdrawn)
}

// Balanced reports whether the ledger closes within tol.
func (l Ledger) Balanced(tol float64) bool {
	return math.Abs(l.Imbalance()) <= tol
}

// Ledger totals the food held by every entity.
func (s *Simulation) Ledger() Ledger {
	l := Ledger{Supplied: s.supplied, Withdrawn: s.withdrawn}

	foods := s.foodFilter.Query()
	for foods.Next() {
		l.Remaining += foods.Get().Remaining
	}

	colonies := s.colonyFilter.Query()
	for colonies.Next() {
		l.Delivered += colonies.Get().Delivered
	}

	ants := s.antFilter.Query()
	for ants.Next() {
		l.Carried += ants.Get().Carried
	}

	return l
}
