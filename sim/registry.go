package sim

import (
	"fmt"
	"slices"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/antsim/components"
	"github.com/pthm-cable/antsim/config"
	"github.com/pthm-cable/antsim/systems"
)

// scatterAttempts is the number of random spots tried per scattered obstacle.
const scatterAttempts = 50

// ColonySpec describes a colony to add.
type ColonySpec struct {
	Pos  components.Vec2
	Size components.Vec2
	Ants int

	Params components.AntParams

	DecayFactor   float64 // in (0,1]
	ZeroThreshold float64
	Rows, Cols    int // pheromone grid shape

	Color [4]float64 // opaque to the simulation
}

// FoodSpec describes a food source to add.
type FoodSpec struct {
	Pos           components.Vec2
	Size          components.Vec2
	Amount        float64
	RelocateAfter int // 0 = never
}

// ObstacleSpec describes an obstacle to add.
type ObstacleSpec struct {
	Pos  components.Vec2
	Size components.Vec2
}

// DefaultColonySpec returns a colony at pos with every other field taken
// from the configuration.
func (s *Simulation) DefaultColonySpec(pos components.Vec2) ColonySpec {
	rows, cols := s.gridShape()
	return ColonySpec{
		Pos:  pos,
		Size: s.cfg.Colony.Size,
		Ants: s.cfg.Colony.Ants,
		Params: components.AntParams{
			StepSize:           s.cfg.Ant.StepSize,
			Capacity:           s.cfg.Ant.Capacity,
			SearchRadius:       s.cfg.Ant.SearchRadius,
			PheromoneInfluence: s.cfg.Ant.PheromoneInfluence,
		},
		DecayFactor:   s.cfg.Pheromone.ReducingFactor,
		ZeroThreshold: s.cfg.Pheromone.ZeroThreshold,
		Rows:          rows,
		Cols:          cols,
		Color:         [4]float64{0, 0, 0, 1},
	}
}

// DefaultFoodSpec returns a food source at pos with every other field taken
// from the configuration.
func (s *Simulation) DefaultFoodSpec(pos components.Vec2) FoodSpec {
	return FoodSpec{
		Pos:           pos,
		Size:          s.cfg.Food.Size,
		Amount:        s.cfg.Food.Amount,
		RelocateAfter: s.cfg.Food.RelocateAfter,
	}
}

func (spec ColonySpec) validate() error {
	switch {
	case spec.Size.X < 0 || spec.Size.Y < 0:
		return fmt.Errorf("%w: colony size %+v", ErrInvalidConfig, spec.Size)
	case spec.Ants < 0:
		return fmt.Errorf("%w: colony ant count %d", ErrInvalidConfig, spec.Ants)
	case spec.Params.StepSize <= 0:
		return fmt.Errorf("%w: step size %v must be positive", ErrInvalidConfig, spec.Params.StepSize)
	case spec.Params.Capacity < 0:
		return fmt.Errorf("%w: capacity %v", ErrInvalidConfig, spec.Params.Capacity)
	case spec.Params.SearchRadius < 0:
		return fmt.Errorf("%w: search radius %d", ErrInvalidConfig, spec.Params.SearchRadius)
	case spec.Params.PheromoneInfluence < 0:
		return fmt.Errorf("%w: pheromone influence %v", ErrInvalidConfig, spec.Params.PheromoneInfluence)
	case spec.DecayFactor <= 0 || spec.DecayFactor > 1:
		return fmt.Errorf("%w: decay factor %v outside (0,1]", ErrInvalidConfig, spec.DecayFactor)
	case spec.ZeroThreshold < 0:
		return fmt.Errorf("%w: zero threshold %v", ErrInvalidConfig, spec.ZeroThreshold)
	case spec.Rows <= 0 || spec.Cols <= 0:
		return fmt.Errorf("%w: grid shape %dx%d", ErrInvalidConfig, spec.Rows, spec.Cols)
	}
	return nil
}

func (spec FoodSpec) validate() error {
	switch {
	case spec.Size.X < 0 || spec.Size.Y < 0:
		return fmt.Errorf("%w: food size %+v", ErrInvalidConfig, spec.Size)
	case spec.Amount < 0:
		return fmt.Errorf("%w: food amount %v", ErrInvalidConfig, spec.Amount)
	case spec.RelocateAfter < 0:
		return fmt.Errorf("%w: relocate after %d", ErrInvalidConfig, spec.RelocateAfter)
	}
	return nil
}

func (spec ObstacleSpec) validate() error {
	if spec.Size.X < 0 || spec.Size.Y < 0 {
		return fmt.Errorf("%w: obstacle size %+v", ErrInvalidConfig, spec.Size)
	}
	return nil
}

// AddColony validates spec, moves it clear of existing obstacles, and
// creates the colony with its ants and an empty pheromone field.
func (s *Simulation) AddColony(spec ColonySpec) (ecs.Entity, error) {
	if err := spec.validate(); err != nil {
		return ecs.Entity{}, err
	}
	field, err := systems.NewPheromoneField(spec.Rows, spec.Cols)
	if err != nil {
		return ecs.Entity{}, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	rect := s.placeClear("colony", components.Rect{Pos: spec.Pos, Size: spec.Size})
	colony := components.Colony{
		Rect:          rect,
		Color:         spec.Color,
		Ants:          spec.Params,
		DecayFactor:   spec.DecayFactor,
		ZeroThreshold: spec.ZeroThreshold,
	}

	e := s.colonyMap.NewEntity(&colony)
	s.colonies = append(s.colonies, e)
	s.fields[e] = field
	s.spawnAnts(e, spec.Ants)

	s.logger.Debug("colony added",
		"colony", e.ID(),
		"x", rect.Pos.X, "y", rect.Pos.Y,
		"ants", spec.Ants,
		"grid_rows", spec.Rows, "grid_cols", spec.Cols,
	)
	return e, nil
}

// spawnAnts creates count seeking ants at the colony's center.
func (s *Simulation) spawnAnts(colonyEntity ecs.Entity, count int) {
	colony := s.colonyMap.Get(colonyEntity)
	start := colony.Rect.Center()
	params := colony.Ants

	ants := make([]ecs.Entity, 0, count)
	for i := 0; i < count; i++ {
		ant := components.NewAnt(start, params)
		ants = append(ants, s.antMap.NewEntity(&ant))
	}
	s.ants[colonyEntity] = ants

	// Re-fetch: creating entities may move component storage
	s.colonyMap.Get(colonyEntity).AntCount = count
}

// AddFood validates spec, moves it clear of existing obstacles, and creates
// a full food source.
func (s *Simulation) AddFood(spec FoodSpec) (ecs.Entity, error) {
	if err := spec.validate(); err != nil {
		return ecs.Entity{}, err
	}

	rect := s.placeClear("food", components.Rect{Pos: spec.Pos, Size: spec.Size})
	food := components.Food{
		Rect:          rect,
		Remaining:     spec.Amount,
		StartAmount:   spec.Amount,
		RelocateAfter: spec.RelocateAfter,
	}

	e := s.foodMap.NewEntity(&food)
	s.foods = append(s.foods, e)
	s.supplied += spec.Amount

	s.logger.Debug("food added", "food", e.ID(), "x", rect.Pos.X, "y", rect.Pos.Y, "amount", spec.Amount)
	return e, nil
}

// AddObstacle validates spec, moves it clear of existing obstacles, and
// creates it. Entities already in the world are not moved.
func (s *Simulation) AddObstacle(spec ObstacleSpec) (ecs.Entity, error) {
	if err := spec.validate(); err != nil {
		return ecs.Entity{}, err
	}

	rect := s.placeClear("obstacle", components.Rect{Pos: spec.Pos, Size: spec.Size})
	e := s.obstacleMap.NewEntity(&components.Obstacle{Rect: rect})
	s.obstacles = append(s.obstacles, e)
	s.rebuildObstacleRects()

	s.logger.Debug("obstacle added", "obstacle", e.ID(), "x", rect.Pos.X, "y", rect.Pos.Y)
	return e, nil
}

// placeClear pushes r out of the obstacles. A result that ends up outside
// the world or still blocked is kept but logged.
func (s *Simulation) placeClear(kind string, r components.Rect) components.Rect {
	pushed := s.deflect.PushRectOut(r, s.obstacleRects)
	if !s.bounds.ContainsRect(pushed) || s.deflect.Blocked(pushed, s.obstacleRects) {
		s.logger.Warn("placement not clear of obstacles and bounds",
			"kind", kind,
			"requested_x", r.Pos.X, "requested_y", r.Pos.Y,
			"x", pushed.Pos.X, "y", pushed.Pos.Y,
		)
	}
	return pushed
}

// ScatterObstacles places up to n obstacles of the given size at random
// spots that overlap no existing obstacle, colony or food source.
// Returns the number placed.
func (s *Simulation) ScatterObstacles(n int, size components.Vec2) int {
	if n <= 0 || size.X < 0 || size.Y < 0 {
		return 0
	}

	blockers := make([]components.Rect, 0, len(s.obstacles)+len(s.colonies)+len(s.foods)+n)
	blockers = append(blockers, s.obstacleRects...)
	for _, e := range s.colonies {
		blockers = append(blockers, s.colonyMap.Get(e).Rect)
	}
	for _, e := range s.foods {
		blockers = append(blockers, s.foodMap.Get(e).Rect)
	}

	placed := 0
	for i := 0; i < n; i++ {
		rect, ok := s.deflect.RandomPlacement(size, s.bounds, blockers, scatterAttempts, s.rng)
		if !ok {
			continue
		}
		e := s.obstacleMap.NewEntity(&components.Obstacle{Rect: rect})
		s.obstacles = append(s.obstacles, e)
		blockers = append(blockers, rect)
		placed++
	}
	s.rebuildObstacleRects()

	s.logger.Debug("obstacles scattered", "requested", n, "placed", placed)
	return placed
}

func (s *Simulation) rebuildObstacleRects() {
	s.obstacleRects = s.obstacleRects[:0]
	for _, e := range s.obstacles {
		s.obstacleRects = append(s.obstacleRects, s.obstacleMap.Get(e).Rect)
	}
}

// RemoveColony deletes a colony with its ants and pheromone field.
// Food it holds (delivered or carried) leaves the conservation ledger.
func (s *Simulation) RemoveColony(id ecs.Entity) error {
	i, err := s.indexOf(s.colonies, id, "colony")
	if err != nil {
		return err
	}

	s.withdrawn += s.colonyMap.Get(id).Delivered
	s.discardAnts(id)
	delete(s.ants, id)
	delete(s.fields, id)
	s.collector.ForgetColony(id.ID())
	s.world.RemoveEntity(id)
	s.colonies = slices.Delete(s.colonies, i, i+1)

	s.logger.Debug("colony removed", "colony", id.ID())
	return nil
}

// RemoveFood deletes a food source. Its remaining amount leaves the
// conservation ledger.
func (s *Simulation) RemoveFood(id ecs.Entity) error {
	i, err := s.indexOf(s.foods, id, "food")
	if err != nil {
		return err
	}

	s.withdrawn += s.foodMap.Get(id).Remaining
	s.world.RemoveEntity(id)
	s.foods = slices.Delete(s.foods, i, i+1)

	s.logger.Debug("food removed", "food", id.ID())
	return nil
}

// RemoveObstacle deletes an obstacle.
func (s *Simulation) RemoveObstacle(id ecs.Entity) error {
	i, err := s.indexOf(s.obstacles, id, "obstacle")
	if err != nil {
		return err
	}

	s.world.RemoveEntity(id)
	s.obstacles = slices.Delete(s.obstacles, i, i+1)
	s.rebuildObstacleRects()

	s.logger.Debug("obstacle removed", "obstacle", id.ID())
	return nil
}

// ReseedColony discards every ant of a colony and spawns count fresh ones
// at its center. Carried food leaves the conservation ledger.
func (s *Simulation) ReseedColony(id ecs.Entity, count int) error {
	if _, err := s.indexOf(s.colonies, id, "colony"); err != nil {
		return err
	}
	if count < 0 {
		return fmt.Errorf("%w: colony ant count %d", ErrInvalidConfig, count)
	}

	s.discardAnts(id)
	s.spawnAnts(id, count)

	s.logger.Debug("colony reseeded", "colony", id.ID(), "ants", count)
	return nil
}

// SetGridShape replaces a colony's pheromone field with an empty one of
// the given shape.
func (s *Simulation) SetGridShape(id ecs.Entity, rows, cols int) error {
	if _, err := s.indexOf(s.colonies, id, "colony"); err != nil {
		return err
	}
	field, err := systems.NewPheromoneField(rows, cols)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	s.fields[id] = field

	s.logger.Debug("colony grid replaced", "colony", id.ID(), "rows", rows, "cols", cols)
	return nil
}

// discardAnts removes a colony's ant entities, withdrawing their loads.
func (s *Simulation) discardAnts(colonyEntity ecs.Entity) {
	for _, ae := range s.ants[colonyEntity] {
		s.withdrawn += s.antMap.Get(ae).Carried
		s.world.RemoveEntity(ae)
	}
	s.ants[colonyEntity] = nil
}

// indexOf finds id among entities of one kind.
func (s *Simulation) indexOf(entities []ecs.Entity, id ecs.Entity, kind string) (int, error) {
	i := slices.Index(entities, id)
	if i < 0 || !s.world.Alive(id) {
		return -1, fmt.Errorf("%w: %s %v", ErrUnknownEntity, kind, id)
	}
	return i, nil
}

// LoadScenario adds the configured colonies, foods and obstacles, then
// scatters the configured number of random obstacles. Zero seed fields
// fall back to the defaults. Obstacles are placed first so colonies and
// foods are moved clear of them.
func (s *Simulation) LoadScenario(sc config.ScenarioConfig) error {
	for _, o := range sc.Obstacles {
		size := o.Size
		if size.IsZero() {
			size = s.cfg.Obstacle.Size
		}
		if _, err := s.AddObstacle(ObstacleSpec{Pos: o.Pos, Size: size}); err != nil {
			return err
		}
	}

	for _, c := range sc.Colonies {
		spec := s.DefaultColonySpec(c.Pos)
		if !c.Size.IsZero() {
			spec.Size = c.Size
		}
		override(&spec.Ants, c.Ants)
		override(&spec.Params.StepSize, c.StepSize)
		override(&spec.Params.Capacity, c.Capacity)
		override(&spec.Params.SearchRadius, c.SearchRadius)
		override(&spec.Params.PheromoneInfluence, c.PheromoneInfluence)
		override(&spec.DecayFactor, c.DecayFactor)
		override(&spec.ZeroThreshold, c.ZeroThreshold)
		if c.Rows > 0 && c.Cols > 0 {
			spec.Rows, spec.Cols = c.Rows, c.Cols
		}
		if c.Color != [4]float64{} {
			spec.Color = c.Color
		}
		if _, err := s.AddColony(spec); err != nil {
			return err
		}
	}

	for _, f := range sc.Foods {
		spec := s.DefaultFoodSpec(f.Pos)
		if !f.Size.IsZero() {
			spec.Size = f.Size
		}
		override(&spec.Amount, f.Amount)
		override(&spec.RelocateAfter, f.RelocateAfter)
		if _, err := s.AddFood(spec); err != nil {
			return err
		}
	}

	if n := s.cfg.Obstacle.Random; n > 0 {
		if placed := s.ScatterObstacles(n, s.cfg.Obstacle.Size); placed < n {
			s.logger.Warn("not every random obstacle fit", "requested", n, "placed", placed)
		}
	}
	return nil
}

// override replaces *dst with *v when the scenario sets v.
func override[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}
