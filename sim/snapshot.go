package sim

import (
	"fmt"
	"math/rand"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/antsim/components"
	"github.com/pthm-cable/antsim/config"
	"github.com/pthm-cable/antsim/systems"
	"github.com/pthm-cable/antsim/telemetry"
)

// Snapshot records the complete simulation state: bounds, every colony with
// its parameters, trail grid and ants, every food source and obstacle.
// The random generator's position is not recorded.
func (s *Simulation) Snapshot() *telemetry.Snapshot {
	snap := &telemetry.Snapshot{
		Version:   telemetry.SnapshotVersion,
		RNGSeed:   s.cfg.Simulation.Seed,
		Bounds:    s.bounds,
		Epoch:     s.epoch,
		Supplied:  s.supplied,
		Withdrawn: s.withdrawn,
		Colonies:  make([]telemetry.ColonyState, 0, len(s.colonies)),
		Foods:     make([]telemetry.FoodState, 0, len(s.foods)),
		Obstacles: make([]components.Rect, 0, len(s.obstacles)),
	}

	for _, ce := range s.colonies {
		colony := s.colonyMap.Get(ce)
		fs := s.fields[ce].Snapshot()

		cs := telemetry.ColonyState{
			Rect:          colony.Rect,
			Delivered:     colony.Delivered,
			Color:         colony.Color,
			Ants:          colony.Ants,
			DecayFactor:   colony.DecayFactor,
			ZeroThreshold: colony.ZeroThreshold,
			Rows:          fs.Rows,
			Cols:          fs.Cols,
			ColonyTrail:   fs.Colony,
			FoodTrail:     fs.Food,
			Members:       make([]telemetry.AntState, 0, len(s.ants[ce])),
		}
		for _, ae := range s.ants[ce] {
			cs.Members = append(cs.Members, telemetry.AntStateFrom(*s.antMap.Get(ae)))
		}
		snap.Colonies = append(snap.Colonies, cs)
	}

	for _, fe := range s.foods {
		snap.Foods = append(snap.Foods, telemetry.FoodStateFrom(*s.foodMap.Get(fe)))
	}
	snap.Obstacles = append(snap.Obstacles, s.obstacleRects...)

	return snap
}

// Restore rebuilds a simulation from a snapshot. Entities are placed exactly
// as recorded, without obstacle push-out. cfg supplies the parameters the
// snapshot does not carry (proximity tests, deflection, telemetry); its
// bounds are replaced by the snapshot's.
func Restore(cfg *config.Config, snap *telemetry.Snapshot, rng *rand.Rand, opts ...Option) (*Simulation, error) {
	if cfg == nil || snap == nil {
		return nil, fmt.Errorf("%w: nil config or snapshot", ErrInvalidConfig)
	}
	if !snap.Bounds.Valid() {
		return nil, fmt.Errorf("%w: snapshot bounds %+v", ErrInvalidConfig, snap.Bounds)
	}

	cfg = cfg.Clone()
	cfg.World.Bounds = snap.Bounds

	s, err := New(cfg, rng, opts...)
	if err != nil {
		return nil, err
	}

	for _, r := range snap.Obstacles {
		if err := (ObstacleSpec{Pos: r.Pos, Size: r.Size}).validate(); err != nil {
			return nil, err
		}
		s.obstacles = append(s.obstacles, s.obstacleMap.NewEntity(&components.Obstacle{Rect: r}))
	}
	s.rebuildObstacleRects()

	for i, cs := range snap.Colonies {
		spec := ColonySpec{
			Size:          cs.Rect.Size,
			Ants:          len(cs.Members),
			Params:        cs.Ants,
			DecayFactor:   cs.DecayFactor,
			ZeroThreshold: cs.ZeroThreshold,
			Rows:          cs.Rows,
			Cols:          cs.Cols,
		}
		if err := spec.validate(); err != nil {
			return nil, fmt.Errorf("colony %d: %w", i, err)
		}
		field, err := systems.FieldFromSnapshot(systems.FieldSnapshot{
			Rows:   cs.Rows,
			Cols:   cs.Cols,
			Colony: cs.ColonyTrail,
			Food:   cs.FoodTrail,
		})
		if err != nil {
			return nil, fmt.Errorf("%w: colony %d: %w", ErrInvalidConfig, i, err)
		}

		colony := components.Colony{
			Rect:          cs.Rect,
			AntCount:      len(cs.Members),
			Delivered:     cs.Delivered,
			Color:         cs.Color,
			Ants:          cs.Ants,
			DecayFactor:   cs.DecayFactor,
			ZeroThreshold: cs.ZeroThreshold,
		}
		ce := s.colonyMap.NewEntity(&colony)
		s.colonies = append(s.colonies, ce)
		s.fields[ce] = field

		ants := make([]components.Ant, len(cs.Members))
		for j, as := range cs.Members {
			ants[j] = as.Ant()
		}
		s.ants[ce] = make([]ecs.Entity, 0, len(ants))
		for j := range ants {
			s.ants[ce] = append(s.ants[ce], s.antMap.NewEntity(&ants[j]))
		}
	}

	for i, fs := range snap.Foods {
		food := fs.Food()
		if food.Remaining < 0 || food.Remaining > food.StartAmount || food.RelocateAfter < 0 {
			return nil, fmt.Errorf("%w: food %d state %+v", ErrInvalidConfig, i, fs)
		}
		s.foods = append(s.foods, s.foodMap.NewEntity(&food))
	}

	s.epoch = snap.Epoch
	s.supplied = snap.Supplied
	s.withdrawn = snap.Withdrawn
	s.collector.Reset(s.epoch)

	if s.cfg.Simulation.Debug {
		if err := s.checkInvariants(); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
		}
	}

	return s, nil
}
