package sim

import (
	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/antsim/components"
	"github.com/pthm-cable/antsim/systems"
	"github.com/pthm-cable/antsim/telemetry"
)

// NextEpoch advances the world by one step.
//
// Colonies run in insertion order and each colony's ants in insertion order,
// so an ant sees the deposits of ants processed before it in the same epoch.
// Each colony's field decays once after all its ants have moved. Food
// relocation runs after every colony.
func (s *Simulation) NextEpoch() {
	s.perf.StartEpoch()
	s.epoch++

	for _, ce := range s.colonies {
		s.stepColony(ce)
	}

	s.perf.StartPhase(telemetry.PhaseRelocation)
	s.relocateFoods()

	if s.cfg.Simulation.Debug {
		if err := s.checkInvariants(); err != nil {
			panic(err)
		}
	}

	s.perf.StartPhase(telemetry.PhaseTelemetry)
	s.flushTelemetry()

	s.perf.EndEpoch()
}

// stepColony moves every ant of one colony, then decays its field.
func (s *Simulation) stepColony(ce ecs.Entity) {
	colony := s.colonyMap.Get(ce)
	field := s.fields[ce]
	rows, cols := field.Shape()

	for _, ae := range s.ants[ce] {
		ant := s.antMap.Get(ae)

		s.perf.StartPhase(telemetry.PhaseForage)
		s.forage(ce, ant, colony)

		s.perf.StartPhase(telemetry.PhaseSteer)
		var bias components.Vec2
		cell := systems.WorldToCell(ant.Position, s.bounds, rows, cols)
		best, found := field.FindBestCell(cell, ant.State, ant.SearchRadius, s.rng)
		if found {
			bias = systems.CellCenter(best, s.bounds, rows, cols).Sub(ant.Position)
		}
		proposed := systems.MoveAnt(ant, bias, found, s.rng)

		s.perf.StartPhase(telemetry.PhaseCollide)
		ant.Position = s.deflect.Settle(proposed, s.obstacleRects)

		s.perf.StartPhase(telemetry.PhaseDeposit)
		field.Deposit(systems.WorldToCell(ant.Position, s.bounds, rows, cols), ant.State)
	}

	s.perf.StartPhase(telemetry.PhaseDecay)
	field.Decay(colony.DecayFactor, colony.ZeroThreshold)
}

// forage tries a pickup against the food sources in insertion order (first
// match wins), then a drop at the ant's own colony.
func (s *Simulation) forage(ce ecs.Entity, ant *components.Ant, colony *components.Colony) {
	for _, fe := range s.foods {
		if taken := systems.TryPickup(ant, s.foodMap.Get(fe), s.foodNear); taken > 0 {
			s.collector.RecordPickup(taken)
			break
		}
	}
	if delivered, ok := systems.TryDrop(ant, colony, s.colonyNear); ok {
		s.collector.RecordDrop(ce.ID(), delivered)
	}
}

// relocateFoods advances every relocation policy.
func (s *Simulation) relocateFoods() {
	for _, fe := range s.foods {
		food := s.foodMap.Get(fe)
		if food.RelocateAfter <= 0 {
			continue
		}
		injected := food.Injected
		if !s.deflect.RelocateFood(food, s.bounds, s.obstacleRects, s.cfg.Food.RelocationAttempts, s.rng) {
			continue
		}
		s.supplied += food.Injected - injected
		s.collector.RecordRelocation()
		s.logger.Debug("food relocated",
			"food", fe.ID(),
			"epoch", s.epoch,
			"x", food.Rect.Pos.X, "y", food.Rect.Pos.Y,
			"relocations", food.Relocations,
		)
	}
}
