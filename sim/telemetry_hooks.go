package sim

import (
	"github.com/pthm-cable/antsim/components"
	"github.com/pthm-cable/antsim/telemetry"
)

// flushTelemetry checks if the stats window should be flushed and handles bookmarks.
func (s *Simulation) flushTelemetry() {
	if !s.collector.ShouldFlush(s.epoch) {
		return
	}

	stats, colonies := s.collector.Flush(s.epoch, s.census())
	perfStats := s.perf.Stats()

	if s.statsCallback != nil {
		s.statsCallback(stats)
	}

	// Log stats if enabled (console output)
	if s.logStats {
		stats.LogStats()
		if s.perf != nil {
			perfStats.LogStats()
		}
	}

	if err := s.output.WriteTelemetry(stats, colonies); err != nil {
		s.logger.Error("failed to write telemetry", "error", err)
	}
	if s.perf != nil {
		if err := s.output.WritePerf(perfStats, stats.WindowEndEpoch); err != nil {
			s.logger.Error("failed to write perf", "error", err)
		}
	}

	if s.bookmarks == nil {
		return
	}
	for _, bm := range s.bookmarks.Check(stats) {
		if s.logStats {
			bm.LogBookmark()
		}

		// Save snapshot on bookmark
		if s.snapshotDir != "" {
			snap := s.Snapshot()
			snap.Bookmark = &bm
			path, err := telemetry.SaveSnapshot(snap, s.snapshotDir)
			if err != nil {
				s.logger.Error("failed to save snapshot", "error", err)
				continue
			}
			s.logger.Info("snapshot saved", "path", path, "bookmark", string(bm.Type))
		}
	}
}

// census samples the world for a telemetry flush.
func (s *Simulation) census() telemetry.Census {
	c := telemetry.Census{
		Colonies:    make([]telemetry.ColonyCensus, 0, len(s.colonies)),
		FoodSources: len(s.foods),
	}

	for _, ce := range s.colonies {
		colony := s.colonyMap.Get(ce)
		field := s.fields[ce]
		rows, cols := field.Shape()
		colonyMass, foodMass := field.Totals()

		cc := telemetry.ColonyCensus{
			ID:              ce.ID(),
			Ants:            len(s.ants[ce]),
			Delivered:       colony.Delivered,
			GridRows:        rows,
			GridCols:        cols,
			ColonyTrailMass: colonyMass,
			FoodTrailMass:   foodMass,
			TrailCoverage:   field.Coverage(),
		}
		for _, ae := range s.ants[ce] {
			a := s.antMap.Get(ae)
			if a.State == components.ReturningToColony {
				cc.Returning++
				c.Loads = append(c.Loads, a.Carried)
			}
			c.FoodCarried += a.Carried
		}
		c.Colonies = append(c.Colonies, cc)
	}

	for _, fe := range s.foods {
		f := s.foodMap.Get(fe)
		c.FoodRemaining += f.Remaining
		c.FoodInjected += f.Injected
	}

	return c
}
