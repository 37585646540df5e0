// Package sim runs the foraging simulation: colonies of ants, food sources
// and obstacles held in an ECS world, advanced one epoch at a time.
package sim

import (
	"errors"
	"fmt"
	"log/slog"
	"math/rand"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/antsim/components"
	"github.com/pthm-cable/antsim/config"
	"github.com/pthm-cable/antsim/systems"
	"github.com/pthm-cable/antsim/telemetry"
)

var (
	// ErrInvalidConfig is wrapped by every rejected entity or parameter.
	ErrInvalidConfig = errors.New("invalid configuration")
	// ErrUnknownEntity is returned for identifiers that do not name a live
	// entity of the expected kind.
	ErrUnknownEntity = errors.New("unknown entity")
)

// Simulation owns the world state. It is the only mutator of cross-entity
// state; collaborators read through accessors and mutate between epochs.
// NextEpoch is not reentrant.
type Simulation struct {
	cfg    *config.Config
	rng    *rand.Rand
	bounds components.Bounds

	world *ecs.World

	// Entity mappers
	colonyMap   *ecs.Map1[components.Colony]
	foodMap     *ecs.Map1[components.Food]
	obstacleMap *ecs.Map1[components.Obstacle]
	antMap      *ecs.Map1[components.Ant]

	// Filters for whole-world scans
	antFilter    *ecs.Filter1[components.Ant]
	foodFilter   *ecs.Filter1[components.Food]
	colonyFilter *ecs.Filter1[components.Colony]

	// Entities in insertion order
	colonies  []ecs.Entity
	foods     []ecs.Entity
	obstacles []ecs.Entity

	// Per-colony ant lists and trail grids, keyed by colony entity
	ants   map[ecs.Entity][]ecs.Entity
	fields map[ecs.Entity]*systems.PheromoneField

	// Obstacle rects in insertion order, rebuilt on registry changes
	obstacleRects []components.Rect

	deflect    systems.Deflection
	foodNear   systems.Proximity
	colonyNear systems.Proximity

	epoch int

	// Conservation bookkeeping outside the live entities
	supplied  float64
	withdrawn float64

	// Telemetry
	logger        *slog.Logger
	collector     *telemetry.Collector
	perf          *telemetry.PerfCollector
	output        *telemetry.OutputManager
	bookmarks     *telemetry.BookmarkDetector
	snapshotDir   string
	logStats      bool
	statsCallback func(telemetry.WindowStats)
}

// Option configures a Simulation.
type Option func(*Simulation)

// WithCollector enables windowed foraging statistics.
func WithCollector(c *telemetry.Collector) Option {
	return func(s *Simulation) { s.collector = c }
}

// WithPerf enables per-phase epoch timing.
func WithPerf(p *telemetry.PerfCollector) Option {
	return func(s *Simulation) { s.perf = p }
}

// WithLogger sets the logger for registry changes and relocations.
func WithLogger(l *slog.Logger) Option {
	return func(s *Simulation) { s.logger = l }
}

// WithOutput writes flushed windows to CSV.
func WithOutput(om *telemetry.OutputManager) Option {
	return func(s *Simulation) { s.output = om }
}

// WithBookmarks checks flushed windows for notable moments. When dir is
// not empty a snapshot is saved there for each bookmark.
func WithBookmarks(bd *telemetry.BookmarkDetector, dir string) Option {
	return func(s *Simulation) {
		s.bookmarks = bd
		s.snapshotDir = dir
	}
}

// WithLogStats logs every flushed window.
func WithLogStats(enabled bool) Option {
	return func(s *Simulation) { s.logStats = enabled }
}

// WithStatsCallback is called with every flushed window.
func WithStatsCallback(fn func(telemetry.WindowStats)) Option {
	return func(s *Simulation) { s.statsCallback = fn }
}

// New creates an empty simulation over cfg's world bounds.
// A nil rng is seeded from cfg.Simulation.Seed.
func New(cfg *config.Config, rng *rand.Rand, opts ...Option) (*Simulation, error) {
	if cfg == nil {
		return nil, fmt.Errorf("%w: nil config", ErrInvalidConfig)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(cfg.Simulation.Seed))
	}

	world := ecs.NewWorld()

	s := &Simulation{
		cfg:    cfg,
		rng:    rng,
		bounds: cfg.World.Bounds,
		world:  world,

		colonyMap:   ecs.NewMap1[components.Colony](world),
		foodMap:     ecs.NewMap1[components.Food](world),
		obstacleMap: ecs.NewMap1[components.Obstacle](world),
		antMap:      ecs.NewMap1[components.Ant](world),

		antFilter:    ecs.NewFilter1[components.Ant](world),
		foodFilter:   ecs.NewFilter1[components.Food](world),
		colonyFilter: ecs.NewFilter1[components.Colony](world),

		ants:   make(map[ecs.Entity][]ecs.Entity),
		fields: make(map[ecs.Entity]*systems.PheromoneField),

		deflect: systems.Deflection{
			Margin: cfg.Obstacle.Margin,
			Gap:    cfg.Obstacle.PushGap,
			Bounds: cfg.World.Bounds,
		},
		foodNear: systems.Proximity{
			Offset: cfg.Ant.FoodProximity.Offset,
			Radius: cfg.Ant.FoodProximity.Radius,
		},
		colonyNear: systems.Proximity{
			Offset: cfg.Ant.ColonyProximity.Offset,
			Radius: cfg.Ant.ColonyProximity.Radius,
		},

		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

// Epoch returns the number of completed epochs.
func (s *Simulation) Epoch() int {
	return s.epoch
}

// Bounds returns the world extent.
func (s *Simulation) Bounds() components.Bounds {
	return s.bounds
}

// gridShape returns the default pheromone grid shape for new colonies.
func (s *Simulation) gridShape() (rows, cols int) {
	if s.cfg.Derived.Rows > 0 && s.cfg.Derived.Cols > 0 {
		return s.cfg.Derived.Rows, s.cfg.Derived.Cols
	}
	return systems.GridShapeFor(s.bounds, s.cfg.Pheromone.CellSize)
}
