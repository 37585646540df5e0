// Package config provides configuration loading and access for the simulation.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/pthm-cable/antsim/components"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid config")

// Config holds all simulation configuration parameters.
type Config struct {
	World      WorldConfig      `yaml:"world"`
	Pheromone  PheromoneConfig  `yaml:"pheromone"`
	Ant        AntConfig        `yaml:"ant"`
	Colony     ColonyConfig     `yaml:"colony"`
	Food       FoodConfig       `yaml:"food"`
	Obstacle   ObstacleConfig   `yaml:"obstacle"`
	Simulation SimulationConfig `yaml:"simulation"`
	Telemetry  TelemetryConfig  `yaml:"telemetry"`
	Scenario   ScenarioConfig   `yaml:"scenario"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// WorldConfig holds the simulation area.
type WorldConfig struct {
	Bounds components.Bounds `yaml:"bounds"` // (min_x, max_x, min_y, max_y)
}

// PheromoneConfig holds trail grid and evaporation parameters.
type PheromoneConfig struct {
	CellSize       float64 `yaml:"cell_size"`       // Derive grid shape from bounds when rows/cols are 0
	Rows           int     `yaml:"rows"`            // Explicit grid rows (0 = derive)
	Cols           int     `yaml:"cols"`            // Explicit grid cols (0 = derive)
	ReducingFactor float64 `yaml:"reducing_factor"` // Per-epoch multiplicative decay, in (0,1]
	ZeroThreshold  float64 `yaml:"zero_threshold"`  // Magnitudes below this snap to 0
}

// ProximityConfig defines a target-specific "near" test.
type ProximityConfig struct {
	Offset float64 `yaml:"offset"` // Target point = entity position + (offset, offset)
	Radius float64 `yaml:"radius"`
}

// AntConfig holds default ant parameters.
type AntConfig struct {
	StepSize           float64         `yaml:"step_size"`
	Capacity           float64         `yaml:"capacity"`
	SearchRadius       int             `yaml:"search_radius"`       // Chebyshev radius in cells
	PheromoneInfluence float64         `yaml:"pheromone_influence"` // Bias weight blended into heading
	FoodProximity      ProximityConfig `yaml:"food_proximity"`
	ColonyProximity    ProximityConfig `yaml:"colony_proximity"`
}

// ColonyConfig holds colony defaults.
type ColonyConfig struct {
	Ants int             `yaml:"ants"`
	Size components.Vec2 `yaml:"size"`
}

// FoodConfig holds food source defaults.
type FoodConfig struct {
	Size               components.Vec2 `yaml:"size"`
	Amount             float64         `yaml:"amount"`
	RelocateAfter      int             `yaml:"relocate_after"`      // Epochs between relocations (0 = never)
	RelocationAttempts int             `yaml:"relocation_attempts"` // Random spots tried per relocation
}

// ObstacleConfig holds obstacle defaults and deflection parameters.
type ObstacleConfig struct {
	Size    components.Vec2 `yaml:"size"`
	Margin  float64         `yaml:"margin"`   // Hit box grows by this on its lower edges
	PushGap float64         `yaml:"push_gap"` // Distance past the edge a pushed ant lands
	Random  int             `yaml:"random"`   // Obstacles scattered at startup
}

// SimulationConfig holds run-level parameters.
type SimulationConfig struct {
	Seed      int64 `yaml:"seed"`       // 0 = time-based
	MaxEpochs int   `yaml:"max_epochs"` // 0 = unlimited
	Debug     bool  `yaml:"debug"`      // Panic on invariant violations
}

// TelemetryConfig holds telemetry parameters.
type TelemetryConfig struct {
	StatsWindow         int `yaml:"stats_window"`          // Epochs per stats window
	PerfCollectorWindow int `yaml:"perf_collector_window"` // Epochs averaged for perf
}

// ScenarioConfig lists the entities placed at startup.
type ScenarioConfig struct {
	Colonies  []ColonySeed   `yaml:"colonies"`
	Foods     []FoodSeed     `yaml:"foods"`
	Obstacles []ObstacleSeed `yaml:"obstacles"`
}

// ColonySeed places one colony. Zero size and color, a missing grid shape
// and nil overrides fall back to the defaults. Overrides are pointers so an
// explicit 0 (capacity 0, no search radius) stays expressible.
type ColonySeed struct {
	Pos                components.Vec2 `yaml:"pos"`
	Size               components.Vec2 `yaml:"size"`
	Ants               *int            `yaml:"ants,omitempty"`
	StepSize           *float64        `yaml:"step_size,omitempty"`
	Capacity           *float64        `yaml:"capacity,omitempty"`
	SearchRadius       *int            `yaml:"search_radius,omitempty"`
	PheromoneInfluence *float64        `yaml:"pheromone_influence,omitempty"`
	DecayFactor        *float64        `yaml:"decay_factor,omitempty"`
	ZeroThreshold      *float64        `yaml:"zero_threshold,omitempty"`
	Rows               int             `yaml:"rows"`
	Cols               int             `yaml:"cols"`
	Color              [4]float64      `yaml:"color"`
}

// FoodSeed places one food source. Zero size and nil overrides fall back
// to the defaults.
type FoodSeed struct {
	Pos           components.Vec2 `yaml:"pos"`
	Size          components.Vec2 `yaml:"size"`
	Amount        *float64        `yaml:"amount,omitempty"`
	RelocateAfter *int            `yaml:"relocate_after,omitempty"`
}

// ObstacleSeed places one obstacle. Zero size falls back to the default.
type ObstacleSeed struct {
	Pos  components.Vec2 `yaml:"pos"`
	Size components.Vec2 `yaml:"size"`
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	Rows, Cols int // Effective default pheromone grid shape
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if path is empty.
// Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	// Start with embedded defaults
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	// Load user config if provided
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Unmarshal into same struct - only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	// Compute derived values
	cfg.computeDerived()

	return cfg, nil
}

// Clone returns a deep copy of the configuration.
func (c *Config) Clone() *Config {
	cp := *c
	cp.Scenario.Colonies = make([]ColonySeed, len(c.Scenario.Colonies))
	for i, seed := range c.Scenario.Colonies {
		seed.Ants = clonePtr(seed.Ants)
		seed.StepSize = clonePtr(seed.StepSize)
		seed.Capacity = clonePtr(seed.Capacity)
		seed.SearchRadius = clonePtr(seed.SearchRadius)
		seed.PheromoneInfluence = clonePtr(seed.PheromoneInfluence)
		seed.DecayFactor = clonePtr(seed.DecayFactor)
		seed.ZeroThreshold = clonePtr(seed.ZeroThreshold)
		cp.Scenario.Colonies[i] = seed
	}
	cp.Scenario.Foods = make([]FoodSeed, len(c.Scenario.Foods))
	for i, seed := range c.Scenario.Foods {
		seed.Amount = clonePtr(seed.Amount)
		seed.RelocateAfter = clonePtr(seed.RelocateAfter)
		cp.Scenario.Foods[i] = seed
	}
	cp.Scenario.Obstacles = append([]ObstacleSeed(nil), c.Scenario.Obstacles...)
	return &cp
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// Validate rejects values that would produce an ill-formed simulation.
func (c *Config) Validate() error {
	switch {
	case !c.World.Bounds.Valid():
		return fmt.Errorf("%w: world bounds %+v", ErrInvalid, c.World.Bounds)
	case c.Pheromone.Rows < 0 || c.Pheromone.Cols < 0:
		return fmt.Errorf("%w: pheromone grid %dx%d", ErrInvalid, c.Pheromone.Rows, c.Pheromone.Cols)
	case (c.Pheromone.Rows == 0 || c.Pheromone.Cols == 0) && c.Pheromone.CellSize <= 0:
		return fmt.Errorf("%w: pheromone cell_size must be positive when rows/cols are derived", ErrInvalid)
	case c.Pheromone.ReducingFactor <= 0 || c.Pheromone.ReducingFactor > 1:
		return fmt.Errorf("%w: reducing_factor %v outside (0,1]", ErrInvalid, c.Pheromone.ReducingFactor)
	case c.Pheromone.ZeroThreshold < 0:
		return fmt.Errorf("%w: negative zero_threshold", ErrInvalid)
	case c.Ant.StepSize <= 0:
		return fmt.Errorf("%w: ant step_size must be positive", ErrInvalid)
	case c.Ant.Capacity < 0:
		return fmt.Errorf("%w: negative ant capacity", ErrInvalid)
	case c.Ant.SearchRadius < 0:
		return fmt.Errorf("%w: negative ant search_radius", ErrInvalid)
	case c.Ant.FoodProximity.Radius < 0 || c.Ant.ColonyProximity.Radius < 0:
		return fmt.Errorf("%w: negative proximity radius", ErrInvalid)
	case c.Colony.Ants < 0:
		return fmt.Errorf("%w: negative colony ant count", ErrInvalid)
	case c.Colony.Size.X < 0 || c.Colony.Size.Y < 0 ||
		c.Food.Size.X < 0 || c.Food.Size.Y < 0 ||
		c.Obstacle.Size.X < 0 || c.Obstacle.Size.Y < 0:
		return fmt.Errorf("%w: negative entity size", ErrInvalid)
	case c.Food.Amount < 0:
		return fmt.Errorf("%w: negative food amount", ErrInvalid)
	case c.Food.RelocateAfter < 0 || c.Food.RelocationAttempts < 0:
		return fmt.Errorf("%w: negative food relocation setting", ErrInvalid)
	case c.Obstacle.Margin < 0 || c.Obstacle.PushGap < 0 || c.Obstacle.Random < 0:
		return fmt.Errorf("%w: negative obstacle setting", ErrInvalid)
	case c.Telemetry.StatsWindow < 0 || c.Telemetry.PerfCollectorWindow < 0:
		return fmt.Errorf("%w: negative telemetry window", ErrInvalid)
	}
	for i, seed := range c.Scenario.Colonies {
		if negative(seed.Ants) || negative(seed.StepSize) || negative(seed.Capacity) ||
			negative(seed.SearchRadius) || negative(seed.PheromoneInfluence) ||
			negative(seed.DecayFactor) || negative(seed.ZeroThreshold) {
			return fmt.Errorf("%w: negative override in scenario colony %d", ErrInvalid, i)
		}
	}
	for i, seed := range c.Scenario.Foods {
		if negative(seed.Amount) || negative(seed.RelocateAfter) {
			return fmt.Errorf("%w: negative override in scenario food %d", ErrInvalid, i)
		}
	}
	return nil
}

// negative reports whether an optional override is set below zero.
func negative[T int | float64](p *T) bool {
	return p != nil && *p < 0
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() {
	rows, cols := c.Pheromone.Rows, c.Pheromone.Cols
	b := c.World.Bounds
	if rows == 0 {
		rows = max(int(b.Height()/c.Pheromone.CellSize), 1)
	}
	if cols == 0 {
		cols = max(int(b.Width()/c.Pheromone.CellSize), 1)
	}
	c.Derived.Rows = rows
	c.Derived.Cols = cols
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
