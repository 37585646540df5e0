package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	b := cfg.World.Bounds
	if b.MinX != 0 || b.MaxX != 720 || b.MinY != -480 || b.MaxY != 0 {
		t.Errorf("bounds = %+v", b)
	}
	if cfg.Derived.Rows != 12 || cfg.Derived.Cols != 18 {
		t.Errorf("derived grid = %dx%d, want 12x18", cfg.Derived.Rows, cfg.Derived.Cols)
	}
	if cfg.Pheromone.ReducingFactor != 0.99 {
		t.Errorf("reducing factor = %v", cfg.Pheromone.ReducingFactor)
	}
	if cfg.Ant.FoodProximity.Offset != 45 || cfg.Ant.FoodProximity.Radius != 20 {
		t.Errorf("food proximity = %+v", cfg.Ant.FoodProximity)
	}
	if len(cfg.Scenario.Colonies) != 1 || len(cfg.Scenario.Foods) != 2 || len(cfg.Scenario.Obstacles) != 2 {
		t.Errorf("scenario = %+v", cfg.Scenario)
	}
}

func TestLoadOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte("pheromone:\n  rows: 6\n  cols: 9\nant:\n  step_size: 3\n")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Derived.Rows != 6 || cfg.Derived.Cols != 9 {
		t.Errorf("derived grid = %dx%d, want 6x9", cfg.Derived.Rows, cfg.Derived.Cols)
	}
	if cfg.Ant.StepSize != 3 {
		t.Errorf("step size = %v, want 3", cfg.Ant.StepSize)
	}
	// Untouched fields keep their defaults
	if cfg.Ant.Capacity != 20 {
		t.Errorf("capacity = %v, want default 20", cfg.Ant.Capacity)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty bounds", func(c *Config) { c.World.Bounds.MaxX = c.World.Bounds.MinX }},
		{"inverted bounds", func(c *Config) { c.World.Bounds.MinY = 10 }},
		{"negative rows", func(c *Config) { c.Pheromone.Rows = -1 }},
		{"zero cell size", func(c *Config) { c.Pheromone.CellSize = 0 }},
		{"decay above one", func(c *Config) { c.Pheromone.ReducingFactor = 1.01 }},
		{"zero decay", func(c *Config) { c.Pheromone.ReducingFactor = 0 }},
		{"negative threshold", func(c *Config) { c.Pheromone.ZeroThreshold = -1 }},
		{"zero step", func(c *Config) { c.Ant.StepSize = 0 }},
		{"negative capacity", func(c *Config) { c.Ant.Capacity = -1 }},
		{"negative search radius", func(c *Config) { c.Ant.SearchRadius = -1 }},
		{"negative proximity", func(c *Config) { c.Ant.ColonyProximity.Radius = -1 }},
		{"negative ants", func(c *Config) { c.Colony.Ants = -1 }},
		{"negative food size", func(c *Config) { c.Food.Size.X = -1 }},
		{"negative relocation", func(c *Config) { c.Food.RelocateAfter = -1 }},
		{"negative margin", func(c *Config) { c.Obstacle.Margin = -1 }},
		{"negative window", func(c *Config) { c.Telemetry.StatsWindow = -1 }},
		{"negative colony capacity override", func(c *Config) { c.Scenario.Colonies[0].Capacity = ptr(-1.0) }},
		{"negative food amount override", func(c *Config) { c.Scenario.Foods[0].Amount = ptr(-5.0) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load("")
			if err != nil {
				t.Fatal(err)
			}
			tt.mutate(cfg)
			if err := cfg.Validate(); !errors.Is(err, ErrInvalid) {
				t.Errorf("Validate = %v, want ErrInvalid", err)
			}
		})
	}
}

func ptr[T any](v T) *T { return &v }

func TestScenarioZeroOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	data := []byte(`
scenario:
  colonies:
    - pos: {x: 100, y: -200}
      capacity: 0
      search_radius: 0
      zero_threshold: 0.05
  foods:
    - pos: {x: 500, y: -200}
`)
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	seed := cfg.Scenario.Colonies[0]
	if seed.Capacity == nil || *seed.Capacity != 0 {
		t.Errorf("capacity = %v, want explicit 0", seed.Capacity)
	}
	if seed.SearchRadius == nil || *seed.SearchRadius != 0 {
		t.Errorf("search radius = %v, want explicit 0", seed.SearchRadius)
	}
	if seed.ZeroThreshold == nil || *seed.ZeroThreshold != 0.05 {
		t.Errorf("zero threshold = %v, want 0.05", seed.ZeroThreshold)
	}
	if seed.StepSize != nil || seed.Ants != nil {
		t.Errorf("unset overrides should stay nil: %+v", seed)
	}
	if food := cfg.Scenario.Foods[0]; food.Amount != nil {
		t.Errorf("unset food amount = %v, want nil", *food.Amount)
	}
}

func TestExplicitGridSkipsCellSize(t *testing.T) {
	cfg, _ := Load("")
	cfg.Pheromone.Rows, cfg.Pheromone.Cols = 4, 4
	cfg.Pheromone.CellSize = 0
	if err := cfg.Validate(); err != nil {
		t.Errorf("explicit grid with zero cell size: %v", err)
	}
}

func TestCloneIsDeep(t *testing.T) {
	cfg, _ := Load("")
	cp := cfg.Clone()

	*cp.Scenario.Foods[1].Amount = 999
	cp.Scenario.Foods[0].Pos.X = -1
	cp.Ant.StepSize = 42
	if *cfg.Scenario.Foods[1].Amount == 999 {
		t.Error("clone shares scenario overrides")
	}
	if cfg.Scenario.Foods[0].Pos.X == -1 {
		t.Error("clone shares scenario slices")
	}
	if cfg.Ant.StepSize == 42 {
		t.Error("clone shares scalar fields")
	}
}

func TestWriteYAMLRoundTrip(t *testing.T) {
	cfg, _ := Load("")
	cfg.Ant.SearchRadius = 4
	cfg.Simulation.Seed = 77

	path := filepath.Join(t.TempDir(), "out.yaml")
	if err := cfg.WriteYAML(path); err != nil {
		t.Fatal(err)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatalf("reloading written config: %v", err)
	}
	if got.Ant.SearchRadius != 4 || got.Simulation.Seed != 77 {
		t.Errorf("round trip lost overrides: radius %d seed %d", got.Ant.SearchRadius, got.Simulation.Seed)
	}
	if got.World.Bounds != cfg.World.Bounds {
		t.Errorf("bounds %+v, want %+v", got.World.Bounds, cfg.World.Bounds)
	}
	if len(got.Scenario.Foods) != len(cfg.Scenario.Foods) {
		t.Errorf("scenario foods %d, want %d", len(got.Scenario.Foods), len(cfg.Scenario.Foods))
	}
}

func TestMustInitAndCfg(t *testing.T) {
	MustInit("")
	if Cfg().Derived.Rows != 12 {
		t.Errorf("Cfg().Derived.Rows = %d", Cfg().Derived.Rows)
	}
}
