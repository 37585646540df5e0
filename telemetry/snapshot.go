package telemetry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pthm-cable/antsim/components"
)

// SnapshotVersion is incremented when the format changes.
const SnapshotVersion = 1

// Snapshot holds the complete simulation state for replay.
type Snapshot struct {
	Version int   `json:"version"`
	RNGSeed int64 `json:"rng_seed"`

	Bounds components.Bounds `json:"bounds"`

	Epoch int `json:"epoch"`

	// Food ledger totals not held by any entity
	Supplied  float64 `json:"supplied"`
	Withdrawn float64 `json:"withdrawn"`

	Colonies  []ColonyState     `json:"colonies"`
	Foods     []FoodState       `json:"foods"`
	Obstacles []components.Rect `json:"obstacles"`

	Bookmark *Bookmark `json:"bookmark,omitempty"`
}

// ColonyState holds one colony, its trail grid and its ants.
type ColonyState struct {
	Rect      components.Rect      `json:"rect"`
	Delivered float64              `json:"delivered"`
	Color     [4]float64           `json:"color"`
	Ants      components.AntParams `json:"ant_params"`

	DecayFactor   float64 `json:"decay_factor"`
	ZeroThreshold float64 `json:"zero_threshold"`

	// Pheromone grid, row-major
	Rows        int       `json:"rows"`
	Cols        int       `json:"cols"`
	ColonyTrail []float64 `json:"colony_trail"`
	FoodTrail   []float64 `json:"food_trail"`

	Members []AntState `json:"ants"`
}

// AntState holds one ant's complete state.
type AntState struct {
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	DirX float64 `json:"dir_x"`
	DirY float64 `json:"dir_y"`

	Returning bool    `json:"returning"`
	Carried   float64 `json:"carried"`
	Capacity  float64 `json:"capacity"`

	StepSize           float64 `json:"step_size"`
	SearchRadius       int     `json:"search_radius"`
	PheromoneInfluence float64 `json:"pheromone_influence"`

	Epochs int `json:"epochs"`
}

// FoodState holds one food source.
type FoodState struct {
	Rect        components.Rect `json:"rect"`
	Remaining   float64         `json:"remaining"`
	StartAmount float64         `json:"start_amount"`

	RelocateAfter     int     `json:"relocate_after"`
	RelocationCounter int     `json:"relocation_counter"`
	Relocations       int     `json:"relocations"`
	Injected          float64 `json:"injected"`
}

// AntStateFrom converts an ant component to its serialized form.
func AntStateFrom(a components.Ant) AntState {
	return AntState{
		X:                  a.Position.X,
		Y:                  a.Position.Y,
		DirX:               a.Direction.X,
		DirY:               a.Direction.Y,
		Returning:          a.State == components.ReturningToColony,
		Carried:            a.Carried,
		Capacity:           a.Capacity,
		StepSize:           a.StepSize,
		SearchRadius:       a.SearchRadius,
		PheromoneInfluence: a.PheromoneInfluence,
		Epochs:             a.Epochs,
	}
}

// Ant converts the serialized form back to an ant component.
func (s AntState) Ant() components.Ant {
	state := components.SeekingFood
	if s.Returning {
		state = components.ReturningToColony
	}
	return components.Ant{
		Position:           components.Vec2{X: s.X, Y: s.Y},
		Direction:          components.Vec2{X: s.DirX, Y: s.DirY},
		State:              state,
		Carried:            s.Carried,
		Capacity:           s.Capacity,
		StepSize:           s.StepSize,
		SearchRadius:       s.SearchRadius,
		PheromoneInfluence: s.PheromoneInfluence,
		Epochs:             s.Epochs,
	}
}

// FoodStateFrom converts a food component to its serialized form.
func FoodStateFrom(f components.Food) FoodState {
	return FoodState{
		Rect:              f.Rect,
		Remaining:         f.Remaining,
		StartAmount:       f.StartAmount,
		RelocateAfter:     f.RelocateAfter,
		RelocationCounter: f.RelocationCounter,
		Relocations:       f.Relocations,
		Injected:          f.Injected,
	}
}

// Food converts the serialized form back to a food component.
func (s FoodState) Food() components.Food {
	return components.Food{
		Rect:              s.Rect,
		Remaining:         s.Remaining,
		StartAmount:       s.StartAmount,
		RelocateAfter:     s.RelocateAfter,
		RelocationCounter: s.RelocationCounter,
		Relocations:       s.Relocations,
		Injected:          s.Injected,
	}
}

// SaveSnapshot writes a snapshot to disk.
// Returns the filepath where it was saved.
func SaveSnapshot(snapshot *Snapshot, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create snapshot dir: %w", err)
	}

	// Build filename
	name := fmt.Sprintf("snapshot_%d", snapshot.Epoch)
	if snapshot.Bookmark != nil {
		// Sanitize bookmark type for filename
		sanitized := strings.ReplaceAll(string(snapshot.Bookmark.Type), " ", "_")
		name = fmt.Sprintf("snapshot_%d_%s", snapshot.Epoch, sanitized)
	}
	name += ".json"

	path := filepath.Join(dir, name)

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal snapshot: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("write snapshot: %w", err)
	}

	return path, nil
}

// LoadSnapshot reads a snapshot from disk.
func LoadSnapshot(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}

	var snapshot Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot: %w", err)
	}

	if snapshot.Version != SnapshotVersion {
		return nil, fmt.Errorf("snapshot version %d, want %d", snapshot.Version, SnapshotVersion)
	}

	return &snapshot, nil
}
