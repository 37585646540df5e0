// Package components defines ECS components for the simulation.
package components

// ForageState is an ant's role: out looking for food or carrying it home.
type ForageState uint8

const (
	SeekingFood       ForageState = iota // Lays colony trail, follows food trail
	ReturningToColony                    // Lays food trail, follows colony trail
)

// Sign returns the legacy pheromone status: -1 seeking, +1 returning.
func (s ForageState) Sign() float64 {
	if s == ReturningToColony {
		return 1
	}
	return -1
}

// String returns the display name for a ForageState.
func (s ForageState) String() string {
	switch s {
	case SeekingFood:
		return "seeking"
	case ReturningToColony:
		return "returning"
	default:
		return "unknown"
	}
}

// AntParams holds the per-colony movement and carrying parameters every
// ant of the colony is created with.
type AntParams struct {
	StepSize           float64 `json:"step_size" yaml:"step_size"`
	Capacity           float64 `json:"capacity" yaml:"capacity"`
	SearchRadius       int     `json:"search_radius" yaml:"search_radius"`
	PheromoneInfluence float64 `json:"pheromone_influence" yaml:"pheromone_influence"`
}

// Ant holds one forager's state.
// The ant knows nothing about its colony; the simulation keeps that mapping.
type Ant struct {
	Position  Vec2
	Direction Vec2 // heading, length == StepSize once seeded
	State     ForageState

	Carried  float64 // non-zero only while ReturningToColony
	Capacity float64

	StepSize           float64
	SearchRadius       int // cells, Chebyshev
	PheromoneInfluence float64

	Epochs int // moves made
}

// NewAnt returns a seeking ant at pos with the given parameters.
// Direction is left zero and seeded on the first move.
func NewAnt(pos Vec2, p AntParams) Ant {
	return Ant{
		Position:           pos,
		State:              SeekingFood,
		Capacity:           p.Capacity,
		StepSize:           p.StepSize,
		SearchRadius:       p.SearchRadius,
		PheromoneInfluence: p.PheromoneInfluence,
	}
}

// Food is a depletable source ants harvest from.
type Food struct {
	Rect        Rect
	Remaining   float64
	StartAmount float64

	// Relocation policy: 0 disables. After RelocateAfter epochs the source
	// jumps to a random free spot and refills.
	RelocateAfter     int
	RelocationCounter int
	Relocations       int
	Injected          float64 // total amount added by refills
}

// Obstacle is static collision geometry.
type Obstacle struct {
	Rect Rect
}

// Colony is a nest. Its ants and pheromone field live in the simulation,
// keyed by the colony entity.
type Colony struct {
	Rect      Rect
	AntCount  int
	Delivered float64 // only increases
	Color     [4]float64

	Ants AntParams

	DecayFactor   float64
	ZeroThreshold float64
}
