package telemetry

import (
	"log/slog"
	"slices"

	"gonum.org/v1/gonum/stat"
)

// WindowStats holds aggregated statistics for a window of epochs.
type WindowStats struct {
	WindowStartEpoch int `csv:"-"`
	WindowEndEpoch   int `csv:"window_end"`

	// Population at window end
	Colonies  int `csv:"colonies"`
	Ants      int `csv:"ants"`
	Seeking   int `csv:"seeking"`
	Returning int `csv:"returning"`

	// Foraging events during window
	Pickups      int     `csv:"pickups"`
	Drops        int     `csv:"drops"`
	PickedUp     float64 `csv:"picked_up"`
	Delivered    float64 `csv:"delivered"`
	DeliveryRate float64 `csv:"delivery_rate"` // delivered per epoch
	Relocations  int     `csv:"relocations"`

	// Food ledger at window end (for conservation validation)
	FoodSources    int     `csv:"food_sources"`
	FoodRemaining  float64 `csv:"food_remaining"`
	FoodCarried    float64 `csv:"food_carried"`
	DeliveredTotal float64 `csv:"delivered_total"`
	FoodInjected   float64 `csv:"food_injected"`

	// Pheromone field, summed over colonies
	ColonyTrailMass float64 `csv:"colony_trail_mass"`
	FoodTrailMass   float64 `csv:"food_trail_mass"`
	TrailCoverage   int     `csv:"trail_coverage"`

	// Load carried by returning ants
	LoadMean float64 `csv:"load_mean"`
	LoadStd  float64 `csv:"load_std"`
	LoadP50  float64 `csv:"load_p50"`
	LoadP90  float64 `csv:"load_p90"`
}

// ColonyStats holds one colony's state at the end of a window.
type ColonyStats struct {
	WindowEndEpoch  int     `csv:"window_end"`
	Colony          uint32  `csv:"colony"`
	Ants            int     `csv:"ants"`
	Returning       int     `csv:"returning"`
	Delivered       float64 `csv:"delivered"`
	WindowDelivered float64 `csv:"window_delivered"`
	GridRows        int     `csv:"grid_rows"`
	GridCols        int     `csv:"grid_cols"`
	ColonyTrailMass float64 `csv:"colony_trail_mass"`
	FoodTrailMass   float64 `csv:"food_trail_mass"`
	TrailCoverage   int     `csv:"trail_coverage"`
}

// ComputeLoadStats calculates mean, standard deviation and percentiles of
// carried loads. Returns zeros for an empty slice.
func ComputeLoadStats(values []float64) (mean, std, p50, p90 float64) {
	n := len(values)
	if n == 0 {
		return 0, 0, 0, 0
	}

	if n == 1 {
		mean = values[0]
	} else {
		mean, std = stat.MeanStdDev(values, nil)
	}

	// Quantile requires sorted input
	sorted := slices.Clone(values)
	slices.Sort(sorted)

	p50 = stat.Quantile(0.5, stat.Empirical, sorted, nil)
	p90 = stat.Quantile(0.9, stat.Empirical, sorted, nil)

	return mean, std, p50, p90
}

// LogValue implements slog.LogValuer for structured logging.
func (s WindowStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("window_start", s.WindowStartEpoch),
		slog.Int("window_end", s.WindowEndEpoch),
		slog.Int("colonies", s.Colonies),
		slog.Int("ants", s.Ants),
		slog.Int("seeking", s.Seeking),
		slog.Int("returning", s.Returning),
		slog.Int("pickups", s.Pickups),
		slog.Int("drops", s.Drops),
		slog.Float64("picked_up", s.PickedUp),
		slog.Float64("delivered", s.Delivered),
		slog.Float64("delivery_rate", s.DeliveryRate),
		slog.Int("relocations", s.Relocations),
		slog.Int("food_sources", s.FoodSources),
		slog.Float64("food_remaining", s.FoodRemaining),
		slog.Float64("food_carried", s.FoodCarried),
		slog.Float64("delivered_total", s.DeliveredTotal),
		slog.Float64("food_injected", s.FoodInjected),
		slog.Float64("colony_trail_mass", s.ColonyTrailMass),
		slog.Float64("food_trail_mass", s.FoodTrailMass),
		slog.Int("trail_coverage", s.TrailCoverage),
		slog.Float64("load_mean", s.LoadMean),
		slog.Float64("load_std", s.LoadStd),
		slog.Float64("load_p50", s.LoadP50),
		slog.Float64("load_p90", s.LoadP90),
	)
}

// LogStats logs the window stats using slog.
func (s WindowStats) LogStats() {
	slog.Info("stats",
		"window_end", s.WindowEndEpoch,
		"ants", s.Ants,
		"returning", s.Returning,
		"pickups", s.Pickups,
		"drops", s.Drops,
		"delivered", s.Delivered,
		"delivery_rate", s.DeliveryRate,
		"relocations", s.Relocations,
		"food_remaining", s.FoodRemaining,
		"delivered_total", s.DeliveredTotal,
		"food_trail_mass", s.FoodTrailMass,
		"colony_trail_mass", s.ColonyTrailMass,
		"trail_coverage", s.TrailCoverage,
		"load_mean", s.LoadMean,
	)
}
