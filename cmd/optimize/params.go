// Package main provides CMA-ES optimization of colony parameters for
// foraging throughput.
package main

import (
	"math"

	"github.com/pthm-cable/antsim/config"
)

// ParamSpec defines a single optimizable parameter.
type ParamSpec struct {
	Name    string  // Human-readable name
	Path    string  // Config path for logging
	Min     float64 // Lower bound
	Max     float64 // Upper bound
	Default float64 // Default value
}

// ParamVector holds the set of all optimizable parameters.
type ParamVector struct {
	Specs []ParamSpec
}

// NewParamVector creates the standard set of optimizable parameters.
func NewParamVector() *ParamVector {
	return &ParamVector{
		Specs: []ParamSpec{
			{Name: "step_size", Path: "ant.step_size", Min: 1, Max: 15, Default: 5},
			{Name: "search_radius", Path: "ant.search_radius", Min: 0, Max: 5, Default: 2},
			{Name: "pheromone_influence", Path: "ant.pheromone_influence", Min: 0, Max: 1, Default: 0.1},
			{Name: "reducing_factor", Path: "pheromone.reducing_factor", Min: 0.8, Max: 1.0, Default: 0.99},
		},
	}
}

// Dim returns the number of parameters.
func (pv *ParamVector) Dim() int {
	return len(pv.Specs)
}

// DefaultVector returns the default parameter values as a slice.
func (pv *ParamVector) DefaultVector() []float64 {
	v := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		v[i] = spec.Default
	}
	return v
}

// Normalize converts raw parameter values to [0,1] range.
func (pv *ParamVector) Normalize(raw []float64) []float64 {
	normalized := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		normalized[i] = (raw[i] - spec.Min) / (spec.Max - spec.Min)
	}
	return normalized
}

// Denormalize converts [0,1] values back to raw parameter values.
func (pv *ParamVector) Denormalize(normalized []float64) []float64 {
	raw := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		raw[i] = spec.Min + normalized[i]*(spec.Max-spec.Min)
	}
	return raw
}

// Clamp ensures all values are within bounds.
func (pv *ParamVector) Clamp(v []float64) []float64 {
	clamped := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		clamped[i] = math.Min(math.Max(v[i], spec.Min), spec.Max)
	}
	return clamped
}

// ApplyToConfig applies parameter values to a Config struct.
// Order must match Specs order.
func (pv *ParamVector) ApplyToConfig(cfg *config.Config, values []float64) {
	clamped := pv.Clamp(values)

	cfg.Ant.StepSize = clamped[0]
	cfg.Ant.SearchRadius = int(math.Round(clamped[1]))
	cfg.Ant.PheromoneInfluence = clamped[2]
	cfg.Pheromone.ReducingFactor = clamped[3]

	// Scenario seeds override the defaults, so clear their copies
	for i := range cfg.Scenario.Colonies {
		cfg.Scenario.Colonies[i].StepSize = nil
		cfg.Scenario.Colonies[i].SearchRadius = nil
		cfg.Scenario.Colonies[i].PheromoneInfluence = nil
		cfg.Scenario.Colonies[i].DecayFactor = nil
	}
}

// ExtractFromConfig extracts current parameter values from a Config struct.
func (pv *ParamVector) ExtractFromConfig(cfg *config.Config) []float64 {
	return []float64{
		cfg.Ant.StepSize,
		float64(cfg.Ant.SearchRadius),
		cfg.Ant.PheromoneInfluence,
		cfg.Pheromone.ReducingFactor,
	}
}
