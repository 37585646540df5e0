package main

import (
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"sync"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/antsim/config"
	"github.com/pthm-cable/antsim/sim"
	"github.com/pthm-cable/antsim/telemetry"
)

// FitnessEvaluator runs headless simulations and computes fitness.
type FitnessEvaluator struct {
	params      *ParamVector
	maxEpochs   int
	seeds       []int64
	baseConfig  *config.Config
	statsWindow int

	// Best run tracking
	mu          sync.Mutex
	bestFitness float64
	bestWindows []telemetry.WindowStats
	lastQuality float64 // quality from most recent Evaluate call
}

// NewFitnessEvaluator creates a new evaluator.
func NewFitnessEvaluator(params *ParamVector, maxEpochs int, seeds []int64, baseCfg *config.Config) *FitnessEvaluator {
	return &FitnessEvaluator{
		params:      params,
		maxEpochs:   maxEpochs,
		seeds:       seeds,
		baseConfig:  baseCfg,
		statsWindow: 100,
		bestFitness: math.Inf(1),
	}
}

// BestWindows returns the window stats of the best seed of the best evaluation.
func (fe *FitnessEvaluator) BestWindows() []telemetry.WindowStats {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.bestWindows
}

// LastQuality returns the quality score from the most recent evaluation.
func (fe *FitnessEvaluator) LastQuality() float64 {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.lastQuality
}

// runResult holds the results from a single simulation run.
type runResult struct {
	delivered   float64                 // total food delivered to colonies
	windowStats []telemetry.WindowStats // collected via StatsCallback each window
}

// Evaluate computes fitness for a parameter vector (lower = better).
// Fitness is negative delivery rate, with a bonus for steady delivery.
func (fe *FitnessEvaluator) Evaluate(x []float64) (float64, error) {
	results := make([]*runResult, len(fe.seeds))

	// Run all seeds in parallel
	var g errgroup.Group
	for i, seed := range fe.seeds {
		g.Go(func() error {
			r, err := fe.runSimulation(x, seed)
			if err != nil {
				return fmt.Errorf("seed %d: %w", seed, err)
			}
			results[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return math.Inf(1), err
	}

	// Aggregate results
	var totalFitness, totalQuality float64
	bestSeedFitness := math.Inf(1)
	var bestSeedWindows []telemetry.WindowStats

	for _, r := range results {
		quality := computeQuality(r.windowStats)
		fitness := fe.computeFitness(r, quality)
		totalFitness += fitness
		totalQuality += quality
		if fitness < bestSeedFitness {
			bestSeedFitness = fitness
			bestSeedWindows = r.windowStats
		}
	}

	n := float64(len(fe.seeds))
	avgFitness := totalFitness / n

	// Update best tracking
	fe.mu.Lock()
	if avgFitness < fe.bestFitness {
		fe.bestFitness = avgFitness
		fe.bestWindows = bestSeedWindows
	}
	fe.lastQuality = totalQuality / n
	fe.mu.Unlock()

	return avgFitness, nil
}

// runSimulation executes a single headless simulation run of maxEpochs.
func (fe *FitnessEvaluator) runSimulation(x []float64, seed int64) (*runResult, error) {
	// Create a fresh config copy and apply parameters
	cfg := fe.baseConfig.Clone()
	fe.params.ApplyToConfig(cfg, x)
	cfg.Simulation.Seed = seed

	result := &runResult{}

	s, err := sim.New(cfg, rand.New(rand.NewSource(seed)),
		sim.WithLogger(slog.New(slog.DiscardHandler)),
		sim.WithCollector(telemetry.NewCollector(fe.statsWindow)),
		sim.WithStatsCallback(func(stats telemetry.WindowStats) {
			result.windowStats = append(result.windowStats, stats)
		}),
	)
	if err != nil {
		return nil, err
	}
	if err := s.LoadScenario(cfg.Scenario); err != nil {
		return nil, err
	}

	for s.Epoch() < fe.maxEpochs {
		s.NextEpoch()
	}

	result.delivered = s.Ledger().Delivered
	return result, nil
}

// computeFitness calculates the scalar fitness (lower = better).
// Formula: -(deliveryRate × (1.0 + 0.2 × quality))
// Throughput dominates; quality adds up to 20% bonus to separate configs
// with similar throughput.
func (fe *FitnessEvaluator) computeFitness(r *runResult, quality float64) float64 {
	rate := r.delivered / float64(max(fe.maxEpochs, 1))
	return -(rate * (1.0 + 0.2*quality))
}

// qualityWarmupWindows is the number of leading windows skipped while
// trails form.
const qualityWarmupWindows = 2

// computeQuality scores delivery steadiness in [0, 1] from window stats:
// exp(-cv²) of the per-window delivery rate after warmup.
func computeQuality(windows []telemetry.WindowStats) float64 {
	if len(windows) <= qualityWarmupWindows+1 {
		return 0
	}

	rates := make([]float64, 0, len(windows)-qualityWarmupWindows)
	for _, w := range windows[qualityWarmupWindows:] {
		rates = append(rates, w.DeliveryRate)
	}

	mean, std := stat.MeanStdDev(rates, nil)
	if mean <= 0 {
		return 0
	}
	cv := std / mean
	return math.Exp(-cv * cv)
}
