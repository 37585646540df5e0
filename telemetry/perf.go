package telemetry

import (
	"log/slog"
	"time"
)

// Phase names for the simulation epoch.
const (
	PhaseForage     = "forage"     // pickup and drop checks
	PhaseSteer      = "steer"      // pheromone search and heading update
	PhaseCollide    = "collide"    // obstacle and bounds resolution
	PhaseDeposit    = "deposit"    // trail writes
	PhaseDecay      = "decay"      // per-colony evaporation
	PhaseRelocation = "relocation" // food relocation
	PhaseTelemetry  = "telemetry"
)

// phaseOrder lists phases in epoch order for logging.
var phaseOrder = []string{
	PhaseForage, PhaseSteer, PhaseCollide, PhaseDeposit,
	PhaseDecay, PhaseRelocation, PhaseTelemetry,
}

// PerfSample holds timing data for a single epoch.
type PerfSample struct {
	EpochDuration time.Duration
	Phases        map[string]time.Duration
}

// PerfCollector tracks performance metrics over a rolling window of epochs.
// A nil *PerfCollector ignores every call.
type PerfCollector struct {
	windowSize    int
	samples       []PerfSample
	writeIndex    int
	sampleCount   int
	currentPhases map[string]time.Duration
	epochStart    time.Time
	phaseStart    time.Time
	lastPhase     string
}

// NewPerfCollector creates a new performance collector.
// windowSize: number of epochs to average over.
func NewPerfCollector(windowSize int) *PerfCollector {
	if windowSize < 1 {
		windowSize = 100
	}
	return &PerfCollector{
		windowSize:    windowSize,
		samples:       make([]PerfSample, windowSize),
		currentPhases: make(map[string]time.Duration),
	}
}

// StartEpoch begins timing a new epoch.
func (p *PerfCollector) StartEpoch() {
	if p == nil {
		return
	}
	p.epochStart = time.Now()
	p.currentPhases = make(map[string]time.Duration)
	p.lastPhase = ""
}

// StartPhase begins timing a specific phase, ending the previous one.
// Switching back to an earlier phase accumulates into it.
func (p *PerfCollector) StartPhase(phase string) {
	if p == nil {
		return
	}
	now := time.Now()
	// End previous phase if any
	if p.lastPhase != "" {
		p.currentPhases[p.lastPhase] += now.Sub(p.phaseStart)
	}
	p.phaseStart = now
	p.lastPhase = phase
}

// EndEpoch finishes timing the current epoch and records the sample.
func (p *PerfCollector) EndEpoch() {
	if p == nil {
		return
	}
	now := time.Now()
	// End final phase
	if p.lastPhase != "" {
		p.currentPhases[p.lastPhase] += now.Sub(p.phaseStart)
		p.lastPhase = ""
	}

	p.samples[p.writeIndex] = PerfSample{
		EpochDuration: now.Sub(p.epochStart),
		Phases:        p.currentPhases,
	}
	p.writeIndex = (p.writeIndex + 1) % p.windowSize
	if p.sampleCount < p.windowSize {
		p.sampleCount++
	}
}

// PerfStats holds aggregated performance statistics.
type PerfStats struct {
	AvgEpochDuration time.Duration
	MinEpochDuration time.Duration
	MaxEpochDuration time.Duration

	// Phase breakdown (average durations and share of epoch time)
	PhaseAvg map[string]time.Duration
	PhasePct map[string]float64

	EpochsPerSecond float64
}

// Stats computes aggregated statistics over the current window.
func (p *PerfCollector) Stats() PerfStats {
	if p == nil || p.sampleCount == 0 {
		return PerfStats{
			PhaseAvg: make(map[string]time.Duration),
			PhasePct: make(map[string]float64),
		}
	}

	var total, minEpoch, maxEpoch time.Duration
	phaseSum := make(map[string]time.Duration)

	for i := 0; i < p.sampleCount; i++ {
		s := p.samples[i]
		total += s.EpochDuration

		if i == 0 || s.EpochDuration < minEpoch {
			minEpoch = s.EpochDuration
		}
		if s.EpochDuration > maxEpoch {
			maxEpoch = s.EpochDuration
		}
		for phase, dur := range s.Phases {
			phaseSum[phase] += dur
		}
	}

	avg := total / time.Duration(p.sampleCount)

	phaseAvg := make(map[string]time.Duration, len(phaseSum))
	phasePct := make(map[string]float64, len(phaseSum))
	for phase, sum := range phaseSum {
		phaseAvg[phase] = sum / time.Duration(p.sampleCount)
		if avg > 0 {
			phasePct[phase] = float64(phaseAvg[phase]) / float64(avg) * 100
		}
	}

	var perSec float64
	if avg > 0 {
		perSec = float64(time.Second) / float64(avg)
	}

	return PerfStats{
		AvgEpochDuration: avg,
		MinEpochDuration: minEpoch,
		MaxEpochDuration: maxEpoch,
		PhaseAvg:         phaseAvg,
		PhasePct:         phasePct,
		EpochsPerSecond:  perSec,
	}
}

// LogStats logs performance statistics.
func (s PerfStats) LogStats() {
	attrs := []any{
		"avg_epoch_us", s.AvgEpochDuration.Microseconds(),
		"min_epoch_us", s.MinEpochDuration.Microseconds(),
		"max_epoch_us", s.MaxEpochDuration.Microseconds(),
		"epochs_per_sec", int(s.EpochsPerSecond),
	}
	for _, phase := range phaseOrder {
		if pct, ok := s.PhasePct[phase]; ok && pct > 0.1 {
			attrs = append(attrs, phase+"_pct", float64(int(pct*10))/10.0)
		}
	}
	slog.Info("perf", attrs...)
}

// PerfStatsCSV is a flat struct for CSV export of performance stats.
type PerfStatsCSV struct {
	WindowEnd     int     `csv:"window_end"`
	AvgEpochUS    int64   `csv:"avg_epoch_us"`
	MinEpochUS    int64   `csv:"min_epoch_us"`
	MaxEpochUS    int64   `csv:"max_epoch_us"`
	EpochsPerSec  float64 `csv:"epochs_per_sec"`
	ForagePct     float64 `csv:"forage_pct"`
	SteerPct      float64 `csv:"steer_pct"`
	CollidePct    float64 `csv:"collide_pct"`
	DepositPct    float64 `csv:"deposit_pct"`
	DecayPct      float64 `csv:"decay_pct"`
	RelocationPct float64 `csv:"relocation_pct"`
	TelemetryPct  float64 `csv:"telemetry_pct"`
}

// ToCSV converts PerfStats to a flat CSV-friendly struct.
func (s PerfStats) ToCSV(windowEnd int) PerfStatsCSV {
	return PerfStatsCSV{
		WindowEnd:     windowEnd,
		AvgEpochUS:    s.AvgEpochDuration.Microseconds(),
		MinEpochUS:    s.MinEpochDuration.Microseconds(),
		MaxEpochUS:    s.MaxEpochDuration.Microseconds(),
		EpochsPerSec:  s.EpochsPerSecond,
		ForagePct:     s.PhasePct[PhaseForage],
		SteerPct:      s.PhasePct[PhaseSteer],
		CollidePct:    s.PhasePct[PhaseCollide],
		DepositPct:    s.PhasePct[PhaseDeposit],
		DecayPct:      s.PhasePct[PhaseDecay],
		RelocationPct: s.PhasePct[PhaseRelocation],
		TelemetryPct:  s.PhasePct[PhaseTelemetry],
	}
}
