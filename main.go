package main

import (
	"context"
	"flag"
	"log/slog"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pthm-cable/antsim/config"
	"github.com/pthm-cable/antsim/sim"
	"github.com/pthm-cable/antsim/telemetry"
)

// bookmarkHistory is the number of windows the bookmark detector remembers.
const bookmarkHistory = 10

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	logStats := flag.Bool("log-stats", false, "Output stats via slog")
	statsWindow := flag.Int("stats-window", 0, "Stats window size in epochs (0 = use config)")
	snapshotDir := flag.String("snapshot-dir", "", "Directory for snapshot files (bookmarks and final state)")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs and config snapshot")
	restorePath := flag.String("restore", "", "Resume from a snapshot file instead of the configured scenario")
	seed := flag.Int64("seed", 0, "RNG seed (0 = config seed, then time-based)")
	maxEpochs := flag.Int("max-epochs", 0, "Stop after N epochs (0 = use config, unlimited if also 0)")
	debug := flag.Bool("debug", false, "Panic on invariant violations")

	flag.Parse()

	// Initialize config before anything else
	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()

	// Set up slog (JSON to stdout for structured logging)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Set up seed: flag, then config, then clock
	rngSeed := *seed
	if rngSeed == 0 {
		rngSeed = cfg.Simulation.Seed
	}
	if rngSeed == 0 {
		rngSeed = time.Now().UnixNano()
	}
	cfg.Simulation.Seed = rngSeed

	if *maxEpochs > 0 {
		cfg.Simulation.MaxEpochs = *maxEpochs
	}
	if *debug {
		cfg.Simulation.Debug = true
	}

	// Use config stats window if not overridden by CLI
	if *statsWindow > 0 {
		cfg.Telemetry.StatsWindow = *statsWindow
	}

	output, err := telemetry.NewOutputManager(*outputDir)
	if err != nil {
		slog.Error("failed to create output manager", "error", err)
		os.Exit(1)
	}
	defer output.Close()
	if err := output.WriteConfig(cfg); err != nil {
		slog.Error("failed to write config", "error", err)
	}

	opts := []sim.Option{
		sim.WithLogger(logger),
		sim.WithLogStats(*logStats),
		sim.WithOutput(output),
		sim.WithBookmarks(telemetry.NewBookmarkDetector(bookmarkHistory), *snapshotDir),
	}
	if cfg.Telemetry.StatsWindow > 0 {
		opts = append(opts, sim.WithCollector(telemetry.NewCollector(cfg.Telemetry.StatsWindow)))
	}
	if cfg.Telemetry.PerfCollectorWindow > 0 {
		opts = append(opts, sim.WithPerf(telemetry.NewPerfCollector(cfg.Telemetry.PerfCollectorWindow)))
	}

	s, err := buildSimulation(cfg, rand.New(rand.NewSource(rngSeed)), *restorePath, opts)
	if err != nil {
		slog.Error("failed to create simulation", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	slog.Info("starting headless simulation",
		"seed", rngSeed,
		"epoch", s.Epoch(),
		"colonies", len(s.Colonies()),
		"foods", len(s.Foods()),
		"obstacles", len(s.Obstacles()),
		"stats_window", cfg.Telemetry.StatsWindow,
		"max_epochs", cfg.Simulation.MaxEpochs,
	)

	start := time.Now()
	startEpoch := s.Epoch()
	for ctx.Err() == nil {
		if cfg.Simulation.MaxEpochs > 0 && s.Epoch() >= cfg.Simulation.MaxEpochs {
			slog.Info("max epochs reached", "epoch", s.Epoch())
			break
		}
		s.NextEpoch()
	}

	ledger := s.Ledger()
	slog.Info("simulation finished",
		"epoch", s.Epoch(),
		"epochs_run", s.Epoch()-startEpoch,
		"elapsed", time.Since(start).String(),
		"supplied", ledger.Supplied,
		"remaining", ledger.Remaining,
		"delivered", ledger.Delivered,
		"carried", ledger.Carried,
		"withdrawn", ledger.Withdrawn,
		"imbalance", ledger.Imbalance(),
	)

	if *snapshotDir != "" {
		path, err := telemetry.SaveSnapshot(s.Snapshot(), *snapshotDir)
		if err != nil {
			slog.Error("failed to save final snapshot", "error", err)
			os.Exit(1)
		}
		slog.Info("final snapshot saved", "path", path)
	}
}

// buildSimulation resumes from a snapshot when restorePath is set, and
// loads the configured scenario otherwise.
func buildSimulation(cfg *config.Config, rng *rand.Rand, restorePath string, opts []sim.Option) (*sim.Simulation, error) {
	if restorePath != "" {
		snap, err := telemetry.LoadSnapshot(restorePath)
		if err != nil {
			return nil, err
		}
		slog.Info("restoring snapshot", "path", restorePath, "epoch", snap.Epoch, "snapshot_seed", snap.RNGSeed)
		return sim.Restore(cfg, snap, rng, opts...)
	}

	s, err := sim.New(cfg, rng, opts...)
	if err != nil {
		return nil, err
	}
	if err := s.LoadScenario(cfg.Scenario); err != nil {
		return nil, err
	}
	return s, nil
}
