// Command lenia runs the mass-conservative flow simulation headless.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/pthm-cable/lenia/config"
	"github.com/pthm-cable/lenia/engine"
)

var (
	flagConfig    string
	flagSeed      int64
	flagFrames    int
	flagOutputDir string
	flagStorePath string
	flagBlobs     int
	flagBlobMass  float64
	flagJSONLog   bool
)

var rootCmd = &cobra.Command{
	Use:          "lenia",
	Short:        "Mass-conservative flow simulation with emergent creatures",
	SilenceUsage: true,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the simulation headless",
	RunE:  runSimulation,
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration as YAML",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(flagConfig)
		if err != nil {
			return err
		}
		return cfg.WriteYAML("/dev/stdout")
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Path to config.yaml (empty = use defaults)")

	runCmd.Flags().Int64Var(&flagSeed, "seed", 0, "RNG seed (0 = time-based)")
	runCmd.Flags().IntVar(&flagFrames, "frames", 0, "Stop after N frames (0 = run until interrupted)")
	runCmd.Flags().StringVar(&flagOutputDir, "output-dir", "", "Output directory for CSV logs and config snapshot")
	runCmd.Flags().StringVar(&flagStorePath, "store", "", "SQLite run store path")
	runCmd.Flags().IntVar(&flagBlobs, "seed-blobs", 12, "Number of initial mass blobs")
	runCmd.Flags().Float64Var(&flagBlobMass, "blob-mass", 40, "Mass per initial blob")
	runCmd.Flags().BoolVar(&flagJSONLog, "log-json", false, "Emit JSON logs")

	rootCmd.AddCommand(runCmd, configCmd)
}

func runSimulation(cmd *cobra.Command, args []string) error {
	if err := config.Init(flagConfig); err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	cfg := config.Cfg()

	if flagSeed != 0 {
		cfg.Grid.Seed = flagSeed
	} else if cfg.Grid.Seed == 0 {
		cfg.Grid.Seed = time.Now().UnixNano()
	}
	if flagOutputDir != "" {
		cfg.Telemetry.OutputDir = flagOutputDir
	}
	if flagStorePath != "" {
		cfg.Telemetry.StorePath = flagStorePath
	}

	var handler slog.Handler
	if flagJSONLog {
		handler = slog.NewJSONHandler(os.Stdout, nil)
	} else {
		handler = slog.NewTextHandler(os.Stdout, nil)
	}
	logger := slog.New(handler)
	slog.SetDefault(logger)

	eng, err := engine.New(cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := eng.Close(); cerr != nil {
			logger.Warn("close failed", "err", cerr)
		}
	}()

	eng.SeedRandom(flagBlobs, 6, flagBlobMass)
	logger.Info("simulation started",
		"grid", cfg.Grid.Size,
		"seed", cfg.Grid.Seed,
		"frames", flagFrames,
		"blobs", flagBlobs,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	start := time.Now()
	err = eng.Run(ctx, flagFrames)
	switch {
	case errors.Is(err, context.Canceled):
		logger.Info("interrupted", "frame", eng.Frame())
	case err != nil:
		return err
	}

	elapsed := time.Since(start)
	logger.Info("simulation finished",
		"frames", eng.Frame(),
		"elapsed", elapsed.Round(time.Millisecond),
		"population", len(eng.Tracker.Creatures()),
	)
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
