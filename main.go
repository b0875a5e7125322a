package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/pthm-cable/hummingbird/config"
	"github.com/pthm-cable/hummingbird/game"
)

// flags shared by every command
type rootFlags struct {
	configPath  string
	seed        int64
	scenePath   string
	logStats    bool
	outputDir   string
	snapshotDir string
	recordDir   string
	dbPath      string
	maxEpisodes int
	maxSteps    int
}

func main() {
	// .env is optional
	_ = godotenv.Load()

	var rf rootFlags
	root := &cobra.Command{
		Use:           "hummingbird",
		Short:         "Hummingbird nectar-feeding environment",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return config.Init(rf.configPath)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&rf.configPath, "config", os.Getenv("HUMMINGBIRD_CONFIG"), "Path to config.yaml (empty = use defaults)")
	pf.Int64Var(&rf.seed, "seed", 0, "RNG seed (0 = time-based)")
	pf.StringVar(&rf.scenePath, "scene", "", "Scene file (overrides scene.path)")
	pf.BoolVar(&rf.logStats, "log-stats", false, "Output episode and window stats via slog")
	pf.StringVar(&rf.outputDir, "output-dir", "", "Output directory for CSV logs and config snapshot")
	pf.StringVar(&rf.snapshotDir, "snapshot-dir", "", "Directory for bookmark snapshots")
	pf.StringVar(&rf.recordDir, "record-dir", "", "Directory for step recordings")
	pf.StringVar(&rf.dbPath, "db", os.Getenv("HUMMINGBIRD_DB"), "SQLite run database")
	pf.IntVar(&rf.maxEpisodes, "max-episodes", 0, "Stop after N episodes (0 = unlimited)")
	pf.IntVar(&rf.maxSteps, "max-steps", 0, "End episodes after N steps (0 = agent limit only)")

	root.AddCommand(runCmd(&rf), serveCmd(&rf), playCmd(&rf))

	if err := root.Execute(); err != nil {
		slog.Error("command failed", "error", err)
		os.Exit(1)
	}
}

// options builds game options from the shared flags.
func (rf *rootFlags) options(mode string, training bool) game.Options {
	seed := rf.seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return game.Options{
		Mode:         mode,
		Seed:         seed,
		Training:     training,
		ScenePath:    rf.scenePath,
		MaxEpisodes:  rf.maxEpisodes,
		MaxSteps:     rf.maxSteps,
		LogStats:     rf.logStats,
		OutputDir:    rf.outputDir,
		SnapshotDir:  rf.snapshotDir,
		RecordDir:    rf.recordDir,
		DatabasePath: rf.dbPath,
	}
}

// useJSONLogs sets up slog as JSON to stdout for structured logging.
func useJSONLogs() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
