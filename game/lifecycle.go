package game

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/pthm-cable/hummingbird/agent"
	"github.com/pthm-cable/hummingbird/config"
	"github.com/pthm-cable/hummingbird/flower"
	"github.com/pthm-cable/hummingbird/scene"
	"github.com/pthm-cable/hummingbird/storage"
	"github.com/pthm-cable/hummingbird/systems"
	"github.com/pthm-cable/hummingbird/telemetry"
)

// New builds the world, the flower area and an initialized agent, and opens
// the configured outputs. A policy must be set before stepping.
func New(ctx context.Context, cfg *config.Config, opts Options) (*Game, error) {
	if opts.RunID == "" {
		opts.RunID = uuid.NewString()
	}
	if opts.Mode == "" {
		opts.Mode = ModeRun
	}

	g := &Game{
		cfg:       cfg,
		opts:      opts,
		rng:       rand.New(rand.NewSource(opts.Seed)),
		collector: telemetry.NewCollector(cfg.Telemetry.StatsWindow),
		perf:      telemetry.NewPerfCollector(0),
		bookmarks: telemetry.NewBookmarkDetector(10),
		startedAt: time.Now(),
	}

	doc, err := g.loadScene()
	if err != nil {
		return nil, err
	}

	g.world = systems.NewWorld(cfg.Physics)
	if g.built, err = scene.Build(g.world, doc); err != nil {
		return nil, fmt.Errorf("building scene: %w", err)
	}
	g.area = flower.NewArea(g.world, g.built, g.rng, cfg.Area, cfg.Flower)
	if len(g.area.Flowers()) == 0 {
		return nil, fmt.Errorf("scene has no flowers")
	}

	g.agent = agent.New(g.world, g.area, cfg, g.rng)
	g.agent.Initialize(opts.Training)

	if err := g.openOutputs(ctx); err != nil {
		g.Close()
		return nil, err
	}

	slog.Info("environment ready",
		"run_id", opts.RunID,
		"mode", opts.Mode,
		"seed", opts.Seed,
		"training", opts.Training,
		"flowers", len(g.area.Flowers()),
		"plants", len(g.area.Plants()),
		"max_step", g.agent.MaxStep(),
	)
	return g, nil
}

func (g *Game) loadScene() (*scene.Document, error) {
	path := g.opts.ScenePath
	if path == "" {
		path = g.cfg.Scene.Path
	}
	if path != "" {
		doc, err := scene.Load(path)
		if err != nil {
			return nil, fmt.Errorf("loading scene: %w", err)
		}
		return doc, nil
	}
	return scene.Generate(g.rng, scene.GardenOptionsFromConfig(g.cfg.Scene)), nil
}

func (g *Game) openOutputs(ctx context.Context) error {
	var err error
	if g.output, err = telemetry.NewOutputManager(g.opts.OutputDir); err != nil {
		return err
	}
	if err := g.output.WriteConfig(g.cfg); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	if g.recorder, err = telemetry.NewRecorder(g.opts.RecordDir, g.opts.RunID); err != nil {
		return err
	}

	if g.opts.DatabasePath != "" {
		store := storage.NewSQLiteStore(g.opts.DatabasePath)
		if err := store.Init(ctx); err != nil {
			return fmt.Errorf("opening run database: %w", err)
		}
		g.store = store

		cfgYAML, err := g.cfg.YAML()
		if err != nil {
			return err
		}
		if err := store.CreateRun(ctx, storage.Run{
			ID:         g.opts.RunID,
			Mode:       g.opts.Mode,
			Seed:       g.opts.Seed,
			Training:   g.opts.Training,
			StartedAt:  g.startedAt,
			ConfigYAML: string(cfgYAML),
		}); err != nil {
			return err
		}
	}
	return nil
}

// Close flushes and closes every output.
func (g *Game) Close() error {
	var firstErr error
	keep := func(err error) {
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}

	if g.collector.Pending() > 0 {
		g.flushWindow()
	}
	keep(g.output.Close())
	keep(g.recorder.Close())
	if g.store != nil {
		keep(g.store.FinishRun(context.Background(), g.opts.RunID, time.Now()))
		keep(g.store.Close())
	}

	slog.Info("environment closed",
		"run_id", g.opts.RunID,
		"episodes", g.collector.TotalEpisodes(),
		"total_nectar", g.collector.TotalNectar(),
	)
	return firstErr
}
