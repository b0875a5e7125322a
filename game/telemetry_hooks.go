package game

import (
	"context"
	"log/slog"

	"github.com/pthm-cable/hummingbird/neural"
	"github.com/pthm-cable/hummingbird/telemetry"
)

// finishEpisode reports the final observation to the policy and records the
// episode. Every stats window is flushed to the outputs and checked for
// bookmarks.
func (g *Game) finishEpisode(ctx context.Context) {
	stats := g.agent.Stats()

	final := neural.Decision{
		Episode:     stats.Episode,
		Step:        stats.Steps,
		Observation: g.agent.CollectObservations(),
		Reward:      g.agent.TakeReward(),
		Interrupted: stats.Interrupted,
	}
	if err := g.policy.EndEpisode(ctx, final); err != nil {
		slog.Warn("policy end of episode failed", "episode", stats.Episode, "error", err)
	}

	rec := g.collector.RecordEpisode(stats)
	if err := g.output.WriteEpisode(rec); err != nil {
		slog.Error("failed to write episode", "error", err)
	}
	if g.store != nil {
		if err := g.store.SaveEpisode(ctx, g.opts.RunID, rec); err != nil {
			slog.Error("failed to save episode", "error", err)
		}
	}
	if g.opts.LogStats {
		slog.Info("episode", "record", rec)
	}
	if g.OnEpisode != nil {
		g.OnEpisode(rec)
	}

	if g.collector.ShouldFlush() {
		g.flushWindow()
	}
}

// flushWindow writes the pending window's aggregate stats and saves a
// snapshot for each bookmark it triggers.
func (g *Game) flushWindow() {
	ws := g.collector.Flush()
	perf := g.perf.Stats()

	if g.opts.LogStats {
		ws.LogStats()
		perf.LogStats()
	}
	if err := g.output.WriteStats(ws); err != nil {
		slog.Error("failed to write stats", "error", err)
	}
	if err := g.output.WritePerf(perf, ws.LastEpisode); err != nil {
		slog.Error("failed to write perf", "error", err)
	}

	for _, bm := range g.bookmarks.Check(ws) {
		if g.opts.LogStats {
			bm.LogBookmark()
		}
		g.saveSnapshot(&bm)
	}
}

func (g *Game) saveSnapshot(bm *telemetry.Bookmark) {
	if g.opts.SnapshotDir == "" {
		return
	}
	snap := telemetry.Capture(g.agent, g.area)
	snap.RunID = g.opts.RunID
	snap.RNGSeed = g.opts.Seed
	snap.Bookmark = bm

	path, err := telemetry.SaveSnapshot(snap, g.opts.SnapshotDir)
	if err != nil {
		slog.Error("failed to save snapshot", "error", err)
		return
	}
	g.snapshots++
	slog.Info("snapshot saved", "path", path, "bookmark", bm.Type)
}
