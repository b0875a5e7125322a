// Package game drives the environment: one agent, one flower area and a
// policy, stepped at the fixed physics rate.
package game

import (
	"math/rand"
	"time"

	"github.com/pthm-cable/hummingbird/agent"
	"github.com/pthm-cable/hummingbird/config"
	"github.com/pthm-cable/hummingbird/flower"
	"github.com/pthm-cable/hummingbird/neural"
	"github.com/pthm-cable/hummingbird/scene"
	"github.com/pthm-cable/hummingbird/storage"
	"github.com/pthm-cable/hummingbird/systems"
	"github.com/pthm-cable/hummingbird/telemetry"
)

// Game holds the environment state.
type Game struct {
	cfg  *config.Config
	opts Options
	rng  *rand.Rand

	world *systems.World
	built *scene.Built
	area  *flower.Area
	agent *agent.Agent

	policy neural.Policy

	// Telemetry
	collector *telemetry.Collector
	perf      *telemetry.PerfCollector
	bookmarks *telemetry.BookmarkDetector
	output    *telemetry.OutputManager
	recorder  *telemetry.Recorder
	store     *storage.SQLiteStore
	startedAt time.Time

	lastAction agent.Action
	lastReward float64
	snapshots  int

	// OnEpisode is called after each finished episode is recorded.
	OnEpisode func(telemetry.EpisodeRecord)
	// OnStep is called after each step.
	OnStep func(StepResult)
}

// SetPolicy sets the policy that chooses actions.
func (g *Game) SetPolicy(p neural.Policy) { g.policy = p }

// Agent returns the hummingbird agent.
func (g *Game) Agent() *agent.Agent { return g.agent }

// Area returns the flower area.
func (g *Game) Area() *flower.Area { return g.area }

// World returns the physics world.
func (g *Game) World() *systems.World { return g.world }

// Config returns the environment configuration.
func (g *Game) Config() *config.Config { return g.cfg }

// Options returns the options the game was created with.
func (g *Game) Options() Options { return g.opts }

// RunID returns the run identifier.
func (g *Game) RunID() string { return g.opts.RunID }

// Collector returns the episode collector.
func (g *Game) Collector() *telemetry.Collector { return g.collector }

// Perf returns the step timing collector.
func (g *Game) Perf() *telemetry.PerfCollector { return g.perf }

// Snapshots returns the number of snapshots written.
func (g *Game) Snapshots() int { return g.snapshots }

// Freeze stops the agent. Play mode only.
func (g *Game) Freeze() { g.agent.Freeze() }

// Unfreeze resumes the agent. Play mode only.
func (g *Game) Unfreeze() { g.agent.Unfreeze() }
