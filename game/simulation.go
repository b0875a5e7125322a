package game

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/pthm-cable/hummingbird/agent"
	"github.com/pthm-cable/hummingbird/neural"
	"github.com/pthm-cable/hummingbird/telemetry"
)

// ErrNoPolicy is returned by Step when no policy has been set.
var ErrNoPolicy = errors.New("game: no policy set")

// StepResult describes one environment step.
type StepResult struct {
	Episode     int
	Step        int
	Observation []float64
	Action      agent.Action
	Reward      float64 // reward delivered with this step's observation
	Done        bool
	Interrupted bool
}

// Step runs one fixed update: reset if needed, refresh the target, observe,
// act, integrate, dispatch contacts, then check for the end of the episode.
func (g *Game) Step(ctx context.Context) (StepResult, error) {
	if g.policy == nil {
		return StepResult{}, ErrNoPolicy
	}

	g.perf.StartStep()
	defer g.perf.EndStep()

	g.perf.StartPhase(telemetry.PhaseReset)
	if g.agent.State() != agent.EpisodeActive {
		g.agent.OnEpisodeBegin()
	}
	g.agent.FixedUpdate()

	g.perf.StartPhase(telemetry.PhaseObserve)
	stats := g.agent.Stats()
	res := StepResult{
		Episode:     stats.Episode,
		Step:        stats.Steps,
		Observation: g.agent.CollectObservations(),
		Reward:      g.agent.TakeReward(),
	}

	g.perf.StartPhase(telemetry.PhasePolicy)
	act, err := g.policy.Act(ctx, neural.Decision{
		Episode:     res.Episode,
		Step:        res.Step,
		Observation: res.Observation,
		Reward:      res.Reward,
	})
	if err != nil {
		if ctx.Err() != nil {
			return res, ctx.Err()
		}
		// The policy is gone for this episode; close it out as interrupted.
		g.agent.EndEpisode(true)
		g.finishEpisode(ctx)
		res.Done, res.Interrupted = true, true
		return res, fmt.Errorf("policy: %w", err)
	}
	res.Action = act

	g.agent.OnActionReceived(act)

	g.perf.StartPhase(telemetry.PhasePhysics)
	contacts := g.world.Step(g.cfg.Physics.DT)

	g.perf.StartPhase(telemetry.PhaseContacts)
	g.agent.HandleContacts(contacts)

	res.Done = g.agent.AdvanceStep()
	if !res.Done && g.opts.MaxSteps > 0 && g.agent.Stats().Steps >= g.opts.MaxSteps {
		g.agent.EndEpisode(true)
		res.Done = true
	}
	res.Interrupted = res.Done && g.agent.Stats().Interrupted

	g.perf.StartPhase(telemetry.PhaseTelemetry)
	g.lastAction, g.lastReward = act, res.Reward
	g.recordFrame(res)
	if res.Done {
		g.finishEpisode(ctx)
	}

	if g.OnStep != nil {
		g.OnStep(res)
	}
	return res, nil
}

func (g *Game) recordFrame(res StepResult) {
	if g.recorder == nil {
		return
	}
	pos := g.agent.Position()
	err := g.recorder.Record(telemetry.Frame{
		Episode:     res.Episode,
		Step:        res.Step,
		Observation: res.Observation,
		Action:      res.Action,
		Reward:      res.Reward,
		Position:    [3]float64(pos),
		Nectar:      g.agent.NectarObtained(),
		Done:        res.Done,
	})
	if err != nil {
		slog.Error("failed to record frame", "error", err)
	}
}

// Run steps until MaxEpisodes episodes have finished or ctx is cancelled.
// Policy errors stop the run unless ContinueOnPolicyError is set.
func (g *Game) Run(ctx context.Context) error {
	var tick <-chan time.Time
	if g.opts.Realtime {
		ticker := time.NewTicker(time.Duration(g.cfg.Physics.DT * float64(time.Second)))
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		if g.opts.MaxEpisodes > 0 && g.collector.TotalEpisodes() >= g.opts.MaxEpisodes {
			return nil
		}
		if tick != nil {
			select {
			case <-ctx.Done():
				return nil
			case <-tick:
			}
		} else if ctx.Err() != nil {
			return nil
		}

		if _, err := g.Step(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if !g.opts.ContinueOnPolicyError || errors.Is(err, ErrNoPolicy) {
				return err
			}
			slog.Warn("episode halted", "error", err)
		}
	}
}
