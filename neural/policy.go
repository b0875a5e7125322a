package neural

import (
	"context"
	"math/rand"

	"github.com/pthm-cable/hummingbird/agent"
	"github.com/pthm-cable/hummingbird/input"
)

// Decision is what a policy sees at each step.
type Decision struct {
	Episode     int
	Step        int
	Observation []float64
	Reward      float64 // reward since the previous decision
	Interrupted bool    // set on EndEpisode when the step limit cut the episode
}

// Policy maps observations to actions. Act blocks until an action is
// available; EndEpisode reports the final observation and reward.
type Policy interface {
	Act(ctx context.Context, d Decision) (agent.Action, error)
	EndEpisode(ctx context.Context, d Decision) error
}

// FFNNPolicy runs a fixed network. Inference only.
type FFNNPolicy struct {
	nn     *FFNN
	inputs []float32
}

// NewFFNNPolicy wraps a network as a policy.
func NewFFNNPolicy(nn *FFNN) *FFNNPolicy {
	return &FFNNPolicy{nn: nn, inputs: make([]float32, NumInputs)}
}

// Act evaluates the network on the observation.
func (p *FFNNPolicy) Act(_ context.Context, d Decision) (agent.Action, error) {
	for i := range p.inputs {
		p.inputs[i] = float32(d.Observation[i])
	}
	out := p.nn.Forward(p.inputs)

	var act agent.Action
	for i := range act {
		act[i] = float64(out[i])
	}
	return act, nil
}

// EndEpisode is a no-op.
func (p *FFNNPolicy) EndEpisode(context.Context, Decision) error { return nil }

// RandomPolicy samples every action component uniformly from [-1, 1].
type RandomPolicy struct {
	rng *rand.Rand
}

// NewRandomPolicy creates a random policy.
func NewRandomPolicy(rng *rand.Rand) *RandomPolicy {
	return &RandomPolicy{rng: rng}
}

// Act returns a random action.
func (p *RandomPolicy) Act(context.Context, Decision) (agent.Action, error) {
	var act agent.Action
	for i := range act {
		act[i] = p.rng.Float64()*2 - 1
	}
	return act, nil
}

// EndEpisode is a no-op.
func (p *RandomPolicy) EndEpisode(context.Context, Decision) error { return nil }

// KeySource reports the currently held keys.
type KeySource interface {
	State() input.KeyState
}

// HeuristicPolicy drives the agent from manual controls.
type HeuristicPolicy struct {
	agent *agent.Agent
	keys  KeySource
}

// NewHeuristicPolicy creates a manual-control policy for an agent.
func NewHeuristicPolicy(a *agent.Agent, keys KeySource) *HeuristicPolicy {
	return &HeuristicPolicy{agent: a, keys: keys}
}

// Act reads the keys and converts them with the agent's heuristic.
func (p *HeuristicPolicy) Act(context.Context, Decision) (agent.Action, error) {
	return p.agent.Heuristic(p.keys.State()), nil
}

// EndEpisode is a no-op.
func (p *HeuristicPolicy) EndEpisode(context.Context, Decision) error { return nil }
