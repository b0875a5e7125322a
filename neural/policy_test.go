package neural

import (
	"context"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFFNNPolicyMatchesForward(t *testing.T) {
	nn := NewFFNN(rand.New(rand.NewSource(3)))
	p := NewFFNNPolicy(nn)

	obs := []float64{0, 0, 0, 1, 0.5, -0.5, 0.1, 0.9, -0.2, 0.3}
	act, err := p.Act(context.Background(), Decision{Observation: obs})
	require.NoError(t, err)

	inputs := make([]float32, NumInputs)
	for i := range inputs {
		inputs[i] = float32(obs[i])
	}
	out := nn.Forward(inputs)
	for i := range act {
		assert.InDelta(t, float64(out[i]), act[i], 1e-9)
	}
	assert.NoError(t, p.EndEpisode(context.Background(), Decision{}))
}

func TestRandomPolicyRange(t *testing.T) {
	p := NewRandomPolicy(rand.New(rand.NewSource(5)))
	for i := 0; i < 200; i++ {
		act, err := p.Act(context.Background(), Decision{})
		require.NoError(t, err)
		for _, v := range act {
			assert.GreaterOrEqual(t, v, -1.0)
			assert.Less(t, v, 1.0)
		}
	}
}
