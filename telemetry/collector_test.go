package telemetry

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pthm-cable/hummingbird/agent"
)

func TestCollectorWindows(t *testing.T) {
	c := NewCollector(3)

	for i := 1; i <= 3; i++ {
		assert.False(t, c.ShouldFlush())
		c.RecordEpisode(agent.EpisodeStats{Episode: i, CumulativeReward: float64(i), NectarObtained: 0.1})
	}
	assert.True(t, c.ShouldFlush())

	ws := c.Flush()
	assert.Equal(t, 1, ws.FirstEpisode)
	assert.Equal(t, 3, ws.LastEpisode)
	assert.InDelta(t, 2.0, ws.RewardMean, 1e-9)
	assert.Equal(t, 0, c.Pending())
	assert.False(t, c.ShouldFlush())

	c.RecordEpisode(agent.EpisodeStats{Episode: 4, CumulativeReward: -1})
	assert.Equal(t, 4, c.TotalEpisodes())
	assert.InDelta(t, 0.3, c.TotalNectar(), 1e-9)
	assert.InDelta(t, 3.0, c.BestReward(), 1e-9)
}

func TestCollectorBestRewardStartsAtFirstEpisode(t *testing.T) {
	c := NewCollector(0)
	assert.Equal(t, 1, c.WindowSize())

	c.RecordEpisode(agent.EpisodeStats{Episode: 1, CumulativeReward: -0.5})
	assert.InDelta(t, -0.5, c.BestReward(), 1e-9)
	assert.True(t, c.ShouldFlush())
}
