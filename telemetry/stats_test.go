package telemetry

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pthm-cable/hummingbird/agent"
)

func TestPercentile(t *testing.T) {
	tests := []struct {
		name   string
		sorted []float64
		p      float64
		want   float64
	}{
		{"empty slice", []float64{}, 0.5, 0},
		{"single element", []float64{5.0}, 0.5, 5.0},
		{"p0", []float64{1, 2, 3, 4, 5}, 0.0, 1.0},
		{"p100", []float64{1, 2, 3, 4, 5}, 1.0, 5.0},
		{"p50 odd", []float64{1, 2, 3, 4, 5}, 0.5, 3.0},
		{"p50 even", []float64{1, 2, 3, 4}, 0.5, 2.5},
		{"p10", []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, 0.1, 1.9},
		{"p90", []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, 0.9, 9.1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Percentile(tt.sorted, tt.p)
			if math.Abs(got-tt.want) > 0.001 {
				t.Errorf("Percentile(%v, %v) = %v, want %v", tt.sorted, tt.p, got, tt.want)
			}
		})
	}
}

func TestComputeStats(t *testing.T) {
	values := []float64{1.0, 0.9, 0.8, 0.7, 0.6, 0.5, 0.4, 0.3, 0.2, 0.1}
	s := ComputeStats(values)

	assert.InDelta(t, 0.55, s.Mean, 1e-9)
	assert.InDelta(t, 0.19, s.P10, 1e-9)
	assert.InDelta(t, 0.55, s.P50, 1e-9)
	assert.InDelta(t, 0.91, s.P90, 1e-9)
	assert.InDelta(t, 1.0, s.Max, 1e-9)
	// sample standard deviation of 0.1..1.0
	assert.InDelta(t, 0.30277, s.Std, 1e-4)
}

func TestComputeStatsSmall(t *testing.T) {
	assert.Equal(t, Summary{}, ComputeStats(nil))

	one := ComputeStats([]float64{2.5})
	assert.Equal(t, Summary{Mean: 2.5, P10: 2.5, P50: 2.5, P90: 2.5, Max: 2.5}, one)
}

func TestComputeWindowStats(t *testing.T) {
	records := []EpisodeRecord{
		NewEpisodeRecord(agent.EpisodeStats{Episode: 3, Steps: 100, NectarObtained: 0.2, CumulativeReward: 2, BoundaryHits: 1, SpawnInFront: true}),
		NewEpisodeRecord(agent.EpisodeStats{Episode: 4, Steps: 300, NectarObtained: 0.4, CumulativeReward: 4, FlowersEmptied: 1, Interrupted: true}),
	}

	ws := ComputeWindowStats(records)

	assert.Equal(t, 3, ws.FirstEpisode)
	assert.Equal(t, 4, ws.LastEpisode)
	assert.Equal(t, 2, ws.Episodes)
	assert.InDelta(t, 3.0, ws.RewardMean, 1e-9)
	assert.InDelta(t, 4.0, ws.RewardMax, 1e-9)
	assert.InDelta(t, 0.3, ws.NectarMean, 1e-9)
	assert.InDelta(t, 200.0, ws.StepsMean, 1e-9)
	assert.Equal(t, 1, ws.BoundaryHits)
	assert.Equal(t, 1, ws.FlowersEmptied)
	assert.InDelta(t, 0.5, ws.InFrontFraction, 1e-9)
	assert.InDelta(t, 0.5, ws.InterruptedRate, 1e-9)

	assert.Equal(t, WindowStats{}, ComputeWindowStats(nil))
}

func TestNewEpisodeRecordSpawnLabel(t *testing.T) {
	assert.Equal(t, SpawnInFront, NewEpisodeRecord(agent.EpisodeStats{SpawnInFront: true}).Spawn)
	assert.Equal(t, SpawnFree, NewEpisodeRecord(agent.EpisodeStats{}).Spawn)
}
