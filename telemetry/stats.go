package telemetry

import (
	"log/slog"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/hummingbird/agent"
)

// Spawn strategy labels.
const (
	SpawnInFront = "in_front"
	SpawnFree    = "free"
)

// EpisodeRecord is one finished episode.
type EpisodeRecord struct {
	Episode          int     `csv:"episode"`
	Steps            int     `csv:"steps"`
	NectarObtained   float64 `csv:"nectar"`
	CumulativeReward float64 `csv:"reward"`
	FeedEvents       int     `csv:"feed_events"`
	BoundaryHits     int     `csv:"boundary_hits"`
	FlowersEmptied   int     `csv:"flowers_emptied"`
	Spawn            string  `csv:"spawn"`
	SpawnAttempts    int     `csv:"spawn_attempts"`
	Interrupted      bool    `csv:"interrupted"`
}

// NewEpisodeRecord flattens the agent's episode stats.
func NewEpisodeRecord(s agent.EpisodeStats) EpisodeRecord {
	spawn := SpawnFree
	if s.SpawnInFront {
		spawn = SpawnInFront
	}
	return EpisodeRecord{
		Episode:          s.Episode,
		Steps:            s.Steps,
		NectarObtained:   s.NectarObtained,
		CumulativeReward: s.CumulativeReward,
		FeedEvents:       s.FeedEvents,
		BoundaryHits:     s.BoundaryHits,
		FlowersEmptied:   s.FlowersEmptied,
		Spawn:            spawn,
		SpawnAttempts:    s.SpawnAttempts,
		Interrupted:      s.Interrupted,
	}
}

// LogValue implements slog.LogValuer for structured logging.
func (r EpisodeRecord) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("episode", r.Episode),
		slog.Int("steps", r.Steps),
		slog.Float64("nectar", r.NectarObtained),
		slog.Float64("reward", r.CumulativeReward),
		slog.Int("feed_events", r.FeedEvents),
		slog.Int("boundary_hits", r.BoundaryHits),
		slog.Int("flowers_emptied", r.FlowersEmptied),
		slog.String("spawn", r.Spawn),
		slog.Int("spawn_attempts", r.SpawnAttempts),
		slog.Bool("interrupted", r.Interrupted),
	)
}

// WindowStats holds aggregated statistics over a window of episodes.
type WindowStats struct {
	FirstEpisode int `csv:"first_episode"`
	LastEpisode  int `csv:"last_episode"`
	Episodes     int `csv:"episodes"`

	RewardMean float64 `csv:"reward_mean"`
	RewardStd  float64 `csv:"reward_std"`
	RewardP10  float64 `csv:"reward_p10"`
	RewardP50  float64 `csv:"reward_p50"`
	RewardP90  float64 `csv:"reward_p90"`
	RewardMax  float64 `csv:"reward_max"`

	NectarMean float64 `csv:"nectar_mean"`
	NectarStd  float64 `csv:"nectar_std"`
	NectarP10  float64 `csv:"nectar_p10"`
	NectarP50  float64 `csv:"nectar_p50"`
	NectarP90  float64 `csv:"nectar_p90"`
	NectarMax  float64 `csv:"nectar_max"`

	StepsMean       float64 `csv:"steps_mean"`
	BoundaryHits    int     `csv:"boundary_hits"`
	FlowersEmptied  int     `csv:"flowers_emptied"`
	InFrontFraction float64 `csv:"in_front_fraction"`
	InterruptedRate float64 `csv:"interrupted_rate"`
}

// Summary is the distribution of one quantity.
type Summary struct {
	Mean, Std, P10, P50, P90, Max float64
}

// Percentile calculates the p-th percentile of a sorted slice.
// p should be in [0, 1]. Returns 0 if slice is empty.
func Percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[n-1]
	}

	// Linear interpolation
	idx := p * float64(n-1)
	lo := int(idx)
	hi := lo + 1
	if hi >= n {
		return sorted[n-1]
	}

	frac := idx - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

// ComputeStats calculates mean, sample standard deviation, percentiles and
// maximum. An empty slice yields zeros.
func ComputeStats(values []float64) Summary {
	n := len(values)
	if n == 0 {
		return Summary{}
	}

	var s Summary
	if n == 1 {
		s.Mean = values[0]
	} else {
		s.Mean, s.Std = stat.MeanStdDev(values, nil)
	}
	s.Max = floats.Max(values)

	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)

	s.P10 = Percentile(sorted, 0.10)
	s.P50 = Percentile(sorted, 0.50)
	s.P90 = Percentile(sorted, 0.90)
	return s
}

// ComputeWindowStats aggregates a window of episodes.
func ComputeWindowStats(records []EpisodeRecord) WindowStats {
	if len(records) == 0 {
		return WindowStats{}
	}

	rewards := make([]float64, len(records))
	nectar := make([]float64, len(records))
	steps := make([]float64, len(records))
	ws := WindowStats{
		FirstEpisode: records[0].Episode,
		LastEpisode:  records[len(records)-1].Episode,
		Episodes:     len(records),
	}

	var inFront, interrupted int
	for i, r := range records {
		rewards[i] = r.CumulativeReward
		nectar[i] = r.NectarObtained
		steps[i] = float64(r.Steps)
		ws.BoundaryHits += r.BoundaryHits
		ws.FlowersEmptied += r.FlowersEmptied
		if r.Spawn == SpawnInFront {
			inFront++
		}
		if r.Interrupted {
			interrupted++
		}
	}

	reward := ComputeStats(rewards)
	ws.RewardMean, ws.RewardStd = reward.Mean, reward.Std
	ws.RewardP10, ws.RewardP50, ws.RewardP90 = reward.P10, reward.P50, reward.P90
	ws.RewardMax = reward.Max

	nec := ComputeStats(nectar)
	ws.NectarMean, ws.NectarStd = nec.Mean, nec.Std
	ws.NectarP10, ws.NectarP50, ws.NectarP90 = nec.P10, nec.P50, nec.P90
	ws.NectarMax = nec.Max

	ws.StepsMean = stat.Mean(steps, nil)
	ws.InFrontFraction = float64(inFront) / float64(len(records))
	ws.InterruptedRate = float64(interrupted) / float64(len(records))
	return ws
}

// LogStats logs the window stats using slog.
func (s WindowStats) LogStats() {
	slog.Info("stats",
		"first_episode", s.FirstEpisode,
		"last_episode", s.LastEpisode,
		"episodes", s.Episodes,
		"reward_mean", s.RewardMean,
		"reward_std", s.RewardStd,
		"reward_p10", s.RewardP10,
		"reward_p50", s.RewardP50,
		"reward_p90", s.RewardP90,
		"reward_max", s.RewardMax,
		"nectar_mean", s.NectarMean,
		"nectar_p50", s.NectarP50,
		"nectar_max", s.NectarMax,
		"steps_mean", s.StepsMean,
		"boundary_hits", s.BoundaryHits,
		"flowers_emptied", s.FlowersEmptied,
		"in_front_fraction", s.InFrontFraction,
		"interrupted_rate", s.InterruptedRate,
	)
}
