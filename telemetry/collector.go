package telemetry

import "github.com/pthm-cable/hummingbird/agent"

// Collector accumulates finished episodes into fixed-size windows.
type Collector struct {
	windowSize int
	window     []EpisodeRecord

	totalEpisodes int
	totalNectar   float64
	bestReward    float64
}

// NewCollector creates a collector that flushes every windowSize episodes.
func NewCollector(windowSize int) *Collector {
	if windowSize < 1 {
		windowSize = 1
	}
	return &Collector{
		windowSize: windowSize,
		window:     make([]EpisodeRecord, 0, windowSize),
	}
}

// RecordEpisode adds a finished episode and returns its flat record.
func (c *Collector) RecordEpisode(s agent.EpisodeStats) EpisodeRecord {
	r := NewEpisodeRecord(s)
	c.window = append(c.window, r)

	if c.totalEpisodes == 0 || r.CumulativeReward > c.bestReward {
		c.bestReward = r.CumulativeReward
	}
	c.totalEpisodes++
	c.totalNectar += r.NectarObtained
	return r
}

// ShouldFlush returns true once the current window is full.
func (c *Collector) ShouldFlush() bool {
	return len(c.window) >= c.windowSize
}

// Flush aggregates the buffered episodes and starts a new window.
// Flushing an empty window returns zero stats.
func (c *Collector) Flush() WindowStats {
	stats := ComputeWindowStats(c.window)
	c.window = c.window[:0]
	return stats
}

// Pending returns the number of episodes in the current window.
func (c *Collector) Pending() int { return len(c.window) }

// TotalEpisodes returns the number of episodes recorded so far.
func (c *Collector) TotalEpisodes() int { return c.totalEpisodes }

// TotalNectar returns the nectar obtained over all episodes.
func (c *Collector) TotalNectar() float64 { return c.totalNectar }

// BestReward returns the highest cumulative reward of any episode.
func (c *Collector) BestReward() float64 { return c.bestReward }

// WindowSize returns the number of episodes per window.
func (c *Collector) WindowSize() int { return c.windowSize }
