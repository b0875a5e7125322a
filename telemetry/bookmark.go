package telemetry

import (
	"fmt"
	"log/slog"
)

// BookmarkType identifies the type of bookmark.
type BookmarkType string

const (
	BookmarkRewardBreakthrough BookmarkType = "reward_breakthrough"
	BookmarkNectarRecord       BookmarkType = "nectar_record"
	BookmarkBoundaryRegression BookmarkType = "boundary_regression"
	BookmarkStablePolicy       BookmarkType = "stable_policy"
)

// Bookmark represents an automatically triggered bookmark.
type Bookmark struct {
	Type        BookmarkType `json:"type" csv:"type"`
	Episode     int          `json:"episode" csv:"episode"`
	Description string       `json:"description" csv:"description"`
}

// LogBookmark logs the bookmark using slog.
func (b Bookmark) LogBookmark() {
	slog.Info("bookmark",
		"type", string(b.Type),
		"episode", b.Episode,
		"description", b.Description,
	)
}

// BookmarkDetector detects notable windows during a run.
type BookmarkDetector struct {
	// Rolling history (circular buffer)
	history     []WindowStats
	historySize int
	historyIdx  int
	historyFull bool

	bestNectar         float64
	stableWindowsCount int
}

// NewBookmarkDetector creates a detector with the given history size.
func NewBookmarkDetector(historySize int) *BookmarkDetector {
	if historySize < 5 {
		historySize = 5 // minimum for stable policy detection
	}
	return &BookmarkDetector{
		history:     make([]WindowStats, historySize),
		historySize: historySize,
	}
}

// Check analyzes the latest stats and returns any triggered bookmarks.
func (bd *BookmarkDetector) Check(stats WindowStats) []Bookmark {
	var bookmarks []Bookmark

	if bd.historyFull || bd.historyIdx > 0 {
		// Reward breakthrough: mean reward > 2x rolling average
		if b := bd.checkRewardBreakthrough(stats); b != nil {
			bookmarks = append(bookmarks, *b)
		}

		// Nectar record: best single episode so far
		if b := bd.checkNectarRecord(stats); b != nil {
			bookmarks = append(bookmarks, *b)
		}

		// Boundary regression: collisions per episode > 2x rolling average
		if b := bd.checkBoundaryRegression(stats); b != nil {
			bookmarks = append(bookmarks, *b)
		}

		// Stable policy: low reward variation across 5 windows
		if b := bd.checkStablePolicy(stats); b != nil {
			bookmarks = append(bookmarks, *b)
		}
	}

	bd.addToHistory(stats)
	if stats.NectarMax > bd.bestNectar {
		bd.bestNectar = stats.NectarMax
	}

	return bookmarks
}

func (bd *BookmarkDetector) addToHistory(stats WindowStats) {
	bd.history[bd.historyIdx] = stats
	bd.historyIdx = (bd.historyIdx + 1) % bd.historySize
	if bd.historyIdx == 0 {
		bd.historyFull = true
	}
}

// getHistory returns the recorded windows, oldest first.
func (bd *BookmarkDetector) getHistory() []WindowStats {
	if !bd.historyFull {
		return bd.history[:bd.historyIdx]
	}
	ordered := make([]WindowStats, 0, bd.historySize)
	ordered = append(ordered, bd.history[bd.historyIdx:]...)
	return append(ordered, bd.history[:bd.historyIdx]...)
}

func (bd *BookmarkDetector) checkRewardBreakthrough(stats WindowStats) *Bookmark {
	history := bd.getHistory()
	if len(history) < 3 {
		return nil
	}

	var total float64
	for _, h := range history {
		total += h.RewardMean
	}
	avg := total / float64(len(history))
	if avg <= 0 {
		return nil
	}

	if stats.RewardMean > avg*2.0 && stats.RewardMean >= 1.0 {
		return &Bookmark{
			Type:        BookmarkRewardBreakthrough,
			Episode:     stats.LastEpisode,
			Description: fmt.Sprintf("Mean reward %.2f is %.1fx average (%.2f)", stats.RewardMean, stats.RewardMean/avg, avg),
		}
	}
	return nil
}

func (bd *BookmarkDetector) checkNectarRecord(stats WindowStats) *Bookmark {
	if bd.bestNectar <= 0 || stats.NectarMax <= bd.bestNectar {
		return nil
	}
	return &Bookmark{
		Type:        BookmarkNectarRecord,
		Episode:     stats.LastEpisode,
		Description: fmt.Sprintf("Nectar record %.3f (previous %.3f)", stats.NectarMax, bd.bestNectar),
	}
}

func (bd *BookmarkDetector) checkBoundaryRegression(stats WindowStats) *Bookmark {
	history := bd.getHistory()
	if len(history) < 3 || stats.Episodes == 0 {
		return nil
	}

	var hits, episodes int
	for _, h := range history {
		hits += h.BoundaryHits
		episodes += h.Episodes
	}
	if hits == 0 || episodes == 0 {
		return nil
	}
	avg := float64(hits) / float64(episodes)
	current := float64(stats.BoundaryHits) / float64(stats.Episodes)

	if current > avg*2.0 && stats.BoundaryHits >= 3 {
		return &Bookmark{
			Type:        BookmarkBoundaryRegression,
			Episode:     stats.LastEpisode,
			Description: fmt.Sprintf("Boundary hits %.2f per episode is %.1fx average (%.2f)", current, current/avg, avg),
		}
	}
	return nil
}

func (bd *BookmarkDetector) checkStablePolicy(stats WindowStats) *Bookmark {
	if stats.RewardMean <= 0 {
		bd.stableWindowsCount = 0
		return nil
	}

	history := bd.getHistory()
	if len(history) < 4 {
		return nil
	}

	recent := history[len(history)-4:]
	var sum float64
	for _, h := range recent {
		sum += h.RewardMean
	}
	mean := sum / 4

	var variance float64
	for _, h := range recent {
		d := h.RewardMean - mean
		variance += d * d
	}
	variance /= 4

	// CV^2 < 0.04 means CV < 0.2
	if mean > 0 && variance/(mean*mean) < 0.04 {
		bd.stableWindowsCount++
	} else {
		bd.stableWindowsCount = 0
	}

	if bd.stableWindowsCount == 5 { // trigger exactly once at 5 windows
		return &Bookmark{
			Type:        BookmarkStablePolicy,
			Episode:     stats.LastEpisode,
			Description: fmt.Sprintf("Mean reward stable around %.2f over 5+ windows", mean),
		}
	}
	return nil
}
