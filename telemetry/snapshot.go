package telemetry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pthm-cable/hummingbird/agent"
	"github.com/pthm-cable/hummingbird/flower"
)

// SnapshotVersion is incremented when the format changes.
const SnapshotVersion = 1

// Snapshot holds the observable environment state at one step.
type Snapshot struct {
	Version int    `json:"version"`
	RunID   string `json:"run_id,omitempty"`
	RNGSeed int64  `json:"rng_seed"`

	Episode int `json:"episode"`
	Step    int `json:"step"`

	Agent   AgentState    `json:"agent"`
	Flowers []FlowerState `json:"flowers"`

	Bookmark *Bookmark `json:"bookmark,omitempty"`
}

// AgentState is the agent's pose and episode progress.
type AgentState struct {
	Position         [3]float64 `json:"position"`
	Rotation         [4]float64 `json:"rotation"` // x, y, z, w
	BeakTip          [3]float64 `json:"beak_tip"`
	NectarObtained   float64    `json:"nectar_obtained"`
	CumulativeReward float64    `json:"cumulative_reward"`
	Frozen           bool       `json:"frozen"`
	NearestFlower    string     `json:"nearest_flower,omitempty"`
}

// FlowerState is one flower's position and remaining nectar.
type FlowerState struct {
	Name         string     `json:"name"`
	Position     [3]float64 `json:"position"`
	NectarAmount float64    `json:"nectar_amount"`
}

// Capture builds a snapshot of the agent and every flower in the area.
func Capture(a *agent.Agent, area *flower.Area) *Snapshot {
	stats := a.Stats()
	pos, rot, tip := a.Position(), a.Rotation(), a.BeakTipPosition()

	s := &Snapshot{
		Version: SnapshotVersion,
		Episode: stats.Episode,
		Step:    stats.Steps,
		Agent: AgentState{
			Position:         [3]float64(pos),
			Rotation:         [4]float64{rot.V.X(), rot.V.Y(), rot.V.Z(), rot.W},
			BeakTip:          [3]float64(tip),
			NectarObtained:   stats.NectarObtained,
			CumulativeReward: a.CumulativeReward(),
			Frozen:           a.Frozen(),
		},
	}
	if f := a.NearestFlower(); f != nil {
		s.Agent.NearestFlower = f.Name()
	}
	for _, f := range area.Flowers() {
		s.Flowers = append(s.Flowers, FlowerState{
			Name:         f.Name(),
			Position:     [3]float64(f.Position()),
			NectarAmount: f.NectarAmount(),
		})
	}
	return s
}

// SaveSnapshot writes a snapshot to disk.
// Returns the filepath where it was saved.
func SaveSnapshot(snapshot *Snapshot, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create snapshot dir: %w", err)
	}

	name := fmt.Sprintf("snapshot_%d_%d", snapshot.Episode, snapshot.Step)
	if snapshot.Bookmark != nil {
		sanitized := strings.ReplaceAll(string(snapshot.Bookmark.Type), " ", "_")
		name += "_" + sanitized
	}
	path := filepath.Join(dir, name+".json")

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal snapshot: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("write snapshot: %w", err)
	}
	return path, nil
}

// LoadSnapshot reads a snapshot from disk.
func LoadSnapshot(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}

	var snapshot Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	if snapshot.Version != SnapshotVersion {
		return nil, fmt.Errorf("unsupported snapshot version %d", snapshot.Version)
	}
	return &snapshot, nil
}
