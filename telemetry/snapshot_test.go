package telemetry

import (
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pthm-cable/hummingbird/agent"
	"github.com/pthm-cable/hummingbird/config"
	"github.com/pthm-cable/hummingbird/flower"
	"github.com/pthm-cable/hummingbird/scene"
	"github.com/pthm-cable/hummingbird/systems"
)

func TestSnapshotSaveLoad(t *testing.T) {
	tmpDir := t.TempDir()

	snapshot := &Snapshot{
		Version: SnapshotVersion,
		RunID:   "run-1",
		RNGSeed: 42,
		Episode: 12,
		Step:    340,
		Agent: AgentState{
			Position:       [3]float64{1, 2, 3},
			Rotation:       [4]float64{0, 0, 0, 1},
			NectarObtained: 0.25,
			NearestFlower:  "flower_0_1",
		},
		Flowers: []FlowerState{
			{Name: "flower_0_1", Position: [3]float64{1, 1, 1}, NectarAmount: 0.5},
		},
		Bookmark: &Bookmark{
			Type:        BookmarkNectarRecord,
			Episode:     12,
			Description: "Test bookmark",
		},
	}

	path, err := SaveSnapshot(snapshot, tmpDir)
	if err != nil {
		t.Fatalf("SaveSnapshot failed: %v", err)
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("Snapshot file not created at %s", path)
	}

	loaded, err := LoadSnapshot(path)
	if err != nil {
		t.Fatalf("LoadSnapshot failed: %v", err)
	}
	if loaded.RNGSeed != snapshot.RNGSeed {
		t.Errorf("RNGSeed mismatch: got %d, want %d", loaded.RNGSeed, snapshot.RNGSeed)
	}
	if loaded.Step != snapshot.Step {
		t.Errorf("Step mismatch: got %d, want %d", loaded.Step, snapshot.Step)
	}
	if len(loaded.Flowers) != 1 || loaded.Flowers[0].NectarAmount != 0.5 {
		t.Errorf("Flowers mismatch: got %+v", loaded.Flowers)
	}
	if loaded.Bookmark == nil {
		t.Error("Bookmark not loaded")
	} else if loaded.Bookmark.Type != snapshot.Bookmark.Type {
		t.Errorf("Bookmark type mismatch: got %s, want %s", loaded.Bookmark.Type, snapshot.Bookmark.Type)
	}
}

func TestSnapshotFilename(t *testing.T) {
	tmpDir := t.TempDir()

	path, err := SaveSnapshot(&Snapshot{
		Version:  SnapshotVersion,
		Episode:  5,
		Step:     100,
		Bookmark: &Bookmark{Type: BookmarkStablePolicy},
	}, tmpDir)
	if err != nil {
		t.Fatalf("SaveSnapshot failed: %v", err)
	}
	if expected := filepath.Join(tmpDir, "snapshot_5_100_stable_policy.json"); path != expected {
		t.Errorf("Path mismatch: got %s, want %s", path, expected)
	}

	path, err = SaveSnapshot(&Snapshot{Version: SnapshotVersion, Episode: 3, Step: 0}, tmpDir)
	if err != nil {
		t.Fatalf("SaveSnapshot failed: %v", err)
	}
	if expected := filepath.Join(tmpDir, "snapshot_3_0.json"); path != expected {
		t.Errorf("Path mismatch: got %s, want %s", path, expected)
	}
}

func TestLoadSnapshotRejectsOtherVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "old.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"version": 99}`), 0644))
	_, err := LoadSnapshot(path)
	assert.Error(t, err)
}

func TestCaptureSnapshot(t *testing.T) {
	cfg := config.Default()
	rng := rand.New(rand.NewSource(11))
	doc := scene.Generate(rng, scene.GardenOptions{
		Plants: 2, FlowersPerPlant: 2, GardenRadius: 3, WallDistance: 8, CeilingHeight: 6,
	})

	w := systems.NewWorld(cfg.Physics)
	built, err := scene.Build(w, doc)
	require.NoError(t, err)
	area := flower.NewArea(w, built, rng, cfg.Area, cfg.Flower)
	a := agent.New(w, area, cfg, rng)
	a.Initialize(true)
	a.OnEpisodeBegin()

	s := Capture(a, area)
	assert.Equal(t, SnapshotVersion, s.Version)
	assert.Equal(t, 1, s.Episode)
	assert.Len(t, s.Flowers, 4)
	for _, f := range s.Flowers {
		assert.InDelta(t, flower.Full, f.NectarAmount, 1e-12)
	}
	assert.Equal(t, [3]float64(a.Position()), s.Agent.Position)
	require.NotNil(t, a.NearestFlower())
	assert.Equal(t, a.NearestFlower().Name(), s.Agent.NearestFlower)
}
