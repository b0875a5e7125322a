package config

import (
	"math"
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load(\"\") failed: %v", err)
	}

	if cfg.Physics.DT != 0.02 {
		t.Errorf("Physics.DT = %v, want 0.02", cfg.Physics.DT)
	}
	if cfg.Agent.MaxPitchAngle != 80 {
		t.Errorf("Agent.MaxPitchAngle = %v, want 80", cfg.Agent.MaxPitchAngle)
	}
	if cfg.Spawn.MaxAttempts != 100 {
		t.Errorf("Spawn.MaxAttempts = %v, want 100", cfg.Spawn.MaxAttempts)
	}
	if cfg.Spawn.Height != (Range{Min: 1.2, Max: 2.5}) {
		t.Errorf("Spawn.Height = %+v, want [1.2, 2.5]", cfg.Spawn.Height)
	}
	if cfg.Flower.FullColor != (Color{1, 0, 0.3}) {
		t.Errorf("Flower.FullColor = %v", cfg.Flower.FullColor)
	}
	if cfg.Reward.BoundaryPenalty != -0.5 {
		t.Errorf("Reward.BoundaryPenalty = %v, want -0.5", cfg.Reward.BoundaryPenalty)
	}

	// Derived values
	if math.Abs(cfg.Derived.MaxRotationDelta-0.04) > 1e-12 {
		t.Errorf("Derived.MaxRotationDelta = %v, want 0.04", cfg.Derived.MaxRotationDelta)
	}
	if cfg.Derived.AreaRadius != 10 {
		t.Errorf("Derived.AreaRadius = %v, want 10", cfg.Derived.AreaRadius)
	}
}

func TestLoadOverridesOnlyPresentKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "override.yaml")
	data := []byte("training:\n  enabled: false\nspawn:\n  radius: [3, 4]\n")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Training.Enabled {
		t.Error("Training.Enabled should be overridden to false")
	}
	if cfg.Training.MaxStep != 5000 {
		t.Errorf("Training.MaxStep = %d, want default 5000", cfg.Training.MaxStep)
	}
	if cfg.Spawn.Radius != (Range{Min: 3, Max: 4}) {
		t.Errorf("Spawn.Radius = %+v, want [3, 4]", cfg.Spawn.Radius)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"zero dt", "physics:\n  dt: 0\n"},
		{"short range", "spawn:\n  height: [1]\n"},
		{"inverted range", "spawn:\n  yaw: [10, -10]\n"},
		{"no attempts", "spawn:\n  max_attempts: 0\n"},
		{"bad color", "flower:\n  full_color: [1, 0]\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "bad.yaml")
			if err := os.WriteFile(path, []byte(tt.yaml), 0644); err != nil {
				t.Fatal(err)
			}
			if _, err := Load(path); err == nil {
				t.Errorf("Load(%q) should fail", tt.yaml)
			}
		})
	}
}

func TestWriteYAMLRoundTrip(t *testing.T) {
	cfg := Default()
	cfg.Agent.MoveForce = 3.5

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := cfg.WriteYAML(path); err != nil {
		t.Fatalf("WriteYAML failed: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.Agent.MoveForce != 3.5 {
		t.Errorf("MoveForce = %v, want 3.5", loaded.Agent.MoveForce)
	}
	if loaded.Spawn.Pitch != cfg.Spawn.Pitch {
		t.Errorf("Spawn.Pitch = %+v, want %+v", loaded.Spawn.Pitch, cfg.Spawn.Pitch)
	}
}

func TestCfgPanicsBeforeInit(t *testing.T) {
	saved := global
	global = nil
	defer func() { global = saved }()

	defer func() {
		if recover() == nil {
			t.Error("Cfg() should panic before Init()")
		}
	}()
	Cfg()
}
