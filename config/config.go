// Package config provides configuration loading and access for the environment.
package config

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all environment configuration parameters.
type Config struct {
	Physics   PhysicsConfig   `yaml:"physics"`
	Agent     AgentConfig     `yaml:"agent"`
	Training  TrainingConfig  `yaml:"training"`
	Flower    FlowerConfig    `yaml:"flower"`
	Area      AreaConfig      `yaml:"area"`
	Spawn     SpawnConfig     `yaml:"spawn"`
	Reward    RewardConfig    `yaml:"reward"`
	Scene     SceneConfig     `yaml:"scene"`
	Remote    RemoteConfig    `yaml:"remote"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Input     InputConfig     `yaml:"input"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// PhysicsConfig holds fixed-step integration parameters.
type PhysicsConfig struct {
	DT          float64 `yaml:"dt"`
	Gravity     float64 `yaml:"gravity"`
	ContactSkin float64 `yaml:"contact_skin"`
}

// AgentConfig holds hummingbird body and control parameters.
type AgentConfig struct {
	MoveForce          float64 `yaml:"move_force"`
	PitchSpeed         float64 `yaml:"pitch_speed"`
	YawSpeed           float64 `yaml:"yaw_speed"`
	MaxPitchAngle      float64 `yaml:"max_pitch_angle"`
	RotationSmoothing  float64 `yaml:"rotation_smoothing"` // max smoothed input change per second
	BeakTipRadius      float64 `yaml:"beak_tip_radius"`
	BeakLength         float64 `yaml:"beak_length"`
	BeakColliderRadius float64 `yaml:"beak_collider_radius"`
	BodyRadius         float64 `yaml:"body_radius"`
	Mass               float64 `yaml:"mass"`
	Drag               float64 `yaml:"drag"`
}

// TrainingConfig holds training-mode parameters.
type TrainingConfig struct {
	Enabled bool `yaml:"enabled"`
	MaxStep int  `yaml:"max_step"` // 0 = unlimited
}

// FlowerConfig holds flower feeding parameters.
type FlowerConfig struct {
	FeedAmount float64 `yaml:"feed_amount"`
	FullColor  Color   `yaml:"full_color"`
	EmptyColor Color   `yaml:"empty_color"`
}

// AreaConfig holds flower area parameters.
type AreaConfig struct {
	Diameter        float64 `yaml:"diameter"`
	PlantPitchRange float64 `yaml:"plant_pitch_range"`
	PlantYawRange   float64 `yaml:"plant_yaw_range"`
	PlantRollRange  float64 `yaml:"plant_roll_range"`
}

// SpawnConfig holds episode start placement parameters.
type SpawnConfig struct {
	MaxAttempts     int     `yaml:"max_attempts"`
	ClearanceRadius float64 `yaml:"clearance_radius"`
	InFrontChance   float64 `yaml:"in_front_chance"`
	InFrontDistance Range   `yaml:"in_front_distance"`
	Height          Range   `yaml:"height"`
	Radius          Range   `yaml:"radius"`
	Pitch           Range   `yaml:"pitch"`
	Yaw             Range   `yaml:"yaw"`
}

// RewardConfig holds reward shaping parameters.
type RewardConfig struct {
	FeedBase           float64 `yaml:"feed_base"`
	FeedAlignmentBonus float64 `yaml:"feed_alignment_bonus"`
	BoundaryPenalty    float64 `yaml:"boundary_penalty"`
}

// SceneConfig holds scene loading and garden generation parameters.
type SceneConfig struct {
	Path            string  `yaml:"path"`
	Plants          int     `yaml:"plants"`
	FlowersPerPlant int     `yaml:"flowers_per_plant"`
	GardenRadius    float64 `yaml:"garden_radius"`
	WallDistance    float64 `yaml:"wall_distance"`
	CeilingHeight   float64 `yaml:"ceiling_height"`
}

// RemoteConfig holds trainer bridge parameters.
type RemoteConfig struct {
	Listen           string  `yaml:"listen"`
	StepTimeout      float64 `yaml:"step_timeout"`      // seconds
	HandshakeTimeout float64 `yaml:"handshake_timeout"` // seconds
}

// TelemetryConfig holds telemetry parameters.
type TelemetryConfig struct {
	StatsWindow int `yaml:"stats_window"` // episodes per window
}

// InputConfig holds manual control parameters.
type InputConfig struct {
	KeyHold float64 `yaml:"key_hold"` // seconds
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	MaxRotationDelta float64 // RotationSmoothing * DT
	StepsPerSecond   float64
	AreaRadius       float64
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if path is empty.
// Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Default returns a fresh copy of the embedded defaults.
func Default() *Config {
	cfg, err := Load("")
	if err != nil {
		panic(fmt.Sprintf("config: embedded defaults are invalid: %v", err))
	}
	return cfg
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Unmarshal into same struct - only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.computeDerived()

	return cfg, nil
}

// Validate rejects configurations the environment cannot run with.
func (c *Config) Validate() error {
	if c.Physics.DT <= 0 {
		return fmt.Errorf("physics.dt must be positive, got %v", c.Physics.DT)
	}
	if c.Agent.Mass <= 0 {
		return fmt.Errorf("agent.mass must be positive, got %v", c.Agent.Mass)
	}
	if c.Agent.BodyRadius <= 0 || c.Agent.BeakColliderRadius <= 0 {
		return fmt.Errorf("agent collider radii must be positive")
	}
	if c.Spawn.MaxAttempts < 1 {
		return fmt.Errorf("spawn.max_attempts must be at least 1, got %d", c.Spawn.MaxAttempts)
	}
	if c.Area.Diameter <= 0 {
		return fmt.Errorf("area.diameter must be positive, got %v", c.Area.Diameter)
	}
	if c.Training.MaxStep < 0 {
		return fmt.Errorf("training.max_step must not be negative, got %d", c.Training.MaxStep)
	}
	for name, r := range map[string]Range{
		"spawn.in_front_distance": c.Spawn.InFrontDistance,
		"spawn.height":            c.Spawn.Height,
		"spawn.radius":            c.Spawn.Radius,
		"spawn.pitch":             c.Spawn.Pitch,
		"spawn.yaw":               c.Spawn.Yaw,
	} {
		if r.Min > r.Max {
			return fmt.Errorf("%s: min %v exceeds max %v", name, r.Min, r.Max)
		}
	}
	return nil
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() {
	c.Derived.MaxRotationDelta = c.Agent.RotationSmoothing * c.Physics.DT
	c.Derived.StepsPerSecond = 1 / c.Physics.DT
	c.Derived.AreaRadius = c.Area.Diameter / 2
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

// YAML returns the configuration serialized as YAML.
func (c *Config) YAML() ([]byte, error) {
	return yaml.Marshal(c)
}
