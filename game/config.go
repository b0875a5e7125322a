package game

// Run modes.
const (
	ModeRun   = "run"
	ModeServe = "serve"
	ModePlay  = "play"
)

// Options holds configuration for game initialization.
type Options struct {
	Mode     string
	Seed     int64
	Training bool
	RunID    string // generated when empty

	// ScenePath overrides scene.path from the config. With neither set a
	// garden is generated from the seed.
	ScenePath string

	MaxEpisodes int // stop Run after N finished episodes (0 = unlimited)
	MaxSteps    int // end episodes after N steps (0 = agent limit only)

	// ContinueOnPolicyError halts the episode and keeps running when the
	// policy fails, e.g. after a trainer disconnects.
	ContinueOnPolicyError bool

	// Realtime paces Run at one step per physics dt.
	Realtime bool

	LogStats     bool
	OutputDir    string
	SnapshotDir  string
	RecordDir    string
	DatabasePath string
}

// DefaultOptions returns the options for a headless run.
func DefaultOptions() Options {
	return Options{
		Mode:     ModeRun,
		Seed:     42,
		Training: true,
	}
}
