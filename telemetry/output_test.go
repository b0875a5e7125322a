package telemetry

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pthm-cable/hummingbird/agent"
	"github.com/pthm-cable/hummingbird/config"
)

func TestOutputManagerDisabled(t *testing.T) {
	om, err := NewOutputManager("")
	require.NoError(t, err)
	assert.Nil(t, om)

	// All methods are nil-safe.
	assert.NoError(t, om.WriteEpisode(EpisodeRecord{}))
	assert.NoError(t, om.WriteStats(WindowStats{}))
	assert.NoError(t, om.WriteConfig(config.Default()))
	assert.Equal(t, "", om.Dir())
	assert.NoError(t, om.Close())
}

func TestOutputManagerWritesHeaderOnce(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "run")
	om, err := NewOutputManager(dir)
	require.NoError(t, err)

	require.NoError(t, om.WriteConfig(config.Default()))
	for i := 1; i <= 3; i++ {
		require.NoError(t, om.WriteEpisode(NewEpisodeRecord(agent.EpisodeStats{Episode: i, Steps: 10 * i})))
	}
	require.NoError(t, om.WriteStats(WindowStats{FirstEpisode: 1, LastEpisode: 3, Episodes: 3}))
	require.NoError(t, om.Close())

	data, err := os.ReadFile(filepath.Join(dir, "episodes.csv"))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 4)
	assert.True(t, strings.HasPrefix(lines[0], "episode,steps,nectar,reward"))
	assert.True(t, strings.HasPrefix(lines[3], "3,30,"))

	stats, err := os.ReadFile(filepath.Join(dir, "stats.csv"))
	require.NoError(t, err)
	assert.Len(t, strings.Split(strings.TrimSpace(string(stats)), "\n"), 2)

	loaded, err := config.Load(filepath.Join(dir, "config.yaml"))
	require.NoError(t, err)
	assert.Equal(t, config.Default().Training.MaxStep, loaded.Training.MaxStep)
}
