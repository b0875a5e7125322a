package flower

import (
	"math/rand"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/mlange-42/ark/ecs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pthm-cable/hummingbird/config"
	"github.com/pthm-cable/hummingbird/scene"
	"github.com/pthm-cable/hummingbird/systems"
)

func buildGarden(t *testing.T, seed int64) (*systems.World, *Area) {
	t.Helper()
	cfg := config.Default()
	rng := rand.New(rand.NewSource(seed))

	w := systems.NewWorld(cfg.Physics)
	doc := scene.Generate(rng, scene.GardenOptionsFromConfig(cfg.Scene))
	built, err := scene.Build(w, doc)
	require.NoError(t, err)

	return w, NewArea(w, built, rng, cfg.Area, cfg.Flower)
}

func TestNewAreaRegistersEverything(t *testing.T) {
	_, area := buildGarden(t, 1)
	cfg := config.Default().Scene

	assert.Len(t, area.Plants(), cfg.Plants)
	assert.Len(t, area.Flowers(), cfg.Plants*cfg.FlowersPerPlant)

	for _, f := range area.Flowers() {
		assert.Equal(t, Full, f.NectarAmount())
		assert.Same(t, f, area.GetFlowerFromNectar(f.Nectar()))
	}
}

func TestNestedGroupsAreSearched(t *testing.T) {
	doc, err := scene.Parse([]byte(`
version: 1
area:
  kind: group
  children:
    - kind: group
      children:
        - kind: group
          children:
            - kind: flower
              petal: {shape: sphere, radius: 0.03}
              nectar: {shape: sphere, radius: 0.02}
    - kind: plant
      children:
        - kind: flower
          petal: {shape: sphere, radius: 0.03}
          nectar: {shape: sphere, radius: 0.02}
`))
	require.NoError(t, err)

	w := systems.NewWorld(config.Default().Physics)
	built, err := scene.Build(w, doc)
	require.NoError(t, err)

	cfg := config.Default()
	area := NewArea(w, built, rand.New(rand.NewSource(1)), cfg.Area, cfg.Flower)
	assert.Len(t, area.Flowers(), 2)
	assert.Len(t, area.Plants(), 1)
}

func TestGetFlowerFromNectarPanicsOnUnknown(t *testing.T) {
	w, area := buildGarden(t, 2)
	stranger := w.CreateNode(ecs.Entity{}, mgl64.Vec3{}, mgl64.QuatIdent())

	assert.Panics(t, func() { area.GetFlowerFromNectar(stranger) })

	_, ok := area.LookupNectar(stranger)
	assert.False(t, ok)

	// Petal colliders are not nectar surfaces either.
	_, ok = area.LookupNectar(area.Flowers()[0].Petal())
	assert.False(t, ok)
}

func TestResetFlowersRotatesPlantsWithinRange(t *testing.T) {
	w, area := buildGarden(t, 3)

	for i := 0; i < 20; i++ {
		area.ResetFlowers()
		for _, plant := range area.Plants() {
			pitch, yaw, roll := systems.EulerAngles(w.LocalRotation(plant))
			assert.LessOrEqual(t, abs(systems.WrapAngle(pitch)), 5.0+1e-6)
			assert.LessOrEqual(t, abs(systems.WrapAngle(yaw)), 180.0+1e-6)
			assert.LessOrEqual(t, abs(systems.WrapAngle(roll)), 5.0+1e-6)
		}
	}
}

func TestResetFlowersRefillsAll(t *testing.T) {
	w, area := buildGarden(t, 4)
	for _, f := range area.Flowers() {
		f.Feed(2)
		assert.False(t, w.IsActive(f.Nectar()))
	}
	assert.Equal(t, 0.0, area.TotalNectar())

	area.ResetFlowers()

	for _, f := range area.Flowers() {
		assert.Equal(t, Full, f.NectarAmount())
		assert.True(t, w.IsActive(f.Nectar()))
		assert.True(t, w.IsActive(f.Petal()))
	}
	assert.InDelta(t, float64(len(area.Flowers())), area.TotalNectar(), 1e-9)
}

func TestFlowerGeometryFollowsPlant(t *testing.T) {
	w, area := buildGarden(t, 5)
	f := area.Flowers()[0]
	plant := area.Plants()[0]
	before := f.CenterPosition()

	w.SetLocalRotation(plant, systems.Euler(0, 90, 0))
	assert.False(t, before.ApproxEqualThreshold(f.CenterPosition(), 1e-6), "flower did not move with its plant")

	// The nectar surface sits above the flower node along its up axis.
	offset := f.CenterPosition().Sub(f.Position())
	assert.InDelta(t, 0.01, offset.Len(), 1e-9)
	assert.InDelta(t, 1.0, offset.Normalize().Dot(f.UpVector()), 1e-9)
	assert.InDelta(t, 1.0, f.UpVector().Len(), 1e-9)
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
