package flower

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/mlange-42/ark/ecs"
	"github.com/stretchr/testify/assert"

	"github.com/pthm-cable/hummingbird/config"
	"github.com/pthm-cable/hummingbird/scene"
)

// fakeHost records collider activity without a world.
type fakeHost struct {
	active map[ecs.Entity]bool
}

func newFakeHost() *fakeHost {
	return &fakeHost{active: make(map[ecs.Entity]bool)}
}

func (h *fakeHost) Position(ecs.Entity) mgl64.Vec3          { return mgl64.Vec3{} }
func (h *fakeHost) Up(ecs.Entity) mgl64.Vec3                { return mgl64.Vec3{0, 1, 0} }
func (h *fakeHost) SetActive(e ecs.Entity, active bool)     { h.active[e] = active }
func (h *fakeHost) SetLocalRotation(ecs.Entity, mgl64.Quat) {}

func newTestFlower(h *fakeHost) *Flower {
	cfg := config.Default().Flower
	f := New(h, scene.FlowerRecord{Name: "test"}, cfg)
	f.ResetFlower()
	return f
}

func TestFeedFiftyTimes(t *testing.T) {
	f := newTestFlower(newFakeHost())

	var taken float64
	for i := 0; i < 50; i++ {
		taken += f.Feed(0.01)
	}

	assert.InDelta(t, 0.5, f.NectarAmount(), 1e-9)
	assert.InDelta(t, 0.5, taken, 1e-9)
	assert.True(t, f.HasNectar())
}

func TestFeedClampsToRemainder(t *testing.T) {
	h := newFakeHost()
	f := newTestFlower(h)
	f.Feed(0.995)
	assert.InDelta(t, 0.005, f.NectarAmount(), 1e-12)

	taken := f.Feed(0.01)

	assert.InDelta(t, 0.005, taken, 1e-12)
	assert.Equal(t, 0.0, f.NectarAmount())
	assert.False(t, f.HasNectar())
	assert.False(t, h.active[f.Petal()], "petal collider should be disabled")
	assert.False(t, h.active[f.Nectar()], "nectar collider should be disabled")
	assert.Equal(t, config.Default().Flower.EmptyColor, f.Color())
}

func TestFeedProperty(t *testing.T) {
	amounts := []float64{0, 0.001, 0.01, 0.3, 1, 2, 1000}
	starts := []float64{0.005, 0.2, 0.5, 1}

	for _, n := range starts {
		for _, a := range amounts {
			f := newTestFlower(newFakeHost())
			f.Feed(Full - n)

			taken := f.Feed(a)

			assert.InDelta(t, math.Min(a, n), taken, 1e-12, "taken for n=%v a=%v", n, a)
			assert.InDelta(t, math.Max(n-a, 0), f.NectarAmount(), 1e-12, "nectar for n=%v a=%v", n, a)
			assert.GreaterOrEqual(t, f.NectarAmount(), 0.0)
		}
	}
}

func TestFeedEmptyFlower(t *testing.T) {
	f := newTestFlower(newFakeHost())
	f.Feed(5)

	assert.Equal(t, 0.0, f.Feed(0.01))
	assert.Equal(t, 0.0, f.NectarAmount())
}

func TestResetFlowerRestoresFull(t *testing.T) {
	h := newFakeHost()
	f := newTestFlower(h)
	f.Feed(2)
	assert.False(t, f.HasNectar())

	f.ResetFlower()

	assert.Equal(t, Full, f.NectarAmount())
	assert.True(t, h.active[f.Petal()])
	assert.True(t, h.active[f.Nectar()])
	assert.Equal(t, config.Default().Flower.FullColor, f.Color())
}

func TestNewFlowerStartsEmpty(t *testing.T) {
	f := New(newFakeHost(), scene.FlowerRecord{}, config.Default().Flower)
	assert.False(t, f.HasNectar())
}
