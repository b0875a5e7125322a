// Package flower holds nectar state for flowers and the area that owns them.
package flower

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/hummingbird/config"
	"github.com/pthm-cable/hummingbird/scene"
)

// Full is the nectar amount of a freshly reset flower.
const Full = 1.0

// Host is the part of the simulation world flowers read and write.
type Host interface {
	Position(e ecs.Entity) mgl64.Vec3
	Up(e ecs.Entity) mgl64.Vec3
	SetActive(e ecs.Entity, active bool)
	SetLocalRotation(e ecs.Entity, rot mgl64.Quat)
}

// Flower is a single flower with nectar.
type Flower struct {
	host Host

	name   string
	node   ecs.Entity
	petal  ecs.Entity
	nectar ecs.Entity

	nectarAmount float64

	fullColor  config.Color
	emptyColor config.Color
	color      config.Color
}

// New wraps an instantiated flower. The flower starts empty; call
// ResetFlower to fill it.
func New(host Host, rec scene.FlowerRecord, cfg config.FlowerConfig) *Flower {
	return &Flower{
		host:       host,
		name:       rec.Name,
		node:       rec.Node,
		petal:      rec.Petal,
		nectar:     rec.Nectar,
		fullColor:  cfg.FullColor,
		emptyColor: cfg.EmptyColor,
		color:      cfg.EmptyColor,
	}
}

// Feed tries to remove nectar from the flower and returns the amount taken.
// The taken amount is clamped to what remains, but the stored amount is
// decremented by the full request and then floored at zero. An emptied
// flower disables its petal and nectar colliders.
func (f *Flower) Feed(amount float64) float64 {
	taken := amount
	if taken < 0 {
		taken = 0
	}
	if taken > f.nectarAmount {
		taken = f.nectarAmount
	}

	f.nectarAmount -= amount

	if f.nectarAmount <= 0 {
		f.nectarAmount = 0

		f.host.SetActive(f.petal, false)
		f.host.SetActive(f.nectar, false)
		f.color = f.emptyColor
	}

	return taken
}

// ResetFlower refills the flower and re-enables its colliders.
func (f *Flower) ResetFlower() {
	f.nectarAmount = Full

	f.host.SetActive(f.petal, true)
	f.host.SetActive(f.nectar, true)
	f.color = f.fullColor
}

// HasNectar reports whether any nectar remains.
func (f *Flower) HasNectar() bool {
	return f.nectarAmount > 0
}

// NectarAmount returns the remaining nectar in [0, 1].
func (f *Flower) NectarAmount() float64 {
	return f.nectarAmount
}

// UpVector returns the world up axis of the nectar surface.
func (f *Flower) UpVector() mgl64.Vec3 {
	return f.host.Up(f.nectar)
}

// CenterPosition returns the world position of the nectar surface.
func (f *Flower) CenterPosition() mgl64.Vec3 {
	return f.host.Position(f.nectar)
}

// Position returns the world position of the flower node.
func (f *Flower) Position() mgl64.Vec3 {
	return f.host.Position(f.node)
}

// Color returns the current indicator color.
func (f *Flower) Color() config.Color { return f.color }

// Name returns the scene name of the flower.
func (f *Flower) Name() string { return f.name }

// Nectar returns the nectar collider handle.
func (f *Flower) Nectar() ecs.Entity { return f.nectar }

// Petal returns the petal collider handle.
func (f *Flower) Petal() ecs.Entity { return f.petal }
