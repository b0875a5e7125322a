package flower

import (
	"fmt"
	"math/rand"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/hummingbird/config"
	"github.com/pthm-cable/hummingbird/scene"
	"github.com/pthm-cable/hummingbird/systems"
)

// AreaDiameter is the diameter of the region agents and flowers occupy.
const AreaDiameter = 20.0

// Area owns the plants and flowers of one flower area.
type Area struct {
	host Host
	cfg  config.AreaConfig
	rng  *rand.Rand

	root     ecs.Entity
	plants   []ecs.Entity
	flowers  []*Flower
	byNectar map[ecs.Entity]*Flower
}

// NewArea registers every plant and flower below the scene root and fills
// all flowers. Plants are recorded and searched; a flower node is a leaf;
// any other node is searched.
func NewArea(host Host, built *scene.Built, rng *rand.Rand, cfg config.AreaConfig, flowerCfg config.FlowerConfig) *Area {
	a := &Area{
		host:     host,
		cfg:      cfg,
		rng:      rng,
		root:     built.Root.Entity,
		byNectar: make(map[ecs.Entity]*Flower),
	}
	a.findChildFlowers(built.Root, flowerCfg)

	for _, f := range a.flowers {
		f.ResetFlower()
	}
	return a
}

func (a *Area) findChildFlowers(parent *scene.BuiltNode, flowerCfg config.FlowerConfig) {
	for _, child := range parent.Children {
		switch {
		case child.Kind == scene.KindPlant:
			a.plants = append(a.plants, child.Entity)
			a.findChildFlowers(child, flowerCfg)
		case child.Flower != nil:
			f := New(a.host, *child.Flower, flowerCfg)
			a.flowers = append(a.flowers, f)
			if _, dup := a.byNectar[f.nectar]; dup {
				panic(fmt.Sprintf("flower: nectar collider %v registered twice", f.nectar))
			}
			a.byNectar[f.nectar] = f
		default:
			a.findChildFlowers(child, flowerCfg)
		}
	}
}

// ResetFlowers gives every plant a new random orientation and refills every
// flower.
func (a *Area) ResetFlowers() {
	for _, plant := range a.plants {
		pitch := uniform(a.rng, -a.cfg.PlantPitchRange, a.cfg.PlantPitchRange)
		yaw := uniform(a.rng, -a.cfg.PlantYawRange, a.cfg.PlantYawRange)
		roll := uniform(a.rng, -a.cfg.PlantRollRange, a.cfg.PlantRollRange)
		a.host.SetLocalRotation(plant, systems.Euler(pitch, yaw, roll))
	}

	for _, f := range a.flowers {
		f.ResetFlower()
	}
}

// GetFlowerFromNectar returns the flower owning a nectar collider.
// Panics if the collider was never registered.
func (a *Area) GetFlowerFromNectar(nectar ecs.Entity) *Flower {
	f, ok := a.byNectar[nectar]
	if !ok {
		panic(fmt.Sprintf("flower: %v is not a registered nectar collider", nectar))
	}
	return f
}

// LookupNectar is the comma-ok form of GetFlowerFromNectar.
func (a *Area) LookupNectar(nectar ecs.Entity) (*Flower, bool) {
	f, ok := a.byNectar[nectar]
	return f, ok
}

// Flowers returns all flowers in registration order.
func (a *Area) Flowers() []*Flower {
	return a.flowers
}

// Plants returns the plant handles in registration order.
func (a *Area) Plants() []ecs.Entity {
	return a.plants
}

// Center returns the world position of the area root.
func (a *Area) Center() mgl64.Vec3 {
	return a.host.Position(a.root)
}

// Root returns the area root handle.
func (a *Area) Root() ecs.Entity {
	return a.root
}

// Diameter returns the configured area diameter.
func (a *Area) Diameter() float64 {
	if a.cfg.Diameter > 0 {
		return a.cfg.Diameter
	}
	return AreaDiameter
}

// TotalNectar sums the remaining nectar of every flower.
func (a *Area) TotalNectar() float64 {
	var sum float64
	for _, f := range a.flowers {
		sum += f.nectarAmount
	}
	return sum
}

func uniform(rng *rand.Rand, lo, hi float64) float64 {
	return lo + rng.Float64()*(hi-lo)
}
