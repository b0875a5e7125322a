package scene

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/pthm-cable/hummingbird/config"
	"github.com/pthm-cable/hummingbird/systems"
)

// Flower geometry shared by generated gardens.
const (
	petalRadius    = 0.035
	petalOffsetY   = -0.04
	nectarRadius   = 0.02
	nectarOffsetY  = 0.01
	stemHalfWidth  = 0.02
	flowerSpread   = 0.12 // horizontal distance of a flower from its stem
	minPlantGap    = 0.6
	plantPlacement = 50 // attempts per plant before accepting a close spot
)

// GardenOptions controls procedural garden generation.
type GardenOptions struct {
	Plants          int
	FlowersPerPlant int
	GardenRadius    float64
	WallDistance    float64
	CeilingHeight   float64
}

// GardenOptionsFromConfig extracts generation options from the scene config.
func GardenOptionsFromConfig(cfg config.SceneConfig) GardenOptions {
	return GardenOptions{
		Plants:          cfg.Plants,
		FlowersPerPlant: cfg.FlowersPerPlant,
		GardenRadius:    cfg.GardenRadius,
		WallDistance:    cfg.WallDistance,
		CeilingHeight:   cfg.CeilingHeight,
	}
}

// Generate builds a garden of plants inside a closed box: ground, four walls
// and a ceiling. Every plant has a stem and FlowersPerPlant flowers arranged
// around its top, each tilted outwards.
func Generate(rng *rand.Rand, opts GardenOptions) *Document {
	area := Node{Name: "FlowerArea", Kind: KindGroup.String()}
	area.Children = append(area.Children, boundaries(opts)...)

	var placed [][2]float64
	for p := 0; p < opts.Plants; p++ {
		x, z := placePlant(rng, opts.GardenRadius, placed)
		placed = append(placed, [2]float64{x, z})

		height := 0.8 + rng.Float64()*0.8
		plant := Node{
			Name:     fmt.Sprintf("plant-%d", p),
			Kind:     KindPlant.String(),
			Position: &Vec3{x, 0, z},
			Rotation: &Vec3{0, 0, 0},
		}
		plant.Children = append(plant.Children, Node{
			Name:     fmt.Sprintf("plant-%d-stem", p),
			Kind:     KindStem.String(),
			Position: &Vec3{0, height / 2, 0},
			Collider: &ColliderSpec{
				Shape:       "box",
				HalfExtents: &Vec3{stemHalfWidth, height / 2, stemHalfWidth},
			},
		})

		for f := 0; f < opts.FlowersPerPlant; f++ {
			yaw := 360*float64(f)/float64(opts.FlowersPerPlant) + (rng.Float64()*2-1)*20
			dir := systems.Forward(systems.Euler(0, yaw, 0))
			y := height - rng.Float64()*0.3
			plant.Children = append(plant.Children, Node{
				Name:     fmt.Sprintf("plant-%d-flower-%d", p, f),
				Kind:     KindFlower.String(),
				Position: &Vec3{dir.X() * flowerSpread, y, dir.Z() * flowerSpread},
				Rotation: &Vec3{20 + rng.Float64()*40, yaw, 0},
				Petal: &ColliderSpec{
					Shape:  "sphere",
					Radius: petalRadius,
					Offset: &Vec3{0, petalOffsetY, 0},
				},
				Nectar: &ColliderSpec{
					Shape:   "sphere",
					Radius:  nectarRadius,
					Offset:  &Vec3{0, nectarOffsetY, 0},
					Trigger: true,
				},
			})
		}
		area.Children = append(area.Children, plant)
	}

	return &Document{Version: Version, Area: area}
}

// placePlant samples a point uniformly in the garden disk, preferring spots
// at least minPlantGap away from existing plants.
func placePlant(rng *rand.Rand, radius float64, placed [][2]float64) (float64, float64) {
	var x, z float64
	for attempt := 0; attempt < plantPlacement; attempt++ {
		r := radius * math.Sqrt(rng.Float64())
		theta := rng.Float64() * 2 * math.Pi
		x, z = r*math.Cos(theta), r*math.Sin(theta)

		free := true
		for _, p := range placed {
			if math.Hypot(p[0]-x, p[1]-z) < minPlantGap {
				free = false
				break
			}
		}
		if free {
			break
		}
	}
	return x, z
}

func boundaries(opts GardenOptions) []Node {
	w, h := opts.WallDistance, opts.CeilingHeight
	const thick = 0.5

	box := func(name string, pos, half Vec3) Node {
		return Node{
			Name:     name,
			Kind:     KindBoundary.String(),
			Position: &pos,
			Collider: &ColliderSpec{Shape: "box", HalfExtents: &half},
		}
	}
	return []Node{
		box("ground", Vec3{0, -thick, 0}, Vec3{w, thick, w}),
		box("ceiling", Vec3{0, h + thick, 0}, Vec3{w, thick, w}),
		box("wall-east", Vec3{w + thick, h / 2, 0}, Vec3{thick, h / 2, w}),
		box("wall-west", Vec3{-w - thick, h / 2, 0}, Vec3{thick, h / 2, w}),
		box("wall-north", Vec3{0, h / 2, w + thick}, Vec3{w, h / 2, thick}),
		box("wall-south", Vec3{0, h / 2, -w - thick}, Vec3{w, h / 2, thick}),
	}
}
