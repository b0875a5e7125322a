package components

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/mlange-42/ark/ecs"
)

// Transform places an entity relative to its parent.
// A zero Parent means the transform is expressed in world space.
type Transform struct {
	Parent   ecs.Entity
	LocalPos mgl64.Vec3
	LocalRot mgl64.Quat
}

// NewTransform returns a transform with identity rotation.
func NewTransform(parent ecs.Entity, pos mgl64.Vec3) Transform {
	return Transform{Parent: parent, LocalPos: pos, LocalRot: mgl64.QuatIdent()}
}
