package components

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/mlange-42/ark/ecs"
)

// RigidBody holds linear dynamics for a simulated body.
// Rotation is kinematic: bodies are turned by setting their transform.
type RigidBody struct {
	Velocity   mgl64.Vec3
	Force      mgl64.Vec3 // accumulated since the last step
	Mass       float64
	Drag       float64
	UseGravity bool
	Sleeping   bool
}

// Collider is a collision volume attached to a transform.
type Collider struct {
	Shape       Shape
	Radius      float64    // sphere radius
	HalfExtents mgl64.Vec3 // box half extents along local axes
	Tag         Tag
	Trigger     bool       // triggers report overlap but never push bodies
	Active      bool
	Body        ecs.Entity // owning rigid body, zero for static geometry
}

// SphereCollider returns an active sphere collider.
func SphereCollider(radius float64, tag Tag, trigger bool) Collider {
	return Collider{Shape: ShapeSphere, Radius: radius, Tag: tag, Trigger: trigger, Active: true}
}

// BoxCollider returns an active box collider.
func BoxCollider(halfExtents mgl64.Vec3, tag Tag, trigger bool) Collider {
	return Collider{Shape: ShapeBox, HalfExtents: halfExtents, Tag: tag, Trigger: trigger, Active: true}
}
