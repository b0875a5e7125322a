package systems

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/hummingbird/components"
	"github.com/pthm-cable/hummingbird/config"
)

// World is the simulation host. Every object it owns is addressed by an
// ecs.Entity handle; callers never hold pointers into component storage.
type World struct {
	ecs *ecs.World
	cfg config.PhysicsConfig

	transforms *ecs.Map[components.Transform]
	colliders  *ecs.Map[components.Collider]
	bodies     *ecs.Map[components.RigidBody]

	colliderFilter *ecs.Filter2[components.Transform, components.Collider]
	bodyFilter     *ecs.Filter2[components.Transform, components.RigidBody]

	broadphase *Broadphase
	dirty      bool // broadphase must be rebuilt before the next query

	contacts *ContactTracker
	tick     int64
}

// NewWorld creates an empty world.
func NewWorld(cfg config.PhysicsConfig) *World {
	w := ecs.NewWorld()
	return &World{
		ecs:            w,
		cfg:            cfg,
		transforms:     ecs.NewMap[components.Transform](w),
		colliders:      ecs.NewMap[components.Collider](w),
		bodies:         ecs.NewMap[components.RigidBody](w),
		colliderFilter: ecs.NewFilter2[components.Transform, components.Collider](w),
		bodyFilter:     ecs.NewFilter2[components.Transform, components.RigidBody](w),
		broadphase:     NewBroadphase(cfg.ContactSkin),
		dirty:          true,
		contacts:       NewContactTracker(),
	}
}

// Tick returns the number of completed steps.
func (w *World) Tick() int64 {
	return w.tick
}

// CreateNode creates a transform node under parent (zero parent = world root).
func (w *World) CreateNode(parent ecs.Entity, localPos mgl64.Vec3, localRot mgl64.Quat) ecs.Entity {
	t := components.Transform{Parent: parent, LocalPos: localPos, LocalRot: localRot}
	w.dirty = true
	return w.transforms.NewEntity(&t)
}

// AttachCollider adds a collider to an existing node.
func (w *World) AttachCollider(e ecs.Entity, c components.Collider) {
	w.mustNode(e)
	w.colliders.Add(e, &c)
	w.dirty = true
}

// AttachBody adds a rigid body to a root node.
func (w *World) AttachBody(e ecs.Entity, b components.RigidBody) {
	t := w.mustNode(e)
	if !t.Parent.IsZero() {
		panic("systems: rigid bodies must be root nodes")
	}
	w.bodies.Add(e, &b)
}

// Alive reports whether the handle refers to an existing node.
func (w *World) Alive(e ecs.Entity) bool {
	return !e.IsZero() && w.ecs.Alive(e) && w.transforms.Has(e)
}

func (w *World) mustNode(e ecs.Entity) *components.Transform {
	if !w.Alive(e) {
		panic(fmt.Sprintf("systems: unknown node %v", e))
	}
	return w.transforms.Get(e)
}

// Pose

// Pose returns the world position and rotation of a node.
func (w *World) Pose(e ecs.Entity) (mgl64.Vec3, mgl64.Quat) {
	t := w.mustNode(e)
	pos, rot := t.LocalPos, t.LocalRot
	for p := t.Parent; !p.IsZero(); {
		pt := w.transforms.Get(p)
		pos = pt.LocalPos.Add(pt.LocalRot.Rotate(pos))
		rot = pt.LocalRot.Mul(rot)
		p = pt.Parent
	}
	return pos, rot.Normalize()
}

// Position returns the world position of a node.
func (w *World) Position(e ecs.Entity) mgl64.Vec3 {
	pos, _ := w.Pose(e)
	return pos
}

// Rotation returns the world rotation of a node.
func (w *World) Rotation(e ecs.Entity) mgl64.Quat {
	_, rot := w.Pose(e)
	return rot
}

// LocalRotation returns the rotation of a node relative to its parent.
func (w *World) LocalRotation(e ecs.Entity) mgl64.Quat {
	return w.mustNode(e).LocalRot
}

// Up returns the world up axis of a node.
func (w *World) Up(e ecs.Entity) mgl64.Vec3 {
	return Up(w.Rotation(e))
}

// Forward returns the world forward axis of a node.
func (w *World) Forward(e ecs.Entity) mgl64.Vec3 {
	return Forward(w.Rotation(e))
}

// SetPose moves a node to a world position and rotation.
func (w *World) SetPose(e ecs.Entity, pos mgl64.Vec3, rot mgl64.Quat) {
	t := w.mustNode(e)
	if t.Parent.IsZero() {
		t.LocalPos, t.LocalRot = pos, rot.Normalize()
	} else {
		ppos, prot := w.Pose(t.Parent)
		inv := prot.Inverse()
		t.LocalPos = inv.Rotate(pos.Sub(ppos))
		t.LocalRot = inv.Mul(rot).Normalize()
	}
	w.dirty = true
}

// SetLocalRotation sets the rotation of a node relative to its parent.
func (w *World) SetLocalRotation(e ecs.Entity, rot mgl64.Quat) {
	w.mustNode(e).LocalRot = rot.Normalize()
	w.dirty = true
}

// Bodies

func (w *World) mustBody(e ecs.Entity) *components.RigidBody {
	if !w.Alive(e) || !w.bodies.Has(e) {
		panic(fmt.Sprintf("systems: node %v has no rigid body", e))
	}
	return w.bodies.Get(e)
}

// AddForce accumulates a world-space force for the next step and wakes the body.
func (w *World) AddForce(e ecs.Entity, f mgl64.Vec3) {
	b := w.mustBody(e)
	b.Force = b.Force.Add(f)
	b.Sleeping = false
}

// Velocity returns the linear velocity of a body.
func (w *World) Velocity(e ecs.Entity) mgl64.Vec3 {
	return w.mustBody(e).Velocity
}

// ResetVelocity zeroes velocity and pending force.
func (w *World) ResetVelocity(e ecs.Entity) {
	b := w.mustBody(e)
	b.Velocity = mgl64.Vec3{}
	b.Force = mgl64.Vec3{}
}

// Sleep stops integrating a body until it is woken.
func (w *World) Sleep(e ecs.Entity) {
	b := w.mustBody(e)
	b.Sleeping = true
	b.Velocity = mgl64.Vec3{}
	b.Force = mgl64.Vec3{}
}

// WakeUp resumes integration of a body.
func (w *World) WakeUp(e ecs.Entity) {
	w.mustBody(e).Sleeping = false
}

// IsSleeping reports whether a body is asleep.
func (w *World) IsSleeping(e ecs.Entity) bool {
	return w.mustBody(e).Sleeping
}

// Colliders

func (w *World) mustCollider(e ecs.Entity) *components.Collider {
	if !w.Alive(e) || !w.colliders.Has(e) {
		panic(fmt.Sprintf("systems: node %v has no collider", e))
	}
	return w.colliders.Get(e)
}

// SetActive enables or disables a collider.
func (w *World) SetActive(e ecs.Entity, active bool) {
	w.mustCollider(e).Active = active
	w.dirty = true
}

// IsActive reports whether a collider takes part in queries and contacts.
func (w *World) IsActive(e ecs.Entity) bool {
	return w.mustCollider(e).Active
}

// Tag returns the tag of a collider.
func (w *World) Tag(e ecs.Entity) components.Tag {
	return w.mustCollider(e).Tag
}

// ClosestPoint returns the point of a collider nearest to p. Points inside
// the collider are returned unchanged.
func (w *World) ClosestPoint(e ecs.Entity, p mgl64.Vec3) mgl64.Vec3 {
	return w.shape(e).closestPoint(p)
}

func (w *World) shape(e ecs.Entity) worldShape {
	col := w.mustCollider(e)
	pos, rot := w.Pose(e)
	return worldShape{col: col, center: pos, rot: rot}
}

// OverlapSphere returns active colliders (triggers included) intersecting the
// sphere, skipping colliders owned by any of the excluded bodies.
func (w *World) OverlapSphere(center mgl64.Vec3, radius float64, exclude ...ecs.Entity) []ecs.Entity {
	w.rebuildIndex()

	var out []ecs.Entity
	for _, e := range w.broadphase.Query(center, mgl64.Vec3{radius, radius, radius}) {
		s := w.shape(e)
		if !s.col.Active || ownedBy(s.col.Body, exclude) {
			continue
		}
		if hit, _, _ := s.sphereOverlap(center, radius); hit {
			out = append(out, e)
		}
	}
	return out
}

func ownedBy(body ecs.Entity, bodies []ecs.Entity) bool {
	if body.IsZero() {
		return false
	}
	for _, b := range bodies {
		if b == body {
			return true
		}
	}
	return false
}

// rebuildIndex refreshes the broadphase if anything moved since the last build.
func (w *World) rebuildIndex() {
	if !w.dirty {
		return
	}
	w.broadphase.Clear()

	type entry struct {
		e      ecs.Entity
		center mgl64.Vec3
		ext    mgl64.Vec3
	}
	var entries []entry

	query := w.colliderFilter.Query()
	for query.Next() {
		_, col := query.Get()
		if !col.Active {
			continue
		}
		e := query.Entity()
		s := w.shape(e)
		entries = append(entries, entry{e: e, center: s.center, ext: s.extents()})
	}

	for _, en := range entries {
		w.broadphase.Insert(en.e, en.center, en.ext)
	}
	w.dirty = false
}
