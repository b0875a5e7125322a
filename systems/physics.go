package systems

import (
	"sort"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/hummingbird/components"
)

// bodyCollider is a collider attached to a rigid body, gathered before narrowphase.
type bodyCollider struct {
	e    ecs.Entity
	body ecs.Entity
}

// Step advances the world by dt seconds and returns the contact callbacks
// for this step in a deterministic order: per body collider, per touched
// collider (by handle), then exits.
func (w *World) Step(dt float64) []Contact {
	// 1. Integrate forces into velocity and position
	w.integrate(dt)

	// 2. Rebuild the broadphase with the new poses
	w.dirty = true
	w.rebuildIndex()

	// 3. Narrowphase, penetration resolution and callbacks
	contacts := w.resolveContacts()
	contacts = append(contacts, w.contacts.Finish()...)

	w.tick++
	return contacts
}

// integrate applies accumulated forces, gravity and linear drag.
func (w *World) integrate(dt float64) {
	gravity := mgl64.Vec3{0, -w.cfg.Gravity, 0}

	query := w.bodyFilter.Query()
	for query.Next() {
		tr, body := query.Get()

		if body.Sleeping {
			body.Force = mgl64.Vec3{}
			continue
		}

		acc := body.Force.Mul(1 / body.Mass)
		if body.UseGravity {
			acc = acc.Add(gravity)
		}
		body.Velocity = body.Velocity.Add(acc.Mul(dt))

		// Linear drag: v *= clamp01(1 - drag*dt)
		body.Velocity = body.Velocity.Mul(Clamp01(1 - body.Drag*dt))

		tr.LocalPos = tr.LocalPos.Add(body.Velocity.Mul(dt))
		body.Force = mgl64.Vec3{}
	}
}

// resolveContacts tests every active body collider against the broadphase.
// Body colliders must be spheres. Solid overlaps push the owning body out
// along the contact normal and cancel inward velocity; contacts between two
// bodies are not simulated.
func (w *World) resolveContacts() []Contact {
	var owned []bodyCollider
	query := w.colliderFilter.Query()
	for query.Next() {
		_, col := query.Get()
		if col.Active && !col.Body.IsZero() {
			owned = append(owned, bodyCollider{e: query.Entity(), body: col.Body})
		}
	}

	var contacts []Contact
	for _, bc := range owned {
		self := w.shape(bc.e)
		radius := self.col.Radius

		for _, other := range w.broadphase.Query(self.center, mgl64.Vec3{radius, radius, radius}) {
			if other == bc.e {
				continue
			}
			target := w.shape(other)
			if !target.col.Active || !target.col.Body.IsZero() {
				continue
			}

			// Earlier pushes may have moved this body; re-read its centre.
			center := w.Position(bc.e)
			hit, normal, depth := target.sphereOverlap(center, radius)
			if !hit {
				continue
			}

			trigger := target.col.Trigger || self.col.Trigger
			if !trigger {
				w.pushOut(bc.body, normal, depth)
			}
			contacts = append(contacts, w.contacts.Observe(bc.body, bc.e, other, target.col.Tag, trigger, normal))
		}
	}
	return contacts
}

// pushOut separates a body from static geometry.
func (w *World) pushOut(body ecs.Entity, normal mgl64.Vec3, depth float64) {
	tr := w.transforms.Get(body)
	tr.LocalPos = tr.LocalPos.Add(normal.Mul(depth))

	rb := w.bodies.Get(body)
	if vn := rb.Velocity.Dot(normal); vn < 0 {
		rb.Velocity = rb.Velocity.Sub(normal.Mul(vn))
	}
	w.dirty = true
}

// ResetContacts forgets tracked contact pairs so a teleported body does not
// report stale stays or exits.
func (w *World) ResetContacts() {
	w.contacts.Reset()
}

// ColliderInfo is a read-only view of a collider for inspection and tests.
type ColliderInfo struct {
	Entity ecs.Entity
	Tag    components.Tag
	Active bool
	Center mgl64.Vec3
}

// Colliders lists all colliders in handle order.
func (w *World) Colliders() []ColliderInfo {
	var out []ColliderInfo
	query := w.colliderFilter.Query()
	for query.Next() {
		_, col := query.Get()
		out = append(out, ColliderInfo{Entity: query.Entity(), Tag: col.Tag, Active: col.Active})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Entity.ID() < out[j].Entity.ID() })
	for i := range out {
		out[i].Center = w.Position(out[i].Entity)
	}
	return out
}
