package systems

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/hummingbird/components"
	"github.com/pthm-cable/hummingbird/config"
)

func testPhysics() config.PhysicsConfig {
	return config.PhysicsConfig{DT: 0.02, Gravity: 0, ContactSkin: 0.001}
}

// newBird creates a root body with a solid sphere collider.
func newBird(w *World, pos mgl64.Vec3, radius float64) ecs.Entity {
	e := w.CreateNode(ecs.Entity{}, pos, mgl64.QuatIdent())
	w.AttachBody(e, components.RigidBody{Mass: 1, Drag: 0})
	col := components.SphereCollider(radius, components.TagAgent, false)
	col.Body = e
	w.AttachCollider(e, col)
	return e
}

func TestPoseComposesParents(t *testing.T) {
	w := NewWorld(testPhysics())

	root := w.CreateNode(ecs.Entity{}, mgl64.Vec3{1, 0, 0}, Euler(0, 90, 0))
	child := w.CreateNode(root, mgl64.Vec3{0, 0, 2}, mgl64.QuatIdent())

	// Child sits 2 units along the parent's forward, which is world +X.
	pos := w.Position(child)
	if !pos.ApproxEqualThreshold(mgl64.Vec3{3, 0, 0}, 1e-9) {
		t.Errorf("child position = %v, want (3,0,0)", pos)
	}

	// Rotating the parent moves the child.
	w.SetLocalRotation(root, mgl64.QuatIdent())
	pos = w.Position(child)
	if !pos.ApproxEqualThreshold(mgl64.Vec3{1, 0, 2}, 1e-9) {
		t.Errorf("child position after parent rotation = %v, want (1,0,2)", pos)
	}

	// SetPose on a child keeps the requested world pose.
	w.SetPose(child, mgl64.Vec3{5, 1, 1}, Euler(10, 20, 0))
	pos, rot := w.Pose(child)
	if !pos.ApproxEqualThreshold(mgl64.Vec3{5, 1, 1}, 1e-9) {
		t.Errorf("SetPose position = %v", pos)
	}
	if !Forward(rot).ApproxEqualThreshold(Forward(Euler(10, 20, 0)), 1e-9) {
		t.Errorf("SetPose rotation mismatch")
	}
}

func TestClosestPoint(t *testing.T) {
	w := NewWorld(testPhysics())

	sphere := w.CreateNode(ecs.Entity{}, mgl64.Vec3{0, 0, 0}, mgl64.QuatIdent())
	w.AttachCollider(sphere, components.SphereCollider(1, components.TagNectar, true))

	box := w.CreateNode(ecs.Entity{}, mgl64.Vec3{10, 0, 0}, mgl64.QuatIdent())
	w.AttachCollider(box, components.BoxCollider(mgl64.Vec3{1, 2, 3}, components.TagBoundary, false))

	tests := []struct {
		name string
		e    ecs.Entity
		p    mgl64.Vec3
		want mgl64.Vec3
	}{
		{"sphere outside", sphere, mgl64.Vec3{3, 0, 0}, mgl64.Vec3{1, 0, 0}},
		{"sphere inside", sphere, mgl64.Vec3{0.2, 0.1, 0}, mgl64.Vec3{0.2, 0.1, 0}},
		{"box outside", box, mgl64.Vec3{10, 5, 0}, mgl64.Vec3{10, 2, 0}},
		{"box corner", box, mgl64.Vec3{13, 5, 9}, mgl64.Vec3{11, 2, 3}},
		{"box inside", box, mgl64.Vec3{10.5, 0, 1}, mgl64.Vec3{10.5, 0, 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := w.ClosestPoint(tt.e, tt.p)
			if !got.ApproxEqualThreshold(tt.want, 1e-9) {
				t.Errorf("ClosestPoint = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestOverlapSphere(t *testing.T) {
	w := NewWorld(testPhysics())

	nectar := w.CreateNode(ecs.Entity{}, mgl64.Vec3{0, 1, 0}, mgl64.QuatIdent())
	w.AttachCollider(nectar, components.SphereCollider(0.02, components.TagNectar, true))
	bird := newBird(w, mgl64.Vec3{5, 5, 5}, 0.04)

	if hits := w.OverlapSphere(mgl64.Vec3{0, 1.05, 0}, 0.05); len(hits) != 1 || hits[0] != nectar {
		t.Errorf("OverlapSphere near trigger = %v, want [nectar]", hits)
	}
	if hits := w.OverlapSphere(mgl64.Vec3{0, 2, 0}, 0.05); len(hits) != 0 {
		t.Errorf("OverlapSphere in free space = %v, want none", hits)
	}

	// A body's own colliders can be excluded.
	if hits := w.OverlapSphere(mgl64.Vec3{5, 5, 5}, 0.05); len(hits) != 1 {
		t.Errorf("OverlapSphere at body = %v, want the body collider", hits)
	}
	if hits := w.OverlapSphere(mgl64.Vec3{5, 5, 5}, 0.05, bird); len(hits) != 0 {
		t.Errorf("OverlapSphere excluding body = %v, want none", hits)
	}

	// Inactive colliders are ignored.
	w.SetActive(nectar, false)
	if hits := w.OverlapSphere(mgl64.Vec3{0, 1.05, 0}, 0.05); len(hits) != 0 {
		t.Errorf("OverlapSphere with inactive collider = %v, want none", hits)
	}
}

func TestIntegrateForceAndDrag(t *testing.T) {
	w := NewWorld(testPhysics())
	bird := newBird(w, mgl64.Vec3{0, 0, 0}, 0.04)

	w.AddForce(bird, mgl64.Vec3{2, 0, 0})
	w.Step(0.02)

	// v = F/m * dt = 0.04, x = v * dt
	if v := w.Velocity(bird); !v.ApproxEqualThreshold(mgl64.Vec3{0.04, 0, 0}, 1e-12) {
		t.Errorf("velocity = %v, want (0.04,0,0)", v)
	}
	if p := w.Position(bird); !p.ApproxEqualThreshold(mgl64.Vec3{0.0008, 0, 0}, 1e-12) {
		t.Errorf("position = %v, want (0.0008,0,0)", p)
	}

	// Force does not persist across steps.
	w.Step(0.02)
	if v := w.Velocity(bird); !v.ApproxEqualThreshold(mgl64.Vec3{0.04, 0, 0}, 1e-12) {
		t.Errorf("velocity after coasting = %v, want unchanged", v)
	}
}

func TestSleepingBodyDoesNotMove(t *testing.T) {
	w := NewWorld(testPhysics())
	bird := newBird(w, mgl64.Vec3{0, 0, 0}, 0.04)

	w.AddForce(bird, mgl64.Vec3{0, 0, 5})
	w.Sleep(bird)
	w.Step(0.02)

	if p := w.Position(bird); p != (mgl64.Vec3{}) {
		t.Errorf("sleeping body moved to %v", p)
	}
	if !w.IsSleeping(bird) {
		t.Error("body should still be asleep")
	}

	w.WakeUp(bird)
	w.AddForce(bird, mgl64.Vec3{0, 0, 5})
	w.Step(0.02)
	if p := w.Position(bird); p.Z() <= 0 {
		t.Errorf("woken body did not move: %v", p)
	}
}

func TestTriggerContactsEnterStayExit(t *testing.T) {
	w := NewWorld(testPhysics())

	nectar := w.CreateNode(ecs.Entity{}, mgl64.Vec3{0, 0, 0}, mgl64.QuatIdent())
	w.AttachCollider(nectar, components.SphereCollider(0.05, components.TagNectar, true))
	bird := newBird(w, mgl64.Vec3{0, 0, 0.06}, 0.02)

	contacts := w.Step(0.02)
	if len(contacts) != 1 || contacts[0].Kind != TriggerEnter || contacts[0].Other != nectar {
		t.Fatalf("first step contacts = %+v, want one trigger_enter", contacts)
	}
	if contacts[0].OtherTag != components.TagNectar {
		t.Errorf("OtherTag = %v, want nectar", contacts[0].OtherTag)
	}

	contacts = w.Step(0.02)
	if len(contacts) != 1 || contacts[0].Kind != TriggerStay {
		t.Fatalf("second step contacts = %+v, want one trigger_stay", contacts)
	}

	// Triggers never push bodies.
	if p := w.Position(bird); !p.ApproxEqualThreshold(mgl64.Vec3{0, 0, 0.06}, 1e-12) {
		t.Errorf("trigger moved body to %v", p)
	}

	w.SetActive(nectar, false)
	contacts = w.Step(0.02)
	if len(contacts) != 1 || contacts[0].Kind != TriggerExit {
		t.Fatalf("after deactivation contacts = %+v, want one trigger_exit", contacts)
	}
}

func TestSolidContactPushesOut(t *testing.T) {
	w := NewWorld(testPhysics())

	wall := w.CreateNode(ecs.Entity{}, mgl64.Vec3{0, 0, 1}, mgl64.QuatIdent())
	w.AttachCollider(wall, components.BoxCollider(mgl64.Vec3{5, 5, 0.5}, components.TagBoundary, false))
	bird := newBird(w, mgl64.Vec3{0, 0, 0.45}, 0.1)

	w.AddForce(bird, mgl64.Vec3{0, 0, 50})
	contacts := w.Step(0.02)

	var enter int
	for _, c := range contacts {
		if c.Kind == CollisionEnter && c.OtherTag == components.TagBoundary {
			enter++
		}
	}
	if enter != 1 {
		t.Fatalf("contacts = %+v, want one collision_enter with boundary", contacts)
	}

	// Sphere must end up touching, not inside, the wall face at z=0.5.
	if p := w.Position(bird); p.Z() > 0.4+1e-9 {
		t.Errorf("body not pushed out: z = %v, want <= 0.4", p.Z())
	}
	if v := w.Velocity(bird); v.Z() > 1e-12 {
		t.Errorf("inward velocity not cancelled: %v", v)
	}

	// A second overlapping step reports a stay, not another enter.
	w.AddForce(bird, mgl64.Vec3{0, 0, 50})
	for _, c := range w.Step(0.02) {
		if c.Kind == CollisionEnter {
			t.Error("collision_enter repeated while still in contact")
		}
	}
}
