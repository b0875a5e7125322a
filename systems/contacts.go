package systems

import (
	"sort"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/hummingbird/components"
)

// ContactKind identifies a contact callback.
type ContactKind uint8

const (
	TriggerEnter ContactKind = iota
	TriggerStay
	TriggerExit
	CollisionEnter
	CollisionStay
	CollisionExit
)

var contactKindNames = [...]string{
	"trigger_enter", "trigger_stay", "trigger_exit",
	"collision_enter", "collision_stay", "collision_exit",
}

// String returns the name of the contact kind.
func (k ContactKind) String() string {
	if int(k) < len(contactKindNames) {
		return contactKindNames[k]
	}
	return "unknown"
}

// IsTrigger reports whether the contact came from a trigger volume.
func (k ContactKind) IsTrigger() bool {
	return k <= TriggerExit
}

// Contact is a single contact callback produced by a step.
type Contact struct {
	Kind     ContactKind
	Body     ecs.Entity // rigid body owning Self
	Self     ecs.Entity // body collider
	Other    ecs.Entity // collider touched
	OtherTag components.Tag
	Normal   mgl64.Vec3 // from Other towards Self (zero for exits)
}

type pairKey struct {
	self, other ecs.Entity
}

type pairState struct {
	trigger bool
	body    ecs.Entity
	tag     components.Tag
}

// ContactTracker turns per-step overlaps into enter/stay/exit callbacks.
type ContactTracker struct {
	prev map[pairKey]pairState
	cur  map[pairKey]pairState
}

// NewContactTracker creates an empty tracker.
func NewContactTracker() *ContactTracker {
	return &ContactTracker{
		prev: make(map[pairKey]pairState),
		cur:  make(map[pairKey]pairState),
	}
}

// Observe records an overlap for the current step and returns its callback.
func (t *ContactTracker) Observe(body, self, other ecs.Entity, tag components.Tag, trigger bool, normal mgl64.Vec3) Contact {
	key := pairKey{self: self, other: other}
	t.cur[key] = pairState{trigger: trigger, body: body, tag: tag}

	_, seen := t.prev[key]
	kind := CollisionStay
	switch {
	case trigger && !seen:
		kind = TriggerEnter
	case trigger:
		kind = TriggerStay
	case !seen:
		kind = CollisionEnter
	}
	return Contact{Kind: kind, Body: body, Self: self, Other: other, OtherTag: tag, Normal: normal}
}

// Finish emits exits for pairs that stopped overlapping and starts a new step.
func (t *ContactTracker) Finish() []Contact {
	var exits []Contact
	for key, st := range t.prev {
		if _, still := t.cur[key]; still {
			continue
		}
		kind := CollisionExit
		if st.trigger {
			kind = TriggerExit
		}
		exits = append(exits, Contact{Kind: kind, Body: st.body, Self: key.self, Other: key.other, OtherTag: st.tag})
	}
	sort.Slice(exits, func(i, j int) bool {
		if exits[i].Self != exits[j].Self {
			return exits[i].Self.ID() < exits[j].Self.ID()
		}
		return exits[i].Other.ID() < exits[j].Other.ID()
	})

	t.prev, t.cur = t.cur, t.prev
	clear(t.cur)
	return exits
}

// Reset forgets all tracked pairs, e.g. after a body is teleported.
func (t *ContactTracker) Reset() {
	clear(t.prev)
	clear(t.cur)
}
