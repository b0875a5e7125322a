package agent

import (
	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/hummingbird/components"
	"github.com/pthm-cable/hummingbird/systems"
)

// HandleContacts dispatches one step's contacts. A nectar surface touched by
// several agent colliders feeds once per step.
func (a *Agent) HandleContacts(cs []systems.Contact) {
	fed := make(map[ecs.Entity]bool)
	for _, c := range cs {
		if c.Body != a.body {
			continue
		}
		if c.Kind == systems.TriggerEnter || c.Kind == systems.TriggerStay {
			if fed[c.Other] {
				continue
			}
			fed[c.Other] = true
		}
		a.HandleContact(c)
	}
}

// HandleContact dispatches a contact callback for one of the agent's
// colliders. Contacts of other bodies are ignored.
func (a *Agent) HandleContact(c systems.Contact) {
	if c.Body != a.body {
		return
	}
	switch c.Kind {
	case systems.TriggerEnter, systems.TriggerStay:
		a.OnTriggerEnterOrStay(c.Other)
	case systems.CollisionEnter:
		a.OnCollisionEnter(c.Other)
	}
}

// OnTriggerEnterOrStay feeds from a nectar surface when the beak tip is
// within the beak tip radius of it. Called every step while overlapping.
func (a *Agent) OnTriggerEnterOrStay(other ecs.Entity) {
	if a.host.Tag(other) != components.TagNectar {
		return
	}

	tip := a.host.Position(a.beakTip)
	closest := a.host.ClosestPoint(other, tip)
	if tip.Sub(closest).Len() >= a.cfg.Agent.BeakTipRadius {
		return
	}

	f, ok := a.area.LookupNectar(other)
	if !ok || !f.HasNectar() {
		return
	}

	received := f.Feed(a.cfg.Flower.FeedAmount)
	a.stats.NectarObtained += received
	a.stats.FeedEvents++

	if a.training {
		// Alignment is scored against the current target, which is the fed
		// flower unless the beak brushed a different one.
		target := a.nearest
		if target == nil {
			target = f
		}
		inward := systems.Normalized(target.UpVector()).Mul(-1)
		forward := systems.Normalized(systems.Forward(a.host.Rotation(a.body)))
		bonus := a.cfg.Reward.FeedAlignmentBonus * systems.Clamp01(forward.Dot(inward))
		a.AddReward(a.cfg.Reward.FeedBase + bonus)
	}

	if !f.HasNectar() {
		a.stats.FlowersEmptied++
		a.UpdateNearestFlower()
	}
}

// OnCollisionEnter applies the boundary penalty in training.
func (a *Agent) OnCollisionEnter(other ecs.Entity) {
	if a.host.Tag(other) != components.TagBoundary {
		return
	}
	a.stats.BoundaryHits++
	if a.training {
		a.AddReward(a.cfg.Reward.BoundaryPenalty)
	}
}
