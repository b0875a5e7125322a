// Package agent implements the hummingbird: episode lifecycle, observations,
// actions and feeding rewards.
package agent

import (
	"fmt"
	"math/rand"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/hummingbird/components"
	"github.com/pthm-cable/hummingbird/config"
	"github.com/pthm-cable/hummingbird/flower"
	"github.com/pthm-cable/hummingbird/systems"
)

const (
	// ObservationSize is the length of the observation vector.
	ObservationSize = 10
	// ActionSize is the length of the action vector.
	ActionSize = 5
)

// Action is one continuous action: force x/y/z, pitch rate, yaw rate.
type Action [ActionSize]float64

// Host is the part of the simulation world the agent reads and writes.
type Host interface {
	CreateNode(parent ecs.Entity, localPos mgl64.Vec3, localRot mgl64.Quat) ecs.Entity
	AttachCollider(e ecs.Entity, c components.Collider)
	AttachBody(e ecs.Entity, b components.RigidBody)

	Position(e ecs.Entity) mgl64.Vec3
	Rotation(e ecs.Entity) mgl64.Quat
	LocalRotation(e ecs.Entity) mgl64.Quat
	SetPose(e ecs.Entity, pos mgl64.Vec3, rot mgl64.Quat)

	AddForce(e ecs.Entity, f mgl64.Vec3)
	ResetVelocity(e ecs.Entity)
	Sleep(e ecs.Entity)
	WakeUp(e ecs.Entity)

	Tag(e ecs.Entity) components.Tag
	ClosestPoint(e ecs.Entity, p mgl64.Vec3) mgl64.Vec3
	OverlapSphere(center mgl64.Vec3, radius float64, exclude ...ecs.Entity) []ecs.Entity
	ResetContacts()
}

// State is the lifecycle state of an agent.
type State uint8

const (
	Uninitialized State = iota
	Ready
	EpisodeActive
	EpisodeEnded
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Ready:
		return "ready"
	case EpisodeActive:
		return "episode_active"
	case EpisodeEnded:
		return "episode_ended"
	}
	return "unknown"
}

// EpisodeStats summarizes the current or last episode.
type EpisodeStats struct {
	Episode          int
	Steps            int
	NectarObtained   float64
	CumulativeReward float64
	FeedEvents       int
	BoundaryHits     int
	FlowersEmptied   int
	SpawnInFront     bool
	SpawnAttempts    int
	Interrupted      bool
}

// Agent is the hummingbird.
type Agent struct {
	host Host
	area *flower.Area
	cfg  *config.Config
	rng  *rand.Rand

	training bool
	maxStep  int
	state    State
	frozen   bool

	body    ecs.Entity
	beakTip ecs.Entity

	nearest *flower.Flower

	smoothPitchChange float64
	smoothYawChange   float64

	pendingReward float64
	stats         EpisodeStats
}

// New creates an uninitialized agent in the area.
func New(host Host, area *flower.Area, cfg *config.Config, rng *rand.Rand) *Agent {
	return &Agent{host: host, area: area, cfg: cfg, rng: rng}
}

// Initialize creates the agent body and fixes the training mode. Outside
// training episodes have no step limit.
func (a *Agent) Initialize(training bool) {
	if a.state != Uninitialized {
		panic("agent: Initialize called twice")
	}
	ac := a.cfg.Agent

	a.body = a.host.CreateNode(ecs.Entity{}, a.area.Center(), mgl64.QuatIdent())
	a.host.AttachBody(a.body, components.RigidBody{Mass: ac.Mass, Drag: ac.Drag})
	bodyCol := components.SphereCollider(ac.BodyRadius, components.TagAgent, false)
	bodyCol.Body = a.body
	a.host.AttachCollider(a.body, bodyCol)

	a.beakTip = a.host.CreateNode(a.body, systems.AxisForward.Mul(ac.BeakLength), mgl64.QuatIdent())
	beakCol := components.SphereCollider(ac.BeakColliderRadius, components.TagAgent, false)
	beakCol.Body = a.body
	a.host.AttachCollider(a.beakTip, beakCol)

	a.training = training
	a.maxStep = 0
	if training {
		a.maxStep = a.cfg.Training.MaxStep
	}
	a.state = Ready
}

func (a *Agent) mustBeInitialized() {
	if a.state == Uninitialized {
		panic("agent: used before Initialize")
	}
}

// OnEpisodeBegin starts a new episode. In training the whole flower area is
// reset first; this assumes a single agent per area.
func (a *Agent) OnEpisodeBegin() {
	a.mustBeInitialized()

	if a.training {
		a.area.ResetFlowers()
	}

	a.stats = EpisodeStats{Episode: a.stats.Episode + 1}
	a.pendingReward = 0
	a.smoothPitchChange = 0
	a.smoothYawChange = 0

	a.host.ResetVelocity(a.body)

	inFront := true
	if a.training {
		inFront = a.rng.Float64() < a.cfg.Spawn.InFrontChance
	}
	a.stats.SpawnInFront = inFront
	a.stats.SpawnAttempts = a.MoveToSafeRandomPosition(inFront)
	a.host.ResetContacts()

	a.UpdateNearestFlower()
	a.state = EpisodeActive
}

// MoveToSafeRandomPosition places the agent at a random pose whose clearance
// sphere touches no collider other than the agent's own, and returns the
// number of attempts used. Panics when every attempt is blocked.
func (a *Agent) MoveToSafeRandomPosition(inFront bool) int {
	sc := a.cfg.Spawn
	flowers := a.area.Flowers()
	if inFront && len(flowers) == 0 {
		panic("agent: cannot spawn in front of a flower in an area without flowers")
	}

	for attempt := 1; attempt <= sc.MaxAttempts; attempt++ {
		var pos mgl64.Vec3
		var rot mgl64.Quat

		if inFront {
			f := flowers[a.rng.Intn(len(flowers))]
			distance := uniform(a.rng, sc.InFrontDistance)
			pos = f.Position().Add(f.UpVector().Mul(distance))
			rot = systems.LookRotation(f.CenterPosition().Sub(pos))
		} else {
			height := uniform(a.rng, sc.Height)
			radius := uniform(a.rng, sc.Radius)
			direction := systems.Euler(0, uniform(a.rng, sc.Yaw), 0)
			pos = a.area.Center().
				Add(systems.AxisUp.Mul(height)).
				Add(direction.Rotate(systems.AxisForward).Mul(radius))
			rot = systems.Euler(uniform(a.rng, sc.Pitch), uniform(a.rng, sc.Yaw), 0)
		}

		if len(a.host.OverlapSphere(pos, sc.ClearanceRadius, a.body)) == 0 {
			a.host.SetPose(a.body, pos, rot)
			return attempt
		}
	}

	panic(fmt.Sprintf("agent: no safe spawn position after %d attempts", sc.MaxAttempts))
}

// UpdateNearestFlower picks the closest flower with nectar, measured from
// the beak tip to the flower position. The current target wins ties. With
// no nectar left anywhere the agent has no target.
func (a *Agent) UpdateNearestFlower() {
	a.mustBeInitialized()
	tip := a.host.Position(a.beakTip)

	best := a.nearest
	if best != nil && !best.HasNectar() {
		best = nil
	}
	bestDist := 0.0
	if best != nil {
		bestDist = best.Position().Sub(tip).Len()
	}

	for _, f := range a.area.Flowers() {
		if !f.HasNectar() {
			continue
		}
		d := f.Position().Sub(tip).Len()
		if best == nil || d < bestDist {
			best, bestDist = f, d
		}
	}
	a.nearest = best
}

// FixedUpdate retargets once the current flower runs dry.
func (a *Agent) FixedUpdate() {
	if a.nearest != nil && !a.nearest.HasNectar() {
		a.UpdateNearestFlower()
	}
}

// CollectObservations returns the observation vector:
// local rotation (x, y, z, w), direction from beak tip to the flower centre,
// alignment of that direction with the flower's inward axis, alignment of the
// beak with the inward axis, and distance over the area diameter. All zeros
// when there is no target.
func (a *Agent) CollectObservations() []float64 {
	a.mustBeInitialized()
	obs := make([]float64, ObservationSize)
	if a.nearest == nil {
		return obs
	}

	q := a.host.LocalRotation(a.body).Normalize()
	obs[0], obs[1], obs[2], obs[3] = q.V.X(), q.V.Y(), q.V.Z(), q.W

	tip := a.host.Position(a.beakTip)
	toFlower := a.nearest.CenterPosition().Sub(tip)
	dir := systems.Normalized(toFlower)
	obs[4], obs[5], obs[6] = dir.X(), dir.Y(), dir.Z()

	inward := systems.Normalized(a.nearest.UpVector()).Mul(-1)
	obs[7] = dir.Dot(inward)
	obs[8] = systems.Normalized(systems.Forward(a.host.Rotation(a.beakTip))).Dot(inward)
	obs[9] = toFlower.Len() / a.area.Diameter()

	return obs
}

// OnActionReceived applies an action. Ignored while frozen.
func (a *Agent) OnActionReceived(act Action) {
	a.mustBeInitialized()
	if a.frozen {
		return
	}
	ac := a.cfg.Agent
	dt := a.cfg.Physics.DT

	move := mgl64.Vec3{act[0], act[1], act[2]}
	a.host.AddForce(a.body, move.Mul(ac.MoveForce))

	rot := a.host.Rotation(a.body)
	curPitch, curYaw, _ := systems.EulerAngles(rot)

	maxDelta := ac.RotationSmoothing * dt
	a.smoothPitchChange = systems.MoveTowards(a.smoothPitchChange, act[3], maxDelta)
	a.smoothYawChange = systems.MoveTowards(a.smoothYawChange, act[4], maxDelta)

	pitch := curPitch + a.smoothPitchChange*dt*ac.PitchSpeed
	if pitch > 180 {
		pitch -= 360
	}
	pitch = systems.Clamp(pitch, -ac.MaxPitchAngle, ac.MaxPitchAngle)

	yaw := curYaw + a.smoothYawChange*dt*ac.YawSpeed

	a.host.SetPose(a.body, a.host.Position(a.body), systems.Euler(pitch, yaw, 0))
}

// AdvanceStep counts a completed step and ends the episode when the step
// limit is reached. Reports whether the episode ended.
func (a *Agent) AdvanceStep() bool {
	if a.state != EpisodeActive {
		return false
	}
	a.stats.Steps++
	if a.maxStep > 0 && a.stats.Steps >= a.maxStep {
		a.EndEpisode(true)
		return true
	}
	return false
}

// Freeze stops the agent from acting and puts its body to sleep.
// Only valid outside training.
func (a *Agent) Freeze() {
	a.mustBeInitialized()
	if a.training {
		panic("agent: Freeze is not supported in training")
	}
	a.frozen = true
	a.host.Sleep(a.body)
}

// Unfreeze reverses Freeze. Only valid outside training.
func (a *Agent) Unfreeze() {
	a.mustBeInitialized()
	if a.training {
		panic("agent: Unfreeze is not supported in training")
	}
	a.frozen = false
	a.host.WakeUp(a.body)
}

// AddReward adds to the reward of the current decision.
func (a *Agent) AddReward(r float64) {
	a.pendingReward += r
	a.stats.CumulativeReward += r
}

// TakeReward returns the reward accumulated since the previous call and
// clears it.
func (a *Agent) TakeReward() float64 {
	r := a.pendingReward
	a.pendingReward = 0
	return r
}

// CumulativeReward returns the total reward of the current episode.
func (a *Agent) CumulativeReward() float64 {
	return a.stats.CumulativeReward
}

// EndEpisode finishes the current episode. interrupted marks a step-limit
// cut rather than a terminal state.
func (a *Agent) EndEpisode(interrupted bool) {
	if a.state != EpisodeActive {
		return
	}
	a.stats.Interrupted = interrupted
	a.state = EpisodeEnded
}

// State returns the lifecycle state.
func (a *Agent) State() State { return a.state }

// Frozen reports whether the agent is frozen.
func (a *Agent) Frozen() bool { return a.frozen }

// Training reports whether the agent runs in training mode.
func (a *Agent) Training() bool { return a.training }

// MaxStep returns the episode step limit, 0 for unlimited.
func (a *Agent) MaxStep() int { return a.maxStep }

// NectarObtained returns the nectar collected this episode.
func (a *Agent) NectarObtained() float64 { return a.stats.NectarObtained }

// NearestFlower returns the current target, or nil.
func (a *Agent) NearestFlower() *flower.Flower { return a.nearest }

// Stats returns a copy of the current episode statistics.
func (a *Agent) Stats() EpisodeStats { return a.stats }

// Body returns the body handle.
func (a *Agent) Body() ecs.Entity { return a.body }

// BeakTip returns the beak tip handle.
func (a *Agent) BeakTip() ecs.Entity { return a.beakTip }

// Position returns the world position of the body.
func (a *Agent) Position() mgl64.Vec3 { return a.host.Position(a.body) }

// Rotation returns the world rotation of the body.
func (a *Agent) Rotation() mgl64.Quat { return a.host.Rotation(a.body) }

// BeakTipPosition returns the world position of the beak tip.
func (a *Agent) BeakTipPosition() mgl64.Vec3 { return a.host.Position(a.beakTip) }

func uniform(rng *rand.Rand, r config.Range) float64 {
	return r.Min + rng.Float64()*(r.Max-r.Min)
}
