package agent

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/pthm-cable/hummingbird/input"
	"github.com/pthm-cable/hummingbird/systems"
)

// Heuristic builds an action from held keys. Movement keys combine into one
// normalized vector along the agent's own axes; when both keys of a pair are
// held the later one (S, D, Q, Down, Right) wins.
func (a *Agent) Heuristic(keys input.KeyState) Action {
	a.mustBeInitialized()
	rot := a.host.Rotation(a.body)

	var forward, left, up mgl64.Vec3
	if keys.Has(input.KeyW) {
		forward = systems.Forward(rot)
	}
	if keys.Has(input.KeyS) {
		forward = systems.Forward(rot).Mul(-1)
	}
	if keys.Has(input.KeyA) {
		left = systems.Right(rot).Mul(-1)
	}
	if keys.Has(input.KeyD) {
		left = systems.Right(rot)
	}
	if keys.Has(input.KeyE) {
		up = systems.Up(rot)
	}
	if keys.Has(input.KeyQ) {
		up = systems.Up(rot).Mul(-1)
	}

	var pitch, yaw float64
	if keys.Has(input.KeyUp) {
		pitch = 1
	}
	if keys.Has(input.KeyDown) {
		pitch = -1
	}
	if keys.Has(input.KeyLeft) {
		yaw = -1
	}
	if keys.Has(input.KeyRight) {
		yaw = 1
	}

	combined := systems.Normalized(forward.Add(left).Add(up))
	return Action{combined.X(), combined.Y(), combined.Z(), pitch, yaw}
}
