// Package input maps manual controls to the agent's heuristic keys.
package input

// KeyState is a set of held keys.
type KeyState uint16

const (
	// Movement keys
	KeyW KeyState = 1 << iota // forward
	KeyS                      // back
	KeyA                      // left
	KeyD                      // right
	KeyE                      // up
	KeyQ                      // down

	// Rotation keys
	KeyUp    // pitch +1
	KeyDown  // pitch -1
	KeyLeft  // yaw -1
	KeyRight // yaw +1
)

// AllKeys lists every key in declaration order.
var AllKeys = []KeyState{KeyW, KeyS, KeyA, KeyD, KeyE, KeyQ, KeyUp, KeyDown, KeyLeft, KeyRight}

var keyNames = map[KeyState]string{
	KeyW: "W", KeyS: "S", KeyA: "A", KeyD: "D", KeyE: "E", KeyQ: "Q",
	KeyUp: "Up", KeyDown: "Down", KeyLeft: "Left", KeyRight: "Right",
}

// Has checks if the set contains a key.
func (k KeyState) Has(other KeyState) bool {
	return k&other != 0
}

// Add adds a key to the set.
func (k KeyState) Add(other KeyState) KeyState {
	return k | other
}

// Remove removes a key from the set.
func (k KeyState) Remove(other KeyState) KeyState {
	return k &^ other
}

// String lists the held keys, e.g. "W+Up".
func (k KeyState) String() string {
	if k == 0 {
		return "none"
	}
	s := ""
	for _, key := range AllKeys {
		if !k.Has(key) {
			continue
		}
		if s != "" {
			s += "+"
		}
		s += keyNames[key]
	}
	return s
}

// MovementKeys are keys that produce a force.
var MovementKeys = KeyW | KeyS | KeyA | KeyD | KeyE | KeyQ

// RotationKeys are keys that produce a pitch or yaw rate.
var RotationKeys = KeyUp | KeyDown | KeyLeft | KeyRight
