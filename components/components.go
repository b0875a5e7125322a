// Package components defines ECS components for the simulation harness.
package components

// Tag classifies a collider for contact handling.
// Scene files name tags as strings; they are resolved to Tag once at load time.
type Tag uint8

const (
	TagNone     Tag = iota
	TagNectar       // feeding surface of a flower
	TagBoundary     // walls, ground and ceiling of the area
	TagPetal        // solid flower body
	TagStem         // solid plant body
	TagAgent        // any collider owned by the hummingbird
)

var tagNames = [...]string{"none", "nectar", "boundary", "petal", "stem", "agent"}

// String returns the scene-file name of the tag.
func (t Tag) String() string {
	if int(t) < len(tagNames) {
		return tagNames[t]
	}
	return "unknown"
}

// ParseTag resolves a scene-file tag name.
func ParseTag(s string) (Tag, bool) {
	for i, name := range tagNames {
		if name == s {
			return Tag(i), true
		}
	}
	return TagNone, false
}

// Shape selects the collider geometry.
type Shape uint8

const (
	ShapeSphere Shape = iota
	ShapeBox
)

// String returns the scene-file name of the shape.
func (s Shape) String() string {
	switch s {
	case ShapeSphere:
		return "sphere"
	case ShapeBox:
		return "box"
	}
	return "unknown"
}

// ParseShape resolves a scene-file shape name.
func ParseShape(s string) (Shape, bool) {
	switch s {
	case "sphere":
		return ShapeSphere, true
	case "box":
		return ShapeBox, true
	}
	return ShapeSphere, false
}
