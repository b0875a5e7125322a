package systems

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// World axes. The harness uses a left-handed style layout: +Y up, +Z forward, +X right.
var (
	AxisRight   = mgl64.Vec3{1, 0, 0}
	AxisUp      = mgl64.Vec3{0, 1, 0}
	AxisForward = mgl64.Vec3{0, 0, 1}
)

// Clamp functions for common value ranges

// Clamp clamps v between minVal and maxVal.
func Clamp(v, minVal, maxVal float64) float64 {
	if v < minVal {
		return minVal
	}
	if v > maxVal {
		return maxVal
	}
	return v
}

// Clamp01 clamps v to the [0, 1] range.
func Clamp01(v float64) float64 {
	return Clamp(v, 0, 1)
}

// MoveTowards moves current towards target by at most maxDelta.
func MoveTowards(current, target, maxDelta float64) float64 {
	if math.Abs(target-current) <= maxDelta {
		return target
	}
	if target > current {
		return current + maxDelta
	}
	return current - maxDelta
}

// Angle functions (degrees)

// Repeat wraps a degree angle into [0, 360).
func Repeat(deg float64) float64 {
	deg = math.Mod(deg, 360)
	if deg < 0 {
		deg += 360
	}
	if deg >= 360 {
		deg = 0
	}
	return deg
}

// WrapAngle wraps a degree angle into (-180, 180].
func WrapAngle(deg float64) float64 {
	deg = Repeat(deg)
	if deg > 180 {
		deg -= 360
	}
	return deg
}

// Euler builds a rotation from degree angles. Roll is applied first, then
// pitch about X, then yaw about Y.
func Euler(pitch, yaw, roll float64) mgl64.Quat {
	qx := mgl64.QuatRotate(mgl64.DegToRad(pitch), AxisRight)
	qy := mgl64.QuatRotate(mgl64.DegToRad(yaw), AxisUp)
	qz := mgl64.QuatRotate(mgl64.DegToRad(roll), AxisForward)
	return qy.Mul(qx).Mul(qz).Normalize()
}

// EulerAngles decomposes a rotation built by Euler into degree angles in [0, 360).
func EulerAngles(q mgl64.Quat) (pitch, yaw, roll float64) {
	f := q.Rotate(AxisForward)
	r := q.Rotate(AxisRight)
	u := q.Rotate(AxisUp)

	sinPitch := Clamp(-f.Y(), -1, 1)
	pitch = mgl64.RadToDeg(math.Asin(sinPitch))

	if math.Abs(sinPitch) > 0.99999 {
		// Looking straight up or down: yaw and roll share an axis, fold into yaw.
		yaw = mgl64.RadToDeg(math.Atan2(-r.Z(), r.X()))
		roll = 0
	} else {
		yaw = mgl64.RadToDeg(math.Atan2(f.X(), f.Z()))
		roll = mgl64.RadToDeg(math.Atan2(r.Y(), u.Y()))
	}

	return Repeat(pitch), Repeat(yaw), Repeat(roll)
}

// LookRotation returns a roll-free rotation whose forward axis points along dir.
func LookRotation(dir mgl64.Vec3) mgl64.Quat {
	if dir.Len() < 1e-12 {
		return mgl64.QuatIdent()
	}
	d := dir.Normalize()
	yaw := mgl64.RadToDeg(math.Atan2(d.X(), d.Z()))
	pitch := mgl64.RadToDeg(math.Asin(Clamp(-d.Y(), -1, 1)))
	return Euler(pitch, yaw, 0)
}

// Normalized returns v scaled to unit length, or the zero vector when v is too short.
func Normalized(v mgl64.Vec3) mgl64.Vec3 {
	l := v.Len()
	if l < 1e-12 {
		return mgl64.Vec3{}
	}
	return v.Mul(1 / l)
}

// Forward returns the forward axis of a rotation.
func Forward(q mgl64.Quat) mgl64.Vec3 { return q.Rotate(AxisForward) }

// Up returns the up axis of a rotation.
func Up(q mgl64.Quat) mgl64.Vec3 { return q.Rotate(AxisUp) }

// Right returns the right axis of a rotation.
func Right(q mgl64.Quat) mgl64.Vec3 { return q.Rotate(AxisRight) }
