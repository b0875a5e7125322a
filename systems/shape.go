package systems

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/pthm-cable/hummingbird/components"
)

// worldShape is a collider resolved into world space.
type worldShape struct {
	col    *components.Collider
	center mgl64.Vec3
	rot    mgl64.Quat
}

// closestPoint returns the point on or inside the shape nearest to p.
// Points inside the volume are returned unchanged.
func (s worldShape) closestPoint(p mgl64.Vec3) mgl64.Vec3 {
	switch s.col.Shape {
	case components.ShapeBox:
		local := s.rot.Inverse().Rotate(p.Sub(s.center))
		h := s.col.HalfExtents
		clamped := mgl64.Vec3{
			Clamp(local.X(), -h.X(), h.X()),
			Clamp(local.Y(), -h.Y(), h.Y()),
			Clamp(local.Z(), -h.Z(), h.Z()),
		}
		return s.center.Add(s.rot.Rotate(clamped))
	default:
		d := p.Sub(s.center)
		l := d.Len()
		if l <= s.col.Radius {
			return p
		}
		return s.center.Add(d.Mul(s.col.Radius / l))
	}
}

// extents returns the half size of the world-space AABB.
func (s worldShape) extents() mgl64.Vec3 {
	if s.col.Shape != components.ShapeBox {
		r := s.col.Radius
		return mgl64.Vec3{r, r, r}
	}
	h := s.col.HalfExtents
	ax := s.rot.Rotate(AxisRight.Mul(h.X()))
	ay := s.rot.Rotate(AxisUp.Mul(h.Y()))
	az := s.rot.Rotate(AxisForward.Mul(h.Z()))
	return mgl64.Vec3{
		math.Abs(ax.X()) + math.Abs(ay.X()) + math.Abs(az.X()),
		math.Abs(ax.Y()) + math.Abs(ay.Y()) + math.Abs(az.Y()),
		math.Abs(ax.Z()) + math.Abs(ay.Z()) + math.Abs(az.Z()),
	}
}

// sphereOverlap tests a sphere against the shape.
// normal points from the shape towards the sphere centre and depth is the
// distance the sphere must move along normal to separate.
func (s worldShape) sphereOverlap(center mgl64.Vec3, radius float64) (hit bool, normal mgl64.Vec3, depth float64) {
	if s.col.Shape == components.ShapeBox {
		return s.boxSphereOverlap(center, radius)
	}

	d := center.Sub(s.center)
	dist := d.Len()
	sum := radius + s.col.Radius
	if dist >= sum {
		return false, mgl64.Vec3{}, 0
	}
	if dist < 1e-12 {
		return true, AxisUp, sum
	}
	return true, d.Mul(1 / dist), sum - dist
}

func (s worldShape) boxSphereOverlap(center mgl64.Vec3, radius float64) (bool, mgl64.Vec3, float64) {
	closest := s.closestPoint(center)
	d := center.Sub(closest)
	dist := d.Len()
	if dist >= radius {
		return false, mgl64.Vec3{}, 0
	}
	if dist > 1e-12 {
		return true, d.Mul(1 / dist), radius - dist
	}

	// Centre inside the box: leave through the nearest face.
	local := s.rot.Inverse().Rotate(center.Sub(s.center))
	h := s.col.HalfExtents
	axes := [3]mgl64.Vec3{AxisRight, AxisUp, AxisForward}
	best := 0
	bestGap := math.Inf(1)
	for i := 0; i < 3; i++ {
		gap := h[i] - math.Abs(local[i])
		if gap < bestGap {
			bestGap = gap
			best = i
		}
	}
	n := axes[best]
	if local[best] < 0 {
		n = n.Mul(-1)
	}
	return true, s.rot.Rotate(n), radius + bestGap
}
