// Package systems provides the fixed-step simulation harness: an ECS world of
// transforms, colliders and rigid bodies with contact reporting.
package systems

import (
	"sort"

	"github.com/dhconnelly/rtreego"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/mlange-42/ark/ecs"
)

// minExtent keeps degenerate AABBs valid for the R-tree.
const minExtent = 1e-6

// indexed is a collider bounding box stored in the broadphase tree.
type indexed struct {
	e    ecs.Entity
	rect rtreego.Rect
}

// Bounds implements rtreego.Spatial.
func (i *indexed) Bounds() rtreego.Rect {
	return i.rect
}

// Broadphase indexes collider AABBs in an R-tree for overlap queries.
type Broadphase struct {
	tree *rtreego.Rtree
	skin float64
}

// NewBroadphase creates an empty broadphase; skin pads every box.
func NewBroadphase(skin float64) *Broadphase {
	return &Broadphase{
		tree: rtreego.NewTree(3, 4, 16),
		skin: skin,
	}
}

// Clear removes all entries.
func (b *Broadphase) Clear() {
	b.tree = rtreego.NewTree(3, 4, 16)
}

// Insert adds an entity with the given world-space AABB.
func (b *Broadphase) Insert(e ecs.Entity, center, halfSize mgl64.Vec3) {
	rect, ok := b.rect(center, halfSize)
	if !ok {
		return
	}
	b.tree.Insert(&indexed{e: e, rect: rect})
}

// Query returns entities whose boxes intersect the AABB, ordered by entity ID.
func (b *Broadphase) Query(center, halfSize mgl64.Vec3) []ecs.Entity {
	rect, ok := b.rect(center, halfSize)
	if !ok {
		return nil
	}
	hits := b.tree.SearchIntersect(rect)
	out := make([]ecs.Entity, 0, len(hits))
	for _, h := range hits {
		out = append(out, h.(*indexed).e)
	}
	// Tree order depends on insertion history; keep contact order reproducible.
	sort.Slice(out, func(i, j int) bool { return out[i].ID() < out[j].ID() })
	return out
}

// Size returns the number of indexed entries.
func (b *Broadphase) Size() int {
	return b.tree.Size()
}

func (b *Broadphase) rect(center, halfSize mgl64.Vec3) (rtreego.Rect, bool) {
	lengths := make([]float64, 3)
	point := make(rtreego.Point, 3)
	for i := 0; i < 3; i++ {
		h := halfSize[i] + b.skin
		if h < minExtent {
			h = minExtent
		}
		point[i] = center[i] - h
		lengths[i] = 2 * h
	}
	rect, err := rtreego.NewRect(point, lengths)
	if err != nil {
		return rtreego.Rect{}, false
	}
	return rect, true
}
