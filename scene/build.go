package scene

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/hummingbird/components"
	"github.com/pthm-cable/hummingbird/systems"
)

// FlowerRecord holds the handles of an instantiated flower.
type FlowerRecord struct {
	Name   string
	Node   ecs.Entity
	Petal  ecs.Entity // solid flower body
	Nectar ecs.Entity // feeding trigger
}

// BuiltNode mirrors a document node after instantiation.
type BuiltNode struct {
	Name     string
	Kind     Kind
	Entity   ecs.Entity
	Collider ecs.Entity    // zero when the node has no collider
	Flower   *FlowerRecord // set for KindFlower
	Children []*BuiltNode
}

// Built is an instantiated scene.
type Built struct {
	Root       *BuiltNode
	Boundaries []ecs.Entity
}

// Build instantiates the document into the world. Kinds and tags are
// resolved here; nothing downstream compares strings.
func Build(w *systems.World, doc *Document) (*Built, error) {
	if doc.Version != Version {
		return nil, fmt.Errorf("unsupported scene version %d", doc.Version)
	}
	b := &builder{world: w, built: &Built{}}
	root, err := b.node(ecs.Entity{}, &doc.Area, "area")
	if err != nil {
		return nil, err
	}
	b.built.Root = root
	return b.built, nil
}

type builder struct {
	world *systems.World
	built *Built
}

func (b *builder) node(parent ecs.Entity, n *Node, path string) (*BuiltNode, error) {
	if n.Name != "" {
		path = n.Name
	}
	kind, err := ParseKind(n.Kind)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	pos, rot := mgl64.Vec3{}, mgl64.QuatIdent()
	if n.Position != nil {
		pos = mgl64.Vec3(*n.Position)
	}
	if n.Rotation != nil {
		rot = systems.Euler(n.Rotation[0], n.Rotation[1], n.Rotation[2])
	}

	bn := &BuiltNode{Name: n.Name, Kind: kind}
	bn.Entity = b.world.CreateNode(parent, pos, rot)

	switch kind {
	case KindFlower:
		if n.Petal == nil || n.Nectar == nil {
			return nil, fmt.Errorf("%s: flower needs petal and nectar colliders", path)
		}
		if len(n.Children) > 0 {
			return nil, fmt.Errorf("%s: flowers cannot have children", path)
		}
		rec := &FlowerRecord{Name: n.Name, Node: bn.Entity}
		if rec.Petal, err = b.collider(bn.Entity, n.Petal, components.TagPetal, false, true); err != nil {
			return nil, fmt.Errorf("%s: petal: %w", path, err)
		}
		if rec.Nectar, err = b.collider(bn.Entity, n.Nectar, components.TagNectar, true, true); err != nil {
			return nil, fmt.Errorf("%s: nectar: %w", path, err)
		}
		bn.Flower = rec
		return bn, nil

	case KindBoundary, KindStem:
		if n.Collider == nil {
			return nil, fmt.Errorf("%s: %s needs a collider", path, kind)
		}
	}

	if n.Collider != nil {
		tag := components.TagNone
		switch kind {
		case KindBoundary:
			tag = components.TagBoundary
		case KindStem:
			tag = components.TagStem
		}
		if bn.Collider, err = b.collider(bn.Entity, n.Collider, tag, n.Collider.Trigger, false); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		if kind == KindBoundary {
			b.built.Boundaries = append(b.built.Boundaries, bn.Collider)
		}
	}

	for i := range n.Children {
		child, err := b.node(bn.Entity, &n.Children[i], fmt.Sprintf("%s/%d", path, i))
		if err != nil {
			return nil, err
		}
		bn.Children = append(bn.Children, child)
	}
	return bn, nil
}

// collider creates the collider on the node itself, or on a child node when
// the collider carries an offset or the node holds more than one collider. An
// explicit collider tag wins over the kind default.
func (b *builder) collider(owner ecs.Entity, spec *ColliderSpec, tag components.Tag, trigger, separate bool) (ecs.Entity, error) {
	if spec.Tag != "" {
		t, ok := components.ParseTag(spec.Tag)
		if !ok {
			return ecs.Entity{}, fmt.Errorf("unknown tag %q", spec.Tag)
		}
		tag = t
	}

	var col components.Collider
	shape, ok := components.ParseShape(spec.Shape)
	if !ok {
		return ecs.Entity{}, fmt.Errorf("unknown shape %q", spec.Shape)
	}
	switch shape {
	case components.ShapeBox:
		if spec.HalfExtents == nil {
			return ecs.Entity{}, fmt.Errorf("box collider needs half_extents")
		}
		col = components.BoxCollider(mgl64.Vec3(*spec.HalfExtents), tag, trigger)
	default:
		if spec.Radius <= 0 {
			return ecs.Entity{}, fmt.Errorf("sphere collider needs a positive radius")
		}
		col = components.SphereCollider(spec.Radius, tag, trigger)
	}

	target := owner
	if spec.Offset != nil || separate {
		var offset mgl64.Vec3
		if spec.Offset != nil {
			offset = mgl64.Vec3(*spec.Offset)
		}
		target = b.world.CreateNode(owner, offset, mgl64.QuatIdent())
	}
	b.world.AttachCollider(target, col)
	return target, nil
}
