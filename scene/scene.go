// Package scene describes a flower area as a YAML node tree and instantiates
// it into a simulation world.
package scene

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

//go:embed schema.json
var schemaJSON []byte

const schemaURL = "https://hummingbird.local/schemas/scene.schema.json"

// Version is the scene document version this package reads and writes.
const Version = 1

// Kind classifies a scene node.
type Kind uint8

const (
	KindGroup    Kind = iota // structural node, recursed into
	KindPlant                // re-randomized on reset, recursed into
	KindFlower               // leaf carrying petal and nectar colliders
	KindBoundary             // solid area limit
	KindStem                 // solid plant geometry
)

var kindNames = [...]string{"group", "plant", "flower", "boundary", "stem"}

// String returns the document name of the kind.
func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// ParseKind resolves a document kind name.
func ParseKind(s string) (Kind, error) {
	for i, name := range kindNames {
		if name == s {
			return Kind(i), nil
		}
	}
	return KindGroup, fmt.Errorf("unknown node kind %q", s)
}

// Vec3 is a three-element YAML list.
type Vec3 [3]float64

// ColliderSpec describes a collider attached to a node, optionally offset
// from it.
type ColliderSpec struct {
	Shape       string  `yaml:"shape"`
	Radius      float64 `yaml:"radius,omitempty"`
	HalfExtents *Vec3   `yaml:"half_extents,omitempty,flow"`
	Offset      *Vec3   `yaml:"offset,omitempty,flow"`
	Tag         string  `yaml:"tag,omitempty"`
	Trigger     bool    `yaml:"trigger,omitempty"`
}

// Node is one element of the scene tree. Rotation holds Euler angles in
// degrees (pitch, yaw, roll).
type Node struct {
	Name     string        `yaml:"name,omitempty"`
	Kind     string        `yaml:"kind"`
	Position *Vec3         `yaml:"position,omitempty,flow"`
	Rotation *Vec3         `yaml:"rotation,omitempty,flow"`
	Collider *ColliderSpec `yaml:"collider,omitempty"`
	Petal    *ColliderSpec `yaml:"petal,omitempty"`
	Nectar   *ColliderSpec `yaml:"nectar,omitempty"`
	Children []Node        `yaml:"children,omitempty"`
}

// Document is a complete scene file.
type Document struct {
	Version int  `yaml:"version"`
	Area    Node `yaml:"area"`
}

var (
	schemaOnce sync.Once
	schema     *jsonschema.Schema
	schemaErr  error
)

func compiledSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		c := jsonschema.NewCompiler()
		if err := c.AddResource(schemaURL, bytes.NewReader(schemaJSON)); err != nil {
			schemaErr = fmt.Errorf("adding scene schema: %w", err)
			return
		}
		schema, schemaErr = c.Compile(schemaURL)
	})
	return schema, schemaErr
}

// Parse validates a YAML scene against the embedded schema and decodes it.
func Parse(data []byte) (*Document, error) {
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing scene: %w", err)
	}

	// The validator expects JSON-shaped values.
	js, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("converting scene: %w", err)
	}
	var generic any
	if err := json.Unmarshal(js, &generic); err != nil {
		return nil, fmt.Errorf("converting scene: %w", err)
	}

	s, err := compiledSchema()
	if err != nil {
		return nil, err
	}
	if err := s.Validate(generic); err != nil {
		return nil, fmt.Errorf("invalid scene: %w", err)
	}

	doc := &Document{}
	if err := yaml.Unmarshal(data, doc); err != nil {
		return nil, fmt.Errorf("decoding scene: %w", err)
	}
	return doc, nil
}

// Load reads and parses a scene file.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scene file: %w", err)
	}
	return Parse(data)
}

// Marshal encodes the document as YAML.
func (d *Document) Marshal() ([]byte, error) {
	return yaml.Marshal(d)
}

// Save writes the document to a file.
func (d *Document) Save(path string) error {
	data, err := d.Marshal()
	if err != nil {
		return fmt.Errorf("encoding scene: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

// Count returns the number of nodes of the given kind in the tree.
func (d *Document) Count(kind Kind) int {
	var walk func(n *Node) int
	walk = func(n *Node) int {
		c := 0
		if n.Kind == kind.String() {
			c++
		}
		for i := range n.Children {
			c += walk(&n.Children[i])
		}
		return c
	}
	return walk(&d.Area)
}
