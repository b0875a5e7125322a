package config

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Range is a closed interval written as a two-element YAML list.
type Range struct {
	Min, Max float64
}

// UnmarshalYAML decodes [min, max].
func (r *Range) UnmarshalYAML(node *yaml.Node) error {
	var vals []float64
	if err := node.Decode(&vals); err != nil {
		return err
	}
	if len(vals) != 2 {
		return fmt.Errorf("line %d: range needs 2 values, got %d", node.Line, len(vals))
	}
	r.Min, r.Max = vals[0], vals[1]
	return nil
}

// MarshalYAML encodes the range as [min, max].
func (r Range) MarshalYAML() (interface{}, error) {
	return []float64{r.Min, r.Max}, nil
}

// Color is an RGB triple in [0,1].
type Color [3]float64

// UnmarshalYAML decodes [r, g, b].
func (c *Color) UnmarshalYAML(node *yaml.Node) error {
	var vals []float64
	if err := node.Decode(&vals); err != nil {
		return err
	}
	if len(vals) != 3 {
		return fmt.Errorf("line %d: color needs 3 values, got %d", node.Line, len(vals))
	}
	copy(c[:], vals)
	return nil
}

// MarshalYAML encodes the color as [r, g, b].
func (c Color) MarshalYAML() (interface{}, error) {
	return []float64{c[0], c[1], c[2]}, nil
}
