// Package structure finds named structures in a flattened tile grid: it
// extracts connected components of member tiles and summarizes each one's
// extent, position and sub-features.
package structure

import (
	"errors"
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"
)

var (
	ErrConfiguration   = errors.New("structure: configuration error")
	ErrInvalidArgument = errors.New("structure: invalid argument")
)

// TileSet is a set of tile ids.
type TileSet map[int]struct{}

// NewTileSet builds a TileSet from ids. Duplicates collapse.
func NewTileSet(ids ...int) TileSet {
	s := make(TileSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

// Contains reports whether id is in the set.
func (s TileSet) Contains(id int) bool {
	_, ok := s[id]
	return ok
}

// Sorted returns the ids in ascending order.
func (s TileSet) Sorted() []int {
	ids := make([]int, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// UnmarshalYAML decodes a sequence of ints.
func (s *TileSet) UnmarshalYAML(node *yaml.Node) error {
	var ids []int
	if err := node.Decode(&ids); err != nil {
		return err
	}
	*s = NewTileSet(ids...)
	return nil
}

// MarshalYAML encodes the set as a sorted sequence.
func (s TileSet) MarshalYAML() (interface{}, error) {
	return s.Sorted(), nil
}

// Feature is a named sub-feature of a structure type, such as a door or chimney.
type Feature struct {
	Name  string
	Tiles TileSet
}

// FeatureSet is an ordered list of features. Order decides the order of
// generated description lines.
type FeatureSet []Feature

// UnmarshalYAML decodes a mapping of feature name to tile ids, keeping the
// mapping's key order.
func (fs *FeatureSet) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: features must be a mapping of name to tile ids", node.Line)
	}

	out := make(FeatureSet, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		var f Feature
		if err := node.Content[i].Decode(&f.Name); err != nil {
			return err
		}
		if err := node.Content[i+1].Decode(&f.Tiles); err != nil {
			return fmt.Errorf("feature %q: %w", f.Name, err)
		}
		out = append(out, f)
	}
	*fs = out
	return nil
}

// MarshalYAML encodes the features as an ordered mapping.
func (fs FeatureSet) MarshalYAML() (interface{}, error) {
	node := &yaml.Node{Kind: yaml.MappingNode}
	for _, f := range fs {
		var key, value yaml.Node
		if err := key.Encode(f.Name); err != nil {
			return nil, err
		}
		if err := value.Encode(f.Tiles.Sorted()); err != nil {
			return nil, err
		}
		value.Style = yaml.FlowStyle
		node.Content = append(node.Content, &key, &value)
	}
	return node, nil
}

// TypeSpec defines one structure type: its name, the tiles that make it up,
// and the sub-features worth counting.
type TypeSpec struct {
	Name     string     `yaml:"name"`
	Members  TileSet    `yaml:"tile_ids"`
	Features FeatureSet `yaml:"features,omitempty"`
}

// Validate checks that the spec can be scanned.
func (ts TypeSpec) Validate() error {
	if ts.Name == "" {
		return fmt.Errorf("%w: structure type has no name", ErrConfiguration)
	}
	if len(ts.Members) == 0 {
		return fmt.Errorf("%w: structure type %q has no member tile ids", ErrConfiguration, ts.Name)
	}
	for _, f := range ts.Features {
		if f.Name == "" {
			return fmt.Errorf("%w: structure type %q has an unnamed feature", ErrConfiguration, ts.Name)
		}
	}
	return nil
}
