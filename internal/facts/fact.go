// Package facts turns the structures found in a tile grid into world facts:
// short records with a type, a per-type sequence id, a bounding box and
// natural-language description lines for a downstream language model.
package facts

import "github.com/lawnchairsociety/worldfacts/internal/structure"

// Fact describes one structure found on the map.
type Fact struct {
	StructureType string                `json:"structureType" yaml:"structure_type"`
	SequenceID    int                   `json:"sequenceId" yaml:"sequence_id"`
	BoundingBox   structure.BoundingBox `json:"boundingBox" yaml:"bounding_box"`
	Descriptions  []string              `json:"descriptions" yaml:"descriptions"`
}

// Pluralizer labels a feature for a given count.
type Pluralizer interface {
	Label(name string, count int) string
}

// NaivePlural appends "s" to the name when count is greater than one.
type NaivePlural struct{}

// Label implements Pluralizer.
func (NaivePlural) Label(name string, count int) string {
	if count > 1 {
		return name + "s"
	}
	return name
}

// PluralTable looks plural forms up by singular name and falls back to
// NaivePlural for names it does not know.
type PluralTable map[string]string

// Label implements Pluralizer.
func (p PluralTable) Label(name string, count int) string {
	if count > 1 {
		if plural, ok := p[name]; ok {
			return plural
		}
	}
	return NaivePlural{}.Label(name, count)
}
