package structure

import (
	"fmt"

	"github.com/lawnchairsociety/worldfacts/internal/tilemap"
)

// FeatureCount is the number of a component's cells that belong to a feature.
type FeatureCount struct {
	Name  string `json:"name" yaml:"name"`
	Count int    `json:"count" yaml:"count"`
}

// ClassifyFeatures counts, for each feature in order, the component cells whose
// tile id is in the feature's set. Features with no matching cells are left
// out. A cell counts toward every feature that lists its id.
func ClassifyFeatures(c Component, grid *tilemap.Grid, features FeatureSet) ([]FeatureCount, error) {
	if grid == nil {
		return nil, fmt.Errorf("%w: nil grid", ErrInvalidArgument)
	}
	if len(features) == 0 {
		return nil, nil
	}

	counts := make([]int, len(features))
	for _, p := range c {
		id := grid.At(p.Row, p.Col)
		for i, f := range features {
			if f.Tiles.Contains(id) {
				counts[i]++
			}
		}
	}

	var out []FeatureCount
	for i, f := range features {
		if counts[i] > 0 {
			out = append(out, FeatureCount{Name: f.Name, Count: counts[i]})
		}
	}
	return out, nil
}
