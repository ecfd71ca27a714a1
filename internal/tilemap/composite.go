package tilemap

import "fmt"

// Composite flattens layers into one grid. Layers are given in paint order:
// the first is the base, and each later layer overrides the cells where it is
// non-empty. All layers must have identical dimensions.
func Composite(layers ...Layer) (*Grid, error) {
	if len(layers) == 0 {
		return nil, fmt.Errorf("%w: no layers to composite", ErrConfiguration)
	}

	height, width := layers[0].Dimensions()
	for i, layer := range layers {
		if len(layer) != height {
			return nil, fmt.Errorf("%w: layer %d has %d rows, want %d", ErrConfiguration, i, len(layer), height)
		}
		for r, row := range layer {
			if len(row) != width {
				return nil, fmt.Errorf("%w: layer %d row %d has %d cells, want %d", ErrConfiguration, i, r, len(row), width)
			}
		}
	}

	rows := make([][]int, height)
	for r := 0; r < height; r++ {
		rows[r] = make([]int, width)
		for c := 0; c < width; c++ {
			rows[r][c] = layers[0][r][c]
			for _, layer := range layers[1:] {
				if layer[r][c] != Empty {
					rows[r][c] = layer[r][c]
				}
			}
		}
	}

	return NewGrid(rows)
}
