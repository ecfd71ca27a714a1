package facts

import (
	"fmt"
	"strings"

	"github.com/lawnchairsociety/worldfacts/internal/structure"
	"github.com/lawnchairsociety/worldfacts/internal/tilemap"
)

// RenderOverlay draws the grid as text, marking every retained structure cell
// with the first letter of its type. Later types overwrite earlier ones where
// they share a cell. Empty cells print as '.', other tiles as ','.
func RenderOverlay(grid *tilemap.Grid, specs []structure.TypeSpec, minSize int) (string, error) {
	if grid == nil {
		return "", fmt.Errorf("%w: nil grid", structure.ErrInvalidArgument)
	}
	h, w := grid.Height(), grid.Width()
	canvas := make([][]byte, h)
	for r := range canvas {
		canvas[r] = make([]byte, w)
		for c := range canvas[r] {
			if grid.At(r, c) == tilemap.Empty {
				canvas[r][c] = '.'
			} else {
				canvas[r][c] = ','
			}
		}
	}

	var legend strings.Builder
	legend.WriteString("\nLegend:\n  [.] Empty\n  [,] Other tile\n")
	for _, spec := range specs {
		comps, err := structure.Extract(grid, spec.Members, minSize)
		if err != nil {
			return "", fmt.Errorf("extracting %s: %w", spec.Name, err)
		}
		mark := symbolFor(spec.Name)
		for _, comp := range comps {
			for _, p := range comp {
				canvas[p.Row][p.Col] = mark
			}
		}
		fmt.Fprintf(&legend, "  [%c] %s (%d)\n", mark, spec.Name, len(comps))
	}

	var out strings.Builder
	for _, row := range canvas {
		out.Write(row)
		out.WriteString("\n")
	}
	out.WriteString(legend.String())
	return out.String(), nil
}

func symbolFor(name string) byte {
	if name == "" {
		return '?'
	}
	c := name[0]
	if c >= 'a' && c <= 'z' {
		c -= 'a' - 'A'
	}
	return c
}
