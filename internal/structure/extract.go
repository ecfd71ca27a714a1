package structure

import (
	"fmt"

	"github.com/lawnchairsociety/worldfacts/internal/tilemap"
)

// DefaultMinSize is the default component size threshold. Components must be
// strictly larger than the threshold to be kept.
const DefaultMinSize = 3

// Component is one maximal 4-connected group of member cells. The first
// coordinate is always the component's row-major smallest cell.
type Component []tilemap.Coord

// Representative returns the component's first (row-major smallest) coordinate.
func (c Component) Representative() tilemap.Coord {
	return c[0]
}

// neighbors in up, down, left, right order.
var neighbors = [4]tilemap.Coord{
	{Row: -1, Col: 0},
	{Row: 1, Col: 0},
	{Row: 0, Col: -1},
	{Row: 0, Col: 1},
}

// Labelling is the outcome of one extraction pass.
type Labelling struct {
	Components []Component
	// Discarded counts regions of minSize cells or fewer.
	Discarded int
}

// Extract partitions the grid's member cells into connected components.
// Cells are scanned in row-major order and a flood fill is started from each
// unvisited member cell; regions of minSize cells or fewer are discarded.
// Components are returned in the order their fill started.
func Extract(grid *tilemap.Grid, members TileSet, minSize int) ([]Component, error) {
	l, err := Label(grid, members, minSize)
	return l.Components, err
}

// Label runs Extract and also reports how many regions were too small.
func Label(grid *tilemap.Grid, members TileSet, minSize int) (Labelling, error) {
	if grid == nil {
		return Labelling{}, fmt.Errorf("%w: nil grid", ErrInvalidArgument)
	}
	if len(members) == 0 {
		return Labelling{}, fmt.Errorf("%w: empty member tile set", ErrConfiguration)
	}
	if minSize < 0 {
		return Labelling{}, fmt.Errorf("%w: negative minimum size %d", ErrConfiguration, minSize)
	}

	height, width := grid.Height(), grid.Width()
	visited := make([]bool, height*width)
	isMember := func(row, col int) bool {
		v := grid.At(row, col)
		return v != tilemap.Empty && members.Contains(v)
	}

	var out Labelling
	for row := 0; row < height; row++ {
		for col := 0; col < width; col++ {
			if visited[row*width+col] || !isMember(row, col) {
				continue
			}

			region := floodFill(grid, row, col, visited, isMember)
			if len(region) > minSize {
				out.Components = append(out.Components, region)
			} else {
				out.Discarded++
			}
		}
	}

	return out, nil
}

// floodFill collects the region reachable from (row, col) with an explicit
// stack. The start cell is always the first element.
func floodFill(grid *tilemap.Grid, row, col int, visited []bool, isMember func(int, int) bool) Component {
	width := grid.Width()
	var region Component
	stack := []tilemap.Coord{{Row: row, Col: col}}

	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if !grid.InBounds(cur.Row, cur.Col) {
			continue
		}
		idx := cur.Row*width + cur.Col
		if visited[idx] || !isMember(cur.Row, cur.Col) {
			continue
		}

		visited[idx] = true
		region = append(region, cur)

		for _, d := range neighbors {
			stack = append(stack, tilemap.Coord{Row: cur.Row + d.Row, Col: cur.Col + d.Col})
		}
	}

	return region
}
