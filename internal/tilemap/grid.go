// Package tilemap holds the flattened tile grid the structure pipeline reads,
// along with the layer compositor and loaders for layered map files.
package tilemap

import (
	"errors"
	"fmt"
)

var (
	ErrConfiguration   = errors.New("tilemap: configuration error")
	ErrInvalidArgument = errors.New("tilemap: invalid argument")
)

// Empty is the tile id of a cell with nothing painted on it.
const Empty = 0

// Coord addresses a single cell. Row is the vertical (y) axis, Col the horizontal (x) axis.
type Coord struct {
	Row int `json:"row" yaml:"row"`
	Col int `json:"col" yaml:"col"`
}

// Less orders coordinates row-major: by row, then by column.
func (c Coord) Less(o Coord) bool {
	if c.Row != o.Row {
		return c.Row < o.Row
	}
	return c.Col < o.Col
}

func (c Coord) String() string {
	return fmt.Sprintf("(%d,%d)", c.Row, c.Col)
}

// Layer is one paint layer of a map, indexed [row][col].
type Layer [][]int

// Dimensions returns the layer's height and width. A ragged layer reports the
// width of its first row; Composite rejects ragged input.
func (l Layer) Dimensions() (height, width int) {
	if len(l) == 0 {
		return 0, 0
	}
	return len(l), len(l[0])
}

// Grid is a flattened, read-only tile map.
type Grid struct {
	height, width int
	cells         []int
}

// NewGrid copies rows into a new Grid. All rows must share one width.
func NewGrid(rows [][]int) (*Grid, error) {
	height := len(rows)
	width := 0
	if height > 0 {
		width = len(rows[0])
	}

	g := &Grid{height: height, width: width, cells: make([]int, height*width)}
	for r, row := range rows {
		if len(row) != width {
			return nil, fmt.Errorf("%w: row %d has %d cells, want %d", ErrConfiguration, r, len(row), width)
		}
		for c, v := range row {
			if v < 0 {
				return nil, fmt.Errorf("%w: negative tile id %d at %s", ErrConfiguration, v, Coord{r, c})
			}
			g.cells[r*width+c] = v
		}
	}
	return g, nil
}

// Height returns the number of rows.
func (g *Grid) Height() int { return g.height }

// Width returns the number of columns.
func (g *Grid) Width() int { return g.width }

// InBounds reports whether (row, col) lies inside the grid.
func (g *Grid) InBounds(row, col int) bool {
	return row >= 0 && col >= 0 && row < g.height && col < g.width
}

// At returns the tile id at (row, col), or Empty when the cell is out of bounds.
func (g *Grid) At(row, col int) int {
	if !g.InBounds(row, col) {
		return Empty
	}
	return g.cells[row*g.width+col]
}

// Rows returns a copy of the grid as [row][col] slices.
func (g *Grid) Rows() [][]int {
	rows := make([][]int, g.height)
	for r := range rows {
		rows[r] = make([]int, g.width)
		copy(rows[r], g.cells[r*g.width:(r+1)*g.width])
	}
	return rows
}
