package structure

import "fmt"

// BoundingBox is the tightest axis-aligned box around a component, inclusive
// on both ends.
type BoundingBox struct {
	MinCol int `json:"minCol" yaml:"min_col"`
	MinRow int `json:"minRow" yaml:"min_row"`
	MaxCol int `json:"maxCol" yaml:"max_col"`
	MaxRow int `json:"maxRow" yaml:"max_row"`
}

// Width returns the number of columns the box spans.
func (b BoundingBox) Width() int { return b.MaxCol - b.MinCol + 1 }

// Height returns the number of rows the box spans.
func (b BoundingBox) Height() int { return b.MaxRow - b.MinRow + 1 }

// Bounds computes a component's bounding box.
func Bounds(c Component) (BoundingBox, error) {
	if len(c) == 0 {
		return BoundingBox{}, fmt.Errorf("%w: bounding box of empty component", ErrInvalidArgument)
	}

	box := BoundingBox{MinCol: c[0].Col, MinRow: c[0].Row, MaxCol: c[0].Col, MaxRow: c[0].Row}
	for _, p := range c[1:] {
		box.MinCol = min(box.MinCol, p.Col)
		box.MaxCol = max(box.MaxCol, p.Col)
		box.MinRow = min(box.MinRow, p.Row)
		box.MaxRow = max(box.MaxRow, p.Row)
	}
	return box, nil
}
