package structure

import (
	"fmt"
	"strings"

	"github.com/lawnchairsociety/worldfacts/internal/tilemap"
)

// ZoneScheme selects how the middle band of the map is named.
type ZoneScheme int

const (
	// ZoneLegacy is the first zoning rule: the middle column band is
	// never applied on the middle row band, so the map centre reads
	// "center right". Existing description text depends on it.
	ZoneLegacy ZoneScheme = iota

	// ZoneCorrected applies both middle bands, naming the centre cell "center".
	ZoneCorrected
)

// String returns the scheme's config name.
func (s ZoneScheme) String() string {
	switch s {
	case ZoneLegacy:
		return "legacy"
	case ZoneCorrected:
		return "corrected"
	default:
		return "unknown"
	}
}

// ParseZoneScheme converts a config name to a ZoneScheme. The empty string
// selects ZoneLegacy.
func ParseZoneScheme(name string) (ZoneScheme, error) {
	switch strings.ToLower(name) {
	case "", "legacy":
		return ZoneLegacy, nil
	case "corrected":
		return ZoneCorrected, nil
	default:
		return ZoneLegacy, fmt.Errorf("%w: unknown zone scheme %q", ErrConfiguration, name)
	}
}

// Zone names the third of the map that coord falls in, using the legacy scheme.
func Zone(coord tilemap.Coord, gridHeight, gridWidth int) (string, error) {
	return ZoneLegacy.Classify(coord, gridHeight, gridWidth)
}

// Classify names the zone of coord on a gridHeight x gridWidth map, as
// "<top|center|bottom> <left|center|right>".
func (s ZoneScheme) Classify(coord tilemap.Coord, gridHeight, gridWidth int) (string, error) {
	if gridHeight <= 0 || gridWidth <= 0 {
		return "", fmt.Errorf("%w: grid dimensions %dx%d", ErrInvalidArgument, gridHeight, gridWidth)
	}
	if coord.Row < 0 || coord.Col < 0 || coord.Row >= gridHeight || coord.Col >= gridWidth {
		return "", fmt.Errorf("%w: %s outside %dx%d grid", ErrInvalidArgument, coord, gridHeight, gridWidth)
	}

	rowThird := float64(gridHeight) / 3
	colThird := float64(gridWidth) / 3
	row, col := float64(coord.Row), float64(coord.Col)

	var horizontal string
	switch {
	case row < rowThird:
		horizontal = "top"
	case row < 2*rowThird:
		horizontal = "center"
	default:
		horizontal = "bottom"
	}

	var vertical string
	switch {
	case col < colThird:
		vertical = "left"
	case col < 2*colThird && (horizontal != "center" || s == ZoneCorrected):
		vertical = "center"
	default:
		vertical = "right"
	}

	if horizontal == "center" && vertical == "center" {
		return "center", nil
	}
	return horizontal + " " + vertical, nil
}
