package config

import (
	"fmt"

	"github.com/lawnchairsociety/worldfacts/internal/logger"
	"github.com/lawnchairsociety/worldfacts/internal/structure"
	"github.com/lawnchairsociety/worldfacts/internal/tilemap"
)

// LoadGrid reads the configured map and composites its layers. It returns the
// grid and the map's name.
func (c *Config) LoadGrid() (*tilemap.Grid, string, error) {
	if c.Map.Path == "" {
		return nil, "", fmt.Errorf("%w: no map path configured", structure.ErrConfiguration)
	}

	mf, err := tilemap.LoadMap(c.Map.Path, c.Map.Format)
	if err != nil {
		return nil, "", err
	}

	grid, err := mf.Composite(c.Map.Layers...)
	if err != nil {
		return nil, "", err
	}

	logger.Info("Map loaded",
		"path", c.Map.Path,
		"name", mf.Name,
		"layers", len(mf.Layers),
		"height", grid.Height(),
		"width", grid.Width())
	return grid, mf.Name, nil
}
