package tilemap

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Tiled stores flip and rotation flags in the high bits of each gid.
const tiledGIDMask = 0x0FFFFFFF

type tiledMap struct {
	Width  int          `json:"width"`
	Height int          `json:"height"`
	Layers []tiledLayer `json:"layers"`
}

type tiledLayer struct {
	Name     string          `json:"name"`
	Type     string          `json:"type"`
	Width    int             `json:"width"`
	Height   int             `json:"height"`
	Encoding string          `json:"encoding"`
	Data     []uint32        `json:"-"`
	RawData  json.RawMessage `json:"data"`
	Layers   []tiledLayer    `json:"layers"`
}

// LoadTiledMap reads a Tiled JSON map (.tmj/.json) and returns its tile
// layers. Group layers are flattened in document order; object and image
// layers are skipped. Only CSV-style (plain JSON array) layer data is supported.
func LoadTiledMap(path string) (*MapFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read tiled map: %w", err)
	}

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return ParseTiledMap(name, data)
}

// ParseTiledMap decodes Tiled JSON map data.
func ParseTiledMap(name string, data []byte) (*MapFile, error) {
	var tm tiledMap
	if err := json.Unmarshal(data, &tm); err != nil {
		return nil, fmt.Errorf("failed to parse tiled map: %w", err)
	}

	mf := &MapFile{Name: name}
	if err := collectTiledLayers(mf, tm.Layers, tm.Width, tm.Height); err != nil {
		return nil, err
	}
	if len(mf.Layers) == 0 {
		return nil, fmt.Errorf("%w: tiled map %q has no tile layers", ErrConfiguration, name)
	}

	return mf, nil
}

func collectTiledLayers(mf *MapFile, layers []tiledLayer, mapWidth, mapHeight int) error {
	for _, tl := range layers {
		switch tl.Type {
		case "group":
			if err := collectTiledLayers(mf, tl.Layers, mapWidth, mapHeight); err != nil {
				return err
			}
			continue
		case "tilelayer":
		default:
			continue
		}

		if tl.Encoding != "" && tl.Encoding != "csv" {
			return fmt.Errorf("%w: layer %q uses unsupported encoding %q", ErrConfiguration, tl.Name, tl.Encoding)
		}
		if err := json.Unmarshal(tl.RawData, &tl.Data); err != nil {
			return fmt.Errorf("failed to decode layer %q data: %w", tl.Name, err)
		}

		width, height := tl.Width, tl.Height
		if width == 0 || height == 0 {
			width, height = mapWidth, mapHeight
		}
		if len(tl.Data) != width*height {
			return fmt.Errorf("%w: layer %q has %d cells, want %dx%d", ErrConfiguration, tl.Name, len(tl.Data), width, height)
		}

		cells := make([][]int, height)
		for r := range cells {
			cells[r] = make([]int, width)
			for c := range cells[r] {
				cells[r][c] = int(tl.Data[r*width+c] & tiledGIDMask)
			}
		}
		mf.Layers = append(mf.Layers, NamedLayer{Name: tl.Name, Cells: cells})
	}
	return nil
}
