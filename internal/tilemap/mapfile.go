package tilemap

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// NamedLayer is a layer together with the name it carries in its map file.
type NamedLayer struct {
	Name  string  `yaml:"name"`
	Cells [][]int `yaml:"rows"`
}

// MapFile is a layered map as read from disk, before compositing.
type MapFile struct {
	Name   string       `yaml:"name"`
	Layers []NamedLayer `yaml:"layers"`
}

// LoadLayersYAML loads a layered map from a YAML file of the form
//
//	name: three-farmhouses
//	layers:
//	  - name: ground
//	    rows:
//	      - [1, 1, 2]
func LoadLayersYAML(path string) (*MapFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read map file: %w", err)
	}

	var mf MapFile
	if err := yaml.Unmarshal(data, &mf); err != nil {
		return nil, fmt.Errorf("failed to parse map YAML: %w", err)
	}
	if len(mf.Layers) == 0 {
		return nil, fmt.Errorf("%w: map %q has no layers", ErrConfiguration, path)
	}

	return &mf, nil
}

// Layer returns the layer with the given name.
func (mf *MapFile) Layer(name string) (Layer, bool) {
	for _, l := range mf.Layers {
		if l.Name == name {
			return Layer(l.Cells), true
		}
	}
	return nil, false
}

// Composite flattens the map's layers. With no names given, layers are painted
// in file order; otherwise only the named layers are used, in the given order.
func (mf *MapFile) Composite(order ...string) (*Grid, error) {
	var layers []Layer
	if len(order) == 0 {
		for _, l := range mf.Layers {
			layers = append(layers, Layer(l.Cells))
		}
		return Composite(layers...)
	}

	for _, name := range order {
		l, ok := mf.Layer(name)
		if !ok {
			return nil, fmt.Errorf("%w: map %q has no layer %q", ErrConfiguration, mf.Name, name)
		}
		layers = append(layers, l)
	}
	return Composite(layers...)
}

// LoadMap reads a layered map. format is "tiled", "yaml", or "auto"/"" to
// choose by extension: .tmj and .json are Tiled maps, .yaml and .yml layer files.
func LoadMap(path, format string) (*MapFile, error) {
	switch strings.ToLower(format) {
	case "tiled":
		return LoadTiledMap(path)
	case "yaml":
		return LoadLayersYAML(path)
	case "", "auto":
	default:
		return nil, fmt.Errorf("%w: unknown map format %q", ErrConfiguration, format)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".tmj", ".json":
		return LoadTiledMap(path)
	case ".yaml", ".yml":
		return LoadLayersYAML(path)
	default:
		return nil, fmt.Errorf("%w: cannot tell map format of %q", ErrConfiguration, path)
	}
}

// MarshalYAML writes each row on one line so layer files stay readable.
func (l NamedLayer) MarshalYAML() (interface{}, error) {
	rows := &yaml.Node{Kind: yaml.SequenceNode}
	for _, row := range l.Cells {
		var r yaml.Node
		if err := r.Encode(row); err != nil {
			return nil, err
		}
		r.Style = yaml.FlowStyle
		rows.Content = append(rows.Content, &r)
	}

	var name yaml.Node
	if err := name.Encode(l.Name); err != nil {
		return nil, err
	}
	return &yaml.Node{
		Kind: yaml.MappingNode,
		Content: []*yaml.Node{
			{Kind: yaml.ScalarNode, Value: "name"}, &name,
			{Kind: yaml.ScalarNode, Value: "rows"}, rows,
		},
	}, nil
}

// SaveLayersYAML writes mf in the format LoadLayersYAML reads.
func SaveLayersYAML(path string, mf *MapFile) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create map file: %w", err)
	}
	defer f.Close()

	enc := yaml.NewEncoder(f)
	enc.SetIndent(2)
	if err := enc.Encode(mf); err != nil {
		return fmt.Errorf("failed to write map YAML: %w", err)
	}
	return enc.Close()
}
