// mapgen converts a Tiled map into a YAML layer file, optionally keeping only
// some layers or flattening them into one composite layer. The result loads
// with tilemap.LoadLayersYAML and makes a small, diffable test fixture.
//
// Usage:
//
//	go run ./cmd/mapgen -in maps/three-farmhouses.tmj -out data/farm.yaml
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/lawnchairsociety/worldfacts/internal/tilemap"
)

func main() {
	in := flag.String("in", "", "Input map file (.tmj, .json, .yaml)")
	format := flag.String("format", "auto", "Input format: auto, tiled or yaml")
	out := flag.String("out", "", "Output YAML file (default: stdout summary only)")
	layers := flag.String("layers", "", "Comma-separated layer names to keep, in paint order")
	flatten := flag.Bool("flatten", false, "Write a single composited layer")
	flag.Parse()

	if *in == "" {
		fmt.Fprintln(os.Stderr, "Error: -in is required")
		flag.Usage()
		os.Exit(1)
	}

	mf, err := tilemap.LoadMap(*in, *format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	var order []string
	for _, name := range strings.Split(*layers, ",") {
		if name = strings.TrimSpace(name); name != "" {
			order = append(order, name)
		}
	}

	result, err := selectLayers(mf, order, *flatten)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	for _, l := range result.Layers {
		h, w := tilemap.Layer(l.Cells).Dimensions()
		fmt.Printf("%-24s %dx%d\n", l.Name, h, w)
	}

	if *out == "" {
		return
	}
	if err := tilemap.SaveLayersYAML(*out, result); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Wrote %s\n", *out)
}

// selectLayers keeps the named layers in the given order, or all of them when
// order is empty. With flatten the kept layers become one composite layer.
func selectLayers(mf *tilemap.MapFile, order []string, flatten bool) (*tilemap.MapFile, error) {
	if flatten {
		grid, err := mf.Composite(order...)
		if err != nil {
			return nil, err
		}
		return &tilemap.MapFile{
			Name:   mf.Name,
			Layers: []tilemap.NamedLayer{{Name: "composite", Cells: grid.Rows()}},
		}, nil
	}

	if len(order) == 0 {
		return mf, nil
	}

	result := &tilemap.MapFile{Name: mf.Name}
	for _, name := range order {
		l, ok := mf.Layer(name)
		if !ok {
			return nil, fmt.Errorf("map %q has no layer %q", mf.Name, name)
		}
		result.Layers = append(result.Layers, tilemap.NamedLayer{Name: name, Cells: l})
	}
	return result, nil
}
