// worldfacts reads a layered tile map, finds the structures in it and prints
// the world facts that describe them.
//
// Usage:
//
//	go run ./cmd/worldfacts -config data/worldfacts.yaml -map maps/three-farmhouses.tmj
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/lawnchairsociety/worldfacts/internal/config"
	"github.com/lawnchairsociety/worldfacts/internal/database"
	"github.com/lawnchairsociety/worldfacts/internal/facts"
	"github.com/lawnchairsociety/worldfacts/internal/logger"
)

func main() {
	configFile := flag.String("config", "data/worldfacts.yaml", "Path to run config YAML file")
	mapFile := flag.String("map", "", "Path to map file (overrides map.path)")
	mapFormat := flag.String("map-format", "", "Map format: auto, tiled or yaml (overrides map.format)")
	layers := flag.String("layers", "", "Comma-separated layer names in paint order (overrides map.layers)")
	format := flag.String("format", "", "Output format: json, yaml or text (overrides output.format)")
	output := flag.String("output", "", "Output file (overrides output.path, default stdout)")
	zones := flag.String("zones", "", "Zone scheme: legacy or corrected (overrides zones.scheme)")
	minSize := flag.Int("min-size", -1, "Minimum structure size (overrides min_structure_size)")
	save := flag.Bool("save", false, "Save the run to the fact store")
	dbFile := flag.String("db", "", "SQLite fact store path (overrides store.sqlite_path)")
	overlay := flag.Bool("overlay", false, "Print an ASCII overlay of the structures instead of facts")
	listRuns := flag.Bool("list-runs", false, "List stored runs and exit")
	flag.Parse()

	cfg, err := config.LoadConfig(*configFile)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	applyFlags(cfg, flagOverrides{
		mapFile:   *mapFile,
		mapFormat: *mapFormat,
		layers:    *layers,
		format:    *format,
		output:    *output,
		zones:     *zones,
		minSize:   *minSize,
		save:      *save,
		dbFile:    *dbFile,
	})

	// Initialize logger first (before any logging)
	cfg.Logging.ApplyEnv()
	if err := logger.Initialize(cfg.Logging); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	if *listRuns {
		if err := printRuns(cfg.Store.Database, os.Stdout); err != nil {
			log.Fatalf("Failed to list runs: %v", err)
		}
		return
	}

	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	grid, mapName, err := cfg.LoadGrid()
	if err != nil {
		log.Fatalf("Failed to load map: %v", err)
	}

	if *overlay {
		text, err := facts.RenderOverlay(grid, cfg.StructureTypes, cfg.MinStructureSize)
		if err != nil {
			log.Fatalf("Failed to render overlay: %v", err)
		}
		fmt.Print(text)
		return
	}

	opts, err := cfg.Options()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	synth, err := facts.NewSynthesizer(cfg.StructureTypes, opts)
	if err != nil {
		log.Fatalf("Invalid structure types: %v", err)
	}

	start := time.Now()
	fs, err := synth.Generate(grid)
	if err != nil {
		log.Fatalf("Failed to generate facts: %v", err)
	}
	logger.Always("Facts generated", "map", mapName, "facts", len(fs), "elapsed", time.Since(start).Round(time.Millisecond))

	if cfg.Store.Enabled {
		if err := saveRun(cfg.Store.Database, database.Run{
			Digest:  grid.Digest(),
			MapName: mapName,
			Height:  grid.Height(),
			Width:   grid.Width(),
		}, fs); err != nil {
			log.Fatalf("Failed to save run: %v", err)
		}
	}

	if err := writeFacts(fs, cfg.Output); err != nil {
		log.Fatalf("Failed to write facts: %v", err)
	}
}

type flagOverrides struct {
	mapFile   string
	mapFormat string
	layers    string
	format    string
	output    string
	zones     string
	minSize   int
	save      bool
	dbFile    string
}

// applyFlags lets command-line flags override the config file.
func applyFlags(cfg *config.Config, f flagOverrides) {
	if f.mapFile != "" {
		cfg.Map.Path = f.mapFile
	}
	if f.mapFormat != "" {
		cfg.Map.Format = f.mapFormat
	}
	if f.layers != "" {
		cfg.Map.Layers = nil
		for _, name := range strings.Split(f.layers, ",") {
			if name = strings.TrimSpace(name); name != "" {
				cfg.Map.Layers = append(cfg.Map.Layers, name)
			}
		}
	}
	if f.format != "" {
		cfg.Output.Format = f.format
	}
	if f.output != "" {
		cfg.Output.Path = f.output
	}
	if f.zones != "" {
		cfg.Zones.Scheme = f.zones
	}
	if f.minSize >= 0 {
		cfg.MinStructureSize = f.minSize
	}
	if f.save {
		cfg.Store.Enabled = true
	}
	if f.dbFile != "" {
		cfg.Store.Database.Driver = string(database.DialectSQLite)
		cfg.Store.Database.SQLitePath = f.dbFile
	}
}

func saveRun(dbCfg database.Config, run database.Run, fs []facts.Fact) error {
	db, err := database.Open(dbCfg)
	if err != nil {
		return err
	}
	defer db.Close()

	_, err = db.SaveRun(run, fs)
	return err
}

func writeFacts(fs []facts.Fact, out config.OutputConfig) error {
	format, err := facts.ParseFormat(out.Format)
	if err != nil {
		return err
	}

	var w io.Writer = os.Stdout
	if out.Path != "" {
		f, err := os.Create(out.Path)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
		logger.Info("Writing facts", "path", out.Path, "format", format, "facts", len(fs))
	}

	return facts.Encode(w, fs, format)
}

func printRuns(dbCfg database.Config, w io.Writer) error {
	db, err := database.Open(dbCfg)
	if err != nil {
		return err
	}
	defer db.Close()

	runs, err := db.ListRuns()
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "DIGEST\tMAP\tSIZE\tFACTS\tSAVED")
	for _, r := range runs {
		fmt.Fprintf(tw, "%s\t%s\t%dx%d\t%d\t%s\n",
			r.Digest[:min(12, len(r.Digest))], r.MapName, r.Height, r.Width, r.FactCount,
			r.CreatedAt.Format(time.RFC3339))
	}
	return tw.Flush()
}
