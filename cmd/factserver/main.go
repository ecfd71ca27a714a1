// factserver analyzes a map once at startup and serves its facts over HTTP
// (GET /facts) and WebSocket (/ws). Sending SIGHUP re-reads the map and
// publishes fresh facts without dropping sessions.
package main

import (
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/lawnchairsociety/worldfacts/internal/config"
	"github.com/lawnchairsociety/worldfacts/internal/database"
	"github.com/lawnchairsociety/worldfacts/internal/facts"
	"github.com/lawnchairsociety/worldfacts/internal/logger"
	"github.com/lawnchairsociety/worldfacts/internal/server"
)

func main() {
	configFile := flag.String("config", "data/worldfacts.yaml", "Path to run config YAML file")
	mapFile := flag.String("map", "", "Path to map file (overrides map.path)")
	address := flag.String("addr", "", "Listen address (overrides server.address)")
	flag.Parse()

	cfg, err := config.LoadConfig(*configFile)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *mapFile != "" {
		cfg.Map.Path = *mapFile
	}
	if *address != "" {
		cfg.Server.Address = *address
	}

	// Initialize logger first (before any logging)
	cfg.Logging.ApplyEnv()
	if err := logger.Initialize(cfg.Logging); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	logger.Info("Starting fact server")

	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	srv := server.NewServer(cfg.Server)

	var db *database.Database
	if cfg.Store.Enabled {
		db, err = database.Open(cfg.Store.Database)
		if err != nil {
			log.Fatalf("Failed to open fact store: %v", err)
		}
		defer db.Close()
		srv.SetDatabase(db)
		logger.Info("Fact store attached", "driver", cfg.Store.Database.Driver)
	}

	if err := publish(cfg, srv, db); err != nil {
		log.Fatalf("Failed to analyze map: %v", err)
	}

	if len(cfg.Server.WebSocket.AllowedOrigins) == 0 {
		logger.Info("WebSocket CORS policy", "mode", "same-origin")
	} else if len(cfg.Server.WebSocket.AllowedOrigins) == 1 && cfg.Server.WebSocket.AllowedOrigins[0] == "*" {
		logger.Warning("WebSocket CORS allows all origins (not recommended for production)")
	} else {
		logger.Info("WebSocket CORS policy", "allowed_origins", cfg.Server.WebSocket.AllowedOrigins)
	}

	go func() {
		if err := srv.Start(); err != nil {
			log.Fatalf("Fact server error: %v", err)
		}
	}()

	snap := srv.Snapshot()
	logger.Always("Fact server started",
		"address", cfg.Server.Address,
		"map", snap.MapName,
		"facts", len(snap.Facts),
		"store", cfg.Store.Enabled)
	logger.Info("Press Ctrl+C to shutdown")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
	for sig := range sigChan {
		if sig == syscall.SIGHUP {
			if err := publish(cfg, srv, db); err != nil {
				logger.Error("Reload failed, keeping previous facts", "error", err)
			}
			continue
		}
		break
	}

	logger.Info("Shutting down fact server")
	srv.Shutdown()
}

// publish runs the pipeline over the configured map and hands the result to
// the server. Runs are saved when a store is attached.
func publish(cfg *config.Config, srv *server.Server, db *database.Database) error {
	grid, mapName, err := cfg.LoadGrid()
	if err != nil {
		return err
	}

	opts, err := cfg.Options()
	if err != nil {
		return err
	}
	fs, err := facts.Generate(grid, cfg.StructureTypes, opts)
	if err != nil {
		return err
	}

	digest := grid.Digest()
	if db != nil {
		run := database.Run{Digest: digest, MapName: mapName, Height: grid.Height(), Width: grid.Width()}
		if _, err := db.SaveRun(run, fs); err != nil {
			logger.Warning("Failed to save fact run", "digest", digest, "error", err)
		}
	}

	srv.Publish(mapName, digest, fs)
	return nil
}
