// Package config loads the YAML run configuration: which tiles make up each
// structure type, how the pipeline is tuned and where facts go.
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/lawnchairsociety/worldfacts/internal/database"
	"github.com/lawnchairsociety/worldfacts/internal/facts"
	"github.com/lawnchairsociety/worldfacts/internal/logger"
	"github.com/lawnchairsociety/worldfacts/internal/structure"
)

// Config is the full run configuration.
type Config struct {
	// MinStructureSize is the component size threshold. Components must be
	// strictly larger to become facts.
	MinStructureSize int `yaml:"min_structure_size"`

	// StructureTypes are scanned in order; facts follow the same order.
	StructureTypes []structure.TypeSpec `yaml:"structure_types"`

	Map     MapConfig         `yaml:"map"`
	Zones   ZonesConfig       `yaml:"zones"`
	Plurals map[string]string `yaml:"plurals"`
	Output  OutputConfig      `yaml:"output"`

	// Workers bounds how many structure types are scanned concurrently.
	Workers int `yaml:"workers"`

	Logging logger.Config `yaml:"logging"`
	Store   StoreConfig   `yaml:"store"`
	Server  ServerConfig  `yaml:"server"`
}

// MapConfig names the tile map to analyze.
type MapConfig struct {
	Path string `yaml:"path"`

	// Format is "auto" (by extension), "tiled" or "yaml".
	Format string `yaml:"format"`

	// Layers lists layer names in paint order. Empty means file order.
	Layers []string `yaml:"layers"`
}

// ZonesConfig selects the zone naming scheme.
type ZonesConfig struct {
	// Scheme is "legacy" or "corrected".
	Scheme string `yaml:"scheme"`
}

// OutputConfig controls how facts are written.
type OutputConfig struct {
	// Format is "json", "yaml" or "text".
	Format string `yaml:"format"`

	// Path is the output file. Empty means stdout.
	Path string `yaml:"path"`
}

// StoreConfig controls fact-run persistence.
type StoreConfig struct {
	Enabled  bool            `yaml:"enabled"`
	Database database.Config `yaml:",inline"`
}

// ServerConfig holds fact service settings.
type ServerConfig struct {
	Address     string            `yaml:"address"`
	WebSocket   WebSocketConfig   `yaml:"websocket"`
	Connections ConnectionsConfig `yaml:"connections"`
}

// ConnectionsConfig holds connection limit settings.
type ConnectionsConfig struct {
	// MaxPerIP is the maximum concurrent WebSocket sessions from one IP.
	// 0 means unlimited.
	MaxPerIP int `yaml:"max_per_ip"`

	// MaxTotal is the maximum concurrent WebSocket sessions. 0 means unlimited.
	MaxTotal int `yaml:"max_total"`
}

// WebSocketConfig holds WebSocket-specific settings.
type WebSocketConfig struct {
	// AllowedOrigins is a list of origins allowed to connect via WebSocket.
	// Empty list enforces same-origin policy.
	// Use "*" to allow all origins.
	AllowedOrigins []string `yaml:"allowed_origins"`

	// MaxMessageSize is the maximum WebSocket message size in bytes.
	MaxMessageSize int64 `yaml:"max_message_size"`
}

// DefaultConfig returns the configuration for the three-farmhouses map.
func DefaultConfig() *Config {
	return &Config{
		MinStructureSize: structure.DefaultMinSize,
		StructureTypes:   DefaultStructureTypes(),
		Map: MapConfig{
			Format: "auto",
		},
		Zones:   ZonesConfig{Scheme: structure.ZoneLegacy.String()},
		Plurals: map[string]string{},
		Output:  OutputConfig{Format: string(facts.FormatJSON)},
		Logging: logger.DefaultConfig(),
		Store: StoreConfig{
			Database: database.DefaultConfig("data/worldfacts.db"),
		},
		Server: ServerConfig{
			Address: ":4480",
			WebSocket: WebSocketConfig{
				AllowedOrigins: []string{}, // Same-origin only by default
				MaxMessageSize: 4096,
			},
			Connections: ConnectionsConfig{
				MaxPerIP: 5,
				MaxTotal: 100,
			},
		},
	}
}

// DefaultStructureTypes returns house, fence and forest as laid out in the
// farmhouse tileset. Tile 6 is a lone bush and is left out of forest.
func DefaultStructureTypes() []structure.TypeSpec {
	return []structure.TypeSpec{
		{
			Name:    "house",
			Members: structure.NewTileSet(tileRange(49, 56, 61, 68, 73, 80, 85, 92)...),
			Features: structure.FeatureSet{
				{Name: "door", Tiles: structure.NewTileSet(86, 87)},
				{Name: "chimney", Tiles: structure.NewTileSet(56)},
			},
		},
		{
			Name:    "fence",
			Members: structure.NewTileSet(45, 46, 47, 48, 57, 59, 60, 69, 70, 71, 72, 81, 82, 83),
		},
		{
			Name:    "forest",
			Members: structure.NewTileSet(append([]int{4, 5, 107, 95}, tileRange(7, 12, 16, 24, 28, 36)...)...),
			Features: structure.FeatureSet{
				{Name: "behive", Tiles: structure.NewTileSet(107)},
				{Name: "mushroom", Tiles: structure.NewTileSet(95)},
			},
		},
	}
}

// tileRange expands inclusive lo, hi pairs.
func tileRange(bounds ...int) []int {
	var ids []int
	for i := 0; i+1 < len(bounds); i += 2 {
		for id := bounds[i]; id <= bounds[i+1]; id++ {
			ids = append(ids, id)
		}
	}
	return ids
}

// LoadConfig loads configuration from a YAML file.
// If the file doesn't exist, returns default config.
func LoadConfig(path string) (*Config, error) {
	config := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return config, nil // Use defaults if file doesn't exist
		}
		return config, err
	}

	if err := yaml.Unmarshal(data, config); err != nil {
		return DefaultConfig(), fmt.Errorf("%w: %s: %v", structure.ErrConfiguration, path, err)
	}

	return config, nil
}

// Validate reports configuration errors before any map is scanned.
func (c *Config) Validate() error {
	if c.MinStructureSize < 0 {
		return fmt.Errorf("%w: min_structure_size must not be negative, got %d", structure.ErrConfiguration, c.MinStructureSize)
	}
	for _, spec := range c.StructureTypes {
		if err := spec.Validate(); err != nil {
			return err
		}
	}
	if _, err := structure.ParseZoneScheme(c.Zones.Scheme); err != nil {
		return err
	}
	if _, err := facts.ParseFormat(c.Output.Format); err != nil {
		return fmt.Errorf("%w: %v", structure.ErrConfiguration, err)
	}
	switch strings.ToLower(c.Map.Format) {
	case "", "auto", "tiled", "yaml":
	default:
		return fmt.Errorf("%w: unknown map format %q", structure.ErrConfiguration, c.Map.Format)
	}
	if c.Store.Enabled {
		if err := c.Store.Database.Validate(); err != nil {
			return fmt.Errorf("%w: %v", structure.ErrConfiguration, err)
		}
	}
	return nil
}

// Options converts the pipeline settings to synthesizer options.
func (c *Config) Options() (facts.Options, error) {
	scheme, err := structure.ParseZoneScheme(c.Zones.Scheme)
	if err != nil {
		return facts.Options{}, err
	}

	opts := facts.DefaultOptions()
	opts.MinSize = c.MinStructureSize
	opts.Zones = scheme
	opts.Workers = c.Workers
	if len(c.Plurals) > 0 {
		opts.Plurals = facts.PluralTable(c.Plurals)
	}
	return opts, nil
}

// IsOriginAllowed checks if the given origin is allowed based on the config.
// Returns true if:
// - AllowedOrigins contains "*" (allow all)
// - AllowedOrigins contains the exact origin
// - AllowedOrigins is empty and origin matches the request host (same-origin)
func (c *WebSocketConfig) IsOriginAllowed(origin, requestHost string) bool {
	if len(c.AllowedOrigins) == 0 {
		return isSameOrigin(origin, requestHost)
	}

	for _, allowed := range c.AllowedOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}

	return false
}

// isSameOrigin checks if the origin matches the request host.
func isSameOrigin(origin, requestHost string) bool {
	if origin == "" {
		return true // Non-browser clients send no Origin header
	}

	originHost := origin
	if idx := strings.Index(origin, "://"); idx != -1 {
		originHost = origin[idx+3:]
	}
	originHost = strings.TrimSuffix(originHost, "/")

	return originHost == requestHost
}
