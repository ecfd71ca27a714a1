package logger

import (
	"os"
	"strconv"
)

// Config holds logging configuration. It is read from the logging: section of
// the run configuration.
type Config struct {
	Level          string `yaml:"level"`
	ConsoleEnabled bool   `yaml:"console_enabled"`
	ConsoleFormat  string `yaml:"console_format"`
	FileEnabled    bool   `yaml:"file_enabled"`
	FilePath       string `yaml:"file_path"`
	FileFormat     string `yaml:"file_format"`
	FileMaxSizeMB  int    `yaml:"file_max_size_mb"`
	FileMaxBackups int    `yaml:"file_max_backups"`
	FileMaxAgeDays int    `yaml:"file_max_age_days"`
}

// DefaultConfig logs INFO and above as text to the console. Console output
// goes to stderr so facts written to stdout stay machine-readable.
func DefaultConfig() Config {
	return Config{
		Level:          "INFO",
		ConsoleEnabled: true,
		ConsoleFormat:  "text",
		FileEnabled:    false,
		FilePath:       "logs/worldfacts.log",
		FileFormat:     "text",
		FileMaxSizeMB:  10,
		FileMaxBackups: 5,
		FileMaxAgeDays: 30,
	}
}

// ApplyEnv overrides fields from WORLDFACTS_LOG_* environment variables.
func (c *Config) ApplyEnv() {
	if level := os.Getenv("WORLDFACTS_LOG_LEVEL"); level != "" {
		c.Level = level
	}

	if format := os.Getenv("WORLDFACTS_LOG_FORMAT"); format != "" {
		c.ConsoleFormat = format
	}

	if fileEnabled := os.Getenv("WORLDFACTS_LOG_FILE_ENABLED"); fileEnabled != "" {
		if enabled, err := strconv.ParseBool(fileEnabled); err == nil {
			c.FileEnabled = enabled
		}
	}

	if filePath := os.Getenv("WORLDFACTS_LOG_FILE_PATH"); filePath != "" {
		c.FilePath = filePath
	}
}
