package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

// DefaultFile is the configuration file looked up in the working directory.
const DefaultFile = "pop.yaml"

// EnvDBPath overrides the database location from the environment.
const EnvDBPath = "POP_DB_PATH"

// Config captures runtime configuration for pop.
type Config struct {
	// DBPath is the location of the SQLite index.
	DBPath string `yaml:"db_path"`

	// BatchSize is the number of records written per transaction while indexing.
	BatchSize int `yaml:"batch_size"`

	// QueueSize bounds the records buffered between the tree walk and the writer.
	QueueSize int `yaml:"queue_size"`

	// DefaultLimit caps search results when no explicit limit is given.
	DefaultLimit int `yaml:"default_limit"`

	// LogLevel sets the logging verbosity (trace, debug, info, warn, error).
	LogLevel string `yaml:"log_level"`

	// LogFile, when set, receives a rotated copy of the log.
	LogFile string `yaml:"log_file"`

	// LogJSON switches console logging to JSON lines.
	LogJSON bool `yaml:"log_json"`

	// ListenAddr is the address the HTTP server binds to.
	ListenAddr string `yaml:"listen_addr"`
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		DBPath:       "index_entries.db",
		BatchSize:    10000,
		QueueSize:    10000,
		DefaultLimit: 1000,
		LogLevel:     "info",
		ListenAddr:   ":8080",
	}
}

// Load reads configuration from path on top of the defaults. A missing file
// yields the defaults; a malformed one is an error. POP_DB_PATH, when set,
// replaces the database location.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return Config{}, fmt.Errorf("read config file: %w", err)
	default:
		var fileCfg Config
		if err := yaml.Unmarshal(data, &fileCfg); err != nil {
			return Config{}, fmt.Errorf("parse config file %s: %w", path, err)
		}
		cfg.merge(fileCfg)
	}

	if env := strings.TrimSpace(os.Getenv(EnvDBPath)); env != "" {
		cfg.DBPath = env
	}

	return cfg, nil
}

// merge applies the non-zero values of other.
func (c *Config) merge(other Config) {
	if other.DBPath != "" {
		c.DBPath = other.DBPath
	}
	if other.BatchSize != 0 {
		c.BatchSize = other.BatchSize
	}
	if other.QueueSize != 0 {
		c.QueueSize = other.QueueSize
	}
	if other.DefaultLimit != 0 {
		c.DefaultLimit = other.DefaultLimit
	}
	if other.LogLevel != "" {
		c.LogLevel = other.LogLevel
	}
	if other.LogFile != "" {
		c.LogFile = other.LogFile
	}
	if other.LogJSON {
		c.LogJSON = true
	}
	if other.ListenAddr != "" {
		c.ListenAddr = other.ListenAddr
	}
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	if strings.TrimSpace(c.DBPath) == "" {
		return errors.New("db_path cannot be empty")
	}
	if c.BatchSize <= 0 {
		return fmt.Errorf("batch_size must be positive, got %d", c.BatchSize)
	}
	if c.QueueSize <= 0 {
		return fmt.Errorf("queue_size must be positive, got %d", c.QueueSize)
	}
	if c.DefaultLimit <= 0 {
		return fmt.Errorf("default_limit must be positive, got %d", c.DefaultLimit)
	}
	if _, err := zerolog.ParseLevel(strings.ToLower(c.LogLevel)); err != nil {
		return fmt.Errorf("invalid log_level %q: %w", c.LogLevel, err)
	}
	return nil
}

// NormalizeRoot resolves an index root to a clean absolute path. An empty
// root means the working directory.
func NormalizeRoot(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		trimmed = "."
	}
	abs, err := filepath.Abs(trimmed)
	if err != nil {
		return "", fmt.Errorf("resolve index root %q: %w", trimmed, err)
	}
	return filepath.Clean(abs), nil
}
