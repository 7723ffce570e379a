package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/metalfoundry/foundry/internal/datastore"
)

// Config holds all configuration for the foundry service
type Config struct {
	DBPath string `yaml:"db_path"`
	Port   string `yaml:"port"`
}

// NewConfig creates a new Config with default values
func NewConfig() *Config {
	return &Config{
		DBPath: "~/foundry/data/foundry.db",
		Port:   "8080",
	}
}

// LoadConfig reads a YAML config file over the defaults. A missing file is
// not an error; the defaults stand.
func LoadConfig(path string) (*Config, error) {
	cfg := NewConfig()
	if path == "" {
		return cfg, nil
	}

	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(b, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if cfg.DBPath == "" {
		cfg.DBPath = NewConfig().DBPath
	}
	if cfg.Port == "" {
		cfg.Port = NewConfig().Port
	}
	return cfg, nil
}

// InitializeDatastore opens and configures the datastore at the configured
// path, creating the directory if needed.
func (c *Config) InitializeDatastore() (*datastore.Datastore, error) {
	dbPath := c.expandPath(c.DBPath)

	dbDir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dbDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	ds, err := datastore.New(dbPath)
	if err != nil {
		return nil, err
	}

	TuneConnectionPool(ds.DB)
	if err := ApplyStoragePragmas(ds.DB); err != nil {
		return nil, fmt.Errorf("failed to apply storage pragmas: %w", err)
	}

	return ds, nil
}

// expandPath expands ~ to home directory
func (c *Config) expandPath(path string) string {
	if !strings.HasPrefix(path, "~/") {
		return path
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		// Return original path if we can't get home dir
		return path
	}

	return filepath.Join(homeDir, path[2:])
}
