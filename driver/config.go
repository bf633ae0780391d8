package driver

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"go.yaml.in/yaml/v3"

	"github.com/sarchlab/eesim/fetch"
)

// CacheConfig controls the instruction-fetch cache.
type CacheConfig struct {
	// Enabled puts an instruction cache between the runner and memory.
	Enabled bool `json:"enabled" yaml:"enabled"`

	// Size in bytes. Default: 16KB.
	Size int `json:"size" yaml:"size"`

	// Associativity (number of ways). Default: 2.
	Associativity int `json:"associativity" yaml:"associativity"`

	// BlockSize in bytes. Default: 64.
	BlockSize int `json:"block_size" yaml:"block_size"`
}

// Geometry returns the fetch cache geometry.
func (c CacheConfig) Geometry() fetch.CacheConfig {
	return fetch.CacheConfig{
		Size:          c.Size,
		Associativity: c.Associativity,
		BlockSize:     c.BlockSize,
	}
}

// Config holds run-loop settings.
type Config struct {
	// EntryPoint overrides the program's entry point when set.
	EntryPoint *uint32 `json:"entry_point,omitempty" yaml:"entry_point,omitempty"`

	// MaxInstructions stops the run after this many instructions.
	// Zero means no limit.
	MaxInstructions uint64 `json:"max_instructions" yaml:"max_instructions"`

	// HaltOnTrap stops the run when a trap instruction fires.
	HaltOnTrap bool `json:"halt_on_trap" yaml:"halt_on_trap"`

	// HaltOnBreak stops the run on BREAK.
	HaltOnBreak bool `json:"halt_on_break" yaml:"halt_on_break"`

	// HaltOnOverflow stops the run on an integer overflow exception.
	HaltOnOverflow bool `json:"halt_on_overflow" yaml:"halt_on_overflow"`

	// LogLevel is a logrus level name. Default: "info".
	LogLevel string `json:"log_level" yaml:"log_level"`

	// Cache configures the instruction-fetch cache.
	Cache CacheConfig `json:"cache" yaml:"cache"`
}

// DefaultConfig returns a Config that halts on every fault and fetches
// through a 16KB 2-way instruction cache.
func DefaultConfig() *Config {
	geometry := fetch.DefaultCacheConfig()

	return &Config{
		HaltOnTrap:     true,
		HaltOnBreak:    true,
		HaltOnOverflow: true,
		LogLevel:       "info",
		Cache: CacheConfig{
			Enabled:       true,
			Size:          geometry.Size,
			Associativity: geometry.Associativity,
			BlockSize:     geometry.BlockSize,
		},
	}
}

// LoadConfig loads a Config from a JSON or YAML file, chosen by extension.
// Fields missing from the file keep their default values.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, config)
	default:
		err = json.Unmarshal(data, config)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// SaveConfig writes the Config to a JSON or YAML file, chosen by extension.
func (c *Config) SaveConfig(path string) error {
	var (
		data []byte
		err  error
	)

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(c)
	default:
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("failed to serialize config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks the log level and, when enabled, the cache geometry.
func (c *Config) Validate() error {
	if _, err := c.Level(); err != nil {
		return err
	}

	if c.Cache.Enabled {
		if err := c.Cache.Geometry().Validate(); err != nil {
			return fmt.Errorf("invalid cache config: %w", err)
		}
	}

	return nil
}

// Level parses LogLevel. An empty level means info.
func (c *Config) Level() (logrus.Level, error) {
	if c.LogLevel == "" {
		return logrus.InfoLevel, nil
	}

	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		return 0, fmt.Errorf("invalid log_level: %w", err)
	}

	return level, nil
}
