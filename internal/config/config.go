package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/planbiir/gpxtools/internal/geodesy"
	"github.com/planbiir/gpxtools/internal/smooth"
)

// ErrInvalidConfig reports a setting outside smoothing that cannot be used.
// Smoothing parameters keep smooth.ErrConfiguration.
var ErrInvalidConfig = errors.New("invalid configuration")

// DefaultOutput is the output file name used when none is given.
const DefaultOutput = "_output.gpx"

// Config holds the application configuration.
type Config struct {
	Output    string       `yaml:"output"`
	SearchDir string       `yaml:"search_dir"`
	Geodesic  string       `yaml:"geodesic"` // "wgs84", "haversine"
	Smooth    SmoothConfig `yaml:"smooth"`
	Log       LogConfig    `yaml:"log"`
}

// SmoothConfig holds smoothing settings.
type SmoothConfig struct {
	Enabled       bool `yaml:"enabled"`
	smooth.Config `yaml:",inline"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `yaml:"level"` // DEBUG, INFO, WARN, ERROR
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		Output:    DefaultOutput,
		SearchDir: ".",
		Geodesic:  geodesy.ModelWGS84,
		Smooth: SmoothConfig{
			Enabled: false,
			Config:  smooth.DefaultConfig(),
		},
		Log: LogConfig{
			Level: "INFO",
		},
	}
}

// Load reads the configuration at path over the defaults. An empty path or a
// missing file yields the defaults unchanged.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return cfg, nil
}

// Save writes the configuration to the path.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Validate checks values that would otherwise fail later in the run.
// Smoothing parameters are only checked when smoothing is enabled.
func (c *Config) Validate() error {
	if c.Output == "" {
		return fmt.Errorf("%w: output file name is empty", ErrInvalidConfig)
	}
	if _, err := geodesy.ByName(c.Geodesic); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if c.Smooth.Enabled {
		return c.Smooth.Config.Validate()
	}
	return nil
}
