package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all packview configuration.
type Config struct {
	// Packing service connection
	Service ServiceConfig `yaml:"service"`

	// Interactive viewer
	Viewer ViewerConfig `yaml:"viewer"`

	// PNG / HTML export
	Export ExportConfig `yaml:"export"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`
}

// ServiceConfig configures the packing service client.
type ServiceConfig struct {
	BaseURL string `yaml:"base_url"`
	Timeout string `yaml:"timeout"`

	// Upper bound on parallel fetches for batch rendering
	MaxConcurrentFetches int `yaml:"max_concurrent_fetches"`
}

// ExportConfig configures image and HTML output.
type ExportConfig struct {
	OutputDir string `yaml:"output_dir"`
	CellSize  int    `yaml:"cell_size"` // pixels per cell in PNG output
	Columns   int    `yaml:"columns"`   // layers per row in PNG contact sheets
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Service: ServiceConfig{
			BaseURL:              "http://localhost:8000",
			Timeout:              "30s",
			MaxConcurrentFetches: 4,
		},

		Viewer: ViewerConfig{
			Theme:         "auto",
			MaxCellWidth:  4,
			WatchDebounce: "300ms",
		},

		Export: ExportConfig{
			OutputDir: "packview-out",
			CellSize:  32,
			Columns:   4,
		},

		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			File:   "packview.log",
		},
	}
}

// Load loads configuration from a YAML file.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// Return defaults if config file doesn't exist
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	// Override with environment variables
	cfg.applyEnvOverrides()

	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if u := os.Getenv("PACKVIEW_SERVICE_URL"); u != "" {
		c.Service.BaseURL = u
	}
	if t := os.Getenv("PACKVIEW_TIMEOUT"); t != "" {
		c.Service.Timeout = t
	}
	if v := os.Getenv("PACKVIEW_DARK_MODE"); v != "" {
		if dark, err := strconv.ParseBool(v); err == nil {
			if dark {
				c.Viewer.Theme = "dark"
			} else {
				c.Viewer.Theme = "light"
			}
		}
	}
	if lvl := os.Getenv("PACKVIEW_LOG_LEVEL"); lvl != "" {
		c.Logging.Level = lvl
	}
}

// GetServiceTimeout returns the service timeout as a duration.
func (c *Config) GetServiceTimeout() time.Duration {
	d, err := time.ParseDuration(c.Service.Timeout)
	if err != nil || d <= 0 {
		return 30 * time.Second
	}
	return d
}

// GetWatchDebounce returns the file watcher debounce as a duration.
func (c *Config) GetWatchDebounce() time.Duration {
	d, err := time.ParseDuration(c.Viewer.WatchDebounce)
	if err != nil || d < 0 {
		return 300 * time.Millisecond
	}
	return d
}

// GetMaxConcurrentFetches returns the batch fetch limit, at least 1.
func (c *Config) GetMaxConcurrentFetches() int {
	if c.Service.MaxConcurrentFetches < 1 {
		return 1
	}
	return c.Service.MaxConcurrentFetches
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	u, err := url.Parse(c.Service.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid service base_url %q (want http(s)://host[:port])", c.Service.BaseURL)
	}
	if _, err := time.ParseDuration(c.Service.Timeout); err != nil {
		return fmt.Errorf("invalid service timeout %q: %w", c.Service.Timeout, err)
	}
	if err := c.Viewer.validate(); err != nil {
		return err
	}
	if c.Export.CellSize < 8 {
		return fmt.Errorf("export cell_size must be at least 8 pixels, got %d", c.Export.CellSize)
	}
	if err := c.Logging.validate(); err != nil {
		return err
	}
	return nil
}
