// Package server wires the catalog, evaluator, preview, export and API
// services into one process
package server

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/creasty/defaults"
	"gopkg.in/yaml.v3"

	"github.com/crawlpulse/datafilters/pkg/api"
	"github.com/crawlpulse/datafilters/pkg/backend"
	"github.com/crawlpulse/datafilters/pkg/catalog"
	"github.com/crawlpulse/datafilters/pkg/export"
	"github.com/crawlpulse/datafilters/pkg/presets"
	"github.com/crawlpulse/datafilters/pkg/preview"
	"github.com/crawlpulse/datafilters/pkg/redis"
)

// Define static errors
var (
	ErrRedisConfigRequired = errors.New("redis configuration is required")
	ErrSourceRequired      = errors.New("either backend.url or datasetFile is required")
)

// Config holds server configuration
type Config struct {
	// MetricsAddr is the address to listen on for metrics.
	MetricsAddr string `yaml:"metricsAddr" default:":9091"`
	// HealthCheckAddr is the address to listen on for healthcheck.
	HealthCheckAddr string `yaml:"healthCheckAddr"`
	// PProfAddr is the address to listen on for pprof.
	PProfAddr string `yaml:"pprofAddr"`
	// LoggingLevel is the logging level to use.
	LoggingLevel string `yaml:"logging" default:"info"`
	// ShutdownTimeout is the timeout for shutting down the server.
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout" default:"10s"`

	Redis   *redis.Config  `yaml:"redis"`
	Backend backend.Config `yaml:"backend"`
	// DatasetFile serves catalogs and records from a YAML or JSON file
	// instead of the backend
	DatasetFile string         `yaml:"datasetFile"`
	Catalog     catalog.Config `yaml:"catalog"`
	Preview     preview.Config `yaml:"preview"`
	API         api.Config     `yaml:"api"`
	Export      export.Config  `yaml:"export"`
	Presets     presets.Config `yaml:"presets"`
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Redis == nil {
		return ErrRedisConfigRequired
	}

	if err := c.Redis.Validate(); err != nil {
		return fmt.Errorf("invalid redis configuration: %w", err)
	}

	switch {
	case c.Backend.URL != "":
		if err := c.Backend.Validate(); err != nil {
			return fmt.Errorf("invalid backend configuration: %w", err)
		}
	case c.DatasetFile == "":
		return ErrSourceRequired
	}

	if err := c.Preview.Validate(); err != nil {
		return fmt.Errorf("invalid preview configuration: %w", err)
	}

	if err := c.API.Validate(); err != nil {
		return fmt.Errorf("invalid api configuration: %w", err)
	}

	if err := c.Export.Validate(); err != nil {
		return fmt.Errorf("invalid export configuration: %w", err)
	}

	return nil
}

// LoadConfig reads a YAML config file over the defaults
func LoadConfig(path string) (*Config, error) {
	cfg := &Config{}
	if err := defaults.Set(cfg); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path) //nolint:gosec // operator supplied config path
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if cfg.Redis != nil {
		if err := defaults.Set(cfg.Redis); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}
