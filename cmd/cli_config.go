package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/creasty/defaults"
	"gopkg.in/yaml.v3"

	"github.com/crawlpulse/datafilters/pkg/backend"
	"github.com/crawlpulse/datafilters/pkg/catalog"
	"github.com/crawlpulse/datafilters/pkg/editor"
	"github.com/crawlpulse/datafilters/pkg/evaluator"
	"github.com/crawlpulse/datafilters/pkg/presets"
	"github.com/crawlpulse/datafilters/pkg/preview"
)

var (
	// ErrSourceRequired is returned when neither a backend nor a dataset file is configured
	ErrSourceRequired = errors.New("either backend.url or --datasets is required")
)

// CLIConfig represents minimal configuration for CLI commands
type CLIConfig struct {
	// Logging level
	Logging string `yaml:"logging" default:"error"`

	Backend backend.Config `yaml:"backend"`
	// DatasetFile serves catalogs and records from a file instead of the backend
	DatasetFile string         `yaml:"datasetFile"`
	Presets     presets.Config `yaml:"presets"`
	Preview     preview.Config `yaml:"preview"`
}

// Validate validates the CLI configuration
func (c *CLIConfig) Validate() error {
	if c.DatasetFile != "" {
		return nil
	}

	if c.Backend.URL == "" {
		return ErrSourceRequired
	}

	c.Backend.SetDefaults()

	return c.Backend.Validate()
}

// LoadCLIConfig loads CLI configuration from a YAML file
func LoadCLIConfig(path string) (*CLIConfig, error) {
	if path == "" {
		path = "config.yaml"
	}

	config := &CLIConfig{}

	if err := defaults.Set(config); err != nil {
		return nil, err
	}

	// Try to read the file, but allow it to not exist
	yamlFile, err := os.ReadFile(path) //nolint:gosec // User-provided config file path
	if err != nil {
		if os.IsNotExist(err) {
			return config, nil
		}
		return nil, err
	}

	if err := yaml.Unmarshal(yamlFile, config); err != nil {
		return nil, err
	}

	return config, nil
}

// source opens the configured dataset source
func (c *CLIConfig) source() (cliSource, func(), error) {
	if c.DatasetFile != "" {
		mem, err := backend.LoadFile(c.DatasetFile)
		if err != nil {
			return nil, nil, err
		}
		return mem, func() {}, nil
	}

	client, err := backend.NewClient(logger, &c.Backend)
	if err != nil {
		return nil, nil, err
	}

	return client, func() {
		if err := client.Stop(); err != nil {
			logger.WithError(err).Error("Failed to stop backend client")
		}
	}, nil
}

// cliSource serves both catalogs and records
type cliSource interface {
	catalog.Catalog
	evaluator.Source
}

// loadDefinition reads conditions and transformations from a YAML or JSON file
func loadDefinition(path string) (editor.Snapshot, error) {
	var snap editor.Snapshot

	data, err := os.ReadFile(path) //nolint:gosec // User-provided definition path
	if err != nil {
		return snap, fmt.Errorf("failed to read definition: %w", err)
	}

	if err := yaml.Unmarshal(data, &snap); err != nil {
		return snap, fmt.Errorf("failed to parse definition: %w", err)
	}

	return snap, nil
}
