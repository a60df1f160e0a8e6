// Package backend provides the HTTP client for the crawler backend that serves
// field catalogs and dataset records
package backend

import (
	"errors"
	"net/url"
	"time"
)

// Static errors for configuration validation
var (
	ErrURLRequired = errors.New("backend URL is required")
	ErrInvalidURL  = errors.New("backend URL must be http or https")
)

// Config contains backend connection settings
type Config struct {
	URL        string        `yaml:"url"`
	Timeout    time.Duration `yaml:"timeout" default:"10s"`
	KeepAlive  time.Duration `yaml:"keepAlive" default:"30s"`
	MaxRecords int           `yaml:"maxRecords" default:"10000"`
	Debug      bool          `yaml:"debug"`
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.URL == "" {
		return ErrURLRequired
	}

	u, err := url.Parse(c.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return ErrInvalidURL
	}

	return nil
}

// SetDefaults fills zero values
func (c *Config) SetDefaults() {
	if c.Timeout == 0 {
		c.Timeout = 10 * time.Second
	}

	if c.KeepAlive == 0 {
		c.KeepAlive = 30 * time.Second
	}

	if c.MaxRecords == 0 {
		c.MaxRecords = 10000
	}
}
