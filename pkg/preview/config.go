// Package preview runs capped evaluations for display and schedules them
// behind a debounce so that only the result of the latest edit is delivered.
package preview

import (
	"errors"
	"time"
)

// Static errors for configuration validation
var (
	ErrInvalidDebounce = errors.New("preview debounce must not be negative")
	ErrInvalidMaxRows  = errors.New("preview maxRows must be positive")
	ErrInvalidTimeout  = errors.New("preview timeout must be positive")
)

// Config contains preview settings
type Config struct {
	// Debounce is the quiet period after the last edit before a preview runs
	Debounce time.Duration `yaml:"debounce" default:"500ms"`
	// MaxRows caps the rows of every preview
	MaxRows int `yaml:"maxRows" default:"50"`
	// Timeout bounds a single preview evaluation
	Timeout time.Duration `yaml:"timeout" default:"15s"`
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Debounce < 0 {
		return ErrInvalidDebounce
	}

	if c.MaxRows <= 0 {
		return ErrInvalidMaxRows
	}

	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}

	return nil
}
