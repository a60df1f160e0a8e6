// Package redis provides Redis client configuration
package redis

import (
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Define static errors
var (
	ErrAddressRequired = errors.New("redis address is required")
	ErrInvalidAddress  = errors.New("redis address must be a redis:// or rediss:// URL")
)

// Config holds Redis client configuration
type Config struct {
	Address string `yaml:"address"`
	Prefix  string `yaml:"prefix" default:"datafilters"`
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Address == "" {
		return ErrAddressRequired
	}

	if _, err := redis.ParseURL(c.Address); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidAddress, err)
	}

	if c.Prefix == "" {
		c.Prefix = "datafilters"
	}

	return nil
}

// PrefixKey adds the configured prefix to a Redis key
func (c *Config) PrefixKey(key string) string {
	if c.Prefix == "" {
		return key
	}

	return fmt.Sprintf("%s:%s", c.Prefix, key)
}

// PrefixQueue adds the configured prefix to an Asynq queue name
func (c *Config) PrefixQueue(queue string) string {
	if c.Prefix == "" {
		return queue
	}

	return fmt.Sprintf("%s:%s", c.Prefix, queue)
}
