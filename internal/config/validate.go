package config

import (
	"fmt"
)

// Validate rejects settings an audit cannot run with.
func (c *Config) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %s", c.Timeout)
	}
	if c.MaxPages < 1 {
		return fmt.Errorf("max_pages must be at least 1, got %d", c.MaxPages)
	}
	if c.Concurrency < 1 {
		return fmt.Errorf("concurrency must be at least 1, got %d", c.Concurrency)
	}
	if c.RegressionThreshold < 0 {
		return fmt.Errorf("regression_threshold must not be negative, got %v", c.RegressionThreshold)
	}
	switch c.Format {
	case "text", "json":
	default:
		return fmt.Errorf("format must be text or json, got %q", c.Format)
	}
	switch c.History.Backend {
	case "sqlite", "mongo":
	default:
		return fmt.Errorf("history backend must be sqlite or mongo, got %q", c.History.Backend)
	}
	if c.History.Backend == "mongo" && c.History.URI == "" {
		return fmt.Errorf("history.uri is required for the mongo backend")
	}
	return nil
}
