// Package config loads layered audit settings: built-in defaults, the
// user-home rc file, the project rc file, then CLI flags on top.
package config

import (
	"fmt"
	"strconv"
	"time"
)

// Version is set at build time via ldflags.
var Version = "dev"

// RCFileName is the rc file looked up in the user home and the project
// directory.
const RCFileName = ".aeorc.yml"

// Config is the root configuration for an audit run.
type Config struct {
	Timeout             time.Duration `mapstructure:"timeout"              yaml:"timeout"`
	MaxPages            int           `mapstructure:"max_pages"            yaml:"max_pages"`
	Concurrency         int           `mapstructure:"concurrency"          yaml:"concurrency"`
	Single              bool          `mapstructure:"single"               yaml:"single"`
	Verbose             bool          `mapstructure:"verbose"              yaml:"verbose"`
	Save                bool          `mapstructure:"save"                 yaml:"save"`
	RegressionThreshold float64       `mapstructure:"regression_threshold" yaml:"regression_threshold"`
	Bots                []string      `mapstructure:"bots"                 yaml:"bots"`
	Format              string        `mapstructure:"format"               yaml:"format"`
	Browser             bool          `mapstructure:"browser"              yaml:"browser"`
	History             HistoryConfig `mapstructure:"history"              yaml:"history"`
}

// HistoryConfig selects and configures the audit archive backend.
type HistoryConfig struct {
	Backend  string `mapstructure:"backend"  yaml:"backend"`  // "sqlite" or "mongo"
	Path     string `mapstructure:"path"     yaml:"path"`     // sqlite file; empty means the user-data default
	URI      string `mapstructure:"uri"      yaml:"uri"`      // mongo connection string
	Database string `mapstructure:"database" yaml:"database"` // mongo database name
}

// ParseTimeout accepts both duration strings ("30s", "2m") and bare
// integers meaning seconds ("30"), the form rc files use.
func ParseTimeout(value string) (time.Duration, error) {
	if d, err := time.ParseDuration(value); err == nil {
		return d, nil
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second, nil
	}
	return 0, fmt.Errorf("invalid timeout %q", value)
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		Timeout:             15 * time.Second,
		MaxPages:            10,
		Concurrency:         3,
		RegressionThreshold: 5.0,
		Format:              "text",
		History: HistoryConfig{
			Backend:  "sqlite",
			Database: "contextcli",
		},
	}
}
