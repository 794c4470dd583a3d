package main

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

// Supported output formats.
const (
	formatYAML = "yaml"
	formatJSON = "json"
	formatTOML = "toml"
)

// config holds the tool settings. Every field can be set through a LAYOUT_
// prefixed environment variable; command line flags take precedence.
type config struct {
	Format      string `envconfig:"FORMAT" default:"yaml"`
	Output      string `envconfig:"OUTPUT" default:"-"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"DEV" default:"false"`
}

// loadConfig reads the tool settings from the environment.
func loadConfig() (*config, error) {
	var cfg config
	if err := envconfig.Process("layout", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}

func (c *config) validate() error {
	switch c.Format {
	case formatYAML, formatJSON, formatTOML:
		return nil
	default:
		return fmt.Errorf("unsupported output format %q (expected yaml, json or toml)", c.Format)
	}
}
