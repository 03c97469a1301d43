// Package run provides the commands that execute pipes from definition files.
package run

import (
	"errors"
	"strings"

	"github.com/smartcontractkit/pipes-framework/engine/config"
	"github.com/smartcontractkit/pipes-framework/operations"
	"github.com/smartcontractkit/pipes-framework/pipe"
	"github.com/smartcontractkit/pipes-framework/pkg/logger"
)

// Config holds the configuration for the run commands.
type Config struct {
	// Logger is the logger used by runs. Required.
	Logger logger.Logger

	// Registry holds the computations pipes may call. Required.
	Registry *operations.OperationRegistry

	// Settings is the engine configuration. Defaults to config.Default().
	Settings *config.Config

	// Generator backs model pipes. Definitions with model pipes fail to compile without one.
	Generator pipe.Generator

	// Deps holds optional dependencies that can be overridden.
	// If fields are nil, production defaults are used.
	Deps Deps
}

// Validate checks that all required configuration fields are set.
func (c Config) Validate() error {
	var missing []string

	if c.Logger == nil {
		missing = append(missing, "Logger")
	}
	if c.Registry == nil {
		missing = append(missing, "Registry")
	}

	if len(missing) > 0 {
		return errors.New("run.Config: missing required fields: " + strings.Join(missing, ", "))
	}

	return nil
}

// deps returns the Deps with defaults applied.
func (c *Config) deps() *Deps {
	c.Deps.applyDefaults()

	return &c.Deps
}

func (c *Config) settings() *config.Config {
	if c.Settings == nil {
		c.Settings = config.Default()
	}

	return c.Settings
}
