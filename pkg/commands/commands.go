// Package commands provides the CLI command packages of the pipes tool.
//
// There are two ways to use commands from this package:
//
// 1. Via the Commands factory (recommended for most use cases):
//
//	cmds := commands.New(lggr, reg)
//	app.AddCommand(
//	    cmds.Run(commands.RunConfig{Settings: cfg}),
//	    cmds.DryRun(commands.RunConfig{Settings: cfg}),
//	    cmds.Funcs(),
//	)
//
// 2. Via direct package imports (for advanced DI/testing):
//
//	import "github.com/smartcontractkit/pipes-framework/pkg/commands/run"
//
//	cmd, err := run.NewCommand(run.Config{
//	    Logger:   lggr,
//	    Registry: reg,
//	    Deps:     run.Deps{...}, // inject loaders for testing
//	})
package commands

import (
	"github.com/spf13/cobra"

	"github.com/smartcontractkit/pipes-framework/engine/config"
	"github.com/smartcontractkit/pipes-framework/operations"
	"github.com/smartcontractkit/pipes-framework/pipe"
	"github.com/smartcontractkit/pipes-framework/pkg/commands/funcs"
	"github.com/smartcontractkit/pipes-framework/pkg/commands/run"
	"github.com/smartcontractkit/pipes-framework/pkg/logger"
)

// Commands provides a factory for creating CLI commands with shared configuration.
// The logger and the registry are set once and reused across all commands.
type Commands struct {
	lggr logger.Logger
	reg  *operations.OperationRegistry
}

// New creates a new Commands factory with the given logger and registry.
func New(lggr logger.Logger, reg *operations.OperationRegistry) *Commands {
	return &Commands{lggr: lggr, reg: reg}
}

// RunConfig holds configuration for the run and dry-run commands.
type RunConfig struct {
	// Settings is the engine configuration. Defaults to config.Default().
	Settings *config.Config

	// Generator backs model pipes. Optional.
	Generator pipe.Generator
}

// Run creates the run command.
func (c *Commands) Run(cfg RunConfig) (*cobra.Command, error) {
	return run.NewCommand(c.runConfig(cfg))
}

// DryRun creates the dry-run command.
func (c *Commands) DryRun(cfg RunConfig) (*cobra.Command, error) {
	return run.NewDryRunCommand(c.runConfig(cfg))
}

// Funcs creates the funcs command group.
func (c *Commands) Funcs() (*cobra.Command, error) {
	return funcs.NewCommand(funcs.Config{
		Logger:   c.lggr,
		Registry: c.reg,
	})
}

func (c *Commands) runConfig(cfg RunConfig) run.Config {
	return run.Config{
		Logger:    c.lggr,
		Registry:  c.reg,
		Settings:  cfg.Settings,
		Generator: cfg.Generator,
	}
}
