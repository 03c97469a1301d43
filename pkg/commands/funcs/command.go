// Package funcs provides the commands that inspect computations.
package funcs

import (
	"errors"
	"strings"

	"github.com/spf13/cobra"

	"github.com/smartcontractkit/pipes-framework/operations"
	"github.com/smartcontractkit/pipes-framework/pkg/commands/text"
	"github.com/smartcontractkit/pipes-framework/pkg/logger"
)

// Config holds the configuration for funcs commands.
type Config struct {
	// Logger is the logger used by the commands. Required.
	Logger logger.Logger

	// Registry holds the registered computations listed by the list command. Required.
	Registry *operations.OperationRegistry
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
		return errors.New("funcs.Config: missing required fields: " + strings.Join(missing, ", "))
	}

	return nil
}

var (
	funcsShort = "Computation commands"

	funcsLong = text.LongDesc(`
		Commands to inspect the computations pipes can call.
	`)
)

// NewCommand creates the "funcs" command with its subcommands.
func NewCommand(cfg Config) (*cobra.Command, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	cmd := &cobra.Command{
		Use:   "funcs",
		Short: funcsShort,
		Long:  funcsLong,
	}

	cmd.AddCommand(newListCmd(cfg))
	cmd.AddCommand(newScanCmd(cfg))

	return cmd, nil
}
