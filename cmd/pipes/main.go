// Package main is the pipes CLI. It runs pipelines declared in definition files against the
// built-in computations.
//
// Settings are read from the file named by PIPES_CONFIG (pipes.yaml by default) and PIPES_*
// environment variables.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-resty/resty/v2"
	"github.com/spf13/cobra"

	"github.com/smartcontractkit/pipes-framework/engine/config"
	"github.com/smartcontractkit/pipes-framework/funcs/openapi"
	"github.com/smartcontractkit/pipes-framework/funcs/textops"
	"github.com/smartcontractkit/pipes-framework/operations"
	"github.com/smartcontractkit/pipes-framework/pipe"
	"github.com/smartcontractkit/pipes-framework/pkg/commands"
	"github.com/smartcontractkit/pipes-framework/pkg/logger"
)

const (
	configEnv     = "PIPES_CONFIG"
	defaultConfig = "pipes.yaml"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	path := os.Getenv(configEnv)
	if path == "" {
		path = defaultConfig
	}
	cfg, err := config.Load(path)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	lvl, err := logger.ParseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	lggr, err := (&logger.Config{Level: lvl, Console: true}).New()
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer func() { _ = lggr.Sync() }()

	client := resty.New().
		SetTimeout(cfg.HTTP.Timeout).
		SetHeader("User-Agent", cfg.HTTP.UserAgent)

	reg := operations.NewOperationRegistry(operations.WithRegistryLogger(lggr))
	reg.BulkDiscover(textops.Candidates())
	reg.BulkDiscover(openapi.New(client).Candidates())

	var gen pipe.Generator
	if cfg.Model.Endpoint != "" {
		gen = pipe.NewHTTPGenerator(cfg.Model.Endpoint, client)
	}

	app, err := newApp(lggr, reg, commands.RunConfig{Settings: cfg, Generator: gen})
	if err != nil {
		return err
	}

	return app.ExecuteContext(ctx)
}

func newApp(lggr logger.Logger, reg *operations.OperationRegistry, runCfg commands.RunConfig) (*cobra.Command, error) {
	app := &cobra.Command{
		Use:           "pipes",
		Short:         "Run pipelines of computations over a shared working memory",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmds := commands.New(lggr, reg)
	for _, build := range []func() (*cobra.Command, error){
		func() (*cobra.Command, error) { return cmds.Run(runCfg) },
		func() (*cobra.Command, error) { return cmds.DryRun(runCfg) },
		cmds.Funcs,
	} {
		cmd, err := build()
		if err != nil {
			return nil, err
		}
		app.AddCommand(cmd)
	}

	return app, nil
}
