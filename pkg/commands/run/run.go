package run

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"time"

	"github.com/spf13/cobra"

	"github.com/smartcontractkit/pipes-framework/content"
	"github.com/smartcontractkit/pipes-framework/engine/loader"
	"github.com/smartcontractkit/pipes-framework/operations"
	"github.com/smartcontractkit/pipes-framework/pipeline"
	"github.com/smartcontractkit/pipes-framework/pkg/commands/flags"
	"github.com/smartcontractkit/pipes-framework/pkg/commands/text"
)

var (
	runShort = "Run a pipe"

	runLong = text.LongDesc(`
		Loads the pipeline definitions, compiles them against the registered computations and runs
		the named pipe. Inputs are read from an inputs file and from --set flags, the latter taking
		precedence. The output of the pipe is printed to stdout.
	`)

	runExample = text.Examples(`
		# Run the analyze_text sequence with inputs from a file
		pipes run analyze_text -p pipelines/ -i inputs.yaml

		# Run a single pipe with a text input and print JSON
		pipes run first_words -p pipelines/text.yaml --set text="the quick brown fox" -f json
	`)

	dryRunShort = "Check a pipe without calling any computation"

	dryRunLong = text.LongDesc(`
		Walks the steps of the named pipe like run does, but no computation or model is called.
		Every step checks its declared inputs and produces a placeholder of its declared output.
	`)
)

type runFlags struct {
	pipeline string
	inputs   string
	set      []string
	format   string
	timeout  time.Duration
}

// NewCommand creates the "run" command.
func NewCommand(cfg Config) (*cobra.Command, error) {
	return newCommand(cfg, "run", runShort, runLong, runExample, false)
}

// NewDryRunCommand creates the "dry-run" command.
func NewDryRunCommand(cfg Config) (*cobra.Command, error) {
	return newCommand(cfg, "dry-run", dryRunShort, dryRunLong, "", true)
}

func newCommand(cfg Config, use, short, long, example string, dry bool) (*cobra.Command, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.deps()

	cmd := &cobra.Command{
		Use:     use + " <pipe>",
		Short:   short,
		Long:    long,
		Example: example,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			timeout, _ := cmd.Flags().GetDuration("timeout")
			f := runFlags{
				pipeline: flags.MustString(cmd.Flags().GetString("pipeline")),
				inputs:   flags.MustString(cmd.Flags().GetString("inputs")),
				set:      flags.MustStringArray(cmd.Flags().GetStringArray("set")),
				format:   flags.MustString(cmd.Flags().GetString("format")),
				timeout:  timeout,
			}

			return runPipe(cmd, cfg, args[0], f, dry)
		},
	}

	flags.Pipeline(cmd)
	flags.Inputs(cmd)
	flags.Format(cmd)
	cmd.Flags().Duration("timeout", 0, "Cancel the run after this duration (0 for no timeout)")

	return cmd, nil
}

// runPipe executes the run and dry-run command logic.
func runPipe(cmd *cobra.Command, cfg Config, code string, f runFlags, dry bool) error {
	if f.format != flags.FormatText && f.format != flags.FormatJSON {
		return fmt.Errorf("unknown format %q", f.format)
	}

	deps := cfg.deps()
	settings := cfg.settings()

	def, err := deps.DefinitionLoader(f.pipeline)
	if err != nil {
		return fmt.Errorf("failed to load pipeline definition: %w", err)
	}

	opts := []loader.CompileOption{
		loader.WithLogger(cfg.Logger),
		loader.WithRetryPolicy(settings.Retry.Policy()),
		loader.WithObserver(func(runID string, from, to pipeline.State) {
			cfg.Logger.Debugw("Pipeline state changed", "run", runID, "from", from.String(), "to", to.String())
		}),
	}
	if cfg.Generator != nil {
		opts = append(opts, loader.WithGenerator(cfg.Generator))
	}
	lib, err := loader.Compile(def, cfg.Registry, opts...)
	if err != nil {
		return fmt.Errorf("failed to compile pipeline definition: %w", err)
	}
	seq, err := lib.Runnable(code)
	if err != nil {
		return err
	}

	inputs := make(map[string]content.Value)
	if f.inputs != "" {
		if inputs, err = deps.InputLoader(f.inputs); err != nil {
			return fmt.Errorf("failed to load inputs: %w", err)
		}
	}
	if inputs == nil {
		inputs = make(map[string]content.Value)
	}
	assigned, err := loader.ParseAssignments(f.set)
	if err != nil {
		return err
	}
	maps.Copy(inputs, assigned)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if f.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}

	reporter := operations.NewMemoryReporter()
	b := operations.NewBundle(cfg.Logger, reporter,
		operations.WithOperationRegistry(cfg.Registry),
		operations.WithInvoker(operations.NewInvoker(settings.Workers, cfg.Logger)),
	)

	var out content.Value
	if dry {
		out, err = seq.DryRun(ctx, b, inputs)
	} else {
		out, err = seq.Run(ctx, b, inputs)
	}
	if err != nil {
		return fmt.Errorf("pipe %s failed: %w", code, err)
	}

	if f.format == flags.FormatJSON {
		return printJSON(cmd, code, out, reporter, dry)
	}
	cmd.Println(content.Render(out))

	return nil
}

type stepOutput struct {
	Pipe       string `json:"pipe"`
	Result     string `json:"result"`
	OutputType string `json:"output_type"`
	Duration   string `json:"duration"`
}

type runOutput struct {
	Pipe       string       `json:"pipe"`
	RunID      string       `json:"run_id"`
	DryRun     bool         `json:"dry_run"`
	OutputType string       `json:"output_type"`
	Output     any          `json:"output"`
	Steps      []stepOutput `json:"steps"`
}

func printJSON(cmd *cobra.Command, code string, out content.Value, reporter operations.Reporter, dry bool) error {
	reports, err := reporter.GetReports()
	if err != nil {
		return err
	}

	res := runOutput{
		Pipe:       code,
		DryRun:     dry,
		OutputType: content.TypeOf(out).String(),
		Output:     content.ToNative(out),
		Steps:      make([]stepOutput, 0, len(reports)),
	}
	for _, r := range reports {
		// Run reports list their steps, step reports are leaves.
		if r.ChildReports != nil {
			if r.Def.ID == code {
				res.RunID = r.RunID
			}

			continue
		}
		res.Steps = append(res.Steps, stepOutput{
			Pipe:       r.Def.ID,
			Result:     r.Result,
			OutputType: r.OutputType,
			Duration:   r.Duration.String(),
		})
	}

	b, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return fmt.Errorf("unable to marshal output: %w", err)
	}
	cmd.Println(string(b))

	return nil
}
