package funcs

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/smartcontractkit/pipes-framework/operations/scan"
	"github.com/smartcontractkit/pipes-framework/pkg/commands/flags"
	"github.com/smartcontractkit/pipes-framework/pkg/commands/text"
)

var (
	scanShort = "Find computations in a Go package"

	scanLong = text.LongDesc(`
		Parses the Go package in the given directory and reports the top-level functions whose
		signature is eligible for registration. Nothing is compiled or run.

		With --write a candidates file is generated next to the sources, declaring a function
		that returns the found computations for bulk discovery.
	`)

	scanExample = text.Examples(`
		# Report the eligible functions of a package
		pipes funcs scan ./funcs/textops

		# Include the skipped functions and the reason they were skipped
		pipes funcs scan ./funcs/textops --verbose

		# Generate candidates_gen.go declaring func Library() operations.Library
		pipes funcs scan ./funcs/textops --write --func-name Library
	`)
)

type scanFlags struct {
	dir      string
	write    bool
	verbose  bool
	funcName string
	fileName string
}

func newScanCmd(cfg Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "scan <dir>",
		Short:   scanShort,
		Long:    scanLong,
		Example: scanExample,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f := scanFlags{
				dir:      args[0],
				write:    flags.MustBool(cmd.Flags().GetBool("write")),
				verbose:  flags.MustBool(cmd.Flags().GetBool("verbose")),
				funcName: flags.MustString(cmd.Flags().GetString("func-name")),
				fileName: flags.MustString(cmd.Flags().GetString("file-name")),
			}

			return runScan(cmd, cfg, f)
		},
	}

	cmd.Flags().BoolP("write", "w", false, "Write the generated candidates file")
	cmd.Flags().BoolP("verbose", "v", false, "Also list skipped functions")
	cmd.Flags().String("func-name", scan.DefaultFuncName, "Name of the generated function")
	cmd.Flags().String("file-name", scan.DefaultFileName, "Name of the generated file")

	return cmd
}

func runScan(cmd *cobra.Command, cfg Config, f scanFlags) error {
	opts := []scan.Option{scan.WithFuncName(f.funcName), scan.WithFileName(f.fileName)}

	res, err := scan.Dir(f.dir, opts...)
	if err != nil {
		return fmt.Errorf("failed to scan %s: %w", f.dir, err)
	}
	cfg.Logger.Infow("Scanned package", "dir", res.Dir, "package", res.Package,
		"functions", len(res.Functions), "skipped", len(res.Skipped))

	if len(res.Functions) == 0 {
		cmd.Printf("No eligible functions in package %s\n", res.Package)
	} else {
		rows := make([][]string, 0, len(res.Functions))
		for _, fn := range res.Functions {
			mode := "blocking"
			if fn.ContextAware {
				mode = "cooperative"
			}
			rows = append(rows, []string{fn.Name, fn.GoName, mode, fn.Result, fn.Pos.String()})
		}
		text.Table(cmd.OutOrStdout(), []string{"Name", "Function", "Mode", "Result", "Position"}, rows)
	}

	if f.verbose && len(res.Skipped) > 0 {
		cmd.Println()
		rows := make([][]string, 0, len(res.Skipped))
		for _, s := range res.Skipped {
			rows = append(rows, []string{s.GoName, s.Reason})
		}
		text.Table(cmd.OutOrStdout(), []string{"Skipped", "Reason"}, rows)
	}

	if !f.write {
		return nil
	}
	path, err := scan.WriteFile(res, opts...)
	if err != nil {
		return fmt.Errorf("failed to write candidates: %w", err)
	}
	cmd.Printf("Wrote %s\n", path)

	return nil
}
