package funcs

import (
	"github.com/spf13/cobra"

	"github.com/smartcontractkit/pipes-framework/operations"
	"github.com/smartcontractkit/pipes-framework/pkg/commands/text"
)

var (
	listShort = "List registered computations"

	listLong = text.LongDesc(`
		Lists the computations in the registry with their version, the way they are scheduled
		and the type of the values they produce.

		Blocking computations run on the bounded worker pool. Cooperative computations take a
		context and run on the caller.
	`)

	listExample = text.Examples(`
		pipes funcs list
	`)
)

func newListCmd(cfg Config) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Short:   listShort,
		Long:    listLong,
		Example: listExample,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runList(cmd, cfg)
		},
	}
}

func runList(cmd *cobra.Command, cfg Config) error {
	entries := cfg.Registry.Entries()
	if len(entries) == 0 {
		cmd.Println("No computations registered")
		return nil
	}

	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		version := ""
		if e.Def.Version != nil {
			version = e.Def.Version.String()
		}
		rows = append(rows, []string{e.Name(), version, mode(e.Signature), e.Signature.Result.String(), e.Def.Description})
	}

	text.Table(cmd.OutOrStdout(), []string{"Name", "Version", "Mode", "Result", "Description"}, rows)

	return nil
}

func mode(sig operations.Signature) string {
	if sig.Blocking {
		return "blocking"
	}

	return "cooperative"
}
