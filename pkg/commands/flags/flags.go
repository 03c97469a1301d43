// Package flags provides the flags shared by the pipes commands.
//
// Command-specific flags are defined locally in the command file.
package flags

import (
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// Output formats accepted by Format.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// MustString returns the string value, ignoring the error.
// Safe to use with registered flags where GetString cannot fail.
func MustString(s string, _ error) string { return s }

// MustBool returns the bool value, ignoring the error.
func MustBool(b bool, _ error) bool { return b }

// MustStringArray returns the string array value, ignoring the error.
func MustStringArray(s []string, _ error) []string { return s }

// Pipeline adds the required --pipeline/-p flag naming a definition file or directory.
func Pipeline(cmd *cobra.Command) {
	cmd.Flags().StringP("pipeline", "p", "", "Pipeline definition file or directory (required)")
	_ = cmd.MarkFlagRequired("pipeline")
}

// Inputs adds the --inputs/-i flag naming a JSON, YAML or TOML inputs file, and the repeatable
// --set flag for name=value text inputs.
func Inputs(cmd *cobra.Command) {
	cmd.Flags().StringP("inputs", "i", "", "Inputs file (.json, .yaml, .yml or .toml)")
	cmd.Flags().StringArray("set", nil, "Text input as name=value, may be repeated")
}

// Format adds the --format/-f flag selecting text or json output.
// --output is accepted as an alias.
func Format(cmd *cobra.Command) {
	cmd.Flags().StringP("format", "f", FormatText, "Output format: text or json")

	existingNormalize := cmd.Flags().GetNormalizeFunc()
	cmd.Flags().SetNormalizeFunc(func(f *pflag.FlagSet, name string) pflag.NormalizedName {
		if name == "output" {
			return pflag.NormalizedName("format")
		}
		if existingNormalize != nil {
			return existingNormalize(f, name)
		}

		return pflag.NormalizedName(name)
	})
}
