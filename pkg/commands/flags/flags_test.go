package flags

import (
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPipeline(t *testing.T) {
	t.Parallel()

	cmd := &cobra.Command{Use: "test", RunE: func(*cobra.Command, []string) error { return nil }}
	Pipeline(cmd)

	f := cmd.Flags().Lookup("pipeline")
	require.NotNil(t, f)
	assert.Equal(t, "p", f.Shorthand)

	cmd.SetArgs([]string{})
	err := cmd.Execute()
	require.ErrorContains(t, err, `required flag(s) "pipeline" not set`)
}

func TestInputs(t *testing.T) {
	t.Parallel()

	cmd := &cobra.Command{Use: "test"}
	Inputs(cmd)

	require.NoError(t, cmd.ParseFlags([]string{"-i", "in.json", "--set", "a=1", "--set", "b=x,y"}))
	assert.Equal(t, "in.json", MustString(cmd.Flags().GetString("inputs")))
	assert.Equal(t, []string{"a=1", "b=x,y"}, MustStringArray(cmd.Flags().GetStringArray("set")))
}

func TestFormat(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		args []string
		want string
	}{
		{name: "default", args: nil, want: FormatText},
		{name: "short", args: []string{"-f", "json"}, want: FormatJSON},
		{name: "alias", args: []string{"--output", "json"}, want: FormatJSON},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cmd := &cobra.Command{Use: "test"}
			Format(cmd)

			require.NoError(t, cmd.ParseFlags(tt.args))
			assert.Equal(t, tt.want, MustString(cmd.Flags().GetString("format")))
		})
	}
}

func TestMustBool(t *testing.T) {
	t.Parallel()

	assert.True(t, MustBool(true, nil))
}
