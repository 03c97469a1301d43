package loader

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartcontractkit/pipes-framework/content"
)

func TestLoadInputs(t *testing.T) {
	t.Parallel()

	want := map[string]content.Value{
		"source": content.NewText("the quick brown fox"),
		"count":  content.NewNumber(3),
		"person": content.NewRecord("test.Person", map[string]content.Value{
			"name": content.NewText("Ada"),
		}),
	}

	for _, file := range []string{"inputs.json", "inputs.yaml", "inputs.toml"} {
		t.Run(file, func(t *testing.T) {
			t.Parallel()

			got, err := LoadInputs(filepath.Join("testdata", file))
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}
}

func TestParseInputs_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		format  string
		give    string
		wantErr error
		errMsg  string
	}{
		{name: "unknown format", format: "ini", give: "a=b", wantErr: ErrUnsupportedFormat},
		{name: "json array", format: "json", give: `["a"]`, errMsg: "decode json inputs"},
		{name: "bad yaml", format: "yaml", give: "a: [", errMsg: "decode yaml inputs"},
		{name: "bad toml", format: "toml", give: "a = ", errMsg: "decode toml inputs"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := ParseInputs([]byte(tt.give), tt.format)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
			} else {
				require.ErrorContains(t, err, tt.errMsg)
			}
		})
	}
}

func TestParseAssignments(t *testing.T) {
	t.Parallel()

	got, err := ParseAssignments([]string{"text=a=b", "empty="})
	require.NoError(t, err)
	assert.Equal(t, map[string]content.Value{
		"text":  content.NewText("a=b"),
		"empty": content.NewText(""),
	}, got)

	_, err = ParseAssignments([]string{"novalue"})
	require.Error(t, err)
	_, err = ParseAssignments([]string{"=x"})
	require.Error(t, err)
}
