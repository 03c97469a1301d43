package loader

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFile(t *testing.T) {
	t.Parallel()

	def, err := LoadFile(filepath.Join("testdata", "text_analysis.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "text_analysis", def.Domain)
	assert.Equal(t, []string{"analyze_text", "count_words", "first_words"}, def.Codes())
	assert.Equal(t, PipeDef{
		Type:         PipeFunc,
		FunctionName: "word_count",
		Inputs:       map[string]string{"text": "Text"},
		Output:       "Number",
	}, def.Pipes["count_words"])
	assert.Equal(t, PipeDef{
		Type:        PipeSequence,
		Description: "Keywords and word count",
		Inputs:      map[string]string{"source": "Text"},
		Steps: []StepDef{
			{Pipe: "first_words", Result: "keywords", Inputs: map[string]string{"text": "source"}},
			{Pipe: "count_words", Result: "total", Inputs: map[string]string{"text": "source"}},
		},
		OutputName: "keywords",
	}, def.Pipes["analyze_text"])
}

func TestLoadFile_Missing(t *testing.T) {
	t.Parallel()

	_, err := LoadFile(filepath.Join("testdata", "missing.yaml"))
	require.ErrorContains(t, err, "read pipeline definition")
}

func TestParse(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		format  string
		give    string
		wantErr error
		errMsg  string
	}{
		{
			name:   "toml",
			format: "toml",
			give: `
domain = "d"
[pipes.upper]
type = "PipeFunc"
function_name = "uppercase"
`,
		},
		{
			name:    "unknown pipe type",
			format:  "yaml",
			give:    "pipes:\n  p:\n    type: PipeMagic\n",
			wantErr: ErrUnknownPipeType,
		},
		{
			name:   "sequence without steps",
			format: "yaml",
			give:   "pipes:\n  p:\n    type: PipeSequence\n",
			errMsg: "sequence has no steps",
		},
		{
			name:   "malformed",
			format: "yaml",
			give:   "pipes: [",
			errMsg: "parse pipeline definition",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			def, err := Parse(strings.NewReader(tt.give), tt.format)
			switch {
			case tt.wantErr != nil:
				require.ErrorIs(t, err, tt.wantErr)
				var perr *PipeError
				require.ErrorAs(t, err, &perr)
				assert.Equal(t, "p", perr.Pipe)
			case tt.errMsg != "":
				require.ErrorContains(t, err, tt.errMsg)
			default:
				require.NoError(t, err)
				assert.Equal(t, "d", def.Domain)
				assert.Equal(t, "uppercase", def.Pipes["upper"].FunctionName)
			}
		})
	}
}

func TestLoadDir(t *testing.T) {
	t.Parallel()

	def, err := Load(filepath.Join("testdata", "dir"))
	require.NoError(t, err)

	assert.Equal(t, "shouting", def.Domain)
	assert.Equal(t, []string{"sentences", "shout", "shout_sentences"}, def.Codes())
	assert.Equal(t, []StepDef{
		{Pipe: "shout", Result: "loud"},
		{Pipe: "sentences", Inputs: map[string]string{"text": "loud"}},
	}, def.Pipes["shout_sentences"].Steps)
}

func TestLoadDir_Errors(t *testing.T) {
	t.Parallel()

	t.Run("empty directory", func(t *testing.T) {
		t.Parallel()

		_, err := LoadDir(t.TempDir())
		require.ErrorIs(t, err, ErrNoDefinitions)
	})

	t.Run("duplicate pipe", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		body := []byte("pipes:\n  shout:\n    type: PipeFunc\n")
		require.NoError(t, os.WriteFile(filepath.Join(dir, "a.yaml"), body, 0o600))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "b.yml"), body, 0o600))

		_, err := LoadDir(dir)
		require.ErrorIs(t, err, ErrDuplicatePipe)
	})
}
