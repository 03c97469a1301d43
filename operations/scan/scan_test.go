package scan

import (
	"bytes"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func names(fns []Function) []string {
	out := make([]string, 0, len(fns))
	for _, f := range fns {
		out = append(out, f.Name)
	}

	return out
}

func TestDir(t *testing.T) {
	t.Parallel()

	res, err := Dir(filepath.Join("testdata", "sample"))
	require.NoError(t, err)

	assert.Equal(t, "sample", res.Package)
	assert.Equal(t, []string{"greet", "rate", "shout", "split_words", "values"}, names(res.Functions))

	byName := make(map[string]Function)
	for _, f := range res.Functions {
		byName[f.Name] = f
	}
	assert.True(t, byName["shout"].ContextAware)
	assert.False(t, byName["greet"].ContextAware)
	assert.Equal(t, "*Score", byName["rate"].Result)
	assert.Equal(t, "[]content.Text", byName["split_words"].Result)
	assert.Equal(t, "SplitWords", byName["split_words"].GoName)
	assert.Equal(t, "sample.go", filepath.Base(byName["greet"].Pos.Filename))

	skipped := make(map[string]string)
	for _, s := range res.Skipped {
		skipped[s.GoName] = s.Reason
	}
	assert.Equal(t, map[string]string{
		"Anything": "result any is not a content value",
		"Helper":   "parameter is not *memory.WorkingMemory",
		"NoError":  "returns 1 values",
		"Pair":     "takes 3 parameters",
		"Wrong":    "result NotAValue is not a content value",
	}, skipped)
}

func TestDir_Errors(t *testing.T) {
	t.Parallel()

	t.Run("no package", func(t *testing.T) {
		t.Parallel()

		_, err := Dir(t.TempDir())
		require.ErrorIs(t, err, ErrNoPackage)
	})

	t.Run("syntax error", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.go"), []byte("package bad\nfunc {"), 0o600))

		_, err := Dir(dir)
		require.ErrorContains(t, err, "parse")
	})

	t.Run("mixed packages", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "a.go"), []byte("package a\n"), 0o600))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "b.go"), []byte("package b\n"), 0o600))

		_, err := Dir(dir)
		require.ErrorContains(t, err, "found packages")
	})
}

func TestGenerate(t *testing.T) {
	t.Parallel()

	res := &Result{
		Package: "sample",
		Functions: []Function{
			{Name: "greet", GoName: "Greet"},
			{Name: "split_words", GoName: "SplitWords"},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, Generate(&buf, res, WithFuncName("Library")))

	want := `// Code generated by pipes funcs scan. DO NOT EDIT.

package sample

import "github.com/smartcontractkit/pipes-framework/operations"

// Library returns the computations of the package for operations.BulkDiscover.
func Library() operations.Library {
	return operations.Library{
		{Name: "greet", Fn: Greet},
		{Name: "split_words", Fn: SplitWords},
	}
}
`
	assert.Equal(t, want, buf.String())
}

func TestWriteFile_RescanIgnoresGenerated(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	for _, name := range []string{"sample.go", "more.go"} {
		b, err := os.ReadFile(filepath.Join("testdata", "sample", name))
		require.NoError(t, err)
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), b, 0o600))
	}

	res, err := Dir(dir, WithFuncName("Computations"))
	require.NoError(t, err)
	// Candidates is an ordinary function once the generated name differs.
	idx := slices.IndexFunc(res.Skipped, func(s Skipped) bool { return s.GoName == "Candidates" })
	require.GreaterOrEqual(t, idx, 0)
	assert.Equal(t, "takes 0 parameters", res.Skipped[idx].Reason)

	path, err := WriteFile(res, WithFuncName("Computations"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, DefaultFileName), path)

	src, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(src), `{Name: "values", Fn: Values},`)

	again, err := Dir(dir, WithFuncName("Computations"))
	require.NoError(t, err)
	assert.Equal(t, names(res.Functions), names(again.Functions))
}
