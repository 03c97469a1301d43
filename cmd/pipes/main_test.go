package main

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartcontractkit/pipes-framework/engine/config"
	"github.com/smartcontractkit/pipes-framework/funcs/textops"
	"github.com/smartcontractkit/pipes-framework/operations"
	"github.com/smartcontractkit/pipes-framework/pkg/commands"
	"github.com/smartcontractkit/pipes-framework/pkg/logger"
)

func TestNewApp(t *testing.T) {
	t.Parallel()

	reg := operations.NewOperationRegistry()
	reg.BulkDiscover(textops.Candidates())

	app, err := newApp(logger.Test(t), reg, commands.RunConfig{Settings: config.Default()})
	require.NoError(t, err)

	uses := make([]string, 0)
	for _, c := range app.Commands() {
		uses = append(uses, c.Use)
	}
	assert.ElementsMatch(t, []string{"run <pipe>", "dry-run <pipe>", "funcs"}, uses)

	var out bytes.Buffer
	app.SetOut(&out)
	app.SetArgs([]string{"run", "first_words", "-p",
		filepath.Join("..", "..", "engine", "loader", "testdata", "text_analysis.yaml"),
		"--set", "text=one two three"})
	require.NoError(t, app.ExecuteContext(t.Context()))
	assert.Equal(t, "one\ntwo\n", out.String())
}
