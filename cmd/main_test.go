package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"

	"github.com/mastermind-ci/mastermind/flags"
)

func TestAppFlagsWired(t *testing.T) {
	app := cli.NewApp()
	app.Flags = flags.Flags

	names := make(map[string]bool)
	for _, f := range app.Flags {
		names[f.Names()[0]] = true
	}
	for _, want := range []string{
		"project", "repository", "branches", "configuration",
		"configuration-file", "work-dir", "timeout", "url",
	} {
		assert.True(t, names[want], "flag %s must be wired", want)
	}
}

func TestHelpDoesNotRun(t *testing.T) {
	app := cli.NewApp()
	app.Name = "mastermind"
	app.Flags = flags.Flags
	ran := false
	app.Action = func(*cli.Context) error {
		ran = true
		return nil
	}

	require.NoError(t, app.Run([]string{"mastermind", "--help"}))
	assert.False(t, ran)
}
