package mastermind

import (
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"

	"github.com/mastermind-ci/mastermind/flags"
)

// parseConfig runs NewConfig through a real CLI invocation.
func parseConfig(t *testing.T, args ...string) (*Config, error) {
	t.Helper()
	var cfg *Config
	var cfgErr error
	app := &cli.App{
		Flags: flags.Flags,
		Action: func(ctx *cli.Context) error {
			cfg, cfgErr = NewConfig(ctx, log.Root())
			return nil
		},
	}
	require.NoError(t, app.Run(append([]string{"mastermind"}, args...)))
	return cfg, cfgErr
}

func TestNewConfigDefaults(t *testing.T) {
	cfg, err := parseConfig(t, "run-tests")
	require.NoError(t, err)

	assert.True(t, filepath.IsAbs(cfg.WorkDir))
	assert.Equal(t, WorkDirName, filepath.Base(cfg.WorkDir))
	assert.Equal(t, filepath.Join(cfg.WorkDir, "models"), cfg.ModelsDir)
	assert.Equal(t, filepath.Join(cfg.WorkDir, "reports"), cfg.ReportDir)
	assert.Equal(t, []string{"run-tests"}, cfg.TestCommand)
}

func TestNewConfigExclusiveConfiguration(t *testing.T) {
	_, err := parseConfig(t, "--configuration", "bk32", "--configuration-file", "nightly")
	require.Error(t, err)
	assert.True(t, IsUsageError(err))
}

func TestNewConfigProjectXorRepository(t *testing.T) {
	_, err := parseConfig(t, "--project", "urisc", "--repository", "git@example.com:cores/urisc.git")
	require.Error(t, err)
	assert.True(t, IsUsageError(err))
}

func TestNewConfigAutodetectRequiresSource(t *testing.T) {
	_, err := parseConfig(t, "--autodetect-top-project")
	require.Error(t, err)
	assert.True(t, IsUsageError(err))

	cfg, err := parseConfig(t, "--autodetect-top-project", "--project", "urisc", "run-tests")
	require.NoError(t, err)
	assert.True(t, cfg.AutodetectTopProject)
}

func TestNewConfigBranchesRequireRepository(t *testing.T) {
	_, err := parseConfig(t, "--branches", "master")
	require.Error(t, err)
	assert.True(t, IsUsageError(err))

	cfg, err := parseConfig(t, "--branches", "master", "--repository", "git@example.com:cores/urisc.git", "run-tests")
	require.NoError(t, err)
	assert.Equal(t, []string{"master"}, cfg.Branches)
}

func TestNewConfigTestCommand(t *testing.T) {
	cfg, err := parseConfig(t, "--work-dir", t.TempDir(), "run-tests", "--fast")
	require.NoError(t, err)
	assert.Equal(t, []string{"run-tests", "--fast"}, cfg.TestCommand)
}

func TestNewConfigRequiresTestCommand(t *testing.T) {
	_, err := parseConfig(t)
	require.Error(t, err)
	assert.True(t, IsUsageError(err))

	// The non-testing modes run without a test command.
	cfg, err := parseConfig(t, "--generate-doc", "--project", "urisc")
	require.NoError(t, err)
	assert.Empty(t, cfg.TestCommand)

	cfg, err = parseConfig(t, "--setup-cmakes")
	require.NoError(t, err)
	assert.Empty(t, cfg.TestCommand)
}
