package mastermind

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/ethereum/go-ethereum/log"
	"github.com/mastermind-ci/mastermind/flags"
)

// WorkDirName is the default working directory, created next to the
// current directory so generated files never pollute a checkout.
const WorkDirName = "mastermind_work"

// Config holds the application configuration
type Config struct {
	Project              string        // Name or path of the project to test
	Repository           string        // Remote repository URL, alternative to a local project
	Branches             []string      // Branch patterns; every pattern must match a candidate
	Pull                 bool          // Update existing checkouts before testing
	Configurations       []string      // Configuration patterns
	ConfigurationFiles   []string      // Preset file patterns, exclusive with Configurations
	AutodetectTopProject bool          // Search for projects and prefer "_top" variants
	IPPackage            string        // Delivered IP package to extract and test
	TestDir              string        // Directory the test runner discovers tests in
	WorkDir              string        // Root for checkouts, packages and reports
	ModelsDir            string        // WorkDir subdirectory holding checkouts
	IPPackageDir         string        // WorkDir subdirectory holding the extracted package
	ReportDir            string        // WorkDir subdirectory holding reports
	Timeout              time.Duration // Per-run timeout, 0 means none
	GracePeriod          time.Duration // Shutdown grace after a timeout
	IgnoreInternalErrors bool          // Keep executing the plan after internal errors
	GenerateDoc          bool          // Build documentation instead of testing
	SetupCMakes          bool          // Install cmake descriptors before testing
	SessionURL           string        // Session database, empty disables recording
	TestCommand          []string      // Test runner command, from positional arguments
	Log                  log.Logger
}

// NewConfig creates a new Config from cli context
func NewConfig(ctx *cli.Context, log log.Logger) (*Config, error) {
	if err := flags.CheckExclusive(ctx); err != nil {
		return nil, NewUsageError(err)
	}

	project := ctx.String(flags.Project.Name)
	repository := ctx.String(flags.Repository.Name)
	if project != "" && repository != "" {
		return nil, NewUsageError(errors.New("flags project and repository are mutually exclusive"))
	}
	if ctx.Bool(flags.AutodetectTopProject.Name) && project == "" && repository == "" {
		return nil, NewUsageError(errors.New("autodetect-top-project requires a project or a repository"))
	}
	if len(ctx.StringSlice(flags.Branches.Name)) > 0 && repository == "" {
		return nil, NewUsageError(errors.New("branch patterns require a repository"))
	}

	// The test runner command comes from the positional arguments. Only
	// the non-testing modes may go without one.
	testCommand := ctx.Args().Slice()
	if len(testCommand) == 0 && !ctx.Bool(flags.GenerateDoc.Name) && !ctx.Bool(flags.SetupCMakes.Name) {
		return nil, NewUsageError(errors.New("a test runner command is required"))
	}

	workDir := ctx.String(flags.WorkDir.Name)
	if workDir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("resolving current directory: %w", err)
		}
		workDir = filepath.Join(filepath.Dir(cwd), WorkDirName)
	}
	workDir, err := filepath.Abs(workDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve absolute path for work directory: %w", err)
	}

	testDir := ctx.String(flags.TestDir.Name)
	if testDir != "" {
		testDir, err = filepath.Abs(testDir)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve absolute path for test directory '%s': %w", testDir, err)
		}
	}

	cfg := &Config{
		Project:              project,
		Repository:           repository,
		Branches:             ctx.StringSlice(flags.Branches.Name),
		Pull:                 ctx.Bool(flags.Pull.Name),
		Configurations:       ctx.StringSlice(flags.Configuration.Name),
		ConfigurationFiles:   ctx.StringSlice(flags.ConfigurationFile.Name),
		AutodetectTopProject: ctx.Bool(flags.AutodetectTopProject.Name),
		IPPackage:            ctx.String(flags.IPPackage.Name),
		TestDir:              testDir,
		WorkDir:              workDir,
		ModelsDir:            filepath.Join(workDir, "models"),
		IPPackageDir:         filepath.Join(workDir, "ip_package"),
		ReportDir:            filepath.Join(workDir, "reports"),
		Timeout:              ctx.Duration(flags.Timeout.Name),
		GracePeriod:          ctx.Duration(flags.GracePeriod.Name),
		IgnoreInternalErrors: ctx.Bool(flags.IgnoreInternalErrors.Name),
		GenerateDoc:          ctx.Bool(flags.GenerateDoc.Name),
		SetupCMakes:          ctx.Bool(flags.SetupCMakes.Name),
		SessionURL:           ctx.String(flags.SessionURL.Name),
		TestCommand:          testCommand,
		Log:                  log,
	}
	return cfg, nil
}

// EnsureWorkDirs creates the working directory layout.
func (c *Config) EnsureWorkDirs() error {
	for _, dir := range []string{c.WorkDir, c.ModelsDir, c.ReportDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating work directory %s: %w", dir, err)
		}
	}
	return nil
}
