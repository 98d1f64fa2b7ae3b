package flags

import (
	"fmt"
	"strings"
	"time"

	"github.com/urfave/cli/v2"
)

const EnvVarPrefix = "MASTERMIND"

func prefixEnvVar(name string) []string {
	return []string{EnvVarPrefix + "_" + strings.ReplaceAll(strings.ToUpper(name), "-", "_")}
}

var (
	Project = &cli.StringFlag{
		Name:    "project",
		Value:   "",
		EnvVars: prefixEnvVar("project"),
		Usage:   "Name or path of the project to test",
	}
	Repository = &cli.StringFlag{
		Name:    "repository",
		Value:   "",
		EnvVars: prefixEnvVar("repository"),
		Usage:   "URL of the project repository to clone and test",
	}
	Branches = &cli.StringSliceFlag{
		Name:    "branches",
		EnvVars: prefixEnvVar("branches"),
		Usage:   "Regex pattern(s) selecting repository branches to test; every pattern must match",
	}
	Pull = &cli.BoolFlag{
		Name:    "pull",
		Value:   false,
		EnvVars: prefixEnvVar("pull"),
		Usage:   "Update existing checkouts before testing",
	}
	Configuration = &cli.StringSliceFlag{
		Name:    "configuration",
		EnvVars: prefixEnvVar("configuration"),
		Usage:   "Regex pattern(s) selecting project configurations; every pattern must match",
	}
	ConfigurationFile = &cli.StringSliceFlag{
		Name:    "configuration-file",
		EnvVars: prefixEnvVar("configuration-file"),
		Usage:   "Regex pattern(s) selecting preset files from the project's presets directory",
	}
	AutodetectTopProject = &cli.BoolFlag{
		Name:    "autodetect-top-project",
		Value:   false,
		EnvVars: prefixEnvVar("autodetect-top-project"),
		Usage:   "Search the project tree and prefer top-level project variants",
	}
	IPPackage = &cli.StringFlag{
		Name:    "ip-package",
		Value:   "",
		EnvVars: prefixEnvVar("ip-package"),
		Usage:   "Path to a delivered IP package (archive or directory) to test",
	}
	TestDir = &cli.StringFlag{
		Name:    "testdir",
		Value:   "",
		EnvVars: prefixEnvVar("testdir"),
		Usage:   "Path to the test directory from which to discover tests",
	}
	WorkDir = &cli.StringFlag{
		Name:    "work-dir",
		Value:   "",
		EnvVars: prefixEnvVar("work-dir"),
		Usage:   "Working directory for checkouts, extracted packages and reports",
	}
	Timeout = &cli.DurationFlag{
		Name:    "timeout",
		Value:   0,
		EnvVars: prefixEnvVar("timeout"),
		Usage:   "Per-run timeout (e.g. '2h', '30m'). Set to 0 or omit for no timeout.",
	}
	GracePeriod = &cli.DurationFlag{
		Name:    "grace-period",
		Value:   10 * time.Second,
		EnvVars: prefixEnvVar("grace-period"),
		Usage:   "Time a timed-out run gets to shut down before it is killed",
	}
	IgnoreInternalErrors = &cli.BoolFlag{
		Name:    "ignore-internal-errors",
		Value:   false,
		EnvVars: prefixEnvVar("ignore-internal-errors"),
		Usage:   "Keep testing remaining branches and configurations after an internal error",
	}
	GenerateDoc = &cli.BoolFlag{
		Name:    "generate-doc",
		Value:   false,
		EnvVars: prefixEnvVar("generate-doc"),
		Usage:   "Build the HTML documentation instead of running tests",
	}
	SetupCMakes = &cli.BoolFlag{
		Name:    "setup-cmakes",
		Value:   false,
		EnvVars: prefixEnvVar("setup-cmakes"),
		Usage:   "Install cmake descriptors for licensed tools before testing",
	}
	SessionURL = &cli.StringFlag{
		Name:    "url",
		Value:   "",
		EnvVars: prefixEnvVar("url"),
		Usage:   "Session database to record runs into (SQLite data source name)",
	}
)

var optionalFlags = []cli.Flag{
	Project,
	Repository,
	Branches,
	Pull,
	Configuration,
	ConfigurationFile,
	AutodetectTopProject,
	IPPackage,
	TestDir,
	WorkDir,
	Timeout,
	GracePeriod,
	IgnoreInternalErrors,
	GenerateDoc,
	SetupCMakes,
	SessionURL,
}

var Flags []cli.Flag

func init() {
	Flags = append(Flags, optionalFlags...)
}

// CheckExclusive rejects flag combinations that cannot be satisfied
// together.
func CheckExclusive(ctx *cli.Context) error {
	if ctx.IsSet(Configuration.Name) && ctx.IsSet(ConfigurationFile.Name) {
		return fmt.Errorf("flags %s and %s are mutually exclusive", Configuration.Name, ConfigurationFile.Name)
	}
	return nil
}
