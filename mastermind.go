// Package mastermind drives toolchain test runs: it materializes project
// checkouts, enumerates their configurations, executes the test runner for
// every branch/configuration pair and aggregates the exit codes.
package mastermind

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync/atomic"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/mastermind-ci/mastermind/exitcodes"
	"github.com/mastermind-ci/mastermind/logging"
	"github.com/mastermind-ci/mastermind/metrics"
	"github.com/mastermind-ci/mastermind/project"
	"github.com/mastermind-ci/mastermind/runner"
	"github.com/mastermind-ci/mastermind/scm"
	"github.com/mastermind-ci/mastermind/session"
	"github.com/mastermind-ci/mastermind/status"
)

// checkout is one unit of the execution plan's outer loop: a project tree
// at a particular branch. A checkout without a project path carries only
// the test directory.
type checkout struct {
	branch      string
	projectPath string
}

// Mastermind executes the test plan derived from the configuration.
type Mastermind struct {
	ctx        context.Context
	config     *Config
	version    string
	runner     *runner.Runner
	classifier *status.Classifier
	build      project.BuildSystem
	store      *session.Store
	results    *Results
	runLog     *logging.RunLogger
	tracer     trace.Tracer

	ipArgs []string

	running atomic.Bool

	shutdownCallback func(error) // Callback to signal application shutdown
}

func New(ctx context.Context, config *Config, version string, shutdownCallback func(error)) (*Mastermind, error) {
	if config == nil {
		return nil, errors.New("config is required")
	}

	config.Log.Debug("Creating mastermind with config",
		"project", config.Project,
		"repository", config.Repository,
		"branches", config.Branches,
		"workDir", config.WorkDir)

	m := &Mastermind{
		ctx:              ctx,
		config:           config,
		version:          version,
		runner:           runner.NewRunner(config.Log),
		classifier:       status.NewClassifier(config.Log),
		build:            &project.CommandBuildSystem{Command: []string{"codasip-build"}},
		results:          NewResults(),
		tracer:           otel.Tracer("mastermind"),
		shutdownCallback: shutdownCallback,
	}

	if config.SessionURL != "" {
		store, err := session.Open(config.SessionURL, config.Log)
		if err != nil {
			return nil, fmt.Errorf("failed to open session store: %w", err)
		}
		m.store = store
	}
	return m, nil
}

// Start runs the whole execution plan once and triggers shutdown when it
// finishes. The returned error carries the aggregated exit code.
func (m *Mastermind) Start(ctx context.Context) (err error) {
	// Unmodeled panics become internal errors rather than killing the
	// process without a report.
	defer func() {
		if r := recover(); r != nil {
			m.config.Log.Error("Panic during execution", "panic", r)
			err = NewInternalError(fmt.Errorf("panic: %v", r))
		}
	}()

	m.ctx = ctx
	m.running.Store(true)
	defer m.running.Store(false)

	m.config.Log.Info("Starting mastermind", "version", m.version)

	err = m.run(ctx)

	if m.shutdownCallback != nil {
		cb := m.shutdownCallback
		go func() {
			cb(nil)
		}()
	}
	return err
}

func (m *Mastermind) Stop(ctx context.Context) error {
	m.running.Store(false)
	if m.store != nil {
		return m.store.Close()
	}
	return nil
}

func (m *Mastermind) Stopped() bool {
	return !m.running.Load()
}

func (m *Mastermind) run(ctx context.Context) error {
	ctx, span := m.tracer.Start(ctx, "run")
	defer span.End()

	if err := m.config.EnsureWorkDirs(); err != nil {
		return NewInternalError(err)
	}

	runLog, err := logging.NewRunLogger(filepath.Join(m.config.WorkDir, "logs"))
	if err != nil {
		return NewInternalError(err)
	}
	m.runLog = runLog

	if m.config.IPPackage != "" {
		args, err := project.LoadIPPackage(m.config.IPPackage, m.config.IPPackageDir)
		if err != nil {
			// A package of the wrong shape is the caller's mistake, not ours.
			if project.IsInvalidPackage(err) {
				return NewUsageError(err)
			}
			return NewInternalError(fmt.Errorf("loading ip package: %w", err))
		}
		m.ipArgs = args
	}

	checkouts, err := m.resolveCheckouts(ctx)
	if err != nil {
		return err
	}

	if m.config.GenerateDoc {
		return m.generateDoc(ctx, checkouts)
	}
	if m.config.SetupCMakes {
		if err := m.build.SetupCMakes(ctx, filepath.Join(m.config.WorkDir, "tools")); err != nil {
			return NewInternalError(fmt.Errorf("setting up cmakes: %w", err))
		}
		// Without a test command this was the whole job.
		if len(m.config.TestCommand) == 0 {
			return nil
		}
	}

	sess := m.newSession(checkouts)
	if m.store != nil {
		if err := m.store.Create(ctx, sess); err != nil {
			m.config.Log.Warn("Failed to record session start", "error", err)
			metrics.RecordErrorDetails("session create", err)
		}
	}

	aggregate, execErr := m.execute(ctx, checkouts)

	fmt.Println(m.results.String())

	if m.store != nil {
		if err := m.store.Finish(ctx, sess, aggregate, m.statusID(aggregate)); err != nil {
			m.config.Log.Warn("Failed to record session result", "error", err)
			metrics.RecordErrorDetails("session finish", err)
		}
	}
	if execErr != nil {
		return execErr
	}
	return m.resultError(aggregate)
}

// resolveCheckouts materializes the outer loop of the plan: one checkout
// per matched branch of a remote repository, a single checkout of a local
// project, or no project context at all.
func (m *Mastermind) resolveCheckouts(ctx context.Context) ([]checkout, error) {
	ctx, span := m.tracer.Start(ctx, "resolve-checkouts")
	defer span.End()

	if m.config.Repository == "" {
		if m.config.Project == "" {
			return []checkout{{}}, nil
		}
		path, err := m.locateProject(m.config.Project)
		if err != nil {
			return nil, err
		}
		return []checkout{{projectPath: path}}, nil
	}

	if len(m.config.Branches) > 0 {
		repos, err := scm.CheckoutBranches(ctx, m.config.Repository, m.config.ModelsDir, m.config.Branches, m.config.Pull, m.config.Log)
		if err != nil {
			if scm.IsNoBranchError(err) {
				return nil, NewUsageError(err)
			}
			return nil, NewInternalError(err)
		}
		checkouts := make([]checkout, 0, len(repos))
		for _, repo := range repos {
			branch, _ := repo.Branch(ctx)
			path, err := m.locateProject(repo.Dir)
			if err != nil {
				return nil, err
			}
			checkouts = append(checkouts, checkout{branch: branch, projectPath: path})
		}
		return checkouts, nil
	}

	name := scm.FromURL(m.config.Repository, "", m.config.Log).Name
	repo := scm.FromURL(m.config.Repository, filepath.Join(m.config.ModelsDir, name), m.config.Log)
	if m.config.Pull || !repo.Initialized() {
		if err := repo.Synchronize(ctx, ""); err != nil {
			return nil, NewInternalError(fmt.Errorf("synchronizing %s: %w", m.config.Repository, err))
		}
	}
	branch, _ := repo.Branch(ctx)
	path, err := m.locateProject(repo.Dir)
	if err != nil {
		return nil, err
	}
	return []checkout{{branch: branch, projectPath: path}}, nil
}

// locateProject finds the project root under dir, honoring the top-project
// preference.
func (m *Mastermind) locateProject(dir string) (string, error) {
	found, err := project.Find([]string{dir}, "", m.config.AutodetectTopProject)
	if err != nil {
		return "", NewInternalError(err)
	}
	if len(found) == 0 {
		return "", NewInternalError(fmt.Errorf("no project found under %s", dir))
	}
	if len(found) > 1 {
		m.config.Log.Warn("Multiple projects found, using first", "dir", dir, "projects", found)
	}
	return found[0], nil
}

// resolveConfigurations enumerates the inner loop of the plan for one
// checkout. An explicit pattern matching nothing is a usage error.
func (m *Mastermind) resolveConfigurations(ctx context.Context, co checkout) ([]string, error) {
	if co.projectPath == "" {
		return []string{""}, nil
	}

	preset := len(m.config.ConfigurationFiles) > 0
	patterns := m.config.Configurations
	if preset {
		patterns = m.config.ConfigurationFiles
	}
	if len(patterns) == 0 && !preset {
		return []string{""}, nil
	}

	configs, err := project.Configurations(ctx, m.build, co.projectPath, patterns, preset)
	if err != nil {
		return nil, NewInternalError(err)
	}
	if len(configs) == 0 {
		return nil, NewUsageError(fmt.Errorf("no configuration of %s matched pattern(s) %v", co.projectPath, patterns))
	}
	return configs, nil
}

// execute walks the plan sequentially, branches outer, configurations
// inner. Runs keep going over continuable exit codes; anything else aborts
// the remaining plan unless internal errors are ignored.
func (m *Mastermind) execute(ctx context.Context, checkouts []checkout) (int, error) {
	ctx, span := m.tracer.Start(ctx, "execute")
	defer span.End()

	var codes []int
plan:
	for _, co := range checkouts {
		configs, err := m.resolveConfigurations(ctx, co)
		if err != nil {
			return ErrorExitCode(err), err
		}

		for _, config := range configs {
			code := m.executeOne(ctx, co, config)
			codes = append(codes, code)

			if !exitcodes.Continuable(code) {
				if m.config.IgnoreInternalErrors {
					m.config.Log.Warn("Ignoring internal error, continuing", "exitCode", code)
					continue
				}
				m.config.Log.Error("Aborting remaining plan", "exitCode", code)
				break plan
			}
		}
	}

	if len(codes) == 0 {
		return exitcodes.NoTestsCollected, nil
	}
	return exitcodes.Aggregate(codes), nil
}

// executeOne runs the test runner for a single branch/configuration pair.
func (m *Mastermind) executeOne(ctx context.Context, co checkout, config string) int {
	ctx, span := m.tracer.Start(ctx, "run-tests", trace.WithAttributes(
		attribute.String("branch", co.branch),
		attribute.String("configuration", config),
	))
	defer span.End()

	projectName := ""
	if co.projectPath != "" {
		projectName = filepath.Base(co.projectPath)
	}

	name := runner.NewReportName(projectName, co.branch)
	if config != "" {
		name.SetConfiguration(config)
	}

	argv := append([]string{}, m.config.TestCommand...)
	if m.config.TestDir != "" {
		argv = append(argv, m.config.TestDir)
	}
	argv = append(argv,
		"--report-xml", name.XML(m.config.ReportDir),
		"--report-html", name.HTML(m.config.ReportDir),
	)
	if co.projectPath != "" {
		argv = append(argv, "--project", co.projectPath)
	}
	if config != "" {
		if len(m.config.ConfigurationFiles) > 0 {
			argv = append(argv, "--configuration-file", config)
		} else {
			argv = append(argv, "--configuration", config)
		}
	}
	argv = append(argv, m.ipArgs...)

	m.config.Log.Info("Running tests", "branch", co.branch, "configuration", config, "command", strings.Join(argv, " "))

	res, err := m.runner.Run(ctx, runner.Invocation{
		Args:        argv,
		Dir:         co.projectPath,
		Timeout:     m.config.Timeout,
		GracePeriod: m.config.GracePeriod,
	})
	if err != nil {
		// A canceled context is the operator interrupting the run, not a
		// malfunction.
		code := exitcodes.InternalError
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			code = exitcodes.Interrupted
		}
		m.config.Log.Error("Test run failed to execute", "error", err)
		metrics.RecordErrorDetails("test run", err)
		m.results.Add(Result{
			Branch:        co.branch,
			Configuration: config,
			ExitCode:      code,
			Status:        m.statusCode(code),
		})
		return code
	}

	if m.runLog != nil {
		if err := m.runLog.Save(name.Base(), res.Stdout, res.Stderr); err != nil {
			m.config.Log.Warn("Failed to save run output", "error", err)
		}
	}

	code := res.ExitCode
	if res.TimedOut {
		code = exitcodes.Timeout
	}
	normalized := code
	if normalized == exitcodes.Timeout {
		normalized = exitcodes.Interrupted
	}

	statusCode := m.statusCode(normalized)
	metrics.RecordRun(projectName, co.branch, config, statusCode, normalized, res.Duration)
	m.results.Add(Result{
		Branch:        co.branch,
		Configuration: config,
		ExitCode:      normalized,
		Status:        statusCode,
		Duration:      res.Duration,
	})
	return code
}

// generateDoc builds the HTML documentation of the first checkout instead
// of running tests.
func (m *Mastermind) generateDoc(ctx context.Context, checkouts []checkout) error {
	if len(checkouts) == 0 || checkouts[0].projectPath == "" {
		return NewUsageError(errors.New("generate-doc requires a project"))
	}
	docs := filepath.Join(checkouts[0].projectPath, "docs")

	res, err := m.runner.Run(ctx, runner.Invocation{
		Args: []string{"make", "html"},
		Dir:  docs,
	})
	if err != nil {
		return NewInternalError(fmt.Errorf("building documentation: %w", err))
	}
	if !res.Passed() {
		return NewInternalError(fmt.Errorf("documentation build failed with exit code %d", res.ExitCode))
	}
	m.config.Log.Info("Documentation generated", "dir", docs)
	return nil
}

func (m *Mastermind) newSession(checkouts []checkout) *session.Session {
	projectName := ""
	if len(checkouts) > 0 && checkouts[0].projectPath != "" {
		projectName = filepath.Base(checkouts[0].projectPath)
	}
	branches := make([]string, 0, len(checkouts))
	for _, co := range checkouts {
		if co.branch != "" {
			branches = append(branches, co.branch)
		}
	}
	patterns := m.config.Configurations
	if len(m.config.ConfigurationFiles) > 0 {
		patterns = m.config.ConfigurationFiles
	}
	return session.New(projectName, strings.Join(branches, ","), strings.Join(patterns, ","))
}

// statusID maps a driver exit code to the identifier of the matching
// execution status.
func (m *Mastermind) statusID(exitCode int) int {
	if s := m.classifier.Status("internal", status.PhaseNone, exitCode+1); s != nil {
		return s.ID()
	}
	return 0
}

// statusCode maps a driver exit code to the code string of the matching
// execution status.
func (m *Mastermind) statusCode(exitCode int) string {
	if s := m.classifier.Status("internal", status.PhaseNone, exitCode+1); s != nil {
		return s.Code()
	}
	return fmt.Sprintf("EXIT_%d", exitCode)
}

// resultError converts an aggregated exit code into the error the CLI
// layer maps back to the process exit code.
func (m *Mastermind) resultError(aggregate int) error {
	switch aggregate {
	case exitcodes.Success:
		return nil
	case exitcodes.TestsFailed:
		return NewTestFailureError(m.results.Summary())
	case exitcodes.UsageError:
		return NewUsageError(errors.New(m.results.Summary()))
	case exitcodes.InternalError:
		return NewInternalError(errors.New(m.results.Summary()))
	default:
		return &ResultError{Code: aggregate, Message: m.results.Summary()}
	}
}
