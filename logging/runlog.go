// Package logging persists the captured output of test runs so failed
// runs can be inspected after the fact.
package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/acarl005/stripansi"
)

const (
	RunDirectoryPrefix = "run-" // Standardized prefix for run directories
	StdoutFilename     = "stdout.log"
	StderrFilename     = "stderr.log"
)

// RunLogger writes per-run output files under a base directory. Each run
// gets its own directory named after the report base name.
type RunLogger struct {
	baseDir string
	runDir  string
	mu      sync.Mutex
}

// NewRunLogger creates the run directory for one invocation of the plan.
func NewRunLogger(baseDir string) (*RunLogger, error) {
	runDir := filepath.Join(baseDir, RunDirectoryPrefix+time.Now().Format("20060102-150405"))
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create run log directory: %w", err)
	}
	return &RunLogger{baseDir: baseDir, runDir: runDir}, nil
}

// Dir returns the directory this run logs into.
func (l *RunLogger) Dir() string {
	return l.runDir
}

// Save writes the captured output of one run. ANSI escapes are stripped so
// the files stay greppable.
func (l *RunLogger) Save(name, stdout, stderr string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	dir := filepath.Join(l.runDir, name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create log directory %s: %w", dir, err)
	}
	if err := os.WriteFile(filepath.Join(dir, StdoutFilename), []byte(stripansi.Strip(stdout)), 0o644); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, StderrFilename), []byte(stripansi.Strip(stderr)), 0o644)
}
