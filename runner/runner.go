// Package runner executes the external test runner as a subprocess, with a
// watchdog that interrupts and then kills executions exceeding their
// timeout.
package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"time"

	"github.com/ethereum/go-ethereum/log"

	"github.com/mastermind-ci/mastermind/exitcodes"
)

// DefaultGracePeriod is how long an interrupted process gets to shut down
// before it is killed.
const DefaultGracePeriod = 10 * time.Second

// Invocation describes one execution of the external runner.
type Invocation struct {
	Args []string
	Dir  string
	Env  []string
	// Timeout bounds the execution; zero means unbounded.
	Timeout time.Duration
	// GracePeriod overrides DefaultGracePeriod when positive.
	GracePeriod time.Duration
}

// Result is the outcome of one execution. A timed-out execution carries the
// exitcodes.Timeout sentinel so it can never be mistaken for a genuine
// runner exit code.
type Result struct {
	ExitCode int
	TimedOut bool
	Stdout   string
	Stderr   string
	Duration time.Duration
}

// Passed reports whether the execution finished with a clean exit.
func (r *Result) Passed() bool {
	return !r.TimedOut && r.ExitCode == exitcodes.Success
}

// Runner executes invocations sequentially.
type Runner struct {
	log log.Logger
}

// NewRunner returns a runner logging through the given logger.
func NewRunner(logger log.Logger) *Runner {
	if logger == nil {
		logger = log.Root()
	}
	return &Runner{log: logger}
}

// Run starts the invocation and waits for it. On timeout the process first
// receives an interrupt, then a kill after the grace period; the result is
// marked TimedOut with the timeout sentinel exit code. An error is returned
// only when the process could not be started or the context was canceled.
func (r *Runner) Run(ctx context.Context, inv Invocation) (*Result, error) {
	if len(inv.Args) == 0 {
		return nil, errors.New("empty invocation")
	}

	cmd := exec.Command(inv.Args[0], inv.Args[1:]...)
	cmd.Dir = inv.Dir
	cmd.Env = append(os.Environ(), inv.Env...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	r.log.Debug("Starting runner process", "args", inv.Args, "dir", inv.Dir, "timeout", inv.Timeout)

	start := time.Now()
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("starting runner process: %w", err)
	}

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	var watchdog <-chan time.Time
	if inv.Timeout > 0 {
		timer := time.NewTimer(inv.Timeout)
		defer timer.Stop()
		watchdog = timer.C
	}

	var (
		waitErr  error
		timedOut bool
	)
	select {
	case waitErr = <-done:
	case <-watchdog:
		timedOut = true
		r.log.Warn("Runner process exceeded timeout, interrupting",
			"timeout", inv.Timeout, "pid", cmd.Process.Pid)
		waitErr = r.terminate(cmd, done, inv.gracePeriod())
	case <-ctx.Done():
		r.log.Warn("Context canceled, terminating runner process", "pid", cmd.Process.Pid)
		_ = r.terminate(cmd, done, inv.gracePeriod())
		return nil, ctx.Err()
	}

	result := &Result{
		TimedOut: timedOut,
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Duration: time.Since(start),
	}

	switch {
	case timedOut:
		result.ExitCode = exitcodes.Timeout
	case waitErr == nil:
		result.ExitCode = exitcodes.Success
	default:
		var exitErr *exec.ExitError
		if !errors.As(waitErr, &exitErr) {
			return nil, fmt.Errorf("waiting for runner process: %w", waitErr)
		}
		result.ExitCode = exitErr.ExitCode()
	}

	r.log.Debug("Runner process finished",
		"exit_code", result.ExitCode, "timed_out", result.TimedOut, "duration", result.Duration)
	return result, nil
}

// terminate interrupts the process and escalates to a kill when it does not
// exit within the grace period.
func (r *Runner) terminate(cmd *exec.Cmd, done <-chan error, grace time.Duration) error {
	if err := cmd.Process.Signal(os.Interrupt); err != nil {
		_ = cmd.Process.Kill()
		return <-done
	}
	select {
	case err := <-done:
		return err
	case <-time.After(grace):
		r.log.Warn("Runner process ignored interrupt, killing", "pid", cmd.Process.Pid)
		_ = cmd.Process.Kill()
		return <-done
	}
}

func (inv Invocation) gracePeriod() time.Duration {
	if inv.GracePeriod > 0 {
		return inv.GracePeriod
	}
	return DefaultGracePeriod
}
