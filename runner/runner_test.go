package runner

import (
	"context"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mastermind-ci/mastermind/exitcodes"
)

func TestRunSuccess(t *testing.T) {
	r := NewRunner(nil)

	result, err := r.Run(context.Background(), Invocation{
		Args: []string{"sh", "-c", "echo out; echo err >&2"},
	})
	require.NoError(t, err)
	assert.Equal(t, exitcodes.Success, result.ExitCode)
	assert.False(t, result.TimedOut)
	assert.True(t, result.Passed())
	assert.Contains(t, result.Stdout, "out")
	assert.Contains(t, result.Stderr, "err")
}

func TestRunExitCode(t *testing.T) {
	r := NewRunner(nil)

	result, err := r.Run(context.Background(), Invocation{
		Args: []string{"sh", "-c", "exit 5"},
	})
	require.NoError(t, err)
	assert.Equal(t, 5, result.ExitCode)
	assert.False(t, result.TimedOut)
	assert.False(t, result.Passed())
}

func TestRunTimeoutSentinel(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("interrupt signals are not supported on windows")
	}
	r := NewRunner(nil)

	start := time.Now()
	result, err := r.Run(context.Background(), Invocation{
		Args:        []string{"sleep", "30"},
		Timeout:     200 * time.Millisecond,
		GracePeriod: 100 * time.Millisecond,
	})
	require.NoError(t, err)
	assert.True(t, result.TimedOut)
	// The sentinel is distinct from every real runner exit code.
	assert.Equal(t, exitcodes.Timeout, result.ExitCode)
	assert.Less(t, time.Since(start), 10*time.Second)
}

func TestRunContextCancellation(t *testing.T) {
	r := NewRunner(nil)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	_, err := r.Run(ctx, Invocation{
		Args:        []string{"sleep", "30"},
		GracePeriod: 100 * time.Millisecond,
	})
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRunStartFailure(t *testing.T) {
	r := NewRunner(nil)

	_, err := r.Run(context.Background(), Invocation{
		Args: []string{"/nonexistent/binary"},
	})
	require.Error(t, err)

	_, err = r.Run(context.Background(), Invocation{})
	require.Error(t, err)
}

func TestReportName(t *testing.T) {
	r := NewReportName("codasip_urisc", "master")
	assert.Equal(t, "report_codasip_urisc_master", r.Base())

	// The first configuration appends a component.
	r.SetConfiguration("bk32-IMp")
	assert.Equal(t, "report_codasip_urisc_master_bk32-IMp", r.Base())

	// Each successive configuration replaces the previous one.
	r.SetConfiguration("bk32-IMCp")
	assert.Equal(t, "report_codasip_urisc_master_bk32-IMCp", r.Base())

	// Preset paths are reduced to their file stem.
	r.SetConfiguration("presets/ip/full.yaml")
	assert.Equal(t, "report_codasip_urisc_master_full", r.Base())

	assert.Equal(t, "reports/report_codasip_urisc_master_full.xml", r.XML("reports"))
	assert.Equal(t, "reports/report_codasip_urisc_master_full.html", r.HTML("reports"))
}

func TestReportNameSkipsEmptyComponents(t *testing.T) {
	assert.Equal(t, "report", NewReportName("", "").Base())
	assert.Equal(t, "report_master", NewReportName("", "master").Base())
	assert.Equal(t, "report_urisc", NewReportName("urisc", "").Base())
}
