package mastermind

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/mastermind-ci/mastermind/exitcodes"
)

func TestResultsAggregate(t *testing.T) {
	r := NewResults()
	assert.Equal(t, exitcodes.NoTestsCollected, r.Aggregate())

	r.Add(Result{Branch: "master", ExitCode: exitcodes.Success})
	assert.Equal(t, exitcodes.Success, r.Aggregate())

	r.Add(Result{Branch: "devel", ExitCode: exitcodes.TestsFailed})
	assert.Equal(t, exitcodes.TestsFailed, r.Aggregate())

	r.Add(Result{Branch: "feature", ExitCode: exitcodes.Timeout})
	assert.Equal(t, exitcodes.Interrupted, r.Aggregate())
}

func TestResultsSummary(t *testing.T) {
	r := NewResults()
	r.Add(Result{ExitCode: exitcodes.Success})
	r.Add(Result{ExitCode: exitcodes.TestsFailed})
	assert.Equal(t, "1/2 runs passed", r.Summary())
}

func TestResultsString(t *testing.T) {
	r := NewResults()
	r.Add(Result{
		Branch:        "master",
		Configuration: "bk32-IMp",
		ExitCode:      exitcodes.Success,
		Status:        "MASTERMIND_OK",
		Duration:      90 * time.Second,
	})
	r.Add(Result{
		ExitCode: exitcodes.TestsFailed,
		Status:   "MASTERMIND_EXIT_TESTSFAILED",
	})

	out := r.String()
	assert.Contains(t, out, "master")
	assert.Contains(t, out, "bk32-IMp")
	assert.Contains(t, out, "MASTERMIND_OK")
	assert.Contains(t, out, "1/2 runs passed")
}
