// Package exitcodes defines the exit codes exchanged with the external
// test runner and used by mastermind itself.
package exitcodes

// Exit codes reported by the runner and propagated by mastermind. The
// process exit code of a whole plan is the maximum code observed across
// its executions:
//
// * Success (0): every selected test passed
// * TestsFailed (1): at least one test failed
// * Interrupted (2): the run was interrupted (signal or watchdog)
// * InternalError (3): the runner itself crashed
// * UsageError (4): the runner was invoked incorrectly
// * NoTestsCollected (5): the selection matched no tests
const (
	Success          = 0
	TestsFailed      = 1
	Interrupted      = 2
	InternalError    = 3
	UsageError       = 4
	NoTestsCollected = 5
)

// Timeout is a sentinel recorded when the watchdog killed the runner.
// It is never a real runner exit code, so it cannot collide with the
// enumeration above.
const Timeout = -1

// Aggregate returns the overall exit code for a sequence of per-execution
// codes. The Timeout sentinel maps to Interrupted before comparison.
func Aggregate(codes []int) int {
	overall := Success
	for _, code := range codes {
		if code == Timeout {
			code = Interrupted
		}
		if code > overall {
			overall = code
		}
	}
	return overall
}

// Continuable reports whether a plan may keep executing after observing
// code. Failed and empty selections are ordinary outcomes; interruptions
// and runner malfunctions abort the remaining plan.
func Continuable(code int) bool {
	switch code {
	case Success, TestsFailed, NoTestsCollected:
		return true
	default:
		return false
	}
}
