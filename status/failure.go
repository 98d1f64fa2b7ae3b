package status

// FailureKind is the closed set of failure shapes classification
// distinguishes. Anything outside the set is treated as KindGeneric.
type FailureKind int

const (
	// KindGeneric is any failure without a more specific shape.
	KindGeneric FailureKind = iota
	// KindToolError is a generated tool failing at runtime.
	KindToolError
	// KindToolBuildError is the build system failing to produce a tool.
	KindToolBuildError
	// KindInvalidCommand is the build system rejecting an unknown task.
	KindInvalidCommand
)

func (k FailureKind) String() string {
	switch k {
	case KindToolError:
		return "tool error"
	case KindToolBuildError:
		return "tool build error"
	case KindInvalidCommand:
		return "invalid command"
	default:
		return "generic"
	}
}

// Failure carries everything known about one failed execution.
type Failure struct {
	Kind        FailureKind
	Tool        string
	ExitCode    int
	HasExitCode bool
	Stdout      string
	Stderr      string
	TimedOut    bool
	// NotFound is the unknown task reference of an invalid command.
	NotFound string
}

// Outcome describes the test result being classified live: whether it
// passed, the phase it ended in, the failing tool if any, and auxiliary
// metadata such as verification report paths.
type Outcome struct {
	Passed   bool
	Phase    Phase
	Tool     string
	Metadata map[string]string
}

// Record is a test result read back from a stored report.
type Record struct {
	Passed  bool
	Skipped bool
	Log     string
}
