package status

// Phase is the execution phase a status belongs to. Execution-level
// statuses (runner exit codes) carry PhaseNone; test-result statuses exist
// once per remaining phase.
type Phase int

const (
	PhaseNone Phase = iota
	PhaseSetup
	PhaseCall
	PhaseTeardown
)

// Phases lists every phase in identity order. The order is part of the
// numeric status identity and must never change.
var Phases = []Phase{PhaseNone, PhaseSetup, PhaseCall, PhaseTeardown}

func (p Phase) String() string {
	switch p {
	case PhaseSetup:
		return "setup"
	case PhaseCall:
		return "call"
	case PhaseTeardown:
		return "teardown"
	default:
		return ""
	}
}
