package status

import (
	"fmt"
	"regexp"
	"strings"
)

const (
	phaseWeight = 10000
	stageWeight = 100
)

// Status is one classified outcome. Its numeric identity combines phase,
// stage and local id; its symbolic code combines stage prefix, phase and
// name.
type Status struct {
	Stage       *Stage
	Phase       Phase
	Local       int
	Name        string
	Description string
	Patterns    []Pattern
}

// ID returns the numeric identity. Identities are totally ordered and
// stable across releases.
func (s *Status) ID() int {
	return phaseWeight*int(s.Phase) + stageWeight*s.Stage.ID + s.Local
}

// Code returns the symbolic identifier, e.g. MASTERMIND_MODEL_CALL_TIMEOUT.
// Execution statuses omit the phase component.
func (s *Status) Code() string {
	parts := []string{}
	if s.Stage.Prefix != "" {
		parts = append(parts, s.Stage.Prefix)
	}
	if phase := s.Phase.String(); phase != "" {
		parts = append(parts, phase)
	}
	parts = append(parts, s.Name)
	return strings.ToUpper(strings.Join(parts, "_"))
}

// Less orders statuses by numeric identity.
func (s *Status) Less(other *Status) bool {
	return s.ID() < other.ID()
}

// Equal compares numeric identities.
func (s *Status) Equal(other *Status) bool {
	return other != nil && s.ID() == other.ID()
}

// Match reports whether any of the status' patterns matches the failure.
func (s *Status) Match(f *Failure) bool {
	for _, p := range s.Patterns {
		if p.Match(f) {
			return true
		}
	}
	return false
}

func (s *Status) String() string {
	return fmt.Sprintf("Status(id=%d, code=%s, desc=%q)", s.ID(), s.Code(), s.Description)
}

// Pattern describes how a status recognizes a failure: by exit code, by
// regular expressions over captured output, or by failure kind. An empty
// field places no constraint of that sort; an empty pattern matches
// nothing.
type Pattern struct {
	Kinds     []FailureKind
	ExitCodes []int
	Stdout    []string
	Stderr    []string
}

// Match checks the failure against the pattern. Kind constraints must hold;
// beyond that, any exit code or output match suffices.
func (p Pattern) Match(f *Failure) bool {
	if f == nil {
		return false
	}
	if len(p.Kinds) > 0 {
		matched := false
		for _, k := range p.Kinds {
			if f.Kind == k {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}
	for _, code := range p.ExitCodes {
		if f.HasExitCode && f.ExitCode == code {
			return true
		}
	}
	for _, pattern := range p.Stderr {
		if regexp.MustCompile(pattern).MatchString(f.Stderr) {
			return true
		}
	}
	for _, pattern := range p.Stdout {
		if regexp.MustCompile(pattern).MatchString(f.Stdout) {
			return true
		}
	}
	return false
}
