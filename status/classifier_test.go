package status

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyPassed(t *testing.T) {
	c := NewClassifier(nil)

	s := c.Classify(Outcome{Passed: true}, nil)
	require.NotNil(t, s)
	assert.Equal(t, "MASTERMIND_OK", s.Code())
}

func TestClassifyToolError(t *testing.T) {
	c := NewClassifier(nil)

	s := c.Classify(
		Outcome{Tool: "simulator", Phase: PhaseCall},
		&Failure{Kind: KindToolError, Tool: "simulator", ExitCode: 1, HasExitCode: true},
	)
	require.NotNil(t, s)
	assert.Equal(t, "MASTERMIND_SIMULATOR_CALL_GENERALERROR", s.Code())
}

func TestClassifyUnknownToolFallsBack(t *testing.T) {
	c := NewClassifier(nil)

	s := c.Classify(
		Outcome{Tool: "quantum_annealer", Phase: PhaseCall},
		&Failure{Kind: KindToolError},
	)
	require.NotNil(t, s)
	assert.Equal(t, "MASTERMIND_CALL_FAILED", s.Code())
}

func TestClassifyIsTotal(t *testing.T) {
	c := NewClassifier(nil)

	// No failure detail at all still yields a status.
	s := c.Classify(Outcome{}, nil)
	require.NotNil(t, s)
	assert.Equal(t, "MASTERMIND_CALL_FAILED", s.Code())

	// An out-of-range kind takes the generic path.
	s = c.Classify(Outcome{Phase: PhaseSetup}, &Failure{Kind: FailureKind(99)})
	require.NotNil(t, s)
	assert.Equal(t, "MASTERMIND_SETUP_FAILED", s.Code())
}

func TestClassifyInvalidCommand(t *testing.T) {
	c := NewClassifier(nil)

	s := c.Classify(
		Outcome{Phase: PhaseSetup},
		&Failure{Kind: KindInvalidCommand, NotFound: "bogus_task.ia"},
	)
	require.NotNil(t, s)
	assert.Equal(t, "MASTERMIND_SETUP_INVALIDCOMMAND", s.Code())
}

func TestClassifyBuildErrorFromStderr(t *testing.T) {
	c := NewClassifier(nil)

	// The build system reports the failed task on its last fatal: line.
	s := c.Classify(
		Outcome{Phase: PhaseSetup},
		&Failure{
			Kind:   KindToolBuildError,
			Stderr: "some noise\nfatal: TaskFailed - task:model.ia:codasip_urisc.ia\n",
		},
	)
	require.NotNil(t, s)
	assert.Equal(t, "MASTERMIND_MODEL_SETUP_BUILDERROR", s.Code())
}

func TestClassifyBuildErrorFromStdoutTitles(t *testing.T) {
	c := NewClassifier(nil)

	// Without a fatal: line, the last task title echoed on stdout wins.
	s := c.Classify(
		Outcome{Phase: PhaseSetup},
		&Failure{
			Kind: KindToolBuildError,
			Stdout: ".  Model Compilation codasip_urisc.ia\n" +
				".  C/C++ Compiler codasip_urisc.ia\nerror: something broke\n",
		},
	)
	require.NotNil(t, s)
	assert.Equal(t, "MASTERMIND_COMPILER_SETUP_BUILDERROR", s.Code())
}

func TestClassifyBuildErrorKnownTool(t *testing.T) {
	c := NewClassifier(nil)

	// A failing tool that names a stage owns the build error directly,
	// regardless of what the output looks like.
	s := c.Classify(
		Outcome{Tool: "compiler", Phase: PhaseCall},
		&Failure{Kind: KindToolBuildError, Stderr: "no structured output here"},
	)
	require.NotNil(t, s)
	assert.Equal(t, "MASTERMIND_COMPILER_CALL_BUILDERROR", s.Code())

	// Even output naming a different stage does not override the tool.
	s = c.Classify(
		Outcome{Tool: "compiler", Phase: PhaseSetup},
		&Failure{
			Kind:   KindToolBuildError,
			Stderr: "fatal: TaskFailed - task:model.ia:codasip_urisc.ia\n",
		},
	)
	require.NotNil(t, s)
	assert.Equal(t, "MASTERMIND_COMPILER_SETUP_BUILDERROR", s.Code())
}

func TestClassifyBuildErrorUnrecoverable(t *testing.T) {
	c := NewClassifier(nil)

	s := c.Classify(
		Outcome{Phase: PhaseCall},
		&Failure{Kind: KindToolBuildError, Stderr: "no structured output here"},
	)
	require.NotNil(t, s)
	assert.Equal(t, "MASTERMIND_CALL_BUILDERROR", s.Code())
}

func TestClassifyVerificationTimeouts(t *testing.T) {
	c := NewClassifier(nil)

	write := func(t *testing.T, lines string) string {
		t.Helper()
		path := filepath.Join(t.TempDir(), "uvm_report.txt")
		require.NoError(t, os.WriteFile(path, []byte(lines), 0o644))
		return path
	}

	tests := []struct {
		name     string
		report   string
		expected string
	}{
		{
			name:     "dut timeout",
			report:   "header line\ntest_add ... timeout (DUT)\n",
			expected: "MASTERMIND_UVM_CALL_TIMEOUT_DUT",
		},
		{
			name:     "golden model timeout",
			report:   "header line\ntest_add ... timeout (GOLD)\n",
			expected: "MASTERMIND_UVM_CALL_TIMEOUT_GM",
		},
		{
			name:     "both timed out",
			report:   "header line\ntest_add ... timeout (DUT and GOLD)\n",
			expected: "MASTERMIND_UVM_CALL_TIMEOUT_DUT_AND_GM",
		},
		{
			name:     "marker on the header line is ignored",
			report:   "summary: timeout (DUT)\nall passed\n",
			expected: "MASTERMIND_UVM_CALL_GENERALERROR",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := c.Classify(
				Outcome{
					Tool:     "uvm",
					Phase:    PhaseCall,
					Metadata: map[string]string{MetadataReportPath: write(t, tt.report)},
				},
				&Failure{Kind: KindToolError},
			)
			require.NotNil(t, s)
			assert.Equal(t, tt.expected, s.Code())
		})
	}

	// A missing report file falls through to the general error.
	s := c.Classify(
		Outcome{
			Tool:     "uvm",
			Phase:    PhaseCall,
			Metadata: map[string]string{MetadataReportPath: "/nonexistent/report.txt"},
		},
		&Failure{Kind: KindToolError},
	)
	require.NotNil(t, s)
	assert.Equal(t, "MASTERMIND_UVM_CALL_GENERALERROR", s.Code())
}

func TestClassifyReport(t *testing.T) {
	c := NewClassifier(nil)

	tests := []struct {
		name     string
		rec      Record
		expected string
	}{
		{
			name:     "passed",
			rec:      Record{Passed: true},
			expected: "MASTERMIND_OK",
		},
		{
			name: "tool error attributed by log text",
			rec: Record{
				Log: "E  ToolError: running simulator failed with exit code 1",
			},
			expected: "MASTERMIND_SIMULATOR_CALL_GENERALERROR",
		},
		{
			name: "generic tool timeout",
			rec: Record{
				Log: "E  ToolError: the simulator has timed out",
			},
			expected: "MASTERMIND_SIMULATOR_CALL_TIMEOUT",
		},
		{
			name: "debugger reports timeouts differently",
			rec: Record{
				Log: "E  ToolError: gdb session to debugger failed: Timeout",
			},
			expected: "MASTERMIND_DEBUGGER_CALL_TIMEOUT",
		},
		{
			name: "other exceptions become stage general errors",
			rec: Record{
				Log: "E  RuntimeException: while invoking compiler things broke",
			},
			expected: "MASTERMIND_COMPILER_CALL_GENERALERROR",
		},
		{
			name:     "unattributable failure",
			rec:      Record{Log: "something completely unstructured"},
			expected: "MASTERMIND_CALL_FAILED",
		},
		{
			name: "ansi escapes are scrubbed before matching",
			rec: Record{
				Log: "\x1b[31mE  ToolError: the simulator \x1b[0mhas timed out",
			},
			expected: "MASTERMIND_SIMULATOR_CALL_TIMEOUT",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := c.ClassifyReport(tt.rec)
			require.NotNil(t, s)
			assert.Equal(t, tt.expected, s.Code())
		})
	}

	// Skipped records carry no status at all.
	assert.Nil(t, c.ClassifyReport(Record{Skipped: true}))
}
