package status

import "regexp"

// Local identifiers of the common error statuses. Failed is reserved for
// the internal stage; the other three attach to every stage that supports
// common errors.
const (
	LocalFailed       = 1
	LocalGeneralError = 2
	LocalBuildError   = 3
	LocalTimeout      = 4
)

// Def declares one status local to a stage. Execution statuses describe
// whole-run outcomes and never carry a phase; all other definitions are
// instantiated once per setup/call/teardown phase.
type Def struct {
	Local       int
	Name        string
	Description string
	Patterns    []Pattern
	Execution   bool
}

// Stage is one toolchain stage failures can be attributed to. ID feeds the
// numeric status identity, Prefix the symbolic code, TaskPattern matches
// the build-system task token of the stage.
type Stage struct {
	ID           int
	Name         string
	Title        string
	Prefix       string
	TaskPattern  string
	CommonErrors bool
	Defs         []Def

	taskRe *regexp.Regexp
}

// MatchesTask reports whether the given build-system task token belongs to
// this stage.
func (s *Stage) MatchesTask(task string) bool {
	if s.TaskPattern == "" {
		return false
	}
	if s.taskRe == nil {
		s.taskRe = regexp.MustCompile(s.TaskPattern)
	}
	return s.taskRe.MatchString(task)
}

// TaskTitle pairs a build-system task token with the display title the
// build system prints before running it.
type TaskTitle struct {
	Task  string
	Title string
}

// TaskTitles maps task tokens to their display titles, in the order the
// offline build-failure recovery scans them.
var TaskTitles = []TaskTitle{
	{"model", "Model Compilation"},
	{"semantics", "semantics"},
	{"asm", "Assembler"},
	{"dsm", "Disassembler"},
	{"compiler", "C/C++ Compiler"},
	{"libs", "SDK Libraries"},
	{"sim", "Simulator"},
	{"cosim", "Co-simulator"},
	{"dbg", "Debugger"},
	{"prof", "Profiler"},
	{"random_asm", "Random Assembler Programs"},
	{"doc", "Documentation"},
	{"_sdk_tools", "SDK Tools"},
	{"sdk", "SDK"},
	{"rtl", "RTL"},
	{"_uvm_fu", "UVM Verification of functional units"},
	{"uvm", "UVM Verification"},
	{"_hdk_tools", "HDK Tools"},
	{"hdk", "HDK"},
	{"publish_ip", "IP Publication"},
	{"_remove_options", "Remove Options"},
}

// Local identifiers of the internal stage's statuses.
const (
	LocalOK               = 1
	LocalTestsFailed      = 2
	LocalInterrupted      = 3
	LocalInternalError    = 4
	LocalUsageError       = 5
	LocalNoTestsCollected = 6
	LocalInvalidCommand   = 10
)

// Local identifiers of the uvm stage's timeout statuses.
const (
	LocalTimeoutDUT      = 10
	LocalTimeoutGM       = 11
	LocalTimeoutDUTAndGM = 12
)

// Stages returns the full stage table. Stage IDs and local status IDs are
// wire-stable: they feed the numeric status identity persisted in reports
// and the session store.
func Stages() []*Stage {
	return []*Stage{
		{
			ID:     0,
			Name:   "internal",
			Title:  "Internal",
			Prefix: "MASTERMIND",
			Defs: []Def{
				{Local: LocalOK, Name: "OK", Description: "No errors occured during execution", Execution: true},
				{Local: LocalTestsFailed, Name: "EXIT_TESTSFAILED", Description: "Some tests have failed during execution", Execution: true},
				{Local: LocalInterrupted, Name: "EXIT_INTERRUPTED", Description: "Execution has been terminated by user", Execution: true},
				{Local: LocalInternalError, Name: "EXIT_INTERNALERROR", Description: "Mastermind internal error", Execution: true},
				{Local: LocalUsageError, Name: "EXIT_USAGEERROR", Description: "Mastermind usage error", Execution: true},
				{Local: LocalNoTestsCollected, Name: "EXIT_NOTESTSCOLLECTED", Description: "No tests were collected", Execution: true},
				{Local: LocalFailed, Name: "FAILED", Description: "Test Failed"},
				{Local: LocalInvalidCommand, Name: "INVALIDCOMMAND", Description: "Invalid Command"},
				{Local: LocalGeneralError, Name: "GENERALERROR", Description: "Internal general error"},
				{Local: LocalBuildError, Name: "BUILDERROR", Description: "Internal build error"},
				{Local: LocalTimeout, Name: "TIMEOUT", Description: "Internal timeout exceeded"},
			},
		},
		{ID: 1, Name: "model", Title: "Model Compilation", Prefix: "MASTERMIND_MODEL", TaskPattern: "^model$", CommonErrors: true},
		{ID: 2, Name: "semantics", Title: "Semantics", Prefix: "MASTERMIND_SEMANTICS", TaskPattern: "^_semextr_", CommonErrors: true},
		{ID: 3, Name: "assembler", Title: "Assembler", Prefix: "MASTERMIND_ASSEMBLER", TaskPattern: "^asm$", CommonErrors: true},
		{ID: 4, Name: "disassembler", Title: "Disassembler", Prefix: "MASTERMIND_DISASSEMBLER", TaskPattern: "^dsm$", CommonErrors: true},
		{ID: 5, Name: "compiler", Title: "C/C++ Compiler", Prefix: "MASTERMIND_COMPILER", TaskPattern: "^compiler$", CommonErrors: true},
		{ID: 6, Name: "libs", Title: "SDK Libraries", Prefix: "MASTERMIND_LIBS", TaskPattern: "^_libs_", CommonErrors: true},
		{ID: 7, Name: "simulator", Title: "Simulator", Prefix: "MASTERMIND_SIMULATOR", TaskPattern: "^sim$", CommonErrors: true},
		{ID: 8, Name: "debugger", Title: "Debugger", Prefix: "MASTERMIND_DEBUGGER", CommonErrors: true},
		{ID: 9, Name: "profiler", Title: "Profiler", Prefix: "MASTERMIND_PROFILER", TaskPattern: "^prof$", CommonErrors: true},
		{ID: 10, Name: "cosimulator", Title: "Co-simulator", Prefix: "MASTERMIND_COSIMULATOR", TaskPattern: "^cosim$", CommonErrors: true},
		{ID: 11, Name: "random_asm", Title: "Random Assembler Programs", Prefix: "MASTERMIND_RANDOM_ASM", TaskPattern: "^random_asm$", CommonErrors: true},
		{ID: 12, Name: "rtl", Title: "RTL", Prefix: "MASTERMIND_RTL", TaskPattern: "^rtl$", CommonErrors: true},
		{
			ID: 13, Name: "uvm", Title: "UVM Verification", Prefix: "MASTERMIND_UVM",
			TaskPattern: "^uvm$", CommonErrors: true,
			Defs: []Def{
				{Local: LocalTimeoutDUT, Name: "TIMEOUT_DUT", Description: "DUT Timeout"},
				{Local: LocalTimeoutGM, Name: "TIMEOUT_GM", Description: "Golden Model Timeout"},
				{Local: LocalTimeoutDUTAndGM, Name: "TIMEOUT_DUT_AND_GM", Description: "DUT and Golden Model Timeout"},
			},
		},
		{ID: 14, Name: "uvm_fu", Title: "UVM Verification of functional units", Prefix: "MASTERMIND_UVMFU", TaskPattern: "^_uvm_fu$", CommonErrors: true},
		{ID: 15, Name: "task_tools", Title: "Task Tools", Prefix: "MASTERMIND_TASKTOOLS", TaskPattern: "^_(sdk|hdk)_tools$", CommonErrors: true},
	}
}

// BootstrapStage describes the bootstrap build's worker exit codes. It
// shares numeric stage slot 5 with the compiler stage but only defines
// execution statuses, so the identity spaces cannot collide.
func BootstrapStage() *Stage {
	defs := []Def{
		{Local: 0, Name: "EXIT_OK", Description: "No errors occured during build", Execution: true},
		{Local: 1, Name: "EXIT_FAIL", Description: "General build error", Execution: true},
		{Local: 2, Name: "EXIT_FAIL_PACKAGING", Description: "Packaging failed", Execution: true},
		{Local: 3, Name: "EXIT_FAIL_MODEL", Description: "Model worker failed", Execution: true},
		{Local: 10, Name: "EXIT_FAIL_CLANG", Description: "Clang worker failed", Execution: true},
		{Local: 15, Name: "EXIT_FAIL_CONTRIB", Description: "Contrib worker failed", Execution: true},
		{Local: 20, Name: "EXIT_FAIL_ECLIPSE", Description: "Eclipse CDT worker failed", Execution: true},
		{Local: 25, Name: "EXIT_FAIL_GNU_BINUTILS", Description: "GNU Binutils worker failed", Execution: true},
		{Local: 30, Name: "EXIT_FAIL_IDE", Description: "IDE worker failed", Execution: true},
		{Local: 35, Name: "EXIT_FAIL_INSTALLER", Description: "Installer worker failed", Execution: true},
		{Local: 40, Name: "EXIT_FAIL_LIBRARY", Description: "Library worker failed", Execution: true},
		{Local: 45, Name: "EXIT_FAIL_LLVM", Description: "LLVM worker failed", Execution: true},
		{Local: 50, Name: "EXIT_FAIL_LMX", Description: "LMX worker failed", Execution: true},
		{Local: 55, Name: "EXIT_FAIL_MINGW", Description: "Mingw worker failed", Execution: true},
		{Local: 60, Name: "EXIT_FAIL_MSYS2", Description: "Msys2 worker failed", Execution: true},
		{Local: 65, Name: "EXIT_FAIL_RTL_CACHE", Description: "RTL template cache worker failed", Execution: true},
		{Local: 70, Name: "EXIT_FAIL_THIRD_PARTY", Description: "Third party tools worker failed", Execution: true},
		{Local: 75, Name: "EXIT_FAIL_TOOLS", Description: "Tools worker failed", Execution: true},
		{Local: 80, Name: "EXIT_FAIL_VIP_DATA", Description: "VIP data worker failed", Execution: true},
		{Local: 85, Name: "EXIT_FAIL_VIP_JTAG", Description: "VIP JTAG worker failed", Execution: true},
		{Local: 90, Name: "EXIT_FAIL_ZERO_TOLERANCE", Description: "Zero tolerance check worker failed", Execution: true},
		{Local: 95, Name: "EXIT_FAIL_LLDB", Description: "Lldb worker failed", Execution: true},
		{Local: 100, Name: "EXIT_FAIL_OPENOCD", Description: "OpenOCD check worker failed", Execution: true},
	}
	return &Stage{
		ID:     5,
		Name:   "bootstrap",
		Title:  "Bootstrap",
		Prefix: "BOOTSTRAP",
		Defs:   defs,
	}
}
