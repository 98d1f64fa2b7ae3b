package status

import (
	"bufio"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/acarl005/stripansi"
	"github.com/ethereum/go-ethereum/log"
)

// MetadataReportPath is the outcome metadata key naming the verification
// report file of a uvm execution.
const MetadataReportPath = "uvm_report_path"

var (
	reException = regexp.MustCompile(`E\s+(\w+(Error|Exception))`)
	reFatalTask = regexp.MustCompile(`\s(\w+)\.`)
)

// Classifier maps execution failures onto the status taxonomy. It is
// immutable after construction and safe for concurrent use.
type Classifier struct {
	stages   []*Stage
	statuses map[int]*Status
	log      log.Logger
}

// NewClassifier builds the classifier over the full stage table. Identity
// collisions in the table are programming errors and panic immediately.
func NewClassifier(logger log.Logger) *Classifier {
	if logger == nil {
		logger = log.Root()
	}
	c := &Classifier{
		stages:   Stages(),
		statuses: make(map[int]*Status),
		log:      logger,
	}
	for _, stage := range c.stages {
		c.register(stage)
	}
	c.register(BootstrapStage())
	return c
}

// register instantiates every status of a stage: execution definitions once
// without a phase, the rest once per phase, plus the shared common errors
// when the stage supports them.
func (c *Classifier) register(stage *Stage) {
	add := func(s *Status) {
		id := s.ID()
		if prev, dup := c.statuses[id]; dup {
			panic(fmt.Sprintf("status identity collision: %d claimed by %s and %s",
				id, prev.Code(), s.Code()))
		}
		c.statuses[id] = s
	}

	defs := stage.Defs
	if stage.CommonErrors {
		title := strings.ToUpper(stage.Name[:1]) + stage.Name[1:]
		defs = append(defs,
			Def{Local: LocalGeneralError, Name: "GENERALERROR", Description: title + " general error"},
			Def{Local: LocalBuildError, Name: "BUILDERROR", Description: title + " build error"},
			Def{Local: LocalTimeout, Name: "TIMEOUT", Description: title + " timeout exceeded"},
		)
	}

	for _, def := range defs {
		if def.Execution {
			add(&Status{Stage: stage, Phase: PhaseNone, Local: def.Local,
				Name: def.Name, Description: def.Description, Patterns: def.Patterns})
			continue
		}
		for _, phase := range Phases[1:] {
			add(&Status{Stage: stage, Phase: phase, Local: def.Local,
				Name: def.Name, Description: def.Description, Patterns: def.Patterns})
		}
	}
}

// Statuses returns every registered status.
func (c *Classifier) Statuses() []*Status {
	out := make([]*Status, 0, len(c.statuses))
	for _, s := range c.statuses {
		out = append(out, s)
	}
	return out
}

// Status looks up one status by stage name, phase and local id.
func (c *Classifier) Status(stage string, phase Phase, local int) *Status {
	s := c.stageByName(stage)
	if s == nil {
		return nil
	}
	return c.statuses[phaseWeight*int(phase)+stageWeight*s.ID+local]
}

// OK returns the passed status.
func (c *Classifier) OK() *Status {
	return c.Status("internal", PhaseNone, LocalOK)
}

func (c *Classifier) internal(phase Phase, local int) *Status {
	return c.Status("internal", phase, local)
}

func (c *Classifier) stageByName(name string) *Stage {
	for _, s := range c.stages {
		if s.Name == name {
			return s
		}
	}
	return nil
}

// stageByLog finds the first stage whose name appears as a standalone word
// in the log. Stages are scanned in table order, so the match is
// deterministic.
func (c *Classifier) stageByLog(logText string) *Stage {
	lower := strings.ToLower(logText)
	for _, s := range c.stages {
		if s.Name == "internal" {
			continue
		}
		re := regexp.MustCompile(`\s` + regexp.QuoteMeta(s.Name) + `\s`)
		if re.MatchString(lower) {
			return s
		}
	}
	return nil
}

// Classify maps a live test outcome onto a status. It is total: every
// input yields a status, unknown shapes fall back to the internal stage.
func (c *Classifier) Classify(out Outcome, failure *Failure) *Status {
	if out.Passed {
		return c.OK()
	}

	phase := out.Phase
	if phase == PhaseNone {
		phase = PhaseCall
	}

	var stage *Stage
	if out.Tool != "" {
		stage = c.stageByName(out.Tool)
	}

	kind := KindGeneric
	if failure != nil {
		kind = failure.Kind
	}

	switch kind {
	case KindToolBuildError:
		return c.classifyBuildError(stage, phase, failure)
	case KindInvalidCommand:
		return c.internal(phase, LocalInvalidCommand)
	case KindToolError:
		if stage == nil {
			return c.internal(phase, LocalFailed)
		}
		if stage.Name == "uvm" {
			if s := c.classifyVerificationReport(stage, phase, out.Metadata[MetadataReportPath]); s != nil {
				return s
			}
		}
		return c.statuses[phaseWeight*int(phase)+stageWeight*stage.ID+LocalGeneralError]
	default:
		if stage == nil {
			return c.internal(phase, LocalFailed)
		}
		// Stage-specific definitions may recognize the failure by
		// pattern; otherwise it is a general stage error.
		for _, s := range c.statuses {
			if s.Stage == stage && s.Phase == phase && s.Match(failure) {
				return s
			}
		}
		return c.statuses[phaseWeight*int(phase)+stageWeight*stage.ID+LocalGeneralError]
	}
}

// classifyBuildError attributes a build failure to its stage. A failing
// tool that already names a stage owns the failure outright; otherwise the
// failed build-system task is recovered from the output. Unrecoverable
// failures become a general internal build error.
func (c *Classifier) classifyBuildError(stage *Stage, phase Phase, failure *Failure) *Status {
	if stage != nil {
		return c.statuses[phaseWeight*int(phase)+stageWeight*stage.ID+LocalBuildError]
	}

	task := failedTask(failure)
	if task != "" {
		for _, stage := range c.stages {
			if stage.MatchesTask(task) {
				return c.statuses[phaseWeight*int(phase)+stageWeight*stage.ID+LocalBuildError]
			}
		}
	}
	return c.internal(phase, LocalBuildError)
}

// failedTask extracts the failing task token from build output. An invalid
// command names the task directly; otherwise the last fatal: line on
// stderr carries it, and as a last resort the task titles the build system
// echoes on stdout are scanned bottom-up.
func failedTask(failure *Failure) string {
	if failure == nil {
		return ""
	}
	if failure.NotFound != "" {
		return strings.SplitN(failure.NotFound, ".", 2)[0]
	}

	stderr := strings.Split(stripansi.Strip(failure.Stderr), "\n")
	for i := len(stderr) - 1; i >= 0; i-- {
		if !strings.HasPrefix(stderr[i], "fatal:") {
			continue
		}
		if m := reFatalTask.FindStringSubmatch(stderr[i]); m != nil {
			return m[1]
		}
	}

	stdout := strings.Split(stripansi.Strip(failure.Stdout), "\n")
	for i := len(stdout) - 1; i >= 0; i-- {
		if !strings.HasPrefix(stdout[i], ".") {
			continue
		}
		for _, tt := range TaskTitles {
			if strings.Contains(stdout[i], tt.Title) {
				return tt.Task
			}
		}
	}
	return ""
}

// classifyVerificationReport scans a uvm verification report for the
// specific timeout markers. The first line is a header and skipped. A
// missing or unreadable report yields nil so the caller can fall through.
func (c *Classifier) classifyVerificationReport(stage *Stage, phase Phase, path string) *Status {
	if path == "" {
		return nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()

	local := func(id int) *Status {
		return c.statuses[phaseWeight*int(phase)+stageWeight*stage.ID+id]
	}

	scanner := bufio.NewScanner(f)
	for line := 0; scanner.Scan(); line++ {
		if line == 0 {
			continue
		}
		text := scanner.Text()
		switch {
		case strings.Contains(text, "timeout (DUT and GOLD)"):
			return local(LocalTimeoutDUTAndGM)
		case strings.Contains(text, "timeout (DUT)"):
			return local(LocalTimeoutDUT)
		case strings.Contains(text, "timeout (GOLD)"):
			return local(LocalTimeoutGM)
		}
	}
	return nil
}

// ClassifyReport maps a stored test record onto a status. Skipped records
// carry no status and yield nil; everything else classifies like Classify,
// with the failure shape recovered from the captured log.
func (c *Classifier) ClassifyReport(rec Record) *Status {
	if rec.Skipped {
		return nil
	}
	if rec.Passed {
		return c.OK()
	}

	logText := stripansi.Strip(rec.Log)
	stage := c.stageByLog(logText)

	var excName string
	if m := reException.FindStringSubmatch(logText); m != nil {
		excName = m[1]
	}

	if stage == nil || excName == "" {
		return c.internal(PhaseCall, LocalFailed)
	}

	if excName == "ToolError" {
		return c.classifyReportToolError(stage, logText)
	}
	return c.statuses[phaseWeight*int(PhaseCall)+stageWeight*stage.ID+LocalGeneralError]
}

// classifyReportToolError resolves an offline tool error. The debugger's
// driver reports timeouts with a bare "Timeout"; every other tool prints
// "has timed out".
func (c *Classifier) classifyReportToolError(stage *Stage, logText string) *Status {
	local := LocalGeneralError
	marker := "has timed out"
	if stage.Name == "debugger" {
		marker = "Timeout"
	}
	if strings.Contains(logText, marker) {
		local = LocalTimeout
	}
	return c.statuses[phaseWeight*int(PhaseCall)+stageWeight*stage.ID+local]
}
