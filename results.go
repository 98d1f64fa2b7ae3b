package mastermind

import (
	"fmt"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/mastermind-ci/mastermind/exitcodes"
)

// Result is the outcome of one branch/configuration run.
type Result struct {
	Branch        string
	Configuration string
	ExitCode      int
	Status        string
	Duration      time.Duration
}

// Results collects the outcomes of the whole plan.
type Results struct {
	entries []Result
}

func NewResults() *Results {
	return &Results{}
}

func (r *Results) Add(res Result) {
	r.entries = append(r.entries, res)
}

func (r *Results) Entries() []Result {
	return r.entries
}

// Aggregate is the overall exit code of the plan.
func (r *Results) Aggregate() int {
	codes := make([]int, 0, len(r.entries))
	for _, e := range r.entries {
		codes = append(codes, e.ExitCode)
	}
	if len(codes) == 0 {
		return exitcodes.NoTestsCollected
	}
	return exitcodes.Aggregate(codes)
}

// Summary is a one-line account of the plan, suitable for error messages.
func (r *Results) Summary() string {
	passed := 0
	for _, e := range r.entries {
		if e.ExitCode == exitcodes.Success {
			passed++
		}
	}
	return fmt.Sprintf("%d/%d runs passed", passed, len(r.entries))
}

// String renders the plan outcome as a table.
func (r *Results) String() string {
	t := table.NewWriter()
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Branch", "Configuration", "Exit Code", "Status", "Duration"})

	for _, e := range r.entries {
		branch := e.Branch
		if branch == "" {
			branch = "-"
		}
		config := e.Configuration
		if config == "" {
			config = "-"
		}
		statusText := e.Status
		if e.ExitCode == exitcodes.Success {
			statusText = text.Colors{text.FgGreen}.Sprint(statusText)
		} else {
			statusText = text.Colors{text.FgRed}.Sprint(statusText)
		}
		t.AppendRow(table.Row{branch, config, e.ExitCode, statusText, e.Duration.Round(time.Second)})
	}
	t.AppendFooter(table.Row{"", "", r.Aggregate(), r.Summary(), ""})

	var sb strings.Builder
	sb.WriteString(t.Render())
	sb.WriteString("\n")
	return sb.String()
}
