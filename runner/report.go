package runner

import (
	"path/filepath"
	"strings"
)

// ReportName derives report file names for a plan execution. The base name
// accumulates the project and branch once; the configuration component is
// set per execution and replaces the previous one instead of piling up.
type ReportName struct {
	parts     []string
	hasConfig bool
}

// NewReportName starts a report name. Empty components are skipped.
func NewReportName(project, branch string) *ReportName {
	parts := []string{"report"}
	if project != "" {
		parts = append(parts, project)
	}
	if branch != "" {
		parts = append(parts, branch)
	}
	return &ReportName{parts: parts}
}

// SetConfiguration sets the configuration component. Configuration values
// may be relative preset paths, so only the file stem is used.
func (r *ReportName) SetConfiguration(config string) {
	stem := strings.TrimSuffix(filepath.Base(config), filepath.Ext(config))
	if r.hasConfig {
		r.parts[len(r.parts)-1] = stem
		return
	}
	r.parts = append(r.parts, stem)
	r.hasConfig = true
}

// Base returns the report name without an extension.
func (r *ReportName) Base() string {
	return strings.Join(r.parts, "_")
}

// XML returns the machine-readable report path under dir.
func (r *ReportName) XML(dir string) string {
	return filepath.Join(dir, r.Base()+".xml")
}

// HTML returns the human-readable report path under dir.
func (r *ReportName) HTML(dir string) string {
	return filepath.Join(dir, r.Base()+".html")
}
