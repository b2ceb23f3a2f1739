// Package reporting adapts the core's abstract Issue stream (spec.md §6,
// "External Interfaces") to a configured output format. The core only ever
// produces diagnostics.Issue values; every format-specific concern — color,
// grouping, machine-readable envelopes — lives here, one file per format,
// the way original_source/crates/reporting/src/formatter splits rich, short,
// checkstyle, gitlab, sarif, and code_count into sibling files behind one
// Reporter.
package reporting

import (
	"io"
	"sort"

	"github.com/sentra-analysis/sentra/internal/diagnostics"
)

// Formatter renders a file-grouped issue report to w. Implementations never
// decide sort order or grouping themselves — Report already did that.
type Formatter interface {
	Name() string
	Format(w io.Writer, report *Report) error
}

// FileGroup is every issue found in one file, in ascending span order.
type FileGroup struct {
	File   string
	Issues []*diagnostics.Issue
}

// Summary is a per-severity issue count, printed in the rich formatter's
// footer and embedded in the json formatter's envelope.
type Summary struct {
	Errors   int
	Warnings int
	Notes    int
	Help     int
}

// Report is the grouped, summarized view every Formatter renders from —
// the shared preprocessing step original_source/crates/reporting/src/reporter.rs's
// Reporter centralizes once instead of repeating inside each formatter.
type Report struct {
	Groups  []FileGroup
	Summary Summary
	Total   int
}

// FileResolver maps a span's file id to a display path; callers that have no
// real filesystem mapping (tests, single-file analysis) can pass a trivial
// func(id) string(id) stringer.
type FileResolver func(file int) string

// Group builds a Report from an unsorted issue slice: groups by resolved
// file path, sorts groups by path and issues within a group by primary span
// start, and tallies the severity summary. This is the one place sorting
// happens; formatters never re-sort.
func Group(issues []*diagnostics.Issue, resolve FileResolver) *Report {
	byFile := map[string][]*diagnostics.Issue{}
	for _, iss := range issues {
		path := resolve(int(iss.Primary.Span.File))
		byFile[path] = append(byFile[path], iss)
	}

	paths := make([]string, 0, len(byFile))
	for p := range byFile {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	report := &Report{Total: len(issues)}
	for _, p := range paths {
		group := byFile[p]
		sort.Slice(group, func(i, j int) bool {
			return group[i].Primary.Span.Start < group[j].Primary.Span.Start
		})
		report.Groups = append(report.Groups, FileGroup{File: p, Issues: group})
		for _, iss := range group {
			switch iss.Severity {
			case diagnostics.SeverityError:
				report.Summary.Errors++
			case diagnostics.SeverityWarning:
				report.Summary.Warnings++
			case diagnostics.SeverityNote:
				report.Summary.Notes++
			case diagnostics.SeverityHelp:
				report.Summary.Help++
			}
		}
	}
	return report
}

// Registry resolves a formatter by name, the set spec.md §6 names: rich,
// short, json, sarif, checkstyle, gitlab (GitLab code-quality), code_count.
func Registry() map[string]Formatter {
	return map[string]Formatter{
		"rich":       &RichFormatter{},
		"short":      &ShortFormatter{},
		"json":       &JSONFormatter{},
		"sarif":      &SarifFormatter{},
		"checkstyle": &CheckstyleFormatter{},
		"gitlab":     &GitLabFormatter{},
		"code_count": &CodeCountFormatter{},
	}
}
