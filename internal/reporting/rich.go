package reporting

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"

	"github.com/sentra-analysis/sentra/internal/diagnostics"
)

// RichFormatter renders a human-facing, colorized report: one block per
// issue with the primary annotation, secondary annotations, notes, and help
// text, grouped by file. Color is only emitted when stdout is a real
// terminal, following the teacher's builtins_term.go guard of
// isatty.IsTerminal/IsCygwinTerminal before touching ANSI state.
type RichFormatter struct {
	// ForceColor overrides the terminal detection; no command-line flag sets it.
	ForceColor bool
}

func (f *RichFormatter) Name() string { return "rich" }

func (f *RichFormatter) Format(w io.Writer, report *Report) error {
	useColor := f.ForceColor || isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())

	for _, group := range report.Groups {
		for _, iss := range group.Issues {
			if err := writeRichIssue(w, group.File, iss, useColor); err != nil {
				return err
			}
		}
	}
	_, err := fmt.Fprintf(w, "\n%d error(s), %d warning(s), %d note(s), %d help\n",
		report.Summary.Errors, report.Summary.Warnings, report.Summary.Notes, report.Summary.Help)
	return err
}

func writeRichIssue(w io.Writer, file string, iss *diagnostics.Issue, useColor bool) error {
	severityLabel := iss.Severity.String()
	if useColor {
		severityLabel = severityColor(iss.Severity).Sprint(severityLabel)
	}
	if _, err := fmt.Fprintf(w, "%s[%s]: %s\n  --> %s:%d:%d\n", severityLabel, iss.Code, iss.Primary.Message,
		file, iss.Primary.Span.Start, iss.Primary.Span.End); err != nil {
		return err
	}
	for _, sec := range iss.Secondary {
		if _, err := fmt.Fprintf(w, "  note: %s (%d:%d)\n", sec.Message, sec.Span.Start, sec.Span.End); err != nil {
			return err
		}
	}
	for _, n := range iss.Notes {
		if _, err := fmt.Fprintf(w, "  = note: %s\n", n); err != nil {
			return err
		}
	}
	if iss.Help != "" {
		if _, err := fmt.Fprintf(w, "  = help: %s\n", iss.Help); err != nil {
			return err
		}
	}
	if iss.DocURL != "" {
		if _, err := fmt.Fprintf(w, "  = see: %s\n", iss.DocURL); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w)
	return err
}

func severityColor(s diagnostics.Severity) *color.Color {
	switch s {
	case diagnostics.SeverityError:
		return color.New(color.FgRed, color.Bold)
	case diagnostics.SeverityWarning:
		return color.New(color.FgYellow, color.Bold)
	case diagnostics.SeverityNote:
		return color.New(color.FgCyan)
	default:
		return color.New(color.FgWhite)
	}
}
