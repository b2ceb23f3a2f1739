package reporting

import (
	"encoding/json"
	"io"
)

// JSONFormatter renders the machine-readable envelope consumers (editors,
// CI tooling) parse directly; encoding/json is the stdlib default every pack
// repo reaches for when it needs JSON output, so no third-party codec is
// wired in here.
type JSONFormatter struct{}

func (f *JSONFormatter) Name() string { return "json" }

type jsonIssue struct {
	Severity string `json:"severity"`
	Code     string `json:"code"`
	File     string `json:"file"`
	Start    uint32 `json:"start"`
	End      uint32 `json:"end"`
	Message  string `json:"message"`
	Notes    []string `json:"notes,omitempty"`
	Help     string   `json:"help,omitempty"`
}

type jsonReport struct {
	Issues  []jsonIssue `json:"issues"`
	Summary Summary     `json:"summary"`
}

func (f *JSONFormatter) Format(w io.Writer, report *Report) error {
	out := jsonReport{Summary: report.Summary}
	for _, group := range report.Groups {
		for _, iss := range group.Issues {
			out.Issues = append(out.Issues, jsonIssue{
				Severity: iss.Severity.String(),
				Code:     string(iss.Code),
				File:     group.File,
				Start:    iss.Primary.Span.Start,
				End:      iss.Primary.Span.End,
				Message:  iss.Primary.Message,
				Notes:    iss.Notes,
				Help:     iss.Help,
			})
		}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
