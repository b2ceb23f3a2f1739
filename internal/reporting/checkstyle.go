package reporting

import (
	"encoding/xml"
	"io"

	"github.com/sentra-analysis/sentra/internal/diagnostics"
)

// CheckstyleFormatter renders the Checkstyle XML schema many CI annotation
// plugins (Jenkins, GitLab's generic code-quality importer) understand.
type CheckstyleFormatter struct{}

func (f *CheckstyleFormatter) Name() string { return "checkstyle" }

type checkstyleRoot struct {
	XMLName xml.Name        `xml:"checkstyle"`
	Version string          `xml:"version,attr"`
	Files   []checkstyleFile `xml:"file"`
}

type checkstyleFile struct {
	Name   string           `xml:"name,attr"`
	Errors []checkstyleError `xml:"error"`
}

type checkstyleError struct {
	Line     uint32 `xml:"line,attr"`
	Column   uint32 `xml:"column,attr"`
	Severity string `xml:"severity,attr"`
	Message  string `xml:"message,attr"`
	Source   string `xml:"source,attr"`
}

func (f *CheckstyleFormatter) Format(w io.Writer, report *Report) error {
	root := checkstyleRoot{Version: "8.0"}
	for _, group := range report.Groups {
		file := checkstyleFile{Name: group.File}
		for _, iss := range group.Issues {
			file.Errors = append(file.Errors, checkstyleError{
				Line:     iss.Primary.Span.Start,
				Column:   iss.Primary.Span.End,
				Severity: checkstyleSeverity(iss.Severity),
				Message:  iss.Primary.Message,
				Source:   string(iss.Code),
			})
		}
		root.Files = append(root.Files, file)
	}
	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	return enc.Encode(root)
}

func checkstyleSeverity(s diagnostics.Severity) string {
	switch s {
	case diagnostics.SeverityError:
		return "error"
	case diagnostics.SeverityWarning:
		return "warning"
	default:
		return "info"
	}
}
