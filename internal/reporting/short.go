package reporting

import (
	"fmt"
	"io"
)

// ShortFormatter renders one line per issue: file:start:end: severity code:
// message, where start and end are the primary span's byte offsets (not a
// line and column).
type ShortFormatter struct{}

func (f *ShortFormatter) Name() string { return "short" }

func (f *ShortFormatter) Format(w io.Writer, report *Report) error {
	for _, group := range report.Groups {
		for _, iss := range group.Issues {
			_, err := fmt.Fprintf(w, "%s:%d:%d: %s %s: %s\n",
				group.File, iss.Primary.Span.Start, iss.Primary.Span.End,
				iss.Severity, iss.Code, iss.Primary.Message)
			if err != nil {
				return err
			}
		}
	}
	return nil
}
