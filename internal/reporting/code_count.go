package reporting

import (
	"fmt"
	"io"
	"sort"

	"github.com/sentra-analysis/sentra/internal/diagnostics"
)

// CodeCountFormatter renders a frequency table of issue codes, sorted by
// count descending then code ascending — a triage aid for deciding which
// rule to suppress or fix first across a large codebase.
type CodeCountFormatter struct{}

func (f *CodeCountFormatter) Name() string { return "code_count" }

func (f *CodeCountFormatter) Format(w io.Writer, report *Report) error {
	counts := map[diagnostics.Code]int{}
	for _, group := range report.Groups {
		for _, iss := range group.Issues {
			counts[iss.Code]++
		}
	}
	codes := make([]diagnostics.Code, 0, len(counts))
	for c := range counts {
		codes = append(codes, c)
	}
	sort.Slice(codes, func(i, j int) bool {
		if counts[codes[i]] != counts[codes[j]] {
			return counts[codes[i]] > counts[codes[j]]
		}
		return codes[i] < codes[j]
	})
	for _, c := range codes {
		if _, err := fmt.Fprintf(w, "%6d  %s\n", counts[c], c); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w, "%6d  total\n", report.Total)
	return err
}
