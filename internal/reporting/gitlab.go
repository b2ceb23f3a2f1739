package reporting

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"io"

	"github.com/sentra-analysis/sentra/internal/diagnostics"
)

// GitLabFormatter renders the GitLab code-quality JSON report format
// (a flat array, not an envelope object), consumed by GitLab CI's Code
// Quality widget.
type GitLabFormatter struct{}

func (f *GitLabFormatter) Name() string { return "gitlab" }

type gitlabEntry struct {
	Description string            `json:"description"`
	CheckName   string            `json:"check_name"`
	Fingerprint string            `json:"fingerprint"`
	Severity    string            `json:"severity"`
	Location    gitlabLocation    `json:"location"`
}

type gitlabLocation struct {
	Path  string      `json:"path"`
	Lines gitlabLines `json:"lines"`
}

type gitlabLines struct {
	Begin uint32 `json:"begin"`
}

func (f *GitLabFormatter) Format(w io.Writer, report *Report) error {
	entries := []gitlabEntry{}
	for _, group := range report.Groups {
		for _, iss := range group.Issues {
			entries = append(entries, gitlabEntry{
				Description: iss.Primary.Message,
				CheckName:   string(iss.Code),
				Fingerprint: gitlabFingerprint(group.File, iss),
				Severity:    gitlabSeverity(iss.Severity),
				Location: gitlabLocation{
					Path:  group.File,
					Lines: gitlabLines{Begin: iss.Primary.Span.Start},
				},
			})
		}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(entries)
}

func gitlabFingerprint(file string, iss *diagnostics.Issue) string {
	h := sha1.New()
	_, _ = io.WriteString(h, file)
	_, _ = io.WriteString(h, string(iss.Code))
	_, _ = io.WriteString(h, iss.Primary.Message)
	return hex.EncodeToString(h.Sum(nil))
}

func gitlabSeverity(s diagnostics.Severity) string {
	switch s {
	case diagnostics.SeverityError:
		return "critical"
	case diagnostics.SeverityWarning:
		return "minor"
	default:
		return "info"
	}
}
