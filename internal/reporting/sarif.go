package reporting

import (
	"encoding/json"
	"io"

	"github.com/sentra-analysis/sentra/internal/diagnostics"
)

// SarifFormatter renders the Static Analysis Results Interchange Format,
// the schema GitHub code scanning and most editor SARIF viewers consume.
type SarifFormatter struct{}

func (f *SarifFormatter) Name() string { return "sarif" }

type sarifLog struct {
	Schema  string     `json:"$schema"`
	Version string     `json:"version"`
	Runs    []sarifRun `json:"runs"`
}

type sarifRun struct {
	Tool    sarifTool     `json:"tool"`
	Results []sarifResult `json:"results"`
}

type sarifTool struct {
	Driver sarifDriver `json:"driver"`
}

type sarifDriver struct {
	Name  string    `json:"name"`
	Rules []sarifRule `json:"rules"`
}

type sarifRule struct {
	ID string `json:"id"`
}

type sarifResult struct {
	RuleID    string          `json:"ruleId"`
	Level     string          `json:"level"`
	Message   sarifMessage    `json:"message"`
	Locations []sarifLocation `json:"locations"`
}

type sarifMessage struct {
	Text string `json:"text"`
}

type sarifLocation struct {
	PhysicalLocation sarifPhysicalLocation `json:"physicalLocation"`
}

type sarifPhysicalLocation struct {
	ArtifactLocation sarifArtifactLocation `json:"artifactLocation"`
	Region           sarifRegion           `json:"region"`
}

type sarifArtifactLocation struct {
	URI string `json:"uri"`
}

type sarifRegion struct {
	CharOffset uint32 `json:"charOffset"`
	CharLength uint32 `json:"charLength"`
}

func (f *SarifFormatter) Format(w io.Writer, report *Report) error {
	rules := map[string]bool{}
	log := sarifLog{Schema: "https://raw.githubusercontent.com/oasis-tcs/sarif-spec/master/Schemata/sarif-schema-2.1.0.json", Version: "2.1.0"}
	run := sarifRun{Tool: sarifTool{Driver: sarifDriver{Name: "sentra"}}}

	for _, group := range report.Groups {
		for _, iss := range group.Issues {
			rules[string(iss.Code)] = true
			run.Results = append(run.Results, sarifResult{
				RuleID:  string(iss.Code),
				Level:   sarifLevel(iss.Severity),
				Message: sarifMessage{Text: iss.Primary.Message},
				Locations: []sarifLocation{{
					PhysicalLocation: sarifPhysicalLocation{
						ArtifactLocation: sarifArtifactLocation{URI: group.File},
						Region: sarifRegion{
							CharOffset: iss.Primary.Span.Start,
							CharLength: iss.Primary.Span.End - iss.Primary.Span.Start,
						},
					},
				}},
			})
		}
	}
	for id := range rules {
		run.Driver().Rules = append(run.Driver().Rules, sarifRule{ID: id})
	}
	log.Runs = []sarifRun{run}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(log)
}

func (r *sarifRun) Driver() *sarifDriver { return &r.Tool.Driver }

func sarifLevel(s diagnostics.Severity) string {
	switch s {
	case diagnostics.SeverityError:
		return "error"
	case diagnostics.SeverityWarning:
		return "warning"
	default:
		return "note"
	}
}
