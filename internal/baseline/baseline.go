// Package baseline implements the suppression file the reporter consults
// before emitting issues: previously-accepted diagnostics are filtered out
// of a run's output, the same way a teacher of type checkers lets a team
// adopt stricter analysis on an existing codebase without a wall of
// pre-existing findings blocking CI.
//
// The file layout (spec.md §6) is TOML, in two variants. Strict is keyed by
// file path to a list of {code, start_line, end_line} entries — an exact
// location match. Loose is a flat list of {file, code, message, count} —
// tolerant of line drift, matched by file+code up to the recorded count.
// A missing `variant` header is read as strict, with a compatibility
// warning, mirroring original_source/src/baseline/mod.rs.
package baseline

// Variant selects which of the two TOML shapes a baseline file uses.
type Variant string

const (
	VariantStrict Variant = "strict"
	VariantLoose  Variant = "loose"
)

// StrictIssue is one suppressed diagnostic at an exact location.
type StrictIssue struct {
	Code      string `toml:"code"`
	StartLine int    `toml:"start_line"`
	EndLine   int    `toml:"end_line"`
}

// StrictEntry is every suppressed issue in one file.
type StrictEntry struct {
	Issues []StrictIssue `toml:"issues"`
}

// StrictBaseline is keyed by file path.
type StrictBaseline struct {
	Variant Variant                `toml:"variant"`
	Entries map[string]StrictEntry `toml:"entries"`
}

// LooseIssue is one suppressed diagnostic, matched by file+code rather than
// an exact line, tolerant of up to Count occurrences per file.
type LooseIssue struct {
	File    string `toml:"file"`
	Code    string `toml:"code"`
	Message string `toml:"message"`
	Count   int    `toml:"count"`
}

// LooseBaseline is a flat issue list.
type LooseBaseline struct {
	Variant Variant      `toml:"variant"`
	Issues  []LooseIssue `toml:"issues"`
}

// Baseline holds exactly one of Strict or Loose, selected by Variant.
type Baseline struct {
	Variant Variant
	Strict  *StrictBaseline
	Loose   *LooseBaseline
}

// Record is the variant-agnostic view of one suppressible issue, built from
// a live diagnostics.Issue (see FromIssues) or read back out of a Baseline
// (see Records) so Diff can compare the two without caring which TOML shape
// produced them.
type Record struct {
	File      string
	Code      string
	Message   string
	StartLine int
	EndLine   int
}

// Records flattens a Baseline into its variant-agnostic form.
func (b *Baseline) Records() []Record {
	var out []Record
	switch b.Variant {
	case VariantLoose:
		if b.Loose == nil {
			return nil
		}
		for _, iss := range b.Loose.Issues {
			for i := 0; i < iss.Count; i++ {
				out = append(out, Record{File: iss.File, Code: iss.Code, Message: iss.Message})
			}
		}
	default:
		if b.Strict == nil {
			return nil
		}
		for file, entry := range b.Strict.Entries {
			for _, iss := range entry.Issues {
				out = append(out, Record{File: file, Code: iss.Code, StartLine: iss.StartLine, EndLine: iss.EndLine})
			}
		}
	}
	return out
}

// New builds an empty baseline of the given variant, ready to accumulate
// Records via FromRecords.
func New(variant Variant) *Baseline {
	b := &Baseline{Variant: variant}
	switch variant {
	case VariantLoose:
		b.Loose = &LooseBaseline{Variant: VariantLoose}
	default:
		b.Strict = &StrictBaseline{Variant: VariantStrict, Entries: map[string]StrictEntry{}}
	}
	return b
}

// FromRecords populates an empty Baseline (see New) from a record list,
// the inverse of Records: strict groups by file and keeps one entry per
// record, loose collapses repeats of the same file+code+message into a
// Count.
func FromRecords(variant Variant, records []Record) *Baseline {
	b := New(variant)
	switch variant {
	case VariantLoose:
		counts := map[[3]string]*LooseIssue{}
		for _, r := range records {
			key := [3]string{r.File, r.Code, r.Message}
			if existing, ok := counts[key]; ok {
				existing.Count++
				continue
			}
			iss := LooseIssue{File: r.File, Code: r.Code, Message: r.Message, Count: 1}
			b.Loose.Issues = append(b.Loose.Issues, iss)
			counts[key] = &b.Loose.Issues[len(b.Loose.Issues)-1]
		}
	default:
		for _, r := range records {
			entry := b.Strict.Entries[r.File]
			entry.Issues = append(entry.Issues, StrictIssue{Code: r.Code, StartLine: r.StartLine, EndLine: r.EndLine})
			b.Strict.Entries[r.File] = entry
		}
	}
	return b
}
