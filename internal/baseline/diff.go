package baseline

import (
	"github.com/sentra-analysis/sentra/internal/ast"
	"github.com/sentra-analysis/sentra/internal/diagnostics"
)

// FileResolver maps a span's file id to a display path, the same contract
// internal/reporting.FileResolver uses.
type FileResolver func(file ast.FileID) string

// LineResolver maps a byte offset within a file to a 1-based source line,
// for strict-variant matching. Baseline files store line numbers, while the
// core only tracks byte offsets.
type LineResolver func(file ast.FileID, offset uint32) int

// FromIssues converts a live issue list into the variant-agnostic Record
// form Diff compares against a loaded Baseline.
func FromIssues(issues []*diagnostics.Issue, resolveFile FileResolver, resolveLine LineResolver) []Record {
	out := make([]Record, 0, len(issues))
	for _, iss := range issues {
		out = append(out, Record{
			File:      resolveFile(iss.Primary.Span.File),
			Code:      string(iss.Code),
			Message:   iss.Primary.Message,
			StartLine: resolveLine(iss.Primary.Span.File, iss.Primary.Span.Start),
			EndLine:   resolveLine(iss.Primary.Span.File, iss.Primary.Span.End),
		})
	}
	return out
}

// Diff partitions current against a loaded baseline. Suppressed are current
// records matched by the baseline and therefore not reported; stale are
// baseline records with no matching current occurrence, candidates for
// baseline pruning per original_source/src/baseline/mod.rs's diffing
// behavior.
func Diff(current []Record, b *Baseline) (suppressed, stale []Record) {
	if b == nil {
		return nil, nil
	}

	switch b.Variant {
	case VariantLoose:
		return diffLoose(current, b)
	default:
		return diffStrict(current, b)
	}
}

func diffStrict(current []Record, b *Baseline) (suppressed, stale []Record) {
	baselined := b.Records()
	matched := make([]bool, len(baselined))

	for _, c := range current {
		hit := -1
		for i, base := range baselined {
			if matched[i] {
				continue
			}
			if base.File == c.File && base.Code == c.Code && base.StartLine == c.StartLine && base.EndLine == c.EndLine {
				hit = i
				break
			}
		}
		if hit >= 0 {
			matched[hit] = true
			suppressed = append(suppressed, c)
		}
	}

	for i, base := range baselined {
		if !matched[i] {
			stale = append(stale, base)
		}
	}
	return suppressed, stale
}

func diffLoose(current []Record, b *Baseline) (suppressed, stale []Record) {
	if b.Loose == nil {
		return nil, nil
	}

	remaining := map[[2]string]int{}
	for _, iss := range b.Loose.Issues {
		remaining[[2]string{iss.File, iss.Code}] += iss.Count
	}
	used := map[[2]string]int{}

	for _, c := range current {
		key := [2]string{c.File, c.Code}
		if used[key] < remaining[key] {
			used[key]++
			suppressed = append(suppressed, c)
		}
	}

	for _, iss := range b.Loose.Issues {
		key := [2]string{iss.File, iss.Code}
		if used[key] < iss.Count {
			stale = append(stale, Record{File: iss.File, Code: iss.Code, Message: iss.Message})
		}
	}
	return suppressed, stale
}
