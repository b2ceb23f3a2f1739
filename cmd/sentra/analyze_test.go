package main

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sentra-analysis/sentra/internal/ast"
	"github.com/sentra-analysis/sentra/internal/baseline"
	"github.com/sentra-analysis/sentra/internal/cache"
	"github.com/sentra-analysis/sentra/internal/diagnostics"
)

func TestSeverityFromStringRoundTripsKnownLevels(t *testing.T) {
	assert.Equal(t, diagnostics.SeverityError, severityFromString("error"))
	assert.Equal(t, diagnostics.SeverityWarning, severityFromString("warning"))
	assert.Equal(t, diagnostics.SeverityNote, severityFromString("note"))
	assert.Equal(t, diagnostics.SeverityHelp, severityFromString("help"))
	assert.Equal(t, diagnostics.SeverityError, severityFromString("unknown"))
}

func TestIssuesFromCacheEntryRebuildsSpanAndFields(t *testing.T) {
	entry := &cache.Entry{
		Hash: 42,
		Issues: []cache.IssueRecord{
			{
				Severity:    "warning",
				Code:        "mixed-assignment",
				StartOffset: 10,
				EndOffset:   20,
				Message:     "mixed assignment",
				Notes:       []string{"see docs"},
				Help:        "narrow the type",
				DocURL:      "https://example.invalid/mixed-assignment",
			},
		},
	}

	issues := issuesFromCacheEntry(entry, ast.FileID(7))
	assert.Len(t, issues, 1)

	iss := issues[0]
	assert.Equal(t, diagnostics.SeverityWarning, iss.Severity)
	assert.Equal(t, diagnostics.Code("mixed-assignment"), iss.Code)
	assert.Equal(t, ast.FileID(7), iss.Primary.Span.File)
	assert.Equal(t, uint32(10), iss.Primary.Span.Start)
	assert.Equal(t, uint32(20), iss.Primary.Span.End)
	assert.Equal(t, "mixed assignment", iss.Primary.Message)
	assert.Equal(t, []string{"see docs"}, iss.Notes)
	assert.Equal(t, "narrow the type", iss.Help)
	assert.Equal(t, "https://example.invalid/mixed-assignment", iss.DocURL)
}

func TestFilterSuppressedRemovesMatchedIssuesOnly(t *testing.T) {
	run := &analysisRun{paths: []string{"src/Checkout.php"}, contents: map[ast.FileID][]byte{
		0: []byte("line1\nline2\nline3\n"),
	}}

	kept := diagnostics.New(diagnostics.SeverityError, diagnostics.CodeUndefinedVariable, ast.Span{File: 0, Start: 0, End: 3}, "kept")
	removed := diagnostics.New(diagnostics.SeverityWarning, diagnostics.CodeMixedAssignment, ast.Span{File: 0, Start: 6, End: 9}, "removed")

	suppressed := []baseline.Record{{
		File:      run.resolveFile(removed.Primary.Span.File),
		Code:      string(removed.Code),
		StartLine: run.resolveLine(removed.Primary.Span.File, removed.Primary.Span.Start),
	}}

	out := filterSuppressed([]*diagnostics.Issue{kept, removed}, suppressed, run)
	assert.Len(t, out, 1)
	assert.Equal(t, "kept", out[0].Primary.Message)
}
