package reporting

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sentra-analysis/sentra/internal/ast"
	"github.com/sentra-analysis/sentra/internal/diagnostics"
)

func issue(file ast.FileID, start uint32, code diagnostics.Code, sev diagnostics.Severity) *diagnostics.Issue {
	return diagnostics.New(sev, code, ast.Span{File: file, Start: start, End: start + 1}, "message")
}

func resolveByIndex(names []string) FileResolver {
	return func(id int) string { return names[id] }
}

func TestGroupSortsFilesAndIssuesWithinFile(t *testing.T) {
	issues := []*diagnostics.Issue{
		issue(1, 10, diagnostics.CodeUndefinedVariable, diagnostics.SeverityError),
		issue(0, 20, diagnostics.CodeUndefinedMethod, diagnostics.SeverityWarning),
		issue(0, 5, diagnostics.CodeUndefinedProperty, diagnostics.SeverityNote),
	}
	report := Group(issues, resolveByIndex([]string{"a.php", "b.php"}))

	require.Len(t, report.Groups, 2)
	assert.Equal(t, "a.php", report.Groups[0].File)
	require.Len(t, report.Groups[0].Issues, 2)
	assert.Equal(t, uint32(5), report.Groups[0].Issues[0].Primary.Span.Start)
	assert.Equal(t, uint32(20), report.Groups[0].Issues[1].Primary.Span.Start)
	assert.Equal(t, 1, report.Summary.Errors)
	assert.Equal(t, 1, report.Summary.Warnings)
	assert.Equal(t, 1, report.Summary.Notes)
}

func TestAllFormattersProduceNonEmptyOutput(t *testing.T) {
	issues := []*diagnostics.Issue{
		issue(0, 10, diagnostics.CodeUndefinedVariable, diagnostics.SeverityError),
	}
	report := Group(issues, resolveByIndex([]string{"a.php"}))

	for name, formatter := range Registry() {
		var buf bytes.Buffer
		err := formatter.Format(&buf, report)
		require.NoError(t, err, name)
		assert.NotEmpty(t, buf.String(), name)
	}
}

func TestCodeCountOrdersByFrequencyDescending(t *testing.T) {
	issues := []*diagnostics.Issue{
		issue(0, 1, diagnostics.CodeUndefinedVariable, diagnostics.SeverityError),
		issue(0, 2, diagnostics.CodeUndefinedVariable, diagnostics.SeverityError),
		issue(0, 3, diagnostics.CodeUndefinedMethod, diagnostics.SeverityError),
	}
	report := Group(issues, resolveByIndex([]string{"a.php"}))

	var buf bytes.Buffer
	require.NoError(t, (&CodeCountFormatter{}).Format(&buf, report))
	out := buf.String()
	assert.True(t, bytes.Index([]byte(out), []byte("undefined-variable")) < bytes.Index([]byte(out), []byte("undefined-method")))
}
