package baseline

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sentra-analysis/sentra/internal/ast"
	"github.com/sentra-analysis/sentra/internal/diagnostics"
)

func writeFile(path, content string) error {
	return os.WriteFile(path, []byte(content), 0o644)
}

func readFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	return string(data), err
}

func TestLoadStrictWithHeader(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "baseline.toml")
	content := `
variant = "strict"

[entries."src/Service/PaymentProcessor.php"]
[[entries."src/Service/PaymentProcessor.php".issues]]
code = "possibly-invalid-argument"
start_line = 42
end_line = 42
`
	require.NoError(t, writeFile(path, content))

	b, needsWarning, err := Load(path)
	require.NoError(t, err)
	assert.False(t, needsWarning)
	require.Equal(t, VariantStrict, b.Variant)
	entry, ok := b.Strict.Entries["src/Service/PaymentProcessor.php"]
	require.True(t, ok)
	require.Len(t, entry.Issues, 1)
	assert.Equal(t, "possibly-invalid-argument", entry.Issues[0].Code)
}

func TestLoadLooseWithHeader(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "baseline.toml")
	content := `
variant = "loose"

[[issues]]
file = "src/Service/PaymentProcessor.php"
code = "possibly-null-argument"
message = "Argument #1 of process cannot be null."
count = 3
`
	require.NoError(t, writeFile(path, content))

	b, needsWarning, err := Load(path)
	require.NoError(t, err)
	assert.False(t, needsWarning)
	require.Equal(t, VariantLoose, b.Variant)
	require.Len(t, b.Loose.Issues, 1)
	assert.Equal(t, 3, b.Loose.Issues[0].Count)
}

func TestLoadMissingHeaderAssumesStrictWithWarning(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "baseline.toml")
	content := `
[entries."src/Controller/UserController.php"]
[[entries."src/Controller/UserController.php".issues]]
code = "invalid-argument"
start_line = 68
end_line = 71
`
	require.NoError(t, writeFile(path, content))

	b, needsWarning, err := Load(path)
	require.NoError(t, err)
	assert.True(t, needsWarning)
	assert.Equal(t, VariantStrict, b.Variant)
}

func TestSaveAndLoadRoundtripStrict(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "baseline.toml")

	original := FromRecords(VariantStrict, []Record{
		{File: "src/Repository/UserRepository.php", Code: "invalid-argument", StartLine: 68, EndLine: 71},
	})
	require.NoError(t, Save(path, original, false))

	loaded, needsWarning, err := Load(path)
	require.NoError(t, err)
	assert.False(t, needsWarning)
	records := loaded.Records()
	require.Len(t, records, 1)
	assert.Equal(t, "invalid-argument", records[0].Code)
}

func TestSaveCreatesBackup(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "baseline.toml")
	require.NoError(t, writeFile(path, "initial content"))

	b := New(VariantStrict)
	require.NoError(t, Save(path, b, true))

	backupContent, err := readFile(path + ".bkp")
	require.NoError(t, err)
	assert.Equal(t, "initial content", backupContent)
}

func TestDiffStrictSuppressesExactMatchAndReportsStale(t *testing.T) {
	b := FromRecords(VariantStrict, []Record{
		{File: "a.php", Code: "undefined-variable", StartLine: 10, EndLine: 10},
		{File: "a.php", Code: "undefined-method", StartLine: 20, EndLine: 20},
	})

	current := []Record{
		{File: "a.php", Code: "undefined-variable", StartLine: 10, EndLine: 10},
	}

	suppressed, stale := Diff(current, b)
	require.Len(t, suppressed, 1)
	require.Len(t, stale, 1)
	assert.Equal(t, "undefined-method", stale[0].Code)
}

func TestDiffLooseToleratesLineDriftUpToCount(t *testing.T) {
	b := FromRecords(VariantLoose, []Record{
		{File: "a.php", Code: "mixed-assignment", Message: "m"},
		{File: "a.php", Code: "mixed-assignment", Message: "m"},
	})

	current := []Record{
		{File: "a.php", Code: "mixed-assignment", Message: "different line now"},
		{File: "a.php", Code: "mixed-assignment", Message: "different line now"},
		{File: "a.php", Code: "mixed-assignment", Message: "a third occurrence"},
	}

	suppressed, stale := Diff(current, b)
	assert.Len(t, suppressed, 2)
	assert.Empty(t, stale)
}

func TestDiffLooseReportsStaleWhenCountDrops(t *testing.T) {
	b := FromRecords(VariantLoose, []Record{
		{File: "a.php", Code: "mixed-assignment", Message: "m"},
		{File: "a.php", Code: "mixed-assignment", Message: "m"},
	})

	suppressed, stale := Diff(nil, b)
	assert.Empty(t, suppressed)
	assert.Len(t, stale, 1)
}

func TestFromIssuesResolvesFileAndLine(t *testing.T) {
	issues := []*diagnostics.Issue{
		diagnostics.New(diagnostics.SeverityError, diagnostics.CodeUndefinedVariable, ast.Span{File: 0, Start: 5, End: 6}, "oops"),
	}
	resolveFile := func(f ast.FileID) string { return "a.php" }
	resolveLine := func(f ast.FileID, offset uint32) int { return int(offset) + 1 }

	records := FromIssues(issues, resolveFile, resolveLine)
	require.Len(t, records, 1)
	assert.Equal(t, "a.php", records[0].File)
	assert.Equal(t, 6, records[0].StartLine)
	assert.Equal(t, 7, records[0].EndLine)
}
