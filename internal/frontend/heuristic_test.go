package frontend

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sentra-analysis/sentra/internal/ast"
)

func writeTemp(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "Source.php")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestScanExtractsClassWithExtendsAndImplements(t *testing.T) {
	path := writeTemp(t, `<?php
class Checkout extends BaseController implements Payable, Loggable {
    public function total() {}
}
`)

	scan, content, err := Scan(ast.FileID(3), path)
	require.NoError(t, err)
	require.NotEmpty(t, content)

	require.Len(t, scan.ClassLikes, 1)
	decl := scan.ClassLikes[0]
	assert.Equal(t, "Checkout", decl.Name)
	assert.Equal(t, ast.ClassLikeClass, decl.Kind)
	assert.Equal(t, "BaseController", decl.ParentClass)
	assert.Equal(t, []string{"Payable", "Loggable"}, decl.ParentInterfaces)
	assert.Equal(t, ast.FileID(3), decl.Pos.File)
}

func TestScanExtractsInterfaceExtendsAsParentInterfaces(t *testing.T) {
	path := writeTemp(t, `<?php
interface Loggable extends Serializable {
}
`)

	scan, _, err := Scan(ast.FileID(0), path)
	require.NoError(t, err)

	require.Len(t, scan.ClassLikes, 1)
	decl := scan.ClassLikes[0]
	assert.Equal(t, ast.ClassLikeInterface, decl.Kind)
	assert.Equal(t, []string{"Serializable"}, decl.ParentInterfaces)
	assert.Empty(t, decl.ParentClass)
}

func TestScanExtractsTraitUse(t *testing.T) {
	path := writeTemp(t, `<?php
class Cart {
    use Discountable, Taxable;

    public function subtotal() {}
}
`)

	scan, _, err := Scan(ast.FileID(0), path)
	require.NoError(t, err)

	require.Len(t, scan.ClassLikes, 1)
	require.Len(t, scan.ClassLikes[0].Traits, 1)
	assert.Equal(t, []string{"Discountable", "Taxable"}, scan.ClassLikes[0].Traits[0].Traits)
}

func TestScanExtractsFreeFunctions(t *testing.T) {
	path := writeTemp(t, `<?php
function compute_total($items) {
    return 0;
}

function apply_discount($total, $pct) {
    return $total;
}
`)

	scan, _, err := Scan(ast.FileID(0), path)
	require.NoError(t, err)

	require.Len(t, scan.Functions, 2)
	assert.Equal(t, "compute_total", scan.Functions[0].Name)
	assert.Equal(t, "apply_discount", scan.Functions[1].Name)
}

func TestScanEnumAndTraitDeclarations(t *testing.T) {
	path := writeTemp(t, `<?php
enum Status {
    case Active;
    case Inactive;
}

trait Discountable {
    public function discount() {}
}
`)

	scan, _, err := Scan(ast.FileID(0), path)
	require.NoError(t, err)

	require.Len(t, scan.ClassLikes, 2)
	assert.Equal(t, ast.ClassLikeEnum, scan.ClassLikes[0].Kind)
	assert.Equal(t, ast.ClassLikeTrait, scan.ClassLikes[1].Kind)
}

func TestLineOfCountsNewlines(t *testing.T) {
	content := []byte("line one\nline two\nline three")
	assert.Equal(t, 1, LineOf(content, 0))
	assert.Equal(t, 2, LineOf(content, 9))
	assert.Equal(t, 3, LineOf(content, 19))
}

func TestScanMissingFileReturnsError(t *testing.T) {
	_, _, err := Scan(ast.FileID(0), filepath.Join(t.TempDir(), "missing.php"))
	assert.Error(t, err)
}
