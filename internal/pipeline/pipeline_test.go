package pipeline

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sentra-analysis/sentra/internal/ast"
	"github.com/sentra-analysis/sentra/internal/diagnostics"
	"github.com/sentra-analysis/sentra/internal/populator"
)

func classDecl(file ast.FileID, name string) *ast.ClassLikeDecl {
	return &ast.ClassLikeDecl{
		Pos:  ast.Span{File: file},
		Kind: ast.ClassLikeClass,
		Name: name,
	}
}

func TestRunScansMergesAndAnalyzesAllFiles(t *testing.T) {
	files := []ast.FileID{0, 1}

	scan := func(ctx context.Context, file ast.FileID) (*FileScan, error) {
		name := map[ast.FileID]string{0: "Foo", 1: "Bar"}[file]
		return &FileScan{File: file, ClassLikes: []*ast.ClassLikeDecl{classDecl(file, name)}}, nil
	}

	var analyzedFiles []ast.FileID
	analyze := func(ctx context.Context, file ast.FileID, cb *populator.Codebase) ([]*diagnostics.Issue, error) {
		analyzedFiles = append(analyzedFiles, file)
		name := map[ast.FileID]string{0: "Foo", 1: "Bar"}[file]
		if _, ok := cb.ClassLikes[name]; !ok {
			t.Fatalf("expected %s to be registered by merge phase", name)
		}
		return []*diagnostics.Issue{
			diagnostics.New(diagnostics.SeverityWarning, diagnostics.CodeUndefinedProperty, ast.Span{File: file, Start: 1, End: 2}, "x"),
		}, nil
	}

	p := New(2)
	result, err := p.Run(context.Background(), files, scan, analyze, nil)
	require.NoError(t, err)

	assert.Len(t, result.Codebase.ClassLikes, 2)
	assert.ElementsMatch(t, files, analyzedFiles)
	assert.Equal(t, 2, result.Collector.Len())
	assert.NotEqual(t, result.RunID.String(), "")
}

func TestRunPropagatesScanError(t *testing.T) {
	files := []ast.FileID{0}
	scan := func(ctx context.Context, file ast.FileID) (*FileScan, error) {
		return nil, assert.AnError
	}
	analyze := func(ctx context.Context, file ast.FileID, cb *populator.Codebase) ([]*diagnostics.Issue, error) {
		t.Fatal("analyze should not run after a scan error")
		return nil, nil
	}

	p := New(1)
	_, err := p.Run(context.Background(), files, scan, analyze, nil)
	assert.Error(t, err)
}

func TestDependencyGraphAffectedFilesFollowsSymbolRefs(t *testing.T) {
	files := []ast.FileID{0, 1, 2}

	scan := func(ctx context.Context, file ast.FileID) (*FileScan, error) {
		switch file {
		case 0:
			return &FileScan{File: 0, ClassLikes: []*ast.ClassLikeDecl{classDecl(0, "Base")}}, nil
		case 1:
			mid := classDecl(1, "Mid")
			mid.ParentClass = "Base"
			return &FileScan{File: 1, ClassLikes: []*ast.ClassLikeDecl{mid}}, nil
		default:
			leaf := classDecl(2, "Leaf")
			leaf.ParentClass = "Mid"
			return &FileScan{File: 2, ClassLikes: []*ast.ClassLikeDecl{leaf}}, nil
		}
	}

	analyze := func(ctx context.Context, file ast.FileID, cb *populator.Codebase) ([]*diagnostics.Issue, error) {
		return nil, nil
	}

	p := New(2)
	result, err := p.Run(context.Background(), files, scan, analyze, nil)
	require.NoError(t, err)

	affected := result.Graph.AffectedFiles([]ast.FileID{0})
	assert.Contains(t, affected, ast.FileID(0))
	assert.Contains(t, affected, ast.FileID(1))
	assert.Contains(t, affected, ast.FileID(2))
}
