package populator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sentra-analysis/sentra/internal/ast"
	"github.com/sentra-analysis/sentra/internal/diagnostics"
)

func classDecl(name, parent string) *ast.ClassLikeDecl {
	return &ast.ClassLikeDecl{Kind: ast.ClassLikeClass, Name: name, ParentClass: parent}
}

func TestPopulateInheritanceCycleTerminates(t *testing.T) {
	cb := NewCodebase()
	cb.ScanClassLike(classDecl("A", "B"))
	cb.ScanClassLike(classDecl("B", "A"))

	collector := diagnostics.NewCollector()
	Populate(cb, nil, collector)

	a, b := cb.ClassLikes["A"], cb.ClassLikes["B"]
	require.True(t, a.IsPopulated)
	require.True(t, b.IsPopulated)
	assert.NotEmpty(t, a.InvalidDependencies)
	assert.NotEmpty(t, b.InvalidDependencies)
	assert.NotZero(t, collector.Len())
}

func TestPopulateSimpleInheritanceMergesMembers(t *testing.T) {
	cb := NewCodebase()
	base := classDecl("Base", "")
	base.Properties = []*ast.PropertyDecl{{Name: "x", Visibility: ast.VisibilityPublic}}
	base.Methods = []*ast.MethodDecl{{Name: "greet", Visibility: ast.VisibilityPublic}}
	cb.ScanClassLike(base)

	child := classDecl("Child", "Base")
	cb.ScanClassLike(child)

	Populate(cb, nil, diagnostics.NewCollector())

	c := cb.ClassLikes["Child"]
	assert.True(t, c.IsPopulated)
	assert.True(t, c.AllParentClasses["Base"])
	assert.Contains(t, c.Properties, "x")
	assert.Contains(t, c.Methods, "greet")
	assert.True(t, cb.IsSubclassOf("Child", "Base"))
	assert.False(t, cb.IsSubclassOf("Base", "Child"))
}

func TestPopulateMissingParentRecordsInvalidDependency(t *testing.T) {
	cb := NewCodebase()
	cb.ScanClassLike(classDecl("Orphan", "Ghost"))

	collector := diagnostics.NewCollector()
	Populate(cb, nil, collector)

	o := cb.ClassLikes["Orphan"]
	assert.True(t, o.IsPopulated)
	assert.True(t, o.InvalidDependencies["Ghost"])
	assert.NotZero(t, collector.Len())
}

func TestPopulateDocblockInheritanceFillsUnannotatedReturnType(t *testing.T) {
	cb := NewCodebase()

	base := classDecl("Base", "")
	base.Methods = []*ast.MethodDecl{{
		Name:       "make",
		ReturnType: &ast.NamedTypeNode{Name: "int"},
	}}
	cb.ScanClassLike(base)

	child := classDecl("Child", "Base")
	child.Methods = []*ast.MethodDecl{{Name: "make", IsOverride: true}}
	cb.ScanClassLike(child)

	Populate(cb, nil, diagnostics.NewCollector())

	childFn := cb.Functions["Child::make"]
	require.NotNil(t, childFn)
	assert.Equal(t, "int", childFn.ReturnType.String())
}

func TestPopulateSafeSetPreservesPriorState(t *testing.T) {
	cb := NewCodebase()
	cb.ScanClassLike(classDecl("Base", ""))
	Populate(cb, nil, diagnostics.NewCollector())

	base := cb.ClassLikes["Base"]
	base.InvalidDependencies["Stale"] = true // simulate a prior run's derived state

	Populate(cb, map[string]bool{"Base": true}, diagnostics.NewCollector())
	assert.True(t, cb.ClassLikes["Base"].InvalidDependencies["Stale"])
}
