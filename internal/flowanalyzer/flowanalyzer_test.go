package flowanalyzer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sentra-analysis/sentra/internal/ast"
	"github.com/sentra-analysis/sentra/internal/diagnostics"
	"github.com/sentra-analysis/sentra/internal/lattice"
	"github.com/sentra-analysis/sentra/internal/populator"
)

func sp() ast.Span { return ast.Span{} }

func v(name string) *ast.Variable { return &ast.Variable{Name: name} }

func lit(kind ast.LiteralKind) *ast.Literal { return &ast.Literal{Kind: kind} }

func nullLit() *ast.Literal { return &ast.Literal{Kind: ast.LiteralNull} }

func intLit(n int64) *ast.Literal { return &ast.Literal{Kind: ast.LiteralInt, IntValue: n} }

func assign(name string, value ast.Expression) *ast.AssignmentExpr {
	return &ast.AssignmentExpr{Left: v(name), Value: value}
}

func exprStmt(e ast.Expression) *ast.ExpressionStatement {
	return &ast.ExpressionStatement{Expression: e}
}

func block(stmts ...ast.Statement) *ast.BlockStatement {
	return &ast.BlockStatement{Statements: stmts}
}

func newAnalyzer(cb *populator.Codebase) *Analyzer {
	if cb == nil {
		cb = populator.NewCodebase()
	}
	return New(cb, diagnostics.NewCollector(), ast.FileID(0))
}

func ctxWith(vars map[string]*lattice.Union) *BlockContext {
	ctx := NewBlockContext(ScopeInfo{})
	for name, u := range vars {
		ctx.Set(name, u)
	}
	return ctx
}

func TestAnalyzeIfNarrowsIssetInThenBranch(t *testing.T) {
	a := newAnalyzer(nil)
	ctx := ctxWith(map[string]*lattice.Union{
		"x": lattice.NewUnion(lattice.TNull{}, lattice.TInteger{Domain: lattice.UnspecifiedInt()}),
	})

	ifStmt := &ast.IfStatement{
		Condition:   &ast.BinaryExpr{Op: ast.OpNotEq, Left: v("x"), Right: nullLit()},
		Consequence: block(exprStmt(assign("y", v("x")))),
	}
	a.analyzeIf(ifStmt, ctx)

	y, ok := ctx.Get("y")
	require.True(t, ok)
	for _, at := range y.Atomics {
		_, isNull := at.(lattice.TNull)
		assert.False(t, isNull, "then-branch should have stripped null from x")
	}
}

func TestAnalyzeIfJoinsBranchesAfterward(t *testing.T) {
	a := newAnalyzer(nil)
	ctx := ctxWith(map[string]*lattice.Union{
		"x": lattice.NewUnion(lattice.TNull{}, lattice.TInteger{Domain: lattice.UnspecifiedInt()}),
	})

	ifStmt := &ast.IfStatement{
		Condition:   &ast.BinaryExpr{Op: ast.OpNotEq, Left: v("x"), Right: nullLit()},
		Consequence: block(),
		Alternative: block(),
	}
	a.analyzeIf(ifStmt, ctx)

	x, ok := ctx.Get("x")
	require.True(t, ok)
	var sawNull bool
	for _, at := range x.Atomics {
		if _, isNull := at.(lattice.TNull); isNull {
			sawNull = true
		}
	}
	assert.True(t, sawNull, "joining then (non-null) and else (possibly null) should restore null")
}

func TestAnalyzeIfUndefinedVariableDiagnosedOutsideLoop(t *testing.T) {
	a := newAnalyzer(nil)
	ctx := NewBlockContext(ScopeInfo{})

	ifStmt := &ast.IfStatement{
		Condition:   v("missing"),
		Consequence: block(),
	}
	a.analyzeIf(ifStmt, ctx)

	found := false
	for _, iss := range a.Collector.Issues() {
		if iss.Code == diagnostics.CodeUndefinedVariable {
			found = true
		}
	}
	assert.True(t, found)
}

func TestAnalyzeWhileFixpointConverges(t *testing.T) {
	a := newAnalyzer(nil)
	ctx := ctxWith(map[string]*lattice.Union{
		"i": lattice.NewUnion(lattice.TInteger{Domain: lattice.LiteralInt(0)}),
	})

	whileStmt := &ast.WhileStatement{
		Condition: v("i"),
		Body:      block(exprStmt(assign("i", v("i")))),
	}
	a.analyzeWhile(whileStmt, ctx)

	_, ok := ctx.Get("i")
	assert.True(t, ok)
}

func TestAnalyzeForeachBindsValueFromListElement(t *testing.T) {
	a := newAnalyzer(nil)
	elem := lattice.NewUnion(lattice.TString{})
	ctx := ctxWith(map[string]*lattice.Union{
		"items": lattice.NewUnion(lattice.TList{Element: elem}),
	})

	foreach := &ast.ForeachStatement{
		Iterable: v("items"),
		ValueVar: v("item"),
		Body:     block(),
	}
	a.analyzeForeach(foreach, ctx)

	item, ok := ctx.Get("item")
	require.True(t, ok)
	require.Len(t, item.Atomics, 1)
	_, isString := item.Atomics[0].(lattice.TString)
	assert.True(t, isString)
}

func TestAnalyzeTryBindsCaughtTypeInCatch(t *testing.T) {
	a := newAnalyzer(nil)
	ctx := NewBlockContext(ScopeInfo{})

	caughtType := &ast.NamedTypeNode{Name: "RuntimeException"}
	tryStmt := &ast.TryStatement{
		Try: block(),
		Catches: []*ast.CatchClause{
			{
				CaughtTypes: []ast.TypeNode{caughtType},
				Variable:    v("e"),
				Body:        block(exprStmt(assign("caught", v("e")))),
			},
		},
	}
	a.analyzeTry(tryStmt, ctx)

	caught, ok := ctx.Get("caught")
	require.True(t, ok)
	require.Len(t, caught.Atomics, 1)
	named, ok := caught.Atomics[0].(lattice.TObjectNamed)
	require.True(t, ok)
	assert.Equal(t, "RuntimeException", named.Name)
}

func TestAnalyzeTryRunsFinallyOnBothPaths(t *testing.T) {
	a := newAnalyzer(nil)
	ctx := NewBlockContext(ScopeInfo{})

	tryStmt := &ast.TryStatement{
		Try:     block(),
		Catches: []*ast.CatchClause{{Body: block()}},
		Finally: block(exprStmt(assign("ran", intLit(1)))),
	}
	a.analyzeTry(tryStmt, ctx)

	_, ok := ctx.Get("ran")
	assert.True(t, ok)
}

func TestAnalyzeMatchStatementNarrowsSubjectPerArm(t *testing.T) {
	a := newAnalyzer(nil)
	ctx := ctxWith(map[string]*lattice.Union{
		"x": lattice.NewUnion(lattice.TInteger{Domain: lattice.UnspecifiedInt()}, lattice.TString{}),
	})

	matchStmt := &ast.MatchStatement{
		Subject: v("x"),
		Arms: []*ast.MatchArm{
			{
				Patterns: []ast.TypeNode{&ast.NamedTypeNode{Name: "int"}},
				Body:     exprStmt(assign("picked", v("x"))),
			},
		},
	}
	a.analyzeMatchStatement(matchStmt, ctx)

	_, ok := ctx.Get("picked")
	assert.True(t, ok)
}

func TestAnalyzeFunctionCallResolvesDeclaredReturnType(t *testing.T) {
	cb := populator.NewCodebase()
	retType := lattice.NewUnion(lattice.TBool{})
	cb.Functions["doit"] = &populator.FunctionLikeMetadata{
		Name:       "doit",
		ReturnType: retType,
	}
	a := newAnalyzer(cb)
	ctx := NewBlockContext(ScopeInfo{})

	call := &ast.FunctionCallExpr{Name: "doit"}
	result := a.analyzeFunctionCall(call, ctx)
	assert.Equal(t, retType, result)
}

func TestAnalyzeFunctionCallQueuesAssertionClauses(t *testing.T) {
	cb := populator.NewCodebase()
	cb.Functions["isReady"] = &populator.FunctionLikeMetadata{
		Name:       "isReady",
		Parameters: []*populator.ParameterMetadata{{Name: "x"}},
		ReturnType: lattice.NewUnion(lattice.TBool{}),
		Assertions: []*populator.ParamAssertion{
			{ParamName: "x", OnTrue: true, Kind: "non-null"},
		},
	}
	a := newAnalyzer(cb)
	ctx := ctxWith(map[string]*lattice.Union{
		"x": lattice.NewUnion(lattice.TNull{}, lattice.TInteger{Domain: lattice.UnspecifiedInt()}),
	})

	cond := &ast.FunctionCallExpr{Name: "isReady", Arguments: []ast.Expression{v("x")}}
	clauses := a.analyzeCondition(cond, ctx)

	require.Len(t, clauses, 1)
	assert.Equal(t, "x", clauses[0].Binding)
	assert.Equal(t, false, clauses[0].Negated)
}

func TestAnalyzeFunctionCallByRefRebindsArgument(t *testing.T) {
	cb := populator.NewCodebase()
	outType := lattice.NewUnion(lattice.TInteger{Domain: lattice.UnspecifiedInt()})
	cb.Functions["fill"] = &populator.FunctionLikeMetadata{
		Name: "fill",
		Parameters: []*populator.ParameterMetadata{
			{Name: "out", IsByRef: true, OutType: outType},
		},
		ReturnType: lattice.NewUnion(lattice.TVoid{}),
	}
	a := newAnalyzer(cb)
	ctx := ctxWith(map[string]*lattice.Union{
		"out": lattice.Null(),
	})

	call := &ast.FunctionCallExpr{Name: "fill", Arguments: []ast.Expression{v("out")}}
	a.analyzeFunctionCall(call, ctx)

	rebound, ok := ctx.Get("out")
	require.True(t, ok)
	assert.Equal(t, outType, rebound)
}

func TestAnalyzeFunctionCallInvalidArgumentDiagnosed(t *testing.T) {
	cb := populator.NewCodebase()
	cb.Functions["wantsInt"] = &populator.FunctionLikeMetadata{
		Name: "wantsInt",
		Parameters: []*populator.ParameterMetadata{
			{Name: "n", Type: lattice.NewUnion(lattice.TInteger{Domain: lattice.UnspecifiedInt()})},
		},
		ReturnType: lattice.NewUnion(lattice.TVoid{}),
	}
	a := newAnalyzer(cb)
	ctx := ctxWith(map[string]*lattice.Union{
		"s": lattice.NewUnion(lattice.TString{}),
	})

	call := &ast.FunctionCallExpr{Name: "wantsInt", Arguments: []ast.Expression{v("s")}}
	a.analyzeFunctionCall(call, ctx)

	found := false
	for _, iss := range a.Collector.Issues() {
		if iss.Code == diagnostics.CodeInvalidArgument {
			found = true
		}
	}
	assert.True(t, found)
}

func TestAnalyzeMethodCallOnPossiblyNullDiagnoses(t *testing.T) {
	a := newAnalyzer(nil)
	ctx := ctxWith(map[string]*lattice.Union{
		"obj": lattice.NewUnion(lattice.TNull{}, lattice.TObjectNamed{Name: "Foo"}),
	})

	call := &ast.MethodCallExpr{
		Object:   v("obj"),
		Selector: &ast.IdentifierSelector{Name: "bar"},
	}
	a.analyzeMethodCall(call, ctx)

	found := false
	for _, iss := range a.Collector.Issues() {
		if iss.Code == diagnostics.CodePossibleMethodAccessOnNull {
			found = true
		}
	}
	assert.True(t, found)
}

func TestAnalyzeMethodCallNullsafeSuppressesDiagnosticAndAddsNull(t *testing.T) {
	cb := populator.NewCodebase()
	cb.ClassLikes["Foo"] = &populator.ClassLikeMetadata{
		Name:               "Foo",
		DeclaringMethodIDs: map[string]populator.MethodID{"bar": {Class: "Foo", Method: "bar"}},
	}
	cb.Functions["Foo::bar"] = &populator.FunctionLikeMetadata{
		Name:       "bar",
		ReturnType: lattice.NewUnion(lattice.TString{}),
	}
	a := newAnalyzer(cb)
	ctx := ctxWith(map[string]*lattice.Union{
		"obj": lattice.NewUnion(lattice.TNull{}, lattice.TObjectNamed{Name: "Foo"}),
	})

	call := &ast.MethodCallExpr{
		Object:   v("obj"),
		Selector: &ast.IdentifierSelector{Name: "bar"},
		Nullsafe: true,
	}
	result := a.analyzeMethodCall(call, ctx)

	for _, iss := range a.Collector.Issues() {
		assert.NotEqual(t, diagnostics.CodePossibleMethodAccessOnNull, iss.Code)
	}
	var sawNull, sawString bool
	for _, at := range result.Atomics {
		switch at.(type) {
		case lattice.TNull:
			sawNull = true
		case lattice.TString:
			sawString = true
		}
	}
	assert.True(t, sawNull)
	assert.True(t, sawString)
}

func TestAnalyzeMethodCallUndefinedMethodDiagnosed(t *testing.T) {
	cb := populator.NewCodebase()
	cb.ClassLikes["Foo"] = &populator.ClassLikeMetadata{Name: "Foo"}
	a := newAnalyzer(cb)
	ctx := ctxWith(map[string]*lattice.Union{
		"obj": lattice.NewUnion(lattice.TObjectNamed{Name: "Foo"}),
	})

	call := &ast.MethodCallExpr{
		Object:   v("obj"),
		Selector: &ast.IdentifierSelector{Name: "missing"},
	}
	a.analyzeMethodCall(call, ctx)

	found := false
	for _, iss := range a.Collector.Issues() {
		if iss.Code == diagnostics.CodeUndefinedMethod {
			found = true
		}
	}
	assert.True(t, found)
}

func TestAnalyzeMethodCallOnMixedWarns(t *testing.T) {
	a := newAnalyzer(nil)
	ctx := ctxWith(map[string]*lattice.Union{
		"obj": lattice.Mixed(),
	})

	call := &ast.MethodCallExpr{
		Object:   v("obj"),
		Selector: &ast.IdentifierSelector{Name: "bar"},
	}
	a.analyzeMethodCall(call, ctx)

	found := false
	for _, iss := range a.Collector.Issues() {
		if iss.Code == diagnostics.CodeMixedAnyMethodAccess {
			found = true
		}
	}
	assert.True(t, found)
}

func TestAnalyzeMethodCallOnAmbiguousObjectWarns(t *testing.T) {
	a := newAnalyzer(nil)
	ctx := ctxWith(map[string]*lattice.Union{
		"obj": lattice.NewUnion(lattice.TObjectAny{}),
	})

	call := &ast.MethodCallExpr{
		Object:   v("obj"),
		Selector: &ast.IdentifierSelector{Name: "bar"},
	}
	a.analyzeMethodCall(call, ctx)

	found := false
	for _, iss := range a.Collector.Issues() {
		if iss.Code == diagnostics.CodeAmbiguousObjectMethodAccess {
			found = true
		}
	}
	assert.True(t, found)
}

func TestAnalyzePropertyAccessUndefinedPropertyDiagnosed(t *testing.T) {
	cb := populator.NewCodebase()
	cb.ClassLikes["Foo"] = &populator.ClassLikeMetadata{Name: "Foo"}
	a := newAnalyzer(cb)
	ctx := ctxWith(map[string]*lattice.Union{
		"obj": lattice.NewUnion(lattice.TObjectNamed{Name: "Foo"}),
	})

	access := &ast.PropertyAccessExpr{
		Object:   v("obj"),
		Selector: &ast.IdentifierSelector{Name: "missing"},
	}
	a.analyzePropertyAccess(access, ctx)

	found := false
	for _, iss := range a.Collector.Issues() {
		if iss.Code == diagnostics.CodeUndefinedProperty {
			found = true
		}
	}
	assert.True(t, found)
}

func TestAnalyzeMethodCallOnVanillaMixedUsesMixedMethodAccess(t *testing.T) {
	a := newAnalyzer(nil)
	ctx := ctxWith(map[string]*lattice.Union{
		"obj": lattice.NewUnion(lattice.TMixed{Props: lattice.MixedProps{Vanilla: true}}),
	})

	call := &ast.MethodCallExpr{
		Object:   v("obj"),
		Selector: &ast.IdentifierSelector{Name: "bar"},
	}
	a.analyzeMethodCall(call, ctx)

	found := false
	for _, iss := range a.Collector.Issues() {
		if iss.Code == diagnostics.CodeMixedMethodAccess {
			found = true
		}
		assert.NotEqual(t, diagnostics.CodeMixedAnyMethodAccess, iss.Code)
	}
	assert.True(t, found)
}

func TestAnalyzeAssignmentOfVanillaMixedDiagnosed(t *testing.T) {
	a := newAnalyzer(nil)
	ctx := ctxWith(map[string]*lattice.Union{
		"mixedValue": lattice.NewUnion(lattice.TMixed{Props: lattice.MixedProps{Vanilla: true}}),
	})

	a.analyzeAssignment(assign("x", v("mixedValue")), ctx)

	found := false
	for _, iss := range a.Collector.Issues() {
		if iss.Code == diagnostics.CodeMixedAssignment {
			found = true
		}
	}
	assert.True(t, found)
}

func TestAnalyzeAssignmentOfImplicitMixedNotDiagnosed(t *testing.T) {
	a := newAnalyzer(nil)
	ctx := ctxWith(nil)

	a.analyzeAssignment(assign("x", v("undefined")), ctx)

	for _, iss := range a.Collector.Issues() {
		assert.NotEqual(t, diagnostics.CodeMixedAssignment, iss.Code)
	}
}

func TestAnalyzeMethodCallOnScalarDiagnosesInvalidAccess(t *testing.T) {
	a := newAnalyzer(nil)
	ctx := ctxWith(map[string]*lattice.Union{
		"n": lattice.NewUnion(lattice.TInteger{Domain: lattice.UnspecifiedInt()}),
	})

	call := &ast.MethodCallExpr{
		Object:   v("n"),
		Selector: &ast.IdentifierSelector{Name: "f"},
	}
	a.analyzeMethodCall(call, ctx)

	found := false
	for _, iss := range a.Collector.Issues() {
		if iss.Code == diagnostics.CodeInvalidMethodAccess {
			found = true
		}
	}
	assert.True(t, found)
}

func TestAnalyzePropertyAccessOnScalarDiagnosesInvalidAccess(t *testing.T) {
	a := newAnalyzer(nil)
	ctx := ctxWith(map[string]*lattice.Union{
		"n": lattice.NewUnion(lattice.TInteger{Domain: lattice.UnspecifiedInt()}),
	})

	access := &ast.PropertyAccessExpr{
		Object:   v("n"),
		Selector: &ast.IdentifierSelector{Name: "f"},
	}
	a.analyzePropertyAccess(access, ctx)

	found := false
	for _, iss := range a.Collector.Issues() {
		if iss.Code == diagnostics.CodeInvalidMethodAccess {
			found = true
		}
	}
	assert.True(t, found)
}

func TestAnalyzeMethodCallResolvesIntersectionComponent(t *testing.T) {
	cb := populator.NewCodebase()
	cb.ClassLikes["Readable"] = &populator.ClassLikeMetadata{Name: "Readable"}
	cb.ClassLikes["Writable"] = &populator.ClassLikeMetadata{Name: "Writable"}
	readID := populator.MethodID{Class: "Readable", Method: "read"}
	writeID := populator.MethodID{Class: "Writable", Method: "write"}
	cb.ClassLikes["Readable"].DeclaringMethodIDs = map[string]populator.MethodID{"read": readID}
	cb.ClassLikes["Writable"].DeclaringMethodIDs = map[string]populator.MethodID{"write": writeID}
	cb.Functions["Readable::read"] = &populator.FunctionLikeMetadata{Name: "read"}
	cb.Functions["Writable::write"] = &populator.FunctionLikeMetadata{Name: "write"}

	a := newAnalyzer(cb)
	receiver := lattice.NewUnion(lattice.TObjectNamed{
		Name:          "Readable",
		Intersections: []lattice.Atomic{lattice.TObjectNamed{Name: "Writable"}},
	})
	ctx := ctxWith(map[string]*lattice.Union{"obj": receiver})

	readCall := &ast.MethodCallExpr{Object: v("obj"), Selector: &ast.IdentifierSelector{Name: "read"}}
	a.analyzeMethodCall(readCall, ctx)
	writeCall := &ast.MethodCallExpr{Object: v("obj"), Selector: &ast.IdentifierSelector{Name: "write"}}
	a.analyzeMethodCall(writeCall, ctx)

	for _, iss := range a.Collector.Issues() {
		assert.NotEqual(t, diagnostics.CodeUndefinedMethod, iss.Code)
	}
}

func TestAnalyzeBinaryAndShortCircuitsNarrowing(t *testing.T) {
	a := newAnalyzer(nil)
	ctx := ctxWith(map[string]*lattice.Union{
		"x": lattice.NewUnion(lattice.TNull{}, lattice.TInteger{Domain: lattice.UnspecifiedInt()}),
	})

	and := &ast.BinaryExpr{
		Op:   ast.OpAnd,
		Left: &ast.BinaryExpr{Op: ast.OpNotEq, Left: v("x"), Right: nullLit()},
		Right: assign("y", v("x")),
	}
	a.analyzeExpr(and, ctx)

	y, ok := ctx.Get("y")
	require.True(t, ok)
	for _, at := range y.Atomics {
		_, isNull := at.(lattice.TNull)
		assert.False(t, isNull)
	}
}

func TestAnalyzeConditionalExprAppliesClausesToEachBranch(t *testing.T) {
	a := newAnalyzer(nil)
	ctx := ctxWith(map[string]*lattice.Union{
		"x": lattice.NewUnion(lattice.TNull{}, lattice.TInteger{Domain: lattice.UnspecifiedInt()}),
	})

	ternary := &ast.ConditionalExpr{
		Condition: &ast.BinaryExpr{Op: ast.OpNotEq, Left: v("x"), Right: nullLit()},
		Then:      v("x"),
		Else:      intLit(0),
	}
	result := a.analyzeExpr(ternary, ctx)
	require.NotNil(t, result)
	for _, at := range result.Atomics {
		_, isNull := at.(lattice.TNull)
		assert.False(t, isNull, "then-branch should have stripped null from x")
	}
}

func TestJoinOptionalHandlesNilExisting(t *testing.T) {
	u := lattice.NewUnion(lattice.TBool{})
	assert.Equal(t, u, joinOptional(nil, u))
}

func TestAnalyzeFunctionAccumulatesJoinedReturnType(t *testing.T) {
	cb := populator.NewCodebase()
	cb.Functions["pick"] = &populator.FunctionLikeMetadata{Name: "pick"}
	a := newAnalyzer(cb)

	fn := &ast.FunctionDecl{
		Name: "pick",
		Body: block(
			&ast.IfStatement{
				Condition:   v("flag"),
				Consequence: block(&ast.ReturnStatement{Value: intLit(1)}),
				Alternative: block(&ast.ReturnStatement{Value: lit(ast.LiteralString)}),
			},
		),
	}
	ret := a.AnalyzeFunction(fn)
	require.NotNil(t, ret)
	var sawInt, sawString bool
	for _, at := range ret.Atomics {
		switch at.(type) {
		case lattice.TInteger:
			sawInt = true
		case lattice.TString:
			sawString = true
		}
	}
	assert.True(t, sawInt)
	assert.True(t, sawString)
}

func TestAnalyzeMethodSeedsThisForInstanceMethods(t *testing.T) {
	cb := populator.NewCodebase()
	cb.Functions["Foo::bar"] = &populator.FunctionLikeMetadata{Name: "bar", DeclaringClass: "Foo"}
	a := newAnalyzer(cb)

	method := &ast.MethodDecl{
		Name: "bar",
		Body: block(exprStmt(assign("self", v("this")))),
	}
	a.AnalyzeMethod("Foo", method)

	for _, iss := range a.Collector.Issues() {
		assert.NotEqual(t, diagnostics.CodeUndefinedVariable, iss.Code)
	}
}

func TestLocalsEqualDetectsDivergence(t *testing.T) {
	x := ctxWith(map[string]*lattice.Union{"a": lattice.NewUnion(lattice.TBool{})})
	y := ctxWith(map[string]*lattice.Union{"a": lattice.NewUnion(lattice.TString{})})
	assert.False(t, localsEqual(x, y))

	z := ctxWith(map[string]*lattice.Union{"a": lattice.NewUnion(lattice.TBool{})})
	assert.True(t, localsEqual(x, z))
}
