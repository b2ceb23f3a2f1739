package flowanalyzer

import (
	"github.com/sentra-analysis/sentra/internal/ast"
	"github.com/sentra-analysis/sentra/internal/lattice"
	"github.com/sentra-analysis/sentra/internal/reconciler"
)

// conditionClauses extracts the refinement clauses a condition expression
// asserts about its operand bindings, grounded on the teacher's
// inferIfExpression special-casing a `typeOf($x, T)` call shape to recover
// flow-sensitive narrowing the general type inference can't see on its own.
// This package generalizes that same idea to the assertion-bearing
// expression shapes spec §4.3/§4.4 name: isset/empty/is_*/instanceof/
// array_key_exists/method_exists/property_exists/comparisons, plus the
// plain-variable truthiness check every `if ($x)` relies on.
func conditionClauses(cond ast.Expression) []Clause {
	switch e := cond.(type) {
	case *ast.UnaryExpr:
		if e.Op == ast.OpNot {
			inner := conditionClauses(e.Operand)
			negated := make([]Clause, len(inner))
			for i, c := range inner {
				c.Negated = !c.Negated
				negated[i] = c
			}
			return negated
		}
	case *ast.BinaryExpr:
		switch e.Op {
		case ast.OpAnd:
			return append(conditionClauses(e.Left), conditionClauses(e.Right)...)
		case ast.OpInstanceOf:
			if name, ok := className(e.Right); ok {
				if v, ok := e.Left.(*ast.Variable); ok {
					return []Clause{{Binding: v.Name, Assertion: reconciler.Assertion{
						Kind: reconciler.KindIsType,
						Type: lattice.NewUnion(lattice.TObjectNamed{Name: name}),
					}}}
				}
			}
		case ast.OpEq, ast.OpIdentical:
			if c, ok := nullComparisonClause(e.Left, e.Right, true); ok {
				return []Clause{c}
			}
			if c, ok := nullComparisonClause(e.Right, e.Left, true); ok {
				return []Clause{c}
			}
		case ast.OpNotEq, ast.OpNotIdentical:
			if c, ok := nullComparisonClause(e.Left, e.Right, false); ok {
				return []Clause{c}
			}
			if c, ok := nullComparisonClause(e.Right, e.Left, false); ok {
				return []Clause{c}
			}
		case ast.OpLt, ast.OpLte, ast.OpGt, ast.OpGte:
			if c, ok := intComparisonClause(e); ok {
				return []Clause{c}
			}
		}
	case *ast.FunctionCallExpr:
		if c, ok := functionCallClause(e); ok {
			return []Clause{c}
		}
	case *ast.Variable:
		return []Clause{{Binding: e.Name, Assertion: reconciler.Assertion{Kind: reconciler.KindTruthy}}}
	}
	return nil
}

func className(e ast.Expression) (string, bool) {
	if cc, ok := e.(*ast.ClassConstantAccessExpr); ok && cc.Constant == "class" {
		return cc.ClassName, true
	}
	return "", false
}

// nullComparisonClause matches `$x == null`/`$x === null` (wantEqual=true)
// or `$x != null`/`$x !== null` (wantEqual=false), returning the Isset
// clause in the polarity that makes the equality true: `$x === null` is
// true exactly when $x is not set/null, the negation of Isset.
func nullComparisonClause(maybeVar, maybeNull ast.Expression, wantEqual bool) (Clause, bool) {
	v, ok := maybeVar.(*ast.Variable)
	if !ok {
		return Clause{}, false
	}
	lit, ok := maybeNull.(*ast.Literal)
	if !ok || lit.Kind != ast.LiteralNull {
		return Clause{}, false
	}
	return Clause{
		Binding:   v.Name,
		Assertion: reconciler.Assertion{Kind: reconciler.KindIsset},
		Negated:   wantEqual,
	}, true
}

func intComparisonClause(e *ast.BinaryExpr) (Clause, bool) {
	if v, ok := e.Left.(*ast.Variable); ok {
		if lit, ok := e.Right.(*ast.Literal); ok && lit.Kind == ast.LiteralInt {
			return Clause{Binding: v.Name, Assertion: reconciler.Assertion{Kind: intCompareKind(e.Op), IntValue: lit.IntValue}}, true
		}
	}
	if v, ok := e.Right.(*ast.Variable); ok {
		if lit, ok := e.Left.(*ast.Literal); ok && lit.Kind == ast.LiteralInt {
			return Clause{Binding: v.Name, Assertion: reconciler.Assertion{Kind: flipIntCompareKind(e.Op), IntValue: lit.IntValue}}, true
		}
	}
	return Clause{}, false
}

func intCompareKind(op ast.BinaryOp) reconciler.Kind {
	switch op {
	case ast.OpLt:
		return reconciler.KindIsLessThan
	case ast.OpLte:
		return reconciler.KindIsLessThanOrEqual
	case ast.OpGt:
		return reconciler.KindIsGreaterThan
	default:
		return reconciler.KindIsGreaterThanOrEqual
	}
}

// flipIntCompareKind handles `5 < $x` meaning `$x > 5`: the comparison
// operator flips when the variable is on the right.
func flipIntCompareKind(op ast.BinaryOp) reconciler.Kind {
	switch op {
	case ast.OpLt:
		return reconciler.KindIsGreaterThan
	case ast.OpLte:
		return reconciler.KindIsGreaterThanOrEqual
	case ast.OpGt:
		return reconciler.KindIsLessThan
	default:
		return reconciler.KindIsLessThanOrEqual
	}
}

// functionCallClause recognizes the closed set of assertion-bearing
// builtin-style calls the language's standard predicates use.
func functionCallClause(call *ast.FunctionCallExpr) (Clause, bool) {
	if len(call.Arguments) == 0 {
		return Clause{}, false
	}
	v, isVar := call.Arguments[0].(*ast.Variable)
	switch call.Name {
	case "isset":
		if isVar {
			return Clause{Binding: v.Name, Assertion: reconciler.Assertion{Kind: reconciler.KindIsset}}, true
		}
	case "empty":
		if isVar {
			return Clause{Binding: v.Name, Assertion: reconciler.Assertion{Kind: reconciler.KindNonEmpty}, Negated: true}, true
		}
	case "is_int", "is_integer", "is_long":
		return typeCheckClause(v, isVar, lattice.TInteger{Domain: lattice.UnspecifiedInt()})
	case "is_string":
		return typeCheckClause(v, isVar, lattice.TString{})
	case "is_bool":
		return typeCheckClause(v, isVar, lattice.TBool{})
	case "is_float", "is_double":
		return typeCheckClause(v, isVar, lattice.TFloat{})
	case "is_array":
		return typeCheckClause(v, isVar, lattice.TList{})
	case "is_object":
		return typeCheckClause(v, isVar, lattice.TObjectAny{})
	case "is_callable":
		return typeCheckClause(v, isVar, lattice.TCallable{})
	case "array_key_exists":
		if len(call.Arguments) == 2 {
			keyLit, ok := call.Arguments[0].(*ast.Literal)
			arr, isArrVar := call.Arguments[1].(*ast.Variable)
			if ok && isArrVar && keyLit.Kind == ast.LiteralString {
				return Clause{Binding: arr.Name, Assertion: reconciler.Assertion{Kind: reconciler.KindHasArrayKey, Key: keyLit.StringValue}}, true
			}
		}
	case "method_exists":
		if len(call.Arguments) == 2 {
			if nameLit, ok := call.Arguments[1].(*ast.Literal); ok && isVar && nameLit.Kind == ast.LiteralString {
				return Clause{Binding: v.Name, Assertion: reconciler.Assertion{Kind: reconciler.KindHasMethod, Key: nameLit.StringValue}}, true
			}
		}
	case "property_exists":
		if len(call.Arguments) == 2 {
			if nameLit, ok := call.Arguments[1].(*ast.Literal); ok && isVar && nameLit.Kind == ast.LiteralString {
				return Clause{Binding: v.Name, Assertion: reconciler.Assertion{Kind: reconciler.KindHasProperty, Key: nameLit.StringValue}}, true
			}
		}
	}
	return Clause{}, false
}

func typeCheckClause(v *ast.Variable, isVar bool, atomic lattice.Atomic) (Clause, bool) {
	if !isVar {
		return Clause{}, false
	}
	return Clause{Binding: v.Name, Assertion: reconciler.Assertion{Kind: reconciler.KindIsType, Type: lattice.NewUnion(atomic)}}, true
}

// analyzeCondition analyzes a condition expression and returns the full
// clause set it asserts: the lexical clauses conditionClauses recovers from
// the expression's own shape, plus any if_true/if_false clauses a call
// inside it queued via analyzeCall.
func (a *Analyzer) analyzeCondition(cond ast.Expression, ctx *BlockContext) []Clause {
	a.pendingCallClauses = nil
	a.analyzeExpr(cond, ctx)
	clauses := append(conditionClauses(cond), a.pendingCallClauses...)
	a.pendingCallClauses = nil
	return clauses
}

// applyClauses narrows ctx's locals under clauses for one branch: positive
// applies Reconcile to non-negated clauses and Subtract to negated ones; the
// other branch (positive=false) applies the opposite, matching "for the
// else branch apply the negated clauses" from spec §4.4.
func (a *Analyzer) applyClauses(ctx *BlockContext, clauses []Clause, positive bool, span ast.Span) {
	for _, c := range clauses {
		u, ok := ctx.Get(c.Binding)
		if !ok {
			continue
		}
		applyPositive := c.Negated != positive
		key := reconciler.Key{Label: c.Binding, Span: span, Present: true}
		var narrowed *lattice.Union
		if applyPositive {
			narrowed = a.Reconciler.Reconcile(u, c.Assertion, key)
		} else {
			narrowed = a.Reconciler.Subtract(u, c.Assertion, key)
		}
		ctx.Set(c.Binding, narrowed)
	}
}
