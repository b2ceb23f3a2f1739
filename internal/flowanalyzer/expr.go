package flowanalyzer

import (
	"github.com/sentra-analysis/sentra/internal/ast"
	"github.com/sentra-analysis/sentra/internal/diagnostics"
	"github.com/sentra-analysis/sentra/internal/lattice"
)

// analyzeExpr computes an expression's union and records it into Artifacts,
// dispatching by type switch in the teacher's inferExpr style rather than
// through ast.Visitor.
func (a *Analyzer) analyzeExpr(expr ast.Expression, ctx *BlockContext) *lattice.Union {
	switch e := expr.(type) {
	case *ast.Literal:
		return a.record(e.Span(), literalUnion(e))
	case *ast.Variable:
		return a.analyzeVariable(e, ctx)
	case *ast.BinaryExpr:
		return a.analyzeBinary(e, ctx)
	case *ast.UnaryExpr:
		return a.analyzeUnary(e, ctx)
	case *ast.AssignmentExpr:
		return a.analyzeAssignment(e, ctx)
	case *ast.ConditionalExpr:
		return a.analyzeConditional(e, ctx)
	case *ast.MethodCallExpr:
		return a.analyzeMethodCall(e, ctx)
	case *ast.StaticMethodCallExpr:
		return a.analyzeStaticMethodCall(e, ctx)
	case *ast.FunctionCallExpr:
		return a.analyzeFunctionCall(e, ctx)
	case *ast.PropertyAccessExpr:
		return a.analyzePropertyAccess(e, ctx)
	case *ast.ClassConstantAccessExpr:
		return a.record(e.Span(), lattice.Mixed())
	case *ast.ArrayLiteral:
		return a.analyzeArrayLiteral(e, ctx)
	case *ast.ArrayAccessExpr:
		return a.analyzeArrayAccess(e, ctx)
	case *ast.ArrayAppendExpr:
		a.analyzeExpr(e.Array, ctx)
		return a.record(e.Span(), lattice.Mixed())
	case *ast.InstantiationExpr:
		return a.analyzeInstantiation(e, ctx)
	case *ast.CloneExpr:
		return a.record(e.Span(), a.analyzeExpr(e.Operand, ctx))
	case *ast.ThrowExpr:
		thrown := a.analyzeExpr(e.Value, ctx)
		ctx.PossiblyThrown = append(ctx.PossiblyThrown, thrown)
		return a.record(e.Span(), lattice.NewUnion(lattice.TNever{}))
	case *ast.MatchExpr:
		return a.analyzeMatchExpr(e, ctx)
	case *ast.ClosureExpr:
		return a.analyzeClosure(e, ctx)
	case *ast.ArrowFunctionExpr:
		return a.analyzeArrowFunction(e, ctx)
	default:
		return lattice.Mixed()
	}
}

func literalUnion(l *ast.Literal) *lattice.Union {
	switch l.Kind {
	case ast.LiteralInt:
		return lattice.NewUnion(lattice.TInteger{Domain: lattice.LiteralInt(l.IntValue)})
	case ast.LiteralFloat:
		v := l.FloatValue
		return lattice.NewUnion(lattice.TFloat{Literal: &v})
	case ast.LiteralString:
		v := l.StringValue
		return lattice.NewUnion(lattice.TString{Props: lattice.StringProps{Literal: &v}})
	case ast.LiteralBool:
		v := l.BoolValue
		return lattice.NewUnion(lattice.TBool{Literal: &v})
	default:
		return lattice.Null()
	}
}

// analyzeVariable reads a binding, diagnosing an undefined read and, inside
// a conditional, setting the binding's ctx.ConditionallyReferenced flag. No
// code in this module reads that flag.
func (a *Analyzer) analyzeVariable(v *ast.Variable, ctx *BlockContext) *lattice.Union {
	u, ok := ctx.Get(v.Name)
	if !ok {
		if ctx.InsideLoop {
			u = lattice.NewUnion(lattice.TMixed{Props: lattice.MixedProps{IssetFromLoop: true}})
		} else {
			a.addIssue(v.Span(), diagnostics.SeverityError, diagnostics.CodeUndefinedVariable, "variable $"+v.Name+" is never defined")
			u = lattice.Mixed()
		}
		ctx.Set(v.Name, u)
	}
	if ctx.InsideConditional {
		ctx.ConditionallyReferenced[v.Name] = true
	}
	return a.record(v.Span(), u)
}

func (a *Analyzer) analyzeBinary(e *ast.BinaryExpr, ctx *BlockContext) *lattice.Union {
	switch e.Op {
	case ast.OpAnd:
		leftClauses := a.analyzeCondition(e.Left, ctx)
		right := ctx.Clone()
		a.applyClauses(right, leftClauses, true, e.Left.Span())
		a.analyzeExpr(e.Right, right)
		ctx.Locals = right.Locals
		return a.record(e.Span(), lattice.NewUnion(lattice.TBool{}))
	case ast.OpOr:
		leftClauses := a.analyzeCondition(e.Left, ctx)
		right := ctx.Clone()
		a.applyClauses(right, leftClauses, false, e.Left.Span())
		a.analyzeExpr(e.Right, right)
		return a.record(e.Span(), lattice.NewUnion(lattice.TBool{}))
	case ast.OpNullCoalesce:
		left := a.analyzeExpr(e.Left, ctx)
		right := a.analyzeExpr(e.Right, ctx)
		nonNull := left.Filter(func(at lattice.Atomic) bool {
			_, isNull := at.(lattice.TNull)
			return !isNull
		})
		return a.record(e.Span(), lattice.Join(nonNull, right))
	case ast.OpEq, ast.OpNotEq, ast.OpIdentical, ast.OpNotIdentical, ast.OpLt, ast.OpLte, ast.OpGt, ast.OpGte, ast.OpInstanceOf:
		a.analyzeExpr(e.Left, ctx)
		a.analyzeExpr(e.Right, ctx)
		return a.record(e.Span(), lattice.NewUnion(lattice.TBool{}))
	case ast.OpConcat:
		a.analyzeExpr(e.Left, ctx)
		a.analyzeExpr(e.Right, ctx)
		return a.record(e.Span(), lattice.StringAny())
	default:
		a.analyzeExpr(e.Left, ctx)
		a.analyzeExpr(e.Right, ctx)
		return a.record(e.Span(), lattice.NewUnion(lattice.TInteger{Domain: lattice.UnspecifiedInt()}, lattice.TFloat{}))
	}
}

func (a *Analyzer) analyzeUnary(e *ast.UnaryExpr, ctx *BlockContext) *lattice.Union {
	operand := a.analyzeExpr(e.Operand, ctx)
	switch e.Op {
	case ast.OpNot:
		return a.record(e.Span(), lattice.NewUnion(lattice.TBool{}))
	case ast.OpNegate:
		return a.record(e.Span(), operand)
	case ast.OpSuppress:
		return a.record(e.Span(), operand)
	default:
		if v, ok := e.Operand.(*ast.Variable); ok {
			ctx.Set(v.Name, operand)
		}
		return a.record(e.Span(), operand)
	}
}

func (a *Analyzer) analyzeConditional(e *ast.ConditionalExpr, ctx *BlockContext) *lattice.Union {
	clauses := a.analyzeCondition(e.Condition, ctx)

	thenCtx := ctx.Clone()
	a.applyClauses(thenCtx, clauses, true, e.Condition.Span())
	var thenUnion *lattice.Union
	if e.Then != nil {
		thenUnion = a.analyzeExpr(e.Then, thenCtx)
	} else {
		thenUnion = a.analyzeExpr(e.Condition, thenCtx)
	}

	elseCtx := ctx.Clone()
	a.applyClauses(elseCtx, clauses, false, e.Condition.Span())
	elseUnion := a.analyzeExpr(e.Else, elseCtx)

	thenCtx.JoinInto(elseCtx)
	ctx.Locals = elseCtx.Locals
	return a.record(e.Span(), lattice.Join(thenUnion, elseUnion))
}

func (a *Analyzer) analyzeAssignment(e *ast.AssignmentExpr, ctx *BlockContext) *lattice.Union {
	value := a.analyzeExpr(e.Value, ctx)
	switch target := e.Left.(type) {
	case *ast.Variable:
		if hasVanillaMixed(value) {
			a.addIssue(e.Span(), diagnostics.SeverityWarning, diagnostics.CodeMixedAssignment, "assigning mixed value to $"+target.Name)
		}
		ctx.Set(target.Name, value)
		ctx.AssignedVariables[target.Name] = e.Span()
	case *ast.PropertyAccessExpr:
		a.analyzeExpr(target.Object, ctx)
	case *ast.ArrayAccessExpr:
		a.analyzeExpr(target.Array, ctx)
		if target.Index != nil {
			a.analyzeExpr(target.Index, ctx)
		}
	case *ast.ArrayAppendExpr:
		a.analyzeExpr(target.Array, ctx)
	}
	return a.record(e.Span(), value)
}

// hasVanillaMixed reports whether u carries a genuinely mixed-typed atomic
// (see lattice.MixedProps.Vanilla), the condition that should surface as a
// mixed-assignment diagnostic rather than staying silent.
func hasVanillaMixed(u *lattice.Union) bool {
	for _, at := range u.Atomics {
		if m, ok := at.(lattice.TMixed); ok && m.Props.Vanilla {
			return true
		}
	}
	return false
}

func (a *Analyzer) analyzePropertyAccess(e *ast.PropertyAccessExpr, ctx *BlockContext) *lattice.Union {
	obj := a.analyzeExpr(e.Object, ctx)
	name, named := selectorName(e.Selector)
	if !named {
		return a.record(e.Span(), lattice.Mixed())
	}
	result := lattice.NewUnion(lattice.TNever{})
	sawNull := false
	for _, at := range obj.Atomics {
		switch v := at.(type) {
		case lattice.TNull:
			sawNull = true
			if !e.Nullsafe {
				a.addIssue(e.Span(), diagnostics.SeverityError, diagnostics.CodePossibleMethodAccessOnNull, "property access on possibly null value")
			}
		case lattice.TMixed:
			a.addIssue(e.Span(), diagnostics.SeverityWarning, diagnostics.CodeMixedAnyMethodAccess, "property access on mixed value")
			result = lattice.Join(result, lattice.Mixed())
		case lattice.TObjectNamed:
			prop, found := a.resolveIntersectionProperty(v, name)
			if !found {
				a.addIssue(e.Span(), diagnostics.SeverityError, diagnostics.CodeUndefinedProperty, "undefined property "+v.Name+"::$"+name)
				result = lattice.Join(result, lattice.Mixed())
			} else if prop != nil {
				result = lattice.Join(result, prop)
			} else {
				result = lattice.Join(result, lattice.Mixed())
			}
		default:
			a.addIssue(e.Span(), diagnostics.SeverityError, diagnostics.CodeInvalidMethodAccess, "property access on a value that cannot have properties")
			result = lattice.Join(result, lattice.Mixed())
		}
	}
	if sawNull && e.Nullsafe {
		result = lattice.Join(result, lattice.Null())
	}
	return a.record(e.Span(), result)
}

func (a *Analyzer) lookupProperty(class, name string) *lattice.Union {
	meta, ok := a.Codebase.ClassLikes[class]
	if !ok {
		return nil
	}
	if p, ok := meta.Properties[name]; ok {
		return p.Type
	}
	return nil
}

// resolveIntersectionProperty mirrors resolveIntersectionMethod for property
// lookups: try v's own class, then each intersection component, treating a
// matching structural TObjectHasProperty as resolved with no known type.
func (a *Analyzer) resolveIntersectionProperty(v lattice.TObjectNamed, name string) (*lattice.Union, bool) {
	if prop := a.lookupProperty(v.Name, name); prop != nil {
		return prop, true
	}
	for _, in := range v.Intersections {
		switch c := in.(type) {
		case lattice.TObjectNamed:
			if prop, ok := a.resolveIntersectionProperty(c, name); ok {
				return prop, true
			}
		case lattice.TObjectHasProperty:
			if c.Name == name {
				return nil, true
			}
		}
	}
	return nil, false
}

func selectorName(sel ast.MemberSelector) (string, bool) {
	if id, ok := sel.(*ast.IdentifierSelector); ok {
		return id.Name, true
	}
	return "", false
}

func (a *Analyzer) analyzeArrayLiteral(e *ast.ArrayLiteral, ctx *BlockContext) *lattice.Union {
	items := map[lattice.ArrayKey]lattice.KnownItem{}
	nextInt := int64(0)
	for _, entry := range e.Entries {
		v := a.analyzeExpr(entry.Value, ctx)
		if entry.Key == nil {
			items[lattice.ArrayKey{IntKey: nextInt}] = lattice.KnownItem{Value: v}
			nextInt++
			continue
		}
		k := a.analyzeExpr(entry.Key, ctx)
		_ = k
		if lit, ok := entry.Key.(*ast.Literal); ok {
			switch lit.Kind {
			case ast.LiteralInt:
				items[lattice.ArrayKey{IntKey: lit.IntValue}] = lattice.KnownItem{Value: v}
			case ast.LiteralString:
				items[lattice.ArrayKey{IsString: true, StrKey: lit.StringValue}] = lattice.KnownItem{Value: v}
			}
		}
	}
	return a.record(e.Span(), lattice.NewUnion(lattice.TKeyed{KnownItems: items, NonEmpty: len(items) > 0}))
}

func (a *Analyzer) analyzeArrayAccess(e *ast.ArrayAccessExpr, ctx *BlockContext) *lattice.Union {
	arr := a.analyzeExpr(e.Array, ctx)
	a.analyzeExpr(e.Index, ctx)
	result := lattice.NewUnion(lattice.TNever{})
	for _, at := range arr.Atomics {
		switch v := at.(type) {
		case lattice.TList:
			if v.Element != nil {
				result = lattice.Join(result, v.Element)
			} else {
				result = lattice.Join(result, lattice.Mixed())
			}
		case lattice.TKeyed:
			if lit, ok := e.Index.(*ast.Literal); ok {
				key := keyFromLiteral(lit)
				if item, ok := v.KnownItems[key]; ok {
					result = lattice.Join(result, item.Value)
					continue
				}
			}
			if v.ParamValue != nil {
				result = lattice.Join(result, v.ParamValue)
			} else {
				result = lattice.Join(result, lattice.Mixed())
			}
		default:
			result = lattice.Join(result, lattice.Mixed())
		}
	}
	return a.record(e.Span(), result)
}

func keyFromLiteral(lit *ast.Literal) lattice.ArrayKey {
	if lit.Kind == ast.LiteralString {
		return lattice.ArrayKey{IsString: true, StrKey: lit.StringValue}
	}
	return lattice.ArrayKey{IntKey: lit.IntValue}
}

func (a *Analyzer) analyzeInstantiation(e *ast.InstantiationExpr, ctx *BlockContext) *lattice.Union {
	for _, arg := range e.Arguments {
		a.analyzeExpr(arg, ctx)
	}
	class := e.ClassName
	if class == "static" {
		class = ctx.Scope.StaticClass
	}
	return a.record(e.Span(), lattice.NewUnion(lattice.TObjectNamed{Name: class}))
}

func (a *Analyzer) analyzeMatchExpr(e *ast.MatchExpr, ctx *BlockContext) *lattice.Union {
	a.analyzeExpr(e.Subject, ctx)
	result := lattice.NewUnion(lattice.TNever{})
	for _, arm := range e.Arms {
		armCtx := ctx.Clone()
		if arm.Guard != nil {
			a.analyzeExpr(arm.Guard, armCtx)
		}
		result = lattice.Join(result, a.analyzeExpr(arm.Result, armCtx))
	}
	return a.record(e.Span(), result)
}

func (a *Analyzer) analyzeClosure(e *ast.ClosureExpr, ctx *BlockContext) *lattice.Union {
	closureCtx := NewBlockContext(ctx.Scope)
	for _, u := range e.Uses {
		if v, ok := ctx.Get(u.Name); ok {
			closureCtx.Set(u.Name, v)
		}
	}
	for _, u := range e.UsesByRef {
		if v, ok := ctx.Get(u.Name); ok {
			closureCtx.Set(u.Name, v)
		}
	}
	for _, p := range e.Parameters {
		closureCtx.Set(p.Name, paramType(p))
	}
	a.analyzeBlock(e.Body, closureCtx)
	for _, u := range e.UsesByRef {
		if v, ok := closureCtx.Get(u.Name); ok {
			ctx.Set(u.Name, v)
		}
	}
	return a.record(e.Span(), lattice.NewUnion(lattice.TCallable{}))
}

func (a *Analyzer) analyzeArrowFunction(e *ast.ArrowFunctionExpr, ctx *BlockContext) *lattice.Union {
	bodyCtx := ctx.Clone()
	for _, p := range e.Parameters {
		bodyCtx.Set(p.Name, paramType(p))
	}
	a.analyzeExpr(e.Body, bodyCtx)
	return a.record(e.Span(), lattice.NewUnion(lattice.TCallable{}))
}

func paramType(p *ast.Parameter) *lattice.Union {
	if p.DeclaredType == nil {
		return lattice.Mixed()
	}
	return lattice.BuildFromTypeNode(p.DeclaredType, noTemplates)
}

func noTemplates(string) (lattice.TGenericParameter, bool) { return lattice.TGenericParameter{}, false }
