package flowanalyzer

import (
	"github.com/sentra-analysis/sentra/internal/ast"
	"github.com/sentra-analysis/sentra/internal/diagnostics"
	"github.com/sentra-analysis/sentra/internal/lattice"
	"github.com/sentra-analysis/sentra/internal/populator"
	"github.com/sentra-analysis/sentra/internal/reconciler"
)

// analyzeFunctionCall implements the six-step call resolution algorithm for
// a free function call: resolve target, analyze arguments against the
// declared parameter types (rebinding by-ref outs), fetch the return type,
// and queue any if_true/if_false assertions onto the caller's clause store.
func (a *Analyzer) analyzeFunctionCall(e *ast.FunctionCallExpr, ctx *BlockContext) *lattice.Union {
	if e.Name == "" {
		a.analyzeExpr(e.Callee, ctx)
		for _, arg := range e.Arguments {
			a.analyzeExpr(arg, ctx)
		}
		return a.record(e.Span(), lattice.Mixed())
	}
	meta := a.Codebase.Functions[e.Name]
	return a.record(e.Span(), a.analyzeCall(meta, e.Arguments, e.Span(), ctx))
}

// analyzeMethodCall resolves a `$obj->method(...)` call against every
// atomic of the receiver's union, per spec §4.4 step 1's per-atomic-variant
// target resolution.
func (a *Analyzer) analyzeMethodCall(e *ast.MethodCallExpr, ctx *BlockContext) *lattice.Union {
	recv := a.analyzeExpr(e.Object, ctx)
	name, named := selectorName(e.Selector)
	if !named {
		for _, arg := range e.Arguments {
			a.analyzeExpr(arg, ctx)
		}
		return a.record(e.Span(), lattice.Mixed())
	}

	result := lattice.NewUnion(lattice.TNever{})
	sawNullsafeNull := false
	anyTarget := false
	for _, at := range recv.Atomics {
		switch v := at.(type) {
		case lattice.TNull:
			if e.Nullsafe {
				sawNullsafeNull = true
			} else {
				a.addIssue(e.Span(), diagnostics.SeverityError, diagnostics.CodePossibleMethodAccessOnNull, "method call on possibly null value")
			}
		case lattice.TMixed:
			if v.Props.Vanilla {
				a.addIssue(e.Span(), diagnostics.SeverityWarning, diagnostics.CodeMixedMethodAccess, "method call on mixed value")
			} else {
				a.addIssue(e.Span(), diagnostics.SeverityWarning, diagnostics.CodeMixedAnyMethodAccess, "method call on mixed value")
			}
			result = lattice.Join(result, lattice.Mixed())
			anyTarget = true
		case lattice.TObjectAny:
			a.addIssue(e.Span(), diagnostics.SeverityWarning, diagnostics.CodeAmbiguousObjectMethodAccess, "method call on an unnamed object type")
			result = lattice.Join(result, lattice.Mixed())
			anyTarget = true
		case lattice.TObjectNamed:
			meta, found := a.resolveIntersectionMethod(v, name)
			if !found {
				a.addIssue(e.Span(), diagnostics.SeverityError, diagnostics.CodeUndefinedMethod, "undefined method "+v.Name+"::"+name)
				result = lattice.Join(result, lattice.Mixed())
			} else {
				anyTarget = true
				result = lattice.Join(result, a.analyzeCall(meta, e.Arguments, e.Span(), ctx))
			}
		case lattice.TGenericParameter:
			if v.Constraint != nil {
				for _, catom := range v.Constraint.Atomics {
					if objNamed, ok := catom.(lattice.TObjectNamed); ok {
						if meta := a.resolveMethod(objNamed.Name, name); meta != nil {
							anyTarget = true
							result = lattice.Join(result, a.analyzeCall(meta, e.Arguments, e.Span(), ctx))
						}
					}
				}
			}
		default:
			a.addIssue(e.Span(), diagnostics.SeverityError, diagnostics.CodeInvalidMethodAccess, "method call on a value that cannot have methods")
			result = lattice.Join(result, lattice.Mixed())
		}
	}
	if !anyTarget {
		for _, arg := range e.Arguments {
			a.analyzeExpr(arg, ctx)
		}
	}
	if sawNullsafeNull {
		result = lattice.Join(result, lattice.Null())
	}
	if result.IsNever() {
		result = lattice.Mixed()
	}
	return a.record(e.Span(), result)
}

func (a *Analyzer) analyzeStaticMethodCall(e *ast.StaticMethodCallExpr, ctx *BlockContext) *lattice.Union {
	class := e.ClassName
	switch class {
	case "self", "static":
		class = ctx.Scope.StaticClass
	case "parent":
		if meta, ok := a.Codebase.ClassLikes[ctx.Scope.ClassName]; ok {
			class = meta.DirectParentClass
		}
	}
	name, named := selectorName(e.Selector)
	if !named {
		for _, arg := range e.Arguments {
			a.analyzeExpr(arg, ctx)
		}
		return a.record(e.Span(), lattice.Mixed())
	}
	meta := a.resolveMethod(class, name)
	if meta == nil {
		a.addIssue(e.Span(), diagnostics.SeverityError, diagnostics.CodeUndefinedMethod, "undefined method "+class+"::"+name)
		for _, arg := range e.Arguments {
			a.analyzeExpr(arg, ctx)
		}
		return a.record(e.Span(), lattice.Mixed())
	}
	return a.record(e.Span(), a.analyzeCall(meta, e.Arguments, e.Span(), ctx))
}

func (a *Analyzer) resolveMethod(class, method string) *populator.FunctionLikeMetadata {
	meta, ok := a.Codebase.ClassLikes[class]
	if !ok {
		return nil
	}
	id, ok := meta.DeclaringMethodIDs[method]
	if !ok {
		return nil
	}
	return a.Codebase.Functions[id.Class+"::"+id.Method]
}

// resolveIntersectionMethod resolves a method against an intersection
// receiver's primary class and, failing that, against every component in
// v.Intersections, per §4.4 step 1 ("intersection atomics resolve against
// each component"). A match on a structural TObjectHasMethod component
// (produced by narrowing a method_exists assertion) counts as resolved with
// no metadata of its own, the same as analyzeCall's nil-meta fallback.
func (a *Analyzer) resolveIntersectionMethod(v lattice.TObjectNamed, method string) (*populator.FunctionLikeMetadata, bool) {
	if meta := a.resolveMethod(v.Name, method); meta != nil {
		return meta, true
	}
	for _, in := range v.Intersections {
		switch c := in.(type) {
		case lattice.TObjectNamed:
			if meta, ok := a.resolveIntersectionMethod(c, method); ok {
				return meta, true
			}
		case lattice.TObjectHasMethod:
			if c.Name == method {
				return nil, true
			}
		}
	}
	return nil, false
}

// analyzeCall runs argument analysis, by-ref rebinding, assertion queuing,
// and post-invocation effects against an already-resolved callee. meta may
// be nil (unresolved callee), in which case arguments are still analyzed
// for their own diagnostics but the call falls back to Mixed.
func (a *Analyzer) analyzeCall(meta *populator.FunctionLikeMetadata, args []ast.Expression, span ast.Span, ctx *BlockContext) *lattice.Union {
	a.pendingCallClauses = nil
	if meta == nil {
		for _, arg := range args {
			a.analyzeExpr(arg, ctx)
		}
		return lattice.Mixed()
	}

	for i, arg := range args {
		argType := a.analyzeExpr(arg, ctx)
		if i >= len(meta.Parameters) {
			continue
		}
		param := meta.Parameters[i]
		if param.Type != nil {
			if _, ok := lattice.Intersect(argType, param.Type, a.Codebase); !ok {
				a.addIssue(arg.Span(), diagnostics.SeverityError, diagnostics.CodeInvalidArgument,
					"argument type "+argType.String()+" is incompatible with declared parameter type "+param.Type.String())
			}
		}
		if param.IsByRef {
			if v, ok := arg.(*ast.Variable); ok {
				out := param.OutType
				if out == nil {
					out = param.Type
				}
				if out != nil {
					ctx.Set(v.Name, out)
				}
			}
		}
	}

	for _, thrown := range meta.ThrownTypes {
		ctx.PossiblyThrown = append(ctx.PossiblyThrown, thrown)
	}

	for _, pa := range meta.Assertions {
		idx := paramIndex(meta, pa.ParamName)
		if idx < 0 || idx >= len(args) {
			continue
		}
		v, ok := args[idx].(*ast.Variable)
		if !ok {
			continue
		}
		assertion, ok := assertionFromKind(pa)
		if !ok {
			continue
		}
		a.pendingCallClauses = append(a.pendingCallClauses, Clause{
			Binding:   v.Name,
			Assertion: assertion,
			Negated:   !pa.OnTrue,
		})
	}

	if meta.ReturnType == nil {
		return lattice.Mixed()
	}
	return meta.ReturnType
}

func paramIndex(meta *populator.FunctionLikeMetadata, name string) int {
	for i, p := range meta.Parameters {
		if p.Name == name {
			return i
		}
	}
	return -1
}

// assertionFromKind translates the populator's open-ended assertion-kind
// string (mirroring ast.Assertion.Kind) into the reconciler's closed
// vocabulary; an unrecognized kind is dropped rather than guessed at.
func assertionFromKind(pa *populator.ParamAssertion) (reconciler.Assertion, bool) {
	switch pa.Kind {
	case "is-type":
		if pa.Type == nil {
			return reconciler.Assertion{}, false
		}
		return reconciler.Assertion{Kind: reconciler.KindIsType, Type: pa.Type}, true
	case "non-null":
		return reconciler.Assertion{Kind: reconciler.KindIsset}, true
	case "non-empty":
		return reconciler.Assertion{Kind: reconciler.KindNonEmpty}, true
	case "truthy":
		return reconciler.Assertion{Kind: reconciler.KindTruthy}, true
	default:
		return reconciler.Assertion{}, false
	}
}
