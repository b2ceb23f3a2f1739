package flowanalyzer

import (
	"github.com/sentra-analysis/sentra/internal/ast"
	"github.com/sentra-analysis/sentra/internal/lattice"
	"github.com/sentra-analysis/sentra/internal/reconciler"
)

// analyzeBlock walks a block's statements sequentially, threading ctx.
func (a *Analyzer) analyzeBlock(block *ast.BlockStatement, ctx *BlockContext) {
	if block == nil {
		return
	}
	for _, stmt := range block.Statements {
		a.analyzeStmt(stmt, ctx)
	}
}

func (a *Analyzer) analyzeStmt(stmt ast.Statement, ctx *BlockContext) {
	switch s := stmt.(type) {
	case *ast.BlockStatement:
		a.analyzeBlock(s, ctx)
	case *ast.IfStatement:
		a.analyzeIf(s, ctx)
	case *ast.SwitchStatement:
		a.analyzeSwitch(s, ctx)
	case *ast.MatchStatement:
		a.analyzeMatchStatement(s, ctx)
	case *ast.WhileStatement:
		a.analyzeWhile(s, ctx)
	case *ast.DoWhileStatement:
		a.analyzeDoWhile(s, ctx)
	case *ast.ForStatement:
		a.analyzeFor(s, ctx)
	case *ast.ForeachStatement:
		a.analyzeForeach(s, ctx)
	case *ast.TryStatement:
		a.analyzeTry(s, ctx)
	case *ast.ReturnStatement:
		if s.Value != nil {
			ret := a.analyzeExpr(s.Value, ctx)
			a.returnType = joinOptional(a.returnType, ret)
		} else {
			a.returnType = joinOptional(a.returnType, lattice.NewUnion(lattice.TVoid{}))
		}
	case *ast.ThrowStatement:
		thrown := a.analyzeExpr(s.Value, ctx)
		ctx.PossiblyThrown = append(ctx.PossiblyThrown, thrown)
	case *ast.BreakStatement, *ast.ContinueStatement:
		// No reachability narrowing is attempted past a break/continue: the
		// loop fixpoint already bounds iteration count, and early-exit
		// targets don't change any binding's type.
	case *ast.GlobalStatement:
		for _, v := range s.Vars {
			ctx.Set(v.Name, lattice.Mixed())
		}
	case *ast.StaticStatement:
		a.analyzeStatic(s, ctx)
	case *ast.EchoStatement:
		for _, v := range s.Values {
			a.analyzeExpr(v, ctx)
		}
	case *ast.ExpressionStatement:
		a.analyzeExpr(s.Expression, ctx)
	case *ast.FunctionDecl, *ast.ClassLikeDecl, *ast.PropertyDecl, *ast.MethodDecl:
		// Nested declarations are scanned by the populator, not the flow
		// analyzer; encountering one mid-body is a no-op here.
	}
}

func joinOptional(existing, next *lattice.Union) *lattice.Union {
	if existing == nil {
		return next
	}
	return lattice.Join(existing, next)
}

func (a *Analyzer) analyzeIf(s *ast.IfStatement, ctx *BlockContext) {
	clauses := a.analyzeCondition(s.Condition, ctx)

	thenCtx := ctx.Clone()
	thenCtx.InsideConditional = true
	a.applyClauses(thenCtx, clauses, true, s.Condition.Span())
	a.analyzeBlock(s.Consequence, thenCtx)

	elseCtx := ctx.Clone()
	elseCtx.InsideConditional = true
	a.applyClauses(elseCtx, clauses, false, s.Condition.Span())
	if s.Alternative != nil {
		a.analyzeStmt(s.Alternative, elseCtx)
	}

	thenCtx.JoinInto(elseCtx)
	ctx.Locals = thenCtx.Locals
	ctx.MergeClauses(thenCtx)
	ctx.MergeClauses(elseCtx)
}

func (a *Analyzer) analyzeSwitch(s *ast.SwitchStatement, ctx *BlockContext) {
	a.analyzeExpr(s.Subject, ctx)
	var joined *BlockContext
	for _, c := range s.Cases {
		caseCtx := ctx.Clone()
		for _, v := range c.Values {
			a.analyzeExpr(v, caseCtx)
		}
		for _, st := range c.Statements {
			a.analyzeStmt(st, caseCtx)
		}
		if joined == nil {
			joined = caseCtx
		} else {
			joined.JoinInto(caseCtx)
		}
	}
	if joined != nil {
		ctx.Locals = joined.Locals
	}
}

func (a *Analyzer) analyzeMatchStatement(s *ast.MatchStatement, ctx *BlockContext) {
	subjectVar, isVar := s.Subject.(*ast.Variable)
	a.analyzeExpr(s.Subject, ctx)
	var joined *BlockContext
	for _, arm := range s.Arms {
		armCtx := ctx.Clone()
		if isVar && !arm.Default && len(arm.Patterns) > 0 {
			pattern := patternsUnion(arm.Patterns)
			if existing, ok := armCtx.Get(subjectVar.Name); ok {
				narrowed := a.Reconciler.Reconcile(existing, reconciler.Assertion{Kind: reconciler.KindIsType, Type: pattern},
					reconciler.Key{Label: subjectVar.Name, Span: s.Subject.Span(), Present: true})
				armCtx.Set(subjectVar.Name, narrowed)
			}
		}
		if arm.Guard != nil {
			a.analyzeExpr(arm.Guard, armCtx)
		}
		a.analyzeStmt(arm.Body, armCtx)
		if joined == nil {
			joined = armCtx
		} else {
			joined.JoinInto(armCtx)
		}
	}
	if joined != nil {
		ctx.Locals = joined.Locals
	}
}

func patternsUnion(patterns []ast.TypeNode) *lattice.Union {
	result := lattice.NewUnion(lattice.TNever{})
	for _, p := range patterns {
		result = lattice.Join(result, lattice.BuildFromTypeNode(p, noTemplates))
	}
	return result
}

func (a *Analyzer) analyzeWhile(s *ast.WhileStatement, ctx *BlockContext) {
	base := ctx.Clone()
	base.InsideLoop = true
	current := base
	for i := 0; i < 3; i++ {
		iterCtx := current.Clone()
		clauses := a.analyzeCondition(s.Condition, iterCtx)
		a.applyClauses(iterCtx, clauses, true, s.Condition.Span())
		a.analyzeBlock(s.Body, iterCtx)

		next := base.Clone()
		next.JoinInto(iterCtx)
		converged := i > 0 && localsEqual(next, current)
		current = next
		if converged {
			break
		}
	}
	ctx.Locals = current.Locals
}

func (a *Analyzer) analyzeDoWhile(s *ast.DoWhileStatement, ctx *BlockContext) {
	base := ctx.Clone()
	base.InsideLoop = true
	current := base
	for i := 0; i < 3; i++ {
		iterCtx := current.Clone()
		a.analyzeBlock(s.Body, iterCtx)
		a.analyzeExpr(s.Condition, iterCtx)

		next := base.Clone()
		next.JoinInto(iterCtx)
		converged := i > 0 && localsEqual(next, current)
		current = next
		if converged {
			break
		}
	}
	ctx.Locals = current.Locals
}

func (a *Analyzer) analyzeFor(s *ast.ForStatement, ctx *BlockContext) {
	for _, init := range s.Initializer {
		a.analyzeStmt(init, ctx)
	}
	base := ctx.Clone()
	base.InsideLoop = true
	current := base
	for i := 0; i < 3; i++ {
		iterCtx := current.Clone()
		if s.Condition != nil {
			a.analyzeExpr(s.Condition, iterCtx)
		}
		a.analyzeBlock(s.Body, iterCtx)
		for _, u := range s.Update {
			a.analyzeExpr(u, iterCtx)
		}

		next := base.Clone()
		next.JoinInto(iterCtx)
		converged := i > 0 && localsEqual(next, current)
		current = next
		if converged {
			break
		}
	}
	ctx.Locals = current.Locals
}

func (a *Analyzer) analyzeForeach(s *ast.ForeachStatement, ctx *BlockContext) {
	iterable := a.analyzeExpr(s.Iterable, ctx)
	valueType := elementType(iterable)
	keyType := lattice.NewUnion(lattice.TInteger{Domain: lattice.UnspecifiedInt()}, lattice.TString{})

	base := ctx.Clone()
	base.InsideLoop = true
	if s.KeyVar != nil {
		base.Set(s.KeyVar.Name, keyType)
	}
	base.Set(s.ValueVar.Name, valueType)

	current := base
	for i := 0; i < 3; i++ {
		iterCtx := current.Clone()
		a.analyzeBlock(s.Body, iterCtx)

		next := base.Clone()
		next.JoinInto(iterCtx)
		converged := i > 0 && localsEqual(next, current)
		current = next
		if converged {
			break
		}
	}
	ctx.Locals = current.Locals
}

func elementType(u *lattice.Union) *lattice.Union {
	result := lattice.NewUnion(lattice.TNever{})
	for _, at := range u.Atomics {
		switch v := at.(type) {
		case lattice.TList:
			if v.Element != nil {
				result = lattice.Join(result, v.Element)
			} else {
				result = lattice.Join(result, lattice.Mixed())
			}
		case lattice.TKeyed:
			if v.ParamValue != nil {
				result = lattice.Join(result, v.ParamValue)
			} else {
				result = lattice.Join(result, lattice.Mixed())
			}
		default:
			result = lattice.Join(result, lattice.Mixed())
		}
	}
	if result.IsNever() {
		return lattice.Mixed()
	}
	return result
}

func (a *Analyzer) analyzeTry(s *ast.TryStatement, ctx *BlockContext) {
	tryCtx := ctx.Clone()
	a.analyzeBlock(s.Try, tryCtx)

	var joined *BlockContext
	if len(s.Catches) == 0 {
		joined = tryCtx
	}
	for _, c := range s.Catches {
		catchCtx := ctx.Clone()
		caught := patternsUnion(c.CaughtTypes)
		if c.Variable != nil {
			catchCtx.Set(c.Variable.Name, caught)
		}
		a.analyzeBlock(c.Body, catchCtx)
		if joined == nil {
			joined = catchCtx
		} else {
			joined.JoinInto(catchCtx)
		}
	}
	if joined == nil {
		joined = tryCtx
	} else if len(s.Catches) > 0 {
		joined.JoinInto(tryCtx)
	}

	if s.Finally != nil {
		trySuccess := tryCtx.Clone()
		a.analyzeBlock(s.Finally, trySuccess)
		anyCatch := joined.Clone()
		a.analyzeBlock(s.Finally, anyCatch)
		joined = anyCatch
	}

	ctx.Locals = joined.Locals
}

func (a *Analyzer) analyzeStatic(s *ast.StaticStatement, ctx *BlockContext) {
	if existing, ok := ctx.StaticLocals[s.Var.Name]; ok {
		ctx.Set(s.Var.Name, existing)
		return
	}
	var t *lattice.Union
	if s.Initial != nil {
		t = a.analyzeExpr(s.Initial, ctx)
	} else {
		t = lattice.Null()
	}
	ctx.StaticLocals[s.Var.Name] = t
	ctx.Set(s.Var.Name, t)
}

func localsEqual(a, b *BlockContext) bool {
	if len(a.Locals) != len(b.Locals) {
		return false
	}
	for k, v := range a.Locals {
		ov, ok := b.Locals[k]
		if !ok || v.String() != ov.String() {
			return false
		}
	}
	return true
}
