package flowanalyzer

import (
	"github.com/sentra-analysis/sentra/internal/ast"
	"github.com/sentra-analysis/sentra/internal/diagnostics"
	"github.com/sentra-analysis/sentra/internal/lattice"
	"github.com/sentra-analysis/sentra/internal/populator"
	"github.com/sentra-analysis/sentra/internal/reconciler"
)

// Analyzer walks one file's function-like bodies against the populated
// codebase, the Analyze phase of spec §5's three-phase pipeline: workers
// hold an immutable reference to populated metadata and each owns its own
// artifacts map.
type Analyzer struct {
	Codebase   *populator.Codebase
	Collector  *diagnostics.Collector
	Reconciler *reconciler.Reconciler

	// Artifacts is the per-expression-span inferred union, populated as
	// analysis proceeds; the reporter/LSP layer reads it for hover/inlay
	// information.
	Artifacts map[ast.Span]*lattice.Union

	// returnType accumulates the join of every return statement's value
	// union seen so far in the current function-like body, read back by
	// callers that want the inferred (as opposed to declared) return type.
	returnType *lattice.Union

	// pendingCallClauses holds the if_true/if_false clauses a just-analyzed
	// call queued onto the caller's clause store (spec §4.4 step 5); a
	// condition wrapping that call consumes them via analyzeCondition.
	pendingCallClauses []Clause

	file ast.FileID
}

// New builds an Analyzer for one file against a populated codebase.
func New(cb *populator.Codebase, collector *diagnostics.Collector, file ast.FileID) *Analyzer {
	return &Analyzer{
		Codebase:   cb,
		Collector:  collector,
		Reconciler: reconciler.New(cb, collector),
		Artifacts:  map[ast.Span]*lattice.Union{},
		file:       file,
	}
}

// AnalyzeFunction walks a free function's body and returns the inferred
// (joined) return type.
func (a *Analyzer) AnalyzeFunction(decl *ast.FunctionDecl) *lattice.Union {
	if decl.Body == nil {
		return nil
	}
	meta := a.Codebase.Functions[decl.Name]
	ctx := NewBlockContext(ScopeInfo{})
	a.seedParameters(ctx, meta)
	a.returnType = nil
	a.analyzeBlock(decl.Body, ctx)
	return a.returnType
}

// AnalyzeMethod walks one method's body in the context of its declaring
// class-like and returns the inferred (joined) return type.
func (a *Analyzer) AnalyzeMethod(class string, decl *ast.MethodDecl) *lattice.Union {
	if decl.Body == nil {
		return nil
	}
	meta := a.Codebase.Functions[class+"::"+decl.Name]
	ctx := NewBlockContext(ScopeInfo{ClassName: class, StaticClass: class, IsStatic: decl.IsStatic})
	if !decl.IsStatic {
		ctx.Set("this", lattice.NewUnion(lattice.TObjectNamed{Name: class}))
	}
	a.seedParameters(ctx, meta)
	a.returnType = nil
	a.analyzeBlock(decl.Body, ctx)
	return a.returnType
}

func (a *Analyzer) seedParameters(ctx *BlockContext, meta *populator.FunctionLikeMetadata) {
	if meta == nil {
		return
	}
	for _, p := range meta.Parameters {
		t := p.Type
		if t == nil {
			t = lattice.Mixed()
		}
		ctx.Set(p.Name, t)
	}
}

// record stores the inferred union for an expression's span in Artifacts
// and returns it, so every analyze* helper can end with `return a.record(...)`.
func (a *Analyzer) record(span ast.Span, u *lattice.Union) *lattice.Union {
	a.Artifacts[span] = u
	return u
}

func (a *Analyzer) addIssue(span ast.Span, severity diagnostics.Severity, code diagnostics.Code, message string) {
	if a.Collector == nil {
		return
	}
	a.Collector.Add(diagnostics.New(severity, code, span, message))
}
