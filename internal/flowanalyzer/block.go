// Package flowanalyzer implements the flow analyzer (component D): the
// per-function-body abstract interpreter that walks statements sequentially,
// threading a BlockContext, narrowing bindings through the reconciler at
// branch points, and recording each expression's inferred union into an
// artifacts map keyed by source span.
//
// Grounded on the teacher's internal/analyzer (funvibe/funxy): a `walker`
// struct carrying mutable pass-wide state (current file, loop depth, a
// type map keyed by AST node) plus free-function inference helpers
// (inferExpr/inferIfExpression/...) dispatching via type switch rather than
// the ast.Visitor interface — the same texture this package follows, since
// the teacher's own inference passes never use its Visitor for control
// flow, only for simpler bulk-registration passes.
package flowanalyzer

import (
	"github.com/sentra-analysis/sentra/internal/ast"
	"github.com/sentra-analysis/sentra/internal/lattice"
	"github.com/sentra-analysis/sentra/internal/reconciler"
)

// BindingID names a local variable slot; the analyzed language's variables
// are dynamically scoped strings, so the string itself is the id (no atom
// interner, matching the populator's MethodID/Codebase string-keyed maps).
type BindingID = string

// Clause is one CNF disjunct of the refinement clause store: "binding
// satisfies assertion, under the key that produced it". conditionClauses
// collects both operands' clauses through &&; || and ?? contribute no
// clauses. Clauses drive the positive/negative narrowing of subsequent
// branches and loop back-edges (spec §4.4, "Branching").
type Clause struct {
	Binding   BindingID
	Assertion reconciler.Assertion
	Negated   bool
}

// ScopeInfo carries the current class-like context used to resolve self/
// static/parent and imported aliases.
type ScopeInfo struct {
	ClassName    string // "" outside a method body
	StaticClass  string // late static binding target; defaults to ClassName
	IsStatic     bool
}

// BlockContext is the Environment of spec §3: locals plus the clause store
// plus the scope flags that change the meaning of assertions inside it
// (loop body, conditional, mutation-free).
type BlockContext struct {
	Locals  map[BindingID]*lattice.Union
	Clauses []Clause

	AssignedVariables        map[BindingID]ast.Span
	ConditionallyReferenced   map[BindingID]bool

	InsideConditional bool
	InsideGeneralUse  bool
	InsideLoop        bool
	IsMutationFree    bool

	StaticLocals map[BindingID]*lattice.Union

	// PossiblyThrown is the stack of types a try block may have thrown so
	// far, consulted when entering catch clauses.
	PossiblyThrown []*lattice.Union

	Scope ScopeInfo
}

// NewBlockContext builds the entering environment for a function-like body.
func NewBlockContext(scope ScopeInfo) *BlockContext {
	return &BlockContext{
		Locals:                  map[BindingID]*lattice.Union{},
		AssignedVariables:       map[BindingID]ast.Span{},
		ConditionallyReferenced: map[BindingID]bool{},
		StaticLocals:            map[BindingID]*lattice.Union{},
		Scope:                   scope,
	}
}

// Clone produces an independent copy safe to diverge at a branch point;
// Locals/StaticLocals get fresh maps (shallow: the *Union values themselves
// are immutable and shared), matching spec §3's "cloning is shallow where
// possible."
func (b *BlockContext) Clone() *BlockContext {
	c := &BlockContext{
		Locals:                  make(map[BindingID]*lattice.Union, len(b.Locals)),
		AssignedVariables:       make(map[BindingID]ast.Span, len(b.AssignedVariables)),
		ConditionallyReferenced: make(map[BindingID]bool, len(b.ConditionallyReferenced)),
		StaticLocals:            make(map[BindingID]*lattice.Union, len(b.StaticLocals)),
		Clauses:                 append([]Clause(nil), b.Clauses...),
		InsideConditional:       b.InsideConditional,
		InsideGeneralUse:        b.InsideGeneralUse,
		InsideLoop:              b.InsideLoop,
		IsMutationFree:          b.IsMutationFree,
		PossiblyThrown:          append([]*lattice.Union(nil), b.PossiblyThrown...),
		Scope:                   b.Scope,
	}
	for k, v := range b.Locals {
		c.Locals[k] = v
	}
	for k, v := range b.AssignedVariables {
		c.AssignedVariables[k] = v
	}
	for k, v := range b.ConditionallyReferenced {
		c.ConditionallyReferenced[k] = v
	}
	for k, v := range b.StaticLocals {
		c.StaticLocals[k] = v
	}
	return c
}

// Get looks up a local binding, reporting whether it was found.
func (b *BlockContext) Get(name BindingID) (*lattice.Union, bool) {
	u, ok := b.Locals[name]
	return u, ok
}

// Set writes a local binding.
func (b *BlockContext) Set(name BindingID, u *lattice.Union) {
	b.Locals[name] = u
}

// JoinInto merges other's locals into b by lattice Join on the bindings
// present in both, implementing the "final context's locals is the
// per-binding join of the branch contexts' locals" rule for if/else and
// loop back-edges. A binding present on only one side keeps that side's
// type with PossiblyUndefined set, since a variable only assigned in one
// branch cannot be assumed defined after the join.
func (b *BlockContext) JoinInto(other *BlockContext) {
	for name, u := range b.Locals {
		ou, ok := other.Locals[name]
		if !ok {
			c := u.Clone()
			c.PossiblyUndefined = true
			b.Locals[name] = c
			continue
		}
		b.Locals[name] = lattice.Join(u, ou)
	}
	for name, ou := range other.Locals {
		if _, ok := b.Locals[name]; !ok {
			c := ou.Clone()
			c.PossiblyUndefined = true
			b.Locals[name] = c
		}
	}
}

// MergeClauses appends other's clauses, the "clauses is the disjunction"
// half of the if/else join rule; the join's clause store is a superset used
// only for subsequent narrowing opportunities, never crossed with Locals's
// strict intersection-of-keys policy.
func (b *BlockContext) MergeClauses(other *BlockContext) {
	b.Clauses = append(b.Clauses, other.Clauses...)
}
