// Package reconciler implements the assertion reconciler (component C):
// given an existing union for a binding plus an assertion derived from a
// condition, produce a refined union and optionally report the assertion
// redundant or impossible.
//
// Grounded on the narrowing/negative-narrowing pair in the teacher's
// internal/analyzer/inference_control.go (If-expression type narrowing):
// guard-driven positive narrowing of the consequence branch, and "subtract
// the guard type from the union" negative narrowing of the alternative
// branch. This package generalizes that same positive/negative pairing into
// a closed assertion vocabulary reconcile/subtract can dispatch on.
package reconciler

import (
	"github.com/sentra-analysis/sentra/internal/ast"
	"github.com/sentra-analysis/sentra/internal/lattice"
)

// Kind is the closed set of assertion shapes reconcile understands.
type Kind int

const (
	KindIsType Kind = iota
	KindNonEmpty
	KindTruthy
	KindIsset
	KindInArray
	KindHasArrayKey
	KindIsLessThan
	KindIsLessThanOrEqual
	KindIsGreaterThan
	KindIsGreaterThanOrEqual
	KindIsIdentical
	KindHasMethod
	KindHasProperty
)

// Assertion is one narrowing request against an existing union.
type Assertion struct {
	Kind Kind

	Type     *lattice.Union // for IsType, InArray, IsIdentical
	Atomic   lattice.Atomic // for IsType when testing a single atomic shape (e.g. Resource{closed=true})
	Key      string         // for HasArrayKey/HasMethod/HasProperty
	IntValue int64          // for the integer comparison kinds

	// InsideLoop tells Isset how to build its Mixed fallback when the
	// existing union narrows away entirely: a loop body can still bind the
	// variable on a later iteration, so the fallback keeps the
	// "possibly from a loop" provenance flag instead of being plain Mixed.
	InsideLoop bool
}

// Key is the diagnostic label plus span identifying where an assertion was
// applied, optional per spec §4.3's contract ("key+span optional" — a
// recursive reconcile call on a generic parameter's constraint passes a
// zero Key to suppress inner diagnostics).
type Key struct {
	Label   string
	Span    ast.Span
	Present bool
}

// Result carries the refined union plus the facts reconcile needs to decide
// whether to diagnose redundant/impossible.
type Result struct {
	Union         *lattice.Union
	DidRemoveType bool

	// Impossible is set when the assertion's meet with the existing union
	// was empty but the reconciler still falls back to a non-Never union
	// (e.g. InArray falling back to Mixed) so Union.IsNever() alone would
	// miss the impossible-condition diagnostic.
	Impossible bool
}
