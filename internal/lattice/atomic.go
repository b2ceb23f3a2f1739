// Package lattice implements the type lattice (component A): atomic types,
// unions, and the subtyping/containment relation they support. It is the
// leaf component — it depends on nothing else in this module, and the
// populator and reconciler both build on it.
//
// Grounded on the teacher's internal/typesystem (funvibe/funxy): a sum type
// over concrete Go structs implementing a shared interface, immutable after
// construction, combined through a persistent Union much like funxy's TUnion
// (see internal/typesystem/types.go in the teacher).
package lattice

import "fmt"

// Atomic is one leaf of the type lattice (TAtomic in the spec).
type Atomic interface {
	fmt.Stringer
	// id returns the canonical string used by GetID/NormalizeUnion for
	// set-membership and sorting; it must be stable for equal atomics.
	id() string
}

// ---- Scalar family ----

// TBool is a boolean, optionally narrowed to a literal value.
type TBool struct {
	Literal *bool // nil = any bool
}

func (t TBool) String() string {
	if t.Literal == nil {
		return "bool"
	}
	if *t.Literal {
		return "true"
	}
	return "false"
}
func (t TBool) id() string { return t.String() }

// TInteger is an integer constrained to an IntDomain.
type TInteger struct {
	Domain IntDomain
}

func (t TInteger) String() string { return "int" + t.Domain.suffix() }
func (t TInteger) id() string     { return t.String() }

// TFloat is a float, optionally narrowed to a literal value.
type TFloat struct {
	Literal *float64
}

func (t TFloat) String() string {
	if t.Literal == nil {
		return "float"
	}
	return fmt.Sprintf("float(%v)", *t.Literal)
}
func (t TFloat) id() string { return t.String() }

// StringProps carries the flags tracked for narrowed string types.
type StringProps struct {
	IsNumeric   bool
	IsTruthy    bool
	IsNonEmpty  bool
	IsLowercase bool
	Literal     *string // nil = no literal value known
}

// TString is a string constrained by StringProps.
type TString struct {
	Props StringProps
}

func (t TString) String() string {
	if t.Props.Literal != nil {
		return fmt.Sprintf("%q", *t.Props.Literal)
	}
	s := "string"
	switch {
	case t.Props.IsNonEmpty && t.Props.IsLowercase:
		s = "non-empty-lowercase-string"
	case t.Props.IsNonEmpty:
		s = "non-empty-string"
	case t.Props.IsLowercase:
		s = "lowercase-string"
	case t.Props.IsNumeric:
		s = "numeric-string"
	}
	return s
}
func (t TString) id() string { return t.String() }

// ClassRef names a class-like by its fully-qualified name.
type ClassRef struct {
	Name string
}

// TClassLikeString is `class-string<T>` (or bare `class-string`).
type TClassLikeString struct {
	Of *ClassRef // nil = any class-like string
}

func (t TClassLikeString) String() string {
	if t.Of == nil {
		return "class-string"
	}
	return "class-string<" + t.Of.Name + ">"
}
func (t TClassLikeString) id() string { return t.String() }

// TArrayKey is `array-key` (int|string, the top of the key sublattice).
type TArrayKey struct{}

func (t TArrayKey) String() string { return "array-key" }
func (t TArrayKey) id() string     { return t.String() }

// TNumeric is `numeric` (int|float|numeric-string).
type TNumeric struct{}

func (t TNumeric) String() string { return "numeric" }
func (t TNumeric) id() string     { return t.String() }

// TScalarGeneric is the top of the scalar sublattice: "any scalar".
type TScalarGeneric struct{}

func (t TScalarGeneric) String() string { return "scalar" }
func (t TScalarGeneric) id() string     { return t.String() }

// ---- Singletons ----

type TNull struct{}

func (t TNull) String() string { return "null" }
func (t TNull) id() string     { return t.String() }

type TVoid struct{}

func (t TVoid) String() string { return "void" }
func (t TVoid) id() string     { return t.String() }

// TNever is the bottom of the lattice.
type TNever struct{}

func (t TNever) String() string { return "never" }
func (t TNever) id() string     { return t.String() }

// MixedProps carries the refinement-history flags for Mixed.
type MixedProps struct {
	NonNull       bool
	Truthy        bool
	IssetFromLoop bool
	// Vanilla marks a Mixed that came from a genuine `mixed` type (a
	// declared parameter/return type), as opposed to one synthesized as an
	// error-recovery fallback (undefined variable, unresolved call,
	// unnamed selector, ...). Diagnostics on mixed usage key off this to
	// tell "this binding really is mixed" from "this is mixed because
	// something else already went wrong".
	Vanilla bool
}

// TMixed is the top of the whole lattice.
type TMixed struct {
	Props MixedProps
}

func (t TMixed) String() string {
	switch {
	case t.Props.NonNull:
		return "mixed (non-null)"
	case t.Props.IssetFromLoop:
		return "mixed (from-loop)"
	default:
		return "mixed"
	}
}
func (t TMixed) id() string { return t.String() }

// Closed is a tri-state: unknown / definitely open / definitely closed.
type Closed int

const (
	ClosedUnknown Closed = iota
	ClosedTrue
	ClosedFalse
)

// TResource is an opaque runtime handle.
type TResource struct {
	Closed Closed
}

func (t TResource) String() string {
	switch t.Closed {
	case ClosedTrue:
		return "closed-resource"
	case ClosedFalse:
		return "open-resource"
	default:
		return "resource"
	}
}
func (t TResource) id() string { return t.String() }
