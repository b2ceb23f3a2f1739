package lattice

import (
	"sort"
	"strings"
)

// ParentNode is one hop of dataflow/taint provenance recorded on a Union,
// consumed by the (out-of-scope) taint-tracking collaborator.
type ParentNode struct {
	Label string
}

// Union is a non-empty set of atomics treated as a disjunction (TUnion in
// the spec). Ordering of Atomics only affects diagnostic rendering; set
// membership is what matters everywhere else.
//
// Invariant (enforced by Simplify, see lattice.go): a union containing
// TMixed other than TNever never contains other concrete atomics, and a
// union containing TNever alongside other atomics is equal to the union
// without TNever.
type Union struct {
	Atomics []Atomic

	PossiblyUndefined         bool
	PossiblyUndefinedFromTry  bool
	NullsafeNull              bool
	ParentNodes               []ParentNode
}

// NewUnion builds a Union from one or more atomics, immediately simplified.
func NewUnion(atomics ...Atomic) *Union {
	u := &Union{Atomics: append([]Atomic(nil), atomics...)}
	Simplify(u)
	return u
}

// Clone returns a shallow copy safe to mutate independently (the Atomics
// slice header is copied; individual Atomic values are themselves
// immutable, so no deep copy is required).
func (u *Union) Clone() *Union {
	if u == nil {
		return nil
	}
	c := *u
	c.Atomics = append([]Atomic(nil), u.Atomics...)
	return &c
}

func (u *Union) String() string {
	if u == nil || len(u.Atomics) == 0 {
		return "never"
	}
	parts := make([]string, len(u.Atomics))
	for i, a := range u.Atomics {
		parts[i] = a.String()
	}
	return strings.Join(parts, "|")
}

// IsNever reports whether this union has collapsed to the lattice bottom.
func (u *Union) IsNever() bool {
	return u == nil || len(u.Atomics) == 0
}

// HasAtomic reports whether any atomic in the union has the given kind id
// prefix match via a predicate, used pervasively by the reconciler.
func (u *Union) HasAtomic(pred func(Atomic) bool) bool {
	for _, a := range u.Atomics {
		if pred(a) {
			return true
		}
	}
	return false
}

// Every reports whether every atomic in the union satisfies pred.
func (u *Union) Every(pred func(Atomic) bool) bool {
	for _, a := range u.Atomics {
		if !pred(a) {
			return false
		}
	}
	return true
}

// Filter returns a new union containing only the atomics pred accepts. If
// none match, the result IsNever().
func (u *Union) Filter(pred func(Atomic) bool) *Union {
	kept := make([]Atomic, 0, len(u.Atomics))
	for _, a := range u.Atomics {
		if pred(a) {
			kept = append(kept, a)
		}
	}
	out := &Union{
		Atomics:                  kept,
		PossiblyUndefined:        u.PossiblyUndefined,
		PossiblyUndefinedFromTry: u.PossiblyUndefinedFromTry,
		NullsafeNull:             u.NullsafeNull,
		ParentNodes:              u.ParentNodes,
	}
	return out
}

// Map returns a new union with each atomic replaced by f(atomic); f may
// return nil to drop the atomic.
func (u *Union) Map(f func(Atomic) Atomic) *Union {
	mapped := make([]Atomic, 0, len(u.Atomics))
	for _, a := range u.Atomics {
		if r := f(a); r != nil {
			mapped = append(mapped, r)
		}
	}
	out := &Union{
		Atomics:                  mapped,
		PossiblyUndefined:        u.PossiblyUndefined,
		PossiblyUndefinedFromTry: u.PossiblyUndefinedFromTry,
		NullsafeNull:             u.NullsafeNull,
		ParentNodes:              u.ParentNodes,
	}
	Simplify(out)
	return out
}

// withAtomics returns a copy of u with a fresh atomics slice, flags carried
// over unchanged, then simplified.
func (u *Union) withAtomics(atomics []Atomic) *Union {
	out := &Union{
		Atomics:                  atomics,
		PossiblyUndefined:        u.PossiblyUndefined,
		PossiblyUndefinedFromTry: u.PossiblyUndefinedFromTry,
		NullsafeNull:             u.NullsafeNull,
		ParentNodes:              u.ParentNodes,
	}
	Simplify(out)
	return out
}

// Never is the canonical bottom union.
func Never() *Union { return &Union{} }

// Common single-atomic union constructors, used pervasively by the
// reconciler and flow analyzer.
func Null() *Union    { return NewUnion(TNull{}) }
func Mixed() *Union   { return NewUnion(TMixed{}) }
func Bool() *Union    { return NewUnion(TBool{}) }
func IntAny() *Union  { return NewUnion(TInteger{Domain: UnspecifiedInt()}) }
func StringAny() *Union { return NewUnion(TString{}) }

func sortAtomics(atomics []Atomic) {
	sort.Slice(atomics, func(i, j int) bool { return atomics[i].id() < atomics[j].id() })
}
