package reconciler

import "github.com/sentra-analysis/sentra/internal/lattice"

// Subtract is the sibling table to Reconcile for the negative branch of a
// condition (the `else` of an `if`), grounded on the teacher's
// inference_control.go: the consequence branch takes the guard type
// directly, the alternative subtracts it from the original union. Each
// entry below is the negation of the matching Reconcile rule rather than a
// generic complement, since several assertion kinds (HasMethod/HasProperty,
// HasArrayKey) carry no useful negative information at the type level.
func (r *Reconciler) Subtract(existing *lattice.Union, a Assertion, key Key) *lattice.Union {
	result := r.SubtractDetailed(existing, a, key)
	return result.Union
}

func (r *Reconciler) SubtractDetailed(existing *lattice.Union, a Assertion, key Key) Result {
	var result Result
	switch a.Kind {
	case KindIsType:
		result = r.subtractType(existing, a.Type)
	case KindIsIdentical:
		result = r.subtractType(existing, a.Type)
	case KindNonEmpty, KindTruthy:
		result = subtractTrue(existing)
	case KindIsset:
		result = subtractNull(existing)
	case KindInArray:
		result = r.subtractType(existing, a.Type)
	case KindIsLessThan:
		result = subtractIntComparison(existing, KindIsGreaterThanOrEqual, a.IntValue)
	case KindIsLessThanOrEqual:
		result = subtractIntComparison(existing, KindIsGreaterThan, a.IntValue)
	case KindIsGreaterThan:
		result = subtractIntComparison(existing, KindIsLessThanOrEqual, a.IntValue)
	case KindIsGreaterThanOrEqual:
		result = subtractIntComparison(existing, KindIsLessThan, a.IntValue)
	case KindHasArrayKey, KindHasMethod, KindHasProperty:
		// No useful negative structural information: the absence of a key
		// or member doesn't narrow the type, so the union passes through.
		result = Result{Union: existing}
	default:
		result = Result{Union: existing}
	}
	r.maybeDiagnose(a, key, result)
	return result
}

// subtractType removes every atomic of existing that is fully contained by
// target (Isset and NonEmpty/Truthy do not come here: they use subtractNull
// and subtractTrue), mirroring the teacher's Unify-based set difference for
// If-expression negative narrowing.
func (r *Reconciler) subtractType(existing *lattice.Union, target *lattice.Union) Result {
	if target == nil || target.IsNever() {
		return Result{Union: existing}
	}
	removed := false
	out := existing.Filter(func(at lattice.Atomic) bool {
		for _, tAtomic := range target.Atomics {
			if lattice.IsContainedBy(at, tAtomic, r.Hierarchy, nil) {
				removed = true
				return false
			}
		}
		return true
	})
	if out.IsNever() {
		return Result{Union: out, DidRemoveType: true}
	}
	return Result{Union: out, DidRemoveType: removed}
}

// subtractTrue implements subtract_true: the negative branch of NonEmpty/
// Truthy keeps only the falsy members of the union (Null, literal-false,
// empty-string, zero-literals, plus Mixed/general scalars which might still
// be falsy at runtime and so cannot be dropped).
func subtractTrue(existing *lattice.Union) Result {
	removed := false
	kept := existing.Filter(func(at lattice.Atomic) bool {
		switch v := at.(type) {
		case lattice.TBool:
			if v.Literal != nil && *v.Literal {
				removed = true
				return false
			}
			return true
		case lattice.TString:
			if v.Props.Literal != nil && *v.Props.Literal != "" {
				removed = true
				return false
			}
			if v.Props.IsNonEmpty {
				removed = true
				return false
			}
			return true
		case lattice.TInteger:
			if v.Domain.Kind == lattice.IntLiteral && v.Domain.Literal != 0 {
				removed = true
				return false
			}
			return true
		case lattice.TFloat:
			if v.Literal != nil && *v.Literal != 0 {
				removed = true
				return false
			}
			return true
		case lattice.TList:
			if v.NonEmpty {
				removed = true
				return false
			}
			return true
		case lattice.TKeyed:
			if v.NonEmpty {
				removed = true
				return false
			}
			return true
		default:
			return true
		}
	})
	if kept.IsNever() {
		return Result{Union: kept, DidRemoveType: true}
	}
	return Result{Union: kept, DidRemoveType: removed}
}

// subtractNull implements subtract_null: the negative branch of Isset keeps
// only Null (and undeclared/undefined) members.
func subtractNull(existing *lattice.Union) Result {
	removed := false
	kept := existing.Filter(func(at lattice.Atomic) bool {
		switch v := at.(type) {
		case lattice.TNull:
			return true
		case lattice.TMixed:
			if v.Props.NonNull {
				removed = true
				return false
			}
			return true
		default:
			removed = true
			return false
		}
	})
	if kept.IsNever() {
		return Result{Union: lattice.Null(), DidRemoveType: true}
	}
	return Result{Union: kept, DidRemoveType: removed}
}

// subtractIntComparison implements subtract_integer_range_complement: the
// negation of "< v" is ">= v", so the negative branch narrows using the
// complementary comparison kind against the same bound.
func subtractIntComparison(existing *lattice.Union, complement Kind, v int64) Result {
	return reconcileIntComparison(existing, Assertion{Kind: complement, IntValue: v})
}
