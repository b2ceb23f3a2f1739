package reconciler

import (
	"strconv"

	"github.com/sentra-analysis/sentra/internal/lattice"
)

// reconcileNonEmpty implements the NonEmpty/Truthy narrowing rule of §4.3:
// both strip Null/literal-false/empty-string/zero-literals/empty-array and
// mark arrays non_empty and general strings truthy; Truthy additionally
// clears the possibly-undefined provenance flags.
func reconcileNonEmpty(existing *lattice.Union, truthy bool) Result {
	removed := false
	kept := make([]lattice.Atomic, 0, len(existing.Atomics))
	for _, at := range existing.Atomics {
		switch v := at.(type) {
		case lattice.TNull:
			removed = true
		case lattice.TBool:
			if v.Literal != nil && !*v.Literal {
				removed = true
				continue
			}
			t := true
			kept = append(kept, lattice.TBool{Literal: &t})
			if v.Literal == nil {
				removed = true
			}
		case lattice.TString:
			if v.Props.Literal != nil && *v.Props.Literal == "" {
				removed = true
				continue
			}
			if v.Props.Literal == nil {
				v.Props.IsTruthy = true
			}
			kept = append(kept, v)
		case lattice.TInteger:
			if v.Domain.Kind == lattice.IntLiteral && v.Domain.Literal == 0 {
				removed = true
				continue
			}
			kept = append(kept, v)
		case lattice.TFloat:
			if v.Literal != nil && *v.Literal == 0 {
				removed = true
				continue
			}
			kept = append(kept, v)
		case lattice.TList:
			if !v.NonEmpty {
				v.NonEmpty = true
				removed = true
			}
			kept = append(kept, v)
		case lattice.TKeyed:
			if !v.NonEmpty {
				v.NonEmpty = true
				removed = true
			}
			kept = append(kept, v)
		default:
			kept = append(kept, at)
		}
	}
	out := lattice.NewUnion(kept...)
	if truthy {
		out = out.Clone()
		out.PossiblyUndefined = false
		out.PossiblyUndefinedFromTry = false
	}
	if len(kept) == 0 {
		return Result{Union: lattice.Never(), DidRemoveType: true}
	}
	return Result{Union: out, DidRemoveType: removed}
}

// reconcileIsset strips Null, coerces a non-null-tagged Mixed to non-null,
// and falls back to a loop-flavored Mixed when nothing survives.
func (r *Reconciler) reconcileIsset(existing *lattice.Union, insideLoop bool) Result {
	removed := false
	kept := make([]lattice.Atomic, 0, len(existing.Atomics))
	for _, at := range existing.Atomics {
		switch v := at.(type) {
		case lattice.TNull:
			removed = true
		case lattice.TMixed:
			if !v.Props.NonNull {
				v.Props.NonNull = true
				removed = true
			}
			kept = append(kept, v)
		default:
			kept = append(kept, at)
		}
	}
	if len(kept) == 0 {
		if insideLoop {
			return Result{Union: lattice.NewUnion(lattice.TMixed{Props: lattice.MixedProps{IssetFromLoop: true}}), DidRemoveType: true}
		}
		return Result{Union: lattice.Mixed(), DidRemoveType: true}
	}
	return Result{Union: lattice.NewUnion(kept...), DidRemoveType: removed}
}

// reconcileInArray computes the meet of existing and a.Type (also used for
// the degenerate IsIdentical-to-literal case): an empty meet is diagnosed
// impossible and falls back to Mixed rather than Never, per §4.3.
func (r *Reconciler) reconcileInArray(existing *lattice.Union, a Assertion) Result {
	narrowed, ok := lattice.Intersect(existing, a.Type, r.Hierarchy)
	if !ok {
		return Result{Union: lattice.Mixed(), DidRemoveType: true, Impossible: true}
	}
	return Result{Union: narrowed, DidRemoveType: true}
}

// reconcileHasArrayKey refines array shapes to record that key is present:
// Keyed gets its known_items entry marked present (added from ParamValue if
// absent), List gets the integer index inserted into known_elements, and a
// string key asserted against a List drops that atomic entirely.
func reconcileHasArrayKey(existing *lattice.Union, key string) Result {
	arrKey := parseArrayKey(key)
	removed := false
	kept := make([]lattice.Atomic, 0, len(existing.Atomics))
	for _, at := range existing.Atomics {
		switch v := at.(type) {
		case lattice.TKeyed:
			items := make(map[lattice.ArrayKey]lattice.KnownItem, len(v.KnownItems))
			for k, item := range v.KnownItems {
				items[k] = item
			}
			existingItem, has := items[arrKey]
			if has {
				if existingItem.Optional {
					existingItem.Optional = false
					items[arrKey] = existingItem
					removed = true
				}
			} else {
				value := v.ParamValue
				if value == nil {
					value = lattice.Mixed()
				}
				items[arrKey] = lattice.KnownItem{Optional: false, Value: value}
				removed = true
			}
			v.KnownItems = items
			kept = append(kept, v)
		case lattice.TList:
			if arrKey.IsString {
				removed = true
				continue
			}
			known := make(map[int64]lattice.KnownItem, len(v.KnownElements))
			for k, item := range v.KnownElements {
				known[k] = item
			}
			if _, has := known[arrKey.IntKey]; !has {
				elem := v.Element
				if elem == nil {
					elem = lattice.Mixed()
				}
				known[arrKey.IntKey] = lattice.KnownItem{Value: elem}
				removed = true
			}
			v.KnownElements = known
			kept = append(kept, v)
		default:
			kept = append(kept, at)
		}
	}
	if len(kept) == 0 {
		return Result{Union: lattice.Never(), DidRemoveType: true}
	}
	return Result{Union: lattice.NewUnion(kept...), DidRemoveType: removed}
}

func parseArrayKey(key string) lattice.ArrayKey {
	if n, err := strconv.ParseInt(key, 10, 64); err == nil {
		return lattice.ArrayKey{IntKey: n}
	}
	return lattice.ArrayKey{IsString: true, StrKey: key}
}

// reconcileIntComparison narrows every TInteger atomic's domain against
// a.IntValue per a.Kind, dropping atomics the narrowing empties; the
// "< 0" special case also drops Null and literal-false per §4.3.
func reconcileIntComparison(existing *lattice.Union, a Assertion) Result {
	removed := false
	kept := make([]lattice.Atomic, 0, len(existing.Atomics))
	dropFalsy := a.Kind == KindIsLessThan && a.IntValue == 0
	for _, at := range existing.Atomics {
		if dropFalsy {
			if _, ok := at.(lattice.TNull); ok {
				removed = true
				continue
			}
			if b, ok := at.(lattice.TBool); ok && b.Literal != nil && !*b.Literal {
				removed = true
				continue
			}
		}
		intAtomic, ok := at.(lattice.TInteger)
		if !ok {
			kept = append(kept, at)
			continue
		}
		var (
			narrowed lattice.IntDomain
			okDomain bool
		)
		switch a.Kind {
		case KindIsLessThan:
			narrowed, okDomain = intAtomic.Domain.ToLessThan(a.IntValue)
		case KindIsLessThanOrEqual:
			narrowed, okDomain = intAtomic.Domain.ToLessThanOrEqual(a.IntValue)
		case KindIsGreaterThan:
			narrowed, okDomain = intAtomic.Domain.ToGreaterThan(a.IntValue)
		case KindIsGreaterThanOrEqual:
			narrowed, okDomain = intAtomic.Domain.ToGreaterThanOrEqual(a.IntValue)
		default:
			kept = append(kept, at)
			continue
		}
		if !okDomain {
			removed = true
			continue
		}
		if !narrowed.Equals(intAtomic.Domain) {
			removed = true
		}
		kept = append(kept, lattice.TInteger{Domain: narrowed})
	}
	if len(kept) == 0 {
		return Result{Union: lattice.Never(), DidRemoveType: true}
	}
	return Result{Union: lattice.NewUnion(kept...), DidRemoveType: removed}
}

// reconcileHasMember implements HasMethod/HasProperty: an atomic that
// already declares the member is kept unchanged; otherwise the member
// requirement is ANDed in as a structural intersection and DidRemoveType is
// set, per §4.3.
func (r *Reconciler) reconcileHasMember(existing *lattice.Union, name string, method bool) Result {
	removed := false
	kept := make([]lattice.Atomic, 0, len(existing.Atomics))
	for _, at := range existing.Atomics {
		repl, did := r.addMemberRequirement(at, name, method)
		if repl == nil {
			removed = true
			continue
		}
		if did {
			removed = true
		}
		kept = append(kept, repl)
	}
	if len(kept) == 0 {
		return Result{Union: lattice.Never(), DidRemoveType: true}
	}
	return Result{Union: lattice.NewUnion(kept...), DidRemoveType: removed}
}

func (r *Reconciler) addMemberRequirement(at lattice.Atomic, name string, method bool) (lattice.Atomic, bool) {
	switch v := at.(type) {
	case lattice.TObjectNamed:
		if r.Hierarchy.DeclaresMember(v.Name, name, method) {
			return v, false
		}
		v.Intersections = append(append([]lattice.Atomic(nil), v.Intersections...), memberAtomic(name, method))
		return v, true
	case lattice.TObjectAny:
		return memberAtomic(name, method), true
	case lattice.TObjectHasMethod:
		if !method || v.Name != name {
			v.Intersections = append(append([]lattice.Atomic(nil), v.Intersections...), memberAtomic(name, method))
			return v, true
		}
		return v, false
	case lattice.TObjectHasProperty:
		if method || v.Name != name {
			v.Intersections = append(append([]lattice.Atomic(nil), v.Intersections...), memberAtomic(name, method))
			return v, true
		}
		return v, false
	case lattice.TGenericParameter:
		inner := r.reconcileHasMember(v.Constraint, name, method)
		if inner.Union.IsNever() {
			return nil, true
		}
		v.Constraint = inner.Union
		return v, inner.DidRemoveType
	default:
		return nil, true
	}
}

func memberAtomic(name string, method bool) lattice.Atomic {
	if method {
		return lattice.TObjectHasMethod{Name: name}
	}
	return lattice.TObjectHasProperty{Name: name}
}
