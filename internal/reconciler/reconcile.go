package reconciler

import (
	"github.com/sentra-analysis/sentra/internal/diagnostics"
	"github.com/sentra-analysis/sentra/internal/lattice"
)

// Reconciler holds the shared dependencies every reconcile call needs: the
// populated hierarchy for HasMethod/HasProperty lookups and the collector
// redundant/impossible diagnostics are emitted into.
type Reconciler struct {
	Hierarchy lattice.Hierarchy
	Collector *diagnostics.Collector
}

func New(h lattice.Hierarchy, collector *diagnostics.Collector) *Reconciler {
	if h == nil {
		h = lattice.NullHierarchy{}
	}
	return &Reconciler{Hierarchy: h, Collector: collector}
}

// Reconcile narrows existing under assertion, diagnosing redundant/
// impossible when key.Present and the narrowing result warrants it. It
// returns only the refined union; callers that need DidRemoveType directly
// should use ReconcileDetailed.
func (r *Reconciler) Reconcile(existing *lattice.Union, a Assertion, key Key) *lattice.Union {
	return r.ReconcileDetailed(existing, a, key).Union
}

// ReconcileDetailed is the full contract described in spec §4.3.
func (r *Reconciler) ReconcileDetailed(existing *lattice.Union, a Assertion, key Key) Result {
	var result Result
	switch a.Kind {
	case KindIsType:
		result = r.reconcileIsType(existing, a)
	case KindNonEmpty:
		result = reconcileNonEmpty(existing, false)
	case KindTruthy:
		result = reconcileNonEmpty(existing, true)
	case KindIsset:
		result = r.reconcileIsset(existing, a.InsideLoop)
	case KindInArray:
		result = r.reconcileInArray(existing, a)
	case KindHasArrayKey:
		result = reconcileHasArrayKey(existing, a.Key)
	case KindIsLessThan, KindIsLessThanOrEqual, KindIsGreaterThan, KindIsGreaterThanOrEqual:
		result = reconcileIntComparison(existing, a)
	case KindIsIdentical:
		result = r.reconcileInArray(existing, a) // identical-to-literal is a degenerate InArray
	case KindHasMethod:
		result = r.reconcileHasMember(existing, a.Key, true)
	case KindHasProperty:
		result = r.reconcileHasMember(existing, a.Key, false)
	default:
		result = Result{Union: existing}
	}

	r.maybeDiagnose(a, key, result)
	return result
}

// maybeDiagnose implements the impossibility/redundancy rule from §4.3: if
// the result is empty, or nothing was removed and the assertion isn't a
// pure equality check, and a key+span were supplied, emit the matching
// issue.
func (r *Reconciler) maybeDiagnose(a Assertion, key Key, result Result) {
	if !key.Present || r.Collector == nil {
		return
	}
	isEqualityCheck := a.Kind == KindIsIdentical
	if result.Impossible || result.Union.IsNever() {
		r.Collector.Add(diagnostics.New(diagnostics.SeverityWarning, diagnostics.CodeImpossibleCondition, key.Span,
			key.Label+": assertion can never hold"))
		return
	}
	if !result.DidRemoveType && !isEqualityCheck {
		r.Collector.Add(diagnostics.New(diagnostics.SeverityNote, diagnostics.CodeRedundantCondition, key.Span,
			key.Label+": assertion always holds"))
	}
}

// reconcileIsType implements the IsType narrowing rules of §4.3, including
// the Mixed/Object::Any/Resource/List/Callable special cases.
func (r *Reconciler) reconcileIsType(existing *lattice.Union, a Assertion) Result {
	if existing.Every(func(at lattice.Atomic) bool { _, ok := at.(lattice.TMixed); return ok }) {
		return Result{Union: a.Type, DidRemoveType: true}
	}

	if isObjectAnyTarget(a.Type) {
		return r.reconcileIsObjectAny(existing)
	}

	if callable, ok := singleAtomic(a.Type).(lattice.TCallable); ok {
		if narrowed, did := coerceArrayToCallable(existing, callable); did {
			return Result{Union: narrowed, DidRemoveType: true}
		}
	}

	if list, ok := singleAtomic(a.Type).(lattice.TList); ok {
		if narrowed, did := widenKeyedToList(existing, list); did {
			return Result{Union: narrowed, DidRemoveType: true}
		}
	}

	if res, ok := singleAtomic(a.Type).(lattice.TResource); ok && res.Closed != lattice.ClosedUnknown {
		if narrowed, did := narrowResourceClosed(existing, res); did {
			return Result{Union: narrowed, DidRemoveType: true}
		}
	}

	kept, removed := r.narrowAtomics(existing, func(at lattice.Atomic) (lattice.Atomic, bool) {
		return intersectKeepGeneric(at, a.Type, r.Hierarchy)
	})
	if len(kept) == 0 {
		return Result{Union: lattice.Never(), DidRemoveType: true}
	}
	return Result{Union: lattice.NewUnion(kept...), DidRemoveType: removed}
}

func singleAtomic(u *lattice.Union) lattice.Atomic {
	if u == nil || len(u.Atomics) != 1 {
		return nil
	}
	return u.Atomics[0]
}

func isObjectAnyTarget(u *lattice.Union) bool {
	_, ok := singleAtomic(u).(lattice.TObjectAny)
	return ok
}

// reconcileIsObjectAny implements: object-typed atomics kept as-is; generic
// parameters narrowed recursively and re-wrapped; everything else dropped.
func (r *Reconciler) reconcileIsObjectAny(existing *lattice.Union) Result {
	kept, removed := r.narrowAtomics(existing, func(at lattice.Atomic) (lattice.Atomic, bool) {
		if isObjectFamily(at) {
			return at, false
		}
		if gp, ok := at.(lattice.TGenericParameter); ok {
			inner := r.reconcileIsObjectAny(gp.Constraint)
			if inner.Union.IsNever() {
				return nil, true
			}
			gp.Constraint = inner.Union
			return gp, inner.DidRemoveType
		}
		return nil, true
	})
	if len(kept) == 0 {
		return Result{Union: lattice.Never(), DidRemoveType: true}
	}
	return Result{Union: lattice.NewUnion(kept...), DidRemoveType: removed}
}

func isObjectFamily(a lattice.Atomic) bool {
	switch a.(type) {
	case lattice.TObjectAny, lattice.TObjectNamed, lattice.TObjectWithProperties,
		lattice.TObjectHasMethod, lattice.TObjectHasProperty, lattice.TObjectEnum:
		return true
	}
	return false
}

// coerceArrayToCallable implements: IsType(Callable) against a union holding
// an Array with exactly two known slots replaces the whole union with a plain
// Callable. It does not build the two-slot [object|class-string,
// non-empty-string] array shape, and the union's other atomics are dropped.
func coerceArrayToCallable(existing *lattice.Union, _ lattice.TCallable) (*lattice.Union, bool) {
	for _, at := range existing.Atomics {
		keyed, ok := at.(lattice.TKeyed)
		if !ok || len(keyed.KnownItems) != 2 {
			continue
		}
		return lattice.NewUnion(lattice.TCallable{}), true
	}
	return existing, false
}

// widenKeyedToList implements: IsType(List) against a Keyed with
// all-integer known keys rewrites into a List preserving non_empty.
func widenKeyedToList(existing *lattice.Union, target lattice.TList) (*lattice.Union, bool) {
	did := false
	kept := make([]lattice.Atomic, 0, len(existing.Atomics))
	for _, at := range existing.Atomics {
		keyed, ok := at.(lattice.TKeyed)
		if !ok || !keyed.AllIntegerKeys() {
			kept = append(kept, at)
			continue
		}
		elem := keyed.ParamValue
		if elem == nil {
			elem = target.Element
		}
		kept = append(kept, lattice.TList{Element: elem, NonEmpty: keyed.NonEmpty})
		did = true
	}
	return lattice.NewUnion(kept...), did
}

// narrowResourceClosed implements: IsType(Resource{closed=Some(true)})
// against Resource{closed=None} yields Resource{closed=Some(true)}.
func narrowResourceClosed(existing *lattice.Union, target lattice.TResource) (*lattice.Union, bool) {
	did := false
	kept := make([]lattice.Atomic, 0, len(existing.Atomics))
	for _, at := range existing.Atomics {
		res, ok := at.(lattice.TResource)
		if !ok {
			kept = append(kept, at)
			continue
		}
		if res.Closed == lattice.ClosedUnknown {
			kept = append(kept, lattice.TResource{Closed: target.Closed})
			did = true
			continue
		}
		if res.Closed == target.Closed {
			kept = append(kept, at)
		} else {
			did = true
		}
	}
	return lattice.NewUnion(kept...), did
}

// narrowAtomics applies f to each atomic of existing, collecting kept
// atomics and reporting whether anything was removed/replaced.
func (r *Reconciler) narrowAtomics(existing *lattice.Union, f func(lattice.Atomic) (lattice.Atomic, bool)) ([]lattice.Atomic, bool) {
	removed := false
	kept := make([]lattice.Atomic, 0, len(existing.Atomics))
	for _, at := range existing.Atomics {
		repl, drop := f(at)
		if drop {
			removed = true
			continue
		}
		if repl.String() != at.String() {
			removed = true
		}
		kept = append(kept, repl)
	}
	return kept, removed
}

// intersectKeepGeneric mirrors the "generic-parameter handling" paragraph of
// §4.3: a GenericParameter is narrowed through its constraint and re-wrapped
// rather than being intersected structurally.
func intersectKeepGeneric(at lattice.Atomic, target *lattice.Union, h lattice.Hierarchy) (lattice.Atomic, bool) {
	if gp, ok := at.(lattice.TGenericParameter); ok {
		narrowed, ok := lattice.Intersect(gp.Constraint, target, h)
		if !ok {
			return nil, true
		}
		gp.Constraint = narrowed
		return gp, false
	}
	kept := false
	for _, tAtomic := range target.Atomics {
		if lattice.IsContainedBy(at, tAtomic, h, nil) {
			kept = true
			break
		}
	}
	if kept {
		return at, false
	}
	return nil, true
}
