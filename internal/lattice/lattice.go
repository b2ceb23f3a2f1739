package lattice

// ComparisonResult collects side facts produced while checking containment,
// e.g. "would contain if template T were bound to string" — consumed by the
// flow analyzer's call-argument template inference (§4.4 step 4).
type ComparisonResult struct {
	TypeCoerced      bool
	TemplateBindings map[string]*Union // candidate bindings discovered while checking
}

func (cr *ComparisonResult) bind(name string, u *Union) {
	if cr == nil {
		return
	}
	if cr.TemplateBindings == nil {
		cr.TemplateBindings = make(map[string]*Union)
	}
	cr.TemplateBindings[name] = u
}

// Simplify removes Never, merges adjacent integer literals into ranges when
// beneficial, and collapses {Mixed, X} to Mixed, enforcing the Union
// invariant in place.
func Simplify(u *Union) {
	if u == nil {
		return
	}

	// Drop Never alongside other atomics; Never alone is the bottom and is
	// left as the empty set (IsNever()).
	filtered := u.Atomics[:0:0]
	for _, a := range u.Atomics {
		if _, isNever := a.(TNever); !isNever {
			filtered = append(filtered, a)
		}
	}
	u.Atomics = filtered

	// Mixed absorbs every other concrete atomic (top of lattice).
	for _, a := range u.Atomics {
		if _, isMixed := a.(TMixed); isMixed {
			u.Atomics = []Atomic{a}
			break
		}
	}

	// Merge same-kind literal integers into a range hull when there are
	// more than a handful, to keep unions from growing unboundedly under
	// repeated narrowing (e.g. `match` arms over many int literals).
	u.Atomics = mergeIntLiterals(u.Atomics)

	// Deduplicate by canonical id, then sort for deterministic rendering
	// and for GetID-based redundancy comparisons.
	seen := make(map[string]bool, len(u.Atomics))
	unique := u.Atomics[:0:0]
	for _, a := range u.Atomics {
		id := a.id()
		if seen[id] {
			continue
		}
		seen[id] = true
		unique = append(unique, a)
	}
	u.Atomics = unique
	sortAtomics(u.Atomics)
}

func mergeIntLiterals(atomics []Atomic) []Atomic {
	const mergeThreshold = 6
	var literals []TInteger
	var rest []Atomic
	for _, a := range atomics {
		if ti, ok := a.(TInteger); ok && ti.Domain.Kind == IntLiteral {
			literals = append(literals, ti)
			continue
		}
		rest = append(rest, a)
	}
	if len(literals) < mergeThreshold {
		return atomics
	}
	lo, hi := literals[0].Domain.Literal, literals[0].Domain.Literal
	for _, l := range literals[1:] {
		if l.Domain.Literal < lo {
			lo = l.Domain.Literal
		}
		if l.Domain.Literal > hi {
			hi = l.Domain.Literal
		}
	}
	return append(rest, TInteger{Domain: RangeInt(&lo, &hi)})
}

// GetID returns the canonical human-readable key used to detect redundant
// assertions: two unions that would behave identically under narrowing
// produce the same id.
func GetID(u *Union) string {
	return u.String()
}

// Join widens a and b to their least common supertype representable in the
// lattice. Integer ranges unify by interval hull; string-prop flags survive
// only when held by both operands (the meet of the flag sets, since Join
// computes the join of the *types*).
func Join(a, b *Union) *Union {
	if a.IsNever() {
		return b.Clone()
	}
	if b.IsNever() {
		return a.Clone()
	}

	combined := append(append([]Atomic{}, a.Atomics...), b.Atomics...)
	out := &Union{
		Atomics:                  combined,
		PossiblyUndefined:        a.PossiblyUndefined || b.PossiblyUndefined,
		PossiblyUndefinedFromTry: a.PossiblyUndefinedFromTry || b.PossiblyUndefinedFromTry,
		NullsafeNull:             a.NullsafeNull || b.NullsafeNull,
	}

	out.Atomics = joinIntLiterals(out.Atomics)
	out.Atomics = joinStringProps(out.Atomics)
	Simplify(out)
	return out
}

// joinIntLiterals widens two TInteger atomics present in the set into a
// single interval-hull atomic rather than leaving them side by side, so
// `1` join `2` produces `int[1..2]`, not `1|2`.
func joinIntLiterals(atomics []Atomic) []Atomic {
	var ints []TInteger
	var rest []Atomic
	for _, a := range atomics {
		if ti, ok := a.(TInteger); ok {
			ints = append(ints, ti)
		} else {
			rest = append(rest, a)
		}
	}
	if len(ints) <= 1 {
		return atomics
	}
	acc := ints[0].Domain
	for _, ti := range ints[1:] {
		acc = acc.Union(ti.Domain)
	}
	return append(rest, TInteger{Domain: acc})
}

// joinStringProps merges sibling TString atomics, keeping only flags held
// by every one of them (a property held by *both* operands survives).
func joinStringProps(atomics []Atomic) []Atomic {
	var strs []TString
	var rest []Atomic
	for _, a := range atomics {
		if ts, ok := a.(TString); ok {
			strs = append(strs, ts)
		} else {
			rest = append(rest, a)
		}
	}
	if len(strs) <= 1 {
		return atomics
	}
	merged := strs[0].Props
	for _, ts := range strs[1:] {
		merged.IsNumeric = merged.IsNumeric && ts.Props.IsNumeric
		merged.IsTruthy = merged.IsTruthy && ts.Props.IsTruthy
		merged.IsNonEmpty = merged.IsNonEmpty && ts.Props.IsNonEmpty
		merged.IsLowercase = merged.IsLowercase && ts.Props.IsLowercase
		if merged.Literal == nil || ts.Props.Literal == nil || *merged.Literal != *ts.Props.Literal {
			merged.Literal = nil
		}
	}
	return append(rest, TString{Props: merged})
}

// Intersect computes the greatest lower bound of a and b; the second return
// value is false iff the meet is empty (Never).
func Intersect(a, b *Union, h Hierarchy) (*Union, bool) {
	if a.IsNever() || b.IsNever() {
		return Never(), false
	}

	var result []Atomic
	for _, x := range a.Atomics {
		for _, y := range b.Atomics {
			if m, ok := intersectAtomic(x, y, h); ok {
				result = append(result, m)
			}
		}
	}
	if len(result) == 0 {
		return Never(), false
	}
	out := (&Union{Atomics: result}).withAtomics(result)
	return out, true
}

func intersectAtomic(x, y Atomic, h Hierarchy) (Atomic, bool) {
	if IsContainedBy(x, y, h, nil) {
		return x, true
	}
	if IsContainedBy(y, x, h, nil) {
		return y, true
	}

	switch xt := x.(type) {
	case TInteger:
		if yt, ok := y.(TInteger); ok {
			d, ok2 := xt.Domain.Intersect(yt.Domain)
			if !ok2 {
				return nil, false
			}
			return TInteger{Domain: d}, true
		}
	case TObjectNamed:
		if yt, ok := y.(TObjectNamed); ok {
			return TObjectNamed{
				Name:          xt.Name,
				TypeArgs:      xt.TypeArgs,
				Intersections: append(append([]Atomic{}, xt.Intersections...), append([]Atomic{yt}, yt.Intersections...)...),
			}, true
		}
	case TIterable:
		if yt, ok := y.(TIterable); ok {
			key, _ := Intersect(xt.Key, yt.Key, h)
			val, _ := Intersect(xt.Value, yt.Value, h)
			if key.IsNever() || val.IsNever() {
				return nil, false
			}
			return TIterable{Key: key, Value: val}, true
		}
	case TList:
		if yt, ok := y.(TList); ok {
			elem, ok2 := Intersect(xt.Element, yt.Element, h)
			if !ok2 {
				return nil, false
			}
			return TList{Element: elem, NonEmpty: xt.NonEmpty || yt.NonEmpty}, true
		}
	case TKeyed:
		if yt, ok := y.(TKeyed); ok {
			return intersectKeyed(xt, yt, h)
		}
	}
	return nil, false
}

func intersectKeyed(x, y TKeyed, h Hierarchy) (Atomic, bool) {
	out := TKeyed{NonEmpty: x.NonEmpty || y.NonEmpty}
	if x.ParamKey != nil && y.ParamKey != nil {
		key, ok := Intersect(x.ParamKey, y.ParamKey, h)
		if !ok {
			return nil, false
		}
		val, ok := Intersect(x.ParamValue, y.ParamValue, h)
		if !ok {
			return nil, false
		}
		out.ParamKey, out.ParamValue = key, val
	} else if x.ParamKey != nil {
		out.ParamKey, out.ParamValue = x.ParamKey, x.ParamValue
	} else {
		out.ParamKey, out.ParamValue = y.ParamKey, y.ParamValue
	}
	if len(x.KnownItems) > 0 || len(y.KnownItems) > 0 {
		out.KnownItems = make(map[ArrayKey]KnownItem)
		for k, v := range x.KnownItems {
			out.KnownItems[k] = v
		}
		for k, v := range y.KnownItems {
			if existing, ok := out.KnownItems[k]; ok {
				merged, ok2 := Intersect(existing.Value, v.Value, h)
				if !ok2 {
					return nil, false
				}
				out.KnownItems[k] = KnownItem{Optional: existing.Optional && v.Optional, Value: merged}
			} else {
				out.KnownItems[k] = v
			}
		}
	}
	return out, true
}

// IsContainedBy reports whether a is a subtype of b (a ⊑ b), optionally
// recording side facts in cr.
func IsContainedBy(a, b Atomic, h Hierarchy, cr *ComparisonResult) bool {
	if a.id() == b.id() {
		return true
	}

	switch bt := b.(type) {
	case TMixed:
		return true
	case TScalarGeneric:
		return isScalarAtomic(a)
	case TArrayKey:
		switch a.(type) {
		case TInteger, TString:
			return true
		}
		return false
	case TNumeric:
		switch at := a.(type) {
		case TInteger, TFloat:
			return true
		case TString:
			return at.Props.IsNumeric
		}
		return false
	case TObjectAny:
		return isObjectAtomic(a)
	}

	switch at := a.(type) {
	case TNever:
		return true
	case TInteger:
		bt, ok := b.(TInteger)
		if !ok {
			return false
		}
		return intDomainContainedBy(at.Domain, bt.Domain)
	case TEnumCase:
		// Enum{E, c} ⊑ Named{E}
		if bt, ok := b.(TObjectNamed); ok {
			return at.Enum == bt.Name
		}
		if bt, ok := b.(TObjectEnum); ok {
			return at.Enum == bt.Name && (bt.Case == "" || bt.Case == at.Case)
		}
		return false
	case TObjectEnum:
		if bt, ok := b.(TObjectNamed); ok {
			return at.Name == bt.Name
		}
		if bt, ok := b.(TObjectEnum); ok {
			return at.Name == bt.Name && (bt.Case == "" || bt.Case == at.Case)
		}
		return false
	case TObjectNamed:
		bt, ok := b.(TObjectNamed)
		if !ok {
			return false
		}
		return namedContainedBy(at, bt, h, cr)
	case TList:
		switch bt := b.(type) {
		case TList:
			return unionContainedBy(at.Element, bt.Element, h, cr) && (!bt.NonEmpty || at.NonEmpty)
		case TKeyed:
			// List ⊑ Keyed with int-keyed parameters.
			if bt.ParamKey == nil {
				return false
			}
			return unionContainedBy(IntAny(), bt.ParamKey, h, cr) &&
				unionContainedBy(at.Element, bt.ParamValue, h, cr) &&
				(!bt.NonEmpty || at.NonEmpty)
		}
		return false
	case TKeyed:
		switch bt := b.(type) {
		case TKeyed:
			return keyedContainedBy(at, bt, h, cr)
		case TList:
			// Keyed with all-integer known keys widens to List.
			if !at.allIntegerKeys() {
				return false
			}
			for _, item := range at.KnownItems {
				if !unionContainedBy(item.Value, bt.Element, h, cr) {
					return false
				}
			}
			if at.ParamValue != nil && !unionContainedBy(at.ParamValue, bt.Element, h, cr) {
				return false
			}
			return !bt.NonEmpty || at.NonEmpty || len(at.KnownItems) > 0
		}
		return false
	}

	return false
}

func isScalarAtomic(a Atomic) bool {
	switch a.(type) {
	case TBool, TInteger, TFloat, TString, TClassLikeString, TArrayKey, TNumeric, TScalarGeneric:
		return true
	}
	return false
}

func isObjectAtomic(a Atomic) bool {
	switch a.(type) {
	case TObjectAny, TObjectNamed, TObjectWithProperties, TObjectHasMethod, TObjectHasProperty, TObjectEnum:
		return true
	}
	return false
}

func intDomainContainedBy(a, b IntDomain) bool {
	if b.Kind == IntUnspecified {
		return true
	}
	switch a.Kind {
	case IntLiteral:
		return b.contains(a.Literal)
	case IntRange:
		bFrom, bTo := b.bounds()
		aFrom, aTo := a.bounds()
		if bFrom != nil && (aFrom == nil || *aFrom < *bFrom) {
			return false
		}
		if bTo != nil && (aTo == nil || *aTo > *bTo) {
			return false
		}
		return true
	default:
		return b.Kind == IntUnspecified
	}
}

// namedContainedBy implements `Named{C, Ts} ⊑ Named{D, Us}` iff D is a
// supertype of C in the populated hierarchy and the argument lists satisfy
// the declared variance.
func namedContainedBy(a, b TObjectNamed, h Hierarchy, cr *ComparisonResult) bool {
	if h == nil {
		h = NullHierarchy{}
	}
	if !h.IsSubclassOf(a.Name, b.Name) {
		return false
	}
	for i, bArg := range b.TypeArgs {
		if i >= len(a.TypeArgs) {
			break
		}
		aArg := a.TypeArgs[i]
		switch h.Variance(b.Name, i) {
		case VarianceCovariant:
			if !unionContainedBy(aArg, bArg, h, cr) {
				return false
			}
		case VarianceContravariant:
			if !unionContainedBy(bArg, aArg, h, cr) {
				return false
			}
		default:
			if !unionContainedBy(aArg, bArg, h, cr) || !unionContainedBy(bArg, aArg, h, cr) {
				return false
			}
		}
	}
	for _, in := range b.Intersections {
		matched := false
		if IsContainedBy(a, in, h, cr) {
			matched = true
		}
		for _, ain := range a.Intersections {
			if IsContainedBy(ain, in, h, cr) {
				matched = true
			}
		}
		if !matched {
			return false
		}
	}
	return true
}

func keyedContainedBy(a, b TKeyed, h Hierarchy, cr *ComparisonResult) bool {
	if b.ParamKey != nil {
		if a.ParamKey != nil {
			if !unionContainedBy(a.ParamKey, b.ParamKey, h, cr) || !unionContainedBy(a.ParamValue, b.ParamValue, h, cr) {
				return false
			}
		}
		for _, item := range a.KnownItems {
			if !unionContainedBy(item.Value, b.ParamValue, h, cr) {
				return false
			}
		}
	}
	for key, bItem := range b.KnownItems {
		aItem, ok := a.KnownItems[key]
		if !ok {
			if !bItem.Optional {
				return false
			}
			continue
		}
		if !unionContainedBy(aItem.Value, bItem.Value, h, cr) {
			return false
		}
		if aItem.Optional && !bItem.Optional {
			return false
		}
	}
	return !b.NonEmpty || a.NonEmpty || len(a.KnownItems) > 0
}

// unionContainedBy reports whether every atomic of a has a containing
// atomic in b — the union-level lifting of IsContainedBy.
func unionContainedBy(a, b *Union, h Hierarchy, cr *ComparisonResult) bool {
	if a.IsNever() {
		return true
	}
	for _, ax := range a.Atomics {
		ok := false
		for _, bx := range b.Atomics {
			if IsContainedBy(ax, bx, h, cr) {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	return true
}

// UnionContainedBy is the exported form of unionContainedBy, used by the
// populator and reconciler.
func UnionContainedBy(a, b *Union, h Hierarchy) bool {
	return unionContainedBy(a, b, h, nil)
}

// TEnumCase is an instance of one specific case of a named enum. Separated
// from TObjectEnum (which models "any case, or this specific case, of an
// already-object-typed enum value") because populated enum case constants
// are represented this way before being folded into a TObjectEnum atomic by
// the flow analyzer's literal handling.
type TEnumCase struct {
	Enum string
	Case string
}

func (t TEnumCase) String() string { return t.Enum + "::" + t.Case }
func (t TEnumCase) id() string     { return t.String() }
