package lattice

import (
	"fmt"
	"sort"
	"strings"
)

// ArrayKey is either an int or a string literal key.
type ArrayKey struct {
	IsString bool
	IntKey   int64
	StrKey   string
}

func (k ArrayKey) String() string {
	if k.IsString {
		return fmt.Sprintf("%q", k.StrKey)
	}
	return fmt.Sprintf("%d", k.IntKey)
}

// KnownItem is one entry of a Keyed array's known_items map: an optional
// flag plus the value union at that key.
type KnownItem struct {
	Optional bool
	Value    *Union
}

// TList is a list-shaped array: a homogeneous Element type, plus an
// optional prefix of statically-known elements (e.g. from a literal).
type TList struct {
	Element       *Union
	KnownElements map[int64]KnownItem // index -> item, for literal/partial lists
	KnownCount    *int                // nil = unknown length
	NonEmpty      bool
}

func (t TList) String() string {
	if len(t.KnownElements) > 0 {
		return "list{" + describeKnownInt(t.KnownElements) + "}"
	}
	prefix := "list"
	if t.NonEmpty {
		prefix = "non-empty-list"
	}
	return prefix + "<" + t.Element.String() + ">"
}
func (t TList) id() string { return t.String() }

// TKeyed is an arbitrary-keyed array: optional uniform (key,value)
// parameters plus optional statically-known items (an array "shape").
type TKeyed struct {
	ParamKey   *Union // nil when only known_items describe the shape
	ParamValue *Union
	KnownItems map[ArrayKey]KnownItem
	NonEmpty   bool
}

func (t TKeyed) String() string {
	if len(t.KnownItems) > 0 {
		return "array{" + describeKnownKeyed(t.KnownItems) + "}"
	}
	prefix := "array"
	if t.NonEmpty {
		prefix = "non-empty-array"
	}
	if t.ParamKey == nil {
		return prefix
	}
	return prefix + "<" + t.ParamKey.String() + ", " + t.ParamValue.String() + ">"
}
func (t TKeyed) id() string { return t.String() }

// AllIntegerKeys reports whether every known key (or the key parameter) is
// an integer, the precondition for Keyed <-> List widening/narrowing. It is
// the exported entry point for callers outside this package (e.g. the
// reconciler's IsType(List) coercion); allIntegerKeys is used internally by
// IsContainedBy.
func (t TKeyed) AllIntegerKeys() bool {
	return t.allIntegerKeys()
}

func (t TKeyed) allIntegerKeys() bool {
	if t.ParamKey != nil {
		for _, a := range t.ParamKey.Atomics {
			if _, ok := a.(TInteger); !ok {
				return false
			}
		}
	}
	for k := range t.KnownItems {
		if k.IsString {
			return false
		}
	}
	return true
}

func describeKnownInt(m map[int64]KnownItem) string {
	keys := make([]int64, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	parts := make([]string, len(keys))
	for i, k := range keys {
		item := m[k]
		opt := ""
		if item.Optional {
			opt = "?"
		}
		parts[i] = fmt.Sprintf("%d%s: %s", k, opt, item.Value.String())
	}
	return strings.Join(parts, ", ")
}

func describeKnownKeyed(m map[ArrayKey]KnownItem) string {
	keys := make([]ArrayKey, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })
	parts := make([]string, len(keys))
	for i, k := range keys {
		item := m[k]
		opt := ""
		if item.Optional {
			opt = "?"
		}
		parts[i] = fmt.Sprintf("%s%s: %s", k.String(), opt, item.Value.String())
	}
	return strings.Join(parts, ", ")
}

// TIterable is a structural `iterable<K, V>` (foreach-able) type.
type TIterable struct {
	Key           *Union
	Value         *Union
	Intersections []Atomic
}

func (t TIterable) String() string {
	return "iterable<" + t.Key.String() + ", " + t.Value.String() + ">"
}
func (t TIterable) id() string { return t.String() }

// CallableShape is the structural form of TCallable: an explicit parameter
// list, return type, and an effect tag (e.g. "pure", "throws").
type CallableShape struct {
	AliasName string // non-empty when this refers to a named callable/function
	Params    []*Union
	Return    *Union
	Effects   string
}

// TCallable is either a named-callable alias or a structural shape.
type TCallable struct {
	Shape CallableShape
}

func (t TCallable) String() string {
	if t.Shape.AliasName != "" {
		return "callable(" + t.Shape.AliasName + ")"
	}
	parts := make([]string, len(t.Shape.Params))
	for i, p := range t.Shape.Params {
		parts[i] = p.String()
	}
	ret := "mixed"
	if t.Shape.Return != nil {
		ret = t.Shape.Return.String()
	}
	return "(" + strings.Join(parts, ", ") + ") -> " + ret
}
func (t TCallable) id() string { return t.String() }

// GenericParameter is a named type variable bound to a constraint, anchored
// to the class-like or function-like that declares it.
type TGenericParameter struct {
	Name           string
	DefiningEntity string
	Constraint     *Union
	Intersections  []Atomic
}

func (t TGenericParameter) String() string { return t.Name + " (of " + t.DefiningEntity + ")" }
func (t TGenericParameter) id() string     { return t.String() }

// TAlias is an unresolved named type pending the populator's alias
// expansion pass.
type TAlias struct {
	SourceClass string
	AliasName   string
}

func (t TAlias) String() string { return t.SourceClass + "::" + t.AliasName }
func (t TAlias) id() string     { return t.String() }

// UnresolvedRef is a forward reference placeholder used only during
// population (before the named class-like has been scanned).
type UnresolvedRef struct {
	Name string
}

// TReference is a placeholder atomic standing in for a not-yet-populated
// class-like reference.
type TReference struct {
	Ref UnresolvedRef
}

func (t TReference) String() string { return "ref(" + t.Ref.Name + ")" }
func (t TReference) id() string     { return t.String() }

// TypeVariableID identifies an inference variable created during template
// argument solving.
type TypeVariableID uint64

// TVariable is an inference variable, live only during template solving.
type TVariable struct {
	ID TypeVariableID
}

func (t TVariable) String() string { return fmt.Sprintf("#%d", t.ID) }
func (t TVariable) id() string     { return t.String() }
