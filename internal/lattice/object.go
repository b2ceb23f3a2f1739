package lattice

import (
	"sort"
	"strings"
)

// TObjectAny is `object`, any object instance whatsoever.
type TObjectAny struct{}

func (t TObjectAny) String() string { return "object" }
func (t TObjectAny) id() string     { return t.String() }

// TObjectNamed is an instance of a named class-like, optionally
// parameterised by template arguments and carrying an intersection list of
// other object atomics that must simultaneously hold.
type TObjectNamed struct {
	Name          string
	TypeArgs      []*Union
	Intersections []Atomic // additional Object atomics (HasMethod/HasProperty/other Named) ANDed in
}

func (t TObjectNamed) String() string {
	s := t.Name
	if len(t.TypeArgs) > 0 {
		parts := make([]string, len(t.TypeArgs))
		for i, a := range t.TypeArgs {
			parts[i] = a.String()
		}
		s += "<" + strings.Join(parts, ", ") + ">"
	}
	for _, in := range t.Intersections {
		s += "&" + in.String()
	}
	return s
}
func (t TObjectNamed) id() string { return t.String() }

// TObjectWithProperties is a structural object shape, matched by any object
// carrying (at least) the named properties with compatible types.
type TObjectWithProperties struct {
	Props map[string]*Union
}

func (t TObjectWithProperties) String() string {
	keys := sortedKeys(t.Props)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + ": " + t.Props[k].String()
	}
	return "object{" + strings.Join(parts, ", ") + "}"
}
func (t TObjectWithProperties) id() string { return t.String() }

// TObjectHasMethod is the structural intersection member produced when the
// reconciler narrows a `HasMethod` assertion against an object whose class
// doesn't statically declare the method (§4.3).
type TObjectHasMethod struct {
	Name          string
	Intersections []Atomic
}

func (t TObjectHasMethod) String() string { return "hasmethod(" + t.Name + ")" }
func (t TObjectHasMethod) id() string     { return t.String() }

// TObjectHasProperty mirrors TObjectHasMethod for property access.
type TObjectHasProperty struct {
	Name          string
	Intersections []Atomic
}

func (t TObjectHasProperty) String() string { return "hasproperty(" + t.Name + ")" }
func (t TObjectHasProperty) id() string     { return t.String() }

// TObjectEnum is an instance of a named enum, optionally narrowed to one
// specific case.
type TObjectEnum struct {
	Name string
	Case string // "" = any case of this enum
}

func (t TObjectEnum) String() string {
	if t.Case == "" {
		return t.Name
	}
	return t.Name + "::" + t.Case
}
func (t TObjectEnum) id() string { return t.String() }

func sortedKeys(m map[string]*Union) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
