package lattice

import "github.com/sentra-analysis/sentra/internal/ast"

// wellKnownNamed maps bare type-DSL names onto atomics that would otherwise
// round-trip through TObjectNamed, mirroring the teacher's type-string
// parser special-casing scalar keywords before falling back to a class
// reference (internal/typesystem in funvibe/funxy).
var wellKnownNamed = map[string]func() Atomic{
	"int":     func() Atomic { return TInteger{Domain: UnspecifiedInt()} },
	"integer": func() Atomic { return TInteger{Domain: UnspecifiedInt()} },
	"float":   func() Atomic { return TFloat{} },
	"double":  func() Atomic { return TFloat{} },
	"string":  func() Atomic { return TString{} },
	"bool":    func() Atomic { return TBool{} },
	"boolean": func() Atomic { return TBool{} },
	"true":    func() Atomic { b := true; return TBool{Literal: &b} },
	"false":   func() Atomic { b := false; return TBool{Literal: &b} },
	"null":    func() Atomic { return TNull{} },
	"void":    func() Atomic { return TVoid{} },
	"never":   func() Atomic { return TNever{} },
	"mixed":   func() Atomic { return TMixed{Props: MixedProps{Vanilla: true}} },
	"object":  func() Atomic { return TObjectAny{} },
	"array-key": func() Atomic { return TArrayKey{} },
	"numeric":   func() Atomic { return TNumeric{} },
	"scalar":    func() Atomic { return TScalarGeneric{} },
	"resource":  func() Atomic { return TResource{} },
	"non-empty-string": func() Atomic {
		return TString{Props: StringProps{IsNonEmpty: true}}
	},
	"numeric-string": func() Atomic {
		return TString{Props: StringProps{IsNumeric: true}}
	},
	"lowercase-string": func() Atomic {
		return TString{Props: StringProps{IsLowercase: true}}
	},
}

// BuildFromTypeNode lowers a parsed type-DSL node into a Union. templates
// resolves a bare name to a TGenericParameter when it names an in-scope
// template parameter of the enclosing class-like/function-like; pass nil
// when no template scope applies.
func BuildFromTypeNode(n ast.TypeNode, templates func(name string) (TGenericParameter, bool)) *Union {
	if n == nil {
		return Mixed()
	}
	switch t := n.(type) {
	case *ast.NamedTypeNode:
		return NewUnion(buildNamedAtomic(t.Name, nil, templates))

	case *ast.GenericTypeNode:
		return buildGeneric(t, templates)

	case *ast.UnionTypeNode:
		acc := Never()
		for _, m := range t.Members {
			acc = Join(acc, BuildFromTypeNode(m, templates))
		}
		return acc

	case *ast.IntersectionTypeNode:
		return buildIntersection(t, templates)

	case *ast.NullableTypeNode:
		return Join(BuildFromTypeNode(t.Inner, templates), Null())

	case *ast.LiteralTypeNode:
		return NewUnion(buildLiteralAtomic(t.Lit))

	case *ast.ArrayShapeTypeNode:
		return buildArrayShape(t, templates)

	case *ast.CallableTypeNode:
		params := make([]*Union, len(t.Params))
		for i, p := range t.Params {
			params[i] = BuildFromTypeNode(p, templates)
		}
		ret := Mixed()
		if t.ReturnType != nil {
			ret = BuildFromTypeNode(t.ReturnType, templates)
		}
		return NewUnion(TCallable{Shape: CallableShape{Params: params, Return: ret}})

	case *ast.ClassLikeStringTypeNode:
		if t.Of == nil {
			return NewUnion(TClassLikeString{})
		}
		named, ok := t.Of.(*ast.NamedTypeNode)
		if !ok {
			return NewUnion(TClassLikeString{})
		}
		return NewUnion(TClassLikeString{Of: &ClassRef{Name: named.Name}})

	default:
		return Mixed()
	}
}

func buildNamedAtomic(name string, typeArgs []*Union, templates func(string) (TGenericParameter, bool)) Atomic {
	if ctor, ok := wellKnownNamed[name]; ok && len(typeArgs) == 0 {
		return ctor()
	}
	if templates != nil {
		if gp, ok := templates(name); ok {
			return gp
		}
	}
	return TObjectNamed{Name: name, TypeArgs: typeArgs}
}

func buildGeneric(t *ast.GenericTypeNode, templates func(string) (TGenericParameter, bool)) *Union {
	switch t.Name {
	case "list":
		if len(t.Args) == 1 {
			return NewUnion(TList{Element: BuildFromTypeNode(t.Args[0], templates)})
		}
	case "non-empty-list":
		if len(t.Args) == 1 {
			return NewUnion(TList{Element: BuildFromTypeNode(t.Args[0], templates), NonEmpty: true})
		}
	case "array":
		if len(t.Args) == 2 {
			return NewUnion(TKeyed{
				ParamKey:   BuildFromTypeNode(t.Args[0], templates),
				ParamValue: BuildFromTypeNode(t.Args[1], templates),
			})
		}
	case "non-empty-array":
		if len(t.Args) == 2 {
			return NewUnion(TKeyed{
				ParamKey:   BuildFromTypeNode(t.Args[0], templates),
				ParamValue: BuildFromTypeNode(t.Args[1], templates),
				NonEmpty:   true,
			})
		}
	case "iterable":
		if len(t.Args) == 2 {
			return NewUnion(TIterable{Key: BuildFromTypeNode(t.Args[0], templates), Value: BuildFromTypeNode(t.Args[1], templates)})
		}
		if len(t.Args) == 1 {
			return NewUnion(TIterable{Key: Mixed(), Value: BuildFromTypeNode(t.Args[0], templates)})
		}
	case "class-string":
		if len(t.Args) == 1 {
			if named, ok := t.Args[0].(*ast.NamedTypeNode); ok {
				return NewUnion(TClassLikeString{Of: &ClassRef{Name: named.Name}})
			}
		}
	}
	args := make([]*Union, len(t.Args))
	for i, a := range t.Args {
		args[i] = BuildFromTypeNode(a, templates)
	}
	return NewUnion(buildNamedAtomic(t.Name, args, templates))
}

// buildIntersection combines object-family atomics into a single
// TObjectNamed/TObjectAny carrying the rest as its intersection list, the
// same representation Intersect produces for two object atomics.
func buildIntersection(t *ast.IntersectionTypeNode, templates func(string) (TGenericParameter, bool)) *Union {
	if len(t.Members) == 0 {
		return Mixed()
	}
	head := BuildFromTypeNode(t.Members[0], templates)
	result, ok := head, true
	for _, m := range t.Members[1:] {
		next := BuildFromTypeNode(m, templates)
		result, ok = Intersect(result, next, NullHierarchy{})
		if !ok {
			return Never()
		}
	}
	return result
}

func buildLiteralAtomic(l *ast.Literal) Atomic {
	if l == nil {
		return TMixed{}
	}
	switch l.Kind {
	case ast.LiteralInt:
		return TInteger{Domain: LiteralInt(l.IntValue)}
	case ast.LiteralFloat:
		v := l.FloatValue
		return TFloat{Literal: &v}
	case ast.LiteralString:
		v := l.StringValue
		return TString{Props: StringProps{Literal: &v}}
	case ast.LiteralBool:
		v := l.BoolValue
		return TBool{Literal: &v}
	case ast.LiteralNull:
		return TNull{}
	default:
		return TMixed{}
	}
}

func buildArrayShape(t *ast.ArrayShapeTypeNode, templates func(string) (TGenericParameter, bool)) *Union {
	if t.IsList {
		elem := Mixed()
		if len(t.Entries) == 1 {
			elem = BuildFromTypeNode(t.Entries[0].Value, templates)
		}
		return NewUnion(TList{Element: elem, NonEmpty: t.NonEmpty})
	}

	allInt := true
	items := make(map[ArrayKey]KnownItem, len(t.Entries))
	nextIdx := int64(0)
	for _, e := range t.Entries {
		val := BuildFromTypeNode(e.Value, templates)
		if e.Key == "" {
			items[ArrayKey{IntKey: nextIdx}] = KnownItem{Optional: e.Optional, Value: val}
			nextIdx++
			continue
		}
		allInt = false
		items[ArrayKey{IsString: true, StrKey: e.Key}] = KnownItem{Optional: e.Optional, Value: val}
	}
	_ = allInt
	return NewUnion(TKeyed{KnownItems: items, NonEmpty: t.NonEmpty || len(items) > 0})
}
