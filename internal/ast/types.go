package ast

// TypeNode is the syntax tree produced by the secondary type-DSL grammar
// (§6 of the specification) that appears inside structured documentation
// comments and type annotations. It is lowered into the lattice's
// Union/TAtomic representation by internal/lattice's builder, not consumed
// directly by the flow analyzer.
type TypeNode interface {
	Span() Span
	typeNode()
}

// NamedTypeNode is a bare identifier, optionally qualified or
// backslash-prefixed, e.g. `Foo`, `Ns\Foo`.
type NamedTypeNode struct {
	Pos  Span
	Name string
}

func (n *NamedTypeNode) Span() Span { return n.Pos }
func (n *NamedTypeNode) typeNode()  {}

// GenericTypeNode is `Name<Args...>`, e.g. `List<int>`, `Map<string, User>`.
type GenericTypeNode struct {
	Pos  Span
	Name string
	Args []TypeNode
}

func (n *GenericTypeNode) Span() Span { return n.Pos }
func (n *GenericTypeNode) typeNode()  {}

// UnionTypeNode is `A | B | C`.
type UnionTypeNode struct {
	Pos     Span
	Members []TypeNode
}

func (n *UnionTypeNode) Span() Span { return n.Pos }
func (n *UnionTypeNode) typeNode()  {}

// IntersectionTypeNode is `A & B`, valid for object/iterable members.
type IntersectionTypeNode struct {
	Pos     Span
	Members []TypeNode
}

func (n *IntersectionTypeNode) Span() Span { return n.Pos }
func (n *IntersectionTypeNode) typeNode()  {}

// NullableTypeNode is `?T`, sugar for `T | null`.
type NullableTypeNode struct {
	Pos   Span
	Inner TypeNode
}

func (n *NullableTypeNode) Span() Span { return n.Pos }
func (n *NullableTypeNode) typeNode()  {}

// LiteralTypeNode is a literal int/float/string/bool used as a type, e.g.
// the docblock type `5` or `"active"`.
type LiteralTypeNode struct {
	Pos Span
	Lit *Literal
}

func (n *LiteralTypeNode) Span() Span { return n.Pos }
func (n *LiteralTypeNode) typeNode()  {}

// ArrayShapeEntry is one entry of an array shape type, e.g. `x: int` or the
// optional-key form `x?: int`.
type ArrayShapeEntry struct {
	Key      string // "" for a non-literal/unknown key (list-style shapes)
	Optional bool
	Value    TypeNode
}

// ArrayShapeTypeNode is `array{x: int, y?: string}` or the bracketed list
// form `int[]` (represented with a single unkeyed Entries[0]).
type ArrayShapeTypeNode struct {
	Pos      Span
	Entries  []*ArrayShapeEntry
	IsList   bool // true for `T[]`/`list<T>` sugar
	NonEmpty bool // `non-empty-array{...}` / `non-empty-list<T>`
}

func (n *ArrayShapeTypeNode) Span() Span { return n.Pos }
func (n *ArrayShapeTypeNode) typeNode()  {}

// CallableTypeNode is `(ParamTypes...) -> ReturnType`.
type CallableTypeNode struct {
	Pos        Span
	Params     []TypeNode
	ReturnType TypeNode
}

func (n *CallableTypeNode) Span() Span { return n.Pos }
func (n *CallableTypeNode) typeNode()  {}

// ClassLikeStringTypeNode is `class-string<Foo>`.
type ClassLikeStringTypeNode struct {
	Pos Span
	Of  TypeNode // nil for bare `class-string`
}

func (n *ClassLikeStringTypeNode) Span() Span { return n.Pos }
func (n *ClassLikeStringTypeNode) typeNode()  {}

// DefaultedTypeParam is not produced by the grammar directly but reserved
// for generic-parameter constraint expressions of the form `T = default`.
type DefaultedTypeParam struct {
	Pos     Span
	Name    string
	Default TypeNode
}
