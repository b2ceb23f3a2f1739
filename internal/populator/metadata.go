// Package populator implements the metadata populator (component B): it
// flattens inheritance graphs (classes, interfaces, traits), resolves
// template extension, propagates docblock-inherited signatures, and detects
// inheritance cycles and type-alias cycles.
//
// Grounded on the teacher's internal/symbols (funvibe/funxy): a process-wide
// table of named entries keyed by string, built by a single population pass
// and then treated as read-only by the rest of the pipeline.
package populator

import (
	"github.com/sentra-analysis/sentra/internal/ast"
	"github.com/sentra-analysis/sentra/internal/lattice"
)

// MethodID identifies a method by the class-like that declares it plus its
// name, mirroring the spec's (NameId, NameId) composite key without an atom
// interner — Go's native string maps already give O(1) lookup.
type MethodID struct {
	Class  string
	Method string
}

// PropertyMetadata is one property's populated signature.
type PropertyMetadata struct {
	Name             string
	Visibility       ast.Visibility
	AsymmetricSetVis *ast.Visibility
	IsStatic         bool
	IsReadonly       bool
	Type             *lattice.Union
	HasDefault       bool
	DeclaringClass   string
}

// ParameterMetadata is one parameter's populated signature.
type ParameterMetadata struct {
	Name       string
	Type       *lattice.Union
	OutType    *lattice.Union // nil unless a by-ref parameter declares a distinct post-call type
	HasDefault bool
	IsVariadic bool
	IsByRef    bool
}

// AssertionKind mirrors ast.Assertion.Kind as a closed set the reconciler
// interprets; kept as a string type so the populator need not import the
// reconciler package.
type AssertionKind string

// ParamAssertion is a populated post-condition on a parameter, ready for the
// flow analyzer to queue onto a caller's clause store after a call.
type ParamAssertion struct {
	ParamName string
	OnTrue    bool
	Kind      AssertionKind
	Type      *lattice.Union
}

// FunctionLikeMetadata is the populated signature of a function or method:
// parameters, return type, thrown types, template parameters, and the
// assertions a caller may apply to its own bindings after a call.
type FunctionLikeMetadata struct {
	Name           string
	DeclaringClass string // "" for free functions

	Parameters  []*ParameterMetadata
	ReturnType  *lattice.Union
	ThrownTypes []*lattice.Union

	TemplateTypes []*TemplateType

	Assertions []*ParamAssertion

	Visibility ast.Visibility
	IsStatic   bool
	IsAbstract bool

	// IsOverride and the two docblock-provenance flags let step 8 of populate
	// decide which fields to overwrite with an inherited signature without
	// clobbering a child's own documentation.
	IsOverride         bool
	ReturnTypeExplicit bool
	ThrownExplicit     bool
}

// TemplateType is one entry of a class-like or function-like's declared
// template parameter list: OrderedMap<TemplateName, (DefiningEntity,
// Constraint)> from the spec, represented positionally since Go map
// iteration order is undefined and declaration order matters for
// `template_extended_offsets`.
type TemplateType struct {
	Name           string
	DefiningEntity string
	Constraint     *lattice.Union
	Variance       lattice.Variance
}

// ClassLikeMetadata is the populated descriptor for one class, interface,
// trait, or enum, accumulated in place by Populate.
type ClassLikeMetadata struct {
	Name string
	Kind ast.ClassLikeKind

	IsPopulated             bool
	IsUserDefined            bool
	IsReadonly               bool
	IsAbstract               bool
	IsFinal                  bool
	HasConsistentConstructor bool
	HasConsistentTemplates   bool

	DirectParentClass      string
	DirectParentInterfaces []string
	UsedTraits             []string
	RequireExtends         []string
	RequireImplements      []string
	PermittedInheritors    []string

	AllParentClasses     map[string]bool
	AllParentInterfaces  map[string]bool
	DirectDescendants    map[string]bool
	AllDescendants        map[string]bool

	Properties map[string]*PropertyMetadata
	Methods    map[string]bool

	AppearingMethodIDs          map[string]MethodID
	DeclaringMethodIDs          map[string]MethodID
	InheritableMethodIDs        map[string]MethodID
	PotentialDeclaringMethodIDs map[string][]MethodID
	OverriddenMethodIDs         map[string][]MethodID

	Constants       map[string]*lattice.Union
	EnumCases       map[string]bool
	TypeAliases     map[string]ast.TypeNode
	ImportedAliases map[string]*lattice.Union

	TemplateTypes             []*TemplateType
	TemplateExtendedParameters map[string]map[string]*lattice.Union
	TemplateExtendedOffsets    map[string][]*lattice.Union
	TraitAliasMap              map[string]string
	TraitConstantIDs           map[string]string

	InvalidDependencies map[string]bool

	// typeAliasImports holds the scanned `import type X from Y` clauses,
	// resolved by populate step 6.
	typeAliasImports []*ast.TypeAliasImport
}

func newClassLikeMetadata(decl *ast.ClassLikeDecl) *ClassLikeMetadata {
	m := &ClassLikeMetadata{
		Name:                decl.Name,
		Kind:                decl.Kind,
		IsUserDefined:       true,
		IsReadonly:          decl.IsReadonly,
		IsAbstract:          decl.IsAbstract,
		IsFinal:             decl.IsFinal,
		DirectParentClass:   decl.ParentClass,
		RequireExtends:      decl.RequireExtends,
		RequireImplements:   decl.RequireImplements,
		PermittedInheritors: decl.PermittedInheritors,

		AllParentClasses:    map[string]bool{},
		AllParentInterfaces: map[string]bool{},
		DirectDescendants:   map[string]bool{},
		AllDescendants:      map[string]bool{},

		Properties: map[string]*PropertyMetadata{},
		Methods:    map[string]bool{},

		AppearingMethodIDs:          map[string]MethodID{},
		DeclaringMethodIDs:          map[string]MethodID{},
		InheritableMethodIDs:        map[string]MethodID{},
		PotentialDeclaringMethodIDs: map[string][]MethodID{},
		OverriddenMethodIDs:         map[string][]MethodID{},

		Constants:       map[string]*lattice.Union{},
		EnumCases:       map[string]bool{},
		TypeAliases:     map[string]ast.TypeNode{},
		ImportedAliases: map[string]*lattice.Union{},

		TemplateExtendedParameters: map[string]map[string]*lattice.Union{},
		TemplateExtendedOffsets:    map[string][]*lattice.Union{},
		TraitAliasMap:              map[string]string{},
		TraitConstantIDs:           map[string]string{},

		InvalidDependencies: map[string]bool{},
	}

	for _, iface := range decl.ParentInterfaces {
		m.DirectParentInterfaces = append(m.DirectParentInterfaces, iface)
	}
	for _, use := range decl.Traits {
		m.UsedTraits = append(m.UsedTraits, use.Traits...)
		for k, v := range use.AliasMap {
			m.TraitAliasMap[k] = v
		}
	}
	for _, c := range decl.EnumCases {
		m.EnumCases[c.Name] = true
	}
	for _, tp := range decl.TemplateParams {
		m.TemplateTypes = append(m.TemplateTypes, &TemplateType{
			Name:           tp.Name,
			DefiningEntity: decl.Name,
			Variance:       lattice.Variance(tp.Variance),
		})
	}
	return m
}
