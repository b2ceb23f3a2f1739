package populator

import (
	"github.com/sentra-analysis/sentra/internal/ast"
	"github.com/sentra-analysis/sentra/internal/lattice"
)

// Codebase is the process-wide metadata table: one ClassLikeMetadata per
// named class-like, plus free functions. It implements lattice.Hierarchy so
// the lattice package can answer subtyping queries against populated
// metadata without importing this package (see internal/lattice/hierarchy.go).
type Codebase struct {
	ClassLikes map[string]*ClassLikeMetadata
	Functions  map[string]*FunctionLikeMetadata

	// symbolRefs records "file -> referenced class-like names", the
	// dependency edges the pipeline's incremental re-analysis walks.
	symbolRefs map[ast.FileID]map[string]bool
}

func NewCodebase() *Codebase {
	return &Codebase{
		ClassLikes: map[string]*ClassLikeMetadata{},
		Functions:  map[string]*FunctionLikeMetadata{},
		symbolRefs: map[ast.FileID]map[string]bool{},
	}
}

// ScanClassLike registers one parsed class-like declaration, unpopulated.
// It writes this codebase's maps without locking; the pipeline calls it
// from its single-threaded merge phase.
func (cb *Codebase) ScanClassLike(decl *ast.ClassLikeDecl) {
	meta := newClassLikeMetadata(decl)
	cb.ClassLikes[decl.Name] = meta
	cb.scanMembers(meta, decl)
}

func (cb *Codebase) scanMembers(meta *ClassLikeMetadata, decl *ast.ClassLikeDecl) {
	for _, p := range decl.Properties {
		meta.Properties[p.Name] = &PropertyMetadata{
			Name:             p.Name,
			Visibility:       p.Visibility,
			AsymmetricSetVis: p.AsymmetricSetVis,
			IsStatic:         p.IsStatic,
			IsReadonly:       p.IsReadonly,
			Type:             buildOrMixed(p.DeclaredType, meta),
			HasDefault:       p.Default != nil,
			DeclaringClass:   meta.Name,
		}
	}
	for _, m := range decl.Methods {
		meta.Methods[m.Name] = true
		id := MethodID{Class: meta.Name, Method: m.Name}
		meta.AppearingMethodIDs[m.Name] = id
		meta.DeclaringMethodIDs[m.Name] = id
		if !m.IsStatic {
			meta.InheritableMethodIDs[m.Name] = id
		}
		cb.Functions[meta.Name+"::"+m.Name] = functionLikeFromMethod(meta.Name, m, meta)
	}
	for _, c := range decl.Constants {
		// Constant value types are resolved by the flow analyzer's constant
		// folding; population only reserves the slot so lookups succeed.
		meta.Constants[c.Name] = lattice.Mixed()
	}
	for name, alias := range decl.TypeAliases {
		meta.TypeAliases[name] = alias
	}
	for _, imp := range decl.TypeAliasImports {
		meta.typeAliasImports = append(meta.typeAliasImports, imp)
	}
}

// ScanFunction registers a free function declaration, unpopulated (free
// functions need no inheritance resolution, so they are ready immediately).
func (cb *Codebase) ScanFunction(decl *ast.FunctionDecl) {
	cb.Functions[decl.Name] = functionLikeFromFunction(decl)
}

func buildOrMixed(n ast.TypeNode, meta *ClassLikeMetadata) *lattice.Union {
	if n == nil {
		return lattice.Mixed()
	}
	return lattice.BuildFromTypeNode(n, templateLookup(meta))
}

func templateLookup(meta *ClassLikeMetadata) func(string) (lattice.TGenericParameter, bool) {
	return func(name string) (lattice.TGenericParameter, bool) {
		if meta == nil {
			return lattice.TGenericParameter{}, false
		}
		for _, tt := range meta.TemplateTypes {
			if tt.Name == name {
				constraint := tt.Constraint
				if constraint == nil {
					constraint = lattice.Mixed()
				}
				return lattice.TGenericParameter{Name: tt.Name, DefiningEntity: tt.DefiningEntity, Constraint: constraint}, true
			}
		}
		return lattice.TGenericParameter{}, false
	}
}

func functionLikeFromMethod(class string, m *ast.MethodDecl, owner *ClassLikeMetadata) *FunctionLikeMetadata {
	lookup := templateLookup(owner)
	fn := &FunctionLikeMetadata{
		Name:               m.Name,
		DeclaringClass:     class,
		ReturnType:         buildTypeOrNil(m.ReturnType, lookup),
		ReturnTypeExplicit: m.ReturnType != nil,
		Visibility:         m.Visibility,
		IsStatic:           m.IsStatic,
		IsAbstract:         m.IsAbstract,
		IsOverride:         m.IsOverride,
		ThrownExplicit:     len(m.ThrownTypes) > 0,
	}
	for _, t := range m.ThrownTypes {
		fn.ThrownTypes = append(fn.ThrownTypes, lattice.BuildFromTypeNode(t, lookup))
	}
	for _, tp := range m.TemplateParams {
		fn.TemplateTypes = append(fn.TemplateTypes, &TemplateType{
			Name: tp.Name, DefiningEntity: class, Variance: lattice.Variance(tp.Variance),
		})
	}
	fn.Parameters = buildParameters(m.Parameters, lookup)
	fn.Assertions = buildAssertions(m.Assertions, lookup)
	return fn
}

func functionLikeFromFunction(f *ast.FunctionDecl) *FunctionLikeMetadata {
	lookup := func(string) (lattice.TGenericParameter, bool) { return lattice.TGenericParameter{}, false }
	fn := &FunctionLikeMetadata{
		Name:               f.Name,
		ReturnType:         buildTypeOrNil(f.ReturnType, lookup),
		ReturnTypeExplicit: f.ReturnType != nil,
		ThrownExplicit:     len(f.ThrownTypes) > 0,
	}
	for _, tp := range f.TemplateParams {
		fn.TemplateTypes = append(fn.TemplateTypes, &TemplateType{
			Name: tp.Name, DefiningEntity: f.Name, Variance: lattice.Variance(tp.Variance),
		})
	}
	for _, t := range f.ThrownTypes {
		fn.ThrownTypes = append(fn.ThrownTypes, lattice.BuildFromTypeNode(t, lookup))
	}
	fn.Parameters = buildParameters(f.Parameters, lookup)
	fn.Assertions = buildAssertions(f.Assertions, lookup)
	return fn
}

func buildTypeOrNil(n ast.TypeNode, lookup func(string) (lattice.TGenericParameter, bool)) *lattice.Union {
	if n == nil {
		return lattice.Mixed()
	}
	return lattice.BuildFromTypeNode(n, lookup)
}

func buildParameters(params []*ast.Parameter, lookup func(string) (lattice.TGenericParameter, bool)) []*ParameterMetadata {
	out := make([]*ParameterMetadata, len(params))
	for i, p := range params {
		pm := &ParameterMetadata{
			Name:       p.Name,
			Type:       buildTypeOrNil(p.DeclaredType, lookup),
			HasDefault: p.Default != nil,
			IsVariadic: p.IsVariadic,
			IsByRef:    p.IsByRef,
		}
		if p.OutType != nil {
			pm.OutType = lattice.BuildFromTypeNode(p.OutType, lookup)
		}
		out[i] = pm
	}
	return out
}

func buildAssertions(assertions []*ast.Assertion, lookup func(string) (lattice.TGenericParameter, bool)) []*ParamAssertion {
	out := make([]*ParamAssertion, 0, len(assertions))
	for _, a := range assertions {
		pa := &ParamAssertion{ParamName: a.ParamName, OnTrue: a.OnTrue, Kind: AssertionKind(a.Kind)}
		if a.TypeArg != nil {
			pa.Type = lattice.BuildFromTypeNode(a.TypeArg, lookup)
		}
		out = append(out, pa)
	}
	return out
}

// --- lattice.Hierarchy ---

func (cb *Codebase) IsSubclassOf(child, parent string) bool {
	if child == parent {
		return true
	}
	meta, ok := cb.ClassLikes[child]
	if !ok {
		return false
	}
	return meta.AllParentClasses[parent] || meta.AllParentInterfaces[parent]
}

func (cb *Codebase) Variance(class string, paramIndex int) lattice.Variance {
	meta, ok := cb.ClassLikes[class]
	if !ok || paramIndex < 0 || paramIndex >= len(meta.TemplateTypes) {
		return lattice.VarianceInvariant
	}
	return meta.TemplateTypes[paramIndex].Variance
}

func (cb *Codebase) DeclaresMember(class, member string, method bool) bool {
	meta, ok := cb.ClassLikes[class]
	if !ok {
		return false
	}
	if method {
		return meta.Methods[member]
	}
	_, exists := meta.Properties[member]
	return exists
}

// RecordSymbolRef notes that file references class-like name, the edge the
// pipeline uses to decide which files need re-analysis after an incremental
// edit to name's declaration.
func (cb *Codebase) RecordSymbolRef(file ast.FileID, name string) {
	refs, ok := cb.symbolRefs[file]
	if !ok {
		refs = map[string]bool{}
		cb.symbolRefs[file] = refs
	}
	refs[name] = true
}

// DependentFiles returns every file that recorded a reference to name.
func (cb *Codebase) DependentFiles(name string) []ast.FileID {
	var out []ast.FileID
	for file, refs := range cb.symbolRefs {
		if refs[name] {
			out = append(out, file)
		}
	}
	return out
}
