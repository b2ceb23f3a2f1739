package populator

import (
	"fmt"

	"github.com/sentra-analysis/sentra/internal/ast"
	"github.com/sentra-analysis/sentra/internal/diagnostics"
	"github.com/sentra-analysis/sentra/internal/lattice"
)

type visitState int

const (
	stateUnvisited visitState = iota
	stateInProgress
	stateDone
)

// Populate runs the single-threaded population pass over the whole
// codebase. Entities named in safeSet keep their prior populated state;
// everything else is reset and re-populated — the idempotent-modulo-safe-set
// contract from spec §4.2.
func Populate(cb *Codebase, safeSet map[string]bool, collector *diagnostics.Collector) {
	state := make(map[string]visitState, len(cb.ClassLikes))

	for name, meta := range cb.ClassLikes {
		if safeSet[name] && meta.IsPopulated {
			state[name] = stateDone
			continue
		}
		resetMetadata(meta)
	}

	for name := range cb.ClassLikes {
		if state[name] == stateDone {
			continue
		}
		populateClass(cb, name, state, collector)
	}

	resolveTypeAliasImports(cb, collector)
	detectAliasCycles(cb, collector)
	buildDescendants(cb)
}

func resetMetadata(m *ClassLikeMetadata) {
	m.IsPopulated = false
	m.AllParentClasses = map[string]bool{}
	m.AllParentInterfaces = map[string]bool{}
	m.InvalidDependencies = map[string]bool{}
	m.DeclaringMethodIDs = make(map[string]MethodID, len(m.AppearingMethodIDs))
	for name, id := range m.AppearingMethodIDs {
		m.DeclaringMethodIDs[name] = id
	}
	m.PotentialDeclaringMethodIDs = map[string][]MethodID{}
	m.OverriddenMethodIDs = map[string][]MethodID{}
	m.TemplateExtendedParameters = map[string]map[string]*lattice.Union{}
	m.TemplateExtendedOffsets = map[string][]*lattice.Union{}
	// AppearingMethodIDs/InheritableMethodIDs/Properties/Methods are
	// scanned straight from the declaration and are not touched by
	// population beyond the inherited additions merged back in below, so
	// they are deliberately left as-is here and extended, not cleared.
}

// populateClass implements step 1's DFS with cycle short-circuiting: a class
// currently on the stack (stateInProgress) is a cycle. It returns true when
// name is itself mid-traversal (a direct cycle hit), so the caller can mark
// its own end of the cycle too — scenario 9 requires both participants to
// end up populated with invalid_dependencies set, not just the one the DFS
// happened to re-enter first.
func populateClass(cb *Codebase, name string, state map[string]visitState, collector *diagnostics.Collector) bool {
	meta, ok := cb.ClassLikes[name]
	if !ok {
		return false
	}
	if state[name] == stateDone {
		return false
	}
	if state[name] == stateInProgress {
		return true
	}
	state[name] = stateInProgress

	for _, trait := range meta.UsedTraits {
		visitTrait(cb, meta, trait, state, collector)
	}
	if meta.DirectParentClass != "" {
		visitParentClass(cb, meta, meta.DirectParentClass, state, collector)
	}
	for _, iface := range meta.DirectParentInterfaces {
		visitParentInterface(cb, meta, iface, state, collector)
	}
	for _, req := range meta.RequireExtends {
		populateClass(cb, req, state, collector)
	}
	for _, req := range meta.RequireImplements {
		populateClass(cb, req, state, collector)
	}

	meta.IsPopulated = true
	state[name] = stateDone

	populateDocblockInheritance(cb, meta)
	return false
}

func emitCycle(meta *ClassLikeMetadata, cyclic string, collector *diagnostics.Collector) {
	if meta.InvalidDependencies[cyclic] {
		return
	}
	meta.InvalidDependencies[cyclic] = true
	if collector == nil {
		return
	}
	collector.Add(diagnostics.New(diagnostics.SeverityError, diagnostics.CodeInheritanceCycle, ast.Span{},
		fmt.Sprintf("%s participates in an inheritance cycle through %s", meta.Name, cyclic)))
}

// visitTrait implements step 2: inherit constants, merge interfaces, import
// methods/properties honouring trait_alias_map, extend templates, recurse.
func visitTrait(cb *Codebase, into *ClassLikeMetadata, traitName string, state map[string]visitState, collector *diagnostics.Collector) {
	trait, ok := cb.ClassLikes[traitName]
	if !ok {
		into.InvalidDependencies[traitName] = true
		if collector != nil {
			collector.Add(diagnostics.New(diagnostics.SeverityError, diagnostics.CodeMissingTrait, ast.Span{},
				fmt.Sprintf("%s uses undefined trait %s", into.Name, traitName)))
		}
		return
	}
	if populateClass(cb, traitName, state, collector) {
		emitCycle(into, traitName, collector)
		emitCycle(trait, into.Name, collector)
		return
	}

	for name := range trait.Constants {
		if existing, ok := into.TraitConstantIDs[name]; ok && existing != traitName {
			if collector != nil {
				collector.Add(diagnostics.New(diagnostics.SeverityError, diagnostics.CodeConflictingTraitConstant, ast.Span{},
					fmt.Sprintf("conflicting constant %s inherited from traits %s and %s", name, existing, traitName)))
			}
		} else {
			into.TraitConstantIDs[name] = traitName
		}
		if _, exists := into.Constants[name]; !exists {
			into.Constants[name] = trait.Constants[name]
		}
	}
	for iface := range trait.AllParentInterfaces {
		into.AllParentInterfaces[iface] = true
	}

	for mname, id := range trait.DeclaringMethodIDs {
		target := mname
		if alias, ok := into.TraitAliasMap[traitName+"::"+mname]; ok {
			target = alias
		}
		if _, exists := into.DeclaringMethodIDs[target]; !exists {
			into.DeclaringMethodIDs[target] = id
			into.Methods[target] = true
			into.InheritableMethodIDs[target] = id
		}
	}
	for pname, prop := range trait.Properties {
		if _, exists := into.Properties[pname]; !exists {
			into.Properties[pname] = prop
		}
	}

	extendTemplates(into, traitName, trait)

	for _, nested := range trait.UsedTraits {
		visitTrait(cb, into, nested, state, collector)
	}
}

// visitParentClass implements step 3.
func visitParentClass(cb *Codebase, child *ClassLikeMetadata, parentName string, state map[string]visitState, collector *diagnostics.Collector) {
	parent, ok := cb.ClassLikes[parentName]
	if !ok {
		child.InvalidDependencies[parentName] = true
		if collector != nil {
			collector.Add(diagnostics.New(diagnostics.SeverityError, diagnostics.CodeInvalidParentClass, ast.Span{},
				fmt.Sprintf("%s extends undefined class %s", child.Name, parentName)))
		}
		return
	}
	if populateClass(cb, parentName, state, collector) {
		emitCycle(child, parentName, collector)
		emitCycle(parent, child.Name, collector)
		return
	}

	child.AllParentClasses[parentName] = true
	for p := range parent.AllParentClasses {
		child.AllParentClasses[p] = true
	}
	for i := range parent.AllParentInterfaces {
		child.AllParentInterfaces[i] = true
	}

	for name, val := range parent.Constants {
		if _, exists := child.Constants[name]; !exists {
			child.Constants[name] = val
		}
	}
	for pname, prop := range parent.Properties {
		if _, shadowed := child.Properties[pname]; !shadowed {
			child.Properties[pname] = prop
		}
	}
	for mname, id := range parent.InheritableMethodIDs {
		if _, shadowed := child.DeclaringMethodIDs[mname]; shadowed {
			child.OverriddenMethodIDs[mname] = append(child.OverriddenMethodIDs[mname], id)
			continue
		}
		child.DeclaringMethodIDs[mname] = id
		child.Methods[mname] = true
		child.InheritableMethodIDs[mname] = id
	}

	extendTemplates(child, parentName, parent)
}

// visitParentInterface implements step 4.
func visitParentInterface(cb *Codebase, child *ClassLikeMetadata, ifaceName string, state map[string]visitState, collector *diagnostics.Collector) {
	iface, ok := cb.ClassLikes[ifaceName]
	if !ok {
		child.InvalidDependencies[ifaceName] = true
		return
	}
	if populateClass(cb, ifaceName, state, collector) {
		emitCycle(child, ifaceName, collector)
		emitCycle(iface, child.Name, collector)
		return
	}

	child.AllParentInterfaces[ifaceName] = true
	for p := range iface.AllParentInterfaces {
		child.AllParentInterfaces[p] = true
	}
	for name, val := range iface.Constants {
		if _, exists := child.Constants[name]; !exists {
			child.Constants[name] = val
		}
	}
	for mname, id := range iface.DeclaringMethodIDs {
		if _, exists := child.PotentialDeclaringMethodIDs[mname]; !exists {
			child.PotentialDeclaringMethodIDs[mname] = nil
		}
		child.PotentialDeclaringMethodIDs[mname] = append(child.PotentialDeclaringMethodIDs[mname], id)
	}
	if len(iface.PermittedInheritors) > 0 {
		child.PermittedInheritors = append(child.PermittedInheritors, iface.PermittedInheritors...)
	}

	extendTemplates(child, ifaceName, iface)
}

// extendTemplates implements step 5: map the child's declared type-argument
// offsets for ancestor onto ancestor's template names, then transitively
// replace leaf GenericParameters in ancestor's own extended-parameters map.
func extendTemplates(child *ClassLikeMetadata, ancestorName string, ancestor *ClassLikeMetadata) {
	offsets := child.TemplateExtendedOffsets[ancestorName]
	if len(offsets) > 0 {
		bound := make(map[string]*lattice.Union, len(offsets))
		for i, arg := range offsets {
			if i >= len(ancestor.TemplateTypes) {
				break
			}
			bound[ancestor.TemplateTypes[i].Name] = arg
		}
		child.TemplateExtendedParameters[ancestorName] = bound
	}

	for grandAncestor, params := range ancestor.TemplateExtendedParameters {
		substituted := make(map[string]*lattice.Union, len(params))
		childBound := child.TemplateExtendedParameters[ancestorName]
		for name, u := range params {
			substituted[name] = substituteGenericParams(u, childBound)
		}
		if _, exists := child.TemplateExtendedParameters[grandAncestor]; !exists {
			child.TemplateExtendedParameters[grandAncestor] = substituted
		}
	}
}

// substituteGenericParams replaces every TGenericParameter leaf whose name
// is a key of bound with the corresponding extended union, leaving
// everything else untouched. nil bound is a no-op.
func substituteGenericParams(u *lattice.Union, bound map[string]*lattice.Union) *lattice.Union {
	if u == nil || bound == nil {
		return u
	}
	return u.Map(func(a lattice.Atomic) lattice.Atomic {
		gp, ok := a.(lattice.TGenericParameter)
		if !ok {
			return a
		}
		if repl, ok := bound[gp.Name]; ok && len(repl.Atomics) == 1 {
			return repl.Atomics[0]
		}
		return a
	})
}

// populateDocblockInheritance implements step 8 for each overridden method
// of meta: select a parent method via priority (direct parent class first,
// then interfaces in declaration order, then traits), and fill in any field
// the child left unannotated.
func populateDocblockInheritance(cb *Codebase, meta *ClassLikeMetadata) {
	for mname := range meta.Methods {
		child, ok := cb.Functions[meta.Name+"::"+mname]
		if !ok || !child.IsOverride {
			continue
		}
		source := selectInheritanceSource(cb, meta, mname)
		if source == nil {
			continue
		}
		bound := meta.TemplateExtendedParameters[source.DeclaringClass]
		if !child.ReturnTypeExplicit {
			child.ReturnType = substituteGenericParams(source.ReturnType, bound)
		}
		if !child.ThrownExplicit && len(child.ThrownTypes) == 0 {
			for _, t := range source.ThrownTypes {
				child.ThrownTypes = append(child.ThrownTypes, substituteGenericParams(t, bound))
			}
		}
		if len(child.Parameters) == len(source.Parameters) {
			for i, p := range child.Parameters {
				if p.Type == nil || p.Type.IsNever() {
					p.Type = substituteGenericParams(source.Parameters[i].Type, bound)
				}
			}
		}
		if len(child.Assertions) == 0 {
			child.Assertions = source.Assertions
		}
	}
}

func selectInheritanceSource(cb *Codebase, meta *ClassLikeMetadata, method string) *FunctionLikeMetadata {
	if meta.DirectParentClass != "" {
		if fn, ok := cb.Functions[meta.DirectParentClass+"::"+method]; ok {
			return fn
		}
	}
	for _, iface := range meta.DirectParentInterfaces {
		if fn, ok := cb.Functions[iface+"::"+method]; ok {
			return fn
		}
	}
	for _, trait := range meta.UsedTraits {
		if fn, ok := cb.Functions[trait+"::"+method]; ok {
			return fn
		}
	}
	return nil
}

// resolveTypeAliasImports implements step 6: for each `import type X from Y`
// copy Y's alias entry wrapped with Alias{Y,X}, or diagnose the two failure
// modes.
func resolveTypeAliasImports(cb *Codebase, collector *diagnostics.Collector) {
	for _, meta := range cb.ClassLikes {
		for _, imp := range meta.typeAliasImports {
			source, ok := cb.ClassLikes[imp.FromClass]
			if !ok {
				if collector != nil {
					collector.Add(diagnostics.New(diagnostics.SeverityError, diagnostics.CodeUnknownClassInImportType, imp.Pos,
						fmt.Sprintf("unknown class %s in import type", imp.FromClass)))
				}
				continue
			}
			if _, exists := source.TypeAliases[imp.AliasName]; !exists {
				if collector != nil {
					collector.Add(diagnostics.New(diagnostics.SeverityError, diagnostics.CodeInvalidImportType, imp.Pos,
						fmt.Sprintf("%s does not define type alias %s", imp.FromClass, imp.AliasName)))
				}
				continue
			}
			meta.ImportedAliases[imp.AliasName] = lattice.NewUnion(lattice.TAlias{SourceClass: imp.FromClass, AliasName: imp.AliasName})
		}
	}
}

// detectAliasCycles implements step 7: a DFS over alias definitions per
// class-like with a visiting set, reporting circular chains.
func detectAliasCycles(cb *Codebase, collector *diagnostics.Collector) {
	for _, meta := range cb.ClassLikes {
		for name := range meta.TypeAliases {
			visiting := map[string]bool{}
			if aliasCycleDFS(cb, meta, name, visiting) {
				if collector != nil {
					collector.Add(diagnostics.New(diagnostics.SeverityError, diagnostics.CodeCircularTypeImport, ast.Span{},
						fmt.Sprintf("circular type alias chain starting at %s::%s", meta.Name, name)))
				}
			}
		}
	}
}

func aliasCycleDFS(cb *Codebase, meta *ClassLikeMetadata, aliasName string, visiting map[string]bool) bool {
	key := meta.Name + "::" + aliasName
	if visiting[key] {
		return true
	}
	visiting[key] = true
	defer delete(visiting, key)

	node, ok := meta.TypeAliases[aliasName]
	if !ok {
		return false
	}
	named, ok := node.(*ast.NamedTypeNode)
	if !ok {
		return false
	}
	if _, isOwnAlias := meta.TypeAliases[named.Name]; isOwnAlias {
		return aliasCycleDFS(cb, meta, named.Name, visiting)
	}
	return false
}

// buildDescendants implements step 9: invert AllParentClasses/
// AllParentInterfaces into direct/all descendant maps.
func buildDescendants(cb *Codebase) {
	for name, meta := range cb.ClassLikes {
		if meta.DirectParentClass != "" {
			if parent, ok := cb.ClassLikes[meta.DirectParentClass]; ok {
				parent.DirectDescendants[name] = true
			}
		}
		for _, iface := range meta.DirectParentInterfaces {
			if p, ok := cb.ClassLikes[iface]; ok {
				p.DirectDescendants[name] = true
			}
		}
	}
	for name, meta := range cb.ClassLikes {
		for ancestor := range meta.AllParentClasses {
			if p, ok := cb.ClassLikes[ancestor]; ok {
				p.AllDescendants[name] = true
			}
		}
		for ancestor := range meta.AllParentInterfaces {
			if p, ok := cb.ClassLikes[ancestor]; ok {
				p.AllDescendants[name] = true
			}
		}
	}
}
