package pipeline

import (
	"github.com/sentra-analysis/sentra/internal/ast"
	"github.com/sentra-analysis/sentra/internal/populator"
)

// DependencyGraph answers "which files must re-analyze" after an edit, for
// watch mode and LSP incremental re-analysis (spec.md §5: "re-runs phase 3
// only on the changed files and files depending on them, dependency edges
// derived from symbol_references recorded during populate"). It pairs the
// merge phase's "symbol name -> declaring file" map with the populated
// Codebase's own "file -> referenced symbol names" edges
// (populator.Codebase.RecordSymbolRef/DependentFiles).
type DependencyGraph struct {
	declaredIn map[string]ast.FileID
	codebase   *populator.Codebase
}

func newDependencyGraph() *DependencyGraph {
	return &DependencyGraph{declaredIn: map[string]ast.FileID{}}
}

func (g *DependencyGraph) recordDeclaration(name string, file ast.FileID) {
	g.declaredIn[name] = file
}

// recordClassLikeRefs records a file's hierarchy-level symbol references —
// its parent class, parent interfaces, required extends/implements, and
// used traits — into cb during the single-threaded merge phase. This is
// deliberately narrower than every type name appearing in the file's
// bodies (which only the analyze phase, run in parallel, can see): those
// would need a worker to mutate shared metadata, violating the analyze
// phase's read-only contract, so incremental re-analysis here tracks
// declaration-level (inheritance/trait) dependencies rather than
// call-site-level ones.
func recordClassLikeRefs(cb *populator.Codebase, file ast.FileID, decl *ast.ClassLikeDecl) {
	if decl.ParentClass != "" {
		cb.RecordSymbolRef(file, decl.ParentClass)
	}
	for _, name := range decl.ParentInterfaces {
		cb.RecordSymbolRef(file, name)
	}
	for _, name := range decl.RequireExtends {
		cb.RecordSymbolRef(file, name)
	}
	for _, name := range decl.RequireImplements {
		cb.RecordSymbolRef(file, name)
	}
	for _, use := range decl.Traits {
		for _, name := range use.Traits {
			cb.RecordSymbolRef(file, name)
		}
	}
}

// DeclaringFile returns the file that declares name, and whether one was
// recorded during the scan.
func (g *DependencyGraph) DeclaringFile(name string) (ast.FileID, bool) {
	f, ok := g.declaredIn[name]
	return f, ok
}

// AffectedFiles returns the transitive closure of files that must
// re-analyze when any file in changed is edited: the changed files
// themselves, plus every file that referenced a symbol declared in a
// changed file, plus every file referencing a symbol declared in one of
// those, and so on.
func (g *DependencyGraph) AffectedFiles(changed []ast.FileID) []ast.FileID {
	affected := map[ast.FileID]bool{}
	for _, f := range changed {
		affected[f] = true
	}

	queue := append([]ast.FileID{}, changed...)
	for len(queue) > 0 {
		file := queue[0]
		queue = queue[1:]

		for name, declaredIn := range g.declaredIn {
			if declaredIn != file {
				continue
			}
			for _, dependent := range g.codebase.DependentFiles(name) {
				if !affected[dependent] {
					affected[dependent] = true
					queue = append(queue, dependent)
				}
			}
		}
	}

	out := make([]ast.FileID, 0, len(affected))
	for f := range affected {
		out = append(out, f)
	}
	return out
}
