// Package pipeline implements the three-phase scheduling model spec.md §5
// describes: a parallel per-file scan, a single-threaded merge+populate,
// and a parallel per-file analyze — "parallel threads, shared-nothing per
// file" for phases 1 and 3, strictly sequential for phase 2 because
// population mutates the whole metadata store and is cycle-sensitive.
//
// Concurrency uses golang.org/x/sync/errgroup, already an indirect
// dependency of the teacher's own go.mod (pulled in transitively through
// golang.org/x/tools) and the same worker-fan-out idiom the wider Go
// ecosystem reaches for over hand-rolled WaitGroup/channel plumbing.
package pipeline

import (
	"context"
	"runtime"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/sentra-analysis/sentra/internal/ast"
	"github.com/sentra-analysis/sentra/internal/diagnostics"
	"github.com/sentra-analysis/sentra/internal/populator"
)

// FileScan is the thread-local result of phase 1 for one file: parsing and
// per-file scanning are external collaborators (per the input contract),
// so a Pipeline never parses anything itself — ScanFunc hands back the
// declarations already parsed out of one file.
type FileScan struct {
	File       ast.FileID
	ClassLikes []*ast.ClassLikeDecl
	Functions  []*ast.FunctionDecl
}

// ScanFunc parses and scans one file. Called concurrently across files;
// implementations must not share mutable state between calls.
type ScanFunc func(ctx context.Context, file ast.FileID) (*FileScan, error)

// AnalyzeFunc runs the flow analyzer over one file's function-like bodies
// against the already-populated Codebase. Called concurrently across
// files; implementations must only read cb, never mutate it.
type AnalyzeFunc func(ctx context.Context, file ast.FileID, cb *populator.Codebase) ([]*diagnostics.Issue, error)

// Result is one pipeline run's product.
type Result struct {
	RunID     uuid.UUID
	Codebase  *populator.Codebase
	Collector *diagnostics.Collector
	Graph     *DependencyGraph
}

// Pipeline drives the three phases over a file set.
type Pipeline struct {
	// Concurrency bounds how many files are in flight at once during the
	// scan and analyze phases. Zero means runtime.GOMAXPROCS(0).
	Concurrency int
}

// New returns a Pipeline with the given worker concurrency (0 = GOMAXPROCS).
func New(concurrency int) *Pipeline {
	return &Pipeline{Concurrency: concurrency}
}

func (p *Pipeline) workers() int {
	if p.Concurrency > 0 {
		return p.Concurrency
	}
	return runtime.GOMAXPROCS(0)
}

// Run executes all three phases over files and returns the populated
// codebase, the deduplicated issue collector, and the dependency graph
// built from the scan. safeSet is forwarded to populator.Populate
// unchanged (the set of class-likes the host considers safe to analyze
// even without full vendor metadata).
func (p *Pipeline) Run(ctx context.Context, files []ast.FileID, scan ScanFunc, analyze AnalyzeFunc, safeSet map[string]bool) (*Result, error) {
	scans, err := p.scanPhase(ctx, files, scan)
	if err != nil {
		return nil, err
	}

	collector := diagnostics.NewCollector()
	cb, graph := p.mergePhase(scans, safeSet, collector)

	if err := p.analyzePhase(ctx, files, cb, analyze, collector); err != nil {
		return nil, err
	}

	runID, err := uuid.NewRandom()
	if err != nil {
		return nil, err
	}

	return &Result{RunID: runID, Codebase: cb, Collector: collector, Graph: graph}, nil
}

// scanPhase parses/scans every file in parallel, each into its own
// FileScan — no shared mutable state is touched.
func (p *Pipeline) scanPhase(ctx context.Context, files []ast.FileID, scan ScanFunc) ([]*FileScan, error) {
	results := make([]*FileScan, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers())

	for i, file := range files {
		i, file := i, file
		g.Go(func() error {
			fs, err := scan(gctx, file)
			if err != nil {
				return err
			}
			results[i] = fs
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// mergePhase folds every FileScan into one Codebase on the calling
// goroutine, runs the populator over the merged result, and builds the
// dependency graph used for incremental re-analysis. This phase is
// intentionally single-threaded: population mutates the whole metadata
// store and is cycle-sensitive.
func (p *Pipeline) mergePhase(scans []*FileScan, safeSet map[string]bool, collector *diagnostics.Collector) (*populator.Codebase, *DependencyGraph) {
	cb := populator.NewCodebase()
	graph := newDependencyGraph()

	for _, fs := range scans {
		if fs == nil {
			continue
		}
		for _, decl := range fs.ClassLikes {
			cb.ScanClassLike(decl)
			graph.recordDeclaration(decl.Name, fs.File)
			recordClassLikeRefs(cb, fs.File, decl)
		}
		for _, decl := range fs.Functions {
			cb.ScanFunction(decl)
			graph.recordDeclaration(decl.Name, fs.File)
		}
	}

	populator.Populate(cb, safeSet, collector)
	graph.codebase = cb
	return cb, graph
}

// analyzePhase runs AnalyzeFunc over every file in parallel against the
// already-populated, read-only Codebase, then serially folds every
// worker's issues into collector — diagnostics.Collector.Add is not
// itself safe for concurrent use, so aggregation happens after the
// errgroup barrier rather than from inside each worker.
func (p *Pipeline) analyzePhase(ctx context.Context, files []ast.FileID, cb *populator.Codebase, analyze AnalyzeFunc, collector *diagnostics.Collector) error {
	perFile := make([][]*diagnostics.Issue, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers())

	for i, file := range files {
		i, file := i, file
		g.Go(func() error {
			issues, err := analyze(gctx, file, cb)
			if err != nil {
				return err
			}
			perFile[i] = issues
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}

	for _, issues := range perFile {
		collector.AddAll(issues)
	}
	return nil
}
