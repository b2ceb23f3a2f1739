package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/sentra-analysis/sentra/internal/ast"
	"github.com/sentra-analysis/sentra/internal/baseline"
	"github.com/sentra-analysis/sentra/internal/cache"
	"github.com/sentra-analysis/sentra/internal/config"
	"github.com/sentra-analysis/sentra/internal/diagnostics"
	"github.com/sentra-analysis/sentra/internal/flowanalyzer"
	"github.com/sentra-analysis/sentra/internal/frontend"
	"github.com/sentra-analysis/sentra/internal/pipeline"
	"github.com/sentra-analysis/sentra/internal/populator"
	"github.com/sentra-analysis/sentra/internal/reporting"
)

// Exit codes, per original_source/src/commands/args/baseline.rs's
// ExitCode::SUCCESS/FAILURE convention plus a distinct code for failures
// that never reached a reportable result.
const (
	exitClean         = 0
	exitIssuesFound   = 1
	exitInternalError = 2
)

type analyzeOptions struct {
	include []string
	exclude []string
	format  string
	config  string
	cache   string

	baselinePath            string
	baselineVariant         string
	generateBaseline        bool
	backupBaseline          bool
	verifyBaseline          bool
	failOnOutOfSyncBaseline bool
}

func newAnalyzeCmd() *cobra.Command {
	opts := &analyzeOptions{}

	cmd := &cobra.Command{
		Use:   "analyze [paths...]",
		Short: "Analyze PHP source for type and flow diagnostics",
		Long:  "Scan the given paths (or the project config's paths) and report diagnostics found by the type lattice, metadata populator, assertion reconciler, and flow analyzer.",
		RunE: func(cmd *cobra.Command, args []string) error {
			code, err := runAnalyze(cmd.Context(), args, opts)
			if err != nil {
				fmt.Fprintln(os.Stderr, "sentra:", err)
				os.Exit(exitInternalError)
			}
			os.Exit(code)
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&opts.include, "include", nil, "doublestar glob(s) a file must match to be analyzed")
	cmd.Flags().StringSliceVar(&opts.exclude, "exclude", nil, "doublestar glob(s) that exclude a file from analysis")
	cmd.Flags().StringVar(&opts.format, "format", "rich", "output format: rich, short, json, sarif, checkstyle, gitlab, code_count")
	cmd.Flags().StringVar(&opts.config, "config", "", "path to .sentra.yml (defaults to searching upward from the working directory)")
	cmd.Flags().StringVar(&opts.cache, "cache", "", "path to a SQLite cache file for incremental analysis (disabled if omitted)")

	cmd.Flags().StringVar(&opts.baselinePath, "baseline", "", "path to a baseline file of previously-accepted issues")
	cmd.Flags().StringVar(&opts.baselineVariant, "baseline-variant", "strict", "baseline layout to write with --generate-baseline: strict (exact line match) or loose (tolerant of line drift)")
	cmd.Flags().BoolVar(&opts.generateBaseline, "generate-baseline", false, "write the current issues to --baseline and exit")
	cmd.Flags().BoolVar(&opts.backupBaseline, "backup-baseline", false, "back up an existing --baseline file to .bkp before overwriting it")
	cmd.Flags().BoolVar(&opts.verifyBaseline, "verify-baseline", false, "exit non-zero if --baseline is out of sync with the current run, without reporting suppressed issues")
	cmd.Flags().BoolVar(&opts.failOnOutOfSyncBaseline, "fail-on-out-of-sync-baseline", false, "exit non-zero if --baseline contains stale entries, even when no issues are currently reported")

	cmd.MarkFlagsMutuallyExclusive("generate-baseline", "verify-baseline")
	cmd.MarkFlagsMutuallyExclusive("generate-baseline", "fail-on-out-of-sync-baseline")
	cmd.MarkFlagsMutuallyExclusive("verify-baseline", "fail-on-out-of-sync-baseline")

	return cmd
}

// analysisRun is everything a completed pipeline run needs to report,
// baseline-diff, and cache: the result itself plus the file-id<->path
// bookkeeping frontend.Scan and the pipeline never keep past their own call.
type analysisRun struct {
	result   *pipeline.Result
	paths    []string
	contents map[ast.FileID][]byte
}

func (r *analysisRun) resolveFile(file ast.FileID) string {
	if int(file) < len(r.paths) {
		return r.paths[file]
	}
	return fmt.Sprintf("<file %d>", file)
}

func (r *analysisRun) resolveLine(file ast.FileID, offset uint32) int {
	return frontend.LineOf(r.contents[file], offset)
}

func runAnalyze(ctx context.Context, args []string, opts *analyzeOptions) (int, error) {
	project, projectDir, err := loadProject(opts.config)
	if err != nil {
		return 0, err
	}

	roots := args
	if len(roots) == 0 {
		roots = project.Paths
	}
	if len(roots) == 0 {
		roots = []string{projectDir}
	}

	exclude := append(append([]string{}, opts.exclude...), project.Ignore...)

	paths, err := selectFiles(roots, opts.include, exclude)
	if err != nil {
		return 0, fmt.Errorf("selecting files: %w", err)
	}

	if opts.backupBaseline && !opts.generateBaseline {
		return 0, fmt.Errorf("--backup-baseline requires --generate-baseline")
	}

	baselinePath := opts.baselinePath
	if baselinePath == "" {
		baselinePath = project.ResolveBaselinePath(projectDir)
	}
	if baselinePath == "" && (opts.generateBaseline || opts.verifyBaseline || opts.failOnOutOfSyncBaseline) {
		return 0, fmt.Errorf("--baseline is required for the requested baseline operation")
	}

	var fileCache *cache.Cache
	if opts.cache != "" {
		fileCache, err = cache.Open(opts.cache)
		if err != nil {
			return 0, err
		}
		defer fileCache.Close()
	}

	run, issues, err := analyzeFiles(ctx, paths, fileCache)
	if err != nil {
		return 0, err
	}

	if opts.generateBaseline {
		return generateBaseline(run, issues, baselinePath, opts.backupBaseline, opts.baselineVariant)
	}

	return reportOrVerify(run, issues, baselinePath, opts)
}

// analyzeFiles runs the scan/merge/analyze pipeline over every file not
// already satisfied by the cache, and returns every issue for the full
// path set: cache hits contribute their stored issues verbatim, dirty
// files contribute the pipeline's fresh result. Cache hits contribute no
// declarations to this run's codebase — a deliberate scope limit of this
// CLI's per-file memoization, documented in DESIGN.md: full cross-file
// invalidation is what internal/pipeline's DependencyGraph is for, and is
// left for a future incremental/watch mode.
func analyzeFiles(ctx context.Context, paths []string, fileCache *cache.Cache) (*analysisRun, []*diagnostics.Issue, error) {
	run := &analysisRun{contents: map[ast.FileID][]byte{}}
	var cachedIssues []*diagnostics.Issue
	var dirty []ast.FileID
	fileScans := map[ast.FileID]*pipeline.FileScan{}

	for _, path := range paths {
		content, err := os.ReadFile(path)
		if err != nil {
			return nil, nil, fmt.Errorf("reading %s: %w", path, err)
		}
		hash := cache.ContentHash(content)
		file := ast.FileID(len(run.paths))

		if fileCache != nil {
			if entry, ok, err := fileCache.Get(path); err == nil && ok && entry.Hash == hash {
				run.paths = append(run.paths, path)
				run.contents[file] = content
				cachedIssues = append(cachedIssues, issuesFromCacheEntry(entry, file)...)
				continue
			}
		}

		run.paths = append(run.paths, path)
		run.contents[file] = content
		dirty = append(dirty, file)

		scan, _, err := frontend.Scan(file, path)
		if err != nil {
			return nil, nil, err
		}
		fileScans[file] = scan
	}

	scanFn := func(_ context.Context, file ast.FileID) (*pipeline.FileScan, error) {
		return fileScans[file], nil
	}
	analyzeFn := func(_ context.Context, file ast.FileID, cb *populator.Codebase) ([]*diagnostics.Issue, error) {
		collector := diagnostics.NewCollector()
		analyzer := flowanalyzer.New(cb, collector, file)
		scan := fileScans[file]
		for _, decl := range scan.Functions {
			analyzer.AnalyzeFunction(decl)
		}
		for _, decl := range scan.ClassLikes {
			for _, m := range decl.Methods {
				analyzer.AnalyzeMethod(decl.Name, m)
			}
		}
		return collector.Issues(), nil
	}

	result, err := pipeline.New(0).Run(ctx, dirty, scanFn, analyzeFn, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("running pipeline: %w", err)
	}
	run.result = result

	if fileCache != nil {
		if err := storeCacheEntries(fileCache, run, dirty); err != nil {
			return nil, nil, err
		}
	}

	issues := append(append([]*diagnostics.Issue{}, result.Collector.Issues()...), cachedIssues...)
	return run, issues, nil
}

func issuesFromCacheEntry(entry *cache.Entry, file ast.FileID) []*diagnostics.Issue {
	out := make([]*diagnostics.Issue, 0, len(entry.Issues))
	for _, rec := range entry.Issues {
		out = append(out, &diagnostics.Issue{
			Severity: severityFromString(rec.Severity),
			Code:     diagnostics.Code(rec.Code),
			Primary: diagnostics.Annotation{
				Span:    ast.Span{File: file, Start: rec.StartOffset, End: rec.EndOffset},
				Message: rec.Message,
			},
			Notes:  rec.Notes,
			Help:   rec.Help,
			DocURL: rec.DocURL,
		})
	}
	return out
}

func severityFromString(s string) diagnostics.Severity {
	switch s {
	case "warning":
		return diagnostics.SeverityWarning
	case "note":
		return diagnostics.SeverityNote
	case "help":
		return diagnostics.SeverityHelp
	default:
		return diagnostics.SeverityError
	}
}

func storeCacheEntries(fileCache *cache.Cache, run *analysisRun, dirty []ast.FileID) error {
	byFile := map[ast.FileID][]cache.IssueRecord{}
	for _, iss := range run.result.Collector.Issues() {
		byFile[iss.Primary.Span.File] = append(byFile[iss.Primary.Span.File], cache.IssueRecord{
			Severity:    iss.Severity.String(),
			Code:        string(iss.Code),
			StartOffset: iss.Primary.Span.Start,
			EndOffset:   iss.Primary.Span.End,
			Message:     iss.Primary.Message,
			Notes:       iss.Notes,
			Help:        iss.Help,
			DocURL:      iss.DocURL,
		})
	}

	for _, file := range dirty {
		path := run.resolveFile(file)
		hash := cache.ContentHash(run.contents[file])
		entry := &cache.Entry{Hash: hash, Issues: byFile[file]}
		if err := fileCache.Put(path, entry); err != nil {
			return err
		}
	}
	return nil
}

func generateBaseline(run *analysisRun, issues []*diagnostics.Issue, baselinePath string, backup bool, variant string) (int, error) {
	if baselinePath == "" {
		return 0, fmt.Errorf("--generate-baseline requires --baseline")
	}
	v := baseline.VariantStrict
	if variant == string(baseline.VariantLoose) {
		v = baseline.VariantLoose
	}

	records := baseline.FromIssues(issues, run.resolveFile, run.resolveLine)
	b := baseline.FromRecords(v, records)
	if err := baseline.Save(baselinePath, b, backup); err != nil {
		return 0, err
	}
	return exitClean, nil
}

func reportOrVerify(run *analysisRun, issues []*diagnostics.Issue, baselinePath string, opts *analyzeOptions) (int, error) {
	reported := issues
	var suppressed, stale []baseline.Record

	if baselinePath != "" {
		b, legacyHeader, err := baseline.Load(baselinePath)
		if err != nil {
			return 0, err
		}
		if legacyHeader {
			fmt.Fprintln(os.Stderr, "sentra: warning: baseline has no variant header, assuming strict")
		}

		current := baseline.FromIssues(issues, run.resolveFile, run.resolveLine)
		suppressed, stale = baseline.Diff(current, b)
		reported = filterSuppressed(issues, suppressed, run)
	}

	if opts.verifyBaseline {
		if len(reported) == 0 && len(stale) == 0 {
			return exitClean, nil
		}
		fmt.Fprintf(os.Stderr, "sentra: baseline out of sync: %d new issue(s), %d stale entry(ies)\n", len(reported), len(stale))
		return exitIssuesFound, nil
	}

	if err := writeReport(reported, run, opts.format); err != nil {
		return 0, err
	}

	if opts.failOnOutOfSyncBaseline && len(stale) > 0 {
		fmt.Fprintf(os.Stderr, "sentra: baseline has %d stale entry(ies)\n", len(stale))
		return exitIssuesFound, nil
	}
	if len(reported) > 0 {
		return exitIssuesFound, nil
	}
	return exitClean, nil
}

// filterSuppressed removes every issue matched by a baseline record from
// the reported set, comparing by resolved path+code+line since that's the
// variant-agnostic key Diff already established the match on.
func filterSuppressed(issues []*diagnostics.Issue, suppressed []baseline.Record, run *analysisRun) []*diagnostics.Issue {
	if len(suppressed) == 0 {
		return issues
	}
	remaining := map[string]int{}
	for _, s := range suppressed {
		remaining[fmt.Sprintf("%s:%s:%d", s.File, s.Code, s.StartLine)]++
	}

	out := make([]*diagnostics.Issue, 0, len(issues))
	for _, iss := range issues {
		path := run.resolveFile(iss.Primary.Span.File)
		line := run.resolveLine(iss.Primary.Span.File, iss.Primary.Span.Start)
		key := fmt.Sprintf("%s:%s:%d", path, iss.Code, line)
		if remaining[key] > 0 {
			remaining[key]--
			continue
		}
		out = append(out, iss)
	}
	return out
}

func writeReport(issues []*diagnostics.Issue, run *analysisRun, format string) error {
	formatter, ok := reporting.Registry()[format]
	if !ok {
		return fmt.Errorf("unknown format %q", format)
	}
	report := reporting.Group(issues, func(file int) string { return run.resolveFile(ast.FileID(file)) })
	return formatter.Format(os.Stdout, report)
}

func loadProject(explicitPath string) (*config.Project, string, error) {
	path := explicitPath
	if path == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, "", err
		}
		found, err := config.FindConfig(wd)
		if err != nil {
			return nil, "", err
		}
		path = found
	}
	if path == "" {
		return &config.Project{Level: 1}, ".", nil
	}

	project, err := config.LoadProject(path)
	if err != nil {
		return nil, "", err
	}
	return project, filepath.Dir(path), nil
}
