package main

import (
	"os"

	"github.com/spf13/cobra"
)

// newBaselineCmd is a dedicated entry point for the two baseline workflows
// analyze's --generate-baseline/--verify-baseline flags also expose: it
// exists alongside analyze per SPEC_FULL.md's domain-stack table ("cobra ...
// subcommands: analyze, baseline, serve, cache"), for callers that want a
// baseline action as the top-level verb rather than a flag buried in a full
// analyze invocation. Both subcommands share analyze's file-selection,
// pipeline, and cache flags and simply pin the generate/verify toggle.
func newBaselineCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "baseline",
		Short: "Generate or verify a baseline of previously-accepted issues",
	}

	root.AddCommand(newBaselineGenerateCmd(), newBaselineVerifyCmd())
	return root
}

func newBaselineGenerateCmd() *cobra.Command {
	opts := &analyzeOptions{generateBaseline: true}

	cmd := &cobra.Command{
		Use:   "generate [paths...]",
		Short: "Run analysis and write the resulting issues to a baseline file",
		RunE: func(cmd *cobra.Command, args []string) error {
			code, err := runAnalyze(cmd.Context(), args, opts)
			if err != nil {
				cmd.PrintErrln("sentra:", err)
				os.Exit(exitInternalError)
			}
			os.Exit(code)
			return nil
		},
	}

	addBaselineFileFlags(cmd, opts)
	cmd.Flags().StringVar(&opts.baselineVariant, "variant", "strict", "baseline layout to write: strict (exact line match) or loose (tolerant of line drift)")
	cmd.Flags().BoolVar(&opts.backupBaseline, "backup", false, "back up an existing baseline file to .bkp before overwriting it")
	cmd.MarkFlagRequired("baseline")

	return cmd
}

func newBaselineVerifyCmd() *cobra.Command {
	opts := &analyzeOptions{verifyBaseline: true}

	cmd := &cobra.Command{
		Use:   "verify [paths...]",
		Short: "Check whether a baseline is still in sync with the current analysis",
		RunE: func(cmd *cobra.Command, args []string) error {
			code, err := runAnalyze(cmd.Context(), args, opts)
			if err != nil {
				cmd.PrintErrln("sentra:", err)
				os.Exit(exitInternalError)
			}
			os.Exit(code)
			return nil
		},
	}

	addBaselineFileFlags(cmd, opts)
	cmd.MarkFlagRequired("baseline")

	return cmd
}

func addBaselineFileFlags(cmd *cobra.Command, opts *analyzeOptions) {
	cmd.Flags().StringVar(&opts.baselinePath, "baseline", "", "path to the baseline file")
	cmd.Flags().StringSliceVar(&opts.include, "include", nil, "doublestar glob(s) a file must match to be analyzed")
	cmd.Flags().StringSliceVar(&opts.exclude, "exclude", nil, "doublestar glob(s) that exclude a file from analysis")
	cmd.Flags().StringVar(&opts.config, "config", "", "path to .sentra.yml (defaults to searching upward from the working directory)")
	cmd.Flags().StringVar(&opts.cache, "cache", "", "path to a SQLite cache file for incremental analysis (disabled if omitted)")
}
