// Command sentra is the CLI front end for the analysis core: it wires the
// heuristic reference frontend (internal/frontend) into the three-phase
// pipeline (internal/pipeline), renders results through internal/reporting,
// persists results through internal/cache and internal/baseline, and can
// expose a completed run over gRPC (internal/transport/grpcapi).
//
// A real PHP parser is not part of this binary: spec.md treats source
// tokenization and parsing as an external collaborator, so analyze's file
// frontend is the minimal declaration-level scanner in internal/frontend,
// not a production parser.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintln(os.Stderr, "sentra: internal error:", r)
			os.Exit(exitInternalError)
		}
	}()

	root := &cobra.Command{
		Use:   "sentra",
		Short: "Static type and flow analysis for PHP",
		Long:  "sentra analyzes PHP source against a bidirectional type lattice, a class hierarchy populator, an assertion reconciler, and a flow-sensitive analyzer, reporting the results in a configurable format.",
	}

	root.AddCommand(newAnalyzeCmd(), newBaselineCmd(), newServeCmd(), newCacheCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
