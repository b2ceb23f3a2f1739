package main

import (
	"context"
	"fmt"
	"net"
	"os"

	"github.com/spf13/cobra"
	"google.golang.org/grpc"

	"github.com/sentra-analysis/sentra/internal/ast"
	"github.com/sentra-analysis/sentra/internal/transport/grpcapi"
)

type serveOptions struct {
	addr    string
	include []string
	exclude []string
}

func newServeCmd() *cobra.Command {
	opts := &serveOptions{}

	cmd := &cobra.Command{
		Use:   "serve [paths...]",
		Short: "Analyze once, then serve the result over gRPC",
		Long:  "Runs one analysis pass over the given paths and exposes its issues and cache schema through the sentra.v1.Analysis gRPC service, for editor/LSP-adjacent consumers.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), args, opts)
		},
	}

	cmd.Flags().StringVar(&opts.addr, "addr", "127.0.0.1:7475", "address to listen on")
	cmd.Flags().StringSliceVar(&opts.include, "include", nil, "doublestar glob(s) a file must match to be analyzed")
	cmd.Flags().StringSliceVar(&opts.exclude, "exclude", nil, "doublestar glob(s) that exclude a file from analysis")

	return cmd
}

func runServe(ctx context.Context, args []string, opts *serveOptions) error {
	roots := args
	if len(roots) == 0 {
		roots = []string{"."}
	}

	paths, err := selectFiles(roots, opts.include, opts.exclude)
	if err != nil {
		return fmt.Errorf("selecting files: %w", err)
	}

	run, _, err := analyzeFiles(ctx, paths, nil)
	if err != nil {
		return err
	}

	lis, err := net.Listen("tcp", opts.addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", opts.addr, err)
	}

	server := grpc.NewServer()
	grpcapi.NewServer(
		run.result.Collector,
		func(file ast.FileID) string { return run.resolveFile(file) },
		func(file ast.FileID, offset uint32) int { return run.resolveLine(file, offset) },
	).Register(server)

	fmt.Fprintf(os.Stderr, "sentra: serving %d file(s), %d issue(s) on %s\n", len(paths), run.result.Collector.Len(), opts.addr)
	return server.Serve(lis)
}
