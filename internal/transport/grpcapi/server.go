package grpcapi

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/sentra-analysis/sentra/internal/ast"
	"github.com/sentra-analysis/sentra/internal/diagnostics"
)

// ServiceName is the fully qualified gRPC service name this package
// registers. No .proto source declares it: the embedded schema's package is
// sentra.cache and holds only the cache messages.
const ServiceName = "sentra.v1.Analysis"

// FileResolver maps a span's file id to a display path, the same contract
// internal/reporting.FileResolver and internal/baseline.FileResolver use.
type FileResolver func(file ast.FileID) string

// LineResolver maps a byte offset within a file to a 1-based source line.
type LineResolver func(file ast.FileID, offset uint32) int

// Server is the gRPC-facing view of one completed analysis run: a
// collector of issues plus the resolvers needed to render them, and the
// embedded cache schema DescribeCache reports on. It holds no network
// state itself — Register wires it onto a *grpc.Server.
type Server struct {
	Collector   *diagnostics.Collector
	ResolveFile FileResolver
	ResolveLine LineResolver
}

// NewServer builds a Server over a completed collector, ready to register.
func NewServer(collector *diagnostics.Collector, resolveFile FileResolver, resolveLine LineResolver) *Server {
	return &Server{Collector: collector, ResolveFile: resolveFile, ResolveLine: resolveLine}
}

// Register attaches the analysis service to s, the way generated
// RegisterXxxServer functions do — hand-written here since this service
// has no protoc-generated stub, the same gap the teacher's
// builtinGrpcRegister fills for user-supplied .proto schemas.
func (srv *Server) Register(s *grpc.Server) {
	s.RegisterService(serviceDesc(), srv)
}

// serviceDesc hand-builds the grpc.ServiceDesc generated code would
// otherwise produce: one unary method (DescribeCache) and one
// server-streaming method (StreamIssues), grounded on the teacher's
// builtinGrpcRegister loop over a desc.ServiceDescriptor's methods — except
// this service is fixed at compile time, so the descriptor construction
// collapses into a literal instead of a runtime loop.
func serviceDesc() *grpc.ServiceDesc {
	return &grpc.ServiceDesc{
		ServiceName: ServiceName,
		HandlerType: (*any)(nil),
		Methods: []grpc.MethodDesc{
			{MethodName: "DescribeCache", Handler: describeCacheHandler},
		},
		Streams: []grpc.StreamDesc{
			{StreamName: "StreamIssues", Handler: streamIssuesHandler, ServerStreams: true},
		},
		Metadata: "sentra/analysis.proto",
	}
}

func describeCacheHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(*Server).describeCache(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + ServiceName + "/DescribeCache"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(*Server).describeCache(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func streamIssuesHandler(srv any, stream grpc.ServerStream) error {
	in := new(structpb.Struct)
	if err := stream.RecvMsg(in); err != nil {
		return err
	}
	return srv.(*Server).streamIssues(in, &issueStream{stream})
}

// issueStream adapts a raw grpc.ServerStream to the Send(*structpb.Struct)
// shape streamIssues writes through, the same wrapper pattern generated
// server-streaming code produces.
type issueStream struct {
	grpc.ServerStream
}

func (x *issueStream) Send(m *structpb.Struct) error {
	return x.ServerStream.SendMsg(m)
}

// sender is the subset of issueStream that streamIssues needs, so tests
// can exercise it without a live grpc.ServerStream.
type sender interface {
	Send(*structpb.Struct) error
}

// describeCache reports the wire schema of a cached internal/cache.Entry,
// via protoreflect's dynamic description of the embedded cache.proto rather
// than a hand-maintained field list — SPEC_FULL.md's "dynamic-message
// debug endpoint that describes the wire schema of a cached metadata
// blob". The request struct optionally carries a "message" string field
// naming which message to describe; it defaults to CachedEntry.
func (srv *Server) describeCache(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	message := "CachedEntry"
	if v, ok := req.GetFields()["message"]; ok && v.GetStringValue() != "" {
		message = v.GetStringValue()
	}

	fd, err := cacheEntryFileDescriptor()
	if err != nil {
		return nil, err
	}
	fields, err := describeMessage(fd, message)
	if err != nil {
		return nil, err
	}

	fieldList := make([]any, 0, len(fields))
	for _, f := range fields {
		fieldList = append(fieldList, map[string]any{
			"name":     f.Name,
			"number":   float64(f.Number),
			"type":     f.Type,
			"repeated": f.Repeated,
		})
	}

	return structpb.NewStruct(map[string]any{
		"message": message,
		"fields":  fieldList,
	})
}

// streamIssues sends every collected issue matching req's optional
// "path_filter" field to stream, one structpb.Struct per issue, in the
// collector's deterministic sort order.
func (srv *Server) streamIssues(req *structpb.Struct, stream sender) error {
	var pathFilter string
	if v, ok := req.GetFields()["path_filter"]; ok {
		pathFilter = v.GetStringValue()
	}

	for _, iss := range srv.Collector.Issues() {
		path := srv.ResolveFile(iss.Primary.Span.File)
		if pathFilter != "" && path != pathFilter {
			continue
		}

		msg, err := issueToStruct(iss, path, srv.ResolveLine)
		if err != nil {
			return fmt.Errorf("encoding issue for %s: %w", path, err)
		}
		if err := stream.Send(msg); err != nil {
			return err
		}
	}
	return nil
}

func issueToStruct(iss *diagnostics.Issue, path string, resolveLine LineResolver) (*structpb.Struct, error) {
	notes := make([]any, 0, len(iss.Notes))
	for _, n := range iss.Notes {
		notes = append(notes, n)
	}

	return structpb.NewStruct(map[string]any{
		"file":       path,
		"severity":   iss.Severity.String(),
		"code":       string(iss.Code),
		"message":    iss.Primary.Message,
		"start_line": float64(resolveLine(iss.Primary.Span.File, iss.Primary.Span.Start)),
		"end_line":   float64(resolveLine(iss.Primary.Span.File, iss.Primary.Span.End)),
		"help":       iss.Help,
		"doc_url":    iss.DocURL,
		"notes":      notes,
	})
}
