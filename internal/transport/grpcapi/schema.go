// Package grpcapi exposes the analysis run as a gRPC service for external
// LSP/editor consumers (SPEC_FULL.md's domain-stack table), the network-facing
// sibling to internal/reporting's in-process formatters. It is grounded on
// the teacher's internal/evaluator/builtins_grpc.go, which loads .proto
// schemas through jhump/protoreflect's protoparse and hand-builds a
// grpc.ServiceDesc rather than depending on protoc-generated stubs — the
// same approach taken here, since this module ships one fixed service with
// no generated code in the tree.
//
// Wire messages use google.golang.org/protobuf's structpb.Struct rather
// than a hand-authored generated type: structpb is itself a real,
// wire-compatible protobuf message shipped with the protobuf module, so it
// carries arbitrary field sets (an Issue, a schema description) without
// requiring a protoc-gen-go run this repo never performs.
package grpcapi

import (
	"fmt"

	"github.com/jhump/protoreflect/desc"
	"github.com/jhump/protoreflect/desc/protoparse"
)

// cacheEntrySchemaProto is the wire shape SPEC_FULL.md's DescribeCache debug
// endpoint reports on: the same fields internal/cache.Entry stores,
// expressed as a .proto message so protoreflect has a real descriptor to
// walk instead of Go struct tags.
const cacheEntrySchemaProto = `
syntax = "proto3";

package sentra.cache;

message IssueRecord {
  string severity = 1;
  string code = 2;
  uint32 start_offset = 3;
  uint32 end_offset = 4;
  string message = 5;
  repeated string notes = 6;
  string help = 7;
  string doc_url = 8;
}

message CachedEntry {
  uint64 hash = 1;
  repeated IssueRecord issues = 2;
  repeated string symbols = 3;
}
`

// cacheEntryFileDescriptor parses cacheEntrySchemaProto through the same
// protoparse.Parser/FileContentsFromMap combination the teacher's
// builtinGrpcLoadProto uses for user-supplied .proto text, so the
// descriptor DescribeCache reports on comes from a real parse rather than
// a hand-maintained field list.
func cacheEntryFileDescriptor() (*desc.FileDescriptor, error) {
	parser := protoparse.Parser{
		Accessor: protoparse.FileContentsFromMap(map[string]string{
			"sentra/cache.proto": cacheEntrySchemaProto,
		}),
	}
	fds, err := parser.ParseFiles("sentra/cache.proto")
	if err != nil {
		return nil, fmt.Errorf("parsing cache entry schema: %w", err)
	}
	return fds[0], nil
}

// fieldInfo is one message field's wire description, the unit
// DescribeCache reports per field.
type fieldInfo struct {
	Name     string
	Number   int32
	Type     string
	Repeated bool
}

// describeMessage walks every field of the named message in fd, in
// declaration order.
func describeMessage(fd *desc.FileDescriptor, messageName string) ([]fieldInfo, error) {
	md := fd.FindMessage("sentra.cache." + messageName)
	if md == nil {
		return nil, fmt.Errorf("message %q not found in parsed schema", messageName)
	}

	fields := md.GetFields()
	out := make([]fieldInfo, 0, len(fields))
	for _, f := range fields {
		out = append(out, fieldInfo{
			Name:     f.GetName(),
			Number:   f.GetNumber(),
			Type:     f.GetType().String(),
			Repeated: f.IsRepeated(),
		})
	}
	return out, nil
}
