package grpcapi

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/sentra-analysis/sentra/internal/ast"
	"github.com/sentra-analysis/sentra/internal/diagnostics"
)

func testResolvers() (FileResolver, LineResolver) {
	paths := map[ast.FileID]string{0: "src/Checkout.php", 1: "src/Cart.php"}
	resolveFile := func(f ast.FileID) string { return paths[f] }
	resolveLine := func(f ast.FileID, offset uint32) int { return int(offset)/10 + 1 }
	return resolveFile, resolveLine
}

func newTestServer() *Server {
	collector := diagnostics.NewCollector()
	collector.AddAll([]*diagnostics.Issue{
		diagnostics.New(diagnostics.SeverityError, diagnostics.CodeUndefinedVariable, ast.Span{File: 0, Start: 5, End: 8}, "undefined variable $total"),
		diagnostics.New(diagnostics.SeverityWarning, diagnostics.CodeMixedAssignment, ast.Span{File: 1, Start: 20, End: 25}, "mixed assignment"),
	})
	resolveFile, resolveLine := testResolvers()
	return NewServer(collector, resolveFile, resolveLine)
}

// fakeSender records every struct streamIssues sends, standing in for a
// live grpc.ServerStream.
type fakeSender struct {
	sent []*structpb.Struct
}

func (f *fakeSender) Send(m *structpb.Struct) error {
	f.sent = append(f.sent, m)
	return nil
}

func TestStreamIssuesSendsEveryCollectedIssue(t *testing.T) {
	srv := newTestServer()
	req, err := structpb.NewStruct(map[string]any{})
	require.NoError(t, err)

	fs := &fakeSender{}
	require.NoError(t, srv.streamIssues(req, fs))

	require.Len(t, fs.sent, 2)
	assert.Equal(t, "src/Checkout.php", fs.sent[0].GetFields()["file"].GetStringValue())
	assert.Equal(t, "undefined-variable", fs.sent[0].GetFields()["code"].GetStringValue())
	assert.Equal(t, "error", fs.sent[0].GetFields()["severity"].GetStringValue())
}

func TestStreamIssuesHonorsPathFilter(t *testing.T) {
	srv := newTestServer()
	req, err := structpb.NewStruct(map[string]any{"path_filter": "src/Cart.php"})
	require.NoError(t, err)

	fs := &fakeSender{}
	require.NoError(t, srv.streamIssues(req, fs))

	require.Len(t, fs.sent, 1)
	assert.Equal(t, "src/Cart.php", fs.sent[0].GetFields()["file"].GetStringValue())
}

func TestDescribeCacheDefaultsToCachedEntry(t *testing.T) {
	srv := newTestServer()
	req, err := structpb.NewStruct(map[string]any{})
	require.NoError(t, err)

	resp, err := srv.describeCache(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, "CachedEntry", resp.GetFields()["message"].GetStringValue())
	fields := resp.GetFields()["fields"].GetListValue().GetValues()
	require.NotEmpty(t, fields)

	var sawHash, sawIssues, sawSymbols bool
	for _, f := range fields {
		switch f.GetStructValue().GetFields()["name"].GetStringValue() {
		case "hash":
			sawHash = true
		case "issues":
			sawIssues = true
		case "symbols":
			sawSymbols = true
		}
	}
	assert.True(t, sawHash)
	assert.True(t, sawIssues)
	assert.True(t, sawSymbols)
}

func TestDescribeCacheAcceptsAlternateMessageName(t *testing.T) {
	srv := newTestServer()
	req, err := structpb.NewStruct(map[string]any{"message": "IssueRecord"})
	require.NoError(t, err)

	resp, err := srv.describeCache(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, "IssueRecord", resp.GetFields()["message"].GetStringValue())
	fields := resp.GetFields()["fields"].GetListValue().GetValues()
	require.NotEmpty(t, fields)
}

func TestDescribeCacheRejectsUnknownMessage(t *testing.T) {
	srv := newTestServer()
	req, err := structpb.NewStruct(map[string]any{"message": "NotAMessage"})
	require.NoError(t, err)

	_, err = srv.describeCache(context.Background(), req)
	assert.Error(t, err)
}

func TestServiceDescRegistersDescribeCacheAndStreamIssues(t *testing.T) {
	desc := serviceDesc()
	assert.Equal(t, ServiceName, desc.ServiceName)
	require.Len(t, desc.Methods, 1)
	assert.Equal(t, "DescribeCache", desc.Methods[0].MethodName)
	require.Len(t, desc.Streams, 1)
	assert.Equal(t, "StreamIssues", desc.Streams[0].StreamName)
	assert.True(t, desc.Streams[0].ServerStreams)
}
