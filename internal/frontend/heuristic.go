// Package frontend is a reference implementation of the "parsing
// collaborator" spec.md §6 deliberately keeps external to the core: "Source
// tokenisation and parsing → supplies an abstract syntax tree; §6 gives the
// AST-shape contract the core consumes." Nothing in internal/ast,
// internal/populator, internal/reconciler, or internal/flowanalyzer builds
// a tree from source text — they only describe and consume the shapes a
// real parser must produce.
//
// Scan here is a minimal, regexp-based declaration scanner, not a PHP
// parser: it recovers class-like headers (name, kind, extends, implements,
// trait uses) well enough to exercise internal/pipeline and
// internal/populator end to end from cmd/sentra, but it never builds
// statement or expression bodies, so internal/flowanalyzer sees every
// function/method it's asked to walk as body-less (a no-op:
// flowanalyzer.Analyzer.AnalyzeFunction/AnalyzeMethod return early on a nil
// body) until a real frontend is wired in to replace it.
package frontend

import (
	"bytes"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/sentra-analysis/sentra/internal/ast"
	"github.com/sentra-analysis/sentra/internal/pipeline"
)

var (
	classLikeRe = regexp.MustCompile(`(?m)^\s*(?:abstract\s+|final\s+)?(class|interface|trait|enum)\s+([A-Za-z_]\w*)(?:\s+extends\s+([A-Za-z0-9_\\,\s]+?))?(?:\s+implements\s+([A-Za-z0-9_\\,\s]+?))?\s*\{`)
	traitUseRe  = regexp.MustCompile(`(?m)^\s*use\s+([A-Za-z0-9_\\,\s]+?)\s*;`)
	functionRe  = regexp.MustCompile(`(?m)^function\s+([A-Za-z_]\w*)\s*\(`)
)

func kindFromKeyword(kw string) ast.ClassLikeKind {
	switch kw {
	case "interface":
		return ast.ClassLikeInterface
	case "trait":
		return ast.ClassLikeTrait
	case "enum":
		return ast.ClassLikeEnum
	default:
		return ast.ClassLikeClass
	}
}

func splitNames(list string) []string {
	if list == "" {
		return nil
	}
	parts := strings.Split(list, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Scan reads path and extracts top-level class-like declarations and free
// function signatures, returning a pipeline.FileScan ready for
// pipeline.Pipeline.Run's merge phase. It also returns the raw file bytes,
// which callers need for content hashing (internal/cache) and byte-offset
// to line-number resolution (internal/baseline, internal/reporting).
func Scan(file ast.FileID, path string) (*pipeline.FileScan, []byte, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("reading %s: %w", path, err)
	}

	scan := &pipeline.FileScan{File: file}

	for _, m := range classLikeRe.FindAllSubmatchIndex(content, -1) {
		kw := string(content[m[2]:m[3]])
		name := string(content[m[4]:m[5]])

		decl := &ast.ClassLikeDecl{
			Pos:  ast.Span{File: file, Start: uint32(m[0]), End: uint32(m[1])},
			Kind: kindFromKeyword(kw),
			Name: name,
		}

		if m[6] >= 0 {
			extends := splitNames(string(content[m[6]:m[7]]))
			if kw == "interface" {
				decl.ParentInterfaces = extends
			} else if len(extends) > 0 {
				decl.ParentClass = extends[0]
			}
		}
		if m[8] >= 0 {
			decl.ParentInterfaces = append(decl.ParentInterfaces, splitNames(string(content[m[8]:m[9]]))...)
		}

		bodyEnd := classLikeBodyEnd(content, m[1]-1)
		body := content[m[1]:bodyEnd]
		for _, tm := range traitUseRe.FindAllSubmatch(body, -1) {
			decl.Traits = append(decl.Traits, &ast.TraitUse{Traits: splitNames(string(tm[1]))})
		}

		scan.ClassLikes = append(scan.ClassLikes, decl)
	}

	for _, m := range functionRe.FindAllSubmatchIndex(content, -1) {
		scan.Functions = append(scan.Functions, &ast.FunctionDecl{
			Pos:  ast.Span{File: file, Start: uint32(m[0]), End: uint32(m[1])},
			Name: string(content[m[2]:m[3]]),
		})
	}

	return scan, content, nil
}

// classLikeBodyEnd returns the byte offset just past the matching closing
// brace for the opening brace at openIdx, by depth counting. If braces are
// unbalanced (a malformed or not-actually-PHP file), it returns len(content)
// so callers still get a (possibly too-wide) body slice rather than an
// index panic.
func classLikeBodyEnd(content []byte, openIdx int) int {
	depth := 0
	for i := openIdx; i < len(content); i++ {
		switch content[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i + 1
			}
		}
	}
	return len(content)
}

// LineOf returns the 1-based line number of offset within content.
func LineOf(content []byte, offset uint32) int {
	if int(offset) > len(content) {
		offset = uint32(len(content))
	}
	return bytes.Count(content[:offset], []byte("\n")) + 1
}
