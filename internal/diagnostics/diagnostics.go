// Package diagnostics defines the closed issue catalogue the populator,
// reconciler, and flow analyzer emit into, plus the deduplicating collector
// grounded on the teacher's analyzer walker (addError/addErrors/getErrors in
// internal/analyzer/analyzer.go of funvibe/funxy): issues are keyed by
// "file:start:end:code" so the same root cause reported from two code paths
// collapses into one issue.
package diagnostics

import (
	"fmt"
	"sort"

	"github.com/sentra-analysis/sentra/internal/ast"
)

// Severity is one of the four levels a reporter must handle.
type Severity int

const (
	SeverityError Severity = iota
	SeverityWarning
	SeverityNote
	SeverityHelp
)

func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	case SeverityNote:
		return "note"
	case SeverityHelp:
		return "help"
	default:
		return "unknown"
	}
}

// Code is a stable string identifier from the closed catalogue below.
type Code string

const (
	CodeUndefinedVariable            Code = "undefined-variable"
	CodeUndefinedMethod              Code = "undefined-method"
	CodePossibleMethodAccessOnNull   Code = "possible-method-access-on-null"
	CodeMixedMethodAccess            Code = "mixed-method-access"
	CodeMixedAnyMethodAccess         Code = "mixed-any-method-access"
	CodeMixedAssignment              Code = "mixed-assignment"
	CodeInvalidMethodAccess          Code = "invalid-method-access"
	CodeAmbiguousObjectMethodAccess  Code = "ambiguous-object-method-access"
	CodeInvalidArgument              Code = "invalid-argument"
	CodePossiblyInvalidArgument      Code = "possibly-invalid-argument"
	CodeImpossibleCondition          Code = "impossible-condition"
	CodeRedundantCondition           Code = "redundant-condition"
	CodeInvalidImportType            Code = "invalid-import-type"
	CodeUnknownClassInImportType     Code = "unknown-class-in-import-type"
	CodeCircularTypeImport           Code = "circular-type-import"
	CodeInheritanceCycle             Code = "inheritance-cycle"
	CodeInvalidParentClass           Code = "invalid-parent-class"
	CodeMissingTrait                 Code = "missing-trait"
	CodeSealedInheritanceViolation   Code = "sealed-inheritance-violation"
	CodeConflictingTraitConstant     Code = "conflicting-trait-constant"
	CodeUndefinedProperty            Code = "undefined-property"
	CodeInternalError                Code = "internal-error"
)

// Annotation is one span+message pair, used for both the primary annotation
// and any number of secondary ones.
type Annotation struct {
	Span    ast.Span
	Message string
}

// Issue is one reported diagnostic, the core's only observable product
// besides the artifacts map.
type Issue struct {
	Severity Severity
	Code     Code

	Primary    Annotation
	Secondary  []Annotation
	Notes      []string
	Help       string
	DocURL     string
}

// InternalError is an invariant violation inside the core (category 1 of the
// error-handling design): the file-level result becomes an error, but it
// never halts the rest of the run.
type InternalError struct {
	Span    ast.Span
	Message string
}

func (e *InternalError) Error() string {
	return fmt.Sprintf("internal error at %d:%d: %s", e.Span.Start, e.Span.End, e.Message)
}

// Collector deduplicates issues by "line:col:code" the same way the
// teacher's walker.errorSet does, keyed here by file/offset/code since spans
// are offset-based rather than line/column.
type Collector struct {
	bySpan map[string]*Issue
}

func NewCollector() *Collector {
	return &Collector{bySpan: make(map[string]*Issue)}
}

func (c *Collector) Add(issue *Issue) {
	key := fmt.Sprintf("%d:%d:%d:%s", issue.Primary.Span.File, issue.Primary.Span.Start, issue.Primary.Span.End, issue.Code)
	c.bySpan[key] = issue
}

func (c *Collector) AddAll(issues []*Issue) {
	for _, i := range issues {
		c.Add(i)
	}
}

// Issues returns all unique issues sorted by file then offset then code, so
// re-running the pipeline on an unchanged file set yields byte-identical
// output (the determinism property from the spec's testable properties).
func (c *Collector) Issues() []*Issue {
	out := make([]*Issue, 0, len(c.bySpan))
	for _, i := range c.bySpan {
		out = append(out, i)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Primary.Span.File != b.Primary.Span.File {
			return a.Primary.Span.File < b.Primary.Span.File
		}
		if a.Primary.Span.Start != b.Primary.Span.Start {
			return a.Primary.Span.Start < b.Primary.Span.Start
		}
		return a.Code < b.Code
	})
	return out
}

func (c *Collector) Len() int { return len(c.bySpan) }

// New builds an Issue with a single primary annotation, the common case.
func New(severity Severity, code Code, span ast.Span, message string) *Issue {
	return &Issue{
		Severity: severity,
		Code:     code,
		Primary:  Annotation{Span: span, Message: message},
	}
}
