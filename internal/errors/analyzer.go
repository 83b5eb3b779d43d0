package errors

import (
	"fmt"
	"sort"
	"strings"

	"github.com/fatih/color"
	"absint/internal/program"
)

// ErrorLevel represents the severity of a diagnostic.
type ErrorLevel string

const (
	Error   ErrorLevel = "error"
	Warning ErrorLevel = "warning"
	Note    ErrorLevel = "note"
	Help    ErrorLevel = "help"
)

// ErrorKind identifies the category of an analyzer diagnostic, mirroring
// the compiler's E0xxx/W0xxx codes but for facts discovered by abstract
// interpretation rather than parsing or type checking.
type ErrorKind string

const (
	NullDereference         ErrorKind = "NullDereference"
	PossibleNullDereference ErrorKind = "PossibleNullDereference"
	DivByZero               ErrorKind = "DivByZero"
	PossibleDivByZero       ErrorKind = "PossibleDivByZero"
	OutOfBounds             ErrorKind = "OutOfBounds"
	PossibleOutOfBounds     ErrorKind = "PossibleOutOfBounds"
	UnreachableCode         ErrorKind = "UnreachableCode"
	ReturnTypeMismatch      ErrorKind = "ReturnTypeMismatch"

	Timeout       ErrorKind = "Timeout"
	Cancelled     ErrorKind = "Cancelled"
	InternalError ErrorKind = "InternalError"
	MalformedAST  ErrorKind = "MalformedAST"
)

// Severity returns the fixed severity for a kind, per the taxonomy: definite
// findings are errors, possibles are warnings, and the two advisory kinds
// are notes.
func (k ErrorKind) Severity() ErrorLevel {
	switch k {
	case NullDereference, DivByZero, OutOfBounds:
		return Error
	case PossibleNullDereference, PossibleDivByZero, PossibleOutOfBounds:
		return Warning
	case UnreachableCode, ReturnTypeMismatch:
		return Note
	default:
		return Error
	}
}

// Description returns a human-readable description of a kind.
func (k ErrorKind) Description() string {
	switch k {
	case NullDereference:
		return "dereferencing a value known to be null"
	case PossibleNullDereference:
		return "dereferencing a value that may be null"
	case DivByZero:
		return "dividing by a value known to be zero"
	case PossibleDivByZero:
		return "dividing by a value that may be zero"
	case OutOfBounds:
		return "index definitely outside the array's bounds"
	case PossibleOutOfBounds:
		return "index may be outside the array's bounds"
	case UnreachableCode:
		return "statement can never execute under any reachable state"
	case ReturnTypeMismatch:
		return "returned value's abstract shape is inconsistent across paths"
	case Timeout:
		return "function analysis exceeded its wall-clock budget"
	case Cancelled:
		return "analysis run was cancelled"
	case InternalError:
		return "analyzer invariant violated"
	case MalformedAST:
		return "input AST does not conform to the expected node vocabulary"
	default:
		return "unknown diagnostic"
	}
}

// IsAnalyzerCondition reports whether k is one of the analyzer's own
// operating conditions rather than a fact about the analyzed code.
func (k ErrorKind) IsAnalyzerCondition() bool {
	switch k {
	case Timeout, Cancelled, InternalError, MalformedAST:
		return true
	default:
		return false
	}
}

// Diagnostic is one finding emitted by the analysis core: a kind, a
// message, a source location, and the severity the kind implies.
type Diagnostic struct {
	Kind     ErrorKind
	Message  string
	Position program.Position
}

// NewDiagnostic builds a Diagnostic with the default message for kind.
func NewDiagnostic(kind ErrorKind, pos program.Position) Diagnostic {
	return Diagnostic{Kind: kind, Message: kind.Description(), Position: pos}
}

// WithMessage overrides the default message, returning the modified copy.
func (d Diagnostic) WithMessage(msg string) Diagnostic {
	d.Message = msg
	return d
}

// RelabelCallSite returns a copy of d with its position rewritten to the
// call site, used when merging a callee's diagnostics into a caller under
// summary application (§4.6).
func (d Diagnostic) RelabelCallSite(callSite program.Position) Diagnostic {
	d.Position = callSite
	return d
}

// Severity is a convenience accessor for d.Kind.Severity().
func (d Diagnostic) Severity() ErrorLevel { return d.Kind.Severity() }

// SortDiagnostics orders diagnostics by (file, line, column, kind), the
// deterministic ordering the analysis run promises its callers.
func SortDiagnostics(diags []Diagnostic) {
	sort.SliceStable(diags, func(i, j int) bool {
		a, b := diags[i], diags[j]
		if a.Position.Filename != b.Position.Filename {
			return a.Position.Filename < b.Position.Filename
		}
		if a.Position.Line != b.Position.Line {
			return a.Position.Line < b.Position.Line
		}
		if a.Position.Column != b.Position.Column {
			return a.Position.Column < b.Position.Column
		}
		return a.Kind < b.Kind
	})
}

// DiagnosticReporter formats Diagnostics Rust-style: a severity header, a
// `-->` location line, and a gutter with the numbered source line. No caret
// underline is drawn.
type DiagnosticReporter struct {
	filename string
	lines    []string
}

// NewDiagnosticReporter builds a reporter over source for filename. source
// may be empty if only the location line (no context lines) is wanted.
func NewDiagnosticReporter(filename, source string) *DiagnosticReporter {
	return &DiagnosticReporter{filename: filename, lines: strings.Split(source, "\n")}
}

// Format renders one diagnostic.
func (dr *DiagnosticReporter) Format(d Diagnostic) string {
	var b strings.Builder
	levelColor := dr.levelColor(d.Severity())
	bold := color.New(color.Bold).SprintFunc()
	dim := color.New(color.Faint).SprintFunc()

	b.WriteString(fmt.Sprintf("%s[%s]: %s\n", levelColor(string(d.Severity())), d.Kind, d.Message))
	b.WriteString(fmt.Sprintf("    %s %s:%d:%d\n", dim("-->"), dr.filename, d.Position.Line, d.Position.Column))
	b.WriteString(fmt.Sprintf("    %s\n", dim("│")))

	if d.Position.Line > 0 && d.Position.Line <= len(dr.lines) {
		b.WriteString(fmt.Sprintf("%s %s %s\n", bold(fmt.Sprintf("%3d", d.Position.Line)), dim("│"), dr.lines[d.Position.Line-1]))
	}
	return b.String()
}

func (dr *DiagnosticReporter) levelColor(level ErrorLevel) func(...interface{}) string {
	switch level {
	case Error:
		return color.New(color.FgRed, color.Bold).SprintFunc()
	case Warning:
		return color.New(color.FgYellow, color.Bold).SprintFunc()
	default:
		return color.New(color.FgBlue, color.Bold).SprintFunc()
	}
}
