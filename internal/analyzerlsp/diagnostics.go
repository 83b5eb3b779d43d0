// Package analyzerlsp exposes the analyzer as a language server: it parses
// whatever fixture.af source the editor has open, runs it through
// interproc.Driver, and publishes the resulting diagnostics.
package analyzerlsp

import (
	"github.com/alecthomas/participle/v2"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"absint/internal/errors"
)

// ConvertDiagnostics turns analyzer findings into LSP diagnostics.
// Position.Line/Column are 1-based; LSP wants 0-based.
func ConvertDiagnostics(diags []errors.Diagnostic) []protocol.Diagnostic {
	out := make([]protocol.Diagnostic, 0, len(diags))
	for _, d := range diags {
		line := d.Position.Line - 1
		if line < 0 {
			line = 0
		}
		col := d.Position.Column - 1
		if col < 0 {
			col = 0
		}
		out = append(out, protocol.Diagnostic{
			Range: protocol.Range{
				Start: protocol.Position{Line: uint32(line), Character: uint32(col)},
				End:   protocol.Position{Line: uint32(line), Character: uint32(col + 1)},
			},
			Severity: ptrSeverity(severityFor(d.Severity())),
			Source:   ptrString("abstract-interp"),
			Message:  d.Message,
		})
	}
	return out
}

func severityFor(level errors.ErrorLevel) protocol.DiagnosticSeverity {
	switch level {
	case errors.Error:
		return protocol.DiagnosticSeverityError
	case errors.Warning:
		return protocol.DiagnosticSeverityWarning
	default:
		return protocol.DiagnosticSeverityInformation
	}
}

// ConvertParseError turns a fixture parse failure into a single diagnostic
// pinned at the error's reported position, or at line 1 if the parser
// didn't attach one.
func ConvertParseError(err error) []protocol.Diagnostic {
	line, col := 0, 0
	if pe, ok := err.(participle.Error); ok {
		p := pe.Position()
		if p.Line > 0 {
			line = p.Line - 1
		}
		if p.Column > 0 {
			col = p.Column - 1
		}
	}
	return []protocol.Diagnostic{{
		Range: protocol.Range{
			Start: protocol.Position{Line: uint32(line), Character: uint32(col)},
			End:   protocol.Position{Line: uint32(line), Character: uint32(col + 1)},
		},
		Severity: ptrSeverity(protocol.DiagnosticSeverityError),
		Source:   ptrString("fixture-parser"),
		Message:  err.Error(),
	}}
}

func ptrSeverity(s protocol.DiagnosticSeverity) *protocol.DiagnosticSeverity { return &s }
func ptrString(s string) *string                                           { return &s }
