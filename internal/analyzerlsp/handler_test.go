package analyzerlsp_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"absint/internal/analyzerlsp"
	"absint/internal/config"
)

func writeFixture(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "sample.af")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDidOpenPublishesNoDiagnosticsForCleanFunction(t *testing.T) {
	path := writeFixture(t, `
		fn double(n) {
			return n + n;
		}
	`)
	handler := analyzerlsp.NewHandler(config.Default(), nil)

	var published []protocol.Diagnostic
	ctx := &glsp.Context{
		Notify: func(method string, params any) {
			if p, ok := params.(*protocol.PublishDiagnosticsParams); ok {
				published = p.Diagnostics
			}
		},
	}

	err := handler.TextDocumentDidOpen(ctx, &protocol.DidOpenTextDocumentParams{
		TextDocument: protocol.TextDocumentItem{URI: "file://" + filepath.ToSlash(path)},
	})
	require.NoError(t, err)
	require.Empty(t, published)
}

func TestDidOpenPublishesParseErrorDiagnostic(t *testing.T) {
	path := writeFixture(t, `fn broken( {`)
	handler := analyzerlsp.NewHandler(config.Default(), nil)

	var published []protocol.Diagnostic
	ctx := &glsp.Context{
		Notify: func(method string, params any) {
			if p, ok := params.(*protocol.PublishDiagnosticsParams); ok {
				published = p.Diagnostics
			}
		},
	}

	err := handler.TextDocumentDidOpen(ctx, &protocol.DidOpenTextDocumentParams{
		TextDocument: protocol.TextDocumentItem{URI: "file://" + filepath.ToSlash(path)},
	})
	require.NoError(t, err)
	require.Len(t, published, 1)
	require.Equal(t, "fixture-parser", *published[0].Source)
}
