package lsp

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/phobologic/ktlight/internal/index"
	"github.com/phobologic/ktlight/internal/lang"
	"github.com/phobologic/ktlight/internal/light"
	"github.com/phobologic/ktlight/internal/syntax"
)

const decls = `package com.example

annotation class Foo(val x: String = "d", vararg val ids: Int)
`

const useURI = "file:///proj/src/Use.kt"

func newServer(t *testing.T) *Server {
	t.Helper()
	f, err := lang.ForPath("Decls.kt").ParseSource(context.Background(), "Decls.kt", []byte(decls))
	require.NoError(t, err)
	return New(index.NewProject(index.New("/proj", f)), "test", light.Options{})
}

// notifications returns a context whose published diagnostics arrive on
// the returned channel.
func notifications() (*glsp.Context, <-chan protocol.PublishDiagnosticsParams) {
	ch := make(chan protocol.PublishDiagnosticsParams, 8)
	ctx := &glsp.Context{
		Notify: func(method string, params any) {
			if p, ok := params.(protocol.PublishDiagnosticsParams); ok && method == protocol.ServerTextDocumentPublishDiagnostics {
				ch <- p
			}
		},
	}
	return ctx, ch
}

func receive(t *testing.T, ch <-chan protocol.PublishDiagnosticsParams) protocol.PublishDiagnosticsParams {
	t.Helper()
	select {
	case p := <-ch:
		return p
	case <-time.After(5 * time.Second):
		t.Fatal("no diagnostics published")
	}
	return protocol.PublishDiagnosticsParams{}
}

func open(t *testing.T, s *Server, ctx *glsp.Context, text string) {
	t.Helper()
	err := s.textDocumentDidOpen(ctx, &protocol.DidOpenTextDocumentParams{
		TextDocument: protocol.TextDocumentItem{URI: useURI, LanguageID: "kotlin", Text: text},
	})
	require.NoError(t, err)
}

func hoverAt(t *testing.T, s *Server, line, char int) *protocol.Hover {
	t.Helper()
	h, err := s.textDocumentHover(nil, &protocol.HoverParams{
		TextDocumentPositionParams: protocol.TextDocumentPositionParams{
			TextDocument: protocol.TextDocumentIdentifier{URI: useURI},
			Position:     protocol.Position{Line: protocol.UInteger(line), Character: protocol.UInteger(char)},
		},
	})
	require.NoError(t, err)
	return h
}

func TestHoverShowsJavaView(t *testing.T) {
	s := newServer(t)
	ctx, ch := notifications()
	open(t, s, ctx, "package com.example\n\n@Foo(\"a\")\nclass Use\n")
	assert.Empty(t, receive(t, ch).Diagnostics)

	h := hoverAt(t, s, 2, 2)
	require.NotNil(t, h)
	mc, ok := h.Contents.(protocol.MarkupContent)
	require.True(t, ok, "hover contents should be MarkupContent")
	assert.Equal(t, protocol.MarkupKindMarkdown, mc.Kind)
	assert.Contains(t, mc.Value, `@com.example.Foo(x = "a")`)
	assert.Contains(t, mc.Value, "- `ids` = `{}` (default)")
	require.NotNil(t, h.Range)
	assert.Equal(t, protocol.UInteger(2), h.Range.Start.Line)

	assert.Nil(t, hoverAt(t, s, 3, 2), "no annotation on the class line")
}

func TestHoverUnknownDocument(t *testing.T) {
	s := newServer(t)
	assert.Nil(t, hoverAt(t, s, 0, 0))
}

func TestHoverUnresolved(t *testing.T) {
	s := newServer(t)
	ctx, ch := notifications()
	open(t, s, ctx, "package com.example\n\n@Nope(1)\nclass Use\n")
	assert.Len(t, receive(t, ch).Diagnostics, 1)

	h := hoverAt(t, s, 2, 1)
	require.NotNil(t, h)
	assert.Contains(t, h.Contents.(protocol.MarkupContent).Value, "is not declared in the project")
}

func TestDiagnosticsFollowEdits(t *testing.T) {
	s := newServer(t)
	ctx, ch := notifications()
	open(t, s, ctx, "package com.example\n\n@Foo(\"a\" + \"b\")\nclass Use\n")

	p := receive(t, ch)
	assert.Equal(t, useURI, string(p.URI))
	require.Len(t, p.Diagnostics, 1)
	assert.Equal(t, protocol.DiagnosticSeverityWarning, *p.Diagnostics[0].Severity)
	assert.Equal(t, protocol.UInteger(2), p.Diagnostics[0].Range.Start.Line)

	err := s.textDocumentDidChange(ctx, &protocol.DidChangeTextDocumentParams{
		TextDocument: protocol.VersionedTextDocumentIdentifier{
			TextDocumentIdentifier: protocol.TextDocumentIdentifier{URI: useURI},
			Version:                2,
		},
		ContentChanges: []any{
			protocol.TextDocumentContentChangeEventWhole{Text: "package com.example\n\n@Foo(\"ab\")\nclass Use\n"},
		},
	})
	require.NoError(t, err)
	assert.Empty(t, receive(t, ch).Diagnostics)

	h := hoverAt(t, s, 2, 1)
	require.NotNil(t, h)
	assert.Contains(t, h.Contents.(protocol.MarkupContent).Value, `x = "ab"`)

	require.NoError(t, s.textDocumentDidClose(ctx, &protocol.DidCloseTextDocumentParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: useURI},
	}))
	assert.Empty(t, receive(t, ch).Diagnostics)
	assert.Nil(t, hoverAt(t, s, 2, 1))
}

func TestEditingDeclarationRefreshesUsers(t *testing.T) {
	s := newServer(t)
	ctx, ch := notifications()
	open(t, s, ctx, "package com.example\n\n@Foo\nclass Use\n")
	receive(t, ch)
	assert.Contains(t, hoverAt(t, s, 2, 1).Contents.(protocol.MarkupContent).Value, "`x` = `\"d\"`")

	s.update("file:///proj/Decls.kt", "package com.example\n\nannotation class Foo(val x: String = \"e\")\n")
	assert.Contains(t, hoverAt(t, s, 2, 1).Contents.(protocol.MarkupContent).Value, "`x` = `\"e\"`")
}

func TestPathOf(t *testing.T) {
	s := newServer(t)
	tests := []struct {
		uri  string
		want string
	}{
		{"file:///proj/src/Use.kt", "src/Use.kt"},
		{"file:///proj/My%20File.kt", "My File.kt"},
		{"file:///elsewhere/A.kt", "/elsewhere/A.kt"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, s.pathOf(tt.uri), tt.uri)
	}
}

func TestOffsetOf(t *testing.T) {
	text := "ab\nc€d\n😀x"
	tests := []struct {
		line, char int
		want       int
	}{
		{0, 0, 0},
		{0, 2, 2},
		{0, 9, 2},
		{1, 1, 4},
		{1, 2, 7},
		{2, 2, 13},
		{2, 3, 14},
		{7, 0, len(text)},
	}
	for _, tt := range tests {
		got := offsetOf(text, protocol.Position{Line: protocol.UInteger(tt.line), Character: protocol.UInteger(tt.char)})
		assert.Equal(t, tt.want, got, "line %d char %d", tt.line, tt.char)
	}
}

func TestLSPRangeCountsUTF16(t *testing.T) {
	src := []byte("ab\nc€d😀x\n")
	// "d" starts at byte 7 of the file, column 4 of line 1; "x" at byte 12.
	r := syntax.Range{
		Start: syntax.Position{Offset: 7, Line: 1, Column: 4},
		End:   syntax.Position{Offset: 12, Line: 1, Column: 9},
	}
	got := lspRange(src, r)
	assert.Equal(t, protocol.Position{Line: 1, Character: 2}, got.Start)
	assert.Equal(t, protocol.Position{Line: 1, Character: 5}, got.End)

	// offsets outside the source fall back to the byte column
	out := lspRange(nil, r)
	assert.Equal(t, protocol.UInteger(4), out.Start.Character)
}

func TestHoverRangeOnNonASCIILine(t *testing.T) {
	s := newServer(t)
	ctx, ch := notifications()
	open(t, s, ctx, "package com.example\n\n@Foo(\"ü😀\")\nclass Use\n")
	receive(t, ch)

	h := hoverAt(t, s, 2, 1)
	require.NotNil(t, h)
	require.NotNil(t, h.Range)
	assert.Equal(t, protocol.Position{Line: 2, Character: 0}, h.Range.Start)
	assert.Equal(t, protocol.Position{Line: 2, Character: 11}, h.Range.End)
}

func TestInitializeAdvertisesHover(t *testing.T) {
	s := newServer(t)
	res, err := s.initialize(nil, &protocol.InitializeParams{})
	require.NoError(t, err)
	result, ok := res.(protocol.InitializeResult)
	require.True(t, ok)
	assert.Equal(t, true, result.Capabilities.HoverProvider)
	assert.Equal(t, lspName, result.ServerInfo.Name)
}
