// Package lsp serves the projected Java view of Kotlin annotations to
// editors over the Language Server Protocol.
package lsp

import (
	"context"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/tliron/commonlog"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
	glspserver "github.com/tliron/glsp/server"

	"github.com/phobologic/ktlight/internal/index"
	"github.com/phobologic/ktlight/internal/light"
	"github.com/phobologic/ktlight/internal/model"
	"github.com/phobologic/ktlight/internal/psi"
	"github.com/phobologic/ktlight/internal/report"
	"github.com/phobologic/ktlight/internal/resolve"
	"github.com/phobologic/ktlight/internal/syntax"
)

const lspName = "ktlight"

var log = commonlog.GetLogger("ktlight.lsp")

// Server answers hover requests on annotation entries and publishes the
// diagnostics met while projecting them.
type Server struct {
	project *index.Project
	cache   *light.Cache
	resOpts []resolve.Option

	mu   sync.Mutex
	docs map[string]string // URI → full document content

	handler protocol.Handler
	server  *glspserver.Server
	version string
}

// New creates a server over project. Views are built with opts; resOpts
// configure the resolver installed after every edit.
func New(project *index.Project, version string, opts light.Options, resOpts ...resolve.Option) *Server {
	s := &Server{
		project: project,
		cache:   light.NewCache(resolve.New(project.Snapshot(), resOpts...), opts),
		resOpts: resOpts,
		docs:    make(map[string]string),
		version: version,
	}

	s.handler = protocol.Handler{
		Initialize:  s.initialize,
		Initialized: s.initialized,
		Shutdown:    s.shutdown,
		SetTrace:    s.setTrace,

		TextDocumentDidOpen:   s.textDocumentDidOpen,
		TextDocumentDidChange: s.textDocumentDidChange,
		TextDocumentDidClose:  s.textDocumentDidClose,

		TextDocumentHover: s.textDocumentHover,
	}

	s.server = glspserver.NewServer(&s.handler, lspName, false)

	return s
}

// Run starts the LSP server on stdio. Blocks until the client disconnects.
func (s *Server) Run() error {
	return s.server.RunStdio()
}

// --- LSP lifecycle handlers ---

func (s *Server) initialize(ctx *glsp.Context, params *protocol.InitializeParams) (any, error) {
	log.Infof("initializing for %s", s.project.Snapshot().Root())

	capabilities := s.handler.CreateServerCapabilities()

	syncKind := protocol.TextDocumentSyncKindFull
	capabilities.TextDocumentSync = &protocol.TextDocumentSyncOptions{
		OpenClose: boolPtr(true),
		Change:    &syncKind,
	}
	capabilities.HoverProvider = true

	return protocol.InitializeResult{
		Capabilities: capabilities,
		ServerInfo: &protocol.InitializeResultServerInfo{
			Name:    lspName,
			Version: &s.version,
		},
	}, nil
}

func (s *Server) initialized(ctx *glsp.Context, params *protocol.InitializedParams) error {
	return nil
}

func (s *Server) shutdown(ctx *glsp.Context) error {
	return nil
}

func (s *Server) setTrace(ctx *glsp.Context, params *protocol.SetTraceParams) error {
	return nil
}

// --- Document synchronization ---

func (s *Server) textDocumentDidOpen(ctx *glsp.Context, params *protocol.DidOpenTextDocumentParams) error {
	uri := params.TextDocument.URI
	text := params.TextDocument.Text

	s.mu.Lock()
	s.docs[string(uri)] = text
	s.mu.Unlock()

	s.update(uri, text)
	s.publishDiagnostics(ctx, uri)
	return nil
}

func (s *Server) textDocumentDidChange(ctx *glsp.Context, params *protocol.DidChangeTextDocumentParams) error {
	uri := params.TextDocument.URI

	// With Full sync, the last change event contains the full text
	if len(params.ContentChanges) > 0 {
		last := params.ContentChanges[len(params.ContentChanges)-1]
		if whole, ok := last.(protocol.TextDocumentContentChangeEventWhole); ok {
			s.mu.Lock()
			s.docs[string(uri)] = whole.Text
			s.mu.Unlock()

			s.update(uri, whole.Text)
			s.publishDiagnostics(ctx, uri)
		}
	}
	return nil
}

func (s *Server) textDocumentDidClose(ctx *glsp.Context, params *protocol.DidCloseTextDocumentParams) error {
	uri := params.TextDocument.URI

	s.mu.Lock()
	delete(s.docs, string(uri))
	s.mu.Unlock()

	go ctx.Notify(protocol.ServerTextDocumentPublishDiagnostics, protocol.PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: []protocol.Diagnostic{},
	})
	return nil
}

// update reparses the document, installs the new snapshot and drops the
// views that may have changed with it.
func (s *Server) update(uri protocol.DocumentUri, text string) {
	path := s.pathOf(uri)
	snap, dropped, err := s.project.Update(context.Background(), path, []byte(text))
	if err != nil {
		log.Warningf("%v", err)
		return
	}
	s.cache.Apply(resolve.New(snap, s.resOpts...), dropped)
}

// --- Language features ---

func (s *Server) textDocumentHover(ctx *glsp.Context, params *protocol.HoverParams) (*protocol.Hover, error) {
	uri := params.TextDocument.URI

	s.mu.Lock()
	text, ok := s.docs[string(uri)]
	s.mu.Unlock()

	if !ok {
		return nil, nil
	}
	return s.hover(uri, offsetOf(text, params.Position)), nil
}

func (s *Server) hover(uri protocol.DocumentUri, offset int) *protocol.Hover {
	f := s.project.Snapshot().File(s.pathOf(uri))
	if f == nil {
		return nil
	}
	e := f.EntryAt(offset)
	if e == nil {
		return nil
	}
	rng := lspRange(f.Source, e.Range)
	return &protocol.Hover{
		Contents: protocol.MarkupContent{
			Kind:  protocol.MarkupKindMarkdown,
			Value: hoverText(s.cache.View(e)),
		},
		Range: &rng,
	}
}

// hoverText shows the annotation as Java source followed by every attribute
// value, defaults included.
func hoverText(v *light.View) string {
	var b strings.Builder
	fmt.Fprintf(&b, "```java\n%s\n```\n", psi.Render(v.PSI()))
	if !v.Resolved() && !v.Compiled() {
		fmt.Fprintf(&b, "\n`%s` is not declared in the project", v.QualifiedName())
	}

	a := report.Annotation(v)
	if len(a.Attribute) > 0 {
		b.WriteString("\n")
	}
	for _, at := range a.Attribute {
		fmt.Fprintf(&b, "- `%s` = `%s`", at.Name, at.Value)
		if at.Origin != model.FromSource {
			fmt.Fprintf(&b, " (%s)", at.Origin)
			if at.Location != "" {
				fmt.Fprintf(&b, " from %s", at.Location)
			}
		}
		b.WriteString("\n")
	}
	return b.String()
}

// --- Diagnostics ---

func (s *Server) publishDiagnostics(ctx *glsp.Context, uri protocol.DocumentUri) {
	diagnostics := []protocol.Diagnostic{}
	if f := s.project.Snapshot().File(s.pathOf(uri)); f != nil {
		diagnostics = s.diagnostics(f)
	}

	go ctx.Notify(protocol.ServerTextDocumentPublishDiagnostics, protocol.PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: diagnostics,
	})
}

// diagnostics evaluates every annotation of f and converts the warnings and
// errors that land in f.
func (s *Server) diagnostics(f *syntax.File) []protocol.Diagnostic {
	source := lspName
	out := []protocol.Diagnostic{}
	for _, v := range s.cache.Views(f) {
		report.Annotation(v)
		for _, d := range v.Diagnostics() {
			if d.Path != f.Path {
				continue
			}
			var severity protocol.DiagnosticSeverity
			switch d.Severity {
			case light.SeverityError:
				severity = protocol.DiagnosticSeverityError
			case light.SeverityWarning:
				severity = protocol.DiagnosticSeverityWarning
			default:
				continue
			}
			out = append(out, protocol.Diagnostic{
				Range:    lspRange(f.Source, d.Range),
				Severity: &severity,
				Source:   &source,
				Message:  d.Message,
			})
		}
	}
	return out
}

// --- Position helpers ---

// pathOf maps a document URI to a snapshot path: relative to the project
// root when inside it, absolute otherwise.
func (s *Server) pathOf(uri protocol.DocumentUri) string {
	path := string(uri)
	if u, err := url.Parse(path); err == nil && u.Scheme == "file" {
		path = u.Path
	}
	path = filepath.FromSlash(path)
	if root := s.project.Snapshot().Root(); root != "" {
		if rel, err := filepath.Rel(root, path); err == nil && !strings.HasPrefix(rel, "..") {
			path = rel
		}
	}
	return filepath.ToSlash(path)
}

// offsetOf converts an LSP position (UTF-16 code units) into a byte offset.
func offsetOf(text string, pos protocol.Position) int {
	offset := 0
	for line := 0; line < int(pos.Line); line++ {
		i := strings.IndexByte(text[offset:], '\n')
		if i < 0 {
			return len(text)
		}
		offset += i + 1
	}
	units := int(pos.Character)
	for units > 0 && offset < len(text) && text[offset] != '\n' {
		r, size := utf8.DecodeRuneInString(text[offset:])
		if r >= 0x10000 {
			units -= 2
		} else {
			units--
		}
		offset += size
	}
	return offset
}

// lspRange converts a byte range of src into LSP positions.
func lspRange(src []byte, r syntax.Range) protocol.Range {
	return protocol.Range{Start: lspPosition(src, r.Start), End: lspPosition(src, r.End)}
}

// lspPosition counts the UTF-16 code units between the start of the line and
// the byte offset of pos.
func lspPosition(src []byte, pos syntax.Position) protocol.Position {
	start := pos.Offset - pos.Column
	if start < 0 || pos.Offset > len(src) {
		return protocol.Position{Line: protocol.UInteger(pos.Line), Character: protocol.UInteger(pos.Column)}
	}
	units := 0
	for line := src[start:pos.Offset]; len(line) > 0; {
		r, size := utf8.DecodeRune(line)
		if r >= 0x10000 {
			units += 2
		} else {
			units++
		}
		line = line[size:]
	}
	return protocol.Position{Line: protocol.UInteger(pos.Line), Character: protocol.UInteger(units)}
}

func boolPtr(b bool) *bool {
	return &b
}
