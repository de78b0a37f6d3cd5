// Package lang provides a language registry mapping file extensions to
// tree-sitter languages and the converters that build source models from
// their parse trees.
package lang

import (
	"context"
	"fmt"
	"strings"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/phobologic/ktlight/internal/syntax"
)

// Language holds tree-sitter configuration for a supported language.
type Language struct {
	Name       syntax.Language
	Extensions []string
	lang       *sitter.Language

	// Build converts a parse tree into the source model.
	Build func(root *sitter.Node, path string, source []byte) *syntax.File
}

// GetLanguage returns the tree-sitter Language pointer.
func (l *Language) GetLanguage() *sitter.Language {
	return l.lang
}

// NewParser creates a fresh tree-sitter parser for this language.
// Each goroutine must use its own parser (not thread-safe).
func (l *Language) NewParser() *sitter.Parser {
	p := sitter.NewParser()
	p.SetLanguage(l.lang)
	return p
}

// Parse parses source with p and converts the tree. The tree is released
// before returning; the returned File does not reference it.
func (l *Language) Parse(ctx context.Context, p *sitter.Parser, path string, source []byte) (*syntax.File, error) {
	tree, err := p.ParseCtx(ctx, nil, source)
	if err != nil {
		return nil, &syntax.ParseError{Path: path, Err: err}
	}
	if tree == nil {
		return nil, &syntax.ParseError{Path: path, Err: fmt.Errorf("no tree produced")}
	}
	defer tree.Close()
	return l.Build(tree.RootNode(), path, source), nil
}

// ParseSource is Parse with a throwaway parser.
func (l *Language) ParseSource(ctx context.Context, path string, source []byte) (*syntax.File, error) {
	p := l.NewParser()
	defer p.Close()
	return l.Parse(ctx, p, path, source)
}

// Languages maps language names to their configuration.
// Populated by init() functions in per-language files.
var Languages = map[syntax.Language]*Language{}

// extensionMap is built lazily after all init() functions have run.
var extensionMap map[string]syntax.Language
var extensionOnce sync.Once

func getExtensionMap() map[string]syntax.Language {
	extensionOnce.Do(func() {
		extensionMap = make(map[string]syntax.Language)
		for _, l := range Languages {
			for _, ext := range l.Extensions {
				extensionMap[ext] = l.Name
			}
		}
	})
	return extensionMap
}

// ForExtension returns the language name for a file extension, or "" if unsupported.
func ForExtension(ext string) syntax.Language {
	return getExtensionMap()[strings.ToLower(ext)]
}

// ForPath returns the language configuration for a file path, or nil.
func ForPath(path string) *Language {
	i := strings.LastIndexByte(path, '.')
	if i < 0 {
		return nil
	}
	return Languages[ForExtension(path[i:])]
}
