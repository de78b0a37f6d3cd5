package syntax

import (
	"path/filepath"
	"strings"
	"unicode"

	sitter "github.com/smacker/go-tree-sitter"
)

// builder accumulates a File while walking one parse tree.
type builder struct {
	file     *File
	src      []byte
	ordinals map[string]int
}

func newBuilder(path string, language Language, src []byte) *builder {
	return &builder{
		file:     &File{Path: path, Language: language, Source: src},
		src:      src,
		ordinals: make(map[string]int),
	}
}

func (b *builder) text(n *sitter.Node) string {
	return string(b.src[n.StartByte():n.EndByte()])
}

func (b *builder) rangeOf(n *sitter.Node) Range {
	sp, ep := n.StartPoint(), n.EndPoint()
	return Range{
		Start: Position{Offset: int(n.StartByte()), Line: int(sp.Row), Column: int(sp.Column)},
		End:   Position{Offset: int(n.EndByte()), Line: int(ep.Row), Column: int(ep.Column)},
	}
}

func (b *builder) newExpr(n *sitter.Node, kind ExprKind, parent *Expr) *Expr {
	return &Expr{
		Kind:     kind,
		NodeType: n.Type(),
		Text:     b.text(n),
		Range:    b.rangeOf(n),
		File:     b.file,
		Parent:   parent,
	}
}

func (b *builder) addEntry(e *Entry) {
	e.File = b.file
	e.Ordinal = b.ordinals[e.Owner]
	b.ordinals[e.Owner]++
	b.file.Entries = append(b.file.Entries, e)
}

func (b *builder) addDeclaration(d *Declaration) {
	d.File = b.file
	for _, p := range d.Params {
		p.Decl = d
	}
	b.file.Declarations = append(b.file.Declarations, d)
}

// qualify joins a scope prefix and a simple name.
func qualify(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return prefix + "." + name
}

// facadeName is the JVM class holding top-level declarations of a Kotlin
// file: Foo.kt in package p becomes p.FooKt.
func facadeName(pkg, path string) string {
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	if base == "" {
		base = "File"
	}
	r := []rune(base)
	r[0] = unicode.ToUpper(r[0])
	return qualify(pkg, string(r)+"Kt")
}

func childrenOfType(n *sitter.Node, types ...string) []*sitter.Node {
	var out []*sitter.Node
	for i := 0; i < int(n.ChildCount()); i++ {
		c := n.Child(i)
		if c == nil {
			continue
		}
		for _, t := range types {
			if c.Type() == t {
				out = append(out, c)
				break
			}
		}
	}
	return out
}

func firstChildOfType(n *sitter.Node, types ...string) *sitter.Node {
	if cs := childrenOfType(n, types...); len(cs) > 0 {
		return cs[0]
	}
	return nil
}

func hasChildOfType(n *sitter.Node, types ...string) bool {
	return firstChildOfType(n, types...) != nil
}

// directiveText strips a leading keyword and trailing semicolon from a
// package or import directive.
func directiveText(s string, keywords ...string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, ";")
	for _, k := range keywords {
		if strings.HasPrefix(s, k) && len(s) > len(k) && unicode.IsSpace(rune(s[len(k)])) {
			s = strings.TrimSpace(s[len(k):])
		}
	}
	return strings.Join(strings.Fields(s), " ")
}

func parseImport(s string, keywords ...string) Import {
	s = directiveText(s, keywords...)
	var imp Import
	if i := strings.Index(s, " as "); i >= 0 {
		imp.Alias = strings.TrimSpace(s[i+4:])
		s = s[:i]
	}
	s = strings.ReplaceAll(s, " ", "")
	if strings.HasSuffix(s, ".*") {
		imp.Wildcard = true
		s = strings.TrimSuffix(s, ".*")
	}
	imp.Path = s
	return imp
}

var arrayTypes = map[string]struct{}{
	"IntArray":     {},
	"LongArray":    {},
	"ShortArray":   {},
	"ByteArray":    {},
	"CharArray":    {},
	"BooleanArray": {},
	"FloatArray":   {},
	"DoubleArray":  {},
	"UIntArray":    {},
	"ULongArray":   {},
	"UShortArray":  {},
	"UByteArray":   {},
}

func isKotlinArrayType(text string) bool {
	t := strings.TrimSuffix(strings.TrimSpace(text), "?")
	t = strings.TrimPrefix(t, "kotlin.")
	if strings.HasPrefix(t, "Array<") {
		return true
	}
	_, ok := arrayTypes[t]
	return ok
}
