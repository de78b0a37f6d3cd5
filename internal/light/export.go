package light

import (
	"context"
	"fmt"

	"github.com/phobologic/ktlight/internal/stubs"
	"github.com/phobologic/ktlight/internal/syntax"
)

// Compile converts a projected value into its compiled form. Nested
// annotations keep only their explicitly written attributes.
func Compile(n *Node) *stubs.Value {
	if n == nil {
		return nil
	}
	switch n.Kind {
	case Literal:
		if n.constant != nil {
			return stubs.FromConstant(n.constant, n.text)
		}
	case Array:
		v := &stubs.Value{Kind: stubs.Array, Text: n.text}
		for _, el := range n.elems {
			v.Elems = append(v.Elems, Compile(el))
		}
		return v
	case NestedAnnotation:
		v := &stubs.Value{Kind: stubs.Annotation, Text: n.text, Name: n.nested.QualifiedName()}
		for _, a := range n.nested.Attributes() {
			if v.Attrs == nil {
				v.Attrs = make(map[string]*stubs.Value)
			}
			v.Attrs[a.Name] = Compile(a.Value)
		}
		return v
	}
	return &stubs.Value{Kind: stubs.Opaque, Text: n.text}
}

// CompileUsage returns the explicitly written attributes of a view, or nil
// when its call site does not resolve.
func CompileUsage(v *View) *stubs.Usage {
	if !v.Resolved() {
		return nil
	}
	u := &stubs.Usage{
		Owner:      v.Owner(),
		Annotation: v.QualifiedName(),
		Ordinal:    v.Ordinal(),
		Attrs:      make(map[string]*stubs.Value),
	}
	for _, a := range v.Attributes() {
		u.Attrs[a.Name] = Compile(a.Value)
	}
	return u
}

// CompileDeclaration returns the compiled form of annotation class d with
// its evaluated defaults.
func (c *Cache) CompileDeclaration(d *syntax.Declaration) *stubs.Declaration {
	v := c.Defaults(d)
	out := &stubs.Declaration{FQN: d.FQN}
	for _, p := range d.Params {
		sp := stubs.Param{Name: p.Name, Type: p.Type.Text, Vararg: p.Vararg}
		if p.Default != nil {
			sp.Default = Compile(v.FindAttribute(p.Name))
		}
		out.Params = append(out.Params, sp)
	}
	return out
}

// ExportStats counts what Export wrote.
type ExportStats struct {
	Declarations int
	Usages       int
	Unresolved   int
}

// Export writes every annotation class and every resolved annotation usage
// of the given files to store.
func (c *Cache) Export(ctx context.Context, files []*syntax.File, store *stubs.Store) (ExportStats, error) {
	var stats ExportStats
	for _, f := range files {
		for _, d := range f.Declarations {
			if !d.Annotation {
				continue
			}
			if err := store.PutDeclaration(ctx, c.CompileDeclaration(d)); err != nil {
				return stats, fmt.Errorf("exporting %s: %w", d.FQN, err)
			}
			stats.Declarations++
		}
		for _, v := range c.Views(f) {
			u := CompileUsage(v)
			if u == nil {
				stats.Unresolved++
				continue
			}
			if err := store.PutUsage(ctx, u); err != nil {
				return stats, fmt.Errorf("exporting %s on %s: %w", u.Annotation, u.Owner, err)
			}
			stats.Usages++
		}
	}
	return stats, nil
}
