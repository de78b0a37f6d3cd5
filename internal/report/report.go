// Package report assembles the annotation report of an indexed source tree.
package report

import (
	"fmt"

	"github.com/phobologic/ktlight/internal/index"
	"github.com/phobologic/ktlight/internal/light"
	"github.com/phobologic/ktlight/internal/model"
	"github.com/phobologic/ktlight/internal/psi"
)

// Build evaluates every annotation usage of the snapshot, including
// defaulted attributes, and collects the resulting records. Debug
// diagnostics are left out.
func Build(name string, snap *index.Snapshot, cache *light.Cache) *model.Report {
	r := &model.Report{
		Name:         name,
		Root:         name,
		Files:        len(snap.Paths()),
		Dependencies: snap.Dependencies(),
	}
	for _, path := range snap.Paths() {
		for _, v := range cache.Views(snap.File(path)) {
			r.Annotations = append(r.Annotations, Annotation(v))
			for _, d := range v.Diagnostics() {
				if d.Severity == light.SeverityDebug {
					continue
				}
				r.Diagnostics = append(r.Diagnostics, model.Diagnostic{
					File:     d.Path,
					Line:     d.Range.Start.Line + 1,
					Severity: d.Severity.String(),
					Message:  d.Message,
				})
			}
		}
	}
	return r
}

// Annotation converts one view into its report record.
func Annotation(v *light.View) model.Annotation {
	a := model.Annotation{
		Owner:    v.Owner(),
		Name:     v.QualifiedName(),
		Ordinal:  v.Ordinal(),
		Resolved: v.Resolved(),
	}
	if site := v.Site(); site != nil {
		a.File = site.File.Path
		a.Line = site.Range.Start.Line + 1
	}
	for _, name := range v.Parameters() {
		if n := v.FindAttribute(name); n != nil {
			a.Attribute = append(a.Attribute, Attribute(name, n))
		}
	}
	return a
}

// Attribute converts one attribute value into its report record.
func Attribute(name string, n *light.Node) model.Attribute {
	return model.Attribute{
		Name:     name,
		Kind:     Kind(n.Kind),
		Value:    psi.Render(n.PSI()),
		Origin:   n.Origin(),
		Location: Location(n.Location()),
	}
}

// Kind maps a node kind to its report name.
func Kind(k light.NodeKind) model.ValueKind {
	switch k {
	case light.Literal:
		return model.Literal
	case light.Array:
		return model.Array
	case light.NestedAnnotation:
		return model.NestedAnnotation
	}
	return model.Opaque
}

// Location formats a navigation target as path:line, or "" for none.
func Location(l psi.Location) string {
	if l.IsZero() {
		return ""
	}
	return fmt.Sprintf("%s:%d", l.Path, l.Range.Start.Line+1)
}

// Find returns the views of annotations on owner whose qualified or simple
// name is annotation, in source order.
func Find(snap *index.Snapshot, cache *light.Cache, owner, annotation string) []*light.View {
	var out []*light.View
	for _, path := range snap.Paths() {
		f := snap.File(path)
		for _, e := range f.EntriesOf(owner) {
			v := cache.View(e)
			if name := v.QualifiedName(); name == annotation || e.Callee.String() == annotation || e.Callee.Name() == annotation {
				out = append(out, v)
			}
		}
	}
	return out
}
