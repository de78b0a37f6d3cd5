package light

import (
	"github.com/phobologic/ktlight/internal/psi"
	"github.com/phobologic/ktlight/internal/syntax"
)

// PSI returns the node as a Java annotation model value, nil for nil.
func (n *Node) PSI() psi.MemberValue {
	if n == nil {
		return nil
	}
	switch n.Kind {
	case Literal:
		return literalValue{element: element{n}}
	case Array:
		return arrayValue{element: element{n}}
	case NestedAnnotation:
		return annotationValue{view: n.nested, node: n}
	}
	return opaqueValue{element: element{n}}
}

// PSI returns the view as a Java annotation.
func (v *View) PSI() psi.Annotation {
	if v.parent != nil {
		return annotationValue{view: v, node: v.parent}
	}
	return annotationValue{view: v}
}

// element implements psi.Element for every node variant.
type element struct {
	node *Node
}

func (e element) Text() string             { return e.node.text }
func (e element) TextRange() syntax.Range  { return e.node.rng }
func (e element) Navigation() psi.Location { return e.node.Location() }
func (e element) Parent() psi.Element      { return parentOf(e.node) }

func parentOf(n *Node) psi.Element {
	if n.parent != nil {
		return n.parent.PSI()
	}
	if n.view == nil {
		return nil
	}
	return n.view.PSI()
}

type literalValue struct {
	element
	psi.MemberImpl
}

func (l literalValue) Value() any {
	c := l.node.constant
	if c == nil {
		return nil
	}
	if c.Kind == syntax.ConstChar {
		return psi.Char(c.Value.(rune))
	}
	return c.Value
}

type arrayValue struct {
	element
	psi.MemberImpl
}

func (a arrayValue) Initializers() []psi.MemberValue {
	out := make([]psi.MemberValue, len(a.node.elems))
	for i, el := range a.node.elems {
		out[i] = el.PSI()
	}
	return out
}

type opaqueValue struct {
	element
	psi.ExpressionImpl
}

// annotationValue is a top-level annotation (node nil) or a nested one.
type annotationValue struct {
	psi.MemberImpl
	view *View
	node *Node
}

func (a annotationValue) Text() string {
	if a.node != nil {
		return a.node.text
	}
	return a.view.text()
}

func (a annotationValue) TextRange() syntax.Range {
	if a.node != nil {
		return a.node.rng
	}
	return a.view.textRange()
}

func (a annotationValue) Navigation() psi.Location {
	if a.node != nil {
		return a.node.Location()
	}
	return psi.Location{Path: a.view.path(), Range: a.view.textRange()}
}

func (a annotationValue) Parent() psi.Element {
	if a.node == nil {
		return nil
	}
	return parentOf(a.node)
}

func (a annotationValue) QualifiedName() string { return a.view.QualifiedName() }

func (a annotationValue) FindAttributeValue(name string) psi.MemberValue {
	return a.view.FindAttribute(name).PSI()
}

func (a annotationValue) FindDeclaredAttributeValue(name string) psi.MemberValue {
	return a.view.FindDeclaredAttribute(name).PSI()
}

func (a annotationValue) Attributes() []psi.NameValuePair {
	attrs := a.view.Attributes()
	out := make([]psi.NameValuePair, len(attrs))
	for i, attr := range attrs {
		out[i] = psi.NameValuePair{Name: attr.Name, Value: attr.Value.PSI()}
	}
	return out
}
