// Package light projects Kotlin annotation usages onto the Java annotation
// model of package psi. Views are read-only and materialize lazily: nothing
// is resolved until an attribute is asked for, and every answer is memoized
// per view.
package light

import (
	"fmt"
	"weak"

	"github.com/tliron/commonlog"

	"github.com/phobologic/ktlight/internal/model"
	"github.com/phobologic/ktlight/internal/psi"
	"github.com/phobologic/ktlight/internal/syntax"
)

var log = commonlog.GetLogger("ktlight.light")

// NodeKind is the variant of a projected value.
type NodeKind int

const (
	Literal NodeKind = iota
	Array
	NestedAnnotation
	Opaque
)

func (k NodeKind) String() string {
	switch k {
	case Literal:
		return "literal"
	case Array:
		return "array"
	case NestedAnnotation:
		return "annotation"
	case Opaque:
		return "opaque"
	}
	return fmt.Sprintf("NodeKind(%d)", int(k))
}

// Node is one value of a projected annotation. Only the payload matching
// Kind is set.
//
// A node either traces to one source expression, is marked FromDefault when
// it was built from a declaration's default, or is marked Compiled when it
// wraps a stub value.
type Node struct {
	Kind NodeKind

	key    nodeKey
	view   *View
	parent *Node
	src    weak.Pointer[syntax.Expr]

	text string
	path string
	rng  syntax.Range

	fromDefault bool
	compiled    bool

	constant *syntax.Constant
	elems    []*Node
	nested   *View
	reason   string
}

// Source returns the originating expression, or nil for compiled and
// synthesized nodes and once the snapshot holding the source is gone.
func (n *Node) Source() *syntax.Expr { return n.src.Value() }

// Parent returns the enclosing node; nil for attribute roots.
func (n *Node) Parent() *Node { return n.parent }

// View returns the annotation view the node belongs to.
func (n *Node) View() *View { return n.view }

// Text returns the source text of the node.
func (n *Node) Text() string { return n.text }

// Range returns the source range of the node.
func (n *Node) Range() syntax.Range { return n.rng }

// Location returns the navigation target: the originating expression for
// source nodes, the declaration for defaults, nothing for compiled values.
func (n *Node) Location() psi.Location {
	return psi.Location{Path: n.path, Range: n.rng}
}

// FromDefault reports whether the node was built from a declaration default.
func (n *Node) FromDefault() bool { return n.fromDefault }

// Compiled reports whether the node wraps a compiled stub value.
func (n *Node) Compiled() bool { return n.compiled }

// Origin summarizes FromDefault and Compiled.
func (n *Node) Origin() model.Origin {
	switch {
	case n.compiled:
		return model.FromCompiled
	case n.fromDefault:
		return model.FromDefault
	}
	return model.FromSource
}

// Constant returns the evaluated value of a Literal node. It is nil for
// string templates with interpolation.
func (n *Node) Constant() *syntax.Constant { return n.constant }

// Elements returns the elements of an Array node.
func (n *Node) Elements() []*Node { return n.elems }

// Annotation returns the view of a NestedAnnotation node.
func (n *Node) Annotation() *View { return n.nested }

// Reason describes why a node is Opaque.
func (n *Node) Reason() string { return n.reason }

func (n *Node) String() string {
	if n == nil {
		return "<nil>"
	}
	return fmt.Sprintf("%s(%s)", n.Kind, n.text)
}

// walk calls fn for n and every element below it. Nested annotations are
// not entered; they memoize on their own view.
func (n *Node) walk(fn func(*Node)) {
	fn(n)
	for _, el := range n.elems {
		el.walk(fn)
	}
}
