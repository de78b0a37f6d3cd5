package light

import (
	"fmt"
	"weak"

	"github.com/phobologic/ktlight/internal/stubs"
	"github.com/phobologic/ktlight/internal/syntax"
)

// nodeKey identifies a memoized node within one view. param is set only for
// vararg groups, which may have no expression of their own.
type nodeKey struct {
	shape Shape
	expr  *syntax.Expr
	param *syntax.Parameter
}

// materialize returns the node for (shape, expr), building it on first use.
// The subtree is built outside the view lock; if another lookup stored the
// same key meanwhile, its node wins and the new one is dropped.
func (v *View) materialize(shape Shape, expr *syntax.Expr, fromDefault bool) *Node {
	key := nodeKey{shape: shape, expr: expr}
	v.mu.Lock()
	n, ok := v.nodes[key]
	v.mu.Unlock()
	if ok {
		return n
	}
	return v.remember(v.build(shape, expr, nil, fromDefault))
}

// remember stores a freshly built subtree unless its root is already known.
func (v *View) remember(n *Node) *Node {
	v.mu.Lock()
	defer v.mu.Unlock()
	if prev, ok := v.nodes[n.key]; ok {
		return prev
	}
	n.walk(func(c *Node) {
		if _, ok := v.nodes[c.key]; !ok {
			v.nodes[c.key] = c
		}
	})
	return n
}

// build creates the node of expr for the given shape. It is a pure function
// of its arguments; memoization happens in materialize.
func (v *View) build(shape Shape, expr *syntax.Expr, parent *Node, fromDefault bool) *Node {
	n := v.newNode(nodeKey{shape: shape, expr: expr}, expr, parent, fromDefault)
	e := expr.Unparen()
	if e == nil {
		v.opaque(n, expr, "missing expression", true)
		return n
	}

	switch shape {
	case ShapeLiteral:
		n.Kind = Literal
		n.constant = e.Const

	case ShapeNestedAnnotation:
		if v.depth >= v.opts.maxDepth() {
			v.opaque(n, expr, fmt.Sprintf("annotation nesting deeper than %d", v.opts.maxDepth()), true)
			break
		}
		n.Kind = NestedAnnotation
		n.nested = v.child(e, n)

	case ShapeArray:
		n.Kind = Array
		n.elems = v.elements(e, n, fromDefault)

	case ShapeWrappedArray:
		n.Kind = Array
		n.elems = []*Node{v.build(Classify(expr, false, v.res), expr, n, fromDefault)}

	default:
		switch {
		case v.enumConstant(e):
			v.opaque(n, expr, "enum constant", false)
		case e.Kind == syntax.ExprClassLiteral, e.Kind == syntax.ExprReference:
			v.opaque(n, expr, "not a constant", false)
		default:
			v.opaque(n, expr, "unrecognized value", true)
		}
	}
	return n
}

// enumConstant reports whether e is a qualified reference whose qualifier
// names an enum class.
func (v *View) enumConstant(e *syntax.Expr) bool {
	if v.res == nil || e.Kind != syntax.ExprReference || len(e.Callee.Parts) < 2 {
		return false
	}
	owner := syntax.Ref{Parts: e.Callee.Parts[:len(e.Callee.Parts)-1], Range: e.Callee.Range}
	d := v.res.Lookup(e.File, owner)
	return d != nil && d.Enum
}

func (v *View) newNode(key nodeKey, expr *syntax.Expr, parent *Node, fromDefault bool) *Node {
	n := &Node{
		key:         key,
		view:        v,
		parent:      parent,
		fromDefault: fromDefault,
	}
	if expr != nil {
		n.src = weak.Make(expr)
		n.text = expr.Text
		n.rng = expr.Range
		if expr.File != nil {
			n.path = expr.File.Path
		}
	}
	return n
}

// elements returns the element nodes of an array-shaped expression:
// collection literal elements, or the arguments of an array builder call.
func (v *View) elements(e *syntax.Expr, parent *Node, fromDefault bool) []*Node {
	var out []*Node
	switch e.Kind {
	case syntax.ExprCollection:
		for _, el := range e.Elems {
			out = append(out, v.build(Classify(el, false, v.res), el, parent, fromDefault))
		}
	case syntax.ExprCall:
		for _, arg := range e.Args {
			out = append(out, v.argument(arg, parent, fromDefault)...)
		}
	}
	return out
}

// argument returns the element nodes contributed by one argument of a
// vararg group or array builder. A spread argument contributes the elements
// of the array it spreads; when those cannot be found the argument becomes a
// single opaque element.
func (v *View) argument(arg *syntax.Argument, parent *Node, fromDefault bool) []*Node {
	if !arg.Spread {
		return []*Node{v.build(Classify(arg.Value, false, v.res), arg.Value, parent, fromDefault)}
	}
	inner := arg.Value.Unparen()
	if Classify(inner, false, v.res) == ShapeArray {
		return v.elements(inner, parent, fromDefault)
	}
	n := v.newNode(nodeKey{shape: ShapeOpaque, expr: arg.Value}, arg.Value, parent, fromDefault)
	v.opaque(n, arg.Value, "cannot determine the elements of a spread argument", true)
	return []*Node{n}
}

// opaque turns n into an Opaque node. Unexpected shapes are diagnosed once
// per expression.
func (v *View) opaque(n *Node, expr *syntax.Expr, reason string, unexpected bool) {
	n.Kind = Opaque
	n.reason = reason
	n.constant, n.elems, n.nested = nil, nil, nil
	if !unexpected {
		log.Debugf("%s: opaque %q: %s", n.path, n.text, reason)
		return
	}
	if expr == nil || !v.diags.once(expr) {
		return
	}
	d := Diagnostic{
		Severity: SeverityWarning,
		Message:  reason,
		Text:     expr.Text,
		NodeKind: expr.NodeType,
		Path:     n.path,
		Range:    expr.Range,
	}
	if expr.Parent != nil {
		d.ParentKind = expr.Parent.NodeType
	}
	v.diags.add(d)
}

// vararg returns the array node of a vararg group. The node spans the
// argument list; an omitted group, with or without parentheses, is an empty
// array synthesized from the parameter declaration.
func (v *View) vararg(param *syntax.Parameter, args []*syntax.Argument, argList *syntax.Expr) *Node {
	// A single named argument may pass the whole array: @Foo(ids = [1, 2])
	if len(args) == 1 && args[0].Name != "" && !args[0].Spread {
		if Classify(args[0].Value, true, v.res) == ShapeArray {
			return v.materialize(ShapeArray, args[0].Value, false)
		}
	}

	key := nodeKey{shape: shapeVararg, expr: argList, param: param}
	v.mu.Lock()
	n, ok := v.nodes[key]
	v.mu.Unlock()
	if ok {
		return n
	}

	if len(args) == 0 {
		n = v.newNode(key, nil, nil, true)
		n.Kind = Array
		n.text = ""
		if param.Decl != nil && param.Decl.File != nil {
			n.path = param.Decl.File.Path
		}
		n.rng = param.Range
		return v.remember(n)
	}

	n = v.newNode(key, argList, nil, false)
	n.Kind = Array
	for _, arg := range args {
		n.elems = append(n.elems, v.argument(arg, n, false)...)
	}
	return v.remember(n)
}

// wrapCompiled builds the node of a compiled stub value.
func (v *View) wrapCompiled(value *stubs.Value, parent *Node) *Node {
	n := &Node{
		view:     v,
		parent:   parent,
		compiled: true,
		text:     value.Text,
	}
	switch value.Kind {
	case stubs.Literal:
		n.Kind = Literal
		n.constant = value.Constant()
		if n.constant == nil {
			n.Kind = Opaque
			n.reason = "compiled literal of unknown type " + value.Type
		}
	case stubs.Array:
		n.Kind = Array
		for _, el := range value.Elems {
			n.elems = append(n.elems, v.wrapCompiled(el, n))
		}
	case stubs.Annotation:
		n.Kind = NestedAnnotation
		n.nested = newCompiledView(value, n)
	default:
		n.Kind = Opaque
		n.reason = "compiled value"
	}
	return n
}
