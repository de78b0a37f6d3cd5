package syntax

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

// FromJava converts the root node of a tree-sitter-java parse tree. Only
// package, imports and type declarations are kept; annotation interfaces
// contribute their elements and defaults as parameters.
func FromJava(root *sitter.Node, path string, src []byte) *File {
	b := newBuilder(path, Java, src)
	for i := 0; i < int(root.ChildCount()); i++ {
		c := root.Child(i)
		if c == nil {
			continue
		}
		switch c.Type() {
		case "package_declaration":
			b.file.Package = strings.ReplaceAll(directiveText(b.text(c), "package"), " ", "")
		case "import_declaration":
			b.file.Imports = append(b.file.Imports, parseImport(b.text(c), "import", "static"))
		default:
			b.javaDeclarations(c, b.file.Package)
		}
	}
	return b.file
}

func (b *builder) javaDeclarations(n *sitter.Node, prefix string) {
	switch n.Type() {
	case "annotation_type_declaration", "class_declaration", "interface_declaration",
		"enum_declaration", "record_declaration":
	default:
		return
	}
	name := n.ChildByFieldName("name")
	if name == nil {
		return
	}
	d := &Declaration{
		Name:       b.text(name),
		Range:      b.rangeOf(n),
		Annotation: n.Type() == "annotation_type_declaration",
		Enum:       n.Type() == "enum_declaration",
	}
	d.FQN = qualify(prefix, d.Name)
	body := n.ChildByFieldName("body")
	if d.Annotation && body != nil {
		for _, el := range childrenOfType(body, "annotation_type_element_declaration") {
			if p := b.javaElement(el); p != nil {
				d.Params = append(d.Params, p)
			}
		}
	}
	b.addDeclaration(d)
	if body == nil {
		return
	}
	for i := 0; i < int(body.ChildCount()); i++ {
		if c := body.Child(i); c != nil {
			b.javaDeclarations(c, d.FQN)
		}
	}
}

func (b *builder) javaElement(n *sitter.Node) *Parameter {
	name := n.ChildByFieldName("name")
	if name == nil {
		return nil
	}
	p := &Parameter{Name: b.text(name), Range: b.rangeOf(n)}
	if t := n.ChildByFieldName("type"); t != nil {
		p.Type.Text = b.text(t)
		p.Type.Array = t.Type() == "array_type"
	}
	if dims := n.ChildByFieldName("dimensions"); dims != nil {
		p.Type.Text += b.text(dims)
		p.Type.Array = true
	}
	// Kotlin treats an array typed "value" element as vararg.
	p.Vararg = p.Name == "value" && p.Type.Array
	if v := n.ChildByFieldName("value"); v != nil {
		p.Default = b.javaExpr(v, nil)
	}
	return p
}

func (b *builder) javaExpr(n *sitter.Node, parent *Expr) *Expr {
	switch n.Type() {
	case "string_literal", "text_block":
		e := b.newExpr(n, ExprStringTemplate, parent)
		if c, err := ParseStringLiteral(e.Text); err == nil {
			e.Const = c
		}
		return e

	case "decimal_integer_literal", "hex_integer_literal", "octal_integer_literal", "binary_integer_literal":
		e := b.newExpr(n, ExprConstant, parent)
		e.Const, _ = ParseIntLiteral(e.Text)
		return e

	case "decimal_floating_point_literal", "hex_floating_point_literal":
		e := b.newExpr(n, ExprConstant, parent)
		e.Const, _ = ParseRealLiteral(e.Text)
		return e

	case "true", "false":
		e := b.newExpr(n, ExprConstant, parent)
		e.Const = &Constant{Kind: ConstBool, Value: n.Type() == "true"}
		return e

	case "character_literal":
		e := b.newExpr(n, ExprConstant, parent)
		e.Const, _ = ParseCharLiteral(e.Text)
		return e

	case "null_literal":
		e := b.newExpr(n, ExprConstant, parent)
		e.Const = &Constant{Kind: ConstNull}
		return e

	case "element_value_array_initializer", "array_initializer":
		e := b.newExpr(n, ExprCollection, parent)
		for i := 0; i < int(n.NamedChildCount()); i++ {
			if c := n.NamedChild(i); c != nil && c.Type() != "comment" {
				e.Elems = append(e.Elems, b.javaExpr(c, e))
			}
		}
		return e

	case "annotation", "marker_annotation":
		e := b.newExpr(n, ExprCall, parent)
		if name := n.ChildByFieldName("name"); name != nil {
			e.Callee = ParseRef(b.text(name))
			e.Callee.Range = b.rangeOf(name)
		}
		if args := n.ChildByFieldName("arguments"); args != nil {
			e.Args, e.ArgList = b.javaArguments(args, e)
		}
		return e

	case "class_literal":
		return b.newExpr(n, ExprClassLiteral, parent)

	case "identifier", "field_access", "scoped_identifier":
		e := b.newExpr(n, ExprReference, parent)
		e.Callee = ParseRef(e.Text)
		e.Callee.Range = e.Range
		return e

	case "unary_expression":
		e := b.newExpr(n, ExprPrefix, parent)
		if op := n.ChildByFieldName("operator"); op != nil {
			e.Operator = b.text(op)
		}
		if operand := n.ChildByFieldName("operand"); operand != nil {
			e.Operand = b.javaExpr(operand, e)
		}
		foldUnary(e)
		return e

	case "parenthesized_expression":
		e := b.newExpr(n, ExprParenthesized, parent)
		if c := n.NamedChild(0); c != nil {
			e.Operand = b.javaExpr(c, e)
		}
		return e
	}
	return b.newExpr(n, ExprOther, parent)
}

// javaArguments converts an annotation_argument_list. A lone unnamed element
// is the "value" element.
func (b *builder) javaArguments(n *sitter.Node, parent *Expr) ([]*Argument, *Expr) {
	list := b.newExpr(n, ExprArgumentList, parent)
	var args []*Argument
	for i := 0; i < int(n.NamedChildCount()); i++ {
		c := n.NamedChild(i)
		if c == nil || c.Type() == "comment" {
			continue
		}
		arg := &Argument{Range: b.rangeOf(c)}
		if c.Type() == "element_value_pair" {
			if k := c.ChildByFieldName("key"); k != nil {
				arg.Name = b.text(k)
			}
			v := c.ChildByFieldName("value")
			if v == nil {
				continue
			}
			arg.Value = b.javaExpr(v, list)
		} else {
			arg.Name = "value"
			arg.Value = b.javaExpr(c, list)
		}
		list.Elems = append(list.Elems, arg.Value)
		args = append(args, arg)
	}
	return args, list
}
