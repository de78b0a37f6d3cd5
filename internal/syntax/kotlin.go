package syntax

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

// FromKotlin converts the root node of a tree-sitter-kotlin parse tree.
func FromKotlin(root *sitter.Node, path string, src []byte) *File {
	b := newBuilder(path, Kotlin, src)
	for i := 0; i < int(root.ChildCount()); i++ {
		c := root.Child(i)
		if c == nil {
			continue
		}
		switch c.Type() {
		case "package_header":
			b.file.Package = strings.ReplaceAll(directiveText(b.text(c), "package"), " ", "")
		case "import_list":
			for _, h := range childrenOfType(c, "import_header") {
				b.file.Imports = append(b.file.Imports, parseImport(b.text(h), "import"))
			}
		case "import_header":
			b.file.Imports = append(b.file.Imports, parseImport(b.text(c), "import"))
		}
	}
	facade := facadeName(b.file.Package, path)
	for i := 0; i < int(root.ChildCount()); i++ {
		c := root.Child(i)
		if c == nil {
			continue
		}
		if c.Type() == "file_annotation" {
			b.kotlinAnnotation(c, facade, "file")
			continue
		}
		b.kotlinDeclarations(c, b.file.Package, facade)
	}
	return b.file
}

// kotlinDeclarations visits n looking for declarations. prefix qualifies
// nested classes, members is the owner prefix for functions and properties.
func (b *builder) kotlinDeclarations(n *sitter.Node, prefix, members string) {
	switch n.Type() {
	case "class_declaration", "object_declaration":
		b.kotlinClass(n, prefix)
		return
	case "function_declaration":
		name := b.text(firstChildOrSelf(n, "simple_identifier"))
		owner := qualify(members, name)
		b.kotlinModifiers(n, owner)
		if params := firstChildOfType(n, "function_value_parameters"); params != nil {
			// parameter_modifiers precede their parameter as siblings
			var pending []*sitter.Node
			for i := 0; i < int(params.ChildCount()); i++ {
				c := params.Child(i)
				switch c.Type() {
				case "parameter_modifiers":
					pending = append(pending, c)
				case "parameter":
					pname := b.text(firstChildOrSelf(c, "simple_identifier"))
					for _, m := range pending {
						b.kotlinAnnotationsIn(m, owner+"."+pname)
					}
					pending = nil
				}
			}
		}
		return
	case "property_declaration":
		name := ""
		if v := firstChildOfType(n, "variable_declaration"); v != nil {
			name = b.text(firstChildOrSelf(v, "simple_identifier"))
		}
		b.kotlinModifiers(n, qualify(members, name))
		return
	case "annotation", "file_annotation", "value_arguments", "function_body":
		return
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		if c := n.Child(i); c != nil {
			b.kotlinDeclarations(c, prefix, members)
		}
	}
}

func (b *builder) kotlinClass(n *sitter.Node, prefix string) {
	nameNode := firstChildOfType(n, "type_identifier", "simple_identifier")
	if nameNode == nil {
		return
	}
	d := &Declaration{
		Name:  b.text(nameNode),
		Range: b.rangeOf(n),
	}
	d.FQN = qualify(prefix, d.Name)
	if mods := firstChildOfType(n, "modifiers"); mods != nil {
		for i := 0; i < int(mods.ChildCount()); i++ {
			m := mods.Child(i)
			if m == nil || m.Type() == "annotation" {
				continue
			}
			switch strings.TrimSpace(b.text(m)) {
			case "annotation":
				d.Annotation = true
			case "enum":
				d.Enum = true
			}
		}
	}
	if hasChildOfType(n, "enum_class_body", "enum") {
		d.Enum = true
	}
	b.kotlinModifiers(n, d.FQN)

	if ctor := firstChildOfType(n, "primary_constructor"); ctor != nil {
		params := childrenOfType(ctor, "class_parameter")
		if list := firstChildOfType(ctor, "class_parameters"); list != nil {
			params = append(params, childrenOfType(list, "class_parameter")...)
		}
		for _, p := range params {
			if param := b.kotlinParameter(p); param != nil {
				d.Params = append(d.Params, param)
				b.kotlinModifiers(p, d.FQN+"."+param.Name)
			}
		}
	}
	b.addDeclaration(d)

	for _, body := range childrenOfType(n, "class_body", "enum_class_body") {
		for i := 0; i < int(body.ChildCount()); i++ {
			if c := body.Child(i); c != nil {
				b.kotlinDeclarations(c, d.FQN, d.FQN)
			}
		}
	}
}

func (b *builder) kotlinParameter(n *sitter.Node) *Parameter {
	name := firstChildOfType(n, "simple_identifier")
	if name == nil {
		return nil
	}
	p := &Parameter{Name: b.text(name), Range: b.rangeOf(n)}
	if mods := firstChildOfType(n, "modifiers"); mods != nil {
		for _, m := range childrenOfType(mods, "parameter_modifier") {
			if strings.TrimSpace(b.text(m)) == "vararg" {
				p.Vararg = true
			}
		}
	}
	sawColon, sawEquals := false, false
	for i := 0; i < int(n.ChildCount()); i++ {
		c := n.Child(i)
		if c == nil {
			continue
		}
		switch {
		case c.Type() == ":":
			sawColon = true
		case c.Type() == "=":
			sawEquals = true
		case sawEquals && isKotlinValue(c):
			if p.Default == nil {
				p.Default = b.kotlinExpr(c, nil)
			}
		case sawColon && !sawEquals && c.IsNamed() && p.Type.Text == "":
			p.Type = TypeRef{Text: b.text(c)}
		}
	}
	p.Type.Array = p.Vararg || isKotlinArrayType(p.Type.Text)
	return p
}

// kotlinModifiers records the annotations found in the modifiers of n.
func (b *builder) kotlinModifiers(n *sitter.Node, owner string) {
	for _, mods := range childrenOfType(n, "modifiers", "parameter_modifiers") {
		b.kotlinAnnotationsIn(mods, owner)
	}
}

func (b *builder) kotlinAnnotationsIn(mods *sitter.Node, owner string) {
	for _, a := range childrenOfType(mods, "annotation") {
		b.kotlinAnnotation(a, owner, "")
	}
}

// kotlinAnnotation records every entry of an annotation node; multi
// annotations (`@[A B(1)]`) produce several entries.
func (b *builder) kotlinAnnotation(n *sitter.Node, owner, useSite string) {
	invocations := childrenOfType(n, "constructor_invocation", "user_type")
	if t := firstChildOfType(n, "use_site_target"); t != nil {
		useSite = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(b.text(t)), ":"))
	}
	for _, inv := range invocations {
		e := &Entry{Owner: owner, UseSite: useSite}
		whole := inv
		if len(invocations) == 1 {
			whole = n
		}
		e.Text = b.text(whole)
		e.Range = b.rangeOf(whole)
		switch inv.Type() {
		case "constructor_invocation":
			if ut := firstChildOfType(inv, "user_type"); ut != nil {
				e.Callee = b.kotlinUserType(ut)
			}
			if args := firstChildOfType(inv, "value_arguments"); args != nil {
				e.Args, e.ArgList = b.kotlinArguments(args, nil)
			}
		default:
			e.Callee = b.kotlinUserType(inv)
		}
		b.addEntry(e)
	}
}

func (b *builder) kotlinUserType(n *sitter.Node) Ref {
	r := Ref{Range: b.rangeOf(n)}
	for _, id := range childrenOfType(n, "type_identifier", "simple_identifier") {
		r.Parts = append(r.Parts, strings.Trim(b.text(id), "`"))
	}
	if len(r.Parts) == 0 {
		r = ParseRef(b.text(n))
		r.Range = b.rangeOf(n)
	}
	return r
}

func (b *builder) kotlinArguments(n *sitter.Node, parent *Expr) ([]*Argument, *Expr) {
	list := b.newExpr(n, ExprArgumentList, parent)
	var args []*Argument
	for _, va := range childrenOfType(n, "value_argument") {
		arg := &Argument{Range: b.rangeOf(va)}
		eq := -1
		for i := 0; i < int(va.ChildCount()); i++ {
			if c := va.Child(i); c != nil && c.Type() == "=" {
				eq = i
				break
			}
		}
		var value *sitter.Node
		for i := 0; i < int(va.ChildCount()); i++ {
			c := va.Child(i)
			if c == nil {
				continue
			}
			switch {
			case c.Type() == "*":
				arg.Spread = true
			case i > eq && c.Type() == "spread_expression":
				arg.Spread = true
				value = c.NamedChild(0)
			case i < eq && c.Type() == "simple_identifier":
				arg.Name = strings.Trim(b.text(c), "`")
			case i > eq && isKotlinValue(c):
				value = c
			}
		}
		if value == nil {
			continue
		}
		arg.Value = b.kotlinExpr(value, list)
		list.Elems = append(list.Elems, arg.Value)
		args = append(args, arg)
	}
	return args, list
}

func isKotlinValue(n *sitter.Node) bool {
	switch n.Type() {
	case "annotation", "label":
		return false
	case "null":
		return true
	}
	return n.IsNamed()
}

func (b *builder) kotlinExpr(n *sitter.Node, parent *Expr) *Expr {
	switch t := n.Type(); t {
	case "string_literal", "line_string_literal", "multi_line_string_literal", "multiline_string_literal":
		e := b.newExpr(n, ExprStringTemplate, parent)
		if !hasInterpolation(n) {
			if c, err := ParseStringLiteral(e.Text); err == nil {
				e.Const = c
			}
		}
		return e

	case "integer_literal", "hex_literal", "bin_literal", "long_literal", "unsigned_literal":
		e := b.newExpr(n, ExprConstant, parent)
		e.Const, _ = ParseIntLiteral(e.Text)
		return e

	case "real_literal":
		e := b.newExpr(n, ExprConstant, parent)
		e.Const, _ = ParseRealLiteral(e.Text)
		return e

	case "boolean_literal":
		e := b.newExpr(n, ExprConstant, parent)
		e.Const = &Constant{Kind: ConstBool, Value: strings.TrimSpace(e.Text) == "true"}
		return e

	case "character_literal":
		e := b.newExpr(n, ExprConstant, parent)
		e.Const, _ = ParseCharLiteral(e.Text)
		return e

	case "null", "null_literal":
		e := b.newExpr(n, ExprConstant, parent)
		e.Const = &Constant{Kind: ConstNull}
		return e

	case "call_expression":
		e := b.newExpr(n, ExprCall, parent)
		if callee := n.NamedChild(0); callee != nil {
			e.Callee = b.kotlinCallee(callee)
		}
		if suffix := firstChildOfType(n, "call_suffix"); suffix != nil {
			if args := firstChildOfType(suffix, "value_arguments"); args != nil {
				e.Args, e.ArgList = b.kotlinArguments(args, e)
			}
		}
		return e

	case "collection_literal":
		e := b.newExpr(n, ExprCollection, parent)
		for i := 0; i < int(n.ChildCount()); i++ {
			if c := n.Child(i); c != nil && isKotlinValue(c) {
				e.Elems = append(e.Elems, b.kotlinExpr(c, e))
			}
		}
		return e

	case "callable_reference":
		if strings.HasSuffix(strings.TrimSpace(b.text(n)), "::class") {
			return b.newExpr(n, ExprClassLiteral, parent)
		}
		return b.newExpr(n, ExprReference, parent)

	case "navigation_expression":
		if strings.Contains(b.text(n), "::class") {
			return b.newExpr(n, ExprClassLiteral, parent)
		}
		e := b.newExpr(n, ExprReference, parent)
		e.Callee = b.kotlinCallee(n)
		return e

	case "simple_identifier":
		e := b.newExpr(n, ExprReference, parent)
		e.Callee = Ref{Parts: []string{strings.Trim(e.Text, "`")}, Range: e.Range}
		return e

	case "prefix_expression":
		e := b.newExpr(n, ExprPrefix, parent)
		for i := 0; i < int(n.ChildCount()); i++ {
			c := n.Child(i)
			if c == nil {
				continue
			}
			if !c.IsNamed() && e.Operand == nil {
				e.Operator = strings.TrimSpace(b.text(c))
			} else if isKotlinValue(c) {
				e.Operand = b.kotlinExpr(c, e)
			}
		}
		foldUnary(e)
		return e

	case "parenthesized_expression":
		e := b.newExpr(n, ExprParenthesized, parent)
		if c := n.NamedChild(0); c != nil {
			e.Operand = b.kotlinExpr(c, e)
		}
		return e
	}
	return b.newExpr(n, ExprOther, parent)
}

// kotlinCallee flattens a callee expression into a dotted reference when it
// consists of identifiers only.
func (b *builder) kotlinCallee(n *sitter.Node) Ref {
	var parts []string
	ok := true
	var walk func(*sitter.Node)
	walk = func(n *sitter.Node) {
		switch n.Type() {
		case "simple_identifier", "type_identifier":
			parts = append(parts, strings.Trim(b.text(n), "`"))
		case "navigation_expression", "navigation_suffix":
			for i := 0; i < int(n.ChildCount()); i++ {
				c := n.Child(i)
				if c == nil || !c.IsNamed() {
					continue
				}
				walk(c)
			}
		default:
			ok = false
		}
	}
	walk(n)
	if !ok {
		return Ref{}
	}
	return Ref{Parts: parts, Range: b.rangeOf(n)}
}

func hasInterpolation(n *sitter.Node) bool {
	for i := 0; i < int(n.ChildCount()); i++ {
		c := n.Child(i)
		if c == nil {
			continue
		}
		if strings.HasPrefix(c.Type(), "interpolat") || c.Type() == "line_str_ref" || c.Type() == "multi_line_str_ref" {
			return true
		}
	}
	return false
}

// foldUnary turns -1 and +1 into constants, keeping the operand.
func foldUnary(e *Expr) {
	inner := e.Operand.Unparen()
	if inner == nil || inner.Kind != ExprConstant || inner.Const == nil {
		return
	}
	switch e.Operator {
	case "-":
		if c, ok := inner.Const.Negate(); ok {
			e.Kind, e.Const = ExprConstant, c
		}
	case "+":
		if _, ok := inner.Const.Negate(); ok {
			e.Kind, e.Const = ExprConstant, inner.Const
		}
	}
}

func firstChildOrSelf(n *sitter.Node, types ...string) *sitter.Node {
	if c := firstChildOfType(n, types...); c != nil {
		return c
	}
	return n
}
