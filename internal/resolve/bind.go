package resolve

import (
	"fmt"

	"github.com/phobologic/ktlight/internal/syntax"
)

// group collects the arguments assigned to one parameter.
type group struct {
	args  []*syntax.Argument
	named bool
}

// bindKotlin assigns arguments the way Kotlin does for annotation
// constructors: named arguments by name, positional ones in declaration
// order, and a vararg parameter takes every remaining positional argument.
func bindKotlin(call *Call) {
	params := call.Callee.Params
	groups := make([]*group, len(params))
	next := 0

	for _, arg := range call.Site.Args {
		if arg.Name != "" {
			i := paramIndex(params, arg.Name)
			if i < 0 {
				call.problem(arg, fmt.Sprintf("no parameter named %q in %s", arg.Name, call.Callee.FQN))
				continue
			}
			if groups[i] != nil {
				call.problem(arg, fmt.Sprintf("parameter %q given more than once", arg.Name))
				continue
			}
			groups[i] = &group{args: []*syntax.Argument{arg}, named: true}
			continue
		}

		for next < len(params) && groups[next] != nil && !(params[next].Vararg && !groups[next].named) {
			next++
		}
		if next >= len(params) {
			call.problem(arg, fmt.Sprintf("too many arguments for %s", call.Callee.FQN))
			continue
		}
		if groups[next] == nil {
			groups[next] = &group{}
		}
		groups[next].args = append(groups[next].args, arg)
		if !params[next].Vararg {
			next++
		}
	}

	call.Bindings = make([]*Binding, len(params))
	for i, p := range params {
		call.Bindings[i] = bind(p, groups[i])
	}
}

// bindJava assigns arguments to the elements of a Java annotation interface.
// Only the "value" element accepts positional arguments; an array typed
// "value" element takes all of them.
func bindJava(call *Call) {
	params := call.Callee.Params
	groups := make([]*group, len(params))
	value := paramIndex(params, "value")

	for _, arg := range call.Site.Args {
		i := value
		if arg.Name != "" {
			i = paramIndex(params, arg.Name)
		}
		switch {
		case i < 0 && arg.Name != "":
			call.problem(arg, fmt.Sprintf("no element named %q in %s", arg.Name, call.Callee.FQN))
			continue
		case i < 0:
			call.problem(arg, fmt.Sprintf("%s has no value element", call.Callee.FQN))
			continue
		}
		g := groups[i]
		switch {
		case g == nil:
			groups[i] = &group{args: []*syntax.Argument{arg}, named: arg.Name != ""}
		case arg.Name == "" && !g.named && params[i].Vararg:
			g.args = append(g.args, arg)
		default:
			call.problem(arg, fmt.Sprintf("element %q given more than once", params[i].Name))
		}
	}

	call.Bindings = make([]*Binding, len(params))
	for i, p := range params {
		call.Bindings[i] = bind(p, groups[i])
	}
}

func bind(p *syntax.Parameter, g *group) *Binding {
	b := &Binding{Param: p}
	switch {
	case g != nil && p.Vararg:
		b.Kind, b.Args = Vararg, g.args
	case g != nil:
		b.Kind, b.Expr = Expression, g.args[0].Value
	case p.Default != nil:
		b.Kind, b.Expr = Default, p.Default
	case p.Vararg:
		// an omitted vararg is an empty group
		b.Kind = Vararg
	default:
		b.Kind = Missing
	}
	return b
}

func paramIndex(params []*syntax.Parameter, name string) int {
	for i, p := range params {
		if p.Name == name {
			return i
		}
	}
	return -1
}

func (c *Call) problem(arg *syntax.Argument, msg string) {
	c.Problems = append(c.Problems, Problem{Message: msg, Range: arg.Range})
}

// Defaults returns the call of d written without arguments: every parameter
// is bound to its default, an empty vararg group or Missing.
func Defaults(d *syntax.Declaration) *Call {
	site := &CallSite{
		Callee:   syntax.ParseRef(d.FQN),
		File:     d.File,
		Text:     d.Name,
		NodeKind: "declaration",
		Range:    d.Range,
		key:      d,
	}
	call := &Call{Site: site, Callee: d}
	if d.Language() == syntax.Java {
		bindJava(call)
	} else {
		bindKotlin(call)
	}
	return call
}
