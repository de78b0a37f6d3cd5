package light

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/phobologic/ktlight/internal/resolve"
	"github.com/phobologic/ktlight/internal/stubs"
)

// Attribute is an explicitly written attribute of a view.
type Attribute struct {
	Name  string
	Value *Node
}

// FindAttribute returns the value of the named attribute, including declared
// defaults and compiled stubs, or nil when the annotation has no such
// attribute. The empty name means "value". It never fails; problems are
// available from Diagnostics.
func (v *View) FindAttribute(name string) *Node {
	return v.find(v.attrs, name, true)
}

// FindDeclaredAttribute is FindAttribute restricted to values written at
// the call site.
func (v *View) FindDeclaredAttribute(name string) *Node {
	return v.find(v.declared, name, false)
}

func (v *View) find(memo map[string]*Node, name string, withDefaults bool) *Node {
	if name == "" {
		name = "value"
	}
	v.mu.Lock()
	n, ok := memo[name]
	v.mu.Unlock()
	if ok {
		return n
	}

	n, err := v.safeLookup(name, withDefaults)
	if err != nil {
		var ierr *InternalError
		if errors.As(err, &ierr) && v.firstFailure(name) {
			v.diags.add(Diagnostic{
				Severity: SeverityError,
				Message:  ierr.Error(),
				Text:     v.text(),
				NodeKind: "annotation",
				Path:     v.path(),
				Range:    v.textRange(),
			})
		}
		return nil
	}
	if n == nil {
		return nil
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	if prev, ok := memo[name]; ok {
		return prev
	}
	memo[name] = n
	return n
}

// firstFailure reports whether name has not failed before, marking it.
// Failed lookups are retried but diagnosed once.
func (v *View) firstFailure(name string) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	if _, ok := v.failed[name]; ok {
		return false
	}
	v.failed[name] = struct{}{}
	return true
}

// safeLookup turns a panic below lookup into an InternalError so that one
// broken attribute cannot take down the caller.
func (v *View) safeLookup(name string, withDefaults bool) (n *Node, err error) {
	defer func() {
		if r := recover(); r != nil {
			n, err = nil, &InternalError{Annotation: v.text(), Attribute: name, Message: fmt.Sprint(r)}
		}
	}()
	return v.lookup(name, withDefaults)
}

func (v *View) lookup(name string, withDefaults bool) (*Node, error) {
	if v.compiled != nil {
		value := v.compiled.Attrs[name]
		if value == nil {
			return nil, nil
		}
		return v.wrapCompiled(value, nil), nil
	}

	call, err := v.Call()
	if err != nil {
		var uerr *resolve.UnresolvedCallError
		if !errors.As(err, &uerr) {
			return nil, err
		}
		return v.fallback(name, withDefaults), nil
	}

	b := call.Binding(name)
	if b == nil || b.Kind == resolve.Missing {
		log.Debugf("%s: no usable binding for %q", call.Callee.FQN, name)
		return v.fallback(name, withDefaults), nil
	}
	if b.Param == nil || b.Param.Decl != call.Callee {
		return nil, &InternalError{
			Annotation: call.Callee.FQN,
			Attribute:  name,
			Message:    "binding refers to a parameter of another declaration",
		}
	}

	switch b.Kind {
	case resolve.Default:
		if !withDefaults {
			return nil, nil
		}
		return v.materialize(Classify(b.Expr, b.Param.Type.Array, v.res), b.Expr, true), nil
	case resolve.Expression:
		return v.materialize(Classify(b.Expr, b.Param.Type.Array, v.res), b.Expr, false), nil
	case resolve.Vararg:
		if len(b.Args) == 0 && !withDefaults {
			return nil, nil
		}
		return v.vararg(b.Param, b.Args, call.Site.ArgList), nil
	}
	return nil, &InternalError{
		Annotation: call.Callee.FQN,
		Attribute:  name,
		Message:    fmt.Sprintf("unexpected binding kind %s", b.Kind),
	}
}

// fallback wraps the compiled value of the attribute, if the view has a
// compiled counterpart.
func (v *View) fallback(name string, withDefaults bool) *Node {
	if !withDefaults || v.opts.Fallback == nil || v.parent != nil {
		return nil
	}
	value, err := v.opts.Fallback.Attribute(context.Background(), v.owner, v.QualifiedName(), v.ordinal, name)
	if err != nil {
		if !errors.Is(err, stubs.ErrNotFound) {
			log.Warningf("compiled lookup of %s.%s: %v", v.QualifiedName(), name, err)
		}
		return nil
	}
	return v.wrapCompiled(value, nil)
}

// Parameters returns the attribute names of the annotation class in
// declaration order. Compiled views list their stored attributes sorted;
// unresolved views list the parameters of the compiled class, if any.
func (v *View) Parameters() []string {
	if v.compiled != nil {
		names := make([]string, 0, len(v.compiled.Attrs))
		for name := range v.compiled.Attrs {
			names = append(names, name)
		}
		sort.Strings(names)
		return names
	}
	call, err := v.Call()
	if err != nil {
		d := v.stubDeclaration()
		if d == nil {
			return nil
		}
		names := make([]string, len(d.Params))
		for i, p := range d.Params {
			names[i] = p.Name
		}
		return names
	}
	names := make([]string, len(call.Callee.Params))
	for i, p := range call.Callee.Params {
		names[i] = p.Name
	}
	return names
}

// Attributes returns the explicitly written attributes in parameter order.
func (v *View) Attributes() []Attribute {
	var out []Attribute
	for _, name := range v.Parameters() {
		if n := v.FindDeclaredAttribute(name); n != nil {
			out = append(out, Attribute{Name: name, Value: n})
		}
	}
	return out
}
