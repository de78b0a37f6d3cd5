package light

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/phobologic/ktlight/internal/resolve"
	"github.com/phobologic/ktlight/internal/stubs"
	"github.com/phobologic/ktlight/internal/syntax"
)

// DefaultMaxDepth bounds annotation nesting.
const DefaultMaxDepth = 16

// Fallback supplies compiled annotation classes and attribute values.
// *stubs.Store implements it.
type Fallback interface {
	Declaration(ctx context.Context, fqn string) (*stubs.Declaration, error)
	Attribute(ctx context.Context, owner, annotation string, ordinal int, name string) (*stubs.Value, error)
}

// Options configure views.
type Options struct {
	// MaxDepth bounds nested annotations; zero means DefaultMaxDepth.
	MaxDepth int
	// Fallback is consulted when source resolution yields no value.
	Fallback Fallback
}

func (o Options) maxDepth() int {
	if o.MaxDepth <= 0 {
		return DefaultMaxDepth
	}
	return o.MaxDepth
}

// InternalError reports a broken invariant while projecting one attribute.
// Only that lookup is aborted.
type InternalError struct {
	Annotation string
	Attribute  string
	Message    string
}

func (e *InternalError) Error() string {
	return fmt.Sprintf("internal error projecting %s.%s: %s", e.Annotation, e.Attribute, e.Message)
}

// View is a projected annotation instance. Attribute lookups are memoized;
// the first stored result wins, so repeated lookups return the same node.
// A View is safe for concurrent use.
type View struct {
	res     *resolve.Resolver
	site    *resolve.CallSite
	owner   string
	ordinal int
	opts    Options
	diags   *diagnostics

	depth  int
	parent *Node // the NestedAnnotation node of a nested view

	// compiled is set for views of stub values; they have no site.
	compiled *stubs.Value

	mu       sync.Mutex
	resolved bool
	call     *resolve.Call
	callErr  error
	stubDone bool
	stub     *stubs.Declaration
	attrs    map[string]*Node
	declared map[string]*Node
	nodes    map[nodeKey]*Node
	failed   map[string]struct{} // attributes whose internal error was recorded
}

func newView(res *resolve.Resolver, site *resolve.CallSite, opts Options, diags *diagnostics) *View {
	if diags == nil {
		diags = &diagnostics{warned: make(map[*syntax.Expr]struct{})}
	}
	return &View{
		res:      res,
		site:     site,
		opts:     opts,
		diags:    diags,
		attrs:    make(map[string]*Node),
		declared: make(map[string]*Node),
		nodes:    make(map[nodeKey]*Node),
		failed:   make(map[string]struct{}),
	}
}

// NewView returns the view of an annotation entry.
func NewView(res *resolve.Resolver, e *syntax.Entry, opts Options) *View {
	v := newView(res, resolve.EntrySite(e), opts, nil)
	v.owner = e.Owner
	v.ordinal = e.Ordinal
	return v
}

// NewDefaultsView returns the view of annotation class d used without
// arguments, so that every attribute is its declared default.
func NewDefaultsView(res *resolve.Resolver, d *syntax.Declaration, opts Options) *View {
	call := resolve.Defaults(d)
	v := newView(res, call.Site, opts, nil)
	v.owner = d.FQN
	v.resolved = true
	v.call = call
	return v
}

func newCompiledView(value *stubs.Value, parent *Node) *View {
	v := newView(nil, nil, Options{}, parent.view.diags)
	v.compiled = value
	v.parent = parent
	v.depth = parent.view.depth + 1
	return v
}

// child returns the view of a nested annotation call.
func (v *View) child(expr *syntax.Expr, parent *Node) *View {
	c := newView(v.res, resolve.ExprSite(expr), Options{MaxDepth: v.opts.MaxDepth}, v.diags)
	c.owner = v.owner
	c.depth = v.depth + 1
	c.parent = parent
	return c
}

// Owner returns the qualified name of the annotated element.
func (v *View) Owner() string { return v.owner }

// Ordinal returns the index of the annotation among its owner's annotations.
func (v *View) Ordinal() int { return v.ordinal }

// Site returns the call site, nil for compiled views.
func (v *View) Site() *resolve.CallSite { return v.site }

// Parent returns the NestedAnnotation node of a nested view, nil at the top.
func (v *View) Parent() *Node { return v.parent }

// Compiled reports whether the view wraps a compiled stub value.
func (v *View) Compiled() bool { return v.compiled != nil }

// Call resolves the call site. The first resolution failure is recorded as
// a diagnostic.
func (v *View) Call() (*resolve.Call, error) {
	if v.site == nil {
		return nil, &resolve.UnresolvedCallError{Text: v.text(), NodeKind: "compiled", Reason: "compiled annotation"}
	}
	v.mu.Lock()
	if v.resolved {
		defer v.mu.Unlock()
		return v.call, v.callErr
	}
	v.mu.Unlock()

	call, err := v.res.Resolve(v.site)

	v.mu.Lock()
	defer v.mu.Unlock()
	if v.resolved {
		return v.call, v.callErr
	}
	v.resolved, v.call, v.callErr = true, call, err
	if err != nil {
		v.diags.add(Diagnostic{
			Severity: SeverityWarning,
			Message:  err.Error(),
			Text:     v.site.Text,
			NodeKind: v.site.NodeKind,
			Path:     v.path(),
			Range:    v.site.Range,
		})
	}
	return call, err
}

// Resolved reports whether the call site resolves to an annotation class.
func (v *View) Resolved() bool {
	call, err := v.Call()
	return err == nil && call != nil
}

// QualifiedName returns the annotation class name. A callee missing from
// source is looked up among the compiled annotation classes; failing that
// the name is guessed from the file's imports.
func (v *View) QualifiedName() string {
	if v.compiled != nil {
		return v.compiled.Name
	}
	if call, err := v.Call(); err == nil {
		return call.Callee.FQN
	}
	if d := v.stubDeclaration(); d != nil {
		return d.FQN
	}
	return v.res.QualifiedName(v.site.File, v.site.Callee)
}

// stubDeclaration returns the compiled annotation class of an unresolved
// callee: the first candidate name the fallback knows.
func (v *View) stubDeclaration() *stubs.Declaration {
	if v.opts.Fallback == nil || v.site == nil {
		return nil
	}
	v.mu.Lock()
	if v.stubDone {
		defer v.mu.Unlock()
		return v.stub
	}
	v.mu.Unlock()

	var found *stubs.Declaration
	for _, fqn := range v.res.Candidates(v.site.File, v.site.Callee) {
		d, err := v.opts.Fallback.Declaration(context.Background(), fqn)
		if err == nil {
			found = d
			break
		}
		if !errors.Is(err, stubs.ErrNotFound) {
			log.Warningf("compiled lookup of %s: %v", fqn, err)
		}
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	if !v.stubDone {
		v.stub, v.stubDone = found, true
	}
	return v.stub
}

// Diagnostics returns the problems recorded by this view and the views
// nested in it.
func (v *View) Diagnostics() []Diagnostic {
	return v.diags.list()
}

func (v *View) text() string {
	switch {
	case v.parent != nil:
		return v.parent.text
	case v.site != nil:
		return v.site.Text
	case v.compiled != nil:
		return v.compiled.Text
	}
	return ""
}

func (v *View) path() string {
	if v.site != nil && v.site.File != nil {
		return v.site.File.Path
	}
	return ""
}

func (v *View) textRange() syntax.Range {
	if v.site != nil {
		return v.site.Range
	}
	return syntax.Range{}
}

// Severity of a diagnostic.
type Severity int

const (
	SeverityDebug Severity = iota
	SeverityWarning
	SeverityError
)

func (s Severity) String() string {
	switch s {
	case SeverityDebug:
		return "debug"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	}
	return fmt.Sprintf("Severity(%d)", int(s))
}

// Diagnostic is a problem met while projecting. NodeKind and ParentKind are
// the syntax node types of the expression and its parent.
type Diagnostic struct {
	Severity   Severity
	Message    string
	Text       string
	NodeKind   string
	ParentKind string
	Path       string
	Range      syntax.Range
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s:%s: %s: %s", d.Path, d.Range, d.Severity, d.Message)
}

// diagnostics is shared by a view and its nested views.
type diagnostics struct {
	mu     sync.Mutex
	items  []Diagnostic
	warned map[*syntax.Expr]struct{}
}

func (d *diagnostics) add(diag Diagnostic) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.items = append(d.items, diag)
	switch diag.Severity {
	case SeverityError:
		log.Errorf("%s", diag)
	case SeverityWarning:
		log.Warningf("%s", diag)
	default:
		log.Debugf("%s", diag)
	}
}

// once reports whether expr has not been diagnosed before, marking it.
func (d *diagnostics) once(expr *syntax.Expr) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.warned[expr]; ok {
		return false
	}
	d.warned[expr] = struct{}{}
	return true
}

func (d *diagnostics) list() []Diagnostic {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]Diagnostic(nil), d.items...)
}
