// Package resolve binds annotation call sites to the annotation classes they
// construct and to the parameters each argument satisfies.
package resolve

import (
	"fmt"
	"strings"
	"sync"

	"github.com/tliron/commonlog"

	"github.com/phobologic/ktlight/internal/index"
	"github.com/phobologic/ktlight/internal/syntax"
)

var log = commonlog.GetLogger("ktlight.resolve")

// DefaultImports are the packages every Kotlin file sees without an import.
var DefaultImports = []string{"kotlin", "kotlin.annotation", "kotlin.jvm", "java.lang"}

// CallSite is a call-shaped source node: an annotation entry or a call
// expression inside an annotation argument.
type CallSite struct {
	Callee   syntax.Ref
	Args     []*syntax.Argument
	ArgList  *syntax.Expr // nil when written without parentheses
	File     *syntax.File
	Text     string
	NodeKind string
	Range    syntax.Range

	key any
}

// EntrySite returns the call site of an annotation entry.
func EntrySite(e *syntax.Entry) *CallSite {
	return &CallSite{
		Callee:   e.Callee,
		Args:     e.Args,
		ArgList:  e.ArgList,
		File:     e.File,
		Text:     e.Text,
		NodeKind: "annotation_entry",
		Range:    e.Range,
		key:      e,
	}
}

// ExprSite returns the call site of a call expression.
func ExprSite(e *syntax.Expr) *CallSite {
	return &CallSite{
		Callee:   e.Callee,
		Args:     e.Args,
		ArgList:  e.ArgList,
		File:     e.File,
		Text:     e.Text,
		NodeKind: e.NodeType,
		Range:    e.Range,
		key:      e,
	}
}

// BindingKind tells how a parameter is satisfied.
type BindingKind int

const (
	// Default: no argument, the declaration's default applies.
	Default BindingKind = iota
	// Expression: exactly one argument expression.
	Expression
	// Vararg: a group of arguments for a vararg parameter.
	Vararg
	// Missing: no argument and no default. The call is malformed.
	Missing
)

func (k BindingKind) String() string {
	switch k {
	case Default:
		return "default"
	case Expression:
		return "expression"
	case Vararg:
		return "vararg"
	case Missing:
		return "missing"
	}
	return fmt.Sprintf("BindingKind(%d)", int(k))
}

// Binding is the argument assignment of one declared parameter.
type Binding struct {
	Param *syntax.Parameter
	Kind  BindingKind
	// Expr is the argument expression for Expression and the declaration's
	// default expression for Default.
	Expr *syntax.Expr
	// Args is the vararg group in source order.
	Args []*syntax.Argument
}

// Problem is a non-fatal binding issue such as an unknown argument name.
type Problem struct {
	Message string
	Range   syntax.Range
}

// Call is a resolved call site. It is immutable.
type Call struct {
	Site     *CallSite
	Callee   *syntax.Declaration
	Bindings []*Binding
	Problems []Problem
}

// Binding returns the binding of the named parameter, or nil.
func (c *Call) Binding(name string) *Binding {
	for _, b := range c.Bindings {
		if b.Param.Name == name {
			return b
		}
	}
	return nil
}

// UnresolvedCallError reports a call site whose callee is unknown or is not
// an annotation class.
type UnresolvedCallError struct {
	Text     string
	NodeKind string
	Path     string
	Range    syntax.Range
	Reason   string
}

func (e *UnresolvedCallError) Error() string {
	return fmt.Sprintf("%s:%s: unresolved %s %q: %s", e.Path, e.Range, e.NodeKind, e.Text, e.Reason)
}

type result struct {
	call *Call
	err  error
}

// Resolver resolves call sites against one snapshot. Results are cached per
// call site; a Resolver is safe for concurrent use.
type Resolver struct {
	snap           *index.Snapshot
	defaultImports []string

	mu    sync.Mutex
	cache map[any]result
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithDefaultImports replaces DefaultImports.
func WithDefaultImports(pkgs []string) Option {
	return func(r *Resolver) {
		r.defaultImports = pkgs
	}
}

// New creates a resolver over snap.
func New(snap *index.Snapshot, opts ...Option) *Resolver {
	r := &Resolver{
		snap:           snap,
		defaultImports: DefaultImports,
		cache:          make(map[any]result),
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Snapshot returns the snapshot the resolver works on.
func (r *Resolver) Snapshot() *index.Snapshot { return r.snap }

// Resolve binds the arguments of site to the parameters of its callee.
// Binding problems are recorded on the Call; only an unknown callee or one
// that is not an annotation class fails with *UnresolvedCallError.
func (r *Resolver) Resolve(site *CallSite) (*Call, error) {
	key := site.key
	if key == nil {
		key = site
	}
	r.mu.Lock()
	if res, ok := r.cache[key]; ok {
		r.mu.Unlock()
		return res.call, res.err
	}
	r.mu.Unlock()

	call, err := r.resolve(site)

	r.mu.Lock()
	defer r.mu.Unlock()
	if res, ok := r.cache[key]; ok {
		return res.call, res.err
	}
	r.cache[key] = result{call, err}
	return call, err
}

func (r *Resolver) resolve(site *CallSite) (*Call, error) {
	unresolved := func(reason string) error {
		path := ""
		if site.File != nil {
			path = site.File.Path
		}
		return &UnresolvedCallError{
			Text:     site.Text,
			NodeKind: site.NodeKind,
			Path:     path,
			Range:    site.Range,
			Reason:   reason,
		}
	}
	if site.Callee.IsZero() {
		return nil, unresolved("callee is not a name")
	}
	decl := r.Lookup(site.File, site.Callee)
	if decl == nil {
		return nil, unresolved(fmt.Sprintf("no declaration for %s", site.Callee))
	}
	if !decl.Annotation {
		return nil, unresolved(fmt.Sprintf("%s is not an annotation class", decl.FQN))
	}

	call := &Call{Site: site, Callee: decl}
	if decl.Language() == syntax.Java {
		bindJava(call)
	} else {
		bindKotlin(call)
	}
	for _, p := range call.Problems {
		log.Debugf("%s:%s: %s", decl.FQN, p.Range, p.Message)
	}
	return call, nil
}

// IsAnnotation reports whether ref, written in file, names an annotation
// class.
func (r *Resolver) IsAnnotation(file *syntax.File, ref syntax.Ref) bool {
	d := r.Lookup(file, ref)
	return d != nil && d.Annotation
}

// Lookup resolves a possibly qualified type name as written in file. The
// first segment is tried against, in order: explicit imports (including
// aliases), declarations of the same file, the file's package, wildcard
// imports and default imports. Finally the whole name is taken as fully
// qualified.
func (r *Resolver) Lookup(file *syntax.File, ref syntax.Ref) *syntax.Declaration {
	for _, fqn := range r.Candidates(file, ref) {
		if d := r.snap.Declaration(fqn); d != nil {
			return d
		}
	}
	return nil
}

// QualifiedName returns the qualified name of ref: the declaration's name
// when it resolves, the imported name when an explicit import matches, and
// the name as written otherwise.
func (r *Resolver) QualifiedName(file *syntax.File, ref syntax.Ref) string {
	if d := r.Lookup(file, ref); d != nil {
		return d.FQN
	}
	if file != nil && len(ref.Parts) > 0 {
		for _, imp := range file.Imports {
			if imp.LocalName() == ref.Parts[0] {
				return join(imp.Path, ref.Parts[1:])
			}
		}
	}
	return ref.String()
}

// Candidates returns the qualified names ref may denote in file, in lookup
// order.
func (r *Resolver) Candidates(file *syntax.File, ref syntax.Ref) []string {
	if len(ref.Parts) == 0 {
		return nil
	}
	first, rest := ref.Parts[0], ref.Parts[1:]
	var out []string
	if file != nil {
		for _, imp := range file.Imports {
			if imp.LocalName() == first {
				out = append(out, join(imp.Path, rest))
			}
		}
		if d := file.Declaration(first); d != nil {
			out = append(out, join(d.FQN, rest))
		}
		if file.Package != "" {
			out = append(out, join(file.Package+"."+first, rest))
		}
		for _, imp := range file.Imports {
			if imp.Wildcard {
				out = append(out, join(imp.Path+"."+first, rest))
			}
		}
	}
	for _, pkg := range r.defaultImports {
		out = append(out, join(pkg+"."+first, rest))
	}
	return append(out, ref.String())
}

func join(base string, rest []string) string {
	if len(rest) == 0 {
		return base
	}
	return base + "." + strings.Join(rest, ".")
}
