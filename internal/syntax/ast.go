// Package syntax converts tree-sitter parse trees of Kotlin and Java sources
// into a small immutable source model: declarations, annotation entries and
// the value expressions that appear in annotation arguments.
package syntax

import (
	"fmt"
	"strings"
)

// Language identifies the source language a file was parsed from.
type Language string

const (
	Kotlin Language = "kotlin"
	Java   Language = "java"
)

// Position is a zero-based location in a source file.
type Position struct {
	Offset int
	Line   int
	Column int
}

// Range is a half-open byte range [Start, End) in a source file.
type Range struct {
	Start Position
	End   Position
}

func (r Range) String() string {
	return fmt.Sprintf("%d:%d-%d:%d", r.Start.Line+1, r.Start.Column+1, r.End.Line+1, r.End.Column+1)
}

// Contains reports whether the byte offset lies within r.
func (r Range) Contains(offset int) bool {
	return offset >= r.Start.Offset && offset < r.End.Offset
}

// ExprKind classifies an expression syntactically.
type ExprKind int

const (
	ExprOther ExprKind = iota
	ExprStringTemplate
	ExprConstant
	ExprCall
	ExprCollection
	ExprClassLiteral
	ExprReference
	ExprPrefix
	ExprParenthesized
	ExprArgumentList
)

var exprKindNames = [...]string{
	ExprOther:          "other",
	ExprStringTemplate: "string_template",
	ExprConstant:       "constant",
	ExprCall:           "call",
	ExprCollection:     "collection_literal",
	ExprClassLiteral:   "class_literal",
	ExprReference:      "reference",
	ExprPrefix:         "prefix",
	ExprParenthesized:  "parenthesized",
	ExprArgumentList:   "argument_list",
}

func (k ExprKind) String() string {
	if int(k) < len(exprKindNames) {
		return exprKindNames[k]
	}
	return fmt.Sprintf("ExprKind(%d)", int(k))
}

// Expr is a value expression. Only the fields relevant to Kind are set.
//
// NodeType is the tree-sitter node type the expression was built from and is
// kept for diagnostics.
type Expr struct {
	Kind     ExprKind
	NodeType string
	Text     string
	Range    Range
	File     *File
	Parent   *Expr

	// ExprConstant and ExprStringTemplate. Const is nil for templates with
	// interpolation.
	Const *Constant

	// ExprCall: Callee is the callee as written, Args the value arguments
	// and ArgList their parenthesized list. ExprReference also sets Callee.
	Callee  Ref
	Args    []*Argument
	ArgList *Expr

	// ExprCollection, ExprArgumentList: element expressions in source order.
	Elems []*Expr

	// ExprPrefix and ExprParenthesized.
	Operator string
	Operand  *Expr
}

// Unparen strips any number of enclosing parentheses.
func (e *Expr) Unparen() *Expr {
	for e != nil && e.Kind == ExprParenthesized && e.Operand != nil {
		e = e.Operand
	}
	return e
}

func (e *Expr) String() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("%s(%s)", e.Kind, e.Text)
}

// Ref is a possibly qualified name as written in source, e.g. "Foo" or
// "com.example.Foo".
type Ref struct {
	Parts []string
	Range Range
}

// Name returns the last segment of the reference.
func (r Ref) Name() string {
	if len(r.Parts) == 0 {
		return ""
	}
	return r.Parts[len(r.Parts)-1]
}

func (r Ref) String() string {
	return strings.Join(r.Parts, ".")
}

// IsZero reports whether the reference is empty.
func (r Ref) IsZero() bool {
	return len(r.Parts) == 0
}

// ParseRef splits a dotted name into a Ref.
func ParseRef(s string) Ref {
	var parts []string
	for _, p := range strings.Split(s, ".") {
		p = strings.TrimSpace(strings.Trim(p, "`"))
		if p != "" {
			parts = append(parts, p)
		}
	}
	return Ref{Parts: parts}
}

// Argument is one value argument of a call or annotation entry.
type Argument struct {
	Name   string // empty for positional arguments
	Spread bool   // Kotlin "*expr"
	Value  *Expr
	Range  Range
}

// Import is an import directive.
type Import struct {
	Path     string
	Alias    string
	Wildcard bool
}

// LocalName returns the name the import introduces into file scope.
func (i Import) LocalName() string {
	if i.Alias != "" {
		return i.Alias
	}
	if i.Wildcard {
		return ""
	}
	return ParseRef(i.Path).Name()
}

// TypeRef is a declared parameter type.
type TypeRef struct {
	Text  string
	Array bool
}

// Parameter is a constructor parameter of an annotation class, or an element
// of a Java annotation interface.
type Parameter struct {
	Name    string
	Type    TypeRef
	Vararg  bool
	Default *Expr
	Range   Range
	Decl    *Declaration
}

// Declaration is a named type declaration.
type Declaration struct {
	Name       string
	FQN        string
	Annotation bool
	Enum       bool
	Params     []*Parameter
	Range      Range
	File       *File
}

// Param returns the parameter with the given name, or nil.
func (d *Declaration) Param(name string) *Parameter {
	for _, p := range d.Params {
		if p.Name == name {
			return p
		}
	}
	return nil
}

// Language returns the source language of the declaring file.
func (d *Declaration) Language() Language {
	if d.File == nil {
		return Kotlin
	}
	return d.File.Language
}

// Entry is an annotation usage, e.g. `@Foo(1, x = "a")`.
type Entry struct {
	Callee  Ref
	UseSite string // "field", "get", "file", ... or empty
	Args    []*Argument
	ArgList *Expr // nil when written without parentheses
	Owner   string
	Ordinal int // index among the owner's entries
	Text    string
	Range   Range
	File    *File
}

// File is a parsed source file.
type File struct {
	Path         string
	Language     Language
	Package      string
	Imports      []Import
	Declarations []*Declaration
	Entries      []*Entry
	Source       []byte
}

// Declaration returns the declaration with the given simple name, or nil.
func (f *File) Declaration(name string) *Declaration {
	for _, d := range f.Declarations {
		if d.Name == name {
			return d
		}
	}
	return nil
}

// EntryAt returns the innermost annotation entry containing offset.
func (f *File) EntryAt(offset int) *Entry {
	var best *Entry
	for _, e := range f.Entries {
		if !e.Range.Contains(offset) {
			continue
		}
		if best == nil || e.Range.End.Offset-e.Range.Start.Offset < best.Range.End.Offset-best.Range.Start.Offset {
			best = e
		}
	}
	return best
}

// EntriesOf returns the entries owned by the given fully qualified owner.
func (f *File) EntriesOf(owner string) []*Entry {
	var out []*Entry
	for _, e := range f.Entries {
		if e.Owner == owner {
			out = append(out, e)
		}
	}
	return out
}

// ParseError reports a file that tree-sitter could not parse at all.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parsing %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
