// Package model defines the report records produced by ktlight.
package model

// Origin tells where a projected value came from.
type Origin string

const (
	FromSource   Origin = "source"
	FromDefault  Origin = "default"
	FromCompiled Origin = "compiled"
)

// ValueKind is the projected node kind of an attribute value.
type ValueKind string

const (
	Literal          ValueKind = "literal"
	Array            ValueKind = "array"
	NestedAnnotation ValueKind = "annotation"
	Opaque           ValueKind = "opaque"
)

// Annotation is one annotation usage found in a source file.
type Annotation struct {
	File      string
	Line      int
	Owner     string
	Name      string // qualified name, or the callee as written when unresolved
	Ordinal   int
	Resolved  bool
	Attribute []Attribute
}

// Attribute is one attribute of an annotation, rendered as Java source text.
type Attribute struct {
	Name     string
	Kind     ValueKind
	Value    string
	Origin   Origin
	Location string // path:line of the navigation target
}

// Dependency represents an edge in the dependency graph:
// Source uses annotation classes declared in Target.
type Dependency struct {
	Source  string
	Target  string
	Symbols []string
}

// Diagnostic is a problem recorded while projecting an annotation.
type Diagnostic struct {
	File     string
	Line     int
	Severity string
	Message  string
}

// Report is the complete analyzed source tree, ready for serialization.
type Report struct {
	Name         string
	Root         string
	Files        int
	Annotations  []Annotation
	Dependencies []Dependency
	Diagnostics  []Diagnostic
}
