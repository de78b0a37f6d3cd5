// Package psi declares the Java annotation model that projected Kotlin
// annotations conform to. Consumers written against these interfaces never
// see Kotlin syntax.
package psi

import (
	"github.com/phobologic/ktlight/internal/syntax"
)

// Location is a navigation target.
type Location struct {
	Path  string
	Range syntax.Range
}

// IsZero reports whether the location has no file.
func (l Location) IsZero() bool { return l.Path == "" }

// Element is a node of the annotation value tree.
type Element interface {
	// Text is the source text, or a rendering for compiled values.
	Text() string
	TextRange() syntax.Range
	// Parent is the lexically enclosing element, nil at the root.
	Parent() Element
	// Navigation is where "go to source" leads.
	Navigation() Location
}

// MemberValue is the value of an annotation attribute.
type MemberValue interface {
	Element
	memberValue()
}

// Literal is a constant attribute value.
type Literal interface {
	MemberValue
	// Value is a string, int32, int64, float32, float64, bool, Char or nil.
	Value() any
}

// ArrayInitializer is an array attribute value.
type ArrayInitializer interface {
	MemberValue
	Initializers() []MemberValue
}

// Expression is an attribute value the model cannot describe further, such
// as a class literal or an enum constant.
type Expression interface {
	MemberValue
	expression()
}

// NameValuePair is an explicitly written attribute.
type NameValuePair struct {
	Name  string
	Value MemberValue
}

// Annotation is an annotation instance; nested annotations are member values
// too.
type Annotation interface {
	MemberValue
	QualifiedName() string
	// FindAttributeValue returns the attribute value including defaults, or
	// nil. The empty name means "value".
	FindAttributeValue(name string) MemberValue
	// FindDeclaredAttributeValue returns only explicitly written values.
	FindDeclaredAttributeValue(name string) MemberValue
	// Attributes returns the explicitly written attributes in parameter
	// order.
	Attributes() []NameValuePair
}

// Char is the Value of a character literal.
type Char rune

// MemberImpl is embedded by member value implementations.
type MemberImpl struct{}

func (MemberImpl) memberValue() {}

// ExpressionImpl is embedded by Expression implementations.
type ExpressionImpl struct{ MemberImpl }

func (ExpressionImpl) expression() {}
