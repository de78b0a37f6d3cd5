package light

import (
	"fmt"

	"github.com/phobologic/ktlight/internal/syntax"
)

// Shape is the classification of an argument expression: which node kind it
// materializes into.
type Shape int

const (
	ShapeOpaque Shape = iota
	ShapeLiteral
	ShapeNestedAnnotation
	ShapeArray
	// ShapeWrappedArray is a single value passed where an array is expected;
	// it materializes as a one-element array.
	ShapeWrappedArray

	// shapeVararg is the array of a vararg group. It is never returned by
	// Classify.
	shapeVararg
)

func (s Shape) String() string {
	switch s {
	case ShapeOpaque:
		return "opaque"
	case ShapeLiteral:
		return "literal"
	case ShapeNestedAnnotation:
		return "nested-annotation"
	case ShapeArray:
		return "array"
	case ShapeWrappedArray:
		return "wrapped-array"
	case shapeVararg:
		return "vararg"
	}
	return fmt.Sprintf("Shape(%d)", int(s))
}

// Annotations tells whether a callee names an annotation class.
// *resolve.Resolver implements it.
type Annotations interface {
	IsAnnotation(file *syntax.File, ref syntax.Ref) bool
}

// Classify assigns a shape to an argument expression. The rules are tried in
// order and the first match wins:
//
//  1. a literal or annotation call where an array is expected: wrapped array
//  2. a string template or constant: literal
//  3. a call of an annotation class: nested annotation
//  4. any other call with arguments, such as arrayOf(1, 2): array
//  5. a collection literal: array
//  6. anything else: opaque
//
// Classify depends only on its arguments and the snapshot behind ann.
func Classify(expr *syntax.Expr, expectedArray bool, ann Annotations) Shape {
	e := expr.Unparen()
	if e == nil {
		return ShapeOpaque
	}
	literal := e.Kind == syntax.ExprStringTemplate || e.Kind == syntax.ExprConstant
	annotationCall := e.Kind == syntax.ExprCall && ann != nil && ann.IsAnnotation(e.File, e.Callee)

	switch {
	case expectedArray && (literal || annotationCall):
		return ShapeWrappedArray
	case literal:
		return ShapeLiteral
	case annotationCall:
		return ShapeNestedAnnotation
	case e.Kind == syntax.ExprCall && len(e.Args) > 0:
		return ShapeArray
	case e.Kind == syntax.ExprCollection:
		return ShapeArray
	}
	return ShapeOpaque
}
