// Package stubs stores a compiled representation of annotation classes and
// annotation usages, consulted when source resolution has nothing to offer.
package stubs

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"

	"github.com/phobologic/ktlight/internal/syntax"
)

var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("stubs: failed to create CBOR encoder: %v", err))
	}
	cborEncMode = em
}

// ValueKind is the shape of a compiled value.
type ValueKind uint8

const (
	Literal ValueKind = iota + 1
	Array
	Annotation
	Opaque
)

func (k ValueKind) String() string {
	switch k {
	case Literal:
		return "literal"
	case Array:
		return "array"
	case Annotation:
		return "annotation"
	case Opaque:
		return "opaque"
	}
	return fmt.Sprintf("ValueKind(%d)", uint8(k))
}

// Value is a compiled annotation value. Literal constants keep their Kotlin
// type name so they decode to the same Go type they were built from.
type Value struct {
	Kind ValueKind `cbor:"1,keyasint"`
	Text string    `cbor:"2,keyasint,omitempty"`

	// Literal
	Type  string  `cbor:"3,keyasint,omitempty"`
	Str   string  `cbor:"4,keyasint,omitempty"`
	Int   int64   `cbor:"5,keyasint,omitempty"`
	Float float64 `cbor:"6,keyasint,omitempty"`
	Bool  bool    `cbor:"7,keyasint,omitempty"`

	// Array
	Elems []*Value `cbor:"8,keyasint,omitempty"`

	// Annotation
	Name  string            `cbor:"9,keyasint,omitempty"`
	Attrs map[string]*Value `cbor:"10,keyasint,omitempty"`
}

// FromConstant builds a literal value.
func FromConstant(c *syntax.Constant, text string) *Value {
	v := &Value{Kind: Literal, Text: text, Type: c.Kind.String()}
	switch x := c.Value.(type) {
	case string:
		v.Str = x
	case int32: // Int and Char
		v.Int = int64(x)
	case int64:
		v.Int = x
	case float32:
		v.Float = float64(x)
	case float64:
		v.Float = x
	case bool:
		v.Bool = x
	}
	return v
}

// Constant converts a literal value back into a constant. It returns nil for
// other kinds and for unknown type names.
func (v *Value) Constant() *syntax.Constant {
	if v == nil || v.Kind != Literal {
		return nil
	}
	switch v.Type {
	case syntax.ConstString.String():
		return &syntax.Constant{Kind: syntax.ConstString, Value: v.Str}
	case syntax.ConstInt.String():
		return &syntax.Constant{Kind: syntax.ConstInt, Value: int32(v.Int)}
	case syntax.ConstLong.String():
		return &syntax.Constant{Kind: syntax.ConstLong, Value: v.Int}
	case syntax.ConstChar.String():
		return &syntax.Constant{Kind: syntax.ConstChar, Value: rune(v.Int)}
	case syntax.ConstFloat.String():
		return &syntax.Constant{Kind: syntax.ConstFloat, Value: float32(v.Float)}
	case syntax.ConstDouble.String():
		return &syntax.Constant{Kind: syntax.ConstDouble, Value: v.Float}
	case syntax.ConstBool.String():
		return &syntax.Constant{Kind: syntax.ConstBool, Value: v.Bool}
	case syntax.ConstNull.String():
		return &syntax.Constant{Kind: syntax.ConstNull}
	}
	return nil
}

// MarshalValue encodes a value in canonical CBOR.
func MarshalValue(v *Value) ([]byte, error) {
	return cborEncMode.Marshal(v)
}

// UnmarshalValue decodes a value produced by MarshalValue.
func UnmarshalValue(data []byte) (*Value, error) {
	var v Value
	if err := cbor.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("stubs: unmarshal value: %w", err)
	}
	return &v, nil
}
