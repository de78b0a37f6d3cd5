package stubs

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phobologic/ktlight/internal/syntax"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "stubs", "stubs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestValueRoundTripKeepsConstantTypes(t *testing.T) {
	t.Parallel()
	cases := []*syntax.Constant{
		{Kind: syntax.ConstString, Value: "hi"},
		{Kind: syntax.ConstInt, Value: int32(-7)},
		{Kind: syntax.ConstLong, Value: int64(1) << 40},
		{Kind: syntax.ConstChar, Value: 'x'},
		{Kind: syntax.ConstFloat, Value: float32(1.5)},
		{Kind: syntax.ConstDouble, Value: 2.25},
		{Kind: syntax.ConstBool, Value: true},
		{Kind: syntax.ConstNull},
	}
	for _, c := range cases {
		t.Run(c.Kind.String(), func(t *testing.T) {
			t.Parallel()
			data, err := MarshalValue(FromConstant(c, c.String()))
			require.NoError(t, err)
			v, err := UnmarshalValue(data)
			require.NoError(t, err)
			assert.Equal(t, c, v.Constant())
			assert.Equal(t, c.String(), v.Text)
		})
	}
}

func TestMarshalIsCanonical(t *testing.T) {
	t.Parallel()
	v := &Value{Kind: Annotation, Name: "p.A", Attrs: map[string]*Value{
		"b": {Kind: Opaque, Text: "X::class"},
		"a": {Kind: Array, Elems: []*Value{{Kind: Literal, Type: "Int", Int: 1}}},
	}}
	first, err := MarshalValue(v)
	require.NoError(t, err)
	for range 5 {
		again, err := MarshalValue(v)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestConstantOfNonLiteral(t *testing.T) {
	t.Parallel()
	assert.Nil(t, (&Value{Kind: Array}).Constant())
	assert.Nil(t, (&Value{Kind: Literal, Type: "UInt"}).Constant())
	var nilValue *Value
	assert.Nil(t, nilValue.Constant())
}

func TestDeclarationRoundTrip(t *testing.T) {
	t.Parallel()
	s := openStore(t)
	ctx := context.Background()

	d := &Declaration{FQN: "p.Foo", Params: []Param{
		{Name: "x", Type: "String", Default: &Value{Kind: Literal, Type: "String", Str: "d", Text: `"d"`}},
		{Name: "ids", Type: "Int", Vararg: true},
	}}
	require.NoError(t, s.PutDeclaration(ctx, d))
	// replacing keeps a single copy
	require.NoError(t, s.PutDeclaration(ctx, d))

	got, err := s.Declaration(ctx, "p.Foo")
	require.NoError(t, err)
	assert.Equal(t, d, got)

	_, err = s.Declaration(ctx, "p.Missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAttributePrefersUsageOverDefault(t *testing.T) {
	t.Parallel()
	s := openStore(t)
	ctx := context.Background()

	require.NoError(t, s.PutDeclaration(ctx, &Declaration{FQN: "p.Foo", Params: []Param{
		{Name: "x", Type: "String", Default: &Value{Kind: Literal, Type: "String", Str: "d"}},
		{Name: "y", Type: "Int"},
	}}))
	require.NoError(t, s.PutUsage(ctx, &Usage{
		Owner: "p.Target", Annotation: "p.Foo", Ordinal: 0,
		Attrs: map[string]*Value{"y": {Kind: Literal, Type: "Int", Int: 3}},
	}))

	y, err := s.Attribute(ctx, "p.Target", "p.Foo", 0, "y")
	require.NoError(t, err)
	assert.Equal(t, int32(3), y.Constant().Value)

	x, err := s.Attribute(ctx, "p.Target", "p.Foo", 0, "x")
	require.NoError(t, err)
	assert.Equal(t, "d", x.Str)

	// other usages of the same annotation still see the class default
	x, err = s.Attribute(ctx, "p.Other", "p.Foo", 2, "x")
	require.NoError(t, err)
	assert.Equal(t, "d", x.Str)

	_, err = s.Attribute(ctx, "p.Other", "p.Foo", 0, "y")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.Attribute(ctx, "p.Target", "p.Foo", 0, "z")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPutUsageReplaces(t *testing.T) {
	t.Parallel()
	s := openStore(t)
	ctx := context.Background()

	u := &Usage{Owner: "o", Annotation: "a", Attrs: map[string]*Value{
		"k": {Kind: Literal, Type: "Int", Int: 1},
		"j": {Kind: Literal, Type: "Int", Int: 2},
	}}
	require.NoError(t, s.PutUsage(ctx, u))
	u.Attrs = map[string]*Value{"k": {Kind: Literal, Type: "Int", Int: 5}}
	require.NoError(t, s.PutUsage(ctx, u))

	k, err := s.Attribute(ctx, "o", "a", 0, "k")
	require.NoError(t, err)
	assert.Equal(t, int64(5), k.Int)
	_, err = s.Attribute(ctx, "o", "a", 0, "j")
	assert.ErrorIs(t, err, ErrNotFound)
}
