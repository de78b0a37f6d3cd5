package syntax_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phobologic/ktlight/internal/lang"
	"github.com/phobologic/ktlight/internal/syntax"
)

func parse(t *testing.T, path, source string) *syntax.File {
	t.Helper()
	l := lang.ForPath(path)
	require.NotNil(t, l, "no language for %s", path)
	f, err := l.ParseSource(context.Background(), path, []byte(source))
	require.NoError(t, err)
	return f
}

const annotationsKt = `package com.example

import kotlin.reflect.KClass
import com.other.Marker as M

annotation class Foo(val x: String = "d", vararg val ids: Int)

annotation class Bar(val value: IntArray, val nested: Foo = Foo())

enum class Color { RED, GREEN }

@Foo("a", 1, 2)
class Target {
    @field:Bar([1, 2])
    val prop: Int = 0

    @M
    fun run(@Foo(x = "p") arg: String) {}
}
`

func TestKotlinDeclarations(t *testing.T) {
	t.Parallel()
	f := parse(t, "Annotations.kt", annotationsKt)

	assert.Equal(t, "com.example", f.Package)
	require.Len(t, f.Imports, 2)
	assert.Equal(t, "kotlin.reflect.KClass", f.Imports[0].Path)
	assert.Equal(t, "M", f.Imports[1].LocalName())

	foo := f.Declaration("Foo")
	require.NotNil(t, foo)
	assert.True(t, foo.Annotation)
	assert.Equal(t, "com.example.Foo", foo.FQN)
	require.Len(t, foo.Params, 2)

	x := foo.Param("x")
	require.NotNil(t, x)
	assert.Equal(t, "String", x.Type.Text)
	require.NotNil(t, x.Default)
	assert.Equal(t, syntax.ExprStringTemplate, x.Default.Kind)
	assert.Equal(t, "d", x.Default.Const.Value)

	ids := foo.Param("ids")
	require.NotNil(t, ids)
	assert.True(t, ids.Vararg)
	assert.True(t, ids.Type.Array)
	assert.Nil(t, ids.Default)

	bar := f.Declaration("Bar")
	require.NotNil(t, bar)
	assert.True(t, bar.Param("value").Type.Array)
	nested := bar.Param("nested").Default
	require.NotNil(t, nested)
	assert.Equal(t, syntax.ExprCall, nested.Kind)
	assert.Equal(t, "Foo", nested.Callee.String())

	color := f.Declaration("Color")
	require.NotNil(t, color)
	assert.True(t, color.Enum)
	assert.False(t, color.Annotation)

	target := f.Declaration("Target")
	require.NotNil(t, target)
	assert.False(t, target.Annotation)
}

func TestKotlinEntries(t *testing.T) {
	t.Parallel()
	f := parse(t, "Annotations.kt", annotationsKt)

	classEntries := f.EntriesOf("com.example.Target")
	require.Len(t, classEntries, 1)
	e := classEntries[0]
	assert.Equal(t, "Foo", e.Callee.String())
	require.Len(t, e.Args, 3)
	assert.Equal(t, "", e.Args[0].Name)
	assert.Equal(t, "a", e.Args[0].Value.Const.Value)
	assert.Equal(t, int32(2), e.Args[2].Value.Const.Value)
	require.NotNil(t, e.ArgList)
	assert.Equal(t, syntax.ExprArgumentList, e.ArgList.Kind)
	assert.Same(t, e.ArgList, e.Args[0].Value.Parent)

	prop := f.EntriesOf("com.example.Target.prop")
	require.Len(t, prop, 1)
	assert.Equal(t, "field", prop[0].UseSite)
	require.Len(t, prop[0].Args, 1)
	coll := prop[0].Args[0].Value
	assert.Equal(t, syntax.ExprCollection, coll.Kind)
	require.Len(t, coll.Elems, 2)
	assert.Same(t, coll, coll.Elems[1].Parent)

	run := f.EntriesOf("com.example.Target.run")
	require.Len(t, run, 1)
	assert.Equal(t, "M", run[0].Callee.String())
	assert.Nil(t, run[0].ArgList)

	param := f.EntriesOf("com.example.Target.run.arg")
	require.Len(t, param, 1)
	assert.Equal(t, "x", param[0].Args[0].Name)
}

func TestKotlinExpressions(t *testing.T) {
	t.Parallel()
	src := `package p

@A(-1, "t$x", E.B, X::class, arrayOf(1, 2), *ids, null, 'c', 2.5f, 10L, true, (3))
class C
`
	f := parse(t, "C.kt", src)
	entries := f.EntriesOf("p.C")
	require.Len(t, entries, 1)
	args := entries[0].Args
	require.Len(t, args, 12)

	assert.Equal(t, syntax.ExprConstant, args[0].Value.Kind)
	assert.Equal(t, int32(-1), args[0].Value.Const.Value)

	assert.Equal(t, syntax.ExprStringTemplate, args[1].Value.Kind)
	assert.Nil(t, args[1].Value.Const)

	assert.Equal(t, syntax.ExprReference, args[2].Value.Kind)
	assert.Equal(t, "E.B", args[2].Value.Callee.String())

	assert.Equal(t, syntax.ExprClassLiteral, args[3].Value.Kind)

	assert.Equal(t, syntax.ExprCall, args[4].Value.Kind)
	assert.Equal(t, "arrayOf", args[4].Value.Callee.String())
	assert.Len(t, args[4].Value.Args, 2)

	assert.True(t, args[5].Spread)
	assert.Equal(t, syntax.ExprReference, args[5].Value.Kind)
	assert.Equal(t, "ids", args[5].Value.Text)
	for i, a := range args {
		if i != 5 {
			assert.False(t, a.Spread, "argument %d", i)
		}
	}

	assert.Equal(t, syntax.ConstNull, args[6].Value.Const.Kind)
	assert.Equal(t, 'c', args[7].Value.Const.Value)
	assert.Equal(t, float32(2.5), args[8].Value.Const.Value)
	assert.Equal(t, int64(10), args[9].Value.Const.Value)
	assert.Equal(t, true, args[10].Value.Const.Value)

	assert.Equal(t, syntax.ExprParenthesized, args[11].Value.Kind)
	assert.Equal(t, int32(3), args[11].Value.Unparen().Const.Value)
}

func TestKotlinSpreadCall(t *testing.T) {
	t.Parallel()
	src := `package p

@A(1, *intArrayOf(4, 5), ids = *arrayOf("x"))
class C
`
	f := parse(t, "C.kt", src)
	args := f.EntriesOf("p.C")[0].Args
	require.Len(t, args, 3)

	assert.False(t, args[0].Spread)

	spread := args[1]
	assert.True(t, spread.Spread)
	assert.Equal(t, syntax.ExprCall, spread.Value.Kind)
	assert.Equal(t, "intArrayOf", spread.Value.Callee.String())
	assert.Equal(t, "intArrayOf(4, 5)", spread.Value.Text)
	require.Len(t, spread.Value.Args, 2)
	assert.Equal(t, int32(4), spread.Value.Args[0].Value.Const.Value)

	named := args[2]
	assert.Equal(t, "ids", named.Name)
	assert.True(t, named.Spread)
	assert.Equal(t, "arrayOf", named.Value.Callee.String())
}

func TestKotlinFileAnnotation(t *testing.T) {
	t.Parallel()
	src := `@file:JvmName("Utils")
package p.q

fun top() {}
`
	f := parse(t, "util.kt", src)
	entries := f.EntriesOf("p.q.UtilKt")
	require.Len(t, entries, 1)
	assert.Equal(t, "file", entries[0].UseSite)
	assert.Equal(t, "JvmName", entries[0].Callee.String())
}

func TestEntryAt(t *testing.T) {
	t.Parallel()
	f := parse(t, "Annotations.kt", annotationsKt)

	e := f.EntriesOf("com.example.Target")[0]
	got := f.EntryAt(e.Range.Start.Offset + 1)
	assert.Same(t, e, got)
	assert.Nil(t, f.EntryAt(0))
}
