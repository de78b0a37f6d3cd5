package report

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phobologic/ktlight/internal/index"
	"github.com/phobologic/ktlight/internal/lang"
	"github.com/phobologic/ktlight/internal/light"
	"github.com/phobologic/ktlight/internal/model"
	"github.com/phobologic/ktlight/internal/psi"
	"github.com/phobologic/ktlight/internal/resolve"
	"github.com/phobologic/ktlight/internal/syntax"
)

const decls = `package com.example

annotation class Foo(val x: String = "d", vararg val ids: Int)
`

const use = `package com.example

@Foo("a", 1, 2)
@Missing
class Use {
    @Foo(x = "a" + "b")
    fun run() {}
}
`

func build(t *testing.T) (*index.Snapshot, *light.Cache) {
	t.Helper()
	var files []*syntax.File
	for _, src := range []struct{ path, text string }{{"Decls.kt", decls}, {"Use.kt", use}} {
		f, err := lang.ForPath(src.path).ParseSource(context.Background(), src.path, []byte(src.text))
		require.NoError(t, err)
		files = append(files, f)
	}
	snap := index.New("", files...)
	return snap, light.NewCache(resolve.New(snap), light.Options{})
}

func TestBuild(t *testing.T) {
	t.Parallel()
	snap, cache := build(t)
	r := Build("demo", snap, cache)

	assert.Equal(t, "demo", r.Name)
	assert.Equal(t, 2, r.Files)
	require.Len(t, r.Annotations, 3)

	foo := r.Annotations[0]
	assert.Equal(t, "Use.kt", foo.File)
	assert.Equal(t, 3, foo.Line)
	assert.Equal(t, "com.example.Use", foo.Owner)
	assert.Equal(t, "com.example.Foo", foo.Name)
	assert.True(t, foo.Resolved)
	require.Len(t, foo.Attribute, 2)
	assert.Equal(t, model.Attribute{
		Name: "x", Kind: model.Literal, Value: `"a"`, Origin: model.FromSource, Location: "Use.kt:3",
	}, foo.Attribute[0])
	assert.Equal(t, model.Array, foo.Attribute[1].Kind)
	assert.Equal(t, "{1, 2}", foo.Attribute[1].Value)

	missing := r.Annotations[1]
	assert.False(t, missing.Resolved)
	assert.Empty(t, missing.Attribute)

	run := r.Annotations[2]
	require.Len(t, run.Attribute, 2)
	assert.Equal(t, model.Opaque, run.Attribute[0].Kind)
	assert.Equal(t, `"a" + "b"`, run.Attribute[0].Value)
	assert.Equal(t, model.FromDefault, run.Attribute[1].Origin)
	assert.Equal(t, "{}", run.Attribute[1].Value)

	var severities []string
	for _, d := range r.Diagnostics {
		assert.Equal(t, "Use.kt", d.File)
		severities = append(severities, d.Severity)
	}
	assert.Equal(t, []string{"warning", "warning"}, severities)
}

func TestFind(t *testing.T) {
	t.Parallel()
	snap, cache := build(t)

	assert.Len(t, Find(snap, cache, "com.example.Use", "com.example.Foo"), 1)
	assert.Len(t, Find(snap, cache, "com.example.Use", "Foo"), 1)
	assert.Len(t, Find(snap, cache, "com.example.Use", "Missing"), 1)
	assert.Empty(t, Find(snap, cache, "com.example.Use", "Bar"))
	assert.Empty(t, Find(snap, cache, "com.example.Nope", "Foo"))
}

func TestLocation(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "", Location(psi.Location{}))
	l := psi.Location{Path: "a/B.kt", Range: syntax.Range{Start: syntax.Position{Line: 4}}}
	assert.Equal(t, "a/B.kt:5", Location(l))
}
