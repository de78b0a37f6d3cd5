package lang

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phobologic/ktlight/internal/syntax"
)

func TestForExtension(t *testing.T) {
	t.Parallel()

	tests := []struct {
		ext  string
		want syntax.Language
	}{
		{".kt", syntax.Kotlin},
		{".kts", syntax.Kotlin},
		{".KT", syntax.Kotlin},
		{".java", syntax.Java},
		{".go", ""},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.ext, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, ForExtension(tt.ext))
		})
	}
}

func TestForPath(t *testing.T) {
	t.Parallel()

	require.NotNil(t, ForPath("src/a/Foo.kt"))
	assert.Equal(t, syntax.Java, ForPath("Foo.java").Name)
	assert.Nil(t, ForPath("Makefile"))
}

func TestLanguagesRegistered(t *testing.T) {
	t.Parallel()

	for _, name := range []syntax.Language{syntax.Kotlin, syntax.Java} {
		l, ok := Languages[name]
		require.True(t, ok, "%s not registered", name)
		assert.NotNil(t, l.GetLanguage())
		assert.NotNil(t, l.Build)
	}
}

func TestParseSource(t *testing.T) {
	t.Parallel()

	f, err := Languages[syntax.Kotlin].ParseSource(context.Background(), "Foo.kt", []byte("package a.b\n\nannotation class Foo\n"))
	require.NoError(t, err)
	assert.Equal(t, "a.b", f.Package)
	require.Len(t, f.Declarations, 1)
	assert.Equal(t, "a.b.Foo", f.Declarations[0].FQN)
	assert.True(t, f.Declarations[0].Annotation)
}
