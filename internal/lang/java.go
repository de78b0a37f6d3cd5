package lang

import (
	"github.com/smacker/go-tree-sitter/java"

	"github.com/phobologic/ktlight/internal/syntax"
)

func init() {
	Languages[syntax.Java] = &Language{
		Name:       syntax.Java,
		Extensions: []string{".java"},
		lang:       java.GetLanguage(),
		Build:      syntax.FromJava,
	}
}
