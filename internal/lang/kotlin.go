package lang

import (
	"github.com/smacker/go-tree-sitter/kotlin"

	"github.com/phobologic/ktlight/internal/syntax"
)

func init() {
	Languages[syntax.Kotlin] = &Language{
		Name:       syntax.Kotlin,
		Extensions: []string{".kt", ".kts"},
		lang:       kotlin.GetLanguage(),
		Build:      syntax.FromKotlin,
	}
}
