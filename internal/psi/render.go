package psi

import (
	"fmt"
	"strconv"
	"strings"
)

// Render formats a member value as Java source.
func Render(v MemberValue) string {
	var b strings.Builder
	render(&b, v)
	return b.String()
}

func render(b *strings.Builder, v MemberValue) {
	switch v := v.(type) {
	case nil:
		b.WriteString("null")
	case Annotation:
		b.WriteByte('@')
		b.WriteString(v.QualifiedName())
		attrs := v.Attributes()
		if len(attrs) == 0 {
			return
		}
		b.WriteByte('(')
		for i, a := range attrs {
			if i > 0 {
				b.WriteString(", ")
			}
			if len(attrs) > 1 || a.Name != "value" {
				b.WriteString(a.Name)
				b.WriteString(" = ")
			}
			render(b, a.Value)
		}
		b.WriteByte(')')
	case ArrayInitializer:
		b.WriteByte('{')
		for i, el := range v.Initializers() {
			if i > 0 {
				b.WriteString(", ")
			}
			render(b, el)
		}
		b.WriteByte('}')
	case Literal:
		b.WriteString(FormatConstant(v.Value()))
	default:
		b.WriteString(v.Text())
	}
}

// FormatConstant formats a literal value the way javac prints constants.
func FormatConstant(value any) string {
	switch x := value.(type) {
	case nil:
		return "null"
	case string:
		return strconv.Quote(x)
	case int32:
		return strconv.FormatInt(int64(x), 10)
	case int64:
		return strconv.FormatInt(x, 10) + "L"
	case float32:
		return strconv.FormatFloat(float64(x), 'g', -1, 32) + "f"
	case float64:
		s := strconv.FormatFloat(x, 'g', -1, 64)
		if !strings.ContainsAny(s, ".eEIN") {
			s += ".0"
		}
		return s
	case bool:
		return strconv.FormatBool(x)
	case Char:
		return strconv.QuoteRune(rune(x))
	}
	return fmt.Sprint(value)
}
