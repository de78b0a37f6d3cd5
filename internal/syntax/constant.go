package syntax

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"
)

// ConstKind is the type of a compile-time constant.
type ConstKind int

const (
	ConstString ConstKind = iota
	ConstInt
	ConstLong
	ConstFloat
	ConstDouble
	ConstBool
	ConstChar
	ConstNull
)

var constKindNames = [...]string{
	ConstString: "String",
	ConstInt:    "Int",
	ConstLong:   "Long",
	ConstFloat:  "Float",
	ConstDouble: "Double",
	ConstBool:   "Boolean",
	ConstChar:   "Char",
	ConstNull:   "Nothing?",
}

func (k ConstKind) String() string {
	if int(k) < len(constKindNames) {
		return constKindNames[k]
	}
	return fmt.Sprintf("ConstKind(%d)", int(k))
}

// Constant is an evaluated literal. Value holds string, int32, int64,
// float32, float64, bool, rune or nil depending on Kind.
type Constant struct {
	Kind  ConstKind
	Value any
}

func (c *Constant) String() string {
	if c == nil {
		return "<nil>"
	}
	switch c.Kind {
	case ConstString:
		return strconv.Quote(c.Value.(string))
	case ConstChar:
		return strconv.QuoteRune(c.Value.(rune))
	case ConstNull:
		return "null"
	case ConstLong:
		return fmt.Sprintf("%dL", c.Value)
	case ConstFloat:
		return fmt.Sprintf("%vf", c.Value)
	}
	return fmt.Sprint(c.Value)
}

// Negate returns -c for numeric constants and false otherwise.
func (c *Constant) Negate() (*Constant, bool) {
	switch v := c.Value.(type) {
	case int32:
		return &Constant{Kind: c.Kind, Value: -v}, true
	case int64:
		return &Constant{Kind: c.Kind, Value: -v}, true
	case float32:
		return &Constant{Kind: c.Kind, Value: -v}, true
	case float64:
		return &Constant{Kind: c.Kind, Value: -v}, true
	}
	return nil, false
}

// ParseIntLiteral evaluates a Kotlin or Java integer literal, including hex
// and binary forms, underscores and the L suffix. Unsuffixed literals that do
// not fit an Int become Long.
func ParseIntLiteral(text string) (*Constant, error) {
	s := strings.ReplaceAll(text, "_", "")
	long := false
	for strings.HasSuffix(s, "L") || strings.HasSuffix(s, "l") || strings.HasSuffix(s, "u") || strings.HasSuffix(s, "U") {
		if s[len(s)-1] == 'L' || s[len(s)-1] == 'l' {
			long = true
		}
		s = s[:len(s)-1]
	}
	base := 10
	switch {
	case strings.HasPrefix(s, "0x"), strings.HasPrefix(s, "0X"):
		base, s = 16, s[2:]
	case strings.HasPrefix(s, "0b"), strings.HasPrefix(s, "0B"):
		base, s = 2, s[2:]
	case len(s) > 1 && s[0] == '0':
		base, s = 8, s[1:] // Java octal
	}
	u, err := strconv.ParseUint(s, base, 64)
	if err != nil {
		return nil, fmt.Errorf("integer literal %q: %w", text, err)
	}
	if !long && u <= math.MaxInt32 {
		return &Constant{Kind: ConstInt, Value: int32(u)}, nil
	}
	if !long && base != 10 && u <= math.MaxUint32 {
		// hex and binary Int literals may use the sign bit
		return &Constant{Kind: ConstInt, Value: int32(uint32(u))}, nil
	}
	return &Constant{Kind: ConstLong, Value: int64(u)}, nil
}

// ParseRealLiteral evaluates a floating point literal; an f/F suffix makes it
// a Float, everything else is a Double.
func ParseRealLiteral(text string) (*Constant, error) {
	s := strings.ReplaceAll(text, "_", "")
	switch {
	case strings.HasSuffix(s, "f"), strings.HasSuffix(s, "F"):
		f, err := strconv.ParseFloat(s[:len(s)-1], 32)
		if err != nil {
			return nil, fmt.Errorf("float literal %q: %w", text, err)
		}
		return &Constant{Kind: ConstFloat, Value: float32(f)}, nil
	case strings.HasSuffix(s, "d"), strings.HasSuffix(s, "D"):
		s = s[:len(s)-1]
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, fmt.Errorf("double literal %q: %w", text, err)
	}
	return &Constant{Kind: ConstDouble, Value: f}, nil
}

// ParseCharLiteral evaluates a quoted character literal such as 'a' or '\n'.
func ParseCharLiteral(text string) (*Constant, error) {
	if len(text) < 3 || text[0] != '\'' || text[len(text)-1] != '\'' {
		return nil, fmt.Errorf("char literal %q: not quoted", text)
	}
	s, err := unescape(text[1 : len(text)-1])
	if err != nil {
		return nil, fmt.Errorf("char literal %q: %w", text, err)
	}
	r, size := utf8.DecodeRuneInString(s)
	if size != len(s) || r == utf8.RuneError {
		return nil, fmt.Errorf("char literal %q: not a single character", text)
	}
	return &Constant{Kind: ConstChar, Value: r}, nil
}

// ParseStringLiteral evaluates a string literal without interpolation.
// Raw (triple quoted) strings are taken verbatim.
func ParseStringLiteral(text string) (*Constant, error) {
	if strings.HasPrefix(text, `"""`) && strings.HasSuffix(text, `"""`) && len(text) >= 6 {
		return &Constant{Kind: ConstString, Value: text[3 : len(text)-3]}, nil
	}
	if len(text) < 2 || text[0] != '"' || text[len(text)-1] != '"' {
		return nil, fmt.Errorf("string literal %q: not quoted", text)
	}
	s, err := unescape(text[1 : len(text)-1])
	if err != nil {
		return nil, fmt.Errorf("string literal %q: %w", text, err)
	}
	return &Constant{Kind: ConstString, Value: s}, nil
}

func unescape(s string) (string, error) {
	if !strings.ContainsRune(s, '\\') {
		return s, nil
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' {
			b.WriteByte(c)
			continue
		}
		i++
		if i >= len(s) {
			return "", fmt.Errorf("trailing backslash")
		}
		switch s[i] {
		case 't':
			b.WriteByte('\t')
		case 'b':
			b.WriteByte('\b')
		case 'n':
			b.WriteByte('\n')
		case 'r':
			b.WriteByte('\r')
		case 'f':
			b.WriteByte('\f')
		case '0':
			b.WriteByte(0)
		case '\'', '"', '\\', '$':
			b.WriteByte(s[i])
		case 'u':
			if i+4 >= len(s) {
				return "", fmt.Errorf("short unicode escape")
			}
			n, err := strconv.ParseUint(s[i+1:i+5], 16, 32)
			if err != nil {
				return "", fmt.Errorf("unicode escape: %w", err)
			}
			b.WriteRune(rune(n))
			i += 4
		default:
			return "", fmt.Errorf("unknown escape \\%c", s[i])
		}
	}
	return b.String(), nil
}
