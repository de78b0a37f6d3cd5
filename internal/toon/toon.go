// Package toon implements TOON (Token-Oriented Object Notation) encoding.
package toon

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/phobologic/ktlight/internal/model"
)

var (
	needsQuoting = regexp.MustCompile(`[,:"\\{}\[\]]`)
	looksNumeric = regexp.MustCompile(`^-?(?:0|[1-9]\d*)(?:\.\d+)?$`)
	keywords     = map[string]struct{}{
		"true":  {},
		"false": {},
		"null":  {},
	}
)

// Encode converts a Report into TOON format.
func Encode(r *model.Report) string {
	var parts []string

	parts = append(parts, fmt.Sprintf("repo: %s", encodeValue(r.Name)))
	parts = append(parts, fmt.Sprintf("root: %s", encodeValue(r.Root)))
	parts = append(parts, fmt.Sprintf("files: %d", r.Files))

	var annRows, attrRows [][]string
	for i := range r.Annotations {
		a := &r.Annotations[i]
		annRows = append(annRows, []string{
			a.File,
			strconv.Itoa(a.Line),
			a.Owner,
			a.Name,
			strconv.Itoa(a.Ordinal),
			strconv.FormatBool(a.Resolved),
		})
		for j := range a.Attribute {
			at := &a.Attribute[j]
			attrRows = append(attrRows, []string{
				a.Owner,
				a.Name,
				strconv.Itoa(a.Ordinal),
				at.Name,
				string(at.Kind),
				string(at.Origin),
				at.Value,
				at.Location,
			})
		}
	}
	parts = append(parts, formatTabular("annotations",
		[]string{"file", "line", "owner", "name", "ordinal", "resolved"}, annRows))
	parts = append(parts, formatTabular("attributes",
		[]string{"owner", "annotation", "ordinal", "name", "kind", "origin", "value", "location"}, attrRows))

	var depRows [][]string
	for i := range r.Dependencies {
		d := &r.Dependencies[i]
		depRows = append(depRows, []string{
			d.Source,
			d.Target,
			strings.Join(d.Symbols, " "),
		})
	}
	parts = append(parts, formatTabular("dependencies", []string{"source", "target", "symbols"}, depRows))

	if len(r.Diagnostics) > 0 {
		var diagRows [][]string
		for i := range r.Diagnostics {
			d := &r.Diagnostics[i]
			diagRows = append(diagRows, []string{
				d.File,
				strconv.Itoa(d.Line),
				d.Severity,
				d.Message,
			})
		}
		parts = append(parts, formatTabular("diagnostics", []string{"file", "line", "severity", "message"}, diagRows))
	}

	return strings.Join(parts, "\n")
}

func formatTabular(name string, columns []string, rows [][]string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s[%d]{%s}:", name, len(rows), strings.Join(columns, ","))
	for _, row := range rows {
		encoded := make([]string, len(row))
		for i, cell := range row {
			encoded[i] = encodeValue(cell)
		}
		fmt.Fprintf(&b, "\n  %s", strings.Join(encoded, ","))
	}
	return b.String()
}

func encodeValue(value string) string {
	if value == "" {
		return `""`
	}

	if value != strings.TrimSpace(value) {
		return quote(value)
	}

	if strings.ContainsAny(value, "\n\r\t") {
		return quote(value)
	}

	if _, ok := keywords[strings.ToLower(value)]; ok {
		return quote(value)
	}

	if looksNumeric.MatchString(value) {
		return value
	}

	if needsQuoting.MatchString(value) {
		return quote(value)
	}

	if strings.HasPrefix(value, "-") {
		return quote(value)
	}

	return value
}

func quote(value string) string {
	escaped := strings.ReplaceAll(value, `\`, `\\`)
	escaped = strings.ReplaceAll(escaped, `"`, `\"`)
	escaped = strings.ReplaceAll(escaped, "\n", `\n`)
	escaped = strings.ReplaceAll(escaped, "\r", `\r`)
	escaped = strings.ReplaceAll(escaped, "\t", `\t`)
	return `"` + escaped + `"`
}
