package forge

import (
	"strings"
	"unicode"
)

// splitWords breaks an identifier into lowercase words, handling
// snake_case, kebab-case, camelCase, and PascalCase inputs uniformly.
func splitWords(s string) []string {
	var words []string
	var cur strings.Builder
	flush := func() {
		if cur.Len() > 0 {
			words = append(words, strings.ToLower(cur.String()))
			cur.Reset()
		}
	}
	runes := []rune(s)
	for i, r := range runes {
		switch {
		case r == '_' || r == '-' || r == '.' || r == ' ':
			flush()
		case unicode.IsUpper(r) && i > 0 && !unicode.IsUpper(runes[i-1]):
			flush()
			cur.WriteRune(r)
		default:
			cur.WriteRune(r)
		}
	}
	flush()
	return words
}

// snakeCase joins words with underscores: "HttpRequest" -> "http_request".
func snakeCase(s string) string { return strings.Join(splitWords(s), "_") }

// kebabCase joins words with hyphens: "HttpRequest" -> "http-request".
func kebabCase(s string) string { return strings.Join(splitWords(s), "-") }

// pascalCase title-cases and joins every word: "http_request" -> "HttpRequest".
func pascalCase(s string) string {
	words := splitWords(s)
	var b strings.Builder
	for _, w := range words {
		if w == "" {
			continue
		}
		b.WriteString(strings.ToUpper(w[:1]))
		b.WriteString(w[1:])
	}
	return b.String()
}

// camelCase is pascalCase with the first word's leading letter lowercased:
// "http_request" -> "httpRequest".
func camelCase(s string) string {
	p := pascalCase(s)
	if p == "" {
		return p
	}
	return strings.ToLower(p[:1]) + p[1:]
}

// caseConvert dispatches to one of the four case styles by name, matching
// spec.md §4.6's "case converters (snake, camel, pascal, kebab, ...)".
func caseConvert(style, s string) string {
	switch style {
	case "camel":
		return camelCase(s)
	case "pascal":
		return pascalCase(s)
	case "kebab":
		return kebabCase(s)
	case "snake":
		fallthrough
	default:
		return snakeCase(s)
	}
}

// flatten recursively concatenates nested []any values into a single flat
// []any; a value that is not a []any becomes one element. Slices of other
// types (for example []string or [][]any) are not descended into and are
// kept as single elements.
func flatten(v any) []any {
	var out []any
	var walk func(any)
	walk = func(x any) {
		switch t := x.(type) {
		case []any:
			for _, e := range t {
				walk(e)
			}
		default:
			out = append(out, t)
		}
	}
	walk(v)
	return out
}

// splitID splits a dotted attribute id into its namespace segments, per
// spec.md §4.6's split_id filter ("split on .").
func splitID(id string) []string {
	if id == "" {
		return nil
	}
	return strings.Split(id, ".")
}

// ansiStyle is the minimal foreground/background/decoration family spec.md
// §4.6 requires: "foreground, background, bold/italic/underline/
// strikethrough". Grounded on the teacher's lack of an ANSI helper (none
// exists in the pack); implemented directly against the standard SGR escape
// sequences, since no example repo carries a terminal-styling dependency to
// reuse.
type ansiStyle struct{}

var ansiCodes = map[string]string{
	"black": "30", "red": "31", "green": "32", "yellow": "33",
	"blue": "34", "magenta": "35", "cyan": "36", "white": "37",
	"bg_black": "40", "bg_red": "41", "bg_green": "42", "bg_yellow": "43",
	"bg_blue": "44", "bg_magenta": "45", "bg_cyan": "46", "bg_white": "47",
	"bold": "1", "italic": "3", "underline": "4", "strikethrough": "9",
}

// style wraps s in the SGR codes named, e.g. style("bold", "red")("text").
func style(names ...string) func(string) string {
	var codes []string
	for _, n := range names {
		if c, ok := ansiCodes[n]; ok {
			codes = append(codes, c)
		}
	}
	return func(s string) string {
		if len(codes) == 0 {
			return s
		}
		return "\x1b[" + strings.Join(codes, ";") + "m" + s + "\x1b[0m"
	}
}
