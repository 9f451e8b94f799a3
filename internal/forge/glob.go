package forge

import (
	"path/filepath"
	"regexp"
	"strings"
)

// matchGlob matches pattern against relPath, supporting "**" as a
// path-spanning wildcard the way filepath.Match alone cannot ("*" never
// crosses a "/" there). A pattern with no "/" is also tried against just
// relPath's base name, so a bare "*.j2" matches regardless of directory.
func matchGlob(pattern, relPath string) bool {
	if pattern == "" {
		return false
	}
	re := globToRegexp(pattern)
	if re.MatchString(relPath) {
		return true
	}
	if !strings.Contains(pattern, "/") {
		return re.MatchString(filepath.Base(relPath))
	}
	return false
}

// globToRegexp translates a glob pattern into an anchored regexp: "**"
// becomes ".*" (crosses "/"), a lone "*" becomes "[^/]*", "?" becomes
// "[^/]", and every other rune is escaped literally.
func globToRegexp(pattern string) *regexp.Regexp {
	var b strings.Builder
	b.WriteString("^")
	runes := []rune(pattern)
	for i := 0; i < len(runes); i++ {
		switch runes[i] {
		case '*':
			if i+1 < len(runes) && runes[i+1] == '*' {
				b.WriteString(".*")
				i++
			} else {
				b.WriteString("[^/]*")
			}
		case '?':
			b.WriteString("[^/]")
		default:
			b.WriteString(regexp.QuoteMeta(string(runes[i])))
		}
	}
	b.WriteString("$")
	return regexp.MustCompile(b.String())
}
