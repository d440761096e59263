package textutil

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var whitespaceRegex = regexp.MustCompile(`\s+`)

// FoldName lowercases a name and removes its accents, ex. "Lomo Ñandú" -> "lomo nandu".
func FoldName(name string) string {
	// chained transformers are stateful and cannot be shared between goroutines
	foldAccents := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(foldAccents, strings.ToLower(name))
	if err != nil {
		folded = strings.ToLower(name)
	}
	return strings.TrimSpace(whitespaceRegex.ReplaceAllString(folded, " "))
}

// NormalizeName is FoldName without any whitespace, so names can be matched
// regardless of how words are spaced.
func NormalizeName(name string) string {
	return whitespaceRegex.ReplaceAllString(FoldName(name), "")
}

// MatchName reports whether the normalized name contains any of the
// normalized matchers.
func MatchName(name string, matchers ...string) bool {
	name = NormalizeName(name)
	for _, m := range matchers {
		m = NormalizeName(m)
		if m != "" && strings.Contains(name, m) {
			return true
		}
	}
	return false
}
