package tables

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Fold lower-cases s and strips diacritics so that "Anulación" and
// "ANULACION" compare equal. The length of the result may differ from s.
func Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return strings.ToLower(s)
	}
	return strings.ToLower(out)
}

// ContainsAny reports whether folded text contains any of the folded keywords
// and returns the first one that matched. A keyword with a leading or
// trailing space must start or end on a word boundary: " pac " matches
// "cargo pac" and "pac-123" but not "espacio".
func ContainsAny(folded string, keywords []string) (string, bool) {
	var words string
	for _, kw := range keywords {
		if kw == "" {
			continue
		}
		if strings.HasPrefix(kw, " ") || strings.HasSuffix(kw, " ") {
			if words == "" {
				words = " " + wordsOnly(folded) + " "
			}
			if strings.Contains(words, kw) {
				return kw, true
			}
			continue
		}
		if strings.Contains(folded, kw) {
			return kw, true
		}
	}
	return "", false
}

// wordsOnly replaces every rune that is not a letter or digit with a space.
func wordsOnly(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		return ' '
	}, s)
}
