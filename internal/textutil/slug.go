package textutil

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// FoldDiacritics strips combining marks: "Pokémon" becomes "Pokemon".
func FoldDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// Slug lowercases s, folds diacritics, turns spaces into underscores and keeps
// only [a-z0-9_.-]. The result may be empty.
func Slug(s string) string {
	s = strings.ToLower(FoldDiacritics(strings.TrimSpace(s)))
	var b strings.Builder
	b.Grow(len(s))
	lastUnderscore := false
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '.', r == '-':
			b.WriteRune(r)
			lastUnderscore = false
		case r == '_' || unicode.IsSpace(r):
			if !lastUnderscore {
				b.WriteByte('_')
				lastUnderscore = true
			}
		}
	}
	return strings.Trim(b.String(), "_")
}

// TitleCase capitalizes each word: "keep2share" -> "Keep2share",
// "file factory" -> "File Factory".
func TitleCase(s string) string {
	return cases.Title(language.Und).String(strings.TrimSpace(s))
}
