// Package textnorm provides the string comparisons used for matching
// Greek headwords, glosses and answers.
package textnorm

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Fold removes diacritics, case and redundant whitespace so that two
// renderings of the same word compare equal. Final sigma folds to σ.
func Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	stripped, _, err := transform.String(t, s)
	if err != nil {
		stripped = s
	}
	return strings.Join(strings.Fields(cases.Fold().String(stripped)), " ")
}

// EqualsMorph reports whether a and b are equal ignoring case, diacritics
// and whitespace differences.
func EqualsMorph(a, b string) bool {
	return Fold(a) == Fold(b)
}

// Lower lowercases s without touching diacritics.
func Lower(s string) string {
	return strings.ToLower(s)
}

// CaseFold lowercases s and maps final sigma to σ, keeping diacritics.
// Headword search applies it to both the stored headword and the query.
func CaseFold(s string) string {
	return strings.ReplaceAll(strings.ToLower(s), "ς", "σ")
}

// Label turns a stored category value such as "first-person" or
// "middle_passive" into a display label ("First person").
func Label(s string) string {
	s = strings.NewReplacer("-", " ", "_", " ").Replace(strings.TrimSpace(s))
	s = strings.Join(strings.Fields(s), " ")
	if s == "" {
		return ""
	}
	first := []rune(s)[:1]
	rest := s[len(string(first)):]
	return cases.Title(language.Und).String(string(first)) + rest
}

// EscapeLike escapes the LIKE wildcards in s using backslash.
func EscapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
