package validate

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Fold lower-cases s, strips diacritics and collapses whitespace, so
// "Cartão  de Crédito" and "cartao de credito" compare equal.
func Fold(s string) string {
	// transform chains keep state, so each call builds its own.
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.ToLower(CleanText(out))
}

// CleanText trims s and collapses runs of whitespace, newlines included.
func CleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
