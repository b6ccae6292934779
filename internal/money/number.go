// Package money parses and formats decimal numbers typed into spreadsheet cells
// and converts monetary values between major units (reais) and minor units
// (centavos).
package money

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrNotNumeric is returned for empty or non-numeric text. The accompanying
// value is always zero; callers decide whether that is fatal.
var ErrNotNumeric = errors.New("not a number")

var currencySymbols = []string{"R$", "US$", "$", "€", "£"}

// Number is a parsed cell value.
type Number struct {
	Value decimal.Decimal
	// Fractional is true when a decimal separator was present, even if the
	// fractional digits are zero ("12000,00").
	Fractional bool
}

// Parse converts text to a decimal. It accepts Brazilian ("1.234,56") and
// international ("1,234.56") conventions.
func Parse(text string) (decimal.Decimal, error) {
	n, err := ParseNumber(text)
	return n.Value, err
}

// ParseNumber is Parse that also reports whether the text carried a decimal part.
//
// When both ',' and '.' appear the rightmost one is the decimal point. When only
// one kind appears and more than two digits follow its last occurrence it is a
// thousands separator, otherwise it is the decimal point.
func ParseNumber(text string) (Number, error) {
	s := strings.TrimSpace(text)
	for _, sym := range currencySymbols {
		s = strings.ReplaceAll(s, sym, "")
	}
	s = strings.Map(func(r rune) rune {
		if r == ' ' || r == '\u00a0' || r == '\t' {
			return -1
		}
		return r
	}, s)

	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = s[1 : len(s)-1]
	}
	if strings.HasPrefix(s, "-") {
		negative = !negative
		s = s[1:]
	} else {
		s = strings.TrimPrefix(s, "+")
	}

	if !isNumeric(s) {
		return Number{Value: decimal.Zero}, ErrNotNumeric
	}

	normalized, fractional := normalizeSeparators(s)
	d, err := decimal.NewFromString(normalized)
	if err != nil {
		return Number{Value: decimal.Zero}, ErrNotNumeric
	}
	if negative {
		d = d.Neg()
	}
	return Number{Value: d, Fractional: fractional}, nil
}

func isNumeric(s string) bool {
	digits := 0
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			digits++
		case r == ',' || r == '.':
		default:
			return false
		}
	}
	return digits > 0
}

func normalizeSeparators(s string) (string, bool) {
	lastDot := strings.LastIndexByte(s, '.')
	lastComma := strings.LastIndexByte(s, ',')

	switch {
	case lastDot >= 0 && lastComma >= 0:
		if lastComma > lastDot {
			s = strings.ReplaceAll(s, ".", "")
			return strings.Replace(s, ",", ".", 1), true
		}
		return strings.ReplaceAll(s, ",", ""), true
	case lastComma >= 0:
		return singleSeparator(s, ',', lastComma)
	case lastDot >= 0:
		return singleSeparator(s, '.', lastDot)
	}
	return s, false
}

func singleSeparator(s string, sep byte, last int) (string, bool) {
	after := len(s) - last - 1
	if after > 2 || after == 0 {
		return strings.ReplaceAll(s, string(sep), ""), false
	}
	intPart := strings.ReplaceAll(s[:last], string(sep), "")
	return intPart + "." + s[last+1:], true
}
