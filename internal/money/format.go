package money

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/orcafacil/orcafacil/internal/model"
)

// Style selects separator conventions.
type Style int

const (
	// StyleBrazilian renders 1.234,56.
	StyleBrazilian Style = iota
	// StyleInternational renders 1,234.56.
	StyleInternational
)

// FormatOptions controls Format.
type FormatOptions struct {
	// IntegerOnly rounds to a whole number and emits no decimal separator.
	IntegerOnly bool
	Decimals    int32
	Style       Style
	Grouping    bool
	Symbol      string
}

// Format renders d. Rounding is half away from zero and happens only here.
func Format(d decimal.Decimal, opts FormatOptions) string {
	places := opts.Decimals
	if opts.IntegerOnly || places < 0 {
		places = 0
	}

	rounded := d.Round(places)
	s := rounded.Abs().StringFixed(places)

	intPart, fracPart, _ := strings.Cut(s, ".")
	decSep, groupSep := ",", "."
	if opts.Style == StyleInternational {
		decSep, groupSep = ".", ","
	}
	if opts.Grouping {
		intPart = group(intPart, groupSep)
	}

	var b strings.Builder
	if opts.Symbol != "" {
		b.WriteString(opts.Symbol)
		b.WriteByte(' ')
	}
	if rounded.IsNegative() {
		b.WriteByte('-')
	}
	b.WriteString(intPart)
	if fracPart != "" {
		b.WriteString(decSep)
		b.WriteString(fracPart)
	}
	return b.String()
}

// FormatBRL renders a minor-unit amount for messages, e.g. "R$ 2.589,00".
func FormatBRL(a model.Amount) string {
	return Format(a.Major(), FormatOptions{Decimals: 2, Grouping: true, Symbol: "R$"})
}

func group(digits, sep string) string {
	if len(digits) <= 3 {
		return digits
	}
	var b strings.Builder
	head := len(digits) % 3
	if head > 0 {
		b.WriteString(digits[:head])
	}
	for i := head; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteString(sep)
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}
