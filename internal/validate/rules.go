// Package validate checks parsed budget rows field by field and across the batch.
package validate

import (
	"fmt"
	"strings"

	"github.com/orcafacil/orcafacil/internal/money"
)

// Strictness selects which corrections are applied automatically.
type Strictness string

const (
	// StrictnessLenient applies every suggestion, medium confidence included.
	StrictnessLenient Strictness = "lenient"
	// StrictnessStandard applies auto-applicable suggestions and scale fixes.
	StrictnessStandard Strictness = "standard"
	// StrictnessStrict applies nothing; suspicious scale values are errors.
	StrictnessStrict Strictness = "strict"
)

// ParseStrictness accepts "lenient", "standard" or "strict". Empty means standard.
func ParseStrictness(s string) (Strictness, error) {
	switch Strictness(strings.ToLower(strings.TrimSpace(s))) {
	case "", StrictnessStandard:
		return StrictnessStandard, nil
	case StrictnessLenient:
		return StrictnessLenient, nil
	case StrictnessStrict:
		return StrictnessStrict, nil
	}
	return "", fmt.Errorf("unknown strictness %q", s)
}

// Rules configures both validators.
type Rules struct {
	Strictness Strictness
	// SourceScale is the unit the sheet's money columns are declared in.
	SourceScale money.Scale
	Scale       money.Converter

	DeviceTypes    []string
	PaymentMethods []string
	// CashMethods are payment methods that allow a single installment only.
	CashMethods []string

	MaxEditDistance   int
	WarrantyMaxMonths int
	ValidityMaxDays   int
	// BatchScaleRatio is the share of monetary values above the minor-unit
	// threshold beyond which the whole batch is flagged.
	BatchScaleRatio float64
}

// DefaultDeviceTypes is the curated device list.
var DefaultDeviceTypes = []string{
	"Celular",
	"Smartphone",
	"Tablet",
	"Notebook",
	"Computador",
	"Smartwatch",
	"Videogame",
	"Fone de Ouvido",
	"Caixa de Som",
	"Televisão",
}

// DefaultPaymentMethods is the suggested payment method list.
var DefaultPaymentMethods = []string{
	"Dinheiro",
	"PIX",
	"Cartão de Crédito",
	"Cartão de Débito",
	"Boleto",
	"Transferência Bancária",
}

// DefaultCashMethods are settled in one payment.
var DefaultCashMethods = []string{"Dinheiro", "PIX"}

// DefaultRules returns the rules used when no configuration is given.
func DefaultRules() Rules {
	return Rules{
		Strictness:        StrictnessStandard,
		SourceScale:       money.MajorUnit,
		Scale:             money.DefaultConverter(),
		DeviceTypes:       DefaultDeviceTypes,
		PaymentMethods:    DefaultPaymentMethods,
		CashMethods:       DefaultCashMethods,
		MaxEditDistance:   3,
		WarrantyMaxMonths: 24,
		ValidityMaxDays:   90,
		BatchScaleRatio:   0.8,
	}
}

func (r Rules) applies(autoApplicable bool) bool {
	switch r.Strictness {
	case StrictnessLenient:
		return true
	case StrictnessStrict:
		return false
	}
	return autoApplicable
}
