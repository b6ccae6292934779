package validate

import (
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/unicode/norm"

	"github.com/orcafacil/orcafacil/internal/budgetcsv"
	"github.com/orcafacil/orcafacil/internal/model"
	"github.com/orcafacil/orcafacil/internal/money"
)

// maxInteger bounds counts, months and days.
var maxInteger = decimal.NewFromInt(math.MaxInt32)

var booleanTokens = map[string]bool{
	"sim":   true,
	"yes":   true,
	"true":  true,
	"não":   false,
	"nao":   false,
	"no":    false,
	"false": false,
}

// Candidate is a row after field validation. Record holds zero placeholders for
// fields that failed.
type Candidate struct {
	Row      int
	Record   model.BudgetRecord
	Findings []model.Finding
	// Failed marks fields that produced an error.
	Failed map[string]bool
	// RawAmounts are the monetary cell values as typed, before scale handling.
	RawAmounts []decimal.Decimal
}

// HasErrors reports whether any finding on the row is an error.
func (c *Candidate) HasErrors() bool {
	return len(c.Failed) > 0
}

func (c *Candidate) add(f model.Finding) {
	f.Row = c.Row
	if f.Severity == model.SeverityError {
		c.Failed[f.Field] = true
	}
	c.Findings = append(c.Findings, f)
}

func (c *Candidate) fail(kind, field, value, msg string) {
	c.add(model.Finding{Severity: model.SeverityError, Kind: kind, Field: field, Value: value, Message: msg})
}

func (c *Candidate) warn(kind, field, value, msg string) {
	c.add(model.Finding{Severity: model.SeverityWarning, Kind: kind, Field: field, Value: value, Message: msg})
}

func (c *Candidate) suggest(kind, field, msg string, s model.Suggestion) {
	c.add(model.Finding{
		Severity:   model.SeveritySuggestion,
		Kind:       kind,
		Field:      field,
		Value:      s.Original,
		Message:    msg,
		Suggestion: &s,
	})
}

// FieldValidator applies the per-field business rules.
type FieldValidator struct {
	rules    Rules
	devices  *Matcher
	payments *Matcher
}

// NewFieldValidator builds a FieldValidator for rules.
func NewFieldValidator(rules Rules) *FieldValidator {
	return &FieldValidator{
		rules:    rules,
		devices:  NewMatcher(rules.DeviceTypes, rules.MaxEditDistance),
		payments: NewMatcher(rules.PaymentMethods, rules.MaxEditDistance),
	}
}

// ValidateRow types one row. Findings come out in column order.
func (v *FieldValidator) ValidateRow(cells []string, header budgetcsv.HeaderMap, row int) Candidate {
	c := Candidate{Row: row, Failed: make(map[string]bool)}
	get := func(h string) string { return header.Lookup(cells, h) }

	var rec model.BudgetRecord
	rec.DeviceType = v.requiredText(&c, model.FieldDeviceType, get(budgetcsv.HeaderDeviceType))
	rec.ServiceDescription = v.requiredText(&c, model.FieldServiceDescription, get(budgetcsv.HeaderServiceDescription))
	rec.Quality = CleanText(get(budgetcsv.HeaderQuality))
	rec.Notes = CleanText(get(budgetcsv.HeaderNotes))
	rec.CashPrice = v.amount(&c, model.FieldCashPrice, get(budgetcsv.HeaderCashPrice))
	rec.InstallmentPrice = v.amount(&c, model.FieldInstallmentPrice, get(budgetcsv.HeaderInstallmentPrice))
	rec.InstallmentCount = v.integer(&c, model.FieldInstallmentCount, get(budgetcsv.HeaderInstallmentCount), 1)
	rec.PaymentMethod = v.requiredText(&c, model.FieldPaymentMethod, get(budgetcsv.HeaderPaymentMethod))
	rec.WarrantyMonths = v.integer(&c, model.FieldWarrantyMonths, get(budgetcsv.HeaderWarrantyMonths), 0)
	rec.ValidityDays = v.integer(&c, model.FieldValidityDays, get(budgetcsv.HeaderValidityDays), 0)
	rec.IncludesDelivery = v.boolean(&c, model.FieldIncludesDelivery, get(budgetcsv.HeaderIncludesDelivery))
	rec.IncludesScreenProtector = v.boolean(&c, model.FieldIncludesScreenProtector, get(budgetcsv.HeaderScreenProtector))

	if !c.Failed[model.FieldDeviceType] {
		rec = rec.WithDeviceType(v.category(&c, model.FieldDeviceType, rec.DeviceType, v.devices))
	}
	if !c.Failed[model.FieldPaymentMethod] {
		rec = rec.WithPaymentMethod(v.category(&c, model.FieldPaymentMethod, rec.PaymentMethod, v.payments))
	}

	c.Record = rec
	return c
}

func (v *FieldValidator) requiredText(c *Candidate, field, raw string) string {
	s := CleanText(raw)
	if s == "" {
		c.fail(model.KindRequired, field, raw, "campo obrigatório não preenchido")
	}
	return s
}

func (v *FieldValidator) integer(c *Candidate, field, raw string, min int) int {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		c.fail(model.KindRequired, field, raw, "campo obrigatório não preenchido")
		return 0
	}
	n, err := money.Parse(raw)
	if err != nil {
		c.fail(model.KindInvalidNumber, field, raw, "valor numérico inválido")
		return 0
	}
	if !n.Equal(n.Truncate(0)) {
		c.fail(model.KindInvalidInteger, field, raw, "esperado um número inteiro")
		return 0
	}
	if n.LessThan(decimal.NewFromInt(int64(min))) {
		c.fail(model.KindOutOfRange, field, raw, fmt.Sprintf("valor deve ser maior ou igual a %d", min))
		return 0
	}
	if n.GreaterThan(maxInteger) {
		c.fail(model.KindOutOfRange, field, raw, "valor muito grande")
		return 0
	}
	return int(n.IntPart())
}

func (v *FieldValidator) boolean(c *Candidate, field, raw string) bool {
	token := strings.ToLower(norm.NFC.String(strings.TrimSpace(raw)))
	if token == "" {
		c.fail(model.KindRequired, field, raw, "campo obrigatório não preenchido")
		return false
	}
	b, ok := booleanTokens[token]
	if !ok {
		c.fail(model.KindInvalidBoolean, field, raw, "use sim ou não")
		return false
	}
	return b
}

func (v *FieldValidator) amount(c *Candidate, field, raw string) model.Amount {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		c.fail(model.KindRequired, field, raw, "campo obrigatório não preenchido")
		return 0
	}
	n, err := money.ParseNumber(raw)
	if err != nil {
		c.fail(model.KindInvalidNumber, field, raw, "valor monetário inválido")
		return 0
	}
	if n.Value.IsNegative() {
		c.fail(model.KindOutOfRange, field, raw, "valor não pode ser negativo")
		return 0
	}
	limit := money.MaxMajor
	if v.rules.SourceScale == money.MinorUnit {
		limit = money.MaxMinor
	}
	if n.Value.GreaterThan(limit) {
		c.fail(model.KindOutOfRange, field, raw, "valor muito grande")
		return 0
	}
	c.RawAmounts = append(c.RawAmounts, n.Value)

	var a model.Amount
	if v.rules.SourceScale == money.MinorUnit {
		a = v.fromMinorUnits(c, field, raw, n.Value)
	} else {
		a = v.fromMajorUnits(c, field, raw, n)
	}
	if a == 0 && !c.Failed[field] {
		c.warn(model.KindZeroPrice, field, raw, "preço zerado")
	}
	return a
}

// fromMajorUnits handles sheets typed in reais. A bare value above the minor
// threshold is presumed to have been typed in centavos.
func (v *FieldValidator) fromMajorUnits(c *Candidate, field, raw string, n money.Number) model.Amount {
	if n.Fractional || v.rules.Scale.DetectScale(n.Value) == money.MajorUnit {
		return money.MajorToMinor(n.Value)
	}

	a, conv := v.rules.Scale.ToMinorUnits(n.Value)
	proposed := budgetcsv.FormatAmount(a, v.rules.Scale)
	msg := fmt.Sprintf("valor %s parece estar em centavos, equivale a %s", raw, money.FormatBRL(a))
	s := model.Suggestion{
		Original:       raw,
		Proposed:       proposed,
		Confidence:     conv.Confidence,
		AutoApplicable: true,
		Applied:        v.rules.applies(true),
	}

	if !s.Applied {
		c.fail(model.KindScaleCorrection, field, raw, msg)
		c.suggest(model.KindScaleCorrection, field, "corrigir para "+proposed, s)
		return 0
	}
	c.warn(model.KindScaleCorrection, field, raw, msg)
	c.suggest(model.KindScaleCorrection, field, "corrigido para "+proposed, s)
	return a
}

// fromMinorUnits handles legacy sheets whose money columns hold centavos.
// Values under the major floor probably were typed in reais anyway.
func (v *FieldValidator) fromMinorUnits(c *Candidate, field, raw string, n decimal.Decimal) model.Amount {
	major, conv := v.rules.Scale.ToMajorUnits(n)
	exact := model.Amount(n.Round(0).IntPart())
	if !conv.Adjusted {
		return money.MajorToMinor(major)
	}

	presumed := money.MajorToMinor(major)
	s := model.Suggestion{
		Original:       raw,
		Proposed:       budgetcsv.FormatAmount(presumed, v.rules.Scale),
		Confidence:     conv.Confidence,
		AutoApplicable: false,
		Applied:        v.rules.applies(false),
	}
	c.warn(model.KindScaleCorrection, field, raw,
		fmt.Sprintf("valor %s é pequeno para centavos, talvez seja %s", raw, money.FormatBRL(presumed)))
	if s.Applied {
		c.suggest(model.KindScaleCorrection, field, "interpretado em reais", s)
		return presumed
	}
	c.suggest(model.KindScaleCorrection, field, "mantido em centavos", s)
	return exact
}

func (v *FieldValidator) category(c *Candidate, field, value string, m *Matcher) string {
	if m.Empty() {
		return value
	}
	match := m.Match(value)
	if match.Exact {
		return value
	}
	if !match.Found {
		c.warn(model.KindUnknownCategory, field, value, "valor não reconhecido")
		return value
	}

	confidence := model.ConfidenceMedium
	if match.Distance <= 1 {
		confidence = model.ConfidenceHigh
	}
	auto := confidence == model.ConfidenceHigh && field == model.FieldPaymentMethod
	s := model.Suggestion{
		Original:       value,
		Proposed:       match.Value,
		Confidence:     confidence,
		AutoApplicable: auto,
		Applied:        v.rules.applies(auto),
	}

	c.warn(model.KindUnknownCategory, field, value, fmt.Sprintf("valor não reconhecido, você quis dizer %q?", match.Value))
	if s.Applied {
		c.suggest(model.KindCategorySuggestion, field, "substituído por "+match.Value, s)
		return match.Value
	}
	c.suggest(model.KindCategorySuggestion, field, "sugestão: "+match.Value, s)
	return value
}
