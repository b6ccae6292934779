package validate

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/orcafacil/orcafacil/internal/model"
	"github.com/orcafacil/orcafacil/internal/money"
)

// RecordValidator runs the checks that need a whole record or the whole batch.
type RecordValidator struct {
	rules Rules
	cash  map[string]bool
}

// NewRecordValidator builds a RecordValidator for rules.
func NewRecordValidator(rules Rules) *RecordValidator {
	cash := make(map[string]bool, len(rules.CashMethods))
	for _, m := range rules.CashMethods {
		cash[Fold(m)] = true
	}
	return &RecordValidator{rules: rules, cash: cash}
}

// ValidateBatch returns cross-field, duplicate and batch scale findings. Row
// findings come first in row order, the batch finding (if any) last. Fields
// failing a cross-field check are marked in each candidate's Failed set, and
// only rows without errors take part in duplicate detection.
func (v *RecordValidator) ValidateBatch(cands []Candidate) []model.Finding {
	var findings []model.Finding
	seen := make(map[string]int)
	var raw []decimal.Decimal

	for i := range cands {
		c := &cands[i]
		raw = append(raw, c.RawAmounts...)
		findings = append(findings, v.crossField(c)...)

		if c.HasErrors() {
			continue
		}
		key := DuplicateKey(c.Record)
		if first, ok := seen[key]; ok {
			findings = append(findings, model.Finding{
				Severity: model.SeverityError,
				Kind:     model.KindDuplicate,
				Row:      c.Row,
				Field:    model.FieldCashPrice,
				Value:    key,
				Message:  fmt.Sprintf("orçamento repetido (primeira ocorrência na linha %d)", first),
			})
			continue
		}
		seen[key] = c.Row
	}

	if v.rules.SourceScale != money.MinorUnit {
		if f := v.AnalyzeScale(raw); f != nil {
			findings = append(findings, *f)
		}
	}
	return findings
}

func (v *RecordValidator) crossField(c *Candidate) []model.Finding {
	var out []model.Finding
	r := c.Record
	add := func(sev model.Severity, kind, field, value, msg string) {
		out = append(out, model.Finding{Severity: sev, Kind: kind, Row: c.Row, Field: field, Value: value, Message: msg})
	}

	if !c.Failed[model.FieldCashPrice] && !c.Failed[model.FieldInstallmentPrice] && r.InstallmentPrice < r.CashPrice {
		add(model.SeverityError, model.KindInstallmentBelowCash, model.FieldInstallmentPrice,
			money.FormatBRL(r.InstallmentPrice),
			fmt.Sprintf("preço parcelado menor que o preço à vista (%s)", money.FormatBRL(r.CashPrice)))
	}
	if !c.Failed[model.FieldPaymentMethod] && !c.Failed[model.FieldInstallmentCount] &&
		v.cash[Fold(r.PaymentMethod)] && r.InstallmentCount > 1 {
		add(model.SeverityError, model.KindCashInstallments, model.FieldInstallmentCount,
			fmt.Sprint(r.InstallmentCount),
			fmt.Sprintf("%s não permite parcelamento", r.PaymentMethod))
	}
	if !c.Failed[model.FieldWarrantyMonths] && r.WarrantyMonths > v.rules.WarrantyMaxMonths {
		add(model.SeverityWarning, model.KindImplausibleWarranty, model.FieldWarrantyMonths,
			fmt.Sprint(r.WarrantyMonths),
			fmt.Sprintf("garantia acima de %d meses", v.rules.WarrantyMaxMonths))
	}
	if !c.Failed[model.FieldValidityDays] && r.ValidityDays > v.rules.ValidityMaxDays {
		add(model.SeverityWarning, model.KindImplausibleValidity, model.FieldValidityDays,
			fmt.Sprint(r.ValidityDays),
			fmt.Sprintf("validade acima de %d dias", v.rules.ValidityMaxDays))
	}

	for _, f := range out {
		if f.Severity == model.SeverityError {
			c.Failed[f.Field] = true
		}
	}
	return out
}

// AnalyzeScale flags a batch whose monetary values mostly look like minor
// units. It returns nil when the batch looks fine.
func (v *RecordValidator) AnalyzeScale(values []decimal.Decimal) *model.Finding {
	if len(values) == 0 {
		return nil
	}
	above := 0
	for _, n := range values {
		if v.rules.Scale.DetectScale(n) == money.MinorUnit {
			above++
		}
	}
	ratio := float64(above) / float64(len(values))
	if ratio <= v.rules.BatchScaleRatio {
		return nil
	}
	return &model.Finding{
		Severity: model.SeverityWarning,
		Kind:     model.KindBatchScaleAnomaly,
		Value:    fmt.Sprintf("%d/%d", above, len(values)),
		Message: fmt.Sprintf("%.0f%% dos valores passam de %s; a planilha pode ter sido preenchida em centavos",
			ratio*100, v.rules.Scale.MinorThreshold.String()),
	}
}

// DuplicateKey identifies a budget by device, service and cash price.
func DuplicateKey(r model.BudgetRecord) string {
	return strings.Join([]string{Fold(r.DeviceType), Fold(r.ServiceDescription), fmt.Sprint(int64(r.CashPrice))}, "|")
}
