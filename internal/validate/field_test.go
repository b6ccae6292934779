package validate

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orcafacil/orcafacil/internal/budgetcsv"
	"github.com/orcafacil/orcafacil/internal/model"
	"github.com/orcafacil/orcafacil/internal/money"
)

func validCells() map[string]string {
	return map[string]string{
		budgetcsv.HeaderDeviceType:         "Celular",
		budgetcsv.HeaderServiceDescription: "Troca de tela",
		budgetcsv.HeaderQuality:            "Original",
		budgetcsv.HeaderNotes:              "",
		budgetcsv.HeaderCashPrice:          "450",
		budgetcsv.HeaderInstallmentPrice:   "520",
		budgetcsv.HeaderInstallmentCount:   "3",
		budgetcsv.HeaderPaymentMethod:      "Cartão de Crédito",
		budgetcsv.HeaderWarrantyMonths:     "3",
		budgetcsv.HeaderValidityDays:       "15",
		budgetcsv.HeaderIncludesDelivery:   "sim",
		budgetcsv.HeaderScreenProtector:    "não",
	}
}

// row lays values out in sheet order and returns the cells with a header map.
func row(values map[string]string) ([]string, budgetcsv.HeaderMap) {
	headers := make([]string, 0, len(budgetcsv.Columns))
	cells := make([]string, 0, len(budgetcsv.Columns))
	for _, c := range budgetcsv.Columns {
		headers = append(headers, c.Header)
		cells = append(cells, values[c.Header])
	}
	return cells, budgetcsv.NewHeaderMap(headers)
}

func validateWith(t *testing.T, rules Rules, override map[string]string) Candidate {
	t.Helper()
	values := validCells()
	for k, v := range override {
		values[k] = v
	}
	cells, header := row(values)
	return NewFieldValidator(rules).ValidateRow(cells, header, 2)
}

func kinds(findings []model.Finding) []string {
	out := make([]string, 0, len(findings))
	for _, f := range findings {
		out = append(out, string(f.Severity)+":"+f.Kind)
	}
	return out
}

func TestValidateRowValid(t *testing.T) {
	c := validateWith(t, DefaultRules(), nil)

	assert.Empty(t, c.Findings)
	assert.False(t, c.HasErrors())
	assert.Equal(t, model.BudgetRecord{
		DeviceType:              "Celular",
		ServiceDescription:      "Troca de tela",
		Quality:                 "Original",
		CashPrice:               45000,
		InstallmentPrice:        52000,
		InstallmentCount:        3,
		PaymentMethod:           "Cartão de Crédito",
		WarrantyMonths:          3,
		ValidityDays:            15,
		IncludesDelivery:        true,
		IncludesScreenProtector: false,
	}, c.Record)
	assert.Len(t, c.RawAmounts, 2)
}

func TestValidateRowRequired(t *testing.T) {
	c := validateWith(t, DefaultRules(), map[string]string{budgetcsv.HeaderDeviceType: "  "})

	require.Len(t, c.Findings, 1)
	f := c.Findings[0]
	assert.Equal(t, model.SeverityError, f.Severity)
	assert.Equal(t, model.KindRequired, f.Kind)
	assert.Equal(t, model.FieldDeviceType, f.Field)
	assert.Equal(t, 2, f.Row)
	assert.True(t, c.HasErrors())
	assert.Equal(t, "", c.Record.DeviceType)
}

func TestValidateRowOptionalFieldsMayBeEmpty(t *testing.T) {
	c := validateWith(t, DefaultRules(), map[string]string{budgetcsv.HeaderQuality: ""})
	assert.Empty(t, c.Findings)
	assert.Equal(t, "", c.Record.Quality)
}

func TestValidateRowCollapsesWhitespace(t *testing.T) {
	c := validateWith(t, DefaultRules(), map[string]string{
		budgetcsv.HeaderServiceDescription: " Troca   de\nbateria ",
	})
	assert.Equal(t, "Troca de bateria", c.Record.ServiceDescription)
}

func TestValidateRowNumbers(t *testing.T) {
	tests := []struct {
		name  string
		cells map[string]string
		want  []string
	}{
		{"not numeric", map[string]string{budgetcsv.HeaderCashPrice: "quatrocentos"}, []string{"error:invalid_number"}},
		{"negative price", map[string]string{budgetcsv.HeaderCashPrice: "-450"}, []string{"error:out_of_range"}},
		{"zero price", map[string]string{budgetcsv.HeaderCashPrice: "0"}, []string{"warning:zero_price"}},
		{"fractional count", map[string]string{budgetcsv.HeaderInstallmentCount: "2,5"}, []string{"error:invalid_integer"}},
		{"zero count", map[string]string{budgetcsv.HeaderInstallmentCount: "0"}, []string{"error:out_of_range"}},
		{"negative warranty", map[string]string{budgetcsv.HeaderWarrantyMonths: "-1"}, []string{"error:out_of_range"}},
		{"empty validity", map[string]string{budgetcsv.HeaderValidityDays: ""}, []string{"error:required"}},
		{"count beyond int range", map[string]string{budgetcsv.HeaderInstallmentCount: "18446744073709551617"}, []string{"error:out_of_range"}},
		{"huge negative warranty", map[string]string{budgetcsv.HeaderWarrantyMonths: "-18446744073709551615"}, []string{"error:out_of_range"}},
		{"prices beyond amount range", map[string]string{
			budgetcsv.HeaderCashPrice:        "92233720368547758,08",
			budgetcsv.HeaderInstallmentPrice: "92233720368547758,09",
		}, []string{"error:out_of_range", "error:out_of_range"}},
		{"bare price beyond amount range", map[string]string{budgetcsv.HeaderInstallmentPrice: "9223372036854775808"}, []string{"error:out_of_range"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validateWith(t, DefaultRules(), tt.cells)
			assert.Equal(t, tt.want, kinds(c.Findings))
		})
	}
}

func TestValidateRowLargestAmount(t *testing.T) {
	c := validateWith(t, DefaultRules(), map[string]string{
		budgetcsv.HeaderCashPrice:        "92233720368547758,07",
		budgetcsv.HeaderInstallmentPrice: "92233720368547758,07",
	})
	require.False(t, c.HasErrors(), "%v", kinds(c.Findings))
	assert.Equal(t, model.Amount(math.MaxInt64), c.Record.CashPrice)
}

func TestValidateRowMinorSourceAmountRange(t *testing.T) {
	rules := DefaultRules()
	rules.SourceScale = money.MinorUnit
	c := validateWith(t, rules, map[string]string{
		budgetcsv.HeaderCashPrice:        "9223372036854775807",
		budgetcsv.HeaderInstallmentPrice: "9223372036854775808",
	})
	assert.Equal(t, []string{"error:out_of_range"}, kinds(c.Findings))
	assert.Equal(t, model.Amount(math.MaxInt64), c.Record.CashPrice)
	assert.True(t, c.Failed[model.FieldInstallmentPrice])
}

func TestValidateRowParsesLocaleAmounts(t *testing.T) {
	c := validateWith(t, DefaultRules(), map[string]string{
		budgetcsv.HeaderCashPrice:        "R$ 1.200,50",
		budgetcsv.HeaderInstallmentPrice: "1,380.00",
	})
	assert.Empty(t, c.Findings)
	assert.Equal(t, model.Amount(120050), c.Record.CashPrice)
	assert.Equal(t, model.Amount(138000), c.Record.InstallmentPrice)
}

func TestValidateRowBooleans(t *testing.T) {
	for token, want := range map[string]bool{
		"sim": true, "SIM": true, "Yes": true, "true": true,
		"não": false, "NÃO": false, "nao": false, "no": false, "False": false,
	} {
		c := validateWith(t, DefaultRules(), map[string]string{budgetcsv.HeaderIncludesDelivery: token})
		assert.Empty(t, c.Findings, token)
		assert.Equal(t, want, c.Record.IncludesDelivery, token)
	}

	c := validateWith(t, DefaultRules(), map[string]string{budgetcsv.HeaderIncludesDelivery: "talvez"})
	assert.Equal(t, []string{"error:invalid_boolean"}, kinds(c.Findings))
}

func TestValidateRowScaleCorrection(t *testing.T) {
	override := map[string]string{
		budgetcsv.HeaderCashPrice:        "45000",
		budgetcsv.HeaderInstallmentPrice: "520",
	}

	t.Run("standard applies", func(t *testing.T) {
		c := validateWith(t, DefaultRules(), override)
		assert.Equal(t, []string{"warning:scale_correction", "suggestion:scale_correction"}, kinds(c.Findings))
		assert.Equal(t, model.Amount(45000), c.Record.CashPrice)

		s := c.Findings[1].Suggestion
		require.NotNil(t, s)
		assert.Equal(t, "45000", s.Original)
		assert.Equal(t, "450", s.Proposed)
		assert.Equal(t, model.ConfidenceMedium, s.Confidence)
		assert.True(t, s.AutoApplicable)
		assert.True(t, s.Applied)
	})

	t.Run("strict rejects", func(t *testing.T) {
		rules := DefaultRules()
		rules.Strictness = StrictnessStrict
		c := validateWith(t, rules, override)
		assert.Equal(t, []string{"error:scale_correction", "suggestion:scale_correction"}, kinds(c.Findings))
		assert.True(t, c.Failed[model.FieldCashPrice])
		assert.False(t, c.Findings[1].Suggestion.Applied)
	})

	t.Run("explicit decimals are taken as typed", func(t *testing.T) {
		c := validateWith(t, DefaultRules(), map[string]string{
			budgetcsv.HeaderCashPrice:        "12000,00",
			budgetcsv.HeaderInstallmentPrice: "13000,00",
		})
		assert.Empty(t, c.Findings)
		assert.Equal(t, model.Amount(1200000), c.Record.CashPrice)
	})
}

func TestValidateRowMinorSourceScale(t *testing.T) {
	rules := DefaultRules()
	rules.SourceScale = money.MinorUnit

	c := validateWith(t, rules, map[string]string{
		budgetcsv.HeaderCashPrice:        "45000",
		budgetcsv.HeaderInstallmentPrice: "52000",
	})
	assert.Empty(t, c.Findings)
	assert.Equal(t, model.Amount(45000), c.Record.CashPrice)

	t.Run("small values stay in centavos unless lenient", func(t *testing.T) {
		c := validateWith(t, rules, map[string]string{
			budgetcsv.HeaderCashPrice:        "45",
			budgetcsv.HeaderInstallmentPrice: "52000",
		})
		assert.Equal(t, []string{"warning:scale_correction", "suggestion:scale_correction"}, kinds(c.Findings))
		s := c.Findings[1].Suggestion
		assert.Equal(t, model.ConfidenceLow, s.Confidence)
		assert.False(t, s.AutoApplicable)
		assert.False(t, s.Applied)
		assert.Equal(t, model.Amount(45), c.Record.CashPrice)
	})

	t.Run("lenient reads small values as reais", func(t *testing.T) {
		lenient := rules
		lenient.Strictness = StrictnessLenient
		c := validateWith(t, lenient, map[string]string{
			budgetcsv.HeaderCashPrice:        "45",
			budgetcsv.HeaderInstallmentPrice: "52000",
		})
		assert.True(t, c.Findings[1].Suggestion.Applied)
		assert.Equal(t, model.Amount(4500), c.Record.CashPrice)
	})
}

func TestValidateRowCategories(t *testing.T) {
	t.Run("payment method without accents is auto applied", func(t *testing.T) {
		c := validateWith(t, DefaultRules(), map[string]string{budgetcsv.HeaderPaymentMethod: "Cartao de Credito"})

		assert.Equal(t, []string{"warning:unknown_category", "suggestion:category_suggestion"}, kinds(c.Findings))
		s := c.Findings[1].Suggestion
		require.NotNil(t, s)
		assert.Equal(t, "Cartão de Crédito", s.Proposed)
		assert.Equal(t, model.ConfidenceHigh, s.Confidence)
		assert.True(t, s.AutoApplicable)
		assert.True(t, s.Applied)
		assert.Equal(t, "Cartão de Crédito", c.Record.PaymentMethod)
		assert.False(t, c.HasErrors())
	})

	t.Run("device type suggestion is never auto applicable", func(t *testing.T) {
		c := validateWith(t, DefaultRules(), map[string]string{budgetcsv.HeaderDeviceType: "Celuar"})

		require.Len(t, c.Findings, 2)
		s := c.Findings[1].Suggestion
		assert.Equal(t, "Celular", s.Proposed)
		assert.Equal(t, model.ConfidenceHigh, s.Confidence)
		assert.False(t, s.AutoApplicable)
		assert.False(t, s.Applied)
		assert.Equal(t, "Celuar", c.Record.DeviceType)
	})

	t.Run("lenient applies medium confidence", func(t *testing.T) {
		rules := DefaultRules()
		rules.Strictness = StrictnessLenient
		c := validateWith(t, rules, map[string]string{budgetcsv.HeaderPaymentMethod: "Dinhiero"})

		s := c.Findings[1].Suggestion
		assert.Equal(t, model.ConfidenceMedium, s.Confidence)
		assert.True(t, s.Applied)
		assert.Equal(t, "Dinheiro", c.Record.PaymentMethod)
	})

	t.Run("unknown value is only a warning", func(t *testing.T) {
		c := validateWith(t, DefaultRules(), map[string]string{budgetcsv.HeaderPaymentMethod: "Permuta"})
		assert.Equal(t, []string{"warning:unknown_category"}, kinds(c.Findings))
		assert.Nil(t, c.Findings[0].Suggestion)
		assert.Equal(t, "Permuta", c.Record.PaymentMethod)
	})

	t.Run("empty reference list disables matching", func(t *testing.T) {
		rules := DefaultRules()
		rules.DeviceTypes = nil
		c := validateWith(t, rules, map[string]string{budgetcsv.HeaderDeviceType: "Drone"})
		assert.Empty(t, c.Findings)
	})
}
