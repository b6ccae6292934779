package budgetcsv

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/orcafacil/orcafacil/internal/model"
	"github.com/orcafacil/orcafacil/internal/money"
)

// ExportOptions controls how amounts are written.
type ExportOptions struct {
	// Scale is the converter the importer will apply. Whole amounts it would
	// misread as minor units are written with an explicit ",00".
	Scale money.Converter
}

// DefaultExportOptions matches the importer defaults.
func DefaultExportOptions() ExportOptions {
	return ExportOptions{Scale: money.DefaultConverter()}
}

// Export renders records as sheet text, header included.
func Export(records []model.BudgetRecord, opts ExportOptions) string {
	var b strings.Builder
	_ = Write(&b, records, opts)
	return b.String()
}

// Write writes the header row followed by one line per record.
func Write(w io.Writer, records []model.BudgetRecord, opts ExportOptions) error {
	if _, err := io.WriteString(w, HeaderLine()+"\n"); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for i, r := range records {
		if _, err := io.WriteString(w, joinRow(MarshalRecord(r, opts))+"\n"); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	return nil
}

// MarshalRecord converts a record to cells in Columns order. Text is written
// the way import reads it back: whitespace runs collapse to one space and a
// double quote, which the dialect cannot carry, becomes two apostrophes.
func MarshalRecord(r model.BudgetRecord, opts ExportOptions) []string {
	return []string{
		textCell(r.DeviceType),
		textCell(r.ServiceDescription),
		textCell(r.Quality),
		textCell(r.Notes),
		FormatAmount(r.CashPrice, opts.Scale),
		FormatAmount(r.InstallmentPrice, opts.Scale),
		strconv.Itoa(r.InstallmentCount),
		textCell(r.PaymentMethod),
		strconv.Itoa(r.WarrantyMonths),
		strconv.Itoa(r.ValidityDays),
		FormatBool(r.IncludesDelivery),
		FormatBool(r.IncludesScreenProtector),
	}
}

// FormatAmount writes a minor-unit amount as whole major units ("2589").
// Amounts with centavos keep them ("2589,50") and whole amounts above the
// converter's minor threshold get ",00" so re-import reads them as reais.
func FormatAmount(a model.Amount, scale money.Converter) string {
	major := money.MinorToMajor(a)
	if !major.Equal(major.Truncate(0)) || major.Abs().GreaterThan(scale.MinorThreshold) {
		return money.Format(major, money.FormatOptions{Decimals: 2})
	}
	return money.Format(major, money.FormatOptions{IntegerOnly: true})
}

// FormatBool writes "sim" or "não".
func FormatBool(v bool) string {
	if v {
		return "sim"
	}
	return "não"
}

func textCell(s string) string {
	return strings.Join(strings.Fields(strings.ReplaceAll(s, `"`, "''")), " ")
}

func joinRow(cells []string) string {
	for i, c := range cells {
		if strings.Contains(c, ";") {
			cells[i] = `"` + c + `"`
		}
	}
	return strings.Join(cells, string(delimiter))
}
