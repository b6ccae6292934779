// Package sheet renders budgets and their findings as an XLSX workbook.
package sheet

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/orcafacil/orcafacil/internal/budgetcsv"
	"github.com/orcafacil/orcafacil/internal/model"
)

// Sheet names.
const (
	BudgetsSheet  = "Orçamentos"
	FindingsSheet = "Validação"
)

var findingHeaders = []string{"Linha", "Severidade", "Tipo", "Campo", "Valor", "Mensagem", "Sugestão", "Aplicada"}

// WriteXLSX writes records to the budgets sheet, using the same columns as
// the CSV export, and findings (when non-empty) to a second sheet. Prices are
// numeric cells in reais.
func WriteXLSX(w io.Writer, records []model.BudgetRecord, findings []model.Finding) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", BudgetsSheet); err != nil {
		return fmt.Errorf("naming sheet: %w", err)
	}

	headers := make([]string, len(budgetcsv.Columns))
	for i, c := range budgetcsv.Columns {
		headers[i] = c.Header
	}
	if err := writeHeader(f, BudgetsSheet, headers); err != nil {
		return err
	}

	money, err := f.NewStyle(&excelize.Style{NumFmt: 4})
	if err != nil {
		return fmt.Errorf("creating style: %w", err)
	}
	for i, r := range records {
		if err := setRow(f, BudgetsSheet, i+2, budgetRow(r)); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	if len(records) > 0 {
		// Columns E and F hold prices.
		end := fmt.Sprintf("F%d", len(records)+1)
		if err := f.SetCellStyle(BudgetsSheet, "E2", end, money); err != nil {
			return fmt.Errorf("styling prices: %w", err)
		}
	}

	if len(findings) > 0 {
		if _, err := f.NewSheet(FindingsSheet); err != nil {
			return fmt.Errorf("creating findings sheet: %w", err)
		}
		if err := writeHeader(f, FindingsSheet, findingHeaders); err != nil {
			return err
		}
		for i, fd := range findings {
			if err := setRow(f, FindingsSheet, i+2, findingRow(fd)); err != nil {
				return fmt.Errorf("writing finding %d: %w", i+1, err)
			}
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("writing xlsx: %w", err)
	}
	return nil
}

func writeHeader(f *excelize.File, sheet string, headers []string) error {
	row := make([]any, len(headers))
	for i, h := range headers {
		row[i] = h
	}
	if err := setRow(f, sheet, 1, row); err != nil {
		return fmt.Errorf("writing %s header: %w", sheet, err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("creating style: %w", err)
	}
	last, _ := excelize.CoordinatesToCellName(len(headers), 1)
	if err := f.SetCellStyle(sheet, "A1", last, bold); err != nil {
		return fmt.Errorf("styling %s header: %w", sheet, err)
	}

	for i, h := range headers {
		col, _ := excelize.ColumnNumberToName(i + 1)
		width := float64(len([]rune(h)) + 4)
		if width < 12 {
			width = 12
		}
		if err := f.SetColWidth(sheet, col, col, width); err != nil {
			return fmt.Errorf("sizing %s columns: %w", sheet, err)
		}
	}
	return nil
}

func setRow(f *excelize.File, sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return f.SetSheetRow(sheet, cell, &values)
}

func budgetRow(r model.BudgetRecord) []any {
	return []any{
		r.DeviceType,
		r.ServiceDescription,
		r.Quality,
		r.Notes,
		r.CashPrice.Major().InexactFloat64(),
		r.InstallmentPrice.Major().InexactFloat64(),
		r.InstallmentCount,
		r.PaymentMethod,
		r.WarrantyMonths,
		r.ValidityDays,
		budgetcsv.FormatBool(r.IncludesDelivery),
		budgetcsv.FormatBool(r.IncludesScreenProtector),
	}
}

func findingRow(f model.Finding) []any {
	row := []any{f.Row, string(f.Severity), f.Kind, f.Field, f.Value, f.Message, "", ""}
	if f.Row == 0 {
		row[0] = ""
	}
	if s := f.Suggestion; s != nil {
		row[6] = s.Proposed
		row[7] = budgetcsv.FormatBool(s.Applied)
	}
	return row
}
