// Package budgetcsv reads and writes the semicolon-delimited budget sheet.
package budgetcsv

import (
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/orcafacil/orcafacil/internal/model"
)

// Header names of the budget sheet.
const (
	HeaderDeviceType         = "Tipo Aparelho"
	HeaderServiceDescription = "Serviço/Aparelho"
	HeaderQuality            = "Qualidade"
	HeaderNotes              = "Observações"
	HeaderCashPrice          = "Preço à vista"
	HeaderInstallmentPrice   = "Preço Parcelado"
	HeaderInstallmentCount   = "Parcelas"
	HeaderPaymentMethod      = "Método de Pagamento"
	HeaderWarrantyMonths     = "Garantia (meses)"
	HeaderValidityDays       = "Validade (dias)"
	HeaderIncludesDelivery   = "Inclui Entrega"
	HeaderScreenProtector    = "Inclui Película"
)

const delimiter = ';'

// Column binds a header to a record field.
type Column struct {
	Header   string
	Field    string
	Required bool
}

// Columns lists the sheet layout in export order.
var Columns = []Column{
	{HeaderDeviceType, model.FieldDeviceType, true},
	{HeaderServiceDescription, model.FieldServiceDescription, true},
	{HeaderQuality, model.FieldQuality, false},
	{HeaderNotes, model.FieldNotes, false},
	{HeaderCashPrice, model.FieldCashPrice, true},
	{HeaderInstallmentPrice, model.FieldInstallmentPrice, true},
	{HeaderInstallmentCount, model.FieldInstallmentCount, true},
	{HeaderPaymentMethod, model.FieldPaymentMethod, true},
	{HeaderWarrantyMonths, model.FieldWarrantyMonths, true},
	{HeaderValidityDays, model.FieldValidityDays, true},
	{HeaderIncludesDelivery, model.FieldIncludesDelivery, true},
	{HeaderScreenProtector, model.FieldIncludesScreenProtector, true},
}

// HeaderFor returns the header name bound to field.
func HeaderFor(field string) string {
	for _, c := range Columns {
		if c.Field == field {
			return c.Header
		}
	}
	return ""
}

// FieldFor returns the field bound to header.
func FieldFor(header string) string {
	for _, c := range Columns {
		if c.Header == header {
			return c.Field
		}
	}
	return ""
}

// HeaderLine is the header row as written by the exporter.
func HeaderLine() string {
	names := make([]string, len(Columns))
	for i, c := range Columns {
		names[i] = c.Header
	}
	return strings.Join(names, string(delimiter))
}

// HeaderMap maps header names to cell indexes. Matching is case-sensitive and
// independent of column order.
type HeaderMap map[string]int

// NewHeaderMap builds a HeaderMap from a header row. The first occurrence of a
// repeated header wins.
func NewHeaderMap(cells []string) HeaderMap {
	m := make(HeaderMap, len(cells))
	for i, c := range cells {
		name := norm.NFC.String(strings.TrimSpace(c))
		if name == "" {
			continue
		}
		if _, seen := m[name]; !seen {
			m[name] = i
		}
	}
	return m
}

// Has reports whether header is present.
func (h HeaderMap) Has(header string) bool {
	_, ok := h[header]
	return ok
}

// Lookup returns the cell for header, or "" when the header or cell is absent.
func (h HeaderMap) Lookup(cells []string, header string) string {
	i, ok := h[header]
	if !ok || i >= len(cells) {
		return ""
	}
	return cells[i]
}

// Missing returns the absent required headers in sheet order.
func (h HeaderMap) Missing() []string {
	var missing []string
	for _, c := range Columns {
		if c.Required && !h.Has(c.Header) {
			missing = append(missing, c.Header)
		}
	}
	return missing
}

// MissingHeaderError names every required header absent from the input.
type MissingHeaderError struct {
	Missing []string
}

func (e *MissingHeaderError) Error() string {
	return fmt.Sprintf("missing required headers: %s", strings.Join(e.Missing, ", "))
}
