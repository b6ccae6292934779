package model

import "fmt"

// Severity classifies a Finding.
type Severity string

const (
	SeverityError      Severity = "error"
	SeverityWarning    Severity = "warning"
	SeveritySuggestion Severity = "suggestion"
)

// Confidence tiers a proposed correction.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// Finding kinds.
const (
	KindEmptyInput           = "empty_input"
	KindMissingHeader        = "missing_header"
	KindRequired             = "required"
	KindInvalidNumber        = "invalid_number"
	KindInvalidInteger       = "invalid_integer"
	KindInvalidBoolean       = "invalid_boolean"
	KindOutOfRange           = "out_of_range"
	KindZeroPrice            = "zero_price"
	KindUnknownCategory      = "unknown_category"
	KindCategorySuggestion   = "category_suggestion"
	KindScaleCorrection      = "scale_correction"
	KindInstallmentBelowCash = "installment_below_cash"
	KindCashInstallments     = "cash_installments"
	KindImplausibleWarranty  = "implausible_warranty"
	KindImplausibleValidity  = "implausible_validity"
	KindDuplicate            = "duplicate"
	KindBatchScaleAnomaly    = "batch_scale_anomaly"
)

// Field names used in findings.
const (
	FieldDeviceType              = "device_type"
	FieldServiceDescription      = "service_description"
	FieldQuality                 = "quality"
	FieldNotes                   = "notes"
	FieldCashPrice               = "cash_price"
	FieldInstallmentPrice        = "installment_price"
	FieldInstallmentCount        = "installment_count"
	FieldPaymentMethod           = "payment_method"
	FieldWarrantyMonths          = "warranty_months"
	FieldValidityDays            = "validity_days"
	FieldIncludesDelivery        = "includes_delivery"
	FieldIncludesScreenProtector = "includes_screen_protector"
)

// Suggestion is a proposed correction. Original is kept so the change can be
// audited or undone.
type Suggestion struct {
	Original       string     `json:"original"`
	Proposed       string     `json:"proposed"`
	Confidence     Confidence `json:"confidence"`
	AutoApplicable bool       `json:"auto_applicable"`
	Applied        bool       `json:"applied"`
}

// Finding is one reported issue attached to a row and field.
// Row 0 means the finding belongs to the header or the whole batch.
type Finding struct {
	Severity   Severity    `json:"severity"`
	Kind       string      `json:"kind"`
	Row        int         `json:"row"`
	Field      string      `json:"field,omitempty"`
	Message    string      `json:"message"`
	Value      string      `json:"value,omitempty"`
	Suggestion *Suggestion `json:"suggestion,omitempty"`
}

func (f Finding) String() string {
	if f.Row == 0 {
		return fmt.Sprintf("%s [%s] %s", f.Severity, f.Kind, f.Message)
	}
	return fmt.Sprintf("%s [%s] row %d %s: %s", f.Severity, f.Kind, f.Row, f.Field, f.Message)
}
