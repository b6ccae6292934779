package model

import (
	"strconv"

	"github.com/shopspring/decimal"
)

// Amount is a monetary value in minor units (centavos).
type Amount int64

var hundred = decimal.NewFromInt(100)

// Major returns the exact value in major units (reais).
func (a Amount) Major() decimal.Decimal {
	return decimal.NewFromInt(int64(a)).Div(hundred)
}

// String returns the amount in minor units.
func (a Amount) String() string {
	return strconv.FormatInt(int64(a), 10)
}

// BudgetRecord is one validated quote row. Prices are in minor units.
// Quality and Notes are optional; an empty string means absent.
type BudgetRecord struct {
	DeviceType              string `json:"device_type"`
	ServiceDescription      string `json:"service_description"`
	Quality                 string `json:"quality,omitempty"`
	Notes                   string `json:"notes,omitempty"`
	CashPrice               Amount `json:"cash_price"`
	InstallmentPrice        Amount `json:"installment_price"`
	InstallmentCount        int    `json:"installment_count"`
	PaymentMethod           string `json:"payment_method"`
	WarrantyMonths          int    `json:"warranty_months"`
	ValidityDays            int    `json:"validity_days"`
	IncludesDelivery        bool   `json:"includes_delivery"`
	IncludesScreenProtector bool   `json:"includes_screen_protector"`
}

// WithPaymentMethod returns a copy of r using method.
func (r BudgetRecord) WithPaymentMethod(method string) BudgetRecord {
	r.PaymentMethod = method
	return r
}

// WithDeviceType returns a copy of r using deviceType.
func (r BudgetRecord) WithDeviceType(deviceType string) BudgetRecord {
	r.DeviceType = deviceType
	return r
}
