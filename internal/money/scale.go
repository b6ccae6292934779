package money

import (
	"math"

	"github.com/shopspring/decimal"

	"github.com/orcafacil/orcafacil/internal/model"
)

// Scale says whether a number is in major or minor units.
type Scale int

const (
	MajorUnit Scale = iota
	MinorUnit
)

func (s Scale) String() string {
	if s == MinorUnit {
		return "minor"
	}
	return "major"
}

// Default heuristic bounds.
const (
	DefaultMinorThreshold = 10000
	DefaultMajorFloor     = 100
)

var hundred = decimal.NewFromInt(100)

// Largest inputs whose minor units still fit an Amount. Callers check them
// before converting; the conversions do not.
var (
	MaxMinor = decimal.NewFromInt(math.MaxInt64)
	MaxMajor = decimal.New(math.MaxInt64, -2)
)

// Conversion describes how a value was interpreted. Adjusted is set when the
// heuristic overrode the requested conversion.
type Conversion struct {
	Input      decimal.Decimal
	Presumed   Scale
	Adjusted   bool
	Confidence model.Confidence
}

// Converter applies the scale heuristics.
type Converter struct {
	// MinorThreshold: values strictly above it are presumed to be minor units.
	MinorThreshold decimal.Decimal
	// MajorFloor: during minor->major conversion, values below it are presumed
	// to already be major units.
	MajorFloor decimal.Decimal
}

// NewConverter returns a Converter with the given bounds.
func NewConverter(minorThreshold, majorFloor int64) Converter {
	return Converter{
		MinorThreshold: decimal.NewFromInt(minorThreshold),
		MajorFloor:     decimal.NewFromInt(majorFloor),
	}
}

// DefaultConverter uses DefaultMinorThreshold and DefaultMajorFloor.
func DefaultConverter() Converter {
	return NewConverter(DefaultMinorThreshold, DefaultMajorFloor)
}

// DetectScale guesses the scale of a bare value.
func (c Converter) DetectScale(n decimal.Decimal) Scale {
	if n.Abs().GreaterThan(c.MinorThreshold) {
		return MinorUnit
	}
	return MajorUnit
}

// ToMinorUnits converts a major-unit value to minor units. A value that already
// looks like minor units is passed through (rounded to an integer).
func (c Converter) ToMinorUnits(n decimal.Decimal) (model.Amount, Conversion) {
	if c.DetectScale(n) == MinorUnit {
		return model.Amount(n.Round(0).IntPart()), Conversion{
			Input:      n,
			Presumed:   MinorUnit,
			Adjusted:   true,
			Confidence: model.ConfidenceMedium,
		}
	}
	return MajorToMinor(n), Conversion{Input: n, Presumed: MajorUnit, Confidence: model.ConfidenceHigh}
}

// ToMajorUnits converts a minor-unit value to major units without rounding.
// A non-zero value below MajorFloor is presumed to already be in major units;
// that presumption is low confidence.
func (c Converter) ToMajorUnits(n decimal.Decimal) (decimal.Decimal, Conversion) {
	if !n.IsZero() && n.Abs().LessThan(c.MajorFloor) {
		return n, Conversion{
			Input:      n,
			Presumed:   MajorUnit,
			Adjusted:   true,
			Confidence: model.ConfidenceLow,
		}
	}
	return n.Div(hundred), Conversion{Input: n, Presumed: MinorUnit, Confidence: model.ConfidenceHigh}
}

// MajorToMinor multiplies by 100 and rounds half away from zero.
func MajorToMinor(n decimal.Decimal) model.Amount {
	return model.Amount(n.Mul(hundred).Round(0).IntPart())
}

// MinorToMajor is exact.
func MinorToMajor(a model.Amount) decimal.Decimal {
	return a.Major()
}
