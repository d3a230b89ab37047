// Package unit provides pure length and weight conversions between the
// imperial and metric systems used on dimensional-weight factors.
package unit

import (
	"errors"
	"fmt"
)

type LengthUnit string

const (
	LengthInch       LengthUnit = "in"
	LengthCentimeter LengthUnit = "cm"
)

type WeightUnit string

const (
	WeightPound    WeightUnit = "lb"
	WeightKilogram WeightUnit = "kg"
)

const (
	inchesToCentimeters = 2.54
	centimetersToInches = 0.393701
	poundsToKilograms   = 0.453592
	kilogramsToPounds   = 2.20462
)

var ErrUnsupportedConversion = errors.New("unsupported_conversion")

// ConvertLength converts a length value between inches and centimeters.
func ConvertLength(value float64, from, to LengthUnit) (float64, error) {
	if from == to {
		switch from {
		case LengthInch, LengthCentimeter:
			return value, nil
		}
		return 0, fmt.Errorf("%w: length %q", ErrUnsupportedConversion, from)
	}

	switch {
	case from == LengthInch && to == LengthCentimeter:
		return value * inchesToCentimeters, nil
	case from == LengthCentimeter && to == LengthInch:
		return value * centimetersToInches, nil
	default:
		return 0, fmt.Errorf("%w: length %q to %q", ErrUnsupportedConversion, from, to)
	}
}

// ConvertWeight converts a weight value between pounds and kilograms.
func ConvertWeight(value float64, from, to WeightUnit) (float64, error) {
	if from == to {
		switch from {
		case WeightPound, WeightKilogram:
			return value, nil
		}
		return 0, fmt.Errorf("%w: weight %q", ErrUnsupportedConversion, from)
	}

	switch {
	case from == WeightPound && to == WeightKilogram:
		return value * poundsToKilograms, nil
	case from == WeightKilogram && to == WeightPound:
		return value * kilogramsToPounds, nil
	default:
		return 0, fmt.Errorf("%w: weight %q to %q", ErrUnsupportedConversion, from, to)
	}
}
