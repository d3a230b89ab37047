package unit

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConvertLength(t *testing.T) {
	got, err := ConvertLength(10, LengthInch, LengthCentimeter)
	assert.NoError(t, err)
	assert.InDelta(t, 25.4, got, 1e-9)

	got, err = ConvertLength(25.4, LengthCentimeter, LengthInch)
	assert.NoError(t, err)
	assert.InDelta(t, 10, got, 1e-3)

	got, err = ConvertLength(7.5, LengthInch, LengthInch)
	assert.NoError(t, err)
	assert.Equal(t, 7.5, got)
}

func TestConvertLength_Unsupported(t *testing.T) {
	_, err := ConvertLength(1, LengthUnit("m"), LengthInch)
	assert.ErrorIs(t, err, ErrUnsupportedConversion)

	_, err = ConvertLength(1, LengthUnit("ft"), LengthUnit("ft"))
	assert.ErrorIs(t, err, ErrUnsupportedConversion)
}

func TestConvertWeight(t *testing.T) {
	got, err := ConvertWeight(100, WeightPound, WeightKilogram)
	assert.NoError(t, err)
	assert.InDelta(t, 45.3592, got, 1e-9)

	got, err = ConvertWeight(1, WeightKilogram, WeightPound)
	assert.NoError(t, err)
	assert.InDelta(t, 2.20462, got, 1e-9)

	got, err = ConvertWeight(12, WeightKilogram, WeightKilogram)
	assert.NoError(t, err)
	assert.Equal(t, 12.0, got)
}

func TestConvertWeight_Unsupported(t *testing.T) {
	_, err := ConvertWeight(1, WeightPound, WeightUnit("oz"))
	assert.ErrorIs(t, err, ErrUnsupportedConversion)
}
