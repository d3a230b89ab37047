package calculator

import (
	"context"
	"errors"
	"testing"

	chargeabledomain "github.com/smallbiznis/freightrate/internal/chargeable/domain"
	dimfactordomain "github.com/smallbiznis/freightrate/internal/dimfactor/domain"
	"github.com/smallbiznis/freightrate/internal/unit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type stubResolver struct {
	factor *dimfactordomain.ResolvedDimFactor
	err    error
}

func (s *stubResolver) Resolve(ctx context.Context, key dimfactordomain.LookupKey) (*dimfactordomain.ResolvedDimFactor, error) {
	return s.factor, s.err
}

func newCalculator(t *testing.T, resolver dimfactordomain.Resolver) *Service {
	t.Helper()
	return NewService(ServiceParam{Resolver: resolver, Log: zaptest.NewLogger(t)})
}

func factor166() *dimfactordomain.ResolvedDimFactor {
	return &dimfactordomain.ResolvedDimFactor{
		Factor: 166,
		Unit:   dimfactordomain.UnitIn3PerLb,
		Source: "carrier:ltl/all",
	}
}

func TestCalculateVolumetricBeatsActual(t *testing.T) {
	svc := newCalculator(t, &stubResolver{factor: factor166()})

	// 24x18x12 inches at factor 166 gives 31.228..., rounded up to 31.3.
	result, err := svc.Calculate(context.Background(), dimfactordomain.LookupKey{CarrierID: "day-ross"}, []chargeabledomain.Package{{
		Quantity:      1,
		Length:        24,
		Width:         18,
		Height:        12,
		DimensionUnit: unit.LengthInch,
		Weight:        10,
		WeightUnit:    unit.WeightPound,
	}})
	require.NoError(t, err)

	require.Len(t, result.Packages, 1)
	assert.Equal(t, 31.3, result.Packages[0].ChargeableWeightLb)
	assert.True(t, result.Packages[0].DimApplied)
	assert.Equal(t, 31.3, result.TotalChargeableLb)
	assert.Equal(t, 10.0, result.TotalActualLb)
	assert.True(t, result.DimWeightApplied)
}

func TestCalculateActualBeatsVolumetric(t *testing.T) {
	svc := newCalculator(t, &stubResolver{factor: factor166()})

	result, err := svc.Calculate(context.Background(), dimfactordomain.LookupKey{CarrierID: "day-ross"}, []chargeabledomain.Package{{
		Quantity:      1,
		Length:        10,
		Width:         10,
		Height:        10,
		DimensionUnit: unit.LengthInch,
		Weight:        500,
		WeightUnit:    unit.WeightPound,
	}})
	require.NoError(t, err)

	assert.Equal(t, 500.0, result.TotalChargeableLb)
	assert.False(t, result.DimWeightApplied)
	assert.False(t, result.Packages[0].DimApplied)
}

func TestCalculateMissingDimensionsUsesActualWeight(t *testing.T) {
	svc := newCalculator(t, &stubResolver{factor: factor166()})

	result, err := svc.Calculate(context.Background(), dimfactordomain.LookupKey{CarrierID: "day-ross"}, []chargeabledomain.Package{{
		Quantity:   2,
		Weight:     40,
		WeightUnit: unit.WeightPound,
	}})
	require.NoError(t, err)

	require.Len(t, result.Packages, 1)
	assert.Equal(t, "no dimensions provided", result.Packages[0].Reason)
	assert.Equal(t, 40.0, result.Packages[0].ChargeableWeightLb)
	assert.Equal(t, 80.0, result.TotalChargeableLb)
	assert.False(t, result.DimWeightApplied)
}

func TestCalculateNoFactorUsesActualWeight(t *testing.T) {
	svc := newCalculator(t, &stubResolver{factor: nil})

	result, err := svc.Calculate(context.Background(), dimfactordomain.LookupKey{CarrierID: "unknown"}, []chargeabledomain.Package{{
		Quantity:      1,
		Length:        48,
		Width:         40,
		Height:        40,
		DimensionUnit: unit.LengthInch,
		Weight:        300,
		WeightUnit:    unit.WeightPound,
	}})
	require.NoError(t, err)

	assert.Equal(t, 300.0, result.TotalChargeableLb)
	assert.Equal(t, "no dim factor applicable", result.Packages[0].Reason)
}

func TestCalculateMetricWeightsConvertToPounds(t *testing.T) {
	svc := newCalculator(t, &stubResolver{factor: factor166()})

	result, err := svc.Calculate(context.Background(), dimfactordomain.LookupKey{CarrierID: "day-ross"}, []chargeabledomain.Package{{
		Quantity:   1,
		Weight:     10,
		WeightUnit: unit.WeightKilogram,
	}})
	require.NoError(t, err)

	// 10 kg is 22.0462 lb; ceiling at a tenth gives 22.1.
	assert.Equal(t, 22.1, result.TotalChargeableLb)
}

func TestCalculateCentimeterDimensionsAgainstImperialFactor(t *testing.T) {
	svc := newCalculator(t, &stubResolver{factor: factor166()})

	// 60.96x45.72x30.48 cm is exactly 24x18x12 in.
	result, err := svc.Calculate(context.Background(), dimfactordomain.LookupKey{CarrierID: "day-ross"}, []chargeabledomain.Package{{
		Quantity:      1,
		Length:        60.96,
		Width:         45.72,
		Height:        30.48,
		DimensionUnit: unit.LengthCentimeter,
		Weight:        20,
		WeightUnit:    unit.WeightPound,
	}})
	require.NoError(t, err)
	assert.Equal(t, 31.3, result.Packages[0].ChargeableWeightLb)
}

func TestCalculatePerPackageErrorDoesNotAbortShipment(t *testing.T) {
	svc := newCalculator(t, &stubResolver{factor: factor166()})

	result, err := svc.Calculate(context.Background(), dimfactordomain.LookupKey{CarrierID: "day-ross"}, []chargeabledomain.Package{
		{
			Quantity:      1,
			Length:        24,
			Width:         18,
			Height:        12,
			DimensionUnit: unit.LengthUnit("ft"),
			Weight:        20,
			WeightUnit:    unit.WeightPound,
		},
		{
			Quantity:      1,
			Length:        24,
			Width:         18,
			Height:        12,
			DimensionUnit: unit.LengthInch,
			Weight:        20,
			WeightUnit:    unit.WeightPound,
		},
	})
	require.NoError(t, err)
	require.Len(t, result.Packages, 2)

	// The bad package falls back to its actual weight with the error inline.
	assert.NotEmpty(t, result.Packages[0].Error)
	assert.Equal(t, 20.0, result.Packages[0].ChargeableWeightLb)
	assert.Equal(t, 31.3, result.Packages[1].ChargeableWeightLb)
	assert.Equal(t, 51.3, result.TotalChargeableLb)
}

func TestCalculateQuantityMultipliesTotals(t *testing.T) {
	svc := newCalculator(t, &stubResolver{factor: factor166()})

	result, err := svc.Calculate(context.Background(), dimfactordomain.LookupKey{CarrierID: "day-ross"}, []chargeabledomain.Package{{
		Quantity:      3,
		Length:        24,
		Width:         18,
		Height:        12,
		DimensionUnit: unit.LengthInch,
		Weight:        20,
		WeightUnit:    unit.WeightPound,
	}})
	require.NoError(t, err)

	assert.Equal(t, 60.0, result.TotalActualLb)
	assert.InDelta(t, 93.9, result.TotalChargeableLb, 1e-9)
}

func TestCalculateResolverErrorPropagates(t *testing.T) {
	svc := newCalculator(t, &stubResolver{err: errors.New("factor table offline")})

	_, err := svc.Calculate(context.Background(), dimfactordomain.LookupKey{CarrierID: "day-ross"}, nil)
	require.Error(t, err)
}

func TestRoundUpTenth(t *testing.T) {
	assert.Equal(t, 31.3, roundUpTenth(31.2289))
	assert.Equal(t, 31.3, roundUpTenth(31.3))
	assert.Equal(t, 31.4, roundUpTenth(31.300001))
	assert.Equal(t, 0.0, roundUpTenth(0))
}
