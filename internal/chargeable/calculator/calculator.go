// Package calculator computes chargeable weight per package and aggregates
// shipment totals in pounds.
package calculator

import (
	"context"
	"math"

	chargeabledomain "github.com/smallbiznis/freightrate/internal/chargeable/domain"
	dimfactordomain "github.com/smallbiznis/freightrate/internal/dimfactor/domain"
	"github.com/smallbiznis/freightrate/internal/observability/metrics"
	"github.com/smallbiznis/freightrate/internal/unit"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const reasonNoDimensions = "no dimensions provided"

type Service struct {
	resolver dimfactordomain.Resolver
	metrics  *metrics.Metrics
	log      *zap.Logger
}

type ServiceParam struct {
	fx.In

	Resolver dimfactordomain.Resolver
	Metrics  *metrics.Metrics
	Log      *zap.Logger
}

func NewService(p ServiceParam) *Service {
	return &Service{
		resolver: p.Resolver,
		metrics:  p.Metrics,
		log:      p.Log.Named("chargeable.calculator"),
	}
}

// Calculate resolves the applicable DIM factor for the lookup key and folds
// every package into shipment totals. Per-package failures fall back to that
// package's actual weight and never abort the shipment.
func (s *Service) Calculate(ctx context.Context, key dimfactordomain.LookupKey, packages []chargeabledomain.Package) (chargeabledomain.ShipmentWeight, error) {
	factor, err := s.resolver.Resolve(ctx, key)
	if err != nil {
		return chargeabledomain.ShipmentWeight{}, err
	}
	return s.CalculateWithFactor(ctx, factor, packages), nil
}

// CalculateWithFactor runs the aggregation against an already resolved
// factor. A nil factor rates every package on actual weight.
func (s *Service) CalculateWithFactor(ctx context.Context, factor *dimfactordomain.ResolvedDimFactor, packages []chargeabledomain.Package) chargeabledomain.ShipmentWeight {
	result := chargeabledomain.ShipmentWeight{
		Packages: make([]chargeabledomain.PackageWeight, 0, len(packages)),
	}

	for _, pkg := range packages {
		record := s.calculatePackage(factor, pkg)
		result.Packages = append(result.Packages, record)

		quantity := float64(record.Quantity)
		result.TotalActualLb += record.ActualWeightLb * quantity
		result.TotalVolumetricLb += record.VolumetricWeightLb * quantity
		result.TotalChargeableLb += record.ChargeableWeightLb * quantity
	}

	result.TotalActualLb = roundUpTenth(result.TotalActualLb)
	result.TotalVolumetricLb = roundUpTenth(result.TotalVolumetricLb)
	result.TotalChargeableLb = roundUpTenth(result.TotalChargeableLb)
	result.DimWeightApplied = result.TotalChargeableLb > result.TotalActualLb

	basis := "actual"
	if result.DimWeightApplied {
		basis = "volumetric"
	}
	s.metrics.RecordWeightCalc(ctx, basis)
	return result
}

func (s *Service) calculatePackage(factor *dimfactordomain.ResolvedDimFactor, pkg chargeabledomain.Package) chargeabledomain.PackageWeight {
	record := chargeabledomain.PackageWeight{Quantity: pkg.Quantity}
	if record.Quantity <= 0 {
		record.Quantity = 1
	}

	actualLb, err := unit.ConvertWeight(pkg.Weight, pkg.WeightUnit, unit.WeightPound)
	if err != nil {
		// Without a usable weight unit the declared number is the best
		// figure available. Record the failure and move on.
		s.log.Warn("package weight conversion failed", zap.Error(err))
		record.Error = err.Error()
		record.ActualWeightLb = pkg.Weight
		record.ChargeableWeightLb = roundUpTenth(pkg.Weight)
		record.Reason = "weight unit fallback"
		return record
	}
	record.ActualWeightLb = actualLb

	if factor == nil {
		record.ChargeableWeightLb = roundUpTenth(actualLb)
		record.Reason = "no dim factor applicable"
		return record
	}
	if !pkg.HasDimensions() {
		record.ChargeableWeightLb = roundUpTenth(actualLb)
		record.Reason = reasonNoDimensions
		return record
	}

	volumetricLb, err := volumetricWeightLb(factor, pkg)
	if err != nil {
		s.log.Warn("package volumetric calculation failed", zap.Error(err))
		record.Error = err.Error()
		record.ChargeableWeightLb = roundUpTenth(actualLb)
		record.Reason = "volumetric fallback to actual weight"
		return record
	}
	record.VolumetricWeightLb = volumetricLb

	chargeable := math.Max(actualLb, volumetricLb)
	record.ChargeableWeightLb = roundUpTenth(chargeable)
	record.DimApplied = record.ChargeableWeightLb > roundUpTenth(actualLb)
	return record
}

// volumetricWeightLb converts the package dimensions into the factor's
// length unit, divides the volume by the factor, then converts the result
// back to pounds.
func volumetricWeightLb(factor *dimfactordomain.ResolvedDimFactor, pkg chargeabledomain.Package) (float64, error) {
	lengthUnit := factor.Unit.LengthUnit()

	length, err := unit.ConvertLength(pkg.Length, pkg.DimensionUnit, lengthUnit)
	if err != nil {
		return 0, err
	}
	width, err := unit.ConvertLength(pkg.Width, pkg.DimensionUnit, lengthUnit)
	if err != nil {
		return 0, err
	}
	height, err := unit.ConvertLength(pkg.Height, pkg.DimensionUnit, lengthUnit)
	if err != nil {
		return 0, err
	}

	volumetric := (length * width * height) / factor.Factor
	return unit.ConvertWeight(volumetric, factor.Unit.WeightUnit(), unit.WeightPound)
}

// roundUpTenth rounds up at 0.1 granularity. Billing convention; never
// change to nearest or floor. The epsilon absorbs float artifacts so values
// already on a tenth boundary do not jump a step.
func roundUpTenth(v float64) float64 {
	return math.Ceil(v*10-1e-9) / 10
}
