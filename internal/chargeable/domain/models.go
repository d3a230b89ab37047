// Package domain contains the chargeable-weight models. Chargeable weight is
// the greater of actual and volumetric weight, rounded up to a tenth, and is
// the figure every downstream rate lookup prices against.
package domain

import (
	"github.com/smallbiznis/freightrate/internal/unit"
)

// Package is one line of a shipment as the shipper declared it.
type Package struct {
	Description   string          `json:"description,omitempty"`
	Quantity      int             `json:"quantity"`
	Length        float64         `json:"length,omitempty"`
	Width         float64         `json:"width,omitempty"`
	Height        float64         `json:"height,omitempty"`
	DimensionUnit unit.LengthUnit `json:"dimension_unit,omitempty"`
	Weight        float64         `json:"weight"`
	WeightUnit    unit.WeightUnit `json:"weight_unit"`
}

// HasDimensions reports whether all three dimensions were declared.
func (p Package) HasDimensions() bool {
	return p.Length > 0 && p.Width > 0 && p.Height > 0
}

// PackageWeight is the per-package calculation record. Weights are per unit
// of quantity, expressed in pounds.
type PackageWeight struct {
	ActualWeightLb     float64 `json:"actual_weight_lb"`
	VolumetricWeightLb float64 `json:"volumetric_weight_lb,omitempty"`
	ChargeableWeightLb float64 `json:"chargeable_weight_lb"`
	Quantity           int     `json:"quantity"`
	DimApplied         bool    `json:"dim_applied"`
	Reason             string  `json:"reason,omitempty"`
	Error              string  `json:"error,omitempty"`
}

// ShipmentWeight aggregates every package times its quantity. Totals are in
// pounds regardless of the units each package was declared in.
type ShipmentWeight struct {
	TotalActualLb     float64         `json:"total_actual_lb"`
	TotalVolumetricLb float64         `json:"total_volumetric_lb"`
	TotalChargeableLb float64         `json:"total_chargeable_lb"`
	DimWeightApplied  bool            `json:"dim_weight_applied"`
	Packages          []PackageWeight `json:"packages"`
}
