// Package domain contains the dimensional-weight factor models. A DimFactor
// tells the chargeable-weight calculator how many cubic length units equal
// one weight unit for a carrier, optionally narrowed by service type and
// zone, and optionally overridden per customer.
package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/freightrate/internal/unit"
)

// Wildcard matches any service type or zone on a factor record.
const Wildcard = "all"

// VolumetricUnit encodes the cubed length unit and the weight unit a DIM
// factor divides into.
type VolumetricUnit string

const (
	UnitIn3PerLb VolumetricUnit = "in3_per_lb"
	UnitIn3PerKg VolumetricUnit = "in3_per_kg"
	UnitCm3PerLb VolumetricUnit = "cm3_per_lb"
	UnitCm3PerKg VolumetricUnit = "cm3_per_kg"
)

// ParseVolumetricUnit normalizes the stored encoding plus the legacy
// superscript forms still present in older carrier uploads.
func ParseVolumetricUnit(s string) (VolumetricUnit, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "in3_per_lb", "in³/lb", "in3/lb":
		return UnitIn3PerLb, nil
	case "in3_per_kg", "in³/kg", "in3/kg":
		return UnitIn3PerKg, nil
	case "cm3_per_lb", "cm³/lb", "cm3/lb":
		return UnitCm3PerLb, nil
	case "cm3_per_kg", "cm³/kg", "cm3/kg":
		return UnitCm3PerKg, nil
	default:
		return "", fmt.Errorf("%w: volumetric %q", unit.ErrUnsupportedConversion, s)
	}
}

func (u VolumetricUnit) LengthUnit() unit.LengthUnit {
	switch u {
	case UnitCm3PerLb, UnitCm3PerKg:
		return unit.LengthCentimeter
	default:
		return unit.LengthInch
	}
}

func (u VolumetricUnit) WeightUnit() unit.WeightUnit {
	switch u {
	case UnitIn3PerKg, UnitCm3PerKg:
		return unit.WeightKilogram
	default:
		return unit.WeightPound
	}
}

// DimFactor is a carrier-level dimensional-weight rule.
type DimFactor struct {
	ID            snowflake.ID   `json:"id" gorm:"primaryKey"`
	CarrierID     string         `json:"carrier_id" gorm:"type:text;not null;index"`
	ServiceType   string         `json:"service_type" gorm:"type:text;not null;default:all"`
	Zone          string         `json:"zone" gorm:"type:text;not null;default:all"`
	Factor        float64        `json:"factor" gorm:"not null"`
	Unit          VolumetricUnit `json:"unit" gorm:"type:text;not null"`
	EffectiveDate time.Time      `json:"effective_date" gorm:"not null;index"`
	ExpiryDate    *time.Time     `json:"expiry_date,omitempty"`
	IsActive      bool           `json:"is_active" gorm:"not null;default:true"`
	CreatedAt     time.Time      `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt     time.Time      `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (DimFactor) TableName() string { return "dim_factors" }

// Applicable reports whether the factor is live at the given instant.
func (f DimFactor) Applicable(now time.Time) bool {
	if !f.IsActive || f.Factor <= 0 {
		return false
	}
	if f.EffectiveDate.After(now) {
		return false
	}
	if f.ExpiryDate != nil && !f.ExpiryDate.After(now) {
		return false
	}
	return true
}

// CustomerDimFactorOverride outranks every carrier-level rule for its
// customer. Null or "all" service type and zone act as wildcards.
type CustomerDimFactorOverride struct {
	ID          snowflake.ID   `json:"id" gorm:"primaryKey"`
	CustomerID  string         `json:"customer_id" gorm:"type:text;not null;index"`
	CarrierID   string         `json:"carrier_id" gorm:"type:text;not null;index"`
	ServiceType *string        `json:"service_type,omitempty" gorm:"type:text"`
	Zone        *string        `json:"zone,omitempty" gorm:"type:text"`
	Factor      float64        `json:"factor" gorm:"not null"`
	Unit        VolumetricUnit `json:"unit" gorm:"type:text;not null"`
	ExpiryDate  *time.Time     `json:"expiry_date,omitempty"`
	IsActive    bool           `json:"is_active" gorm:"not null;default:true"`
	CreatedAt   time.Time      `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt   time.Time      `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (CustomerDimFactorOverride) TableName() string { return "customer_dim_factor_overrides" }

// Matches reports whether the override covers the requested service type and
// zone and is live at the given instant.
func (o CustomerDimFactorOverride) Matches(serviceType, zone string, now time.Time) bool {
	if !o.IsActive || o.Factor <= 0 {
		return false
	}
	if o.ExpiryDate != nil && !o.ExpiryDate.After(now) {
		return false
	}
	return wildcardMatch(o.ServiceType, serviceType) && wildcardMatch(o.Zone, zone)
}

func wildcardMatch(rule *string, requested string) bool {
	if rule == nil || *rule == "" || *rule == Wildcard {
		return true
	}
	return strings.EqualFold(*rule, requested)
}

// ResolvedDimFactor is the waterfall output handed to the chargeable-weight
// calculator, with the source recorded for the calculation trace.
type ResolvedDimFactor struct {
	Factor float64        `json:"factor"`
	Unit   VolumetricUnit `json:"unit"`
	Source string         `json:"source"`
}
