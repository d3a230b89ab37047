// Package domain contains the carrier rate-card models. A rate card belongs
// to one carrier and owns route entries priced either per skid count or per
// hundredweight band.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

type RateType string

const (
	RateTypeSkidBased   RateType = "skid_based"
	RateTypeWeightBased RateType = "weight_based"
)

// RateCard is one carrier's simple rate sheet.
type RateCard struct {
	ID          snowflake.ID `json:"id" gorm:"primaryKey"`
	CarrierID   string       `json:"carrier_id" gorm:"type:text;not null;index"`
	Name        string       `json:"name,omitempty" gorm:"type:text"`
	CarrierName string       `json:"carrier_name,omitempty" gorm:"type:text"`
	Currency    string       `json:"currency" gorm:"type:char(3);not null;default:CAD"`
	IsActive    bool         `json:"is_active" gorm:"not null;default:true"`
	CreatedAt   time.Time    `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt   time.Time    `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (RateCard) TableName() string { return "simple_carrier_rates" }

// EffectiveCarrierName resolves the display name through the card's field
// precedence: carrier_name, then name, then the raw carrier id.
func (c RateCard) EffectiveCarrierName() string {
	if c.CarrierName != "" {
		return c.CarrierName
	}
	if c.Name != "" {
		return c.Name
	}
	return c.CarrierID
}

// RateCardEntry encodes one route and its pricing. Skid-based entries carry
// a flat price per skid count keyed "1" through "26"; weight-based entries
// carry a per-hundredweight rate over a weight band.
type RateCardEntry struct {
	ID         snowflake.ID `json:"id" gorm:"primaryKey"`
	RateCardID snowflake.ID `json:"rate_card_id" gorm:"not null;index"`
	CarrierID  string       `json:"carrier_id" gorm:"type:text;not null;index"`

	FromCity          string `json:"from_city,omitempty" gorm:"type:text"`
	FromProvinceState string `json:"from_province_state,omitempty" gorm:"type:text"`
	FromPostalCode    string `json:"from_postal_code,omitempty" gorm:"type:text"`
	FromCountry       string `json:"from_country,omitempty" gorm:"type:char(2)"`
	ToCity            string `json:"to_city,omitempty" gorm:"type:text"`
	ToProvinceState   string `json:"to_province_state,omitempty" gorm:"type:text"`
	ToPostalCode      string `json:"to_postal_code,omitempty" gorm:"type:text"`
	ToCountry         string `json:"to_country,omitempty" gorm:"type:char(2)"`

	RateType RateType `json:"rate_type" gorm:"type:text;not null"`

	// Skid pricing. Keys are skid counts as strings, values are flat prices.
	SkidRates datatypes.JSONMap `json:"skid_rates,omitempty" gorm:"type:jsonb"`
	MinWeight float64           `json:"min_weight,omitempty"`

	// Weight-band pricing.
	WeightMin     float64 `json:"weight_min,omitempty"`
	WeightMax     float64 `json:"weight_max,omitempty"`
	RatePer100Lbs float64 `json:"rate_per_100_lbs,omitempty"`
	MinCharge     float64 `json:"min_charge,omitempty"`

	IsActive  bool      `json:"is_active" gorm:"not null;default:true"`
	CreatedAt time.Time `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (RateCardEntry) TableName() string { return "rate_card_entries" }

// Endpoint is one side of a route, used for match scoring.
type Endpoint struct {
	City          string `json:"city,omitempty"`
	ProvinceState string `json:"province_state,omitempty"`
	PostalCode    string `json:"postal_code,omitempty"`
	Country       string `json:"country,omitempty"`
}

// From returns the entry's origin endpoint.
func (e RateCardEntry) From() Endpoint {
	return Endpoint{
		City:          e.FromCity,
		ProvinceState: e.FromProvinceState,
		PostalCode:    e.FromPostalCode,
		Country:       e.FromCountry,
	}
}

// To returns the entry's destination endpoint.
func (e RateCardEntry) To() Endpoint {
	return Endpoint{
		City:          e.ToCity,
		ProvinceState: e.ToProvinceState,
		PostalCode:    e.ToPostalCode,
		Country:       e.ToCountry,
	}
}
