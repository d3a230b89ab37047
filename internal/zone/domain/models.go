// Package domain contains the rate-zone models: the external zone
// definitions fed into matching, the transient match results, and the
// persisted zone aggregate with its city and postal children.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// MatchType identifies which matching tier produced a location, ordered
// roughly by confidence.
type MatchType string

const (
	MatchTypeCoordinate          MatchType = "coordinate"
	MatchTypePostal              MatchType = "postal"
	MatchTypeNameExact           MatchType = "name_exact"
	MatchTypeNameCaseInsensitive MatchType = "name_case_insensitive"
	MatchTypeNameTitleCase       MatchType = "name_title_case"
)

// Tier returns the coarse tier a match type belongs to.
func (t MatchType) Tier() string {
	switch t {
	case MatchTypeCoordinate:
		return "coordinate"
	case MatchTypePostal:
		return "postal"
	default:
		return "name"
	}
}

type MatchQuality string

const (
	MatchQualityNoMatch MatchQuality = "no_match"
	MatchQualityPartial MatchQuality = "partial"
	MatchQualityPerfect MatchQuality = "perfect"
)

// ZoneDefinition is the immutable input describing a rate zone to resolve.
// Supplied by an external catalog; read-only to the matching engine.
type ZoneDefinition struct {
	ZoneID             string   `json:"zone_id"`
	Name               string   `json:"name,omitempty"`
	Country            string   `json:"country"`
	ProvinceState      string   `json:"province_state,omitempty"`
	City               string   `json:"city,omitempty"`
	CityVariations     []string `json:"city_variations,omitempty"`
	PostalCodes        []string `json:"postal_codes,omitempty"`
	Latitude           *float64 `json:"latitude,omitempty"`
	Longitude          *float64 `json:"longitude,omitempty"`
	SearchRadiusMeters float64  `json:"search_radius_meters,omitempty"`
}

// MatchedLocation is a concrete location found by one of the matching tiers.
// Produced transiently during a single resolution; folded into the Zone
// aggregate rather than persisted directly.
type MatchedLocation struct {
	City           string    `json:"city"`
	ProvinceState  string    `json:"province_state"`
	Country        string    `json:"country"`
	PostalCode     string    `json:"postal_code,omitempty"`
	Latitude       float64   `json:"latitude,omitempty"`
	Longitude      float64   `json:"longitude,omitempty"`
	MatchType      MatchType `json:"match_type"`
	DistanceMeters *float64  `json:"distance_meters,omitempty"`
}

// TierError records a caught per-tier lookup failure.
type TierError struct {
	Tier    string `json:"tier"`
	Input   string `json:"input,omitempty"`
	Message string `json:"message"`
}

// MatchResult is the outcome of resolving one zone definition.
type MatchResult struct {
	Matches         []MatchedLocation `json:"matches"`
	MatchTypeCounts map[MatchType]int `json:"match_type_counts"`
	Quality         MatchQuality      `json:"match_quality"`
	TierErrors      []TierError       `json:"tier_errors,omitempty"`
}

// Zone is the persisted aggregate produced by an import run.
type Zone struct {
	ID               snowflake.ID      `json:"id" gorm:"primaryKey"`
	Code             string            `json:"code" gorm:"type:text;not null;uniqueIndex"`
	Name             string            `json:"name" gorm:"type:text"`
	Country          string            `json:"country" gorm:"type:char(2);not null;index"`
	ProvinceState    string            `json:"province_state,omitempty" gorm:"type:text;index"`
	City             string            `json:"city,omitempty" gorm:"type:text"`
	Enabled          bool              `json:"enabled" gorm:"not null;default:true"`
	MatchQuality     MatchQuality      `json:"match_quality" gorm:"type:text;not null"`
	CityCount        int               `json:"city_count" gorm:"not null;default:0"`
	ProcessingTimeMS int64             `json:"processing_time_ms" gorm:"not null;default:0"`
	Metadata         datatypes.JSONMap `json:"metadata,omitempty" gorm:"type:jsonb"`
	CreatedAt        time.Time         `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt        time.Time         `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Zone) TableName() string { return "zones" }

// ZoneCity is a city association owned by a zone. A city may appear in
// multiple zones; ownership is zone to city, not exclusive.
type ZoneCity struct {
	ID             snowflake.ID `json:"id" gorm:"primaryKey"`
	ZoneID         snowflake.ID `json:"zone_id" gorm:"not null;index"`
	City           string       `json:"city" gorm:"type:text;not null"`
	ProvinceState  string       `json:"province_state" gorm:"type:text"`
	Country        string       `json:"country" gorm:"type:char(2);not null"`
	PostalCode     string       `json:"postal_code,omitempty" gorm:"type:text"`
	Latitude       float64      `json:"latitude,omitempty"`
	Longitude      float64      `json:"longitude,omitempty"`
	MatchType      MatchType    `json:"match_type" gorm:"type:text;not null"`
	DistanceMeters *float64     `json:"distance_meters,omitempty"`
	CreatedAt      time.Time    `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (ZoneCity) TableName() string { return "zone_cities" }

// ZonePostalCode is a postal association owned by a zone.
type ZonePostalCode struct {
	ID            snowflake.ID `json:"id" gorm:"primaryKey"`
	ZoneID        snowflake.ID `json:"zone_id" gorm:"not null;index"`
	PostalCode    string       `json:"postal_code" gorm:"type:text;not null"`
	Country       string       `json:"country" gorm:"type:char(2);not null"`
	ProvinceState string       `json:"province_state,omitempty" gorm:"type:text"`
	CreatedAt     time.Time    `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (ZonePostalCode) TableName() string { return "zone_postal_codes" }
