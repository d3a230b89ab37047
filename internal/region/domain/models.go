// Package domain contains the region catalog models. Regions form a
// political/postal hierarchy: country > state_province > fsa/zip3. Leaf
// regions carry coordinates and a city name and double as the concrete
// location candidates consumed by zone matching.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

type RegionType string

const (
	RegionTypeCountry       RegionType = "country"
	RegionTypeStateProvince RegionType = "state_province"
	RegionTypeFSA           RegionType = "fsa"
	RegionTypeZIP3          RegionType = "zip3"
)

// Region is a node in the catalog. Immutable after creation except for the
// Enabled toggle. ParentRegionID is a weak reference, never an owning pointer;
// the parent-child relation forms a tree and traversal is root-to-leaf only.
type Region struct {
	ID             snowflake.ID                 `json:"id" gorm:"primaryKey"`
	Code           string                       `json:"code" gorm:"type:text;not null;index"`
	Name           string                       `json:"name" gorm:"type:text;not null"`
	Type           RegionType                   `json:"type" gorm:"type:text;not null;index"`
	ParentRegionID *snowflake.ID                `json:"parent_region_id,omitempty" gorm:"index"`
	Country        string                       `json:"country" gorm:"type:char(2);not null;index"`
	ProvinceState  string                       `json:"province_state,omitempty" gorm:"type:text;index"`
	City           string                       `json:"city,omitempty" gorm:"type:text;index"`
	PostalCode     string                       `json:"postal_code,omitempty" gorm:"type:text;index"`
	Latitude       *float64                     `json:"latitude,omitempty"`
	Longitude      *float64                     `json:"longitude,omitempty"`
	Patterns       datatypes.JSONSlice[string]  `json:"patterns,omitempty" gorm:"type:jsonb"`
	Metadata       datatypes.JSONMap            `json:"metadata,omitempty" gorm:"type:jsonb"`
	Enabled        bool                         `json:"enabled" gorm:"not null;default:true"`
	CreatedAt      time.Time                    `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Region) TableName() string { return "regions" }

// HasCoordinates reports whether the region carries a usable lat/lng pair.
func (r Region) HasCoordinates() bool {
	return r.Latitude != nil && r.Longitude != nil
}
