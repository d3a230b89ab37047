// Package seed bootstraps the reference region catalog so a fresh install
// can resolve zones out of the box.
package seed

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	regiondomain "github.com/smallbiznis/freightrate/internal/region/domain"
	"gorm.io/gorm"
)

type countrySeed struct {
	code      string
	name      string
	divisions map[string]string
}

var referenceCountries = []countrySeed{
	{
		code: "CA",
		name: "Canada",
		divisions: map[string]string{
			"AB": "Alberta",
			"BC": "British Columbia",
			"MB": "Manitoba",
			"NB": "New Brunswick",
			"NL": "Newfoundland and Labrador",
			"NS": "Nova Scotia",
			"NT": "Northwest Territories",
			"NU": "Nunavut",
			"ON": "Ontario",
			"PE": "Prince Edward Island",
			"QC": "Quebec",
			"SK": "Saskatchewan",
			"YT": "Yukon",
		},
	},
	{
		code: "US",
		name: "United States",
		divisions: map[string]string{
			"CA": "California",
			"FL": "Florida",
			"IL": "Illinois",
			"MI": "Michigan",
			"NY": "New York",
			"OH": "Ohio",
			"PA": "Pennsylvania",
			"TX": "Texas",
			"WA": "Washington",
		},
	},
}

// EnsureReferenceRegions seeds country and province/state rows. Idempotent;
// existing rows are left untouched.
func EnsureReferenceRegions(db *gorm.DB) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		return err
	}

	ctx := context.Background()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, country := range referenceCountries {
			parent := regiondomain.Region{
				Code:    country.code,
				Type:    regiondomain.RegionTypeCountry,
				Country: country.code,
			}
			err := tx.Where(&regiondomain.Region{
				Code: country.code,
				Type: regiondomain.RegionTypeCountry,
			}).Attrs(regiondomain.Region{
				ID:      node.Generate(),
				Name:    country.name,
				Enabled: true,
			}).FirstOrCreate(&parent).Error
			if err != nil {
				return err
			}

			for code, name := range country.divisions {
				division := regiondomain.Region{
					Code:          code,
					Type:          regiondomain.RegionTypeStateProvince,
					Country:       country.code,
					ProvinceState: code,
				}
				parentID := parent.ID
				err := tx.Where(&regiondomain.Region{
					Code:    code,
					Type:    regiondomain.RegionTypeStateProvince,
					Country: country.code,
				}).Attrs(regiondomain.Region{
					ID:             node.Generate(),
					Name:           name,
					ParentRegionID: &parentID,
					Enabled:        true,
				}).FirstOrCreate(&division).Error
				if err != nil {
					return err
				}
			}
		}
		return nil
	})
}
