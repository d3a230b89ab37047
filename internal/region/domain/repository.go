package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/freightrate/pkg/db/pagination"
)

// ListFilter narrows catalog listings to the indexed fields.
type ListFilter struct {
	Country       string
	ProvinceState string
	Type          RegionType
}

// Repository is the read surface over the region catalog. The matching engine
// only ever sees this interface, keeping it storage-backend agnostic.
type Repository interface {
	// FindByBounds returns enabled leaf regions whose coordinates fall
	// inside the bounding box, scoped to country and province/state.
	FindByBounds(ctx context.Context, country, provinceState string, minLat, maxLat, minLng, maxLng float64) ([]Region, error)

	// FindByPostalPrefix returns enabled leaf regions whose postal code
	// starts with prefix, scoped to country and province/state.
	FindByPostalPrefix(ctx context.Context, country, provinceState, prefix string) ([]Region, error)

	// FindByCityName matches the city column exactly.
	FindByCityName(ctx context.Context, country, provinceState, city string) ([]Region, error)

	// FindByCityNameFold matches the city column case-insensitively.
	FindByCityNameFold(ctx context.Context, country, provinceState, city string) ([]Region, error)

	FindByCode(ctx context.Context, code string, regionType RegionType) (*Region, error)
	ListChildren(ctx context.Context, parentID snowflake.ID) ([]Region, error)
	List(ctx context.Context, filter ListFilter, page pagination.Pagination) ([]*Region, *pagination.PageInfo, error)
}
