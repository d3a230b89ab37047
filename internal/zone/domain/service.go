package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/freightrate/pkg/db/pagination"
)

// Matcher resolves a zone definition to concrete locations.
type Matcher interface {
	Resolve(ctx context.Context, def ZoneDefinition) (MatchResult, error)
}

// Repository persists zone aggregates and their children.
type Repository interface {
	// ReplaceZone deletes any existing aggregate with the same code and
	// writes the new zone plus children. Child inserts are chunked so no
	// single commit exceeds the store's per-commit item limit.
	ReplaceZone(ctx context.Context, zone *Zone, cities []ZoneCity, postals []ZonePostalCode) error

	// DeleteAll removes every zone, city and postal record in bounded
	// batches.
	DeleteAll(ctx context.Context) error

	FindByCode(ctx context.Context, code string) (*Zone, error)
	ListCities(ctx context.Context, zoneID snowflake.ID) ([]ZoneCity, error)
	ListPostalCodes(ctx context.Context, zoneID snowflake.ID) ([]ZonePostalCode, error)
	List(ctx context.Context, page pagination.Pagination) ([]*Zone, *pagination.PageInfo, error)
}

var (
	ErrZoneNotFound      = errors.New("zone_not_found")
	ErrInvalidDefinition = errors.New("invalid_zone_definition")
)
