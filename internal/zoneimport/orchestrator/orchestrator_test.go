package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/smallbiznis/freightrate/internal/clock"
	"github.com/smallbiznis/freightrate/internal/config"
	regiondomain "github.com/smallbiznis/freightrate/internal/region/domain"
	zonedomain "github.com/smallbiznis/freightrate/internal/zone/domain"
	"github.com/smallbiznis/freightrate/internal/zone/matcher"
	zonerepository "github.com/smallbiznis/freightrate/internal/zone/repository"
	importdomain "github.com/smallbiznis/freightrate/internal/zoneimport/domain"
	"github.com/smallbiznis/freightrate/pkg/db/pagination"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"
)

// stubRegionRepo serves one synthetic city region per requested name and can
// force name-tier failures for specific cities.
type stubRegionRepo struct {
	failCities map[string]error
}

func (s *stubRegionRepo) FindByBounds(ctx context.Context, country, provinceState string, minLat, maxLat, minLng, maxLng float64) ([]regiondomain.Region, error) {
	return nil, nil
}

func (s *stubRegionRepo) FindByPostalPrefix(ctx context.Context, country, provinceState, prefix string) ([]regiondomain.Region, error) {
	return nil, nil
}

func (s *stubRegionRepo) FindByCityName(ctx context.Context, country, provinceState, city string) ([]regiondomain.Region, error) {
	if err := s.failCities[city]; err != nil {
		return nil, err
	}
	lat, lng := 43.0, -79.0
	return []regiondomain.Region{{
		Type:          regiondomain.RegionTypeFSA,
		Country:       country,
		ProvinceState: provinceState,
		City:          city,
		PostalCode:    "M" + city[:1] + "Z",
		Latitude:      &lat,
		Longitude:     &lng,
		Enabled:       true,
	}}, nil
}

func (s *stubRegionRepo) FindByCityNameFold(ctx context.Context, country, provinceState, city string) ([]regiondomain.Region, error) {
	return nil, nil
}

func (s *stubRegionRepo) FindByCode(ctx context.Context, code string, regionType regiondomain.RegionType) (*regiondomain.Region, error) {
	return nil, nil
}

func (s *stubRegionRepo) ListChildren(ctx context.Context, parentID snowflake.ID) ([]regiondomain.Region, error) {
	return nil, nil
}

func (s *stubRegionRepo) List(ctx context.Context, filter regiondomain.ListFilter, page pagination.Pagination) ([]*regiondomain.Region, *pagination.PageInfo, error) {
	return nil, nil, nil
}

type fixture struct {
	db           *gorm.DB
	orchestrator importdomain.Orchestrator
	zones        zonedomain.Repository
}

func newFixture(t *testing.T, regions regiondomain.Repository) *fixture {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&zonedomain.Zone{},
		&zonedomain.ZoneCity{},
		&zonedomain.ZonePostalCode{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	log := zaptest.NewLogger(t)

	cfg := config.DefaultRatingConfig()
	cfg.Import.BatchSize = 4
	cfg.Import.Concurrency = 2
	cfg.Import.BatchPause = 1
	holder := config.NewStaticRatingConfigHolder(cfg)

	zones := zonerepository.NewRepository(zonerepository.RepositoryParam{DB: db, Holder: holder, Log: log})

	svc := NewService(ServiceParam{
		Matcher: matcher.NewService(matcher.ServiceParam{Regions: regions, Log: log}),
		Zones:   zones,
		GenID:   node,
		Holder:  holder,
		Clock:   clock.NewFakeClock(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)),
		Log:     log,
	})
	return &fixture{db: db, orchestrator: svc, zones: zones}
}

func catalog(n int) []zonedomain.ZoneDefinition {
	defs := make([]zonedomain.ZoneDefinition, 0, n)
	for i := 1; i <= n; i++ {
		defs = append(defs, zonedomain.ZoneDefinition{
			ZoneID:        fmt.Sprintf("Zone %02d", i),
			Name:          fmt.Sprintf("Test Zone %d", i),
			Country:       "CA",
			ProvinceState: "ON",
			City:          fmt.Sprintf("City%02d", i),
		})
	}
	return defs
}

func TestImportPartialFailureKeepsGoing(t *testing.T) {
	f := newFixture(t, &stubRegionRepo{
		failCities: map[string]error{"City05": errors.New("name index timeout")},
	})

	report, err := f.orchestrator.Import(context.Background(), importdomain.ImportRequest{
		Definitions: catalog(10),
	})
	require.NoError(t, err)

	assert.Equal(t, 10, report.TotalZones)
	assert.Equal(t, 9, report.SuccessfulZones)
	assert.Equal(t, 1, report.FailedZones)
	assert.NotEmpty(t, report.RunID)

	// The failed zone carries its tier error and was not persisted.
	var failed *importdomain.ZoneOutcome
	for i := range report.Outcomes {
		if !report.Outcomes[i].Success {
			failed = &report.Outcomes[i]
		}
	}
	require.NotNil(t, failed)
	assert.Equal(t, "Zone 05", failed.ZoneID)
	assert.NotEmpty(t, failed.TierErrors)

	var zoneCount int64
	require.NoError(t, f.db.Model(&zonedomain.Zone{}).Count(&zoneCount).Error)
	assert.EqualValues(t, 9, zoneCount)

	// Every persisted zone has its city and postal children.
	zones, _, err := f.zones.List(context.Background(), pagination.Pagination{PageSize: 50})
	require.NoError(t, err)
	require.Len(t, zones, 9)
	for _, zone := range zones {
		cities, err := f.zones.ListCities(context.Background(), zone.ID)
		require.NoError(t, err)
		assert.NotEmpty(t, cities, zone.Code)

		postals, err := f.zones.ListPostalCodes(context.Background(), zone.ID)
		require.NoError(t, err)
		assert.NotEmpty(t, postals, zone.Code)
	}
}

func TestImportClearExistingWipesPriorZones(t *testing.T) {
	f := newFixture(t, &stubRegionRepo{})

	_, err := f.orchestrator.Import(context.Background(), importdomain.ImportRequest{
		Definitions: catalog(3),
	})
	require.NoError(t, err)

	report, err := f.orchestrator.Import(context.Background(), importdomain.ImportRequest{
		Definitions:   catalog(2),
		ClearExisting: true,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, report.SuccessfulZones)

	var zoneCount int64
	require.NoError(t, f.db.Model(&zonedomain.Zone{}).Count(&zoneCount).Error)
	assert.EqualValues(t, 2, zoneCount)
}

func TestImportReimportReplacesZoneAggregate(t *testing.T) {
	f := newFixture(t, &stubRegionRepo{})

	_, err := f.orchestrator.Import(context.Background(), importdomain.ImportRequest{
		Definitions: catalog(1),
	})
	require.NoError(t, err)

	report, err := f.orchestrator.Import(context.Background(), importdomain.ImportRequest{
		Definitions: catalog(1),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, report.SuccessfulZones)

	var zoneCount, cityCount int64
	require.NoError(t, f.db.Model(&zonedomain.Zone{}).Count(&zoneCount).Error)
	require.NoError(t, f.db.Model(&zonedomain.ZoneCity{}).Count(&cityCount).Error)
	assert.EqualValues(t, 1, zoneCount)
	assert.EqualValues(t, 1, cityCount)
}

func TestImportEmptyCatalogReturnsEmptyReport(t *testing.T) {
	f := newFixture(t, &stubRegionRepo{})

	report, err := f.orchestrator.Import(context.Background(), importdomain.ImportRequest{})
	require.NoError(t, err)
	assert.Zero(t, report.TotalZones)
	assert.Zero(t, report.SuccessfulZones)
	assert.Zero(t, report.FailedZones)
	assert.NotEmpty(t, report.RunID)
}

func TestImportQualityCountsAggregate(t *testing.T) {
	f := newFixture(t, &stubRegionRepo{})

	report, err := f.orchestrator.Import(context.Background(), importdomain.ImportRequest{
		Definitions: catalog(4),
	})
	require.NoError(t, err)

	// Name-only matches classify as partial.
	assert.Equal(t, 4, report.QualityCounts[zonedomain.MatchQualityPartial])
	assert.Equal(t, 4, report.MatchTypeCounts[zonedomain.MatchTypeNameExact])
}
