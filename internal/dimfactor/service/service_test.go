package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/smallbiznis/freightrate/internal/clock"
	"github.com/smallbiznis/freightrate/internal/dimfactor/domain"
	"github.com/smallbiznis/freightrate/internal/dimfactor/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type fixture struct {
	db       *gorm.DB
	node     *snowflake.Node
	clock    *clock.FakeClock
	resolver domain.Resolver
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&domain.DimFactor{},
		&domain.CustomerDimFactorOverride{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	fake := clock.NewFakeClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	repo := repository.NewRepository(repository.RepositoryParam{DB: db})
	resolver := NewService(ServiceParam{Repo: repo, Clock: fake, Log: zap.NewNop()})

	return &fixture{db: db, node: node, clock: fake, resolver: resolver}
}

func (f *fixture) seedFactor(t *testing.T, serviceType, zone string, factor float64, effective time.Time, opts ...func(*domain.DimFactor)) {
	t.Helper()
	row := domain.DimFactor{
		ID:            f.node.Generate(),
		CarrierID:     "day-ross",
		ServiceType:   serviceType,
		Zone:          zone,
		Factor:        factor,
		Unit:          domain.UnitIn3PerLb,
		EffectiveDate: effective,
		IsActive:      true,
	}
	for _, opt := range opts {
		opt(&row)
	}
	// gorm substitutes the column's default:true for a zero-valued bool on
	// insert (and writes it back into the struct), so remember the intended
	// flag and persist a false explicitly after the insert.
	inactive := !row.IsActive
	require.NoError(t, f.db.Create(&row).Error)
	if inactive {
		require.NoError(t, f.db.Model(&domain.DimFactor{}).Where("id = ?", row.ID).Update("is_active", false).Error)
	}
}

func TestResolveWaterfallOrder(t *testing.T) {
	f := newFixture(t)
	effective := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	f.seedFactor(t, "all", "all", 250, effective)
	f.seedFactor(t, "all", "zone-2", 222, effective)
	f.seedFactor(t, "ltl", "all", 200, effective)
	f.seedFactor(t, "ltl", "zone-2", 166, effective)

	key := domain.LookupKey{CarrierID: "day-ross", ServiceType: "ltl", Zone: "zone-2"}

	resolved, err := f.resolver.Resolve(context.Background(), key)
	require.NoError(t, err)
	require.NotNil(t, resolved)
	assert.Equal(t, 166.0, resolved.Factor)
	assert.Equal(t, "carrier:ltl/zone-2", resolved.Source)

	// Remove the most specific rule and the waterfall falls through to
	// service-exact/zone-wildcard.
	require.NoError(t, f.db.Where("factor = ?", 166.0).Delete(&domain.DimFactor{}).Error)
	resolved, err = f.resolver.Resolve(context.Background(), key)
	require.NoError(t, err)
	require.NotNil(t, resolved)
	assert.Equal(t, 200.0, resolved.Factor)

	require.NoError(t, f.db.Where("factor = ?", 200.0).Delete(&domain.DimFactor{}).Error)
	resolved, err = f.resolver.Resolve(context.Background(), key)
	require.NoError(t, err)
	require.NotNil(t, resolved)
	assert.Equal(t, 222.0, resolved.Factor)

	require.NoError(t, f.db.Where("factor = ?", 222.0).Delete(&domain.DimFactor{}).Error)
	resolved, err = f.resolver.Resolve(context.Background(), key)
	require.NoError(t, err)
	require.NotNil(t, resolved)
	assert.Equal(t, 250.0, resolved.Factor)
}

func TestResolveCustomerOverrideOutranksCarrierRules(t *testing.T) {
	f := newFixture(t)
	f.seedFactor(t, "ltl", "zone-2", 166, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))

	wildcard := domain.Wildcard
	require.NoError(t, f.db.Create(&domain.CustomerDimFactorOverride{
		ID:          f.node.Generate(),
		CustomerID:  "cust-77",
		CarrierID:   "day-ross",
		ServiceType: &wildcard,
		Zone:        nil,
		Factor:      194,
		Unit:        domain.UnitIn3PerLb,
		IsActive:    true,
	}).Error)

	resolved, err := f.resolver.Resolve(context.Background(), domain.LookupKey{
		CarrierID:   "day-ross",
		ServiceType: "ltl",
		Zone:        "zone-2",
		CustomerID:  "cust-77",
	})
	require.NoError(t, err)
	require.NotNil(t, resolved)
	assert.Equal(t, 194.0, resolved.Factor)
	assert.Equal(t, "customer_override:cust-77", resolved.Source)

	// Without the customer the carrier rule applies.
	resolved, err = f.resolver.Resolve(context.Background(), domain.LookupKey{
		CarrierID:   "day-ross",
		ServiceType: "ltl",
		Zone:        "zone-2",
	})
	require.NoError(t, err)
	require.NotNil(t, resolved)
	assert.Equal(t, 166.0, resolved.Factor)
}

func TestResolveSkipsExpiredInactiveAndFutureRules(t *testing.T) {
	f := newFixture(t)
	past := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	expiry := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)

	f.seedFactor(t, "ltl", "zone-2", 100, past, func(row *domain.DimFactor) {
		row.ExpiryDate = &expiry
	})
	f.seedFactor(t, "ltl", "zone-2", 110, past, func(row *domain.DimFactor) {
		row.IsActive = false
	})
	f.seedFactor(t, "ltl", "zone-2", 120, time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC))

	resolved, err := f.resolver.Resolve(context.Background(), domain.LookupKey{
		CarrierID:   "day-ross",
		ServiceType: "ltl",
		Zone:        "zone-2",
	})
	require.NoError(t, err)
	assert.Nil(t, resolved)

	// Move the clock past the future rule's effective date.
	f.clock.Set(time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC))
	resolved, err = f.resolver.Resolve(context.Background(), domain.LookupKey{
		CarrierID:   "day-ross",
		ServiceType: "ltl",
		Zone:        "zone-2",
	})
	require.NoError(t, err)
	require.NotNil(t, resolved)
	assert.Equal(t, 120.0, resolved.Factor)
}

func TestResolveTieBreakPrefersLatestEffectiveDate(t *testing.T) {
	f := newFixture(t)
	f.seedFactor(t, "ltl", "zone-2", 139, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	f.seedFactor(t, "ltl", "zone-2", 166, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))

	resolved, err := f.resolver.Resolve(context.Background(), domain.LookupKey{
		CarrierID:   "day-ross",
		ServiceType: "ltl",
		Zone:        "zone-2",
	})
	require.NoError(t, err)
	require.NotNil(t, resolved)
	assert.Equal(t, 166.0, resolved.Factor)
}

func TestResolveNoneMeansNilNil(t *testing.T) {
	f := newFixture(t)
	resolved, err := f.resolver.Resolve(context.Background(), domain.LookupKey{
		CarrierID:   "unknown-carrier",
		ServiceType: "ltl",
		Zone:        "zone-9",
	})
	require.NoError(t, err)
	assert.Nil(t, resolved)
}

func TestParseVolumetricUnitLegacyForms(t *testing.T) {
	for input, want := range map[string]domain.VolumetricUnit{
		"in3_per_lb": domain.UnitIn3PerLb,
		"in³/lb":     domain.UnitIn3PerLb,
		"cm³/kg":     domain.UnitCm3PerKg,
		"CM3/LB":     domain.UnitCm3PerLb,
	} {
		got, err := domain.ParseVolumetricUnit(input)
		require.NoError(t, err, input)
		assert.Equal(t, want, got, input)
	}

	_, err := domain.ParseVolumetricUnit("ft3_per_stone")
	assert.Error(t, err)
}
