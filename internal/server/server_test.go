package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/freightrate/internal/chargeable/calculator"
	"github.com/smallbiznis/freightrate/internal/config"
	dimfactordomain "github.com/smallbiznis/freightrate/internal/dimfactor/domain"
	"github.com/smallbiznis/freightrate/internal/ratelimit"
	ratingdomain "github.com/smallbiznis/freightrate/internal/rating/domain"
	regiondomain "github.com/smallbiznis/freightrate/internal/region/domain"
	"github.com/smallbiznis/freightrate/internal/unit"
	zonedomain "github.com/smallbiznis/freightrate/internal/zone/domain"
	importdomain "github.com/smallbiznis/freightrate/internal/zoneimport/domain"
	"github.com/smallbiznis/freightrate/pkg/db/pagination"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"
)

type stubMatcher struct {
	result zonedomain.MatchResult
	err    error
}

func (m *stubMatcher) Resolve(ctx context.Context, def zonedomain.ZoneDefinition) (zonedomain.MatchResult, error) {
	return m.result, m.err
}

type stubZoneRepo struct {
	zone    *zonedomain.Zone
	cities  []zonedomain.ZoneCity
	postals []zonedomain.ZonePostalCode
}

func (r *stubZoneRepo) ReplaceZone(ctx context.Context, zone *zonedomain.Zone, cities []zonedomain.ZoneCity, postals []zonedomain.ZonePostalCode) error {
	return nil
}

func (r *stubZoneRepo) DeleteAll(ctx context.Context) error { return nil }

func (r *stubZoneRepo) FindByCode(ctx context.Context, code string) (*zonedomain.Zone, error) {
	return r.zone, nil
}

func (r *stubZoneRepo) ListCities(ctx context.Context, zoneID snowflake.ID) ([]zonedomain.ZoneCity, error) {
	return r.cities, nil
}

func (r *stubZoneRepo) ListPostalCodes(ctx context.Context, zoneID snowflake.ID) ([]zonedomain.ZonePostalCode, error) {
	return r.postals, nil
}

func (r *stubZoneRepo) List(ctx context.Context, page pagination.Pagination) ([]*zonedomain.Zone, *pagination.PageInfo, error) {
	if r.zone == nil {
		return nil, &pagination.PageInfo{}, nil
	}
	return []*zonedomain.Zone{r.zone}, &pagination.PageInfo{}, nil
}

type stubRegionRepo struct{}

func (r *stubRegionRepo) FindByBounds(ctx context.Context, country, provinceState string, minLat, maxLat, minLng, maxLng float64) ([]regiondomain.Region, error) {
	return nil, nil
}

func (r *stubRegionRepo) FindByPostalPrefix(ctx context.Context, country, provinceState, prefix string) ([]regiondomain.Region, error) {
	return nil, nil
}

func (r *stubRegionRepo) FindByCityName(ctx context.Context, country, provinceState, city string) ([]regiondomain.Region, error) {
	return nil, nil
}

func (r *stubRegionRepo) FindByCityNameFold(ctx context.Context, country, provinceState, city string) ([]regiondomain.Region, error) {
	return nil, nil
}

func (r *stubRegionRepo) FindByCode(ctx context.Context, code string, regionType regiondomain.RegionType) (*regiondomain.Region, error) {
	return nil, nil
}

func (r *stubRegionRepo) ListChildren(ctx context.Context, parentID snowflake.ID) ([]regiondomain.Region, error) {
	return nil, nil
}

func (r *stubRegionRepo) List(ctx context.Context, filter regiondomain.ListFilter, page pagination.Pagination) ([]*regiondomain.Region, *pagination.PageInfo, error) {
	return nil, &pagination.PageInfo{}, nil
}

type stubOrchestrator struct {
	report *importdomain.ImportReport
	err    error
}

func (o *stubOrchestrator) Import(ctx context.Context, req importdomain.ImportRequest) (*importdomain.ImportReport, error) {
	return o.report, o.err
}

type stubEngine struct {
	result *ratingdomain.RateResult
	err    error
}

func (e *stubEngine) Quote(ctx context.Context, req ratingdomain.RateRequest) (*ratingdomain.RateResult, error) {
	if e.err != nil {
		return nil, e.err
	}
	return e.result, nil
}

type stubResolver struct{}

func (stubResolver) Resolve(ctx context.Context, key dimfactordomain.LookupKey) (*dimfactordomain.ResolvedDimFactor, error) {
	return nil, nil
}

type fixture struct {
	matcher      *stubMatcher
	zones        *stubZoneRepo
	orchestrator *stubOrchestrator
	engine       *stubEngine
	router       *gin.Engine
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	log := zaptest.NewLogger(t)
	weights := calculator.NewService(calculator.ServiceParam{
		Resolver: stubResolver{},
		Log:      log,
	})

	f := &fixture{
		matcher:      &stubMatcher{},
		zones:        &stubZoneRepo{},
		orchestrator: &stubOrchestrator{report: &importdomain.ImportReport{RunID: "run-1"}},
		engine:       &stubEngine{},
	}

	router := gin.New()
	router.Use(ErrorHandlingMiddleware())

	NewServer(ServerParams{
		Engine:   router,
		Matcher:  f.matcher,
		Zones:    f.zones,
		Regions:  &stubRegionRepo{},
		Importer: f.orchestrator,
		Weights:  weights,
		Rates:    f.engine,
		Limiter:  ratelimit.NewQuoteLimiter(config.Config{}),
		Log:      log,
	})
	f.router = router
	return f
}

func (f *fixture) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func TestResolveZoneOK(t *testing.T) {
	f := newFixture(t)
	f.matcher.result = zonedomain.MatchResult{
		Matches: []zonedomain.MatchedLocation{
			{City: "Toronto", ProvinceState: "ON", Country: "CA", MatchType: zonedomain.MatchTypeNameExact},
		},
		Quality: zonedomain.MatchQualityPartial,
	}

	rec := f.do(t, http.MethodPost, "/v1/zones/resolve", zonedomain.ZoneDefinition{
		ZoneID:  "zone-1",
		Country: "CA",
		City:    "Toronto",
	})

	require.Equal(t, http.StatusOK, rec.Code)
	var result zonedomain.MatchResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Len(t, result.Matches, 1)
	assert.Equal(t, zonedomain.MatchQualityPartial, result.Quality)
}

func TestResolveZoneInvalidDefinition(t *testing.T) {
	f := newFixture(t)
	f.matcher.err = zonedomain.ErrInvalidDefinition

	rec := f.do(t, http.MethodPost, "/v1/zones/resolve", zonedomain.ZoneDefinition{Country: "CA"})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestImportZonesRequiresDefinitions(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/v1/zones/import", importdomain.ImportRequest{})

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "definitions")
}

func TestImportZonesReturnsReport(t *testing.T) {
	f := newFixture(t)
	f.orchestrator.report = &importdomain.ImportReport{
		RunID:           "run-2",
		TotalZones:      2,
		SuccessfulZones: 2,
	}

	rec := f.do(t, http.MethodPost, "/v1/zones/import", importdomain.ImportRequest{
		Definitions: []zonedomain.ZoneDefinition{
			{ZoneID: "a", Country: "CA", City: "Toronto"},
			{ZoneID: "b", Country: "CA", City: "Ottawa"},
		},
	})

	require.Equal(t, http.StatusOK, rec.Code)
	var report importdomain.ImportReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.Equal(t, "run-2", report.RunID)
	assert.Equal(t, 2, report.SuccessfulZones)
}

func TestGetZoneNotFound(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/v1/zones/missing", nil)

	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "not_found")
}

func TestGetZoneWithChildren(t *testing.T) {
	f := newFixture(t)
	f.zones.zone = &zonedomain.Zone{ID: 1, Code: "gta", Country: "CA"}
	f.zones.cities = []zonedomain.ZoneCity{{ZoneID: 1, City: "Toronto", Country: "CA"}}
	f.zones.postals = []zonedomain.ZonePostalCode{{ZoneID: 1, PostalCode: "M5V", Country: "CA"}}

	rec := f.do(t, http.MethodGet, "/v1/zones/gta", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var payload struct {
		Zone    zonedomain.Zone             `json:"zone"`
		Cities  []zonedomain.ZoneCity       `json:"cities"`
		Postals []zonedomain.ZonePostalCode `json:"postal_codes"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	assert.Equal(t, "gta", payload.Zone.Code)
	assert.Len(t, payload.Cities, 1)
	assert.Len(t, payload.Postals, 1)
}

func TestQuoteRateOK(t *testing.T) {
	f := newFixture(t)
	f.engine.result = &ratingdomain.RateResult{
		CarrierID: "fastfreight",
		Currency:  "CAD",
		BaseRate:  227.5,
		TotalRate: 227.5,
	}

	rec := f.do(t, http.MethodPost, "/v1/rates/quote", ratingdomain.RateRequest{CarrierID: "fastfreight"})

	require.Equal(t, http.StatusOK, rec.Code)
	var result ratingdomain.RateResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, 227.5, result.TotalRate)
}

func TestQuoteRateNoRateFoundCarriesReason(t *testing.T) {
	f := newFixture(t)
	f.engine.err = &ratingdomain.NoRateError{Reason: "no skid rate for 5 skids"}

	rec := f.do(t, http.MethodPost, "/v1/rates/quote", ratingdomain.RateRequest{CarrierID: "fastfreight"})

	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "no skid rate for 5 skids")
	assert.Contains(t, rec.Body.String(), "no_rate_found")
}

func TestQuoteRateInvalidRequest(t *testing.T) {
	f := newFixture(t)
	f.engine.err = ratingdomain.ErrInvalidRequest

	rec := f.do(t, http.MethodPost, "/v1/rates/quote", ratingdomain.RateRequest{})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestChargeableWeightValidation(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/v1/chargeable-weight", chargeableWeightRequest{
		CarrierID: "fastfreight",
	})

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "packages")
}

func TestChargeableWeightOK(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/v1/chargeable-weight", struct {
		CarrierID string              `json:"carrier_id"`
		Packages  []chargeablePackage `json:"packages"`
	}{
		CarrierID: "fastfreight",
		Packages: []chargeablePackage{
			{Quantity: 1, Weight: 10, WeightUnit: string(unit.WeightPound)},
		},
	})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "total_chargeable_lb")
}

// chargeablePackage mirrors the wire shape without importing the domain
// struct field by field.
type chargeablePackage struct {
	Quantity   int     `json:"quantity"`
	Weight     float64 `json:"weight"`
	WeightUnit string  `json:"weight_unit"`
}

func TestMapError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"validation", newValidationError("f", "c", "m"), http.StatusBadRequest},
		{"invalid rate request", ratingdomain.ErrInvalidRequest, http.StatusBadRequest},
		{"invalid definition", zonedomain.ErrInvalidDefinition, http.StatusBadRequest},
		{"unsupported conversion", unit.ErrUnsupportedConversion, http.StatusBadRequest},
		{"no rate", &ratingdomain.NoRateError{Reason: "nope"}, http.StatusNotFound},
		{"zone not found", zonedomain.ErrZoneNotFound, http.StatusNotFound},
		{"record not found", gorm.ErrRecordNotFound, http.StatusNotFound},
		{"too many requests", ErrTooManyRequests, http.StatusTooManyRequests},
		{"duplicate key", gorm.ErrDuplicatedKey, http.StatusConflict},
		{"unknown", assertionError{}, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, _ := mapError(tt.err)
			assert.Equal(t, tt.status, status)
		})
	}
}

type assertionError struct{}

func (assertionError) Error() string { return "boom" }
