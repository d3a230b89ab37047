// Package matcher resolves zone definitions into concrete locations using
// three independent tiers: coordinate radius search, postal prefix lookup,
// and city name lookup with spelling variations.
package matcher

import (
	"context"
	"fmt"
	"math"
	"strings"
	"unicode"

	"github.com/smallbiznis/freightrate/internal/observability/metrics"
	regiondomain "github.com/smallbiznis/freightrate/internal/region/domain"
	zonedomain "github.com/smallbiznis/freightrate/internal/zone/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Service struct {
	regions regiondomain.Repository
	metrics *metrics.Metrics
	log     *zap.Logger
}

type ServiceParam struct {
	fx.In

	Regions regiondomain.Repository
	Metrics *metrics.Metrics
	Log     *zap.Logger
}

func NewService(p ServiceParam) zonedomain.Matcher {
	return &Service{
		regions: p.Regions,
		metrics: p.Metrics,
		log:     p.Log.Named("zone.matcher"),
	}
}

// Resolve runs all applicable tiers, merges and dedupes their results, and
// classifies match quality. Tier lookup failures are recorded and logged but
// never abort the remaining tiers.
func (s *Service) Resolve(ctx context.Context, def zonedomain.ZoneDefinition) (zonedomain.MatchResult, error) {
	result := zonedomain.MatchResult{
		MatchTypeCounts: make(map[zonedomain.MatchType]int),
	}

	if strings.TrimSpace(def.ZoneID) == "" {
		return result, zonedomain.ErrInvalidDefinition
	}

	var merged []zonedomain.MatchedLocation

	merged = append(merged, s.coordinateTier(ctx, def, &result)...)
	merged = append(merged, s.postalTier(ctx, def, &result)...)
	merged = append(merged, s.nameTier(ctx, def, &result)...)

	// Every tier contributes to the counts, pre-dedup, so quality scoring
	// still sees a tier that only produced duplicates.
	for _, loc := range merged {
		result.MatchTypeCounts[loc.MatchType]++
	}

	// Merge all tiers then dedupe on the composite location key. The first
	// occurrence wins; later duplicates are dropped silently even when they
	// come from a different tier.
	seen := make(map[string]struct{}, len(merged))
	for _, loc := range merged {
		key := dedupKey(loc)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		result.Matches = append(result.Matches, loc)
	}

	result.Quality = classifyQuality(result.MatchTypeCounts)
	s.metrics.RecordZoneResolve(ctx, string(result.Quality))
	return result, nil
}

// coordinateTier searches within a radius of the definition's center point.
// Candidates come from a bounding-box pre-filter and are then measured
// precisely with the Haversine formula.
func (s *Service) coordinateTier(ctx context.Context, def zonedomain.ZoneDefinition, result *zonedomain.MatchResult) []zonedomain.MatchedLocation {
	if def.Latitude == nil || def.Longitude == nil || def.SearchRadiusMeters <= 0 {
		return nil
	}

	lat, lng := *def.Latitude, *def.Longitude
	minLat, maxLat, minLng, maxLng := boundingBox(lat, lng, def.SearchRadiusMeters)

	candidates, err := s.regions.FindByBounds(ctx, def.Country, def.ProvinceState, minLat, maxLat, minLng, maxLng)
	if err != nil {
		s.recordTierError(result, "coordinate", fmt.Sprintf("%.4f,%.4f", lat, lng), err)
		return nil
	}

	var out []zonedomain.MatchedLocation
	for _, candidate := range candidates {
		if !candidate.HasCoordinates() {
			continue
		}
		distance := Haversine(lat, lng, *candidate.Latitude, *candidate.Longitude)
		if distance > def.SearchRadiusMeters {
			continue
		}
		rounded := math.Round(distance)
		out = append(out, locationFromRegion(candidate, zonedomain.MatchTypeCoordinate, &rounded))
	}
	return out
}

// postalTier looks up each declared prefix. Canadian prefixes are 3-character
// FSAs, US prefixes are 3-digit ZIP3 stems; both resolve by string prefix.
func (s *Service) postalTier(ctx context.Context, def zonedomain.ZoneDefinition, result *zonedomain.MatchResult) []zonedomain.MatchedLocation {
	if len(def.PostalCodes) == 0 {
		return nil
	}

	var out []zonedomain.MatchedLocation
	for _, prefix := range def.PostalCodes {
		prefix = strings.TrimSpace(prefix)
		if prefix == "" {
			continue
		}
		rows, err := s.regions.FindByPostalPrefix(ctx, def.Country, def.ProvinceState, prefix)
		if err != nil {
			s.recordTierError(result, "postal", prefix, err)
			continue
		}
		for _, row := range rows {
			out = append(out, locationFromRegion(row, zonedomain.MatchTypePostal, nil))
		}
	}
	return out
}

// nameTier tries the primary city name and every declared variation with
// three lookups of decreasing confidence: exact, case-insensitive, and
// title-case. Each is tagged with its own match type so quality scoring can
// distinguish them.
func (s *Service) nameTier(ctx context.Context, def zonedomain.ZoneDefinition, result *zonedomain.MatchResult) []zonedomain.MatchedLocation {
	names := make([]string, 0, 1+len(def.CityVariations))
	if strings.TrimSpace(def.City) != "" {
		names = append(names, strings.TrimSpace(def.City))
	}
	for _, variation := range def.CityVariations {
		if strings.TrimSpace(variation) != "" {
			names = append(names, strings.TrimSpace(variation))
		}
	}

	var out []zonedomain.MatchedLocation
	for _, name := range names {
		rows, err := s.regions.FindByCityName(ctx, def.Country, def.ProvinceState, name)
		if err != nil {
			s.recordTierError(result, "name", name, err)
		} else {
			for _, row := range rows {
				out = append(out, locationFromRegion(row, zonedomain.MatchTypeNameExact, nil))
			}
		}

		rows, err = s.regions.FindByCityNameFold(ctx, def.Country, def.ProvinceState, name)
		if err != nil {
			s.recordTierError(result, "name", name, err)
		} else {
			for _, row := range rows {
				out = append(out, locationFromRegion(row, zonedomain.MatchTypeNameCaseInsensitive, nil))
			}
		}

		if titled := titleCase(name); titled != name {
			rows, err = s.regions.FindByCityName(ctx, def.Country, def.ProvinceState, titled)
			if err != nil {
				s.recordTierError(result, "name", titled, err)
			} else {
				for _, row := range rows {
					out = append(out, locationFromRegion(row, zonedomain.MatchTypeNameTitleCase, nil))
				}
			}
		}
	}
	return out
}

func (s *Service) recordTierError(result *zonedomain.MatchResult, tier, input string, err error) {
	s.log.Warn("zone tier lookup failed",
		zap.String("tier", tier),
		zap.String("input", input),
		zap.Error(err),
	)
	result.TierErrors = append(result.TierErrors, zonedomain.TierError{
		Tier:    tier,
		Input:   input,
		Message: err.Error(),
	})
}

func locationFromRegion(region regiondomain.Region, matchType zonedomain.MatchType, distance *float64) zonedomain.MatchedLocation {
	loc := zonedomain.MatchedLocation{
		City:           region.City,
		ProvinceState:  region.ProvinceState,
		Country:        region.Country,
		PostalCode:     region.PostalCode,
		MatchType:      matchType,
		DistanceMeters: distance,
	}
	if region.HasCoordinates() {
		loc.Latitude = *region.Latitude
		loc.Longitude = *region.Longitude
	}
	return loc
}

func dedupKey(loc zonedomain.MatchedLocation) string {
	return fmt.Sprintf("%s|%s|%s|%.6f|%.6f",
		strings.ToLower(loc.City),
		strings.ToLower(loc.ProvinceState),
		strings.ToUpper(loc.PostalCode),
		loc.Latitude,
		loc.Longitude,
	)
}

// classifyQuality is perfect only when all three tiers contributed at least
// one match, partial when anything matched, no_match otherwise.
func classifyQuality(counts map[zonedomain.MatchType]int) zonedomain.MatchQuality {
	total := 0
	tiers := make(map[string]bool, 3)
	for matchType, count := range counts {
		if count <= 0 {
			continue
		}
		total += count
		tiers[matchType.Tier()] = true
	}

	switch {
	case total == 0:
		return zonedomain.MatchQualityNoMatch
	case tiers["coordinate"] && tiers["postal"] && tiers["name"]:
		return zonedomain.MatchQualityPerfect
	default:
		return zonedomain.MatchQualityPartial
	}
}

// titleCase uppercases the first letter of each space- or hyphen-separated
// word and lowercases the rest.
func titleCase(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	startOfWord := true
	for _, r := range s {
		switch {
		case r == ' ' || r == '-':
			startOfWord = true
			b.WriteRune(r)
		case startOfWord:
			b.WriteRune(unicode.ToUpper(r))
			startOfWord = false
		default:
			b.WriteRune(unicode.ToLower(r))
		}
	}
	return b.String()
}
