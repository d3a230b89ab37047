// Package orchestrator drives zone imports: bounded-concurrency batch
// fan-out over the matcher, chunked persistence, and a full run report.
package orchestrator

import (
	"context"
	"sync"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"github.com/smallbiznis/freightrate/internal/clock"
	"github.com/smallbiznis/freightrate/internal/config"
	"github.com/smallbiznis/freightrate/internal/observability/metrics"
	zonedomain "github.com/smallbiznis/freightrate/internal/zone/domain"
	importdomain "github.com/smallbiznis/freightrate/internal/zoneimport/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

type Service struct {
	matcher zonedomain.Matcher
	zones   zonedomain.Repository
	genID   *snowflake.Node
	holder  *config.RatingConfigHolder
	metrics *metrics.ImportMetrics
	clock   clock.Clock
	log     *zap.Logger
}

type ServiceParam struct {
	fx.In

	Matcher zonedomain.Matcher
	Zones   zonedomain.Repository
	GenID   *snowflake.Node
	Holder  *config.RatingConfigHolder
	Metrics *metrics.ImportMetrics
	Clock   clock.Clock
	Log     *zap.Logger
}

func NewService(p ServiceParam) importdomain.Orchestrator {
	return &Service{
		matcher: p.Matcher,
		zones:   p.Zones,
		genID:   p.GenID,
		holder:  p.Holder,
		metrics: p.Metrics,
		clock:   p.Clock,
		log:     p.Log.Named("zoneimport"),
	}
}

// zoneWork pairs the outcome with the pre-dedup tier counts so the report
// can aggregate per-tier totals.
type zoneWork struct {
	done    bool
	outcome importdomain.ZoneOutcome
	counts  map[zonedomain.MatchType]int
}

// Import processes the catalog in fixed-size batches. Zones within a batch
// run concurrently under a semaphore; the orchestrator waits for the whole
// batch, then pauses before the next one to bound write pressure. A failed
// zone never stops the batch or the run.
func (s *Service) Import(ctx context.Context, req importdomain.ImportRequest) (*importdomain.ImportReport, error) {
	cfg := s.holder.Current().Import

	report := &importdomain.ImportReport{
		RunID:           uuid.NewString(),
		StartedAt:       s.clock.Now(),
		TotalZones:      len(req.Definitions),
		MatchTypeCounts: make(map[zonedomain.MatchType]int),
		QualityCounts:   make(map[zonedomain.MatchQuality]int),
	}
	log := s.log.With(zap.String("run_id", report.RunID))

	if req.ClearExisting {
		log.Info("clearing existing zones")
		if err := s.zones.DeleteAll(ctx); err != nil {
			report.FinishedAt = s.clock.Now()
			log.Error("clear existing zones failed", zap.Error(err))
			return report, err
		}
	}

	work := make([]zoneWork, len(req.Definitions))

	for start := 0; start < len(req.Definitions); start += cfg.BatchSize {
		end := start + cfg.BatchSize
		if end > len(req.Definitions) {
			end = len(req.Definitions)
		}

		batchStart := time.Now()
		s.runBatch(ctx, req.Definitions[start:end], work[start:end], cfg.Concurrency, log)
		s.metrics.ObserveBatch(time.Since(batchStart))

		if end < len(req.Definitions) && cfg.BatchPause > 0 {
			select {
			case <-ctx.Done():
				s.summarize(report, work[:end])
				report.FinishedAt = s.clock.Now()
				return report, ctx.Err()
			case <-time.After(time.Duration(cfg.BatchPause) * time.Millisecond):
			}
		}
	}

	s.summarize(report, work)
	report.FinishedAt = s.clock.Now()
	log.Info("import finished",
		zap.Int("total", report.TotalZones),
		zap.Int("successful", report.SuccessfulZones),
		zap.Int("failed", report.FailedZones),
		zap.Int("cities", report.TotalCities),
	)
	return report, nil
}

// runBatch fans the slice out under the concurrency bound. Each worker
// writes only its own index; no state is shared between zones.
func (s *Service) runBatch(ctx context.Context, defs []zonedomain.ZoneDefinition, out []zoneWork, concurrency int, log *zap.Logger) {
	sem := make(chan struct{}, concurrency)
	var wg sync.WaitGroup

	for i := range defs {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int) {
			defer wg.Done()
			defer func() { <-sem }()
			out[i] = s.processZone(ctx, defs[i], log)
		}(i)
	}
	wg.Wait()
}

func (s *Service) processZone(ctx context.Context, def zonedomain.ZoneDefinition, log *zap.Logger) zoneWork {
	start := time.Now()
	outcome := importdomain.ZoneOutcome{ZoneID: def.ZoneID}

	finish := func() zoneWork {
		outcome.DurationMS = time.Since(start).Milliseconds()
		result := "success"
		if !outcome.Success {
			result = "failed"
		}
		s.metrics.ObserveZone(result, time.Since(start))
		return zoneWork{done: true, outcome: outcome}
	}

	matchResult, err := s.matcher.Resolve(ctx, def)
	if err != nil {
		log.Warn("zone resolution failed", zap.String("zone_id", def.ZoneID), zap.Error(err))
		outcome.ErrorMessage = err.Error()
		return finish()
	}

	outcome.Quality = matchResult.Quality
	outcome.CityCount = len(matchResult.Matches)
	outcome.TierErrors = matchResult.TierErrors

	// A zone with any tier failure is counted as failed and not persisted;
	// a re-run picks it up once the underlying lookup recovers.
	if len(matchResult.TierErrors) > 0 {
		log.Warn("zone had tier failures",
			zap.String("zone_id", def.ZoneID),
			zap.Int("tier_errors", len(matchResult.TierErrors)),
		)
		outcome.ErrorMessage = matchResult.TierErrors[0].Message
		return finish()
	}

	zone, cities, postals := s.buildAggregate(def, matchResult, time.Since(start))
	outcome.ZoneCode = zone.Code

	if err := s.zones.ReplaceZone(ctx, zone, cities, postals); err != nil {
		log.Error("zone persist failed", zap.String("zone_code", zone.Code), zap.Error(err))
		outcome.ErrorMessage = err.Error()
		return finish()
	}

	for matchType, count := range matchResult.MatchTypeCounts {
		s.metrics.AddTierMatches(matchType.Tier(), count)
	}

	outcome.Success = true
	work := finish()
	work.counts = matchResult.MatchTypeCounts
	return work
}

// buildAggregate folds a match result into the persisted zone and children.
// Postal children come from the distinct postal codes of the matched
// locations.
func (s *Service) buildAggregate(def zonedomain.ZoneDefinition, result zonedomain.MatchResult, elapsed time.Duration) (*zonedomain.Zone, []zonedomain.ZoneCity, []zonedomain.ZonePostalCode) {
	zone := &zonedomain.Zone{
		ID:               s.genID.Generate(),
		Code:             slug.Make(def.ZoneID),
		Name:             def.Name,
		Country:          def.Country,
		ProvinceState:    def.ProvinceState,
		City:             def.City,
		Enabled:          true,
		MatchQuality:     result.Quality,
		CityCount:        len(result.Matches),
		ProcessingTimeMS: elapsed.Milliseconds(),
		Metadata: datatypes.JSONMap{
			"match_type_counts": result.MatchTypeCounts,
		},
	}

	cities := make([]zonedomain.ZoneCity, 0, len(result.Matches))
	seenPostals := make(map[string]struct{})
	var postals []zonedomain.ZonePostalCode

	for _, match := range result.Matches {
		cities = append(cities, zonedomain.ZoneCity{
			ID:             s.genID.Generate(),
			ZoneID:         zone.ID,
			City:           match.City,
			ProvinceState:  match.ProvinceState,
			Country:        match.Country,
			PostalCode:     match.PostalCode,
			Latitude:       match.Latitude,
			Longitude:      match.Longitude,
			MatchType:      match.MatchType,
			DistanceMeters: match.DistanceMeters,
		})

		if match.PostalCode == "" {
			continue
		}
		if _, ok := seenPostals[match.PostalCode]; ok {
			continue
		}
		seenPostals[match.PostalCode] = struct{}{}
		postals = append(postals, zonedomain.ZonePostalCode{
			ID:            s.genID.Generate(),
			ZoneID:        zone.ID,
			PostalCode:    match.PostalCode,
			Country:       match.Country,
			ProvinceState: match.ProvinceState,
		})
	}
	return zone, cities, postals
}

func (s *Service) summarize(report *importdomain.ImportReport, work []zoneWork) {
	var totalMS int64
	processed := 0

	for _, w := range work {
		if !w.done {
			continue
		}
		processed++
		report.Outcomes = append(report.Outcomes, w.outcome)

		if w.outcome.Success {
			report.SuccessfulZones++
			report.TotalCities += w.outcome.CityCount
		} else {
			report.FailedZones++
		}
		if w.outcome.Quality != "" {
			report.QualityCounts[w.outcome.Quality]++
		}
		for matchType, count := range w.counts {
			report.MatchTypeCounts[matchType] += count
		}

		ms := w.outcome.DurationMS
		totalMS += ms
		if report.MinZoneMS == 0 || ms < report.MinZoneMS {
			report.MinZoneMS = ms
		}
		if ms > report.MaxZoneMS {
			report.MaxZoneMS = ms
		}
	}

	if processed > 0 {
		report.AvgZoneMS = totalMS / int64(processed)
	}
}
