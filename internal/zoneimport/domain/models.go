// Package domain contains the zone import report models. An import run
// resolves a catalog of zone definitions in bounded-concurrency batches and
// persists each resolved zone aggregate.
package domain

import (
	"context"
	"time"

	zonedomain "github.com/smallbiznis/freightrate/internal/zone/domain"
)

// ImportRequest is one orchestrator invocation.
type ImportRequest struct {
	Definitions   []zonedomain.ZoneDefinition `json:"definitions"`
	ClearExisting bool                        `json:"clear_existing,omitempty"`
}

// ZoneOutcome records what happened to one definition.
type ZoneOutcome struct {
	ZoneID       string                  `json:"zone_id"`
	ZoneCode     string                  `json:"zone_code,omitempty"`
	Success      bool                    `json:"success"`
	Quality      zonedomain.MatchQuality `json:"match_quality,omitempty"`
	CityCount    int                     `json:"city_count"`
	DurationMS   int64                   `json:"duration_ms"`
	ErrorMessage string                  `json:"error,omitempty"`
	TierErrors   []zonedomain.TierError  `json:"tier_errors,omitempty"`
}

// ImportReport is always returned in full, even when zones failed. Success
// is per zone, never all-or-nothing.
type ImportReport struct {
	RunID           string                          `json:"run_id"`
	StartedAt       time.Time                       `json:"started_at"`
	FinishedAt      time.Time                       `json:"finished_at"`
	TotalZones      int                             `json:"total_zones"`
	SuccessfulZones int                             `json:"successful_zones"`
	FailedZones     int                             `json:"failed_zones"`
	TotalCities     int                             `json:"total_cities"`
	MatchTypeCounts map[zonedomain.MatchType]int    `json:"match_type_counts"`
	QualityCounts   map[zonedomain.MatchQuality]int `json:"quality_counts"`
	MinZoneMS       int64                           `json:"min_zone_ms"`
	MaxZoneMS       int64                           `json:"max_zone_ms"`
	AvgZoneMS       int64                           `json:"avg_zone_ms"`
	Outcomes        []ZoneOutcome                   `json:"outcomes"`
}

// Orchestrator runs a full import. The report is returned even alongside a
// storage error so callers can see what completed before the failure.
type Orchestrator interface {
	Import(ctx context.Context, req ImportRequest) (*ImportReport, error)
}
