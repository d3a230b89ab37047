// Package service implements the factor priority waterfall: customer
// override first, then carrier rules from most to least specific.
package service

import (
	"context"
	"fmt"

	"github.com/smallbiznis/freightrate/internal/clock"
	"github.com/smallbiznis/freightrate/internal/dimfactor/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Service struct {
	repo  domain.Repository
	clock clock.Clock
	log   *zap.Logger
}

type ServiceParam struct {
	fx.In

	Repo  domain.Repository
	Clock clock.Clock
	Log   *zap.Logger
}

func NewService(p ServiceParam) domain.Resolver {
	return &Service{
		repo:  p.Repo,
		clock: p.Clock,
		log:   p.Log.Named("dimfactor.resolver"),
	}
}

// Resolve walks the waterfall and returns the first applicable factor. A nil
// result means no rule covers the key; rating then uses actual weight.
func (s *Service) Resolve(ctx context.Context, key domain.LookupKey) (*domain.ResolvedDimFactor, error) {
	now := s.clock.Now()

	if key.CustomerID != "" {
		overrides, err := s.repo.FindOverrides(ctx, key.CustomerID, key.CarrierID)
		if err != nil {
			return nil, err
		}
		for _, override := range overrides {
			if override.Matches(key.ServiceType, key.Zone, now) {
				return &domain.ResolvedDimFactor{
					Factor: override.Factor,
					Unit:   override.Unit,
					Source: fmt.Sprintf("customer_override:%s", key.CustomerID),
				}, nil
			}
		}
	}

	// Probe order is fixed: exact/exact, exact/all, all/exact, all/all.
	probes := []struct {
		serviceType string
		zone        string
	}{
		{key.ServiceType, key.Zone},
		{key.ServiceType, domain.Wildcard},
		{domain.Wildcard, key.Zone},
		{domain.Wildcard, domain.Wildcard},
	}

	for _, probe := range probes {
		if probe.serviceType == "" || probe.zone == "" {
			continue
		}
		rows, err := s.repo.FindFactors(ctx, key.CarrierID, probe.serviceType, probe.zone)
		if err != nil {
			return nil, err
		}
		// Rows arrive newest effective date first; the first applicable
		// row wins the tie within this probe.
		for _, row := range rows {
			if !row.Applicable(now) {
				continue
			}
			return &domain.ResolvedDimFactor{
				Factor: row.Factor,
				Unit:   row.Unit,
				Source: fmt.Sprintf("carrier:%s/%s", probe.serviceType, probe.zone),
			}, nil
		}
	}

	s.log.Debug("no dim factor applicable",
		zap.String("carrier_id", key.CarrierID),
		zap.String("service_type", key.ServiceType),
		zap.String("zone", key.Zone),
	)
	return nil, nil
}
