// Package service implements the rate lookup engine: route scoring over a
// carrier's active rate-card entries, skid or hundredweight pricing, and the
// final surcharge pass.
package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/smallbiznis/freightrate/internal/chargeable/calculator"
	chargeabledomain "github.com/smallbiznis/freightrate/internal/chargeable/domain"
	"github.com/smallbiznis/freightrate/internal/config"
	dimfactordomain "github.com/smallbiznis/freightrate/internal/dimfactor/domain"
	"github.com/smallbiznis/freightrate/internal/observability/metrics"
	ratecarddomain "github.com/smallbiznis/freightrate/internal/ratecard/domain"
	ratingdomain "github.com/smallbiznis/freightrate/internal/rating/domain"
	"github.com/smallbiznis/freightrate/internal/unit"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	scoreCity   = 100
	scorePostal = 80
	scoreState  = 20

	// Estimation thresholds for packages not explicitly declared as skids.
	skidWeightThresholdLb  = 200.0
	skidVolumeThresholdFt3 = 20.0
	cubicInchesPerFoot     = 1728.0
)

type Service struct {
	cards      ratecarddomain.Repository
	calculator *calculator.Service
	holder     *config.RatingConfigHolder
	metrics    *metrics.Metrics
	log        *zap.Logger
}

type ServiceParam struct {
	fx.In

	Cards      ratecarddomain.Repository
	Calculator *calculator.Service
	Holder     *config.RatingConfigHolder
	Metrics    *metrics.Metrics
	Log        *zap.Logger
}

func NewService(p ServiceParam) ratingdomain.Engine {
	return &Service{
		cards:      p.Cards,
		calculator: p.Calculator,
		holder:     p.Holder,
		metrics:    p.Metrics,
		log:        p.Log.Named("rating.engine"),
	}
}

func (s *Service) Quote(ctx context.Context, req ratingdomain.RateRequest) (*ratingdomain.RateResult, error) {
	if err := validate(req); err != nil {
		return nil, err
	}

	weight, err := s.calculator.Calculate(ctx, dimfactordomain.LookupKey{
		CarrierID:   req.CarrierID,
		ServiceType: req.ServiceType,
		Zone:        req.Zone,
		CustomerID:  req.CustomerID,
	}, req.Packages)
	if err != nil {
		return nil, err
	}

	skids := req.SkidCount
	if skids <= 0 {
		skids = EstimateSkidCount(req.Packages)
	}

	entries, err := s.cards.ActiveEntries(ctx, req.CarrierID)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		s.metrics.RecordRateQuote(ctx, false)
		return nil, &ratingdomain.NoRateError{Reason: fmt.Sprintf("no active rate entries for carrier %s", req.CarrierID)}
	}

	best, bestScore := bestMatch(entries, req.From, req.To)
	if best == nil {
		s.metrics.RecordRateQuote(ctx, false)
		return nil, &ratingdomain.NoRateError{Reason: "no rate entry matches the requested route"}
	}

	result := &ratingdomain.RateResult{
		CarrierID:          req.CarrierID,
		Currency:           "CAD",
		ActualWeightLb:     weight.TotalActualLb,
		ChargeableWeightLb: weight.TotalChargeableLb,
		WeightBasis:        "actual",
		SkidCount:          skids,
	}
	if weight.DimWeightApplied {
		result.WeightBasis = "volumetric"
	}

	if card, err := s.cards.FindCard(ctx, req.CarrierID); err != nil {
		return nil, err
	} else if card != nil {
		result.CarrierName = card.EffectiveCarrierName()
		if card.Currency != "" {
			result.Currency = card.Currency
		}
	} else {
		result.CarrierName = req.CarrierID
	}

	result.Calculation = append(result.Calculation,
		fmt.Sprintf("chargeable weight %.1f lb (%s basis)", weight.TotalChargeableLb, result.WeightBasis),
		fmt.Sprintf("route match score %d", bestScore),
	)

	base, trace, noRate := priceEntry(best, weight.TotalChargeableLb, skids)
	if noRate != nil {
		s.metrics.RecordRateQuote(ctx, false)
		return nil, noRate
	}
	result.BaseRate = base
	result.TotalRate = base
	result.Calculation = append(result.Calculation, trace...)

	s.applySurcharges(req, result)

	s.metrics.RecordRateQuote(ctx, true)
	s.log.Info("rate quoted",
		zap.String("carrier_id", req.CarrierID),
		zap.Float64("base_rate", result.BaseRate),
		zap.Float64("total_rate", result.TotalRate),
		zap.String("weight_basis", result.WeightBasis),
	)
	return result, nil
}

func validate(req ratingdomain.RateRequest) error {
	if strings.TrimSpace(req.CarrierID) == "" {
		return fmt.Errorf("%w: carrier_id is required", ratingdomain.ErrInvalidRequest)
	}
	if len(req.Packages) == 0 {
		return fmt.Errorf("%w: at least one package is required", ratingdomain.ErrInvalidRequest)
	}
	for i, pkg := range req.Packages {
		if pkg.Weight <= 0 {
			return fmt.Errorf("%w: package %d has no weight", ratingdomain.ErrInvalidRequest, i)
		}
	}
	return nil
}

// bestMatch scores every entry and keeps the highest. Strict greater-than
// keeps the first seen entry on ties; entries arrive ordered by id so the
// tie-break is deterministic.
func bestMatch(entries []*ratecarddomain.RateCardEntry, from, to ratecarddomain.Endpoint) (*ratecarddomain.RateCardEntry, int) {
	var best *ratecarddomain.RateCardEntry
	bestScore := 0

	for _, entry := range entries {
		fromScore := scoreLocation(entry.From(), from)
		if fromScore == 0 {
			continue
		}
		toScore := scoreLocation(entry.To(), to)
		if toScore == 0 {
			continue
		}
		if total := fromScore + toScore; total > bestScore {
			best = entry
			bestScore = total
		}
	}
	return best, bestScore
}

// scoreLocation walks the specificity ladder: city 100, 3-char postal prefix
// 80, province/state 20, otherwise 0.
func scoreLocation(entry, shipment ratecarddomain.Endpoint) int {
	if entry.City != "" && shipment.City != "" && strings.EqualFold(entry.City, shipment.City) {
		return scoreCity
	}
	if prefixMatch(entry.PostalCode, shipment.PostalCode) {
		return scorePostal
	}
	if entry.ProvinceState != "" && shipment.ProvinceState != "" && strings.EqualFold(entry.ProvinceState, shipment.ProvinceState) {
		return scoreState
	}
	return 0
}

func prefixMatch(a, b string) bool {
	a = strings.ToUpper(strings.ReplaceAll(a, " ", ""))
	b = strings.ToUpper(strings.ReplaceAll(b, " ", ""))
	if len(a) < 3 || len(b) < 3 {
		return false
	}
	return a[:3] == b[:3]
}

// priceEntry applies the entry's own pricing model. A failed precondition
// returns a NoRateError; a rate is never synthesized.
func priceEntry(entry *ratecarddomain.RateCardEntry, chargeableLb float64, skids int) (float64, []string, *ratingdomain.NoRateError) {
	switch entry.RateType {
	case ratecarddomain.RateTypeSkidBased:
		if entry.MinWeight > 0 && chargeableLb < entry.MinWeight {
			return 0, nil, &ratingdomain.NoRateError{
				Reason: fmt.Sprintf("chargeable weight %.1f lb below entry minimum %.1f lb", chargeableLb, entry.MinWeight),
			}
		}
		price, ok := skidPrice(entry.SkidRates, skids)
		if !ok {
			return 0, nil, &ratingdomain.NoRateError{
				Reason: fmt.Sprintf("no skid price for %d skids", skids),
			}
		}
		trace := []string{fmt.Sprintf("skid rate: %d skids at flat %.2f", skids, price)}
		return price, trace, nil

	case ratecarddomain.RateTypeWeightBased:
		if chargeableLb < entry.WeightMin || chargeableLb > entry.WeightMax {
			return 0, nil, &ratingdomain.NoRateError{
				Reason: fmt.Sprintf("chargeable weight %.1f lb outside band %.1f-%.1f lb", chargeableLb, entry.WeightMin, entry.WeightMax),
			}
		}
		rate := chargeableLb / 100 * entry.RatePer100Lbs
		trace := []string{fmt.Sprintf("weight rate: %.1f lb at %.2f per 100 lb = %.2f", chargeableLb, entry.RatePer100Lbs, rate)}
		if entry.MinCharge > rate {
			rate = entry.MinCharge
			trace = append(trace, fmt.Sprintf("raised to minimum charge %.2f", entry.MinCharge))
		}
		return rate, trace, nil

	default:
		return 0, nil, &ratingdomain.NoRateError{
			Reason: fmt.Sprintf("unknown rate type %q", entry.RateType),
		}
	}
}

// skidPrice reads the flat price for a skid count out of the JSON rate map.
// No interpolation between counts.
func skidPrice(rates map[string]interface{}, skids int) (float64, bool) {
	raw, ok := rates[strconv.Itoa(skids)]
	if !ok {
		return 0, false
	}
	switch v := raw.(type) {
	case float64:
		return v, v > 0
	case int:
		return float64(v), v > 0
	case string:
		parsed, err := strconv.ParseFloat(v, 64)
		return parsed, err == nil && parsed > 0
	default:
		return 0, false
	}
}

// applySurcharges adds the flat oversize surcharge and the declared-value
// percentage. Both are additive and independent, each recorded in the
// adjustments list and the calculation trace.
func (s *Service) applySurcharges(req ratingdomain.RateRequest, result *ratingdomain.RateResult) {
	cfg := s.holder.Current()

	if hasOversizePackage(req.Packages, cfg.OversizeDimension) {
		result.Adjustments = append(result.Adjustments, ratingdomain.Adjustment{
			Description: fmt.Sprintf("oversize surcharge (dimension over %.0f)", cfg.OversizeDimension),
			Amount:      cfg.OversizeSurcharge,
		})
		result.TotalRate += cfg.OversizeSurcharge
		result.Calculation = append(result.Calculation,
			fmt.Sprintf("oversize surcharge +%.2f", cfg.OversizeSurcharge))
	}

	if req.DeclaredValue > cfg.HighValueMinimum {
		amount := req.DeclaredValue * cfg.HighValuePercent
		result.Adjustments = append(result.Adjustments, ratingdomain.Adjustment{
			Description: fmt.Sprintf("declared value surcharge (%.0f%% of %.2f)", cfg.HighValuePercent*100, req.DeclaredValue),
			Amount:      amount,
		})
		result.TotalRate += amount
		result.Calculation = append(result.Calculation,
			fmt.Sprintf("declared value surcharge +%.2f", amount))
	}
}

// hasOversizePackage compares in the shipment's declared unit.
func hasOversizePackage(packages []chargeabledomain.Package, threshold float64) bool {
	for _, pkg := range packages {
		if pkg.Length > threshold || pkg.Width > threshold || pkg.Height > threshold {
			return true
		}
	}
	return false
}

// EstimateSkidCount counts palletized packages: a package is a skid when its
// description names one, or it weighs over 200 lb, or it exceeds 20 cubic
// feet. Minimum one skid.
func EstimateSkidCount(packages []chargeabledomain.Package) int {
	skids := 0
	for _, pkg := range packages {
		quantity := pkg.Quantity
		if quantity <= 0 {
			quantity = 1
		}
		if isSkid(pkg) {
			skids += quantity
		}
	}
	if skids < 1 {
		skids = 1
	}
	return skids
}

func isSkid(pkg chargeabledomain.Package) bool {
	desc := strings.ToLower(pkg.Description)
	for _, marker := range []string{"skid", "pallet", "crate"} {
		if strings.Contains(desc, marker) {
			return true
		}
	}

	weightLb, err := unit.ConvertWeight(pkg.Weight, pkg.WeightUnit, unit.WeightPound)
	if err == nil && weightLb > skidWeightThresholdLb {
		return true
	}

	if pkg.HasDimensions() {
		toInch := func(v float64) float64 {
			converted, err := unit.ConvertLength(v, pkg.DimensionUnit, unit.LengthInch)
			if err != nil {
				return 0
			}
			return converted
		}
		volumeFt3 := toInch(pkg.Length) * toInch(pkg.Width) * toInch(pkg.Height) / cubicInchesPerFoot
		if volumeFt3 > skidVolumeThresholdFt3 {
			return true
		}
	}
	return false
}
