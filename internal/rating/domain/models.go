// Package domain contains the rating request and result models plus the
// explicit not-found variant rate lookups return instead of throwing.
package domain

import (
	"context"
	"errors"
	"fmt"

	chargeabledomain "github.com/smallbiznis/freightrate/internal/chargeable/domain"
	ratecarddomain "github.com/smallbiznis/freightrate/internal/ratecard/domain"
)

var (
	ErrInvalidRequest = errors.New("invalid_rate_request")
	ErrNoRateFound    = errors.New("no_rate_found")
)

// NoRateError carries the human-readable reason no rate matched. It unwraps
// to ErrNoRateFound so callers can branch on the sentinel.
type NoRateError struct {
	Reason string
}

func (e *NoRateError) Error() string {
	return fmt.Sprintf("no rate found: %s", e.Reason)
}

func (e *NoRateError) Unwrap() error { return ErrNoRateFound }

// RateRequest is one quote request. SkidCount zero means "estimate from the
// packages". CustomerID is optional and only affects DIM factor resolution.
type RateRequest struct {
	CarrierID     string                     `json:"carrier_id"`
	ServiceType   string                     `json:"service_type,omitempty"`
	Zone          string                     `json:"zone,omitempty"`
	CustomerID    string                     `json:"customer_id,omitempty"`
	From          ratecarddomain.Endpoint    `json:"from"`
	To            ratecarddomain.Endpoint    `json:"to"`
	Packages      []chargeabledomain.Package `json:"packages"`
	SkidCount     int                        `json:"skid_count,omitempty"`
	DeclaredValue float64                    `json:"declared_value,omitempty"`
}

// Adjustment is one additive surcharge on top of the base rate.
type Adjustment struct {
	Description string  `json:"description"`
	Amount      float64 `json:"amount"`
}

// RateResult is the transient quote output. Never persisted here; shipment
// rate persistence is the caller's concern.
type RateResult struct {
	CarrierID          string       `json:"carrier_id"`
	CarrierName        string       `json:"carrier_name"`
	Currency           string       `json:"currency"`
	BaseRate           float64      `json:"base_rate"`
	TotalRate          float64      `json:"total_rate"`
	ActualWeightLb     float64      `json:"actual_weight_lb"`
	ChargeableWeightLb float64      `json:"chargeable_weight_lb"`
	WeightBasis        string       `json:"weight_basis"`
	SkidCount          int          `json:"skid_count"`
	Adjustments        []Adjustment `json:"adjustments,omitempty"`
	Calculation        []string     `json:"calculation"`
}

// Engine produces a quote or a *NoRateError. Storage or validation failures
// are returned as plain errors.
type Engine interface {
	Quote(ctx context.Context, req RateRequest) (*RateResult, error)
}
