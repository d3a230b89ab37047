package domain

import "context"

// LookupKey identifies one factor resolution. CustomerID is optional; when
// set, customer overrides are consulted first.
type LookupKey struct {
	CarrierID   string `json:"carrier_id"`
	ServiceType string `json:"service_type"`
	Zone        string `json:"zone"`
	CustomerID  string `json:"customer_id,omitempty"`
}

// Resolver picks the single applicable factor for a lookup key. A nil result
// with a nil error means no factor applies and the caller must rate on
// actual weight.
type Resolver interface {
	Resolve(ctx context.Context, key LookupKey) (*ResolvedDimFactor, error)
}

// Repository is the read surface over factor storage. Probe results come
// back ordered by effective date descending so the first row wins ties.
type Repository interface {
	FindOverrides(ctx context.Context, customerID, carrierID string) ([]CustomerDimFactorOverride, error)
	FindFactors(ctx context.Context, carrierID, serviceType, zone string) ([]DimFactor, error)
}
