package domain

import "context"

// Repository reads rate cards and their entries. ActiveEntries returns rows
// ordered by id ascending so route scoring sees a stable input order.
type Repository interface {
	FindCard(ctx context.Context, carrierID string) (*RateCard, error)
	ActiveEntries(ctx context.Context, carrierID string) ([]*RateCardEntry, error)
}
