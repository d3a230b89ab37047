package repository

import (
	"context"

	"github.com/smallbiznis/freightrate/internal/ratecard/domain"
	"github.com/smallbiznis/freightrate/pkg/db/option"
	"github.com/smallbiznis/freightrate/pkg/repository"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

type repo struct {
	cards   repository.Repository[domain.RateCard]
	entries repository.Repository[domain.RateCardEntry]
}

type RepositoryParam struct {
	fx.In

	DB *gorm.DB
}

func NewRepository(p RepositoryParam) domain.Repository {
	return &repo{
		cards:   repository.ProvideStore[domain.RateCard](p.DB),
		entries: repository.ProvideStore[domain.RateCardEntry](p.DB),
	}
}

func (r *repo) FindCard(ctx context.Context, carrierID string) (*domain.RateCard, error) {
	return r.cards.FindOne(ctx, &domain.RateCard{CarrierID: carrierID, IsActive: true})
}

// ActiveEntries orders by id ascending. Scoring keeps the first seen entry
// on ties, so enumeration order has to be stable.
func (r *repo) ActiveEntries(ctx context.Context, carrierID string) ([]*domain.RateCardEntry, error) {
	return r.entries.Find(ctx,
		&domain.RateCardEntry{CarrierID: carrierID, IsActive: true},
		option.WithOrder("id ASC"),
	)
}
