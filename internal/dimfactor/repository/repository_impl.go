package repository

import (
	"context"

	"github.com/smallbiznis/freightrate/internal/dimfactor/domain"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

type repository struct {
	db *gorm.DB
}

type RepositoryParam struct {
	fx.In

	DB *gorm.DB
}

func NewRepository(p RepositoryParam) domain.Repository {
	return &repository{db: p.DB}
}

func (r *repository) FindOverrides(ctx context.Context, customerID, carrierID string) ([]domain.CustomerDimFactorOverride, error) {
	var rows []domain.CustomerDimFactorOverride
	err := r.db.WithContext(ctx).
		Where("customer_id = ? AND carrier_id = ? AND is_active = ?", customerID, carrierID, true).
		Order("created_at DESC").
		Find(&rows).Error
	return rows, err
}

// FindFactors returns active rows for one waterfall probe, newest effective
// date first so the caller can take the first applicable row.
func (r *repository) FindFactors(ctx context.Context, carrierID, serviceType, zone string) ([]domain.DimFactor, error) {
	var rows []domain.DimFactor
	err := r.db.WithContext(ctx).
		Where("carrier_id = ? AND service_type = ? AND zone = ? AND is_active = ?", carrierID, serviceType, zone, true).
		Order("effective_date DESC").
		Find(&rows).Error
	return rows, err
}
