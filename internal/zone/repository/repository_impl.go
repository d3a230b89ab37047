package repository

import (
	"context"
	"errors"
	"strconv"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/freightrate/internal/config"
	"github.com/smallbiznis/freightrate/internal/zone/domain"
	"github.com/smallbiznis/freightrate/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// deleteChunk bounds bulk delete batches during a clearExisting pass.
const deleteChunk = 400

type repository struct {
	db     *gorm.DB
	holder *config.RatingConfigHolder
	log    *zap.Logger
}

type RepositoryParam struct {
	fx.In

	DB     *gorm.DB
	Holder *config.RatingConfigHolder
	Log    *zap.Logger
}

func NewRepository(p RepositoryParam) domain.Repository {
	return &repository{
		db:     p.DB,
		holder: p.Holder,
		log:    p.Log.Named("zone.repository"),
	}
}

// commitChunk bounds the number of child rows written in a single commit.
// The backing store rejects write batches past roughly 450 items; the holder
// clamps the configured value under that.
func (r *repository) commitChunk() int {
	return r.holder.Current().Import.CommitChunk
}

// ReplaceZone swaps the aggregate in two phases: the zone row and the removal
// of stale children commit atomically, then child rows are appended in
// sequential chunked commits so no single write batch exceeds the store
// limit. A failure mid-append leaves a partially populated zone; re-import
// replaces it wholesale.
func (r *repository) ReplaceZone(ctx context.Context, zone *domain.Zone, cities []domain.ZoneCity, postals []domain.ZonePostalCode) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing domain.Zone
		err := tx.Where("code = ?", zone.Code).First(&existing).Error
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if err == nil {
			if err := tx.Where("zone_id = ?", existing.ID).Delete(&domain.ZoneCity{}).Error; err != nil {
				return err
			}
			if err := tx.Where("zone_id = ?", existing.ID).Delete(&domain.ZonePostalCode{}).Error; err != nil {
				return err
			}
			if err := tx.Delete(&existing).Error; err != nil {
				return err
			}
		}
		return tx.Create(zone).Error
	})
	if err != nil {
		return err
	}

	chunk := r.commitChunk()
	if len(cities) > 0 {
		if err := r.db.WithContext(ctx).CreateInBatches(cities, chunk).Error; err != nil {
			return err
		}
	}
	if len(postals) > 0 {
		if err := r.db.WithContext(ctx).CreateInBatches(postals, chunk).Error; err != nil {
			return err
		}
	}
	return nil
}

func (r *repository) DeleteAll(ctx context.Context) error {
	for _, table := range []string{"zone_cities", "zone_postal_codes", "zones"} {
		if err := r.deleteAllFrom(ctx, table); err != nil {
			return err
		}
	}
	return nil
}

// deleteAllFrom removes rows in bounded batches to keep individual commits
// under the store's item limit.
func (r *repository) deleteAllFrom(ctx context.Context, table string) error {
	for {
		result := r.db.WithContext(ctx).Exec(
			"DELETE FROM "+table+" WHERE id IN (SELECT id FROM "+table+" LIMIT ?)",
			deleteChunk,
		)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return nil
		}
	}
}

func (r *repository) FindByCode(ctx context.Context, code string) (*domain.Zone, error) {
	var zone domain.Zone
	err := r.db.WithContext(ctx).Where("code = ?", code).First(&zone).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &zone, nil
}

func (r *repository) ListCities(ctx context.Context, zoneID snowflake.ID) ([]domain.ZoneCity, error) {
	var rows []domain.ZoneCity
	err := r.db.WithContext(ctx).
		Where("zone_id = ?", zoneID).
		Order("city ASC").
		Find(&rows).Error
	return rows, err
}

func (r *repository) ListPostalCodes(ctx context.Context, zoneID snowflake.ID) ([]domain.ZonePostalCode, error) {
	var rows []domain.ZonePostalCode
	err := r.db.WithContext(ctx).
		Where("zone_id = ?", zoneID).
		Order("postal_code ASC").
		Find(&rows).Error
	return rows, err
}

func (r *repository) List(ctx context.Context, page pagination.Pagination) ([]*domain.Zone, *pagination.PageInfo, error) {
	if page.PageSize <= 0 {
		page.PageSize = 50
	}

	stmt := r.db.WithContext(ctx).Model(&domain.Zone{})
	if page.PageToken != "" {
		cursor, err := pagination.DecodeCursor(page.PageToken)
		if err != nil {
			return nil, nil, err
		}
		if cursor.ID != "" {
			stmt = stmt.Where("id > ?", cursor.ID)
		}
	}

	var rows []*domain.Zone
	err := stmt.Order("id ASC").Limit(page.PageSize + 1).Find(&rows).Error
	if err != nil {
		return nil, nil, err
	}

	rows, info := pagination.BuildCursorPageInfo(rows, page.PageSize, func(zone *domain.Zone) string {
		token, _ := pagination.EncodeCursor(pagination.Cursor{ID: strconv.FormatInt(int64(zone.ID), 10)})
		return token
	})
	return rows, info, nil
}
