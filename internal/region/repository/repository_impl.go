package repository

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/freightrate/internal/region/domain"
	"github.com/smallbiznis/freightrate/pkg/db/pagination"
	"gorm.io/gorm"
)

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) domain.Repository {
	return &repository{db: db}
}

func (r *repository) FindByBounds(ctx context.Context, country, provinceState string, minLat, maxLat, minLng, maxLng float64) ([]domain.Region, error) {
	var rows []domain.Region
	stmt := r.db.WithContext(ctx).
		Where("enabled = ?", true).
		Where("type IN ?", []domain.RegionType{domain.RegionTypeFSA, domain.RegionTypeZIP3}).
		Where("latitude IS NOT NULL AND longitude IS NOT NULL").
		Where("latitude BETWEEN ? AND ?", minLat, maxLat).
		Where("longitude BETWEEN ? AND ?", minLng, maxLng)
	stmt = scope(stmt, country, provinceState)
	err := stmt.Find(&rows).Error
	return rows, err
}

func (r *repository) FindByPostalPrefix(ctx context.Context, country, provinceState, prefix string) ([]domain.Region, error) {
	prefix = strings.ToUpper(strings.TrimSpace(prefix))
	if prefix == "" {
		return nil, nil
	}

	var rows []domain.Region
	stmt := r.db.WithContext(ctx).
		Where("enabled = ?", true).
		Where("postal_code LIKE ?", prefix+"%")
	stmt = scope(stmt, country, provinceState)
	err := stmt.Find(&rows).Error
	return rows, err
}

func (r *repository) FindByCityName(ctx context.Context, country, provinceState, city string) ([]domain.Region, error) {
	city = strings.TrimSpace(city)
	if city == "" {
		return nil, nil
	}

	var rows []domain.Region
	stmt := r.db.WithContext(ctx).
		Where("enabled = ?", true).
		Where("city = ?", city)
	stmt = scope(stmt, country, provinceState)
	err := stmt.Find(&rows).Error
	return rows, err
}

func (r *repository) FindByCityNameFold(ctx context.Context, country, provinceState, city string) ([]domain.Region, error) {
	city = strings.TrimSpace(city)
	if city == "" {
		return nil, nil
	}

	var rows []domain.Region
	stmt := r.db.WithContext(ctx).
		Where("enabled = ?", true).
		Where("LOWER(city) = LOWER(?)", city)
	stmt = scope(stmt, country, provinceState)
	err := stmt.Find(&rows).Error
	return rows, err
}

func (r *repository) FindByCode(ctx context.Context, code string, regionType domain.RegionType) (*domain.Region, error) {
	var row domain.Region
	err := r.db.WithContext(ctx).
		Where("code = ? AND type = ?", code, regionType).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

func (r *repository) ListChildren(ctx context.Context, parentID snowflake.ID) ([]domain.Region, error) {
	var rows []domain.Region
	err := r.db.WithContext(ctx).
		Where("parent_region_id = ?", parentID).
		Order("code ASC").
		Find(&rows).Error
	return rows, err
}

func (r *repository) List(ctx context.Context, filter domain.ListFilter, page pagination.Pagination) ([]*domain.Region, *pagination.PageInfo, error) {
	if page.PageSize <= 0 {
		page.PageSize = 50
	}

	stmt := r.db.WithContext(ctx).Model(&domain.Region{})
	if filter.Country != "" {
		stmt = stmt.Where("country = ?", filter.Country)
	}
	if filter.ProvinceState != "" {
		stmt = stmt.Where("province_state = ?", filter.ProvinceState)
	}
	if filter.Type != "" {
		stmt = stmt.Where("type = ?", filter.Type)
	}

	if page.PageToken != "" {
		cursor, err := pagination.DecodeCursor(page.PageToken)
		if err != nil {
			return nil, nil, err
		}
		if cursor.ID != "" {
			stmt = stmt.Where("id > ?", cursor.ID)
		}
	}

	var rows []*domain.Region
	// Over-fetch one row to detect a next page.
	err := stmt.Order("id ASC").Limit(page.PageSize + 1).Find(&rows).Error
	if err != nil {
		return nil, nil, err
	}

	rows, info := pagination.BuildCursorPageInfo(rows, page.PageSize, func(region *domain.Region) string {
		token, _ := pagination.EncodeCursor(pagination.Cursor{ID: strconv.FormatInt(int64(region.ID), 10)})
		return token
	})
	return rows, info, nil
}

func scope(stmt *gorm.DB, country, provinceState string) *gorm.DB {
	if country != "" {
		stmt = stmt.Where("country = ?", country)
	}
	if provinceState != "" {
		stmt = stmt.Where("province_state = ?", provinceState)
	}
	return stmt
}
