package migration

import (
	"github.com/smallbiznis/freightrate/internal/config"
	dimfactordomain "github.com/smallbiznis/freightrate/internal/dimfactor/domain"
	ratecarddomain "github.com/smallbiznis/freightrate/internal/ratecard/domain"
	regiondomain "github.com/smallbiznis/freightrate/internal/region/domain"
	"github.com/smallbiznis/freightrate/internal/seed"
	zonedomain "github.com/smallbiznis/freightrate/internal/zone/domain"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config) error {
		if cfg.DBType == "postgres" {
			sqlDB, err := conn.DB()
			if err != nil {
				return err
			}
			if err := RunMigrations(sqlDB); err != nil {
				return err
			}
		} else {
			// sqlite and mysql dev setups skip versioned migrations.
			err := conn.AutoMigrate(
				&regiondomain.Region{},
				&zonedomain.Zone{},
				&zonedomain.ZoneCity{},
				&zonedomain.ZonePostalCode{},
				&dimfactordomain.DimFactor{},
				&dimfactordomain.CustomerDimFactorOverride{},
				&ratecarddomain.RateCard{},
				&ratecarddomain.RateCardEntry{},
			)
			if err != nil {
				return err
			}
		}

		if cfg.SeedReferenceData {
			return seed.EnsureReferenceRegions(conn)
		}
		return nil
	}),
)
